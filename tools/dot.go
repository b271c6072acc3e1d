package tools

// dot -Tpng g.dot > g.png

import (
	"fmt"
	"io"
	"strings"

	. "github.com/Comcast/netparse/core"

	"gopkg.in/yaml.v2"
)

func dotEscape(s string) string {
	s = strings.Replace(s, "&", `&amp;`, -1)
	s = strings.Replace(s, "<", `&lt;`, -1)
	return strings.Replace(s, ">", `&gt;`, -1)
}

// Dot makes a Graphviz dot file for the given document.  Directive
// arguments appear in the node labels as YAML.
//
// The optional highlight is the Label of a directive to draw in red.
func Dot(doc *Document, w io.Writer, highlight string) error {

	fmt.Fprintf(w, "digraph G {\n")
	fmt.Fprintf(w, `  graph [ordering=out,rankdir=TB,nodesep=0.3,ranksep=0.6]
  node [shape="record" style="rounded,filled"]
  edge [fontsize = "12"]
`)

	num := 0

	node := func(d *Directive, indent string) string {
		num++
		nid := fmt.Sprintf("n%d", num)

		label := dotEscape(d.Label())
		if d.Register != "" {
			label += `<BR/><FONT POINT-SIZE="8">register ` + dotEscape(d.Register) + `</FONT>`
		}
		if !d.Group() && d.Args != nil {
			y, err := yaml.Marshal(d.Args)
			if err != nil {
				y = []byte(err.Error())
			}
			label += `<FONT POINT-SIZE="6"><BR/>` +
				strings.Replace(dotEscape(string(y)), "\n", `<BR ALIGN="LEFT"/>`, -1) +
				`</FONT>`
		}

		fillcolor := "#99ddc8"
		switch d.Kind {
		case PatternMatch:
			fillcolor = "#52aa5e"
		case JSONTemplate:
			fillcolor = "#2d93ad"
		}
		color := "black"
		if highlight != "" && highlight == d.Label() {
			color = "red"
			fillcolor = "#f98b8b"
		}
		style := "filled"
		if d.Export {
			style += ",bold"
		}
		if d.When != "" {
			style += ",dashed"
		}
		shape := "record"
		if d.Loop != nil {
			shape = "note"
		}
		fmt.Fprintf(w, "%s%s [shape=\"%s\", style=\"%s\", color=\"%s\", fillcolor=\"%s\", label=<%s> ]\n",
			indent, nid, shape, style, color, fillcolor, label)
		return nid
	}

	var process func(ds []*Directive, indent string)
	process = func(ds []*Directive, indent string) {
		last := ""
		for _, d := range ds {
			var nid string
			if d.Group() {
				num++
				nid = fmt.Sprintf("cluster_%d", num)
				fmt.Fprintf(w, "%ssubgraph %s {\n%s  label=<%s>\n", indent, nid, indent, dotEscape(d.Label()))
				process(d.Directives, indent+"  ")
				fmt.Fprintf(w, "%s}\n", indent)
				// Edges can't point at clusters.
				nid = ""
			} else {
				nid = node(d, indent)
			}
			if last != "" && nid != "" {
				label := ""
				if d.When != "" {
					label = fmt.Sprintf(` [ label = <when %s> ]`, dotEscape(d.When))
				}
				fmt.Fprintf(w, "%s%s -> %s%s\n", indent, last, nid, label)
			}
			if nid != "" {
				last = nid
			}
		}
	}

	process(doc.Directives, "  ")

	fmt.Fprintf(w, "}\n")

	return nil
}
