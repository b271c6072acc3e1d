/* Copyright 2018 Comcast Cable Communications Management, LLC
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 * http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package tools

import (
	"fmt"
	"io"
	"strings"

	. "github.com/Comcast/netparse/core"
)

type MermaidOpts struct {
	// ShowRegex will add the regular expression of each
	// pattern_match directive to its node.
	ShowRegex bool `json:"showRegex"`

	// ExportFill is the fill color of for directives that export
	// something.
	ExportFill string `json:"exportFill,omitempty"`

	// MaxLabel truncates long labels.  Zero means no limit.
	MaxLabel int `json:"maxLabel,omitempty"`
}

func mermaidEscape(s string) string {
	s = strings.Replace(s, `"`, `'`, -1)
	return strings.Replace(s, "\n", " ", -1)
}

// Mermaid makes a Mermaid (https://mermaidjs.github.io/) input file
// for the given document.
//
// Directives are connected in execution order.  Group directives
// become subgraphs.
func Mermaid(doc *Document, w io.Writer, opts *MermaidOpts) error {

	if opts == nil {
		opts = &MermaidOpts{
			ShowRegex:  true,
			ExportFill: "#bcf2db",
			MaxLabel:   60,
		}
	}

	fmt.Fprintf(w, "graph TB\n")

	num := 0

	label := func(d *Directive) string {
		s := d.Label()
		if d.Name != "" {
			s += " (" + d.Kind + ")"
		}
		if opts.ShowRegex && d.Kind == PatternMatch {
			if m, is := d.Args.(map[string]interface{}); is {
				if re, is := m["regex"].(string); is {
					s += "<br/>" + re
				}
			}
		}
		if d.Register != "" {
			s += "<br/>register: " + d.Register
		}
		if 0 < opts.MaxLabel && opts.MaxLabel < len(s) {
			s = s[:opts.MaxLabel] + "..."
		}
		return mermaidEscape(s)
	}

	var process func(ds []*Directive, indent string) (first, last string)
	process = func(ds []*Directive, indent string) (first, last string) {
		for _, d := range ds {
			num++
			nid := fmt.Sprintf("n%d", num)

			if d.Group() {
				fmt.Fprintf(w, "%ssubgraph %s [\"%s\"]\n", indent, nid, label(d))
				if f, _ := process(d.Directives, indent+"  "); f == "" {
					// Mermaid doesn't like empty subgraphs.
					fmt.Fprintf(w, "%s  %s_empty((\" \"))\n", indent, nid)
				}
				fmt.Fprintf(w, "%send\n", indent)
			} else if d.When != "" || d.Loop != nil {
				fmt.Fprintf(w, "%s%s{{\"%s\"}}\n", indent, nid, label(d))
			} else {
				fmt.Fprintf(w, "%s%s[\"%s\"]\n", indent, nid, label(d))
			}

			if d.Export && opts.ExportFill != "" {
				fmt.Fprintf(w, "%sstyle %s fill:%s\n", indent, nid, opts.ExportFill)
			}

			if last != "" {
				edge := "-->"
				if d.When != "" {
					edge = fmt.Sprintf(`-. "when %s" .->`, mermaidEscape(d.When))
				}
				fmt.Fprintf(w, "%s%s %s %s\n", indent, last, edge, nid)
			}

			if first == "" {
				first = nid
			}
			last = nid
		}
		return first, last
	}

	process(doc.Directives, "  ")

	return nil
}
