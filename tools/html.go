package tools

import (
	"encoding/json"
	"fmt"
	"html"
	"io"

	"github.com/Comcast/netparse/core"
	. "github.com/Comcast/netparse/util/testutil"

	md "github.com/russross/blackfriday/v2"
)

// DocKeys are the parser_metadata properties that can hold Markdown
// documentation.
var DocKeys = []string{"doc", "description"}

func docOf(m map[string]interface{}) string {
	for _, k := range DocKeys {
		if s, is := m[k].(string); is && s != "" {
			return s
		}
	}
	return ""
}

// RenderDocumentHTML writes an HTML fragment describing the
// document's directives.
func RenderDocumentHTML(doc *core.Document, out io.Writer) error {
	f := func(format string, args ...interface{}) {
		fmt.Fprintf(out, format+"\n", args...)
	}

	if s := docOf(doc.Metadata); s != "" {
		f(`<div class="docDoc doc">%s</div>`, md.Run([]byte(s)))
	}

	var directives func(ds []*core.Directive)
	directives = func(ds []*core.Directive) {
		f(`<div class="directives"><table>`)
		for i, d := range ds {
			f(`<tr class="directive"><td><div class="directiveNum">%d</div></td><td>`, i)
			f(`<span class="directiveName">%s</span> <span class="kind">%s</span>`,
				html.EscapeString(d.Label()), d.Kind)
			f(`<table>`)
			row := func(name, val string) {
				f(`<tr><td></td><td>%s</td><td><code>%s</code></td></tr>`, name, html.EscapeString(val))
			}
			if d.When != "" {
				row("when", d.When)
			}
			if d.Loop != nil {
				row("loop", JS(d.Loop))
				row("repeat_var", d.RepeatVar)
			}
			if d.Register != "" {
				row("register", d.Register)
			}
			if d.Export {
				as := d.ExportAs
				if as == "" {
					as = "as is"
				}
				row("export", as)
			}
			if !d.Group() && d.Kind != core.ParserMetadata {
				js, err := json.MarshalIndent(d.Args, "", "  ")
				if err != nil {
					js = []byte(err.Error())
				}
				f(`<tr><td></td><td>args</td><td><div class="code"><pre>%s</pre></div></td></tr>`,
					html.EscapeString(string(js)))
			}
			f(`</table>`)
			if d.Group() {
				directives(d.Directives)
			}
			f(`</td></tr>`)
		}
		f(`</table></div>`)
	}
	directives(doc.Directives)

	return nil
}

// RenderDocumentPage writes a complete HTML page for the document.
func RenderDocumentPage(doc *core.Document, out io.Writer, cssFiles []string) error {

	if cssFiles == nil {
		cssFiles = []string{"/static/doc-html.css"}
	}

	title := html.EscapeString(doc.Name)

	fmt.Fprintf(out, `<!DOCTYPE html>
<meta charset="utf-8">
<html>
  <head>
  <title>%s</title>
`, title)

	for _, cssFile := range cssFiles {
		fmt.Fprintf(out, "  <link href=\"%s\" rel=\"stylesheet\">\n", cssFile)
	}

	fmt.Fprintf(out, `
  </head>
  <body>
    <h1>%s</h1>
`, title)

	if err := RenderDocumentHTML(doc, out); err != nil {
		return err
	}

	fmt.Fprintf(out, `
  </body>
</html>
`)

	return nil
}
