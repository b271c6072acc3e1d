package core

import (
	"context"
	"fmt"
	"strings"
)

// action is the compiled form of a directive's arguments.
type action interface {
	// exec runs the directive once against the Bindings.
	exec(ctx context.Context, r *run, bs Bindings) (interface{}, error)
}

// argMap checks that a directive's argument is a map and that it
// has only the allowed keys.
func argMap(d *Directive, allowed ...string) (map[string]interface{}, error) {
	m, is := d.Args.(map[string]interface{})
	if !is {
		return nil, &BadArgument{d.Kind, "", fmt.Sprintf("arguments must be a map, not %T", d.Args)}
	}
	if allowed == nil {
		return m, nil
	}
LOOP:
	for p := range m {
		for _, a := range allowed {
			if p == a {
				continue LOOP
			}
		}
		return nil, &BadArgument{d.Kind, p, "unknown argument"}
	}
	return m, nil
}

type blockAction struct {
	directives []*Directive
}

func newBlock(ctx context.Context, ev Evaluator, d *Directive) (action, error) {
	xs, is := d.Args.([]interface{})
	if !is {
		return nil, &BadArgument{d.Kind, "", fmt.Sprintf("block must be a list of directives, not %T", d.Args)}
	}
	ds, err := compileDirectives(ctx, ev, xs)
	if err != nil {
		return nil, err
	}
	d.Directives = ds
	return &blockAction{
		directives: ds,
	}, nil
}

// exec runs the nested directives.  The result maps each nested
// register to its value.
func (a *blockAction) exec(ctx context.Context, r *run, bs Bindings) (interface{}, error) {
	_, registers, err := r.walk(ctx, a.directives, bs)
	if err != nil {
		return nil, err
	}
	return registers, nil
}

type patternMatchAction struct {
	pattern  *Pattern
	until    *Pattern
	contents string
	all      bool
	greedy   bool
}

// DefaultContents is the default "contents" argument for
// pattern_match.
var DefaultContents = "{{ contents }}"

func newPatternMatch(ctx context.Context, ev Evaluator, d *Directive) (action, error) {
	m, err := argMap(d, "regex", "contents", "match_all", "match_until", "match_greedy")
	if err != nil {
		return nil, err
	}

	a := &patternMatchAction{
		contents: DefaultContents,
	}

	regex, is := m["regex"].(string)
	if !is || regex == "" {
		return nil, &BadArgument{d.Kind, "regex", "required string"}
	}
	if a.pattern, err = namedPattern(d, regex); err != nil {
		return nil, err
	}

	if x, have := m["match_until"]; have && x != nil {
		s, is := x.(string)
		if !is {
			return nil, &BadArgument{d.Kind, "match_until", "must be a string"}
		}
		if a.until, err = namedPattern(d, s); err != nil {
			return nil, err
		}
	}

	if x, have := m["contents"]; have && x != nil {
		s, is := x.(string)
		if !is {
			return nil, &BadArgument{d.Kind, "contents", "must be a string"}
		}
		if s != "" {
			a.contents = s
		}
	}
	if err = checkTemplate(ctx, ev, a.contents); err != nil {
		return nil, err
	}

	if a.all, err = boolArg("match_all", m["match_all"]); err != nil {
		return nil, err
	}
	if a.greedy, err = boolArg("match_greedy", m["match_greedy"]); err != nil {
		return nil, err
	}

	return a, nil
}

// namedPattern renders a regex template against NamedPatterns and
// compiles the result.
func namedPattern(d *Directive, regex string) (*Pattern, error) {
	segs, err := splitTemplate(regex)
	if err != nil {
		return nil, err
	}
	var b strings.Builder
	for _, seg := range segs {
		if !seg.expr {
			b.WriteString(seg.s)
			continue
		}
		x, have := NamedPatterns[seg.s]
		if !have {
			return nil, &BadArgument{d.Kind, "regex", `unknown named pattern "` + seg.s + `"`}
		}
		b.WriteString(fmt.Sprint(x))
	}
	return CompilePattern(b.String())
}

// exec matches against the rendered contents.
//
// With match_greedy, the result is the list of section texts even
// when match_all is also given.
func (a *patternMatchAction) exec(ctx context.Context, r *run, bs Bindings) (interface{}, error) {
	text, err := RenderString(ctx, r.ev, a.contents, bs)
	if err != nil {
		return nil, err
	}

	if a.greedy {
		if !a.all {
			return []interface{}{text}, nil
		}
		end, inclusive := a.pattern, false
		if a.until != nil {
			end, inclusive = a.until, true
		}
		secs := extractSections(text, a.pattern.re, end.re, inclusive)
		acc := make([]interface{}, len(secs))
		for i, s := range secs {
			acc[i] = s
		}
		return acc, nil
	}

	if a.all {
		if xs := a.pattern.MatchAll(text); xs != nil {
			return xs, nil
		}
		return nil, nil
	}

	if m := a.pattern.MatchOne(text); m != nil {
		return m, nil
	}
	return nil, nil
}

type jsonTemplateAction struct {
	nodes []*ShapeNode
}

func newJSONTemplate(ctx context.Context, ev Evaluator, d *Directive) (action, error) {
	m, err := argMap(d, "template")
	if err != nil {
		return nil, err
	}
	x, have := m["template"]
	if !have {
		return nil, &BadArgument{d.Kind, "template", "required"}
	}
	nodes, err := CompileShape(x)
	if err != nil {
		return nil, err
	}
	if err = checkShapes(ctx, ev, nodes); err != nil {
		return nil, err
	}
	return &jsonTemplateAction{
		nodes: nodes,
	}, nil
}

func checkShapes(ctx context.Context, ev Evaluator, nodes []*ShapeNode) error {
	for _, n := range nodes {
		if err := checkTemplate(ctx, ev, n.Key); err != nil {
			return err
		}
		if err := checkExpr(ctx, ev, n.When); err != nil {
			return err
		}
		if err := checkTemplate(ctx, ev, n.Value); err != nil {
			return err
		}
		if err := checkLoop(ctx, ev, n.RepeatFor); err != nil {
			return err
		}
		if err := checkShapes(ctx, ev, n.children()); err != nil {
			return err
		}
	}
	return nil
}

func (a *jsonTemplateAction) exec(ctx context.Context, r *run, bs Bindings) (interface{}, error) {
	return Project(ctx, r.ev, a.nodes, bs)
}

type exportFactsAction struct {
	facts map[string]interface{}
}

func newExportFacts(ctx context.Context, ev Evaluator, d *Directive) (action, error) {
	m, err := argMap(d)
	if err != nil {
		return nil, err
	}
	if err = checkTemplate(ctx, ev, m); err != nil {
		return nil, err
	}
	return &exportFactsAction{
		facts: m,
	}, nil
}

// exec templates the arguments and merges them directly into the
// Facts.
func (a *exportFactsAction) exec(ctx context.Context, r *run, bs Bindings) (interface{}, error) {
	x, err := Template(ctx, r.ev, a.facts, bs)
	if err != nil {
		return nil, err
	}
	m := x.(map[string]interface{})
	r.facts.Update(m)
	return m, nil
}

type parserMetadataAction struct{}

func newParserMetadata(ctx context.Context, ev Evaluator, d *Directive) (action, error) {
	if d.Args == nil {
		return parserMetadataAction{}, nil
	}
	if _, err := argMap(d); err != nil {
		return nil, err
	}
	return parserMetadataAction{}, nil
}

func (parserMetadataAction) exec(ctx context.Context, r *run, bs Bindings) (interface{}, error) {
	return nil, nil
}
