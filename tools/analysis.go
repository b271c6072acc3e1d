package tools

import (
	"regexp"
	"sort"
	"strings"

	"github.com/Comcast/netparse/core"
)

// DocumentAnalysis summarizes a rule document and notes names that
// look wrong.
type DocumentAnalysis struct {
	doc *core.Document

	Errors       []string
	Directives   int
	Kinds        map[string]int
	Conditionals int
	Loops        int
	Registers    []string
	Exports      []string

	// Unbound are names that expressions use before (or without)
	// any directive registering them.  Evaluating such a name
	// gives undefined, which is not an error, so these names are
	// only suspicious.
	Unbound []string

	// Unused are registered names that nothing uses or exports.
	Unused []string
}

var (
	identifier = regexp.MustCompile(`[A-Za-z_]\w*`)
	quoted     = regexp.MustCompile(`'[^']*'|"[^"]*"`)

	// notNames are words that can appear in expressions without
	// being variables.
	notNames = map[string]bool{
		"not": true, "and": true, "or": true, "in": true, "is": true,
		"true": true, "false": true, "null": true, "undefined": true,
		"True": true, "False": true, "None": true, "nil": true,
		"typeof": true, "matches": true, "contains": true,
	}
)

// References returns the variable names that appear in the given
// expression source.  Function names, property names, and quoted
// strings are skipped, though not perfectly.
func References(src string) []string {
	src = quoted.ReplaceAllString(src, `""`)
	acc := make([]string, 0, 2)
	for _, loc := range identifier.FindAllStringIndex(src, -1) {
		if 0 < loc[0] {
			if c := src[loc[0]-1]; c == '.' || c == '_' || isAlnum(c) {
				continue
			}
		}
		if rest := strings.TrimLeft(src[loc[1]:], " \t"); strings.HasPrefix(rest, "(") {
			continue
		}
		name := src[loc[0]:loc[1]]
		if notNames[name] {
			continue
		}
		acc = append(acc, name)
	}
	return acc
}

func isAlnum(c byte) bool {
	return '0' <= c && c <= '9' || 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z'
}

// Analyze walks the document in execution order.  The initial names
// are the bindings a run starts with (in addition to "contents").
func Analyze(doc *core.Document, initial ...string) (*DocumentAnalysis, error) {
	a := DocumentAnalysis{
		doc:    doc,
		Kinds:  make(map[string]int),
		Errors: make([]string, 0, 8),
	}

	bound := map[string]bool{"contents": true}
	for _, name := range initial {
		bound[name] = true
	}

	var (
		unbound    = make(map[string]bool)
		registered = make(map[string]bool)
		used       = make(map[string]bool)
		exported   = make(map[string]bool)
	)

	refs := func(bound map[string]bool, srcs ...string) {
		for _, src := range srcs {
			for _, name := range References(src) {
				used[name] = true
				if !bound[name] {
					unbound[name] = true
				}
			}
		}
	}

	var walk func(ds []*core.Directive, bound map[string]bool)
	walk = func(ds []*core.Directive, bound map[string]bool) {
		for _, d := range ds {
			a.Directives++
			a.Kinds[d.Kind]++

			if d.When != "" {
				a.Conditionals++
				refs(bound, d.When)
			}

			inner := bound
			if d.Loop != nil {
				a.Loops++
				if s, is := d.Loop.(string); is && !core.IsTemplate(s) {
					refs(bound, s)
				} else if srcs, err := core.Expressions(d.Loop); err == nil {
					refs(bound, srcs...)
				}
				inner = with(bound, d.RepeatVar)
			}

			switch {
			case d.Group():
				walk(d.Directives, with(inner))
			case d.Kind == core.PatternMatch:
				if m, is := d.Args.(map[string]interface{}); is {
					args := make(map[string]interface{}, len(m))
					for k, v := range m {
						// The regex refers to named patterns.
						if k != "regex" {
							args[k] = v
						}
					}
					exprs(&a, args, func(srcs []string) { refs(inner, srcs...) })
				}
			case d.Kind == core.JSONTemplate:
				vars, loops := repeats(d.Args)
				refs(inner, loops...)
				exprs(&a, d.Args, func(srcs []string) { refs(with(inner, vars...), srcs...) })
			default:
				exprs(&a, d.Args, func(srcs []string) { refs(inner, srcs...) })
			}

			if d.Register != "" && d.Kind != core.ExportFacts {
				registered[d.Register] = true
				bound[d.Register] = true
				if d.Export {
					exported[d.Register] = true
				}
			}
		}
	}
	walk(doc.Directives, bound)

	unused := make(map[string]bool)
	for name := range registered {
		if !used[name] && !exported[name] {
			unused[name] = true
		}
	}

	a.Registers = keysToStringSlice(registered)
	a.Exports = keysToStringSlice(exported)
	a.Unbound = keysToStringSlice(unbound)
	a.Unused = keysToStringSlice(unused)

	return &a, nil
}

func exprs(a *DocumentAnalysis, x interface{}, f func([]string)) {
	srcs, err := core.Expressions(x)
	if err != nil {
		a.Errors = append(a.Errors, err.Error())
		return
	}
	f(srcs)
}

// with returns a copy of the bound set plus the given names.
func with(bound map[string]bool, names ...string) map[string]bool {
	acc := make(map[string]bool, len(bound)+len(names))
	for name := range bound {
		acc[name] = true
	}
	for _, name := range names {
		acc[name] = true
	}
	return acc
}

// repeats finds the loop variables of a json_template's shape nodes
// and the repeat_for values that are bare expressions.
func repeats(x interface{}) (vars []string, loops []string) {
	vars = []string{core.DefaultRepeatVar}
	var walk func(x interface{})
	walk = func(x interface{}) {
		switch vv := x.(type) {
		case map[string]interface{}:
			if s, is := vv["repeat_var"].(string); is {
				vars = append(vars, s)
			}
			if s, is := vv["repeat_for"].(string); is && !core.IsTemplate(s) {
				loops = append(loops, s)
			}
			for _, v := range vv {
				walk(v)
			}
		case []interface{}:
			for _, v := range vv {
				walk(v)
			}
		}
	}
	walk(x)
	return vars, loops
}

// keysToStringSlice returns the map's keys sorted.
func keysToStringSlice(m map[string]bool) []string {
	list := make([]string, 0, len(m))
	for key := range m {
		list = append(list, key)
	}
	sort.Strings(list)
	return list
}
