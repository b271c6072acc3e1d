/* Copyright 2019 Comcast Cable Communications Management, LLC
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

package core

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/Comcast/netparse/util"
)

// Directive kinds.
const (
	Block          = "block"
	PatternMatch   = "pattern_match"
	JSONTemplate   = "json_template"
	ExportFacts    = "export_facts"
	ParserMetadata = "parser_metadata"
)

// Values for Directive.ExportAs.
const (
	ExportAsList     = "list"
	ExportAsElements = "elements"
	ExportAsDict     = "dict"
	ExportAsHash     = "hash"
	ExportAsObject   = "object"
)

// Document is a compiled rule document: an ordered list of
// directives.
//
// A Document is not modified by Run, so one Document can be run
// concurrently with different Bindings.
type Document struct {
	// Name is the generic name for this document.  Loaders
	// typically use the base name of the file.
	Name string `json:"name,omitempty" yaml:",omitempty"`

	// Id should be a globally unique identifier (such as a hash
	// of a canonical representation of the source).
	//
	// This package does not read or write this value.
	Id string `json:"id,omitempty" yaml:",omitempty"`

	// Metadata comes from the arguments of a parser_metadata
	// directive (if any).
	Metadata map[string]interface{} `json:"metadata,omitempty" yaml:",omitempty"`

	Directives []*Directive `json:"directives" yaml:"directives"`
}

// Directive is one entry of a rule document.
type Directive struct {
	// Name is an optional label.  Only used in logging and
	// tooling.
	Name string `json:"name,omitempty" yaml:",omitempty"`

	// Kind is the (canonical) directive key.  For example,
	// "pattern_match".
	Kind string `json:"kind" yaml:"kind"`

	// Register is the variable name for the directive's result.
	Register string `json:"register,omitempty" yaml:",omitempty"`

	// Export copies the result into the Facts.
	Export bool `json:"export,omitempty" yaml:",omitempty"`

	// ExportAs controls the shape of the exported value.
	ExportAs string `json:"export_as,omitempty" yaml:"export_as,omitempty"`

	// When is an optional conditional expression.
	When string `json:"when,omitempty" yaml:",omitempty"`

	// Loop is an optional expression (or literal) that gives the
	// items to iterate over.
	Loop interface{} `json:"loop,omitempty" yaml:",omitempty"`

	// RepeatVar is the name of the loop variable.
	RepeatVar string `json:"repeat_var,omitempty" yaml:"repeat_var,omitempty"`

	// Args is the raw value of the directive key.
	Args interface{} `json:"args,omitempty" yaml:",omitempty"`

	// Directives are the nested directives of a group directive.
	Directives []*Directive `json:"directives,omitempty" yaml:",omitempty"`

	action action
}

// Label returns the Name if there is one and the Kind otherwise.
func (d *Directive) Label() string {
	if d.Name != "" {
		return d.Name
	}
	return d.Kind
}

// Group reports whether the directive runs nested directives.
func (d *Directive) Group() bool {
	return d.Kind == Block
}

// constructor builds the action for a directive.  A constructor
// validates the directive's arguments.
type constructor func(ctx context.Context, ev Evaluator, d *Directive) (action, error)

// constructors is the static dispatch table from directive names to
// their constructors.
var constructors map[string]constructor

func init() {
	constructors = map[string]constructor{
		Block:          newBlock,
		PatternMatch:   newPatternMatch,
		JSONTemplate:   newJSONTemplate,
		ExportFacts:    newExportFacts,
		ParserMetadata: newParserMetadata,
	}
}

// Directives returns the sorted names of the known directives.
func Directives() []string {
	acc := make([]string, 0, len(constructors))
	for name := range constructors {
		acc = append(acc, name)
	}
	sort.Strings(acc)
	return acc
}

// Alias maps an alternate directive name to a directive.
type Alias struct {
	// Target is the canonical directive name.
	Target string

	// Deprecated aliases cause a warning when compiled.
	Deprecated bool

	// Since is the document format version that introduced the
	// alias's target.
	Since string
}

// Aliases is the table of alternate directive names.  Lookups in
// this table ignore case.
var Aliases = map[string]*Alias{
	"pattern_group": {
		Target:     Block,
		Deprecated: true,
		Since:      "2.0",
	},
}

// resolve finds the canonical directive name for the given key.
func resolve(key string) (string, bool) {
	if _, have := constructors[key]; have {
		return key, true
	}
	if a, have := Aliases[strings.ToLower(key)]; have {
		if a.Deprecated {
			warnf(`directive "%s" is deprecated; use "%s"`, key, a.Target)
		}
		return a.Target, true
	}
	return "", false
}

// ActionWarnings enables logging of warnings (skipped directives,
// deprecated aliases).  Warnings are always recorded in a run's
// Events.
var ActionWarnings = true

func warnf(format string, args ...interface{}) {
	if ActionWarnings {
		util.Warnf(format, args...)
	}
}

// Compile checks the given raw rule document and builds a Document.
//
// The source is a list of directive records, typically from YAML or
// JSON.  Every directive record must have exactly one directive key
// in addition to any modifier keys.
//
// Patterns are compiled here, so a bad regular expression is
// reported before anything runs.  If an Evaluator is given, every
// expression is checked with its Compile method.
func Compile(ctx context.Context, ev Evaluator, src []interface{}) (*Document, error) {
	x, err := StringMaps(src)
	if err != nil {
		return nil, err
	}
	src = x.([]interface{})

	doc := &Document{}
	if doc.Directives, err = compileDirectives(ctx, ev, src); err != nil {
		return nil, err
	}

	for _, d := range doc.Directives {
		if d.Kind != ParserMetadata {
			continue
		}
		if m, is := d.Args.(map[string]interface{}); is {
			doc.Metadata = m
			if name, is := m["name"].(string); is {
				doc.Name = name
			}
		}
	}

	return doc, nil
}

func compileDirectives(ctx context.Context, ev Evaluator, src []interface{}) ([]*Directive, error) {
	acc := make([]*Directive, 0, len(src))
	for i, x := range src {
		m, is := x.(map[string]interface{})
		if !is {
			return nil, fmt.Errorf("directive %d is a %T, not a map", i, x)
		}
		d, err := compileDirective(ctx, ev, m)
		if err != nil {
			return nil, err
		}
		acc = append(acc, d)
	}
	return acc, nil
}

func compileDirective(ctx context.Context, ev Evaluator, m map[string]interface{}) (*Directive, error) {
	d := &Directive{
		RepeatVar: DefaultRepeatVar,
	}

	keys := make([]string, 0, 1)
	for p, x := range m {
		var err error
		switch p {
		case "name":
			d.Name = fmt.Sprint(x)
		case "register":
			d.Register, err = stringArg(p, x)
		case "export":
			d.Export, err = boolArg(p, x)
		case "export_as":
			d.ExportAs, err = stringArg(p, x)
		case "when":
			d.When = fmt.Sprint(x)
		case "loop", "repeat_for":
			if d.Loop != nil {
				return nil, &BadArgument{"", p, "loop and repeat_for are mutually exclusive"}
			}
			d.Loop = x
		case "repeat_var":
			if d.RepeatVar, err = stringArg(p, x); err == nil && d.RepeatVar == "" {
				err = &BadArgument{"", p, "empty"}
			}
		default:
			keys = append(keys, p)
		}
		if err != nil {
			return nil, err
		}
	}

	switch len(keys) {
	case 0:
		return nil, &InvalidDirective{}
	case 1:
	default:
		sort.Strings(keys)
		return nil, &InvalidDirective{Keys: keys}
	}

	kind, ok := resolve(keys[0])
	if !ok {
		return nil, &InvalidDirective{Name: keys[0]}
	}
	d.Kind = kind
	d.Args = m[keys[0]]

	switch d.ExportAs {
	case "", ExportAsList, ExportAsElements, ExportAsDict, ExportAsHash, ExportAsObject:
	default:
		return nil, &BadExportAs{d.ExportAs}
	}

	if d.Kind == ExportFacts && (d.Register != "" || d.Export) {
		warnf("%s ignores register and export", d.Label())
	}

	if err := checkExpr(ctx, ev, d.When); err != nil {
		return nil, &DirectiveError{d.Label(), err}
	}
	if err := checkLoop(ctx, ev, d.Loop); err != nil {
		return nil, &DirectiveError{d.Label(), err}
	}

	a, err := constructors[d.Kind](ctx, ev, d)
	if err != nil {
		if _, is := err.(*InvalidDirective); is {
			return nil, err
		}
		return nil, &DirectiveError{d.Label(), err}
	}
	d.action = a

	return d, nil
}

func stringArg(p string, x interface{}) (string, error) {
	s, is := x.(string)
	if !is {
		return "", &BadArgument{"", p, fmt.Sprintf("%T isn't a string", x)}
	}
	return s, nil
}

func boolArg(p string, x interface{}) (bool, error) {
	switch vv := x.(type) {
	case bool:
		return vv, nil
	case string:
		b, err := strconv.ParseBool(vv)
		if err != nil {
			return false, &BadArgument{"", p, "not a boolean: " + vv}
		}
		return b, nil
	case nil:
		return false, nil
	}
	return false, &BadArgument{"", p, fmt.Sprintf("%T isn't a boolean", x)}
}

// checkExpr compiles a conditional, which is either a bare
// expression or a template.
func checkExpr(ctx context.Context, ev Evaluator, src string) error {
	if ev == nil || src == "" {
		return nil
	}
	if IsTemplate(src) {
		return checkTemplate(ctx, ev, src)
	}
	_, err := ev.Compile(ctx, src)
	return err
}

// checkLoop compiles a loop source.  A string without a template is a
// bare expression.
func checkLoop(ctx context.Context, ev Evaluator, x interface{}) error {
	if s, is := x.(string); is {
		return checkExpr(ctx, ev, s)
	}
	return checkTemplate(ctx, ev, x)
}

// checkTemplate compiles every expression in a template.
func checkTemplate(ctx context.Context, ev Evaluator, x interface{}) error {
	srcs, err := Expressions(x)
	if err != nil {
		return err
	}
	if ev == nil {
		return nil
	}
	for _, src := range srcs {
		if _, err := ev.Compile(ctx, src); err != nil {
			return err
		}
	}
	return nil
}

// loopValue evaluates a loop source.  A string without a template is
// a bare expression, and an undefined result gives nil.
func loopValue(ctx context.Context, ev Evaluator, x interface{}, bs Bindings) (interface{}, error) {
	if s, is := x.(string); is && !IsTemplate(s) {
		e, err := Evaluate(ctx, ev, s, bs)
		if err != nil {
			return nil, err
		}
		return e.Value, nil
	}
	return Template(ctx, ev, x, bs)
}
