package core

// These errors are user errors (bad rule documents), not internal
// errors.  All of them abort a run.

import (
	"errors"
	"fmt"
	"strings"
)

// NoEvaluator occurs when a Document is compiled or run without an
// Evaluator.
var NoEvaluator = errors.New("no evaluator")

// InvalidDirective occurs when a directive record does not have
// exactly one recognized directive key.
type InvalidDirective struct {
	// Name is the unrecognized directive key (if any).
	Name string

	// Keys are the candidate directive keys that were found.
	Keys []string
}

func (e *InvalidDirective) Error() string {
	switch {
	case e.Name != "":
		return `invalid directive in parser: "` + e.Name + `"`
	case len(e.Keys) == 0:
		return "invalid directive in parser: no directive given"
	default:
		return "invalid directive in parser: more than one directive: " + strings.Join(e.Keys, ", ")
	}
}

// BadArgument occurs when a directive argument is missing, has the
// wrong type, or conflicts with another argument.
type BadArgument struct {
	Directive string
	Arg       string
	Msg       string
}

func (e *BadArgument) Error() string {
	return fmt.Sprintf(`%s argument "%s": %s`, e.Directive, e.Arg, e.Msg)
}

// BadPattern occurs when a regular expression does not compile.
//
// Not to be confused with a pattern that doesn't match anything,
// which is not an error at all.
type BadPattern struct {
	Pattern string
	Err     error
}

func (e *BadPattern) Error() string {
	return fmt.Sprintf("invalid pattern %q: %v", e.Pattern, e.Err)
}

func (e *BadPattern) Unwrap() error {
	return e.Err
}

// BadShape occurs when a json_template node is malformed.
type BadShape struct {
	Key string
	Msg string
}

func (e *BadShape) Error() string {
	if e.Key == "" {
		return "bad template node: " + e.Msg
	}
	return `bad template node "` + e.Key + `": ` + e.Msg
}

// BadExportAs occurs when export_as has an unsupported value.
type BadExportAs struct {
	Value string
}

func (e *BadExportAs) Error() string {
	return `invalid export_as "` + e.Value + `" (want list, elements, dict, hash, or object)`
}

// NotIterable occurs when a loop value is neither a list nor a map.
type NotIterable struct {
	Value interface{}
}

func (e *NotIterable) Error() string {
	return fmt.Sprintf("loop value %#v (%T) is not iterable", e.Value, e.Value)
}

// BadTemplate occurs when a template string can't be parsed.
type BadTemplate struct {
	Template string
	Msg      string
}

func (e *BadTemplate) Error() string {
	return fmt.Sprintf("bad template %q: %s", e.Template, e.Msg)
}

// DirectiveError reports which directive failed.
type DirectiveError struct {
	Directive string
	Err       error
}

func (e *DirectiveError) Error() string {
	return `directive "` + e.Directive + `": ` + e.Err.Error()
}

func (e *DirectiveError) Unwrap() error {
	return e.Err
}
