package core

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	exprOpen  = "{{"
	exprClose = "}}"
)

// segment is a piece of a template string: either literal text or an
// expression.
type segment struct {
	s    string
	expr bool
}

// splitTemplate breaks a string into literal and expression
// segments.
func splitTemplate(s string) ([]segment, error) {
	acc := make([]segment, 0, 4)
	rest := s
	for {
		i := strings.Index(rest, exprOpen)
		if i < 0 {
			if rest != "" {
				acc = append(acc, segment{s: rest})
			}
			return acc, nil
		}
		if 0 < i {
			acc = append(acc, segment{s: rest[:i]})
		}
		rest = rest[i+len(exprOpen):]
		j := strings.Index(rest, exprClose)
		if j < 0 {
			return nil, &BadTemplate{s, "unterminated expression"}
		}
		src := strings.TrimSpace(rest[:j])
		if src == "" {
			return nil, &BadTemplate{s, "empty expression"}
		}
		acc = append(acc, segment{s: src, expr: true})
		rest = rest[j+len(exprClose):]
	}
}

// IsTemplate reports whether the string contains an expression.
func IsTemplate(s string) bool {
	return strings.Contains(s, exprOpen)
}

// Expressions returns the expression sources found in the given
// template.  Maps and lists are searched recursively.
func Expressions(x interface{}) ([]string, error) {
	acc := make([]string, 0, 4)
	var walk func(x interface{}) error
	walk = func(x interface{}) error {
		switch vv := x.(type) {
		case string:
			segs, err := splitTemplate(vv)
			if err != nil {
				return err
			}
			for _, seg := range segs {
				if seg.expr {
					acc = append(acc, seg.s)
				}
			}
		case map[string]interface{}:
			for k, v := range vv {
				if err := walk(k); err != nil {
					return err
				}
				if err := walk(v); err != nil {
					return err
				}
			}
		case []interface{}:
			for _, v := range vv {
				if err := walk(v); err != nil {
					return err
				}
			}
		}
		return nil
	}
	if err := walk(x); err != nil {
		return nil, err
	}
	return acc, nil
}

// Evaluate evaluates a bare expression.
func Evaluate(ctx context.Context, ev Evaluator, src string, bs Bindings) (*Evaluation, error) {
	if ev == nil {
		return nil, NoEvaluator
	}
	return ev.Exec(ctx, bs, strings.TrimSpace(src), nil)
}

// Template renders the given data against the Bindings.
//
// A string without expressions is returned as is.  A string that is
// exactly one expression gives that expression's (native) value.
// Other strings interpolate their expressions.  If any expression is
// undefined, the string renders as nil.
//
// Maps have their keys and values templated.  Lists have their
// elements templated.  Every leaf goes through Coerce.
func Template(ctx context.Context, ev Evaluator, x interface{}, bs Bindings) (interface{}, error) {
	switch vv := x.(type) {
	case string:
		y, err := render(ctx, ev, vv, bs)
		if err != nil {
			return nil, err
		}
		return Coerce(y), nil
	case map[string]interface{}:
		acc := make(map[string]interface{}, len(vv))
		for k, v := range vv {
			tk, err := RenderString(ctx, ev, k, bs)
			if err != nil {
				return nil, err
			}
			tv, err := Template(ctx, ev, v, bs)
			if err != nil {
				return nil, err
			}
			acc[tk] = tv
		}
		return acc, nil
	case *OrderedMap:
		acc := NewOrderedMap()
		for _, k := range vv.keys {
			tk, err := RenderString(ctx, ev, k, bs)
			if err != nil {
				return nil, err
			}
			tv, err := Template(ctx, ev, vv.vals[k], bs)
			if err != nil {
				return nil, err
			}
			acc.Set(tk, tv)
		}
		return acc, nil
	case []interface{}:
		acc := make([]interface{}, len(vv))
		for i, v := range vv {
			tv, err := Template(ctx, ev, v, bs)
			if err != nil {
				return nil, err
			}
			acc[i] = tv
		}
		return acc, nil
	default:
		return Coerce(x), nil
	}
}

// RenderString renders the template as a string without coercion.
// An undefined result gives the empty string.
func RenderString(ctx context.Context, ev Evaluator, s string, bs Bindings) (string, error) {
	if !IsTemplate(s) {
		return s, nil
	}
	x, err := render(ctx, ev, s, bs)
	if err != nil {
		return "", err
	}
	return Stringify(x), nil
}

func render(ctx context.Context, ev Evaluator, s string, bs Bindings) (interface{}, error) {
	if !IsTemplate(s) {
		return s, nil
	}
	segs, err := splitTemplate(s)
	if err != nil {
		return nil, err
	}

	if len(segs) == 1 {
		e, err := Evaluate(ctx, ev, segs[0].s, bs)
		if err != nil {
			return nil, err
		}
		return e.Value, nil
	}

	var b strings.Builder
	for _, seg := range segs {
		if !seg.expr {
			b.WriteString(seg.s)
			continue
		}
		e, err := Evaluate(ctx, ev, seg.s, bs)
		if err != nil {
			return nil, err
		}
		if e.Undefined {
			return nil, nil
		}
		b.WriteString(Stringify(e.Value))
	}
	return b.String(), nil
}

// Stringify renders a value for interpolation into a string.
func Stringify(x interface{}) string {
	switch vv := x.(type) {
	case nil:
		return ""
	case string:
		return vv
	case bool:
		return strconv.FormatBool(vv)
	case int, int64, int32, float32, float64, uint, uint64, uint32:
		return fmt.Sprint(vv)
	default:
		js, err := json.Marshal(&x)
		if err != nil {
			return fmt.Sprint(x)
		}
		return string(js)
	}
}

// Coerce normalizes a templated value.
//
// Booleans pass through.  Integers (and integral floats) become int.
// Strings that parse as integers become int.  The empty string, nil,
// and empty maps or lists become nil.  Anything else is returned
// unchanged.
func Coerce(x interface{}) interface{} {
	switch vv := x.(type) {
	case nil:
		return nil
	case bool:
		return vv
	case int:
		return vv
	case int64:
		return int(vv)
	case int32:
		return int(vv)
	case uint64:
		if vv <= math.MaxInt {
			return int(vv)
		}
		return vv
	case uint:
		if vv <= math.MaxInt {
			return int(vv)
		}
		return vv
	case float64:
		if vv == math.Trunc(vv) && math.Abs(vv) < 1<<53 {
			return int(vv)
		}
		return vv
	case float32:
		return Coerce(float64(vv))
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(vv)); err == nil {
			return n
		}
		if vv == "" {
			return nil
		}
		return vv
	case map[string]interface{}:
		if len(vv) == 0 {
			return nil
		}
		return vv
	case []interface{}:
		if len(vv) == 0 {
			return nil
		}
		return vv
	case *OrderedMap:
		if vv.Len() == 0 {
			return nil
		}
		return vv
	default:
		return x
	}
}

// Truthy reports whether a value counts as true in a conditional.
func Truthy(x interface{}) bool {
	switch vv := x.(type) {
	case nil:
		return false
	case bool:
		return vv
	case string:
		return vv != ""
	case int:
		return vv != 0
	case int64:
		return vv != 0
	case float64:
		return vv != 0 && !math.IsNaN(vv)
	case map[string]interface{}:
		return 0 < len(vv)
	case []interface{}:
		return 0 < len(vv)
	case *OrderedMap:
		return 0 < vv.Len()
	default:
		return true
	}
}

// Conditional evaluates a "when" expression.  The expression can be
// bare or wrapped in a template.  Undefined is false.
func Conditional(ctx context.Context, ev Evaluator, when string, bs Bindings) (bool, error) {
	if IsTemplate(when) {
		x, err := render(ctx, ev, when, bs)
		if err != nil {
			return false, err
		}
		return Truthy(x), nil
	}
	e, err := Evaluate(ctx, ev, when, bs)
	if err != nil {
		return false, err
	}
	if e.Undefined {
		return false, nil
	}
	return Truthy(e.Value), nil
}

// Items turns a loop value into loop items.
//
// A list gives its elements.  A map gives {"key":K,"value":V} items
// (in key order for plain maps, insertion order for OrderedMaps).
// Nil gives no items.  Anything else is NotIterable.
func Items(x interface{}) ([]interface{}, error) {
	switch vv := x.(type) {
	case nil:
		return nil, nil
	case []interface{}:
		return vv, nil
	case []string:
		acc := make([]interface{}, len(vv))
		for i, s := range vv {
			acc[i] = s
		}
		return acc, nil
	case map[string]interface{}:
		acc := make([]interface{}, 0, len(vv))
		for _, k := range sortedKeys(vv) {
			acc = append(acc, item(k, vv[k]))
		}
		return acc, nil
	case *OrderedMap:
		acc := make([]interface{}, 0, vv.Len())
		for _, k := range vv.keys {
			acc = append(acc, item(k, vv.vals[k]))
		}
		return acc, nil
	default:
		return nil, &NotIterable{x}
	}
}

func item(k string, v interface{}) map[string]interface{} {
	return map[string]interface{}{
		"key":   k,
		"value": v,
	}
}
