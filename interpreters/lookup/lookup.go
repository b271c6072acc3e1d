// Package lookup provides a minimal core.Evaluator that only
// understands literals and dotted paths like "version.matches.0".
//
// Documents that just move values around can use this evaluator
// without pulling in a language runtime.
package lookup

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/Comcast/netparse/core"
	"github.com/Comcast/netparse/util"
)

func init() {
	core.DefaultEvaluators["lookup"] = NewEvaluator()
}

// Evaluator is a core.Evaluator for paths and literals.
//
// A leading "not " negates the truthiness of the rest.
type Evaluator struct {
	// Silent, if false, will log a warning for expressions that
	// this evaluator can't handle.
	Silent bool
}

func NewEvaluator() *Evaluator {
	return &Evaluator{}
}

type expression struct {
	not     bool
	literal bool
	value   interface{}
	path    []string
}

func parse(src string) (*expression, error) {
	s := strings.TrimSpace(src)
	x := &expression{}
	if strings.HasPrefix(s, "not ") {
		x.not = true
		s = strings.TrimSpace(s[4:])
	}
	if s == "" {
		return nil, fmt.Errorf("empty expression in %q", src)
	}

	var v interface{}
	if err := json.Unmarshal([]byte(s), &v); err == nil {
		x.literal = true
		x.value = v
		return x, nil
	}

	switch s {
	case "True":
		x.literal, x.value = true, true
		return x, nil
	case "False":
		x.literal, x.value = true, false
		return x, nil
	case "None":
		x.literal = true
		return x, nil
	}

	for _, p := range strings.Split(s, ".") {
		if p == "" || strings.ContainsAny(p, " \t()[]{}+-*/<>=!'\"") {
			return nil, fmt.Errorf("unsupported expression %q", src)
		}
		x.path = append(x.path, p)
	}
	return x, nil
}

// Compile parses the expression.
func (e *Evaluator) Compile(ctx context.Context, src string) (interface{}, error) {
	x, err := parse(src)
	if err != nil && !e.Silent {
		util.Warnf("lookup: %v", err)
	}
	return x, err
}

// Exec implements the core.Evaluator method of the same name.
func (e *Evaluator) Exec(ctx context.Context, bs core.Bindings, src string, compiled interface{}) (*core.Evaluation, error) {
	x, is := compiled.(*expression)
	if !is {
		c, err := e.Compile(ctx, src)
		if err != nil {
			return nil, err
		}
		x = c.(*expression)
	}

	var (
		v       interface{}
		defined = true
	)
	if x.literal {
		v = x.value
	} else {
		v, defined = get(map[string]interface{}(bs), x.path)
	}

	if x.not {
		if !defined {
			return &core.Evaluation{Value: true}, nil
		}
		return &core.Evaluation{Value: !core.Truthy(v)}, nil
	}
	if !defined {
		return &core.Evaluation{Undefined: true}, nil
	}
	return &core.Evaluation{Value: v}, nil
}

func get(x interface{}, path []string) (interface{}, bool) {
	for _, p := range path {
		switch vv := x.(type) {
		case core.Bindings:
			x = map[string]interface{}(vv)
		case core.Facts:
			x = map[string]interface{}(vv)
		}
		switch vv := x.(type) {
		case map[string]interface{}:
			v, have := vv[p]
			if !have {
				return nil, false
			}
			x = v
		case *core.OrderedMap:
			v, have := vv.Get(p)
			if !have {
				return nil, false
			}
			x = v
		case []interface{}:
			i, err := strconv.Atoi(p)
			if err != nil || i < 0 || len(vv) <= i {
				return nil, false
			}
			x = vv[i]
		default:
			return nil, false
		}
	}
	return x, true
}

