// Package expr provides an Evaluator based on Expr
// (https://expr-lang.org), a small expression language with
// Jinja-like operators (and, or, not, in).
package expr

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/Comcast/netparse/core"
	"github.com/Comcast/netparse/interpreters/filters"

	exprlang "github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

func init() {
	core.DefaultEvaluators["expr"] = NewEvaluator()
}

// Evaluator is a core.Evaluator for Expr expressions.
//
// Expressions are compiled without a typed environment, so a
// reference to a name that isn't bound gives nil rather than a
// compilation error.  Exec reports a nil result as undefined.
type Evaluator struct {
	programs sync.Map
}

func NewEvaluator() *Evaluator {
	return &Evaluator{}
}

func functions() []exprlang.Option {
	return []exprlang.Option{
		exprlang.Function("interface_split", func(params ...any) (any, error) {
			if len(params) == 0 || 2 < len(params) {
				return nil, fmt.Errorf("interface_split: wrong number of arguments")
			}
			iface, err := str("interface_split", params[0])
			if err != nil {
				return nil, err
			}
			var key string
			if len(params) == 2 {
				if key, err = str("interface_split", params[1]); err != nil {
					return nil, err
				}
			}
			return filters.InterfaceSplit(iface, key)
		}),
		exprlang.Function("interface_range", func(params ...any) (any, error) {
			return list("interface_range", filters.InterfaceRange, params)
		}),
		exprlang.Function("vlan_expand", func(params ...any) (any, error) {
			return list("vlan_expand", filters.VlanExpand, params)
		}),
		exprlang.Function("cronNext", func(params ...any) (any, error) {
			if len(params) != 1 {
				return nil, fmt.Errorf("cronNext: wrong number of arguments")
			}
			s, err := str("cronNext", params[0])
			if err != nil {
				return nil, err
			}
			return filters.CronNext(s)
		}),
	}
}

func str(fn string, x any) (string, error) {
	s, is := x.(string)
	if !is {
		return "", fmt.Errorf("%s: %#v is not a string", fn, x)
	}
	return s, nil
}

func list(fn string, f func(string) ([]string, error), params []any) (any, error) {
	if len(params) != 1 {
		return nil, fmt.Errorf("%s: wrong number of arguments", fn)
	}
	s, err := str(fn, params[0])
	if err != nil {
		return nil, err
	}
	ss, err := f(s)
	if err != nil {
		return nil, err
	}
	acc := make([]any, len(ss))
	for i, s := range ss {
		acc[i] = s
	}
	return acc, nil
}

// Compile compiles and caches the expression.
func (e *Evaluator) Compile(ctx context.Context, src string) (interface{}, error) {
	if p, have := e.programs.Load(src); have {
		return p, nil
	}
	p, err := exprlang.Compile(src, functions()...)
	if err != nil {
		return nil, fmt.Errorf("bad expression %q: %w", src, err)
	}
	e.programs.Store(src, p)
	return p, nil
}

// Exec implements the core.Evaluator method of the same name.
func (e *Evaluator) Exec(ctx context.Context, bs core.Bindings, src string, compiled interface{}) (*core.Evaluation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p, is := compiled.(*vm.Program)
	if !is {
		x, err := e.Compile(ctx, src)
		if err != nil {
			return nil, err
		}
		p = x.(*vm.Program)
	}

	env, _ := core.Plain(bs).(map[string]interface{})
	if env == nil {
		env = map[string]interface{}{}
	}

	x, err := exprlang.Run(p, env)
	if err != nil {
		if undefinedReference(err) {
			return &core.Evaluation{Undefined: true}, nil
		}
		return nil, err
	}
	if x == nil {
		return &core.Evaluation{Undefined: true}, nil
	}
	return &core.Evaluation{
		Value: x,
	}, nil
}

// undefinedReference reports whether the error came from using an
// unbound name (or a missing property).
func undefinedReference(err error) bool {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "cannot fetch") && strings.Contains(msg, "from <nil>"):
		return true
	case strings.Contains(msg, "interface {} is nil"):
		return true
	}
	return false
}
