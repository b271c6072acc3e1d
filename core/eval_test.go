package core

import (
	"context"
	"errors"
	"strconv"
	"strings"
)

// pathEvaluator is a tiny Evaluator for tests.  It understands
// literals, dotted variable paths (with list indexes), and a leading
// "not".
type pathEvaluator struct{}

var testEv = pathEvaluator{}

func (pathEvaluator) Compile(ctx context.Context, src string) (interface{}, error) {
	if strings.ContainsAny(src, "(){}[]") {
		return nil, errors.New("syntax error: " + src)
	}
	return nil, nil
}

func (e pathEvaluator) Exec(ctx context.Context, bs Bindings, src string, compiled interface{}) (*Evaluation, error) {
	if _, err := e.Compile(ctx, src); err != nil {
		return nil, err
	}
	src = strings.TrimSpace(src)

	if strings.HasPrefix(src, "not ") {
		ev, err := e.Exec(ctx, bs, src[4:], nil)
		if err != nil {
			return nil, err
		}
		return &Evaluation{Value: !Truthy(ev.Value)}, nil
	}

	switch src {
	case "true":
		return &Evaluation{Value: true}, nil
	case "false":
		return &Evaluation{Value: false}, nil
	case "null":
		return &Evaluation{}, nil
	}
	if n, err := strconv.Atoi(src); err == nil {
		return &Evaluation{Value: n}, nil
	}
	if 2 <= len(src) && src[0] == '"' && src[len(src)-1] == '"' {
		return &Evaluation{Value: src[1 : len(src)-1]}, nil
	}

	ps := strings.Split(src, ".")
	x, have := bs[ps[0]]
	if !have {
		return &Evaluation{Undefined: true}, nil
	}
	for _, p := range ps[1:] {
		switch vv := x.(type) {
		case map[string]interface{}:
			x, have = vv[p]
		case *OrderedMap:
			x, have = vv.Get(p)
		case []interface{}:
			i, err := strconv.Atoi(p)
			have = err == nil && 0 <= i && i < len(vv)
			if have {
				x = vv[i]
			}
		default:
			have = false
		}
		if !have {
			return &Evaluation{Undefined: true}, nil
		}
	}
	return &Evaluation{Value: x}, nil
}
