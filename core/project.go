package core

import (
	"context"
	"fmt"

	"github.com/Comcast/netparse/util"
)

type shapeMode int

const (
	scalarShape shapeMode = iota
	objectShape
	listShape
)

// DefaultRepeatVar is the loop variable name when none is given.
var DefaultRepeatVar = "item"

// ShapeNode describes one key of a json_template.
//
// Exactly one of Value, Object, or Elements is given.  Value gives a
// scalar (or templated map or list).  Object gives a nested map, and
// Elements gives a list of nested maps.
type ShapeNode struct {
	Key       string       `json:"key" yaml:"key"`
	Value     interface{}  `json:"value,omitempty" yaml:"value,omitempty"`
	Object    []*ShapeNode `json:"object,omitempty" yaml:"object,omitempty"`
	Elements  []*ShapeNode `json:"elements,omitempty" yaml:"elements,omitempty"`
	When      string       `json:"when,omitempty" yaml:"when,omitempty"`
	RepeatFor interface{}  `json:"repeat_for,omitempty" yaml:"repeat_for,omitempty"`
	RepeatVar string       `json:"repeat_var,omitempty" yaml:"repeat_var,omitempty"`

	mode shapeMode
}

// CompileShape checks and converts raw template data (a list of
// maps) into ShapeNodes.
func CompileShape(x interface{}) ([]*ShapeNode, error) {
	xs, is := x.([]interface{})
	if !is {
		return nil, &BadShape{"", fmt.Sprintf("template must be a list, not a %T", x)}
	}
	acc := make([]*ShapeNode, 0, len(xs))
	for _, x := range xs {
		m, is := x.(map[string]interface{})
		if !is {
			return nil, &BadShape{"", fmt.Sprintf("template node must be a map, not a %T", x)}
		}
		n, err := compileShapeNode(m)
		if err != nil {
			return nil, err
		}
		acc = append(acc, n)
	}
	return acc, nil
}

func compileShapeNode(m map[string]interface{}) (*ShapeNode, error) {
	n := &ShapeNode{
		RepeatVar: DefaultRepeatVar,
	}

	k, have := m["key"]
	if !have {
		return nil, &BadShape{"", "missing key"}
	}
	n.Key = fmt.Sprint(k)

	given := 0
	for p, x := range m {
		var err error
		switch p {
		case "key":
		case "value":
			given++
			n.Value = x
			n.mode = scalarShape
		case "object":
			given++
			n.mode = objectShape
			n.Object, err = CompileShape(x)
		case "elements":
			given++
			n.mode = listShape
			n.Elements, err = CompileShape(x)
		case "when":
			n.When = fmt.Sprint(x)
		case "repeat_for":
			n.RepeatFor = x
		case "repeat_var":
			s, is := x.(string)
			if !is || s == "" {
				return nil, &BadShape{n.Key, "repeat_var must be a non-empty string"}
			}
			n.RepeatVar = s
		default:
			return nil, &BadShape{n.Key, `unknown property "` + p + `"`}
		}
		if err != nil {
			return nil, err
		}
	}

	if given != 1 {
		return nil, &BadShape{n.Key, "need exactly one of value, object, or elements"}
	}

	return n, nil
}

// children returns the nested nodes for object and list modes.
func (n *ShapeNode) children() []*ShapeNode {
	if n.mode == listShape {
		return n.Elements
	}
	return n.Object
}

// Project builds an OrderedMap from the ShapeNodes.
//
// Each node gives one key, in order.  A node whose "when" is false
// gives nothing at all.
func Project(ctx context.Context, ev Evaluator, nodes []*ShapeNode, bs Bindings) (*OrderedMap, error) {
	acc := NewOrderedMap()

	for _, n := range nodes {
		key, err := RenderString(ctx, ev, n.Key, bs)
		if err != nil {
			return nil, err
		}

		if n.When != "" {
			ok, err := Conditional(ctx, ev, n.When, bs)
			if err != nil {
				return nil, err
			}
			if !ok {
				util.Logf("skipping template key %s due to conditional", key)
				continue
			}
		}

		if n.mode == scalarShape {
			v, err := Template(ctx, ev, n.Value, bs)
			if err != nil {
				return nil, err
			}
			acc.Set(key, v)
			continue
		}

		if n.RepeatFor == nil {
			m, err := Project(ctx, ev, n.children(), bs)
			if err != nil {
				return nil, err
			}
			if n.mode == listShape {
				acc.Set(key, []interface{}{m})
			} else {
				acc.Set(key, m)
			}
			continue
		}

		x, err := loopValue(ctx, ev, n.RepeatFor, bs)
		if err != nil {
			return nil, err
		}
		items, err := Items(x)
		if err != nil || len(items) == 0 {
			// Something that can't be iterated gives an empty list
			// just like nothing at all.
			acc.Set(key, []interface{}{})
			continue
		}

		ms := make([]interface{}, 0, len(items))
		for _, item := range items {
			m, err := Project(ctx, ev, n.children(), bs.With(n.RepeatVar, item))
			if err != nil {
				return nil, err
			}
			ms = append(ms, m)
		}

		if n.mode == listShape {
			acc.Set(key, ms)
			continue
		}

		var merged interface{} = NewOrderedMap()
		if prev, have := acc.Get(key); have {
			if _, is := keysOf(prev); is {
				merged = prev
			}
		}
		for _, m := range ms {
			merged = DeepMerge(merged, m)
		}
		acc.Set(key, merged)
	}

	return acc, nil
}
