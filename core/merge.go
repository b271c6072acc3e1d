package core

import (
	"reflect"
	"sort"
)

// DeepMerge combines base and other into a new value.
//
// When both are maps (plain or ordered), keys merge recursively.
// When both values are lists, the result is base's list followed by
// the elements of other's list that base lacks.  Otherwise other's
// value wins, even when that value is nil.
//
// If base is an OrderedMap, the result is an OrderedMap with base's
// keys first.  Neither argument is modified.
func DeepMerge(base, other interface{}) interface{} {
	bkeys, bok := keysOf(base)
	okeys, ook := keysOf(other)
	if !bok || !ook {
		if xs, is := base.([]interface{}); is {
			if ys, is := other.([]interface{}); is {
				return union(xs, ys)
			}
		}
		return other
	}

	acc := NewOrderedMap()
	for _, k := range bkeys {
		bv, _ := lookupIn(base, k)
		ov, have := lookupIn(other, k)
		switch {
		case !have:
			acc.Set(k, bv)
		case ov == nil:
			acc.Set(k, nil)
		default:
			acc.Set(k, DeepMerge(bv, ov))
		}
	}
	for _, k := range okeys {
		if _, have := acc.Get(k); have {
			continue
		}
		v, _ := lookupIn(other, k)
		acc.Set(k, v)
	}

	if _, ordered := base.(*OrderedMap); ordered {
		return acc
	}
	return acc.Map()
}

// keysOf returns the keys of either map type we produce.  Plain map
// keys are sorted.
func keysOf(x interface{}) ([]string, bool) {
	switch vv := x.(type) {
	case *OrderedMap:
		if vv == nil {
			return nil, false
		}
		return vv.keys, true
	case map[string]interface{}:
		return sortedKeys(vv), true
	case Facts:
		return sortedKeys(vv), true
	default:
		return nil, false
	}
}

func lookupIn(x interface{}, k string) (interface{}, bool) {
	switch vv := x.(type) {
	case *OrderedMap:
		return vv.Get(k)
	case map[string]interface{}:
		v, have := vv[k]
		return v, have
	case Facts:
		v, have := vv[k]
		return v, have
	}
	return nil, false
}

func sortedKeys(m map[string]interface{}) []string {
	acc := make([]string, 0, len(m))
	for k := range m {
		acc = append(acc, k)
	}
	sort.Strings(acc)
	return acc
}

func union(xs, ys []interface{}) []interface{} {
	acc := make([]interface{}, 0, len(xs)+len(ys))
	acc = append(acc, xs...)
LOOP:
	for _, y := range ys {
		for _, x := range acc {
			if reflect.DeepEqual(x, y) {
				continue LOOP
			}
		}
		acc = append(acc, y)
	}
	return acc
}
