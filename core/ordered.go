package core

import (
	"bytes"
	"encoding/json"

	"gopkg.in/yaml.v2"
)

// OrderedMap is a map that remembers the order in which keys were
// first set.  The TemplateProjector builds these so that output
// follows the order of the template.
type OrderedMap struct {
	keys []string
	vals map[string]interface{}
}

func NewOrderedMap() *OrderedMap {
	return &OrderedMap{
		keys: make([]string, 0, 8),
		vals: make(map[string]interface{}, 8),
	}
}

// Set binds k to v.  A new key goes to the end; an existing key
// keeps its position.
func (m *OrderedMap) Set(k string, v interface{}) {
	if _, have := m.vals[k]; !have {
		m.keys = append(m.keys, k)
	}
	m.vals[k] = v
}

func (m *OrderedMap) Get(k string) (interface{}, bool) {
	v, have := m.vals[k]
	return v, have
}

// Keys returns a copy of the keys in order.
func (m *OrderedMap) Keys() []string {
	acc := make([]string, len(m.keys))
	copy(acc, m.keys)
	return acc
}

func (m *OrderedMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Map returns a plain map with the same (shallow) contents.
func (m *OrderedMap) Map() map[string]interface{} {
	acc := make(map[string]interface{}, len(m.keys))
	for k, v := range m.vals {
		acc[k] = v
	}
	return acc
}

func (m *OrderedMap) MarshalJSON() ([]byte, error) {
	buf := &bytes.Buffer{}
	buf.WriteByte('{')
	for i, k := range m.keys {
		if 0 < i {
			buf.WriteByte(',')
		}
		js, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(js)
		buf.WriteByte(':')
		v := m.vals[k]
		if js, err = json.Marshal(&v); err != nil {
			return nil, err
		}
		buf.Write(js)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (m *OrderedMap) MarshalYAML() (interface{}, error) {
	ms := make(yaml.MapSlice, 0, len(m.keys))
	for _, k := range m.keys {
		ms = append(ms, yaml.MapItem{Key: k, Value: m.vals[k]})
	}
	return ms, nil
}

// Plain recursively replaces OrderedMaps with plain maps.  Maps and
// slices are copied along the way.  Evaluators that only understand
// plain Go values use this function.
func Plain(x interface{}) interface{} {
	switch vv := x.(type) {
	case *OrderedMap:
		if vv == nil {
			return nil
		}
		acc := make(map[string]interface{}, len(vv.keys))
		for k, v := range vv.vals {
			acc[k] = Plain(v)
		}
		return acc
	case map[string]interface{}:
		acc := make(map[string]interface{}, len(vv))
		for k, v := range vv {
			acc[k] = Plain(v)
		}
		return acc
	case Facts:
		return Plain(map[string]interface{}(vv))
	case Bindings:
		return Plain(map[string]interface{}(vv))
	case []interface{}:
		acc := make([]interface{}, len(vv))
		for i, v := range vv {
			acc[i] = Plain(v)
		}
		return acc
	default:
		return x
	}
}
