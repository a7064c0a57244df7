package ansible

import (
	"fmt"
	"sort"

	"gopkg.in/yaml.v2"
	yaml3 "gopkg.in/yaml.v3"
)

// NodeValue converts a decoded yaml node to plain values, keeping mapping order
// by turning mappings into yaml.MapSlice. An empty node gives nil.
func NodeValue(n *yaml3.Node) (v any, err error) {
	switch n.Kind {
	case 0:
		return nil, nil
	case yaml3.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return NodeValue(n.Content[0])
	case yaml3.AliasNode:
		return NodeValue(n.Alias)
	case yaml3.MappingNode:
		ms := make(yaml.MapSlice, 0, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			var key any
			err = n.Content[i].Decode(&key)
			if err != nil {
				return
			}
			var val any
			val, err = NodeValue(n.Content[i+1])
			if err != nil {
				return
			}
			ms = append(ms, yaml.MapItem{Key: key, Value: val})
		}
		return ms, nil
	case yaml3.SequenceNode:
		seq := make([]any, len(n.Content))
		for i, c := range n.Content {
			seq[i], err = NodeValue(c)
			if err != nil {
				return
			}
		}
		return seq, nil
	}
	err = n.Decode(&v)
	return
}

func nodeKind(n *yaml3.Node) string {
	switch n.Kind {
	case yaml3.MappingNode:
		return "dict"
	case yaml3.SequenceNode:
		return "list"
	case yaml3.ScalarNode:
		switch n.Tag {
		case "!!null":
			return "null"
		case "!!int":
			return "int"
		case "!!float":
			return "float"
		case "!!bool":
			return "bool"
		}
		return "str"
	}
	return "unknown"
}

// Plain converts ordered mappings to map[string]any, recursively.
// Used when values are handed to the template engine or encoded as json.
func Plain(v any) any {
	switch t := v.(type) {
	case yaml.MapSlice:
		m := make(map[string]any, len(t))
		for _, item := range t {
			m[fmt.Sprint(item.Key)] = Plain(item.Value)
		}
		return m
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, val := range t {
			m[k] = Plain(val)
		}
		return m
	case map[any]any:
		m := make(map[string]any, len(t))
		for k, val := range t {
			m[fmt.Sprint(k)] = Plain(val)
		}
		return m
	case []any:
		s := make([]any, len(t))
		for i, val := range t {
			s[i] = Plain(val)
		}
		return s
	}
	return v
}

// Lookup returns the value stored under key.
func Lookup(ms yaml.MapSlice, key string) (any, bool) {
	for _, item := range ms {
		if fmt.Sprint(item.Key) == key {
			return item.Value, true
		}
	}
	return nil, false
}

// SetVar overwrites key in place or appends it.
func SetVar(ms yaml.MapSlice, key string, value any) yaml.MapSlice {
	for i, item := range ms {
		if fmt.Sprint(item.Key) == key {
			ms[i].Value = value
			return ms
		}
	}
	return append(ms, yaml.MapItem{Key: key, Value: value})
}

// AddVars shallow merges inVars into outVars, later keys win.
func AddVars(inVars, outVars yaml.MapSlice) yaml.MapSlice {
	for _, item := range inVars {
		outVars = SetVar(outVars, fmt.Sprint(item.Key), item.Value)
	}
	return outVars
}

// VarsFromMap builds ordered vars from a map. Map iteration has no order so keys are sorted.
func VarsFromMap(m map[string]any) yaml.MapSlice {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	ms := make(yaml.MapSlice, len(keys))
	for i, k := range keys {
		ms[i] = yaml.MapItem{Key: k, Value: m[k]}
	}
	return ms
}

// Copy returns a deep copy of mappings and sequences in v. Scalars are shared.
func Copy(v any) any {
	switch t := v.(type) {
	case yaml.MapSlice:
		return CopyMap(t)
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = Copy(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = Copy(val)
		}
		return out
	case []string:
		return append([]string{}, t...)
	}
	return v
}

func CopyMap(ms yaml.MapSlice) yaml.MapSlice {
	if ms == nil {
		return nil
	}
	out := make(yaml.MapSlice, len(ms))
	for i, item := range ms {
		out[i] = yaml.MapItem{Key: item.Key, Value: Copy(item.Value)}
	}
	return out
}
