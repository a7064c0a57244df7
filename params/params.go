package params

import (
	"fmt"
	"os"
	"strings"

	pkgerrors "github.com/pkg/errors"
	yaml3 "gopkg.in/yaml.v3"

	"github.com/cantara/playbookgen/ansible"
)

// LoadFile reads a YAML or JSON parameters file holding one mapping.
func LoadFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "while reading parameters file %s", path)
	}
	params, err := Parse(data)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "while parsing parameters file %s", path)
	}
	return params, nil
}

// Parse decodes a parameters document. Nested mappings keep their key order.
// An empty document gives an empty map.
func Parse(data []byte) (params map[string]any, err error) {
	params = map[string]any{}
	var doc yaml3.Node
	err = yaml3.Unmarshal(data, &doc)
	if err != nil {
		return
	}
	if len(doc.Content) == 0 || doc.Content[0].Tag == "!!null" {
		return
	}
	root := doc.Content[0]
	if root.Kind != yaml3.MappingNode {
		err = fmt.Errorf("parameters must be a mapping, got %s", root.Tag)
		return
	}
	for i := 0; i+1 < len(root.Content); i += 2 {
		var v any
		v, err = ansible.NodeValue(root.Content[i+1])
		if err != nil {
			return
		}
		params[root.Content[i].Value] = v
	}
	return
}

// ParseValue reads s as a YAML scalar or flow collection, "8080" gives an int and
// "[a, b]" a list. Anything that does not parse is kept as the raw string.
func ParseValue(s string) any {
	if strings.TrimSpace(s) == "" {
		return s
	}
	var n yaml3.Node
	if yaml3.Unmarshal([]byte(s), &n) != nil || len(n.Content) == 0 {
		return s
	}
	v, err := ansible.NodeValue(n.Content[0])
	if err != nil {
		return s
	}
	return v
}

// ParseSet turns key=value pairs into parameters, values parsed with ParseValue.
func ParseSet(pairs []string) (map[string]any, error) {
	params := make(map[string]any, len(pairs))
	for _, kv := range pairs {
		key, value, ok := strings.Cut(kv, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid parameter %q, expected key=value", kv)
		}
		params[key] = ParseValue(value)
	}
	return params, nil
}

// Merge copies every source into a new map in order, a later source winning on a shared key.
func Merge(sources ...map[string]any) map[string]any {
	out := map[string]any{}
	for _, src := range sources {
		for k, v := range src {
			out[k] = v
		}
	}
	return out
}
