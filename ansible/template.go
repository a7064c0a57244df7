package ansible

import (
	"fmt"
	"strings"

	"github.com/nikolalohinski/gonja"
	"gopkg.in/yaml.v2"
)

var delimiters = map[string]string{
	"{{": "}}",
	"{%": "%}",
	"{#": "#}",
}

// IsTemplate reports whether s holds jinja delimiters.
func IsTemplate(s string) bool {
	for opener := range delimiters {
		if strings.Contains(s, opener) {
			return true
		}
	}
	return false
}

// CheckDelimiters makes sure every opening delimiter in s has its closer and that string
// literals inside expressions and statements are terminated.
// The engine lexer does not stop at end of input in those cases.
func CheckDelimiters(s string) error {
	for i := 0; i+1 < len(s); {
		closer, ok := delimiters[s[i:i+2]]
		if !ok {
			i++
			continue
		}
		end, err := closing(s, i+2, closer, closer != "#}")
		if err != nil {
			return &TemplateError{Template: s, Err: err}
		}
		i = end
	}
	return nil
}

func closing(s string, from int, closer string, literals bool) (int, error) {
	var quote byte
	for i := from; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
			}
		case literals && (c == '\'' || c == '"'):
			quote = c
		case strings.HasPrefix(s[i:], closer):
			return i + len(closer), nil
		}
	}
	if quote != 0 {
		return 0, fmt.Errorf("unexpected end of template, unterminated string literal")
	}
	return 0, fmt.Errorf("unexpected end of template, missing %q", closer)
}

// ParseTemplate checks that s is a well formed template without evaluating it.
func ParseTemplate(s string) error {
	if !IsTemplate(s) {
		return nil
	}
	err := CheckDelimiters(s)
	if err != nil {
		return err
	}
	_, err = gonja.FromString(s)
	if err != nil {
		return &TemplateError{Template: s, Err: err}
	}
	return nil
}

// parseValue parses every string reachable from v. Mapping keys are not templates.
func parseValue(v any) error {
	switch t := v.(type) {
	case string:
		return ParseTemplate(t)
	case yaml.MapSlice:
		for _, item := range t {
			if err := parseValue(item.Value); err != nil {
				return err
			}
		}
	case map[string]any:
		for _, val := range t {
			if err := parseValue(val); err != nil {
				return err
			}
		}
	case []any:
		for _, val := range t {
			if err := parseValue(val); err != nil {
				return err
			}
		}
	case []string:
		for _, val := range t {
			if err := ParseTemplate(val); err != nil {
				return err
			}
		}
	}
	return nil
}
