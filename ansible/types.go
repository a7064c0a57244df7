package ansible

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v2"
	yaml3 "gopkg.in/yaml.v3"
)

// Task is a rendered, serialization ready task or handler. Key order is kept.
type Task = yaml.MapSlice

// Vars is an ordered variable mapping.
type Vars = yaml.MapSlice

// Playbook is a single finalized play. Field order is the output key order.
type Playbook struct {
	Name        string `yaml:"name"`
	Hosts       string `yaml:"hosts"`
	GatherFacts bool   `yaml:"gather_facts"`
	Vars        Vars   `yaml:"vars,omitempty"`
	Tasks       []Task `yaml:"tasks"`
	Handlers    []Task `yaml:"handlers,omitempty"`
}

type PromptType string

const (
	TypeString  = PromptType("string")
	TypeInteger = PromptType("integer")
	TypeBoolean = PromptType("boolean")
	TypeList    = PromptType("list")
	TypeDict    = PromptType("dict")
)

var PromptTypes = []PromptType{TypeString, TypeInteger, TypeBoolean, TypeList, TypeDict}

func (t PromptType) Valid() bool {
	for _, v := range PromptTypes {
		if v == t {
			return true
		}
	}
	return false
}

// Prompt is an input parameter a module accepts. Type is declarative only,
// supplied values are never coerced to it.
type Prompt struct {
	Name        string     `yaml:"name" json:"name"`
	Description string     `yaml:"description" json:"description"`
	Type        PromptType `yaml:"type" json:"type"`
	Required    bool       `yaml:"required" json:"required"`
	Default     any        `yaml:"default,omitempty" json:"default,omitempty"`
}

func (p *Prompt) UnmarshalYAML(value *yaml3.Node) (err error) {
	var raw struct {
		Name        string     `yaml:"name"`
		Description string     `yaml:"description"`
		Type        *string    `yaml:"type"`
		Required    *bool      `yaml:"required"`
		Default     yaml3.Node `yaml:"default"`
	}
	err = value.Decode(&raw)
	if err != nil {
		return
	}
	*p = Prompt{
		Name:        raw.Name,
		Description: raw.Description,
		Type:        TypeString,
		Required:    true,
	}
	if raw.Type != nil {
		p.Type = PromptType(*raw.Type)
	}
	if raw.Required != nil {
		p.Required = *raw.Required
	}
	p.Default, err = NodeValue(&raw.Default)
	return
}

func (p Prompt) Validate() error {
	if p.Name == "" {
		return &DefinitionError{Reason: "Prompt must have a name"}
	}
	if p.Description == "" {
		return &DefinitionError{Reason: fmt.Sprintf("Prompt '%s' must have a description", p.Name)}
	}
	if !p.Type.Valid() {
		valid := make([]string, len(PromptTypes))
		for i, t := range PromptTypes {
			valid[i] = string(t)
		}
		return &DefinitionError{Reason: fmt.Sprintf("Prompt '%s' has invalid type '%s'. Must be one of: %s",
			p.Name, p.Type, strings.Join(valid, ", "))}
	}
	return nil
}

// TaskTemplate is one automation step. Module is the ansible action name, e.g. "package".
// Name, Params values, When, Loop, Notify and Register may contain jinja expressions.
type TaskTemplate struct {
	Name     string        `yaml:"name"`
	Module   string        `yaml:"module"`
	Params   yaml.MapSlice `yaml:"params"`
	When     any           `yaml:"when,omitempty"`
	Loop     any           `yaml:"loop,omitempty"`
	Notify   []string      `yaml:"notify,omitempty"`
	Register string        `yaml:"register,omitempty"`
}

func (t *TaskTemplate) UnmarshalYAML(value *yaml3.Node) (err error) {
	var raw struct {
		Name     string     `yaml:"name"`
		Module   string     `yaml:"module"`
		Params   yaml3.Node `yaml:"params"`
		When     yaml3.Node `yaml:"when"`
		Loop     yaml3.Node `yaml:"loop"`
		Notify   yaml3.Node `yaml:"notify"`
		Register string     `yaml:"register"`
	}
	err = value.Decode(&raw)
	if err != nil {
		return
	}
	*t = TaskTemplate{
		Name:     raw.Name,
		Module:   raw.Module,
		Params:   yaml.MapSlice{},
		Register: raw.Register,
	}
	switch raw.Params.Kind {
	case 0:
	case yaml3.MappingNode:
		var params any
		params, err = NodeValue(&raw.Params)
		if err != nil {
			return
		}
		t.Params = params.(yaml.MapSlice)
	default:
		return fmt.Errorf("Task template '%s' params must be a dictionary, got %s", raw.Name, nodeKind(&raw.Params))
	}
	switch raw.Notify.Kind {
	case 0:
	case yaml3.SequenceNode:
		err = raw.Notify.Decode(&t.Notify)
		if err != nil {
			return
		}
	default:
		if raw.Notify.Tag == "!!null" {
			break
		}
		return fmt.Errorf("Task template '%s' notify must be a list, got %s", raw.Name, nodeKind(&raw.Notify))
	}
	t.When, err = NodeValue(&raw.When)
	if err != nil {
		return
	}
	t.Loop, err = NodeValue(&raw.Loop)
	return
}

func (t TaskTemplate) Validate() error {
	if t.Name == "" {
		return &DefinitionError{Reason: "Task template must have a name"}
	}
	if t.Module == "" {
		return &DefinitionError{Reason: fmt.Sprintf("Task template '%s' must specify a module", t.Name)}
	}
	for _, v := range []any{t.Name, t.Params, t.When, t.Loop, t.Notify, t.Register} {
		if err := parseValue(v); err != nil {
			return &DefinitionError{Reason: fmt.Sprintf("Task template '%s' has an invalid template: %v", t.Name, err)}
		}
	}
	return nil
}

// Module is a named, reusable unit of automation loaded from the module library.
type Module struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Prompts     []Prompt       `yaml:"prompts"`
	Tasks       []TaskTemplate `yaml:"tasks"`
	Vars        Vars           `yaml:"vars"`
	Handlers    []TaskTemplate `yaml:"handlers"`
	Source      string         `yaml:"-"`
}

func (m *Module) UnmarshalYAML(value *yaml3.Node) (err error) {
	var raw struct {
		Name        string       `yaml:"name"`
		Description string       `yaml:"description"`
		Prompts     []yaml3.Node `yaml:"prompts"`
		Tasks       []yaml3.Node `yaml:"tasks"`
		Vars        yaml3.Node   `yaml:"vars"`
		Handlers    []yaml3.Node `yaml:"handlers"`
	}
	err = value.Decode(&raw)
	if err != nil {
		return
	}
	*m = Module{
		Name:        raw.Name,
		Description: raw.Description,
		Prompts:     make([]Prompt, len(raw.Prompts)),
		Tasks:       make([]TaskTemplate, len(raw.Tasks)),
		Vars:        Vars{},
		Handlers:    make([]TaskTemplate, len(raw.Handlers)),
	}
	for i := range raw.Prompts {
		err = raw.Prompts[i].Decode(&m.Prompts[i])
		if err != nil {
			return &DefinitionError{Module: m.Name, Item: "prompt", Index: i + 1, Reason: err.Error()}
		}
	}
	for i := range raw.Tasks {
		err = raw.Tasks[i].Decode(&m.Tasks[i])
		if err != nil {
			return &DefinitionError{Module: m.Name, Item: "task", Index: i + 1, Reason: err.Error()}
		}
	}
	for i := range raw.Handlers {
		err = raw.Handlers[i].Decode(&m.Handlers[i])
		if err != nil {
			return &DefinitionError{Module: m.Name, Item: "handler", Index: i + 1, Reason: err.Error()}
		}
	}
	switch raw.Vars.Kind {
	case 0:
	case yaml3.MappingNode:
		var vars any
		vars, err = NodeValue(&raw.Vars)
		if err != nil {
			return
		}
		m.Vars = vars.(yaml.MapSlice)
	default:
		if raw.Vars.Tag == "!!null" {
			break
		}
		return &DefinitionError{Reason: fmt.Sprintf("Module '%s' vars must be a dictionary, got %s", m.Name, nodeKind(&raw.Vars))}
	}
	return
}

// Validate checks the module and every prompt, task and handler in it.
// Item failures are annotated with the module name and 1-based index.
func (m Module) Validate() error {
	if m.Name == "" {
		return &DefinitionError{Reason: "Module must have a name"}
	}
	if m.Description == "" {
		return &DefinitionError{Reason: fmt.Sprintf("Module '%s' must have a description", m.Name)}
	}
	for i, p := range m.Prompts {
		if err := p.Validate(); err != nil {
			return &DefinitionError{Module: m.Name, Item: "prompt", Index: i + 1, Reason: err.Error()}
		}
	}
	if len(m.Tasks) == 0 {
		return &DefinitionError{Reason: fmt.Sprintf("Module '%s' must have at least one task. Add tasks to make this module useful.", m.Name)}
	}
	for i, t := range m.Tasks {
		if err := t.Validate(); err != nil {
			return &DefinitionError{Module: m.Name, Item: "task", Index: i + 1, Reason: err.Error()}
		}
	}
	for i, h := range m.Handlers {
		if err := h.Validate(); err != nil {
			return &DefinitionError{Module: m.Name, Item: "handler", Index: i + 1, Reason: err.Error()}
		}
	}
	for _, item := range m.Vars {
		if err := parseValue(item.Value); err != nil {
			return &DefinitionError{Module: m.Name, Reason: fmt.Sprintf("var '%v' has an invalid template: %v", item.Key, err)}
		}
	}
	return nil
}

// Prompt returns the prompt with the given name.
func (m Module) Prompt(name string) (Prompt, bool) {
	for _, p := range m.Prompts {
		if p.Name == name {
			return p, true
		}
	}
	return Prompt{}, false
}
