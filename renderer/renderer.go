package renderer

import (
	"strings"

	"github.com/nikolalohinski/gonja"
	"gopkg.in/yaml.v2"

	"github.com/cantara/playbookgen/ansible"
)

// Context is the resolved mapping of variables used to evaluate expressions.
type Context map[string]any

// Module is the result of rendering one module against one set of parameters.
type Module struct {
	Name        string
	Description string
	Tasks       []ansible.Task
	Handlers    []ansible.Task
	Vars        ansible.Vars
	Context     Context
}

// NewContext resolves the rendering context of a module. Prompts are taken in declaration
// order from parameters, else from their default, else left out. Module vars are added
// after and never override a key already resolved from a prompt.
func NewContext(m ansible.Module, parameters map[string]any) Context {
	ctx := Context{}
	for _, p := range m.Prompts {
		if v, ok := parameters[p.Name]; ok {
			ctx[p.Name] = v
		} else if p.Default != nil {
			ctx[p.Name] = p.Default
		}
	}
	for _, item := range m.Vars {
		key, ok := item.Key.(string)
		if !ok {
			continue
		}
		if _, set := ctx[key]; set {
			continue
		}
		ctx[key] = item.Value
	}
	return ctx
}

// RenderString evaluates s as a jinja template when it contains expression delimiters.
// As in jinja, a single trailing newline is removed from the output.
func RenderString(s string, ctx Context) (string, error) {
	if !ansible.IsTemplate(s) {
		return s, nil
	}
	err := ansible.CheckDelimiters(s)
	if err != nil {
		return "", err
	}
	tpl, err := gonja.FromString(s)
	if err != nil {
		return "", &ansible.TemplateError{Template: s, Err: err}
	}
	vars := make(map[string]any, len(ctx))
	for k, v := range ctx {
		vars[k] = ansible.Plain(v)
	}
	out, err := tpl.Execute(vars)
	if err != nil {
		return "", &ansible.TemplateError{Template: s, Err: err}
	}
	return strings.TrimSuffix(out, "\n"), nil
}

// RenderValue renders strings, recurses into mappings and sequences and returns
// everything else unchanged. Mapping keys are never rendered. The result shares no
// mappings or slices with v.
func RenderValue(v any, ctx Context) (any, error) {
	switch t := v.(type) {
	case string:
		return RenderString(t, ctx)
	case yaml.MapSlice:
		return RenderMap(t, ctx)
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			r, err := RenderValue(val, ctx)
			if err != nil {
				return nil, err
			}
			out[k] = r
		}
		return out, nil
	case []any:
		return RenderList(t, ctx)
	case []string:
		out := make([]any, len(t))
		for i, s := range t {
			r, err := RenderString(s, ctx)
			if err != nil {
				return nil, err
			}
			out[i] = r
		}
		return out, nil
	}
	return v, nil
}

func RenderMap(ms yaml.MapSlice, ctx Context) (yaml.MapSlice, error) {
	out := make(yaml.MapSlice, len(ms))
	for i, item := range ms {
		r, err := RenderValue(item.Value, ctx)
		if err != nil {
			return nil, err
		}
		out[i] = yaml.MapItem{Key: item.Key, Value: r}
	}
	return out, nil
}

func RenderList(l []any, ctx Context) ([]any, error) {
	out := make([]any, len(l))
	for i, v := range l {
		r, err := RenderValue(v, ctx)
		if err != nil {
			return nil, err
		}
		out[i] = r
	}
	return out, nil
}

// empty reports values left out of a rendered task. Booleans are kept, when: false is meaningful.
func empty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case []any:
		return len(t) == 0
	case []string:
		return len(t) == 0
	case yaml.MapSlice:
		return len(t) == 0
	case map[string]any:
		return len(t) == 0
	}
	return false
}

// RenderTask renders a task template to {name, <module>: params, when, loop, notify, register},
// optional keys only when set on the template.
func RenderTask(t ansible.TaskTemplate, ctx Context) (task ansible.Task, err error) {
	name, err := RenderString(t.Name, ctx)
	if err != nil {
		return
	}
	params, err := RenderMap(t.Params, ctx)
	if err != nil {
		return
	}
	task = ansible.Task{
		{Key: "name", Value: name},
		{Key: t.Module, Value: params},
	}
	if !empty(t.When) {
		var when any
		when, err = RenderValue(t.When, ctx)
		if err != nil {
			return nil, err
		}
		task = append(task, yaml.MapItem{Key: "when", Value: when})
	}
	if !empty(t.Loop) {
		var loop any
		loop, err = RenderValue(t.Loop, ctx)
		if err != nil {
			return nil, err
		}
		task = append(task, yaml.MapItem{Key: "loop", Value: loop})
	}
	if len(t.Notify) > 0 {
		var notify any
		notify, err = RenderValue(t.Notify, ctx)
		if err != nil {
			return nil, err
		}
		task = append(task, yaml.MapItem{Key: "notify", Value: notify})
	}
	if t.Register != "" {
		var register string
		register, err = RenderString(t.Register, ctx)
		if err != nil {
			return nil, err
		}
		task = append(task, yaml.MapItem{Key: "register", Value: register})
	}
	return
}

// RenderModule renders all tasks, handlers and vars of m against the context resolved
// from parameters. Any failure discards the whole result.
func RenderModule(m ansible.Module, parameters map[string]any) (rendered Module, err error) {
	ctx := NewContext(m, parameters)
	rendered = Module{
		Name:        m.Name,
		Description: m.Description,
		Tasks:       make([]ansible.Task, len(m.Tasks)),
		Handlers:    make([]ansible.Task, len(m.Handlers)),
		Context:     ctx,
	}
	for i, t := range m.Tasks {
		rendered.Tasks[i], err = RenderTask(t, ctx)
		if err != nil {
			return Module{}, err
		}
	}
	for i, h := range m.Handlers {
		rendered.Handlers[i], err = RenderTask(h, ctx)
		if err != nil {
			return Module{}, err
		}
	}
	rendered.Vars, err = RenderMap(m.Vars, ctx)
	if err != nil {
		return Module{}, err
	}
	return
}
