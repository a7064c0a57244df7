package renderer

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/cantara/playbookgen/ansible"
)

func TestRenderString(t *testing.T) {
	out, err := RenderString("Install {{ pkg }}", Context{"pkg": "nginx"})
	if err != nil {
		t.Fatal(err)
	}
	if out != "Install nginx" {
		t.Fatalf("got %q", out)
	}
	out, err = RenderString("no expressions", Context{})
	if err != nil || out != "no expressions" {
		t.Fatalf("plain strings should pass through, got %q %v", out, err)
	}
	out, err = RenderString("{% if ssl %}https{% else %}http{% endif %}", Context{"ssl": true})
	if err != nil || out != "https" {
		t.Fatalf("got %q %v", out, err)
	}
}

func TestRenderStringError(t *testing.T) {
	tests := []string{
		"{{ unclosed",
		"{{ x ",
		"{{ x }",
		"{% if x %}a",
		"{{ 'abc }}",
		"{# comment",
		"{{ x + }}",
		"{{ x | nosuch }}",
	}
	for _, tpl := range tests {
		t.Run(tpl, func(t *testing.T) {
			done := make(chan error, 1)
			go func() {
				_, err := RenderString(tpl, Context{"x": 1})
				done <- err
			}()
			var err error
			select {
			case err = <-done:
			case <-time.After(5 * time.Second):
				t.Fatal("rendering did not return")
			}
			if !errors.Is(err, ansible.ErrTemplate) {
				t.Fatalf("expected template error, got %v", err)
			}
			var te *ansible.TemplateError
			if !errors.As(err, &te) || te.Template != tpl {
				t.Fatalf("template error should carry the template, got %v", err)
			}
		})
	}
}

func TestRenderStringClosedDelimiters(t *testing.T) {
	out, err := RenderString("{# c #}{{ x }}", Context{"x": "v"})
	if err != nil || out != "v" {
		t.Fatalf("got %q %v", out, err)
	}
}

func TestRenderStringTrailingNewline(t *testing.T) {
	out, err := RenderString("line {{ x }}\n", Context{"x": "v"})
	if err != nil || out != "line v" {
		t.Fatalf("one trailing newline should be removed, got %q %v", out, err)
	}
	out, err = RenderString("a\n{{ x }}\n\n", Context{"x": "v"})
	if err != nil || out != "a\nv\n" {
		t.Fatalf("only one trailing newline should be removed, got %q %v", out, err)
	}
	out, _ = RenderString("plain\n", Context{})
	if out != "plain\n" {
		t.Fatalf("plain strings should pass through, got %q", out)
	}
}

func TestRenderTaskOptionalValues(t *testing.T) {
	task, err := RenderTask(ansible.TaskTemplate{Name: "a", Module: "debug", When: true, Loop: []any{}}, Context{})
	if err != nil {
		t.Fatal(err)
	}
	if v, ok := ansible.Lookup(task, "when"); !ok || v != true {
		t.Errorf("boolean when should be kept as is, got %#v", v)
	}
	if _, ok := ansible.Lookup(task, "loop"); ok {
		t.Error("empty loop should be left out")
	}
	task, err = RenderTask(ansible.TaskTemplate{Name: "b", Module: "debug", When: "", Loop: ""}, Context{})
	if err != nil {
		t.Fatal(err)
	}
	if len(task) != 2 {
		t.Errorf("empty when and loop should be left out, got %v", task)
	}
}

func TestRenderValue(t *testing.T) {
	ctx := Context{"name": "web", "port": 8080}
	in := yaml.MapSlice{
		{Key: "z", Value: "{{ name }}"},
		{Key: "a", Value: []any{"{{ port }}", 1, true, nil}},
		{Key: "m", Value: map[string]any{"k": "{{ name }}-x"}},
		{Key: "n", Value: 3.5},
		{Key: "{{ name }}", Value: []string{"{{ name }}"}},
	}
	out, err := RenderValue(in, ctx)
	if err != nil {
		t.Fatal(err)
	}
	expected := yaml.MapSlice{
		{Key: "z", Value: "web"},
		{Key: "a", Value: []any{"8080", 1, true, nil}},
		{Key: "m", Value: map[string]any{"k": "web-x"}},
		{Key: "n", Value: 3.5},
		{Key: "{{ name }}", Value: []any{"web"}},
	}
	if !reflect.DeepEqual(out, expected) {
		t.Fatalf("got %#v", out)
	}
	if in[0].Value != "{{ name }}" {
		t.Fatal("input must not be modified")
	}
}

func webserver() ansible.Module {
	return ansible.Module{
		Name:        "webserver",
		Description: "Web server",
		Prompts: []ansible.Prompt{
			{Name: "server_type", Description: "Server", Type: ansible.TypeString, Required: true},
			{Name: "port", Description: "Port", Type: ansible.TypeInteger, Required: true, Default: 80},
			{Name: "env", Description: "Environment", Type: ansible.TypeString, Required: false},
			{Name: "docroot", Description: "Root", Type: ansible.TypeString, Required: false},
		},
		Tasks: []ansible.TaskTemplate{
			{
				Name:   "Install {{ server_type }}",
				Module: "package",
				Params: yaml.MapSlice{{Key: "name", Value: "{{ server_type }}"}, {Key: "state", Value: "present"}},
				Notify: []string{"restart {{ server_type }}"},
			},
			{
				Name:     "Listen on {{ port }}",
				Module:   "lineinfile",
				Params:   yaml.MapSlice{{Key: "line", Value: "listen {{ port }}"}},
				When:     "{{ env == 'prod' }}",
				Loop:     []any{"{{ server_type }}", "other"},
				Register: "result",
			},
		},
		Handlers: []ansible.TaskTemplate{
			{Name: "restart {{ server_type }}", Module: "service", Params: yaml.MapSlice{{Key: "name", Value: "{{ server_type }}"}}},
		},
		Vars: ansible.Vars{{Key: "env", Value: "dev"}, {Key: "http_port", Value: "{{ port }}"}},
	}
}

func TestNewContext(t *testing.T) {
	ctx := NewContext(webserver(), map[string]any{"server_type": "nginx", "env": "prod"})
	if ctx["server_type"] != "nginx" || ctx["port"] != 80 {
		t.Errorf("unexpected context %v", ctx)
	}
	if ctx["env"] != "prod" {
		t.Errorf("supplied parameters should win over module vars, got %v", ctx["env"])
	}
	if _, ok := ctx["docroot"]; ok {
		t.Error("prompts without value or default should be absent")
	}
	if ctx["http_port"] != "{{ port }}" {
		t.Errorf("module vars should be in the context unrendered, got %v", ctx["http_port"])
	}
	ctx = NewContext(webserver(), map[string]any{"server_type": "nginx"})
	if ctx["env"] != "dev" {
		t.Errorf("module vars should fill keys not resolved from prompts, got %v", ctx["env"])
	}
}

func TestRenderModule(t *testing.T) {
	r, err := RenderModule(webserver(), map[string]any{"server_type": "nginx", "env": "prod"})
	if err != nil {
		t.Fatal(err)
	}
	expected := ansible.Task{
		{Key: "name", Value: "Install nginx"},
		{Key: "package", Value: yaml.MapSlice{{Key: "name", Value: "nginx"}, {Key: "state", Value: "present"}}},
		{Key: "notify", Value: []any{"restart nginx"}},
	}
	if !reflect.DeepEqual(r.Tasks[0], expected) {
		t.Errorf("got %#v", r.Tasks[0])
	}
	second := r.Tasks[1]
	keys := make([]any, len(second))
	for i, item := range second {
		keys[i] = item.Key
	}
	if !reflect.DeepEqual(keys, []any{"name", "lineinfile", "when", "loop", "register"}) {
		t.Errorf("unexpected key order %v", keys)
	}
	if v, _ := ansible.Lookup(second, "when"); v != "True" {
		t.Errorf("when should be rendered, got %v", v)
	}
	if v, _ := ansible.Lookup(second, "loop"); !reflect.DeepEqual(v, []any{"nginx", "other"}) {
		t.Errorf("loop should be rendered, got %v", v)
	}
	if v, _ := ansible.Lookup(r.Handlers[0], "name"); v != "restart nginx" {
		t.Errorf("handler should be rendered, got %v", v)
	}
	if v, _ := ansible.Lookup(r.Vars, "http_port"); v != "80" {
		t.Errorf("vars should be rendered, got %v", v)
	}
	if r.Context["port"] != 80 {
		t.Errorf("context should be returned, got %v", r.Context)
	}
}

func TestRenderModuleFailureDiscardsResult(t *testing.T) {
	m := webserver()
	m.Tasks = append(m.Tasks, ansible.TaskTemplate{Name: "{{ broken", Module: "debug"})
	r, err := RenderModule(m, map[string]any{"server_type": "nginx"})
	if !errors.Is(err, ansible.ErrTemplate) {
		t.Fatalf("expected template error, got %v", err)
	}
	if len(r.Tasks) != 0 || r.Name != "" {
		t.Fatalf("no partial result should be returned, got %+v", r)
	}
}
