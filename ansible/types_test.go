package ansible

import (
	"errors"
	"strings"
	"testing"

	"gopkg.in/yaml.v2"
	yaml3 "gopkg.in/yaml.v3"
)

const webserverDef = `
name: webserver
description: Install a web server
prompts:
  - name: server_type
    description: Server package
  - name: port
    description: Listen port
    type: integer
    default: 80
  - name: extra
    description: Extra options
    type: dict
    required: false
    default:
      z: 1
      a: 2
tasks:
  - name: "Install {{ server_type }}"
    module: package
    params:
      name: "{{ server_type }}"
      state: present
    notify:
      - restart
  - name: Loop
    module: debug
    params:
      msg: "{{ item }}"
    loop: [1, 2]
    when: port > 0
    register: out
handlers:
  - name: restart
    module: service
    params:
      name: "{{ server_type }}"
      state: restarted
vars:
  b: 1
  a: "{{ port }}"
`

func decodeModule(t *testing.T, def string) (m Module, err error) {
	t.Helper()
	err = yaml3.Unmarshal([]byte(def), &m)
	return
}

func TestDecodeModule(t *testing.T) {
	m, err := decodeModule(t, webserverDef)
	if err != nil {
		t.Fatal(err)
	}
	err = m.Validate()
	if err != nil {
		t.Fatal(err)
	}
	if len(m.Prompts) != 3 || len(m.Tasks) != 2 || len(m.Handlers) != 1 {
		t.Fatalf("unexpected module %+v", m)
	}
	st := m.Prompts[0]
	if st.Type != TypeString || !st.Required || st.Default != nil {
		t.Errorf("prompt defaults not applied: %+v", st)
	}
	port, ok := m.Prompt("port")
	if !ok || port.Type != TypeInteger || port.Default != 80 {
		t.Errorf("unexpected port prompt %+v", port)
	}
	extra, _ := m.Prompt("extra")
	def, ok := extra.Default.(yaml.MapSlice)
	if !ok || def[0].Key != "z" || extra.Required {
		t.Errorf("dict default should keep order, got %#v", extra.Default)
	}
	task := m.Tasks[0]
	if task.Module != "package" || len(task.Params) != 2 || task.Params[0].Key != "name" {
		t.Errorf("unexpected task %+v", task)
	}
	if len(task.Notify) != 1 || task.Notify[0] != "restart" {
		t.Errorf("unexpected notify %v", task.Notify)
	}
	loop := m.Tasks[1]
	if loop.When != "port > 0" || loop.Register != "out" {
		t.Errorf("unexpected optional fields %+v", loop)
	}
	if l, ok := loop.Loop.([]any); !ok || len(l) != 2 {
		t.Errorf("unexpected loop %#v", loop.Loop)
	}
	if len(m.Vars) != 2 || m.Vars[0].Key != "b" {
		t.Errorf("vars should keep order, got %v", m.Vars)
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		def  string
		msg  string
	}{
		{
			name: "params not a mapping",
			def:  "name: m\ndescription: d\ntasks:\n  - name: t\n    module: debug\n    params: [1]\n",
			msg:  "Module 'm', task #1: Task template 't' params must be a dictionary, got list",
		},
		{
			name: "notify not a list",
			def:  "name: m\ndescription: d\ntasks:\n  - name: t\n    module: debug\n    notify: restart\n",
			msg:  "notify must be a list, got str",
		},
		{
			name: "vars not a mapping",
			def:  "name: m\ndescription: d\ntasks:\n  - name: t\n    module: debug\nvars: [a]\n",
			msg:  "Module 'm' vars must be a dictionary, got list",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := decodeModule(t, test.def)
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, ErrDefinition) {
				t.Errorf("expected a definition error, got %T", err)
			}
			if !strings.Contains(err.Error(), test.msg) {
				t.Errorf("error %q should contain %q", err, test.msg)
			}
		})
	}
}

func TestNullNotifyAndVars(t *testing.T) {
	m, err := decodeModule(t, "name: m\ndescription: d\ntasks:\n  - name: t\n    module: debug\n    notify:\nvars:\n")
	if err != nil {
		t.Fatal(err)
	}
	if len(m.Tasks[0].Notify) != 0 || len(m.Vars) != 0 {
		t.Fatalf("null notify and vars should be empty, got %+v", m)
	}
	if m.Tasks[0].Params == nil {
		t.Fatal("missing params should decode to an empty mapping")
	}
}

func TestValidate(t *testing.T) {
	valid := func() Module {
		return Module{
			Name:        "m",
			Description: "d",
			Prompts:     []Prompt{{Name: "p", Description: "d", Type: TypeString, Required: true}},
			Tasks:       []TaskTemplate{{Name: "t", Module: "debug"}},
			Handlers:    []TaskTemplate{{Name: "h", Module: "service"}},
		}
	}
	tests := []struct {
		name   string
		mutate func(m *Module)
		msg    string
	}{
		{"no name", func(m *Module) { m.Name = "" }, "Module must have a name"},
		{"no description", func(m *Module) { m.Description = "" }, "Module 'm' must have a description"},
		{"no tasks", func(m *Module) { m.Tasks = nil }, "Module 'm' must have at least one task. Add tasks to make this module useful."},
		{"prompt type", func(m *Module) { m.Prompts[0].Type = "float" },
			"Module 'm', prompt #1: Prompt 'p' has invalid type 'float'. Must be one of: string, integer, boolean, list, dict"},
		{"prompt description", func(m *Module) { m.Prompts[0].Description = "" }, "Module 'm', prompt #1: Prompt 'p' must have a description"},
		{"task module", func(m *Module) { m.Tasks = append(m.Tasks, TaskTemplate{Name: "x"}) }, "Module 'm', task #2: Task template 'x' must specify a module"},
		{"task name", func(m *Module) { m.Tasks[0].Name = "" }, "Module 'm', task #1: Task template must have a name"},
		{"handler", func(m *Module) { m.Handlers[0].Module = "" }, "Module 'm', handler #1: Task template 'h' must specify a module"},
	}
	m := valid()
	if err := m.Validate(); err != nil {
		t.Fatal(err)
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			m := valid()
			test.mutate(&m)
			err := m.Validate()
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, ErrDefinition) {
				t.Errorf("expected definition error, got %T", err)
			}
			if err.Error() != test.msg {
				t.Errorf("got %q, expected %q", err, test.msg)
			}
		})
	}
}

func TestErrorMessages(t *testing.T) {
	nf := &NotFoundError{Name: "db", Available: []string{"firewall", "webserver"}}
	if nf.Error() != "Module 'db' not found. Available modules: firewall, webserver" {
		t.Error(nf.Error())
	}
	if !errors.Is(nf, ErrModuleNotFound) {
		t.Error("not found error should match ErrModuleNotFound")
	}
	empty := &NotFoundError{Name: "db"}
	if !strings.HasSuffix(empty.Error(), "Available modules: none") {
		t.Error(empty.Error())
	}
	mp := &MissingParametersError{Module: "webserver", Missing: []string{"server_type", "port"}}
	if mp.Error() != "Module 'webserver' missing required parameters: server_type, port. Please provide values for these fields." {
		t.Error(mp.Error())
	}
	cause := errors.New("unexpected end")
	te := &TemplateError{Template: "{{ x", Err: cause}
	if !errors.Is(te, ErrTemplate) || !errors.Is(te, cause) {
		t.Error("template error should match ErrTemplate and its cause")
	}
	oe := &OutputError{Path: "/x/p.yml", Err: cause}
	if !errors.Is(oe, ErrOutput) || !strings.HasPrefix(oe.Error(), "Failed to write playbook to '/x/p.yml'") {
		t.Error(oe.Error())
	}
}

func TestInfo(t *testing.T) {
	m, err := decodeModule(t, webserverDef)
	if err != nil {
		t.Fatal(err)
	}
	info := m.Info()
	if info.Tasks[0] != "Install {{ server_type }} (package)" {
		t.Errorf("unexpected task summary %q", info.Tasks[0])
	}
	if len(info.Handlers) != 1 || info.Vars["b"] != 1 {
		t.Errorf("unexpected info %+v", info)
	}
	if _, ok := info.Prompts[2].Default.(map[string]any); !ok {
		t.Errorf("defaults should be plain maps for json, got %T", info.Prompts[2].Default)
	}
}
