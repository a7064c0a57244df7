package schema

import (
	"strings"
	"testing"
)

func TestCheckModule(t *testing.T) {
	def := `
name: webserver
description: Web server
prompts:
  - name: port
    description: Port
    type: integer
    default: 80
tasks:
  - name: Install
    module: package
    params:
      name: nginx
    notify: [restart]
    loop: "{{ items }}"
vars:
  a: 1
`
	err := Check("webserver.yml", []byte(def))
	if err != nil {
		t.Fatal(err)
	}
}

func TestCheckCatalogue(t *testing.T) {
	def := `
modules:
  - name: a
    description: A
    tasks:
      - name: t
        module: debug
  - name: b
    description: B
    tasks:
      - name: t
        module: debug
`
	err := Check("catalogue.yml", []byte(def))
	if err != nil {
		t.Fatal(err)
	}
}

func TestCheckRejects(t *testing.T) {
	tests := []struct {
		name string
		def  string
		msg  string
	}{
		{"unknown field", "name: a\ndescription: A\ntaks: []\n", "taks"},
		{"tasks not a list", "name: a\ndescription: A\ntasks: install\n", "tasks"},
		{"notify with numbers", "name: a\ndescription: A\ntasks:\n  - name: t\n    module: debug\n    notify: [1]\n", "notify"},
		{"required not bool", "name: a\ndescription: A\nprompts:\n  - name: p\n    required: maybe\ntasks: []\n", "required"},
		{"catalogue entry", "modules:\n  - name: a\n    unknown: 1\n", "unknown"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := Check(test.name+".yml", []byte(test.def))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), test.msg) {
				t.Errorf("error %q should mention %q", err, test.msg)
			}
		})
	}
}
