package generators

import (
	"github.com/cantara/playbookgen/ansible"
	"gopkg.in/yaml.v2"
)

const documentStart = "---\n"

// PlayToYaml encodes the play as a one element list of plays, block style with the
// struct and task key order kept, prefixed by the document start marker.
func PlayToYaml(pb ansible.Playbook) (play []byte, err error) {
	out, err := yaml.Marshal([]ansible.Playbook{
		pb,
	})
	if err != nil {
		return
	}
	play = append([]byte(documentStart), out...)
	return
}
