package library

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	log "github.com/cantara/bragi/sbragi"
	"github.com/gabriel-vasile/mimetype"
	pkgerrors "github.com/pkg/errors"
	yaml3 "gopkg.in/yaml.v3"

	"github.com/cantara/playbookgen/ansible"
	"github.com/cantara/playbookgen/ansible/schema"
)

func isDefinitionFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".yml" || ext == ".yaml"
}

// ReadModuleDir reads every definition file under root in lexical order and adds the
// modules to the given map. A module name seen again overwrites the earlier one.
// A missing directory is not an error.
func ReadModuleDir(dir fs.FS, root string, modules map[string]ansible.Module) error {
	_, err := fs.Stat(dir, root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	return fs.WalkDir(dir, root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return fs.SkipDir
			}
			return nil
		}
		if !isDefinitionFile(d.Name()) {
			return nil
		}
		b, err := fs.ReadFile(dir, path)
		if err != nil {
			return pkgerrors.Wrapf(err, "Failed to load template file '%s': cannot read file", d.Name())
		}
		mods, err := ParseModules(path, b)
		if err != nil {
			return pkgerrors.Wrapf(err, "Failed to load template file '%s'", d.Name())
		}
		for _, m := range mods {
			if _, ok := modules[m.Name]; ok {
				log.Debug("module redefined, last definition wins", "module", m.Name, "file", path)
			}
			modules[m.Name] = m
		}
		log.Trace("read module file", "file", path, "modules", len(mods))
		return nil
	})
}

// ParseModules decodes and validates one definition file. The file holds either a single
// module or a catalogue with a "modules" list.
func ParseModules(filename string, data []byte) (modules []ansible.Module, err error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		err = &ansible.DefinitionError{Reason: "YAML file is empty"}
		return
	}
	mtype := mimetype.Detect(data)
	if !strings.HasPrefix(mtype.String(), "text") {
		err = &ansible.DefinitionError{Reason: fmt.Sprintf("not a text file, detected %s", mtype.String())}
		return
	}
	var doc yaml3.Node
	err = yaml3.Unmarshal(data, &doc)
	if err != nil {
		err = &ansible.DefinitionError{Reason: fmt.Sprintf("Invalid YAML syntax: %v", err)}
		return
	}
	if len(doc.Content) == 0 || doc.Content[0].Tag == "!!null" {
		err = &ansible.DefinitionError{Reason: "YAML file is empty"}
		return
	}
	root := doc.Content[0]
	if root.Kind != yaml3.MappingNode {
		err = &ansible.DefinitionError{Reason: "YAML file must contain a dictionary"}
		return
	}
	err = schema.Check(filename, data)
	if err != nil {
		err = &ansible.DefinitionError{Module: nameOf(root), Reason: fmt.Sprintf("Validation failed for '%s': %v", filename, err)}
		return
	}
	if modulesNode(root) != nil {
		var catalogue struct {
			Modules []ansible.Module `yaml:"modules"`
		}
		err = root.Decode(&catalogue)
		if err != nil {
			err = asDefinitionError(err)
			return
		}
		modules = catalogue.Modules
	} else {
		var m ansible.Module
		err = root.Decode(&m)
		if err != nil {
			err = asDefinitionError(err)
			return
		}
		modules = []ansible.Module{m}
	}
	for i := range modules {
		modules[i].Source = filename
		err = modules[i].Validate()
		if err != nil {
			err = &ansible.DefinitionError{Reason: fmt.Sprintf("Validation failed for '%s': %v", filename, err)}
			return
		}
	}
	return
}

func asDefinitionError(err error) error {
	var defErr *ansible.DefinitionError
	if errors.As(err, &defErr) {
		return defErr
	}
	return &ansible.DefinitionError{Reason: err.Error()}
}

func modulesNode(root *yaml3.Node) *yaml3.Node {
	for i := 0; i+1 < len(root.Content); i += 2 {
		if root.Content[i].Value == "modules" {
			return root.Content[i+1]
		}
	}
	return nil
}

func nameOf(root *yaml3.Node) string {
	for i := 0; i+1 < len(root.Content); i += 2 {
		if root.Content[i].Value == "name" {
			return root.Content[i+1].Value
		}
	}
	return ""
}
