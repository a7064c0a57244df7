package library

import (
	"os"
	"path/filepath"
	"sort"

	log "github.com/cantara/bragi/sbragi"

	"github.com/cantara/playbookgen/ansible"
)

// Library holds the loaded module definitions. It is built at load time and read-only
// afterwards, except for Add and Reload which must not run concurrently with reads.
type Library struct {
	dir     string
	modules map[string]ansible.Module
}

// New returns an empty library with no backing directory, modules are added with Add.
func New() *Library {
	return &Library{
		modules: make(map[string]ansible.Module),
	}
}

// Load reads all definition files in dir. Loading is fail-fast: on any error no library is returned.
func Load(dir string) (lib *Library, err error) {
	lib = New()
	lib.dir = dir
	err = lib.Reload()
	if err != nil {
		return nil, err
	}
	return
}

func (l *Library) Dir() string {
	return l.dir
}

// Reload rebuilds the index from the library directory. The new index replaces the
// current one only when every file loaded.
func (l *Library) Reload() error {
	modules := make(map[string]ansible.Module)
	if l.dir != "" {
		dir, err := filepath.Abs(l.dir)
		if err != nil {
			return err
		}
		err = ReadModuleDir(os.DirFS(dir), ".", modules)
		if err != nil {
			return err
		}
	}
	l.modules = modules
	log.Debug("loaded module library", "dir", l.dir, "modules", len(modules))
	return nil
}

// List returns all module names sorted.
func (l *Library) List() []string {
	names := make([]string, 0, len(l.modules))
	for name := range l.modules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (l *Library) Get(name string) (ansible.Module, error) {
	m, ok := l.modules[name]
	if !ok {
		return ansible.Module{}, &ansible.NotFoundError{Name: name, Available: l.List()}
	}
	return m, nil
}

// Describe returns the name and description of every module, sorted by name.
func (l *Library) Describe() (infos []ansible.ModuleInfo) {
	for _, name := range l.List() {
		infos = append(infos, l.modules[name].Info())
	}
	return
}

// ValidateRequiredParameters fails with every required prompt that has neither a
// supplied value nor a default.
func (l *Library) ValidateRequiredParameters(name string, parameters map[string]any) error {
	m, err := l.Get(name)
	if err != nil {
		return err
	}
	var missing []string
	for _, p := range m.Prompts {
		if !p.Required {
			continue
		}
		if _, ok := parameters[p.Name]; ok {
			continue
		}
		if p.Default != nil {
			continue
		}
		missing = append(missing, p.Name)
	}
	if len(missing) > 0 {
		return &ansible.MissingParametersError{Module: name, Missing: missing}
	}
	return nil
}

// Add validates the module and inserts it, overwriting a module with the same name.
func (l *Library) Add(m ansible.Module) error {
	err := m.Validate()
	if err != nil {
		return err
	}
	l.modules[m.Name] = m
	return nil
}
