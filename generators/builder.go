package generators

import (
	"fmt"

	log "github.com/cantara/bragi/sbragi"

	"github.com/cantara/playbookgen/ansible"
	"github.com/cantara/playbookgen/output"
	"github.com/cantara/playbookgen/renderer"
)

// Catalogue is the module lookup the builder renders from, *library.Library implements it.
type Catalogue interface {
	Get(name string) (ansible.Module, error)
	List() []string
	ValidateRequiredParameters(name string, parameters map[string]any) error
}

// State is a snapshot of what the builder has accumulated.
type State struct {
	Name        string
	Hosts       string
	GatherFacts bool
	Vars        ansible.Vars
	Tasks       []ansible.Task
	Handlers    []ansible.Task
}

// Builder aggregates rendered modules and ad-hoc tasks into one play.
// Mutators return the builder for chaining. A failed AddModule leaves the state untouched,
// keeps its error for Err, Finalize, Serialize and WriteToFile, and turns later module adds
// into no-ops until Reset. A Builder is not safe for concurrent use, use one per playbook.
type Builder struct {
	lib       Catalogue
	outputDir string
	state     State
	err       error
}

// New returns an empty builder. Playbooks written without an explicit path go to outputDir,
// output.DefaultDir when empty.
func New(lib Catalogue, outputDir string) *Builder {
	if outputDir == "" {
		outputDir = output.DefaultDir
	}
	b := &Builder{
		lib:       lib,
		outputDir: outputDir,
	}
	b.Reset()
	return b
}

// Reset restores the empty defaults: no name, hosts "all", gather_facts true and no vars, tasks or handlers.
func (b *Builder) Reset() {
	b.state = State{
		Hosts:       "all",
		GatherFacts: true,
		Vars:        ansible.Vars{},
		Tasks:       []ansible.Task{},
		Handlers:    []ansible.Task{},
	}
	b.err = nil
}

func (b *Builder) SetName(name string) *Builder {
	b.state.Name = name
	return b
}

func (b *Builder) SetHosts(hosts string) *Builder {
	b.state.Hosts = hosts
	return b
}

func (b *Builder) SetGatherFacts(gatherFacts bool) *Builder {
	b.state.GatherFacts = gatherFacts
	return b
}

// AddVars merges vars into the playbook vars, a later value for the same key wins.
func (b *Builder) AddVars(vars ansible.Vars) *Builder {
	b.state.Vars = ansible.AddVars(vars, b.state.Vars)
	return b
}

// AddModule renders the named module with parameters and appends its tasks, handlers and vars.
func (b *Builder) AddModule(name string, parameters map[string]any) *Builder {
	return b.AddModules([]string{name}, parameters)
}

// AddModules adds several modules rendered with the same parameters. Either all of them
// are added or, on the first failure, none.
func (b *Builder) AddModules(names []string, parameters map[string]any) *Builder {
	if b.err != nil {
		return b
	}
	rendered := make([]renderer.Module, 0, len(names))
	for _, name := range names {
		r, err := b.render(name, parameters)
		if err != nil {
			log.WithError(err).Debug("while adding module", "module", name)
			b.err = err
			return b
		}
		rendered = append(rendered, r)
	}
	for _, r := range rendered {
		b.state.Tasks = append(b.state.Tasks, r.Tasks...)
		b.state.Handlers = append(b.state.Handlers, r.Handlers...)
		b.state.Vars = ansible.AddVars(r.Vars, b.state.Vars)
		log.Debug("added module", "module", r.Name, "tasks", len(r.Tasks), "handlers", len(r.Handlers))
	}
	return b
}

func (b *Builder) render(name string, parameters map[string]any) (r renderer.Module, err error) {
	m, err := b.lib.Get(name)
	if err != nil {
		return
	}
	err = b.lib.ValidateRequiredParameters(name, parameters)
	if err != nil {
		return
	}
	return renderer.RenderModule(m, parameters)
}

// AddTask appends a ready task as is, without rendering or validation.
func (b *Builder) AddTask(task ansible.Task) *Builder {
	b.state.Tasks = append(b.state.Tasks, task)
	return b
}

// AddHandler appends a ready handler as is, without rendering or validation.
func (b *Builder) AddHandler(handler ansible.Task) *Builder {
	b.state.Handlers = append(b.state.Handlers, handler)
	return b
}

func copyTasks(tasks []ansible.Task) []ansible.Task {
	out := make([]ansible.Task, len(tasks))
	for i, t := range tasks {
		out[i] = ansible.CopyMap(t)
	}
	return out
}

// Err returns the error of the first failed module add since the last Reset.
func (b *Builder) Err() error {
	return b.err
}

// State returns a deep copy of the accumulated state. Finalized plays are built from it
// and share nothing with the builder.
func (b *Builder) State() State {
	s := b.state
	s.Vars = append(ansible.Vars{}, ansible.CopyMap(b.state.Vars)...)
	s.Tasks = copyTasks(b.state.Tasks)
	s.Handlers = copyTasks(b.state.Handlers)
	return s
}

// Finalize validates the accumulated state and returns the play. It does not clear the
// state, calling it again without mutations gives the same play.
func (b *Builder) Finalize() (pb ansible.Playbook, err error) {
	if b.err != nil {
		err = b.err
		return
	}
	if b.state.Name == "" {
		err = fmt.Errorf("%w. Use SetName() to set it", ansible.ErrMissingName)
		return
	}
	if len(b.state.Tasks) == 0 {
		err = fmt.Errorf("%w. Use AddModule() or AddTask() to add tasks", ansible.ErrMissingTasks)
		return
	}
	s := b.State()
	pb = ansible.Playbook{
		Name:        s.Name,
		Hosts:       s.Hosts,
		GatherFacts: s.GatherFacts,
		Tasks:       s.Tasks,
	}
	if len(s.Vars) > 0 {
		pb.Vars = s.Vars
	}
	if len(s.Handlers) > 0 {
		pb.Handlers = s.Handlers
	}
	return
}

// Serialize finalizes and returns the playbook document.
func (b *Builder) Serialize() ([]byte, error) {
	pb, err := b.Finalize()
	if err != nil {
		return nil, err
	}
	return PlayToYaml(pb)
}

// WriteToFile serializes the playbook and writes it to path, replacing any existing file.
// With an empty path the file is named after the playbook inside the output directory,
// timestamped if asked. The absolute path written is returned.
func (b *Builder) WriteToFile(path string, timestamped bool) (written string, err error) {
	data, err := b.Serialize()
	if err != nil {
		return
	}
	if path == "" {
		filename := output.GenerateFilename(output.SanitizeFilename(b.state.Name), false, output.DefaultExtension)
		path, err = output.Path(filename, b.outputDir, timestamped)
		if err != nil {
			return
		}
	}
	written, err = output.Write(path, data)
	if err != nil {
		return
	}
	log.Info("wrote playbook", "path", written, "tasks", len(b.state.Tasks))
	return
}

func (b *Builder) ListModules() []string {
	return b.lib.List()
}

func (b *Builder) GetModuleInfo(name string) (ansible.Module, error) {
	return b.lib.Get(name)
}
