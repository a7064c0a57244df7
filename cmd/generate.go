package cmd

import (
	"fmt"
	"strconv"
	"strings"

	log "github.com/cantara/bragi/sbragi"
	"github.com/spf13/cobra"

	"github.com/cantara/playbookgen/ansible"
	"github.com/cantara/playbookgen/generators"
	"github.com/cantara/playbookgen/library"
	"github.com/cantara/playbookgen/params"
)

const defaultPlaybookName = "My Playbook"

type generateOptions struct {
	modules       []string
	name          string
	hosts         string
	paramsFile    string
	set           []string
	vars          []string
	interactive   bool
	output        string
	timestamp     bool
	noGatherFacts bool
	stdout        bool
}

func (a *app) generateCmd() *cobra.Command {
	var o generateOptions
	c := &cobra.Command{
		Use:   "generate",
		Short: "Render modules into a playbook",
		Long: `Render one or more modules into a single playbook.

Parameters are taken from --params-file, then --set, then interactively with -i.
All modules of one playbook share the same parameters.`,
		Example: `  playbook-gen generate -m webserver -n "Web Servers" --hosts webservers --set server_type=nginx
  playbook-gen generate -m webserver,firewall -f params.yml --timestamp
  playbook-gen generate -i`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.generate(cmd, o)
		},
	}
	f := c.Flags()
	f.StringSliceVarP(&o.modules, "modules", "m", nil, "modules to render, comma separated or repeated")
	f.StringVarP(&o.name, "name", "n", "", "playbook name (default \""+defaultPlaybookName+"\")")
	f.StringVar(&o.hosts, "hosts", "", "target host pattern (default \"all\")")
	f.StringVarP(&o.paramsFile, "params-file", "f", "", "YAML or JSON file with module parameters")
	f.StringArrayVar(&o.set, "set", nil, "module parameter as key=value, repeatable")
	f.StringArrayVar(&o.vars, "var", nil, "playbook variable as key=value, repeatable")
	f.BoolVarP(&o.interactive, "interactive", "i", false, "prompt for missing values")
	f.StringVarP(&o.output, "output", "o", "", "output file, named after the playbook in the output directory by default")
	f.BoolVar(&o.timestamp, "timestamp", false, "add a timestamp to the generated file name")
	f.BoolVar(&o.noGatherFacts, "no-gather-facts", false, "disable fact gathering")
	f.BoolVar(&o.stdout, "stdout", false, "print the playbook instead of writing a file")
	return c
}

func (a *app) generate(cmd *cobra.Command, o generateOptions) (err error) {
	lib, err := a.loadLibrary(cmd.Context())
	if err != nil {
		return
	}
	out := cmd.OutOrStdout()
	prompter := params.NewPrompter(a.in, out)

	if len(o.modules) == 0 {
		if !o.interactive {
			return fmt.Errorf("no modules selected, use --modules or --interactive. Available modules: %s", strings.Join(lib.List(), ", "))
		}
		o.modules, err = selectModules(prompter, lib)
		if err != nil {
			return
		}
	}

	var fileParams map[string]any
	if o.paramsFile != "" {
		fileParams, err = params.LoadFile(o.paramsFile)
		if err != nil {
			return
		}
	}
	setParams, err := params.ParseSet(o.set)
	if err != nil {
		return
	}
	parameters := params.Merge(fileParams, setParams)

	vars := ansible.Vars{}
	for _, kv := range o.vars {
		var v map[string]any
		v, err = params.ParseSet([]string{kv})
		if err != nil {
			return
		}
		for k, val := range v {
			vars = ansible.SetVar(vars, k, val)
		}
	}

	if o.interactive {
		if o.name == "" {
			o.name, err = prompter.Ask("Playbook name", defaultPlaybookName)
			if err != nil {
				return
			}
		}
		if o.hosts == "" {
			o.hosts, err = prompter.Ask("Target hosts", "all")
			if err != nil {
				return
			}
		}
		for _, name := range o.modules {
			var m ansible.Module
			m, err = lib.Get(name)
			if err != nil {
				return
			}
			var answers map[string]any
			answers, err = prompter.Collect(m, parameters)
			if err != nil {
				return
			}
			parameters = params.Merge(parameters, answers)
		}
	}
	if o.name == "" {
		o.name = defaultPlaybookName
	}

	b := generators.New(lib, a.cfg.OutputDir).
		SetName(o.name).
		SetGatherFacts(!o.noGatherFacts).
		AddVars(vars).
		AddModules(o.modules, parameters)
	if o.hosts != "" {
		b.SetHosts(o.hosts)
	}
	if err = b.Err(); err != nil {
		return
	}

	if o.stdout {
		var data []byte
		data, err = b.Serialize()
		if err != nil {
			return
		}
		_, err = out.Write(data)
		return
	}
	path, err := b.WriteToFile(o.output, o.timestamp)
	if err != nil {
		return
	}
	log.Debug("generated playbook", "modules", o.modules, "path", path)
	fmt.Fprintf(out, "Playbook generated: %s\n", path)
	return
}

// selectModules lists the library and reads a selection of numbers or names.
func selectModules(prompter *params.Prompter, lib *library.Library) ([]string, error) {
	names := lib.List()
	if len(names) == 0 {
		return nil, fmt.Errorf("no modules available in %s", lib.Dir())
	}
	infos := lib.Describe()
	var sb strings.Builder
	sb.WriteString("\nAvailable modules:\n")
	for i, info := range infos {
		fmt.Fprintf(&sb, "  %d. %-20s %s\n", i+1, info.Name, info.Description)
	}
	sb.WriteString("Select modules (numbers or names, comma separated)")
	answer, err := prompter.Ask(sb.String(), "")
	if err != nil {
		return nil, err
	}
	var selected []string
	for _, field := range strings.Split(answer, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		if i, err := strconv.Atoi(field); err == nil {
			if i < 1 || i > len(names) {
				return nil, fmt.Errorf("module number %d out of range 1-%d", i, len(names))
			}
			field = names[i-1]
		}
		selected = append(selected, field)
	}
	if len(selected) == 0 {
		return nil, fmt.Errorf("no modules selected")
	}
	return selected, nil
}
