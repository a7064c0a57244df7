package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func (a *app) listCmd() *cobra.Command {
	var asJSON bool
	c := &cobra.Command{
		Use:   "list",
		Short: "List available modules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, err := a.loadLibrary(cmd.Context())
			if err != nil {
				return err
			}
			infos := lib.Describe()
			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, infos)
			}
			if len(infos) == 0 {
				fmt.Fprintf(out, "No modules available in %s.\n", lib.Dir())
				return nil
			}
			fmt.Fprintln(out, "Available modules:")
			for _, info := range infos {
				fmt.Fprintf(out, "  %-20s %s\n", info.Name, info.Description)
			}
			return nil
		},
	}
	c.Flags().BoolVar(&asJSON, "json", false, "output JSON")
	return c
}

func (a *app) showCmd() *cobra.Command {
	var asJSON bool
	c := &cobra.Command{
		Use:   "show <module>",
		Short: "Show the prompts, tasks and handlers of a module",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, err := a.loadLibrary(cmd.Context())
			if err != nil {
				return err
			}
			m, err := lib.Get(args[0])
			if err != nil {
				return err
			}
			info := m.Info()
			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, info)
			}
			fmt.Fprintf(out, "%s: %s\n", info.Name, info.Description)
			if info.Source != "" {
				fmt.Fprintf(out, "Source: %s\n", info.Source)
			}
			if len(info.Prompts) > 0 {
				fmt.Fprintln(out, "\nPrompts:")
				for _, p := range info.Prompts {
					var flags []string
					flags = append(flags, string(p.Type))
					if p.Required {
						flags = append(flags, "required")
					}
					if p.Default != nil {
						flags = append(flags, fmt.Sprintf("default %v", p.Default))
					}
					fmt.Fprintf(out, "  %-20s %s (%s)\n", p.Name, p.Description, strings.Join(flags, ", "))
				}
			}
			fmt.Fprintln(out, "\nTasks:")
			for _, t := range info.Tasks {
				fmt.Fprintf(out, "  - %s\n", t)
			}
			if len(info.Handlers) > 0 {
				fmt.Fprintln(out, "\nHandlers:")
				for _, h := range info.Handlers {
					fmt.Fprintf(out, "  - %s\n", h)
				}
			}
			return nil
		},
	}
	c.Flags().BoolVar(&asJSON, "json", false, "output JSON")
	return c
}
