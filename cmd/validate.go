package cmd

import (
	"fmt"

	log "github.com/cantara/bragi/sbragi"
	"github.com/spf13/cobra"
)

func (a *app) validateCmd() *cobra.Command {
	var asJSON bool
	c := &cobra.Command{
		Use:   "validate",
		Short: "Load and validate every module definition in the library",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			lib, err := a.loadLibrary(cmd.Context())
			if err != nil {
				if asJSON {
					werr := writeJSON(out, map[string]any{"valid": false, "error": err.Error()})
					if werr != nil {
						log.WithError(werr).Error("while writing validation result")
					}
				}
				return err
			}
			if asJSON {
				return writeJSON(out, map[string]any{"valid": true, "modules": lib.List()})
			}
			fmt.Fprintf(out, "Library %s is valid: %d modules\n", lib.Dir(), len(lib.List()))
			return nil
		},
	}
	c.Flags().BoolVar(&asJSON, "json", false, "output JSON")
	return c
}
