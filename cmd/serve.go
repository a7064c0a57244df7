package cmd

import (
	log "github.com/cantara/bragi/sbragi"
	"github.com/spf13/cobra"

	"github.com/cantara/playbookgen/config"
	"github.com/cantara/playbookgen/library"
	"github.com/cantara/playbookgen/server"
)

func (a *app) serveCmd() *cobra.Command {
	var watch bool
	c := &cobra.Command{
		Use:   "serve",
		Short: "Serve the playbook API over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			lib, err := a.loadLibrary(ctx)
			if err != nil {
				return err
			}
			s := server.New(lib, server.Options{
				OutputDir: a.cfg.OutputDir,
				AuthKey:   a.cfg.AuthKey,
			})
			if watch {
				err = library.Watch(ctx, lib, s.Locker(), nil)
				if err != nil {
					return err
				}
				log.Info("watching module library", "dir", lib.Dir())
			}
			return s.Run(ctx, a.cfg.Addr)
		},
	}
	c.Flags().String("addr", config.DefaultAddr, "listen address")
	c.Flags().String("auth-key", "", "key required in the Authorization header of POST requests")
	c.Flags().BoolVar(&watch, "watch", false, "reload the library when definition files change")
	a.bind(c, "addr", "addr")
	a.bind(c, "auth_key", "auth-key")
	return c
}
