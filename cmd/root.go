package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	log "github.com/cantara/bragi/sbragi"
	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"

	"github.com/cantara/playbookgen/config"
	"github.com/cantara/playbookgen/library"
	"github.com/cantara/playbookgen/output"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// app carries what the commands share: resolved config and the input used for prompting.
type app struct {
	cfgFile string
	loader  *config.Loader
	cfg     config.Config
	in      io.Reader
}

func newRootCmd(in io.Reader) *cobra.Command {
	a := &app{
		loader: config.NewLoader(),
		in:     in,
	}
	root := &cobra.Command{
		Use:           "playbook-gen",
		Short:         "Generate Ansible playbooks from a library of parameterized modules",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) (err error) {
			err = config.LoadDotEnv()
			if err != nil {
				return
			}
			a.cfg, err = a.loader.Load(a.cfgFile)
			if err != nil {
				return
			}
			if a.cfg.Debug {
				dl, _ := log.NewDebugLogger()
				dl.SetDefault()
			}
			log.Debug("resolved config", "library", a.cfg.Library, "library_git", a.cfg.LibraryGit, "output_dir", a.cfg.OutputDir)
			return
		},
	}
	f := root.PersistentFlags()
	f.StringVar(&a.cfgFile, "config", "", "config file (default ./playbookgen.yaml)")
	f.String("library", config.DefaultLib, "module library directory")
	f.String("library-git", "", "git repository to fetch the module library from")
	f.String("library-ref", config.DefaultRef, "branch of the library repository")
	f.String("output-dir", output.DefaultDir, "directory generated playbooks are written to")
	f.Bool("debug", false, "enable debug logging")
	a.bind(root, "library", "library")
	a.bind(root, "library_git", "library-git")
	a.bind(root, "library_ref", "library-ref")
	a.bind(root, "output_dir", "output-dir")
	a.bind(root, "debug", "debug")

	root.AddCommand(
		a.listCmd(),
		a.showCmd(),
		a.generateCmd(),
		a.validateCmd(),
		a.serveCmd(),
	)
	return root
}

// bind makes the flag override the config key when set on the command line.
func (a *app) bind(c *cobra.Command, key, flag string) {
	fl := c.PersistentFlags().Lookup(flag)
	if fl == nil {
		fl = c.Flags().Lookup(flag)
	}
	err := a.loader.Viper().BindPFlag(key, fl)
	if err != nil {
		log.WithError(err).Fatal("while binding flag", "flag", flag)
	}
}

// loadLibrary loads the configured module library, fetching it first when it lives in git.
func (a *app) loadLibrary(ctx context.Context) (*library.Library, error) {
	dir := a.cfg.Library
	if a.cfg.LibraryGit != "" {
		fetched, err := library.FetchGit(ctx, a.cfg.LibraryGit, a.cfg.LibraryRef, a.cfg.CacheDir)
		if err != nil {
			return nil, err
		}
		dir = fetched
	}
	return library.Load(dir)
}

func writeJSON(w io.Writer, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}

// Execute runs the command line and exits non-zero on failure.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	err := newRootCmd(os.Stdin).ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}
