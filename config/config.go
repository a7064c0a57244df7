package config

import (
	"errors"
	"fmt"
	"io/fs"

	log "github.com/cantara/bragi/sbragi"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/cantara/playbookgen/output"
)

const (
	EnvPrefix   = "PLAYBOOKGEN"
	FileName    = "playbookgen"
	DefaultLib  = "modules"
	DefaultAddr = ":8080"
	DefaultRef  = "main"
)

// Config holds the settings shared by every command.
type Config struct {
	Library    string `mapstructure:"library"`
	LibraryGit string `mapstructure:"library_git"`
	LibraryRef string `mapstructure:"library_ref"`
	CacheDir   string `mapstructure:"cache_dir"`
	OutputDir  string `mapstructure:"output_dir"`
	Addr       string `mapstructure:"addr"`
	AuthKey    string `mapstructure:"auth_key"`
	Debug      bool   `mapstructure:"debug"`
}

// Loader resolves a Config from defaults, an optional config file, PLAYBOOKGEN_ environment
// variables and any flags bound on Viper, the later source winning.
type Loader struct {
	v *viper.Viper
}

func NewLoader() *Loader {
	v := viper.New()
	v.SetDefault("library", DefaultLib)
	v.SetDefault("library_git", "")
	v.SetDefault("library_ref", DefaultRef)
	v.SetDefault("cache_dir", ".playbookgen/cache")
	v.SetDefault("output_dir", output.DefaultDir)
	v.SetDefault("addr", DefaultAddr)
	v.SetDefault("auth_key", "")
	v.SetDefault("debug", false)

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	return &Loader{v: v}
}

// Viper exposes the underlying instance so commands can bind their flags.
func (l *Loader) Viper() *viper.Viper {
	return l.v
}

// Load reads cfgFile, or playbookgen.yaml from the working directory when cfgFile is empty.
// A missing default config file is not an error, a missing explicit one is.
func (l *Loader) Load(cfgFile string) (cfg Config, err error) {
	if cfgFile != "" {
		l.v.SetConfigFile(cfgFile)
	} else {
		l.v.SetConfigName(FileName)
		l.v.SetConfigType("yaml")
		l.v.AddConfigPath(".")
	}
	err = l.v.ReadInConfig()
	if err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			err = fmt.Errorf("error reading config file: %w", err)
			return
		}
		log.Trace("no config file found, using defaults and environment")
	}
	err = l.v.Unmarshal(&cfg)
	if err != nil {
		err = fmt.Errorf("failed to unmarshal config: %w", err)
		return
	}
	return
}

// LoadDotEnv loads the given .env files, ".env" when none are given, into the process
// environment without overriding variables already set. Missing files are skipped.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		err := godotenv.Load(f)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("while loading %s: %w", f, err)
		}
		log.Debug("loaded environment file", "file", f)
	}
	return nil
}
