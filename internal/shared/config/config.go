package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/lo"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

// Config holds the run-time options for one invocation. Immutable after Load.
type Config struct {
	Database string `koanf:"database"`
	To       string `koanf:"to"`
	OPML     string `koanf:"opml"`
	Verbose  int    `koanf:"verbose"`
	LogFile  string `koanf:"log_file"`
	Timeout  int    `koanf:"timeout"`
}

// Load assembles the configuration from, in increasing precedence:
// built-in defaults, an optional config file, FEEDMBOX_* environment
// variables, and command line flags. A positional argument names the
// OPML input file ("-" or none means stdin).
func Load(args []string) (*Config, error) {
	fs := pflag.NewFlagSet("feedmbox", pflag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.StringP("database", "d", "", "path to the seen-item database")
	fs.StringP("to", "t", "", "recipient for the To header")
	fs.CountP("verbose", "v", "verbose output on stderr (-vv for more)")
	fs.String("log_file", "", "append JSON diagnostics to this file")
	fs.Int("timeout", 0, "feed fetch timeout in seconds")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: feedmbox [-hv] [-d FILE] [-t RECIPIENT] [OPML-FILE]")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	k := koanf.New(".")

	configFiles := []string{
		"feedmbox.yaml",
		"feedmbox.yml",
		"feedmbox.json",
		"feedmbox.toml",
	}

	configFile, found := lo.Find(configFiles, func(name string) bool {
		_, err := os.Stat(name)
		return err == nil
	})

	if found {
		var parser koanf.Parser
		switch filepath.Ext(configFile) {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		case ".toml":
			parser = toml.Parser()
		}
		if err := k.Load(file.Provider(configFile), parser); err != nil {
			return nil, oops.With("config_file", configFile).Wrap(err)
		}
	}

	if err := k.Load(env.Provider("FEEDMBOX_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "FEEDMBOX_"))
	}), nil); err != nil {
		return nil, oops.With("context", "loading environment variables").Wrap(err)
	}

	if err := k.Load(posflag.Provider(fs, ".", k), nil); err != nil {
		return nil, oops.With("context", "loading flags").Wrap(err)
	}

	// Defaults
	if k.String("database") == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, oops.With("context", "resolving home directory").Wrap(err)
		}
		k.Set("database", filepath.Join(home, ".feedmbox"))
	}
	if k.String("to") == "" {
		k.Set("to", "nobody@example.com")
	}
	if k.Int("timeout") <= 0 {
		k.Set("timeout", 20)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.With("context", "unmarshaling config").Wrap(err)
	}

	cfg.Database = expandHome(cfg.Database)

	if fs.NArg() > 0 {
		cfg.OPML = fs.Arg(0)
	} else if cfg.OPML == "" {
		cfg.OPML = "-"
	}

	return &cfg, nil
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}
