package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the configuration file name searched for in the
// current and home directories.
const DefaultConfigFile = ".toggledoc.yaml"

// EnvPrefix prefixes environment variables, e.g. TOGGLEDOC_REPO_URL.
const EnvPrefix = "TOGGLEDOC"

// keys are the configuration keys; flags are bound by the same name with
// "-" in place of "_".
var keys = []string{
	"source", "repo_url", "revision", "kinds", "exclude", "gitignore",
	"hidden", "format", "output", "concurrency", "strict", "snapshot",
	"db_dir", "verbose", "log_json",
}

// Load builds the configuration from defaults, the config file found by
// FindConfigFile(configPath), the environment and the changed flags of fs.
// fs may be nil.
func Load(configPath string, fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	defaults := NewConfig()
	v.SetDefault("source", defaults.Source)
	v.SetDefault("repo_url", defaults.RepoURL)
	v.SetDefault("revision", defaults.Revision)
	v.SetDefault("kinds", defaults.Kinds)
	v.SetDefault("exclude", []string{})
	v.SetDefault("gitignore", defaults.Gitignore)
	v.SetDefault("hidden", defaults.Hidden)
	v.SetDefault("format", defaults.Format)
	v.SetDefault("output", defaults.Output)
	v.SetDefault("concurrency", defaults.Concurrency)
	v.SetDefault("strict", defaults.Strict)
	v.SetDefault("snapshot", defaults.Snapshot)
	v.SetDefault("db_dir", defaults.DBDir)
	v.SetDefault("verbose", defaults.Verbose)
	v.SetDefault("log_json", defaults.LogJSON)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if fs != nil {
		for _, key := range keys {
			if f := fs.Lookup(strings.ReplaceAll(key, "_", "-")); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("failed to bind flag %s: %w", f.Name, err)
				}
			}
		}
	}

	path := FindConfigFile(configPath)
	if configPath != "" && path == "" {
		return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
	}
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}
	cfg.ConfigFilePath = path

	return cfg, nil
}

// FindConfigFile searches for the configuration file in the following order:
//  1. configPath, if specified
//  2. .toggledoc.yaml in the current directory
//  3. config.yaml in the XDG config directory
//  4. .toggledoc.yaml in the user's home directory
//
// Returns the path to the configuration file if found, or empty string if not found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	var candidates []string
	if cwd, err := os.Getwd(); err == nil {
		candidates = append(candidates, filepath.Join(cwd, DefaultConfigFile))
	}
	candidates = append(candidates, filepath.Join(XDGConfigDir(), "config.yaml"))
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, DefaultConfigFile))
	}

	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c
		}
	}
	return ""
}

// WriteFile writes c as YAML to path. Existing files are only replaced
// when overwrite is set.
func (c *Config) WriteFile(path string, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s: %w", path, os.ErrExist)
		} else if !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode configuration: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return os.WriteFile(path, data, 0o600)
}
