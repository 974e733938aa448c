package config

import (
	"path/filepath"
	"slices"

	"github.com/adrg/xdg"

	"github.com/nao1215/toggledoc/internal/pipeline"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "toggledoc"

	// DefaultSource is the tree scanned when no path is given.
	DefaultSource = "."

	// DefaultKind is the annotation kind rendered when none is configured.
	DefaultKind = "featuretoggle"

	// DefaultFormat is the output format for render.
	DefaultFormat = FormatText
)

// Output formats accepted by render.
const (
	FormatText     = "text"
	FormatJSON     = "json"
	FormatMarkdown = "markdown"
	FormatHTML     = "html"
)

// Formats lists the supported output formats.
var Formats = []string{FormatText, FormatJSON, FormatMarkdown, FormatHTML}

// Config holds the host configuration of a toggledoc run.
// It is populated by Load from defaults, the config file, TOGGLEDOC_*
// environment variables and command line flags, in increasing precedence.
type Config struct {
	// Source is the root of the tree to scan.
	Source string `mapstructure:"source" yaml:"source"`

	// RepoURL is the browsable repository URL used for source links.
	// Detected from the origin remote when empty.
	RepoURL string `mapstructure:"repo_url" yaml:"repo_url,omitempty"`

	// Revision is the commit or branch source links point at.
	// Detected from HEAD when empty.
	Revision string `mapstructure:"revision" yaml:"revision,omitempty"`

	// Kinds are built-in annotation kinds or paths to grammar YAML files.
	Kinds []string `mapstructure:"kinds" yaml:"kinds"`

	// Exclude holds gitignore-style patterns skipped by the scanner.
	Exclude []string `mapstructure:"exclude" yaml:"exclude,omitempty"`

	// Gitignore makes the scanner honor .gitignore files in the tree.
	Gitignore bool `mapstructure:"gitignore" yaml:"gitignore"`

	// Hidden includes dot files and directories.
	Hidden bool `mapstructure:"hidden" yaml:"hidden"`

	// Format is one of Formats.
	Format string `mapstructure:"format" yaml:"format"`

	// Output is the report file. Empty means stdout.
	Output string `mapstructure:"output" yaml:"output,omitempty"`

	// Concurrency is the number of kinds scanned at once.
	Concurrency int `mapstructure:"concurrency" yaml:"concurrency"`

	// Strict makes check fail on warnings too.
	Strict bool `mapstructure:"strict" yaml:"strict"`

	// Snapshot saves the assembled records to the database after render.
	Snapshot bool `mapstructure:"snapshot" yaml:"snapshot"`

	// DBDir is the directory of the snapshot database.
	// Defaults to the XDG data directory (~/.local/share/toggledoc on Linux).
	DBDir string `mapstructure:"db_dir" yaml:"db_dir,omitempty"`

	// Verbose enables debug logging.
	Verbose bool `mapstructure:"verbose" yaml:"verbose"`

	// LogJSON switches log output to JSON lines.
	LogJSON bool `mapstructure:"log_json" yaml:"log_json"`

	// ConfigFilePath is the file the configuration was read from, if any.
	ConfigFilePath string `mapstructure:"-" yaml:"-"`
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		Source:      DefaultSource,
		Kinds:       []string{DefaultKind},
		Gitignore:   true,
		Format:      DefaultFormat,
		Concurrency: pipeline.DefaultConcurrency,
		DBDir:       XDGDataDir(),
	}
}

// XDGDataDir returns the XDG data directory for toggledoc.
// On Linux: ~/.local/share/toggledoc
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for toggledoc.
// On Linux: ~/.config/toggledoc
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns the first problem found.
func (c *Config) Validate() error {
	if c.Source == "" {
		return ErrNoSource
	}

	if len(c.Kinds) == 0 {
		return ErrNoKinds
	}

	if !slices.Contains(Formats, c.Format) {
		return ErrInvalidFormat
	}

	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}

	if c.Snapshot && c.DBDir == "" {
		return ErrNoDBDir
	}

	return nil
}
