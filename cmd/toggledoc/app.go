package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/spf13/cobra"

	"github.com/nao1215/toggledoc/internal/annotation"
	"github.com/nao1215/toggledoc/internal/config"
	"github.com/nao1215/toggledoc/internal/log"
	"github.com/nao1215/toggledoc/internal/model"
	"github.com/nao1215/toggledoc/internal/pipeline"
	"github.com/nao1215/toggledoc/internal/report"
	"github.com/nao1215/toggledoc/internal/repo"
	"github.com/nao1215/toggledoc/internal/scanner"
)

// addScanFlags registers the flags shared by commands that scan a tree.
// Flag names match the configuration keys so they override the config file.
func addScanFlags(cmd *cobra.Command) {
	cmd.Flags().StringSliceP("kinds", "k", []string{config.DefaultKind},
		"Annotation kinds to scan: built-in kinds ("+strings.Join(annotation.BuiltinKinds(), ", ")+") or grammar YAML files")
	cmd.Flags().StringSliceP("exclude", "e", nil,
		"Gitignore-style patterns to skip (repeatable)")
	cmd.Flags().Bool("gitignore", true,
		"Honor .gitignore files in the scanned tree")
	cmd.Flags().Bool("hidden", false,
		"Scan hidden files and directories")
	cmd.Flags().Int("concurrency", pipeline.DefaultConcurrency,
		"Number of annotation kinds scanned at once")
}

// loadConfig builds the configuration for cmd. The first positional
// argument, if any, overrides the source path.
func loadConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(configPath, cmd.Flags())
	if err != nil {
		return nil, err
	}

	if len(args) > 0 {
		cfg.Source = args[0]
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}

	return cfg, nil
}

// newLogger creates the secure logger configured by cfg and installs it as
// the default logger.
func newLogger(w io.Writer, cfg *config.Config) *slog.Logger {
	var logger *slog.Logger
	if cfg.LogJSON {
		logger = log.NewSecureJSONLogger(w, cfg.Verbose)
	} else {
		logger = log.NewSecureLogger(w, cfg.Verbose)
	}
	slog.SetDefault(logger)
	return logger
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// resolveGrammars loads the grammar of every configured kind.
func resolveGrammars(kinds []string) ([]*annotation.Config, error) {
	grammars := make([]*annotation.Config, 0, len(kinds))
	seen := make(map[string]bool, len(kinds))
	for _, ref := range kinds {
		g, err := annotation.Resolve(ref)
		if err != nil {
			return nil, err
		}
		if seen[g.Kind()] {
			continue
		}
		seen[g.Kind()] = true
		grammars = append(grammars, g)
	}
	return grammars, nil
}

// resolveLinks fills the repository URL and revision missing from cfg by
// inspecting the checkout that contains the source tree.
func resolveLinks(cfg *config.Config, logger *slog.Logger) report.Linker {
	links := report.Linker{RepoURL: cfg.RepoURL, Revision: cfg.Revision}
	if links.RepoURL != "" && links.Revision != "" {
		return links
	}

	info, err := repo.Detect(cfg.Source)
	if err != nil {
		logger.Debug("repository not detected", "source", cfg.Source, "error", err)
	} else {
		logger.Debug("repository detected", "url", info.URL, "revision", info.Revision, "branch", info.Branch)
	}

	if links.RepoURL == "" {
		links.RepoURL = info.URL
	}
	if links.Revision == "" {
		links.Revision = info.Revision
	}
	return links
}

// scanKinds scans cfg.Source once per grammar. extra returns steps appended
// after the assemble step of each kind.
func scanKinds(
	ctx context.Context,
	cfg *config.Config,
	grammars []*annotation.Config,
	logger *slog.Logger,
	extra func(grammar *annotation.Config) []pipeline.Step,
) ([]*model.Result, error) {
	root, err := filepath.Abs(cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("invalid source %s: %w", cfg.Source, err)
	}
	fs := osfs.New(root)

	factory := func(grammar *annotation.Config) *pipeline.Pipeline {
		p := pipeline.New(pipeline.WithLogger(logger))
		p.AddStep(pipeline.NewAssembleStep(fs, cfg.Source, grammar,
			pipeline.WithAssembleLogger(logger),
			pipeline.WithScannerOptions(
				scanner.WithExclude(cfg.Exclude...),
				scanner.WithGitignore(cfg.Gitignore),
				scanner.WithHidden(cfg.Hidden),
			),
		))
		if extra != nil {
			p.AddSteps(extra(grammar)...)
		}
		return p
	}

	bp := pipeline.NewBatchProcessor(factory,
		pipeline.WithConcurrency(cfg.Concurrency),
		pipeline.WithBatchLogger(logger),
	)
	return bp.ProcessBatch(ctx, grammars)
}

// sections pairs results with their grammars for the report writers.
func sections(grammars []*annotation.Config, results []*model.Result, links report.Linker) []report.Section {
	out := make([]report.Section, 0, len(results))
	for i, r := range results {
		if r == nil {
			continue
		}
		out = append(out, report.Section{Grammar: grammars[i], Result: r, Links: links})
	}
	return out
}

// scanFailure returns the first fatal scan error among results.
// Errors wrapping pipeline.ErrDiagnostics are not fatal.
func scanFailure(results []*model.Result) error {
	for _, r := range results {
		if r != nil && r.Err != nil && !errors.Is(r.Err, pipeline.ErrDiagnostics) {
			return fmt.Errorf("%s: %w", r.Kind, r.Err)
		}
	}
	return nil
}

// openOutput returns the report destination: path, or stdout when empty.
// The returned close function is always non-nil.
func openOutput(cmd *cobra.Command, path string) (io.Writer, func() error, error) {
	if path == "" {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}

	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644) //nolint:gosec // report files are meant to be shared
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, f.Close, nil
}
