package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/nao1215/toggledoc/internal/annotation"
	"github.com/nao1215/toggledoc/internal/config"
	"github.com/nao1215/toggledoc/internal/database"
	"github.com/nao1215/toggledoc/internal/pipeline"
	"github.com/nao1215/toggledoc/internal/report"
)

// NewRenderCmd creates the render command.
func NewRenderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render [path]",
		Short: "Render annotation documentation for a source tree",
		Long: `Render scans a source tree for annotations and writes one entry per
annotated entity.

Each entry links back to the line that declared it when the repository URL is
known. The URL and revision are read from the git checkout containing the
source tree unless --repo-url and --revision are given.

Examples:
  # Document feature toggles of the current directory
  toggledoc render

  # Document toggles and settings as Markdown
  toggledoc render -k featuretoggle,setting -f markdown -o docs/toggles.md

  # Use a custom grammar and skip vendored code
  toggledoc render -k ./grammars/waffle.yaml -e vendor/ ./src

  # Save a snapshot for 'toggledoc compare'
  toggledoc render --snapshot --revision v1.2.0`,
		Args: cobra.MaximumNArgs(1),
		RunE: runRenderCmd,
	}

	addScanFlags(cmd)

	cmd.Flags().StringP("format", "f", config.DefaultFormat,
		"Output format: text, json, markdown, html")
	cmd.Flags().StringP("output", "o", "",
		"Write the report to a file instead of stdout")
	cmd.Flags().String("repo-url", "",
		"Repository URL used for source links (default: detected from git)")
	cmd.Flags().String("revision", "",
		"Revision used for source links and snapshots (default: detected from git)")
	cmd.Flags().Bool("snapshot", false,
		"Save the assembled records to the snapshot database")
	cmd.Flags().String("db-dir", config.XDGDataDir(),
		"Snapshot database directory")

	return cmd
}

// runRenderCmd executes the render command.
func runRenderCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	logger := newLogger(cmd.ErrOrStderr(), cfg)

	grammars, err := resolveGrammars(cfg.Kinds)
	if err != nil {
		return err
	}
	links := resolveLinks(cfg, logger)

	var db *database.SnapshotDB
	if cfg.Snapshot {
		db, err = database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		logger.Debug("database opened", "path", db.Path())
	}

	ctx, cancel := signalContext()
	defer cancel()

	logger.Info("scanning",
		"source", cfg.Source,
		"kinds", cfg.Kinds,
		"revision", links.Revision,
	)

	results, err := scanKinds(ctx, cfg, grammars, logger, func(*annotation.Config) []pipeline.Step {
		if db == nil {
			return nil
		}
		return []pipeline.Step{pipeline.NewSnapshotStep(db, links.Revision, cfg.Source)}
	})
	if err != nil {
		return fmt.Errorf("scan interrupted: %w", err)
	}
	if err := scanFailure(results); err != nil {
		return err
	}

	out, closeOut, err := openOutput(cmd, cfg.Output)
	if err != nil {
		return err
	}

	w := newReportWriter(cfg, out)
	if _, err := w.Write(sections(grammars, results, links)...); err != nil {
		_ = closeOut()
		return fmt.Errorf("failed to write report: %w", err)
	}
	if err := closeOut(); err != nil {
		return fmt.Errorf("failed to close report: %w", err)
	}

	if cfg.Output != "" {
		logger.Info("report written", "path", cfg.Output, "format", cfg.Format)
	}
	return nil
}

// newReportWriter returns the writer for cfg.Format.
func newReportWriter(cfg *config.Config, out io.Writer) report.Writer {
	switch cfg.Format {
	case config.FormatJSON:
		return report.NewJSONWriter(out, report.WithPrettyPrint(), report.WithVersion(getVersion()))
	case config.FormatMarkdown:
		return report.NewMarkdownWriter(out, report.WithDiagnostics(cfg.Verbose))
	case config.FormatHTML:
		return report.NewHTMLWriter(out)
	default:
		return report.NewSimpleWriter(out, report.WithVerbose(cfg.Verbose))
	}
}
