package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nao1215/toggledoc/internal/annotation"
	"github.com/nao1215/toggledoc/internal/pipeline"
)

// NewCheckCmd creates the check command.
func NewCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [path]",
		Short: "Validate annotations without rendering",
		Long: `Check scans a source tree and reports annotation problems such as
attributes without a preceding name, duplicate names, missing required
attributes and values outside the allowed choices.

The command exits with a non-zero status when any error is found, or when any
warning is found in strict mode. It is meant to run in CI.

Examples:
  # Check feature toggles in the current directory
  toggledoc check

  # Treat warnings as failures
  toggledoc check --strict ./src`,
		Args: cobra.MaximumNArgs(1),
		RunE: runCheckCmd,
	}

	addScanFlags(cmd)

	cmd.Flags().Bool("strict", false,
		"Fail on warnings as well as errors")

	return cmd
}

// runCheckCmd executes the check command.
func runCheckCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	logger := newLogger(cmd.ErrOrStderr(), cfg)

	grammars, err := resolveGrammars(cfg.Kinds)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	results, err := scanKinds(ctx, cfg, grammars, logger, func(*annotation.Config) []pipeline.Step {
		return []pipeline.Step{pipeline.NewCheckStep(cfg.Strict)}
	})
	if err != nil {
		return fmt.Errorf("scan interrupted: %w", err)
	}
	if err := scanFailure(results); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	var failed []error
	for _, r := range results {
		for _, d := range r.Diagnostics {
			fmt.Fprintf(out, "%s: %s\n", d.Severity, d.Error())
		}
		fmt.Fprintf(out, "%s: %d record(s), %d error(s), %d warning(s)\n",
			r.Kind, len(r.Records), r.ErrorCount(), r.WarningCount())

		if errors.Is(r.Err, pipeline.ErrDiagnostics) {
			failed = append(failed, r.Err)
		}
	}

	return errors.Join(failed...)
}
