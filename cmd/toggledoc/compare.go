package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/nao1215/toggledoc/internal/config"
	"github.com/nao1215/toggledoc/internal/database"
	"github.com/nao1215/toggledoc/internal/report"
)

// NewCompareCmd creates the compare command.
// This command compares records saved by 'render --snapshot' at two revisions.
func NewCompareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare <from-revision> <to-revision>",
		Short: "Compare annotation snapshots of two revisions",
		Long: `Compare shows which entities were added, removed, changed or moved
between two revisions saved with 'toggledoc render --snapshot'.

Examples:
  # Compare feature toggles between two releases
  toggledoc compare v1.0.0 v1.1.0

  # Compare settings as JSON
  toggledoc compare -k setting --format json v1.0.0 v1.1.0

  # List saved snapshots
  toggledoc compare --list`,
		Args: func(cmd *cobra.Command, args []string) error {
			if list, _ := cmd.Flags().GetBool("list"); list {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.ExactArgs(2)(cmd, args)
		},
		RunE: runCompareCmd,
	}

	cmd.Flags().StringSliceP("kinds", "k", []string{config.DefaultKind},
		"Annotation kinds to compare: built-in kinds or grammar YAML files")
	cmd.Flags().StringP("format", "f", config.FormatText,
		"Output format: text, json")
	cmd.Flags().String("db-dir", config.XDGDataDir(),
		"Snapshot database directory")
	cmd.Flags().BoolP("list", "l", false,
		"List saved snapshots")

	return cmd
}

// runCompareCmd executes the compare command.
func runCompareCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, nil)
	if err != nil {
		return err
	}
	newLogger(cmd.ErrOrStderr(), cfg)

	db, err := database.Open(cfg.DBDir, database.Options{EnableWAL: true})
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := context.Background()
	out := cmd.OutOrStdout()

	if list, _ := cmd.Flags().GetBool("list"); list {
		return listSnapshots(ctx, out, db)
	}

	// The configured report format does not apply to diffs.
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return err
	}
	w, err := newDiffWriter(format, out)
	if err != nil {
		return err
	}

	grammars, err := resolveGrammars(cfg.Kinds)
	if err != nil {
		return err
	}

	from, to := args[0], args[1]
	for _, g := range grammars {
		kind := g.Kind()
		before, err := loadSnapshot(ctx, db, kind, from)
		if err != nil {
			return err
		}
		after, err := loadSnapshot(ctx, db, kind, to)
		if err != nil {
			return err
		}

		if _, err := w.WriteDiff(kind, from, to, database.Compare(before.Records, after.Records)); err != nil {
			return fmt.Errorf("failed to write diff: %w", err)
		}
	}
	return nil
}

// errSnapshotNotFound is returned when no snapshot exists for a kind and revision.
var errSnapshotNotFound = errors.New("snapshot not found")

func loadSnapshot(ctx context.Context, db *database.SnapshotDB, kind, revision string) (*database.Snapshot, error) {
	snap, err := db.GetSnapshot(ctx, kind, revision)
	if err != nil {
		return nil, err
	}
	if snap == nil {
		return nil, fmt.Errorf("%w: %s at %s (use --list to see saved snapshots)", errSnapshotNotFound, kind, revision)
	}
	return snap, nil
}

// listSnapshots prints every saved snapshot grouped by kind.
func listSnapshots(ctx context.Context, out io.Writer, db *database.SnapshotDB) error {
	kinds, err := db.ListKinds(ctx)
	if err != nil {
		return err
	}
	if len(kinds) == 0 {
		fmt.Fprintln(out, "No snapshots saved (run 'toggledoc render --snapshot' first)")
		return nil
	}

	for _, kind := range kinds {
		snapshots, err := db.ListSnapshots(ctx, kind)
		if err != nil {
			return err
		}

		fmt.Fprintf(out, "%s:\n", kind)
		for _, s := range snapshots {
			fmt.Fprintf(out, "  %-20s %s  %d record(s), %d error(s)  %s\n",
				s.Revision,
				s.Timestamp.Local().Format("2006-01-02 15:04"),
				s.RecordCount,
				s.ErrorCount,
				s.Source,
			)
		}
	}
	return nil
}

// diffWriter is implemented by the writers that can render a snapshot diff.
type diffWriter interface {
	WriteDiff(kind, from, to string, diff *database.Diff) (int, error)
}

// newDiffWriter returns the diff writer for format.
func newDiffWriter(format string, out io.Writer) (diffWriter, error) {
	switch format {
	case config.FormatText:
		return report.NewSimpleWriter(out), nil
	case config.FormatJSON:
		return report.NewJSONWriter(out, report.WithPrettyPrint(), report.WithVersion(getVersion())), nil
	default:
		return nil, errors.New("compare supports only text and json output")
	}
}
