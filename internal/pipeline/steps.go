package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-git/go-billy/v5"

	"github.com/nao1215/toggledoc/internal/annotation"
	"github.com/nao1215/toggledoc/internal/assembler"
	"github.com/nao1215/toggledoc/internal/model"
	"github.com/nao1215/toggledoc/internal/scanner"
)

// ErrDiagnostics is returned by CheckStep when a result has diagnostics
// that fail the check.
var ErrDiagnostics = errors.New("annotation check failed")

// AssembleStep scans a tree and assembles its records into the result.
type AssembleStep struct {
	fs       billy.Filesystem
	root     string
	grammar  *annotation.Config
	scanOpts []scanner.Option
	logger   *slog.Logger
}

// AssembleStepOption configures an AssembleStep.
type AssembleStepOption func(*AssembleStep)

// WithScannerOptions passes options to the scanner.
func WithScannerOptions(opts ...scanner.Option) AssembleStepOption {
	return func(s *AssembleStep) {
		s.scanOpts = append(s.scanOpts, opts...)
	}
}

// WithAssembleLogger sets a custom logger for the scanner and the assembler.
func WithAssembleLogger(logger *slog.Logger) AssembleStepOption {
	return func(s *AssembleStep) {
		s.logger = logger
	}
}

// NewAssembleStep creates a step that scans fs with grammar.
// root is the display name of the scanned tree.
func NewAssembleStep(fs billy.Filesystem, root string, grammar *annotation.Config, opts ...AssembleStepOption) *AssembleStep {
	s := &AssembleStep{
		fs:      fs,
		root:    root,
		grammar: grammar,
		logger:  slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *AssembleStep) Name() string {
	return "assemble"
}

// Do scans the tree and merges the assembled records into result.
// A cancelled context stops the walk between annotations.
func (s *AssembleStep) Do(ctx context.Context, result *model.Result) error {
	opts := append([]scanner.Option{scanner.WithLogger(s.logger)}, s.scanOpts...)
	walk := scanner.New(s.fs, s.grammar, opts...).Walk()

	seq := func(yield func(model.RawAnnotation, error) bool) {
		for a, err := range walk {
			if ctxErr := ctx.Err(); ctxErr != nil {
				yield(model.RawAnnotation{}, ctxErr)
				return
			}
			if !yield(a, err) {
				return
			}
		}
	}

	assembled, err := assembler.New(s.grammar, assembler.WithLogger(s.logger)).Assemble(seq)
	if err != nil {
		return fmt.Errorf("failed to scan %s: %w", s.root, err)
	}

	result.Root = s.root
	result.Records = assembled.Records
	result.Diagnostics = append(result.Diagnostics, assembled.Diagnostics...)
	result.AnnotationsFound += assembled.AnnotationsFound

	s.logger.Info("assembled records",
		"kind", result.Kind,
		"records", len(result.Records),
		"annotations", result.AnnotationsFound,
		"diagnostics", len(result.Diagnostics),
	)
	return nil
}

// SnapshotStore persists results. *database.SnapshotDB implements it.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, revision, source string, result *model.Result) (int64, error)
}

// SnapshotStep saves the assembled records for later comparison.
type SnapshotStep struct {
	store    SnapshotStore
	revision string
	source   string
}

// NewSnapshotStep creates a step that saves results under revision.
func NewSnapshotStep(store SnapshotStore, revision, source string) *SnapshotStep {
	return &SnapshotStep{
		store:    store,
		revision: revision,
		source:   source,
	}
}

// Name returns the step name.
func (s *SnapshotStep) Name() string {
	return "snapshot"
}

// Do saves the result.
func (s *SnapshotStep) Do(ctx context.Context, result *model.Result) error {
	if _, err := s.store.SaveSnapshot(ctx, s.revision, s.source, result); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

// CheckStep fails when the result has error diagnostics, or any
// diagnostic at all in strict mode.
type CheckStep struct {
	strict bool
}

// NewCheckStep creates a check step.
func NewCheckStep(strict bool) *CheckStep {
	return &CheckStep{strict: strict}
}

// Name returns the step name.
func (s *CheckStep) Name() string {
	return "check"
}

// Do checks the diagnostics of result.
func (s *CheckStep) Do(_ context.Context, result *model.Result) error {
	errCount := result.ErrorCount()
	warnCount := result.WarningCount()

	switch {
	case errCount > 0:
		return fmt.Errorf("%w: %s has %d error(s) and %d warning(s)", ErrDiagnostics, result.Kind, errCount, warnCount)
	case s.strict && warnCount > 0:
		return fmt.Errorf("%w: %s has %d warning(s) (strict)", ErrDiagnostics, result.Kind, warnCount)
	default:
		return nil
	}
}
