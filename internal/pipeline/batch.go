package pipeline

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/toggledoc/internal/annotation"
	"github.com/nao1215/toggledoc/internal/model"
)

// DefaultConcurrency is the number of annotation kinds processed at once.
const DefaultConcurrency = 4

// Factory builds a fresh pipeline for one grammar.
// Pipelines are never shared between kinds, so each run owns its scanner,
// assembler and result.
type Factory func(grammar *annotation.Config) *Pipeline

// BatchProcessor runs independent annotation kinds concurrently.
type BatchProcessor struct {
	factory     Factory
	concurrency int
	logger      *slog.Logger
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of kinds processed at once.
// Non-positive values keep the default.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchProcessor creates a new BatchProcessor.
func NewBatchProcessor(factory Factory, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		factory:     factory,
		concurrency: DefaultConcurrency,
	}

	for _, opt := range opts {
		opt(bp)
	}

	if bp.logger == nil {
		bp.logger = slog.Default()
	}

	return bp
}

// ProcessBatch runs one pipeline per grammar and returns the results in the
// order of grammars. A failed kind does not stop the others; its error is
// recorded on its result. The returned error is only set when ctx ends the
// batch early, in which case unstarted kinds have nil results.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, grammars []*annotation.Config) ([]*model.Result, error) {
	results := make([]*model.Result, len(grammars))
	err := bp.ProcessBatchWithCallback(ctx, grammars, func(result *model.Result, index int) {
		results[index] = result
	})
	return results, err
}

// ProcessBatchWithCallback runs one pipeline per grammar and calls callback
// as each kind completes. The callback runs on the worker goroutine and must
// be safe for concurrent use; index is the position of the grammar.
func (bp *BatchProcessor) ProcessBatchWithCallback(
	ctx context.Context,
	grammars []*annotation.Config,
	callback func(result *model.Result, index int),
) error {
	bp.logger.Debug("starting batch",
		"kinds", len(grammars),
		"concurrency", bp.concurrency,
	)
	startTime := time.Now()

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, grammar := range grammars {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			result := model.NewResult(grammar.Kind())
			if err := bp.factory(grammar).Execute(ctx, result); err != nil {
				bp.logger.Warn("kind failed",
					"kind", grammar.Kind(),
					"error", err,
				)
			}

			callback(result, i)
			return nil
		})
	}

	err := g.Wait()

	bp.logger.Debug("batch complete",
		"kinds", len(grammars),
		"elapsed", time.Since(startTime),
	)

	return err
}
