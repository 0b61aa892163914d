package pipeline

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/wantedanchors/internal/model"
)

// BatchProcessor runs the pipeline over several namespaces concurrently.
// Each namespace gets a fresh pipeline from the factory, which receives
// the namespace so that namespace-bound renderers can be built per run.
type BatchProcessor struct {
	pipelineFactory func(namespace int) *Pipeline
	concurrency     int
	logger          *slog.Logger
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithBatchConcurrency sets how many namespaces run at once.
// Default is 2.
func WithBatchConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchProcessor creates a new BatchProcessor.
func NewBatchProcessor(pipelineFactory func(namespace int) *Pipeline, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		pipelineFactory: pipelineFactory,
		concurrency:     2,
	}

	for _, opt := range opts {
		opt(bp)
	}

	if bp.logger == nil {
		bp.logger = slog.Default()
	}

	return bp
}

// ProcessBatch runs every namespace and returns the runs in the order of
// namespaces. The first failing namespace cancels the others and its error
// is returned.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, namespaces []int) ([]*model.Run, error) {
	bp.logger.Info("starting batch processing",
		"namespaces", len(namespaces),
		"concurrency", bp.concurrency,
	)

	startTime := time.Now()

	// Each goroutine writes its own index.
	runs := make([]*model.Run, len(namespaces))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, ns := range namespaces {
		g.Go(func() error {
			run, err := Run(ctx, bp.pipelineFactory(ns), ns)
			if err != nil {
				bp.logger.Warn("namespace failed",
					"namespace", ns,
					"error", err,
				)
				return err
			}
			runs[i] = run
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	bp.logger.Info("batch processing complete",
		"namespaces", len(namespaces),
		"elapsed", time.Since(startTime),
	)

	return runs, nil
}
