package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// SourceSpec identifies one source for batch processing.
type SourceSpec struct {
	// ID is the source id, e.g. "hifca".
	ID string

	// URL is the source page, empty when the source has none.
	URL string
}

// BatchProcessor runs extractions for multiple sources concurrently.
//
// Design decision: We use a separate BatchProcessor rather than adding
// batch functionality to Pipeline because:
// 1. It keeps the Pipeline focused on single-run execution
// 2. It allows different batch strategies (e.g., rate limiting, retries)
// 3. It provides cleaner separation of concerns
type BatchProcessor struct {
	// pipelineFactory creates a new pipeline per source. The factory
	// receives the spec so each source gets its own step set; a source
	// without a page skips the layout steps entirely.
	pipelineFactory func(SourceSpec) *Pipeline

	// concurrency is the maximum number of concurrent runs.
	concurrency int

	logger *slog.Logger

	// results stores completed runs; access is synchronized via mutex.
	results []*Run
	mu      sync.Mutex
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of concurrent runs.
// Default is 4 if not specified.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchProcessor creates a BatchProcessor. The factory is called once
// per source so pipeline state never leaks between runs.
func NewBatchProcessor(pipelineFactory func(SourceSpec) *Pipeline, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		pipelineFactory: pipelineFactory,
		concurrency:     4,
	}
	for _, opt := range opts {
		opt(bp)
	}
	if bp.logger == nil {
		bp.logger = slog.Default()
	}
	return bp
}

// ProcessBatch extracts multiple sources concurrently, respecting the
// concurrency limit and context cancellation.
//
// Design decision: We use errgroup.SetLimit rather than a worker pool
// because it's simpler and errgroup handles the concurrency correctly.
//
// Returns all runs in input order, even for sources that failed; each
// run carries its own error. The error return indicates cancellation.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, sources []SourceSpec) ([]*Run, error) {
	bp.logger.Info("starting batch processing",
		"total_sources", len(sources),
		"concurrency", bp.concurrency,
	)
	startTime := time.Now()

	bp.results = make([]*Run, len(sources))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, source := range sources {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			bp.logger.Info("extracting source",
				"source", source.ID,
				"index", i+1,
				"total", len(sources),
			)

			run := NewRun(source.ID, source.URL)
			p := bp.pipelineFactory(source)
			err := p.Execute(ctx, run)
			if err != nil && run.Err == nil {
				run.Err = err
			}

			bp.mu.Lock()
			bp.results[i] = run
			bp.mu.Unlock()

			if err != nil {
				bp.logger.Warn("extraction failed",
					"source", source.ID,
					"error", err,
				)
				// The error stays on the run; other sources continue.
				return nil
			}

			bp.logger.Info("extraction completed", "source", source.ID)
			return nil
		})
	}

	err := g.Wait()

	bp.logger.Info("batch processing complete",
		"total_sources", len(sources),
		"elapsed", time.Since(startTime),
	)
	return bp.results, err
}
