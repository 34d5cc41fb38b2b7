package pipeline

import (
	"context"
	"errors"
	"log/slog"

	"github.com/georisk/georisk/internal/extract"
	"github.com/georisk/georisk/internal/model"
)

// ErrLayoutChanged indicates that a source page's layout drifted in a way
// that blocks use of the extracted data. The run's ChangeReport carries
// the details; the baseline has already been updated by the time this is
// returned.
var ErrLayoutChanged = errors.New("source layout changed")

// Run carries the state of one source extraction through the pipeline.
// Steps fill in their part and later steps build on it.
type Run struct {
	// Source is the source id, e.g. "hifca".
	Source string

	// URL is the source page location. Sources without a scrapeable page
	// leave it empty and skip the layout steps.
	URL string

	// HTML is the fetched page body.
	HTML []byte

	// Structure holds the extracted structural facts.
	Structure *extract.PageStructure

	// Snapshot is the layout snapshot taken from Structure.
	Snapshot *model.LayoutSnapshot

	// Baseline is the previously stored snapshot, nil on first run.
	Baseline *model.LayoutSnapshot

	// Report is the drift detection result.
	Report *model.ChangeReport

	// Counties is the extracted dataset.
	Counties []model.County

	// PerformedSteps records which steps ran, in order.
	PerformedSteps []string

	// Err holds the first step failure when the pipeline is configured
	// to continue on error.
	Err error
}

// NewRun creates a run for one source.
func NewRun(source, url string) *Run {
	return &Run{Source: source, URL: url}
}

// Step is one stage of a source extraction.
//
// Design decision: We use an interface rather than function types because:
// 1. It allows steps to carry configuration state
// 2. It provides a Name() method for logging and debugging
// 3. It's more extensible for future features (e.g., retries per step)
type Step interface {
	// Do executes the step against the run state. Returning an error
	// stops the pipeline unless it was built with WithContinueOnError.
	Do(ctx context.Context, run *Run) error

	// Name returns the step's name for logging purposes.
	Name() string
}

// Pipeline executes steps in order against a single run.
type Pipeline struct {
	steps  []Step
	logger *slog.Logger

	// continueOnError determines whether to continue executing steps
	// after one fails. If false, the pipeline stops on first error.
	continueOnError bool
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithContinueOnError configures the pipeline to keep executing steps
// after a failure. The first error is recorded on the run.
//
// Design decision: The default is to stop on error because a failed fetch
// or a blocking layout change makes the remaining steps meaningless for
// this run. Continuing is useful for diagnostics.
func WithContinueOnError(continueOnError bool) Option {
	return func(p *Pipeline) {
		p.continueOnError = continueOnError
	}
}

// New creates an empty Pipeline. Add steps with AddSteps.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{steps: make([]Step, 0)}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// AddStep appends a step to the pipeline.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddSteps appends multiple steps in execution order.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Execute runs all steps in sequence against the run.
//
// Design decision: We check context.Done() before each step rather than
// during, because steps handle their own timeouts. This allows graceful
// cleanup between steps while still respecting cancellation.
func (p *Pipeline) Execute(ctx context.Context, run *Run) error {
	for _, step := range p.steps {
		select {
		case <-ctx.Done():
			p.logger.Warn("pipeline cancelled",
				"step", step.Name(),
				"source", run.Source,
				"reason", ctx.Err(),
			)
			return ctx.Err()
		default:
		}

		p.logger.Info("executing step",
			"step", step.Name(),
			"source", run.Source,
		)

		if err := step.Do(ctx, run); err != nil {
			p.logger.Error("step failed",
				"step", step.Name(),
				"source", run.Source,
				"error", err,
			)
			if run.Err == nil {
				run.Err = err
			}
			if !p.continueOnError {
				return err
			}
		} else {
			p.logger.Debug("step completed",
				"step", step.Name(),
				"source", run.Source,
			)
		}

		run.PerformedSteps = append(run.PerformedSteps, step.Name())
	}
	return nil
}

// StepCount returns the number of steps in the pipeline.
func (p *Pipeline) StepCount() int {
	return len(p.steps)
}

// StepNames returns the names of all steps in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}
