package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/nao1215/floorscan/internal/model"
)

// Step is one stage of an extraction run. Each step reads and updates the
// report left by the steps before it.
type Step interface {
	// Do runs the step against the report.
	Do(ctx context.Context, report *model.Report) error

	// Name identifies the step in logs and in the report.
	Name() string
}

// Pipeline runs its steps in the order they were added.
type Pipeline struct {
	steps           []Step
	logger          *slog.Logger
	continueOnError bool
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger. slog.Default() is used otherwise.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithContinueOnError keeps running the remaining steps after a failure.
// The first failure is still recorded in the report.
func WithContinueOnError(continueOnError bool) Option {
	return func(p *Pipeline) {
		p.continueOnError = continueOnError
	}
}

// New creates an empty pipeline.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// AddStep appends a step.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddSteps appends steps in order.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Execute runs the steps against report. The context is checked between
// steps; a running step observes it on its own.
//
// Every step that runs gets an entry in report.Timings, failed or not.
// Successful steps are also listed in report.PerformedSteps. Without
// WithContinueOnError the first failure stops the run and is returned;
// otherwise failures only land in report.Error and Execute returns nil.
func (p *Pipeline) Execute(ctx context.Context, report *model.Report) error {
	start := time.Now()
	for _, step := range p.steps {
		if err := ctx.Err(); err != nil {
			p.logger.Warn("pipeline cancelled",
				"step", step.Name(),
				"source", report.Source,
				"reason", err,
			)
			report.Error = err
			return err
		}

		if err := p.runStep(ctx, step, report); err != nil {
			if report.Error == nil {
				report.Error = err
			}
			if !p.continueOnError {
				return err
			}
		}
	}

	p.logger.Debug("pipeline finished",
		"source", report.Source,
		"steps", len(report.PerformedSteps),
		"failed", report.Failed(),
		"elapsed", time.Since(start),
	)
	return nil
}

// runStep runs one step and records how long it took.
func (p *Pipeline) runStep(ctx context.Context, step Step, report *model.Report) error {
	name := step.Name()
	p.logger.Info("executing step", "step", name, "source", report.Source)

	begin := time.Now()
	err := step.Do(ctx, report)
	elapsed := time.Since(begin)
	report.Timings = append(report.Timings, model.StepTiming{
		Step:    name,
		Elapsed: elapsed,
		Failed:  err != nil,
	})

	if err != nil {
		p.logger.Error("step failed",
			"step", name,
			"source", report.Source,
			"elapsed", elapsed,
			"error", err,
		)
		return err
	}

	p.logger.Debug("step completed", "step", name, "source", report.Source, "elapsed", elapsed)
	report.PerformedSteps = append(report.PerformedSteps, name)
	return nil
}

// StepCount returns the number of steps.
func (p *Pipeline) StepCount() int {
	return len(p.steps)
}

// StepNames returns the step names in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}
