package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/nao1215/wantedanchors/internal/model"
)

// State is what the stages of one run read and write. Each stage fills
// the fields the next one needs.
type State struct {
	// Run receives the report, statistics and stage timings.
	Run *model.Run

	// Origins are the pages listed by the document store.
	Origins []model.OriginPage

	// Documents are the origins with their text loaded.
	Documents []model.Document

	// Index maps each reference to the pages containing it.
	Index *model.OriginIndex

	// Groups holds the references regrouped by target page.
	Groups *model.TargetGroup

	// Anchors holds the anchor set of every target page.
	Anchors model.AnchorIndex

	// Found holds every "target#id" reference the targets expose.
	Found model.ReferenceSet
}

// NewState creates the state of a run over namespace.
func NewState(namespace int) *State {
	return &State{Run: model.NewRun(namespace)}
}

// Step defines the interface that all pipeline stages implement.
type Step interface {
	// Do executes the stage. A returned error aborts the run.
	Do(ctx context.Context, state *State) error

	// Name returns the stage's name for logging and timings.
	Name() string
}

// Tracer is notified around every stage.
type Tracer interface {
	StageStarted(name string)
	StageFinished(name string, elapsed time.Duration)
}

// Pipeline orchestrates the execution of multiple steps.
type Pipeline struct {
	steps  []Step
	logger *slog.Logger
	tracer Tracer
}

// Option is a function that configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithTracer sets a tracer notified around each stage.
func WithTracer(tracer Tracer) Option {
	return func(p *Pipeline) {
		p.tracer = tracer
	}
}

// New creates a new Pipeline with the given options.
// Steps should be added using AddStep after creation.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		steps: make([]Step, 0),
	}

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

// AddSteps appends multiple steps to the pipeline.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Execute runs all steps in sequence, recording each stage's duration in
// state.Run.Timings and the whole duration in state.Run.Total. It stops at
// the first failing step or when ctx is cancelled between steps.
func (p *Pipeline) Execute(ctx context.Context, state *State) error {
	start := time.Now()
	defer func() {
		state.Run.Total = time.Since(start)
	}()

	for _, step := range p.steps {
		select {
		case <-ctx.Done():
			p.logger.Warn("pipeline cancelled",
				"step", step.Name(),
				"reason", ctx.Err(),
			)
			return ctx.Err()
		default:
		}

		p.logger.Debug("executing step",
			"step", step.Name(),
			"namespace", state.Run.Namespace,
		)
		if p.tracer != nil {
			p.tracer.StageStarted(step.Name())
		}

		stepStart := time.Now()
		err := step.Do(ctx, state)
		elapsed := time.Since(stepStart)

		state.Run.Timings = append(state.Run.Timings, model.StageTiming{Stage: step.Name(), Duration: elapsed})
		if p.tracer != nil {
			p.tracer.StageFinished(step.Name(), elapsed)
		}

		if err != nil {
			p.logger.Error("step failed",
				"step", step.Name(),
				"namespace", state.Run.Namespace,
				"error", err,
			)
			return err
		}
	}

	p.logger.Info("run completed",
		"namespace", state.Run.Namespace,
		"broken_hash_links", state.Run.Stats.BrokenHashLinks,
		"broken_target_pages", state.Run.Stats.BrokenTargetPages,
		"elapsed", time.Since(start),
	)
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
