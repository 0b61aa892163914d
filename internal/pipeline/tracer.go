package pipeline

import (
	"log/slog"
	"sync"
	"time"

	"github.com/nao1215/wantedanchors/internal/model"
)

// TimingTracer accumulates stage durations across runs. It is safe for
// concurrent use.
type TimingTracer struct {
	mu     sync.Mutex
	order  []string
	totals map[string]time.Duration
	counts map[string]int
}

// NewTimingTracer creates an empty TimingTracer.
func NewTimingTracer() *TimingTracer {
	return &TimingTracer{
		totals: make(map[string]time.Duration),
		counts: make(map[string]int),
	}
}

// StageStarted implements Tracer.
func (t *TimingTracer) StageStarted(string) {}

// StageFinished implements Tracer.
func (t *TimingTracer) StageFinished(name string, elapsed time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.totals[name]; !ok {
		t.order = append(t.order, name)
	}
	t.totals[name] += elapsed
	t.counts[name]++
}

// Totals returns the summed duration of each stage in first-seen order.
func (t *TimingTracer) Totals() []model.StageTiming {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]model.StageTiming, 0, len(t.order))
	for _, name := range t.order {
		out = append(out, model.StageTiming{Stage: name, Duration: t.totals[name]})
	}
	return out
}

// Count returns how many times stage finished.
func (t *TimingTracer) Count(stage string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.counts[stage]
}

// LogTracer writes a debug record when each stage starts and finishes.
type LogTracer struct {
	logger *slog.Logger
}

// NewLogTracer creates a LogTracer. A nil logger means slog.Default().
func NewLogTracer(logger *slog.Logger) *LogTracer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogTracer{logger: logger}
}

// StageStarted implements Tracer.
func (t *LogTracer) StageStarted(name string) {
	t.logger.Debug("stage started", "stage", name)
}

// StageFinished implements Tracer.
func (t *LogTracer) StageFinished(name string, elapsed time.Duration) {
	t.logger.Debug("stage finished", "stage", name, "elapsed", elapsed)
}

// MultiTracer fans notifications out to several tracers.
type MultiTracer []Tracer

// StageStarted implements Tracer.
func (m MultiTracer) StageStarted(name string) {
	for _, t := range m {
		t.StageStarted(name)
	}
}

// StageFinished implements Tracer.
func (m MultiTracer) StageFinished(name string, elapsed time.Duration) {
	for _, t := range m {
		t.StageFinished(name, elapsed)
	}
}
