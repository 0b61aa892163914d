package anchor

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/wantedanchors/internal/model"
)

// Default collector settings.
const (
	// DefaultTimeout bounds a single render call.
	DefaultTimeout = 30 * time.Second

	// DefaultConcurrency is the number of renders allowed in flight.
	DefaultConcurrency = 8
)

// Renderer turns a page name into the HTML of its rendered form.
type Renderer interface {
	Render(ctx context.Context, page string) (string, error)
}

// RendererFunc adapts a function to the Renderer interface.
type RendererFunc func(ctx context.Context, page string) (string, error)

// Render calls f(ctx, page).
func (f RendererFunc) Render(ctx context.Context, page string) (string, error) {
	return f(ctx, page)
}

// Collector renders target pages and memoizes their anchor sets.
// It is safe for concurrent use.
type Collector struct {
	renderer    Renderer
	timeout     time.Duration
	concurrency int
	logger      *slog.Logger

	// mu guards entries; each entry is filled exactly once.
	mu      sync.Mutex
	entries map[string]*entry

	renders  atomic.Int64
	failures atomic.Int64
}

// entry is the memoized outcome for one target page.
type entry struct {
	once    sync.Once
	anchors model.AnchorSet
	err     error
}

// Option configures a Collector.
type Option func(*Collector)

// WithTimeout sets the limit for one render call.
func WithTimeout(d time.Duration) Option {
	return func(c *Collector) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithConcurrency sets how many renders may run at once.
func WithConcurrency(n int) Option {
	return func(c *Collector) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// WithLogger sets the logger used to report render failures.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Collector) {
		c.logger = logger
	}
}

// NewCollector creates a Collector backed by renderer.
func NewCollector(renderer Renderer, opts ...Option) *Collector {
	c := &Collector{
		renderer:    renderer,
		timeout:     DefaultTimeout,
		concurrency: DefaultConcurrency,
		entries:     make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// Collect returns the anchors of target, rendering it on first request.
// Render failures yield an empty set.
func (c *Collector) Collect(ctx context.Context, target string) model.AnchorSet {
	c.mu.Lock()
	e, ok := c.entries[target]
	if !ok {
		e = &entry{}
		c.entries[target] = e
	}
	c.mu.Unlock()

	e.once.Do(func() {
		e.anchors, e.err = c.collect(ctx, target)
		if e.err != nil {
			c.failures.Add(1)
			c.logger.Debug("render failed, target has no anchors",
				"target", target,
				"error", e.err,
			)
			e.anchors = model.AnchorSet{}
		}
	})
	return e.anchors
}

// CollectAll collects the anchors of every target concurrently and returns
// them as an index. It only fails when ctx is cancelled.
func (c *Collector) CollectAll(ctx context.Context, targets []string) (model.AnchorIndex, error) {
	var mu sync.Mutex
	out := make(model.AnchorIndex, len(targets))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)

	for _, target := range targets {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}

			anchors := c.Collect(gctx, target)

			mu.Lock()
			out[target] = anchors
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Failures returns the number of targets whose render failed so far.
func (c *Collector) Failures() int {
	return int(c.failures.Load())
}

// Renders returns the number of render calls issued so far.
func (c *Collector) Renders() int {
	return int(c.renders.Load())
}

// collect renders target within the timeout and extracts its ids.
func (c *Collector) collect(ctx context.Context, target string) (model.AnchorSet, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	type renderResult struct {
		html string
		err  error
	}
	resultCh := make(chan renderResult, 1)

	c.renders.Add(1)
	go func() {
		h, err := c.renderer.Render(ctx, target)
		resultCh <- renderResult{h, err}
	}()

	// The renderer may ignore ctx; the select keeps the timeout binding.
	select {
	case r := <-resultCh:
		if r.err != nil {
			return nil, r.err
		}
		return ExtractIDsString(r.html)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
