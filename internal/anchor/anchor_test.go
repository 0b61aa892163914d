package anchor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestExtractIDs(t *testing.T) {
	t.Parallel()

	t.Run("collects ids from nested elements", func(t *testing.T) {
		t.Parallel()

		content := `<div class="mw-parser-output">
			<h2><span class="mw-headline" id="Getting_started">Getting started</span></h2>
			<p id="intro">Text <span id="deep">x</span></p>
			<p>No id here</p>
		</div>`

		ids, err := ExtractIDsString(content)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		for _, want := range []string{"Getting started", "intro", "deep"} {
			if !ids.Contains(want) {
				t.Errorf("expected id %q in %v", want, ids)
			}
		}
		if ids.Contains("Getting_started") {
			t.Error("underscores should have been normalized")
		}
		if len(ids) != 3 {
			t.Errorf("expected 3 ids, got %d: %v", len(ids), ids)
		}
	})

	t.Run("empty id attributes are ignored", func(t *testing.T) {
		t.Parallel()

		ids, err := ExtractIDsString(`<p id="">x</p>`)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(ids) != 0 {
			t.Errorf("expected no ids, got %v", ids)
		}
	})

	t.Run("malformed markup still parses", func(t *testing.T) {
		t.Parallel()

		ids, err := ExtractIDsString(`<div id="a"><span id="b">unclosed`)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !ids.Contains("a") || !ids.Contains("b") {
			t.Errorf("got %v", ids)
		}
	})
}

func TestCollector_Collect(t *testing.T) {
	t.Parallel()

	t.Run("renders each target once", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int64
		r := RendererFunc(func(_ context.Context, page string) (string, error) {
			calls.Add(1)
			return fmt.Sprintf(`<h2 id="%s_section">x</h2>`, page), nil
		})
		c := NewCollector(r)

		var wg sync.WaitGroup
		for range 20 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				anchors := c.Collect(context.Background(), "B")
				if !anchors.Contains("B section") {
					t.Errorf("got %v", anchors)
				}
			}()
		}
		wg.Wait()

		if calls.Load() != 1 {
			t.Errorf("expected 1 render, got %d", calls.Load())
		}
		if c.Renders() != 1 {
			t.Errorf("expected Renders() == 1, got %d", c.Renders())
		}
	})

	t.Run("render failure yields empty set", func(t *testing.T) {
		t.Parallel()

		r := RendererFunc(func(context.Context, string) (string, error) {
			return "", errors.New("missingtitle")
		})
		c := NewCollector(r)

		anchors := c.Collect(context.Background(), "C")
		if anchors == nil || len(anchors) != 0 {
			t.Errorf("expected empty non-nil set, got %v", anchors)
		}
		if c.Failures() != 1 {
			t.Errorf("expected 1 failure, got %d", c.Failures())
		}

		// The failure is memoized too.
		c.Collect(context.Background(), "C")
		if c.Renders() != 1 {
			t.Errorf("expected 1 render, got %d", c.Renders())
		}
	})

	t.Run("timeout counts as failure", func(t *testing.T) {
		t.Parallel()

		block := make(chan struct{})
		defer close(block)
		r := RendererFunc(func(context.Context, string) (string, error) {
			<-block // ignores ctx on purpose
			return `<p id="late">x</p>`, nil
		})
		c := NewCollector(r, WithTimeout(20*time.Millisecond))

		start := time.Now()
		anchors := c.Collect(context.Background(), "Slow")
		if len(anchors) != 0 {
			t.Errorf("expected no anchors, got %v", anchors)
		}
		if time.Since(start) > 2*time.Second {
			t.Error("collect did not honour the timeout")
		}
		if c.Failures() != 1 {
			t.Errorf("expected 1 failure, got %d", c.Failures())
		}
	})
}

func TestCollector_CollectAll(t *testing.T) {
	t.Parallel()

	t.Run("respects concurrency limit", func(t *testing.T) {
		t.Parallel()

		var inFlight, peak atomic.Int64
		r := RendererFunc(func(_ context.Context, page string) (string, error) {
			n := inFlight.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			inFlight.Add(-1)
			return `<p id="` + page + `">x</p>`, nil
		})
		c := NewCollector(r, WithConcurrency(3))

		targets := make([]string, 12)
		for i := range targets {
			targets[i] = fmt.Sprintf("T%d", i)
		}

		index, err := c.CollectAll(context.Background(), targets)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(index) != len(targets) {
			t.Fatalf("expected %d entries, got %d", len(targets), len(index))
		}
		for _, target := range targets {
			if !index.Anchors(target).Contains(target) {
				t.Errorf("%s: missing own anchor", target)
			}
		}
		if peak.Load() > 3 {
			t.Errorf("peak concurrency %d exceeds limit 3", peak.Load())
		}
	})

	t.Run("failed targets are present and empty", func(t *testing.T) {
		t.Parallel()

		r := RendererFunc(func(_ context.Context, page string) (string, error) {
			if page == "C" {
				return "", errors.New("no such page")
			}
			return `<p id="setup">x</p>`, nil
		})
		c := NewCollector(r)

		index, err := c.CollectAll(context.Background(), []string{"B", "C"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if s, ok := index["C"]; !ok || len(s) != 0 {
			t.Errorf("expected C with empty set, got %v (present=%v)", s, ok)
		}
		if !index.Anchors("B").Contains("setup") {
			t.Error("expected B#setup anchor")
		}
	})

	t.Run("cancelled context aborts", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		c := NewCollector(RendererFunc(func(context.Context, string) (string, error) {
			return "", nil
		}))
		if _, err := c.CollectAll(ctx, []string{"A", "B"}); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}
