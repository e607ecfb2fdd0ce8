package pipeline

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nao1215/floorscan/internal/model"
)

// TestBatchProcessorNew tests the BatchProcessor constructor.
func TestBatchProcessorNew(t *testing.T) {
	t.Parallel()

	t.Run("creates processor with defaults", func(t *testing.T) {
		t.Parallel()

		bp := NewBatchProcessor(func() *Pipeline { return New() })

		if bp == nil {
			t.Fatal("expected non-nil processor")
		}
		if bp.concurrency != DefaultBatchConcurrency {
			t.Errorf("expected default concurrency %d, got %d", DefaultBatchConcurrency, bp.concurrency)
		}
		if bp.logger == nil {
			t.Error("expected non-nil logger")
		}
	})

	t.Run("applies WithConcurrency option", func(t *testing.T) {
		t.Parallel()

		bp := NewBatchProcessor(func() *Pipeline { return New() }, WithConcurrency(2))

		if bp.concurrency != 2 {
			t.Errorf("expected concurrency 2, got %d", bp.concurrency)
		}
	})

	t.Run("ignores non-positive concurrency", func(t *testing.T) {
		t.Parallel()

		bp := NewBatchProcessor(func() *Pipeline { return New() }, WithConcurrency(0))

		if bp.concurrency != DefaultBatchConcurrency {
			t.Errorf("expected concurrency %d, got %d", DefaultBatchConcurrency, bp.concurrency)
		}
	})
}

// TestBatchProcessorProcessBatch tests batch processing.
func TestBatchProcessorProcessBatch(t *testing.T) {
	t.Parallel()

	t.Run("keeps input order", func(t *testing.T) {
		t.Parallel()

		bp := NewBatchProcessor(func() *Pipeline {
			p := New()
			p.AddStep(&mockStep{
				name: "slow-first",
				doFunc: func(_ context.Context, r *model.Report) error {
					if r.Source == "a.pdf" {
						time.Sleep(20 * time.Millisecond)
					}
					return nil
				},
			})
			return p
		}, WithConcurrency(3))

		sources := []string{"a.pdf", "b.pdf", "c.pdf"}
		results, err := bp.ProcessBatch(context.Background(), sources)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(results) != len(sources) {
			t.Fatalf("expected %d results, got %d", len(sources), len(results))
		}
		for i, r := range results {
			if r == nil || r.Source != sources[i] {
				t.Errorf("result %d: expected source %q, got %+v", i, sources[i], r)
			}
		}
	})

	t.Run("respects concurrency limit", func(t *testing.T) {
		t.Parallel()

		var current, peak atomic.Int32
		var mu sync.Mutex

		bp := NewBatchProcessor(func() *Pipeline {
			p := New()
			p.AddStep(&mockStep{
				name: "concurrent-counter",
				doFunc: func(_ context.Context, _ *model.Report) error {
					n := current.Add(1)
					mu.Lock()
					if n > peak.Load() {
						peak.Store(n)
					}
					mu.Unlock()
					time.Sleep(20 * time.Millisecond)
					current.Add(-1)
					return nil
				},
			})
			return p
		}, WithConcurrency(2))

		sources := []string{"1.pdf", "2.pdf", "3.pdf", "4.pdf", "5.pdf"}
		if _, err := bp.ProcessBatch(context.Background(), sources); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if peak.Load() > 2 {
			t.Errorf("expected at most 2 concurrent runs, got %d", peak.Load())
		}
	})

	t.Run("failures do not abort the batch", func(t *testing.T) {
		t.Parallel()

		failure := errors.New("unreadable")
		bp := NewBatchProcessor(func() *Pipeline {
			p := New()
			p.AddStep(&mockStep{
				name: "maybe-fail",
				doFunc: func(_ context.Context, r *model.Report) error {
					if r.Source == "bad.pdf" {
						return failure
					}
					return nil
				},
			})
			return p
		})

		results, err := bp.ProcessBatch(context.Background(), []string{"good.pdf", "bad.pdf", "other.pdf"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if results[0].Failed() || results[2].Failed() {
			t.Error("expected good sources to succeed")
		}
		if !errors.Is(results[1].Error, failure) {
			t.Errorf("expected failure recorded for bad.pdf, got %v", results[1].Error)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		var ran atomic.Int32
		bp := NewBatchProcessor(func() *Pipeline {
			p := New()
			p.AddStep(&mockStep{
				name: "counter",
				doFunc: func(_ context.Context, _ *model.Report) error {
					ran.Add(1)
					return nil
				},
			})
			return p
		})

		_, err := bp.ProcessBatch(ctx, []string{"a.pdf", "b.pdf"})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		if ran.Load() != 0 {
			t.Errorf("expected no runs, got %d", ran.Load())
		}
	})
}

// TestBatchProcessorProcessBatchWithCallback tests callback-based processing.
func TestBatchProcessorProcessBatchWithCallback(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	received := make(map[int]string)

	bp := NewBatchProcessor(func() *Pipeline {
		p := New()
		p.AddStep(&mockStep{name: "noop"})
		return p
	})

	sources := []string{"first.pdf", "second.pdf", "third.pdf"}
	err := bp.ProcessBatchWithCallback(context.Background(), sources, func(report *model.Report, i int) {
		mu.Lock()
		received[i] = report.Source
		mu.Unlock()
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(received) != len(sources) {
		t.Fatalf("expected %d callbacks, got %d", len(sources), len(received))
	}
	for i, src := range sources {
		if received[i] != src {
			t.Errorf("callback %d: expected %q, got %q", i, src, received[i])
		}
	}
}
