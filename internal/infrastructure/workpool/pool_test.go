package workpool

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestRunSequentialKeepsOrder(t *testing.T) {
	p := New(Config{Concurrency: 1})

	var mu sync.Mutex
	var order []int
	err := p.Run(context.Background(), 5, func(_ context.Context, i int) error {
		mu.Lock()
		order = append(order, i)
		mu.Unlock()
		return nil
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	for i, v := range order {
		if v != i {
			t.Fatalf("expected in-order execution, got %v", order)
		}
	}
	if len(order) != 5 {
		t.Fatalf("expected 5 tasks, got %d", len(order))
	}
}

func TestRunSpacesTaskStarts(t *testing.T) {
	p := New(Config{Concurrency: 1, Interval: 20 * time.Millisecond})

	start := time.Now()
	err := p.Run(context.Background(), 3, func(context.Context, int) error { return nil })
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	// first token is immediate, the next two wait one interval each
	if elapsed := time.Since(start); elapsed < 35*time.Millisecond {
		t.Fatalf("expected throttled run, took %v", elapsed)
	}
}

func TestRunRespectsConcurrencyLimit(t *testing.T) {
	p := New(Config{Concurrency: 2})

	var active, peak int32
	err := p.Run(context.Background(), 8, func(context.Context, int) error {
		n := atomic.AddInt32(&active, 1)
		for {
			old := atomic.LoadInt32(&peak)
			if n <= old || atomic.CompareAndSwapInt32(&peak, old, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		atomic.AddInt32(&active, -1)
		return nil
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if peak > 2 {
		t.Fatalf("expected at most 2 concurrent tasks, got %d", peak)
	}
}

func TestRunReturnsFirstError(t *testing.T) {
	p := New(Config{Concurrency: 1})
	boom := errors.New("boom")

	calls := 0
	err := p.Run(context.Background(), 4, func(_ context.Context, i int) error {
		calls++
		if i == 1 {
			return boom
		}
		return nil
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if calls > 2 {
		t.Fatalf("expected run to stop after failure, got %d calls", calls)
	}
}

func TestRunCanceledContext(t *testing.T) {
	p := New(Config{Concurrency: 1, Interval: time.Hour})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := p.Run(ctx, 2, func(context.Context, int) error { return nil })
	if err == nil {
		t.Fatalf("expected error on canceled context")
	}
}
