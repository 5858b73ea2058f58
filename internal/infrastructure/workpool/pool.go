// Package workpool runs indexed tasks with a concurrency cap and a start-rate
// limit. With Concurrency 1 tasks run strictly in index order.
package workpool

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

type Config struct {
	Concurrency int
	// Interval is the minimum spacing between task starts. Zero disables
	// throttling.
	Interval time.Duration
}

type Pool struct {
	concurrency int
	limiter     *rate.Limiter
}

func New(cfg Config) *Pool {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	limit := rate.Inf
	if cfg.Interval > 0 {
		limit = rate.Every(cfg.Interval)
	}
	return &Pool{
		concurrency: concurrency,
		limiter:     rate.NewLimiter(limit, 1),
	}
}

// Run calls task for i in [0, n). The first task error cancels the context
// passed to the remaining tasks and is returned.
func (p *Pool) Run(ctx context.Context, n int, task func(ctx context.Context, i int) error) error {
	if n <= 0 {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)

	for i := 0; i < n; i++ {
		if err := p.limiter.Wait(gctx); err != nil {
			if taskErr := g.Wait(); taskErr != nil {
				return taskErr
			}
			return fmt.Errorf("workpool wait: %w", err)
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return task(gctx, i)
		})
	}
	return g.Wait()
}
