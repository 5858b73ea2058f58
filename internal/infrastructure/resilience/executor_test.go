package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
)

func fastRetries(attempts int) Config {
	return Config{
		RetryMaxAttempts:    attempts,
		RetryInitialBackoff: time.Millisecond,
		RetryMaxBackoff:     2 * time.Millisecond,
		BreakerEnabled:      false,
	}
}

func TestExecuteRetriesTransientFailure(t *testing.T) {
	exec := NewExecutor(fastRetries(3))

	errLoading := errors.New("model loading")
	attempts := 0
	err := exec.Execute(context.Background(), "ollama.embed", func(context.Context) error {
		attempts++
		if attempts < 3 {
			return errLoading
		}
		return nil
	}, func(error) ErrorClassification { return Transient })
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
}

func TestExecuteGivesUpAfterMaxAttempts(t *testing.T) {
	exec := NewExecutor(fastRetries(2))

	errDown := errors.New("down")
	attempts := 0
	err := exec.Execute(context.Background(), "ollama.embed", func(context.Context) error {
		attempts++
		return errDown
	}, func(error) ErrorClassification { return Transient })
	if !errors.Is(err, errDown) || attempts != 2 {
		t.Fatalf("expected 2 attempts ending in errDown, got %d, %v", attempts, err)
	}
}

func TestExecuteDoesNotRetryPermanentFailure(t *testing.T) {
	exec := NewExecutor(fastRetries(3))

	errBadModel := errors.New("unknown model")
	attempts := 0
	err := exec.Execute(context.Background(), "gemini.generate", func(context.Context) error {
		attempts++
		return errBadModel
	}, func(error) ErrorClassification { return Permanent })
	if !errors.Is(err, errBadModel) {
		t.Fatalf("expected permanent error, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("expected 1 attempt, got %d", attempts)
	}
}

func TestExecuteOpensCircuitAfterFailures(t *testing.T) {
	exec := NewExecutor(Config{
		RetryMaxAttempts:        1,
		BreakerEnabled:          true,
		BreakerMinRequests:      2,
		BreakerFailureRatio:     0.5,
		BreakerOpenTimeout:      time.Minute,
		BreakerHalfOpenMaxCalls: 1,
	})

	errDown := errors.New("connection refused")
	for i := 0; i < 2; i++ {
		err := exec.Execute(context.Background(), "nats.publish", func(context.Context) error {
			return errDown
		}, func(error) ErrorClassification { return Permanent })
		if !errors.Is(err, errDown) {
			t.Fatalf("iteration %d: expected upstream error, got %v", i, err)
		}
	}

	err := exec.Execute(context.Background(), "nats.publish", func(context.Context) error {
		t.Fatalf("open circuit must not call the operation")
		return nil
	}, nil)
	if !errors.Is(err, gobreaker.ErrOpenState) || !IsCircuitOpen(err) {
		t.Fatalf("expected open state error, got %v", err)
	}
}

func TestIgnoredFailuresDoNotTripBreaker(t *testing.T) {
	exec := NewExecutor(Config{
		RetryMaxAttempts:        1,
		BreakerEnabled:          true,
		BreakerMinRequests:      1,
		BreakerFailureRatio:     1,
		BreakerOpenTimeout:      time.Minute,
		BreakerHalfOpenMaxCalls: 1,
	})

	for i := 0; i < 3; i++ {
		_ = exec.Execute(context.Background(), "ollama.generate", func(context.Context) error {
			return errors.New("bad request")
		}, func(error) ErrorClassification { return Ignored })
	}
	if got := exec.BreakerStates()["ollama.generate"]; got != "closed" {
		t.Fatalf("expected breaker closed, got %q", got)
	}
}

func TestBreakerStatesTracksOperations(t *testing.T) {
	exec := NewExecutor(Config{
		RetryMaxAttempts:        1,
		BreakerEnabled:          true,
		BreakerMinRequests:      1,
		BreakerFailureRatio:     1,
		BreakerOpenTimeout:      time.Minute,
		BreakerHalfOpenMaxCalls: 1,
	})

	if states := exec.BreakerStates(); len(states) != 0 {
		t.Fatalf("expected no breakers before first call, got %v", states)
	}

	_ = exec.Execute(context.Background(), "embed", func(context.Context) error { return nil }, nil)
	_ = exec.Execute(context.Background(), "generate", func(context.Context) error {
		return errors.New("down")
	}, nil)

	states := exec.BreakerStates()
	if states["embed"] != "closed" {
		t.Fatalf("expected embed breaker closed, got %q", states["embed"])
	}
	if states["generate"] != "open" {
		t.Fatalf("expected generate breaker open, got %q", states["generate"])
	}
}

func TestExecuteStopsOnCanceledContext(t *testing.T) {
	exec := NewExecutor(Config{RetryMaxAttempts: 3, BreakerEnabled: false})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := exec.Execute(ctx, "op", func(context.Context) error {
		called = true
		return nil
	}, nil)
	if !errors.Is(err, context.Canceled) || called {
		t.Fatalf("expected canceled error without call, got %v called=%v", err, called)
	}
}
