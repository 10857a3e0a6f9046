// Package retry runs operations with bounded exponential backoff.
package retry

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"
)

// ErrExhausted is joined with the last error once every attempt failed.
var ErrExhausted = errors.New("retry: attempts exhausted")

// Policy bounds a retry loop.
type Policy struct {
	// Attempts is the total number of calls, including the first. Values
	// below 1 mean a single call.
	Attempts int
	// BaseDelay is the backoff ceiling before the second call; it doubles
	// after every failure up to MaxDelay.
	BaseDelay time.Duration
	MaxDelay  time.Duration
}

// DefaultPolicy returns 5 attempts starting at 50ms and capped at 2s.
func DefaultPolicy() Policy {
	return Policy{Attempts: 5, BaseDelay: 50 * time.Millisecond, MaxDelay: 2 * time.Second}
}

// Do calls fn until it succeeds, returns an error retryable rejects, or the
// attempts run out. Each wait is drawn uniformly from [0, ceiling) ("full
// jitter"). Cancelling ctx stops the loop with ctx.Err().
func Do(ctx context.Context, p Policy, retryable func(error) bool, fn func(context.Context) error) error {
	if p.Attempts < 1 {
		p.Attempts = 1
	}
	ceiling := p.BaseDelay

	var lastErr error
	for attempt := 1; attempt <= p.Attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if retryable != nil && !retryable(lastErr) {
			return lastErr
		}
		if attempt == p.Attempts {
			break
		}

		if err := sleep(ctx, jitter(ceiling)); err != nil {
			return err
		}
		ceiling *= 2
		if p.MaxDelay > 0 && ceiling > p.MaxDelay {
			ceiling = p.MaxDelay
		}
	}
	return errors.Join(ErrExhausted, lastErr)
}

func jitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	return rand.N(d)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
