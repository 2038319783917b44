package service

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/allevo/cloud-store/internal/store"
)

const (
	// DefaultRetryDelay is the base wait before the single store retry.
	DefaultRetryDelay = 100 * time.Millisecond

	// JitterFactor is the ±percentage of jitter applied to the delay.
	JitterFactor = 0.2 // ±20%
)

// RetryPolicy controls the single retry of transient store failures.
type RetryPolicy struct {
	Delay  time.Duration
	Jitter float64
}

// DefaultRetryPolicy returns the 100ms ±20% policy.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Delay: DefaultRetryDelay, Jitter: JitterFactor}
}

// NextDelay returns the jittered wait before the retry.
func (p RetryPolicy) NextDelay() time.Duration {
	if p.Delay <= 0 {
		return 0
	}
	jitterRange := float64(p.Delay) * p.Jitter
	jitter := (rand.Float64()*2 - 1) * jitterRange
	return time.Duration(float64(p.Delay) + jitter)
}

// withRetry runs fn and, when it fails with store.ErrStoreUnreachable, runs it
// exactly once more after the policy delay. Other unavailable errors, such as
// timeouts, are returned as they are. The retry is skipped when the context
// would expire before the delay elapses.
func withRetry[T any](ctx context.Context, p RetryPolicy, fn func(context.Context) (T, error), onRetry func(error)) (T, error) {
	result, err := fn(ctx)
	if err == nil || !errors.Is(err, store.ErrStoreUnreachable) || ctx.Err() != nil {
		return result, err
	}

	delay := p.NextDelay()
	if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) <= delay {
		return result, err
	}

	if onRetry != nil {
		onRetry(err)
	}

	if delay > 0 {
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return result, err
		case <-timer.C:
		}
	}

	return fn(ctx)
}
