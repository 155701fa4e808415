package generator

import (
	"context"
	"math/rand"
	"time"
)

// Retrier wraps generation calls with bounded retries and exponential backoff.
// Only classified retryable errors are retried; auth failures and
// cancellations surface immediately.
type Retrier struct {
	MaxRetries int
	Backoff    time.Duration
	BackoffMax time.Duration
	Metrics    *Metrics
}

// NewRetrier builds a Retrier with the given retry budget and backoff window.
func NewRetrier(maxRetries int, backoff, backoffMax time.Duration, metrics *Metrics) *Retrier {
	return &Retrier{
		MaxRetries: maxRetries,
		Backoff:    backoff,
		BackoffMax: backoffMax,
		Metrics:    metrics,
	}
}

// Do invokes fn up to 1+MaxRetries times. The attempt number passed to fn is
// 1-based. It returns the successful response, the number of calls actually
// made, and the final error if every attempt failed.
func (r *Retrier) Do(ctx context.Context, fn func(ctx context.Context, attempt int) (*Response, error)) (*Response, int, error) {
	maxAttempts := r.MaxRetries + 1
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr error
	calls := 0
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			if lastErr == nil {
				lastErr = err
			}
			return nil, calls, lastErr
		}

		calls++
		resp, err := fn(ctx, attempt)
		if err == nil {
			return resp, calls, nil
		}
		lastErr = err

		if !Retryable(err) || attempt == maxAttempts {
			return nil, calls, lastErr
		}

		r.Metrics.IncRetries()
		if err := sleepContext(ctx, r.backoffFor(attempt)); err != nil {
			return nil, calls, lastErr
		}
	}
	return nil, calls, lastErr
}

// backoffFor computes the delay before the next attempt: exponential growth
// capped at BackoffMax, with up to 25% jitter to spread concurrent retries.
func (r *Retrier) backoffFor(attempt int) time.Duration {
	base := r.Backoff
	if base <= 0 {
		return 0
	}

	delay := base << (attempt - 1)
	if r.BackoffMax > 0 && (delay > r.BackoffMax || delay <= 0) {
		delay = r.BackoffMax
	}

	jitter := time.Duration(rand.Int63n(int64(delay)/4 + 1))
	return delay + jitter
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
