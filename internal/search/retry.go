package search

import (
	"context"
	"time"
)

// RetryPolicy bounds how many times a provider call is attempted and how long to wait between attempts.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     time.Duration
	// Multiplier grows the backoff after each failed attempt; values <= 1 keep it constant.
	Multiplier float64
}

// DefaultRetryPolicy is two attempts with a two second pause.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 2, Backoff: 2 * time.Second, Multiplier: 1}
}

// Delay returns the wait after the given failed attempt (1-based).
func (p RetryPolicy) Delay(attempt int) time.Duration {
	d := p.Backoff
	if p.Multiplier > 1 {
		for i := 1; i < attempt; i++ {
			d = time.Duration(float64(d) * p.Multiplier)
		}
	}
	return d
}

// Do calls fn until it succeeds, the attempts are used up, or ctx is done.
// It returns the number of attempts made and the last error.
func (p RetryPolicy) Do(ctx context.Context, fn func(ctx context.Context, attempt int) error) (int, error) {
	maxAttempts := max(p.MaxAttempts, 1)

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		lastErr = fn(ctx, attempt)
		if lastErr == nil {
			return attempt, nil
		}
		if attempt == maxAttempts || ctx.Err() != nil {
			return attempt, lastErr
		}

		timer := time.NewTimer(p.Delay(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return attempt, lastErr
		case <-timer.C:
		}
	}
	return maxAttempts, lastErr
}
