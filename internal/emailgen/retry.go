package emailgen

import (
	"context"
	"errors"
	"time"
)

// RetryPolicy bounds the attempts made for one attendee. Delays double from
// BaseDelay: with the defaults a failing attendee waits 1s, 2s, then gives up.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration

	// Sleep waits for d or until ctx is done. Tests replace it to avoid real waits.
	Sleep func(ctx context.Context, d time.Duration) error

	// OnRetry is called before each backoff sleep
	OnRetry func(attempt int, delay time.Duration, err error)
}

// DefaultRetryPolicy returns three attempts with a one second base delay
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, BaseDelay: time.Second}
}

// Backoff returns the delay after the given failed attempt (1-based)
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return p.BaseDelay * time.Duration(1<<uint(attempt-1))
}

// Do runs op until it succeeds, returns a permanent error, or MaxAttempts is reached.
// It returns the number of attempts made and the last error.
func (p RetryPolicy) Do(ctx context.Context, op func(ctx context.Context, attempt int) error) (int, error) {
	maxAttempts := p.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		lastErr = op(ctx, attempt)
		if lastErr == nil {
			return attempt, nil
		}
		if IsPermanent(lastErr) || attempt == maxAttempts {
			return attempt, lastErr
		}
		if ctx.Err() != nil {
			return attempt, errors.Join(lastErr, ctx.Err())
		}

		delay := p.Backoff(attempt)
		if p.OnRetry != nil {
			p.OnRetry(attempt, delay, lastErr)
		}
		if err := sleep(ctx, delay); err != nil {
			return attempt, errors.Join(lastErr, err)
		}
	}
	return maxAttempts, lastErr
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
