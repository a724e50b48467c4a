// ABOUTME: Retry policy for oracle and embedding calls with exponential backoff
// ABOUTME: Waits respect context cancellation and permanent errors stop early
package util

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"
)

// DefaultMaxDelay caps a single backoff wait.
const DefaultMaxDelay = 30 * time.Second

// Backoff describes how often and how long to retry a call.
// Retries is the number of extra attempts after the first one.
type Backoff struct {
	Retries  int
	Base     time.Duration
	MaxDelay time.Duration
}

// Delay returns the wait before the given attempt: Base doubled per attempt,
// capped at MaxDelay, with up to 25% jitter either way. Attempt 0 never waits.
func (b Backoff) Delay(attempt int) time.Duration {
	if attempt <= 0 || b.Base <= 0 {
		return 0
	}
	maxDelay := b.MaxDelay
	if maxDelay <= 0 {
		maxDelay = DefaultMaxDelay
	}
	// Cap attempt to avoid overflow in the shift
	if attempt > 30 {
		attempt = 30
	}
	delay := b.Base * time.Duration(1<<uint(attempt))
	if delay > maxDelay || delay <= 0 {
		delay = maxDelay
	}
	jitter := time.Duration(rand.Int64N(int64(delay)/2+1)) - delay/4
	return delay + jitter
}

type permanentError struct{ err error }

func (p permanentError) Error() string { return p.err.Error() }
func (p permanentError) Unwrap() error { return p.err }

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return permanentError{err: err}
}

// IsPermanent reports whether err was marked with Permanent.
func IsPermanent(err error) bool {
	var p permanentError
	return errors.As(err, &p)
}

// Do calls fn until it succeeds, returns a permanent error, the retries are
// exhausted, or ctx is done. The last error is wrapped with the attempt count.
func (b Backoff) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	var lastErr error
	for attempt := 0; attempt <= b.Retries; attempt++ {
		if err := Sleep(ctx, b.Delay(attempt)); err != nil {
			if lastErr != nil {
				return fmt.Errorf("%w (last error: %w)", err, lastErr)
			}
			return err
		}
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if IsPermanent(err) {
			return err
		}
		lastErr = fmt.Errorf("attempt %d: %w", attempt+1, err)
	}
	return fmt.Errorf("failed after %d attempts: %w", b.Retries+1, lastErr)
}

// Sleep waits for d or until ctx is done, whichever comes first.
func Sleep(ctx context.Context, d time.Duration) error {
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
