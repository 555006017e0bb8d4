// Package retry provides the bounded retry policy used everywhere the
// system talks to a browser or the portal. Backoff grows linearly with
// the attempt number; there is no jitter.
package retry

import (
	"context"
	"time"
)

// Policy retries an operation up to MaxAttempts times, sleeping
// Backoff × attempt between failed attempts.
type Policy struct {
	MaxAttempts int
	Backoff     time.Duration

	// Sleep replaces the context-aware sleep, for tests. Nil means Sleep.
	SleepFn func(ctx context.Context, d time.Duration) error
}

// New returns a policy with the default sleep.
func New(maxAttempts int, backoff time.Duration) Policy {
	return Policy{MaxAttempts: maxAttempts, Backoff: backoff}
}

// Do runs fn until it returns nil, attempts are exhausted, or ctx is
// cancelled during a backoff sleep. fn receives the 1-based attempt
// number. The last error from fn is returned on exhaustion.
func (p Policy) Do(ctx context.Context, fn func(attempt int) error) error {
	sleep := p.SleepFn
	if sleep == nil {
		sleep = Sleep
	}
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = fn(attempt); err == nil {
			return nil
		}
		if attempt == attempts {
			break
		}
		if serr := sleep(ctx, p.Backoff*time.Duration(attempt)); serr != nil {
			return serr
		}
	}
	return err
}

// Sleep blocks for d or until ctx is cancelled, whichever comes first.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
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
