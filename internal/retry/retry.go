// Package retry runs fallible remote calls with exponential backoff.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	pkgerrors "jdk25tracker/internal/errors"
	"jdk25tracker/internal/logging"
)

// Policy controls how often and how long Do retries.
type Policy struct {
	// Attempts is the total number of calls, including the first. Values
	// below 1 are treated as 1.
	Attempts int

	// InitialDelay is the wait after the first failure. It doubles after
	// every further failure, capped at MaxDelay when MaxDelay > 0.
	InitialDelay time.Duration
	MaxDelay     time.Duration

	// Retryable decides whether an error is worth another attempt. Nil means
	// rate-limit and quota errors only.
	Retryable func(error) bool

	sleep func(context.Context, time.Duration) error
}

// DefaultPolicy retries rate-limit and quota errors five times starting at 5s.
func DefaultPolicy() Policy {
	return Policy{
		Attempts:     5,
		InitialDelay: 5 * time.Second,
		Retryable:    pkgerrors.IsRateLimited,
	}
}

// Do calls fn until it succeeds, returns a non-retryable error, or the
// attempts are exhausted. The last error is returned unchanged.
func Do(ctx context.Context, p Policy, fn func(context.Context) error) error {
	_, err := Value(ctx, p, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// Value is Do for calls that produce a result.
func Value[T any](ctx context.Context, p Policy, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	attempts := max(p.Attempts, 1)
	retryable := p.Retryable
	if retryable == nil {
		retryable = pkgerrors.IsRateLimited
	}
	sleep := p.sleep
	if sleep == nil {
		sleep = wait
	}
	log := logging.FromContext(ctx)

	delay := p.InitialDelay
	for attempt := 1; ; attempt++ {
		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}
		if attempt >= attempts || !retryable(err) {
			return zero, err
		}

		log.Warn().
			Err(err).
			Int("attempt", attempt).
			Int("max_attempts", attempts).
			Dur("delay", delay).
			Msg("Rate limit hit, retrying")

		if serr := sleep(ctx, delay); serr != nil {
			return zero, fmt.Errorf("retry aborted after %d attempts: %w", attempt, errors.Join(serr, err))
		}
		delay *= 2
		if p.MaxDelay > 0 && delay > p.MaxDelay {
			delay = p.MaxDelay
		}
	}
}

func wait(ctx context.Context, d time.Duration) error {
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
