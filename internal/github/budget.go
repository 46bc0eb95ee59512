package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/go-github/v81/github"
)

// RequestBudget tracks the primary REST rate limit from response headers
// and blocks callers once it is spent, until the reset time or a
// Retry-After cooldown has passed.
type RequestBudget struct {
	mu        sync.Mutex
	remaining int
	reset     time.Time
	cooldown  time.Time
	// probed is set once a request has been let through after reset without
	// fresh headers yet.
	probed bool
	notify chan struct{}
	now    func() time.Time
}

func NewRequestBudget() *RequestBudget {
	return &RequestBudget{
		remaining: 5000,
		reset:     time.Now().Add(time.Hour),
		now:       time.Now,
		notify:    make(chan struct{}),
	}
}

func (b *RequestBudget) Remaining() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.remaining
}

// Acquire takes n requests from the budget, waiting as needed.
func (b *RequestBudget) Acquire(ctx context.Context, n int) error {
	if ctx == nil {
		return errors.New("acquire: nil context")
	}
	if n <= 0 {
		return fmt.Errorf("acquire: n must be > 0 (got %d)", n)
	}
	if b == nil || b.now == nil || b.notify == nil {
		return errors.New("acquire: budget not initialized (use NewRequestBudget)")
	}
	for range n {
		if err := b.acquireOne(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (b *RequestBudget) acquireOne(ctx context.Context) error {
	for {
		b.mu.Lock()
		now := b.now()
		ch := b.notify

		switch {
		case now.Before(b.cooldown):
			until := b.cooldown
			b.mu.Unlock()
			if err := wait(ctx, until.Sub(now), ch); err != nil {
				return err
			}
		case b.remaining > 0:
			b.remaining--
			b.mu.Unlock()
			return nil
		case !now.Before(b.reset) && !b.probed:
			b.probed = true
			b.mu.Unlock()
			return nil
		case !now.Before(b.reset):
			// Probe in flight: block until its headers arrive.
			b.mu.Unlock()
			if err := wait(ctx, -1, ch); err != nil {
				return err
			}
		default:
			reset := b.reset
			b.mu.Unlock()
			if err := wait(ctx, reset.Sub(now), ch); err != nil {
				return err
			}
		}
	}
}

// wait returns when d elapses, ch is closed, or ctx is done. A negative d
// waits for ch or ctx only.
func wait(ctx context.Context, d time.Duration, ch <-chan struct{}) error {
	var timeout <-chan time.Time
	if d >= 0 {
		t := time.NewTimer(d)
		defer t.Stop()
		timeout = t.C
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-ch:
	case <-timeout:
	}
	return nil
}

// Track updates the budget from a go-github response, if any.
func (b *RequestBudget) Track(resp *github.Response) {
	if resp != nil {
		b.UpdateFromResponse(resp.Response)
	}
}

// UpdateFromResponse reads Retry-After, X-RateLimit-Remaining and
// X-RateLimit-Reset, waking waiters when anything changed.
func (b *RequestBudget) UpdateFromResponse(resp *http.Response) {
	if b == nil || resp == nil || b.now == nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	changed := false
	if secs, ok := headerInt(resp, "Retry-After"); ok && secs > 0 {
		if until := b.now().Add(time.Duration(secs) * time.Second); until.After(b.cooldown) {
			b.cooldown = until
			changed = true
		}
	}
	if val, ok := headerInt(resp, "X-RateLimit-Remaining"); ok && val >= 0 && int(val) != b.remaining {
		b.remaining = int(val)
		changed = true
	}
	if val, ok := headerInt(resp, "X-RateLimit-Reset"); ok && val > 0 {
		if reset := time.Unix(val, 0); !b.reset.Equal(reset) {
			b.reset = reset
			changed = true
		}
	}

	if changed {
		b.probed = false
		close(b.notify)
		b.notify = make(chan struct{})
	}
}

func headerInt(resp *http.Response, name string) (int64, bool) {
	raw := resp.Header.Get(name)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	return v, err == nil
}
