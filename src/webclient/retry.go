package webclient

import (
	"context"
	"time"
)

const (
	defaultDelay = 2 * time.Second
	maxDelay     = 30 * time.Second
)

// Backoff yields exponentially growing delays, doubling up to Max.
type Backoff struct {
	Initial time.Duration
	Max     time.Duration
	next    time.Duration
}

// Next returns the delay to wait now and advances the sequence.
func (b *Backoff) Next() time.Duration {
	if b.Initial <= 0 {
		b.Initial = defaultDelay
	}
	if b.Max <= 0 {
		b.Max = maxDelay
	}
	if b.next <= 0 {
		b.next = b.Initial
	}
	d := b.next
	if b.next < b.Max {
		b.next *= 2
		if b.next > b.Max {
			b.next = b.Max
		}
	}
	return d
}

// Reset starts the sequence over from Initial.
func (b *Backoff) Reset() {
	b.next = 0
}

// Sleep waits for d or until ctx ends.
func Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Retry calls fn until it succeeds, returns a non-retryable error, or attempts run out.
// The delay doubles after each failure, capped at 30s.
func Retry(ctx context.Context, attempts int, initialDelay time.Duration, retryable func(error) bool, fn func() error) error {
	if attempts <= 0 {
		attempts = 1
	}
	backoff := Backoff{Initial: initialDelay, Max: maxDelay}
	var err error
	for i := 0; i < attempts; i++ {
		err = fn()
		if err == nil {
			return nil
		}
		if retryable != nil && !retryable(err) {
			return err
		}
		if i == attempts-1 {
			break
		}
		if serr := Sleep(ctx, backoff.Next()); serr != nil {
			return serr
		}
	}
	return err
}
