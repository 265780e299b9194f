// Package retry provides a bounded retry policy with exponential backoff.
package retry

import (
	"context"
	"fmt"
	"time"
)

// Default policy constants.
const (
	defaultAttempts       = 3
	defaultInitialBackoff = 500 * time.Millisecond
	defaultMaxBackoff     = 10 * time.Second
)

// Policy bounds how often and how fast an operation is retried.
type Policy struct {
	attempts int
	initial  time.Duration
	max      time.Duration
}

// Option applies a configuration option to the Policy.
type Option func(*Policy)

// WithAttempts sets the total number of attempts, including the first.
func WithAttempts(attempts int) Option {
	return func(p *Policy) {
		if attempts > 0 {
			p.attempts = attempts
		}
	}
}

// WithBackoff sets the initial and maximum backoff delays. The delay doubles
// after each failed attempt up to the maximum.
func WithBackoff(initial, maxDelay time.Duration) Option {
	return func(p *Policy) {
		if initial > 0 && maxDelay >= initial {
			p.initial = initial
			p.max = maxDelay
		}
	}
}

// New creates a Policy with configuration options.
func New(opts ...Option) Policy {
	p := Policy{
		attempts: defaultAttempts,
		initial:  defaultInitialBackoff,
		max:      defaultMaxBackoff,
	}
	for _, opt := range opts {
		opt(&p)
	}
	return p
}

// Do runs op until it succeeds, the attempts are exhausted, or ctx is done.
// The last error is returned; context cancellation during a backoff wait
// returns the context error wrapped.
func (p Policy) Do(ctx context.Context, op func(ctx context.Context) error) error {
	delay := p.initial
	var lastErr error
	for attempt := 1; attempt <= p.attempts; attempt++ {
		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}
		if attempt == p.attempts {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return fmt.Errorf("retry aborted: %w", ctx.Err())
		}
		if next := delay * 2; next <= p.max {
			delay = next
		} else {
			delay = p.max
		}
	}
	return lastErr
}
