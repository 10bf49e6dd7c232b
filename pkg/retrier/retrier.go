// Package retrier reruns failing calls with capped exponential backoff
// and jitter.
package retrier

import (
	"context"
	"math"
	"math/rand"
	"time"
)

const (
	defaultInitialInterval = 1 * time.Second
	defaultMaxInterval     = 30 * time.Second
	defaultMultiplier      = 2.0
	defaultMaxRetries      = 5
	defaultJitter          = 0.1
)

// Retrier reruns a failing call until it succeeds or the retry budget
// is spent.
type Retrier struct {
	initialInterval time.Duration
	maxInterval     time.Duration
	multiplier      float64
	maxRetries      int
	jitter          float64
}

// Option configures a Retrier.
type Option func(*Retrier)

// WithInitialInterval sets the wait before the first retry.
func WithInitialInterval(d time.Duration) Option {
	return func(r *Retrier) {
		r.initialInterval = d
	}
}

// WithMaxInterval caps the wait between retries.
func WithMaxInterval(d time.Duration) Option {
	return func(r *Retrier) {
		r.maxInterval = d
	}
}

// WithMultiplier sets the growth factor between consecutive waits.
func WithMultiplier(m float64) Option {
	return func(r *Retrier) {
		r.multiplier = m
	}
}

// WithMaxRetries sets how many retries follow the first attempt.
func WithMaxRetries(n int) Option {
	return func(r *Retrier) {
		r.maxRetries = n
	}
}

// WithJitter sets the random spread applied to each wait, as a fraction
// of the wait (0.0 to 1.0).
func WithJitter(j float64) Option {
	return func(r *Retrier) {
		r.jitter = j
	}
}

// New creates a Retrier with default backoff and optional overrides.
func New(opts ...Option) *Retrier {
	r := &Retrier{
		initialInterval: defaultInitialInterval,
		maxInterval:     defaultMaxInterval,
		multiplier:      defaultMultiplier,
		maxRetries:      defaultMaxRetries,
		jitter:          defaultJitter,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// backoff returns the wait before the given retry, counted from 1.
func (r *Retrier) backoff(retry int) time.Duration {
	interval := float64(r.initialInterval) * math.Pow(r.multiplier, float64(retry-1))
	if interval > float64(r.maxInterval) {
		interval = float64(r.maxInterval)
	}
	interval += (rand.Float64()*2 - 1) * r.jitter * interval
	if interval < 0 {
		return 0
	}
	return time.Duration(interval)
}

// Do runs fn until it returns nil, retrying up to the configured number
// of times. When the budget is spent the last error is returned; a
// cancelled context wins over both.
func (r *Retrier) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	for retry := 0; ; retry++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := fn(ctx)
		if err == nil {
			return nil
		}
		if retry == r.maxRetries {
			return err
		}

		timer := time.NewTimer(r.backoff(retry + 1))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// DoWithData runs fn with the same retry behavior and returns its value.
func DoWithData[T any](r *Retrier, ctx context.Context, fn func(ctx context.Context) (T, error)) (T, error) {
	var result T
	err := r.Do(ctx, func(ctx context.Context) error {
		var e error
		result, e = fn(ctx)
		return e
	})
	return result, err
}
