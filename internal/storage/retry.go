package storage

import (
	"context"
	"math/rand"
	"time"
)

// backoff implements exponential backoff with jitter, the same shape as
// a mesh peer's reconnect backoff: multiply by factor each attempt,
// capped at max, with jitter to avoid synchronized retry storms across
// devices hitting the same bucket.
type backoff struct {
	initial time.Duration
	max     time.Duration
	factor  float64
	jitter  float64
}

func defaultBackoff() backoff {
	return backoff{
		initial: 500 * time.Millisecond,
		max:     8 * time.Second,
		factor:  2.0,
		jitter:  0.2,
	}
}

func (b backoff) duration(attempt int) time.Duration {
	d := float64(b.initial)
	for i := 0; i < attempt; i++ {
		d *= b.factor
	}
	if d > float64(b.max) {
		d = float64(b.max)
	}
	jitterRange := d * b.jitter
	d += (rand.Float64()*2 - 1) * jitterRange
	if d < 0 {
		d = 0
	}
	return time.Duration(d)
}

// defaultMaxAttempts is used when NewRetrying's caller doesn't care to
// override it (every call site that does not come from a user-supplied
// Config.RetryAttempts).
const defaultMaxAttempts = 3

// Retrying wraps a Driver so every call is retried with exponential
// backoff while the failure is classified as retryable.
type Retrying struct {
	inner       Driver
	backoff     backoff
	maxAttempts int
}

// NewRetrying wraps driver with the default retry policy (500ms initial,
// 8s cap, ±20% jitter, up to defaultMaxAttempts attempts).
func NewRetrying(driver Driver) *Retrying {
	return &Retrying{inner: driver, backoff: defaultBackoff(), maxAttempts: defaultMaxAttempts}
}

// NewRetryingWithAttempts wraps driver like NewRetrying but with a
// caller-chosen attempt cap, for Config.RetryAttempts (1..10).
func NewRetryingWithAttempts(driver Driver, maxAttempts int) *Retrying {
	if maxAttempts < 1 {
		maxAttempts = defaultMaxAttempts
	}
	return &Retrying{inner: driver, backoff: defaultBackoff(), maxAttempts: maxAttempts}
}

func (r *Retrying) run(ctx context.Context, op func() error) error {
	var lastErr error
	for attempt := 0; attempt < r.maxAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !IsRetryable(lastErr) {
			return lastErr
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(r.backoff.duration(attempt)):
		}
	}
	return lastErr
}

func (r *Retrying) Put(ctx context.Context, key string, data []byte, overwrite bool) error {
	return r.run(ctx, func() error { return r.inner.Put(ctx, key, data, overwrite) })
}

func (r *Retrying) Get(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	err := r.run(ctx, func() error {
		var innerErr error
		data, innerErr = r.inner.Get(ctx, key)
		return innerErr
	})
	return data, err
}

func (r *Retrying) List(ctx context.Context, prefix string) ([]ObjectMeta, error) {
	var metas []ObjectMeta
	err := r.run(ctx, func() error {
		var innerErr error
		metas, innerErr = r.inner.List(ctx, prefix)
		return innerErr
	})
	return metas, err
}

func (r *Retrying) Delete(ctx context.Context, key string) error {
	return r.run(ctx, func() error { return r.inner.Delete(ctx, key) })
}

func (r *Retrying) Probe(ctx context.Context) error {
	return r.run(ctx, func() error { return r.inner.Probe(ctx) })
}
