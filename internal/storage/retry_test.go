package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackoffDurationGrowsAndCaps(t *testing.T) {
	b := backoff{initial: 100 * time.Millisecond, max: 1 * time.Second, factor: 2.0, jitter: 0}

	assert.Equal(t, 100*time.Millisecond, b.duration(0))
	assert.Equal(t, 200*time.Millisecond, b.duration(1))
	assert.Equal(t, 400*time.Millisecond, b.duration(2))
	assert.Equal(t, 1*time.Second, b.duration(10))
}

type fakeDriver struct {
	failUntil int
	calls     int
	kind      Kind
}

func (f *fakeDriver) Put(ctx context.Context, key string, data []byte, overwrite bool) error {
	f.calls++
	if f.calls <= f.failUntil {
		return NewError(f.kind, "put", key, assertErr)
	}
	return nil
}
func (f *fakeDriver) Get(ctx context.Context, key string) ([]byte, error)    { return nil, nil }
func (f *fakeDriver) List(ctx context.Context, p string) ([]ObjectMeta, error) { return nil, nil }
func (f *fakeDriver) Delete(ctx context.Context, key string) error           { return nil }
func (f *fakeDriver) Probe(ctx context.Context) error                        { return nil }

var assertErr = assertError("boom")

type assertError string

func (e assertError) Error() string { return string(e) }

func TestRetryingRetriesOnTransientFailure(t *testing.T) {
	inner := &fakeDriver{failUntil: 2, kind: KindNetwork}
	r := &Retrying{inner: inner, backoff: backoff{initial: time.Millisecond, max: time.Millisecond, factor: 1, jitter: 0}, maxAttempts: 5}

	err := r.Put(context.Background(), "k", []byte("v"), true)
	require.NoError(t, err)
	assert.Equal(t, 3, inner.calls)
}

func TestRetryingWithAttemptsHonorsConfiguredCap(t *testing.T) {
	inner := &fakeDriver{failUntil: 10, kind: KindNetwork}
	r := NewRetryingWithAttempts(inner, 3)
	r.backoff = backoff{initial: time.Millisecond, max: time.Millisecond, factor: 1, jitter: 0}

	err := r.Put(context.Background(), "k", []byte("v"), true)
	require.Error(t, err)
	assert.Equal(t, 3, inner.calls)
}

func TestNewRetryingWithAttemptsRejectsNonPositive(t *testing.T) {
	inner := &fakeDriver{}
	r := NewRetryingWithAttempts(inner, 0)
	assert.Equal(t, defaultMaxAttempts, r.maxAttempts)
}

func TestRetryingDoesNotRetryPermanentFailure(t *testing.T) {
	inner := &fakeDriver{failUntil: 10, kind: KindAuth}
	r := &Retrying{inner: inner, backoff: backoff{initial: time.Millisecond, max: time.Millisecond, factor: 1, jitter: 0}, maxAttempts: 5}

	err := r.Put(context.Background(), "k", []byte("v"), true)
	require.Error(t, err)
	assert.Equal(t, 1, inner.calls)
}
