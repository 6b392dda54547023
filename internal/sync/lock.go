package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/tmair/boardsync/internal/storage"
)

const lockKey = "locks/compact.lock"

// lockBody is the JSON stored at lockKey.
type lockBody struct {
	Owner     string    `json:"owner"`
	AcquiredAt time.Time `json:"acquired_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// distLock is a lease on lockKey, held by one device at a time so only
// one compaction runs against the bulletin board at once. A lock past
// its ExpiresAt is treated as abandoned (the holder crashed without
// releasing it) and can be taken over by anyone.
type distLock struct {
	driver   storage.Driver
	owner    string
	ttl      time.Duration
	acquired time.Time
}

func newDistLock(driver storage.Driver, owner string, ttl time.Duration) *distLock {
	return &distLock{driver: driver, owner: owner, ttl: ttl}
}

// TryAcquire attempts to take the lock, succeeding if it is absent or
// expired. It returns false (not an error) when another device
// currently holds a live lock.
//
// The acquire itself goes through the same overwrite=false/AlreadyExists
// protocol as every other write to the bulletin board, never a
// Get-then-Put: two devices racing a Get-then-unconditional-Put can both
// observe the lock absent and both then overwrite it, each believing it
// alone holds the lease. overwrite=false makes the write itself the race
// arbiter — at most one of two simultaneous Puts for the same key can
// succeed.
func (l *distLock) TryAcquire(ctx context.Context) (bool, error) {
	now := time.Now()
	body := lockBody{Owner: l.owner, AcquiredAt: now, ExpiresAt: now.Add(l.ttl)}
	payload, err := json.Marshal(body)
	if err != nil {
		return false, err
	}

	acquired, err := l.putIfAbsent(ctx, payload)
	if err != nil {
		return false, err
	}
	if acquired {
		l.acquired = now
		return true, nil
	}

	// The key already exists. Only a lock that is ours (a retried
	// acquire) or has expired (its holder crashed without releasing it)
	// is worth taking over; otherwise another device genuinely holds it.
	data, getErr := l.driver.Get(ctx, lockKey)
	if getErr != nil {
		if storage.IsNotFound(getErr) {
			// Raced with a concurrent Delete between our failed Put and
			// this Get; the key is free again, try exactly once more.
			acquired, err = l.putIfAbsent(ctx, payload)
			if err != nil {
				return false, err
			}
			if acquired {
				l.acquired = now
			}
			return acquired, nil
		}
		return false, fmt.Errorf("sync: read compaction lock: %w", getErr)
	}

	var existing lockBody
	if jsonErr := json.Unmarshal(data, &existing); jsonErr == nil {
		if existing.Owner != l.owner && now.Before(existing.ExpiresAt) {
			return false, nil
		}
	}

	if err := l.driver.Delete(ctx, lockKey); err != nil && !storage.IsNotFound(err) {
		return false, fmt.Errorf("sync: delete stale compaction lock: %w", err)
	}

	// Retry the overwrite=false Put exactly once after the takeover: if
	// another device deleted and re-acquired the lock in between, that
	// device wins and we report false rather than looping.
	acquired, err = l.putIfAbsent(ctx, payload)
	if err != nil {
		return false, err
	}
	if acquired {
		l.acquired = now
	}
	return acquired, nil
}

// putIfAbsent writes payload to lockKey only if the key does not
// already exist, reporting AlreadyExists as a clean "not acquired"
// rather than an error.
func (l *distLock) putIfAbsent(ctx context.Context, payload []byte) (bool, error) {
	if err := l.driver.Put(ctx, lockKey, payload, false); err != nil {
		if storage.IsAlreadyExists(err) {
			return false, nil
		}
		return false, fmt.Errorf("sync: write compaction lock: %w", err)
	}
	return true, nil
}

// Renew extends the lease. Called periodically by a heartbeat goroutine
// while a long compaction runs, so the lock does not expire out from
// under an in-progress compactor and get stolen mid-run.
func (l *distLock) Renew(ctx context.Context) error {
	now := time.Now()
	body := lockBody{Owner: l.owner, AcquiredAt: l.acquired, ExpiresAt: now.Add(l.ttl)}
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	if err := l.driver.Put(ctx, lockKey, payload, true); err != nil {
		return fmt.Errorf("sync: renew compaction lock: %w", err)
	}
	return nil
}

// Release gives up the lock immediately rather than waiting for it to
// expire, so the next compaction window does not have to wait out a
// full TTL for no reason.
func (l *distLock) Release(ctx context.Context) error {
	if err := l.driver.Delete(ctx, lockKey); err != nil {
		return fmt.Errorf("sync: release compaction lock: %w", err)
	}
	return nil
}
