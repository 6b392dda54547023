package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tmair/boardsync/internal/merge"
	"github.com/tmair/boardsync/internal/model"
	"github.com/tmair/boardsync/internal/storage"
)

const (
	lockTTL           = 2 * time.Minute
	heartbeatInterval = 30 * time.Second
)

// Compactor periodically reduces the full operation history into one
// snapshot, so a newly joined device can catch up in one download
// instead of replaying every operation any device has ever written.
// Only one device's Compactor does this work at a time, arbitrated by
// distLock.
type Compactor struct {
	driver   storage.Driver
	merger   *merge.Merger
	deviceID string
	log      *zap.Logger
}

// NewCompactor creates a Compactor attributed to deviceID.
func NewCompactor(driver storage.Driver, merger *merge.Merger, deviceID string, log *zap.Logger) *Compactor {
	return &Compactor{driver: driver, merger: merger, deviceID: deviceID, log: log}
}

// Compact attempts to acquire the compaction lock; if another device
// already holds a live lease, it returns immediately with ran=false
// rather than blocking, since compaction is opportunistic — whichever
// device's scheduler fires next will simply try again later.
func (c *Compactor) Compact(ctx context.Context) (ran bool, err error) {
	lock := newDistLock(c.driver, c.deviceID, lockTTL)

	acquired, err := lock.TryAcquire(ctx)
	if err != nil {
		return false, err
	}
	if !acquired {
		return false, nil
	}

	heartbeatCtx, stopHeartbeat := context.WithCancel(ctx)
	defer stopHeartbeat()
	go c.heartbeat(heartbeatCtx, lock)

	defer func() {
		if releaseErr := lock.Release(ctx); releaseErr != nil {
			c.log.Warn("failed to release compaction lock", zap.Error(releaseErr))
		}
	}()

	if err := c.runCompaction(ctx); err != nil {
		return true, err
	}
	return true, nil
}

// ShouldCompact reports whether an automatic compaction trigger has
// fired: more than threshold oplog entries, or more than maxAge since
// lastCompactAt. The oplog entry count stands in for "entries not yet
// covered by the current snapshot" since garbage collection removes
// covered entries after every successful compaction, so whatever
// remains in ops/ is by construction uncovered.
func (c *Compactor) ShouldCompact(ctx context.Context, threshold int, maxAge time.Duration, lastCompactAt time.Time) (bool, error) {
	if lastCompactAt.IsZero() || time.Since(lastCompactAt) >= maxAge {
		return true, nil
	}
	metas, err := c.driver.List(ctx, "ops/")
	if err != nil {
		return false, fmt.Errorf("sync: list operations for compact check: %w", err)
	}
	return len(metas) > threshold, nil
}

func (c *Compactor) heartbeat(ctx context.Context, lock *distLock) {
	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := lock.Renew(ctx); err != nil {
				c.log.Warn("failed to renew compaction lock", zap.Error(err))
			}
		}
	}
}

func (c *Compactor) runCompaction(ctx context.Context) error {
	puller := NewPuller(c.driver, c.merger, c.deviceID)
	if _, err := puller.Pull(ctx); err != nil {
		return fmt.Errorf("sync: pull before compaction: %w", err)
	}

	now := time.Now()
	snap := c.merger.ToSnapshot(c.deviceID, now, now)
	covered := snap.CoveredOpIDs

	snapKey := fmt.Sprintf("snapshots/%s-%s.json", now.UTC().Format("20060102T150405Z"), uuid.NewString()[:8])
	data, err := model.MarshalSnapshot(snap)
	if err != nil {
		return fmt.Errorf("sync: marshal snapshot: %w", err)
	}
	if err := c.driver.Put(ctx, snapKey, data, false); err != nil && !storage.IsAlreadyExists(err) {
		return fmt.Errorf("sync: publish snapshot: %w", err)
	}

	pointer := model.LatestPointer{Key: snapKey}
	pointerData, err := json.Marshal(pointer)
	if err != nil {
		return err
	}
	if err := c.driver.Put(ctx, "snapshots/latest", pointerData, true); err != nil {
		return fmt.Errorf("sync: publish latest pointer: %w", err)
	}

	if err := c.garbageCollect(ctx, covered); err != nil {
		c.log.Warn("compaction garbage collection failed", zap.Error(err))
	}
	return nil
}

// garbageCollect removes operations now covered by a published
// snapshot. It is best-effort: failing to delete an already-covered
// operation wastes a little storage but never affects correctness,
// since the merger's dominance check makes replaying a covered
// operation a safe no-op.
func (c *Compactor) garbageCollect(ctx context.Context, coveredOpIDs []string) error {
	covered := make(map[string]bool, len(coveredOpIDs))
	for _, id := range coveredOpIDs {
		covered[id] = true
	}

	metas, err := c.driver.List(ctx, "ops/")
	if err != nil {
		return err
	}
	for _, meta := range metas {
		opID := opIDFromKey(meta.Key)
		if !covered[opID] {
			continue
		}
		if err := c.driver.Delete(ctx, meta.Key); err != nil {
			return err
		}
	}
	return nil
}
