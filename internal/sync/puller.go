// Package sync drives the bulletin-board side of the protocol: pulling
// other devices' operations and snapshots into the local Merger,
// draining this device's pending uploads, and compacting the oplog
// under a distributed lock.
package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/tmair/boardsync/internal/merge"
	"github.com/tmair/boardsync/internal/model"
	"github.com/tmair/boardsync/internal/storage"
)

const maxPullWorkers = 8

// Puller fetches operations and snapshots other devices have published
// to the bulletin board and folds them into the local Merger.
type Puller struct {
	driver   storage.Driver
	merger   *merge.Merger
	deviceID string
}

// NewPuller creates a Puller that pulls into merger on behalf of
// deviceID. Pull filters operations only by whether merger has already
// seen their op_id, so this device's own operations are skipped once
// applied locally and fetched again into a merger that has not seen them.
func NewPuller(driver storage.Driver, merger *merge.Merger, deviceID string) *Puller {
	return &Puller{driver: driver, merger: merger, deviceID: deviceID}
}

// Pull lists every device's operation directory, downloads operations
// this Merger has not yet seen, and applies them. Downloads run with
// bounded concurrency so a pull against many devices' backlogs does not
// open an unbounded number of connections to the storage backend.
func (p *Puller) Pull(ctx context.Context) ([]merge.ChangeEvent, error) {
	if err := p.loadLatestSnapshot(ctx); err != nil {
		return nil, err
	}

	metas, err := p.driver.List(ctx, "ops/")
	if err != nil {
		return nil, fmt.Errorf("sync: list operations: %w", err)
	}

	var toFetch []string
	for _, meta := range metas {
		opID := opIDFromKey(meta.Key)
		if opID == "" || p.merger.HasSeen(opID) {
			continue
		}
		toFetch = append(toFetch, meta.Key)
	}

	if len(toFetch) == 0 {
		return nil, nil
	}

	ops := make([]model.Operation, len(toFetch))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxPullWorkers)

	for i, key := range toFetch {
		i, key := i, key
		g.Go(func() error {
			data, err := p.driver.Get(gctx, key)
			if err != nil {
				return fmt.Errorf("sync: fetch operation %s: %w", key, err)
			}
			op, err := model.UnmarshalOperation(data)
			if err != nil {
				return fmt.Errorf("sync: decode operation %s: %w", key, err)
			}
			ops[i] = op
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return p.merger.ApplyAll(ops), nil
}

func (p *Puller) loadLatestSnapshot(ctx context.Context) error {
	data, err := p.driver.Get(ctx, "snapshots/latest")
	if err != nil {
		if storage.IsNotFound(err) {
			return nil
		}
		return fmt.Errorf("sync: read latest snapshot pointer: %w", err)
	}

	var pointer model.LatestPointer
	if err := json.Unmarshal(data, &pointer); err != nil {
		return fmt.Errorf("sync: decode latest snapshot pointer: %w", err)
	}

	snapData, err := p.driver.Get(ctx, pointer.Key)
	if err != nil {
		if storage.IsNotFound(err) {
			return nil
		}
		return fmt.Errorf("sync: fetch snapshot %s: %w", pointer.Key, err)
	}

	snap, err := model.UnmarshalSnapshot(snapData)
	if err != nil {
		return fmt.Errorf("sync: decode snapshot %s: %w", pointer.Key, err)
	}

	p.merger.LoadSnapshot(snap)
	return nil
}

// opIDFromKey extracts the op_id from a key of the form
// ops/<device_id>/<op_id>.json.
func opIDFromKey(key string) string {
	base := key
	if idx := strings.LastIndex(key, "/"); idx >= 0 {
		base = key[idx+1:]
	}
	return strings.TrimSuffix(base, ".json")
}
