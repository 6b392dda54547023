// Package merge implements the last-writer-wins reduction that turns a
// stream of operations from any number of devices into one agreed-upon
// clipboard item set, with tombstones so a late-arriving ADD can never
// resurrect something a later DELETE already removed.
package merge

import (
	"sort"
	"sync"
	"time"

	"github.com/tmair/boardsync/internal/model"
)

// Merger holds the current reduction of every operation applied to it.
// It is safe for concurrent use: the clipboard poller, the puller, and
// the scheduler's compactor all call into the same Merger from
// different goroutines.
type Merger struct {
	mu sync.RWMutex

	// dominant is the operation currently winning for each target_id,
	// whether that operation is an ADD (item visible) or a DELETE
	// (tombstoned). Comparing a candidate op against the entry already
	// here, rather than against separately-tracked item/tombstone
	// state, is what makes resurrection impossible: once a DELETE is
	// dominant, an ADD that it dominates keeps losing to it forever,
	// regardless of how many such ADDs for the same target arrive
	// afterward.
	dominant map[string]model.Operation
	seen     map[string]bool
}

// New creates an empty Merger.
func New() *Merger {
	return &Merger{
		dominant: make(map[string]model.Operation),
		seen:     make(map[string]bool),
	}
}

// Apply folds op into the merger's state. Applying the same op_id twice
// is a no-op the second time, which is what makes replaying the oplog
// from scratch after a crash safe. The returned ChangeEvent is valid
// only when changed is true.
func (m *Merger) Apply(op model.Operation) (event ChangeEvent, changed bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.applyLocked(op)
}

func (m *Merger) applyLocked(op model.Operation) (ChangeEvent, bool) {
	if m.seen[op.OpID] {
		return ChangeEvent{}, false
	}
	m.seen[op.OpID] = true

	current, exists := m.dominant[op.TargetID]
	if exists && !op.Dominates(current) {
		return ChangeEvent{}, false
	}

	wasVisible := exists && current.OpType == model.OpAdd
	m.dominant[op.TargetID] = op

	switch op.OpType {
	case model.OpAdd:
		kind := ItemAdded
		if wasVisible {
			kind = ItemReplaced
		}
		return ChangeEvent{Kind: kind, Item: *op.Payload, DeviceID: op.DeviceID}, true
	case model.OpDelete:
		if !wasVisible {
			return ChangeEvent{}, false
		}
		return ChangeEvent{Kind: ItemRemoved, TargetID: op.TargetID, DeviceID: op.DeviceID}, true
	default:
		return ChangeEvent{}, false
	}
}

// ApplyAll applies ops in order, returning every ChangeEvent that
// resulted. Order does not affect the final state — Dominates is a
// total order over competing operations on the same target — but it
// does affect which intermediate ChangeEvents are emitted, so callers
// that care about a faithful history should apply in timestamp order.
func (m *Merger) ApplyAll(ops []model.Operation) []ChangeEvent {
	m.mu.Lock()
	defer m.mu.Unlock()

	events := make([]ChangeEvent, 0, len(ops))
	for _, op := range ops {
		if event, changed := m.applyLocked(op); changed {
			events = append(events, event)
		}
	}
	return events
}

// Items returns every currently-visible item, sorted by ID for
// deterministic snapshots and listings.
func (m *Merger) Items() []model.ClipboardItem {
	m.mu.RLock()
	defer m.mu.RUnlock()

	items := make([]model.ClipboardItem, 0, len(m.dominant))
	for _, op := range m.dominant {
		if op.OpType == model.OpAdd {
			items = append(items, *op.Payload)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items
}

// SeenOpIDs returns every op_id this Merger has folded in, for building
// a snapshot's covered_op_ids.
func (m *Merger) SeenOpIDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.seen))
	for id := range m.seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// HasSeen reports whether op_id has already been folded into this
// Merger, letting the puller skip re-fetching operations it already
// knows about.
func (m *Merger) HasSeen(opID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.seen[opID]
}

// LoadSnapshot seeds the merger from a previously published snapshot.
// Each item becomes a synthetic dominant ADD so later operations must
// still out-dominate it — the item itself doesn't carry enough LWW
// metadata, so the snapshot's own device_id and last_op_timestamp stand
// in as its synthetic op's tie-break fields.
func (m *Merger) LoadSnapshot(snap model.Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, id := range snap.CoveredOpIDs {
		m.seen[id] = true
	}
	for _, item := range snap.Items {
		op := model.Operation{
			OpID:      "snapshot:" + item.ID,
			OpType:    model.OpAdd,
			TargetID:  item.ID,
			Timestamp: snap.LastOpTimestamp,
			DeviceID:  snap.DeviceID,
			Payload:   &item,
		}
		if current, exists := m.dominant[item.ID]; !exists || op.Dominates(current) {
			m.dominant[item.ID] = op
		}
	}
}

// ToSnapshot materializes the current state as a Snapshot, taken at
// snapshotTime and attributed to deviceID (the compactor that built it).
func (m *Merger) ToSnapshot(deviceID string, snapshotTime, lastOpTime time.Time) model.Snapshot {
	return model.Snapshot{
		Items:             m.Items(),
		SnapshotTimestamp: snapshotTime,
		LastOpTimestamp:   lastOpTime,
		DeviceID:          deviceID,
		CoveredOpIDs:      m.SeenOpIDs(),
	}
}
