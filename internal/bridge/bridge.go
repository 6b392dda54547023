// Package bridge drains merge.ChangeEvents into the host's local
// store, the system clipboard, and, when enabled, a desktop
// notification.
package bridge

import (
	"context"

	"go.uber.org/zap"

	"github.com/tmair/boardsync/internal/clipsource"
	"github.com/tmair/boardsync/internal/localstore"
	"github.com/tmair/boardsync/internal/merge"
	"github.com/tmair/boardsync/internal/notify"
)

// Bridge subscribes to merger change events and fans them out to the
// local store (always), the system clipboard and a Notifier (only for
// changes that did not originate on this device).
type Bridge struct {
	store     *localstore.Store
	source    clipsource.Source
	notifier  notify.Notifier
	deviceID  string
	log       *zap.Logger
	previewLn int
}

// New creates a Bridge attributed to deviceID, the local device's own
// id, used to suppress clipboard writes and notifications for the
// device's own edits.
func New(store *localstore.Store, source clipsource.Source, notifier notify.Notifier, deviceID string, log *zap.Logger) *Bridge {
	return &Bridge{store: store, source: source, notifier: notifier, deviceID: deviceID, log: log, previewLn: 80}
}

// Handle applies one change event to the local store and, for remote
// changes, writes the item to the system clipboard and fires a
// notification. Store and clipboard write failures are logged but
// never propagated, since a lagging local-store write or a clipboard
// held by another app must never block the merger or the sync
// scheduler that feeds it.
func (b *Bridge) Handle(ctx context.Context, event merge.ChangeEvent) {
	switch event.Kind {
	case merge.ItemAdded, merge.ItemReplaced:
		b.upsert(ctx, event)
	case merge.ItemRemoved:
		if err := b.store.Remove(event.TargetID); err != nil {
			b.log.Warn("bridge: failed to remove item from local store", zap.Error(err), zap.String("target_id", event.TargetID))
		}
	}
}

// HandleAll applies a batch of change events in order, as produced by
// merge.Merger.ApplyAll after a pull.
func (b *Bridge) HandleAll(ctx context.Context, events []merge.ChangeEvent) {
	for _, event := range events {
		b.Handle(ctx, event)
	}
}

func (b *Bridge) upsert(ctx context.Context, event merge.ChangeEvent) {
	item := event.Item
	row := localstore.Item{
		ID:           item.ID,
		ContentType:  item.ContentType,
		Content:      item.Content,
		CreatedAt:    item.CreatedAt,
		SourceDevice: event.DeviceID,
	}
	if err := b.store.Upsert(row); err != nil {
		b.log.Warn("bridge: failed to upsert item into local store", zap.Error(err), zap.String("id", item.ID))
		return
	}

	if event.DeviceID == b.deviceID {
		return
	}

	if err := b.source.Write(ctx, item); err != nil {
		b.log.Warn("bridge: failed to write synced item to clipboard", zap.Error(err), zap.String("id", item.ID))
	}

	preview := notify.Truncate(item.Content, b.previewLn)
	if err := b.notifier.NotifyClipboardSynced(event.DeviceID, preview); err != nil {
		b.log.Warn("bridge: failed to show notification", zap.Error(err))
	}
}
