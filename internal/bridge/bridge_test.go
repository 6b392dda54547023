package bridge

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tmair/boardsync/internal/clipsource"
	"github.com/tmair/boardsync/internal/localstore"
	"github.com/tmair/boardsync/internal/merge"
	"github.com/tmair/boardsync/internal/model"
	"github.com/tmair/boardsync/internal/notify"
)

type recordingNotifier struct {
	calls []string
}

func (r *recordingNotifier) NotifyClipboardSynced(sourceDevice, preview string) error {
	r.calls = append(r.calls, sourceDevice+":"+preview)
	return nil
}

type fakeSource struct {
	written []model.ClipboardItem
}

func (f *fakeSource) Watch(ctx context.Context) <-chan clipsource.Change {
	out := make(chan clipsource.Change)
	close(out)
	return out
}

func (f *fakeSource) Write(ctx context.Context, item model.ClipboardItem) error {
	f.written = append(f.written, item)
	return nil
}

func newTestBridge(t *testing.T, notifier notify.Notifier, deviceID string) (*Bridge, *fakeSource) {
	t.Helper()
	store, err := localstore.Open(filepath.Join(t.TempDir(), "items.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	source := &fakeSource{}
	return New(store, source, notifier, deviceID, zap.NewNop()), source
}

func itemFor(id string) model.ClipboardItem {
	item := model.ClipboardItem{ID: id, ContentType: "text/plain", CreatedAt: time.Now()}
	item.SetContent([]byte("hello " + id))
	return item
}

func TestHandleAddStoresItemWithoutNotifyingOwnDevice(t *testing.T) {
	notifier := &recordingNotifier{}
	b, source := newTestBridge(t, notifier, "device-a")

	b.Handle(context.Background(), merge.ChangeEvent{Kind: merge.ItemAdded, Item: itemFor("x1"), DeviceID: "device-a"})

	assert.Empty(t, notifier.calls)
	assert.Empty(t, source.written, "a device's own edit must never be written back to its own clipboard")
}

func TestHandleAddFromRemoteDeviceNotifies(t *testing.T) {
	notifier := &recordingNotifier{}
	b, _ := newTestBridge(t, notifier, "device-a")

	b.Handle(context.Background(), merge.ChangeEvent{Kind: merge.ItemAdded, Item: itemFor("x1"), DeviceID: "device-b"})

	require.Len(t, notifier.calls, 1)
	assert.Contains(t, notifier.calls[0], "device-b")
}

func TestHandleAddFromRemoteDeviceWritesClipboard(t *testing.T) {
	notifier := &recordingNotifier{}
	b, source := newTestBridge(t, notifier, "device-a")

	item := itemFor("x1")
	b.Handle(context.Background(), merge.ChangeEvent{Kind: merge.ItemAdded, Item: item, DeviceID: "device-b"})

	require.Len(t, source.written, 1)
	assert.Equal(t, item.ID, source.written[0].ID)
}

func TestHandleReplaceFromRemoteDeviceWritesClipboard(t *testing.T) {
	notifier := &recordingNotifier{}
	b, source := newTestBridge(t, notifier, "device-a")

	item := itemFor("x1")
	b.Handle(context.Background(), merge.ChangeEvent{Kind: merge.ItemReplaced, Item: item, DeviceID: "device-b"})

	require.Len(t, source.written, 1)
	assert.Equal(t, item.ID, source.written[0].ID)
}

func TestHandleRemoveDeletesFromLocalStore(t *testing.T) {
	notifier := &recordingNotifier{}
	b, _ := newTestBridge(t, notifier, "device-a")

	b.Handle(context.Background(), merge.ChangeEvent{Kind: merge.ItemAdded, Item: itemFor("x1"), DeviceID: "device-b"})
	b.Handle(context.Background(), merge.ChangeEvent{Kind: merge.ItemRemoved, TargetID: "x1", DeviceID: "device-b"})

	items, err := b.store.Recent(10)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestHandleAllAppliesInOrder(t *testing.T) {
	notifier := &recordingNotifier{}
	b, source := newTestBridge(t, notifier, "device-a")

	b.HandleAll(context.Background(), []merge.ChangeEvent{
		{Kind: merge.ItemAdded, Item: itemFor("x1"), DeviceID: "device-b"},
		{Kind: merge.ItemAdded, Item: itemFor("x2"), DeviceID: "device-b"},
	})

	items, err := b.store.Recent(10)
	require.NoError(t, err)
	assert.Len(t, items, 2)
	assert.Len(t, source.written, 2)
}
