package localstore

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "items.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestUpsertAndRecent(t *testing.T) {
	store := newTestStore(t)

	item := Item{ID: "1", ContentType: "text/plain", Content: "hello", CreatedAt: time.Now(), SourceDevice: "device-a"}
	require.NoError(t, store.Upsert(item))

	items, err := store.Recent(10)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "hello", items[0].Content)
}

func TestUpsertReplacesExistingRow(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Upsert(Item{ID: "1", ContentType: "text/plain", Content: "first", CreatedAt: time.Now(), SourceDevice: "device-a"}))
	require.NoError(t, store.Upsert(Item{ID: "1", ContentType: "text/plain", Content: "second", CreatedAt: time.Now(), SourceDevice: "device-b"}))

	items, err := store.Recent(10)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "second", items[0].Content)
	assert.Equal(t, "device-b", items[0].SourceDevice)
}

func TestRemoveIsIdempotent(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Upsert(Item{ID: "1", ContentType: "text/plain", Content: "x", CreatedAt: time.Now(), SourceDevice: "device-a"}))
	require.NoError(t, store.Remove("1"))
	require.NoError(t, store.Remove("1"))

	items, err := store.Recent(10)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestRecentOrdersNewestFirst(t *testing.T) {
	store := newTestStore(t)

	older := time.Now().Add(-time.Hour)
	newer := time.Now()
	require.NoError(t, store.Upsert(Item{ID: "old", ContentType: "text/plain", Content: "old", CreatedAt: older, SourceDevice: "device-a"}))
	require.NoError(t, store.Upsert(Item{ID: "new", ContentType: "text/plain", Content: "new", CreatedAt: newer, SourceDevice: "device-a"}))

	items, err := store.Recent(10)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "new", items[0].ID)
	assert.Equal(t, "old", items[1].ID)
}
