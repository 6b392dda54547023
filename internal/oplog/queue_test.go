package oplog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tmair/boardsync/internal/model"
)

func newItem(id string) model.ClipboardItem {
	item := model.ClipboardItem{ID: id, ContentType: "text/plain", CreatedAt: time.Now()}
	item.SetContent([]byte(id))
	return item
}

func TestQueueAppendAndPending(t *testing.T) {
	dir := t.TempDir()
	q, err := Open(dir)
	require.NoError(t, err)

	op := model.NewAdd("op1", newItem("x1"), "aa", time.Now())
	require.NoError(t, q.Append(op))

	pending := q.Pending()
	require.Len(t, pending, 1)
	assert.Equal(t, "op1", pending[0].OpID)
}

func TestQueueSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	q, err := Open(dir)
	require.NoError(t, err)

	require.NoError(t, q.Append(model.NewAdd("op1", newItem("x1"), "aa", time.Now())))
	require.NoError(t, q.Append(model.NewAdd("op2", newItem("x2"), "aa", time.Now())))

	reopened, err := Open(dir)
	require.NoError(t, err)
	assert.Len(t, reopened.Pending(), 2)
}

func TestQueueMarkUploadedRemovesEntries(t *testing.T) {
	dir := t.TempDir()
	q, err := Open(dir)
	require.NoError(t, err)

	require.NoError(t, q.Append(model.NewAdd("op1", newItem("x1"), "aa", time.Now())))
	require.NoError(t, q.Append(model.NewAdd("op2", newItem("x2"), "aa", time.Now())))

	require.NoError(t, q.MarkUploaded([]string{"op1"}))

	pending := q.Pending()
	require.Len(t, pending, 1)
	assert.Equal(t, "op2", pending[0].OpID)

	reopened, err := Open(dir)
	require.NoError(t, err)
	assert.Len(t, reopened.Pending(), 1)
}

func TestWriterEnqueuesAddAndDelete(t *testing.T) {
	dir := t.TempDir()
	q, err := Open(dir)
	require.NoError(t, err)

	w := NewWriter("aa", q)

	addOp, err := w.Add(newItem("x1"))
	require.NoError(t, err)
	assert.Equal(t, model.OpAdd, addOp.OpType)

	delOp, err := w.Delete("x1")
	require.NoError(t, err)
	assert.Equal(t, model.OpDelete, delOp.OpType)

	assert.Len(t, q.Pending(), 2)
}

func TestWriterAddRejectsEmptyText(t *testing.T) {
	dir := t.TempDir()
	q, err := Open(dir)
	require.NoError(t, err)

	w := NewWriter("aa", q)

	item := model.ClipboardItem{ID: "x1", ContentType: "text/plain", CreatedAt: time.Now()}
	_, err = w.Add(item)
	require.Error(t, err)
	assert.Empty(t, q.Pending())
}

func TestWriterAddRejectsUnsupportedContentType(t *testing.T) {
	dir := t.TempDir()
	q, err := Open(dir)
	require.NoError(t, err)

	w := NewWriter("aa", q)

	item := model.ClipboardItem{ID: "x1", ContentType: "application/octet-stream", CreatedAt: time.Now()}
	item.SetContent([]byte("whatever"))
	_, err = w.Add(item)
	require.Error(t, err)
	assert.Empty(t, q.Pending())
}
