package merge

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/tmair/boardsync/internal/model"
)

func itemAt(id string, t time.Time) model.ClipboardItem {
	item := model.ClipboardItem{ID: id, ContentType: "text/plain", CreatedAt: t}
	item.SetContent([]byte(id))
	return item
}

func TestApplyAddIsVisible(t *testing.T) {
	m := New()
	now := time.Unix(1000, 0)
	op := model.NewAdd("op1", itemAt("x1", now), "aa", now)

	event, changed := m.Apply(op)
	assert.True(t, changed)
	assert.Equal(t, ItemAdded, event.Kind)
	assert.Len(t, m.Items(), 1)
}

func TestApplyIsIdempotent(t *testing.T) {
	m := New()
	now := time.Unix(1000, 0)
	op := model.NewAdd("op1", itemAt("x1", now), "aa", now)

	_, changed1 := m.Apply(op)
	_, changed2 := m.Apply(op)

	assert.True(t, changed1)
	assert.False(t, changed2)
	assert.Len(t, m.Items(), 1)
}

// Two devices add different content for the same target_id at the same
// timestamp; the device with the lexicographically greater device_id
// wins regardless of application order.
func TestConcurrentAddsConvergeOnDeviceIDTieBreak(t *testing.T) {
	now := time.Unix(2000, 0)
	itemA := itemAt("t1", now)
	itemA.SetContent([]byte("from-aa"))
	itemB := itemAt("t1", now)
	itemB.SetContent([]byte("from-bb"))
	opA := model.NewAdd("op-a", itemA, "aa", now)
	opB := model.NewAdd("op-b", itemB, "bb", now)

	forward := New()
	forward.Apply(opA)
	forward.Apply(opB)

	backward := New()
	backward.Apply(opB)
	backward.Apply(opA)

	assert.Equal(t, forward.Items(), backward.Items())
	assert.Equal(t, "t1", forward.Items()[0].ID)
	got, _ := forward.Items()[0].DecodedContent()
	assert.Equal(t, "from-bb", string(got))
}

// A DELETE that arrives after an ADD it is newer than must tombstone the
// item; a subsequent older ADD for the same target must never resurrect it.
func TestDeleteTombstonesAndResistsLateResurrection(t *testing.T) {
	m := New()
	t0 := time.Unix(1000, 0)
	t1 := time.Unix(1001, 0)

	addOp := model.NewAdd("op-add", itemAt("x1", t0), "aa", t0)
	delOp := model.NewDelete("op-del", "x1", "aa", t1)

	m.Apply(addOp)
	event, changed := m.Apply(delOp)
	assert.True(t, changed)
	assert.Equal(t, ItemRemoved, event.Kind)
	assert.Empty(t, m.Items())

	// Late-arriving ADD with an earlier timestamp than the DELETE must
	// not resurrect the item.
	lateAdd := model.NewAdd("op-late", itemAt("x1", t0), "aa", t0)
	_, changed = m.Apply(lateAdd)
	assert.False(t, changed)
	assert.Empty(t, m.Items())
}

// A DELETE applied before its corresponding ADD (out-of-order delivery)
// must still end up tombstoned once the ADD arrives.
func TestOutOfOrderDeleteStillWins(t *testing.T) {
	m := New()
	t0 := time.Unix(1000, 0)
	t1 := time.Unix(1001, 0)

	delOp := model.NewDelete("op-del", "x1", "aa", t1)
	addOp := model.NewAdd("op-add", itemAt("x1", t0), "aa", t0)

	m.Apply(delOp)
	m.Apply(addOp)

	assert.Empty(t, m.Items())
}

func TestApplyAllOrderIndependentFinalState(t *testing.T) {
	now := time.Unix(3000, 0)
	ops := []model.Operation{
		model.NewAdd("op1", itemAt("a", now), "aa", now),
		model.NewAdd("op2", itemAt("b", now.Add(time.Second)), "aa", now.Add(time.Second)),
		model.NewDelete("op3", "a", "aa", now.Add(2*time.Second)),
	}

	forward := New()
	forward.ApplyAll(ops)

	reversed := New()
	reversed.ApplyAll([]model.Operation{ops[2], ops[1], ops[0]})

	assert.Equal(t, forward.Items(), reversed.Items())
}

func TestLoadSnapshotSeedsStateAndPreventsStaleResurrection(t *testing.T) {
	now := time.Unix(5000, 0)
	snap := model.Snapshot{
		Items:           []model.ClipboardItem{itemAt("x1", now)},
		LastOpTimestamp: now,
		DeviceID:        "zz",
		CoveredOpIDs:    []string{"op-old"},
	}

	m := New()
	m.LoadSnapshot(snap)
	assert.Len(t, m.Items(), 1)

	staleDelete := model.NewDelete("op-stale", "x1", "aa", now.Add(-time.Hour))
	_, changed := m.Apply(staleDelete)
	assert.False(t, changed)
	assert.Len(t, m.Items(), 1)

	freshDelete := model.NewDelete("op-fresh", "x1", "zz", now.Add(time.Hour))
	_, changed = m.Apply(freshDelete)
	assert.True(t, changed)
	assert.Empty(t, m.Items())
}
