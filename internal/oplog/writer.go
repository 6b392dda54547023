package oplog

import (
	"time"

	"github.com/google/uuid"

	"github.com/tmair/boardsync/internal/content"
	"github.com/tmair/boardsync/internal/model"
)

// Writer mints operations attributed to one device and durably enqueues
// them for upload. It does not apply operations to the merger itself —
// callers do that separately — so the local copy and the queued copy
// can never disagree about what was written.
type Writer struct {
	deviceID string
	queue    *Queue
	validate *content.Registry
	now      func() time.Time
}

// NewWriter creates a Writer that attributes new operations to
// deviceID and persists them to queue.
func NewWriter(deviceID string, queue *Queue) *Writer {
	return &Writer{deviceID: deviceID, queue: queue, validate: content.NewRegistry(), now: time.Now}
}

// Add validates item against its content_type's rules, then mints and
// enqueues an ADD operation for it. A rejected item never reaches the
// oplog, so it is never synced to another device.
func (w *Writer) Add(item model.ClipboardItem) (model.Operation, error) {
	if err := w.validate.Validate(item); err != nil {
		return model.Operation{}, err
	}
	op := model.NewAdd(uuid.NewString(), item, w.deviceID, w.now())
	if err := w.queue.Append(op); err != nil {
		return model.Operation{}, err
	}
	return op, nil
}

// Delete mints and enqueues a DELETE operation against targetID.
func (w *Writer) Delete(targetID string) (model.Operation, error) {
	op := model.NewDelete(uuid.NewString(), targetID, w.deviceID, w.now())
	if err := w.queue.Append(op); err != nil {
		return model.Operation{}, err
	}
	return op, nil
}
