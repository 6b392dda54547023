package sync

import (
	"context"
	"fmt"

	"github.com/tmair/boardsync/internal/model"
	"github.com/tmair/boardsync/internal/oplog"
	"github.com/tmair/boardsync/internal/storage"
)

// Uploader drains the local pending-operations queue to the bulletin
// board. Each operation is written with overwrite disabled, since
// op_ids are unique and operations are immutable once written; a
// retried upload after a crash or timeout between a successful PUT and
// MarkUploaded simply hits AlreadyExists on the key it already wrote,
// which uploadOne treats as success.
type Uploader struct {
	driver   storage.Driver
	queue    *oplog.Queue
	deviceID string
}

// NewUploader creates an Uploader for deviceID's queue.
func NewUploader(driver storage.Driver, queue *oplog.Queue, deviceID string) *Uploader {
	return &Uploader{driver: driver, queue: queue, deviceID: deviceID}
}

// Drain uploads pending operations oldest first, stopping at the first
// failure, then marks every operation whose PUT succeeded as uploaded in
// one batch, so a failure partway through still leaves the earlier
// successes checked off.
func (u *Uploader) Drain(ctx context.Context) (int, error) {
	pending := u.queue.Pending()
	if len(pending) == 0 {
		return 0, nil
	}

	var uploaded []string
	var firstErr error
	for _, op := range pending {
		if err := u.uploadOne(ctx, op); err != nil {
			firstErr = fmt.Errorf("sync: upload operation %s: %w", op.OpID, err)
			break
		}
		uploaded = append(uploaded, op.OpID)
	}

	if len(uploaded) > 0 {
		if err := u.queue.MarkUploaded(uploaded); err != nil {
			return len(uploaded), fmt.Errorf("sync: mark uploaded: %w", err)
		}
	}

	return len(uploaded), firstErr
}

func (u *Uploader) uploadOne(ctx context.Context, op model.Operation) error {
	data, err := model.MarshalOperation(op)
	if err != nil {
		return err
	}
	key := fmt.Sprintf("ops/%s/%s.json", u.deviceID, op.OpID)
	if err := u.driver.Put(ctx, key, data, false); err != nil && !storage.IsAlreadyExists(err) {
		return err
	}
	return nil
}
