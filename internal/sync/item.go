package sync

import (
	"time"

	"github.com/google/uuid"

	"github.com/tmair/boardsync/internal/clipsource"
	"github.com/tmair/boardsync/internal/model"
)

// newLocalItem builds a ClipboardItem for a freshly observed local
// clipboard change, assigning it a new id since the clipboard itself
// carries no identity of its own.
func newLocalItem(change clipsource.Change) model.ClipboardItem {
	item := model.ClipboardItem{
		ID:          uuid.NewString(),
		ContentType: change.ContentType,
		CreatedAt:   time.Now(),
	}
	item.SetContent(change.Raw)
	return item
}
