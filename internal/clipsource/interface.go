// Package clipsource watches the local system clipboard for changes and
// turns them into ClipboardItem-shaped events the merge engine can apply
// as local ADD operations.
package clipsource

import (
	"context"
	"errors"

	"github.com/tmair/boardsync/internal/model"
)

// ErrNotSupported indicates the platform has no working clipboard
// backend.
var ErrNotSupported = errors.New("clipsource: platform not supported")

// Change is one observed clipboard update.
type Change struct {
	ContentType string
	Raw         []byte
}

// Source watches the system clipboard and reports changes. Write pushes
// merged content back onto the clipboard so the device displays what
// sync decided the current item is, without that write being mistaken
// for a new local change.
type Source interface {
	// Watch emits a Change whenever the clipboard content differs from
	// what this Source last saw, including the content present at
	// startup. The channel closes when ctx is cancelled.
	Watch(ctx context.Context) <-chan Change

	// Write sets the system clipboard and records the write so the
	// next poll does not re-report it as a local change.
	Write(ctx context.Context, item model.ClipboardItem) error
}
