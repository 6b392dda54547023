package merge

import "github.com/tmair/boardsync/internal/model"

// EventKind classifies how a merge changed the visible item set.
type EventKind int

const (
	ItemAdded EventKind = iota
	ItemReplaced
	ItemRemoved
)

// ChangeEvent is emitted whenever applying an operation (or a snapshot)
// changes what Items() would return, so subscribers like the local-store
// bridge only do work on actual changes rather than re-deriving state on
// every operation.
type ChangeEvent struct {
	Kind EventKind
	Item model.ClipboardItem
	// TargetID is set on ItemRemoved, where Item is the zero value.
	TargetID string
	// DeviceID is the id of the device whose operation caused this
	// event, letting subscribers tell local-origin changes apart from
	// remote ones without the item itself carrying that information.
	DeviceID string
}
