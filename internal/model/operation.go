package model

import "time"

// OpType is the kind of mutation an Operation records.
type OpType string

const (
	OpAdd    OpType = "ADD"
	OpDelete OpType = "DELETE"
)

// Operation is one immutable entry in a device's oplog. Payload is set
// only for ADD; DELETE carries nothing but the target id.
type Operation struct {
	OpID      string         `json:"op_id"`
	OpType    OpType         `json:"op_type"`
	TargetID  string         `json:"target_id"`
	Timestamp time.Time      `json:"timestamp"`
	DeviceID  string         `json:"device_id"`
	Payload   *ClipboardItem `json:"payload,omitempty"`
}

// Dominates reports whether a should win over b under last-writer-wins:
// later timestamp wins; on a timestamp tie, the lexicographically
// greater device_id wins; on a full tie, the lexicographically greater
// op_id wins. The tie-break chain exists because two devices with
// synchronized clocks can independently produce operations on the same
// target — without it, merge order could diverge between devices.
func (a Operation) Dominates(b Operation) bool {
	if !a.Timestamp.Equal(b.Timestamp) {
		return a.Timestamp.After(b.Timestamp)
	}
	if a.DeviceID != b.DeviceID {
		return a.DeviceID > b.DeviceID
	}
	return a.OpID > b.OpID
}

// NewAdd constructs an ADD operation for item, originating from deviceID.
func NewAdd(opID string, item ClipboardItem, deviceID string, now time.Time) Operation {
	return Operation{
		OpID:      opID,
		OpType:    OpAdd,
		TargetID:  item.ID,
		Timestamp: now,
		DeviceID:  deviceID,
		Payload:   &item,
	}
}

// NewDelete constructs a DELETE operation against targetID.
func NewDelete(opID, targetID, deviceID string, now time.Time) Operation {
	return Operation{
		OpID:      opID,
		OpType:    OpDelete,
		TargetID:  targetID,
		Timestamp: now,
		DeviceID:  deviceID,
	}
}
