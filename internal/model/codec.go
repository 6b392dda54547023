package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// CurrentVersion is the default value of the optional version field on
// every wire envelope. Bumping it is how the format would signal a
// breaking change to readers that care to check.
const CurrentVersion = 1

// MarshalOperation serializes op into the canonical wire form: the
// Operation's own fields plus a top-level version field.
func MarshalOperation(op Operation) ([]byte, error) {
	return marshalVersioned(op)
}

// UnmarshalOperation parses data into an Operation, rejecting unknown
// top-level fields so a newer wire format never silently decodes into
// a stale struct on an older device.
func UnmarshalOperation(data []byte) (Operation, error) {
	var op Operation
	if err := unmarshalVersioned(data, &op); err != nil {
		return Operation{}, err
	}
	return op, nil
}

// MarshalSnapshot serializes snap into the canonical wire form.
func MarshalSnapshot(snap Snapshot) ([]byte, error) {
	return marshalVersioned(snap)
}

// UnmarshalSnapshot parses data into a Snapshot, rejecting unknown
// top-level fields.
func UnmarshalSnapshot(data []byte) (Snapshot, error) {
	var snap Snapshot
	if err := unmarshalVersioned(data, &snap); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

// marshalVersioned flattens T's fields alongside a version field by
// round-tripping through a map, since Go has no struct embedding trick
// that adds a sibling field to an arbitrary already-defined struct type
// without changing that struct.
func marshalVersioned(v any) ([]byte, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal body: %w", err)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, fmt.Errorf("flatten body: %w", err)
	}
	if _, ok := fields["version"]; !ok {
		versioned, err := json.Marshal(CurrentVersion)
		if err != nil {
			return nil, err
		}
		fields["version"] = versioned
	}
	return json.Marshal(fields)
}

// unmarshalVersioned decodes data into v, rejecting any top-level field
// that v's JSON tags (plus "version") do not recognize.
func unmarshalVersioned(data []byte, v any) error {
	// DisallowUnknownFields would also reject "version" since it has no
	// corresponding struct field on Operation/Snapshot. Strip it first by
	// decoding into a generic map, removing version, then re-encoding.
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode envelope: %w", err)
	}
	delete(raw, "version")

	stripped, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("re-encode envelope: %w", err)
	}

	strict := json.NewDecoder(bytes.NewReader(stripped))
	strict.DisallowUnknownFields()
	if err := strict.Decode(v); err != nil {
		return fmt.Errorf("decode body: %w", err)
	}
	return nil
}
