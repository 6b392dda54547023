// Package model defines the wire and in-memory data structures shared by
// every component of the sync engine: clipboard items, operations, and
// snapshots.
package model

import (
	"encoding/base64"
	"time"
)

// ItemMetadata carries provenance about a ClipboardItem that is useful for
// display and debugging but never participates in merge decisions.
type ItemMetadata struct {
	SourceDevice string  `json:"source_device"`
	SourceApp    *string `json:"source_app,omitempty"`
	ContentHash  *string `json:"content_hash,omitempty"`
}

// ClipboardItem is the authoritative representation of one piece of
// clipboard content.
//
// Content holds the wire-ready form: for a textual ContentType it is the
// raw UTF-8 text, for anything else it is base64. Callers should go
// through SetContent/DecodedContent rather than touching Content directly
// so the encoding always matches ContentType.
type ClipboardItem struct {
	ID          string       `json:"id"`
	ContentType string       `json:"content_type"`
	Content     string       `json:"content"`
	CreatedAt   time.Time    `json:"created_at"`
	Metadata    ItemMetadata `json:"metadata"`
}

// IsTextual reports whether content_type names a type the wire format
// carries as raw text rather than base64.
func IsTextual(contentType string) bool {
	switch contentType {
	case "text/plain", "text/html", "text/uri-list":
		return true
	default:
		return false
	}
}

// SetContent encodes raw bytes into Content according to ContentType.
func (c *ClipboardItem) SetContent(raw []byte) {
	if IsTextual(c.ContentType) {
		c.Content = string(raw)
		return
	}
	c.Content = base64.StdEncoding.EncodeToString(raw)
}

// DecodedContent returns the raw bytes behind Content, undoing whatever
// encoding ContentType implies.
func (c *ClipboardItem) DecodedContent() ([]byte, error) {
	if IsTextual(c.ContentType) {
		return []byte(c.Content), nil
	}
	return base64.StdEncoding.DecodeString(c.Content)
}
