// Package content validates clipboard items per content_type before
// they are allowed into the oplog. Each content type's validation
// rules live in their own handler so a new content type (Phase 2:
// images; Phase 3: file lists) is added by registering a new handler
// rather than growing a single switch statement.
package content

import "github.com/tmair/boardsync/internal/model"

// Handler validates clipboard items of one content_type.
type Handler interface {
	// CanHandle reports whether this handler owns contentType.
	CanHandle(contentType string) bool

	// Validate checks item's decoded content against this type's
	// rules, returning a descriptive error if it should be rejected.
	Validate(item model.ClipboardItem) error
}

// Registry dispatches a ClipboardItem to the Handler that owns its
// content_type.
type Registry struct {
	handlers []Handler
}

// NewRegistry builds a Registry covering every content type this
// device understands: text, images, and file-list references.
func NewRegistry() *Registry {
	return &Registry{handlers: []Handler{
		NewTextHandler(),
		NewBinaryHandler("image/png", maxImageBytes),
		NewBinaryHandler("application/x-file-list", maxFileListBytes),
	}}
}

// Validate finds the handler for item's content_type and runs it,
// rejecting any content_type no handler claims.
func (r *Registry) Validate(item model.ClipboardItem) error {
	for _, h := range r.handlers {
		if h.CanHandle(item.ContentType) {
			return h.Validate(item)
		}
	}
	return &UnsupportedTypeError{ContentType: item.ContentType}
}

// UnsupportedTypeError is returned for a content_type no registered
// Handler claims.
type UnsupportedTypeError struct {
	ContentType string
}

func (e *UnsupportedTypeError) Error() string {
	return "content: unsupported content_type " + e.ContentType
}
