package content

import (
	"fmt"
	"strings"

	"github.com/tmair/boardsync/internal/model"
)

// maxTextBytes bounds plain-text clipboard content. 1MB is generous
// for text while protecting against an accidental binary paste with a
// textual content_type.
const maxTextBytes = 1 * 1024 * 1024

// TextHandler validates the textual content types: text/plain,
// text/html, text/uri-list.
type TextHandler struct{}

// NewTextHandler creates a TextHandler.
func NewTextHandler() *TextHandler {
	return &TextHandler{}
}

func (h *TextHandler) CanHandle(contentType string) bool {
	return model.IsTextual(contentType)
}

// Validate rejects empty or oversized text. Empty text is almost
// always a clipboard-clear event rather than content worth syncing.
func (h *TextHandler) Validate(item model.ClipboardItem) error {
	if strings.TrimSpace(item.Content) == "" {
		return fmt.Errorf("content: %s item is empty", item.ContentType)
	}
	if len(item.Content) > maxTextBytes {
		return fmt.Errorf("content: %s item exceeds %d bytes", item.ContentType, maxTextBytes)
	}
	return nil
}
