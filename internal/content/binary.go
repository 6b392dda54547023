package content

import (
	"fmt"

	"github.com/tmair/boardsync/internal/model"
)

// maxImageBytes and maxFileListBytes bound the decoded size of the two
// base64-carried content types. Images get more headroom than a file
// listing, which is just paths and metadata, not file bytes.
const (
	maxImageBytes    = 20 * 1024 * 1024
	maxFileListBytes = 256 * 1024
)

// BinaryHandler validates a single base64-encoded content type against
// a byte-length cap.
type BinaryHandler struct {
	contentType string
	maxBytes    int
}

// NewBinaryHandler creates a BinaryHandler for contentType, rejecting
// decoded payloads over maxBytes.
func NewBinaryHandler(contentType string, maxBytes int) *BinaryHandler {
	return &BinaryHandler{contentType: contentType, maxBytes: maxBytes}
}

func (h *BinaryHandler) CanHandle(contentType string) bool {
	return contentType == h.contentType
}

func (h *BinaryHandler) Validate(item model.ClipboardItem) error {
	raw, err := item.DecodedContent()
	if err != nil {
		return fmt.Errorf("content: %s item is not valid base64: %w", h.contentType, err)
	}
	if len(raw) == 0 {
		return fmt.Errorf("content: %s item is empty", h.contentType)
	}
	if len(raw) > h.maxBytes {
		return fmt.Errorf("content: %s item exceeds %d bytes", h.contentType, h.maxBytes)
	}
	return nil
}
