package content

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tmair/boardsync/internal/model"
)

func textItem(content string) model.ClipboardItem {
	item := model.ClipboardItem{ID: "x1", ContentType: "text/plain"}
	item.SetContent([]byte(content))
	return item
}

func TestRegistryValidatesText(t *testing.T) {
	r := NewRegistry()

	require.NoError(t, r.Validate(textItem("hello")))

	err := r.Validate(textItem(""))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty")
}

func TestRegistryRejectsOversizedText(t *testing.T) {
	r := NewRegistry()
	big := strings.Repeat("a", maxTextBytes+1)
	err := r.Validate(textItem(big))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds")
}

func TestRegistryValidatesImage(t *testing.T) {
	r := NewRegistry()
	item := model.ClipboardItem{ID: "x1", ContentType: "image/png"}
	item.SetContent([]byte{0x89, 0x50, 0x4e, 0x47})

	require.NoError(t, r.Validate(item))
}

func TestRegistryRejectsEmptyImage(t *testing.T) {
	r := NewRegistry()
	item := model.ClipboardItem{ID: "x1", ContentType: "image/png"}
	item.SetContent(nil)

	err := r.Validate(item)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty")
}

func TestRegistryValidatesFileList(t *testing.T) {
	r := NewRegistry()
	item := model.ClipboardItem{ID: "x1", ContentType: "application/x-file-list"}
	item.SetContent([]byte(`["/home/user/a.txt"]`))

	require.NoError(t, r.Validate(item))
}

func TestRegistryRejectsUnsupportedContentType(t *testing.T) {
	r := NewRegistry()
	item := model.ClipboardItem{ID: "x1", ContentType: "application/octet-stream"}
	item.SetContent([]byte("data"))

	err := r.Validate(item)
	require.Error(t, err)
	var unsupported *UnsupportedTypeError
	assert.ErrorAs(t, err, &unsupported)
}

func TestRegistryRejectsInvalidBase64(t *testing.T) {
	r := NewRegistry()
	item := model.ClipboardItem{ID: "x1", ContentType: "image/png", Content: "not-valid-base64!!"}

	err := r.Validate(item)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "base64")
}
