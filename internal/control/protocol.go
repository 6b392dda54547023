// Package control implements the local Unix-socket control surface:
// one line of JSON request in, one line of JSON response out, for
// sync_now, get_sync_status, configure_storage, and
// test_storage_connection.
package control

import (
	"encoding/json"
	"fmt"

	"github.com/tmair/boardsync/internal/storage"
)

// Command names the control surface understands.
type Command string

const (
	CommandSyncNow               Command = "sync_now"
	CommandGetSyncStatus         Command = "get_sync_status"
	CommandConfigureStorage      Command = "configure_storage"
	CommandTestStorageConnection Command = "test_storage_connection"
)

// Request is the JSON shape sent on one line by a client.
type Request struct {
	Command Command         `json:"command"`
	Storage *storage.Config `json:"storage,omitempty"`
}

// Response is the JSON shape returned on one line to a client.
type Response struct {
	OK     bool           `json:"ok"`
	Error  string         `json:"error,omitempty"`
	Status *StatusPayload `json:"status,omitempty"`
}

// StatusPayload is the get_sync_status response body.
type StatusPayload struct {
	ItemCount      int    `json:"item_count"`
	IsSyncing      bool   `json:"is_syncing"`
	LastPullAt     string `json:"last_pull_at,omitempty"`
	LastUploadAt   string `json:"last_upload_at,omitempty"`
	LastCompactAt  string `json:"last_compact_at,omitempty"`
	PendingUploads int    `json:"pending_uploads"`
	LastError      string `json:"last_error,omitempty"`
}

// ParseRequest decodes one line of client input.
func ParseRequest(line []byte) (Request, error) {
	var req Request
	if err := json.Unmarshal(line, &req); err != nil {
		return Request{}, fmt.Errorf("control: parse request: %w", err)
	}
	if req.Command == "" {
		return Request{}, fmt.Errorf("control: missing command")
	}
	return req, nil
}

func ok(status *StatusPayload) Response {
	return Response{OK: true, Status: status}
}

func fail(err error) Response {
	return Response{OK: false, Error: err.Error()}
}
