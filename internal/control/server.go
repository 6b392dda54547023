package control

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	stdsync "sync"
	"time"

	"go.uber.org/zap"

	"github.com/tmair/boardsync/internal/storage"
	boardsync "github.com/tmair/boardsync/internal/sync"
)

// Syncer is the subset of the scheduler the control surface needs.
type Syncer interface {
	SyncNow(ctx context.Context) error
	Status() boardsync.Status
	Reconfigure(driver storage.Driver)
}

// Server implements the local Unix-socket control API: one
// newline-delimited JSON request per connection, one JSON response
// back.
type Server struct {
	socketPath string
	syncer     Syncer
	log        *zap.Logger

	mu       stdsync.Mutex
	listener net.Listener
	wg       stdsync.WaitGroup
}

// NewServer creates a control Server listening at socketPath once
// Start is called.
func NewServer(socketPath string, syncer Syncer, log *zap.Logger) *Server {
	return &Server{socketPath: socketPath, syncer: syncer, log: log}
}

// Start begins listening on the Unix domain socket.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.socketPath), 0o700); err != nil {
		return fmt.Errorf("control: create socket dir: %w", err)
	}
	_ = os.Remove(s.socketPath)

	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("control: listen on %s: %w", s.socketPath, err)
	}
	if err := os.Chmod(s.socketPath, 0o600); err != nil {
		_ = listener.Close()
		return fmt.Errorf("control: set socket permissions: %w", err)
	}

	s.listener = listener
	s.wg.Add(1)
	go s.acceptLoop()
	return nil
}

// Stop closes the listener and waits for in-flight connections to
// finish, up to a grace period.
func (s *Server) Stop() error {
	s.mu.Lock()
	listener := s.listener
	s.mu.Unlock()

	if listener != nil {
		if err := listener.Close(); err != nil && !isClosedNetworkError(err) {
			return fmt.Errorf("control: close listener: %w", err)
		}
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		return fmt.Errorf("control: shutdown timeout")
	}

	_ = os.Remove(s.socketPath)
	return nil
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if isClosedNetworkError(err) {
				return
			}
			s.log.Error("control: accept failed", zap.Error(err))
			continue
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleConnection(conn)
		}()
	}
}

func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(30 * time.Second))

	reader := bufio.NewReader(conn)
	line, err := reader.ReadString('\n')
	if err != nil {
		s.writeResponse(conn, fail(fmt.Errorf("control: read request: %w", err)))
		return
	}

	req, err := ParseRequest([]byte(strings.TrimSpace(line)))
	if err != nil {
		s.writeResponse(conn, fail(err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	s.writeResponse(conn, s.dispatch(ctx, req))
}

func (s *Server) dispatch(ctx context.Context, req Request) Response {
	switch req.Command {
	case CommandSyncNow:
		if err := s.syncer.SyncNow(ctx); err != nil {
			return fail(err)
		}
		return ok(nil)

	case CommandGetSyncStatus:
		snap := s.syncer.Status()
		return ok(&StatusPayload{
			ItemCount:      snap.ItemCount,
			IsSyncing:      snap.Syncing,
			LastPullAt:     formatTime(snap.LastPullAt),
			LastUploadAt:   formatTime(snap.LastUploadAt),
			LastCompactAt:  formatTime(snap.LastCompactAt),
			PendingUploads: snap.PendingUploads,
			LastError:      snap.LastError,
		})

	case CommandConfigureStorage:
		if req.Storage == nil {
			return fail(fmt.Errorf("control: configure_storage requires a storage config"))
		}
		driver, err := storage.New(ctx, *req.Storage)
		if err != nil {
			return fail(err)
		}
		s.syncer.Reconfigure(driver)
		return ok(nil)

	case CommandTestStorageConnection:
		if req.Storage == nil {
			return fail(fmt.Errorf("control: test_storage_connection requires a storage config"))
		}
		if err := storage.TestConnection(ctx, *req.Storage); err != nil {
			return fail(err)
		}
		return ok(nil)

	default:
		return fail(fmt.Errorf("control: unknown command %q", req.Command))
	}
}

func (s *Server) writeResponse(conn net.Conn, resp Response) {
	data, err := json.Marshal(resp)
	if err != nil {
		return
	}
	data = append(data, '\n')
	_, _ = conn.Write(data)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

func isClosedNetworkError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "use of closed network connection")
}
