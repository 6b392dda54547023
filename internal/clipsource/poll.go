package clipsource

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"github.com/atotto/clipboard"
	"go.uber.org/zap"

	"github.com/tmair/boardsync/internal/model"
)

// Poller implements Source by polling the system clipboard at a fixed
// interval, the same tradeoff TailClip's agent makes: Linux/Wayland has
// no portable clipboard-change notification API, so polling is the only
// strategy that behaves the same way on every platform.
type Poller struct {
	interval time.Duration
	log      *zap.Logger

	mu         sync.Mutex
	lastHash   string
	ownWriteAt time.Time
}

// NewPoller creates a Poller that checks the clipboard every interval.
func NewPoller(interval time.Duration, log *zap.Logger) *Poller {
	return &Poller{interval: interval, log: log}
}

func (p *Poller) Watch(ctx context.Context) <-chan Change {
	out := make(chan Change)

	go func() {
		defer close(out)
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if change, ok := p.poll(); ok {
					select {
					case out <- change:
					case <-ctx.Done():
						return
					}
				}
			}
		}
	}()

	return out
}

func (p *Poller) poll() (Change, bool) {
	text, err := clipboard.ReadAll()
	if err != nil {
		// Clipboard read failures are usually transient (another app
		// holding the platform clipboard lock, or nothing ever copied
		// yet) so they are logged rather than surfaced to the caller.
		p.log.Debug("clipboard read failed", zap.Error(err))
		return Change{}, false
	}
	if text == "" {
		return Change{}, false
	}

	raw := []byte(text)
	hash := hashOf(raw)

	p.mu.Lock()
	defer p.mu.Unlock()

	if hash == p.lastHash {
		return Change{}, false
	}
	// A write we just performed ourselves (from Write below) will show
	// up on the next poll; skip it so it is not re-reported as a fresh
	// local change and re-uploaded as a new operation.
	if !p.ownWriteAt.IsZero() && time.Since(p.ownWriteAt) < p.interval*2 {
		p.lastHash = hash
		p.ownWriteAt = time.Time{}
		return Change{}, false
	}

	p.lastHash = hash
	return Change{ContentType: "text/plain", Raw: raw}, true
}

func (p *Poller) Write(_ context.Context, item model.ClipboardItem) error {
	raw, err := item.DecodedContent()
	if err != nil {
		return err
	}

	p.mu.Lock()
	p.lastHash = hashOf(raw)
	p.ownWriteAt = time.Now()
	p.mu.Unlock()

	if err := clipboard.WriteAll(string(raw)); err != nil {
		p.log.Warn("clipboard write failed", zap.Error(err))
		return err
	}
	return nil
}

func hashOf(raw []byte) string {
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}
