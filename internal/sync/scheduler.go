package sync

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/tmair/boardsync/internal/bridge"
	"github.com/tmair/boardsync/internal/clipsource"
	"github.com/tmair/boardsync/internal/merge"
	"github.com/tmair/boardsync/internal/oplog"
	"github.com/tmair/boardsync/internal/storage"
)

// Intervals bundles the three periodic task periods a Scheduler drives.
// Separate intervals exist because the three tasks have very different
// costs: a pull is one List call, a compact-check contends for a
// cross-device lock, and an upload-drain is purely local I/O.
type Intervals struct {
	Pull         time.Duration
	CompactCheck time.Duration
	UploadDrain  time.Duration

	// CompactThreshold and CompactMaxAge are the two automatic triggers
	// checked on every CompactCheck tick: compact once the oplog holds
	// more than CompactThreshold entries, or once CompactMaxAge has
	// passed since the last compaction, whichever comes first.
	CompactThreshold int
	CompactMaxAge    time.Duration
}

// DefaultIntervals matches TailClip's default clipboard poll cadence
// for the upload drain (fast, since it's local) while pulling and
// compacting — both of which cost a round trip to the storage backend —
// run less often.
func DefaultIntervals() Intervals {
	return Intervals{
		Pull:             15 * time.Second,
		CompactCheck:     5 * time.Minute,
		UploadDrain:      2 * time.Second,
		CompactThreshold: 200,
		CompactMaxAge:    24 * time.Hour,
	}
}

// Status summarizes the scheduler's state for get_sync_status.
type Status struct {
	LastPullAt     time.Time
	LastUploadAt   time.Time
	LastCompactAt  time.Time
	PendingUploads int
	ItemCount      int
	Syncing        bool
	LastError      string
}

// Scheduler owns the three periodic sync tasks (pull, compact-check,
// upload-drain) plus on-demand sync_now: one select over several
// tickers, a local-change channel, and a reply channel for sync_now.
type Scheduler struct {
	deviceID  string
	source    clipsource.Source
	merger    *merge.Merger
	writer    *oplog.Writer
	queue     *oplog.Queue
	bridge    *bridge.Bridge
	intervals Intervals
	log       *zap.Logger

	mu        sync.Mutex
	driver    storage.Driver
	puller    *Puller
	uploader  *Uploader
	compactor *Compactor
	status    Status

	syncNow chan chan error
}

// New creates a Scheduler wiring together every component one device
// needs to stay in sync: the puller, uploader, compactor, local
// clipboard source, merger, local oplog writer, and local-store bridge.
// bridge may be nil, in which case change events are folded into the
// merger but never reach a local store or notifier.
func New(driver storage.Driver, merger *merge.Merger, writer *oplog.Writer, queue *oplog.Queue, source clipsource.Source, b *bridge.Bridge, deviceID string, intervals Intervals, log *zap.Logger) *Scheduler {
	s := &Scheduler{
		deviceID:  deviceID,
		source:    source,
		merger:    merger,
		writer:    writer,
		queue:     queue,
		bridge:    b,
		intervals: intervals,
		log:       log,
		syncNow:   make(chan chan error),
	}
	s.setDriverLocked(driver)
	return s
}

func (s *Scheduler) setDriverLocked(driver storage.Driver) {
	s.driver = driver
	s.puller = NewPuller(driver, s.merger, s.deviceID)
	s.uploader = NewUploader(driver, s.queue, s.deviceID)
	s.compactor = NewCompactor(driver, s.merger, s.deviceID, s.log)
}

// Reconfigure swaps the storage backend the scheduler syncs against,
// for the control surface's configure_storage command. In-flight
// operations against the old driver are left to finish; only
// subsequent pull/upload/compact cycles use the new one.
func (s *Scheduler) Reconfigure(driver storage.Driver) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setDriverLocked(driver)
}

func (s *Scheduler) components() (*Puller, *Uploader, *Compactor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.puller, s.uploader, s.compactor
}

// Run drives the scheduler's loop until ctx is cancelled. It blocks, so
// callers run it in its own goroutine.
func (s *Scheduler) Run(ctx context.Context) {
	pullTicker := time.NewTicker(s.intervals.Pull)
	defer pullTicker.Stop()
	compactTicker := time.NewTicker(s.intervals.CompactCheck)
	defer compactTicker.Stop()
	uploadTicker := time.NewTicker(s.intervals.UploadDrain)
	defer uploadTicker.Stop()

	changes := s.source.Watch(ctx)

	for {
		select {
		case <-ctx.Done():
			return

		case change, ok := <-changes:
			if !ok {
				changes = nil
				continue
			}
			s.setSyncing(true)
			s.handleLocalChange(ctx, change)
			s.setSyncing(false)

		case <-pullTicker.C:
			s.setSyncing(true)
			s.doPull(ctx)
			s.setSyncing(false)

		case <-uploadTicker.C:
			s.setSyncing(true)
			s.doUpload(ctx)
			s.setSyncing(false)

		case <-compactTicker.C:
			s.setSyncing(true)
			s.doCompact(ctx, false)
			s.setSyncing(false)

		case reply := <-s.syncNow:
			s.setSyncing(true)
			err := s.runFullSync(ctx)
			s.setSyncing(false)
			reply <- err
		}
	}
}

// Flush drains any still-pending local uploads after Run has returned.
// It is meant to be called with a bounded-grace-period context during
// shutdown: Run's select loop stops reacting to tickers the moment its
// ctx is cancelled, which would otherwise strand locally-authored
// operations that hadn't made it to the bulletin board yet.
func (s *Scheduler) Flush(ctx context.Context) error {
	return s.doUpload(ctx)
}

// SyncNow triggers an immediate upload-pull-compact cycle and blocks
// until it finishes, backing the control surface's sync_now command.
func (s *Scheduler) SyncNow(ctx context.Context) error {
	reply := make(chan error, 1)
	select {
	case s.syncNow <- reply:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) runFullSync(ctx context.Context) error {
	if err := s.doUpload(ctx); err != nil {
		return err
	}
	if err := s.doPull(ctx); err != nil {
		return err
	}
	s.doCompact(ctx, true)
	return nil
}

func (s *Scheduler) handleLocalChange(ctx context.Context, change clipsource.Change) {
	item := newLocalItem(change)
	op, err := s.writer.Add(item)
	if err != nil {
		s.log.Warn("failed to enqueue local clipboard change", zap.Error(err))
		s.recordError(err)
		return
	}
	if event, changed := s.merger.Apply(op); changed && s.bridge != nil {
		s.bridge.Handle(ctx, event)
	}
	s.doUpload(ctx)
}

func (s *Scheduler) doPull(ctx context.Context) error {
	puller, _, _ := s.components()
	events, err := puller.Pull(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.status.LastError = err.Error()
		s.log.Warn("pull failed", zap.Error(err))
		return err
	}
	s.status.LastPullAt = time.Now()
	if s.bridge != nil {
		s.bridge.HandleAll(ctx, events)
	}
	return nil
}

func (s *Scheduler) doUpload(ctx context.Context) error {
	_, uploader, _ := s.components()
	_, err := uploader.Drain(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.status.LastError = err.Error()
		s.log.Warn("upload drain failed", zap.Error(err))
		return err
	}
	s.status.LastUploadAt = time.Now()
	return nil
}

// doCompact runs a compaction attempt. Unless force is set (the
// explicit-manual-request trigger, via sync_now), it first checks
// whether the oplog-size or max-age trigger has actually fired, so a
// routine CompactCheck tick against a quiet oplog is a no-op rather than
// an unconditional lock/list/publish round trip.
func (s *Scheduler) doCompact(ctx context.Context, force bool) {
	_, _, compactor := s.components()

	if !force {
		s.mu.Lock()
		lastCompactAt := s.status.LastCompactAt
		s.mu.Unlock()

		should, err := compactor.ShouldCompact(ctx, s.intervals.CompactThreshold, s.intervals.CompactMaxAge, lastCompactAt)
		if err != nil {
			s.recordError(err)
			s.log.Warn("compact threshold check failed", zap.Error(err))
			return
		}
		if !should {
			return
		}
	}

	ran, err := compactor.Compact(ctx)
	if err != nil {
		s.recordError(err)
		s.log.Warn("compaction failed", zap.Error(err))
		return
	}
	if ran {
		s.mu.Lock()
		s.status.LastCompactAt = time.Now()
		s.mu.Unlock()
	}
}

func (s *Scheduler) recordError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status.LastError = err.Error()
}

func (s *Scheduler) setSyncing(v bool) {
	s.mu.Lock()
	s.status.Syncing = v
	s.mu.Unlock()
}

// Status returns a snapshot of the scheduler's current status,
// including how many locally-authored operations are still waiting to
// be uploaded and how many items are currently visible.
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	status := s.status
	s.mu.Unlock()

	status.PendingUploads = len(s.queue.Pending())
	status.ItemCount = len(s.merger.Items())
	return status
}
