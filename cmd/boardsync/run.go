package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tmair/boardsync/internal/bridge"
	"github.com/tmair/boardsync/internal/clipsource"
	"github.com/tmair/boardsync/internal/config"
	"github.com/tmair/boardsync/internal/control"
	"github.com/tmair/boardsync/internal/identity"
	"github.com/tmair/boardsync/internal/localstore"
	"github.com/tmair/boardsync/internal/merge"
	"github.com/tmair/boardsync/internal/notify"
	"github.com/tmair/boardsync/internal/oplog"
	"github.com/tmair/boardsync/internal/storage"
	boardsync "github.com/tmair/boardsync/internal/sync"
)

// shutdownGrace bounds how long runDaemon waits for the upload queue to
// drain once a shutdown signal arrives. The control server's own Stop
// applies its own separate timeout.
const shutdownGrace = 10 * time.Second

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the sync daemon in the foreground",
	RunE:  runDaemon,
}

func runDaemon(cmd *cobra.Command, args []string) error {
	log, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("run: build logger: %w", err)
	}
	defer log.Sync()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("run: load config: %w", err)
	}

	// device_id and user_id are both required before the scheduler is
	// allowed to start; Validate already checked user_id, and a failed
	// LoadOrCreate here covers the unwritable-device_id_path case.
	deviceID, err := identity.LoadOrCreate(cfg.DeviceIDPath)
	if err != nil {
		return fmt.Errorf("run: load device id: %w", err)
	}
	log.Info("device identity resolved", zap.String("device_id", deviceID), zap.String("user_id", cfg.UserID))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	driver, err := storage.New(ctx, cfg.StorageConfig())
	if err != nil {
		return fmt.Errorf("run: build storage driver: %w", err)
	}

	queue, err := oplog.Open(cfg.OplogDir)
	if err != nil {
		return fmt.Errorf("run: open oplog: %w", err)
	}
	writer := oplog.NewWriter(deviceID, queue)
	merger := merge.New()

	store, err := localstore.Open(cfg.LocalStorePath)
	if err != nil {
		return fmt.Errorf("run: open local store: %w", err)
	}
	defer store.Close()

	var notifier notify.Notifier = notify.Disabled{}
	if cfg.NotifyEnabled {
		notifier = notify.NewNotifier("boardsync")
	}
	source := clipsource.NewPoller(1*time.Second, log)
	b := bridge.New(store, source, notifier, deviceID, log)

	intervals := boardsync.Intervals{
		Pull:             cfg.SyncInterval(),
		CompactCheck:     5 * time.Minute,
		UploadDrain:      2 * time.Second,
		CompactThreshold: cfg.CompactThreshold,
		CompactMaxAge:    24 * time.Hour,
	}
	scheduler := boardsync.New(driver, merger, writer, queue, source, b, deviceID, intervals, log)

	server := control.NewServer(cfg.ControlSocketPath, scheduler, log)
	if err := server.Start(); err != nil {
		return fmt.Errorf("run: start control server: %w", err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	schedulerDone := make(chan struct{})
	go func() {
		defer close(schedulerDone)
		scheduler.Run(ctx)
	}()

	log.Info("boardsync daemon started", zap.String("socket", cfg.ControlSocketPath))

	sig := <-sigCh
	log.Info("received shutdown signal, draining", zap.String("signal", sig.String()))

	cancel()
	<-schedulerDone

	flushCtx, flushCancel := context.WithTimeout(context.Background(), shutdownGrace)
	if err := scheduler.Flush(flushCtx); err != nil {
		log.Warn("final upload drain failed", zap.Error(err))
	}
	flushCancel()

	if err := server.Stop(); err != nil {
		log.Warn("control server shutdown failed", zap.Error(err))
	}

	log.Info("boardsync daemon stopped")
	return nil
}
