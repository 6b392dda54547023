package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/tmair/boardsync/internal/config"
	"github.com/tmair/boardsync/internal/control"
	"github.com/tmair/boardsync/internal/storage"
)

const clientTimeout = 30 * time.Second

var storageConfigFlag string

var syncNowCmd = &cobra.Command{
	Use:   "sync",
	Short: "Trigger an immediate sync cycle and wait for it to finish",
	Run: func(cmd *cobra.Command, args []string) {
		resp := send(control.Request{Command: control.CommandSyncNow})
		if !resp.OK {
			exitError("sync_now failed: %s", resp.Error)
		}
		fmt.Println("sync complete")
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report the daemon's current sync status",
	Run: func(cmd *cobra.Command, args []string) {
		resp := send(control.Request{Command: control.CommandGetSyncStatus})
		if !resp.OK {
			exitError("get_sync_status failed: %s", resp.Error)
		}
		printStatus(resp.Status)
	},
}

var configureStorageCmd = &cobra.Command{
	Use:   "configure-storage",
	Short: "Swap the daemon's storage backend without restarting it",
	Run: func(cmd *cobra.Command, args []string) {
		sc := loadStorageConfigFlag()
		resp := send(control.Request{Command: control.CommandConfigureStorage, Storage: &sc})
		if !resp.OK {
			exitError("configure_storage failed: %s", resp.Error)
		}
		fmt.Println("storage backend reconfigured")
	},
}

var testConnectionCmd = &cobra.Command{
	Use:   "test-connection",
	Short: "Probe a storage backend (put/get/delete) without adopting it",
	Run: func(cmd *cobra.Command, args []string) {
		sc := loadStorageConfigFlag()
		resp := send(control.Request{Command: control.CommandTestStorageConnection, Storage: &sc})
		if !resp.OK {
			exitError("test_storage_connection failed: %s", resp.Error)
		}
		fmt.Println("storage connection ok")
	},
}

func init() {
	for _, cmd := range []*cobra.Command{configureStorageCmd, testConnectionCmd} {
		cmd.Flags().StringVar(&storageConfigFlag, "storage-config", "", "path to a JSON file with the backend config to apply")
		_ = cmd.MarkFlagRequired("storage-config")
	}
}

// loadStorageConfigFlag reads the daemon's config file for its user_id
// and retry_attempts, then overlays the backend section from
// --storage-config on top, so configure-storage/test-connection only
// need to specify the backend itself.
func loadStorageConfigFlag() storage.Config {
	cfg, err := config.Load(configPath)
	if err != nil {
		exitError("load config: %v", err)
	}

	data, err := os.ReadFile(storageConfigFlag)
	if err != nil {
		exitError("read storage config %s: %v", storageConfigFlag, err)
	}

	var backend config.BackendConfig
	if err := json.Unmarshal(data, &backend); err != nil {
		exitError("parse storage config %s: %v", storageConfigFlag, err)
	}

	merged := cfg
	merged.Backend = backend
	return merged.StorageConfig()
}

func send(req control.Request) control.Response {
	cfg, err := config.Load(configPath)
	if err != nil {
		exitError("load config: %v", err)
	}

	conn, err := net.DialTimeout("unix", cfg.ControlSocketPath, clientTimeout)
	if err != nil {
		exitError("connect to daemon at %s: %v (is it running?)", cfg.ControlSocketPath, err)
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(clientTimeout))

	data, err := json.Marshal(req)
	if err != nil {
		exitError("encode request: %v", err)
	}
	if _, err := conn.Write(append(data, '\n')); err != nil {
		exitError("send request: %v", err)
	}

	line, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil {
		exitError("read response: %v", err)
	}

	var resp control.Response
	if err := json.Unmarshal([]byte(line), &resp); err != nil {
		exitError("decode response: %v", err)
	}
	return resp
}

func printStatus(s *control.StatusPayload) {
	if s == nil {
		fmt.Println("no status available")
		return
	}
	fmt.Printf("items:           %d\n", s.ItemCount)
	fmt.Printf("syncing:         %t\n", s.IsSyncing)
	fmt.Printf("pending uploads: %d\n", s.PendingUploads)
	if s.LastPullAt != "" {
		fmt.Printf("last pull:       %s\n", s.LastPullAt)
	}
	if s.LastUploadAt != "" {
		fmt.Printf("last upload:     %s\n", s.LastUploadAt)
	}
	if s.LastCompactAt != "" {
		fmt.Printf("last compact:    %s\n", s.LastCompactAt)
	}
	if s.LastError != "" {
		fmt.Printf("last error:      %s\n", s.LastError)
	}
}
