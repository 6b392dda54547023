// Package identity manages this device's durable identifier: generated
// once on first run, then reused for the lifetime of the install so
// every operation this device ever writes carries the same device_id.
package identity

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// LoadOrCreate reads the device id persisted at path, generating and
// atomically persisting a fresh 128-bit id on first run. The write goes
// through a temp file plus rename so a crash mid-write never leaves a
// half-written id file for the next run to misread.
func LoadOrCreate(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err == nil {
		id := strings.TrimSpace(string(data))
		if id != "" {
			return id, nil
		}
	} else if !os.IsNotExist(err) {
		return "", fmt.Errorf("identity: read device id: %w", err)
	}

	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	if err := persist(path, id); err != nil {
		return "", err
	}
	return id, nil
}

func persist(path, id string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("identity: create device id dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".device_id-*")
	if err != nil {
		return fmt.Errorf("identity: create temp id file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.WriteString(id); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("identity: write device id: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("identity: close temp id file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("identity: persist device id: %w", err)
	}
	return nil
}
