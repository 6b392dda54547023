package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `{
		"backend": {"kind": "FileSystem", "filesystem": {"root_path": "/tmp/board"}},
		"user_id": "alice"
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.RetryAttempts)
	assert.Equal(t, 30, cfg.TimeoutSeconds)
	assert.Equal(t, 15, cfg.SyncIntervalSeconds)
	assert.Equal(t, 200, cfg.CompactThreshold)
	assert.Equal(t, "alice", cfg.UserID)
}

func TestLoadMissingFileUsesDefaultsOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "does-not-exist.json")

	_, err := Load(path)
	require.Error(t, err, "defaults alone have no user_id or backend, so validation must still fail")
}

func TestLoadRejectsMissingUserID(t *testing.T) {
	path := writeConfig(t, `{
		"backend": {"kind": "FileSystem", "filesystem": {"root_path": "/tmp/board"}}
	}`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "user_id")
}

func TestLoadRejectsOutOfRangeSyncInterval(t *testing.T) {
	path := writeConfig(t, `{
		"backend": {"kind": "FileSystem", "filesystem": {"root_path": "/tmp/board"}},
		"user_id": "alice",
		"sync_interval_seconds": 1
	}`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sync_interval_seconds")
}

func TestLoadRejectsIncompleteBackend(t *testing.T) {
	path := writeConfig(t, `{
		"backend": {"kind": "S3", "s3": {"bucket": "clips"}},
		"user_id": "alice"
	}`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "backend.s3")
}

func TestEnvOverridesSecretFields(t *testing.T) {
	path := writeConfig(t, `{
		"backend": {"kind": "S3", "s3": {"bucket": "clips", "region": "us-east-1"}},
		"user_id": "alice"
	}`)

	t.Setenv("BOARDSYNC_S3_ACCESS_KEY_ID", "env-key")
	t.Setenv("BOARDSYNC_S3_SECRET_ACCESS_KEY", "env-secret")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "env-key", cfg.Backend.S3.AccessKeyID)
	assert.Equal(t, "env-secret", cfg.Backend.S3.SecretAccessKey)
}

func TestEnvOverridesUserID(t *testing.T) {
	path := writeConfig(t, `{
		"backend": {"kind": "FileSystem", "filesystem": {"root_path": "/tmp/board"}},
		"user_id": "alice"
	}`)

	t.Setenv("BOARDSYNC_USER_ID", "bob")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "bob", cfg.UserID)
}

func TestStorageConfigTranslatesFileSystemBackend(t *testing.T) {
	cfg := Defaults()
	cfg.UserID = "alice"
	cfg.Backend = BackendConfig{
		Kind:       KindFileSystem,
		FileSystem: &FileSystemBackend{RootPath: "/tmp/board"},
	}

	sc := cfg.StorageConfig()
	assert.Equal(t, "alice", sc.UserID)
	assert.Equal(t, "/tmp/board", sc.RootPath)
}

func TestSyncIntervalFloorsToMinimum(t *testing.T) {
	cfg := Defaults()
	cfg.SyncIntervalSeconds = 1
	assert.Equal(t, 5*time.Second, cfg.SyncInterval())
}
