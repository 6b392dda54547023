// Package config loads and validates this device's settings: which
// storage backend to sync against, how often to run each scheduler
// task, and the identity values (user_id, device_id_path) every other
// component depends on before it can start.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/tmair/boardsync/internal/storage"
)

// Config is the full on-disk configuration schema. JSON is the file
// format; a handful of sensitive or deployment-specific fields can
// also be set (or overridden) via environment variables, so secrets
// never need to be committed to a config file on disk.
type Config struct {
	Backend BackendConfig `json:"backend"`

	RetryAttempts        int    `json:"retry_attempts"`
	TimeoutSeconds       int    `json:"timeout_seconds"`
	SyncIntervalSeconds  int    `json:"sync_interval_seconds"`
	CompactThreshold     int    `json:"compact_threshold"`
	UserID               string `json:"user_id"`
	DeviceIDPath         string `json:"device_id_path"`
	NotifyEnabled        bool   `json:"notify_enabled"`
	LocalStorePath       string `json:"local_store_path"`
	OplogDir             string `json:"oplog_dir"`
	ControlSocketPath    string `json:"control_socket_path"`
}

// BackendConfig is the tagged-variant storage backend selector as it
// appears in a config file: exactly one of the pointer fields is set,
// matching whichever Kind names.
type BackendConfig struct {
	Kind BackendKind `json:"kind"`

	FileSystem   *FileSystemBackend   `json:"filesystem,omitempty"`
	S3           *S3Backend           `json:"s3,omitempty"`
	S3Compatible *S3CompatibleBackend `json:"s3_compatible,omitempty"`
	Oss          *OssBackend          `json:"oss,omitempty"`
	Cos          *CosBackend          `json:"cos,omitempty"`
	AzBlob       *AzBlobBackend       `json:"azblob,omitempty"`
}

// BackendKind names which variant of BackendConfig is populated.
type BackendKind string

const (
	KindFileSystem   BackendKind = "FileSystem"
	KindS3           BackendKind = "S3"
	KindS3Compatible BackendKind = "S3Compatible"
	KindOss          BackendKind = "Oss"
	KindCos          BackendKind = "Cos"
	KindAzBlob       BackendKind = "AzBlob"
)

type FileSystemBackend struct {
	RootPath string `json:"root_path"`
}

type S3Backend struct {
	Bucket          string `json:"bucket"`
	Region          string `json:"region"`
	AccessKeyID     string `json:"access_key_id"`
	SecretAccessKey string `json:"secret_access_key"`
	Endpoint        string `json:"endpoint,omitempty"`
}

type S3CompatibleBackend struct {
	Bucket          string `json:"bucket"`
	Endpoint        string `json:"endpoint"`
	AccessKeyID     string `json:"access_key_id"`
	SecretAccessKey string `json:"secret_access_key"`
	Region          string `json:"region,omitempty"`
}

type OssBackend struct {
	Bucket          string `json:"bucket"`
	Endpoint        string `json:"endpoint"`
	AccessKeyID     string `json:"access_key_id"`
	AccessKeySecret string `json:"access_key_secret"`
}

type CosBackend struct {
	Bucket    string `json:"bucket"`
	Endpoint  string `json:"endpoint"`
	SecretID  string `json:"secret_id"`
	SecretKey string `json:"secret_key"`
}

type AzBlobBackend struct {
	Container   string `json:"container"`
	AccountName string `json:"account_name"`
	AccountKey  string `json:"account_key"`
}

// Defaults returns a Config populated with every schema default, to be
// overlaid with the file contents and environment overrides.
func Defaults() Config {
	return Config{
		RetryAttempts:       3,
		TimeoutSeconds:      30,
		SyncIntervalSeconds: 15,
		CompactThreshold:    200,
		DeviceIDPath:        "./device_id",
		NotifyEnabled:       true,
		LocalStorePath:      "./boardsync.db",
		OplogDir:            "./oplog",
		ControlSocketPath:   "./boardsync.sock",
	}
}

// Load reads configuration from path, overlays it onto Defaults(),
// applies environment variable overrides for sensitive backend
// credentials, and validates the result. A missing file is not an
// error — every field simply keeps its default (or env-supplied) value,
// matching the fail-fast-on-invalid-not-on-missing posture used
// elsewhere for startup configuration.
func Load(path string) (Config, error) {
	cfg := Defaults()

	if data, err := os.ReadFile(path); err == nil {
		if err := json.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	applyEnvOverrides(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// applyEnvOverrides lets deployment environments inject secrets and the
// user_id without writing them to the config file on disk.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("BOARDSYNC_USER_ID"); v != "" {
		cfg.UserID = v
	}
	if v := os.Getenv("BOARDSYNC_DEVICE_ID_PATH"); v != "" {
		cfg.DeviceIDPath = v
	}
	switch cfg.Backend.Kind {
	case KindS3:
		if cfg.Backend.S3 == nil {
			cfg.Backend.S3 = &S3Backend{}
		}
		overrideString(&cfg.Backend.S3.AccessKeyID, "BOARDSYNC_S3_ACCESS_KEY_ID")
		overrideString(&cfg.Backend.S3.SecretAccessKey, "BOARDSYNC_S3_SECRET_ACCESS_KEY")
	case KindS3Compatible:
		if cfg.Backend.S3Compatible == nil {
			cfg.Backend.S3Compatible = &S3CompatibleBackend{}
		}
		overrideString(&cfg.Backend.S3Compatible.AccessKeyID, "BOARDSYNC_S3_ACCESS_KEY_ID")
		overrideString(&cfg.Backend.S3Compatible.SecretAccessKey, "BOARDSYNC_S3_SECRET_ACCESS_KEY")
	case KindOss:
		if cfg.Backend.Oss == nil {
			cfg.Backend.Oss = &OssBackend{}
		}
		overrideString(&cfg.Backend.Oss.AccessKeyID, "BOARDSYNC_OSS_ACCESS_KEY_ID")
		overrideString(&cfg.Backend.Oss.AccessKeySecret, "BOARDSYNC_OSS_ACCESS_KEY_SECRET")
	case KindCos:
		if cfg.Backend.Cos == nil {
			cfg.Backend.Cos = &CosBackend{}
		}
		overrideString(&cfg.Backend.Cos.SecretID, "BOARDSYNC_COS_SECRET_ID")
		overrideString(&cfg.Backend.Cos.SecretKey, "BOARDSYNC_COS_SECRET_KEY")
	case KindAzBlob:
		if cfg.Backend.AzBlob == nil {
			cfg.Backend.AzBlob = &AzBlobBackend{}
		}
		overrideString(&cfg.Backend.AzBlob.AccountKey, "BOARDSYNC_AZBLOB_ACCOUNT_KEY")
	}
}

func overrideString(dst *string, envVar string) {
	if v := os.Getenv(envVar); v != "" {
		*dst = v
	}
}

// Validate enforces the schema's field ranges and the startup
// invariant that user_id and device_id_path are never empty: either
// missing is a Fatal condition that must stop the scheduler from ever
// starting.
func (c Config) Validate() error {
	if c.UserID == "" {
		return fmt.Errorf("config: user_id is required")
	}
	if c.DeviceIDPath == "" {
		return fmt.Errorf("config: device_id_path is required")
	}
	if c.RetryAttempts < 1 || c.RetryAttempts > 10 {
		return fmt.Errorf("config: retry_attempts must be in [1, 10], got %d", c.RetryAttempts)
	}
	if c.TimeoutSeconds < 5 || c.TimeoutSeconds > 300 {
		return fmt.Errorf("config: timeout_seconds must be in [5, 300], got %d", c.TimeoutSeconds)
	}
	if c.SyncIntervalSeconds < 5 || c.SyncIntervalSeconds > 3600 {
		return fmt.Errorf("config: sync_interval_seconds must be in [5, 3600], got %d", c.SyncIntervalSeconds)
	}
	if c.CompactThreshold < 1 {
		return fmt.Errorf("config: compact_threshold must be positive, got %d", c.CompactThreshold)
	}
	return c.Backend.validate()
}

func (b BackendConfig) validate() error {
	switch b.Kind {
	case KindFileSystem:
		if b.FileSystem == nil || b.FileSystem.RootPath == "" {
			return fmt.Errorf("config: backend.filesystem.root_path is required")
		}
	case KindS3:
		if b.S3 == nil || b.S3.Bucket == "" || b.S3.Region == "" {
			return fmt.Errorf("config: backend.s3.bucket and .region are required")
		}
	case KindS3Compatible:
		if b.S3Compatible == nil || b.S3Compatible.Bucket == "" || b.S3Compatible.Endpoint == "" {
			return fmt.Errorf("config: backend.s3_compatible.bucket and .endpoint are required")
		}
	case KindOss:
		if b.Oss == nil || b.Oss.Bucket == "" || b.Oss.Endpoint == "" {
			return fmt.Errorf("config: backend.oss.bucket and .endpoint are required")
		}
	case KindCos:
		if b.Cos == nil || b.Cos.Bucket == "" || b.Cos.Endpoint == "" {
			return fmt.Errorf("config: backend.cos.bucket and .endpoint are required")
		}
	case KindAzBlob:
		if b.AzBlob == nil || b.AzBlob.Container == "" || b.AzBlob.AccountName == "" {
			return fmt.Errorf("config: backend.azblob.container and .account_name are required")
		}
	default:
		return fmt.Errorf("config: backend.kind %q is not a recognized backend", b.Kind)
	}
	return nil
}

// StorageConfig converts the tagged BackendConfig into a
// storage.Config ready for storage.New, folding in UserID for
// namespacing and RetryAttempts for the retry policy. TimeoutSeconds is
// not carried over.
func (c Config) StorageConfig() storage.Config {
	sc := storage.Config{UserID: c.UserID, RetryAttempts: c.RetryAttempts}
	switch c.Backend.Kind {
	case KindFileSystem:
		sc.Kind = storage.BackendFileSystem
		sc.RootPath = c.Backend.FileSystem.RootPath
	case KindS3:
		sc.Kind = storage.BackendS3
		sc.Bucket = c.Backend.S3.Bucket
		sc.Region = c.Backend.S3.Region
		sc.AccessKeyID = c.Backend.S3.AccessKeyID
		sc.SecretAccessKey = c.Backend.S3.SecretAccessKey
		sc.Endpoint = c.Backend.S3.Endpoint
	case KindS3Compatible:
		sc.Kind = storage.BackendS3Compatible
		sc.Bucket = c.Backend.S3Compatible.Bucket
		sc.Region = c.Backend.S3Compatible.Region
		sc.AccessKeyID = c.Backend.S3Compatible.AccessKeyID
		sc.SecretAccessKey = c.Backend.S3Compatible.SecretAccessKey
		sc.Endpoint = c.Backend.S3Compatible.Endpoint
	case KindOss:
		sc.Kind = storage.BackendOSS
		sc.Bucket = c.Backend.Oss.Bucket
		sc.Endpoint = c.Backend.Oss.Endpoint
		sc.AccessKeyID = c.Backend.Oss.AccessKeyID
		sc.AccessKeySecret = c.Backend.Oss.AccessKeySecret
	case KindCos:
		sc.Kind = storage.BackendCOS
		sc.Bucket = c.Backend.Cos.Bucket
		sc.Endpoint = c.Backend.Cos.Endpoint
		sc.SecretID = c.Backend.Cos.SecretID
		sc.SecretKey = c.Backend.Cos.SecretKey
	case KindAzBlob:
		sc.Kind = storage.BackendAzBlob
		sc.Container = c.Backend.AzBlob.Container
		sc.AccountName = c.Backend.AzBlob.AccountName
		sc.AccountKey = c.Backend.AzBlob.AccountKey
	}
	return sc
}

// SyncInterval returns the configured pull interval as a
// time.Duration, floored to the schema's 5-second minimum.
func (c Config) SyncInterval() time.Duration {
	seconds := c.SyncIntervalSeconds
	if seconds < 5 {
		seconds = 5
	}
	return time.Duration(seconds) * time.Second
}

// Timeout returns the configured per-call storage timeout.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}
