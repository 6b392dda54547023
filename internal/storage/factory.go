package storage

import (
	"context"
	"fmt"
)

// BackendKind names which concrete Driver implementation a Config
// selects. It is the tag carried by the storage config in the local
// control surface's configure_storage and test_storage_connection
// requests.
type BackendKind string

const (
	BackendFileSystem   BackendKind = "filesystem"
	BackendS3           BackendKind = "s3"
	BackendS3Compatible BackendKind = "s3_compatible"
	BackendOSS          BackendKind = "oss"
	BackendCOS          BackendKind = "cos"
	BackendAzBlob       BackendKind = "azblob"
)

// Config is the tagged union of every backend's connection parameters.
// Only the fields relevant to Kind need be populated.
type Config struct {
	Kind BackendKind

	// UserID namespaces every key under "clipboard-data/<user_id>/",
	// so one backend can host more than one user's sync data without
	// their keys colliding. Empty means no namespacing.
	UserID string

	// RetryAttempts bounds how many attempts, the first one included,
	// New's driver makes on a retryable failure before it gives up.
	// Zero means the default.
	RetryAttempts int

	// FileSystem
	RootPath string

	// S3 / S3Compatible
	Bucket          string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Endpoint        string

	// OSS
	AccessKeySecret string

	// COS
	SecretID  string
	SecretKey string

	// AzBlob
	Container   string
	AccountName string
	AccountKey  string
}

// New builds a retrying, namespaced Driver for cfg's backend kind.
func New(ctx context.Context, cfg Config) (Driver, error) {
	driver, err := newInner(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if cfg.UserID != "" {
		driver = NewPrefixed(driver, "clipboard-data/"+cfg.UserID)
	}
	if cfg.RetryAttempts > 0 {
		return NewRetryingWithAttempts(driver, cfg.RetryAttempts), nil
	}
	return NewRetrying(driver), nil
}

func newInner(ctx context.Context, cfg Config) (Driver, error) {
	switch cfg.Kind {
	case BackendFileSystem:
		return NewFSDriver(cfg.RootPath)
	case BackendS3:
		return NewS3Driver(ctx, S3Config{
			Bucket:          cfg.Bucket,
			Region:          cfg.Region,
			AccessKeyID:     cfg.AccessKeyID,
			SecretAccessKey: cfg.SecretAccessKey,
			Endpoint:        cfg.Endpoint,
		})
	case BackendS3Compatible:
		return NewS3CompatibleDriver(ctx, S3Config{
			Bucket:          cfg.Bucket,
			Region:          cfg.Region,
			AccessKeyID:     cfg.AccessKeyID,
			SecretAccessKey: cfg.SecretAccessKey,
			Endpoint:        cfg.Endpoint,
		})
	case BackendOSS:
		return NewOSSDriver(OSSConfig{
			Bucket:          cfg.Bucket,
			Endpoint:        cfg.Endpoint,
			AccessKeyID:     cfg.AccessKeyID,
			AccessKeySecret: cfg.AccessKeySecret,
		})
	case BackendCOS:
		return NewCOSDriver(COSConfig{
			Bucket:    cfg.Bucket,
			Endpoint:  cfg.Endpoint,
			SecretID:  cfg.SecretID,
			SecretKey: cfg.SecretKey,
		})
	case BackendAzBlob:
		return NewAzBlobDriver(AzBlobConfig{
			Container:   cfg.Container,
			AccountName: cfg.AccountName,
			AccountKey:  cfg.AccountKey,
		})
	default:
		return nil, fmt.Errorf("storage: unknown backend kind %q", cfg.Kind)
	}
}

// TestConnection builds a driver for cfg, probes it, then writes, reads
// back, and deletes a probe key, without wrapping the driver for
// ongoing use. This backs the control surface's
// test_storage_connection command.
func TestConnection(ctx context.Context, cfg Config) error {
	driver, err := newInner(ctx, cfg)
	if err != nil {
		return err
	}
	if err := driver.Probe(ctx); err != nil {
		return err
	}
	const probeKey = ".boardsync-connection-probe"
	if err := driver.Put(ctx, probeKey, []byte("probe"), true); err != nil {
		return err
	}
	if _, err := driver.Get(ctx, probeKey); err != nil {
		return err
	}
	return driver.Delete(ctx, probeKey)
}
