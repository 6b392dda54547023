package storage

import "context"

// NewS3CompatibleDriver builds a Driver against a MinIO or other
// S3-compatible service. It is the same client as NewS3Driver, which
// points at cfg.Endpoint with path-style addressing whenever Endpoint is
// set; this function does not itself check that Endpoint is non-empty.
func NewS3CompatibleDriver(ctx context.Context, cfg S3Config) (*S3Driver, error) {
	return NewS3Driver(ctx, cfg)
}
