// Package storage defines the Driver abstraction over the object-storage
// backends that back the bulletin board (filesystem, S3, S3-compatible,
// OSS, COS, Azure Blob) along with the retry and error-kind machinery
// shared by all of them.
package storage

import (
	"errors"
	"fmt"
)

// Kind classifies why a storage operation failed, so callers can decide
// whether to retry, surface the error to the user, or treat it as fatal.
type Kind int

const (
	KindUnknown Kind = iota
	KindNetwork
	KindTimeout
	KindAuth
	KindNotFound
	KindAlreadyExists
	KindBackendTransient
	KindBackendPermanent
	KindCorrupt
	KindFatal
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindTimeout:
		return "timeout"
	case KindAuth:
		return "auth"
	case KindNotFound:
		return "not_found"
	case KindAlreadyExists:
		return "already_exists"
	case KindBackendTransient:
		return "backend_transient"
	case KindBackendPermanent:
		return "backend_permanent"
	case KindCorrupt:
		return "corrupt"
	case KindFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Retryable reports whether an operation that failed with this kind is
// worth retrying after a backoff delay.
func (k Kind) Retryable() bool {
	switch k {
	case KindNetwork, KindTimeout, KindBackendTransient:
		return true
	default:
		return false
	}
}

// Error wraps a failed storage operation with the key and kind needed to
// decide how to react, without losing the underlying driver error.
type Error struct {
	Kind Kind
	Op   string
	Key  string
	Err  error
}

func (e *Error) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("storage: %s %s: %s: %v", e.Op, e.Key, e.Kind, e.Err)
	}
	return fmt.Sprintf("storage: %s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError builds an *Error for op against key.
func NewError(kind Kind, op, key string, err error) *Error {
	return &Error{Kind: kind, Op: op, Key: key, Err: err}
}

// KindOf extracts the Kind from err if it (or something it wraps) is an
// *Error, and KindUnknown otherwise.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindUnknown
}

// IsNotFound reports whether err represents a missing key.
func IsNotFound(err error) bool {
	return KindOf(err) == KindNotFound
}

// IsAlreadyExists reports whether err represents a rejected
// non-overwriting Put against a key that already exists.
func IsAlreadyExists(err error) bool {
	return KindOf(err) == KindAlreadyExists
}

// IsRetryable reports whether err is worth retrying.
func IsRetryable(err error) bool {
	return KindOf(err).Retryable()
}
