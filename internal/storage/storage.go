// Package storage provides the object-storage gateway used for course PDFs.
// Two backends are available: the hosted Supabase storage REST API and any
// S3-compatible endpoint (MinIO, AWS S3). Swap implementations by changing
// the concrete type injected at startup.
package storage

import (
	"context"
	"errors"
	"time"
)

// ErrEmptyPath is returned when an object path is empty.
var ErrEmptyPath = errors.New("storage: empty object path")

// ErrInvalidTTL is returned when a signed-URL expiry is not positive.
var ErrInvalidTTL = errors.New("storage: signed-url ttl must be positive")

// Storage is the gateway interface for uploading objects and minting
// temporary signed download URLs. An empty bucket selects the default
// bucket the backend was configured with at startup.
type Storage interface {
	// Upload writes data under bucket/path, overwriting any existing object
	// at that path, and returns the path on success.
	Upload(ctx context.Context, bucket, path string, data []byte) (string, error)
	// SignedURL returns a pre-authorized URL granting read access to
	// bucket/path for the given ttl.
	SignedURL(ctx context.Context, bucket, path string, ttl time.Duration) (string, error)
}

// validate rejects arguments both backends refuse before any network call.
func validate(path string, ttl time.Duration) error {
	if path == "" {
		return ErrEmptyPath
	}
	if ttl <= 0 {
		return ErrInvalidTTL
	}
	return nil
}
