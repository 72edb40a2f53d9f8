/*
Package storage stages preview images (avatar and profile background) between the
upload and the commit to the marketplace API.

Staged objects live either in an S3-compatible bucket or, when no bucket is configured,
in process memory.
*/
package storage

import (
	"context"
	"errors"
	"time"
)

// MaxObjectSize caps what Get reads back from the store.
const MaxObjectSize int64 = 20 << 20

// ErrNotFound is returned for keys that were never staged or were already deleted.
var ErrNotFound = errors.New("storage: object not found")

// ServiceConfig holds the configuration required to connect to the storage service.
// An empty bucket selects the in-memory implementation.
type ServiceConfig struct {
	S3BucketName      string
	S3Endpoint        string
	S3AccessKeyID     string
	S3SecretAccessKey string

	// LocalURLPrefix is where the in-memory store's objects are served, e.g. "/previews/".
	LocalURLPrefix string
}

// Object is a staged file.
type Object struct {
	Key         string
	ContentType string
	Data        []byte
}

// Service is the preview staging store.
type Service interface {
	// Put stores data under key.
	Put(ctx context.Context, key, contentType string, data []byte) error

	// Get reads a staged object back.
	Get(ctx context.Context, key string) (*Object, error)

	// URL returns an address the browser can load the object from, valid for at least ttl.
	URL(ctx context.Context, key string, ttl time.Duration) (string, error)

	// Delete removes the object. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// NewService is the factory function for Service.
func NewService(ctx context.Context, cfg ServiceConfig) (Service, error) {
	if cfg.S3BucketName == "" {
		return NewMemoryStore(cfg.LocalURLPrefix), nil
	}
	return newS3Client(ctx, cfg)
}
