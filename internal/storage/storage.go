// Package storage defines the interface for object storage operations.
// Swap implementations by changing the concrete type injected at startup —
// the MinIO implementation works with any S3-compatible provider.
package storage

import (
	"context"
	"io"
)

// UploadResult identifies a successfully stored object.
type UploadResult struct {
	// URL is the browser-accessible address of the object.
	URL string
	// ObjectID is the opaque key needed to delete the object later.
	ObjectID string
}

// Storage is the interface for uploading and deleting media objects.
type Storage interface {
	// Upload streams data to the store under the given key. Either a usable
	// result is returned or nothing is stored.
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (*UploadResult, error)
	// Delete removes the object with the given id. Deleting an object that
	// is already gone is not an error.
	Delete(ctx context.Context, objectID string) error
	// DeleteByURL attempts to derive an object id from a public URL and
	// delete that object. This is a lossy fallback for legacy records that
	// never stored an object id; callers must not depend on it succeeding.
	DeleteByURL(ctx context.Context, url string) error
	// PublicURL constructs the browser-accessible URL for a given key.
	PublicURL(key string) string
}
