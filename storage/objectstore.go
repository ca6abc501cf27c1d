package storage

import (
	"context"
	"io"
	"iter"
	"time"
)

// Metadata describes a stored object. Drivers fill what their backend reports.
type Metadata struct {
	Path         string    `json:"path"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"last_modified"`
	ContentType  string    `json:"content_type,omitempty"`
	ETag         string    `json:"etag,omitempty"`
}

// ObjectStore is the capability a backend driver provides.
// Paths are slash-separated keys. Failures are *Error values.
type ObjectStore interface {
	// List enumerates keys starting with prefix, lazily.
	// Iteration stops at the first error, which is yielded with an empty key.
	List(ctx context.Context, prefix string) iter.Seq2[string, error]

	// Get opens the object for reading. The caller closes the reader.
	Get(ctx context.Context, path string) (io.ReadCloser, error)

	// Put creates or replaces the object. size is -1 when unknown.
	Put(ctx context.Context, path string, r io.Reader, size int64) error

	// Stat returns metadata without reading the payload.
	Stat(ctx context.Context, path string) (Metadata, error)

	// Delete removes the object. Drivers decide whether absence is an error.
	Delete(ctx context.Context, path string) error
}

// Pinger is implemented by drivers that can verify their target (root
// directory, bucket) is reachable without touching an object.
type Pinger interface {
	Ping(ctx context.Context) error
}
