package blobstore

import (
	"context"
	"io"
	"os"
)

// ErrNotFound is returned when a blob does not exist.
//
// Implementations should return an error that satisfies `errors.Is(err, ErrNotFound)`.
// The default maps to `os.ErrNotExist`.
var ErrNotFound = os.ErrNotExist

// Store holds named, immutable blobs such as arena snapshots.
// Implementations must be safe for concurrent use.
type Store interface {
	// Put stores size bytes read from r under name, replacing any existing blob.
	// A negative size means the length is not known up front.
	// The blob becomes visible only once the write has completed.
	Put(ctx context.Context, name string, r io.Reader, size int64) error

	// Open returns a reader over the blob's contents.
	Open(ctx context.Context, name string) (io.ReadCloser, error)

	// Delete removes a blob. Deleting a missing blob is not an error.
	Delete(ctx context.Context, name string) error

	// List returns the sorted names of all blobs starting with prefix.
	List(ctx context.Context, prefix string) ([]string, error)
}
