// Package artifact stores serialized models by key.
//
// Two stores are provided: FileStore keeps artifacts as files in a local
// directory and GCSStore keeps them as objects in a Google Cloud Storage
// bucket. Codec converts predictor.Model values to and from the bytes
// kept in a store.
package artifact

import (
	"context"
	"errors"
	"io"
)

// ErrNotExist is returned when no artifact is stored under a key.
var ErrNotExist = errors.New("artifact does not exist")

// Store is a flat key/value store of artifact payloads.
type Store interface {
	// Put writes the payload read from r under key, replacing any existing artifact.
	// A failed Put leaves no partial artifact visible under key.
	Put(ctx context.Context, key string, r io.Reader) error

	// Open returns a reader for the artifact. Returns ErrNotExist when missing.
	Open(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes the artifact. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// List returns all artifact keys, sorted.
	List(ctx context.Context) ([]string, error)
}

// Key returns the artifact key for a version stored in the given format.
func Key(versionName, format string) string {
	return versionName + "." + format
}
