package storage

import (
	"context"
	"errors"
	"io"
)

var (
	ErrNotFound   = errors.New("stored object not found")
	ErrInvalidKey = errors.New("invalid storage key")
)

// Storage defines the narrow capability the photo workflow needs from a
// blob store. A key only becomes visible to readers through Move.
type Storage interface {
	// WriteTemp writes content to a temporary location that is never served.
	// Returns an opaque handle to pass to Move.
	WriteTemp(ctx context.Context, content io.Reader) (string, error)

	// Move atomically publishes a temp handle under key, replacing any
	// existing object. The temp object is gone afterwards, even on failure.
	Move(ctx context.Context, tempHandle, key string) error

	// Remove deletes the object stored under key. Missing objects are not an error.
	Remove(ctx context.Context, key string) error

	// Exists reports whether an object is stored under key.
	Exists(ctx context.Context, key string) (bool, error)

	// Open retrieves the object stored under key.
	// Returns ErrNotFound when nothing is stored there.
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}
