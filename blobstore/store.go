package blobstore

import (
	"context"
	"os"
)

// ErrNotFound is returned when a blob does not exist.
//
// Implementations should return an error that satisfies `errors.Is(err, ErrNotFound)`.
var ErrNotFound = os.ErrNotExist

// Store reads and writes named blobs.
type Store interface {
	// Get returns the full contents of a blob.
	Get(ctx context.Context, name string) ([]byte, error)
	// Put writes a blob atomically, replacing any previous contents.
	Put(ctx context.Context, name string, data []byte) error
	// Delete removes a blob. Deleting a missing blob is not an error.
	Delete(ctx context.Context, name string) error
	// List returns the sorted names of all blobs with the given prefix.
	List(ctx context.Context, prefix string) ([]string, error)
}

// DeletePrefix removes every blob under prefix and returns how many were removed.
func DeletePrefix(ctx context.Context, s Store, prefix string) (int, error) {
	names, err := s.List(ctx, prefix)
	if err != nil {
		return 0, err
	}
	for i, name := range names {
		if err := s.Delete(ctx, name); err != nil {
			return i, err
		}
	}
	return len(names), nil
}
