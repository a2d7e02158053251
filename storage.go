package workbox

import (
	"context"
	"io"
)

// StorageEngine defines the unified interface for all storage backends.
// All driver implementations must satisfy this interface.
//
// Paths are slash-separated and relative to the engine root; "" and "."
// both name the root itself.
type StorageEngine interface {
	// Stat returns metadata about a file or directory.
	Stat(ctx context.Context, path string) (*EntryInfo, error)

	// Open opens a file for reading.
	Open(ctx context.Context, path string) (io.ReadCloser, error)

	// Put replaces the file at path with the contents of r, creating missing
	// parent directories. A concurrent reader observes either the previous
	// content or the new content, never a mixture.
	Put(ctx context.Context, path string, r io.Reader) error

	// Remove deletes a file or directory (and all children).
	Remove(ctx context.Context, path string) error

	// Rename moves or renames a file or directory, creating missing parents
	// of newPath.
	Rename(ctx context.Context, oldPath, newPath string) error

	// MkdirAll creates a directory and all necessary parents.
	MkdirAll(ctx context.Context, path string) error

	// ReadDir returns the contents of a directory.
	ReadDir(ctx context.Context, path string) ([]*EntryInfo, error)
}
