package workbox

import (
	"context"
	"io"
)

// StreamReader supports streaming read without going through Open
// (suitable for remote backends).
// Use type assertion to check: if sr, ok := engine.(workbox.StreamReader); ok { ... }
type StreamReader interface {
	Get(ctx context.Context, path string) (io.ReadCloser, error)
}

// Copier supports file/directory copy. Some backends can implement this
// as a server-side operation. Implementations return ErrNotSupported for
// sources they cannot copy natively; callers then fall back to Walk.
type Copier interface {
	Copy(ctx context.Context, src, dst string) error
}

// Linker exposes symbolic links so that paths can be canonicalized one
// component at a time.
type Linker interface {
	// Lstat is like Stat but does not follow a final symbolic link.
	Lstat(ctx context.Context, path string) (*EntryInfo, error)

	// Readlink returns the target of the link at path. Relative targets are
	// returned unchanged. Absolute targets under the engine root are
	// rewritten to root-anchored form ("/a/b"); any other absolute target
	// yields ErrOutsideRoot.
	Readlink(ctx context.Context, path string) (string, error)
}

// Walker is implemented by backends with a native tree walk. Walk uses it
// when available. Unlike Walk, WalkNative does not visit root itself.
type Walker interface {
	WalkNative(ctx context.Context, root string, fn WalkFunc) error
}
