package rclone

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rclone/rclone/fs"
	"github.com/rclone/rclone/fs/operations"
	rcloneWalk "github.com/rclone/rclone/fs/walk"

	"github.com/nuln/workbox"
)

// Auto-register rclone storage driver.
func init() {
	workbox.Register("rclone", func(cfg *workbox.Config) (workbox.StorageEngine, error) {
		remote := cfg.StringOption("remote", cfg.BasePath)
		if remote == "" {
			return nil, fmt.Errorf("workbox/rclone: remote path is required (set Options[\"remote\"] or BasePath)")
		}
		return New(remote)
	})
}

// Engine implements workbox.StorageEngine using rclone's fs.Fs. Remotes have
// no symbolic links, so paths are confined lexically by the caller.
type Engine struct {
	remote fs.Fs
}

// New creates a new rclone Engine from a remote path (e.g., "s3:bucket/workspace").
func New(remotePath string) (*Engine, error) {
	remote, err := fs.NewFs(context.Background(), remotePath)
	if err != nil {
		return nil, err
	}
	return &Engine{remote: remote}, nil
}

func clean(p string) string {
	c := path.Clean("/" + p)
	return strings.TrimPrefix(c, "/")
}

func (e *Engine) Stat(ctx context.Context, p string) (*workbox.EntryInfo, error) {
	p = clean(p)
	if p != "" {
		if obj, err := e.remote.NewObject(ctx, p); err == nil {
			return &workbox.EntryInfo{
				Name:    path.Base(obj.Remote()),
				Path:    p,
				Size:    obj.Size(),
				ModTime: obj.ModTime(ctx),
				Mode:    0o644,
			}, nil
		}
	}

	// Might be a directory
	if _, err := e.remote.List(ctx, p); err != nil {
		return nil, convertError(err)
	}
	return &workbox.EntryInfo{
		Name:  path.Base("/" + p),
		Path:  p,
		IsDir: true,
		Mode:  os.ModeDir | 0o755,
	}, nil
}

func (e *Engine) Open(ctx context.Context, p string) (io.ReadCloser, error) {
	obj, err := e.remote.NewObject(ctx, clean(p))
	if err != nil {
		return nil, convertError(err)
	}
	return obj.Open(ctx)
}

// Put uploads to a temporary sibling and moves it into place, so readers
// never see a half-written object on backends that stream in place.
func (e *Engine) Put(ctx context.Context, p string, reader io.Reader) error {
	p = clean(p)
	if info, err := e.Stat(ctx, p); err == nil && info.IsDir {
		return &os.PathError{Op: "put", Path: p, Err: workbox.ErrIsDir}
	}

	tmp := path.Join(path.Dir(p), workbox.TempPrefix+path.Base(p)+"-"+uuid.NewString())
	tmp = clean(tmp)
	rc, ok := reader.(io.ReadCloser)
	if !ok {
		rc = io.NopCloser(reader)
	}
	if _, err := operations.Rcat(ctx, e.remote, tmp, rc, time.Now(), nil); err != nil {
		return err
	}
	if err := operations.MoveFile(ctx, e.remote, e.remote, p, tmp); err != nil {
		if obj, lookupErr := e.remote.NewObject(ctx, tmp); lookupErr == nil {
			_ = obj.Remove(ctx)
		}
		return err
	}
	return nil
}

func (e *Engine) Remove(ctx context.Context, p string) error {
	p = clean(p)
	obj, err := e.remote.NewObject(ctx, p)
	if err != nil {
		// Try as directory
		return convertError(operations.Purge(ctx, e.remote, p))
	}
	return obj.Remove(ctx)
}

func (e *Engine) Rename(ctx context.Context, oldPath, newPath string) error {
	oldPath, newPath = clean(oldPath), clean(newPath)
	info, err := e.Stat(ctx, oldPath)
	if err != nil {
		return err
	}
	if info.IsDir {
		return operations.DirMove(ctx, e.remote, oldPath, newPath)
	}
	return operations.MoveFile(ctx, e.remote, e.remote, newPath, oldPath)
}

func (e *Engine) MkdirAll(ctx context.Context, p string) error {
	return e.remote.Mkdir(ctx, clean(p))
}

func (e *Engine) ReadDir(ctx context.Context, dirPath string) ([]*workbox.EntryInfo, error) {
	dirPath = clean(dirPath)
	entries, err := e.remote.List(ctx, dirPath)
	if err != nil {
		return nil, convertError(err)
	}

	result := make([]*workbox.EntryInfo, 0, len(entries))
	for _, entry := range entries {
		result = append(result, entryInfo(ctx, entry))
	}
	return result, nil
}

func entryInfo(ctx context.Context, entry fs.DirEntry) *workbox.EntryInfo {
	info := &workbox.EntryInfo{
		Name: path.Base(entry.Remote()),
		Path: entry.Remote(),
	}
	if obj, ok := entry.(fs.Object); ok {
		info.Size = obj.Size()
		info.ModTime = obj.ModTime(ctx)
		info.Mode = 0o644
	} else {
		info.IsDir = true
		info.Mode = os.ModeDir | 0o755
	}
	return info
}

// === Extension: StreamReader ===

func (e *Engine) Get(ctx context.Context, p string) (io.ReadCloser, error) {
	return e.Open(ctx, p)
}

// === Extension: Copier ===

// Copy copies single objects server-side where the backend allows it.
// Directories report ErrNotSupported so callers fall back to a generic walk.
func (e *Engine) Copy(ctx context.Context, src, dst string) error {
	src, dst = clean(src), clean(dst)
	if _, err := e.remote.NewObject(ctx, src); err != nil {
		if errors.Is(err, fs.ErrorIsDir) || errors.Is(err, fs.ErrorNotAFile) {
			return workbox.ErrNotSupported
		}
		if info, statErr := e.Stat(ctx, src); statErr == nil && info.IsDir {
			return workbox.ErrNotSupported
		}
		return convertError(err)
	}
	return operations.CopyFile(ctx, e.remote, e.remote, dst, src)
}

// === Extension: Walker ===

// WalkNative performs a native rclone walk, which is more efficient than
// the generic workbox.Walk for remote backends.
func (e *Engine) WalkNative(ctx context.Context, p string, fn workbox.WalkFunc) error {
	return rcloneWalk.Walk(ctx, e.remote, clean(p), true, -1, func(walkPath string, entries fs.DirEntries, err error) error {
		if err != nil {
			return fn(walkPath, nil, err)
		}
		for _, entry := range entries {
			if err := fn(entry.Remote(), entryInfo(ctx, entry), nil); err != nil {
				return err
			}
		}
		return nil
	})
}

// Helpers

func convertError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, fs.ErrorObjectNotFound) || errors.Is(err, fs.ErrorDirNotFound) {
		return os.ErrNotExist
	}
	return err
}

// Compile-time interface checks.
var (
	_ workbox.StorageEngine = (*Engine)(nil)
	_ workbox.StreamReader  = (*Engine)(nil)
	_ workbox.Copier        = (*Engine)(nil)
	_ workbox.Walker        = (*Engine)(nil)
)
