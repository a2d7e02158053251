package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/nuln/workbox"
)

// Auto-register local storage driver.
func init() {
	workbox.Register("local", func(cfg *workbox.Config) (workbox.StorageEngine, error) {
		return New(cfg.BasePath)
	})
}

const (
	dirPerm  = 0o750
	filePerm = 0o644
)

var errSymlinkInTree = errors.New("refusing to copy symbolic link")

// Engine implements workbox.StorageEngine for the local filesystem.
type Engine struct {
	fs   afero.Fs
	root string // canonical host path; empty for in-memory filesystems
}

// New creates a new local storage Engine rooted at root. The directory is
// created if missing and its symbolic links are resolved once, here.
func New(root string) (*Engine, error) {
	if root == "" {
		return nil, fmt.Errorf("workbox/local: root path is required")
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(absRoot, dirPerm); err != nil {
		return nil, err
	}
	canonical, err := filepath.EvalSymlinks(absRoot)
	if err != nil {
		return nil, err
	}
	return &Engine{
		fs:   afero.NewBasePathFs(afero.NewOsFs(), canonical),
		root: canonical,
	}, nil
}

// NewWithFs creates a local Engine backed by a custom afero.Fs.
// This is useful for testing with afero.MemMapFs.
func NewWithFs(fs afero.Fs) *Engine {
	return &Engine{fs: fs}
}

// Root returns the canonical host directory backing the engine, or "" for
// engines created with NewWithFs.
func (e *Engine) Root() string {
	return e.root
}

func clean(p string) string {
	c := path.Clean("/" + filepath.ToSlash(p))
	return strings.TrimPrefix(c, "/")
}

func (e *Engine) name(p string) string {
	return filepath.FromSlash("/" + clean(p))
}

func (e *Engine) Stat(ctx context.Context, p string) (*workbox.EntryInfo, error) {
	info, err := e.fs.Stat(e.name(p))
	if err != nil {
		return nil, err
	}
	return workbox.FromFileInfo(clean(p), info), nil
}

func (e *Engine) Open(ctx context.Context, p string) (io.ReadCloser, error) {
	return e.fs.Open(e.name(p))
}

func (e *Engine) Put(ctx context.Context, p string, r io.Reader) (err error) {
	target := e.name(p)
	dir := filepath.Dir(target)
	if err := e.fs.MkdirAll(dir, dirPerm); err != nil {
		return err
	}

	perm := os.FileMode(filePerm)
	if info, statErr := e.fs.Stat(target); statErr == nil {
		if info.IsDir() {
			return &os.PathError{Op: "put", Path: clean(p), Err: workbox.ErrIsDir}
		}
		perm = info.Mode().Perm()
	}

	tmp := filepath.Join(dir, workbox.TempPrefix+filepath.Base(target)+"-"+uuid.NewString())
	f, err := e.fs.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = e.fs.Remove(tmp)
		}
	}()

	if _, err = io.Copy(f, r); err != nil {
		_ = f.Close()
		return err
	}
	if err = f.Sync(); err != nil {
		_ = f.Close()
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	return e.fs.Rename(tmp, target)
}

func (e *Engine) Remove(ctx context.Context, p string) error {
	return e.fs.RemoveAll(e.name(p))
}

func (e *Engine) Rename(ctx context.Context, oldPath, newPath string) error {
	target := e.name(newPath)
	if err := e.fs.MkdirAll(filepath.Dir(target), dirPerm); err != nil {
		return err
	}
	return e.fs.Rename(e.name(oldPath), target)
}

func (e *Engine) MkdirAll(ctx context.Context, p string) error {
	return e.fs.MkdirAll(e.name(p), dirPerm)
}

func (e *Engine) ReadDir(ctx context.Context, p string) ([]*workbox.EntryInfo, error) {
	infos, err := afero.ReadDir(e.fs, e.name(p))
	if err != nil {
		return nil, err
	}

	dir := clean(p)
	result := make([]*workbox.EntryInfo, 0, len(infos))
	for _, info := range infos {
		result = append(result, workbox.FromFileInfo(path.Join(dir, info.Name()), info))
	}
	return result, nil
}

// === Extension: Linker ===

func (e *Engine) Lstat(ctx context.Context, p string) (*workbox.EntryInfo, error) {
	n := e.name(p)
	if ls, ok := e.fs.(afero.Lstater); ok {
		info, _, err := ls.LstatIfPossible(n)
		if err != nil {
			return nil, err
		}
		return workbox.FromFileInfo(clean(p), info), nil
	}
	return e.Stat(ctx, p)
}

func (e *Engine) Readlink(ctx context.Context, p string) (string, error) {
	lr, ok := e.fs.(afero.LinkReader)
	if !ok {
		return "", workbox.ErrNotSupported
	}
	target, err := lr.ReadlinkIfPossible(e.name(p))
	if err != nil {
		return "", err
	}
	if !filepath.IsAbs(target) {
		return filepath.ToSlash(target), nil
	}
	if e.root == "" {
		return "", workbox.ErrOutsideRoot
	}
	rel, err := filepath.Rel(e.root, filepath.Clean(target))
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", workbox.ErrOutsideRoot
	}
	if rel == "." {
		return "/", nil
	}
	return "/" + filepath.ToSlash(rel), nil
}

// === Extension: Copier ===

func (e *Engine) Copy(ctx context.Context, src, dst string) error {
	srcInfo, err := e.fs.Stat(e.name(src))
	if err != nil {
		return err
	}
	if srcInfo.IsDir() {
		return e.copyDir(ctx, src, dst)
	}
	return e.copyFile(ctx, src, dst)
}

func (e *Engine) copyFile(ctx context.Context, src, dst string) error {
	sf, err := e.fs.Open(e.name(src))
	if err != nil {
		return err
	}
	defer func() { _ = sf.Close() }()
	return e.Put(ctx, dst, sf)
}

func (e *Engine) copyDir(ctx context.Context, src, dst string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := e.fs.MkdirAll(e.name(dst), dirPerm); err != nil {
		return err
	}
	entries, err := afero.ReadDir(e.fs, e.name(src))
	if err != nil {
		return err
	}
	for _, entry := range entries {
		srcPath := path.Join(clean(src), entry.Name())
		dstPath := path.Join(clean(dst), entry.Name())
		switch {
		case entry.Mode()&os.ModeSymlink != 0:
			return &os.PathError{Op: "copy", Path: srcPath, Err: errSymlinkInTree}
		case entry.IsDir():
			if err := e.copyDir(ctx, srcPath, dstPath); err != nil {
				return err
			}
		default:
			if err := e.copyFile(ctx, srcPath, dstPath); err != nil {
				return err
			}
		}
	}
	return nil
}

// === Extension: StreamReader ===

func (e *Engine) Get(ctx context.Context, p string) (io.ReadCloser, error) {
	return e.fs.Open(e.name(p))
}

// Compile-time interface checks.
var (
	_ workbox.StorageEngine = (*Engine)(nil)
	_ workbox.Copier        = (*Engine)(nil)
	_ workbox.Linker        = (*Engine)(nil)
	_ workbox.StreamReader  = (*Engine)(nil)
)
