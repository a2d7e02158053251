package workspace

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/nuln/workbox"
)

var (
	errDestExists = errors.New("destination already exists")
	errSameFile   = errors.New("source and destination are the same file")
	errSymlink    = errors.New("refusing to copy symbolic link")
)

// List returns the entries of dir sorted by name. Symbolic links that stay
// inside the root are reported as their targets.
func (s *Store) List(ctx context.Context, dir string) ([]*workbox.EntryInfo, error) {
	const op = "listdir"
	p, err := s.resolve(ctx, op, dir)
	if err != nil {
		return nil, err
	}
	if info, ok := s.stat(ctx, p); !ok || !info.IsDir {
		return nil, newError(op, NotADirectory, dir, nil)
	}

	entries, err := s.engine.ReadDir(ctx, p)
	if err != nil {
		return nil, newError(op, IOError, dir, err)
	}

	result := make([]*workbox.EntryInfo, 0, len(entries))
	for _, e := range entries {
		if workbox.IsTempName(e.Name) {
			continue
		}
		if e.IsSymlink() {
			e = s.followEntry(ctx, p, e)
		}
		result = append(result, e)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })

	s.log.Debug().Str("op", op).Str("path", dir).Int("entries", len(result)).Msg("Listed directory")
	return result, nil
}

// followEntry describes a listed link by its target when the target is
// confined; otherwise the link itself is returned.
func (s *Store) followEntry(ctx context.Context, dir string, link *workbox.EntryInfo) *workbox.EntryInfo {
	target, err := s.resolve(ctx, "listdir", path.Join(dir, link.Name))
	if err != nil {
		return link
	}
	info, ok := s.stat(ctx, target)
	if !ok {
		return link
	}
	followed := *info
	followed.Name = link.Name
	followed.Path = link.Path
	return &followed
}

// Read returns the full content of the file at p, which must be UTF-8 text.
func (s *Store) Read(ctx context.Context, p string) (string, error) {
	const op = "read"
	rp, err := s.resolve(ctx, op, p)
	if err != nil {
		return "", err
	}
	data, err := s.readFile(ctx, rp)
	if err != nil {
		return "", newError(op, KindOf(err), p, unwrapKind(err))
	}
	if !utf8.Valid(data) {
		return "", newError(op, DecodeError, p, errInvalidUTF8)
	}

	s.log.Debug().Str("op", op).Str("path", p).Int("bytes", len(data)).Msg("Read file")
	return string(data), nil
}

// readFile reads a regular file. A missing path or a directory is NotAFile.
func (s *Store) readFile(ctx context.Context, p string) ([]byte, error) {
	if info, ok := s.stat(ctx, p); !ok || info.IsDir {
		return nil, NotAFile
	}

	var (
		r   io.ReadCloser
		err error
	)
	if sr, ok := s.engine.(workbox.StreamReader); ok {
		r, err = sr.Get(ctx, p)
	} else {
		r, err = s.engine.Open(ctx, p)
	}
	if err != nil {
		return nil, kindError{IOError, err}
	}
	defer func() { _ = r.Close() }()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, kindError{IOError, err}
	}
	return data, nil
}

// Write creates or replaces the file at p with content, creating missing
// parent directories, and returns the number of bytes written.
func (s *Store) Write(ctx context.Context, p, content string) (int64, error) {
	const op = "write"
	rp, err := s.resolve(ctx, op, p)
	if err != nil {
		return 0, err
	}

	unlock := s.locks.lock(rp)
	defer unlock()

	if err := s.engine.Put(ctx, rp, strings.NewReader(content)); err != nil {
		return 0, newError(op, IOError, p, err)
	}

	s.log.Debug().Str("op", op).Str("path", p).Int("bytes", len(content)).Msg("Wrote file")
	return int64(len(content)), nil
}

// Append adds content to the end of an existing file and returns the number
// of bytes appended. It never creates a file.
func (s *Store) Append(ctx context.Context, p, content string) (int64, error) {
	const op = "append"
	rp, err := s.resolve(ctx, op, p)
	if err != nil {
		return 0, err
	}

	unlock := s.locks.lock(rp)
	defer unlock()

	info, ok := s.stat(ctx, rp)
	if !ok {
		return 0, newError(op, NotFound, p, nil)
	}
	if info.IsDir {
		return 0, newError(op, NotAFile, p, nil)
	}

	existing, err := s.readFile(ctx, rp)
	if err != nil {
		return 0, newError(op, KindOf(err), p, unwrapKind(err))
	}
	body := io.MultiReader(bytes.NewReader(existing), strings.NewReader(content))
	if err := s.engine.Put(ctx, rp, body); err != nil {
		return 0, newError(op, IOError, p, err)
	}

	s.log.Debug().Str("op", op).Str("path", p).Int("bytes", len(content)).Msg("Appended to file")
	return int64(len(content)), nil
}

// Delete removes exactly one file.
func (s *Store) Delete(ctx context.Context, p string) error {
	const op = "delete"
	rp, err := s.resolve(ctx, op, p)
	if err != nil {
		return err
	}

	unlock := s.locks.lock(rp)
	defer unlock()

	if info, ok := s.stat(ctx, rp); !ok || info.IsDir {
		return newError(op, NotAFile, p, nil)
	}
	if err := s.engine.Remove(ctx, rp); err != nil {
		return newError(op, IOError, p, err)
	}

	s.log.Debug().Str("op", op).Str("path", p).Msg("Deleted file")
	return nil
}

// Copy duplicates a file or, recursively, a directory. A file copied onto an
// existing directory lands inside it; a directory is only copied to a
// destination that does not exist yet.
func (s *Store) Copy(ctx context.Context, src, dst string) error {
	const op = "copy"
	paths, err := s.resolveAll(ctx, op, src, dst)
	if err != nil {
		return err
	}
	rsrc, rdst := paths[0], paths[1]

	srcInfo, ok := s.stat(ctx, rsrc)
	if !ok {
		return newError(op, NotFound, src, nil)
	}
	dstInfo, dstExists := s.stat(ctx, rdst)

	if srcInfo.IsDir {
		if dstExists {
			return newError(op, IOError, dst, errDestExists)
		}
		if within(rdst, rsrc) {
			return newError(op, IOError, dst, errIntoItself)
		}
	} else if dstExists && dstInfo.IsDir {
		rdst = path.Join(rdst, path.Base(rsrc))
	}
	if rsrc == rdst {
		return newError(op, IOError, dst, errSameFile)
	}

	unlock := s.locks.lock(rsrc, rdst)
	defer unlock()

	if err := s.copy(ctx, rsrc, rdst); err != nil {
		return newError(op, IOError, src, err)
	}

	s.log.Debug().Str("op", op).Str("src", src).Str("dst", dst).Msg("Copied")
	return nil
}

func (s *Store) copy(ctx context.Context, src, dst string) error {
	if c, ok := s.engine.(workbox.Copier); ok {
		err := c.Copy(ctx, src, dst)
		if !errors.Is(err, workbox.ErrNotSupported) {
			return err
		}
	}
	return s.copyWalk(ctx, src, dst)
}

// copyWalk copies src to dst entry by entry for engines without a native
// recursive copy.
func (s *Store) copyWalk(ctx context.Context, src, dst string) error {
	return workbox.Walk(ctx, s.engine, src, func(p string, info *workbox.EntryInfo, err error) error {
		if err != nil {
			return err
		}
		rel := strings.TrimPrefix(strings.TrimPrefix(p, src), "/")
		if src == "" {
			rel = p
		}
		target := path.Join(dst, rel)
		switch {
		case info.IsSymlink():
			return errSymlink
		case info.IsDir:
			return s.engine.MkdirAll(ctx, target)
		default:
			r, err := s.engine.Open(ctx, p)
			if err != nil {
				return err
			}
			defer func() { _ = r.Close() }()
			return s.engine.Put(ctx, target, r)
		}
	})
}

// Move renames src to dst. Moving onto an existing directory places src
// inside it. The root itself can never be moved.
func (s *Store) Move(ctx context.Context, src, dst string) error {
	const op = "move"
	paths, err := s.resolveAll(ctx, op, src, dst)
	if err != nil {
		return err
	}
	rsrc, rdst := paths[0], paths[1]

	if rsrc == "" {
		return newError(op, AccessDenied, src, errRootProtected)
	}
	srcInfo, ok := s.stat(ctx, rsrc)
	if !ok {
		return newError(op, NotFound, src, nil)
	}
	if dstInfo, ok := s.stat(ctx, rdst); ok && dstInfo.IsDir {
		rdst = path.Join(rdst, path.Base(rsrc))
		if _, exists := s.stat(ctx, rdst); exists {
			return newError(op, IOError, dst, errDestExists)
		}
	} else if ok && srcInfo.IsDir {
		return newError(op, IOError, dst, errDestExists)
	}
	if srcInfo.IsDir && within(rdst, rsrc) {
		return newError(op, IOError, dst, errIntoItself)
	}

	unlock := s.locks.lock(rsrc, rdst)
	defer unlock()

	if err := s.engine.Rename(ctx, rsrc, rdst); err != nil {
		return newError(op, IOError, src, err)
	}

	s.log.Debug().Str("op", op).Str("src", src).Str("dst", dst).Msg("Moved")
	return nil
}

// Mkdir creates the directory p and any missing ancestors. It succeeds when
// p already is a directory.
func (s *Store) Mkdir(ctx context.Context, p string) error {
	const op = "mkdir"
	rp, err := s.resolve(ctx, op, p)
	if err != nil {
		return err
	}
	if info, ok := s.stat(ctx, rp); ok {
		if info.IsDir {
			return nil
		}
		return newError(op, IOError, p, workbox.ErrExist)
	}
	if err := s.engine.MkdirAll(ctx, rp); err != nil {
		return newError(op, IOError, p, err)
	}

	s.log.Debug().Str("op", op).Str("path", p).Msg("Created directory")
	return nil
}

// Rmdir removes the directory p and everything below it. The root cannot be
// removed.
func (s *Store) Rmdir(ctx context.Context, p string) error {
	const op = "rmdir"
	rp, err := s.resolve(ctx, op, p)
	if err != nil {
		return err
	}
	if rp == "" {
		return newError(op, AccessDenied, p, errRootProtected)
	}

	unlock := s.locks.lock(rp)
	defer unlock()

	if info, ok := s.stat(ctx, rp); !ok || !info.IsDir {
		return newError(op, NotADirectory, p, nil)
	}
	if err := s.engine.Remove(ctx, rp); err != nil {
		return newError(op, IOError, p, err)
	}

	s.log.Debug().Str("op", op).Str("path", p).Msg("Removed directory")
	return nil
}

// kindError carries a Kind through internal helpers that do not know the
// operation or logical path.
type kindError struct {
	kind Kind
	err  error
}

func (e kindError) Error() string { return e.kind.Error() + ": " + e.err.Error() }

func (e kindError) Unwrap() error { return e.err }

// unwrapKind returns the cause carried by err without its Kind.
func unwrapKind(err error) error {
	var ke kindError
	if errors.As(err, &ke) {
		return ke.err
	}
	if _, ok := err.(Kind); ok {
		return nil
	}
	return err
}
