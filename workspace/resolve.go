package workspace

import (
	"context"
	"errors"
	"path"
	"strings"

	"github.com/nuln/workbox"
)

// maxLinkHops matches the Linux limit for symbolic link traversal.
const maxLinkHops = 40

// logicalComponents splits a caller path into components. Leading
// separators are dropped so absolute-looking input stays sandbox-relative.
func logicalComponents(logical string) []string {
	p := strings.ReplaceAll(logical, `\`, "/")
	p = strings.TrimLeft(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

// resolve maps a logical path to its physical engine path, "" being the
// root. Components are walked left to right: "." is skipped, ".." pops and
// may never pop past the root, and every existing symbolic link is replaced
// by its target before walking on. Every candidate is checked, including
// those reached again through ".." after a missing component, and
// components that do not exist yet are taken literally. The result is never
// outside the root.
func (s *Store) resolve(ctx context.Context, op, logical string) (string, error) {
	linker, _ := s.engine.(workbox.Linker)

	pending := logicalComponents(logical)
	var resolved []string
	hops := 0

	for len(pending) > 0 {
		comp := pending[0]
		pending = pending[1:]

		switch comp {
		case "", ".":
			continue
		case "..":
			if len(resolved) == 0 {
				return "", s.denied(op, logical)
			}
			resolved = resolved[:len(resolved)-1]
			continue
		}

		candidate := path.Join(append(resolved, comp)...)
		if linker != nil {
			info, err := linker.Lstat(ctx, candidate)
			switch {
			case err != nil:
				// Not there yet; taken literally.
			case info.IsSymlink():
				hops++
				if hops > maxLinkHops {
					return "", newError(op, IOError, logical, errLinkLoop)
				}
				target, err := linker.Readlink(ctx, candidate)
				if errors.Is(err, workbox.ErrOutsideRoot) {
					return "", s.denied(op, logical)
				}
				if err != nil {
					return "", newError(op, IOError, logical, err)
				}
				if strings.HasPrefix(target, "/") {
					resolved = resolved[:0]
				}
				pending = append(logicalComponents(target), pending...)
				continue
			}
		}
		resolved = append(resolved, comp)
	}
	return path.Join(resolved...), nil
}

// resolveAll resolves several logical paths, failing on the first denial.
func (s *Store) resolveAll(ctx context.Context, op string, logical ...string) ([]string, error) {
	out := make([]string, len(logical))
	for i, l := range logical {
		p, err := s.resolve(ctx, op, l)
		if err != nil {
			return nil, err
		}
		out[i] = p
	}
	return out, nil
}

func (s *Store) denied(op, logical string) error {
	s.log.Warn().Str("op", op).Str("path", logical).Msg("Path escapes sandbox root")
	return newError(op, AccessDenied, logical, errOutsideRoot)
}

// within reports whether p is dir or lies below it.
func within(p, dir string) bool {
	return dir == "" || p == dir || strings.HasPrefix(p, dir+"/")
}
