package workbox

import (
	"context"
	"path"
	"path/filepath"
)

// WalkFunc is the callback for Walk. It is called for each file or directory
// visited. If it returns filepath.SkipDir for a directory, Walk skips that
// directory's contents.
type WalkFunc func(path string, info *EntryInfo, err error) error

// Walk walks the file tree rooted at root, calling fn for each file or
// directory in the tree, including root. It works with any StorageEngine
// and defers to the engine's native walk when it implements Walker.
func Walk(ctx context.Context, engine StorageEngine, root string, fn WalkFunc) error {
	info, err := engine.Stat(ctx, root)
	if err != nil {
		err = fn(root, nil, err)
	} else if w, ok := engine.(Walker); ok && info.IsDir {
		err = fn(root, info, nil)
		if err == nil {
			err = w.WalkNative(ctx, root, fn)
		}
	} else {
		err = walkDir(ctx, engine, root, info, fn)
	}
	if err == filepath.SkipDir {
		return nil
	}
	return err
}

func walkDir(ctx context.Context, engine StorageEngine, p string, info *EntryInfo, fn WalkFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !info.IsDir {
		return fn(p, info, nil)
	}

	err := fn(p, info, nil)
	if err != nil {
		if err == filepath.SkipDir {
			return nil
		}
		return err
	}

	entries, err := engine.ReadDir(ctx, p)
	if err != nil {
		err = fn(p, nil, err)
		if err != nil {
			if err == filepath.SkipDir {
				return nil
			}
			return err
		}
	}

	for _, entry := range entries {
		child := entry.Path
		if child == "" {
			child = path.Join(p, entry.Name)
		}
		err = walkDir(ctx, engine, child, entry, fn)
		if err != nil {
			if err == filepath.SkipDir {
				return nil
			}
			return err
		}
	}
	return nil
}
