// Package boxtest holds the conformance suite shared by all workbox drivers.
package boxtest

import (
	"context"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/nuln/workbox"
)

func put(t *testing.T, engine workbox.StorageEngine, path, content string) {
	t.Helper()
	if err := engine.Put(context.Background(), path, strings.NewReader(content)); err != nil {
		t.Fatalf("Put %s: %v", path, err)
	}
}

func read(t *testing.T, engine workbox.StorageEngine, path string) string {
	t.Helper()
	r, err := engine.Open(context.Background(), path)
	if err != nil {
		t.Fatalf("Open %s: %v", path, err)
	}
	defer func() { _ = r.Close() }()
	data, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("ReadAll %s: %v", path, err)
	}
	return string(data)
}

// StorageTestSuite runs a comprehensive set of tests against a StorageEngine
// implementation. Call this in your driver tests to verify correctness:
//
//	func TestLocalStorage(t *testing.T) {
//	    engine := setupEngine(t)
//	    boxtest.StorageTestSuite(t, engine)
//	}
func StorageTestSuite(t *testing.T, engine workbox.StorageEngine) { //nolint:gocyclo
	t.Helper()
	ctx := context.Background()

	t.Run("Put_Open_Stat_Remove", func(t *testing.T) {
		path := "test/hello.txt"
		content := "hello world"

		put(t, engine, path, content)

		info, err := engine.Stat(ctx, path)
		if err != nil {
			t.Fatalf("Stat: %v", err)
		}
		if info.Name != "hello.txt" {
			t.Errorf("Name = %q, want %q", info.Name, "hello.txt")
		}
		if info.Size != int64(len(content)) {
			t.Errorf("Size = %d, want %d", info.Size, len(content))
		}
		if info.IsDir {
			t.Error("IsDir = true, want false")
		}

		if got := read(t, engine, path); got != content {
			t.Errorf("content = %q, want %q", got, content)
		}

		if err := engine.Remove(ctx, path); err != nil {
			t.Fatalf("Remove: %v", err)
		}
		if _, err := engine.Stat(ctx, path); err == nil {
			t.Error("Stat after Remove: expected error, got nil")
		}
		_ = engine.Remove(ctx, "test")
	})

	t.Run("Put_Replaces", func(t *testing.T) {
		path := "replace/me.txt"
		put(t, engine, path, "a much longer first version")
		put(t, engine, path, "short")

		if got := read(t, engine, path); got != "short" {
			t.Errorf("after replace = %q, want %q", got, "short")
		}
		_ = engine.Remove(ctx, "replace")
	})

	t.Run("Put_Empty", func(t *testing.T) {
		put(t, engine, "empty.txt", "")
		info, err := engine.Stat(ctx, "empty.txt")
		if err != nil {
			t.Fatalf("Stat: %v", err)
		}
		if info.Size != 0 {
			t.Errorf("Size = %d, want 0", info.Size)
		}
		_ = engine.Remove(ctx, "empty.txt")
	})

	t.Run("Put_Concurrent", func(t *testing.T) {
		path := "race/target.txt"
		contents := []string{
			strings.Repeat("a", 4096),
			strings.Repeat("b", 8192),
			strings.Repeat("c", 1024),
			strings.Repeat("d", 16384),
		}

		var wg sync.WaitGroup
		for _, c := range contents {
			wg.Add(1)
			go func(c string) {
				defer wg.Done()
				_ = engine.Put(ctx, path, strings.NewReader(c))
			}(c)
		}
		wg.Wait()

		got := read(t, engine, path)
		found := false
		for _, c := range contents {
			if got == c {
				found = true
			}
		}
		if !found {
			t.Errorf("content after concurrent Put is not one of the written values (len %d)", len(got))
		}
		_ = engine.Remove(ctx, "race")
	})

	t.Run("MkdirAll_ReadDir", func(t *testing.T) {
		dir := "test/dirops"
		if err := engine.MkdirAll(ctx, dir); err != nil {
			t.Fatalf("MkdirAll: %v", err)
		}
		if err := engine.MkdirAll(ctx, dir); err != nil {
			t.Fatalf("MkdirAll twice: %v", err)
		}

		for _, name := range []string{"a.txt", "b.txt"} {
			put(t, engine, dir+"/"+name, name)
		}

		entries, err := engine.ReadDir(ctx, dir)
		if err != nil {
			t.Fatalf("ReadDir: %v", err)
		}
		if len(entries) != 2 {
			t.Errorf("ReadDir: got %d entries, want 2", len(entries))
		}

		info, err := engine.Stat(ctx, dir)
		if err != nil {
			t.Fatalf("Stat dir: %v", err)
		}
		if !info.IsDir {
			t.Error("Stat dir: IsDir = false, want true")
		}

		_ = engine.Remove(ctx, "test")
	})

	t.Run("Rename", func(t *testing.T) {
		src := "rename_src.txt"
		dst := "renamed/rename_dst.txt"

		put(t, engine, src, "data")

		if err := engine.Rename(ctx, src, dst); err != nil {
			t.Fatalf("Rename: %v", err)
		}

		if _, err := engine.Stat(ctx, src); err == nil {
			t.Error("Stat src after Rename: expected error")
		}
		info, err := engine.Stat(ctx, dst)
		if err != nil {
			t.Fatalf("Stat dst: %v", err)
		}
		if info.Size != 4 {
			t.Errorf("dst size = %d, want 4", info.Size)
		}

		_ = engine.Remove(ctx, "renamed")
	})

	t.Run("Walk", func(t *testing.T) {
		_ = engine.MkdirAll(ctx, "walk/sub")
		put(t, engine, "walk/f1.txt", "1")
		put(t, engine, "walk/sub/f2.txt", "2")

		var files []string
		err := workbox.Walk(ctx, engine, "walk", func(path string, info *workbox.EntryInfo, err error) error {
			if err != nil {
				return err
			}
			if !info.IsDir {
				files = append(files, info.Name)
			}
			return nil
		})
		if err != nil {
			t.Fatalf("Walk: %v", err)
		}

		if len(files) != 2 {
			t.Errorf("Walk found %d files, want 2: %v", len(files), files)
		}

		_ = engine.Remove(ctx, "walk")
	})

	if copier, ok := engine.(workbox.Copier); ok {
		t.Run("Copier", func(t *testing.T) {
			src := "copy_src.txt"
			dst := "copied/copy_dst.txt"

			put(t, engine, src, "copy me")

			if err := copier.Copy(ctx, src, dst); err != nil {
				if err == workbox.ErrNotSupported {
					t.Skip("Copy not supported by this backend")
				}
				t.Fatalf("Copy: %v", err)
			}

			if got := read(t, engine, dst); got != "copy me" {
				t.Errorf("Copy content = %q, want %q", got, "copy me")
			}
			if got := read(t, engine, src); got != "copy me" {
				t.Errorf("source after Copy = %q, want %q", got, "copy me")
			}

			_ = engine.Remove(ctx, src)
			_ = engine.Remove(ctx, "copied")
		})
	}

	if sr, ok := engine.(workbox.StreamReader); ok {
		t.Run("StreamReader", func(t *testing.T) {
			path := "stream_test.txt"
			put(t, engine, path, "stream data")

			rc, err := sr.Get(ctx, path)
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			data, _ := io.ReadAll(rc)
			_ = rc.Close()
			if !strings.Contains(string(data), "stream data") {
				t.Errorf("Get content = %q, want containing %q", string(data), "stream data")
			}

			_ = engine.Remove(ctx, path)
		})
	}
}
