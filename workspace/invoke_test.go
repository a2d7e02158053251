package workspace

import (
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nuln/workbox"
)

func TestInvoke_Scenario(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	steps := []struct {
		op   string
		args []string
		want string
	}{
		{"write", []string{"notes/a.md", "hello"}, "Written 5B to notes/a.md"},
		{"listdir", []string{"notes"}, "[FILE] a.md (5B)"},
		{"copy", []string{"notes", "notes_backup"}, "Copied notes to notes_backup"},
		{"read", []string{"notes_backup/a.md"}, "hello"},
		{"move", []string{"notes_backup", "archive/notes"}, "Moved notes_backup to archive/notes"},
		{"listdir", []string{"archive"}, "[DIR]  notes"},
		{"listdir", []string{"notes_backup"}, `Error: listdir "notes_backup": not a directory`},
		{"append", []string{"notes/a.md", " world"}, "Appended 6B to notes/a.md"},
		{"read", []string{"notes/a.md"}, "hello world"},
		{"mkdir", []string{"empty"}, "Created directory empty"},
		{"list", []string{"empty"}, "(empty directory)"},
		{"delete", []string{"notes/a.md"}, "Deleted notes/a.md"},
		{"rmdir", []string{"archive"}, "Removed directory archive and all its contents"},
		{"listdir", []string{"."}, "[DIR]  empty\n[DIR]  notes"},
	}
	for _, step := range steps {
		got := s.Invoke(ctx, step.op, step.args)
		require.Equal(t, step.want, got, "%s %v", step.op, step.args)
	}
}

func TestInvoke_Errors(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	got := s.Invoke(ctx, "format", []string{"/"})
	assert.True(t, strings.HasPrefix(got, "Error: Unknown operation 'format'"))
	for _, name := range Operations() {
		assert.Contains(t, got, name)
	}

	assert.Equal(t, "Error: write requires args: [path, content]", s.Invoke(ctx, "write", []string{"only-path"}))
	assert.Equal(t, "Error: download requires args: [url, path]", s.Invoke(ctx, "fetch-to-file", nil))
	assert.Equal(t, "Error: listdir requires args: [path]", s.Invoke(ctx, "listdir", nil))

	assert.Equal(t, `Error: rmdir "/": access denied: cannot remove or replace the sandbox root directory`,
		s.Invoke(ctx, "rmdir", []string{"/"}))
	assert.Equal(t, `Error: read "../etc/passwd": access denied: path resolves outside the sandbox root`,
		s.Invoke(ctx, "read", []string{"../etc/passwd"}))
	assert.Equal(t, `Error: append "new.txt": not found`, s.Invoke(ctx, "append", []string{"new.txt", "x"}))
}

type nilEngine struct{ workbox.StorageEngine }

func TestInvoke_RecoversPanics(t *testing.T) {
	s, err := New(nilEngine{}, WithLogger(zerolog.Nop()))
	require.NoError(t, err)

	var got string
	require.NotPanics(t, func() {
		got = s.Invoke(context.Background(), "read", []string{"x"})
	})
	assert.True(t, strings.HasPrefix(got, "Error: read failed: "), got)
}

func TestDescription(t *testing.T) {
	s := newTestStore(t)
	d := s.Description()

	assert.Contains(t, d, "The sandbox root directory is: "+s.Root())
	for _, name := range Operations() {
		assert.Contains(t, d, "- "+name+": args: [")
	}
	assert.Contains(t, d, `- copy: args: ["source", "destination"]`)
}

func TestOperations(t *testing.T) {
	assert.Equal(t, []string{
		"listdir", "read", "write", "append", "delete",
		"copy", "move", "mkdir", "rmdir", "download",
	}, Operations())
}

func TestNames(t *testing.T) {
	names := Names()
	assert.Equal(t, Operations(), names[:len(Operations())])
	assert.Equal(t, []string{"fetch-to-file", "list"}, names[len(Operations()):])
	for _, name := range names {
		_, ok := lookup(name)
		assert.True(t, ok, name)
	}
}

func TestFormatListing(t *testing.T) {
	assert.Equal(t, "(empty directory)", FormatListing(nil))
	assert.Equal(t, "[DIR]  d\n[FILE] f (1.5KB)", FormatListing([]*workbox.EntryInfo{
		{Name: "d", IsDir: true},
		{Name: "f", Size: 1536},
	}))
}

func TestHumanSize(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{0, "0B"},
		{5, "5B"},
		{1023, "1023B"},
		{1024, "1.0KB"},
		{1234, "1.2KB"},
		{1536, "1.5KB"},
		{5 * 1024 * 1024, "5.0MB"},
		{3 << 30, "3.0GB"},
		{2048 << 30, "2048.0GB"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, HumanSize(tt.n), tt.n)
	}
}
