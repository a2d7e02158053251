package workspace

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/docker/go-units"

	"github.com/nuln/workbox"
)

// ToolName is the name under which the store is offered to agents.
const ToolName = "file_system"

type operation struct {
	name    string
	args    []string
	summary string
	run     func(s *Store, ctx context.Context, args []string) (string, error)
}

var operations = []operation{
	{
		name:    "listdir",
		args:    []string{"path"},
		summary: `Lists all files and directories at the given path. Use ["."] for the sandbox root.`,
		run: func(s *Store, ctx context.Context, args []string) (string, error) {
			entries, err := s.List(ctx, args[0])
			if err != nil {
				return "", err
			}
			return FormatListing(entries), nil
		},
	},
	{
		name:    "read",
		args:    []string{"path"},
		summary: "Reads and returns the full text content (UTF-8) of a file.",
		run: func(s *Store, ctx context.Context, args []string) (string, error) {
			return s.Read(ctx, args[0])
		},
	},
	{
		name:    "write",
		args:    []string{"path", "content"},
		summary: "Creates or overwrites a file with the given text content. Parent directories are created automatically.",
		run: func(s *Store, ctx context.Context, args []string) (string, error) {
			n, err := s.Write(ctx, args[0], args[1])
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("Written %s to %s", HumanSize(n), args[0]), nil
		},
	},
	{
		name:    "append",
		args:    []string{"path", "content"},
		summary: "Appends text content to the end of an existing file.",
		run: func(s *Store, ctx context.Context, args []string) (string, error) {
			n, err := s.Append(ctx, args[0], args[1])
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("Appended %s to %s", HumanSize(n), args[0]), nil
		},
	},
	{
		name:    "delete",
		args:    []string{"path"},
		summary: "Deletes a single file.",
		run: func(s *Store, ctx context.Context, args []string) (string, error) {
			if err := s.Delete(ctx, args[0]); err != nil {
				return "", err
			}
			return "Deleted " + args[0], nil
		},
	},
	{
		name:    "copy",
		args:    []string{"source", "destination"},
		summary: "Copies a file or directory to a new location within the sandbox.",
		run: func(s *Store, ctx context.Context, args []string) (string, error) {
			if err := s.Copy(ctx, args[0], args[1]); err != nil {
				return "", err
			}
			return fmt.Sprintf("Copied %s to %s", args[0], args[1]), nil
		},
	},
	{
		name:    "move",
		args:    []string{"source", "destination"},
		summary: "Moves or renames a file or directory within the sandbox.",
		run: func(s *Store, ctx context.Context, args []string) (string, error) {
			if err := s.Move(ctx, args[0], args[1]); err != nil {
				return "", err
			}
			return fmt.Sprintf("Moved %s to %s", args[0], args[1]), nil
		},
	},
	{
		name:    "mkdir",
		args:    []string{"path"},
		summary: "Creates a directory, including any necessary parent directories.",
		run: func(s *Store, ctx context.Context, args []string) (string, error) {
			if err := s.Mkdir(ctx, args[0]); err != nil {
				return "", err
			}
			return "Created directory " + args[0], nil
		},
	},
	{
		name:    "rmdir",
		args:    []string{"path"},
		summary: "Recursively removes a directory and all of its contents. Cannot remove the sandbox root itself.",
		run: func(s *Store, ctx context.Context, args []string) (string, error) {
			if err := s.Rmdir(ctx, args[0]); err != nil {
				return "", err
			}
			return fmt.Sprintf("Removed directory %s and all its contents", args[0]), nil
		},
	},
	{
		name:    "download",
		args:    []string{"url", "path"},
		summary: "Downloads a file from a URL and saves it to the given path in the sandbox. Useful for fetching PDFs, images, or other files from the web.",
		run: func(s *Store, ctx context.Context, args []string) (string, error) {
			n, err := s.Download(ctx, args[0], args[1])
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("Downloaded %s from %s to %s", HumanSize(n), args[0], args[1]), nil
		},
	},
}

var aliases = map[string]string{
	"list":          "listdir",
	"fetch-to-file": "download",
}

// Operations returns the canonical operation names in declaration order.
func Operations() []string {
	names := make([]string, len(operations))
	for i, o := range operations {
		names[i] = o.name
	}
	return names
}

// Names returns every name Invoke accepts: the canonical operations followed
// by their aliases.
func Names() []string {
	aliasNames := make([]string, 0, len(aliases))
	for alias := range aliases {
		aliasNames = append(aliasNames, alias)
	}
	sort.Strings(aliasNames)
	return append(Operations(), aliasNames...)
}

func lookup(name string) (operation, bool) {
	if canonical, ok := aliases[name]; ok {
		name = canonical
	}
	for _, o := range operations {
		if o.name == name {
			return o, true
		}
	}
	return operation{}, false
}

// Invoke runs the operation op with positional args and renders the outcome
// as text. Failures come back as strings starting with "Error: "; Invoke
// never panics.
func (s *Store) Invoke(ctx context.Context, op string, args []string) (result string) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error().Str("op", op).Interface("panic", r).Msg("Recovered from panic")
			result = fmt.Sprintf("Error: %s failed: %v", op, r)
		}
	}()

	o, ok := lookup(op)
	if !ok {
		return fmt.Sprintf("Error: Unknown operation '%s'. Must be one of: %s", op, strings.Join(Operations(), ", "))
	}
	if len(args) < len(o.args) {
		return fmt.Sprintf("Error: %s requires args: [%s]", o.name, strings.Join(o.args, ", "))
	}

	out, err := o.run(s, ctx, args)
	if err != nil {
		return "Error: " + err.Error()
	}
	return out
}

// Description returns the tool description offered to agents, naming every
// operation with its arguments and the sandbox root.
func (s *Store) Description() string {
	var b strings.Builder
	b.WriteString("Performs file system operations within a sandboxed directory. ")
	b.WriteString("All paths you provide are relative to the sandbox root. ")
	b.WriteString("You have full freedom to create, read, modify, organize, and delete any files and directories within the sandbox. ")
	b.WriteString("You cannot access anything outside of it.\n\nOperations and expected args:\n")
	for _, o := range operations {
		quoted := make([]string, len(o.args))
		for i, a := range o.args {
			quoted[i] = strconv.Quote(a)
		}
		fmt.Fprintf(&b, "- %s: args: [%s] %s\n", o.name, strings.Join(quoted, ", "), o.summary)
	}
	fmt.Fprintf(&b, "\nThe sandbox root directory is: %s", s.root)
	return b.String()
}

// FormatListing renders entries one per line, directories as "[DIR]  name"
// and files as "[FILE] name (size)".
func FormatListing(entries []*workbox.EntryInfo) string {
	if len(entries) == 0 {
		return "(empty directory)"
	}
	lines := make([]string, len(entries))
	for i, e := range entries {
		if e.IsDir {
			lines[i] = "[DIR]  " + e.Name
		} else {
			lines[i] = fmt.Sprintf("[FILE] %s (%s)", e.Name, HumanSize(e.Size))
		}
	}
	return strings.Join(lines, "\n")
}

// sizeUnits step by 1024 and stop at GB.
var sizeUnits = []string{"B", "KB", "MB", "GB"}

// HumanSize formats n bytes as whole bytes below 1024 ("5B") and with one
// decimal above ("1.5KB", "2.0MB").
func HumanSize(n int64) string {
	if n < 1024 {
		return fmt.Sprintf("%dB", n)
	}
	return units.CustomSize("%.1f%s", float64(n), 1024.0, sizeUnits)
}
