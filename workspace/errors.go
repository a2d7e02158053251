package workspace

import (
	"errors"
	"fmt"
)

// Kind classifies a failed operation. A Kind is itself an error so callers
// can test with errors.Is(err, workspace.NotFound).
type Kind string

const (
	AccessDenied  Kind = "access denied"
	NotFound      Kind = "not found"
	NotAFile      Kind = "not a file"
	NotADirectory Kind = "not a directory"
	DecodeError   Kind = "decode error"
	FetchError    Kind = "fetch error"
	IOError       Kind = "I/O error"
)

func (k Kind) Error() string { return string(k) }

var (
	errOutsideRoot   = errors.New("path resolves outside the sandbox root")
	errRootProtected = errors.New("cannot remove or replace the sandbox root directory")
	errLinkLoop      = errors.New("too many levels of symbolic links")
	errInvalidUTF8   = errors.New("content is not valid UTF-8 text")
	errTooLarge      = errors.New("response body exceeds size limit")
	errIntoItself    = errors.New("cannot copy a directory into itself")
)

// Error is the failure of one Store operation on one path.
type Error struct {
	Op   string // operation name, e.g. "read"
	Kind Kind
	Path string // logical path (or URL for download failures) as given by the caller
	Err  error  // underlying cause, may be nil
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s %q: %s", e.Op, e.Path, e.Kind)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is e's Kind.
func (e *Error) Is(target error) bool {
	k, ok := target.(Kind)
	return ok && k == e.Kind
}

// KindOf returns the Kind carried by err, or IOError for foreign errors and
// "" for nil.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	var ke kindError
	if errors.As(err, &ke) {
		return ke.kind
	}
	if k, ok := err.(Kind); ok {
		return k
	}
	return IOError
}

func newError(op string, kind Kind, p string, err error) *Error {
	return &Error{Op: op, Kind: kind, Path: p, Err: err}
}
