package workbox

import (
	"errors"
	"os"
)

// Common storage errors. Where possible, these alias os package errors
// for compatibility with os.IsNotExist, os.IsPermission, etc.
var (
	ErrNotFound     = os.ErrNotExist
	ErrExist        = os.ErrExist
	ErrPermission   = os.ErrPermission
	ErrInvalid      = os.ErrInvalid
	ErrIsDir        = errors.New("workbox: is a directory")
	ErrNotDir       = errors.New("workbox: not a directory")
	ErrNotSupported = errors.New("workbox: feature not supported by this backend")

	// ErrOutsideRoot is returned by Linker.Readlink when a link target lies
	// outside the engine root.
	ErrOutsideRoot = errors.New("workbox: link target outside engine root")
)
