package workbox

import (
	"os"
	"strings"
	"time"
)

// EntryInfo describes a file or directory in a storage engine.
type EntryInfo struct {
	Name    string      `json:"name"`
	Size    int64       `json:"size"`
	ModTime time.Time   `json:"modTime"`
	Mode    os.FileMode `json:"mode"`
	IsDir   bool        `json:"isDir"`
	Path    string      `json:"path"`
}

// IsSymlink reports whether the entry was obtained through Lstat and is a
// symbolic link.
func (e *EntryInfo) IsSymlink() bool {
	return e.Mode&os.ModeSymlink != 0
}

// FromFileInfo converts a standard os.FileInfo found at path.
func FromFileInfo(path string, info os.FileInfo) *EntryInfo {
	return &EntryInfo{
		Name:    info.Name(),
		Size:    info.Size(),
		ModTime: info.ModTime(),
		Mode:    info.Mode(),
		IsDir:   info.IsDir(),
		Path:    path,
	}
}

// TempPrefix marks files a driver is still writing. Drivers place them next
// to their target so the final rename stays within one directory.
const TempPrefix = ".workbox-tmp-"

// IsTempName reports whether name belongs to an in-flight Put.
func IsTempName(name string) bool {
	return strings.HasPrefix(name, TempPrefix)
}
