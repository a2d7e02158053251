// Package drivers is a convenience package that registers all built-in
// storage drivers. Import it with a blank identifier to make all drivers
// available:
//
//	import _ "github.com/nuln/workbox/drivers"
package drivers

import (
	// rclone backends reachable through connection-string remotes such as
	// ":s3,provider=AWS:bucket/workspace".
	_ "github.com/rclone/rclone/backend/local"
	_ "github.com/rclone/rclone/backend/s3"
	_ "github.com/rclone/rclone/backend/sftp"
	_ "github.com/rclone/rclone/backend/webdav"

	"github.com/nuln/workbox"
	_ "github.com/nuln/workbox/driver/local"
	_ "github.com/nuln/workbox/driver/rclone"
)

// Init ensures all built-in drivers are registered.
// This is called automatically by importing the package.
func Init() {}

// List returns a list of all registered storage drivers.
func List() []string {
	return workbox.List()
}
