// Package workbox provides the storage layer behind a shared agent workspace.
//
// It defines a [StorageEngine] interface that can be backed by different
// storage backends through a driver registration mechanism. The sandboxed
// store built on top of it lives in the workspace package; the content
// gateway that feeds it lives in the gateway package.
//
// # Supported Drivers
//
//   - local:  Local filesystem via afero (import _ "github.com/nuln/workbox/driver/local")
//   - rclone: Any rclone-supported remote (import _ "github.com/nuln/workbox/driver/rclone")
//
// # Quick Start
//
//	import (
//	    "github.com/nuln/workbox"
//	    _ "github.com/nuln/workbox/driver/local"
//	    "github.com/nuln/workbox/workspace"
//	)
//
//	engine, err := workbox.Open(&workbox.Config{Type: "local", BasePath: "/srv/sandbox"})
//	if err != nil { ... }
//	store, err := workspace.New(engine)
//
// # Import All Drivers
//
//	import _ "github.com/nuln/workbox/drivers"
package workbox
