// Package workspace implements the sandboxed shared workspace: a
// path-confined file store that agents reach through ten operations.
//
// Every logical path is resolved against the store's engine one component at
// a time, following symbolic links, and is rejected with AccessDenied when it
// would leave the root. Writes publish by atomic rename and are serialised
// per physical path, so readers never observe a partial file.
package workspace

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/nuln/workbox"
	"github.com/nuln/workbox/driver/local"
	"github.com/nuln/workbox/internal/util"
)

// Store is a sandboxed workspace over one storage engine. A Store is safe for
// concurrent use; independent Stores with different roots may coexist.
type Store struct {
	engine           workbox.StorageEngine
	root             string
	locks            *lockTable
	client           *http.Client
	maxDownloadBytes int64
	log              zerolog.Logger
}

// New returns a Store over engine.
func New(engine workbox.StorageEngine, opts ...Opt) (*Store, error) {
	o := defaultOptions()
	for _, opt := range opts {
		if err := opt(&o); err != nil {
			return nil, err
		}
	}

	root := o.rootLabel
	if r, ok := engine.(interface{ Root() string }); ok && r.Root() != "" {
		root = r.Root()
	}

	logger := util.GetLogger("workspace")
	if o.logger != nil {
		logger = *o.logger
	}

	return &Store{
		engine:           engine,
		root:             root,
		locks:            newLockTable(),
		client:           o.httpClient(),
		maxDownloadBytes: o.maxDownloadBytes,
		log:              logger.With().Str("root", root).Logger(),
	}, nil
}

// Open returns a Store over a local directory, creating it if missing.
func Open(root string, opts ...Opt) (*Store, error) {
	engine, err := local.New(root)
	if err != nil {
		return nil, err
	}
	return New(engine, opts...)
}

// OpenConfig returns a Store over an engine from the driver registry.
func OpenConfig(cfg *workbox.Config, opts ...Opt) (*Store, error) {
	engine, err := workbox.Open(cfg)
	if err != nil {
		return nil, err
	}
	label := cfg.BasePath
	if label == "" {
		label = cfg.StringOption("remote", "")
	}
	return New(engine, append([]Opt{WithRootLabel(label)}, opts...)...)
}

// Root returns the canonical sandbox root, or the configured label for
// remote engines.
func (s *Store) Root() string {
	return s.root
}

// Engine returns the underlying storage engine.
func (s *Store) Engine() workbox.StorageEngine {
	return s.engine
}

func (s *Store) stat(ctx context.Context, p string) (*workbox.EntryInfo, bool) {
	info, err := s.engine.Stat(ctx, p)
	if err != nil {
		return nil, false
	}
	return info, true
}
