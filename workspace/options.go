package workspace

import (
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/nuln/workbox/internal/httpclient"
)

const (
	// DefaultDownloadTimeout bounds a whole download, body included.
	DefaultDownloadTimeout = 120 * time.Second
	// DefaultMaxDownloadBytes caps the size of a downloaded body.
	DefaultMaxDownloadBytes int64 = 100 << 20
)

type options struct {
	logger           *zerolog.Logger
	client           *http.Client
	downloadTimeout  time.Duration
	maxDownloadBytes int64
	rootLabel        string
}

type Opt func(*options) error

// WithLogger sets the logger. The default is a component logger derived from
// the global zerolog logger.
func WithLogger(l zerolog.Logger) Opt {
	return func(o *options) error {
		o.logger = &l
		return nil
	}
}

// WithHTTPClient replaces the client used by Download. The client's own
// Timeout is used as is.
func WithHTTPClient(c *http.Client) Opt {
	return func(o *options) error {
		o.client = c
		return nil
	}
}

// WithDownloadTimeout sets the timeout of the default download client.
func WithDownloadTimeout(d time.Duration) Opt {
	return func(o *options) error {
		if d <= 0 {
			return fmt.Errorf("download timeout must be positive, got %s", d)
		}
		o.downloadTimeout = d
		return nil
	}
}

// WithMaxDownloadBytes caps downloaded bodies; 0 disables the cap.
func WithMaxDownloadBytes(n int64) Opt {
	return func(o *options) error {
		if n < 0 {
			return fmt.Errorf("max download bytes must not be negative, got %d", n)
		}
		o.maxDownloadBytes = n
		return nil
	}
}

// WithRootLabel sets the root shown by Store.Root and Store.Description for
// engines that cannot report a host directory themselves.
func WithRootLabel(label string) Opt {
	return func(o *options) error {
		o.rootLabel = label
		return nil
	}
}

func defaultOptions() options {
	return options{
		downloadTimeout:  DefaultDownloadTimeout,
		maxDownloadBytes: DefaultMaxDownloadBytes,
	}
}

func (o *options) httpClient() *http.Client {
	if o.client != nil {
		return o.client
	}
	return httpclient.NewClient(o.downloadTimeout)
}
