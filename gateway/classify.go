package gateway

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/nuln/workbox/internal/httpclient"
)

// DefaultProbeTimeout bounds a single HEAD probe.
const DefaultProbeTimeout = 20 * time.Second

// textualTypes are accepted in addition to the whole text/* family.
var textualTypes = map[string]bool{
	"text/html":             true,
	"text/plain":            true,
	"application/json":      true,
	"application/xhtml+xml": true,
}

// MediaType returns the lower-cased primary token of a Content-Type header
// value, without parameters such as charset.
func MediaType(contentType string) string {
	mt, _, _ := strings.Cut(contentType, ";")
	return strings.ToLower(strings.TrimSpace(mt))
}

// IsTextual reports whether a media type can be handed to the text pipeline.
func IsTextual(mediaType string) bool {
	return strings.HasPrefix(mediaType, "text/") || textualTypes[mediaType]
}

// Prober fetches the declared content type of a URL without its body.
type Prober interface {
	Probe(ctx context.Context, url string) (contentType string, err error)
}

// HTTPProber probes with a HEAD request, following redirects. A non-2xx
// answer counts as a failed probe.
type HTTPProber struct {
	client *http.Client
}

// NewHTTPProber returns a prober whose requests time out after timeout.
func NewHTTPProber(timeout time.Duration) *HTTPProber {
	return &HTTPProber{client: httpclient.NewClient(timeout)}
}

func (p *HTTPProber) Probe(ctx context.Context, url string) (string, error) {
	resp, err := httpclient.Head(ctx, p.client, url)
	if err != nil {
		return "", err
	}
	resp.Body.Close()
	return resp.Header.Get("Content-Type"), nil
}

// Decision is the outcome of classifying a URL.
type Decision int

const (
	// Unknown means the probe failed or declared no type; retrieval decides.
	Unknown Decision = iota
	Accept
	Reject
)

func (d Decision) String() string {
	switch d {
	case Accept:
		return "accept"
	case Reject:
		return "reject"
	default:
		return "unknown"
	}
}

// Verdict is the classification of one URL.
type Verdict struct {
	Decision  Decision
	MediaType string // primary media type as probed, "" when unknown
}

// Classify probes url and decides whether its content is textual. A probe
// failure yields an Unknown verdict together with the probe error.
func Classify(ctx context.Context, prober Prober, url string) (Verdict, error) {
	ct, err := prober.Probe(ctx, url)
	if err != nil {
		return Verdict{Decision: Unknown}, err
	}
	mt := MediaType(ct)
	switch {
	case mt == "":
		return Verdict{Decision: Unknown}, nil
	case IsTextual(mt):
		return Verdict{Decision: Accept, MediaType: mt}, nil
	default:
		return Verdict{Decision: Reject, MediaType: mt}, nil
	}
}
