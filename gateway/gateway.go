// Package gateway filters web content by type before it is retrieved. A
// cheap HEAD probe classifies a URL; pages that declare a non-textual type
// are rejected without downloading their body.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/nuln/workbox/internal/httpclient"
	"github.com/nuln/workbox/internal/util"
)

// ToolName is the name under which the gateway is offered to agents.
const ToolName = "visit_webpage"

// Description is offered to agents together with ToolName.
const Description = "Visits a webpage at the given url and reads its content as a markdown string. " +
	"Only text, HTML, and JSON content is supported. Use this to browse webpages."

const pdfHint = "For PDFs, use the pdf_to_markdown tool instead."

// RejectedError reports a URL whose content type cannot be handled as text.
type RejectedError struct {
	URL         string
	ContentType string
	Hint        string
}

func newRejectedError(url, mediaType string) *RejectedError {
	return &RejectedError{URL: url, ContentType: mediaType, Hint: pdfHint}
}

func (e *RejectedError) Error() string {
	msg := fmt.Sprintf("URL returns unsupported content type '%s'. Only text, HTML, and JSON are supported.", e.ContentType)
	if e.Hint != "" {
		msg += " " + e.Hint
	}
	return msg
}

// Gateway composes a Prober and a Retriever.
type Gateway struct {
	prober    Prober
	retriever Retriever
	log       zerolog.Logger
}

type Option func(*Gateway)

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(g *Gateway) {
		g.log = l
	}
}

// New returns a Gateway that classifies with prober and fetches with
// retriever.
func New(prober Prober, retriever Retriever, opts ...Option) *Gateway {
	g := &Gateway{
		prober:    prober,
		retriever: retriever,
		log:       util.GetLogger("gateway"),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// NewHTTP returns a Gateway over the network with the given limits.
func NewHTTP(probeTimeout, retrieveTimeout time.Duration, maxChars int, opts ...Option) *Gateway {
	return New(NewHTTPProber(probeTimeout), NewWebRetriever(retrieveTimeout, maxChars), opts...)
}

// Visit returns the textual content of url. A URL whose probe declares a
// non-textual type fails with *RejectedError and is never retrieved. When the
// probe fails the page is retrieved anyway.
func (g *Gateway) Visit(ctx context.Context, url string) (string, error) {
	v, err := Classify(ctx, g.prober, url)
	if err != nil {
		g.log.Debug().Err(err).Str("url", url).Msg("Probe failed, retrieving anyway")
	}
	if v.Decision == Reject {
		g.log.Info().Str("url", url).Str("type", v.MediaType).Msg("Rejected non-textual content")
		return "", newRejectedError(url, v.MediaType)
	}

	text, err := g.retriever.Retrieve(ctx, url)
	if err != nil {
		return "", err
	}
	g.log.Debug().Str("url", url).Str("probed", v.MediaType).Int("chars", len(text)).Msg("Retrieved page")
	return text, nil
}

// Invoke is Visit rendered as text. Failures start with "Error: "; Invoke
// never panics.
func (g *Gateway) Invoke(ctx context.Context, url string) (result string) {
	defer func() {
		if r := recover(); r != nil {
			g.log.Error().Str("url", url).Interface("panic", r).Msg("Recovered from panic")
			result = fmt.Sprintf("Error: an unexpected error occurred: %v", r)
		}
	}()

	text, err := g.Visit(ctx, url)
	if err == nil {
		return text
	}
	var rejected *RejectedError
	if errors.As(err, &rejected) {
		return "Error: " + err.Error()
	}
	if httpclient.IsTimeout(err) {
		return "Error: The request timed out. Please try again later or check the URL."
	}
	return fmt.Sprintf("Error: fetching the webpage failed: %v", err)
}
