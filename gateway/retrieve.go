package gateway

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/net/html/charset"

	"github.com/nuln/workbox/internal/httpclient"
)

const (
	// DefaultRetrieveTimeout bounds a full GET including the body.
	DefaultRetrieveTimeout = 20 * time.Second
	// DefaultMaxChars caps the text returned for one page.
	DefaultMaxChars = 40000
	// maxBodyBytes caps how much of a page is read before conversion.
	maxBodyBytes = 10 << 20
)

var blankRuns = regexp.MustCompile(`\n{3,}`)

// Retriever fetches a URL and returns its content as text.
type Retriever interface {
	Retrieve(ctx context.Context, url string) (string, error)
}

// WebRetriever GETs a page and converts HTML to markdown. Other textual
// bodies are returned as they are.
type WebRetriever struct {
	client   *http.Client
	maxChars int
}

// NewWebRetriever returns a retriever whose requests time out after timeout
// and whose output is cut to maxChars characters (0 disables the cut).
func NewWebRetriever(timeout time.Duration, maxChars int) *WebRetriever {
	return &WebRetriever{client: httpclient.NewClient(timeout), maxChars: maxChars}
}

func (r *WebRetriever) Retrieve(ctx context.Context, url string) (string, error) {
	resp, err := httpclient.Get(ctx, r.client, url)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", err
	}

	contentType := resp.Header.Get("Content-Type")
	mt := MediaType(contentType)
	if mt == "" {
		mt = MediaType(mimetype.Detect(body).String())
		contentType = mt
	}
	if !IsTextual(mt) {
		return "", newRejectedError(url, mt)
	}

	decoded, err := toUTF8(body, contentType)
	if err != nil {
		return "", fmt.Errorf("decoding %s: %w", mt, err)
	}

	var text string
	switch mt {
	case "text/html", "application/xhtml+xml":
		text, err = HTMLToMarkdown(bytes.NewReader(decoded), url)
		if err != nil {
			return "", fmt.Errorf("converting %s to markdown: %w", mt, err)
		}
	default:
		text = string(decoded)
	}

	text = strings.ToValidUTF8(text, "\uFFFD")
	text = blankRuns.ReplaceAllString(strings.TrimSpace(text), "\n\n")
	return Truncate(text, r.maxChars), nil
}

// toUTF8 decodes body using the charset named in contentType or, for HTML,
// in a <meta> tag. Bodies without a known charset are taken as UTF-8.
func toUTF8(body []byte, contentType string) ([]byte, error) {
	r, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		return nil, err
	}
	return io.ReadAll(r)
}

// Truncate keeps the head and tail of s when it exceeds maxChars runes,
// marking the cut. maxChars <= 0 returns s unchanged.
func Truncate(s string, maxChars int) string {
	if maxChars <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= maxChars {
		return s
	}
	half := maxChars / 2
	return string(runes[:half]) +
		fmt.Sprintf("\n..._This content has been truncated to stay below %d characters_...\n", maxChars) +
		string(runes[len(runes)-half:])
}
