package gateway

import (
	"io"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
)

// HTMLToMarkdown renders an HTML document as CommonMark. Scripts, styles and
// the document head are dropped. Relative links and images are resolved
// against pageURL when it is not empty.
func HTMLToMarkdown(r io.Reader, pageURL string) (string, error) {
	var opts []converter.ConvertOptionFunc
	if pageURL != "" {
		opts = append(opts, converter.WithDomain(pageURL))
	}
	out, err := htmltomarkdown.ConvertReader(r, opts...)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}
