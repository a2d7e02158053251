// Package httpclient holds the small HTTP helpers shared by the fetch paths.
package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// UserAgent is sent with every outbound request.
const UserAgent = "workbox/1.0 (+https://github.com/nuln/workbox)"

// NewClient returns a client whose requests, including redirects and body
// reads, are bounded by timeout. Redirects are followed.
func NewClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

// Get calls HTTP GET and verifies that the status code is 2XX.
func Get(ctx context.Context, c *http.Client, url string) (*http.Response, error) {
	return do(ctx, c, http.MethodGet, url)
}

// Head calls HTTP HEAD and verifies that the status code is 2XX.
func Head(ctx context.Context, c *http.Client, url string) (*http.Response, error) {
	return do(ctx, c, http.MethodHead, url)
}

func do(ctx context.Context, c *http.Client, method, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, http.NoBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", UserAgent)
	resp, err := c.Do(req)
	if err != nil {
		return nil, err
	}
	if err := Successful(resp); err != nil {
		resp.Body.Close()
		return nil, err
	}
	return resp, nil
}

// StatusErrorBodyMaxLength specifies the maximum length of StatusError.Body.
const StatusErrorBodyMaxLength = 4 * 1024

// StatusError is created from a non-2XX HTTP response.
type StatusError struct {
	// StatusCode is non-2XX status code
	StatusCode int
	// Body is at most StatusErrorBodyMaxLength
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// Successful returns a *StatusError when resp is not 2XX.
func Successful(resp *http.Response) error {
	if resp == nil {
		return errors.New("nil response")
	}
	if resp.StatusCode/100 != 2 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, StatusErrorBodyMaxLength))
		return &StatusError{
			StatusCode: resp.StatusCode,
			Body:       string(b),
		}
	}
	return nil
}

// IsTimeout reports whether err came from a deadline or client timeout.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var te interface{ Timeout() bool }
	return errors.As(err, &te) && te.Timeout()
}
