package gateway

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRetriever struct {
	text  string
	err   error
	calls int
}

func (r *stubRetriever) Retrieve(context.Context, string) (string, error) {
	r.calls++
	return r.text, r.err
}

func TestVisit_RejectsWithoutRetrieving(t *testing.T) {
	prober := &stubProber{contentType: "application/pdf"}
	retriever := &stubRetriever{text: "should not be read"}
	g := New(prober, retriever, WithLogger(zerolog.Nop()))

	_, err := g.Visit(context.Background(), "https://arxiv.org/pdf/1234")
	var rejected *RejectedError
	require.True(t, errors.As(err, &rejected))
	assert.Equal(t, "application/pdf", rejected.ContentType)
	assert.Equal(t, 0, retriever.calls)

	got := g.Invoke(context.Background(), "https://arxiv.org/pdf/1234")
	assert.Equal(t, "Error: URL returns unsupported content type 'application/pdf'. "+
		"Only text, HTML, and JSON are supported. For PDFs, use the pdf_to_markdown tool instead.", got)
	assert.Equal(t, 0, retriever.calls)
}

func TestVisit_ProbeFailureFallsThrough(t *testing.T) {
	prober := &stubProber{err: errors.New("dial tcp: connection refused")}

	ok := &stubRetriever{text: "# page"}
	g := New(prober, ok, WithLogger(zerolog.Nop()))
	assert.Equal(t, "# page", g.Invoke(context.Background(), "https://example.org"))
	assert.Equal(t, 1, ok.calls)

	failing := &stubRetriever{err: errors.New("dial tcp: connection refused")}
	g = New(prober, failing, WithLogger(zerolog.Nop()))
	assert.Equal(t, "Error: fetching the webpage failed: dial tcp: connection refused",
		g.Invoke(context.Background(), "https://example.org"))
	assert.Equal(t, 1, failing.calls)
}

func TestVisit_AcceptedAndUndeclared(t *testing.T) {
	for _, ct := range []string{"text/html; charset=utf-8", ""} {
		r := &stubRetriever{text: "body"}
		g := New(&stubProber{contentType: ct}, r, WithLogger(zerolog.Nop()))
		got, err := g.Visit(context.Background(), "https://example.org")
		require.NoError(t, err)
		assert.Equal(t, "body", got)
		assert.Equal(t, 1, r.calls)
	}
}

type panickingRetriever struct{}

func (panickingRetriever) Retrieve(context.Context, string) (string, error) { panic("boom") }

func TestInvoke_RecoversPanics(t *testing.T) {
	g := New(&stubProber{}, panickingRetriever{}, WithLogger(zerolog.Nop()))
	var got string
	require.NotPanics(t, func() { got = g.Invoke(context.Background(), "https://example.org") })
	assert.Equal(t, "Error: an unexpected error occurred: boom", got)
}

func newSite(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var gets atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/paper.pdf", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			gets.Add(1)
		}
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("%PDF-1.4 binary"))
	})
	mux.HandleFunc("/page", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			http.Error(w, "no HEAD here", http.StatusMethodNotAllowed)
			return
		}
		gets.Add(1)
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte("<html><body><h1>Hi</h1><p>one</p>\n\n\n\n<p>two</p></body></html>"))
	})
	mux.HandleFunc("/data.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"a": 1}`))
	})
	mux.HandleFunc("/sniff", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			http.Error(w, "", http.StatusInternalServerError)
			return
		}
		gets.Add(1)
		w.Header()["Content-Type"] = nil
		_, _ = w.Write([]byte("%PDF-1.4\n%âãÏÓ\n1 0 obj"))
	})
	mux.HandleFunc("/slow", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &gets
}

func TestGateway_HTTP(t *testing.T) {
	srv, gets := newSite(t)
	g := NewHTTP(time.Second, time.Second, DefaultMaxChars, WithLogger(zerolog.Nop()))
	ctx := context.Background()

	got := g.Invoke(ctx, srv.URL+"/paper.pdf")
	assert.True(t, strings.HasPrefix(got, "Error: URL returns unsupported content type 'application/pdf'"), got)
	assert.Equal(t, int32(0), gets.Load())

	got = g.Invoke(ctx, srv.URL+"/page")
	assert.Equal(t, "# Hi\n\none\n\ntwo", got)

	got = g.Invoke(ctx, srv.URL+"/data.json")
	assert.Equal(t, `{"a": 1}`, got)

	got = g.Invoke(ctx, srv.URL+"/sniff")
	assert.True(t, strings.HasPrefix(got, "Error: URL returns unsupported content type 'application/pdf'"), got)

	got = g.Invoke(ctx, srv.URL+"/missing")
	assert.Equal(t, "Error: fetching the webpage failed: 404 Not Found", got)
}

func TestGateway_ConnectionRefused(t *testing.T) {
	g := NewHTTP(time.Second, time.Second, DefaultMaxChars, WithLogger(zerolog.Nop()))
	got := g.Invoke(context.Background(), "http://127.0.0.1:1/")
	assert.True(t, strings.HasPrefix(got, "Error: fetching the webpage failed: "), got)
}

func TestGateway_Timeout(t *testing.T) {
	srv, _ := newSite(t)
	g := NewHTTP(100*time.Millisecond, 100*time.Millisecond, DefaultMaxChars, WithLogger(zerolog.Nop()))
	got := g.Invoke(context.Background(), srv.URL+"/slow")
	assert.Equal(t, "Error: The request timed out. Please try again later or check the URL.", got)
}

func TestWebRetriever_Truncates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte(strings.Repeat("x", 500)))
	}))
	defer srv.Close()

	got, err := NewWebRetriever(time.Second, 100).Retrieve(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Contains(t, got, "truncated to stay below 100 characters")
	assert.Less(t, len(got), 200)
}

func TestWebRetriever_DecodesCharsetAndResolvesLinks(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/latin1.txt", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=iso-8859-1")
		_, _ = w.Write([]byte("caf\xe9"))
	})
	mux.HandleFunc("/meta.html", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><head><meta charset="windows-1252"></head><body><p>na\xefve</p></body></html>`))
	})
	mux.HandleFunc("/links.html", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(`<p><a href="/docs/intro">intro</a></p>`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	r := NewWebRetriever(time.Second, DefaultMaxChars)
	ctx := context.Background()

	got, err := r.Retrieve(ctx, srv.URL+"/latin1.txt")
	require.NoError(t, err)
	assert.Equal(t, "café", got)

	got, err = r.Retrieve(ctx, srv.URL+"/meta.html")
	require.NoError(t, err)
	assert.Equal(t, "naïve", got)

	got, err = r.Retrieve(ctx, srv.URL+"/links.html")
	require.NoError(t, err)
	assert.Equal(t, "[intro]("+srv.URL+"/docs/intro)", got)
}
