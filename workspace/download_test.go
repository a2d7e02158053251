package workspace

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nuln/workbox/internal/httpclient"
)

func newFileServer(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/paper.pdf", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("%PDF-1.7\x00\xff"))
	})
	mux.HandleFunc("/big", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(strings.Repeat("z", 100)))
	})
	mux.HandleFunc("/chunked", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		for i := 0; i < 10; i++ {
			_, _ = w.Write([]byte(strings.Repeat("z", 10)))
			w.(http.Flusher).Flush()
		}
	})
	mux.HandleFunc("/truncated", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Length", "1000")
		_, _ = w.Write([]byte("partial"))
	})
	mux.HandleFunc("/slow", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &hits
}

func TestDownload(t *testing.T) {
	srv, hits := newFileServer(t)
	s := newTestStore(t)
	ctx := context.Background()

	n, err := s.Download(ctx, srv.URL+"/paper.pdf", "papers/2024/paper.pdf")
	require.NoError(t, err)
	assert.Equal(t, int64(10), n)
	assert.Equal(t, int32(1), hits.Load())

	r, err := s.Engine().Open(ctx, "papers/2024/paper.pdf")
	require.NoError(t, err)
	defer r.Close()
	buf := make([]byte, 32)
	m, _ := r.Read(buf)
	assert.Equal(t, "%PDF-1.7\x00\xff", string(buf[:m]))

	got := s.Invoke(ctx, "download", []string{srv.URL + "/paper.pdf", "copy.pdf"})
	assert.Equal(t, "Downloaded 10B from "+srv.URL+"/paper.pdf to copy.pdf", got)
}

func TestDownload_HTTPError(t *testing.T) {
	srv, _ := newFileServer(t)
	s := newTestStore(t)

	_, err := s.Download(context.Background(), srv.URL+"/missing", "x.bin")
	require.ErrorIs(t, err, FetchError)
	var se *httpclient.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusNotFound, se.StatusCode)
	assert.Contains(t, err.Error(), "404")

	_, err = s.Read(context.Background(), "x.bin")
	assert.ErrorIs(t, err, NotAFile)
}

func TestDownload_ConnectionRefused(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Download(context.Background(), "http://127.0.0.1:1/nothing", "x.bin")
	assert.ErrorIs(t, err, FetchError)
}

func TestDownload_Timeout(t *testing.T) {
	srv, _ := newFileServer(t)
	s := newTestStore(t, WithDownloadTimeout(100*time.Millisecond))

	start := time.Now()
	_, err := s.Download(context.Background(), srv.URL+"/slow", "slow.bin")
	require.ErrorIs(t, err, FetchError)
	assert.True(t, httpclient.IsTimeout(err))
	assert.Less(t, time.Since(start), 3*time.Second)
}

func TestDownload_SizeLimit(t *testing.T) {
	srv, _ := newFileServer(t)
	s := newTestStore(t, WithMaxDownloadBytes(50))
	ctx := context.Background()

	for _, p := range []string{"/big", "/chunked"} {
		_, err := s.Download(ctx, srv.URL+p, "big.bin")
		require.ErrorIs(t, err, FetchError, p)
		assert.ErrorIs(t, err, errTooLarge, p)
	}
	_, err := s.Engine().Stat(ctx, "big.bin")
	assert.Error(t, err)

	exact := newTestStore(t, WithMaxDownloadBytes(100))
	n, err := exact.Download(ctx, srv.URL+"/chunked", "ok.bin")
	require.NoError(t, err)
	assert.Equal(t, int64(100), n)
}

func TestDownload_FailureKeepsPreviousContent(t *testing.T) {
	srv, _ := newFileServer(t)
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Write(ctx, "data.txt", "previous")
	require.NoError(t, err)

	_, err = s.Download(ctx, srv.URL+"/truncated", "data.txt")
	require.ErrorIs(t, err, FetchError)

	got, err := s.Read(ctx, "data.txt")
	require.NoError(t, err)
	assert.Equal(t, "previous", got)

	entries, err := s.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestDownload_DeniedBeforeFetch(t *testing.T) {
	srv, hits := newFileServer(t)
	s := newTestStore(t)

	_, err := s.Download(context.Background(), srv.URL+"/paper.pdf", "../../outside.pdf")
	assert.ErrorIs(t, err, AccessDenied)
	assert.Equal(t, int32(0), hits.Load())
}
