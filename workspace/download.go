package workspace

import (
	"context"
	"errors"
	"io"

	"github.com/nuln/workbox/internal/httpclient"
)

// Download fetches url and stores the body verbatim at p, creating missing
// parent directories, and returns the number of bytes stored. The previous
// content of p survives any failure.
func (s *Store) Download(ctx context.Context, url, p string) (int64, error) {
	const op = "download"
	rp, err := s.resolve(ctx, op, p)
	if err != nil {
		return 0, err
	}

	resp, err := httpclient.Get(ctx, s.client, url)
	if err != nil {
		return 0, newError(op, FetchError, url, err)
	}
	defer resp.Body.Close()

	if s.maxDownloadBytes > 0 && resp.ContentLength > s.maxDownloadBytes {
		return 0, newError(op, FetchError, url, errTooLarge)
	}

	body := &bodyReader{r: resp.Body, limit: s.maxDownloadBytes}

	unlock := s.locks.lock(rp)
	defer unlock()

	if err := s.engine.Put(ctx, rp, body); err != nil {
		if body.err != nil {
			return 0, newError(op, FetchError, url, body.err)
		}
		return 0, newError(op, IOError, p, err)
	}

	s.log.Debug().Str("op", op).Str("url", url).Str("path", p).Int64("bytes", body.n).Msg("Downloaded")
	return body.n, nil
}

// bodyReader counts bytes, enforces the size cap, and remembers read errors
// so that network failures can be told apart from storage failures.
type bodyReader struct {
	r     io.Reader
	limit int64 // 0 means unlimited
	n     int64
	err   error
}

func (b *bodyReader) Read(p []byte) (int, error) {
	if b.limit > 0 {
		if b.n >= b.limit {
			// Read one more byte to tell "exactly limit" from "over".
			var one [1]byte
			n, err := b.r.Read(one[:])
			if n > 0 {
				b.err = errTooLarge
				return 0, b.err
			}
			return 0, b.record(err)
		}
		if rem := b.limit - b.n; int64(len(p)) > rem {
			p = p[:rem]
		}
	}
	n, err := b.r.Read(p)
	b.n += int64(n)
	return n, b.record(err)
}

func (b *bodyReader) record(err error) error {
	if err != nil && !errors.Is(err, io.EOF) {
		b.err = err
	}
	return err
}
