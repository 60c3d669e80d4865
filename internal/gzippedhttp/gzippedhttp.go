// Package gzippedhttp accepts gzip-compressed request bodies. Response
// compression is left to chi's middleware.Compress.
package gzippedhttp

import (
	"compress/gzip"
	"io"
	"net/http"
	"strings"

	"github.com/patric-chuzhbe/tracky/internal/logger"
)

// maxDecompressedBytes bounds what a compressed body may expand to.
const maxDecompressedBytes = 1 << 20

type decompressedBody struct {
	raw io.ReadCloser
	zr  *gzip.Reader
	lr  io.Reader
}

func newDecompressedBody(raw io.ReadCloser) (*decompressedBody, error) {
	zr, err := gzip.NewReader(raw)
	if err != nil {
		return nil, err
	}

	return &decompressedBody{
		raw: raw,
		zr:  zr,
		lr:  io.LimitReader(zr, maxDecompressedBytes),
	}, nil
}

func (b *decompressedBody) Read(p []byte) (int, error) {
	return b.lr.Read(p)
}

func (b *decompressedBody) Close() error {
	if err := b.zr.Close(); err != nil {
		_ = b.raw.Close()
		return err
	}

	return b.raw.Close()
}

// UngzipRequest replaces a body sent with "Content-Encoding: gzip" by its
// decompressed form. A body that is not valid gzip is answered with 400.
func UngzipRequest(h http.Handler) http.Handler {
	middleware := func(response http.ResponseWriter, request *http.Request) {
		if !strings.Contains(request.Header.Get("Content-Encoding"), "gzip") {
			h.ServeHTTP(response, request)
			return
		}

		body, err := newDecompressedBody(request.Body)
		if err != nil {
			logger.Log.Debugw("gzip request body rejected", "err", err)
			http.Error(response, "malformed gzip body", http.StatusBadRequest)
			return
		}
		defer body.Close()

		request.Body = body
		request.Header.Del("Content-Encoding")
		request.ContentLength = -1

		h.ServeHTTP(response, request)
	}

	return http.HandlerFunc(middleware)
}
