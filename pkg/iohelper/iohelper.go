// Package iohelper provides helpers for reading HTTP response bodies with
// size limits and for returning connections to the pool.
package iohelper

import (
	"io"
	"log/slog"
)

// Body size limits per content kind.
const (
	// SmallMaxBodySize is for robots.txt and error pages (64KB)
	SmallMaxBodySize int64 = 64 * 1024

	// PageMaxBodySize is for HTML pages (2MB)
	PageMaxBodySize int64 = 2 * 1024 * 1024

	// ScriptMaxBodySize is for JavaScript bundles, which are often large (8MB)
	ScriptMaxBodySize int64 = 8 * 1024 * 1024

	// ArchiveMaxBodySize is for sitemaps and Wayback CDX listings (16MB)
	ArchiveMaxBodySize int64 = 16 * 1024 * 1024
)

// drainLimit bounds how much of an unread body is discarded before close.
const drainLimit = 64 * 1024

// ReadBody reads from an io.Reader with a size limit.
// If r is nil, returns empty slice and no error.
//
// Usage:
//
//	body, err := iohelper.ReadBody(resp.Body, iohelper.PageMaxBodySize)
//	defer iohelper.DrainAndClose(resp.Body)
func ReadBody(r io.Reader, maxSize int64) ([]byte, error) {
	if r == nil {
		return []byte{}, nil
	}
	return io.ReadAll(io.LimitReader(r, maxSize))
}

// ReadBodyOrLog reads up to maxSize bytes and logs a read failure at debug
// level. Whatever was read before the failure is returned.
func ReadBodyOrLog(r io.Reader, maxSize int64, logger *slog.Logger) []byte {
	data, err := ReadBody(r, maxSize)
	if err != nil && logger != nil {
		logger.Debug("body read failed", slog.String("error", err.Error()))
	}
	return data
}

// DrainAndClose reads any remaining data from r and closes it if it's a ReadCloser.
// This ensures the connection can be reused for HTTP keep-alive.
// Always returns nil error to allow use in defer.
func DrainAndClose(r io.Reader) error {
	if r == nil {
		return nil
	}

	_, _ = io.Copy(io.Discard, io.LimitReader(r, drainLimit))

	if rc, ok := r.(io.ReadCloser); ok {
		rc.Close()
	}
	return nil
}
