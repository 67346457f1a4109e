package iohelper

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type trackingCloser struct {
	io.Reader
	closed bool
}

func (c *trackingCloser) Close() error {
	c.closed = true
	return nil
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("boom") }

func TestReadBody(t *testing.T) {
	body, err := ReadBody(nil, SmallMaxBodySize)
	require.NoError(t, err)
	assert.Empty(t, body)

	body, err = ReadBody(strings.NewReader(strings.Repeat("x", 1000)), 100)
	require.NoError(t, err)
	assert.Len(t, body, 100)
}

func TestReadBodyOrLog_LogsFailure(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	data := ReadBodyOrLog(failingReader{}, SmallMaxBodySize, logger)
	assert.Empty(t, data)
	assert.Contains(t, buf.String(), "body read failed")
	assert.Contains(t, buf.String(), "boom")
}

func TestDrainAndClose(t *testing.T) {
	assert.NoError(t, DrainAndClose(nil))

	rc := &trackingCloser{Reader: strings.NewReader(strings.Repeat("y", drainLimit*2))}
	assert.NoError(t, DrainAndClose(rc))
	assert.True(t, rc.closed)

	rest, _ := io.ReadAll(rc.Reader)
	assert.Len(t, rest, drainLimit, "drain must stop at the limit")
}
