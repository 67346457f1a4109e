package mcpserver

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reconkit/reconkit/pkg/defaults"
	"github.com/reconkit/reconkit/pkg/discovery"
	"github.com/reconkit/reconkit/pkg/recon"
)

func intPtr(n int) *int { return &n }

func textOf(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.Len(t, res.Content, 1)
	tc, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	return tc.Text
}

func TestDiscoverArgsOverrideTemplate(t *testing.T) {
	base := discovery.DefaultOptions("ignored")

	opts, err := discoverArgs{Target: " example.com "}.options(base)
	require.NoError(t, err)
	assert.Equal(t, "example.com", opts.Target)
	assert.Equal(t, base.MaxDepth, opts.MaxDepth)
	assert.True(t, opts.UseWordlist)
	assert.True(t, opts.UseWayback)
	assert.True(t, opts.AnalyzeJS)

	opts, err = discoverArgs{
		Target:       "example.com",
		MaxDepth:     intPtr(0),
		MaxJSFiles:   intPtr(3),
		UseWordlist:  boolPtr(false),
		UseWayback:   boolPtr(false),
		AnalyzeJS:    boolPtr(false),
		OutputFormat: defaults.FormatSimple,
	}.options(base)
	require.NoError(t, err)
	assert.Zero(t, opts.MaxDepth)
	assert.Equal(t, 3, opts.MaxJSFiles)
	assert.False(t, opts.UseWordlist)
	assert.False(t, opts.UseWayback)
	assert.False(t, opts.AnalyzeJS)
	assert.Equal(t, defaults.FormatSimple, opts.OutputFormat)

	assert.Equal(t, "ignored", base.Target, "template is not mutated")
}

func TestProbeErrorHints(t *testing.T) {
	tests := []struct {
		err  error
		hint string
	}{
		{recon.ErrInvalidDomain, "bare domain"},
		{fmt.Errorf("wrapped: %w", recon.ErrNoRecords), "may not exist"},
		{recon.ErrNoFavicon, "favicon.ico"},
	}
	for _, tt := range tests {
		res := probeError("tool", tt.err)
		assert.True(t, res.IsError)
		assert.Contains(t, textOf(t, res), tt.hint)
	}
	assert.Equal(t, "tool failed: boom", textOf(t, probeError("tool", fmt.Errorf("boom"))))
}

func TestRecoveryMiddleware(t *testing.T) {
	var logs bytes.Buffer
	s := &Server{logger: slog.New(slog.NewTextHandler(&logs, nil))}
	h := s.recoveryMiddleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("kaboom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/mcp", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, rec.Body.String())
	assert.Contains(t, logs.String(), "kaboom")
}

func TestCORSWithoutOrigin(t *testing.T) {
	h := corsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "Origin", rec.Header().Get("Vary"))
}
