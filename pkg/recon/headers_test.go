package recon

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScoreHeaders(t *testing.T) {
	tests := []struct {
		name    string
		headers http.Header
		score   float64
		missing int
	}{
		{"none", http.Header{}, 0, 7},
		{"three", http.Header{
			"Strict-Transport-Security": {"max-age=63072000"},
			"X-Frame-Options":           {"DENY"},
			"X-Content-Type-Options":    {"nosniff"},
		}, 42.9, 4},
		{"all", http.Header{
			"Strict-Transport-Security": {"max-age=1"},
			"Content-Security-Policy":   {"default-src 'self'"},
			"X-Content-Type-Options":    {"nosniff"},
			"X-Frame-Options":           {"SAMEORIGIN"},
			"X-Xss-Protection":          {"0"},
			"Referrer-Policy":           {"no-referrer"},
			"Permissions-Policy":        {"camera=()"},
		}, 100, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := ScoreHeaders(tt.headers)
			assert.Equal(t, tt.score, r.Score)
			assert.Len(t, r.Missing, tt.missing)
			assert.Len(t, r.Present, len(SecurityHeaders)-tt.missing)
			assert.NotNil(t, r.Missing)
		})
	}
}

func TestScoreHeadersInfoLeaks(t *testing.T) {
	r := ScoreHeaders(http.Header{
		"Server":       {"nginx/1.18.0"},
		"X-Powered-By": {"PHP/7.4.3"},
		"Set-Cookie":   {"a=1", "b=2"},
	})
	assert.Equal(t, map[string]string{"server": "nginx/1.18.0", "x-powered-by": "PHP/7.4.3"}, r.InfoLeaks)
	assert.Equal(t, "a=1, b=2", r.Headers["set-cookie"])

	assert.Nil(t, ScoreHeaders(http.Header{}).InfoLeaks)
}

func TestAnalyzeHeaders(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" {
			http.Redirect(w, r, "/home", http.StatusFound)
			return
		}
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Security-Policy", "default-src 'self'")
		w.Header().Set("Server", "Apache")
	}))
	defer srv.Close()

	s := newScanner(t)
	r, err := s.AnalyzeHeaders(context.Background(), srv.URL)
	require.NoError(t, err)

	assert.Equal(t, srv.URL+"/home", r.URL, "redirects are followed")
	assert.Equal(t, http.StatusOK, r.StatusCode)
	assert.Contains(t, r.Present, "content-security-policy")
	assert.Equal(t, 14.3, r.Score)
	assert.Equal(t, "Apache", r.InfoLeaks["server"])
	assert.Contains(t, gotUA, "Mozilla/5.0")
}

func TestAnalyzeHeadersUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	_, err := newScanner(t).AnalyzeHeaders(context.Background(), srv.URL)
	assert.Error(t, err)
}
