package discovery

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCDX(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    []string
		wantErr bool
	}{
		{"empty body", "", nil, false},
		{"whitespace", "  \n", nil, false},
		{"empty array", "[]", nil, false},
		{"header only", `[["original"]]`, nil, false},
		{"rows", `[["original"],["https://example.com/a"],["https://example.com/b"]]`,
			[]string{"https://example.com/a", "https://example.com/b"}, false},
		{"blank rows skipped", `[["original"],[],[""],["https://example.com/a"]]`,
			[]string{"https://example.com/a"}, false},
		{"malformed", `[["original"],`, nil, true},
		{"wrong shape", `{"original": 1}`, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseCDX([]byte(tt.body))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestScopeArchived(t *testing.T) {
	archived := []string{
		"https://example.com/a#frag",
		"https://example.com/a",
		"https://other.com/b",
		"https://example.com:8443/c",
		"http://example.com/d",
		"https://example.com/e",
	}
	got := scopeArchived(archived, "https://example.com", 10)
	assert.Equal(t, []string{"https://example.com/a", "http://example.com/d", "https://example.com/e"}, got)

	assert.Len(t, scopeArchived(archived, "https://example.com", 2), 2)
	assert.Len(t, scopeArchived(archived, "https://example.com", 0), 3, "no cap")
}

func TestWaybackQuery(t *testing.T) {
	q := waybackQuery(DefaultWaybackEndpoint, "example.com")
	assert.Equal(t, "https://web.archive.org/cdx/search/cdx?url=example.com/*&output=json&fl=original&collapse=urlkey", q)
}

func TestHarvestWayback(t *testing.T) {
	var base string
	var gotQuery url.Values
	srv := newSite(t, site{
		"/cdx": func(w http.ResponseWriter, r *http.Request) {
			gotQuery = r.URL.Query()
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprintf(w, `[["original"],["%[1]s/old-page"],["%[1]s/old-page#top"],["%[1]s/removed"],["http://other.example/a"]]`, base)
		},
		"/old-page": ok(),
	})
	base = srv.URL

	opts := onlyCrawl(srv.URL, 0)
	opts.AnalyzeJS = false
	opts.UseWayback = true
	opts.WaybackEndpoint = srv.URL + "/cdx"
	res := Discover(context.Background(), opts)

	require.Empty(t, res.Errors)
	assert.Equal(t, []string{base + "/old-page"}, res.ByMethod[MethodWayback])
	require.NotNil(t, gotQuery)
	assert.Equal(t, strings.TrimPrefix(base, "http://")+"/*", gotQuery.Get("url"))
	assert.Equal(t, "json", gotQuery.Get("output"))
	assert.Equal(t, "original", gotQuery.Get("fl"))
	assert.Equal(t, "urlkey", gotQuery.Get("collapse"))
}

func TestHarvestWaybackFailures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		prefix  string
	}{
		{
			name:    "status",
			handler: func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusServiceUnavailable) },
			prefix:  "Wayback Machine query failed with status: 503",
		},
		{
			name:    "malformed json",
			handler: text("application/json", `[["original"],`),
			prefix:  "Error parsing Wayback Machine JSON: ",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newSite(t, site{"/cdx": tt.handler})
			opts := onlyCrawl(srv.URL, 0)
			opts.AnalyzeJS = false
			opts.UseWayback = true
			opts.WaybackEndpoint = srv.URL + "/cdx"

			res := Discover(context.Background(), opts)
			require.Len(t, res.Errors, 1)
			assert.True(t, strings.HasPrefix(res.Errors[0], tt.prefix), res.Errors[0])
			assert.Empty(t, res.ByMethod[MethodWayback])
		})
	}
}

func TestHarvestWaybackEmptyIsNotAnError(t *testing.T) {
	srv := newSite(t, site{"/cdx": text("application/json", "")})
	opts := onlyCrawl(srv.URL, 0)
	opts.AnalyzeJS = false
	opts.UseWayback = true
	opts.WaybackEndpoint = srv.URL + "/cdx"

	res := Discover(context.Background(), opts)
	assert.Empty(t, res.Errors)
}

func TestHarvestWaybackUnreachable(t *testing.T) {
	target := newSite(t, site{})
	archive := newSite(t, site{})
	endpoint := archive.URL + "/cdx"
	archive.Close()

	opts := onlyCrawl(target.URL, 0)
	opts.AnalyzeJS = false
	opts.UseWayback = true
	opts.WaybackEndpoint = endpoint

	res := Discover(context.Background(), opts)
	require.Len(t, res.Errors, 1)
	assert.True(t, strings.HasPrefix(res.Errors[0], "Error querying Wayback Machine: "), res.Errors[0])
}

func TestHarvestWaybackCap(t *testing.T) {
	var base string
	srv := newSite(t, site{
		"/cdx": func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprintf(w, `[["original"],["%[1]s/one"],["%[1]s/two"],["%[1]s/three"]]`, base)
		},
		"/one":   ok(),
		"/two":   ok(),
		"/three": ok(),
	})
	base = srv.URL

	for _, tt := range []struct {
		limit, want int
	}{
		{0, 3},
		{2, 2},
	} {
		opts := onlyCrawl(srv.URL, 0)
		opts.AnalyzeJS = false
		opts.UseWayback = true
		opts.WaybackEndpoint = srv.URL + "/cdx"
		opts.MaxWaybackURLs = tt.limit
		res := Discover(context.Background(), opts)
		assert.Len(t, res.ByMethod[MethodWayback], tt.want, "limit %d", tt.limit)
	}
}
