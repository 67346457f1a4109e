package discovery

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRobots(t *testing.T) {
	body := []byte(strings.Join([]string{
		"User-agent: *",
		"Disallow: /private",
		"Disallow:",
		"  disallow: /tmp/ ",
		"SITEMAP: https://example.com/sitemap_index.xml",
		"# Disallow: /commented",
		"Allow: /public",
	}, "\n"))

	d := parseRobots(body)
	assert.Equal(t, []string{"/private", "/tmp/"}, d.Disallows)
	assert.Equal(t, []string{"https://example.com/sitemap_index.xml"}, d.Sitemaps)
}

func TestParseSitemapLocs(t *testing.T) {
	t.Run("urlset", func(t *testing.T) {
		body := `<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <url><loc>https://example.com/about</loc></url>
  <url><loc> https://example.com/contact </loc></url>
</urlset>`
		assert.Equal(t, []string{"https://example.com/about", "https://example.com/contact"},
			parseSitemapLocs([]byte(body)))
	})

	t.Run("index", func(t *testing.T) {
		body := `<sitemapindex xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <sitemap><loc>https://example.com/sitemap-posts.xml</loc></sitemap>
</sitemapindex>`
		assert.Equal(t, []string{"https://example.com/sitemap-posts.xml"}, parseSitemapLocs([]byte(body)))
	})

	t.Run("entities", func(t *testing.T) {
		body := `<urlset><url><loc>https://example.com/search?a=1&amp;b=2</loc></url></urlset>`
		assert.Equal(t, []string{"https://example.com/search?a=1&b=2"}, parseSitemapLocs([]byte(body)))
	})

	t.Run("pattern fallback", func(t *testing.T) {
		body := `not xml at all <loc>https://example.com/a</loc> junk <loc>https://example.com/b</loc>`
		got := parseSitemapLocs([]byte(body))
		assert.Contains(t, got, "https://example.com/a")
		assert.Contains(t, got, "https://example.com/b")
	})

	t.Run("empty", func(t *testing.T) {
		assert.Empty(t, parseSitemapLocs(nil))
	})
}

func TestHarvestRobotsAndSitemaps(t *testing.T) {
	var base string
	srv := newSite(t, site{
		"/robots.txt": func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprintf(w, "User-agent: *\nDisallow: /private\nDisallow: /gone\nDisallow:\nSitemap: %s/sitemap_index.xml\n", base)
		},
		"/private": ok(),
		"/sitemap_index.xml": func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprintf(w, `<sitemapindex><sitemap><loc>%s/sitemap-pages.xml</loc></sitemap></sitemapindex>`, base)
		},
		"/sitemap-pages.xml": func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprintf(w, `<urlset><url><loc>%s/about</loc></url><url><loc>http://other.example/x</loc></url></urlset>`, base)
		},
		"/about": ok(),
	})
	base = srv.URL

	opts := onlyCrawl(srv.URL, 0)
	opts.AnalyzeJS = false
	res := Discover(context.Background(), opts)

	got := res.ByMethod[MethodRobotsSitemap]
	for _, want := range []string{
		base + "/robots.txt",
		base + "/private",
		base + "/sitemap_index.xml",
		base + "/sitemap-pages.xml",
		base + "/about",
	} {
		assert.Contains(t, got, want)
	}
	assert.NotContains(t, res.All, base+"/gone")
	assert.NotContains(t, res.All, "http://other.example/x")
	assert.Empty(t, res.Errors)
}

func TestHarvestRobotsSitemapRejectingHEAD(t *testing.T) {
	var base string
	srv := newSite(t, site{
		"/robots.txt": func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprintf(w, "User-agent: *\nSitemap: %s/maps/site.xml\n", base)
		},
		"/maps/site.xml": func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				w.WriteHeader(http.StatusMethodNotAllowed)
				return
			}
			fmt.Fprintf(w, `<urlset><url><loc>%s/team</loc></url></urlset>`, base)
		},
		"/team": ok(),
	})
	base = srv.URL

	opts := onlyCrawl(srv.URL, 0)
	opts.AnalyzeJS = false
	res := Discover(context.Background(), opts)

	got := res.ByMethod[MethodRobotsSitemap]
	assert.Contains(t, got, base+"/maps/site.xml")
	assert.Contains(t, got, base+"/team")
	assert.Empty(t, res.Errors)
}

func TestHarvestRobotsStandaloneSitemap(t *testing.T) {
	var base string
	srv := newSite(t, site{
		"/sitemap.xml": func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprintf(w, `<urlset><url><loc>%s/pricing</loc></url></urlset>`, base)
		},
		"/pricing": ok(),
	})
	base = srv.URL

	opts := onlyCrawl(srv.URL, 0)
	opts.AnalyzeJS = false
	res := Discover(context.Background(), opts)

	require.Empty(t, res.Errors)
	assert.ElementsMatch(t, []string{base + "/sitemap.xml", base + "/pricing"}, res.ByMethod[MethodRobotsSitemap])
}

func TestHarvestRobotsSitemapLoopFetchedOnce(t *testing.T) {
	var base string
	var hits atomic.Int32
	srv := newSite(t, site{
		"/sitemap.xml": func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet {
				hits.Add(1)
			}
			fmt.Fprintf(w, `<sitemapindex><sitemap><loc>%s/sitemap.xml</loc></sitemap></sitemapindex>`, base)
		},
	})
	base = srv.URL

	opts := onlyCrawl(srv.URL, 0)
	opts.AnalyzeJS = false
	Discover(context.Background(), opts)

	assert.Equal(t, int32(1), hits.Load(), "a sitemap listing itself is fetched once")
}
