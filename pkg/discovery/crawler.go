package discovery

import (
	"bytes"
	"context"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/reconkit/reconkit/pkg/defaults"
	"github.com/reconkit/reconkit/pkg/iohelper"
	"github.com/reconkit/reconkit/pkg/urlnorm"
	"github.com/reconkit/reconkit/pkg/workerpool"
)

// pageSkipExt are never fetched as pages.
var pageSkipExt = []string{".css", ".jpg", ".jpeg", ".png", ".gif", ".pdf", ".zip", ".mp4"}

// linkSkipExt are never recorded as links.
var linkSkipExt = []string{
	".css", ".jpg", ".jpeg", ".png", ".gif", ".pdf", ".zip", ".mp4", ".mp3",
	".wav", ".avi", ".mov", ".wmv", ".flv", ".woff", ".ttf", ".eot", ".svg",
}

// scriptPriority marks bundles likely to carry route tables.
var scriptPriority = []string{
	"/app.js", "/main.js", "/index.js", "/bundle.js",
	"/router", "/routes", "/api", "/endpoints", "/config",
}

// linkPriority marks pages worth crawling before the rest.
var linkPriority = []string{
	"admin", "dashboard", "console", "api", "portal", "account", "profile",
	"settings", "config", "manage", "login", "user", "control",
}

var (
	navSelector     = cascadia.MustCompile("nav a, .menu a, .navigation a, .navbar a, .sidebar a, header a, footer a")
	apiMetaSelector = cascadia.MustCompile(`meta[name="api-base"], meta[name="api-root"], meta[name="api-endpoint"]`)
	scriptSelector  = cascadia.MustCompile(`script[src], link[rel="preload"][as="script"][href]`)
)

type crawlTask struct {
	URL   string
	Depth int
}

// pageOutcome is what one page contributes to the frontier.
type pageOutcome struct {
	redirect string
	links    []string
}

// crawler walks the target breadth-first. Pages of one level are fetched
// in parallel; their outcomes are merged in level order so the set of
// pages crawled does not depend on scheduling.
type crawler struct {
	r    *run
	pool *workerpool.Pool

	mu       sync.Mutex
	visited  map[string]struct{}
	queued   map[string]struct{}
	scriptMu sync.Mutex
	scripts  map[string]struct{}
}

func newCrawler(r *run) *crawler {
	return &crawler{
		r:       r,
		pool:    r.newPool(r.opts.Concurrency, MethodInternalLinks),
		visited: make(map[string]struct{}),
		queued:  make(map[string]struct{}),
		scripts: make(map[string]struct{}),
	}
}

// crawl runs the BFS from the target until the frontier is empty, the
// depth limit is reached or ctx ends.
func (c *crawler) crawl(ctx context.Context) {
	defer c.pool.Close()

	start, err := urlnorm.Normalize(c.r.target)
	if err != nil {
		return
	}
	// Links back to the root always carry a slash.
	if start == urlnorm.Origin(start) {
		start += "/"
	}
	level := []crawlTask{{URL: start, Depth: 0}}
	c.queued[start] = struct{}{}

	for depth := 0; depth <= c.r.opts.MaxDepth && ctx.Err() == nil; depth++ {
		var next []crawlTask
		for len(level) > 0 && ctx.Err() == nil {
			outcomes := make([]pageOutcome, len(level))
			c.pool.ParallelFor(ctx, len(level), func(i int) {
				outcomes[i] = c.visit(ctx, level[i])
			})

			var same []crawlTask
			for _, o := range outcomes {
				if o.redirect != "" && c.enqueue(o.redirect) {
					same = append(same, crawlTask{URL: o.redirect, Depth: depth})
				}
				n := 0
				for _, l := range o.links {
					if n >= defaults.MaxLinksPerPage {
						break
					}
					if c.enqueue(l) {
						next = append(next, crawlTask{URL: l, Depth: depth + 1})
						n++
					}
				}
			}
			level = same
		}
		level = next
	}
}

func (c *crawler) enqueue(u string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.queued[u]; ok {
		return false
	}
	c.queued[u] = struct{}{}
	return true
}

func (c *crawler) markVisited(u string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.visited[u]; ok {
		return false
	}
	c.visited[u] = struct{}{}
	return true
}

// visit fetches one page and harvests it. Errors, panics included, are
// recorded on the run and yield an empty outcome.
func (c *crawler) visit(ctx context.Context, t crawlTask) (out pageOutcome) {
	defer func() {
		if p := recover(); p != nil {
			c.r.fail(MethodInternalLinks, "Error crawling or analyzing JS at %s: %v", t.URL, p)
			out = pageOutcome{}
		}
	}()
	if t.Depth > c.r.opts.MaxDepth || urlnorm.HasExtension(t.URL, pageSkipExt) || !c.markVisited(t.URL) {
		return pageOutcome{}
	}

	ctx, span := c.r.tracer.Start(ctx, "discovery.page", trace.WithAttributes(
		attribute.String("url.full", t.URL),
		attribute.Int("crawl.depth", t.Depth),
	))
	defer span.End()

	h := http.Header{}
	h.Set("User-Agent", defaults.UABrowser)
	h.Set("Accept", defaults.AcceptHTML)
	resp, err := c.r.get(ctx, t.URL, h)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "request failed")
		c.r.metrics.PageFetched(0)
		c.r.fail(MethodInternalLinks, "Request error crawling %s: %v", t.URL, err)
		return pageOutcome{}
	}
	defer iohelper.DrainAndClose(resp.Body)
	c.r.metrics.PageFetched(resp.StatusCode)
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	if resp.StatusCode >= 300 && resp.StatusCode < 400 {
		return c.followRedirect(t.URL, resp.Header.Get("Location"))
	}
	if resp.StatusCode != http.StatusOK || !isHTML(resp.Header.Get("Content-Type")) {
		return pageOutcome{}
	}

	body, err := iohelper.ReadBody(resp.Body, iohelper.PageMaxBodySize)
	if err != nil {
		c.r.fail(MethodInternalLinks, "Error crawling or analyzing JS at %s: %v", t.URL, err)
		return pageOutcome{}
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		c.r.fail(MethodInternalLinks, "Error crawling or analyzing JS at %s: %v", t.URL, err)
		return pageOutcome{}
	}

	c.harvestMeta(doc, t.URL)
	if c.r.opts.AnalyzeJS {
		c.harvestInlineScripts(doc, t.URL)
		c.harvestExternalScripts(ctx, doc, t.URL)
	}

	if t.Depth < c.r.opts.MaxDepth {
		out.links = c.harvestLinks(doc, t.URL)
	}
	return out
}

// followRedirect records an in-scope Location and hands it back for a
// visit at the same depth. The redirect body is never parsed.
func (c *crawler) followRedirect(from, location string) pageOutcome {
	if location == "" {
		return pageOutcome{}
	}
	u, ok := urlnorm.Resolve(from, location)
	if !ok || !urlnorm.SameOrigin(u, c.r.target) {
		return pageOutcome{}
	}
	c.r.set.Add(u, MethodInternalLinks)
	return pageOutcome{redirect: u}
}

func isHTML(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mt = strings.ToLower(contentType)
	}
	return strings.Contains(mt, "text/html") || strings.Contains(mt, "application/xhtml")
}

// harvestMeta records the API base URLs some frameworks publish in meta
// tags.
func (c *crawler) harvestMeta(doc *goquery.Document, page string) {
	doc.FindMatcher(apiMetaSelector).Each(func(_ int, s *goquery.Selection) {
		content, ok := s.Attr("content")
		if !ok {
			return
		}
		if u, ok := urlnorm.Resolve(page, content); ok && urlnorm.SameOrigin(u, c.r.target) {
			c.r.set.Add(u, MethodJSAnalysis)
		}
	})
}

func (c *crawler) harvestInlineScripts(doc *goquery.Document, page string) {
	doc.Find("script").Each(func(_ int, s *goquery.Selection) {
		if body := s.Text(); strings.TrimSpace(body) != "" {
			c.r.recordScriptEndpoints(body, page)
		}
	})
}

// harvestExternalScripts fetches up to MaxJSFiles same-origin scripts,
// route-bearing bundles first. A script already fetched on another page
// is not fetched again.
func (c *crawler) harvestExternalScripts(ctx context.Context, doc *goquery.Document, page string) {
	var found []string
	seen := make(map[string]struct{})
	doc.FindMatcher(scriptSelector).Each(func(_ int, s *goquery.Selection) {
		ref, ok := s.Attr("src")
		if !ok {
			ref, _ = s.Attr("href")
		}
		u, ok := urlnorm.Resolve(page, ref)
		if !ok || !urlnorm.SameOrigin(u, c.r.target) {
			return
		}
		if _, dup := seen[u]; dup {
			return
		}
		seen[u] = struct{}{}
		found = append(found, u)
	})

	found = prioritize(found, scriptPriority, scriptPath)
	if len(found) > c.r.opts.MaxJSFiles {
		found = found[:c.r.opts.MaxJSFiles]
	}

	var batch []string
	c.scriptMu.Lock()
	for _, u := range found {
		if _, done := c.scripts[u]; done {
			continue
		}
		c.scripts[u] = struct{}{}
		batch = append(batch, u)
	}
	c.scriptMu.Unlock()
	if len(batch) == 0 {
		return
	}

	pool := c.r.newPool(len(batch), MethodJSAnalysis)
	defer pool.Close()
	pool.ParallelFor(ctx, len(batch), func(i int) {
		c.r.analyzeScript(ctx, batch[i], page)
	})
}

// harvestLinks records every new in-scope link on the page and returns
// the page's crawl candidates, priority pages first.
func (c *crawler) harvestLinks(doc *goquery.Document, page string) []string {
	var links []string
	seen := make(map[string]struct{})
	add := func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok {
			return
		}
		u, ok := urlnorm.Resolve(page, href)
		if !ok || urlnorm.HasExtension(u, linkSkipExt) || !urlnorm.SameOrigin(u, c.r.target) {
			return
		}
		if _, dup := seen[u]; dup {
			return
		}
		seen[u] = struct{}{}
		c.r.set.Add(u, MethodInternalLinks)
		links = append(links, u)
	}
	doc.Find("a[href]").Each(add)
	doc.FindMatcher(navSelector).Each(add)

	return prioritize(links, linkPriority, pathAndQuery)
}

// prioritize moves entries whose key contains one of terms to the front,
// keeping relative order within both groups.
func prioritize(items, terms []string, key func(string) string) []string {
	var first, rest []string
	for _, it := range items {
		k := strings.ToLower(key(it))
		hit := false
		for _, t := range terms {
			if strings.Contains(k, t) {
				hit = true
				break
			}
		}
		if hit {
			first = append(first, it)
		} else {
			rest = append(rest, it)
		}
	}
	return append(first, rest...)
}

func scriptPath(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Path
}

func pathAndQuery(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.RequestURI()
}

// isScriptURL accepts .js files, with or without a query string.
func isScriptURL(u string) bool {
	lower := strings.ToLower(u)
	return strings.HasSuffix(lower, ".js") || strings.Contains(lower, ".js?")
}

// analyzeScript fetches one external script and records its endpoints.
func (r *run) analyzeScript(ctx context.Context, scriptURL, referer string) {
	defer func() {
		if p := recover(); p != nil {
			r.fail(MethodJSAnalysis, "Error analyzing JS file %s: %v", scriptURL, p)
		}
	}()
	if !isScriptURL(scriptURL) {
		return
	}
	h := http.Header{}
	h.Set("User-Agent", defaults.UABrowser)
	h.Set("Accept", defaults.AcceptAny)
	h.Set("Referer", r.target)

	resp, err := r.get(ctx, scriptURL, h)
	if err != nil {
		r.fail(MethodJSAnalysis, "Error fetching JS file %s: %v", scriptURL, err)
		return
	}
	defer iohelper.DrainAndClose(resp.Body)
	if resp.StatusCode != http.StatusOK {
		r.fail(MethodJSAnalysis, "Error fetching JS file %s: status %d", scriptURL, resp.StatusCode)
		return
	}
	body, err := iohelper.ReadBody(resp.Body, iohelper.ScriptMaxBodySize)
	if err != nil {
		r.fail(MethodJSAnalysis, "Error analyzing JS file %s: %v", scriptURL, err)
		return
	}
	r.metrics.ScriptAnalyzed()
	r.logger.Debug("script analyzed",
		slog.String("url", scriptURL),
		slog.String("page", referer),
		slog.Int("bytes", len(body)))
	r.recordScriptEndpoints(string(body), scriptURL)
}

// recordScriptEndpoints runs the analyzer over content and records the
// endpoints it yields.
func (r *run) recordScriptEndpoints(content, source string) {
	for _, u := range r.js.Analyze(content, source) {
		r.set.Add(u, MethodJSAnalysis)
	}
}
