package discovery

import (
	"bufio"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"sync"

	"github.com/reconkit/reconkit/pkg/defaults"
	"github.com/reconkit/reconkit/pkg/iohelper"
	"github.com/reconkit/reconkit/pkg/urlnorm"
)

var locPattern = regexp.MustCompile(`<loc>(.*?)</loc>`)

// robotsDirectives are the paths a robots.txt file points at.
type robotsDirectives struct {
	Sitemaps  []string
	Disallows []string
}

// parseRobots reads Sitemap and Disallow lines. Keys are matched without
// regard to case; empty Disallow values are skipped.
func parseRobots(body []byte) robotsDirectives {
	var d robotsDirectives
	sc := bufio.NewScanner(bytes.NewReader(body))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		switch strings.ToLower(strings.TrimSpace(key)) {
		case "sitemap":
			if value != "" {
				d.Sitemaps = append(d.Sitemaps, value)
			}
		case "disallow":
			if value != "" {
				d.Disallows = append(d.Disallows, value)
			}
		}
	}
	return d
}

// parseSitemapLocs returns every <loc> value in a urlset or sitemapindex
// document. The decoder is lenient so a broken tail still yields the
// entries before it; when the decoder finds nothing, a plain pattern scan
// of the text is used instead.
func parseSitemapLocs(body []byte) []string {
	var locs []string
	dec := xml.NewDecoder(bytes.NewReader(body))
	dec.Strict = false
	dec.AutoClose = xml.HTMLAutoClose
	dec.Entity = xml.HTMLEntity
	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		se, ok := tok.(xml.StartElement)
		if !ok || !strings.EqualFold(se.Name.Local, "loc") {
			continue
		}
		var v string
		if err := dec.DecodeElement(&v, &se); err != nil {
			break
		}
		if v = strings.TrimSpace(v); v != "" {
			locs = append(locs, v)
		}
	}
	if len(locs) > 0 {
		return locs
	}

	for _, m := range locPattern.FindAllSubmatch(body, -1) {
		if v := strings.TrimSpace(string(m[1])); v != "" {
			locs = append(locs, v)
		}
	}
	return locs
}

// isSitemapRef reports whether a <loc> names another sitemap rather than
// a page.
func isSitemapRef(u string) bool {
	return urlnorm.HasExtension(u, []string{".xml"})
}

// sitemapWalker fetches each sitemap at most once and follows sitemap
// indexes down to defaults.SitemapDepth.
type sitemapWalker struct {
	r    *run
	mu   sync.Mutex
	seen map[string]struct{}
}

func (w *sitemapWalker) claim(u string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.seen[u]; ok {
		return false
	}
	w.seen[u] = struct{}{}
	return true
}

// walk fetches the sitemap at u and probes its entries. Fetch and parse
// failures are swallowed; a missing sitemap is not an error.
func (w *sitemapWalker) walk(ctx context.Context, u string, depth int) {
	if depth > defaults.SitemapDepth || ctx.Err() != nil || !w.claim(u) {
		return
	}
	resp, err := w.r.get(ctx, u, nil)
	if err != nil {
		w.r.logger.Debug("sitemap fetch failed", slog.String("url", u), slog.String("error", err.Error()))
		return
	}
	defer iohelper.DrainAndClose(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return
	}
	w.r.record(u, MethodRobotsSitemap)
	body := iohelper.ReadBodyOrLog(resp.Body, iohelper.ArchiveMaxBodySize, w.r.logger)
	w.expand(ctx, u, body, depth)
}

// expand probes the entries of a fetched sitemap and walks the ones that
// are sitemaps themselves.
func (w *sitemapWalker) expand(ctx context.Context, u string, body []byte, depth int) {
	for _, loc := range parseSitemapLocs(body) {
		if ctx.Err() != nil {
			return
		}
		entry, ok := urlnorm.Resolve(u, loc)
		if !ok || !urlnorm.SameOrigin(entry, w.r.target) {
			continue
		}
		w.r.prober.Check(ctx, entry, MethodRobotsSitemap, http.MethodHead)
		if isSitemapRef(entry) {
			w.walk(ctx, entry, depth+1)
		}
	}
}

// harvestRobots reads robots.txt and sitemap.xml from the target origin.
// A transport failure on either file is logged to the run's errors and
// ends the channel.
func (r *run) harvestRobots(ctx context.Context) {
	w := &sitemapWalker{r: r, seen: make(map[string]struct{})}

	robotsURL := r.origin + "/robots.txt"
	if err := r.fetchRobots(ctx, robotsURL, w); err != nil {
		r.fail(MethodRobotsSitemap, "Error fetching robots.txt/sitemap.xml: %v", err)
		return
	}

	sitemapURL := r.origin + "/sitemap.xml"
	resp, err := r.get(ctx, sitemapURL, nil)
	if err != nil {
		r.fail(MethodRobotsSitemap, "Error fetching robots.txt/sitemap.xml: %v", err)
		return
	}
	defer iohelper.DrainAndClose(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return
	}
	r.record(sitemapURL, MethodRobotsSitemap)
	if w.claim(sitemapURL) {
		body := iohelper.ReadBodyOrLog(resp.Body, iohelper.ArchiveMaxBodySize, r.logger)
		w.expand(ctx, sitemapURL, body, 0)
	}
}

func (r *run) fetchRobots(ctx context.Context, robotsURL string, w *sitemapWalker) error {
	resp, err := r.get(ctx, robotsURL, nil)
	if err != nil {
		return err
	}
	defer iohelper.DrainAndClose(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return nil
	}
	body, err := iohelper.ReadBody(resp.Body, iohelper.SmallMaxBodySize)
	if err != nil {
		return fmt.Errorf("read robots.txt: %w", err)
	}
	r.record(robotsURL, MethodRobotsSitemap)

	d := parseRobots(body)
	for _, sm := range d.Sitemaps {
		u, ok := urlnorm.Resolve(robotsURL, sm)
		if !ok || !urlnorm.SameOrigin(u, r.target) {
			continue
		}
		r.prober.Check(ctx, u, MethodRobotsSitemap, http.MethodHead)
		w.walk(ctx, u, 0)
	}
	for _, p := range d.Disallows {
		if u, ok := urlnorm.Resolve(robotsURL, p); ok && urlnorm.SameOrigin(u, r.target) {
			r.prober.Check(ctx, u, MethodRobotsSitemap, http.MethodHead)
		}
	}
	return nil
}
