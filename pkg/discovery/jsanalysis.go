package discovery

import (
	"regexp"
	"strings"
	"sync"

	"github.com/spaolacci/murmur3"

	"github.com/reconkit/reconkit/pkg/urlnorm"
)

// jsPatterns pull endpoint-shaped strings out of script text. Each has a
// single capture group holding the candidate.
var jsPatterns = []*regexp.Regexp{
	// fetch("/x"), axios.get('/x'), $.post("/x")
	regexp.MustCompile(`(?:fetch|get|post|put|delete|ajax)\s*\(\s*['"]([^'"]+)['" ]`),
	// { url: "/x" }
	regexp.MustCompile(`url\s*:\s*['"]([^'"]+)['" ]`),
	// any quoted absolute path
	regexp.MustCompile(`['"](/[^'"\s?#]+(?:/[^'"\s?#]+)*)['" ]`),
	// quoted API-looking relative paths
	regexp.MustCompile(`['"]((?:api|v1|v2|v3|rest|graphql|service)/[^'"\s?#]+)['" ]`),
	regexp.MustCompile(`['"]((?:\.\./)?(?:data|endpoints|services|controllers)/[^'"\s?#]+)['" ]`),
	// router tables
	regexp.MustCompile(`path\s*:\s*['"]([^'"]+)['" ]`),
	regexp.MustCompile(`route\s*:\s*['"]([^'"]+)['" ]`),
}

// jsNoise marks candidates that name static assets or third-party hosts.
var jsNoise = []string{
	".js", ".css", ".png", ".jpg", ".jpeg", ".gif", ".woff", ".ttf",
	"jquery", "bootstrap", "font-awesome",
	"googleapis.com", "gstatic.com", "facebook.com", "twitter.com",
}

// ExtractCandidates returns the raw endpoint strings found in content, in
// first-seen order with duplicates removed. Candidates are trimmed of
// quotes and spaces; asset references and anything shorter than two
// characters are dropped.
func ExtractCandidates(content string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, re := range jsPatterns {
		for _, m := range re.FindAllStringSubmatch(content, -1) {
			c := strings.Trim(m[1], `'" `)
			if len(c) < 2 || isNoise(c) {
				continue
			}
			if _, dup := seen[c]; dup {
				continue
			}
			seen[c] = struct{}{}
			out = append(out, c)
		}
	}
	return out
}

func isNoise(candidate string) bool {
	lower := strings.ToLower(candidate)
	for _, n := range jsNoise {
		if strings.Contains(lower, n) {
			return true
		}
	}
	return false
}

// ResolveCandidate turns a script candidate into an absolute URL inside
// the target's scope. Protocol-relative candidates get http:, root paths
// join the target, absolute URLs must already be in scope and anything
// else is relative to the script or page it came from.
func ResolveCandidate(candidate, source, target string) (string, bool) {
	var u string
	var ok bool
	lower := strings.ToLower(candidate)
	switch {
	case strings.HasPrefix(candidate, "//"):
		u, ok = urlnorm.Resolve(target, "http:"+candidate)
	case strings.HasPrefix(candidate, "/"):
		u, ok = urlnorm.Resolve(target, candidate)
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
		u, ok = urlnorm.Resolve(target, candidate)
	default:
		u, ok = urlnorm.Resolve(source, candidate)
	}
	if !ok || !urlnorm.SameOrigin(u, target) {
		return "", false
	}
	return u, true
}

// JSAnalyzer extracts in-scope endpoints from script bodies. It remembers
// a murmur3 digest of every body it has seen per base directory, so a
// bundle served under several URLs in one directory is analyzed once per
// run while relative paths in other directories still resolve.
type JSAnalyzer struct {
	target string
	mu     sync.Mutex
	seen   map[jsKey]struct{}
}

// jsKey identifies one analysis: relative candidates resolve the same way
// for every source in dir.
type jsKey struct {
	dir string
	sum uint64
}

// NewJSAnalyzer creates an analyzer scoped to target.
func NewJSAnalyzer(target string) *JSAnalyzer {
	return &JSAnalyzer{target: target, seen: make(map[jsKey]struct{})}
}

// Analyze returns the normalized endpoints referenced by content. source
// is the URL the script was loaded from, or the page URL for inline code.
// Content already analyzed against the same base directory yields nil.
func (a *JSAnalyzer) Analyze(content, source string) []string {
	if strings.TrimSpace(content) == "" {
		return nil
	}
	key := jsKey{dir: baseDir(source), sum: murmur3.Sum64([]byte(content))}
	a.mu.Lock()
	if _, dup := a.seen[key]; dup {
		a.mu.Unlock()
		return nil
	}
	a.seen[key] = struct{}{}
	a.mu.Unlock()

	var out []string
	for _, c := range ExtractCandidates(content) {
		if u, ok := ResolveCandidate(c, source, a.target); ok {
			out = append(out, u)
		}
	}
	return out
}

// baseDir returns the directory relative references in source resolve
// against. Unparseable sources are their own directory.
func baseDir(source string) string {
	if dir, ok := urlnorm.Resolve(source, "."); ok {
		return dir
	}
	return source
}
