// Package defaults provides canonical default values for reconkit.
//
// Usage:
//
//	opts.Concurrency = defaults.CrawlConcurrency
//	req.Header.Set("User-Agent", defaults.UABrowser)
package defaults

import "fmt"

// Version is the current reconkit version
const Version = "0.6.0"

// ToolName is used in banners, user agents and telemetry
const ToolName = "reconkit"

// ============================================================================
// DISCOVERY LIMITS
// ============================================================================

const (
	// CrawlDepth is the default maximum link-following depth (1)
	CrawlDepth = 1

	// MaxJSFiles is the default number of external scripts analyzed per page (10)
	MaxJSFiles = 10

	// MaxLinksPerPage caps how many new links one page contributes to the next level (25)
	MaxLinksPerPage = 25

	// SitemapDepth caps sitemap index recursion (3)
	SitemapDepth = 3

	// MaxWaybackURLs is the default cap on archived URLs probed (5000)
	MaxWaybackURLs = 5000
)

// ============================================================================
// CONCURRENCY SETTINGS
// ============================================================================

const (
	// CrawlConcurrency is the page fetch worker count (10)
	CrawlConcurrency = 10

	// WaybackConcurrency bounds parallel probes of archived URLs (20)
	WaybackConcurrency = 20

	// ReconConcurrency bounds parallel DNS queries (6)
	ReconConcurrency = 6
)

// ============================================================================
// OUTPUT FORMATS
// ============================================================================

const (
	// FormatJSON is the detailed output shape
	FormatJSON = "json"

	// FormatSimple is the flat list output shape
	FormatSimple = "simple"
)

// ============================================================================
// HEADERS
// ============================================================================

const (
	// AcceptHTML is sent on page fetches
	AcceptHTML = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"

	// AcceptAny is sent on script fetches
	AcceptAny = "*/*"
)

// ============================================================================
// USER AGENTS
// ============================================================================

const (
	// UABrowser is the desktop Chrome agent sent on crawl requests
	UABrowser = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

	// UAMinimal is the tool's own agent for third-party APIs
	UAMinimal = ToolName + "/" + Version
)

// UserAgent returns the reconkit user agent with context
func UserAgent(context string) string {
	if context == "" {
		return UAMinimal
	}
	return fmt.Sprintf("%s/%s (%s)", ToolName, Version, context)
}

// ============================================================================
// RECON
// ============================================================================

const (
	// DNSResolver is the default upstream resolver
	DNSResolver = "8.8.8.8:53"

	// TLSPort is the default port for TLS inspection
	TLSPort = "443"
)
