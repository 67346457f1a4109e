// Package duration provides canonical time constants for reconkit.
//
// Usage:
//
//	ctx, cancel := context.WithTimeout(ctx, duration.HTTPRequest)
//
// Do not write `10 * time.Second` in a Timeout field; reference a constant
// from this package instead.
package duration

import "time"

// ============================================================================
// HTTP CLIENT TIMEOUTS
// ============================================================================

const (
	// HTTPRequest is the per-request discovery timeout (10s)
	HTTPRequest = 10 * time.Second

	// HTTPProbing is for single-shot recon probes (5s)
	HTTPProbing = 5 * time.Second

	// Dial is the TCP connect timeout (10s)
	Dial = 10 * time.Second

	// TLSHandshake bounds the TLS handshake (10s)
	TLSHandshake = 10 * time.Second

	// IdleConn is how long pooled connections stay open (90s)
	IdleConn = 90 * time.Second

	// ExpectContinue is how long to wait for a 100-continue (1s)
	ExpectContinue = 1 * time.Second

	// KeepAlive is the TCP keep-alive probe interval (30s)
	KeepAlive = 30 * time.Second
)

// ============================================================================
// DNS / WHOIS
// ============================================================================

const (
	// DNSQuery bounds one DNS exchange (5s)
	DNSQuery = 5 * time.Second

	// WhoisQuery bounds one WHOIS exchange (15s)
	WhoisQuery = 15 * time.Second

	// DNSCacheTTL is how long dialer lookups are cached (5min)
	DNSCacheTTL = 5 * time.Minute

	// DNSCacheNegativeTTL is how long failed dialer lookups are cached (30s)
	DNSCacheNegativeTTL = 30 * time.Second
)

// ============================================================================
// RECON RESULT CACHE
// ============================================================================

const (
	// CacheWhois is how long WHOIS answers stay cached (24h)
	CacheWhois = 24 * time.Hour

	// CacheDNS is how long DNS answers stay cached (2h)
	CacheDNS = 2 * time.Hour

	// CacheHeaders is how long header reports stay cached (1h)
	CacheHeaders = 1 * time.Hour
)

// ============================================================================
// SERVER / TELEMETRY
// ============================================================================

const (
	// ServerShutdown bounds graceful HTTP shutdown (10s)
	ServerShutdown = 10 * time.Second

	// ServerReadHeader bounds request header reads (10s)
	ServerReadHeader = 10 * time.Second

	// TracingShutdown bounds span flushing on exit (5s)
	TracingShutdown = 5 * time.Second

	// TracingConnect bounds exporter connection setup (10s)
	TracingConnect = 10 * time.Second
)
