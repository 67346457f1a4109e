// Package httpclient provides the shared HTTP client factory used by every
// reconkit component. One pooled client serves all discovery channels, and
// redirects are never followed automatically so callers can inspect 3xx
// responses themselves.
package httpclient

import (
	"crypto/tls"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/reconkit/reconkit/pkg/duration"
)

// Config holds HTTP client configuration options.
type Config struct {
	// Timeout is the total request timeout (default: 10s)
	Timeout time.Duration

	// InsecureSkipVerify skips TLS certificate verification (default: true for recon)
	InsecureSkipVerify bool

	// Proxy is an http, https, socks5 or socks5h proxy URL (optional)
	Proxy string

	// MaxIdleConns is the maximum number of idle connections across all hosts (default: 100)
	MaxIdleConns int

	// MaxConnsPerHost is the maximum connections per host (default: 100)
	MaxConnsPerHost int

	// IdleConnTimeout is how long idle connections stay in pool (default: 90s)
	IdleConnTimeout time.Duration

	// DialTimeout is the timeout for establishing connections (default: 10s)
	DialTimeout time.Duration

	// TLSHandshakeTimeout is the timeout for TLS handshake (default: 10s)
	TLSHandshakeTimeout time.Duration

	// UserAgent is set on requests that do not carry their own User-Agent.
	UserAgent string

	// RateLimit caps requests per second across the client. Zero disables it.
	RateLimit float64

	// RateBurst is the limiter burst size (default: 1 when RateLimit is set)
	RateBurst int

	// RetryCount retries transport errors and 429/503 responses.
	RetryCount int

	// RetryDelay is the pause between retries.
	RetryDelay time.Duration

	// DNSCache enables the in-process resolver cache for the dialer.
	DNSCache bool
}

// DefaultConfig returns defaults tuned for single-origin discovery, where
// the wordlist batch opens many parallel connections to the same host.
func DefaultConfig() Config {
	return Config{
		Timeout:             duration.HTTPRequest,
		InsecureSkipVerify:  true,
		MaxIdleConns:        100,
		MaxConnsPerHost:     100,
		IdleConnTimeout:     duration.IdleConn,
		DialTimeout:         duration.Dial,
		TLSHandshakeTimeout: duration.TLSHandshake,
		DNSCache:            true,
	}
}

var (
	defaultClient *http.Client
	defaultOnce   sync.Once
)

// Default returns the shared client used by discovery runs that keep the
// default timeout, so repeated runs reuse one connection pool.
//
// The default client:
//   - Uses connection pooling (100 idle, 100 per host)
//   - Has 10s timeout
//   - Skips TLS verification
//   - Does NOT follow redirects (returns http.ErrUseLastResponse)
func Default() *http.Client {
	defaultOnce.Do(func() {
		defaultClient = New(DefaultConfig())
	})
	return defaultClient
}

// New creates a new HTTP client with the given configuration.
// Malformed proxy URLs are ignored; use ValidateProxyURL to surface them.
func New(cfg Config) *http.Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = duration.HTTPRequest
	}
	if cfg.MaxIdleConns == 0 {
		cfg.MaxIdleConns = 100
	}
	if cfg.MaxConnsPerHost == 0 {
		cfg.MaxConnsPerHost = 100
	}
	if cfg.IdleConnTimeout == 0 {
		cfg.IdleConnTimeout = duration.IdleConn
	}
	if cfg.DialTimeout == 0 {
		cfg.DialTimeout = duration.Dial
	}
	if cfg.TLSHandshakeTimeout == 0 {
		cfg.TLSHandshakeTimeout = duration.TLSHandshake
	}

	dialer := &net.Dialer{
		Timeout:   cfg.DialTimeout,
		KeepAlive: duration.KeepAlive,
	}

	transport := &http.Transport{
		MaxIdleConns:        cfg.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.MaxConnsPerHost,
		MaxConnsPerHost:     cfg.MaxConnsPerHost,
		IdleConnTimeout:     cfg.IdleConnTimeout,

		ForceAttemptHTTP2:     true,
		ExpectContinueTimeout: duration.ExpectContinue,
		TLSHandshakeTimeout:   cfg.TLSHandshakeTimeout,

		DialContext: dialer.DialContext,

		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: cfg.InsecureSkipVerify, //nolint:gosec // recon targets often use self-signed certs
		},
	}

	if cfg.DNSCache {
		transport.DialContext = NewCachingDialer(GetDNSCache(), cfg.DialTimeout).DialContext
	}

	if pc, err := ParseProxyURL(cfg.Proxy); err == nil && pc != nil {
		if pc.IsSOCKS {
			if d, err := CreateSOCKSDialer(pc, cfg.DialTimeout); err == nil {
				transport.DialContext = d.DialContext
			}
		} else {
			transport.Proxy = http.ProxyURL(pc.URL)
		}
	}

	var rt http.RoundTripper = transport
	if needsMiddleware(cfg) {
		rt = newMiddleware(transport, cfg)
	}

	return &http.Client{
		Transport: rt,
		Timeout:   cfg.Timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

// WithTimeout returns a new Config based on DefaultConfig with the specified timeout.
func WithTimeout(timeout time.Duration) Config {
	cfg := DefaultConfig()
	cfg.Timeout = timeout
	return cfg
}
