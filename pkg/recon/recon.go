// Package recon runs the single-shot reconnaissance probes that complement
// endpoint discovery: DNS records, WHOIS registration data, security header
// posture, TLS certificate details and the favicon hash.
//
// All probes hang off a Scanner so they share one HTTP client, one result
// cache and one logger:
//
//	s := recon.New(recon.DefaultConfig())
//	res, err := s.DNSLookup(ctx, "example.com")
package recon

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/reconkit/reconkit/pkg/defaults"
	"github.com/reconkit/reconkit/pkg/duration"
	"github.com/reconkit/reconkit/pkg/httpclient"
	"github.com/reconkit/reconkit/pkg/metrics"
	"github.com/reconkit/reconkit/pkg/urlnorm"
)

// Config configures a Scanner.
type Config struct {
	// Resolver is the DNS server used by DNSLookup (default: 8.8.8.8:53)
	Resolver string

	// Timeout bounds each network exchange (default: 5s)
	Timeout time.Duration

	// HTTPClient is used by AnalyzeHeaders and FaviconHash (default: httpclient.New)
	HTTPClient *http.Client

	// TLSProfile names the ClientHello fingerprint sent by TLSInfo (default: chrome)
	TLSProfile string

	// WhoisServer pins the WHOIS server instead of following IANA referrals.
	WhoisServer string

	// Cache holds probe results between calls. Nil disables caching.
	Cache *Cache

	Logger  *slog.Logger
	Metrics *metrics.Collector
}

// DefaultConfig returns the configuration used by the CLI and MCP server.
func DefaultConfig() Config {
	return Config{
		Resolver: defaults.DNSResolver,
		Timeout:  duration.HTTPProbing,
		Cache:    NewCache(),
	}
}

// Scanner runs recon probes. It is safe for concurrent use.
type Scanner struct {
	cfg    Config
	client *http.Client
	logger *slog.Logger

	// whois fetches raw WHOIS text; replaced in tests.
	whois func(ctx context.Context, domain string) (string, error)
}

// New creates a Scanner, filling unset fields from DefaultConfig.
func New(cfg Config) *Scanner {
	if cfg.Resolver == "" {
		cfg.Resolver = defaults.DNSResolver
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = duration.HTTPProbing
	}
	client := cfg.HTTPClient
	if client == nil {
		client = httpclient.New(httpclient.WithTimeout(cfg.Timeout))
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Scanner{cfg: cfg, client: client, logger: logger}
	s.whois = s.queryWhois
	return s
}

// observe records a probe outcome and logs failures at debug level.
func (s *Scanner) observe(kind string, start time.Time, err error) {
	outcome := metrics.OutcomeHit
	if err != nil {
		outcome = metrics.OutcomeError
		s.logger.Debug("recon probe failed",
			slog.String("kind", kind),
			slog.String("error_kind", httpclient.Kind(err)),
			slog.String("error", err.Error()))
	}
	s.cfg.Metrics.ReconQuery(kind, outcome, time.Since(start))
}

// cached returns the cached value for key or runs fn and stores its result.
// Errors are never cached.
func cached[T any](s *Scanner, kind, key string, ttl time.Duration, fn func() (T, error)) (T, error) {
	if v, ok := s.cfg.Cache.Get(kind + ":" + key); ok {
		if t, ok := v.(T); ok {
			s.cfg.Metrics.ReconQuery(kind, metrics.OutcomeDuplicate, 0)
			return t, nil
		}
	}
	start := time.Now()
	v, err := fn()
	s.observe(kind, start, err)
	if err == nil {
		s.cfg.Cache.Set(kind+":"+key, v, ttl)
	}
	return v, err
}

// CleanDomain reduces a URL or host:port to a bare lowercase host name.
func CleanDomain(input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", ErrInvalidDomain
	}
	host := input
	if strings.Contains(input, "://") {
		u, err := url.Parse(input)
		if err != nil {
			return "", ErrInvalidDomain
		}
		host = u.Host
	} else if i := strings.IndexAny(host, "/?#"); i >= 0 {
		host = host[:i]
	}
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.TrimSuffix(strings.ToLower(host), ".")
	if host == "" || strings.ContainsAny(host, " \t@") {
		return "", ErrInvalidDomain
	}
	return host, nil
}

// targetURL gives bare hosts an https scheme.
func targetURL(input string) (string, error) {
	u, err := urlnorm.Normalize(urlnorm.EnsureScheme(strings.TrimSpace(input)))
	if err != nil {
		return "", ErrInvalidDomain
	}
	return u, nil
}
