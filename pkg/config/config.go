// Package config loads reconkit settings from a YAML file and binds them
// to command-line flags. Flags always win over the file, and the file
// always wins over DefaultConfig.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/reconkit/reconkit/pkg/defaults"
	"github.com/reconkit/reconkit/pkg/discovery"
	"github.com/reconkit/reconkit/pkg/duration"
	"github.com/reconkit/reconkit/pkg/httpclient"
	"github.com/reconkit/reconkit/pkg/input"
	"github.com/reconkit/reconkit/pkg/recon"
	"github.com/reconkit/reconkit/pkg/tls"
	"github.com/reconkit/reconkit/pkg/tracing"
)

// Config holds every file-configurable setting.
type Config struct {
	Discovery DiscoveryConfig `yaml:"discovery"`
	HTTP      HTTPConfig      `yaml:"http"`
	Recon     ReconConfig     `yaml:"recon"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Tracing   TracingConfig   `yaml:"tracing"`
}

// DiscoveryConfig mirrors discovery.Options.
type DiscoveryConfig struct {
	MaxDepth        int           `yaml:"max_depth"`
	UseWordlist     bool          `yaml:"use_wordlist"`
	UseWayback      bool          `yaml:"use_wayback"`
	AnalyzeJS       bool          `yaml:"analyze_js"`
	MaxJSFiles      int           `yaml:"max_js_files"`
	Timeout         time.Duration `yaml:"timeout"`
	OutputFormat    string        `yaml:"output_format"`
	Concurrency     int           `yaml:"concurrency"`
	MaxDuration     time.Duration `yaml:"max_duration"`
	Wordlist        []string      `yaml:"wordlist"`
	WordlistFile    string        `yaml:"wordlist_file"`
	Frameworks      []string      `yaml:"frameworks"`
	WaybackEndpoint string        `yaml:"wayback_endpoint"`
	MaxWaybackURLs  int           `yaml:"max_wayback_urls"`
}

// HTTPConfig tunes the shared HTTP client.
type HTTPConfig struct {
	Proxy              string        `yaml:"proxy"`
	RateLimit          float64       `yaml:"rate_limit"`
	RateBurst          int           `yaml:"rate_burst"`
	InsecureSkipVerify bool          `yaml:"insecure_skip_verify"`
	Retries            int           `yaml:"retries"`
	RetryDelay         time.Duration `yaml:"retry_delay"`
	DNSCache           bool          `yaml:"dns_cache"`
}

// ReconConfig configures the recon probes.
type ReconConfig struct {
	Resolver     string        `yaml:"resolver"`
	Timeout      time.Duration `yaml:"timeout"`
	TLSProfile   string        `yaml:"tls_profile"`
	WhoisServer  string        `yaml:"whois_server"`
	DisableCache bool          `yaml:"disable_cache"`
}

// MetricsConfig controls the Prometheus endpoint. An empty Addr disables it.
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// TracingConfig controls OTLP export. An empty Endpoint disables it.
type TracingConfig struct {
	Endpoint    string            `yaml:"endpoint"`
	ServiceName string            `yaml:"service_name"`
	Insecure    bool              `yaml:"insecure"`
	Headers     map[string]string `yaml:"headers"`
	SampleRatio float64           `yaml:"sample_ratio"`
}

// DefaultConfig returns the settings used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		Discovery: DiscoveryConfig{
			MaxDepth:     defaults.CrawlDepth,
			UseWordlist:  true,
			UseWayback:   true,
			AnalyzeJS:    true,
			MaxJSFiles:   defaults.MaxJSFiles,
			Timeout:      duration.HTTPRequest,
			OutputFormat: defaults.FormatJSON,
			Concurrency:  defaults.CrawlConcurrency,

			MaxWaybackURLs: defaults.MaxWaybackURLs,
		},
		HTTP: HTTPConfig{
			InsecureSkipVerify: true,
			DNSCache:           true,
		},
		Recon: ReconConfig{
			Resolver:   defaults.DNSResolver,
			Timeout:    duration.HTTPProbing,
			TLSProfile: tls.DefaultProfile,
		},
		Tracing: TracingConfig{
			ServiceName: defaults.ToolName,
		},
	}
}

// Load reads path over DefaultConfig and validates the result. Unknown
// keys are rejected. An empty file yields the defaults.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %s: %w", path, err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse decodes YAML from r over DefaultConfig and validates the result.
func Parse(r io.Reader) (*Config, error) {
	cfg := DefaultConfig()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// PathFromArgs finds the value of -config in args before flags are bound,
// so file values can become flag defaults.
func PathFromArgs(args []string) string {
	for i, a := range args {
		if a == "--" {
			break
		}
		name := strings.TrimLeft(a, "-")
		if name == a {
			continue
		}
		if v, ok := strings.CutPrefix(name, "config="); ok {
			return v
		}
		if name == "config" && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

// Validate checks ranges and cross-field constraints. Errors wrap
// ErrInvalidConfig or ErrMissingRequired.
func (c *Config) Validate() error {
	var errs []error
	invalid := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...)))
	}

	d := c.Discovery
	if d.OutputFormat != defaults.FormatJSON && d.OutputFormat != defaults.FormatSimple {
		invalid("discovery.output_format must be %q or %q, got %q", defaults.FormatJSON, defaults.FormatSimple, d.OutputFormat)
	}
	if d.Timeout <= 0 {
		invalid("discovery.timeout must be positive")
	}
	if d.Concurrency < 1 {
		invalid("discovery.concurrency must be at least 1")
	}
	if d.MaxDuration < 0 {
		invalid("discovery.max_duration must not be negative")
	}

	h := c.HTTP
	if h.RateLimit < 0 {
		invalid("http.rate_limit must not be negative")
	}
	if h.Retries < 0 {
		invalid("http.retries must not be negative")
	}
	if h.Proxy != "" {
		if err := httpclient.ValidateProxyURL(h.Proxy); err != nil {
			invalid("http.proxy: %v", err)
		}
	}

	if c.Recon.Resolver == "" {
		errs = append(errs, fmt.Errorf("%w: recon.resolver", ErrMissingRequired))
	}
	if c.Recon.Timeout <= 0 {
		invalid("recon.timeout must be positive")
	}
	if _, err := tls.ProfileByName(c.Recon.TLSProfile); err != nil {
		invalid("recon.tls_profile: %v", err)
	}

	if c.Metrics.Addr != "" {
		if _, _, err := net.SplitHostPort(c.Metrics.Addr); err != nil {
			invalid("metrics.addr: %v", err)
		}
	}
	if r := c.Tracing.SampleRatio; r < 0 || r > 1 {
		invalid("tracing.sample_ratio must be within [0, 1], got %v", r)
	}
	return errors.Join(errs...)
}

// BindDiscoveryFlags registers the crawl flags on fs. Current field values
// become the flag defaults.
func (c *Config) BindDiscoveryFlags(fs *flag.FlagSet) {
	d := &c.Discovery
	fs.IntVar(&d.MaxDepth, "depth", d.MaxDepth, "Maximum link-following depth")
	fs.BoolVar(&d.UseWordlist, "wordlist", d.UseWordlist, "Probe the common-path wordlist")
	fs.BoolVar(&d.UseWayback, "wayback", d.UseWayback, "Query the Wayback Machine")
	fs.BoolVar(&d.AnalyzeJS, "js", d.AnalyzeJS, "Extract endpoints from JavaScript")
	fs.IntVar(&d.MaxJSFiles, "max-js", d.MaxJSFiles, "External scripts analyzed per page")
	fs.DurationVar(&d.Timeout, "timeout", d.Timeout, "Per-request timeout")
	fs.StringVar(&d.OutputFormat, "format", d.OutputFormat, "Output format: json or simple")
	fs.IntVar(&d.Concurrency, "c", d.Concurrency, "Concurrent page fetches")
	fs.DurationVar(&d.MaxDuration, "max-duration", d.MaxDuration, "Bound on the whole run (0 = none)")
	fs.StringVar(&d.WordlistFile, "wordlist-file", d.WordlistFile, "File replacing the built-in wordlist")
	fs.Var(input.NewListFlag(&d.Frameworks), "frameworks", "Framework wordlists to add (comma-separated)")
	fs.StringVar(&d.WaybackEndpoint, "wayback-endpoint", d.WaybackEndpoint, "Wayback CDX API URL")
	fs.IntVar(&d.MaxWaybackURLs, "max-wayback", d.MaxWaybackURLs, "Archived URLs probed (0 = all)")
}

// BindHTTPFlags registers the HTTP client flags on fs.
func (c *Config) BindHTTPFlags(fs *flag.FlagSet) {
	h := &c.HTTP
	fs.StringVar(&h.Proxy, "proxy", h.Proxy, "HTTP or SOCKS5 proxy URL")
	fs.Float64Var(&h.RateLimit, "rate-limit", h.RateLimit, "Max requests per second (0 = unlimited)")
	fs.IntVar(&h.Retries, "retries", h.Retries, "Retries on transport errors, 429 and 503")
	fs.BoolVar(&h.InsecureSkipVerify, "k", h.InsecureSkipVerify, "Skip TLS certificate verification")
}

// BindReconFlags registers the recon probe flags on fs.
func (c *Config) BindReconFlags(fs *flag.FlagSet) {
	r := &c.Recon
	fs.StringVar(&r.Resolver, "resolver", r.Resolver, "DNS resolver address")
	fs.DurationVar(&r.Timeout, "timeout", r.Timeout, "Probe timeout")
	fs.StringVar(&r.TLSProfile, "tls-profile", r.TLSProfile, "ClientHello profile: "+strings.Join(tls.ProfileNames(), ", "))
	fs.StringVar(&r.WhoisServer, "whois-server", r.WhoisServer, "WHOIS server (default: follow referrals)")
}

// BindTelemetryFlags registers the metrics and tracing flags on fs.
func (c *Config) BindTelemetryFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.Metrics.Addr, "metrics-addr", c.Metrics.Addr, "Serve Prometheus metrics on this address")
	fs.StringVar(&c.Tracing.Endpoint, "otlp-endpoint", c.Tracing.Endpoint, "OTLP gRPC endpoint for traces")
	fs.BoolVar(&c.Tracing.Insecure, "otlp-insecure", c.Tracing.Insecure, "Use plaintext gRPC for OTLP")
}

// ClientConfig returns the HTTP client settings with the given timeout.
func (c *Config) ClientConfig(timeout time.Duration) httpclient.Config {
	cfg := httpclient.WithTimeout(timeout)
	cfg.Proxy = c.HTTP.Proxy
	cfg.RateLimit = c.HTTP.RateLimit
	cfg.RateBurst = c.HTTP.RateBurst
	cfg.InsecureSkipVerify = c.HTTP.InsecureSkipVerify
	cfg.RetryCount = c.HTTP.Retries
	cfg.RetryDelay = c.HTTP.RetryDelay
	cfg.DNSCache = c.HTTP.DNSCache
	return cfg
}

// DiscoveryOptions builds discovery options for target, reading the
// wordlist file when one is configured. Telemetry fields are left to the
// caller.
func (c *Config) DiscoveryOptions(target string) (discovery.Options, error) {
	d := c.Discovery
	opts := discovery.Options{
		Target:          target,
		MaxDepth:        d.MaxDepth,
		UseWordlist:     d.UseWordlist,
		UseWayback:      d.UseWayback,
		AnalyzeJS:       d.AnalyzeJS,
		MaxJSFiles:      d.MaxJSFiles,
		Timeout:         d.Timeout,
		OutputFormat:    d.OutputFormat,
		Concurrency:     d.Concurrency,
		MaxDuration:     d.MaxDuration,
		Wordlist:        d.Wordlist,
		Frameworks:      d.Frameworks,
		WaybackEndpoint: d.WaybackEndpoint,
		MaxWaybackURLs:  d.MaxWaybackURLs,
		HTTPClient:      httpclient.New(c.ClientConfig(d.Timeout)),
	}
	if d.WordlistFile != "" {
		words, err := input.ReadLines(d.WordlistFile)
		if err != nil {
			return opts, fmt.Errorf("%w: discovery.wordlist_file: %w", ErrInvalidConfig, err)
		}
		opts.Wordlist = words
	}
	return opts, nil
}

// ScannerConfig returns recon settings. Telemetry fields are left to the
// caller.
func (c *Config) ScannerConfig() recon.Config {
	r := c.Recon
	cfg := recon.Config{
		Resolver:    r.Resolver,
		Timeout:     r.Timeout,
		TLSProfile:  r.TLSProfile,
		WhoisServer: r.WhoisServer,
		HTTPClient:  httpclient.New(c.ClientConfig(r.Timeout)),
	}
	if !r.DisableCache {
		cfg.Cache = recon.NewCache()
	}
	return cfg
}

// TracingOptions returns the OTLP exporter settings.
func (c *Config) TracingOptions() tracing.Options {
	return tracing.Options{
		Endpoint:    c.Tracing.Endpoint,
		ServiceName: c.Tracing.ServiceName,
		Insecure:    c.Tracing.Insecure,
		Headers:     c.Tracing.Headers,
		SampleRatio: c.Tracing.SampleRatio,
	}
}
