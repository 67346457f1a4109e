// Package metrics exposes discovery telemetry for Prometheus scraping.
//
// A nil *Collector is valid and records nothing, so library callers that do
// not care about metrics never need a guard.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/reconkit/reconkit/pkg/duration"
)

// Probe outcomes used as the "outcome" label.
const (
	OutcomeHit       = "hit"
	OutcomeMiss      = "miss"
	OutcomeError     = "error"
	OutcomeDuplicate = "duplicate"
)

// Collector owns a private registry and the discovery metric families.
type Collector struct {
	registry *prometheus.Registry

	probesTotal     *prometheus.CounterVec
	discoveredTotal *prometheus.CounterVec
	pagesTotal      *prometheus.CounterVec
	scriptsTotal    prometheus.Counter
	errorsTotal     *prometheus.CounterVec
	requestSeconds  *prometheus.HistogramVec
	runSeconds      *prometheus.HistogramVec
	reconTotal      *prometheus.CounterVec
	toolCallsTotal  *prometheus.CounterVec
	inFlight        prometheus.Gauge

	mu     sync.Mutex
	server *http.Server
}

// New creates a Collector with every metric registered on its own registry.
func New() *Collector {
	c := &Collector{registry: prometheus.NewRegistry()}

	c.probesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reconkit_probe_total",
			Help: "Accessibility probes by discovery channel and outcome",
		},
		[]string{"channel", "outcome"},
	)
	c.discoveredTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reconkit_discovered_total",
			Help: "URLs added to the discovered set by channel",
		},
		[]string{"channel"},
	)
	c.pagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reconkit_pages_fetched_total",
			Help: "Crawled pages by response status class",
		},
		[]string{"status"},
	)
	c.scriptsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "reconkit_scripts_analyzed_total",
		Help: "Inline and external script bodies run through the extractor",
	})
	c.errorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reconkit_channel_errors_total",
			Help: "Entries appended to the error log by channel",
		},
		[]string{"channel"},
	)
	c.requestSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "reconkit_request_duration_seconds",
			Help:    "HTTP request latency by request kind",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
		},
		[]string{"kind"},
	)
	c.runSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "reconkit_discovery_duration_seconds",
			Help:    "Wall time of whole discovery runs",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		},
		[]string{"format"},
	)
	c.reconTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reconkit_recon_queries_total",
			Help: "Recon probes (dns, whois, headers, tls, favicon) by outcome",
		},
		[]string{"kind", "outcome"},
	)
	c.toolCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reconkit_mcp_tool_calls_total",
			Help: "MCP tool invocations by tool and outcome",
		},
		[]string{"tool", "outcome"},
	)
	c.inFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "reconkit_discoveries_in_flight",
		Help: "Discovery runs currently executing",
	})

	c.registry.MustRegister(
		c.probesTotal,
		c.discoveredTotal,
		c.pagesTotal,
		c.scriptsTotal,
		c.errorsTotal,
		c.requestSeconds,
		c.runSeconds,
		c.reconTotal,
		c.toolCallsTotal,
		c.inFlight,
	)
	return c
}

// Registry returns the collector's registry.
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// ObserveProbe records one accessibility probe.
func (c *Collector) ObserveProbe(channel, outcome string, took time.Duration) {
	if c == nil {
		return
	}
	c.probesTotal.WithLabelValues(channel, outcome).Inc()
	c.requestSeconds.WithLabelValues("probe").Observe(took.Seconds())
}

// Discovered counts a URL newly added to the set.
func (c *Collector) Discovered(channel string) {
	if c == nil {
		return
	}
	c.discoveredTotal.WithLabelValues(channel).Inc()
}

// ObserveRequest records a non-probe request such as a page or script fetch.
func (c *Collector) ObserveRequest(kind string, took time.Duration) {
	if c == nil {
		return
	}
	c.requestSeconds.WithLabelValues(kind).Observe(took.Seconds())
}

// ReconQuery records one recon probe. Outcome is one of the Outcome
// constants; cache hits use OutcomeDuplicate.
func (c *Collector) ReconQuery(kind, outcome string, took time.Duration) {
	if c == nil {
		return
	}
	c.reconTotal.WithLabelValues(kind, outcome).Inc()
	c.requestSeconds.WithLabelValues(kind).Observe(took.Seconds())
}

// ToolCall records one MCP tool invocation; failed calls use OutcomeError.
func (c *Collector) ToolCall(tool, outcome string, took time.Duration) {
	if c == nil {
		return
	}
	c.toolCallsTotal.WithLabelValues(tool, outcome).Inc()
	c.requestSeconds.WithLabelValues("mcp_" + tool).Observe(took.Seconds())
}

// PageFetched counts a crawled page by status class ("2xx", "3xx", ... or "error").
func (c *Collector) PageFetched(status int) {
	if c == nil {
		return
	}
	c.pagesTotal.WithLabelValues(StatusClass(status)).Inc()
}

// ScriptAnalyzed counts a script body run through the extractor.
func (c *Collector) ScriptAnalyzed() {
	if c == nil {
		return
	}
	c.scriptsTotal.Inc()
}

// ChannelError counts an error log entry for channel.
func (c *Collector) ChannelError(channel string) {
	if c == nil {
		return
	}
	c.errorsTotal.WithLabelValues(channel).Inc()
}

// RunStarted marks a discovery run in flight and returns a func that
// records its duration when called.
func (c *Collector) RunStarted(format string) func() {
	if c == nil {
		return func() {}
	}
	start := time.Now()
	c.inFlight.Inc()
	return func() {
		c.inFlight.Dec()
		c.runSeconds.WithLabelValues(format).Observe(time.Since(start).Seconds())
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// Serve starts a metrics server on addr in the background and returns the
// bound address. Call Close to stop it.
func (c *Collector) Serve(addr string, logger *slog.Logger) (string, error) {
	if logger == nil {
		logger = slog.Default()
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return "", fmt.Errorf("metrics: listen %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())

	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: duration.ServerReadHeader,
	}
	c.mu.Lock()
	c.server = srv
	c.mu.Unlock()

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("metrics server stopped", slog.String("error", err.Error()))
		}
	}()
	return ln.Addr().String(), nil
}

// Close shuts down the metrics server if Serve was called.
func (c *Collector) Close() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	srv := c.server
	c.server = nil
	c.mu.Unlock()
	if srv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), duration.ServerShutdown)
	defer cancel()
	return srv.Shutdown(ctx)
}

// StatusClass buckets an HTTP status code; zero means a transport error.
func StatusClass(status int) string {
	if status <= 0 {
		return "error"
	}
	return strconv.Itoa(status/100) + "xx"
}
