// Package discovery finds the HTTP endpoints a web origin exposes. Five
// channels run side by side against one target: a wordlist of common
// paths, the Wayback Machine archive, robots.txt and sitemaps, a bounded
// breadth-first crawl of internal links, and analysis of the JavaScript
// those pages load. Every endpoint they find lands in one deduplicated
// set, attributed to the channel that found it first.
//
// Discover never fails. Whatever goes wrong inside a channel becomes a
// line in Result.Errors and the other channels carry on.
package discovery

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/sync/errgroup"

	"github.com/reconkit/reconkit/pkg/defaults"
	"github.com/reconkit/reconkit/pkg/duration"
	"github.com/reconkit/reconkit/pkg/httpclient"
	"github.com/reconkit/reconkit/pkg/metrics"
	"github.com/reconkit/reconkit/pkg/tracing"
	"github.com/reconkit/reconkit/pkg/urlnorm"
	"github.com/reconkit/reconkit/pkg/workerpool"
)

// Options configures one discovery run.
type Options struct {
	// Target is a URL or a bare host; a bare host gets https://.
	Target string

	// MaxDepth bounds link following; 0 fetches only the target page.
	// Negative values are treated as 0.
	MaxDepth int

	UseWordlist bool
	UseWayback  bool
	AnalyzeJS   bool

	// MaxJSFiles caps external scripts analyzed per page. Non-positive
	// values disable external script fetches.
	MaxJSFiles int

	// Timeout applies to each request (default 10s).
	Timeout time.Duration

	// OutputFormat is "json" (default) or "simple".
	OutputFormat string

	// Concurrency bounds parallel page fetches (default 10).
	Concurrency int

	// MaxDuration bounds the whole run; zero means no bound.
	MaxDuration time.Duration

	// Wordlist replaces the embedded common list when set.
	Wordlist []string

	// Frameworks appends the named embedded framework lists.
	Frameworks []string

	// WaybackEndpoint overrides the CDX API location.
	WaybackEndpoint string

	// MaxWaybackURLs caps how many archived URLs are probed. Non-positive
	// values probe every in-scope URL.
	MaxWaybackURLs int

	// HTTPClient is used for every request. It must not follow redirects.
	HTTPClient *http.Client

	Logger  *slog.Logger
	Metrics *metrics.Collector
	Tracer  trace.Tracer
}

// DefaultOptions returns the options of a full run against target.
func DefaultOptions(target string) Options {
	return Options{
		Target:       target,
		MaxDepth:     defaults.CrawlDepth,
		UseWordlist:  true,
		UseWayback:   true,
		AnalyzeJS:    true,
		MaxJSFiles:   defaults.MaxJSFiles,
		Timeout:      duration.HTTPRequest,
		OutputFormat: defaults.FormatJSON,
		Concurrency:  defaults.CrawlConcurrency,

		MaxWaybackURLs: defaults.MaxWaybackURLs,
	}
}

// normalize fills zero values and clamps out-of-range ones.
func (o Options) normalize() Options {
	if o.MaxDepth < 0 {
		o.MaxDepth = 0
	}
	if o.MaxJSFiles < 0 {
		o.MaxJSFiles = 0
	}
	if o.Timeout <= 0 {
		o.Timeout = duration.HTTPRequest
	}
	if o.Concurrency <= 0 {
		o.Concurrency = defaults.CrawlConcurrency
	}
	if o.OutputFormat != defaults.FormatSimple {
		o.OutputFormat = defaults.FormatJSON
	}
	return o
}

// run is the state of one Discover call. Nothing in it outlives the call.
type run struct {
	id       string
	opts     Options
	target   string
	origin   string
	wordlist []string

	client  *http.Client
	set     *URLSet
	errs    *ErrorLog
	prober  *Prober
	js      *JSAnalyzer
	logger  *slog.Logger
	metrics *metrics.Collector
	tracer  trace.Tracer
}

// Discover runs every enabled channel against opts.Target and returns
// what they found. It always returns a Result; failures are reported in
// Result.Errors.
func Discover(ctx context.Context, opts Options) (res *Result) {
	opts = opts.normalize()
	start := time.Now()
	id := uuid.NewString()
	logger := loggerOrDefault(opts.Logger).With(slog.String("run_id", id))
	target := urlnorm.EnsureScheme(opts.Target)

	set := NewURLSet()
	errs := &ErrorLog{}
	finish := func() *Result {
		return newResult(id, target, opts.OutputFormat, set, errs, time.Since(start))
	}

	defer func() {
		if p := recover(); p != nil {
			errs.Addf("Crawler error: %v", p)
			logger.Error("discovery panicked", slog.Any("panic", p))
			res = finish()
		}
	}()

	if _, err := urlnorm.Normalize(target); err != nil {
		errs.Addf("Crawler error: invalid target: %v", err)
		return finish()
	}

	r := &run{
		id:      id,
		opts:    opts,
		target:  target,
		origin:  urlnorm.Origin(target),
		client:  opts.HTTPClient,
		set:     set,
		errs:    errs,
		logger:  logger,
		metrics: opts.Metrics,
		tracer:  opts.Tracer,
	}
	switch {
	case r.client != nil:
	case opts.Timeout == duration.HTTPRequest:
		r.client = httpclient.Default()
	default:
		r.client = httpclient.New(httpclient.WithTimeout(opts.Timeout))
	}
	if r.tracer == nil {
		r.tracer = noop.NewTracerProvider().Tracer(tracing.InstrumentationName)
	}
	set.onAdd = func(m Method) { r.metrics.Discovered(string(m)) }
	r.prober = &Prober{
		Client:  r.client,
		Set:     set,
		Timeout: opts.Timeout,
		Logger:  logger,
		Metrics: opts.Metrics,
	}
	r.js = NewJSAnalyzer(target)

	if opts.UseWordlist {
		list, err := resolveWordlist(opts.Wordlist, opts.Frameworks)
		if err != nil {
			r.fail(MethodWordlist, "Crawler error: %v", err)
		}
		r.wordlist = list
	}

	done := r.metrics.RunStarted(opts.OutputFormat)
	defer done()

	ctx, span := r.tracer.Start(ctx, "discovery.run", trace.WithAttributes(
		attribute.String("discovery.run_id", id),
		attribute.String("url.full", target),
		attribute.Int("discovery.max_depth", opts.MaxDepth),
	))
	defer span.End()

	if opts.MaxDuration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.MaxDuration)
		defer cancel()
	}

	logger.Info("discovery started",
		slog.String("target", target),
		slog.Int("max_depth", opts.MaxDepth),
		slog.Bool("wordlist", opts.UseWordlist),
		slog.Bool("wayback", opts.UseWayback),
		slog.Bool("analyze_js", opts.AnalyzeJS))

	g, gctx := errgroup.WithContext(ctx)
	if opts.UseWordlist {
		g.Go(r.channel(gctx, "wordlist", r.probeWordlist))
	}
	if opts.UseWayback {
		g.Go(r.channel(gctx, "wayback", r.harvestWayback))
	}
	g.Go(r.channel(gctx, "robots", r.harvestRobots))
	if opts.MaxDepth > 0 || opts.AnalyzeJS {
		g.Go(r.channel(gctx, "crawl", func(ctx context.Context) {
			newCrawler(r).crawl(ctx)
		}))
	}
	_ = g.Wait()

	res = finish()
	if err := res.Verify(); err != nil {
		res.Errors = append(res.Errors, fmt.Sprintf("Crawler error: %v", err))
	}
	span.SetAttributes(
		attribute.Int("discovery.endpoints", res.Count()),
		attribute.Int("discovery.errors", len(res.Errors)),
	)
	logger.Info("discovery finished",
		slog.String("target", target),
		slog.Int("endpoints", res.Count()),
		slog.Int("errors", len(res.Errors)),
		slog.Duration("took", res.Duration))
	return res
}

// channel wraps fn for the errgroup: it opens a span and turns a panic
// into a run error so one broken channel cannot take down the others.
func (r *run) channel(ctx context.Context, name string, fn func(context.Context)) func() error {
	return func() error {
		ctx, span := r.tracer.Start(ctx, "discovery."+name)
		defer span.End()
		defer func() {
			if p := recover(); p != nil {
				span.SetStatus(codes.Error, "panic")
				r.metrics.ChannelError(name)
				r.errs.Addf("Crawler error: %v", p)
				r.logger.Error("discovery channel panicked",
					slog.String("channel", name),
					slog.Any("panic", p))
			}
		}()
		fn(ctx)
		return nil
	}
}

// newPool returns a worker pool whose task panics are recorded as run
// errors against channel m.
func (r *run) newPool(workers int, m Method) *workerpool.Pool {
	return workerpool.NewWithPanicHandler(workers, func(p any) {
		r.fail(m, "Crawler error: %v", p)
	})
}

// fail records a channel error on the run.
func (r *run) fail(m Method, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	r.errs.Addf("%s", msg)
	r.metrics.ChannelError(string(m))
	r.logger.Debug("discovery error", slog.String("channel", string(m)), slog.String("error", msg))
}

// record normalizes u and adds it under m.
func (r *run) record(u string, m Method) bool {
	n, err := urlnorm.Normalize(u)
	if err != nil {
		return false
	}
	return r.set.Add(n, m)
}

// get issues a GET with the run's per-request timeout.
func (r *run) get(ctx context.Context, u string, header http.Header) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	for k, v := range header {
		req.Header[k] = v
	}
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", defaults.UABrowser)
	}
	return r.do(req)
}

// do sends req bounded by the run's timeout. The timeout stays armed until
// the body is closed.
func (r *run) do(req *http.Request) (*http.Response, error) {
	ctx, cancel := context.WithTimeout(req.Context(), r.opts.Timeout)
	start := time.Now()
	resp, err := r.client.Do(req.WithContext(ctx))
	r.metrics.ObserveRequest("fetch", time.Since(start))
	if err != nil {
		cancel()
		return nil, err
	}
	resp.Body = &cancelBody{ReadCloser: resp.Body, cancel: cancel}
	return resp, nil
}

type cancelBody struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (b *cancelBody) Close() error {
	err := b.ReadCloser.Close()
	b.cancel()
	return err
}
