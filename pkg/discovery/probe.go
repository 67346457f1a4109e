package discovery

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/reconkit/reconkit/pkg/defaults"
	"github.com/reconkit/reconkit/pkg/duration"
	"github.com/reconkit/reconkit/pkg/httpclient"
	"github.com/reconkit/reconkit/pkg/iohelper"
	"github.com/reconkit/reconkit/pkg/metrics"
	"github.com/reconkit/reconkit/pkg/urlnorm"
)

// Prober decides whether a candidate URL answers and records it when it
// does. Failures are never reported to the caller; a URL that cannot be
// reached is simply not an endpoint.
type Prober struct {
	Client    *http.Client
	Set       *URLSet
	Timeout   time.Duration
	UserAgent string
	Logger    *slog.Logger
	Metrics   *metrics.Collector
}

// Accessible reports whether status counts as a live endpoint.
// Redirects count because many endpoints answer with one.
func Accessible(status int) bool {
	return status >= 200 && status < 400
}

// Check sends httpMethod (HEAD when empty) to rawURL. A status in
// [200, 400) records the normalized URL under m if it is not yet known.
// The return value reports accessibility, whether or not the URL was new.
func (p *Prober) Check(ctx context.Context, rawURL string, m Method, httpMethod string) bool {
	u, err := urlnorm.Normalize(rawURL)
	if err != nil {
		return false
	}
	if httpMethod == "" {
		httpMethod = http.MethodHead
	}

	timeout := p.Timeout
	if timeout <= 0 {
		timeout = duration.HTTPProbing
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, httpMethod, u, nil)
	if err != nil {
		return false
	}
	ua := p.UserAgent
	if ua == "" {
		ua = defaults.UABrowser
	}
	req.Header.Set("User-Agent", ua)

	start := time.Now()
	resp, err := p.Client.Do(req)
	p.Metrics.ObserveRequest("probe", time.Since(start))
	if err != nil {
		p.Metrics.ObserveProbe(string(m), metrics.OutcomeError, time.Since(start))
		loggerOrDefault(p.Logger).Debug("probe failed",
			slog.String("url", u),
			slog.String("channel", string(m)),
			slog.String("kind", httpclient.Kind(err)),
			slog.String("error", err.Error()))
		return false
	}
	iohelper.DrainAndClose(resp.Body)

	if !Accessible(resp.StatusCode) {
		p.Metrics.ObserveProbe(string(m), metrics.OutcomeMiss, time.Since(start))
		return false
	}
	if p.Set.Add(u, m) {
		p.Metrics.ObserveProbe(string(m), metrics.OutcomeHit, time.Since(start))
	} else {
		p.Metrics.ObserveProbe(string(m), metrics.OutcomeDuplicate, time.Since(start))
	}
	return true
}

func loggerOrDefault(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	return l
}
