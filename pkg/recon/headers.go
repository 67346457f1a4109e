package recon

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strings"

	"github.com/reconkit/reconkit/pkg/defaults"
	"github.com/reconkit/reconkit/pkg/duration"
	"github.com/reconkit/reconkit/pkg/iohelper"
)

// SecurityHeaders are the response headers scored by AnalyzeHeaders.
var SecurityHeaders = []string{
	"strict-transport-security",
	"content-security-policy",
	"x-content-type-options",
	"x-frame-options",
	"x-xss-protection",
	"referrer-policy",
	"permissions-policy",
}

// leakHeaders disclose server software or framework versions.
var leakHeaders = []string{
	"server",
	"x-powered-by",
	"x-aspnet-version",
	"x-aspnetmvc-version",
	"x-generator",
}

// HeaderReport describes the response headers of one URL. Header names
// are lowercase and repeated values are joined with ", ".
type HeaderReport struct {
	URL        string            `json:"url"`
	StatusCode int               `json:"status_code"`
	Headers    map[string]string `json:"headers"`
	Present    map[string]string `json:"present"`
	Missing    []string          `json:"missing"`
	Score      float64           `json:"score"`
	InfoLeaks  map[string]string `json:"info_leaks,omitempty"`
}

// AnalyzeHeaders fetches rawURL, following redirects, and scores its
// security headers. Score is the percentage of SecurityHeaders present.
func (s *Scanner) AnalyzeHeaders(ctx context.Context, rawURL string) (*HeaderReport, error) {
	target, err := targetURL(rawURL)
	if err != nil {
		return nil, err
	}
	return cached(s, "headers", target, duration.CacheHeaders, func() (*HeaderReport, error) {
		resp, err := s.fetch(ctx, target, true)
		if err != nil {
			return nil, err
		}
		defer iohelper.DrainAndClose(resp.Body)
		report := ScoreHeaders(resp.Header)
		report.URL = resp.Request.URL.String()
		report.StatusCode = resp.StatusCode
		return report, nil
	})
}

// ScoreHeaders builds a report from a header set without any network I/O.
func ScoreHeaders(h http.Header) *HeaderReport {
	report := &HeaderReport{
		Headers: make(map[string]string, len(h)),
		Present: make(map[string]string),
		Missing: []string{},
	}
	for name, values := range h {
		report.Headers[strings.ToLower(name)] = strings.Join(values, ", ")
	}
	for _, name := range SecurityHeaders {
		if v, ok := report.Headers[name]; ok {
			report.Present[name] = v
		} else {
			report.Missing = append(report.Missing, name)
		}
	}
	report.Score = math.Round(float64(len(report.Present))/float64(len(SecurityHeaders))*1000) / 10

	for _, name := range leakHeaders {
		if v := report.Headers[name]; v != "" {
			if report.InfoLeaks == nil {
				report.InfoLeaks = make(map[string]string)
			}
			report.InfoLeaks[name] = v
		}
	}
	return report
}

// fetch GETs target with a browser User-Agent. With follow set, redirects
// are followed on a copy of the shared client.
func (s *Scanner) fetch(ctx context.Context, target string, follow bool) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", defaults.UABrowser)
	req.Header.Set("Accept", defaults.AcceptAny)

	client := s.client
	if follow {
		c := *s.client
		c.CheckRedirect = nil
		client = &c
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", target, err)
	}
	return resp, nil
}
