package httpclient

import (
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/reconkit/reconkit/pkg/iohelper"
)

// middlewareTransport wraps a base RoundTripper to add request-level
// middleware: default User-Agent, a shared rate limit and retries.
type middlewareTransport struct {
	base       http.RoundTripper
	userAgent  string
	limiter    *rate.Limiter
	retryCount int
	retryDelay time.Duration
}

// retryableStatusCodes trigger an automatic retry.
var retryableStatusCodes = map[int]bool{
	http.StatusTooManyRequests:    true,
	http.StatusServiceUnavailable: true,
}

func newMiddleware(base http.RoundTripper, cfg Config) *middlewareTransport {
	m := &middlewareTransport{
		base:       base,
		userAgent:  cfg.UserAgent,
		retryCount: cfg.RetryCount,
		retryDelay: cfg.RetryDelay,
	}
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst < 1 {
			burst = 1
		}
		m.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}
	return m
}

// RoundTrip implements http.RoundTripper with middleware.
func (m *middlewareTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// Clone the request to avoid mutating the caller's request.
	r := req.Clone(req.Context())

	if m.userAgent != "" && r.Header.Get("User-Agent") == "" {
		r.Header.Set("User-Agent", m.userAgent)
	}

	attempts := m.retryCount + 1
	if attempts < 1 {
		attempts = 1
	}

	var resp *http.Response
	var err error

	for i := 0; i < attempts; i++ {
		if i > 0 {
			if m.retryDelay > 0 {
				t := time.NewTimer(m.retryDelay)
				select {
				case <-r.Context().Done():
					t.Stop()
					return nil, r.Context().Err()
				case <-t.C:
				}
			}
			if r.GetBody != nil {
				r.Body, _ = r.GetBody()
			}
		}

		if m.limiter != nil {
			if werr := m.limiter.Wait(r.Context()); werr != nil {
				return nil, werr
			}
		}

		resp, err = m.base.RoundTrip(r)
		if err != nil {
			if r.Context().Err() != nil {
				return nil, err
			}
			continue // transport error, retry
		}

		if retryableStatusCodes[resp.StatusCode] && i < attempts-1 {
			iohelper.DrainAndClose(resp.Body)
			continue
		}

		return resp, nil
	}

	return resp, err
}

// needsMiddleware reports whether the config requires the middleware transport.
func needsMiddleware(cfg Config) bool {
	return cfg.UserAgent != "" ||
		cfg.RateLimit > 0 ||
		cfg.RetryCount > 0
}
