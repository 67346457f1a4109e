package httpclient

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"net"
	"strings"
	"syscall"
)

// Sentinel errors for HTTP client failure modes.
// Callers should use errors.Is() to check for these.
var (
	// ErrProxyConnect indicates the client failed to connect through
	// the configured proxy.
	ErrProxyConnect = errors.New("httpclient: proxy connection failed")

	// ErrDNS indicates a DNS resolution failure for the target host.
	ErrDNS = errors.New("httpclient: DNS resolution failed")

	// ErrTLS indicates a TLS handshake or certificate verification failure.
	ErrTLS = errors.New("httpclient: TLS handshake failed")

	// ErrTimeout indicates the request exceeded its deadline.
	ErrTimeout = errors.New("httpclient: request timed out")

	// ErrConnRefused indicates the target actively refused the connection.
	ErrConnRefused = errors.New("httpclient: connection refused")
)

// Classify maps a transport error onto one of the sentinels above. The
// returned error wraps both the sentinel and the original error, so
// errors.Is works for either. Unknown errors are returned unchanged.
func Classify(err error) error {
	if err == nil {
		return nil
	}

	var sentinel error
	var dnsErr *net.DNSError
	var netErr net.Error
	var certErr *tls.CertificateVerificationError
	var unknownAuth x509.UnknownAuthorityError
	var hostnameErr x509.HostnameError

	switch {
	case errors.As(err, &dnsErr):
		sentinel = ErrDNS
	case errors.Is(err, context.DeadlineExceeded):
		sentinel = ErrTimeout
	case errors.As(err, &netErr) && netErr.Timeout():
		sentinel = ErrTimeout
	case errors.Is(err, syscall.ECONNREFUSED):
		sentinel = ErrConnRefused
	case errors.As(err, &certErr), errors.As(err, &unknownAuth), errors.As(err, &hostnameErr):
		sentinel = ErrTLS
	case strings.Contains(err.Error(), "tls:"):
		sentinel = ErrTLS
	case strings.Contains(err.Error(), "proxyconnect"), strings.Contains(err.Error(), "socks connect"):
		sentinel = ErrProxyConnect
	default:
		return err
	}

	return errors.Join(sentinel, err)
}

// Kind returns a short label for a transport error, suitable for metric
// labels and log attributes.
func Kind(err error) string {
	switch c := Classify(err); {
	case c == nil:
		return "none"
	case errors.Is(c, ErrDNS):
		return "dns"
	case errors.Is(c, ErrTimeout):
		return "timeout"
	case errors.Is(c, ErrConnRefused):
		return "refused"
	case errors.Is(c, ErrTLS):
		return "tls"
	case errors.Is(c, ErrProxyConnect):
		return "proxy"
	default:
		return "other"
	}
}
