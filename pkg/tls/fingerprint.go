// Package tls performs TLS handshakes that present a real browser
// ClientHello, so servers that fingerprint clients (JA3/JA4) answer the
// recon probe the way they answer a browser.
package tls

import (
	"context"
	"fmt"
	"net"
	"strings"

	utls "github.com/refraction-networking/utls"

	"github.com/reconkit/reconkit/pkg/duration"
)

// Profile pairs a ClientHello fingerprint with the User-Agent a browser
// sending it would use.
type Profile struct {
	Name        string `json:"name"`
	UserAgent   string `json:"user_agent"`
	ClientHello *utls.ClientHelloID `json:"-"`
}

// DefaultProfile is used when no profile name is given.
const DefaultProfile = "chrome"

// Profiles returns the built-in browser fingerprints.
func Profiles() []*Profile {
	return []*Profile{
		{
			Name:        "chrome",
			UserAgent:   "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			ClientHello: &utls.HelloChrome_120,
		},
		{
			Name:        "firefox",
			UserAgent:   "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:120.0) Gecko/20100101 Firefox/120.0",
			ClientHello: &utls.HelloFirefox_120,
		},
		{
			Name:        "safari",
			UserAgent:   "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/16.0 Safari/605.1.15",
			ClientHello: &utls.HelloSafari_16_0,
		},
		{
			Name:        "edge",
			UserAgent:   "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/106.0.0.0 Safari/537.36 Edg/106.0.1370.34",
			ClientHello: &utls.HelloEdge_106,
		},
		{
			Name:        "randomized",
			UserAgent:   "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			ClientHello: &utls.HelloRandomized,
		},
	}
}

// ProfileNames lists the built-in profile names in order.
func ProfileNames() []string {
	profiles := Profiles()
	names := make([]string, len(profiles))
	for i, p := range profiles {
		names[i] = p.Name
	}
	return names
}

// ProfileByName looks a profile up case-insensitively. An empty name
// selects DefaultProfile.
func ProfileByName(name string) (*Profile, error) {
	if name == "" {
		name = DefaultProfile
	}
	for _, p := range Profiles() {
		if strings.EqualFold(p.Name, name) {
			return p, nil
		}
	}
	return nil, fmt.Errorf("profile not found: %s", name)
}

// DialConfig configures Dial.
type DialConfig struct {
	// Profile names the ClientHello to send (default: chrome)
	Profile string

	// ServerName overrides the SNI host (default: host part of addr)
	ServerName string

	// SkipVerify disables certificate verification. Recon wants to read
	// expired and self-signed certificates, so callers usually set it.
	SkipVerify bool

	// NextProtos is the ALPN list offered (default: h2, http/1.1)
	NextProtos []string

	// Dialer opens the TCP connection (default: net.Dialer with duration.Dial)
	Dialer *net.Dialer
}

// Dial connects to addr and completes a handshake with the configured
// browser fingerprint. The caller owns the returned connection.
func Dial(ctx context.Context, addr string, cfg DialConfig) (*utls.UConn, error) {
	profile, err := ProfileByName(cfg.Profile)
	if err != nil {
		return nil, err
	}

	host := cfg.ServerName
	if host == "" {
		h, _, err := net.SplitHostPort(addr)
		if err != nil {
			return nil, fmt.Errorf("invalid address %q: %w", addr, err)
		}
		host = h
	}
	protos := cfg.NextProtos
	if len(protos) == 0 {
		protos = []string{"h2", "http/1.1"}
	}

	dialer := cfg.Dialer
	if dialer == nil {
		dialer = &net.Dialer{Timeout: duration.Dial}
	}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}

	tlsConfig := &utls.Config{
		ServerName:         host,
		InsecureSkipVerify: cfg.SkipVerify, //nolint:gosec // certificate details are reported, not trusted
		NextProtos:         protos,
	}
	uConn := utls.UClient(conn, tlsConfig, *profile.ClientHello)
	if err := uConn.HandshakeContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("TLS handshake failed: %w", err)
	}
	return uConn, nil
}
