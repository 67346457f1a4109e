package recon

import (
	"context"
	"crypto/sha256"
	"crypto/tls"
	"encoding/hex"
	"errors"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/reconkit/reconkit/pkg/defaults"
	rtls "github.com/reconkit/reconkit/pkg/tls"
)

// TLSReport describes the negotiated session and the leaf certificate.
type TLSReport struct {
	Host          string    `json:"host"`
	Address       string    `json:"address"`
	Profile       string    `json:"client_hello"`
	Version       string    `json:"version"`
	CipherSuite   string    `json:"cipher_suite"`
	ALPN          string    `json:"alpn,omitempty"`
	Subject       string    `json:"subject"`
	Issuer        string    `json:"issuer"`
	SANs          []string  `json:"sans,omitempty"`
	Serial        string    `json:"serial"`
	NotBefore     time.Time `json:"not_before"`
	NotAfter      time.Time `json:"not_after"`
	DaysRemaining int       `json:"days_remaining"`
	Expired       bool      `json:"expired"`
	SelfSigned    bool      `json:"self_signed"`
	SHA256        string    `json:"sha256"`
}

// TLSInfo handshakes with target using a browser ClientHello and reports
// the session. Target may be a host, host:port or URL; the port defaults
// to 443. Certificates are read, not verified.
func (s *Scanner) TLSInfo(ctx context.Context, target string) (*TLSReport, error) {
	host, addr, err := tlsAddress(target)
	if err != nil {
		return nil, err
	}
	profile, err := rtls.ProfileByName(s.cfg.TLSProfile)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()
	conn, err := rtls.Dial(ctx, addr, rtls.DialConfig{
		Profile:    profile.Name,
		ServerName: host,
		SkipVerify: true,
		Dialer:     &net.Dialer{Timeout: s.cfg.Timeout},
	})
	s.observe("tls", start, err)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	state := conn.ConnectionState()
	report := &TLSReport{
		Host:        host,
		Address:     addr,
		Profile:     profile.Name,
		Version:     tls.VersionName(state.Version),
		CipherSuite: tls.CipherSuiteName(state.CipherSuite),
		ALPN:        state.NegotiatedProtocol,
	}
	if len(state.PeerCertificates) == 0 {
		return nil, errors.New("recon: server presented no certificate")
	}
	leaf := state.PeerCertificates[0]
	report.Subject = leaf.Subject.String()
	report.Issuer = leaf.Issuer.String()
	report.Serial = leaf.SerialNumber.String()
	report.NotBefore = leaf.NotBefore.UTC()
	report.NotAfter = leaf.NotAfter.UTC()
	report.SANs = append(report.SANs, leaf.DNSNames...)
	for _, ip := range leaf.IPAddresses {
		report.SANs = append(report.SANs, ip.String())
	}
	report.SelfSigned = leaf.Subject.String() == leaf.Issuer.String()
	sum := sha256.Sum256(leaf.Raw)
	report.SHA256 = hex.EncodeToString(sum[:])

	remaining := time.Until(leaf.NotAfter)
	report.DaysRemaining = int(remaining.Hours() / 24)
	report.Expired = remaining < 0
	return report, nil
}

// tlsAddress splits target into the SNI host and a dialable address.
func tlsAddress(target string) (host, addr string, err error) {
	target = strings.TrimSpace(target)
	if strings.Contains(target, "://") {
		u, perr := url.Parse(target)
		if perr != nil || u.Host == "" {
			return "", "", ErrInvalidDomain
		}
		target = u.Host
	} else if i := strings.IndexAny(target, "/?#"); i >= 0 {
		target = target[:i]
	}
	if target == "" {
		return "", "", ErrInvalidDomain
	}

	host, port, serr := net.SplitHostPort(target)
	if serr != nil {
		host, port = strings.Trim(target, "[]"), defaults.TLSPort
	}
	host = strings.ToLower(host)
	if host == "" {
		return "", "", ErrInvalidDomain
	}
	return host, net.JoinHostPort(host, port), nil
}
