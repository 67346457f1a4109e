package recon

import (
	"context"
	"fmt"
	"strings"

	"github.com/likexian/whois"
	whoisparser "github.com/likexian/whois-parser"

	"github.com/reconkit/reconkit/pkg/duration"
)

// WhoisResult is the parsed registration record. Raw always carries the
// server's text; the parsed fields are empty when ParseError is set.
type WhoisResult struct {
	Domain         string   `json:"domain"`
	Registrar      string   `json:"registrar,omitempty"`
	CreatedDate    string   `json:"created_date,omitempty"`
	UpdatedDate    string   `json:"updated_date,omitempty"`
	ExpirationDate string   `json:"expiration_date,omitempty"`
	NameServers    []string `json:"name_servers,omitempty"`
	Status         []string `json:"status,omitempty"`
	Registrant     string   `json:"registrant,omitempty"`
	ParseError     string   `json:"parse_error,omitempty"`
	Raw            string   `json:"raw"`
}

// WhoisLookup fetches and parses the WHOIS record for domain.
func (s *Scanner) WhoisLookup(ctx context.Context, domain string) (*WhoisResult, error) {
	domain, err := CleanDomain(domain)
	if err != nil {
		return nil, err
	}
	return cached(s, "whois", domain, duration.CacheWhois, func() (*WhoisResult, error) {
		raw, err := s.whois(ctx, domain)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrWhois, domain, err)
		}
		return parseWhois(domain, raw), nil
	})
}

// queryWhois runs the blocking WHOIS exchange and gives up when ctx ends.
func (s *Scanner) queryWhois(ctx context.Context, domain string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	client := whois.NewClient()
	client.SetTimeout(duration.WhoisQuery)

	var servers []string
	if s.cfg.WhoisServer != "" {
		servers = append(servers, s.cfg.WhoisServer)
	}

	type answer struct {
		text string
		err  error
	}
	done := make(chan answer, 1)
	go func() {
		text, err := client.Whois(domain, servers...)
		done <- answer{text, err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case a := <-done:
		return a.text, a.err
	}
}

func parseWhois(domain, raw string) *WhoisResult {
	res := &WhoisResult{Domain: domain, Raw: raw}
	info, err := whoisparser.Parse(raw)
	if err != nil {
		res.ParseError = err.Error()
		return res
	}
	if d := info.Domain; d != nil {
		res.CreatedDate = d.CreatedDate
		res.UpdatedDate = d.UpdatedDate
		res.ExpirationDate = d.ExpirationDate
		res.NameServers = d.NameServers
		res.Status = d.Status
	}
	if r := info.Registrar; r != nil {
		res.Registrar = firstNonEmpty(r.Name, r.Organization)
	}
	if r := info.Registrant; r != nil {
		res.Registrant = firstNonEmpty(r.Organization, r.Name)
	}
	return res
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
