package recon

import (
	"context"
	"fmt"
	"net"
	"sort"
	"strings"
	"sync"

	"github.com/miekg/dns"
	"golang.org/x/sync/errgroup"

	"github.com/reconkit/reconkit/pkg/defaults"
	"github.com/reconkit/reconkit/pkg/duration"
)

// recordTypes are queried by DNSLookup, in report order.
var recordTypes = []struct {
	name  string
	qtype uint16
}{
	{"A", dns.TypeA},
	{"AAAA", dns.TypeAAAA},
	{"MX", dns.TypeMX},
	{"NS", dns.TypeNS},
	{"TXT", dns.TypeTXT},
	{"CNAME", dns.TypeCNAME},
}

// DNSResult holds the answers for one domain. Types with no answer are
// absent from Records; types whose query failed appear in Errors.
type DNSResult struct {
	Domain   string              `json:"domain"`
	Resolver string              `json:"resolver"`
	Records  map[string][]string `json:"records"`
	Errors   map[string]string   `json:"errors,omitempty"`
}

// DNSLookup queries every record type for domain in parallel. It fails
// only when all types fail.
func (s *Scanner) DNSLookup(ctx context.Context, domain string) (*DNSResult, error) {
	domain, err := CleanDomain(domain)
	if err != nil {
		return nil, err
	}
	resolver := resolverAddr(s.cfg.Resolver)
	return cached(s, "dns", resolver+"|"+domain, duration.CacheDNS, func() (*DNSResult, error) {
		return s.lookupAll(ctx, domain, resolver)
	})
}

func (s *Scanner) lookupAll(ctx context.Context, domain, resolver string) (*DNSResult, error) {
	res := &DNSResult{
		Domain:   domain,
		Resolver: resolver,
		Records:  make(map[string][]string),
		Errors:   make(map[string]string),
	}
	client := &dns.Client{Timeout: s.cfg.Timeout}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(defaults.ReconConcurrency)
	for _, rt := range recordTypes {
		g.Go(func() error {
			answers, err := queryType(gctx, client, resolver, domain, rt.qtype)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				res.Errors[rt.name] = err.Error()
			case len(answers) > 0:
				res.Records[rt.name] = answers
			}
			return nil
		})
	}
	_ = g.Wait()

	if len(res.Errors) == len(recordTypes) {
		return nil, fmt.Errorf("%w: %s", ErrNoRecords, domain)
	}
	if len(res.Errors) == 0 {
		res.Errors = nil
	}
	return res, nil
}

// queryType runs one exchange and returns the answers of the asked type.
// NXDOMAIN and other non-success codes are errors; an empty NOERROR answer
// is not.
func queryType(ctx context.Context, client *dns.Client, resolver, domain string, qtype uint16) ([]string, error) {
	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(domain), qtype)
	msg.RecursionDesired = true

	resp, _, err := client.ExchangeContext(ctx, msg, resolver)
	if err != nil {
		return nil, err
	}
	if resp.Rcode != dns.RcodeSuccess {
		return nil, fmt.Errorf("rcode %s", dns.RcodeToString[resp.Rcode])
	}

	var out []string
	for _, rr := range resp.Answer {
		if rr.Header().Rrtype != qtype {
			continue
		}
		switch v := rr.(type) {
		case *dns.A:
			out = append(out, v.A.String())
		case *dns.AAAA:
			out = append(out, v.AAAA.String())
		case *dns.MX:
			out = append(out, fmt.Sprintf("%d %s", v.Preference, strings.TrimSuffix(v.Mx, ".")))
		case *dns.NS:
			out = append(out, strings.TrimSuffix(v.Ns, "."))
		case *dns.TXT:
			out = append(out, strings.Join(v.Txt, ""))
		case *dns.CNAME:
			out = append(out, strings.TrimSuffix(v.Target, "."))
		}
	}
	if qtype == dns.TypeMX || qtype == dns.TypeNS {
		sort.Strings(out)
	}
	return out, nil
}

// resolverAddr adds the default DNS port to a bare resolver host.
func resolverAddr(resolver string) string {
	if resolver == "" {
		return defaults.DNSResolver
	}
	if _, _, err := net.SplitHostPort(resolver); err != nil {
		return net.JoinHostPort(strings.Trim(resolver, "[]"), "53")
	}
	return resolver
}
