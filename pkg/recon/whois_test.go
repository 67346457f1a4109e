package recon

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const exampleWhois = `Domain Name: EXAMPLE.COM
Registry Domain ID: 2336799_DOMAIN_COM-VRSN
Registrar WHOIS Server: whois.iana.org
Registrar URL: http://res-dom.iana.org
Updated Date: 2024-08-14T07:01:34Z
Creation Date: 1995-08-14T04:00:00Z
Registry Expiry Date: 2025-08-13T04:00:00Z
Registrar: RESERVED-Internet Assigned Numbers Authority
Registrar IANA ID: 376
Domain Status: clientDeleteProhibited https://icann.org/epp#clientDeleteProhibited
Domain Status: clientTransferProhibited https://icann.org/epp#clientTransferProhibited
Name Server: A.IANA-SERVERS.NET
Name Server: B.IANA-SERVERS.NET
DNSSEC: signedDelegation
>>> Last update of whois database: 2024-09-01T10:00:00Z <<<
`

func fakeWhois(s *Scanner, text string, err error) *int {
	calls := 0
	s.whois = func(ctx context.Context, domain string) (string, error) {
		calls++
		return text, err
	}
	return &calls
}

func TestWhoisLookup(t *testing.T) {
	s := newScanner(t)
	fakeWhois(s, exampleWhois, nil)

	res, err := s.WhoisLookup(context.Background(), "https://example.com/")
	require.NoError(t, err)

	assert.Equal(t, "example.com", res.Domain)
	assert.Empty(t, res.ParseError)
	assert.Equal(t, exampleWhois, res.Raw)
	assert.Contains(t, res.Registrar, "Internet Assigned Numbers Authority")
	assert.Contains(t, res.CreatedDate, "1995-08-14")
	assert.Contains(t, res.ExpirationDate, "2025-08-13")
	require.Len(t, res.NameServers, 2)
	assert.Equal(t, "a.iana-servers.net", strings.ToLower(res.NameServers[0]))
	assert.NotEmpty(t, res.Status)
}

func TestWhoisLookupKeepsRawOnParseFailure(t *testing.T) {
	s := newScanner(t)
	fakeWhois(s, "rate limit exceeded, try again later", nil)

	res, err := s.WhoisLookup(context.Background(), "example.com")
	require.NoError(t, err)
	assert.NotEmpty(t, res.ParseError)
	assert.Equal(t, "rate limit exceeded, try again later", res.Raw)
	assert.Empty(t, res.Registrar)
}

func TestWhoisLookupQueryFailure(t *testing.T) {
	s := newScanner(t)
	calls := fakeWhois(s, "", errors.New("connection reset"))

	_, err := s.WhoisLookup(context.Background(), "example.com")
	require.ErrorIs(t, err, ErrWhois)
	assert.Contains(t, err.Error(), "connection reset")

	_, err = s.WhoisLookup(context.Background(), "example.com")
	assert.Error(t, err)
	assert.Equal(t, 2, *calls, "failures are not cached")
}

func TestWhoisLookupIsCached(t *testing.T) {
	s := newScanner(t)
	calls := fakeWhois(s, exampleWhois, nil)

	for i := 0; i < 3; i++ {
		_, err := s.WhoisLookup(context.Background(), "example.com")
		require.NoError(t, err)
	}
	assert.Equal(t, 1, *calls)
}

func TestQueryWhoisHonoursContext(t *testing.T) {
	s := newScanner(t, func(c *Config) { c.WhoisServer = "192.0.2.1:43" })
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.queryWhois(ctx, "example.com")
	assert.ErrorIs(t, err, context.Canceled)
}
