package httpclient

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/reconkit/reconkit/pkg/duration"
)

// DNSCache caches resolver answers for the dialer. Discovery sends
// hundreds of requests to one host, so a lookup per connection is waste.
type DNSCache struct {
	mu          sync.Mutex
	entries     map[string]*cacheEntry
	resolver    *net.Resolver
	ttl         time.Duration
	negativeTTL time.Duration
	now         func() time.Time
}

type cacheEntry struct {
	addrs     []string
	err       error
	expiresAt time.Time
}

var (
	defaultDNSCache *DNSCache
	dnsCacheOnce    sync.Once
)

// GetDNSCache returns the shared DNS cache instance
func GetDNSCache() *DNSCache {
	dnsCacheOnce.Do(func() {
		defaultDNSCache = NewDNSCache(duration.DNSCacheTTL, duration.DNSCacheNegativeTTL)
	})
	return defaultDNSCache
}

// NewDNSCache creates a cache holding successful lookups for ttl and
// failed lookups for negativeTTL.
func NewDNSCache(ttl, negativeTTL time.Duration) *DNSCache {
	return &DNSCache{
		entries:     make(map[string]*cacheEntry),
		resolver:    &net.Resolver{PreferGo: true},
		ttl:         ttl,
		negativeTTL: negativeTTL,
		now:         time.Now,
	}
}

// LookupHost returns cached addresses for host, resolving on a miss.
func (d *DNSCache) LookupHost(ctx context.Context, host string) ([]string, error) {
	d.mu.Lock()
	if e, ok := d.entries[host]; ok && d.now().Before(e.expiresAt) {
		d.mu.Unlock()
		return e.addrs, e.err
	}
	d.mu.Unlock()

	addrs, err := d.resolver.LookupHost(ctx, host)
	if err != nil && ctx.Err() != nil {
		// A cancelled caller says nothing about the name itself.
		return nil, err
	}
	if err == nil && len(addrs) == 0 {
		err = fmt.Errorf("dnscache: no addresses for host %s", host)
	}

	ttl := d.ttl
	if err != nil {
		ttl = d.negativeTTL
		addrs = nil
	}

	d.mu.Lock()
	d.entries[host] = &cacheEntry{addrs: addrs, err: err, expiresAt: d.now().Add(ttl)}
	d.mu.Unlock()
	return addrs, err
}

// Invalidate removes a host from the cache.
func (d *DNSCache) Invalidate(host string) {
	d.mu.Lock()
	delete(d.entries, host)
	d.mu.Unlock()
}

// Len returns the number of cached hosts, expired or not.
func (d *DNSCache) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.entries)
}

// CachingDialer wraps a dialer with DNS caching.
type CachingDialer struct {
	cache  *DNSCache
	dialer *net.Dialer
}

// NewCachingDialer creates a dialer that uses DNS caching.
func NewCachingDialer(cache *DNSCache, timeout time.Duration) *CachingDialer {
	return &CachingDialer{
		cache: cache,
		dialer: &net.Dialer{
			Timeout:   timeout,
			KeepAlive: duration.KeepAlive,
		},
	}
}

// DialContext connects to the address using cached DNS.
func (d *CachingDialer) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	host, port, err := net.SplitHostPort(address)
	if err != nil || net.ParseIP(host) != nil {
		return d.dialer.DialContext(ctx, network, address)
	}

	addrs, err := d.cache.LookupHost(ctx, host)
	if err != nil {
		return nil, err
	}

	var lastErr error
	for _, ip := range addrs {
		conn, err := d.dialer.DialContext(ctx, network, net.JoinHostPort(ip, port))
		if err == nil {
			return conn, nil
		}
		lastErr = err
	}

	d.cache.Invalidate(host)
	return nil, lastErr
}
