package httpclient

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"
)

func TestSentinelErrors_Distinct(t *testing.T) {
	sentinels := []error{ErrProxyConnect, ErrDNS, ErrTLS, ErrTimeout, ErrConnRefused}
	for i := 0; i < len(sentinels); i++ {
		for j := i + 1; j < len(sentinels); j++ {
			if errors.Is(sentinels[i], sentinels[j]) {
				t.Errorf("sentinel %d and %d must be distinct", i, j)
			}
		}
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
		kind string
	}{
		{"dns", &net.DNSError{Err: "no such host", Name: "nope.invalid"}, ErrDNS, "dns"},
		{"deadline", fmt.Errorf("get: %w", context.DeadlineExceeded), ErrTimeout, "timeout"},
		{"tls", errors.New("remote error: tls: handshake failure"), ErrTLS, "tls"},
		{"proxy", errors.New("proxyconnect tcp: dial tcp 127.0.0.1:1: refused"), ErrProxyConnect, "proxy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.err)
			if !errors.Is(got, tt.want) {
				t.Errorf("Classify(%v) does not wrap %v", tt.err, tt.want)
			}
			if !errors.Is(got, tt.err) {
				t.Errorf("Classify(%v) lost the original error", tt.err)
			}
			if k := Kind(tt.err); k != tt.kind {
				t.Errorf("Kind = %q, want %q", k, tt.kind)
			}
		})
	}

	if Classify(nil) != nil {
		t.Error("Classify(nil) must be nil")
	}
	plain := errors.New("something else")
	if Classify(plain) != plain {
		t.Error("unknown errors must pass through unchanged")
	}
	if Kind(plain) != "other" {
		t.Errorf("Kind(plain) = %q, want other", Kind(plain))
	}
}
