package util

import (
	"net/http/httptest"
	"net/netip"
	"testing"
)

func TestClientIPForRateLimitKey(t *testing.T) {
	trusted, err := NewTrustedProxies([]string{"172.16.0.0/12", "10.1.2.3"})
	if err != nil {
		t.Fatalf("new trusted proxies: %v", err)
	}

	tests := []struct {
		name    string
		remote  string
		xff     string
		realIP  string
		trusted *TrustedProxies
		want    string
	}{
		{name: "untrusted peer ignores headers", remote: "198.51.100.10:5000", xff: "203.0.113.5", realIP: "203.0.113.6", want: "198.51.100.10"},
		{name: "compose network proxy forwards client", remote: "172.18.0.4:41000", xff: "203.0.113.5", trusted: trusted, want: "203.0.113.5"},
		{name: "rightmost untrusted hop wins", remote: "172.18.0.4:41000", xff: "198.51.100.1, 203.0.113.5, 10.1.2.3", trusted: trusted, want: "203.0.113.5"},
		{name: "x-real-ip when forwarded chain is empty", remote: "10.1.2.3:80", xff: "garbage", realIP: "203.0.113.7", trusted: trusted, want: "203.0.113.7"},
		{name: "fully trusted chain yields leftmost", remote: "10.1.2.3:80", xff: "172.20.0.2", trusted: trusted, want: "172.20.0.2"},
		{name: "unparseable remote returned as is", remote: "pipe", want: "pipe"},
		{name: "ipv4-mapped peer is unmapped", remote: "[::ffff:198.51.100.9]:443", want: "198.51.100.9"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/api/products", nil)
			req.RemoteAddr = tc.remote
			if tc.xff != "" {
				req.Header.Set("X-Forwarded-For", tc.xff)
			}
			if tc.realIP != "" {
				req.Header.Set("X-Real-IP", tc.realIP)
			}
			if got := ClientIP(req, tc.trusted); got != tc.want {
				t.Fatalf("ClientIP = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestNewTrustedProxies(t *testing.T) {
	trusted, err := NewTrustedProxies([]string{" ", "fd00::/8", "192.168.1.1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !trusted.Contains(netip.MustParseAddr("fd00::1")) || !trusted.Contains(netip.MustParseAddr("192.168.1.1")) {
		t.Fatalf("expected entries to be trusted")
	}
	if trusted.Contains(netip.MustParseAddr("192.168.1.2")) {
		t.Fatalf("single address must not widen to a range")
	}
	if empty, err := NewTrustedProxies(nil); err != nil || empty != nil {
		t.Fatalf("expected nil allowlist for empty input, got %v err=%v", empty, err)
	}
	if _, err := NewTrustedProxies([]string{"10.0.0.0/40"}); err == nil {
		t.Fatalf("expected error for bad prefix")
	}
	if _, err := NewTrustedProxies([]string{"not-an-ip"}); err == nil {
		t.Fatalf("expected error for bad address")
	}
}
