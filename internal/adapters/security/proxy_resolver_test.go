package security

import "testing"

func TestResolveUntrustedPeerIgnoresForwardedHeaders(t *testing.T) {
	t.Parallel()

	r := NewProxyResolver([]string{"10.0.0.0/8"})
	got := r.Resolve("203.0.113.9:4444", []string{"198.51.100.1"})
	if got != "203.0.113.9:4444" {
		t.Fatalf("untrusted peer must keep direct address, got %q", got)
	}
}

func TestResolveTrustedPeerUsesFirstParseableForwardedValue(t *testing.T) {
	t.Parallel()

	r := NewProxyResolver([]string{"10.0.0.0/8"})

	got := r.Resolve("10.1.2.3:9999", []string{"198.51.100.7, 10.0.0.2"})
	if got != "198.51.100.7" {
		t.Fatalf("expected first forwarded client, got %q", got)
	}

	// Garbage tokens are skipped, not fatal.
	got = r.Resolve("10.1.2.3:9999", []string{"not-an-ip, , 198.51.100.8"})
	if got != "198.51.100.8" {
		t.Fatalf("expected first parseable token, got %q", got)
	}

	// No usable forwarded value falls back to the peer address.
	got = r.Resolve("10.1.2.3:9999", []string{"banana"})
	if got != "10.1.2.3:9999" {
		t.Fatalf("expected fallback to direct address, got %q", got)
	}
}

func TestResolveNormalizesForwardedHostPort(t *testing.T) {
	t.Parallel()

	r := NewProxyResolver([]string{"10.0.0.0/8"})

	// The same client must resolve to one identity whether or not the proxy
	// appended a port to the forwarded token.
	bare := r.Resolve("10.1.2.3:9999", []string{"198.51.100.7"})
	withPort := r.Resolve("10.1.2.3:9999", []string{"198.51.100.7:7777"})
	if bare != "198.51.100.7" || withPort != "198.51.100.7" {
		t.Fatalf("expected normalized host, got %q and %q", bare, withPort)
	}

	if got := r.Resolve("10.1.2.3:9999", []string{"[2001:db8::1]:7777"}); got != "2001:db8::1" {
		t.Fatalf("expected bracketed ipv6 host stripped of port, got %q", got)
	}
}

func TestTrustedExactAddressRule(t *testing.T) {
	t.Parallel()

	r := NewProxyResolver([]string{"127.0.0.1"})
	if got := r.Resolve("127.0.0.1:8080", []string{"203.0.113.5"}); got != "203.0.113.5" {
		t.Fatalf("exact rule should trust loopback peer, got %q", got)
	}
	if got := r.Resolve("127.0.0.2:8080", []string{"203.0.113.5"}); got != "127.0.0.2:8080" {
		t.Fatalf("exact rule must not trust a different address, got %q", got)
	}
}

func TestCIDRContainment(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		rules []string
		peer  string
		want  bool
	}{
		{"inside /8", []string{"10.0.0.0/8"}, "10.255.0.1:1234", true},
		{"outside /8", []string{"10.0.0.0/8"}, "11.0.0.1:1234", false},
		{"inside non-byte-aligned /12", []string{"172.16.0.0/12"}, "172.31.200.9:1234", true},
		{"outside non-byte-aligned /12", []string{"172.16.0.0/12"}, "172.32.0.1:1234", false},
		{"zero prefix matches family", []string{"0.0.0.0/0"}, "203.0.113.99:1234", true},
		{"family mismatch never matches", []string{"10.0.0.0/8"}, "[2001:db8::1]:1234", false},
		{"ipv6 subnet", []string{"2001:db8::/32"}, "[2001:db8:1234::9]:1234", true},
		{"ipv6 outside subnet", []string{"2001:db8::/32"}, "[2001:db9::9]:1234", false},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			r := NewProxyResolver(tc.rules)
			got := r.Resolve(tc.peer, []string{"198.51.100.50"})
			trusted := got == "198.51.100.50"
			if trusted != tc.want {
				t.Fatalf("peer %s with rules %v: trusted=%v, want %v", tc.peer, tc.rules, trusted, tc.want)
			}
		})
	}
}

func TestMalformedRulesAreDropped(t *testing.T) {
	t.Parallel()

	r := NewProxyResolver([]string{"banana", "10.0.0.0/33", "10.0.0.0/-1", "", "10.0.0.0/notanumber"})
	if got := r.Resolve("10.0.0.1:1", []string{"198.51.100.1"}); got != "10.0.0.1:1" {
		t.Fatalf("malformed rules must not grant trust, got %q", got)
	}
}
