package security

import (
	"net"
	"strconv"
	"strings"
)

// trustedProxyRule is a single allowlisted address or CIDR subnet.
// Family-specific byte widths are fixed at parse time so containment checks
// never mix IPv4 and IPv6 rules.
type trustedProxyRule struct {
	subnet    net.IP
	prefixLen int
	exact     bool
}

// ProxyResolver determines the true client address. Forwarded headers are
// honored only when the direct transport peer matches an allowlisted proxy;
// otherwise a spoofed header would let any client pick its own identity.
type ProxyResolver struct {
	rules []trustedProxyRule
}

// NewProxyResolver parses operator-configured rules, each either a bare
// address or "address/prefix_length". Malformed rules are dropped rather than
// failing open: an unparseable rule must never mean "trust everything".
func NewProxyResolver(ruleSpecs []string) *ProxyResolver {
	r := &ProxyResolver{}
	for _, spec := range ruleSpecs {
		spec = strings.TrimSpace(spec)
		if spec == "" {
			continue
		}
		if addr, prefix, found := strings.Cut(spec, "/"); found {
			ip := parseAddr(addr)
			if ip == nil {
				continue
			}
			prefixLen, err := strconv.Atoi(prefix)
			if err != nil || prefixLen < 0 || prefixLen > len(ip)*8 {
				continue
			}
			r.rules = append(r.rules, trustedProxyRule{subnet: ip, prefixLen: prefixLen})
			continue
		}
		if ip := parseAddr(spec); ip != nil {
			r.rules = append(r.rules, trustedProxyRule{subnet: ip, exact: true})
		}
	}
	return r
}

// Resolve returns the client address for a request. The direct peer address is
// the default answer; forwarded values are scanned in the given priority order
// only when the peer is trusted, and the first token that parses as an IP wins.
// The parsed host is returned, not the raw token, so "1.2.3.4" and
// "1.2.3.4:7777" resolve to the same identity.
func (r *ProxyResolver) Resolve(directAddr string, forwardedValues []string) string {
	direct := parseAddr(directAddr)
	if direct == nil || !r.trusted(direct) {
		return directAddr
	}
	for _, value := range forwardedValues {
		for _, token := range strings.Split(value, ",") {
			candidate := strings.TrimSpace(token)
			if candidate == "" {
				continue
			}
			if ip := parseAddr(candidate); ip != nil {
				return ip.String()
			}
		}
	}
	return directAddr
}

func (r *ProxyResolver) trusted(addr net.IP) bool {
	for _, rule := range r.rules {
		if rule.exact {
			if addr.Equal(rule.subnet) {
				return true
			}
			continue
		}
		if cidrContains(rule.subnet, rule.prefixLen, addr) {
			return true
		}
	}
	return false
}

// cidrContains compares fixed-width address bytes: whole prefix bytes for
// equality, then the remaining bits of the next byte under a high-bit mask.
// Mismatched families never match.
func cidrContains(subnet net.IP, prefixLen int, addr net.IP) bool {
	addr = normalizeFamily(addr, len(subnet))
	if addr == nil {
		return false
	}
	if prefixLen < 0 || prefixLen > len(subnet)*8 {
		return false
	}

	wholeBytes := prefixLen / 8
	for i := 0; i < wholeBytes; i++ {
		if subnet[i] != addr[i] {
			return false
		}
	}
	if remainder := prefixLen % 8; remainder != 0 {
		mask := byte(0xFF << (8 - remainder))
		if subnet[wholeBytes]&mask != addr[wholeBytes]&mask {
			return false
		}
	}
	return true
}

// parseAddr parses an address into its family-native width: 4 bytes for IPv4,
// 16 for IPv6. Host:port forms are accepted since peer addresses carry ports.
func parseAddr(raw string) net.IP {
	raw = strings.TrimSpace(raw)
	if host, _, err := net.SplitHostPort(raw); err == nil {
		raw = host
	}
	ip := net.ParseIP(raw)
	if ip == nil {
		return nil
	}
	if v4 := ip.To4(); v4 != nil {
		return v4
	}
	return ip.To16()
}

func normalizeFamily(addr net.IP, width int) net.IP {
	switch width {
	case net.IPv4len:
		return addr.To4()
	case net.IPv6len:
		if addr.To4() != nil {
			return nil
		}
		return addr.To16()
	default:
		return nil
	}
}
