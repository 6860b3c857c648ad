package hostlist

import (
	"fmt"
	"net/netip"
	"strings"

	"go4.org/netipx"
)

// HostList is an ordered, immutable list of validated patterns. Order is kept
// for display only; matching has set semantics. A *HostList is safe for
// concurrent use.
type HostList struct {
	patterns []Pattern
	set      *netipx.IPSet
	wildcard bool
}

// Parse splits csv on commas, trims each entry and validates it. The first
// invalid entry fails the whole parse. An empty or blank string yields an
// empty list.
func Parse(csv string) (*HostList, error) {
	if strings.TrimSpace(csv) == "" {
		return Empty(), nil
	}

	entries := strings.Split(csv, ",")
	patterns := make([]Pattern, 0, len(entries))
	for _, entry := range entries {
		p, err := ParsePattern(strings.TrimSpace(entry))
		if err != nil {
			return nil, err
		}
		patterns = append(patterns, p)
	}
	return build(patterns)
}

// MustParse is like Parse but panics on error. Intended for defaults and tests.
func MustParse(csv string) *HostList {
	l, err := Parse(csv)
	if err != nil {
		panic(err)
	}
	return l
}

// Empty returns a list that matches nothing.
func Empty() *HostList {
	l, _ := build(nil)
	return l
}

func build(patterns []Pattern) (*HostList, error) {
	var b netipx.IPSetBuilder
	wildcard := false
	for _, p := range patterns {
		switch p.Kind() {
		case KindWildcard:
			wildcard = true
			b.AddPrefix(netip.PrefixFrom(netip.IPv4Unspecified(), 0))
			b.AddPrefix(netip.PrefixFrom(netip.IPv6Unspecified(), 0))
		default:
			b.AddPrefix(p.Prefix())
		}
	}
	set, err := b.IPSet()
	if err != nil {
		return nil, fmt.Errorf("building address set: %w", err)
	}
	return &HostList{patterns: patterns, set: set, wildcard: wildcard}, nil
}

// Contains reports whether addr is matched by any entry. IPv4-mapped IPv6
// addresses match their IPv4 form.
func (l *HostList) Contains(addr netip.Addr) bool {
	if l == nil || !addr.IsValid() {
		return false
	}
	return l.set.Contains(addr.WithZone("").Unmap())
}

// ContainsString parses s as an address, optionally with a port, and reports
// whether it is matched. Unparsable input is never matched.
func (l *HostList) ContainsString(s string) bool {
	addr, ok := ParseRemoteAddr(s)
	if !ok {
		return false
	}
	return l.Contains(addr)
}

// ParseRemoteAddr extracts the IP from "ip", "[ip]" or "ip:port" forms.
func ParseRemoteAddr(s string) (netip.Addr, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return netip.Addr{}, false
	}
	if ap, err := netip.ParseAddrPort(s); err == nil {
		return ap.Addr(), true
	}
	if addr, err := netip.ParseAddr(strings.Trim(s, "[]")); err == nil {
		return addr, true
	}
	return netip.Addr{}, false
}

// Len returns the number of entries.
func (l *HostList) Len() int {
	if l == nil {
		return 0
	}
	return len(l.patterns)
}

// Patterns returns a copy of the entries in configuration order.
func (l *HostList) Patterns() []Pattern {
	if l == nil {
		return nil
	}
	out := make([]Pattern, len(l.patterns))
	copy(out, l.patterns)
	return out
}

// HasWildcard reports whether the list contains "*".
func (l *HostList) HasWildcard() bool {
	return l != nil && l.wildcard
}

// Addrs returns the single-address entries in configuration order.
func (l *HostList) Addrs() []netip.Addr {
	if l == nil {
		return nil
	}
	var out []netip.Addr
	for _, p := range l.patterns {
		if p.Kind() == KindAddr {
			out = append(out, p.Addr())
		}
	}
	return out
}

// IsSingleAddrs reports whether every entry names exactly one address.
func (l *HostList) IsSingleAddrs() bool {
	if l == nil {
		return true
	}
	for _, p := range l.patterns {
		if p.Kind() != KindAddr {
			return false
		}
	}
	return true
}

// Prefixes returns the minimal set of CIDR blocks the list covers.
func (l *HostList) Prefixes() []netip.Prefix {
	if l == nil {
		return nil
	}
	return l.set.Prefixes()
}

// String joins the entries as the operator wrote them.
func (l *HostList) String() string {
	if l == nil {
		return ""
	}
	raw := make([]string, len(l.patterns))
	for i, p := range l.patterns {
		raw[i] = p.Raw()
	}
	return strings.Join(raw, ",")
}
