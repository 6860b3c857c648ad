// Package hostlist parses and matches the comma-separated host lists used to
// decide which remote addresses may reach the admin interface.
//
// An entry is an IPv4 literal, an IPv6 literal, a CIDR block of either family,
// or the wildcard "*". A list that contains the wildcard matches every remote
// address, which turns the list into "open to anyone".
package hostlist

import (
	"errors"
	"fmt"
	"net/netip"
	"strings"
)

// Wildcard is the entry that matches any address.
const Wildcard = "*"

// ErrInvalidHost is matched by every error returned from ParsePattern and Parse.
var ErrInvalidHost = errors.New("invalid host")

// InvalidHostError identifies the entry that failed validation.
type InvalidHostError struct {
	Entry  string
	Reason string
}

// Error implements the error interface.
func (e *InvalidHostError) Error() string {
	return fmt.Sprintf("invalid host %q: %s", e.Entry, e.Reason)
}

// Is reports whether target is ErrInvalidHost.
func (e *InvalidHostError) Is(target error) bool {
	return target == ErrInvalidHost
}

// Kind is the shape of a Pattern.
type Kind int

const (
	KindAddr Kind = iota
	KindPrefix
	KindWildcard
)

// Pattern is a validated host entry. The zero value is not valid; use
// ParsePattern.
type Pattern struct {
	raw    string
	kind   Kind
	addr   netip.Addr
	prefix netip.Prefix
}

// ParsePattern validates a single host entry.
func ParsePattern(text string) (Pattern, error) {
	if text == "" {
		return Pattern{}, &InvalidHostError{Entry: text, Reason: "empty entry"}
	}
	if text == Wildcard {
		return Pattern{raw: text, kind: KindWildcard}, nil
	}
	for i := 0; i < len(text); i++ {
		if !isAddrByte(text[i]) {
			return Pattern{}, &InvalidHostError{
				Entry:  text,
				Reason: fmt.Sprintf("illegal character %q", text[i]),
			}
		}
	}

	if strings.Contains(text, "/") {
		prefix, err := netip.ParsePrefix(text)
		if err != nil {
			return Pattern{}, &InvalidHostError{Entry: text, Reason: "not a valid CIDR block"}
		}
		return Pattern{raw: text, kind: KindPrefix, prefix: unmapPrefix(prefix).Masked()}, nil
	}

	addr, err := netip.ParseAddr(text)
	if err != nil {
		return Pattern{}, &InvalidHostError{Entry: text, Reason: "not a valid IP address"}
	}
	return Pattern{raw: text, kind: KindAddr, addr: addr.Unmap()}, nil
}

// isAddrByte reports whether b may appear in an IPv4/IPv6 literal or CIDR block.
func isAddrByte(b byte) bool {
	switch {
	case b >= '0' && b <= '9':
		return true
	case b >= 'a' && b <= 'f', b >= 'A' && b <= 'F':
		return true
	case b == '.', b == ':', b == '/':
		return true
	}
	return false
}

// unmapPrefix rewrites an IPv4-mapped IPv6 prefix that lies wholly inside
// ::ffff:0:0/96 to the equivalent IPv4 prefix.
func unmapPrefix(p netip.Prefix) netip.Prefix {
	if p.Addr().Is4In6() && p.Bits() >= 96 {
		return netip.PrefixFrom(p.Addr().Unmap(), p.Bits()-96)
	}
	return p
}

// Kind returns the shape of the pattern.
func (p Pattern) Kind() Kind { return p.kind }

// Raw returns the entry as the operator wrote it.
func (p Pattern) Raw() string { return p.raw }

// Addr returns the address of a KindAddr pattern.
func (p Pattern) Addr() netip.Addr { return p.addr }

// Prefix returns the block covered by the pattern. Single addresses are
// returned as full-length prefixes; the wildcard has no prefix.
func (p Pattern) Prefix() netip.Prefix {
	switch p.kind {
	case KindAddr:
		return netip.PrefixFrom(p.addr, p.addr.BitLen())
	case KindPrefix:
		return p.prefix
	}
	return netip.Prefix{}
}

// String returns the canonical form of the pattern.
func (p Pattern) String() string {
	switch p.kind {
	case KindAddr:
		return p.addr.String()
	case KindPrefix:
		return p.prefix.String()
	case KindWildcard:
		return Wildcard
	}
	return ""
}
