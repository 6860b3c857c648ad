package access

import (
	"net/netip"

	"github.com/bcnelson/winterface/internal/hostlist"
)

// Filter classifies remote addresses against a Configuration. It reads the
// current host lists on every call and keeps no state of its own, so it is
// safe for concurrent use and never blocks.
type Filter struct {
	cfg *Configuration
}

// NewFilter creates a Filter backed by cfg.
func NewFilter(cfg *Configuration) *Filter {
	return &Filter{cfg: cfg}
}

// Classify returns the tier for addr: full access first, then restricted,
// otherwise Denied. Public gateway mode plays no part here.
func (f *Filter) Classify(addr netip.Addr) Tier {
	if !addr.IsValid() {
		return Denied
	}
	if f.cfg.FullAccessHosts().Contains(addr) {
		return FullAccess
	}
	if f.cfg.AllowedHosts().Contains(addr) {
		return RestrictedAccess
	}
	return Denied
}

// ClassifyRemote classifies an "ip:port" peer address as found in
// http.Request.RemoteAddr. Unparsable addresses are Denied.
func (f *Filter) ClassifyRemote(remoteAddr string) Tier {
	addr, ok := hostlist.ParseRemoteAddr(remoteAddr)
	if !ok {
		return Denied
	}
	return f.Classify(addr)
}
