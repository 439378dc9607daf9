package types

import (
	"net/netip"
)

// Scope is the reachability tier of an address. Higher values are more widely routable.
type Scope int

const (
	ScopeUnspecified Scope = iota
	ScopeLoopback
	ScopeLinkLocal
	ScopePrivate
	ScopeGlobal
)

// Wildcard is advertised in place of a real address when the sender sits behind NAT.
var Wildcard = netip.IPv4Unspecified()

// ScopeOf returns the scope of addr. Unspecified, multicast and invalid addresses have no scope.
func ScopeOf(addr netip.Addr) Scope {
	addr = addr.Unmap()
	switch {
	case !addr.IsValid(), addr.IsUnspecified(), addr.IsMulticast():
		return ScopeUnspecified
	case addr.IsLoopback():
		return ScopeLoopback
	case addr.IsLinkLocalUnicast():
		return ScopeLinkLocal
	case addr.IsPrivate():
		return ScopePrivate
	case addr.IsGlobalUnicast():
		return ScopeGlobal
	default:
		return ScopeUnspecified
	}
}

func (s Scope) String() string {
	switch s {
	case ScopeLoopback:
		return "loopback"
	case ScopeLinkLocal:
		return "link-local"
	case ScopePrivate:
		return "private"
	case ScopeGlobal:
		return "global"
	default:
		return "unspecified"
	}
}

// BehindNAT reports whether a private local address talks to a global remote one.
func BehindNAT(local, remote netip.Addr) bool {
	return ScopeOf(local) == ScopePrivate && ScopeOf(remote) == ScopeGlobal
}
