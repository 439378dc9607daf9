package types

import (
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScopeOf(t *testing.T) {
	for addr, want := range map[string]Scope{
		"0.0.0.0":         ScopeUnspecified,
		"::":              ScopeUnspecified,
		"224.0.0.1":       ScopeUnspecified,
		"127.0.0.1":       ScopeLoopback,
		"::1":             ScopeLoopback,
		"169.254.1.1":     ScopeLinkLocal,
		"fe80::1":         ScopeLinkLocal,
		"10.1.2.3":        ScopePrivate,
		"192.168.0.1":     ScopePrivate,
		"fd00::1":         ScopePrivate,
		"::ffff:10.0.0.1": ScopePrivate,
		"203.0.113.9":     ScopeGlobal,
		"2001:db8::1":     ScopeGlobal,
		"::ffff:8.8.8.8":  ScopeGlobal,
	} {
		assert.Equal(t, want, ScopeOf(netip.MustParseAddr(addr)), addr)
	}
	assert.Equal(t, ScopeUnspecified, ScopeOf(netip.Addr{}))
}

func TestBehindNAT(t *testing.T) {
	private := netip.MustParseAddr("10.0.0.1")
	global := netip.MustParseAddr("203.0.113.9")
	assert.True(t, BehindNAT(private, global))
	assert.False(t, BehindNAT(global, private))
	assert.False(t, BehindNAT(private, private))
	assert.False(t, BehindNAT(global, global))
	assert.True(t, Wildcard.IsUnspecified())
	assert.Equal(t, "global", ScopeGlobal.String())
}
