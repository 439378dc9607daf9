//go:build linux

package routing

import (
	"fmt"
	"net"

	"github.com/vishvananda/netlink"
)

// SystemTable installs routes into the kernel's main table and looks up interfaces by
// link name.
type SystemTable struct {
	handle *netlink.Handle
}

func NewSystemTable() (*SystemTable, error) {
	h, err := netlink.NewHandle()
	if err != nil {
		return nil, fmt.Errorf("netlink handle: %w", err)
	}
	return &SystemTable{handle: h}, nil
}

func (t *SystemTable) GetInterfaceByName(name string) (*Interface, bool) {
	link, err := t.handle.LinkByName(name)
	if err != nil {
		return nil, false
	}
	return &Interface{Name: name, Index: link.Attrs().Index}, true
}

func (t *SystemTable) AddRoute(e *Entry) error {
	return t.handle.RouteAdd(netlinkRoute(e))
}

func netlinkRoute(e *Entry) *netlink.Route {
	p := e.Prefix()
	r := &netlink.Route{
		Dst:      &net.IPNet{IP: p.Addr().AsSlice(), Mask: net.CIDRMask(p.Bits(), p.Addr().BitLen())},
		Priority: e.Metric,
	}
	if e.Interface != nil {
		r.LinkIndex = e.Interface.Index
	}
	if e.Type == Direct {
		r.Scope = netlink.SCOPE_LINK
	} else {
		r.Gw = e.Gateway.AsSlice()
	}
	return r
}

func (t *SystemTable) Close() {
	t.handle.Close()
}
