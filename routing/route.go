package routing

import (
	"bufio"
	"fmt"
	"io"
	"math/bits"
	"net/netip"
	"strconv"
	"strings"

	"go.uber.org/multierr"

	"github.com/RiV-chain/asconf/types"
)

// RouteType tells whether the destination is on-link or reached through a gateway.
type RouteType int

const (
	Direct RouteType = iota // H
	Remote                  // G
)

func (t RouteType) String() string {
	if t == Remote {
		return "remote"
	}
	return "direct"
}

type Interface struct {
	Name  string
	Index int
}

// Entry is one forwarding entry as parsed from a route record.
type Entry struct {
	Host      netip.Addr
	Gateway   netip.Addr
	Netmask   netip.Addr
	Type      RouteType
	Metric    int
	Interface *Interface
}

// Prefix returns the destination network, Host masked by Netmask.
func (e *Entry) Prefix() netip.Prefix {
	return netip.PrefixFrom(e.Host, maskBits(e.Netmask)).Masked()
}

type InterfaceTable interface {
	GetInterfaceByName(name string) (*Interface, bool)
}

type Table interface {
	AddRoute(e *Entry) error
}

// maskBits returns the prefix length of a contiguous netmask, or -1.
func maskBits(mask netip.Addr) int {
	raw := mask.AsSlice()
	ones := 0
	for idx, b := range raw {
		if b == 0xff {
			ones += 8
			continue
		}
		ones += bits.LeadingZeros8(^b)
		if b<<bits.LeadingZeros8(^b) != 0 {
			return -1
		}
		for _, rest := range raw[idx+1:] {
			if rest != 0 {
				return -1
			}
		}
		break
	}
	return ones
}

func parseAddr(field, value string) (netip.Addr, error) {
	addr, err := netip.ParseAddr(value)
	if err != nil {
		return netip.Addr{}, fmt.Errorf("%w: bad %s %q", types.ErrConfig, field, value)
	}
	return addr.Unmap(), nil
}

// Parse reads a route record: host, gateway, netmask, flag, metric and interface name,
// separated by whitespace. The interface is left unresolved.
func Parse(route string) (*Entry, string, error) {
	fields := strings.Fields(route)
	if len(fields) != 6 {
		return nil, "", fmt.Errorf("%w: route needs 6 fields, got %d", types.ErrConfig, len(fields))
	}
	var e Entry
	var err error
	if e.Host, err = parseAddr("host", fields[0]); err != nil {
		return nil, "", err
	}
	if e.Gateway, err = parseAddr("gateway", fields[1]); err != nil {
		return nil, "", err
	}
	if e.Netmask, err = parseAddr("netmask", fields[2]); err != nil {
		return nil, "", err
	}
	if e.Host.BitLen() != e.Gateway.BitLen() || e.Host.BitLen() != e.Netmask.BitLen() {
		return nil, "", fmt.Errorf("%w: mixed address families in route", types.ErrConfig)
	}
	if maskBits(e.Netmask) < 0 {
		return nil, "", fmt.Errorf("%w: netmask %s is not contiguous", types.ErrConfig, e.Netmask)
	}
	switch fields[3] {
	case "H":
		e.Type = Direct
	case "G":
		e.Type = Remote
	default:
		return nil, "", fmt.Errorf("%w: unknown route flag %q", types.ErrConfig, fields[3])
	}
	if e.Metric, err = strconv.Atoi(fields[4]); err != nil || e.Metric < 0 {
		return nil, "", fmt.Errorf("%w: bad metric %q", types.ErrConfig, fields[4])
	}
	return &e, fields[5], nil
}

// Install parses route and adds it to rt. Empty text installs nothing and is not an error.
// The named interface must exist in ift.
func Install(route string, ift InterfaceTable, rt Table) error {
	if strings.TrimSpace(route) == "" {
		return nil
	}
	e, name, err := Parse(route)
	if err != nil {
		return err
	}
	iface, ok := ift.GetInterfaceByName(name)
	if !ok {
		return fmt.Errorf("%w: 6th column should be an existing interface name, not %q", types.ErrConfig, name)
	}
	e.Interface = iface
	return rt.AddRoute(e)
}

// InstallAll installs one route per line of r. Blank lines and lines starting with # are
// skipped. A bad line does not stop the others; all errors are returned together.
func InstallAll(r io.Reader, ift InterfaceTable, rt Table) error {
	var errs error
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		if err := Install(text, ift, rt); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("line %d: %w", line, err))
		}
	}
	return multierr.Append(errs, scanner.Err())
}
