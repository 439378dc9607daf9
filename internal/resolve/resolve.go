// Package resolve turns the configured address-or-name into an address.
package resolve

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/netip"
	"time"

	"github.com/miekg/dns"
	"go.uber.org/multierr"

	"github.com/RiV-chain/asconf/internal/logger"
	"github.com/RiV-chain/asconf/types"
)

const defaultResolvConf = "/etc/resolv.conf"

var (
	errNoAnswer  = errors.New("no address in answer")
	errNoServers = errors.New("no name servers")
)

type Resolver struct {
	client  *dns.Client
	servers []string // host:port
	logger  *slog.Logger
}

// New returns a resolver that asks servers in order. With no servers, the ones listed in
// /etc/resolv.conf are used.
func New(servers ...string) *Resolver {
	r := &Resolver{
		client:  &dns.Client{Timeout: 2 * time.Second},
		servers: servers,
		logger:  logger.Logger("resolve"),
	}
	if len(r.servers) == 0 {
		if cfg, err := dns.ClientConfigFromFile(defaultResolvConf); err == nil {
			for _, s := range cfg.Servers {
				r.servers = append(r.servers, net.JoinHostPort(s, cfg.Port))
			}
		} else {
			r.logger.Warn("no name servers", "file", defaultResolvConf, "err", err)
		}
	}
	return r
}

// Resolve returns addr itself if it is an address literal, and otherwise its first A record,
// falling back to AAAA.
func (r *Resolver) Resolve(ctx context.Context, name string) (netip.Addr, error) {
	if addr, err := netip.ParseAddr(name); err == nil {
		return addr.Unmap(), nil
	}
	if len(r.servers) == 0 {
		return netip.Addr{}, fmt.Errorf("%w: cannot resolve %q: %w", types.ErrConfig, name, errNoServers)
	}
	var errs error
	for _, qtype := range []uint16{dns.TypeA, dns.TypeAAAA} {
		for _, server := range r.servers {
			addr, err := r.query(ctx, server, name, qtype)
			if err == nil {
				r.logger.Debug("resolved", "name", name, "addr", addr, "server", server)
				return addr, nil
			}
			errs = multierr.Append(errs, err)
		}
	}
	return netip.Addr{}, fmt.Errorf("%w: cannot resolve %q: %w", types.ErrConfig, name, errs)
}

func (r *Resolver) query(ctx context.Context, server, name string, qtype uint16) (netip.Addr, error) {
	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(name), qtype)
	resp, _, err := r.client.ExchangeContext(ctx, msg, server)
	if err != nil {
		return netip.Addr{}, err
	}
	if resp.Rcode != dns.RcodeSuccess {
		return netip.Addr{}, fmt.Errorf("%s: %s", server, dns.RcodeToString[resp.Rcode])
	}
	for _, rr := range resp.Answer {
		var ip net.IP
		switch rec := rr.(type) {
		case *dns.A:
			ip = rec.A
		case *dns.AAAA:
			ip = rec.AAAA
		default:
			continue
		}
		if addr, ok := netip.AddrFromSlice(ip); ok {
			return addr.Unmap(), nil
		}
	}
	return netip.Addr{}, fmt.Errorf("%s: %w", server, errNoAnswer)
}
