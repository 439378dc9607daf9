package main

import (
	"context"
	"net"
	"net/netip"
	"os"
	"strconv"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/RiV-chain/asconf/config"
	"github.com/RiV-chain/asconf/internal/resolve"
	"github.com/RiV-chain/asconf/network"
	"github.com/RiV-chain/asconf/routing"
	"github.com/RiV-chain/asconf/udp"
)

type endpoints struct {
	local   netip.Addr
	remotes []netip.Addr
}

// newApp wires the daemon. ift and rt receive the configured routes.
func newApp(cfg *config.Config, ift routing.InterfaceTable, rt routing.Table, extra ...fx.Option) *fx.App {
	opts := []fx.Option{
		fx.Supply(cfg),
		fx.Provide(
			func() routing.InterfaceTable { return ift },
			func() routing.Table { return rt },
			newResolver,
			newEndpoints,
			newPacketConn,
			newAssociation,
		),
		fx.Invoke(installRoutes, startAssociation),
		fx.WithLogger(func() fxevent.Logger {
			return &fxevent.ZapLogger{Logger: zap.NewNop()}
		}),
	}
	return fx.New(append(opts, extra...)...)
}

func newResolver(cfg *config.Config) *resolve.Resolver {
	return resolve.New(cfg.NameServers...)
}

func newEndpoints(cfg *config.Config, r *resolve.Resolver) (*endpoints, error) {
	local, remotes, err := cfg.Endpoints(context.Background(), r)
	if err != nil {
		return nil, err
	}
	return &endpoints{local: local, remotes: remotes}, nil
}

func newPacketConn(lc fx.Lifecycle, cfg *config.Config, ep *endpoints) (*udp.PacketConn, error) {
	conn, err := net.ListenPacket("udp", net.JoinHostPort(ep.local.String(), strconv.Itoa(int(cfg.LocalPort))))
	if err != nil {
		return nil, err
	}
	pc, err := udp.NewPacketConn(conn, cfg.RemotePort, ep.remotes)
	if err != nil {
		conn.Close()
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return pc.Close()
		},
	})
	return pc, nil
}

func newAssociation(lc fx.Lifecycle, cfg *config.Config, ep *endpoints, pc *udp.PacketConn, r *resolve.Resolver) (*network.Association, error) {
	opts, err := cfg.Options(context.Background(), r)
	if err != nil {
		return nil, err
	}
	peerVector, peerChunks, err := cfg.PeerAuth()
	if err != nil {
		return nil, err
	}
	opts = append(opts,
		network.WithPeerAddressesNotify(pc.SetPaths),
		network.WithAckNotify(func(serial uint32, outcomes []network.Outcome) {
			for _, out := range outcomes {
				logger.Info("reconfiguration answered",
					"serial", serial, "op", out.Operation, "addr", out.Address, "ok", out.Success, "causes", out.Causes)
			}
		}),
		network.WithFailureNotify(func(err error) {
			logger.Error("reconfiguration failed", "err", err)
		}),
	)
	assoc, err := network.NewAssociation(ep.local, ep.remotes[0], pc, opts...)
	if err != nil {
		return nil, err
	}
	if peerVector != nil {
		if err := assoc.EnableAuth(peerVector, peerChunks); err != nil {
			assoc.Close()
			return nil, err
		}
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return assoc.Close()
		},
	})
	return assoc, nil
}

func installRoutes(cfg *config.Config, ift routing.InterfaceTable, rt routing.Table) error {
	var errs error
	for _, route := range cfg.Routes {
		errs = multierr.Append(errs, routing.Install(route, ift, rt))
	}
	if cfg.RouteFile != "" {
		f, err := os.Open(cfg.RouteFile)
		if err != nil {
			return multierr.Append(errs, err)
		}
		defer f.Close()
		errs = multierr.Append(errs, routing.InstallAll(f, ift, rt))
	}
	return errs
}

func startAssociation(lc fx.Lifecycle, cfg *config.Config, pc *udp.PacketConn, assoc *network.Association) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			pc.Serve(assoc.HandleMessage)
			logger.Info("association up", "id", assoc.ID(), "local", pc.LocalAddr(), "paths", pc.Debug.GetTraffic().Paths)
			if ops := cfg.Ops(); len(ops) > 0 {
				assoc.RequestReconfiguration(ops, !cfg.NATNextPath)
			}
			return nil
		},
	})
}
