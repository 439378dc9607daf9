// Command asconfd runs one association over UDP and reconfigures its addresses.
package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/RiV-chain/asconf/config"
	ilog "github.com/RiV-chain/asconf/internal/logger"
	"github.com/RiV-chain/asconf/routing"
	"github.com/RiV-chain/asconf/types"
)

var logger = ilog.Logger("asconfd")

var (
	configFile  = flag.String("config", "", "configuration file (JSON)")
	operations  = flag.String("ops", "", "operations to request, e.g. \"1,3\" (overrides the file)")
	addAddress  = flag.String("add-address", "", "address or name the operations act on (overrides the file)")
	natFriendly = flag.Bool("nat-friendly", false, "advertise the wildcard address behind NAT")
	natNextPath = flag.Bool("nat-next-path", false, "send a NAT-friendly add over the next path")
	dryRoutes   = flag.Bool("dry-routes", false, "parse routes without touching the system table")
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func isFlagSet(name string) bool {
	set := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}

func loadConfig() (*config.Config, error) {
	if *configFile == "" {
		return nil, fmt.Errorf("%w: -config is required", types.ErrConfig)
	}
	cfg, err := config.Load(*configFile)
	if err != nil {
		return nil, err
	}
	if isFlagSet("ops") {
		cfg.Operations = *operations
	}
	if isFlagSet("add-address") {
		cfg.AddAddress = *addAddress
	}
	if isFlagSet("nat-friendly") {
		cfg.NATFriendly = *natFriendly
	}
	if isFlagSet("nat-next-path") {
		cfg.NATNextPath = *natNextPath
	}
	return cfg, cfg.Validate()
}

func hostInterfaces() []string {
	ifaces, err := net.Interfaces()
	if err != nil {
		logger.Warn("cannot list interfaces", "err", err)
		return nil
	}
	names := make([]string, 0, len(ifaces))
	for _, iface := range ifaces {
		names = append(names, iface.Name)
	}
	return names
}

func run() error {
	flag.Parse()
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	var ift routing.InterfaceTable
	var rt routing.Table
	if *dryRoutes || (len(cfg.Routes) == 0 && cfg.RouteFile == "") {
		ift, rt = routing.NewMemoryInterfaceTable(hostInterfaces()...), new(routing.MemoryTable)
	} else {
		sys, err := routing.NewSystemTable()
		if err != nil {
			return fmt.Errorf("routing table: %w", err)
		}
		defer sys.Close()
		ift, rt = sys, sys
	}

	app := newApp(cfg, ift, rt)
	if err := app.Err(); err != nil {
		return err
	}
	startCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := app.Start(startCtx); err != nil {
		return err
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	logger.Info("shutting down")

	stopCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return app.Stop(stopCtx)
}
