package udp

import (
	"log/slog"
	"net"
	"net/netip"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/RiV-chain/asconf/internal/logger"
	"github.com/RiV-chain/asconf/network"
	"github.com/RiV-chain/asconf/types"
)

// PacketConn carries association messages over a UDP socket, one message per datagram.
// It implements network.Host; every remote path shares the same UDP port.
type PacketConn struct {
	conn       net.PacketConn
	remotePort uint16
	logger     *slog.Logger
	pathsMutex sync.RWMutex
	paths      []netip.Addr
	network    netManager
	closing    atomic.Bool
	rx, tx     atomic.Uint64
	rxBytes    atomic.Uint64
	txBytes    atomic.Uint64
	Debug      Debug
}

type Option func(*PacketConn)

func WithLogger(l *slog.Logger) Option {
	return func(pc *PacketConn) {
		pc.logger = l
	}
}

// NewPacketConn wraps conn. paths are the peer's transport addresses, primary first.
func NewPacketConn(conn net.PacketConn, remotePort uint16, paths []netip.Addr, opts ...Option) (*PacketConn, error) {
	if len(paths) == 0 {
		return nil, types.ErrBadAddress
	}
	pc := &PacketConn{
		conn:       conn,
		remotePort: remotePort,
		logger:     logger.Logger("udp"),
	}
	for _, opt := range opts {
		opt(pc)
	}
	pc.SetPaths(paths)
	pc.network.init(pc)
	pc.Debug.init(pc)
	return pc, nil
}

// Serve starts delivering received datagrams to handler. Delivery happens from a single
// goroutine, in arrival order. Calling Serve again while running has no effect.
func (pc *PacketConn) Serve(handler func(src netip.Addr, data []byte)) {
	pc.network.serve(handler)
}

// Done is closed once the read loop has stopped.
func (pc *PacketConn) Done() <-chan struct{} {
	return pc.network.done
}

func (pc *PacketConn) SendToIP(msg []byte, dest netip.Addr) error {
	if pc.closing.Load() {
		return types.ErrClosed
	}
	to := net.UDPAddrFromAddrPort(netip.AddrPortFrom(dest.Unmap(), pc.remotePort))
	n, err := pc.conn.WriteTo(msg, to)
	if err != nil {
		return err
	}
	pc.tx.Add(1)
	pc.txBytes.Add(uint64(n))
	return nil
}

func (pc *PacketConn) GetPath(addr netip.Addr) network.Path {
	addr = addr.Unmap()
	pc.pathsMutex.RLock()
	defer pc.pathsMutex.RUnlock()
	return network.Path{Index: slices.Index(pc.paths, addr), Remote: addr}
}

// GetNextAddress returns the path after path, wrapping around. An unknown path maps to the
// primary address.
func (pc *PacketConn) GetNextAddress(path network.Path) netip.Addr {
	pc.pathsMutex.RLock()
	defer pc.pathsMutex.RUnlock()
	if path.Index < 0 || path.Index >= len(pc.paths) {
		return pc.paths[0]
	}
	return pc.paths[(path.Index+1)%len(pc.paths)]
}

// SetPaths replaces the peer's transport addresses. It is suitable as a peer address
// notification callback. An empty list is ignored.
func (pc *PacketConn) SetPaths(paths []netip.Addr) {
	if len(paths) == 0 {
		return
	}
	unmapped := make([]netip.Addr, 0, len(paths))
	for _, p := range paths {
		unmapped = append(unmapped, p.Unmap())
	}
	pc.pathsMutex.Lock()
	pc.paths = unmapped
	pc.pathsMutex.Unlock()
	pc.logger.Debug("paths updated", "paths", unmapped)
}

func (pc *PacketConn) LocalAddr() net.Addr {
	return pc.conn.LocalAddr()
}

func (pc *PacketConn) IsClosed() bool {
	return pc.closing.Load()
}

func (pc *PacketConn) Close() error {
	if pc.closing.Swap(true) {
		return types.ErrClosed
	}
	return pc.conn.Close()
}
