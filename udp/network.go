package udp

import (
	"net"
	"net/netip"

	"github.com/Arceliar/phony"
)

const netBufferSize = 64 * 1024

type netManager struct {
	phony.Inbox
	pc      *PacketConn
	done    chan struct{}
	running bool
	stopped bool
}

func (m *netManager) init(pc *PacketConn) {
	m.pc = pc
	m.done = make(chan struct{})
}

func srcAddr(from net.Addr) (netip.Addr, bool) {
	ua, ok := from.(*net.UDPAddr)
	if !ok {
		return netip.Addr{}, false
	}
	ap := ua.AddrPort()
	return ap.Addr().Unmap(), ap.Addr().IsValid()
}

func (m *netManager) serve(handler func(src netip.Addr, data []byte)) {
	m.Act(nil, func() {
		if m.running || m.stopped {
			return
		}
		m.running = true
		buf := make([]byte, netBufferSize)
		var rl func()
		rl = func() {
			n, from, err := m.pc.conn.ReadFrom(buf)
			if err != nil {
				// Exit the loop
				m.running = false
				m.stopped = true
				if !m.pc.IsClosed() {
					m.pc.logger.Warn("read loop stopped", "err", err)
				}
				close(m.done)
				return
			}
			if src, ok := srcAddr(from); ok {
				m.pc.rx.Add(1)
				m.pc.rxBytes.Add(uint64(n))
				handler(src, append([]byte(nil), buf[:n]...))
			} else {
				m.pc.logger.Debug("dropping datagram from unexpected address", "from", from)
			}
			m.Act(nil, rl) // continue to loop
		}
		m.Act(nil, rl) // start the loop
	})
}
