package udp

import (
	"net/netip"
)

type Debug struct {
	pc *PacketConn
}

func (d *Debug) init(pc *PacketConn) {
	d.pc = pc
}

type DebugTrafficInfo struct {
	Paths   []netip.Addr
	RX      uint64
	TX      uint64
	RXBytes uint64
	TXBytes uint64
}

func (d *Debug) GetTraffic() (info DebugTrafficInfo) {
	d.pc.pathsMutex.RLock()
	info.Paths = append(info.Paths, d.pc.paths...)
	d.pc.pathsMutex.RUnlock()
	info.RX, info.TX = d.pc.rx.Load(), d.pc.tx.Load()
	info.RXBytes, info.TXBytes = d.pc.rxBytes.Load(), d.pc.txBytes.Load()
	return
}
