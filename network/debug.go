package network

import (
	"net/netip"

	"github.com/Arceliar/phony"
)

type Debug struct {
	c *core
}

func (d *Debug) init(c *core) {
	d.c = c
}

type DebugAsconfInfo struct {
	ID            string
	Closed        bool
	Outstanding   bool
	NextSerial    uint32
	PendingSerial uint32
	PendingChunk  []byte
	CorrelationID uint32
	Retransmits   int
	Primary       netip.Addr
	Local         []netip.Addr
	PeerPrimary   netip.Addr
	Peer          []netip.Addr
}

type DebugAuthInfo struct {
	Enabled     bool
	PeerEnabled bool
	SharedKey   []byte
	PeerChunks  []uint8
}

func (d *Debug) GetAsconf() (info DebugAsconfInfo) {
	phony.Block(&d.c.asconf, func() {
		s := &d.c.asconf
		info.ID = d.c.id
		info.Closed = s.closed
		info.Outstanding = s.outstanding
		info.NextSerial = s.serial
		if s.pending != nil {
			info.PendingSerial = s.pending.serial
			info.PendingChunk = append([]byte(nil), s.pending.chunk...)
		}
		info.CorrelationID = s.corrID
		info.Retransmits = s.retries
		info.Primary = s.localAddr
		info.Local = append(info.Local, s.local...)
		info.PeerPrimary = s.remoteAddr
		info.Peer = append(info.Peer, s.peer...)
	})
	return
}

func (d *Debug) GetAuth() (info DebugAuthInfo) {
	phony.Block(&d.c.asconf, func() {
		c := &d.c.crypto
		info.Enabled = c.authEnabled
		info.PeerEnabled = c.peerAuthEnabled
		info.SharedKey = append([]byte(nil), c.sharedKey...)
		for t, ok := c.peerChunks.NextSet(0); ok; t, ok = c.peerChunks.NextSet(t + 1) {
			info.PeerChunks = append(info.PeerChunks, uint8(t))
		}
	})
	return
}
