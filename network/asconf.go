package network

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"net/netip"
	"slices"
	"time"

	"github.com/Arceliar/phony"
	"github.com/benbjohnson/clock"
	"golang.org/x/crypto/cryptobyte"

	"github.com/RiV-chain/asconf/types"
)

/***********
 * asconf *
 ***********/

// Outcome reports how the peer answered one parameter of an acknowledged request.
type Outcome struct {
	CorrelationID uint32
	Operation     types.Operation
	Address       netip.Addr
	Success       bool
	Causes        []uint16
}

// pendingAsconf is the request in flight. chunk holds the encoded bytes that were sent and
// is never modified, so a retransmission is byte-identical to the original.
type pendingAsconf struct {
	serial uint32
	chunk  []byte
	params asconfChunk
	target netip.Addr
}

type asconf struct {
	phony.Inbox
	core        *core
	localAddr   netip.Addr   // primary local address
	remoteAddr  netip.Addr   // primary remote address
	local       []netip.Addr // addresses bound to the association
	peer        []netip.Addr // addresses the peer has added to the association
	serial      uint32       // serial number of the next request
	corrID      uint32       // last correlation id handed out
	outstanding bool
	pending     *pendingAsconf
	timer       *clock.Timer
	rto         time.Duration
	retries     int
	peerSerial  uint32 // serial of the last request accepted from the peer
	peerSeen    bool
	lastAck     []byte // encoded answer to peerSerial, resent on duplicates
	closed      bool
}

func (s *asconf) init(c *core, local, remote netip.Addr) {
	s.core = c
	s.localAddr = local
	s.remoteAddr = remote
	s.local = []netip.Addr{local}
	s.peer = []netip.Addr{remote}
	s.serial = c.config.initialSerial
	s.rto = c.config.rto
}

func randomUint32() uint32 {
	bs := make([]byte, 4)
	crand.Read(bs) // If there's an error, there's not much to do...
	return binary.BigEndian.Uint32(bs)
}

func (s *asconf) request(from phony.Actor, ops []types.Operation, remote bool) {
	ops = slices.Clone(ops)
	s.Act(from, func() {
		s._request(ops, remote)
	})
}

func (s *asconf) _request(ops []types.Operation, remote bool) {
	cfg := &s.core.config
	switch {
	case s.closed:
		return
	case s.outstanding:
		// Only one request may be in flight, the caller retries later
		cfg.logger.Debug("asconf outstanding, request deferred",
			"serial", s.pending.serial, "ops", types.FormatOperations(ops))
		return
	case len(ops) == 0:
		return
	case !cfg.addAddress.IsValid():
		cfg.logger.Error("asconf request without a configured address", "ops", types.FormatOperations(ops))
		return
	}
	for _, op := range ops {
		if !op.Valid() {
			cfg.logger.Error("asconf request with unknown operation", "op", op)
			return
		}
	}
	nat := cfg.natFriendly && types.BehindNAT(s.localAddr, s.remoteAddr)
	chunk := asconfChunk{serial: s.serial, addr: s.localAddr}
	if nat {
		chunk.addr = types.Wildcard
	}
	dest := s.remoteAddr
	for _, op := range ops {
		s.corrID++
		p := newRequestParam(op, s.corrID, cfg.addAddress)
		switch op {
		case types.OpAddAddress:
			if nat {
				p.addr = types.Wildcard
				if !remote {
					dest = s.core.host.GetNextAddress(s.core.host.GetPath(s.remoteAddr))
				}
			}
		case types.OpSetPrimaryAddress:
			if nat {
				p.addr = types.Wildcard
			}
		}
		chunk.params = append(chunk.params, p)
	}
	bs, err := chunk.encode(nil)
	if err != nil {
		cfg.logger.Error("failed to encode asconf", "err", err)
		return
	}
	s.serial++
	s.pending = &pendingAsconf{
		serial: chunk.serial,
		chunk:  bs,
		params: chunk,
		target: cfg.addAddress,
	}
	s.outstanding = true
	s.retries = 0
	s.rto = cfg.rto
	cfg.logger.Debug("sending asconf",
		"serial", chunk.serial, "ops", types.FormatOperations(ops), "nat", nat, "dest", dest)
	s._send(bs, dest)
	s._startTimer()
}

func (s *asconf) _send(chunk []byte, dest netip.Addr) {
	msg, err := s.core.wrap(chunk)
	if err != nil {
		s.core.config.logger.Error("failed to build message", "err", err)
		return
	}
	if err := s.core.host.SendToIP(msg, dest); err != nil {
		// The retransmission timer takes care of it
		s.core.config.logger.Warn("send failed", "dest", dest, "err", err)
	}
}

func (s *asconf) _startTimer() {
	s._stopTimer()
	var timer *clock.Timer
	timer = s.core.config.clock.AfterFunc(s.rto, func() {
		s.Act(nil, func() {
			if s.timer == timer {
				s.timer = nil
				s._retransmit()
			}
		})
	})
	s.timer = timer
}

func (s *asconf) _stopTimer() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *asconf) retransmit(from phony.Actor) {
	s.Act(from, s._retransmit)
}

func (s *asconf) _retransmit() {
	if s.closed || !s.outstanding {
		return
	}
	cfg := &s.core.config
	s.retries++
	if s.retries > cfg.maxRetransmits {
		serial := s.pending.serial
		s._reset()
		cfg.logger.Warn("asconf retransmissions exhausted", "serial", serial, "max", cfg.maxRetransmits)
		cfg.failureNotify(fmt.Errorf("%w: serial %d", types.ErrRetransmitsExhausted, serial))
		return
	}
	s.rto *= 2
	if s.rto > cfg.maxRTO {
		s.rto = cfg.maxRTO
	}
	cfg.logger.Debug("retransmitting asconf", "serial", s.pending.serial, "attempt", s.retries)
	s._send(s.pending.chunk, s.remoteAddr)
	s._startTimer()
}

func (s *asconf) _reset() {
	s._stopTimer()
	s.outstanding = false
	s.pending = nil
	s.retries = 0
	s.rto = s.core.config.rto
}

func (s *asconf) _handleAck(ack *asconfAckChunk) {
	cfg := &s.core.config
	if !s.outstanding || ack.serial != s.pending.serial {
		cfg.logger.Debug("discarding stale asconf-ack", "serial", ack.serial)
		return
	}
	pending := s.pending
	answers := make(map[uint32]*asconfParam, len(ack.outcomes))
	for idx := range ack.outcomes {
		res := &ack.outcomes[idx]
		if pending.params.find(res.corrID) == nil {
			cfg.logger.Debug("asconf-ack for unknown correlation id", "serial", ack.serial, "corr", res.corrID)
			continue
		}
		answers[res.corrID] = res
	}
	// Commit in request order so a set-primary sees the address added before it.
	outcomes := make([]Outcome, 0, len(answers))
	for idx := range pending.params.params {
		req := &pending.params.params[idx]
		res, ok := answers[req.corrID]
		if !ok {
			continue
		}
		out := Outcome{
			CorrelationID: req.corrID,
			Operation:     req.operation(),
			Address:       pending.target,
			Success:       res.kind == wireParamSuccess,
		}
		if out.Success {
			s._commit(out.Operation, out.Address)
		} else {
			for _, c := range res.causes {
				out.Causes = append(out.Causes, c.code)
			}
			cfg.logger.Info("asconf parameter refused",
				"op", out.Operation, "addr", out.Address, "causes", out.Causes)
		}
		outcomes = append(outcomes, out)
	}
	s._reset()
	cfg.ackNotify(pending.serial, outcomes)
}

func (s *asconf) _commit(op types.Operation, addr netip.Addr) {
	switch op {
	case types.OpAddAddress:
		if !slices.Contains(s.local, addr) {
			s.local = append(s.local, addr)
		}
	case types.OpDeleteAddress:
		if idx := slices.Index(s.local, addr); idx >= 0 {
			s.local = slices.Delete(s.local, idx, idx+1)
		}
		if s.localAddr == addr && len(s.local) > 0 {
			s.localAddr = s.local[0]
		}
	case types.OpSetPrimaryAddress:
		if slices.Contains(s.local, addr) {
			s.localAddr = addr
		}
	}
}

// buildAcknowledgment answers a request with a success indication for each correlation id.
// The serial number is the peer's and is echoed unchanged.
func buildAcknowledgment(serial uint32, corrIDs []uint32) asconfAckChunk {
	ack := asconfAckChunk{serial: serial}
	for _, id := range corrIDs {
		ack.outcomes = append(ack.outcomes, newSuccessParam(id))
	}
	return ack
}

func addrParamBytes(addr netip.Addr) []byte {
	b := cryptobyte.NewBuilder(nil)
	wireAppendAddr(b, addr)
	return b.BytesOrPanic()
}

func (s *asconf) _handleAsconf(from netip.Addr, req *asconfChunk) {
	cfg := &s.core.config
	switch {
	case !s.peerSeen || req.serial == s.peerSerial+1:
	case req.serial == s.peerSerial && s.lastAck != nil:
		// Our answer got lost
		s._send(s.lastAck, from)
		return
	default:
		cfg.logger.Debug("discarding out of sequence asconf", "serial", req.serial, "expected", s.peerSerial+1)
		return
	}
	// Outcomes follow the order of the request parameters.
	ack := asconfAckChunk{serial: req.serial}
	var refused int
	var changed bool
	refuse := func(p asconfParam) {
		ack.outcomes = append(ack.outcomes, p)
		refused++
	}
	for idx := range req.params {
		p := &req.params[idx]
		addr := p.addr
		if addr.IsUnspecified() {
			addr = from
		}
		switch p.kind {
		case wireParamAddIP:
			if !slices.Contains(s.peer, addr) {
				if len(s.peer) >= cfg.maxPeerAddrs {
					refuse(newErrorParam(p.corrID, errorCause{code: causeResourceShortage}))
					continue
				}
				s.peer = append(s.peer, addr)
				changed = true
			}
		case wireParamDeleteIP:
			pos := slices.Index(s.peer, addr)
			switch {
			case addr == from:
				refuse(newErrorParam(p.corrID,
					errorCause{code: causeDeleteSourceAddress, info: addrParamBytes(addr)}))
				continue
			case pos >= 0 && len(s.peer) == 1:
				refuse(newErrorParam(p.corrID,
					errorCause{code: causeDeleteLastAddress, info: addrParamBytes(addr)}))
				continue
			case pos >= 0:
				s.peer = slices.Delete(s.peer, pos, pos+1)
				if s.remoteAddr == addr {
					s.remoteAddr = s.peer[0]
				}
				changed = true
			}
		case wireParamSetPrimary:
			if !slices.Contains(s.peer, addr) {
				refuse(newErrorParam(p.corrID,
					errorCause{code: causeUnresolvableAddress, info: addrParamBytes(addr)}))
				continue
			}
			s.remoteAddr = addr
		}
		ack.outcomes = append(ack.outcomes, newSuccessParam(p.corrID))
	}
	bs, err := ack.encode(nil)
	if err != nil {
		cfg.logger.Error("failed to encode asconf-ack", "err", err)
		return
	}
	s.peerSeen = true
	s.peerSerial = req.serial
	s.lastAck = bs
	cfg.logger.Debug("answering asconf", "serial", req.serial, "ok", len(ack.outcomes)-refused, "refused", refused)
	s._send(bs, from)
	if changed {
		cfg.peerAddrsNotify(slices.Clone(s.peer))
	}
}

func (s *asconf) handleMessage(from phony.Actor, src netip.Addr, data []byte) {
	s.Act(from, func() {
		s._handleMessage(src.Unmap(), data)
	})
}

func (s *asconf) _handleMessage(src netip.Addr, data []byte) {
	cfg := &s.core.config
	if s.closed {
		return
	}
	msg, err := decodeMessage(data)
	if err != nil {
		cfg.logger.Debug("dropping malformed message", "from", src, "err", err)
		return
	}
	if cfg.localTag != 0 && msg.tag != cfg.localTag {
		cfg.logger.Debug("dropping message with wrong verification tag", "from", src, "tag", msg.tag)
		return
	}
	var authed bool
	for _, ch := range msg.chunks {
		switch ch.typ {
		case wireChunkAuth:
			var auth authChunk
			if err := auth.decode(ch.body); err == nil && auth.hmacOK {
				authed = true
			}
		case wireChunkAsconf, wireChunkAsconfAck:
			if s.core.crypto.required() && s.core.crypto.typeInChunkList(ch.typ) && !authed {
				cfg.logger.Debug("dropping unauthenticated chunk", "from", src, "type", ch.typ)
				continue
			}
			if ch.typ == wireChunkAsconf {
				var req asconfChunk
				if err := req.decode(ch.body); err != nil {
					cfg.logger.Debug("dropping malformed asconf", "from", src, "err", err)
					continue
				}
				s._handleAsconf(src, &req)
			} else {
				var ack asconfAckChunk
				if err := ack.decode(ch.body); err != nil {
					cfg.logger.Debug("dropping malformed asconf-ack", "from", src, "err", err)
					continue
				}
				s._handleAck(&ack)
			}
		default:
			// Not ours to handle
		}
	}
}

func (s *asconf) _shutdown() {
	if s.closed {
		return
	}
	s._reset()
	s.lastAck = nil
	s.closed = true
}
