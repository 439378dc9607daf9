package network

import (
	"net/netip"

	"github.com/Arceliar/phony"

	"github.com/RiV-chain/asconf/types"
)

// Association carries the address reconfiguration and authentication state of one
// association. All state is owned by a single actor, so methods are safe for concurrent
// use and never block on the network.
type Association struct {
	core  *core
	Debug Debug
}

// NewAssociation returns an association between the primary local and remote addresses.
// Messages are handed to host for delivery.
func NewAssociation(local, remote netip.Addr, host Host, opts ...Option) (*Association, error) {
	a := &Association{core: new(core)}
	if err := a.core.init(local, remote, host, opts...); err != nil {
		return nil, err
	}
	a.Debug.init(a.core)
	return a, nil
}

func (a *Association) ID() string {
	return a.core.id
}

// EnableAuth completes the authentication capability exchange with the peer's random
// vector and chunk list. It can only succeed once.
func (a *Association) EnableAuth(peerKeyVector []byte, peerChunks []uint8) (err error) {
	phony.Block(&a.core.asconf, func() {
		err = a.core.crypto.negotiate(peerKeyVector, peerChunks)
	})
	return
}

// RequestReconfiguration sends one ASCONF carrying ops, in order, for the configured
// address. It does nothing while an earlier request is unacknowledged; callers retry later.
// With NAT-friendly addressing, remote selects whether an add request goes to the primary
// remote address or to the next path.
func (a *Association) RequestReconfiguration(ops []types.Operation, remote bool) {
	a.core.asconf.request(nil, ops, remote)
}

// Retransmit resends the outstanding request, if any.
func (a *Association) Retransmit() {
	a.core.asconf.retransmit(nil)
}

// HandleMessage processes a message received from src.
func (a *Association) HandleMessage(src netip.Addr, data []byte) {
	a.core.asconf.handleMessage(nil, src, append([]byte(nil), data...))
}

// LocalAddrs returns the local addresses bound to the association, in the order they
// were added.
func (a *Association) LocalAddrs() (addrs []netip.Addr) {
	phony.Block(&a.core.asconf, func() {
		addrs = append(addrs, a.core.asconf.local...)
	})
	return
}

// PeerAddrs returns the peer's addresses known to the association.
func (a *Association) PeerAddrs() (addrs []netip.Addr) {
	phony.Block(&a.core.asconf, func() {
		addrs = append(addrs, a.core.asconf.peer...)
	})
	return
}

// Close stops the retransmission timer and drops any outstanding request. It must not be
// called from a notify callback.
func (a *Association) Close() error {
	var err error
	phony.Block(&a.core.asconf, func() {
		if a.core.asconf.closed {
			err = types.ErrClosed
			return
		}
		a.core.asconf._shutdown()
	})
	return err
}
