package network

import (
	"net/netip"

	"github.com/google/uuid"

	"github.com/RiV-chain/asconf/types"
)

// Path identifies one of the remote transport addresses of an association.
type Path struct {
	Index  int
	Remote netip.Addr
}

// Host is the part of the association that lives outside this package: it owns the
// sockets and the list of remote paths.
type Host interface {
	SendToIP(msg []byte, dest netip.Addr) error
	GetPath(addr netip.Addr) Path
	GetNextAddress(path Path) netip.Addr
}

type core struct {
	id     string // used to tell associations apart in logs
	config config // per-association configuration
	crypto crypto // AUTH state: key vectors, shared key, peer chunk list
	asconf asconf // address reconfiguration state machine (actor)
	host   Host   // sends messages and knows the remote paths
}

func (c *core) init(local, remote netip.Addr, host Host, opts ...Option) error {
	if !local.IsValid() || !remote.IsValid() {
		return types.ErrBadAddress
	}
	opts = append([]Option{configDefaults()}, opts...)
	for _, opt := range opts {
		opt(&c.config)
	}
	c.id = uuid.NewString()
	c.config.logger = c.config.logger.With("assoc", c.id)
	c.host = host
	c.crypto.init(&c.config)
	c.asconf.init(c, local.Unmap(), remote.Unmap())
	return nil
}
