package network

import (
	"log/slog"
	"net/netip"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/RiV-chain/asconf/internal/logger"
)

type config struct {
	natFriendly     bool
	addAddress      netip.Addr
	localPort       uint16
	remotePort      uint16
	localTag        uint32
	peerTag         uint32
	initialSerial   uint32
	keyVector       []byte
	rto             time.Duration
	maxRTO          time.Duration
	maxRetransmits  int
	maxPeerAddrs    int
	clock           clock.Clock
	logger          *slog.Logger
	ackNotify       func(serial uint32, outcomes []Outcome)
	failureNotify   func(err error)
	peerAddrsNotify func(addrs []netip.Addr)
}

type Option func(*config)

func configDefaults() Option {
	return func(c *config) {
		c.localPort = 9899
		c.remotePort = 9899
		c.initialSerial = randomUint32()
		c.rto = 3 * time.Second
		c.maxRTO = time.Minute
		c.maxRetransmits = 10 // Association.Max.Retrans
		c.maxPeerAddrs = 16
		c.clock = clock.New()
		c.logger = logger.Logger("asconf")
		c.ackNotify = func(uint32, []Outcome) {}
		c.failureNotify = func(error) {}
		c.peerAddrsNotify = func([]netip.Addr) {}
	}
}

// WithNATFriendly advertises the wildcard address in place of real addresses when the
// local address is private and the remote one is global.
func WithNATFriendly(enabled bool) Option {
	return func(c *config) {
		c.natFriendly = enabled
	}
}

// WithAddAddress sets the address that add, delete and set-primary requests operate on.
func WithAddAddress(addr netip.Addr) Option {
	return func(c *config) {
		c.addAddress = addr.Unmap()
	}
}

func WithPorts(local, remote uint16) Option {
	return func(c *config) {
		c.localPort = local
		c.remotePort = remote
	}
}

func WithVerificationTags(local, peer uint32) Option {
	return func(c *config) {
		c.localTag = local
		c.peerTag = peer
	}
}

func WithInitialSerial(serial uint32) Option {
	return func(c *config) {
		c.initialSerial = serial
	}
}

// WithKeyVector enables authentication with the given local random vector.
func WithKeyVector(vector []byte) Option {
	return func(c *config) {
		c.keyVector = append([]byte(nil), vector...)
	}
}

func WithRTO(initial, max time.Duration) Option {
	return func(c *config) {
		c.rto = initial
		c.maxRTO = max
	}
}

func WithMaxRetransmits(n int) Option {
	return func(c *config) {
		c.maxRetransmits = n
	}
}

func WithMaxPeerAddresses(n int) Option {
	return func(c *config) {
		c.maxPeerAddrs = n
	}
}

func WithClock(clk clock.Clock) Option {
	return func(c *config) {
		c.clock = clk
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		c.logger = l
	}
}

// WithAckNotify is called, from the association's actor, whenever an acknowledgment
// for the outstanding request is accepted.
func WithAckNotify(notify func(serial uint32, outcomes []Outcome)) Option {
	return func(c *config) {
		c.ackNotify = notify
	}
}

// WithFailureNotify is called when the outstanding request runs out of retransmissions.
func WithFailureNotify(notify func(err error)) Option {
	return func(c *config) {
		c.failureNotify = notify
	}
}

// WithPeerAddressesNotify is called after a peer request changed the set of peer addresses.
func WithPeerAddressesNotify(notify func(addrs []netip.Addr)) Option {
	return func(c *config) {
		c.peerAddrsNotify = notify
	}
}
