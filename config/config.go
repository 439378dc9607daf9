// Package config holds the daemon configuration and turns it into association options.
package config

import (
	"context"
	crand "crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/netip"
	"os"
	"time"

	"github.com/RiV-chain/asconf/internal/resolve"
	"github.com/RiV-chain/asconf/network"
	"github.com/RiV-chain/asconf/types"
)

const maxRandomSize = 256

type Config struct {
	// LocalAddress is the primary local address and must be a literal.
	LocalAddress string `json:"local_address"`

	// RemoteAddresses lists the peer's addresses, primary first. Names are resolved.
	RemoteAddresses []string `json:"remote_addresses"`

	LocalPort  uint16 `json:"local_port"`
	RemotePort uint16 `json:"remote_port"`

	// NATFriendly advertises the wildcard address when a private local address talks to a
	// global remote one.
	NATFriendly bool `json:"nat_friendly"`

	// NATNextPath sends a NAT-friendly add over the path after the primary one.
	NATNextPath bool `json:"nat_next_path,omitempty"`

	// AddAddress is the address (or name) the operations act on.
	AddAddress string `json:"add_address,omitempty"`

	// Operations is a comma separated list of codes: 1 add, 2 delete, 3 set primary.
	Operations string `json:"operations,omitempty"`

	Auth           AuthConfig           `json:"auth"`
	Retransmission RetransmissionConfig `json:"retransmission"`

	// MaxPeerAddresses caps the addresses a peer may add.
	MaxPeerAddresses int `json:"max_peer_addresses"`

	// Routes are route records installed at startup, see routing.Install.
	Routes    []string `json:"routes,omitempty"`
	RouteFile string   `json:"route_file,omitempty"`

	// NameServers are host:port pairs. Empty means /etc/resolv.conf.
	NameServers []string `json:"name_servers,omitempty"`
}

type AuthConfig struct {
	Enable bool `json:"enable"`

	// KeyVector is the hex encoded local random vector. Empty means a fresh one of
	// RandomSize bytes.
	KeyVector  string `json:"key_vector,omitempty"`
	RandomSize int    `json:"random_size"`

	// PeerKeyVector and PeerChunks are what the peer announced during association setup.
	// With a peer vector set the association uses AUTH from the start.
	PeerKeyVector string `json:"peer_key_vector,omitempty"`
	PeerChunks    []int  `json:"peer_chunks,omitempty"`
}

type RetransmissionConfig struct {
	RTO        Duration `json:"rto"`
	MaxRTO     Duration `json:"max_rto"`
	MaxRetries int      `json:"max_retries"`
}

func Default() *Config {
	return &Config{
		LocalPort:  9899,
		RemotePort: 9899,
		Auth: AuthConfig{
			RandomSize: 32,
		},
		Retransmission: RetransmissionConfig{
			RTO:        Duration(3 * time.Second),
			MaxRTO:     Duration(time.Minute),
			MaxRetries: 10,
		},
		MaxPeerAddresses: 16,
	}
}

// Load reads a JSON file over the defaults and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	c := Default()
	if err := json.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("%w: %w", types.ErrConfig, err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", types.ErrConfig, fmt.Sprintf(format, args...))
}

func (c *Config) Validate() error {
	if _, err := netip.ParseAddr(c.LocalAddress); err != nil {
		return invalid("local_address %q is not an address", c.LocalAddress)
	}
	if len(c.RemoteAddresses) == 0 {
		return invalid("remote_addresses is empty")
	}
	if c.LocalPort == 0 || c.RemotePort == 0 {
		return invalid("ports must be non-zero")
	}
	ops, err := types.ParseOperations(c.Operations)
	if err != nil {
		return err
	}
	if len(ops) > 0 && c.AddAddress == "" {
		return invalid("operations need add_address")
	}
	if c.Auth.KeyVector != "" {
		if _, err := hex.DecodeString(c.Auth.KeyVector); err != nil {
			return invalid("auth.key_vector: %v", err)
		}
	} else if c.Auth.Enable && (c.Auth.RandomSize <= 0 || c.Auth.RandomSize > maxRandomSize) {
		return invalid("auth.random_size must be in 1..%d", maxRandomSize)
	}
	if c.Auth.PeerKeyVector != "" {
		if v, err := hex.DecodeString(c.Auth.PeerKeyVector); err != nil || len(v) == 0 {
			return invalid("auth.peer_key_vector is not a hex vector")
		}
	} else if len(c.Auth.PeerChunks) > 0 {
		return invalid("auth.peer_chunks needs auth.peer_key_vector")
	}
	for _, t := range c.Auth.PeerChunks {
		if t < 0 || t > 0xff {
			return invalid("auth.peer_chunks: %d is not a chunk type", t)
		}
	}
	r := &c.Retransmission
	if r.RTO <= 0 || r.MaxRTO < r.RTO {
		return invalid("retransmission needs 0 < rto <= max_rto")
	}
	if r.MaxRetries < 0 {
		return invalid("retransmission.max_retries is negative")
	}
	if c.MaxPeerAddresses < 1 {
		return invalid("max_peer_addresses must be at least 1")
	}
	return nil
}

// Ops returns the configured operations in order.
func (c *Config) Ops() []types.Operation {
	ops, _ := types.ParseOperations(c.Operations)
	return ops
}

// KeyVector returns the local random vector, or nil with authentication disabled.
func (c *Config) KeyVector() ([]byte, error) {
	if !c.Auth.Enable {
		return nil, nil
	}
	if c.Auth.KeyVector != "" {
		return hex.DecodeString(c.Auth.KeyVector)
	}
	vector := make([]byte, c.Auth.RandomSize)
	if _, err := crand.Read(vector); err != nil {
		return nil, err
	}
	return vector, nil
}

// PeerAuth returns the peer's random vector and chunk list, or a nil vector when the peer
// does not use AUTH.
func (c *Config) PeerAuth() ([]byte, []uint8, error) {
	if c.Auth.PeerKeyVector == "" {
		return nil, nil, nil
	}
	vector, err := hex.DecodeString(c.Auth.PeerKeyVector)
	if err != nil {
		return nil, nil, invalid("auth.peer_key_vector: %v", err)
	}
	chunks := make([]uint8, 0, len(c.Auth.PeerChunks))
	for _, t := range c.Auth.PeerChunks {
		chunks = append(chunks, uint8(t))
	}
	return vector, chunks, nil
}

// Endpoints resolves the local and remote addresses.
func (c *Config) Endpoints(ctx context.Context, r *resolve.Resolver) (local netip.Addr, remotes []netip.Addr, err error) {
	if local, err = netip.ParseAddr(c.LocalAddress); err != nil {
		return netip.Addr{}, nil, invalid("local_address %q is not an address", c.LocalAddress)
	}
	for _, name := range c.RemoteAddresses {
		addr, err := r.Resolve(ctx, name)
		if err != nil {
			return netip.Addr{}, nil, err
		}
		remotes = append(remotes, addr)
	}
	return local.Unmap(), remotes, nil
}

// Options converts the configuration into association options. add_address is resolved
// with r.
func (c *Config) Options(ctx context.Context, r *resolve.Resolver) ([]network.Option, error) {
	opts := []network.Option{
		network.WithNATFriendly(c.NATFriendly),
		network.WithPorts(c.LocalPort, c.RemotePort),
		network.WithRTO(c.Retransmission.RTO.Duration(), c.Retransmission.MaxRTO.Duration()),
		network.WithMaxRetransmits(c.Retransmission.MaxRetries),
		network.WithMaxPeerAddresses(c.MaxPeerAddresses),
	}
	if c.AddAddress != "" {
		addr, err := r.Resolve(ctx, c.AddAddress)
		if err != nil {
			return nil, err
		}
		opts = append(opts, network.WithAddAddress(addr))
	}
	vector, err := c.KeyVector()
	if err != nil {
		return nil, err
	}
	if vector != nil {
		opts = append(opts, network.WithKeyVector(vector))
	}
	return opts, nil
}
