package network

import (
	"github.com/bits-and-blooms/bitset"
	"golang.org/x/crypto/cryptobyte"

	"github.com/RiV-chain/asconf/types"
)

const (
	hmacSHA1         uint16 = 1
	hmacSHA256       uint16 = 3
	sha1DigestSize          = 20
	sha256DigestSize        = 32
)

type crypto struct {
	authEnabled     bool
	peerAuthEnabled bool
	localKeyVector  []byte
	peerKeyVector   []byte
	sharedKey       []byte
	peerChunks      *bitset.BitSet
}

func (c *crypto) init(cfg *config) {
	c.authEnabled = len(cfg.keyVector) > 0
	c.localKeyVector = append([]byte(nil), cfg.keyVector...)
	c.peerChunks = bitset.New(256)
}

// negotiate records the peer's random vector and chunk list and derives the shared key.
// It runs once per association, whether or not AUTH is enabled locally.
func (c *crypto) negotiate(peerKeyVector []byte, peerChunks []uint8) error {
	if c.peerAuthEnabled {
		return types.ErrAuthNegotiated
	}
	if len(peerKeyVector) == 0 {
		return types.ErrEmptyKeyVector
	}
	c.peerAuthEnabled = true
	c.peerKeyVector = append([]byte(nil), peerKeyVector...)
	for _, t := range peerChunks {
		c.peerChunks.Set(uint(t))
	}
	if c.authEnabled {
		c.sharedKey = calculateSharedKey(c.localKeyVector, c.peerKeyVector)
	}
	return nil
}

func (c *crypto) required() bool {
	return c.authEnabled && c.peerAuthEnabled
}

func (c *crypto) typeInChunkList(t wireChunkType) bool {
	return c.peerChunks.Test(uint(t))
}

// compareRandom orders two random vectors. Both endpoints must reach the same decision
// with the arguments swapped, so this must not change.
//
// When the lengths differ, a non-zero byte in the tail of the longer vector decides
// immediately. Index 0 never takes part in the comparison of the common part.
func compareRandom(local, peer []byte) bool {
	size := len(local)
	switch {
	case len(peer) > len(local):
		for idx := len(peer) - 1; idx > len(local); idx-- {
			if peer[idx] != 0 {
				return false
			}
		}
	case len(local) > len(peer):
		size = len(peer)
		for idx := len(local) - 1; idx > len(peer); idx-- {
			if local[idx] != 0 {
				return true
			}
		}
	}
	for idx := size - 1; idx > 0; idx-- {
		if local[idx] < peer[idx] {
			return false
		}
		if local[idx] > peer[idx] {
			return true
		}
	}
	return true
}

func calculateSharedKey(local, peer []byte) []byte {
	key := make([]byte, 0, len(local)+len(peer))
	if compareRandom(local, peer) {
		// The peer sorts first
		key = append(key, peer...)
		return append(key, local...)
	}
	key = append(key, local...)
	return append(key, peer...)
}

/**************
 * authChunk *
 **************/

type authChunk struct {
	sharedKeyID uint16
	hmacID      uint16
	hmacOK      bool // not on the wire
	hmac        []byte
}

func digestSize(hmacID uint16) int {
	switch hmacID {
	case hmacSHA1:
		return sha1DigestSize
	case hmacSHA256:
		return sha256DigestSize
	}
	return 0
}

// newAuthChunk returns an AUTH chunk with a zeroed digest. Computing the HMAC is left to
// whatever signs the finished message.
func newAuthChunk() *authChunk {
	return &authChunk{
		sharedKeyID: 0,
		hmacID:      hmacSHA1,
		hmacOK:      true,
		hmac:        make([]byte, sha1DigestSize),
	}
}

func (c *authChunk) size() int {
	return authChunkBaseSize + len(c.hmac)
}

func (c *authChunk) bitLength() int {
	return c.size() * 8
}

func (c *authChunk) encode(out []byte) ([]byte, error) {
	start := len(out)
	b := cryptobyte.NewBuilder(out)
	b.AddUint8(uint8(wireChunkAuth))
	b.AddUint8(0)
	b.AddUint16(uint16(c.size()))
	b.AddUint16(c.sharedKeyID)
	b.AddUint16(c.hmacID)
	b.AddBytes(c.hmac)
	b.AddBytes(make([]byte, wirePad(c.size())))
	out, err := b.Bytes()
	if err != nil {
		return nil, err
	}
	if len(out)-start != c.size()+wirePad(c.size()) {
		panic("this should never happen")
	}
	return out, nil
}

func (c *authChunk) decode(body cryptobyte.String) error {
	var tmp authChunk
	if !body.ReadUint16(&tmp.sharedKeyID) || !body.ReadUint16(&tmp.hmacID) {
		return types.ErrDecode
	}
	tmp.hmac = append([]byte(nil), body...)
	tmp.hmacOK = digestSize(tmp.hmacID) == len(tmp.hmac)
	*c = tmp
	return nil
}
