package network

import (
	"net/netip"

	"golang.org/x/crypto/cryptobyte"

	"github.com/RiV-chain/asconf/types"
)

/****************
 * asconfChunk *
 ****************/

type asconfChunk struct {
	serial uint32
	addr   netip.Addr // the sender's own address, or the wildcard
	params []asconfParam
}

func (c *asconfChunk) size() int {
	size := asconfChunkBaseSize + wireSizeAddr(c.addr)
	for idx := range c.params {
		size += c.params[idx].size()
	}
	return size
}

func (c *asconfChunk) bitLength() int {
	return c.size() * 8
}

func (c *asconfChunk) encode(out []byte) ([]byte, error) {
	start := len(out)
	b := cryptobyte.NewBuilder(out)
	b.AddUint8(uint8(wireChunkAsconf))
	b.AddUint8(0)
	b.AddUint16(uint16(c.size()))
	b.AddUint32(c.serial)
	wireAppendAddr(b, c.addr)
	for idx := range c.params {
		c.params[idx].appendTo(b)
	}
	out, err := b.Bytes()
	if err != nil {
		return nil, err
	}
	if len(out)-start != c.size() {
		panic("this should never happen")
	}
	return out, nil
}

// decode parses the chunk body, i.e. everything after the chunk header.
func (c *asconfChunk) decode(body cryptobyte.String) error {
	var tmp asconfChunk
	if !body.ReadUint32(&tmp.serial) {
		return types.ErrDecode
	} else if !wireChopAddr(&tmp.addr, &body) {
		return types.ErrDecode
	}
	for !body.Empty() {
		var p asconfParam
		if err := p.chop(&body); err != nil {
			return err
		} else if !p.isRequest() {
			return types.ErrDecode
		}
		tmp.params = append(tmp.params, p)
	}
	*c = tmp
	return nil
}

func (c *asconfChunk) find(corrID uint32) *asconfParam {
	for idx := range c.params {
		if c.params[idx].corrID == corrID {
			return &c.params[idx]
		}
	}
	return nil
}

/*******************
 * asconfAckChunk *
 *******************/

type asconfAckChunk struct {
	serial   uint32
	outcomes []asconfParam
}

func (c *asconfAckChunk) size() int {
	size := asconfChunkBaseSize
	for idx := range c.outcomes {
		size += c.outcomes[idx].size()
	}
	return size
}

func (c *asconfAckChunk) encode(out []byte) ([]byte, error) {
	start := len(out)
	b := cryptobyte.NewBuilder(out)
	b.AddUint8(uint8(wireChunkAsconfAck))
	b.AddUint8(0)
	b.AddUint16(uint16(c.size()))
	b.AddUint32(c.serial)
	for idx := range c.outcomes {
		c.outcomes[idx].appendTo(b)
	}
	out, err := b.Bytes()
	if err != nil {
		return nil, err
	}
	if len(out)-start != c.size() {
		panic("this should never happen")
	}
	return out, nil
}

func (c *asconfAckChunk) decode(body cryptobyte.String) error {
	var tmp asconfAckChunk
	if !body.ReadUint32(&tmp.serial) {
		return types.ErrDecode
	}
	for !body.Empty() {
		var p asconfParam
		if err := p.chop(&body); err != nil {
			return err
		}
		switch p.kind {
		case wireParamSuccess, wireParamErrorCause:
		default:
			return types.ErrDecode
		}
		tmp.outcomes = append(tmp.outcomes, p)
	}
	*c = tmp
	return nil
}
