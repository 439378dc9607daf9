package network

import (
	"net/netip"

	"golang.org/x/crypto/cryptobyte"

	"github.com/RiV-chain/asconf/types"
)

/****************
 * asconfParam *
 ****************/

// Error cause codes carried by an error cause indication.
const (
	causeUnresolvableAddress uint16 = 0x0005
	causeDeleteLastAddress   uint16 = 0x00a0
	causeResourceShortage    uint16 = 0x00a1
	causeDeleteSourceAddress uint16 = 0x00a2
)

type errorCause struct {
	code uint16
	info []byte
}

func (c *errorCause) size() int {
	n := paramHeaderSize + len(c.info)
	return n + wirePad(n)
}

// asconfParam is one of the parameters carried by ASCONF and ASCONF-ACK chunks.
// kind selects which of the remaining fields are meaningful:
// add, delete and set-primary requests carry addr, error indications carry causes.
type asconfParam struct {
	kind   wireParamType
	corrID uint32
	addr   netip.Addr
	causes []errorCause
}

func newRequestParam(op types.Operation, corrID uint32, addr netip.Addr) asconfParam {
	p := asconfParam{corrID: corrID, addr: addr.Unmap()}
	switch op {
	case types.OpAddAddress:
		p.kind = wireParamAddIP
	case types.OpDeleteAddress:
		p.kind = wireParamDeleteIP
	case types.OpSetPrimaryAddress:
		p.kind = wireParamSetPrimary
	default:
		panic("this should never happen")
	}
	return p
}

func newSuccessParam(corrID uint32) asconfParam {
	return asconfParam{kind: wireParamSuccess, corrID: corrID}
}

func newErrorParam(corrID uint32, causes ...errorCause) asconfParam {
	return asconfParam{kind: wireParamErrorCause, corrID: corrID, causes: causes}
}

func (p *asconfParam) isRequest() bool {
	switch p.kind {
	case wireParamAddIP, wireParamDeleteIP, wireParamSetPrimary:
		return true
	}
	return false
}

func (p *asconfParam) operation() types.Operation {
	switch p.kind {
	case wireParamAddIP:
		return types.OpAddAddress
	case wireParamDeleteIP:
		return types.OpDeleteAddress
	case wireParamSetPrimary:
		return types.OpSetPrimaryAddress
	}
	return 0
}

func (p *asconfParam) size() int {
	size := asconfParamBaseSize
	switch p.kind {
	case wireParamAddIP, wireParamDeleteIP, wireParamSetPrimary:
		size += wireSizeAddr(p.addr)
	case wireParamErrorCause:
		for idx := range p.causes {
			size += p.causes[idx].size()
		}
	}
	return size
}

// bitLength is the encoded length in bits.
func (p *asconfParam) bitLength() int {
	return p.size() * 8
}

func (p *asconfParam) appendTo(b *cryptobyte.Builder) {
	b.AddUint16(uint16(p.kind))
	b.AddUint16(uint16(p.size()))
	b.AddUint32(p.corrID)
	switch p.kind {
	case wireParamAddIP, wireParamDeleteIP, wireParamSetPrimary:
		wireAppendAddr(b, p.addr)
	case wireParamErrorCause:
		for _, c := range p.causes {
			n := paramHeaderSize + len(c.info)
			b.AddUint16(c.code)
			b.AddUint16(uint16(n))
			b.AddBytes(c.info)
			b.AddBytes(make([]byte, wirePad(n)))
		}
	}
}

func (p *asconfParam) encode(out []byte) ([]byte, error) {
	start := len(out)
	b := cryptobyte.NewBuilder(out)
	p.appendTo(b)
	out, err := b.Bytes()
	if err != nil {
		return nil, err
	}
	if len(out)-start != p.size() {
		panic("this should never happen")
	}
	return out, nil
}

func (p *asconfParam) chop(data *cryptobyte.String) error {
	var ptype uint16
	var body cryptobyte.String
	if !wireChopTLV(&ptype, &body, data) {
		return types.ErrDecode
	}
	tmp := asconfParam{kind: wireParamType(ptype)}
	if !body.ReadUint32(&tmp.corrID) {
		return types.ErrDecode
	}
	switch tmp.kind {
	case wireParamAddIP, wireParamDeleteIP, wireParamSetPrimary:
		if !wireChopAddr(&tmp.addr, &body) {
			return types.ErrDecode
		}
	case wireParamSuccess:
	case wireParamErrorCause:
		for !body.Empty() {
			var c errorCause
			var info cryptobyte.String
			if !wireChopTLV(&c.code, &info, &body) {
				return types.ErrDecode
			}
			c.info = append([]byte(nil), info...)
			tmp.causes = append(tmp.causes, c)
		}
	default:
		return types.ErrDecode
	}
	if !body.Empty() {
		// The declared length covers bytes the parameter does not account for.
		return types.ErrDecode
	}
	*p = tmp
	return nil
}

func (p *asconfParam) decode(data []byte) error {
	var tmp asconfParam
	s := cryptobyte.String(data)
	if err := tmp.chop(&s); err != nil {
		return err
	} else if !s.Empty() {
		return types.ErrDecode
	}
	*p = tmp
	return nil
}
