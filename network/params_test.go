package network

import (
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/cryptobyte"

	"github.com/RiV-chain/asconf/types"
)

func TestRequestParamWire(t *testing.T) {
	for _, addr := range []string{"10.0.0.5", "2001:db8::5"} {
		for _, op := range []types.Operation{types.OpAddAddress, types.OpDeleteAddress, types.OpSetPrimaryAddress} {
			p := newRequestParam(op, 42, netip.MustParseAddr(addr))
			bs, err := p.encode(nil)
			require.NoError(t, err)
			require.Len(t, bs, p.size())
			var decoded asconfParam
			require.NoError(t, decoded.decode(bs), "%s %s", op, addr)
			assert.Equal(t, p, decoded)
			assert.Equal(t, op, decoded.operation())
		}
	}
}

func TestRequestParamBitLength(t *testing.T) {
	v4 := newRequestParam(types.OpAddAddress, 1, netip.MustParseAddr("10.0.0.5"))
	v6 := newRequestParam(types.OpAddAddress, 1, netip.MustParseAddr("2001:db8::5"))
	assert.Equal(t, (asconfParamBaseSize+8)*8, v4.bitLength())
	assert.Equal(t, (asconfParamBaseSize+20)*8, v6.bitLength())

	// IPv4-mapped addresses are sent as IPv4
	mapped := newRequestParam(types.OpAddAddress, 1, netip.MustParseAddr("::ffff:10.0.0.5"))
	assert.Equal(t, v4.bitLength(), mapped.bitLength())
}

func TestRequestParamLayout(t *testing.T) {
	p := newRequestParam(types.OpDeleteAddress, 0x01020304, netip.MustParseAddr("10.0.0.5"))
	bs, err := p.encode(nil)
	require.NoError(t, err)
	assert.Equal(t, []byte{
		0xc0, 0x02, 0x00, 0x10, // delete ip, length 16
		0x01, 0x02, 0x03, 0x04, // correlation id
		0x00, 0x05, 0x00, 0x08, // ipv4 address parameter
		10, 0, 0, 5,
	}, bs)
}

func TestOutcomeParamWire(t *testing.T) {
	success := newSuccessParam(7)
	bs, err := success.encode(nil)
	require.NoError(t, err)
	assert.Len(t, bs, 8)
	var decoded asconfParam
	require.NoError(t, decoded.decode(bs))
	assert.Equal(t, success, decoded)

	refused := newErrorParam(8,
		errorCause{code: causeDeleteLastAddress, info: addrParamBytes(netip.MustParseAddr("10.0.0.5"))},
		errorCause{code: causeResourceShortage, info: []byte{1, 2, 3}},
	)
	bs, err = refused.encode(nil)
	require.NoError(t, err)
	assert.Zero(t, len(bs)%4)
	require.NoError(t, decoded.decode(bs))
	require.Len(t, decoded.causes, 2)
	assert.Equal(t, causeDeleteLastAddress, decoded.causes[0].code)
	assert.Equal(t, refused.causes[0].info, decoded.causes[0].info)
	// Padding is not part of the cause
	assert.Equal(t, []byte{1, 2, 3}, decoded.causes[1].info)
}

func TestParamLengthMismatch(t *testing.T) {
	p := newRequestParam(types.OpAddAddress, 1, netip.MustParseAddr("10.0.0.5"))
	bs, err := p.encode(nil)
	require.NoError(t, err)

	long := append(append([]byte(nil), bs...), 0, 0, 0, 0)
	long[3] += 4 // declared length covers bytes the parameter does not use
	var decoded asconfParam
	assert.ErrorIs(t, decoded.decode(long), types.ErrDecode)

	short := append([]byte(nil), bs...)
	short[3] -= 4
	assert.ErrorIs(t, decoded.decode(short), types.ErrDecode)

	truncated := bs[:len(bs)-1]
	assert.ErrorIs(t, decoded.decode(truncated), types.ErrDecode)

	badAddr := append([]byte(nil), bs...)
	badAddr[11] = 20 // ipv4 address parameter claiming ipv6 length
	assert.ErrorIs(t, decoded.decode(badAddr), types.ErrDecode)
}

func TestAsconfChunkWire(t *testing.T) {
	c := asconfChunk{
		serial: 99,
		addr:   netip.MustParseAddr("10.0.0.1"),
		params: []asconfParam{
			newRequestParam(types.OpAddAddress, 1, netip.MustParseAddr("10.0.0.5")),
			newRequestParam(types.OpSetPrimaryAddress, 2, netip.MustParseAddr("2001:db8::5")),
		},
	}
	bs, err := c.encode(nil)
	require.NoError(t, err)
	assert.Equal(t, (8+8+16+28)*8, c.bitLength())

	rest := cryptobyte.String(bs)
	var typ wireChunkType
	var flags uint8
	var body cryptobyte.String
	require.True(t, wireChopChunk(&typ, &flags, &body, &rest))
	assert.Equal(t, wireChunkAsconf, typ)
	assert.True(t, rest.Empty())

	var decoded asconfChunk
	require.NoError(t, decoded.decode(body))
	assert.Equal(t, c, decoded)
	assert.NotNil(t, decoded.find(2))
	assert.Nil(t, decoded.find(3))
}

func TestAsconfChunkRejectsOutcomes(t *testing.T) {
	c := asconfChunk{serial: 1, addr: netip.MustParseAddr("10.0.0.1"), params: []asconfParam{newSuccessParam(1)}}
	bs, err := c.encode(nil)
	require.NoError(t, err)
	var decoded asconfChunk
	assert.ErrorIs(t, decoded.decode(cryptobyte.String(bs[chunkHeaderSize:])), types.ErrDecode)
}

func TestBuildAcknowledgment(t *testing.T) {
	ack := buildAcknowledgment(0xdeadbeef, []uint32{3, 4, 5})
	assert.Equal(t, uint32(0xdeadbeef), ack.serial)
	require.Len(t, ack.outcomes, 3)
	for idx, out := range ack.outcomes {
		assert.Equal(t, wireParamSuccess, out.kind)
		assert.Equal(t, uint32(3+idx), out.corrID)
	}
	bs, err := ack.encode(nil)
	require.NoError(t, err)
	assert.Len(t, bs, 8+3*8)

	var decoded asconfAckChunk
	require.NoError(t, decoded.decode(cryptobyte.String(bs[chunkHeaderSize:])))
	assert.Equal(t, ack, decoded)
}
