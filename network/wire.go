package network

import (
	"net/netip"

	"golang.org/x/crypto/cryptobyte"
)

type wireChunkType uint8

const (
	wireChunkAuth      wireChunkType = 0x0f
	wireChunkAsconfAck wireChunkType = 0x80
	wireChunkAsconf    wireChunkType = 0xc1
)

type wireParamType uint16

const (
	wireParamIPv4          wireParamType = 0x0005
	wireParamIPv6          wireParamType = 0x0006
	wireParamAddIP         wireParamType = 0xc001
	wireParamDeleteIP      wireParamType = 0xc002
	wireParamErrorCause    wireParamType = 0xc003
	wireParamSetPrimary    wireParamType = 0xc004
	wireParamSuccess       wireParamType = 0xc005
	wireParamSupportedExts wireParamType = 0x8008
)

const (
	sctpCommonHeaderSize = 12
	chunkHeaderSize      = 4
	paramHeaderSize      = 4
	asconfChunkBaseSize  = 8 // chunk header + serial number
	asconfParamBaseSize  = 8 // parameter header + correlation id
	authChunkBaseSize    = 8 // chunk header + shared key id + hmac id
	ipv4ParamSize        = 8
	ipv6ParamSize        = 20
)

// Padding to a 4 byte boundary, as required for every chunk and parameter.
func wirePad(n int) int {
	return (4 - n%4) % 4
}

func wireSizeAddr(addr netip.Addr) int {
	if addr.Unmap().Is4() {
		return ipv4ParamSize
	}
	return ipv6ParamSize
}

func wireAppendAddr(b *cryptobyte.Builder, addr netip.Addr) {
	addr = addr.Unmap()
	if addr.Is4() {
		b.AddUint16(uint16(wireParamIPv4))
		b.AddUint16(ipv4ParamSize)
	} else {
		b.AddUint16(uint16(wireParamIPv6))
		b.AddUint16(ipv6ParamSize)
	}
	b.AddBytes(addr.AsSlice())
}

func wireChopAddr(addr *netip.Addr, data *cryptobyte.String) bool {
	var ptype, plen uint16
	if !data.ReadUint16(&ptype) || !data.ReadUint16(&plen) {
		return false
	}
	var raw []byte
	switch wireParamType(ptype) {
	case wireParamIPv4:
		if plen != ipv4ParamSize || !data.ReadBytes(&raw, 4) {
			return false
		}
	case wireParamIPv6:
		if plen != ipv6ParamSize || !data.ReadBytes(&raw, 16) {
			return false
		}
	default:
		return false
	}
	a, ok := netip.AddrFromSlice(raw)
	if !ok {
		return false
	}
	*addr = a
	return true
}

// wireChopTLV reads one type-length-value element whose 16 bit length includes its own
// 4 byte header, and skips the trailing padding.
func wireChopTLV(typ *uint16, body *cryptobyte.String, data *cryptobyte.String) bool {
	var length uint16
	if !data.ReadUint16(typ) || !data.ReadUint16(&length) || length < 4 {
		return false
	}
	var raw []byte
	if !data.ReadBytes(&raw, int(length)-4) {
		return false
	}
	*body = cryptobyte.String(raw)
	if pad := wirePad(int(length)); pad > 0 && len(*data) >= pad {
		data.Skip(pad)
	}
	return true
}

// wireChopChunk reads one chunk header and body.
func wireChopChunk(typ *wireChunkType, flags *uint8, body *cryptobyte.String, data *cryptobyte.String) bool {
	var t uint8
	var length uint16
	if !data.ReadUint8(&t) || !data.ReadUint8(flags) || !data.ReadUint16(&length) || length < chunkHeaderSize {
		return false
	}
	var raw []byte
	if !data.ReadBytes(&raw, int(length)-chunkHeaderSize) {
		return false
	}
	*typ = wireChunkType(t)
	*body = cryptobyte.String(raw)
	if pad := wirePad(int(length)); pad > 0 && len(*data) >= pad {
		data.Skip(pad)
	}
	return true
}
