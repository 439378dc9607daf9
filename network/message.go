package network

import (
	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"golang.org/x/crypto/cryptobyte"

	"github.com/RiV-chain/asconf/types"
)

/************
 * message *
 ************/

// message is a received packet: the common header followed by its chunks, in order.
type message struct {
	srcPort uint16
	dstPort uint16
	tag     uint32
	chunks  []rawChunk
}

type rawChunk struct {
	typ   wireChunkType
	flags uint8
	body  cryptobyte.String
}

func encodeMessage(srcPort, dstPort uint16, tag uint32, payload []byte) ([]byte, error) {
	hdr := &layers.SCTP{
		SrcPort:         layers.SCTPPort(srcPort),
		DstPort:         layers.SCTPPort(dstPort),
		VerificationTag: tag,
	}
	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{ComputeChecksums: true}
	if err := gopacket.SerializeLayers(buf, opts, hdr, gopacket.Payload(payload)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeMessage(data []byte) (*message, error) {
	if len(data) < sctpCommonHeaderSize {
		return nil, types.ErrDecode
	}
	pkt := gopacket.NewPacket(data, layers.LayerTypeSCTP, gopacket.NoCopy)
	hdr, ok := pkt.Layer(layers.LayerTypeSCTP).(*layers.SCTP)
	if !ok {
		return nil, types.ErrDecode
	}
	msg := &message{
		srcPort: uint16(hdr.SrcPort),
		dstPort: uint16(hdr.DstPort),
		tag:     hdr.VerificationTag,
	}
	rest := cryptobyte.String(data[sctpCommonHeaderSize:])
	for !rest.Empty() {
		var ch rawChunk
		if !wireChopChunk(&ch.typ, &ch.flags, &ch.body, &rest) {
			return nil, types.ErrDecode
		}
		msg.chunks = append(msg.chunks, ch)
	}
	return msg, nil
}

// wrap puts an encoded chunk into a fresh message, behind a fresh AUTH chunk when both
// sides use authentication.
func (c *core) wrap(chunk []byte) ([]byte, error) {
	var payload []byte
	if c.crypto.required() {
		var err error
		if payload, err = newAuthChunk().encode(payload); err != nil {
			return nil, err
		}
	}
	payload = append(payload, chunk...)
	return encodeMessage(c.config.localPort, c.config.remotePort, c.config.peerTag, payload)
}
