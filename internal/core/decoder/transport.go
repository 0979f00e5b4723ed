// Package decoder implements protocol decoding.
package decoder

import (
	"encoding/binary"

	"firestige.xyz/nlyzer/internal/core"
)

const (
	udpHeaderLen    = 8
	tcpHeaderMinLen = 20
)

// DecodeUDP decodes a UDP header.
func DecodeUDP(data []byte) (*core.UDPHeader, []byte, error) {
	if len(data) < udpHeaderLen {
		return nil, nil, core.ErrTooShort
	}

	udp := &core.UDPHeader{
		SrcPort:  binary.BigEndian.Uint16(data[0:2]),
		DstPort:  binary.BigEndian.Uint16(data[2:4]),
		Length:   binary.BigEndian.Uint16(data[4:6]), // includes header
		Checksum: binary.BigEndian.Uint16(data[6:8]),
	}

	payload := data[udpHeaderLen:]
	if l := int(udp.Length); l >= udpHeaderLen && l <= len(data) {
		payload = data[udpHeaderLen:l]
	}
	return udp, payload, nil
}

// DecodeTCP decodes a TCP header. Options are skipped.
func DecodeTCP(data []byte) (*core.TCPHeader, []byte, error) {
	if len(data) < tcpHeaderMinLen {
		return nil, nil, core.ErrTooShort
	}

	// Data offset in the upper 4 bits of byte 12, in 32-bit words
	dataOffset := data[12] >> 4
	headerLen := int(dataOffset) * 4
	if headerLen < tcpHeaderMinLen {
		return nil, nil, core.ErrMalformed
	}
	if len(data) < headerLen {
		return nil, nil, core.ErrTooShort
	}

	tcp := &core.TCPHeader{
		SrcPort:    binary.BigEndian.Uint16(data[0:2]),
		DstPort:    binary.BigEndian.Uint16(data[2:4]),
		Seq:        binary.BigEndian.Uint32(data[4:8]),
		Ack:        binary.BigEndian.Uint32(data[8:12]),
		DataOffset: dataOffset,
		// NS is the low bit of byte 12, the other eight flags fill byte 13
		Flags:    core.TCPFlags(uint16(data[12]&0x01)<<8 | uint16(data[13])),
		Window:   binary.BigEndian.Uint16(data[14:16]),
		Checksum: binary.BigEndian.Uint16(data[16:18]),
		Urgent:   binary.BigEndian.Uint16(data[18:20]),
	}

	return tcp, data[headerLen:], nil
}
