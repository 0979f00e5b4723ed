// Package decoder implements protocol decoding.
package decoder

import (
	"encoding/binary"
	"net/netip"

	"firestige.xyz/nlyzer/internal/core"
)

const (
	ipv4HeaderMinLen = 20
	ipv6HeaderLen    = 40
)

// DecodeIPv4 decodes an IPv4 header. Options are skipped.
// The payload is trimmed to Total Length when it fits in data, which drops link-layer padding.
func DecodeIPv4(data []byte) (*core.IPv4Header, []byte, error) {
	if len(data) < ipv4HeaderMinLen {
		return nil, nil, core.ErrTooShort
	}

	version := data[0] >> 4
	if version != 4 {
		return nil, nil, core.ErrBadVersion
	}

	// IHL is in 32-bit words
	ihl := data[0] & 0x0F
	headerLen := int(ihl) * 4
	if headerLen < ipv4HeaderMinLen {
		return nil, nil, core.ErrMalformed
	}
	if len(data) < headerLen {
		return nil, nil, core.ErrTooShort
	}

	frag := binary.BigEndian.Uint16(data[6:8])
	ip := &core.IPv4Header{
		Version:    version,
		IHL:        ihl,
		TOS:        data[1],
		TotalLen:   binary.BigEndian.Uint16(data[2:4]),
		ID:         binary.BigEndian.Uint16(data[4:6]),
		Flags:      uint8(frag >> 13),
		FragOffset: frag & 0x1FFF,
		TTL:        data[8],
		Protocol:   data[9],
		Checksum:   binary.BigEndian.Uint16(data[10:12]),
		SrcIP:      netip.AddrFrom4([4]byte(data[12:16])),
		DstIP:      netip.AddrFrom4([4]byte(data[16:20])),
	}

	payload := data[headerLen:]
	if total := int(ip.TotalLen); total >= headerLen && total <= len(data) {
		payload = data[headerLen:total]
	}
	return ip, payload, nil
}

// DecodeIPv6 decodes the fixed IPv6 header. Extension headers are not walked:
// the payload starts at offset 40 and NextHeader is reported as-is.
func DecodeIPv6(data []byte) (*core.IPv6Header, []byte, error) {
	if len(data) < ipv6HeaderLen {
		return nil, nil, core.ErrTooShort
	}

	version := data[0] >> 4
	if version != 6 {
		return nil, nil, core.ErrBadVersion
	}

	ip := &core.IPv6Header{
		Version:      version,
		TrafficClass: data[0]<<4 | data[1]>>4,
		FlowLabel:    uint32(data[1]&0x0F)<<16 | uint32(data[2])<<8 | uint32(data[3]),
		PayloadLen:   binary.BigEndian.Uint16(data[4:6]),
		NextHeader:   data[6],
		HopLimit:     data[7],
		SrcIP:        netip.AddrFrom16([16]byte(data[8:24])),
		DstIP:        netip.AddrFrom16([16]byte(data[24:40])),
	}

	payload := data[ipv6HeaderLen:]
	if pl := int(ip.PayloadLen); pl <= len(payload) {
		payload = payload[:pl]
	}
	return ip, payload, nil
}
