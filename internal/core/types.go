// Package core defines core types with zero external dependencies.
package core

import (
	"fmt"
	"net"
	"net/netip"
	"strings"
)

// LayerType discriminates the decoded header variants.
type LayerType uint8

const (
	LayerEthernet LayerType = iota + 1
	LayerIPv4
	LayerIPv6
	LayerTCP
	LayerUDP
)

func (t LayerType) String() string {
	switch t {
	case LayerEthernet:
		return "Ethernet"
	case LayerIPv4:
		return "IPv4"
	case LayerIPv6:
		return "IPv6"
	case LayerTCP:
		return "TCP"
	case LayerUDP:
		return "UDP"
	default:
		return fmt.Sprintf("LayerType(%d)", uint8(t))
	}
}

// Layer is implemented by every decoded header.
type Layer interface {
	LayerType() LayerType
}

// EtherType values the walker dispatches on.
const (
	EtherTypeIPv4 uint16 = 0x0800
	EtherTypeARP  uint16 = 0x0806
	EtherTypeIPv6 uint16 = 0x86DD
)

// IP protocol numbers the walker dispatches on.
const (
	IPProtocolTCP uint8 = 6
	IPProtocolUDP uint8 = 17
)

// MAC is a 48-bit hardware address.
type MAC [6]byte

// String renders the address as lower-case colon separated hex.
func (m MAC) String() string {
	return net.HardwareAddr(m[:]).String()
}

// EthernetHeader represents L2 Ethernet frame header.
type EthernetHeader struct {
	DstMAC    MAC
	SrcMAC    MAC
	EtherType uint16 // 0x0800=IPv4, 0x86DD=IPv6
}

func (*EthernetHeader) LayerType() LayerType { return LayerEthernet }

// IPv4Header represents the fixed part of an IPv4 header. Options are skipped.
type IPv4Header struct {
	Version    uint8
	IHL        uint8 // Header length in 32-bit words
	TOS        uint8
	TotalLen   uint16
	ID         uint16
	Flags      uint8 // Upper 3 bits of the fragment word
	FragOffset uint16
	TTL        uint8
	Protocol   uint8 // TCP=6, UDP=17
	Checksum   uint16
	SrcIP      netip.Addr
	DstIP      netip.Addr
}

func (*IPv4Header) LayerType() LayerType { return LayerIPv4 }

// HeaderLen returns the header length in bytes.
func (h *IPv4Header) HeaderLen() int { return int(h.IHL) * 4 }

// IPv6Header represents the fixed 40-byte IPv6 header.
type IPv6Header struct {
	Version      uint8
	TrafficClass uint8
	FlowLabel    uint32
	PayloadLen   uint16
	NextHeader   uint8
	HopLimit     uint8
	SrcIP        netip.Addr
	DstIP        netip.Addr
}

func (*IPv6Header) LayerType() LayerType { return LayerIPv6 }

// TCPFlags holds the 9 TCP control bits, NS in bit 8.
type TCPFlags uint16

const (
	TCPFlagFIN TCPFlags = 1 << iota
	TCPFlagSYN
	TCPFlagRST
	TCPFlagPSH
	TCPFlagACK
	TCPFlagURG
	TCPFlagECE
	TCPFlagCWR
	TCPFlagNS
)

var tcpFlagNames = []struct {
	flag TCPFlags
	name string
}{
	{TCPFlagFIN, "FIN"},
	{TCPFlagSYN, "SYN"},
	{TCPFlagRST, "RST"},
	{TCPFlagPSH, "PSH"},
	{TCPFlagACK, "ACK"},
	{TCPFlagURG, "URG"},
	{TCPFlagECE, "ECE"},
	{TCPFlagCWR, "CWR"},
	{TCPFlagNS, "NS"},
}

// Has reports whether all bits in f2 are set.
func (f TCPFlags) Has(f2 TCPFlags) bool { return f&f2 == f2 }

// String renders set flags joined by '|', or "none".
func (f TCPFlags) String() string {
	var names []string
	for _, fn := range tcpFlagNames {
		if f.Has(fn.flag) {
			names = append(names, fn.name)
		}
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, "|")
}

// TCPHeader represents the fixed part of a TCP header.
type TCPHeader struct {
	SrcPort    uint16
	DstPort    uint16
	Seq        uint32
	Ack        uint32
	DataOffset uint8 // Header length in 32-bit words
	Flags      TCPFlags
	Window     uint16
	Checksum   uint16
	Urgent     uint16
}

func (*TCPHeader) LayerType() LayerType { return LayerTCP }

// UDPHeader represents the 8-byte UDP header.
type UDPHeader struct {
	SrcPort  uint16
	DstPort  uint16
	Length   uint16 // Header plus data
	Checksum uint16
}

func (*UDPHeader) LayerType() LayerType { return LayerUDP }
