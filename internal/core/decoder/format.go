// Package decoder implements protocol decoding.
package decoder

import (
	"fmt"
	"strings"

	"firestige.xyz/nlyzer/internal/core"
)

// FormatDissection renders every decoded layer as an indented block, one field per line.
func FormatDissection(d Dissection) string {
	var b strings.Builder
	for _, l := range d.Layers {
		switch h := l.(type) {
		case *core.EthernetHeader:
			b.WriteString("Ethernet Packet:\n")
			fmt.Fprintf(&b, "  Source MAC: %s\n", h.SrcMAC)
			fmt.Fprintf(&b, "  Destination MAC: %s\n", h.DstMAC)
			fmt.Fprintf(&b, "  EtherType: %s\n", EtherTypeName(h.EtherType))
		case *core.IPv4Header:
			b.WriteString("IPv4 Packet:\n")
			fmt.Fprintf(&b, "  Source IP: %s\n", h.SrcIP)
			fmt.Fprintf(&b, "  Destination IP: %s\n", h.DstIP)
			fmt.Fprintf(&b, "  Protocol: %s\n", IPProtocolName(h.Protocol))
			fmt.Fprintf(&b, "  TTL: %d\n", h.TTL)
			fmt.Fprintf(&b, "  Total Length: %d\n", h.TotalLen)
		case *core.IPv6Header:
			b.WriteString("IPv6 Packet:\n")
			fmt.Fprintf(&b, "  Source IP: %s\n", h.SrcIP)
			fmt.Fprintf(&b, "  Destination IP: %s\n", h.DstIP)
			fmt.Fprintf(&b, "  Protocol: %s\n", IPProtocolName(h.NextHeader))
			fmt.Fprintf(&b, "  Hop Limit: %d\n", h.HopLimit)
			fmt.Fprintf(&b, "  Payload Length: %d\n", h.PayloadLen)
		case *core.TCPHeader:
			b.WriteString("TCP Packet:\n")
			fmt.Fprintf(&b, "  Source Port: %d\n", h.SrcPort)
			fmt.Fprintf(&b, "  Destination Port: %d\n", h.DstPort)
			fmt.Fprintf(&b, "  Sequence Number: %d\n", h.Seq)
			fmt.Fprintf(&b, "  Acknowledgment Number: %d\n", h.Ack)
			fmt.Fprintf(&b, "  Flags: %s\n", h.Flags)
		case *core.UDPHeader:
			b.WriteString("UDP Packet:\n")
			fmt.Fprintf(&b, "  Source Port: %d\n", h.SrcPort)
			fmt.Fprintf(&b, "  Destination Port: %d\n", h.DstPort)
			fmt.Fprintf(&b, "  Length: %d\n", h.Length)
			fmt.Fprintf(&b, "  Checksum: %d\n", h.Checksum)
		}
	}
	if d.Err != nil {
		fmt.Fprintf(&b, "Truncated: %v\n", d.Err)
	}
	return b.String()
}

// FormatSummary renders the dissection as one line:
//
//	aa:bb:cc:dd:ee:ff > 11:22:33:44:55:66 IPv4 10.0.0.1 > 10.0.0.2 UDP 5353 > 5353
//
// It returns "" when there is no Ethernet layer.
func FormatSummary(d Dissection) string {
	eth := d.Ethernet()
	if eth == nil {
		return ""
	}

	parts := []string{eth.SrcMAC.String(), ">", eth.DstMAC.String(), EtherTypeName(eth.EtherType)}
	if ip := d.IPv4(); ip != nil {
		parts = append(parts, ip.SrcIP.String(), ">", ip.DstIP.String(), IPProtocolName(ip.Protocol))
	} else if ip := d.IPv6(); ip != nil {
		parts = append(parts, ip.SrcIP.String(), ">", ip.DstIP.String(), IPProtocolName(ip.NextHeader))
	}
	if tcp := d.TCP(); tcp != nil {
		parts = append(parts, fmt.Sprint(tcp.SrcPort), ">", fmt.Sprint(tcp.DstPort), "["+tcp.Flags.String()+"]")
	} else if udp := d.UDP(); udp != nil {
		parts = append(parts, fmt.Sprint(udp.SrcPort), ">", fmt.Sprint(udp.DstPort))
	}
	if d.Failed != 0 {
		parts = append(parts, "(truncated at "+d.Failed.String()+")")
	}
	return strings.Join(parts, " ")
}
