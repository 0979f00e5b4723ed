// Package filter decides which decoded frames are shown. A frame is reduced
// to a flat Record and handed to a Predicate, usually a Lua script.
package filter

import (
	"firestige.xyz/nlyzer/internal/core/decoder"
)

// SchemaVersion is bumped whenever a Record key is renamed or its value type changes.
const SchemaVersion = 1

// Record keys as seen by filter scripts.
const (
	KeySchemaVersion = "schema_version"
	KeyFrameLen      = "frame_len"
	KeySrcMAC        = "src_mac"
	KeyDstMAC        = "dst_mac"
	KeyEtherType     = "ethertype"
	KeySrcIP         = "src_ip"
	KeyDstIP         = "dst_ip"
	KeyProtocol      = "protocol"
	KeyUDPSrcPort    = "udp_src_port"
	KeyUDPDstPort    = "udp_dst_port"
	KeyTCPSrcPort    = "tcp_src_port"
	KeyTCPDstPort    = "tcp_dst_port"
	KeyTCPFlags      = "tcp_flags"
)

// Record is the flat view of one frame. Values are string or int; a key is
// absent when the header carrying it was not decoded.
type Record map[string]any

// BuildRecord flattens a dissection of a frame of frameLen bytes.
func BuildRecord(d decoder.Dissection, frameLen int) Record {
	rec := Record{
		KeySchemaVersion: SchemaVersion,
		KeyFrameLen:      frameLen,
	}

	eth := d.Ethernet()
	if eth == nil {
		return rec
	}
	rec[KeySrcMAC] = eth.SrcMAC.String()
	rec[KeyDstMAC] = eth.DstMAC.String()
	rec[KeyEtherType] = decoder.EtherTypeName(eth.EtherType)

	if ip := d.IPv4(); ip != nil {
		rec[KeySrcIP] = ip.SrcIP.String()
		rec[KeyDstIP] = ip.DstIP.String()
		rec[KeyProtocol] = decoder.IPProtocolName(ip.Protocol)
	} else if ip := d.IPv6(); ip != nil {
		rec[KeySrcIP] = ip.SrcIP.String()
		rec[KeyDstIP] = ip.DstIP.String()
		rec[KeyProtocol] = decoder.IPProtocolName(ip.NextHeader)
	}

	if udp := d.UDP(); udp != nil {
		rec[KeyUDPSrcPort] = int(udp.SrcPort)
		rec[KeyUDPDstPort] = int(udp.DstPort)
	}
	if tcp := d.TCP(); tcp != nil {
		rec[KeyTCPSrcPort] = int(tcp.SrcPort)
		rec[KeyTCPDstPort] = int(tcp.DstPort)
		rec[KeyTCPFlags] = tcp.Flags.String()
	}
	return rec
}

// Int returns an integer field and whether it was present.
func (r Record) Int(key string) (int, bool) {
	v, ok := r[key].(int)
	return v, ok
}
