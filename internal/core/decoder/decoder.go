// Package decoder implements L2-L4 protocol stack decoding.
//
// Each Decode* function interprets a byte slice as one header and returns the
// header plus the payload slice that follows it. Walk composes them top-down:
// Ethernet, then IPv4 or IPv6, then TCP or UDP. Decoders never read past the
// slice they are given; a short or malformed header stops the walk at that
// layer and keeps every layer decoded above it.
package decoder

import (
	"fmt"

	"firestige.xyz/nlyzer/internal/core"
)

// Dissection is the ordered result of a top-down walk over one frame.
// Payload slices borrow the frame buffer.
type Dissection struct {
	Layers  []core.Layer
	Payload []byte         // Bytes following the last decoded layer
	Failed  core.LayerType // Layer whose decode failed, zero if none
	Err     error          // Wrapped decode error for Failed
}

// Walk decodes data starting at the Ethernet header. It never returns an error
// of its own: a failure at any layer is recorded in Failed/Err and ends the walk.
func Walk(data []byte) Dissection {
	var d Dissection

	eth, payload, err := DecodeEthernet(data)
	if err != nil {
		d.fail(core.LayerEthernet, err)
		return d
	}
	d.push(eth, payload)

	var proto uint8
	switch eth.EtherType {
	case core.EtherTypeIPv4:
		ip, payload, err := DecodeIPv4(d.Payload)
		if err != nil {
			d.fail(core.LayerIPv4, err)
			return d
		}
		d.push(ip, payload)
		proto = ip.Protocol
	case core.EtherTypeIPv6:
		ip, payload, err := DecodeIPv6(d.Payload)
		if err != nil {
			d.fail(core.LayerIPv6, err)
			return d
		}
		d.push(ip, payload)
		proto = ip.NextHeader
	default:
		// ARP, LLDP, VLAN tagged frames etc. stay opaque
		return d
	}

	switch proto {
	case core.IPProtocolTCP:
		tcp, payload, err := DecodeTCP(d.Payload)
		if err != nil {
			d.fail(core.LayerTCP, err)
			return d
		}
		d.push(tcp, payload)
	case core.IPProtocolUDP:
		udp, payload, err := DecodeUDP(d.Payload)
		if err != nil {
			d.fail(core.LayerUDP, err)
			return d
		}
		d.push(udp, payload)
	}
	return d
}

func (d *Dissection) push(l core.Layer, payload []byte) {
	d.Layers = append(d.Layers, l)
	d.Payload = payload
}

func (d *Dissection) fail(at core.LayerType, err error) {
	d.Failed = at
	d.Err = fmt.Errorf("%s: %w", at, err)
}

// Truncated reports whether the walk stopped on a decode error.
func (d *Dissection) Truncated() bool { return d.Err != nil }

// Ethernet returns the Ethernet layer, or nil.
func (d *Dissection) Ethernet() *core.EthernetHeader {
	if len(d.Layers) == 0 {
		return nil
	}
	eth, _ := d.Layers[0].(*core.EthernetHeader)
	return eth
}

// IPv4 returns the IPv4 layer, or nil.
func (d *Dissection) IPv4() *core.IPv4Header {
	for _, l := range d.Layers {
		if ip, ok := l.(*core.IPv4Header); ok {
			return ip
		}
	}
	return nil
}

// IPv6 returns the IPv6 layer, or nil.
func (d *Dissection) IPv6() *core.IPv6Header {
	for _, l := range d.Layers {
		if ip, ok := l.(*core.IPv6Header); ok {
			return ip
		}
	}
	return nil
}

// TCP returns the TCP layer, or nil.
func (d *Dissection) TCP() *core.TCPHeader {
	for _, l := range d.Layers {
		if tcp, ok := l.(*core.TCPHeader); ok {
			return tcp
		}
	}
	return nil
}

// UDP returns the UDP layer, or nil.
func (d *Dissection) UDP() *core.UDPHeader {
	for _, l := range d.Layers {
		if udp, ok := l.(*core.UDPHeader); ok {
			return udp
		}
	}
	return nil
}
