// Package decoder implements protocol decoding.
package decoder

import (
	"encoding/binary"

	"firestige.xyz/nlyzer/internal/core"
)

const ethernetHeaderLen = 14

// DecodeEthernet decodes an Ethernet II header.
// Returns the header and the remaining payload.
func DecodeEthernet(data []byte) (*core.EthernetHeader, []byte, error) {
	if len(data) < ethernetHeaderLen {
		return nil, nil, core.ErrTooShort
	}

	eth := &core.EthernetHeader{}

	// Destination MAC (6 bytes)
	copy(eth.DstMAC[:], data[0:6])

	// Source MAC (6 bytes)
	copy(eth.SrcMAC[:], data[6:12])

	// EtherType (2 bytes)
	eth.EtherType = binary.BigEndian.Uint16(data[12:14])

	return eth, data[ethernetHeaderLen:], nil
}
