// Package decoder implements protocol decoding.
package decoder

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/gopacket/layers"
)

type nameTables struct {
	etherTypes  map[uint16]string
	ipProtocols map[uint8]string
}

var (
	registerOnce sync.Once
	names        atomic.Pointer[nameTables]
)

// knownEtherTypes lists the EtherTypes whose names are worth printing.
var knownEtherTypes = []layers.EthernetType{
	layers.EthernetTypeLLC,
	layers.EthernetTypeIPv4,
	layers.EthernetTypeARP,
	layers.EthernetTypeIPv6,
	layers.EthernetTypeCiscoDiscovery,
	layers.EthernetTypeNortelDiscovery,
	layers.EthernetTypeTransparentEthernetBridging,
	layers.EthernetTypeDot1Q,
	layers.EthernetTypePPP,
	layers.EthernetTypePPPoEDiscovery,
	layers.EthernetTypePPPoESession,
	layers.EthernetTypeMPLSUnicast,
	layers.EthernetTypeMPLSMulticast,
	layers.EthernetTypeEAPOL,
	layers.EthernetTypeQinQ,
	layers.EthernetTypeLinkLayerDiscovery,
	layers.EthernetTypeEthernetCTP,
}

// RegisterDefaults fills the EtherType and IP protocol name tables from
// gopacket's enum metadata. It is safe to call any number of times; only the
// first call does work. Until it runs, names render as numeric codes.
func RegisterDefaults() {
	registerOnce.Do(func() {
		t := &nameTables{
			etherTypes:  make(map[uint16]string, len(knownEtherTypes)),
			ipProtocols: make(map[uint8]string),
		}
		for _, et := range knownEtherTypes {
			if name := et.String(); usableName(name) {
				t.etherTypes[uint16(et)] = name
			}
		}
		for i := 0; i < 256; i++ {
			if name := layers.IPProtocol(i).String(); usableName(name) {
				t.ipProtocols[uint8(i)] = name
			}
		}
		names.Store(t)
	})
}

func usableName(name string) bool {
	return name != "" && !strings.HasPrefix(name, "Unknown")
}

// EtherTypeName returns the registered name of an EtherType, or its hex code.
func EtherTypeName(et uint16) string {
	if t := names.Load(); t != nil {
		if name, ok := t.etherTypes[et]; ok {
			return name
		}
	}
	return fmt.Sprintf("0x%04x", et)
}

// IPProtocolName returns the registered name of an IP protocol number, or the number.
func IPProtocolName(proto uint8) string {
	if t := names.Load(); t != nil {
		if name, ok := t.ipProtocols[proto]; ok {
			return name
		}
	}
	return fmt.Sprintf("%d", proto)
}
