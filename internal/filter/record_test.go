package filter

import (
	"net"
	"os"
	"testing"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"firestige.xyz/nlyzer/internal/core/decoder"
)

func TestMain(m *testing.M) {
	decoder.RegisterDefaults()
	os.Exit(m.Run())
}

var (
	srcMAC = net.HardwareAddr{0x00, 0x11, 0x22, 0x33, 0x44, 0x55}
	dstMAC = net.HardwareAddr{0x66, 0x77, 0x88, 0x99, 0xaa, 0xbb}
)

func frame(t *testing.T, ls ...gopacket.SerializableLayer) []byte {
	t.Helper()
	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
	require.NoError(t, gopacket.SerializeLayers(buf, opts, ls...))
	return buf.Bytes()
}

func udpFrame(t *testing.T, sport, dport uint16) []byte {
	eth := &layers.Ethernet{SrcMAC: srcMAC, DstMAC: dstMAC, EthernetType: layers.EthernetTypeIPv4}
	ip := &layers.IPv4{Version: 4, TTL: 64, Protocol: layers.IPProtocolUDP,
		SrcIP: net.IP{10, 0, 0, 1}, DstIP: net.IP{224, 0, 0, 251}}
	udp := &layers.UDP{SrcPort: layers.UDPPort(sport), DstPort: layers.UDPPort(dport)}
	require.NoError(t, udp.SetNetworkLayerForChecksum(ip))
	return frame(t, eth, ip, udp)
}

func tcpFrame(t *testing.T) []byte {
	eth := &layers.Ethernet{SrcMAC: srcMAC, DstMAC: dstMAC, EthernetType: layers.EthernetTypeIPv6}
	ip := &layers.IPv6{Version: 6, HopLimit: 64, NextHeader: layers.IPProtocolTCP,
		SrcIP: net.ParseIP("fe80::1"), DstIP: net.ParseIP("fe80::2")}
	tcp := &layers.TCP{SrcPort: 52000, DstPort: 443, SYN: true, Window: 1024}
	require.NoError(t, tcp.SetNetworkLayerForChecksum(ip))
	return frame(t, eth, ip, tcp)
}

func TestBuildRecordUDPv4(t *testing.T) {
	data := udpFrame(t, 5353, 5353)
	rec := BuildRecord(decoder.Walk(data), len(data))

	assert.Equal(t, Record{
		KeySchemaVersion: 1,
		KeyFrameLen:      len(data),
		KeySrcMAC:        "00:11:22:33:44:55",
		KeyDstMAC:        "66:77:88:99:aa:bb",
		KeyEtherType:     "IPv4",
		KeySrcIP:         "10.0.0.1",
		KeyDstIP:         "224.0.0.251",
		KeyProtocol:      "UDP",
		KeyUDPSrcPort:    5353,
		KeyUDPDstPort:    5353,
	}, rec)
}

func TestBuildRecordTCPv6(t *testing.T) {
	data := tcpFrame(t)
	rec := BuildRecord(decoder.Walk(data), len(data))

	assert.Equal(t, "IPv6", rec[KeyEtherType])
	assert.Equal(t, "fe80::1", rec[KeySrcIP])
	assert.Equal(t, "TCP", rec[KeyProtocol])
	assert.Equal(t, 52000, rec[KeyTCPSrcPort])
	assert.Equal(t, 443, rec[KeyTCPDstPort])
	assert.Equal(t, "SYN", rec[KeyTCPFlags])
	assert.NotContains(t, rec, KeyUDPSrcPort)
	assert.NotContains(t, rec, KeyUDPDstPort)
}

func TestBuildRecordNonIP(t *testing.T) {
	data := frame(t, &layers.Ethernet{SrcMAC: srcMAC, DstMAC: dstMAC, EthernetType: layers.EthernetTypeLinkLayerDiscovery},
		gopacket.Payload(make([]byte, 46)))
	rec := BuildRecord(decoder.Walk(data), len(data))

	assert.Equal(t, "LinkLayerDiscovery", rec[KeyEtherType])
	for _, k := range []string{KeySrcIP, KeyDstIP, KeyProtocol, KeyUDPDstPort, KeyTCPDstPort} {
		assert.NotContains(t, rec, k)
	}
}

func TestBuildRecordNoEthernet(t *testing.T) {
	rec := BuildRecord(decoder.Walk([]byte{1, 2, 3}), 3)
	assert.Equal(t, Record{KeySchemaVersion: 1, KeyFrameLen: 3}, rec)
}

func TestRecordAccessors(t *testing.T) {
	rec := Record{KeyUDPDstPort: 53, KeyProtocol: "UDP"}

	v, ok := rec.Int(KeyUDPDstPort)
	assert.True(t, ok)
	assert.Equal(t, 53, v)

	_, ok = rec.Int(KeyProtocol)
	assert.False(t, ok)

	_, ok = rec.Int(KeySrcIP)
	assert.False(t, ok)
}
