package decoder

import (
	"errors"
	"testing"

	"firestige.xyz/nlyzer/internal/core"
)

func TestDecodeUDP(t *testing.T) {
	// Minimal UDP header (8 bytes)
	data := []byte{
		0x13, 0x88, // Src Port: 5000
		0x13, 0x89, // Dst Port: 5001
		0x00, 0x0C, // Length: 12 bytes (8 header + 4 payload)
		0xBE, 0xEF, // Checksum
		0x01, 0x02, 0x03, 0x04, // Payload
	}

	udp, payload, err := DecodeUDP(data)
	if err != nil {
		t.Fatalf("DecodeUDP failed: %v", err)
	}

	if udp.SrcPort != 5000 {
		t.Errorf("Expected SrcPort 5000, got %d", udp.SrcPort)
	}
	if udp.DstPort != 5001 {
		t.Errorf("Expected DstPort 5001, got %d", udp.DstPort)
	}
	if udp.Length != 12 {
		t.Errorf("Expected Length 12, got %d", udp.Length)
	}
	if udp.Checksum != 0xBEEF {
		t.Errorf("Expected Checksum 0xBEEF, got 0x%04x", udp.Checksum)
	}
	if len(payload) != 4 {
		t.Errorf("Expected payload length 4, got %d", len(payload))
	}
}

func TestDecodeUDPTooShort(t *testing.T) {
	_, _, err := DecodeUDP([]byte{0x13, 0x88, 0x13, 0x89, 0x00, 0x08, 0x00})
	if !errors.Is(err, core.ErrTooShort) {
		t.Errorf("Expected ErrTooShort, got %v", err)
	}
}

func TestDecodeTCP(t *testing.T) {
	// Minimal TCP header (20 bytes)
	data := []byte{
		0x13, 0x88, // Src Port: 5000
		0x13, 0x89, // Dst Port: 5001
		0x00, 0x00, 0x00, 0x01, // Seq Num: 1
		0x00, 0x00, 0x00, 0x02, // Ack Num: 2
		0x50,       // Data Offset: 5 (20 bytes)
		0x18,       // Flags: ACK + PSH
		0x20, 0x00, // Window Size
		0x00, 0x00, // Checksum
		0x00, 0x00, // Urgent Pointer
		0x01, 0x02, 0x03, 0x04, // Payload
	}

	tcp, payload, err := DecodeTCP(data)
	if err != nil {
		t.Fatalf("DecodeTCP failed: %v", err)
	}

	if tcp.SrcPort != 5000 {
		t.Errorf("Expected SrcPort 5000, got %d", tcp.SrcPort)
	}
	if tcp.DstPort != 5001 {
		t.Errorf("Expected DstPort 5001, got %d", tcp.DstPort)
	}
	if tcp.Seq != 1 {
		t.Errorf("Expected Seq 1, got %d", tcp.Seq)
	}
	if tcp.Ack != 2 {
		t.Errorf("Expected Ack 2, got %d", tcp.Ack)
	}
	if tcp.Flags != core.TCPFlagACK|core.TCPFlagPSH {
		t.Errorf("Expected ACK|PSH, got %s", tcp.Flags)
	}
	if tcp.Window != 0x2000 {
		t.Errorf("Expected Window 0x2000, got 0x%04x", tcp.Window)
	}
	if len(payload) != 4 {
		t.Errorf("Expected payload length 4, got %d", len(payload))
	}
}

func TestDecodeTCPFlags(t *testing.T) {
	tests := []struct {
		name   string
		byte12 byte
		byte13 byte
		want   core.TCPFlags
	}{
		{"SYN", 0x50, 0x02, core.TCPFlagSYN},
		{"SYN-ACK", 0x50, 0x12, core.TCPFlagSYN | core.TCPFlagACK},
		{"FIN-ACK", 0x50, 0x11, core.TCPFlagFIN | core.TCPFlagACK},
		{"RST", 0x50, 0x04, core.TCPFlagRST},
		{"URG", 0x50, 0x20, core.TCPFlagURG},
		{"ECE-CWR", 0x50, 0xC0, core.TCPFlagECE | core.TCPFlagCWR},
		{"NS", 0x51, 0x00, core.TCPFlagNS},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := make([]byte, 20)
			data[12], data[13] = tt.byte12, tt.byte13
			tcp, _, err := DecodeTCP(data)
			if err != nil {
				t.Fatalf("DecodeTCP failed: %v", err)
			}
			if tcp.Flags != tt.want {
				t.Errorf("Expected %s, got %s", tt.want, tcp.Flags)
			}
		})
	}
}

func TestDecodeTCPWithOptions(t *testing.T) {
	data := make([]byte, 24+1)
	data[12] = 0x60 // Data Offset: 6 (24 bytes)
	data[24] = 0x7F

	tcp, payload, err := DecodeTCP(data)
	if err != nil {
		t.Fatalf("DecodeTCP failed: %v", err)
	}
	if tcp.DataOffset != 6 {
		t.Errorf("Expected DataOffset 6, got %d", tcp.DataOffset)
	}
	if len(payload) != 1 || payload[0] != 0x7F {
		t.Errorf("Expected payload after options, got %x", payload)
	}
}

func TestDecodeTCPErrors(t *testing.T) {
	offsetTooBig := make([]byte, 20)
	offsetTooBig[12] = 0x80 // 32 bytes claimed

	offsetTooSmall := make([]byte, 20)
	offsetTooSmall[12] = 0x40

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"19 bytes", make([]byte, 19), core.ErrTooShort},
		{"data offset exceeds buffer", offsetTooBig, core.ErrTooShort},
		{"data offset below minimum", offsetTooSmall, core.ErrMalformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := DecodeTCP(tt.data); !errors.Is(err, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}
		})
	}
}
