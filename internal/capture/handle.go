package capture

import (
	"fmt"
	"strings"
	"time"

	"firestige.xyz/nlyzer/internal/config"
	"firestige.xyz/nlyzer/internal/core"
)

// Handle is an open capture device.
//
// ReadFrame blocks for at most the read timeout. It returns
// core.ErrReadTimeout when no frame arrived in that interval, io.EOF when
// the source is exhausted, and any other error on device failure.
type Handle interface {
	ReadFrame() (core.RawFrame, error)
	Close() error
}

// OpenOptions are the handle settings applied at activation.
type OpenOptions struct {
	Promiscuous  bool
	Timeout      time.Duration // Read timeout
	SnapLen      int
	BPFFilter    string
	BufferSizeMB int // afpacket ring size
}

// OpenOptionsFromConfig maps the capture section of the config.
func OpenOptionsFromConfig(c config.CaptureConfig) OpenOptions {
	return OpenOptions{
		Promiscuous:  c.Promiscuous,
		Timeout:      c.ReadTimeout(),
		SnapLen:      c.SnapLen,
		BPFFilter:    c.BPFFilter,
		BufferSizeMB: c.BufferSizeMB,
	}
}

// Opener opens a device by name.
type Opener interface {
	Open(name string, opts OpenOptions) (Handle, error)
}

// OpenerFunc adapts a function to Opener.
type OpenerFunc func(name string, opts OpenOptions) (Handle, error)

func (f OpenerFunc) Open(name string, opts OpenOptions) (Handle, error) { return f(name, opts) }

// Engine names a capture backend.
type Engine string

const (
	EnginePcap     Engine = "pcap"
	EngineAFPacket Engine = "afpacket"
)

// ParseEngine converts a string to an Engine, case-insensitively.
func ParseEngine(s string) (Engine, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pcap", "libpcap":
		return EnginePcap, nil
	case "afpacket", "af_packet", "af-packet":
		return EngineAFPacket, nil
	default:
		return "", fmt.Errorf("unknown capture engine: %q", s)
	}
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (e *Engine) UnmarshalText(text []byte) error {
	v, err := ParseEngine(string(text))
	if err != nil {
		return err
	}
	*e = v
	return nil
}

// NewOpener returns the opener for engine.
func NewOpener(engine Engine) (Opener, error) {
	switch engine {
	case EnginePcap:
		return pcapOpener{}, nil
	case EngineAFPacket:
		return newAFPacketOpener()
	default:
		return nil, fmt.Errorf("unsupported capture engine: %s", engine)
	}
}
