package capture

import (
	"errors"
	"fmt"
	"io"

	"github.com/google/gopacket/pcap"

	"firestige.xyz/nlyzer/internal/core"
	"firestige.xyz/nlyzer/internal/log"
)

// PcapLister enumerates devices through libpcap.
type PcapLister struct{}

func (PcapLister) List() ([]Device, error) {
	devs, err := pcap.FindAllDevs()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrEnumeration, err)
	}

	devices := make([]Device, 0, len(devs))
	for _, d := range devs {
		dev := Device{Name: d.Name, Description: d.Description}
		for _, a := range d.Addresses {
			dev.Addresses = append(dev.Addresses, a.IP.String())
		}
		devices = append(devices, dev)
	}
	return devices, nil
}

type pcapOpener struct{}

// Open activates an inactive libpcap handle configured from opts.
func (pcapOpener) Open(name string, opts OpenOptions) (Handle, error) {
	inactive, err := pcap.NewInactiveHandle(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", core.ErrDeviceOpen, name, err)
	}
	defer inactive.CleanUp()

	if err = inactive.SetPromisc(opts.Promiscuous); err != nil {
		return nil, fmt.Errorf("%w: %s: promiscuous mode: %v", core.ErrDeviceOpen, name, err)
	}
	if err = inactive.SetSnapLen(opts.SnapLen); err != nil {
		return nil, fmt.Errorf("%w: %s: snap length: %v", core.ErrDeviceOpen, name, err)
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = pcap.BlockForever
	}
	if err = inactive.SetTimeout(timeout); err != nil {
		return nil, fmt.Errorf("%w: %s: timeout: %v", core.ErrDeviceOpen, name, err)
	}

	h, err := inactive.Activate()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", core.ErrDeviceOpen, name, err)
	}

	if opts.BPFFilter != "" {
		if err := h.SetBPFFilter(opts.BPFFilter); err != nil {
			h.Close()
			return nil, fmt.Errorf("%w: %s: bpf filter %q: %v", core.ErrDeviceOpen, name, opts.BPFFilter, err)
		}
	}

	log.GetLogger().WithFields(map[string]interface{}{
		"device":    name,
		"link_type": h.LinkType().String(),
		"snap_len":  h.SnapLen(),
	}).Info("pcap handle activated")

	return &pcapHandle{h: h}, nil
}

type pcapHandle struct {
	h *pcap.Handle
}

func (p *pcapHandle) ReadFrame() (core.RawFrame, error) {
	data, ci, err := p.h.ReadPacketData()
	if err != nil {
		var nextErr pcap.NextError
		if errors.As(err, &nextErr) && nextErr == pcap.NextErrorTimeoutExpired {
			return core.RawFrame{}, core.ErrReadTimeout
		}
		if errors.Is(err, io.EOF) {
			return core.RawFrame{}, io.EOF
		}
		return core.RawFrame{}, err
	}
	return core.RawFrame{
		Data:       data,
		Timestamp:  ci.Timestamp,
		CaptureLen: uint32(ci.CaptureLength),
		OrigLen:    uint32(ci.Length),
	}, nil
}

func (p *pcapHandle) Close() error {
	p.h.Close()
	return nil
}
