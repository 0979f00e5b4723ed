//go:build linux

package capture

import (
	"errors"
	"fmt"
	"net"
	"os"

	"github.com/google/gopacket/afpacket"

	"firestige.xyz/nlyzer/internal/core"
	"firestige.xyz/nlyzer/internal/log"
)

type afpacketOpener struct{}

func newAFPacketOpener() (Opener, error) { return afpacketOpener{}, nil }

// Open maps a TPACKET_V3 ring on name. The socket does not change the
// interface's promiscuous flag.
func (afpacketOpener) Open(name string, opts OpenOptions) (Handle, error) {
	iface, err := net.InterfaceByName(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", core.ErrDeviceOpen, name, err)
	}

	frameSize, blockSize, numBlocks, err := recomputeSize(opts.BufferSizeMB, opts.SnapLen, os.Getpagesize())
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", core.ErrDeviceOpen, name, err)
	}

	l := log.GetLogger().WithField("device", iface.Name)
	l.WithFields(map[string]interface{}{
		"frame_size": frameSize,
		"block_size": blockSize,
		"num_blocks": numBlocks,
		"snap_len":   opts.SnapLen,
	}).Debug("tpacket configuration")
	if opts.Promiscuous {
		l.Warn("afpacket engine leaves promiscuous mode unchanged")
	}

	tp, err := afpacket.NewTPacket(
		afpacket.OptInterface(iface.Name),
		afpacket.OptFrameSize(frameSize),
		afpacket.OptBlockSize(blockSize),
		afpacket.OptNumBlocks(numBlocks),
		afpacket.OptPollTimeout(opts.Timeout),
		afpacket.SocketRaw,
		afpacket.TPacketVersion3,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", core.ErrDeviceOpen, name, err)
	}

	if opts.BPFFilter != "" {
		raw, err := compileBPF(opts.BPFFilter, opts.SnapLen)
		if err == nil {
			err = tp.SetBPF(raw)
		}
		if err != nil {
			tp.Close()
			return nil, fmt.Errorf("%w: %s: %v", core.ErrDeviceOpen, name, err)
		}
		l.WithField("filter", opts.BPFFilter).Info("BPF filter set")
	}

	return &afpacketHandle{tp: tp}, nil
}

type afpacketHandle struct {
	tp *afpacket.TPacket
}

func (h *afpacketHandle) ReadFrame() (core.RawFrame, error) {
	data, ci, err := h.tp.ReadPacketData()
	if err != nil {
		if errors.Is(err, afpacket.ErrTimeout) {
			return core.RawFrame{}, core.ErrReadTimeout
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

func (h *afpacketHandle) Close() error {
	h.tp.Close()
	return nil
}
