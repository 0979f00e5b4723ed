package tui

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"firestige.xyz/nlyzer/internal/capture"
	"firestige.xyz/nlyzer/internal/core"
)

// devicesMsg asks the model to show the device chooser.
type devicesMsg struct {
	devices []capture.Device
	timeout time.Duration
}

// statusMsg carries a scanner status line.
type statusMsg string

// bridge moves messages from the capture goroutine into the program. Sends
// never block the sender; a full queue drops the message.
type bridge struct {
	events chan tea.Msg
}

func newBridge(size int) *bridge {
	return &bridge{events: make(chan tea.Msg, size)}
}

func (b *bridge) send(msg tea.Msg) bool {
	select {
	case b.events <- msg:
		return true
	default:
		return false
	}
}

func (b *bridge) status(msg string) { b.send(statusMsg(msg)) }

func (b *bridge) wait() tea.Cmd {
	return func() tea.Msg { return <-b.events }
}

// resolver lets the operator choose a device in the UI. A choice of -1
// aborts the selection. The timeout applies per entry: every rejected
// entry restarts it, as the console prompt does.
type resolver struct {
	bridge  *bridge
	choice  chan int
	retry   chan struct{}
	timeout time.Duration
}

var _ capture.DeviceResolver = (*resolver)(nil)

func newResolver(b *bridge, timeout time.Duration) *resolver {
	return &resolver{bridge: b, choice: make(chan int, 1), retry: make(chan struct{}, 1), timeout: timeout}
}

func (r *resolver) Resolve(ctx context.Context, devices []capture.Device) (capture.Device, error) {
	if len(devices) == 0 {
		return capture.Device{}, core.ErrNoDevices
	}
	// Discard answers left over from an earlier prompt.
	select {
	case <-r.choice:
	default:
	}
	select {
	case <-r.retry:
	default:
	}

	select {
	case r.bridge.events <- devicesMsg{devices: devices, timeout: r.timeout}:
	case <-ctx.Done():
		return capture.Device{}, ctx.Err()
	}

	timer := time.NewTimer(r.timeout)
	defer timer.Stop()
	for {
		select {
		case i := <-r.choice:
			if i < 0 {
				return capture.Device{}, core.ErrSelectionAborted
			}
			if i >= len(devices) {
				return capture.Device{}, fmt.Errorf("%w: device number %d out of range", core.ErrSelectionInvalid, i+1)
			}
			return devices[i], nil
		case <-r.retry:
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(r.timeout)
		case <-timer.C:
			return capture.Device{}, core.ErrSelectionTimeout
		case <-ctx.Done():
			return capture.Device{}, ctx.Err()
		}
	}
}

// choose delivers the operator's answer without blocking the UI.
func (r *resolver) choose(i int) {
	select {
	case r.choice <- i:
	default:
	}
}

// restart gives the operator a fresh timeout after a rejected entry.
func (r *resolver) restart() {
	select {
	case r.retry <- struct{}{}:
	default:
	}
}
