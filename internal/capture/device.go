// Package capture owns the capture session: it enumerates devices, opens
// one, reads frames in a loop and routes accepted frames to a sink until
// cancelled or the device fails.
package capture

import (
	"context"
	"fmt"

	"firestige.xyz/nlyzer/internal/core"
)

// Device is one capture-capable interface.
type Device struct {
	Name        string
	Description string
	Addresses   []string
}

// DeviceLister enumerates capture-capable interfaces.
type DeviceLister interface {
	List() ([]Device, error)
}

// DeviceResolver picks one device out of a non-empty list.
type DeviceResolver interface {
	Resolve(ctx context.Context, devices []Device) (Device, error)
}

// DeviceListerFunc adapts a function to DeviceLister.
type DeviceListerFunc func() ([]Device, error)

func (f DeviceListerFunc) List() ([]Device, error) { return f() }

// StaticResolver resolves the device whose name was given up front,
// e.g. on the command line.
type StaticResolver struct {
	Name string
}

func (r StaticResolver) Resolve(_ context.Context, devices []Device) (Device, error) {
	for _, d := range devices {
		if d.Name == r.Name {
			return d, nil
		}
	}
	return Device{}, fmt.Errorf("%w: no device named %q", core.ErrSelectionInvalid, r.Name)
}
