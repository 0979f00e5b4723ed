// Package core defines sentinel errors.
package core

import "errors"

// Sentinel errors. Callers wrap them with fmt.Errorf("...: %w", err) and test with errors.Is.
var (
	// Device enumeration and selection errors
	ErrEnumeration      = errors.New("nlyzer: cannot list capture devices")
	ErrNoDevices        = errors.New("nlyzer: no capture devices found")
	ErrSelectionTimeout = errors.New("nlyzer: no device selected before timeout")
	ErrSelectionInvalid = errors.New("nlyzer: invalid device selection")
	ErrSelectionAborted = errors.New("nlyzer: device selection aborted")

	// Capture session errors
	ErrDeviceOpen    = errors.New("nlyzer: cannot open capture device")
	ErrFrameRead     = errors.New("nlyzer: frame read failed")
	ErrReadTimeout   = errors.New("nlyzer: frame read timeout")
	ErrSessionActive = errors.New("nlyzer: capture session already active")

	// Frame decoding errors
	ErrTooShort   = errors.New("nlyzer: header truncated")
	ErrMalformed  = errors.New("nlyzer: malformed header")
	ErrBadVersion = errors.New("nlyzer: unexpected IP version")

	// Filter errors
	ErrFilterLoad       = errors.New("nlyzer: filter script load failed")
	ErrFilterInvocation = errors.New("nlyzer: filter invocation failed")

	// Configuration errors
	ErrConfigInvalid = errors.New("nlyzer: invalid configuration")
)
