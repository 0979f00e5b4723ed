// Package core defines the frame and header model shared by the decoder, filter and capture packages.
package core

import "time"

// RawFrame is one link-layer frame as read from the capture handle.
// It is consumed within the iteration that read it and never mutated.
type RawFrame struct {
	Data       []byte    // Frame bytes, starting at the Ethernet header
	Timestamp  time.Time // Capture timestamp reported by the handle
	CaptureLen uint32    // Bytes actually captured
	OrigLen    uint32    // Length on the wire
}
