//go:build !linux

package capture

import "fmt"

func newAFPacketOpener() (Opener, error) {
	return nil, fmt.Errorf("capture engine %s is only available on linux", EngineAFPacket)
}
