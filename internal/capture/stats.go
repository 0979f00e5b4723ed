package capture

import "sync/atomic"

// Stats counts what one session did with the frames it read.
type Stats struct {
	read      atomic.Uint64
	accepted  atomic.Uint64
	rejected  atomic.Uint64
	truncated atomic.Uint64
	bytes     atomic.Uint64
}

// StatsSnapshot is a point-in-time copy of Stats.
type StatsSnapshot struct {
	Read      uint64
	Accepted  uint64
	Rejected  uint64
	Truncated uint64
	Bytes     uint64
}

func (s *Stats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		Read:      s.read.Load(),
		Accepted:  s.accepted.Load(),
		Rejected:  s.rejected.Load(),
		Truncated: s.truncated.Load(),
		Bytes:     s.bytes.Load(),
	}
}
