package capture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"firestige.xyz/nlyzer/internal/core"
	"firestige.xyz/nlyzer/internal/core/decoder"
	"firestige.xyz/nlyzer/internal/filter"
	"firestige.xyz/nlyzer/internal/log"
	"firestige.xyz/nlyzer/internal/metrics"
)

// OutputMode selects how an accepted frame is rendered.
type OutputMode int

const (
	// OutputFull renders every decoded layer as a multi-line block.
	OutputFull OutputMode = iota
	// OutputSummary renders one line per frame.
	OutputSummary
)

// ParseOutputMode maps "full" and "summary".
func ParseOutputMode(s string) (OutputMode, error) {
	switch s {
	case "", "full":
		return OutputFull, nil
	case "summary":
		return OutputSummary, nil
	default:
		return OutputFull, fmt.Errorf("unknown output mode: %q", s)
	}
}

// Accepter decides whether a frame is shown.
type Accepter interface {
	Accept(rec filter.Record) bool
}

// Stop reasons reported by Session.Reason.
const (
	ReasonCancelled   = "cancelled"
	ReasonEndOfStream = "end of stream"
)

// Session is one capture run over an open handle. It is driven by Run
// and must not be reused.
type Session struct {
	Device string
	Handle Handle
	Filter Accepter
	Sink   Sink
	Mode   OutputMode
	Cancel *Cancellation
	Stats  *Stats

	reason string
}

// Run reads frames until the cancellation flag or ctx is observed, the
// handle reports io.EOF, or a read fails. The flag is checked before each
// read, so at most one frame already read when Cancel is called is still
// processed. Cancellation and end of stream return nil; a read failure
// returns an error wrapping core.ErrFrameRead.
func (s *Session) Run(ctx context.Context) error {
	if s.Cancel == nil {
		s.Cancel = NewCancellation()
	}
	if s.Stats == nil {
		s.Stats = &Stats{}
	}
	if s.Filter == nil {
		s.Filter = filter.NewAdapter(s.Device, nil)
	}

	l := log.GetLogger().WithField("device", s.Device)
	for {
		if s.Cancel.Cancelled() || ctx.Err() != nil {
			s.reason = ReasonCancelled
			return nil
		}

		frame, err := s.Handle.ReadFrame()
		switch {
		case err == nil:
		case errors.Is(err, core.ErrReadTimeout):
			continue
		case errors.Is(err, io.EOF):
			s.reason = ReasonEndOfStream
			return nil
		default:
			err = fmt.Errorf("%w: %v", core.ErrFrameRead, err)
			s.reason = err.Error()
			l.WithError(err).Error("capture stopped on read error")
			return err
		}

		s.process(frame)
	}
}

// Reason describes why Run returned. Empty while running.
func (s *Session) Reason() string { return s.reason }

func (s *Session) process(frame core.RawFrame) {
	s.Stats.read.Add(1)
	s.Stats.bytes.Add(uint64(len(frame.Data)))
	metrics.FramesReadTotal.WithLabelValues(s.Device).Inc()
	metrics.FrameSizeBytes.WithLabelValues(s.Device).Observe(float64(len(frame.Data)))

	d := decoder.Walk(frame.Data)
	if d.Truncated() {
		s.Stats.truncated.Add(1)
		metrics.DecodeTruncatedTotal.WithLabelValues(s.Device, d.Failed.String()).Inc()
	}
	if d.Ethernet() == nil {
		// Nothing to filter on or show.
		return
	}

	if !s.Filter.Accept(filter.BuildRecord(d, len(frame.Data))) {
		s.Stats.rejected.Add(1)
		metrics.FramesRejectedTotal.WithLabelValues(s.Device).Inc()
		return
	}
	s.Stats.accepted.Add(1)
	metrics.FramesAcceptedTotal.WithLabelValues(s.Device).Inc()

	if s.Sink == nil {
		return
	}
	switch s.Mode {
	case OutputSummary:
		s.Sink.Emit(stamp(frame.Timestamp) + " " + decoder.FormatSummary(d))
	default:
		s.Sink.Emit(decoder.FormatDissection(d))
	}
}

func stamp(ts time.Time) string {
	if ts.IsZero() {
		ts = time.Now()
	}
	return ts.Format("15:04:05.000000")
}
