package capture

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"firestige.xyz/nlyzer/internal/core"
	"firestige.xyz/nlyzer/internal/filter"
	"firestige.xyz/nlyzer/internal/log"
	"firestige.xyz/nlyzer/internal/metrics"
)

// State is the scanner lifecycle: Idle → Selecting → Capturing → Stopped.
type State int32

const (
	StateIdle State = iota
	StateSelecting
	StateCapturing
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSelecting:
		return "selecting device"
	case StateCapturing:
		return "capturing"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// PredicateLoader builds the frame filter at the start of each session.
type PredicateLoader func() (filter.Predicate, error)

// ScannerOptions wires a Scanner. Lister, Resolver and Opener are required.
type ScannerOptions struct {
	Lister        DeviceLister
	Resolver      DeviceResolver
	Opener        Opener
	Open          OpenOptions
	Mode          OutputMode
	Sink          Sink
	LoadPredicate PredicateLoader // nil accepts every frame
	OnStatus      func(msg string)
}

// Scanner runs at most one capture session at a time.
type Scanner struct {
	opts   ScannerOptions
	state  atomic.Int32
	active atomic.Bool

	mu     sync.Mutex
	stats  *Stats
	device string
}

func NewScanner(opts ScannerOptions) *Scanner {
	return &Scanner{opts: opts, stats: &Stats{}}
}

// Scan runs a full session on the calling goroutine: list devices, resolve
// one, open it and capture until cancel, ctx, end of stream or a read
// failure. It returns core.ErrSessionActive if another session is running.
func (s *Scanner) Scan(ctx context.Context, cancel *Cancellation) error {
	if !s.active.CompareAndSwap(false, true) {
		return core.ErrSessionActive
	}
	defer s.active.Store(false)
	return s.run(ctx, cancel)
}

// Start is Scan on a new goroutine. The returned channel yields Scan's
// result once and is then closed.
func (s *Scanner) Start(ctx context.Context, cancel *Cancellation) (<-chan error, error) {
	if !s.active.CompareAndSwap(false, true) {
		return nil, core.ErrSessionActive
	}
	done := make(chan error, 1)
	go func() {
		err := s.run(ctx, cancel)
		s.active.Store(false)
		done <- err
		close(done)
	}()
	return done, nil
}

// Active reports whether a session is running.
func (s *Scanner) Active() bool { return s.active.Load() }

func (s *Scanner) State() State { return State(s.state.Load()) }

// Stats returns the counters of the current or most recent session.
func (s *Scanner) Stats() StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats.Snapshot()
}

// Device returns the device of the current or most recent session.
func (s *Scanner) Device() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.device
}

func (s *Scanner) run(ctx context.Context, cancel *Cancellation) error {
	if cancel == nil {
		cancel = NewCancellation()
	}

	s.setState(StateSelecting)
	s.status("Listing available devices...")
	devices, err := s.opts.Lister.List()
	if err != nil {
		if !errors.Is(err, core.ErrEnumeration) {
			err = fmt.Errorf("%w: %v", core.ErrEnumeration, err)
		}
		return s.fail(err)
	}
	if len(devices) == 0 {
		return s.fail(core.ErrNoDevices)
	}

	dev, err := s.opts.Resolver.Resolve(ctx, devices)
	if err != nil {
		// A stop request during selection ends the scan like a stop during capture.
		if ctx.Err() != nil || cancel.Cancelled() {
			s.stop(ReasonCancelled)
			return nil
		}
		return s.fail(err)
	}
	s.status("Selected device: " + dev.Name)

	if cancel.Cancelled() || ctx.Err() != nil {
		s.stop(ReasonCancelled)
		return nil
	}

	var pred filter.Predicate
	if s.opts.LoadPredicate != nil {
		if pred, err = s.opts.LoadPredicate(); err != nil {
			return s.fail(err)
		}
		if c, ok := pred.(interface{ Close() }); ok {
			defer c.Close()
		}
	}

	h, err := s.opts.Opener.Open(dev.Name, s.opts.Open)
	if err != nil {
		if !errors.Is(err, core.ErrDeviceOpen) {
			err = fmt.Errorf("%w: %s: %v", core.ErrDeviceOpen, dev.Name, err)
		}
		return s.fail(err)
	}
	defer func() {
		if err := h.Close(); err != nil {
			log.GetLogger().WithError(err).WithField("device", dev.Name).Warn("close capture handle")
		}
	}()

	stats := &Stats{}
	s.mu.Lock()
	s.stats = stats
	s.device = dev.Name
	s.mu.Unlock()

	sess := &Session{
		Device: dev.Name,
		Handle: h,
		Filter: filter.NewAdapter(dev.Name, pred),
		Sink:   s.opts.Sink,
		Mode:   s.opts.Mode,
		Cancel: cancel,
		Stats:  stats,
	}

	s.setState(StateCapturing)
	s.status("Scanning on device: " + dev.Name)
	if err := sess.Run(ctx); err != nil {
		return s.fail(err)
	}
	s.stop(sess.Reason())
	return nil
}

func (s *Scanner) fail(err error) error {
	log.GetLogger().WithError(err).Warn("scan stopped")
	s.stop(err.Error())
	return err
}

func (s *Scanner) stop(cause string) {
	s.setState(StateStopped)
	s.status("Scan stopped: " + cause)
}

func (s *Scanner) setState(st State) {
	s.state.Store(int32(st))
	metrics.ScannerState.Set(float64(st))
}

func (s *Scanner) status(msg string) {
	log.GetLogger().Debug(msg)
	if s.opts.OnStatus != nil {
		s.opts.OnStatus(msg)
	}
}
