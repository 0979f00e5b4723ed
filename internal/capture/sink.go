package capture

import (
	"context"
	"io"
	"strings"
	"sync"
	"sync/atomic"

	"firestige.xyz/nlyzer/internal/metrics"
)

// Sink receives one rendered line per accepted frame. Emit must not block
// the capture loop.
type Sink interface {
	Emit(line string)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(line string)

func (f SinkFunc) Emit(line string) { f(line) }

// ChannelSink delivers lines over a bounded channel. When the channel is
// full or closed the line is dropped and counted.
type ChannelSink struct {
	mu     sync.RWMutex
	ch     chan string
	closed bool
	drops  atomic.Uint64
}

func NewChannelSink(capacity int) *ChannelSink {
	if capacity < 0 {
		capacity = 0
	}
	return &ChannelSink{ch: make(chan string, capacity)}
}

func (s *ChannelSink) Emit(line string) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		s.drop()
		return
	}
	select {
	case s.ch <- line:
	default:
		s.drop()
	}
}

func (s *ChannelSink) drop() {
	s.drops.Add(1)
	metrics.SinkDropsTotal.WithLabelValues("channel").Inc()
}

// C returns the receive side. It is closed by Close.
func (s *ChannelSink) C() <-chan string { return s.ch }

// Drops returns the number of lines dropped so far.
func (s *ChannelSink) Drops() uint64 { return s.drops.Load() }

// Close closes the channel. Later Emits are dropped; repeated Closes are no-ops.
func (s *ChannelSink) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
}

// WriterSink writes lines to w from its own goroutine through a bounded
// queue, so a stalled writer never holds up the capture loop. Lines that
// find the queue full, and lines whose write fails, are counted as drops.
type WriterSink struct {
	mu     sync.RWMutex
	queue  chan string
	closed bool
	done   chan struct{}
	w      io.Writer
	drops  atomic.Uint64
}

// DefaultWriterQueue is the queue length used when NewWriterSink gets a
// non-positive capacity.
const DefaultWriterQueue = 1024

func NewWriterSink(w io.Writer, capacity int) *WriterSink {
	if capacity <= 0 {
		capacity = DefaultWriterQueue
	}
	s := &WriterSink{
		queue: make(chan string, capacity),
		done:  make(chan struct{}),
		w:     w,
	}
	go s.run()
	return s
}

func (s *WriterSink) Emit(line string) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		s.drop()
		return
	}
	select {
	case s.queue <- line:
	default:
		s.drop()
	}
}

func (s *WriterSink) run() {
	defer close(s.done)
	for line := range s.queue {
		if !strings.HasSuffix(line, "\n") {
			line += "\n"
		}
		if _, err := io.WriteString(s.w, line); err != nil {
			s.drop()
		}
	}
}

func (s *WriterSink) drop() {
	s.drops.Add(1)
	metrics.SinkDropsTotal.WithLabelValues("writer").Inc()
}

// Drops returns the number of lines dropped so far.
func (s *WriterSink) Drops() uint64 { return s.drops.Load() }

// Close stops accepting lines and waits until the queued ones are written
// or ctx is done. Repeated Closes only wait.
func (s *WriterSink) Close(ctx context.Context) error {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.queue)
	}
	s.mu.Unlock()

	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
