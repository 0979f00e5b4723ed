package capture

import (
	"sync"
	"sync/atomic"
)

// Cancellation is a broadcast stop flag. Any goroutine may set it; the
// capture loop polls it once per iteration and select-based observers can
// wait on Done.
type Cancellation struct {
	flag atomic.Bool
	once sync.Once
	done chan struct{}
}

func NewCancellation() *Cancellation {
	return &Cancellation{done: make(chan struct{})}
}

// Cancel sets the flag. Repeated calls are no-ops.
func (c *Cancellation) Cancel() {
	c.once.Do(func() {
		c.flag.Store(true)
		close(c.done)
	})
}

func (c *Cancellation) Cancelled() bool { return c.flag.Load() }

// Done is closed once Cancel has been called.
func (c *Cancellation) Done() <-chan struct{} { return c.done }
