package capture

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChannelSinkDeliversAndDrops(t *testing.T) {
	s := NewChannelSink(2)
	s.Emit("a")
	s.Emit("b")
	s.Emit("c") // full

	assert.Equal(t, uint64(1), s.Drops())
	assert.Equal(t, "a", <-s.C())
	assert.Equal(t, "b", <-s.C())
}

func TestChannelSinkClose(t *testing.T) {
	s := NewChannelSink(4)
	s.Emit("kept")
	s.Close()
	s.Close()

	s.Emit("dropped")
	assert.Equal(t, uint64(1), s.Drops())

	var got []string
	for line := range s.C() {
		got = append(got, line)
	}
	assert.Equal(t, []string{"kept"}, got)
}

func TestChannelSinkConcurrentEmitAndClose(t *testing.T) {
	s := NewChannelSink(8)
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				s.Emit("x")
			}
		}()
	}
	s.Close()
	wg.Wait()

	received := 0
	for range s.C() {
		received++
	}
	assert.Equal(t, uint64(4000), uint64(received)+s.Drops())
}

func TestWriterSink(t *testing.T) {
	var buf bytes.Buffer
	s := NewWriterSink(&buf, 8)
	s.Emit("one")
	s.Emit("two\n")
	require.NoError(t, s.Close(context.Background()))

	assert.Equal(t, "one\ntwo\n", buf.String())
	assert.Zero(t, s.Drops())

	s.Emit("late")
	assert.Equal(t, uint64(1), s.Drops())
	assert.NoError(t, s.Close(context.Background()))
}

type brokenWriter struct{}

func (brokenWriter) Write([]byte) (int, error) { return 0, errors.New("broken pipe") }

func TestWriterSinkErrorsCounted(t *testing.T) {
	s := NewWriterSink(brokenWriter{}, 8)
	s.Emit("lost")
	require.NoError(t, s.Close(context.Background()))
	assert.Equal(t, uint64(1), s.Drops())
}

func TestWriterSinkStalledWriterDoesNotBlockEmit(t *testing.T) {
	pr, pw := io.Pipe() // nobody reads pr
	t.Cleanup(func() { _ = pr.Close() })

	s := NewWriterSink(pw, 2)
	emitted := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			s.Emit("frame")
		}
		close(emitted)
	}()

	select {
	case <-emitted:
	case <-time.After(2 * time.Second):
		t.Fatal("Emit blocked on a stalled writer")
	}
	// One line is stuck in Write, two wait in the queue.
	assert.GreaterOrEqual(t, s.Drops(), uint64(97))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, s.Close(ctx), context.DeadlineExceeded)
}

func TestSinkFunc(t *testing.T) {
	var got string
	SinkFunc(func(line string) { got = line }).Emit("hello")
	assert.Equal(t, "hello", got)
}
