package capture

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"firestige.xyz/nlyzer/internal/core"
	"firestige.xyz/nlyzer/internal/filter"
)

var eth0 = Device{Name: "eth0", Description: "test", Addresses: []string{"10.0.0.1"}}

func pickFirst() DeviceResolver {
	return resolverFunc(func(_ context.Context, devices []Device) (Device, error) {
		return devices[0], nil
	})
}

func TestScannerFullSession(t *testing.T) {
	h := &fakeHandle{reads: []read{{data: udpFrame(t, 5353)}, {data: udpFrame(t, 80)}, {err: io.EOF}}}
	opener := &fakeOpener{handle: h}
	status := &statusRecorder{}
	sink := &lineRecorder{}

	s := NewScanner(ScannerOptions{
		Lister:   staticDevices(eth0),
		Resolver: pickFirst(),
		Opener:   opener,
		Open:     OpenOptions{Promiscuous: true, Timeout: time.Second, SnapLen: 65535},
		Mode:     OutputSummary,
		Sink:     sink,
		LoadPredicate: func() (filter.Predicate, error) {
			return filter.NewLuaPredicate(`function filter(pkt) return pkt.udp_dst_port == 5353 end`, "filter")
		},
		OnStatus: status.record,
	})

	require.NoError(t, s.Scan(context.Background(), NewCancellation()))

	assert.Equal(t, StateStopped, s.State())
	assert.Equal(t, []string{"eth0"}, opener.calls)
	assert.True(t, opener.opts.Promiscuous)
	assert.Equal(t, 65535, opener.opts.SnapLen)
	assert.True(t, h.isClosed())
	assert.Len(t, sink.Lines(), 1)
	assert.Equal(t, "eth0", s.Device())

	snap := s.Stats()
	assert.Equal(t, uint64(2), snap.Read)
	assert.Equal(t, uint64(1), snap.Accepted)
	assert.Equal(t, uint64(1), snap.Rejected)

	assert.Equal(t, []string{
		"Listing available devices...",
		"Selected device: eth0",
		"Scanning on device: eth0",
		"Scan stopped: end of stream",
	}, status.all())
}

func TestScannerSelectionTimeoutNeverOpens(t *testing.T) {
	opener := &fakeOpener{handle: &fakeHandle{}}
	status := &statusRecorder{}
	s := NewScanner(ScannerOptions{
		Lister: staticDevices(eth0),
		Resolver: resolverFunc(func(context.Context, []Device) (Device, error) {
			return Device{}, core.ErrSelectionTimeout
		}),
		Opener:   opener,
		OnStatus: status.record,
	})

	err := s.Scan(context.Background(), NewCancellation())
	assert.True(t, errors.Is(err, core.ErrSelectionTimeout))
	assert.Zero(t, opener.callCount())
	assert.Equal(t, StateStopped, s.State())
	msgs := status.all()
	assert.Equal(t, "Scan stopped: "+core.ErrSelectionTimeout.Error(), msgs[len(msgs)-1])
}

func TestScannerEnumerationErrors(t *testing.T) {
	opener := &fakeOpener{handle: &fakeHandle{}}

	s := NewScanner(ScannerOptions{
		Lister:   DeviceListerFunc(func() ([]Device, error) { return nil, errors.New("no permission") }),
		Resolver: pickFirst(),
		Opener:   opener,
	})
	err := s.Scan(context.Background(), nil)
	assert.True(t, errors.Is(err, core.ErrEnumeration), "got %v", err)

	s = NewScanner(ScannerOptions{Lister: staticDevices(), Resolver: pickFirst(), Opener: opener})
	err = s.Scan(context.Background(), nil)
	assert.True(t, errors.Is(err, core.ErrNoDevices), "got %v", err)

	assert.Zero(t, opener.callCount())
}

func TestScannerDeviceOpenError(t *testing.T) {
	s := NewScanner(ScannerOptions{
		Lister:   staticDevices(eth0),
		Resolver: pickFirst(),
		Opener:   &fakeOpener{err: errors.New("operation not permitted")},
	})
	err := s.Scan(context.Background(), nil)
	assert.True(t, errors.Is(err, core.ErrDeviceOpen), "got %v", err)
	assert.Contains(t, err.Error(), "operation not permitted")
}

func TestScannerPredicateLoadError(t *testing.T) {
	opener := &fakeOpener{handle: &fakeHandle{}}
	s := NewScanner(ScannerOptions{
		Lister:   staticDevices(eth0),
		Resolver: pickFirst(),
		Opener:   opener,
		LoadPredicate: func() (filter.Predicate, error) {
			return filter.NewLuaPredicate("not lua at all", "filter")
		},
	})
	err := s.Scan(context.Background(), nil)
	assert.True(t, errors.Is(err, core.ErrFilterLoad), "got %v", err)
	assert.Zero(t, opener.callCount())
}

func TestScannerCancelledDuringSelection(t *testing.T) {
	cancel := NewCancellation()
	opener := &fakeOpener{handle: &fakeHandle{}}
	s := NewScanner(ScannerOptions{
		Lister: staticDevices(eth0),
		Resolver: resolverFunc(func(_ context.Context, d []Device) (Device, error) {
			cancel.Cancel()
			return d[0], nil
		}),
		Opener: opener,
	})

	require.NoError(t, s.Scan(context.Background(), cancel))
	assert.Zero(t, opener.callCount())
	assert.Equal(t, StateStopped, s.State())
}

func TestScannerContextCancelledDuringSelection(t *testing.T) {
	ctx, cancelCtx := context.WithCancel(context.Background())
	status := &statusRecorder{}
	opener := &fakeOpener{handle: &fakeHandle{}}
	s := NewScanner(ScannerOptions{
		Lister: staticDevices(eth0),
		Resolver: resolverFunc(func(ctx context.Context, _ []Device) (Device, error) {
			cancelCtx()
			<-ctx.Done()
			return Device{}, ctx.Err()
		}),
		Opener:   opener,
		OnStatus: status.record,
	})

	require.NoError(t, s.Scan(ctx, NewCancellation()))
	assert.Zero(t, opener.callCount())
	assert.Equal(t, StateStopped, s.State())
	msgs := status.all()
	assert.Equal(t, "Scan stopped: "+ReasonCancelled, msgs[len(msgs)-1])
}

func TestScannerReadErrorReported(t *testing.T) {
	status := &statusRecorder{}
	h := &fakeHandle{reads: []read{{err: errors.New("socket closed")}}}
	s := NewScanner(ScannerOptions{
		Lister:   staticDevices(eth0),
		Resolver: pickFirst(),
		Opener:   &fakeOpener{handle: h},
		OnStatus: status.record,
	})

	err := s.Scan(context.Background(), nil)
	assert.True(t, errors.Is(err, core.ErrFrameRead))
	msgs := status.all()
	assert.Contains(t, msgs[len(msgs)-1], "Scan stopped: ")
	assert.Contains(t, msgs[len(msgs)-1], "socket closed")
	assert.True(t, h.isClosed())
}

func TestScannerRejectsConcurrentScan(t *testing.T) {
	h := &fakeHandle{} // read timeouts until cancelled
	s := NewScanner(ScannerOptions{
		Lister:   staticDevices(eth0),
		Resolver: pickFirst(),
		Opener:   &fakeOpener{handle: h},
	})

	cancel := NewCancellation()
	done, err := s.Start(context.Background(), cancel)
	require.NoError(t, err)

	require.Eventually(t, func() bool { return s.State() == StateCapturing }, 2*time.Second, 5*time.Millisecond)
	assert.True(t, s.Active())

	assert.ErrorIs(t, s.Scan(context.Background(), NewCancellation()), core.ErrSessionActive)
	_, err = s.Start(context.Background(), NewCancellation())
	assert.ErrorIs(t, err, core.ErrSessionActive)

	cancel.Cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("scan did not stop after cancel")
	}
	assert.False(t, s.Active())
	assert.Equal(t, StateStopped, s.State())

	// A fresh scan is accepted once the previous one finished.
	h2 := &fakeHandle{reads: []read{{err: io.EOF}}}
	s.opts.Opener = &fakeOpener{handle: h2}
	assert.NoError(t, s.Scan(context.Background(), NewCancellation()))
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "selecting device", StateSelecting.String())
	assert.Equal(t, "capturing", StateCapturing.String())
	assert.Equal(t, "stopped", StateStopped.String())
	assert.Equal(t, "State(9)", State(9).String())
}
