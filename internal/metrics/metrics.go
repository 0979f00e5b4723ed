// Package metrics implements Prometheus metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// FramesReadTotal counts frames returned by the device handle
	FramesReadTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nlyzer_frames_read_total",
			Help: "Total number of frames read from the capture device",
		},
		[]string{"device"},
	)

	// FramesAcceptedTotal counts frames the filter predicate accepted
	FramesAcceptedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nlyzer_frames_accepted_total",
			Help: "Total number of frames accepted by the filter",
		},
		[]string{"device"},
	)

	// FramesRejectedTotal counts frames the filter rejected, including filter failures
	FramesRejectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nlyzer_frames_rejected_total",
			Help: "Total number of frames rejected by the filter",
		},
		[]string{"device"},
	)

	// FilterErrorsTotal counts predicate invocations that raised an error
	FilterErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nlyzer_filter_errors_total",
			Help: "Total number of filter invocation failures",
		},
		[]string{"device"},
	)

	// DecodeTruncatedTotal counts walks that stopped on a decode error, by failing layer
	DecodeTruncatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nlyzer_decode_truncated_total",
			Help: "Total number of frames whose decode stopped early",
		},
		[]string{"device", "layer"},
	)

	// SinkDropsTotal counts summaries dropped because the sink was full or closed
	SinkDropsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nlyzer_sink_drops_total",
			Help: "Total number of output lines dropped by a sink",
		},
		[]string{"sink"},
	)

	// FrameSizeBytes tracks captured frame sizes
	FrameSizeBytes = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nlyzer_frame_size_bytes",
			Help:    "Captured length of frames read from the device",
			Buckets: prometheus.ExponentialBuckets(64, 2, 10), // 64 .. 32768
		},
		[]string{"device"},
	)

	// ScannerState tracks the scanner state machine
	ScannerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "nlyzer_scanner_state",
			Help: "Current scanner state (0=idle, 1=selecting, 2=capturing, 3=stopped)",
		},
	)
)

// ScannerState values
const (
	StateIdle      = 0
	StateSelecting = 1
	StateCapturing = 2
	StateStopped   = 3
)
