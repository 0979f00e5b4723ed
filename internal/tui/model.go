// Package tui is the interactive terminal front end: start and stop scans
// and watch the summary lines of accepted frames.
package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"firestige.xyz/nlyzer/internal/capture"
)

const (
	defaultMaxLines = 200
	defaultBuffer   = 1024
)

// Options wires a Model. Lister and Opener are required. A nil Resolver
// shows the device chooser in the UI.
type Options struct {
	Lister           capture.DeviceLister
	Opener           capture.Opener
	Resolver         capture.DeviceResolver
	Open             capture.OpenOptions
	LoadPredicate    capture.PredicateLoader
	SelectionTimeout time.Duration
	MaxLines         int // summary lines kept on screen
	Buffer           int // summary channel capacity
}

type Model struct {
	ctx      context.Context
	scanner  *capture.Scanner
	sink     *capture.ChannelSink
	bridge   *bridge
	resolver *resolver // nil when a fixed resolver was given

	cancel   *capture.Cancellation
	scanning bool
	status   string
	stats    capture.StatsSnapshot

	choosing []capture.Device
	input    string

	lines    []string
	maxLines int

	spinner spinner.Model
	width   int
}

func New(ctx context.Context, opts Options) Model {
	if opts.MaxLines <= 0 {
		opts.MaxLines = defaultMaxLines
	}
	if opts.Buffer <= 0 {
		opts.Buffer = defaultBuffer
	}
	if opts.SelectionTimeout <= 0 {
		opts.SelectionTimeout = 10 * time.Second
	}

	b := newBridge(64)
	m := Model{
		ctx:      ctx,
		sink:     capture.NewChannelSink(opts.Buffer),
		bridge:   b,
		status:   "Press s to scan.",
		maxLines: opts.MaxLines,
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(spinnerStyle)),
	}

	res := opts.Resolver
	if res == nil {
		m.resolver = newResolver(b, opts.SelectionTimeout)
		res = m.resolver
	}

	m.scanner = capture.NewScanner(capture.ScannerOptions{
		Lister:        opts.Lister,
		Resolver:      res,
		Opener:        opts.Opener,
		Open:          opts.Open,
		Mode:          capture.OutputSummary,
		Sink:          m.sink,
		LoadPredicate: opts.LoadPredicate,
		OnStatus:      b.status,
	})
	return m
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.bridge.wait(), waitLine(m.sink.C()))
}

// Close stops a running scan and releases the summary channel.
func (m Model) Close() {
	if m.cancel != nil {
		m.cancel.Cancel()
	}
	m.sink.Close()
}

type lineMsg string

type scanDoneMsg struct {
	err error
}

func waitLine(c <-chan string) tea.Cmd {
	return func() tea.Msg {
		line, ok := <-c
		if !ok {
			return nil
		}
		return lineMsg(line)
	}
}

func waitDone(done <-chan error) tea.Cmd {
	return func() tea.Msg {
		return scanDoneMsg{err: <-done}
	}
}
