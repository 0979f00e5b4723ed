package tui

import (
	"errors"
	"strconv"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"firestige.xyz/nlyzer/internal/capture"
	"firestige.xyz/nlyzer/internal/core"
	"firestige.xyz/nlyzer/internal/log"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.choosing != nil {
			return m.updateChooser(msg)
		}
		switch msg.String() {
		case "q", "ctrl+c":
			if m.cancel != nil {
				m.cancel.Cancel()
			}
			return m, tea.Quit
		case "s":
			return m.startScan()
		case "x":
			return m.stopScan(), nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width

	case statusMsg:
		m.status = string(msg)
		m.stats = m.scanner.Stats()
		return m, m.bridge.wait()

	case devicesMsg:
		m.choosing = msg.devices
		m.input = ""
		m.status = "Enter the number of the device (timeout: " + strconv.Itoa(int(msg.timeout.Seconds())) + " seconds)"
		return m, m.bridge.wait()

	case lineMsg:
		m.lines = append(m.lines, string(msg))
		if over := len(m.lines) - m.maxLines; over > 0 {
			m.lines = append(m.lines[:0:0], m.lines[over:]...)
		}
		m.stats = m.scanner.Stats()
		return m, waitLine(m.sink.C())

	case scanDoneMsg:
		m.scanning = false
		m.choosing = nil
		m.stats = m.scanner.Stats()
		if msg.err != nil && errors.Is(msg.err, core.ErrSessionActive) {
			m.status = "A scan is already running."
		}
		return m, nil

	case spinner.TickMsg:
		if !m.scanning {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		m.stats = m.scanner.Stats()
		return m, cmd
	}
	return m, nil
}

func (m Model) startScan() (tea.Model, tea.Cmd) {
	if m.scanning || m.scanner.Active() {
		m.status = "A scan is already running."
		return m, nil
	}
	cancel := capture.NewCancellation()
	done, err := m.scanner.Start(m.ctx, cancel)
	if err != nil {
		m.status = "A scan is already running."
		return m, nil
	}
	log.GetLogger().Debug("scan started from terminal UI")
	m.cancel = cancel
	m.scanning = true
	return m, tea.Batch(waitDone(done), m.spinner.Tick)
}

func (m Model) stopScan() Model {
	if !m.scanning || m.cancel == nil {
		return m
	}
	m.cancel.Cancel()
	if m.choosing != nil && m.resolver != nil {
		m.resolver.choose(-1)
		m.choosing = nil
	}
	m.status = "Stopping..."
	return m
}

func (m Model) updateChooser(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.cancel.Cancel()
		m.resolver.choose(-1)
		return m, tea.Quit
	case "esc", "x":
		return m.stopScan(), nil
	case "backspace":
		if len(m.input) > 0 {
			m.input = m.input[:len(m.input)-1]
		}
	case "enter":
		n, err := strconv.Atoi(m.input)
		switch {
		case err != nil:
			m.status = "Invalid input: Please enter a number."
			m.resolver.restart()
		case n < 1 || n > len(m.choosing):
			m.status = "Invalid input: Device number out of range."
			m.resolver.restart()
		default:
			m.resolver.choose(n - 1)
			m.choosing = nil
		}
		m.input = ""
	default:
		if msg.Type == tea.KeyRunes {
			for _, r := range msg.Runes {
				if r >= '0' && r <= '9' {
					m.input += string(r)
				}
			}
		}
	}
	return m, nil
}
