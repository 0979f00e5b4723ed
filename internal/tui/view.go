package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)
	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 1)
	statusStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFF7DB"))
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	spinnerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
)

// visibleLines is how many summary lines are drawn.
const visibleLines = 20

func (m Model) View() string {
	var b strings.Builder

	header := "nlyzer"
	if dev := m.scanner.Device(); dev != "" {
		header += " - " + dev
	}
	header += " [" + m.scanner.State().String() + "]"
	b.WriteString(titleStyle.Render(header))
	b.WriteString("\n")

	status := m.status
	if m.scanning {
		status = m.spinner.View() + " " + status
	}
	b.WriteString(statusStyle.Render(status))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("read %d  accepted %d  rejected %d  truncated %d  dropped %d\n",
		m.stats.Read, m.stats.Accepted, m.stats.Rejected, m.stats.Truncated, m.sink.Drops()))

	if m.choosing != nil {
		var list strings.Builder
		list.WriteString("Select a Device:\n")
		for i, d := range m.choosing {
			fmt.Fprintf(&list, "%d. %s", i+1, d.Name)
			if d.Description != "" {
				fmt.Fprintf(&list, "  (%s)", d.Description)
			}
			if len(d.Addresses) > 0 {
				fmt.Fprintf(&list, "  %s", strings.Join(d.Addresses, ", "))
			}
			list.WriteString("\n")
		}
		list.WriteString("> " + m.input)
		b.WriteString(boxStyle.Render(list.String()))
		b.WriteString("\n")
	} else {
		lines := m.lines
		if len(lines) > visibleLines {
			lines = lines[len(lines)-visibleLines:]
		}
		body := strings.Join(lines, "\n")
		if body == "" {
			body = "Waiting for packets..."
		}
		if m.width > 4 {
			b.WriteString(boxStyle.Width(m.width - 4).Render(body))
		} else {
			b.WriteString(boxStyle.Render(body))
		}
		b.WriteString("\n")
	}

	b.WriteString(helpStyle.Render("s scan • x stop • q quit"))
	return b.String()
}
