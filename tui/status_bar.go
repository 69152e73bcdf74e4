// ABOUTME: Implements a single-line status bar for the bottom of the chat showing connection and request state.
// ABOUTME: Displays dataset name, connection status, busy time for the request in flight, and entry count.
package tui

import (
	"fmt"
	"time"

	"github.com/2389-research/datachat/session"
	"github.com/charmbracelet/lipgloss"
)

// StatusBarModel displays session status in a single line.
type StatusBarModel struct {
	dataset   string
	status    session.Status
	busySince time.Time
	entries   int
	err       error
	width     int
}

// NewStatusBarModel creates a new StatusBarModel for the named dataset.
func NewStatusBarModel(dataset string) StatusBarModel {
	return StatusBarModel{dataset: dataset, status: session.StatusConnecting}
}

// SetStatus records the connection status.
func (m *StatusBarModel) SetStatus(s session.Status) {
	m.status = s
}

// SetBusy starts the request timer on the idle→busy edge and clears it on
// the busy→idle edge.
func (m *StatusBarModel) SetBusy(busy bool) {
	switch {
	case busy && m.busySince.IsZero():
		m.busySince = time.Now()
	case !busy:
		m.busySince = time.Time{}
	}
}

// SetEntries updates the transcript entry count.
func (m *StatusBarModel) SetEntries(n int) {
	m.entries = n
}

// SetError records the transport error shown after the status.
func (m *StatusBarModel) SetError(err error) {
	m.err = err
}

// SetWidth sets the bar width for rendering.
func (m *StatusBarModel) SetWidth(w int) {
	m.width = w
}

// Elapsed returns the time the current request has been in flight, or zero
// when idle.
func (m StatusBarModel) Elapsed() time.Duration {
	if m.busySince.IsZero() {
		return 0
	}
	return time.Since(m.busySince)
}

// formatElapsed formats a duration as a human-readable string.
// Durations under a minute show as seconds (e.g. "12s").
// Durations of a minute or more show as minutes and seconds (e.g. "2m30s").
func formatElapsed(d time.Duration) string {
	d = d.Truncate(time.Second)
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	minutes := int(d.Minutes())
	seconds := int(d.Seconds()) - minutes*60
	return fmt.Sprintf("%dm%ds", minutes, seconds)
}

// View renders the status bar as a single styled line.
func (m StatusBarModel) View() string {
	activity := "ready"
	if !m.busySince.IsZero() {
		activity = "working " + formatElapsed(m.Elapsed())
	}

	status := StyleForStatus(m.status).Render(string(m.status))
	content := fmt.Sprintf("Dataset: %s | %s | %s | %d messages",
		m.dataset, status, activity, m.entries)
	if m.err != nil {
		content += " | " + ErrorStyle.Render(m.err.Error())
	}

	style := StatusBarStyle.Width(m.width)

	return lipgloss.PlaceHorizontal(m.width, lipgloss.Left, style.Render(content))
}
