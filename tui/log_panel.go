// ABOUTME: Implements the progress panel showing pending log lines while a request is in flight.
// ABOUTME: Uses a bubbles spinner while busy and falls back to the most recent idle notices.
package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/reflow/truncate"
)

// LogPanelModel displays the progress lines of the request in flight.
type LogPanelModel struct {
	pending []string
	notices []string
	busy    bool
	spinner spinner.Model
	width   int
	height  int
}

// NewLogPanelModel creates an idle log panel.
func NewLogPanelModel() LogPanelModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = MarkerStyle
	return LogPanelModel{spinner: sp}
}

// SetLines replaces the pending lines and idle notices and records
// whether a request is in flight.
func (m *LogPanelModel) SetLines(pending, notices []string, busy bool) {
	m.pending = pending
	m.notices = notices
	m.busy = busy
}

// Len returns the number of pending lines.
func (m LogPanelModel) Len() int {
	return len(m.pending)
}

// SetSize sets the available dimensions.
func (m *LogPanelModel) SetSize(w, h int) {
	m.width = w
	m.height = h
}

// Tick returns the command that starts the spinner animation.
func (m LogPanelModel) Tick() tea.Cmd {
	return m.spinner.Tick
}

// Update advances the spinner. Ticks keep flowing while idle so the
// animation resumes immediately when the next request starts.
func (m LogPanelModel) Update(msg tea.Msg) (LogPanelModel, tea.Cmd) {
	var cmd tea.Cmd
	m.spinner, cmd = m.spinner.Update(msg)
	return m, cmd
}

// View renders the panel.
func (m LogPanelModel) View() string {
	title := "PROGRESS"
	if m.busy {
		title = m.spinner.View() + " PROGRESS"
	}

	rows := max(m.height-3, 1)
	inner := max(m.width-4, 1)

	var lines []string
	style := LogLineStyle
	switch {
	case m.busy:
		lines = tail(m.pending, rows)
	case len(m.notices) > 0:
		lines = tail(m.notices, rows)
		style = LogNoticeStyle
	default:
		lines = []string{"idle"}
		style = LogNoticeStyle
	}

	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = style.Render(truncate.StringWithTail(l, uint(inner), "…"))
	}

	return BorderStyle.
		Width(max(m.width-2, 1)).
		Height(max(m.height-2, 1)).
		Render(TitleStyle.Render(title) + "\n" + strings.Join(out, "\n"))
}

func tail(lines []string, n int) []string {
	if len(lines) <= n {
		return lines
	}
	return lines[len(lines)-n:]
}
