// ABOUTME: Scrollable transcript panel that renders session entries with the bubbles viewport.
// ABOUTME: Also provides PrintTranscript for rendering a saved transcript without the interactive program.
package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/2389-research/datachat/chart"
	"github.com/2389-research/datachat/session"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/oklog/ulid/v2"
)

// ExtractFunc recovers a descriptor from a raw figure.
type ExtractFunc func(chart.Figure) (chart.Descriptor, bool)

// TranscriptPanelModel shows the conversation. Rendered entries are cached
// by id because entries never change once appended.
type TranscriptPanelModel struct {
	entries  []session.Entry
	rendered map[ulid.ULID]string
	extract  ExtractFunc
	viewport viewport.Model
	width    int
	height   int
}

// NewTranscriptPanelModel creates an empty panel. A nil extract uses
// chart.ExtractFigure.
func NewTranscriptPanelModel(extract ExtractFunc) TranscriptPanelModel {
	return TranscriptPanelModel{
		rendered: make(map[ulid.ULID]string),
		extract:  extract,
		viewport: viewport.New(80, 10),
	}
}

// SetEntries replaces the displayed entries. The view follows the bottom
// when new entries arrive.
func (m *TranscriptPanelModel) SetEntries(entries []session.Entry) {
	grew := len(entries) != len(m.entries)
	m.entries = entries
	m.sync(grew)
}

// Len returns the number of entries shown.
func (m TranscriptPanelModel) Len() int {
	return len(m.entries)
}

// SetSize sets the available dimensions. A width change invalidates the
// rendered entries.
func (m *TranscriptPanelModel) SetSize(w, h int) {
	if w != m.width {
		clear(m.rendered)
	}
	m.width = w
	m.height = h
	m.viewport.Width = max(w-2, 1)
	m.viewport.Height = max(h-2, 1)
	m.sync(false)
}

// Update forwards scrolling keys and mouse events to the viewport.
func (m TranscriptPanelModel) Update(msg tea.Msg) (TranscriptPanelModel, tea.Cmd) {
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the panel.
func (m TranscriptPanelModel) View() string {
	body := m.viewport.View()
	if len(m.entries) == 0 {
		body = MutedStyle.Render("Waiting for the analysis agent...")
	}
	return BorderStyle.
		Width(max(m.width-2, 1)).
		Height(max(m.height-2, 1)).
		Render(body)
}

func (m *TranscriptPanelModel) sync(follow bool) {
	width := max(m.viewport.Width, minWrap)
	parts := make([]string, 0, len(m.entries))
	for _, e := range m.entries {
		out, ok := m.rendered[e.ID]
		if !ok {
			out = RenderEntry(e, m.extract, width)
			m.rendered[e.ID] = out
		}
		parts = append(parts, out)
	}
	atBottom := m.viewport.AtBottom()
	m.viewport.SetContent(strings.Join(parts, "\n\n"))
	if follow || atBottom {
		m.viewport.GotoBottom()
	}
}

// RenderEntry renders one transcript entry: a speaker line, the text
// blocks, then each figure and the image placeholder.
func RenderEntry(e session.Entry, extract ExtractFunc, width int) string {
	var b strings.Builder
	switch {
	case e.Origin == session.OriginUser:
		b.WriteString(UserStyle.Render("You"))
	case e.IsError:
		b.WriteString(ErrorStyle.Render("Agent"))
	default:
		b.WriteString(AgentStyle.Render("Agent"))
	}
	if !e.At.IsZero() {
		b.WriteString(" " + MutedStyle.Render(e.At.Local().Format("15:04:05")))
	}
	b.WriteString("\n")

	if e.IsError {
		b.WriteString(ErrorStyle.Render(wrap(e.Text, width)))
	} else {
		b.WriteString(RenderBlocks(e.Blocks(), width))
	}

	views := e.Descriptors(extract)
	for i, v := range views {
		b.WriteString("\n")
		b.WriteString(RenderFigure(v, i+1, len(views), width))
	}
	if len(e.Image) > 0 {
		b.WriteString("\n")
		b.WriteString(RenderImage(len(e.Image)))
	}
	return b.String()
}

// PrintTranscript writes every entry to w, separated by blank lines.
func PrintTranscript(w io.Writer, entries []session.Entry, width int) error {
	for i, e := range entries {
		if i > 0 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(w, RenderEntry(e, nil, width)); err != nil {
			return err
		}
	}
	return nil
}
