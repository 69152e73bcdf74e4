// ABOUTME: PromptModel wraps a bubbles textinput for composing questions to the analysis agent.
// ABOUTME: Input is disabled while a request is in flight and shows why in its placeholder.
package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// Placeholders for the enabled and disabled prompt.
const (
	PromptPlaceholder = "Ask a question about your data..."
	PromptWaiting     = "Waiting for the agent..."
	maxQuestionLength = 4000
)

// PromptModel is the question input line.
type PromptModel struct {
	textInput textinput.Model
	enabled   bool
	width     int
}

// NewPromptModel creates a focused, enabled prompt.
func NewPromptModel() PromptModel {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = PromptPlaceholder
	ti.CharLimit = maxQuestionLength
	ti.Focus()

	return PromptModel{textInput: ti, enabled: true}
}

// SetEnabled enables or disables typing. Disabling keeps the current text.
func (m *PromptModel) SetEnabled(enabled bool) {
	if m.enabled == enabled {
		return
	}
	m.enabled = enabled
	if enabled {
		m.textInput.Placeholder = PromptPlaceholder
		m.textInput.Focus()
		return
	}
	m.textInput.Placeholder = PromptWaiting
	m.textInput.Blur()
}

// Enabled reports whether the prompt accepts input.
func (m PromptModel) Enabled() bool {
	return m.enabled
}

// Value returns the current text with surrounding whitespace removed.
func (m PromptModel) Value() string {
	return strings.TrimSpace(m.textInput.Value())
}

// SetValue replaces the current text.
func (m *PromptModel) SetValue(s string) {
	m.textInput.SetValue(s)
}

// Reset clears the input.
func (m *PromptModel) Reset() {
	m.textInput.Reset()
}

// SetWidth sets the rendered width including the border.
func (m *PromptModel) SetWidth(w int) {
	m.width = w
	m.textInput.Width = max(w-6, 1)
}

// Update forwards key events to the textinput while enabled.
func (m PromptModel) Update(msg tea.Msg) (PromptModel, tea.Cmd) {
	if !m.enabled {
		return m, nil
	}
	var cmd tea.Cmd
	m.textInput, cmd = m.textInput.Update(msg)
	return m, cmd
}

// View renders the prompt inside a border that dims while disabled.
func (m PromptModel) View() string {
	style := PromptStyle
	if !m.enabled {
		style = PromptDisabledStyle
	}
	return style.Width(max(m.width-2, 1)).Render(m.textInput.View())
}
