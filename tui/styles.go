// ABOUTME: Defines lipgloss style constants for the chat layout panels, transcript entries, and log formatting.
// ABOUTME: Provides HeadingStyle and StyleForStatus to map heading levels and connection states to display styles.
package tui

import (
	"github.com/2389-research/datachat/session"
	"github.com/charmbracelet/lipgloss"
)

var (
	// Panel borders
	BorderStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62"))

	// Title styling
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170"))

	// Speakers
	UserStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("75")).Bold(true)
	AgentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	ErrorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)

	// Content blocks
	H1Style     = lipgloss.NewStyle().Bold(true).Underline(true).Foreground(lipgloss.Color("170"))
	H2Style     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("141"))
	H3Style     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("111"))
	BoldStyle   = lipgloss.NewStyle().Bold(true)
	MarkerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	TableStyle  = lipgloss.NewStyle().Padding(0, 1)
	HeaderStyle = TableStyle.Bold(true).Foreground(lipgloss.Color("252"))

	// Figures
	FigureStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("99")).
			Padding(0, 1)
	FindingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	MutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

	// Connection status colors
	ConnectingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
	OpenStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	ClosedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)

	// Log lines
	LogLineStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("75"))
	LogNoticeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

	// Status bar
	StatusBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("252")).
			Padding(0, 1)

	// Prompt
	PromptStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("214"))
	PromptDisabledStyle = PromptStyle.BorderForeground(lipgloss.Color("241"))
)

// HeadingStyle returns the style for a heading level, clamping unknown
// levels to the nearest defined one.
func HeadingStyle(level int) lipgloss.Style {
	switch {
	case level <= 1:
		return H1Style
	case level == 2:
		return H2Style
	default:
		return H3Style
	}
}

// StyleForStatus returns the appropriate lipgloss style for a connection status.
func StyleForStatus(status session.Status) lipgloss.Style {
	switch status {
	case session.StatusOpen:
		return OpenStyle
	case session.StatusClosed:
		return ClosedStyle
	default:
		return ConnectingStyle
	}
}
