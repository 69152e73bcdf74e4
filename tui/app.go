// ABOUTME: Top-level Bubble Tea ChatModel that drives a session over the websocket transport.
// ABOUTME: Implements tea.Model (Init, Update, View) and routes messages to transcript, log, prompt, and status bar panels.
package tui

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/2389-research/datachat/session"
	"github.com/2389-research/datachat/transport"
	tea "github.com/charmbracelet/bubbletea"
)

// tickInterval drives the busy timer in the status bar.
const tickInterval = 500 * time.Millisecond

// logPanelHeight is the fixed height of the progress panel.
const logPanelHeight = 7

// Config holds what the chat needs to reach the analysis agent.
type Config struct {
	BaseURL  string
	DialOpts []transport.Option
	Extract  ExtractFunc
	Logger   *log.Logger
}

// ChatModel is the top-level Bubble Tea model that composes the chat
// panels around one session.
type ChatModel struct {
	transcript TranscriptPanelModel
	log        LogPanelModel
	statusBar  StatusBarModel
	prompt     PromptModel

	sess   *session.Session
	conn   *transport.Conn
	cfg    Config
	ctx    context.Context
	logger *log.Logger

	quitting bool
	width    int
	height   int
}

// NewChatModel creates a ChatModel for sess. The channel is dialed by Init.
func NewChatModel(ctx context.Context, sess *session.Session, cfg Config) ChatModel {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}

	dataset := sess.FileID()
	if snap := sess.Snapshot(); snap.Filename != "" {
		dataset = snap.Filename
	}

	m := ChatModel{
		transcript: NewTranscriptPanelModel(cfg.Extract),
		log:        NewLogPanelModel(),
		statusBar:  NewStatusBarModel(dataset),
		prompt:     NewPromptModel(),
		sess:       sess,
		cfg:        cfg,
		ctx:        ctx,
		logger:     logger,
	}
	m.refresh()
	return m
}

// Session returns the session the model drives.
func (m ChatModel) Session() *session.Session {
	return m.sess
}

// Init implements tea.Model. Dials the channel and starts the timers.
func (m ChatModel) Init() tea.Cmd {
	return tea.Batch(
		DialCmd(m.ctx, m.cfg.BaseURL, m.sess.FileID(), m.cfg.DialOpts...),
		TickCmd(tickInterval),
		m.log.Tick(),
	)
}

// Update implements tea.Model. Routes incoming messages to the session and
// the panels and returns the updated model with any follow-up commands.
func (m ChatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleWindowSize(msg)

	case ConnectedMsg:
		return m.handleConnected(msg)

	case DialFailedMsg:
		return m.handleDialFailed(msg)

	case EventMsg:
		return m.handleEvent(msg)

	case ChannelClosedMsg:
		return m.handleChannelClosed(msg)

	case TickMsg:
		if m.quitting {
			return m, nil
		}
		return m, TickCmd(tickInterval)

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.transcript, cmd = m.transcript.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.log, cmd = m.log.Update(msg)
	return m, cmd
}

// View implements tea.Model. Renders the transcript, progress panel,
// prompt, and status bar from top to bottom.
func (m ChatModel) View() string {
	if m.quitting {
		return ""
	}
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	// Minimum terminal size guard to prevent layout overflow
	if m.width < 40 || m.height < 16 {
		return fmt.Sprintf("Terminal too small (%dx%d). Minimum: 40x16.", m.width, m.height)
	}

	var b strings.Builder
	b.WriteString(m.transcript.View())
	b.WriteString("\n")
	b.WriteString(m.log.View())
	b.WriteString("\n")
	b.WriteString(m.prompt.View())
	b.WriteString("\n")
	b.WriteString(m.statusBar.View())
	return b.String()
}

// handleWindowSize lays the panels out for the new terminal size.
func (m ChatModel) handleWindowSize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height

	const promptHeight, statusBarHeight = 3, 1
	transcriptHeight := max(m.height-logPanelHeight-promptHeight-statusBarHeight, 3)

	m.transcript.SetSize(m.width, transcriptHeight)
	m.log.SetSize(m.width, logPanelHeight)
	m.prompt.SetWidth(m.width)
	m.statusBar.SetWidth(m.width)
	return m, nil
}

// handleConnected opens the session on the new channel and starts
// listening for events.
func (m ChatModel) handleConnected(msg ConnectedMsg) (tea.Model, tea.Cmd) {
	if m.quitting {
		_ = msg.Conn.Close()
		return m, nil
	}
	m.conn = msg.Conn
	if err := m.sess.Open(msg.Conn); err != nil {
		m.logger.Printf("component=tui action=open error=%q", err)
		_ = msg.Conn.Close()
		m.refresh()
		return m, nil
	}
	m.logger.Printf("component=tui action=connected conn=%s file_id=%s", msg.Conn.ID(), m.sess.FileID())
	m.refresh()
	return m, WaitForEventCmd(msg.Conn.Events(), msg.Conn.Err)
}

// handleDialFailed closes the session so later submissions report the
// missing connection.
func (m ChatModel) handleDialFailed(msg DialFailedMsg) (tea.Model, tea.Cmd) {
	m.logger.Printf("component=tui action=dial error=%q", msg.Err)
	m.sess.Close()
	m.statusBar.SetError(msg.Err)
	m.refresh()
	return m, nil
}

// handleEvent applies one event and waits for the next.
func (m ChatModel) handleEvent(msg EventMsg) (tea.Model, tea.Cmd) {
	if err := m.sess.Apply(msg.Event); err != nil {
		m.logger.Printf("component=tui action=apply type=%q error=%q", msg.Event.Type, err)
	}
	m.refresh()
	if m.conn == nil {
		return m, nil
	}
	return m, WaitForEventCmd(m.conn.Events(), m.conn.Err)
}

// handleChannelClosed marks the session closed once the event stream ends.
func (m ChatModel) handleChannelClosed(msg ChannelClosedMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		m.logger.Printf("component=tui action=channel_closed error=%q", msg.Err)
		m.statusBar.SetError(msg.Err)
	}
	m.sess.Close()
	m.refresh()
	return m, nil
}

// handleKeyMsg processes keyboard input: quit, submit, scroll, or typing.
func (m ChatModel) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		m.quitting = true
		m.sess.Close()
		if m.conn != nil {
			_ = m.conn.Close()
		}
		return m, tea.Quit

	case "enter":
		return m.submit()

	case "pgup", "pgdown", "ctrl+u", "ctrl+d":
		var cmd tea.Cmd
		m.transcript, cmd = m.transcript.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.prompt, cmd = m.prompt.Update(msg)
	return m, cmd
}

// submit hands the prompt text to the session. The input is cleared
// whenever the question reached the transcript.
func (m ChatModel) submit() (tea.Model, tea.Cmd) {
	err := m.sess.Submit(m.prompt.Value())
	switch {
	case errors.Is(err, session.ErrBusy), errors.Is(err, session.ErrEmptyInput):
		return m, nil
	case err != nil:
		m.logger.Printf("component=tui action=submit error=%q", err)
	}
	m.prompt.Reset()
	m.refresh()
	return m, nil
}

// refresh copies the session state into the panels.
func (m *ChatModel) refresh() {
	snap := m.sess.Snapshot()
	m.transcript.SetEntries(snap.Transcript)
	m.log.SetLines(snap.PendingLogLines, snap.Notices, snap.Busy)
	m.statusBar.SetStatus(snap.Status)
	m.statusBar.SetBusy(snap.Busy)
	m.statusBar.SetEntries(len(snap.Transcript))
	m.prompt.SetEnabled(!snap.Busy)
}
