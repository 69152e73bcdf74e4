// ABOUTME: Bubble Tea message types used in the chat message loop.
// ABOUTME: Each type wraps a transport or session occurrence for the tea.Msg interface.
package tui

import (
	"time"

	"github.com/2389-research/datachat/session"
	"github.com/2389-research/datachat/transport"
)

// ConnectedMsg signals that the analysis channel is open.
type ConnectedMsg struct {
	Conn *transport.Conn
}

// DialFailedMsg signals that the analysis channel could not be opened.
type DialFailedMsg struct {
	Err error
}

// EventMsg wraps one inbound event, delivered in arrival order.
type EventMsg struct {
	Event session.Event
}

// ChannelClosedMsg signals that the event stream ended. Err is nil for a
// normal close.
type ChannelClosedMsg struct {
	Err error
}

// TickMsg is sent periodically to update timers.
type TickMsg struct {
	Time time.Time
}
