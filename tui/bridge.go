// ABOUTME: Bridge connecting the websocket transport to the Bubble Tea message loop.
// ABOUTME: Provides tea.Cmd factories for dialing, waiting on the next event, and ticks.
package tui

import (
	"context"
	"time"

	"github.com/2389-research/datachat/session"
	"github.com/2389-research/datachat/transport"
	tea "github.com/charmbracelet/bubbletea"
)

// DialCmd returns a tea.Cmd that opens the analysis channel for fileID and
// reports ConnectedMsg or DialFailedMsg.
func DialCmd(ctx context.Context, baseURL, fileID string, opts ...transport.Option) tea.Cmd {
	return func() tea.Msg {
		conn, err := transport.Dial(ctx, baseURL, fileID, opts...)
		if err != nil {
			return DialFailedMsg{Err: err}
		}
		return ConnectedMsg{Conn: conn}
	}
}

// WaitForEventCmd returns a tea.Cmd that blocks on the event channel and
// yields exactly one EventMsg. The caller re-issues it after handling each
// event, so events reach the model one at a time and in order. When the
// channel is closed it yields ChannelClosedMsg carrying errFn's result.
func WaitForEventCmd(events <-chan session.Event, errFn func() error) tea.Cmd {
	return func() tea.Msg {
		evt, ok := <-events
		if !ok {
			var err error
			if errFn != nil {
				err = errFn()
			}
			return ChannelClosedMsg{Err: err}
		}
		return EventMsg{Event: evt}
	}
}

// TickCmd returns a tea.Cmd that sends a TickMsg after the given interval.
// Used for the busy timer in the status bar.
func TickCmd(interval time.Duration) tea.Cmd {
	return func() tea.Msg {
		time.Sleep(interval)
		return TickMsg{Time: time.Now()}
	}
}
