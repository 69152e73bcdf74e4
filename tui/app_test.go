// ABOUTME: Tests for the top-level ChatModel driving a session against the in-process mock agent.
// ABOUTME: Covers connect, initial analysis, a full question round trip, busy input, dial failure, and quitting.
package tui

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/2389-research/datachat/mockagent"
	"github.com/2389-research/datachat/session"
	"github.com/2389-research/datachat/transport"
	tea "github.com/charmbracelet/bubbletea"
)

func quietLogger() *log.Logger { return log.New(io.Discard, "", 0) }

type chatHarness struct {
	t     *testing.T
	model tea.Model
	wait  tea.Cmd
}

func newChatHarness(t *testing.T) *chatHarness {
	t.Helper()
	agent := mockagent.NewServer(mockagent.Config{Logger: quietLogger()})
	srv := httptest.NewServer(agent)
	t.Cleanup(srv.Close)

	ds := agent.Store().Create("sales.csv", []byte("region,revenue\nnorth,10\nsouth,4\n"))
	sess := session.New(ds.ID,
		session.WithFilename(ds.Filename),
		session.WithInitialAnalysis(),
		session.WithLogger(quietLogger()),
	)
	cfg := Config{
		BaseURL:  srv.URL,
		DialOpts: []transport.Option{transport.WithLogger(quietLogger())},
		Logger:   quietLogger(),
	}

	h := &chatHarness{t: t, model: NewChatModel(context.Background(), sess, cfg)}
	h.send(tea.WindowSizeMsg{Width: 120, Height: 50})

	msg := DialCmd(context.Background(), cfg.BaseURL, ds.ID, cfg.DialOpts...)()
	if _, ok := msg.(ConnectedMsg); !ok {
		t.Fatalf("dial msg = %#v", msg)
	}
	h.wait = h.send(msg)
	t.Cleanup(func() { h.send(tea.KeyMsg{Type: tea.KeyCtrlC}) })
	return h
}

func (h *chatHarness) chat() ChatModel { return h.model.(ChatModel) }

func (h *chatHarness) send(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	h.model, cmd = h.model.Update(msg)
	return cmd
}

// pumpUntilIdle feeds events to the model until the session is no longer busy.
func (h *chatHarness) pumpUntilIdle() {
	h.t.Helper()
	for i := 0; h.chat().Session().Busy(); i++ {
		if i > 100 || h.wait == nil {
			h.t.Fatalf("session still busy after %d events", i)
		}
		h.wait = h.send(h.wait())
	}
}

func TestChatModelInitialAnalysis(t *testing.T) {
	h := newChatHarness(t)
	if !h.chat().Session().Busy() {
		t.Fatal("session should be busy until the summary arrives")
	}
	if h.chat().prompt.Enabled() {
		t.Error("prompt should be disabled during the initial analysis")
	}

	h.pumpUntilIdle()
	snap := h.chat().Session().Snapshot()
	if snap.Status != session.StatusOpen {
		t.Errorf("status = %q", snap.Status)
	}
	if len(snap.Transcript) != 1 || !strings.Contains(snap.Transcript[0].Text, "Dataset Summary") {
		t.Fatalf("transcript = %+v", snap.Transcript)
	}
	if !h.chat().prompt.Enabled() {
		t.Error("prompt should be enabled once idle")
	}
	if !strings.Contains(h.model.View(), "Dataset Summary") {
		t.Error("view should show the summary")
	}
}

func TestChatModelQuestionRoundTrip(t *testing.T) {
	h := newChatHarness(t)
	h.pumpUntilIdle()

	h.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("plot revenue by region")})
	h.send(tea.KeyMsg{Type: tea.KeyEnter})

	if !h.chat().Session().Busy() {
		t.Fatal("submit should make the session busy")
	}
	if h.chat().prompt.Value() != "" {
		t.Error("prompt should clear after submit")
	}

	// Enter while busy is ignored.
	h.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("again")})
	h.send(tea.KeyMsg{Type: tea.KeyEnter})

	view := h.model.View()
	if !strings.Contains(view, "Processing...") {
		t.Errorf("progress panel should show Processing...:\n%s", view)
	}

	h.pumpUntilIdle()
	snap := h.chat().Session().Snapshot()
	if len(snap.Transcript) != 3 {
		t.Fatalf("transcript has %d entries, want 3", len(snap.Transcript))
	}
	if snap.Transcript[1].Text != "plot revenue by region" || snap.Transcript[1].Origin != session.OriginUser {
		t.Errorf("user entry = %+v", snap.Transcript[1])
	}
	answer := snap.Transcript[2]
	if answer.Origin != session.OriginAgent || len(answer.Figures) != 1 {
		t.Errorf("answer = %+v", answer)
	}
	if len(snap.PendingLogLines) != 0 {
		t.Errorf("pending lines after result = %v", snap.PendingLogLines)
	}

	rendered := RenderEntry(snap.Transcript[1], nil, 100) + RenderEntry(answer, nil, 100)
	for _, w := range []string{"You", "plot revenue by region", "Column positions", "1 / 1", "Key Findings"} {
		if !strings.Contains(rendered, w) {
			t.Errorf("rendered chat missing %q", w)
		}
	}
	if !strings.Contains(h.model.View(), "Column positions") {
		t.Error("view should follow the newest entry")
	}
}

func TestChatModelUpstreamError(t *testing.T) {
	h := newChatHarness(t)
	h.pumpUntilIdle()

	h.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("please fail")})
	h.send(tea.KeyMsg{Type: tea.KeyEnter})
	h.pumpUntilIdle()

	snap := h.chat().Session().Snapshot()
	last := snap.Transcript[len(snap.Transcript)-1]
	if !last.IsError || !strings.HasPrefix(last.Text, session.ErrorPrefix) {
		t.Errorf("last entry = %+v", last)
	}
	if snap.Busy {
		t.Error("error should settle the request")
	}
}

func TestChatModelDialFailure(t *testing.T) {
	sess := session.New("missing", session.WithLogger(quietLogger()))
	m := NewChatModel(context.Background(), sess, Config{BaseURL: "http://127.0.0.1:1", Logger: quietLogger()})
	var model tea.Model = m
	model, _ = model.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	model, _ = model.Update(DialFailedMsg{Err: errors.New("connection refused")})

	if sess.Status() != session.StatusClosed {
		t.Errorf("status = %q, want closed", sess.Status())
	}
	if !strings.Contains(model.View(), "connection refused") {
		t.Error("status bar should show the dial error")
	}

	model, _ = model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("hello")})
	model, _ = model.Update(tea.KeyMsg{Type: tea.KeyEnter})

	snap := sess.Snapshot()
	if len(snap.Transcript) != 2 {
		t.Fatalf("transcript = %+v", snap.Transcript)
	}
	if snap.Transcript[1].Text != session.NotConnectedText || !snap.Transcript[1].IsError {
		t.Errorf("second entry = %+v", snap.Transcript[1])
	}
	if model.(ChatModel).prompt.Value() != "" {
		t.Error("prompt should clear once the question reached the transcript")
	}
}

func TestChatModelChannelClosed(t *testing.T) {
	h := newChatHarness(t)
	h.pumpUntilIdle()
	h.send(ChannelClosedMsg{Err: errors.New("abnormal closure")})
	if h.chat().Session().Status() != session.StatusClosed {
		t.Errorf("status = %q", h.chat().Session().Status())
	}
	if !strings.Contains(h.model.View(), "abnormal closure") {
		t.Error("view should report the close error")
	}
}

func TestChatModelQuit(t *testing.T) {
	h := newChatHarness(t)
	cmd := h.send(tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Fatal("ctrl+c should return a quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
	if h.chat().Session().Status() != session.StatusClosed {
		t.Error("quitting should close the session")
	}
	if h.model.View() != "" {
		t.Error("view should be empty after quitting")
	}
}

func TestChatModelViewGuards(t *testing.T) {
	sess := session.New("id", session.WithLogger(quietLogger()))
	var model tea.Model = NewChatModel(context.Background(), sess, Config{Logger: quietLogger()})
	if model.View() != "Initializing..." {
		t.Errorf("view before size = %q", model.View())
	}
	model, _ = model.Update(tea.WindowSizeMsg{Width: 20, Height: 5})
	if !strings.Contains(model.View(), "Terminal too small") {
		t.Errorf("small view = %q", model.View())
	}
}
