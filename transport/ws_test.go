// ABOUTME: Tests for the websocket channel client against the mock agent and raw httptest handlers.
// ABOUTME: Covers URL derivation, ordered delivery, sends, malformed frames, and local close.
package transport

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/2389-research/datachat/mockagent"
	"github.com/2389-research/datachat/session"
	"github.com/gorilla/websocket"
)

func quietLogger() *log.Logger { return log.New(io.Discard, "", 0) }

func TestChannelURL(t *testing.T) {
	tests := []struct {
		base   string
		fileID string
		want   string
	}{
		{"http://localhost:8001", "abc", "ws://localhost:8001/ws/abc"},
		{"https://api.example.com/", "abc", "wss://api.example.com/ws/abc"},
		{"https://api.example.com/backend", "abc", "wss://api.example.com/backend/ws/abc"},
		{"ws://h:1", "a b", "ws://h:1/ws/a%20b"},
		{"http://h?x=1#frag", "id", "ws://h/ws/id"},
		{"http://h", "a/b", "ws://h/ws/a%2Fb"},
	}
	for _, tt := range tests {
		t.Run(tt.base, func(t *testing.T) {
			got, err := ChannelURL(tt.base, tt.fileID)
			if err != nil {
				t.Fatalf("ChannelURL: %v", err)
			}
			if got != tt.want {
				t.Errorf("ChannelURL = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestChannelURLErrors(t *testing.T) {
	for _, tt := range []struct{ base, id string }{
		{"ftp://h", "x"},
		{"http://h", ""},
		{"not a url", "x"},
		{"http://", "x"},
	} {
		if _, err := ChannelURL(tt.base, tt.id); err == nil {
			t.Errorf("ChannelURL(%q, %q) should fail", tt.base, tt.id)
		}
	}
}

func nextEvent(t *testing.T, c *Conn) session.Event {
	t.Helper()
	select {
	case evt, ok := <-c.Events():
		if !ok {
			t.Fatalf("events closed early: %v", c.Err())
		}
		return evt
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for event")
	}
	return session.Event{}
}

func TestDialMockAgentConversation(t *testing.T) {
	agent := mockagent.NewServer(mockagent.Config{Logger: quietLogger()})
	ts := httptest.NewServer(agent)
	defer ts.Close()

	ctx := context.Background()
	up, err := UploadReader(ctx, ts.Client(), ts.URL, "sales.csv", strings.NewReader("a,b\n1,2\n"))
	if err != nil {
		t.Fatalf("UploadReader: %v", err)
	}

	c, err := Dial(ctx, ts.URL, up.FileID, WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer c.Close()
	if c.ID() == "" {
		t.Error("connection id should be set")
	}

	if evt := nextEvent(t, c); evt.Type != session.EventLog {
		t.Errorf("first event = %+v", evt)
	}
	if evt := nextEvent(t, c); evt.Type != session.EventResult {
		t.Errorf("second event = %+v", evt)
	}

	if err := c.Send(session.Outbound{Message: "describe"}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	var types []session.EventType
	for {
		evt := nextEvent(t, c)
		types = append(types, evt.Type)
		if evt.Type != session.EventLog {
			break
		}
	}
	if len(types) != 5 || types[4] != session.EventResult {
		t.Errorf("event types = %v, want four logs then a result", types)
	}
}

func TestDrivesSessionStateMachine(t *testing.T) {
	agent := mockagent.NewServer(mockagent.Config{Logger: quietLogger()})
	ts := httptest.NewServer(agent)
	defer ts.Close()

	ctx := context.Background()
	up, err := UploadReader(ctx, ts.Client(), ts.URL, "d.csv", strings.NewReader("x\n1\n"))
	if err != nil {
		t.Fatalf("UploadReader: %v", err)
	}
	c, err := Dial(ctx, ts.URL, up.FileID, WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer c.Close()

	s := session.New(up.FileID, session.WithInitialAnalysis(), session.WithLogger(quietLogger()))
	if err := s.Open(c); err != nil {
		t.Fatalf("Open: %v", err)
	}

	applyUntilIdle := func() {
		for s.Busy() {
			if err := s.Apply(nextEvent(t, c)); err != nil {
				t.Fatalf("Apply: %v", err)
			}
		}
	}
	applyUntilIdle()

	if err := s.Submit("what is in here?"); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	applyUntilIdle()

	st := s.Snapshot()
	if len(st.Transcript) != 3 {
		t.Fatalf("transcript = %d entries, want summary, question, answer", len(st.Transcript))
	}
	if len(st.Transcript[2].Figures) != 1 {
		t.Errorf("answer figures = %d, want 1", len(st.Transcript[2].Figures))
	}
}

func TestSkipsMalformedFramesAndKeepsOrder(t *testing.T) {
	upgrader := websocket.Upgrader{}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"log","message":"one"}`))
		conn.WriteMessage(websocket.TextMessage, []byte(`garbage`))
		conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"log","message":"two"}`))
		conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"error","content":"three"}`))
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		time.Sleep(50 * time.Millisecond)
	}))
	defer ts.Close()

	c, err := Dial(context.Background(), ts.URL, "x", WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer c.Close()

	var got []string
	for evt := range c.Events() {
		got = append(got, evt.Message+evt.Content)
	}
	if strings.Join(got, ",") != "one,two,three" {
		t.Errorf("events = %q, want one,two,three", got)
	}
	if c.Err() != nil {
		t.Errorf("Err = %v after normal close, want nil", c.Err())
	}
}

func TestAbnormalCloseReportsErr(t *testing.T) {
	upgrader := websocket.Upgrader{}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		conn.Close()
	}))
	defer ts.Close()

	c, err := Dial(context.Background(), ts.URL, "x", WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer c.Close()
	for range c.Events() {
	}
	if c.Err() == nil {
		t.Error("Err should report the dropped connection")
	}
}

func TestSendAfterClose(t *testing.T) {
	agent := mockagent.NewServer(mockagent.Config{Logger: quietLogger()})
	ts := httptest.NewServer(agent)
	defer ts.Close()

	c, err := Dial(context.Background(), ts.URL, "unknown", WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if err := c.Send(session.Outbound{Message: "hi"}); !errors.Is(err, ErrClosed) {
		t.Errorf("Send after close = %v, want ErrClosed", err)
	}

	select {
	case _, ok := <-c.Events():
		for ok {
			_, ok = <-c.Events()
		}
	case <-time.After(5 * time.Second):
		t.Fatal("events channel not closed after Close")
	}
	if c.Err() != nil {
		t.Errorf("Err = %v after local close, want nil", c.Err())
	}
}

func TestSendAcceptedBeforeCloseIsDelivered(t *testing.T) {
	upgrader := websocket.Upgrader{}
	received := make(chan int, 1)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		n := 0
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				received <- n
				return
			}
			n++
		}
	}))
	defer ts.Close()

	for round := 0; round < 20; round++ {
		c, err := Dial(context.Background(), ts.URL, "x", WithLogger(quietLogger()))
		if err != nil {
			t.Fatalf("Dial: %v", err)
		}

		var accepted atomic.Int32
		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 10; j++ {
					switch err := c.Send(session.Outbound{Message: "q"}); {
					case err == nil:
						accepted.Add(1)
					case errors.Is(err, ErrClosed), errors.Is(err, ErrSendQueueFull):
					default:
						t.Errorf("Send: %v", err)
					}
				}
			}()
		}
		time.Sleep(time.Duration(round%4) * time.Millisecond)
		c.Close()
		wg.Wait()

		select {
		case n := <-received:
			if int32(n) != accepted.Load() {
				t.Fatalf("round %d: peer received %d payloads, Send accepted %d", round, n, accepted.Load())
			}
		case <-time.After(5 * time.Second):
			t.Fatal("peer never saw the close")
		}
		if err := c.Send(session.Outbound{Message: "late"}); !errors.Is(err, ErrClosed) {
			t.Errorf("Send after Close = %v, want ErrClosed", err)
		}
	}
}

func TestDialFailure(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	defer ts.Close()

	_, err := Dial(context.Background(), ts.URL, "x", WithLogger(quietLogger()))
	if err == nil {
		t.Fatal("expected dial error")
	}
	if !strings.Contains(err.Error(), "404") {
		t.Errorf("error = %v, want status in message", err)
	}
}
