// ABOUTME: Tests for inbound event decoding and the wire encoding used by the mock agent.
// ABOUTME: Covers each event type, figure insights, image decoding variants, and malformed frames.
package session

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"

	"github.com/2389-research/datachat/chart"
	"github.com/2389-research/datachat/content"
)

func TestDecodeEventLog(t *testing.T) {
	evt, err := DecodeEvent([]byte(`{"type":"log","message":"Starting...","node":"planner"}`))
	if err != nil {
		t.Fatalf("DecodeEvent: %v", err)
	}
	if evt.Type != EventLog || evt.Message != "Starting..." || evt.Node != "planner" {
		t.Errorf("event = %+v", evt)
	}
}

func TestDecodeEventResult(t *testing.T) {
	img := base64.StdEncoding.EncodeToString([]byte("PNGDATA"))
	frame := `{"type":"result","content":"# Done","image":"` + img + `","plotly_figures":[{"html":"<div></div>","insight":{"title":"T","key_finding":"K","details":"D"}},{"html":"<p></p>"}]}`
	evt, err := DecodeEvent([]byte(frame))
	if err != nil {
		t.Fatalf("DecodeEvent: %v", err)
	}
	if evt.Type != EventResult || evt.Content != "# Done" {
		t.Errorf("event = %+v", evt)
	}
	if string(evt.Image) != "PNGDATA" {
		t.Errorf("image = %q", evt.Image)
	}
	if len(evt.Figures) != 2 {
		t.Fatalf("figures = %d, want 2", len(evt.Figures))
	}
	want := chart.Insight{Title: "T", KeyFinding: "K", Details: "D"}
	if evt.Figures[0].Insight == nil || *evt.Figures[0].Insight != want {
		t.Errorf("insight = %+v", evt.Figures[0].Insight)
	}
	if evt.Figures[1].Insight != nil {
		t.Errorf("second figure insight = %+v, want nil", evt.Figures[1].Insight)
	}
}

func TestDecodeEventBadImageIsDropped(t *testing.T) {
	evt, err := DecodeEvent([]byte(`{"type":"result","content":"x","image":"%%%not base64%%%"}`))
	if err != nil {
		t.Fatalf("DecodeEvent: %v", err)
	}
	if evt.Image != nil {
		t.Errorf("image = %v, want nil", evt.Image)
	}
	if evt.Content != "x" {
		t.Errorf("content = %q", evt.Content)
	}
}

func TestDecodeEventErrors(t *testing.T) {
	for _, in := range []string{``, `not json`, `[1,2]`, `{"type":`} {
		if _, err := DecodeEvent([]byte(in)); err == nil {
			t.Errorf("DecodeEvent(%q) should fail", in)
		}
	}
	evt, err := DecodeEvent([]byte(`{"type":"heartbeat"}`))
	if err != nil {
		t.Fatalf("unknown type should decode: %v", err)
	}
	if evt.Type != "heartbeat" {
		t.Errorf("type = %q", evt.Type)
	}
}

func TestDecodeImage(t *testing.T) {
	raw := []byte{0x89, 'P', 'N', 'G', 0x0d}
	tests := []struct {
		name string
		in   string
	}{
		{"std", base64.StdEncoding.EncodeToString(raw)},
		{"raw", base64.RawStdEncoding.EncodeToString(raw)},
		{"data url", "data:image/png;base64," + base64.StdEncoding.EncodeToString(raw)},
		{"whitespace", "  " + base64.StdEncoding.EncodeToString(raw) + "\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeImage(tt.in)
			if err != nil {
				t.Fatalf("DecodeImage: %v", err)
			}
			if !bytes.Equal(got, raw) {
				t.Errorf("DecodeImage = %v, want %v", got, raw)
			}
		})
	}
	if _, err := DecodeImage("!!"); err == nil {
		t.Error("expected error for invalid base64")
	}
}

func TestEventWireRoundTrip(t *testing.T) {
	evt := Event{
		Type:    EventResult,
		Content: "body",
		Image:   []byte("img"),
		Figures: []chart.Figure{{HTML: "<script></script>"}},
	}
	b, err := json.Marshal(evt)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !strings.Contains(string(b), `"plotly_figures"`) || !strings.Contains(string(b), `"type":"result"`) {
		t.Errorf("wire = %s", b)
	}
	var back Event
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if back.Content != "body" || string(back.Image) != "img" || len(back.Figures) != 1 {
		t.Errorf("back = %+v", back)
	}
}

func TestEntryBlocks(t *testing.T) {
	user := Entry{Origin: OriginUser, Text: "# not a heading"}
	if b := user.Blocks(); len(b) != 1 || b[0].Kind() != content.KindParagraph {
		t.Errorf("user blocks = %#v", b)
	}
	agent := Entry{Origin: OriginAgent, Text: "# Heading\n- item"}
	b := agent.Blocks()
	if len(b) != 2 || b[0].Kind() != content.KindHeading || b[1].Kind() != content.KindBullet {
		t.Errorf("agent blocks = %#v", b)
	}
}

func TestEntryDescriptors(t *testing.T) {
	e := Entry{Origin: OriginAgent, Figures: []chart.Figure{
		{HTML: `<script>Plotly.newPlot("a", [{y: [1, 2]}], {title: "Good"})</script>`},
		{HTML: `<p>no chart</p>`},
	}}
	views := e.Descriptors(nil)
	if len(views) != 2 {
		t.Fatalf("views = %d, want 2", len(views))
	}
	if !views[0].OK || views[0].Descriptor.Title() != "Good" {
		t.Errorf("view[0] = %+v", views[0])
	}
	if views[1].OK {
		t.Error("view[1] should not be found")
	}

	calls := 0
	e.Descriptors(func(chart.Figure) (chart.Descriptor, bool) {
		calls++
		return chart.Descriptor{}, false
	})
	if calls != 2 {
		t.Errorf("custom extractor called %d times, want 2", calls)
	}
}
