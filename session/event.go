// ABOUTME: Inbound channel events (log, result, error) and the outbound message payload.
// ABOUTME: Decodes one JSON frame per event; images are base64-decoded at ingestion.
package session

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/2389-research/datachat/chart"
)

// EventType is the "type" discriminator of an inbound frame.
type EventType string

const (
	EventLog    EventType = "log"
	EventResult EventType = "result"
	EventError  EventType = "error"
)

// Event is one inbound frame. Which fields are set depends on Type: log
// events carry Message (and optionally Node); result events carry Content,
// Figures and Image; error events carry Content.
type Event struct {
	Type    EventType
	Message string
	Node    string
	Content string
	Figures []chart.Figure
	Image   []byte
}

// Outbound is the payload sent for a user submission.
type Outbound struct {
	Message string `json:"message"`
}

// eventJSON is the wire format for Event.
type eventJSON struct {
	Type    EventType      `json:"type"`
	Message string         `json:"message,omitempty"`
	Node    string         `json:"node,omitempty"`
	Content string         `json:"content,omitempty"`
	Image   string         `json:"image,omitempty"`
	Figures []chart.Figure `json:"plotly_figures,omitempty"`
}

// DecodeEvent parses one inbound frame. Only malformed JSON is an error; an
// unrecognized type is returned as-is and rejected later by Apply. An image
// that is not valid base64 is dropped and logged.
func DecodeEvent(data []byte) (Event, error) {
	var j eventJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return Event{}, fmt.Errorf("decode event: %w", err)
	}

	evt := Event{
		Type:    j.Type,
		Message: j.Message,
		Node:    j.Node,
		Content: j.Content,
		Figures: j.Figures,
	}
	if j.Image != "" {
		img, err := DecodeImage(j.Image)
		if err != nil {
			log.Printf("component=session action=decode_image type=%s err=%v", j.Type, err)
		} else {
			evt.Image = img
		}
	}
	return evt, nil
}

// MarshalJSON encodes the event in its wire format.
func (e Event) MarshalJSON() ([]byte, error) {
	j := eventJSON{
		Type:    e.Type,
		Message: e.Message,
		Node:    e.Node,
		Content: e.Content,
		Figures: e.Figures,
	}
	if len(e.Image) > 0 {
		j.Image = base64.StdEncoding.EncodeToString(e.Image)
	}
	return json.Marshal(j)
}

// UnmarshalJSON decodes the wire format via DecodeEvent.
func (e *Event) UnmarshalJSON(data []byte) error {
	evt, err := DecodeEvent(data)
	if err != nil {
		return err
	}
	*e = evt
	return nil
}

// DecodeImage decodes a base64 image, accepting padded or unpadded input
// and an optional data URL prefix such as "data:image/png;base64,".
func DecodeImage(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "data:") {
		if i := strings.Index(s, ","); i >= 0 {
			s = s[i+1:]
		}
	}
	if b, err := base64.StdEncoding.DecodeString(s); err == nil {
		return b, nil
	}
	b, err := base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "="))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return b, nil
}
