// ABOUTME: Transcript entry types: user messages and agent results or errors with their raw chart payloads.
// ABOUTME: Entries render lazily; text becomes content blocks and figures are extracted at display time.
package session

import (
	"time"

	"github.com/2389-research/datachat/chart"
	"github.com/2389-research/datachat/content"
	"github.com/oklog/ulid/v2"
)

// Origin says who produced a transcript entry.
type Origin string

const (
	OriginUser  Origin = "user"
	OriginAgent Origin = "agent"
)

// Entry is one message in the transcript. Figures hold the chart HTML
// exactly as received; extraction happens when the entry is displayed.
type Entry struct {
	ID      ulid.ULID      `json:"id"`
	Origin  Origin         `json:"origin"`
	Text    string         `json:"text"`
	Figures []chart.Figure `json:"figures,omitempty"`
	Image   []byte         `json:"image,omitempty"`
	IsError bool           `json:"is_error,omitempty"`
	At      time.Time      `json:"at"`
}

// FigureView pairs a raw figure with the result of extracting it.
type FigureView struct {
	Figure     chart.Figure
	Descriptor chart.Descriptor
	OK         bool
}

// Blocks renders the entry text. User text is shown verbatim as one paragraph.
func (e Entry) Blocks() []content.Block {
	if e.Origin == OriginUser {
		return []content.Block{content.Paragraph{Spans: []content.Span{{Text: e.Text}}}}
	}
	return content.Render(e.Text)
}

// Descriptors runs extract over each figure in order. A nil extract uses
// chart.ExtractFigure with default options.
func (e Entry) Descriptors(extract func(chart.Figure) (chart.Descriptor, bool)) []FigureView {
	if extract == nil {
		extract = func(f chart.Figure) (chart.Descriptor, bool) { return chart.ExtractFigure(f) }
	}
	views := make([]FigureView, 0, len(e.Figures))
	for _, f := range e.Figures {
		d, ok := extract(f)
		views = append(views, FigureView{Figure: f, Descriptor: d, OK: ok})
	}
	return views
}

func (e Entry) clone() Entry {
	out := e
	if e.Figures != nil {
		out.Figures = make([]chart.Figure, len(e.Figures))
		for i, f := range e.Figures {
			out.Figures[i] = f
			if f.Insight != nil {
				in := *f.Insight
				out.Figures[i].Insight = &in
			}
		}
	}
	if e.Image != nil {
		out.Image = append([]byte(nil), e.Image...)
	}
	return out
}
