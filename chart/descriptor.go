// ABOUTME: Chart descriptor types recovered from embedded Plotly figures, plus the insight metadata sent alongside them.
// ABOUTME: Descriptors are immutable: construction and every accessor deep-copy the series and layout values.
package chart

import (
	"encoding/json"
	"strings"
)

// Insight is the optional commentary the analysis backend attaches to a figure.
type Insight struct {
	Title      string `json:"title"`
	KeyFinding string `json:"key_finding"`
	Details    string `json:"details"`
}

// Figure is one element of a result event's plotly_figures list: raw chart
// HTML exactly as received plus its optional insight.
type Figure struct {
	HTML    string   `json:"html"`
	Insight *Insight `json:"insight,omitempty"`
}

// Descriptor is the structured chart data recovered from a figure's HTML:
// the series array and layout object passed to the plot call.
type Descriptor struct {
	series  []any
	layout  map[string]any
	insight *Insight
}

// TraceSummary is a compact description of one series for text display.
type TraceSummary struct {
	Name   string
	Type   string
	Points int
}

// NewDescriptor builds a descriptor from already-evaluated values. The
// arguments are copied, so later changes by the caller are not observed.
func NewDescriptor(series []any, layout map[string]any, insight *Insight) Descriptor {
	d := Descriptor{
		series: copySlice(series),
		layout: copyMap(layout),
	}
	if insight != nil {
		in := *insight
		d.insight = &in
	}
	return d
}

// Series returns a copy of the series array.
func (d Descriptor) Series() []any { return copySlice(d.series) }

// Layout returns a copy of the layout object.
func (d Descriptor) Layout() map[string]any { return copyMap(d.layout) }

// Insight returns a copy of the attached insight, or nil.
func (d Descriptor) Insight() *Insight {
	if d.insight == nil {
		return nil
	}
	in := *d.insight
	return &in
}

// WithInsight returns a copy of d carrying the given insight.
func (d Descriptor) WithInsight(insight *Insight) Descriptor {
	return NewDescriptor(d.series, d.layout, insight)
}

// IsZero reports whether d is the empty descriptor returned on "not found".
func (d Descriptor) IsZero() bool {
	return d.series == nil && d.layout == nil && d.insight == nil
}

// Title returns layout.title, which Plotly accepts either as a plain string
// or as an object with a text field.
func (d Descriptor) Title() string {
	switch t := d.layout["title"].(type) {
	case string:
		return strings.TrimSpace(t)
	case map[string]any:
		if s, ok := t["text"].(string); ok {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

// Traces summarizes each series entry. Entries that are not objects are
// reported as unnamed scatter traces with no points.
func (d Descriptor) Traces() []TraceSummary {
	out := make([]TraceSummary, 0, len(d.series))
	for _, s := range d.series {
		ts := TraceSummary{Type: "scatter"}
		trace, ok := s.(map[string]any)
		if ok {
			if name, ok := trace["name"].(string); ok {
				ts.Name = name
			}
			if typ, ok := trace["type"].(string); ok && typ != "" {
				ts.Type = typ
			}
			for _, key := range []string{"x", "y", "values", "z", "labels"} {
				if arr, ok := trace[key].([]any); ok && len(arr) > ts.Points {
					ts.Points = len(arr)
				}
			}
		}
		out = append(out, ts)
	}
	return out
}

type descriptorJSON struct {
	Data    []any          `json:"data"`
	Layout  map[string]any `json:"layout"`
	Insight *Insight       `json:"insight,omitempty"`
}

// MarshalJSON encodes the descriptor in Plotly's {data, layout} figure shape.
func (d Descriptor) MarshalJSON() ([]byte, error) {
	data := d.series
	if data == nil {
		data = []any{}
	}
	layout := d.layout
	if layout == nil {
		layout = map[string]any{}
	}
	return json.Marshal(descriptorJSON{Data: data, Layout: layout, Insight: d.insight})
}

// UnmarshalJSON decodes the {data, layout, insight} shape written by MarshalJSON.
func (d *Descriptor) UnmarshalJSON(b []byte) error {
	var raw descriptorJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*d = Descriptor{series: raw.Data, layout: raw.Layout, insight: raw.Insight}
	return nil
}

func copyValue(v any) any {
	switch t := v.(type) {
	case []any:
		return copySlice(t)
	case map[string]any:
		return copyMap(t)
	default:
		return v
	}
}

func copySlice(s []any) []any {
	if s == nil {
		return nil
	}
	out := make([]any, len(s))
	for i, v := range s {
		out[i] = copyValue(v)
	}
	return out
}

func copyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = copyValue(v)
	}
	return out
}
