// ABOUTME: Renders recovered chart descriptors as standalone Plotly HTML pages or JSON figures.
// ABOUTME: Provides FigureHTML, FigureJSON, and Render with the html/json format switch.
package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"

	"github.com/2389-research/datachat/chart"
)

// PlotlyCDN is the script the standalone page loads Plotly from.
const PlotlyCDN = "https://cdn.plot.ly/plotly-2.35.2.min.js"

var pageTemplate = template.Must(template.New("figure").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<script src="{{.CDN}}"></script>
</head>
<body>
{{- with .Insight}}
<h1>{{.Title}}</h1>
<p><strong>{{.KeyFinding}}</strong></p>
<p>{{.Details}}</p>
{{- end}}
<div id="figure"></div>
<script>
Plotly.newPlot("figure", {{.Data}}, {{.Layout}}, {"responsive": true});
</script>
</body>
</html>
`))

type pageData struct {
	Title   string
	CDN     string
	Insight *chart.Insight
	Data    template.JS
	Layout  template.JS
}

// FigureHTML renders d as a standalone page that re-plots its series and
// layout. The output contains the same Plotly.newPlot call shape that
// chart.Extract reads, so exported pages extract back to d.
func FigureHTML(d chart.Descriptor) ([]byte, error) {
	series := d.Series()
	if series == nil {
		series = []any{}
	}
	layout := d.Layout()
	if layout == nil {
		layout = map[string]any{}
	}

	data, err := json.Marshal(series)
	if err != nil {
		return nil, fmt.Errorf("marshal series: %w", err)
	}
	lay, err := json.Marshal(layout)
	if err != nil {
		return nil, fmt.Errorf("marshal layout: %w", err)
	}

	title := d.Title()
	if in := d.Insight(); in != nil && in.Title != "" {
		title = in.Title
	}
	if title == "" {
		title = "Visualization"
	}

	var buf bytes.Buffer
	err = pageTemplate.Execute(&buf, pageData{
		Title:   title,
		CDN:     PlotlyCDN,
		Insight: d.Insight(),
		Data:    template.JS(data),
		Layout:  template.JS(lay),
	})
	if err != nil {
		return nil, fmt.Errorf("execute figure template: %w", err)
	}
	return buf.Bytes(), nil
}

// FigureJSON renders d as an indented Plotly figure object.
func FigureJSON(d chart.Descriptor) ([]byte, error) {
	return json.MarshalIndent(d, "", "  ")
}

// Render renders d in the given format: "html" or "json".
func Render(d chart.Descriptor, format string) ([]byte, error) {
	switch format {
	case "html":
		return FigureHTML(d)
	case "json":
		return FigureJSON(d)
	default:
		return nil, fmt.Errorf("unsupported format %q: supported formats are html, json", format)
	}
}
