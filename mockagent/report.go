// ABOUTME: Canned analysis output for the mock agent: dataset summaries, answers, and Plotly figure HTML.
// ABOUTME: Output exercises every block kind the client renders plus the figure and image payloads.
package mockagent

import (
	"fmt"
	"strings"

	"github.com/2389-research/datachat/chart"
	"github.com/2389-research/datachat/session"
)

// pixelPNG is a 1x1 transparent PNG used for image payloads.
var pixelPNG = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d,
	0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4, 0x89, 0x00, 0x00, 0x00,
	0x0d, 0x49, 0x44, 0x41, 0x54, 0x78, 0x9c, 0x63, 0x00, 0x01, 0x00, 0x00,
	0x05, 0x00, 0x01, 0x0d, 0x0a, 0x2d, 0xb4, 0x00, 0x00, 0x00, 0x00, 0x49,
	0x45, 0x4e, 0x44, 0xae, 0x42, 0x60, 0x82,
}

// summaryEvent builds the initial dataset summary pushed after connect.
func summaryEvent(ds Dataset) session.Event {
	columns := splitHeader(ds.Header)

	var sb strings.Builder
	fmt.Fprintf(&sb, "# Dataset Summary\n\n")
	fmt.Fprintf(&sb, "Loaded **%s** (%d bytes, %d lines).\n\n", ds.Filename, ds.Size, ds.Lines)
	sb.WriteString("## Columns\n")
	if len(columns) == 0 {
		sb.WriteString("- no header row detected\n")
	}
	for _, c := range columns {
		fmt.Fprintf(&sb, "- **%s**\n", c)
	}
	sb.WriteString("\nAsk a question about the data to get started.")

	return session.Event{Type: session.EventResult, Content: sb.String()}
}

// answerEvent builds the result for one user question.
func answerEvent(ds Dataset, question string, turn int) session.Event {
	columns := splitHeader(ds.Header)
	if len(columns) == 0 {
		columns = []string{"value"}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "## Analysis %d\n\n", turn)
	fmt.Fprintf(&sb, "You asked: %s\n\n", strings.TrimSpace(question))
	sb.WriteString("### Key Findings\n")
	fmt.Fprintf(&sb, "1. The dataset has **%d** rows.\n", max(ds.Lines-1, 0))
	fmt.Fprintf(&sb, "2. There are **%d** columns.\n\n", len(columns))
	sb.WriteString("| Column | Position |\n|---|---|\n")
	for i, c := range columns {
		fmt.Fprintf(&sb, "| %s | %d |\n", c, i+1)
	}
	sb.WriteString("\n- See the chart below for the distribution.")

	evt := session.Event{
		Type:    session.EventResult,
		Content: sb.String(),
		Figures: []chart.Figure{{
			HTML: FigureHTML("Column positions", columns),
			Insight: &chart.Insight{
				Title:      "Column positions",
				KeyFinding: fmt.Sprintf("%d columns detected", len(columns)),
				Details:    "Each bar shows the position of a column in the header row.",
			},
		}},
	}
	if strings.Contains(strings.ToLower(question), "image") {
		evt.Image = pixelPNG
	}
	return evt
}

// FigureHTML renders a bar chart in the shape Plotly's Python exporter
// produces: a div plus a script calling Plotly.newPlot with JSON literals.
func FigureHTML(title string, labels []string) string {
	xs := make([]string, len(labels))
	ys := make([]string, len(labels))
	for i, l := range labels {
		xs[i] = fmt.Sprintf("%q", l)
		ys[i] = fmt.Sprintf("%d", i+1)
	}
	return fmt.Sprintf(`<div>
<script type="text/javascript">window.PLOTLYENV=window.PLOTLYENV || {};</script>
<div id="plot" class="plotly-graph-div" style="height:100%%; width:100%%;"></div>
<script type="text/javascript">
  if (document.getElementById("plot")) {
    Plotly.newPlot("plot", [{"type": "bar", "name": %q, "x": [%s], "y": [%s]}], {"title": {"text": %q}, "template": {"layout": {"font": {"color": "#f2f5fa"}}}}, {"responsive": true})
  };
</script>
</div>`, title, strings.Join(xs, ", "), strings.Join(ys, ", "), title)
}

func splitHeader(header string) []string {
	var cols []string
	for _, c := range strings.Split(header, ",") {
		if c = strings.TrimSpace(strings.Trim(c, `"`)); c != "" {
			cols = append(cols, c)
		}
	}
	return cols
}
