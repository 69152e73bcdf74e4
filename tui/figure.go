// ABOUTME: Renders extracted visualizations and images as text panels inside the transcript.
// ABOUTME: Shows title, carousel position, trace summaries, and the insight, with placeholders on failure.
package tui

import (
	"fmt"
	"strings"

	"github.com/2389-research/datachat/session"
	"github.com/muesli/reflow/truncate"
)

// Fallback texts for figures whose insight omits a field.
const (
	DefaultFigureTitle = "Visualization"
	DefaultKeyFinding  = "Data insights"
	DefaultDetails     = "Analysis of the visualization."
	LoadingFigure      = "Loading visualization..."
)

// maxTraces caps the trace lines shown per figure.
const maxTraces = 6

// RenderFigure renders figure i (1-based) of n.
func RenderFigure(view session.FigureView, i, n, width int) string {
	inner := max(width-4, minWrap)

	title := DefaultFigureTitle
	var keyFinding, details string
	if in := view.Figure.Insight; in != nil {
		if in.Title != "" {
			title = in.Title
		}
		keyFinding, details = in.KeyFinding, in.Details
	}
	if title == DefaultFigureTitle && view.OK {
		if t := view.Descriptor.Title(); t != "" {
			title = t
		}
	}
	if keyFinding == "" {
		keyFinding = DefaultKeyFinding
	}
	if details == "" {
		details = DefaultDetails
	}

	var b strings.Builder
	pos := fmt.Sprintf("%d / %d", i, n)
	head := truncate.StringWithTail(title, uint(max(inner-len(pos)-1, 1)), "…")
	b.WriteString(TitleStyle.Render(head) + " " + MutedStyle.Render(pos))
	b.WriteString("\n")

	if !view.OK {
		b.WriteString(MutedStyle.Render(LoadingFigure))
	} else {
		traces := view.Descriptor.Traces()
		if len(traces) == 0 {
			b.WriteString(MutedStyle.Render("(no series)"))
		}
		for k, tr := range traces {
			if k == maxTraces {
				b.WriteString(MutedStyle.Render(fmt.Sprintf("  … %d more series", len(traces)-maxTraces)))
				break
			}
			name := tr.Name
			if name == "" {
				name = fmt.Sprintf("trace %d", k+1)
			}
			line := fmt.Sprintf("  %s %s (%s, %d points)", MarkerStyle.Render("▪"), name, tr.Type, tr.Points)
			b.WriteString(truncate.String(line, uint(inner)))
			if k < len(traces)-1 {
				b.WriteString("\n")
			}
		}
	}
	b.WriteString("\n")
	b.WriteString(FindingStyle.Render(wrap(keyFinding, inner)))
	b.WriteString("\n")
	b.WriteString(wrap(details, inner))

	return FigureStyle.Width(width - 2).Render(b.String())
}

// RenderImage renders the placeholder line for an attached image.
func RenderImage(size int) string {
	return MutedStyle.Render(fmt.Sprintf("[image: %d bytes]", size))
}
