// ABOUTME: Renders content blocks as styled terminal text for the transcript panel.
// ABOUTME: Paragraphs and list items are word-wrapped; tables are drawn with lipgloss/table.
package tui

import (
	"strings"

	"github.com/2389-research/datachat/content"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/muesli/reflow/truncate"
	"github.com/muesli/reflow/wordwrap"
)

// minWrap is the narrowest width text is wrapped to.
const minWrap = 10

// RenderBlocks renders blocks top to bottom, one block per line group.
func RenderBlocks(blocks []content.Block, width int) string {
	if width < minWrap {
		width = minWrap
	}
	lines := make([]string, 0, len(blocks))
	for _, b := range blocks {
		lines = append(lines, renderBlock(b, width))
	}
	return strings.Join(lines, "\n")
}

func renderBlock(b content.Block, width int) string {
	switch b := b.(type) {
	case content.Heading:
		text := wrap(content.PlainText(b.Spans), width)
		return HeadingStyle(b.Level).Render(text)
	case content.Bullet:
		return hanging(MarkerStyle.Render("•")+" ", 2, b.Spans, width)
	case content.OrderedItem:
		marker := b.Index + ". "
		return hanging(MarkerStyle.Render(b.Index+".")+" ", len(marker), b.Spans, width)
	case content.Table:
		return renderTable(b, width)
	case content.Spacer:
		return ""
	case content.Paragraph:
		return renderSpans(b.Spans, width)
	default:
		return ""
	}
}

// renderSpans wraps the plain text first so emphasis styling cannot skew
// the width math, then re-applies bold to the emphasized runs.
func renderSpans(spans []content.Span, width int) string {
	wrapped := wrap(content.PlainText(spans), width)
	if !hasEmphasis(spans) {
		return wrapped
	}

	var b strings.Builder
	rest := wrapped
	for _, sp := range spans {
		for _, word := range strings.Fields(sp.Text) {
			idx := strings.Index(rest, word)
			if idx < 0 {
				continue
			}
			b.WriteString(rest[:idx])
			if sp.Emphasized {
				b.WriteString(BoldStyle.Render(word))
			} else {
				b.WriteString(word)
			}
			rest = rest[idx+len(word):]
		}
	}
	b.WriteString(rest)
	return b.String()
}

func hasEmphasis(spans []content.Span) bool {
	for _, sp := range spans {
		if sp.Emphasized {
			return true
		}
	}
	return false
}

// hanging renders a list item with the marker on the first line and the
// continuation lines indented by indent columns.
func hanging(marker string, indent int, spans []content.Span, width int) string {
	body := renderSpans(spans, width-indent)
	lines := strings.Split(body, "\n")
	pad := strings.Repeat(" ", indent)
	for i := range lines {
		if i == 0 {
			lines[i] = marker + lines[i]
			continue
		}
		lines[i] = pad + lines[i]
	}
	return strings.Join(lines, "\n")
}

// renderTable draws headers and rows. Rows shorter than the header are
// padded with empty cells; cells are truncated so the table fits width.
func renderTable(t content.Table, width int) string {
	cols := len(t.Headers)
	for _, row := range t.Rows {
		cols = max(cols, len(row))
	}
	if cols == 0 {
		return ""
	}
	// Borders take cols+1 columns; each cell has one column of padding per side.
	cell := (width-(cols+1))/cols - 2
	cell = max(cell, 3)

	fit := func(cells []string) []string {
		out := make([]string, cols)
		for i := range out {
			if i < len(cells) {
				out[i] = truncate.StringWithTail(cells[i], uint(cell), "…")
			}
		}
		return out
	}

	rows := make([][]string, 0, len(t.Rows))
	for _, r := range t.Rows {
		rows = append(rows, fit(r))
	}

	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(MutedStyle).
		Headers(fit(t.Headers)...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return HeaderStyle
			}
			return TableStyle
		})
	return tbl.Render()
}

func wrap(text string, width int) string {
	if width < minWrap {
		width = minWrap
	}
	return strings.TrimSuffix(wordwrap.String(text, width), "\n")
}
