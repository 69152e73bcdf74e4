// ABOUTME: Line-oriented renderer for the chat's markdown-like dialect into typed display blocks.
// ABOUTME: Total over arbitrary input: malformed tables and stray bold markers degrade to plain text.
package content

import (
	"regexp"
	"strings"
)

var (
	boldPattern    = regexp.MustCompile(`\*\*(.+?)\*\*`)
	orderedPattern = regexp.MustCompile(`^(\d+)\.\s(.+)$`)
)

// headingPrefixes is checked longest first so "### " is not read as "# ".
var headingPrefixes = []struct {
	prefix string
	level  int
}{
	{"### ", 3},
	{"## ", 2},
	{"# ", 1},
}

// Render converts text into display blocks, one pass over its lines. Every
// input yields at least one block; the empty string renders as one Spacer.
func Render(text string) []Block {
	lines := strings.Split(text, "\n")
	blocks := make([]Block, 0, len(lines))

	for i := 0; i < len(lines); {
		line := lines[i]

		if strings.Count(line, "|") > 1 {
			if tbl, next, ok := renderTable(lines, i); ok {
				blocks = append(blocks, tbl)
				i = next
				continue
			}
		}

		blocks = append(blocks, renderLine(line))
		i++
	}
	return blocks
}

// renderTable consumes the run of pipe-containing lines starting at start.
// A run shorter than two lines is not a table.
func renderTable(lines []string, start int) (Table, int, bool) {
	end := start
	for end < len(lines) && strings.Contains(lines[end], "|") {
		end++
	}
	if end-start < 2 {
		return Table{}, start, false
	}

	tbl := Table{
		Headers: splitCells(lines[start]),
		Rows:    make([][]string, 0, end-start-2),
	}
	for _, row := range lines[start+2 : end] {
		tbl.Rows = append(tbl.Rows, splitCells(row))
	}
	return tbl, end, true
}

// splitCells splits a table line on pipes, trimming cells and dropping empty ones.
func splitCells(line string) []string {
	parts := strings.Split(line, "|")
	cells := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			cells = append(cells, p)
		}
	}
	return cells
}

func renderLine(line string) Block {
	trimmed := strings.TrimSpace(line)

	for _, h := range headingPrefixes {
		if strings.HasPrefix(trimmed, h.prefix) {
			return Heading{Level: h.level, Spans: ParseSpans(trimmed[len(h.prefix):])}
		}
	}

	if strings.HasPrefix(trimmed, "- ") {
		return Bullet{Spans: ParseSpans(trimmed[2:])}
	}

	if m := orderedPattern.FindStringSubmatch(trimmed); m != nil {
		return OrderedItem{Index: m[1], Spans: ParseSpans(m[2])}
	}

	if trimmed == "" {
		return Spacer{}
	}

	return Paragraph{Spans: ParseSpans(line)}
}

// ParseSpans splits a line into alternating plain and emphasized spans on
// non-greedy **…** pairs. An unmatched ** stays in the plain text, and an
// empty line has no spans.
func ParseSpans(line string) []Span {
	var spans []Span
	last := 0
	for _, m := range boldPattern.FindAllStringSubmatchIndex(line, -1) {
		if m[0] > last {
			spans = append(spans, Span{Text: line[last:m[0]]})
		}
		spans = append(spans, Span{Text: line[m[2]:m[3]], Emphasized: true})
		last = m[1]
	}
	if last < len(line) {
		spans = append(spans, Span{Text: line[last:]})
	}
	return spans
}
