// ABOUTME: Tests for the content block renderer.
// ABOUTME: Covers headings, emphasis, lists, tables, degradation of malformed input, and totality.
package content

import (
	"reflect"
	"strings"
	"testing"
)

func TestRenderHeadingSpacerParagraph(t *testing.T) {
	got := Render("# Title\n\nSome **bold** text")
	want := []Block{
		Heading{Level: 1, Spans: []Span{{Text: "Title"}}},
		Spacer{},
		Paragraph{Spans: []Span{
			{Text: "Some "},
			{Text: "bold", Emphasized: true},
			{Text: " text"},
		}},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Render = %#v\nwant %#v", got, want)
	}
}

func TestRenderTable(t *testing.T) {
	got := Render("A|B\n--|--\n1|2\n3|4")
	want := []Block{
		Table{
			Headers: []string{"A", "B"},
			Rows:    [][]string{{"1", "2"}, {"3", "4"}},
		},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Render = %#v\nwant %#v", got, want)
	}
}

func TestRenderTableMarkdownStyle(t *testing.T) {
	text := "Summary:\n| Column | Mean | Missing |\n|---|---|---|\n| age | 41.2 | 0 |\n| income | | 3 |\nDone."
	got := Render(text)
	if len(got) != 3 {
		t.Fatalf("got %d blocks, want 3: %#v", len(got), got)
	}
	tbl, ok := got[1].(Table)
	if !ok {
		t.Fatalf("block[1] is %T, want Table", got[1])
	}
	if !reflect.DeepEqual(tbl.Headers, []string{"Column", "Mean", "Missing"}) {
		t.Errorf("headers = %q", tbl.Headers)
	}
	// Empty cells are dropped, so the short row is kept as-is.
	wantRows := [][]string{{"age", "41.2", "0"}, {"income", "3"}}
	if !reflect.DeepEqual(tbl.Rows, wantRows) {
		t.Errorf("rows = %q, want %q", tbl.Rows, wantRows)
	}
	if got[2].Kind() != KindParagraph {
		t.Errorf("block[2] = %v, want paragraph", got[2].Kind())
	}
}

func TestRenderTableRowCount(t *testing.T) {
	for n := 2; n <= 6; n++ {
		lines := make([]string, n)
		for i := range lines {
			lines[i] = "| a | b |"
		}
		blocks := Render(strings.Join(lines, "\n"))
		if len(blocks) != 1 {
			t.Fatalf("n=%d: got %d blocks, want 1", n, len(blocks))
		}
		tbl := blocks[0].(Table)
		if len(tbl.Rows) != n-2 {
			t.Errorf("n=%d: rows = %d, want %d", n, len(tbl.Rows), n-2)
		}
	}
}

func TestRenderAbandonedTable(t *testing.T) {
	got := Render("a | b | c\nplain")
	want := []Block{
		Paragraph{Spans: []Span{{Text: "a | b | c"}}},
		Paragraph{Spans: []Span{{Text: "plain"}}},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Render = %#v\nwant %#v", got, want)
	}
}

func TestRenderSinglePipeIsNotTable(t *testing.T) {
	got := Render("x | y\n1 | 2")
	for i, b := range got {
		if b.Kind() != KindParagraph {
			t.Errorf("block[%d] = %v, want paragraph", i, b.Kind())
		}
	}
}

func TestRenderLineKinds(t *testing.T) {
	tests := []struct {
		name string
		line string
		want Block
	}{
		{"h1", "# One", Heading{Level: 1, Spans: []Span{{Text: "One"}}}},
		{"h2", "## Two", Heading{Level: 2, Spans: []Span{{Text: "Two"}}}},
		{"h3", "### Three", Heading{Level: 3, Spans: []Span{{Text: "Three"}}}},
		{"h4 is paragraph", "#### Four", Paragraph{Spans: []Span{{Text: "#### Four"}}}},
		{"indented heading", "   ## Indented", Heading{Level: 2, Spans: []Span{{Text: "Indented"}}}},
		{"hash without space", "#tag", Paragraph{Spans: []Span{{Text: "#tag"}}}},
		{"bullet", "- item **x**", Bullet{Spans: []Span{{Text: "item "}, {Text: "x", Emphasized: true}}}},
		{"indented bullet", "  - nested", Bullet{Spans: []Span{{Text: "nested"}}}},
		{"ordered", "12. twelfth", OrderedItem{Index: "12", Spans: []Span{{Text: "twelfth"}}}},
		{"ordered no remainder", "1. ", Paragraph{Spans: []Span{{Text: "1. "}}}},
		{"ordered no space", "1.5 million", Paragraph{Spans: []Span{{Text: "1.5 million"}}}},
		{"whitespace only", " \t ", Spacer{}},
		{"paragraph keeps indent", "  indented text", Paragraph{Spans: []Span{{Text: "  indented text"}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Render(tt.line)
			if len(got) != 1 {
				t.Fatalf("got %d blocks, want 1", len(got))
			}
			if !reflect.DeepEqual(got[0], tt.want) {
				t.Errorf("Render(%q) = %#v, want %#v", tt.line, got[0], tt.want)
			}
		})
	}
}

func TestParseSpans(t *testing.T) {
	tests := []struct {
		line string
		want []Span
	}{
		{"", nil},
		{"plain", []Span{{Text: "plain"}}},
		{"**all**", []Span{{Text: "all", Emphasized: true}}},
		{"**a** and **b**", []Span{{Text: "a", Emphasized: true}, {Text: " and "}, {Text: "b", Emphasized: true}}},
		{"unmatched ** marker", []Span{{Text: "unmatched ** marker"}}},
		{"**a** then **", []Span{{Text: "a", Emphasized: true}, {Text: " then **"}}},
		{"empty **** pair", []Span{{Text: "empty **** pair"}}},
		{"***x***", []Span{{Text: "*x", Emphasized: true}, {Text: "*"}}},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got := ParseSpans(tt.line)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseSpans(%q) = %#v, want %#v", tt.line, got, tt.want)
			}
		})
	}
}

func TestRenderIsTotal(t *testing.T) {
	inputs := []string{
		"",
		"\n",
		"|",
		"||",
		"||\n||",
		"**",
		"# ",
		"- ",
		"\x00\xff|**|",
		strings.Repeat("| x ", 100),
		"a\r\nb\r\n",
	}
	for _, in := range inputs {
		blocks := Render(in)
		if len(blocks) < 1 {
			t.Errorf("Render(%q) returned no blocks", in)
		}
	}

	if got := Render(""); !reflect.DeepEqual(got, []Block{Spacer{}}) {
		t.Errorf("Render(\"\") = %#v, want [Spacer]", got)
	}
}

func TestPlainText(t *testing.T) {
	spans := ParseSpans("Revenue grew **12%** in **Q3**.")
	if got := PlainText(spans); got != "Revenue grew 12% in Q3." {
		t.Errorf("PlainText = %q", got)
	}
	if got := PlainText(nil); got != "" {
		t.Errorf("PlainText(nil) = %q", got)
	}
}

func TestKindString(t *testing.T) {
	if KindOrderedItem.String() != "ordered_item" {
		t.Errorf("KindOrderedItem = %q", KindOrderedItem.String())
	}
	if Kind(42).String() != "unknown" {
		t.Errorf("Kind(42) = %q", Kind(42).String())
	}
}
