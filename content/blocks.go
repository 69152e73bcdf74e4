// ABOUTME: Display block types produced by the content renderer.
// ABOUTME: Block is a closed set of variants: headings, bullets, ordered items, tables, spacers, paragraphs.
package content

import "strings"

// Kind identifies a block variant.
type Kind int

const (
	KindHeading Kind = iota
	KindBullet
	KindOrderedItem
	KindTable
	KindSpacer
	KindParagraph
)

// String returns a human-readable name for the kind.
func (k Kind) String() string {
	switch k {
	case KindHeading:
		return "heading"
	case KindBullet:
		return "bullet"
	case KindOrderedItem:
		return "ordered_item"
	case KindTable:
		return "table"
	case KindSpacer:
		return "spacer"
	case KindParagraph:
		return "paragraph"
	default:
		return "unknown"
	}
}

// Block is one rendered unit of text. The unexported method keeps the set
// of variants closed to this package.
type Block interface {
	Kind() Kind
	block()
}

// Span is a run of inline text, optionally emphasized.
type Span struct {
	Text       string
	Emphasized bool
}

// Heading is a "#", "##" or "###" line.
type Heading struct {
	Level int
	Spans []Span
}

// Bullet is a "- " list item.
type Bullet struct {
	Spans []Span
}

// OrderedItem is a "N. " list item. Index keeps the literal digits.
type OrderedItem struct {
	Index string
	Spans []Span
}

// Table is a pipe-delimited table. Rows are not padded to the header width.
type Table struct {
	Headers []string
	Rows    [][]string
}

// Spacer is a blank line.
type Spacer struct{}

// Paragraph is any other line.
type Paragraph struct {
	Spans []Span
}

func (Heading) Kind() Kind     { return KindHeading }
func (Bullet) Kind() Kind      { return KindBullet }
func (OrderedItem) Kind() Kind { return KindOrderedItem }
func (Table) Kind() Kind       { return KindTable }
func (Spacer) Kind() Kind      { return KindSpacer }
func (Paragraph) Kind() Kind   { return KindParagraph }

func (Heading) block()     {}
func (Bullet) block()      {}
func (OrderedItem) block() {}
func (Table) block()       {}
func (Spacer) block()      {}
func (Paragraph) block()   {}

// PlainText joins the text of spans, dropping emphasis.
func PlainText(spans []Span) string {
	var sb strings.Builder
	for _, s := range spans {
		sb.WriteString(s.Text)
	}
	return sb.String()
}
