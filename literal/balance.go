// ABOUTME: Delimiter balancer that finds the first well-formed bracketed span at or after an offset.
// ABOUTME: Balance counts brackets blindly; BalanceQuoted skips brackets inside string literals.
package literal

// Span is a bracketed region located by Balance. Text is s[Start:End+1].
type Span struct {
	Text  string
	Start int // index of the first open character
	End   int // index of the matching close character
}

// Balance scans s from the first occurrence of open at or after start and
// returns the span up to the close character that brings the depth back to
// zero. Open and close are counted unconditionally: the scanner does not
// know about string literals, so a quoted "]" inside the region shifts the
// match. Close characters seen before the first open are ignored.
func Balance(s string, open, close byte, start int) (Span, bool) {
	if start < 0 {
		start = 0
	}
	depth := 0
	first := -1
	for i := start; i < len(s); i++ {
		switch s[i] {
		case open:
			if depth == 0 {
				first = i
			}
			depth++
		case close:
			if first == -1 {
				continue
			}
			depth--
			if depth == 0 {
				return Span{Text: s[first : i+1], Start: first, End: i}, true
			}
		}
	}
	return Span{}, false
}

// BalanceQuoted behaves like Balance but ignores open and close characters
// that appear inside '…', "…" or `…` string literals, honoring backslash
// escapes. Quote tracking starts at the first open character.
func BalanceQuoted(s string, open, close byte, start int) (Span, bool) {
	if start < 0 {
		start = 0
	}
	first := -1
	for i := start; i < len(s); i++ {
		if s[i] == open {
			first = i
			break
		}
	}
	if first == -1 {
		return Span{}, false
	}

	depth := 0
	var quote byte
	escaped := false
	for i := first; i < len(s); i++ {
		c := s[i]

		if quote != 0 {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == quote:
				quote = 0
			}
			continue
		}

		switch c {
		case '"', '\'', '`':
			quote = c
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return Span{Text: s[first : i+1], Start: first, End: i}, true
			}
		}
	}
	return Span{}, false
}
