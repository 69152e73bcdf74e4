// ABOUTME: Tokenizer for loose JS-style data literals (objects, arrays, strings, numbers, keywords).
// ABOUTME: Handles single/double quoted strings with JS escapes, hex and signed numbers, and comments.
package literal

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ErrSyntax is matched (via errors.Is) by every error Parse returns for malformed input.
var ErrSyntax = errors.New("literal syntax error")

// SyntaxError describes where and why a literal failed to tokenize or parse.
type SyntaxError struct {
	Offset int // rune offset into the input
	Line   int
	Col    int
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s at line %d, col %d", e.Msg, e.Line, e.Col)
}

// Is reports whether target is ErrSyntax.
func (e *SyntaxError) Is(target error) bool {
	return target == ErrSyntax
}

// TokenType represents the type of a lexical token.
type TokenType int

const (
	TokenEOF        TokenType = iota
	TokenLBrace               // {
	TokenRBrace               // }
	TokenLBracket             // [
	TokenRBracket             // ]
	TokenColon                // :
	TokenComma                // ,
	TokenString               // '...' or "..."
	TokenNumber               // decimal, exponent or hex literal
	TokenIdentifier           // bare word, including true/false/null
)

// String returns a human-readable name for the token type.
func (t TokenType) String() string {
	switch t {
	case TokenEOF:
		return "EOF"
	case TokenLBrace:
		return "LBRACE"
	case TokenRBrace:
		return "RBRACE"
	case TokenLBracket:
		return "LBRACKET"
	case TokenRBracket:
		return "RBRACKET"
	case TokenColon:
		return "COLON"
	case TokenComma:
		return "COMMA"
	case TokenString:
		return "STRING"
	case TokenNumber:
		return "NUMBER"
	case TokenIdentifier:
		return "IDENTIFIER"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", int(t))
	}
}

// Token is a single lexical token. For strings Value is the decoded text;
// for numbers Value is the source text and Num the parsed value.
type Token struct {
	Type   TokenType
	Value  string
	Num    float64
	Offset int
	Line   int
	Col    int
}

// lexer holds the state of the lexical scanner.
type lexer struct {
	input  []rune
	pos    int
	line   int
	col    int
	tokens []Token
}

// Lex tokenizes a loose literal into a slice of tokens ending with TokenEOF.
func Lex(input string) ([]Token, error) {
	l := &lexer{
		input:  []rune(input),
		line:   1,
		col:    1,
		tokens: make([]Token, 0, len(input)/4+1),
	}

	if err := l.scan(); err != nil {
		return nil, err
	}

	return l.tokens, nil
}

// scan processes all characters in the input and produces tokens.
func (l *lexer) scan() error {
	for l.pos < len(l.input) {
		ch := l.input[l.pos]

		if unicode.IsSpace(ch) || ch == '\uFEFF' {
			l.advance()
			continue
		}

		if ch == '/' && l.peekRune(1) == '/' {
			l.skipLineComment()
			continue
		}

		if ch == '/' && l.peekRune(1) == '*' {
			if err := l.skipBlockComment(); err != nil {
				return err
			}
			continue
		}

		if ch == '"' || ch == '\'' {
			if err := l.lexString(ch); err != nil {
				return err
			}
			continue
		}

		if ch == '-' || ch == '+' || ch == '.' || isDigit(ch) {
			if err := l.lexNumber(); err != nil {
				return err
			}
			continue
		}

		if isIdentStart(ch) {
			l.lexIdentifier()
			continue
		}

		switch ch {
		case '{':
			l.emit(TokenLBrace, "{")
		case '}':
			l.emit(TokenRBrace, "}")
		case '[':
			l.emit(TokenLBracket, "[")
		case ']':
			l.emit(TokenRBracket, "]")
		case ':':
			l.emit(TokenColon, ":")
		case ',':
			l.emit(TokenComma, ",")
		default:
			return l.errorf("unexpected character %q", string(ch))
		}
		l.advance()
	}

	l.tokens = append(l.tokens, Token{Type: TokenEOF, Offset: l.pos, Line: l.line, Col: l.col})
	return nil
}

// advance moves the position forward by one character, tracking line and column.
func (l *lexer) advance() {
	if l.pos < len(l.input) {
		if l.input[l.pos] == '\n' {
			l.line++
			l.col = 1
		} else {
			l.col++
		}
		l.pos++
	}
}

// peekRune returns the rune at the given offset from the current position, or 0 past the end.
func (l *lexer) peekRune(offset int) rune {
	idx := l.pos + offset
	if idx >= len(l.input) {
		return 0
	}
	return l.input[idx]
}

// emit adds a token at the current position.
func (l *lexer) emit(typ TokenType, value string) {
	l.tokens = append(l.tokens, Token{Type: typ, Value: value, Offset: l.pos, Line: l.line, Col: l.col})
}

func (l *lexer) errorf(format string, args ...any) error {
	return &SyntaxError{Offset: l.pos, Line: l.line, Col: l.col, Msg: fmt.Sprintf(format, args...)}
}

// skipLineComment skips from // to end of line.
func (l *lexer) skipLineComment() {
	l.advance()
	l.advance()
	for l.pos < len(l.input) && l.input[l.pos] != '\n' {
		l.advance()
	}
}

// skipBlockComment skips from /* to */.
func (l *lexer) skipBlockComment() error {
	startLine, startCol, startPos := l.line, l.col, l.pos
	l.advance()
	l.advance()
	for l.pos < len(l.input) {
		if l.input[l.pos] == '*' && l.peekRune(1) == '/' {
			l.advance()
			l.advance()
			return nil
		}
		l.advance()
	}
	return &SyntaxError{Offset: startPos, Line: startLine, Col: startCol, Msg: "unterminated block comment"}
}

// lexString reads a quoted string, decoding JS escape sequences.
func (l *lexer) lexString(quote rune) error {
	startLine, startCol, startPos := l.line, l.col, l.pos
	unterminated := &SyntaxError{Offset: startPos, Line: startLine, Col: startCol, Msg: "unterminated string"}
	l.advance()

	var sb strings.Builder
	for l.pos < len(l.input) {
		ch := l.input[l.pos]

		if ch == quote {
			l.advance()
			l.tokens = append(l.tokens, Token{Type: TokenString, Value: sb.String(), Offset: startPos, Line: startLine, Col: startCol})
			return nil
		}

		if ch == '\n' || ch == '\r' {
			return unterminated
		}

		if ch != '\\' {
			sb.WriteRune(ch)
			l.advance()
			continue
		}

		l.advance()
		if l.pos >= len(l.input) {
			return unterminated
		}
		esc := l.input[l.pos]
		switch esc {
		case 'n':
			sb.WriteByte('\n')
		case 't':
			sb.WriteByte('\t')
		case 'r':
			sb.WriteByte('\r')
		case 'b':
			sb.WriteByte('\b')
		case 'f':
			sb.WriteByte('\f')
		case 'v':
			sb.WriteByte('\v')
		case '0':
			sb.WriteByte(0)
		case '\n':
			// line continuation
		case '\r':
			if l.peekRune(1) == '\n' {
				l.advance()
			}
		case 'u':
			r, err := l.readUnicodeEscape()
			if err != nil {
				return err
			}
			sb.WriteRune(r)
			continue
		case 'x':
			v, err := l.readHex(2)
			if err != nil {
				return err
			}
			sb.WriteRune(rune(v))
			continue
		default:
			// \" \' \\ \/ and any other character stand for themselves
			sb.WriteRune(esc)
		}
		l.advance()
	}

	return unterminated
}

// readUnicodeEscape decodes \uXXXX (the lexer sits on the 'u'), combining
// surrogate pairs written as two consecutive escapes.
func (l *lexer) readUnicodeEscape() (rune, error) {
	v, err := l.readHex(4)
	if err != nil {
		return 0, err
	}
	r := rune(v)
	if r >= 0xD800 && r <= 0xDBFF && l.peekRune(0) == '\\' && l.peekRune(1) == 'u' {
		save := *l
		l.advance()
		lo, err := l.readHex(4)
		if err == nil && lo >= 0xDC00 && lo <= 0xDFFF {
			return (r-0xD800)<<10 + (rune(lo) - 0xDC00) + 0x10000, nil
		}
		*l = save
	}
	if r >= 0xD800 && r <= 0xDFFF {
		return utf8.RuneError, nil
	}
	return r, nil
}

// readHex consumes the escape letter at the current position followed by n hex digits.
func (l *lexer) readHex(n int) (uint64, error) {
	l.advance()
	if l.pos+n > len(l.input) {
		return 0, l.errorf("truncated escape sequence")
	}
	digits := string(l.input[l.pos : l.pos+n])
	v, err := strconv.ParseUint(digits, 16, 32)
	if err != nil {
		return 0, l.errorf("invalid escape sequence %q", digits)
	}
	for i := 0; i < n; i++ {
		l.advance()
	}
	return v, nil
}

// lexNumber reads a signed decimal, exponent or hex literal.
func (l *lexer) lexNumber() error {
	startLine, startCol, startPos := l.line, l.col, l.pos
	var sb strings.Builder

	neg := false
	if ch := l.input[l.pos]; ch == '-' || ch == '+' {
		neg = ch == '-'
		sb.WriteRune(ch)
		l.advance()
	}

	if l.peekRune(0) == '0' && (l.peekRune(1) == 'x' || l.peekRune(1) == 'X') {
		l.advance()
		l.advance()
		var hex strings.Builder
		for l.pos < len(l.input) && isHexDigit(l.input[l.pos]) {
			hex.WriteRune(l.input[l.pos])
			l.advance()
		}
		v, err := strconv.ParseUint(hex.String(), 16, 64)
		if err != nil {
			return &SyntaxError{Offset: startPos, Line: startLine, Col: startCol, Msg: "invalid hex number"}
		}
		num := float64(v)
		if neg {
			num = -num
		}
		l.tokens = append(l.tokens, Token{Type: TokenNumber, Value: string(l.input[startPos:l.pos]), Num: num, Offset: startPos, Line: startLine, Col: startCol})
		return nil
	}

	digits := 0
	for l.pos < len(l.input) && isDigit(l.input[l.pos]) {
		sb.WriteRune(l.input[l.pos])
		l.advance()
		digits++
	}

	if l.peekRune(0) == '.' {
		sb.WriteByte('.')
		l.advance()
		for l.pos < len(l.input) && isDigit(l.input[l.pos]) {
			sb.WriteRune(l.input[l.pos])
			l.advance()
			digits++
		}
	}

	if digits == 0 {
		return &SyntaxError{Offset: startPos, Line: startLine, Col: startCol, Msg: fmt.Sprintf("invalid number %q", sb.String())}
	}

	if ch := l.peekRune(0); ch == 'e' || ch == 'E' {
		sb.WriteRune(ch)
		l.advance()
		if ch := l.peekRune(0); ch == '+' || ch == '-' {
			sb.WriteRune(ch)
			l.advance()
		}
		expDigits := 0
		for l.pos < len(l.input) && isDigit(l.input[l.pos]) {
			sb.WriteRune(l.input[l.pos])
			l.advance()
			expDigits++
		}
		if expDigits == 0 {
			return &SyntaxError{Offset: startPos, Line: startLine, Col: startCol, Msg: fmt.Sprintf("invalid exponent in %q", sb.String())}
		}
	}

	if isIdentStart(l.peekRune(0)) {
		return l.errorf("unexpected character %q after number", string(l.peekRune(0)))
	}

	text := sb.String()
	num, err := strconv.ParseFloat(strings.TrimPrefix(text, "+"), 64)
	if err != nil {
		// ParseFloat reports out-of-range values with ±Inf, which are still usable
		var numErr *strconv.NumError
		if !errors.As(err, &numErr) || numErr.Err != strconv.ErrRange {
			return &SyntaxError{Offset: startPos, Line: startLine, Col: startCol, Msg: fmt.Sprintf("invalid number %q", text)}
		}
	}

	l.tokens = append(l.tokens, Token{Type: TokenNumber, Value: text, Num: num, Offset: startPos, Line: startLine, Col: startCol})
	return nil
}

// lexIdentifier reads a bare word.
func (l *lexer) lexIdentifier() {
	startLine, startCol, startPos := l.line, l.col, l.pos
	var sb strings.Builder
	for l.pos < len(l.input) && isIdentPart(l.input[l.pos]) {
		sb.WriteRune(l.input[l.pos])
		l.advance()
	}
	l.tokens = append(l.tokens, Token{Type: TokenIdentifier, Value: sb.String(), Offset: startPos, Line: startLine, Col: startCol})
}

func isDigit(ch rune) bool {
	return ch >= '0' && ch <= '9'
}

func isHexDigit(ch rune) bool {
	return isDigit(ch) || (ch >= 'a' && ch <= 'f') || (ch >= 'A' && ch <= 'F')
}

func isIdentStart(ch rune) bool {
	return ch == '_' || ch == '$' || unicode.IsLetter(ch)
}

func isIdentPart(ch rune) bool {
	return isIdentStart(ch) || unicode.IsDigit(ch)
}
