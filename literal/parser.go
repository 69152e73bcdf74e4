// ABOUTME: Recursive descent parser that evaluates a loose JS-style literal into Go values without executing code.
// ABOUTME: Produces map[string]any, []any, float64, string, bool and nil; rejects every identifier but true/false/null.
package literal

import (
	"errors"
	"fmt"
	"strconv"
)

// MaxDepth bounds array/object nesting so hostile input cannot exhaust the stack.
const MaxDepth = 512

// ErrUnexpectedKind is returned by ParseArray and ParseObject when the
// literal is well formed but of the wrong top-level kind.
var ErrUnexpectedKind = errors.New("unexpected literal kind")

// parser holds the state of the recursive descent parser.
type parser struct {
	tokens []Token
	pos    int
}

// Parse evaluates src as a single data literal. Supported syntax is a
// superset of JSON: single-quoted strings, unquoted or numeric object keys,
// trailing commas, comments, hex numbers and a leading '+'. Anything that
// would need evaluation (identifiers, calls, operators) is a syntax error.
func Parse(src string) (any, error) {
	tokens, err := Lex(src)
	if err != nil {
		return nil, err
	}

	p := &parser{tokens: tokens}
	if p.current().Type == TokenEOF {
		return nil, p.errorf(p.current(), "empty literal")
	}

	v, err := p.parseValue(0)
	if err != nil {
		return nil, err
	}

	if tok := p.current(); tok.Type != TokenEOF {
		return nil, p.errorf(tok, "unexpected %v (%q) after literal", tok.Type, tok.Value)
	}
	return v, nil
}

// ParseArray parses src and requires the top-level value to be an array.
func ParseArray(src string) ([]any, error) {
	v, err := Parse(src)
	if err != nil {
		return nil, err
	}
	arr, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: want array, got %s", ErrUnexpectedKind, kindOf(v))
	}
	return arr, nil
}

// ParseObject parses src and requires the top-level value to be an object.
func ParseObject(src string) (map[string]any, error) {
	v, err := Parse(src)
	if err != nil {
		return nil, err
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: want object, got %s", ErrUnexpectedKind, kindOf(v))
	}
	return obj, nil
}

// current returns the current token.
func (p *parser) current() Token {
	if p.pos >= len(p.tokens) {
		return Token{Type: TokenEOF}
	}
	return p.tokens[p.pos]
}

// advance moves to the next token and returns the consumed token.
func (p *parser) advance() Token {
	tok := p.current()
	p.pos++
	return tok
}

// expect consumes the next token and returns an error if it doesn't match the expected type.
func (p *parser) expect(typ TokenType) (Token, error) {
	tok := p.current()
	if tok.Type != typ {
		return tok, p.errorf(tok, "expected %v but got %v (%q)", typ, tok.Type, tok.Value)
	}
	p.advance()
	return tok, nil
}

func (p *parser) errorf(tok Token, format string, args ...any) error {
	return &SyntaxError{Offset: tok.Offset, Line: tok.Line, Col: tok.Col, Msg: fmt.Sprintf(format, args...)}
}

// parseValue parses: Object | Array | String | Number | 'true' | 'false' | 'null'
func (p *parser) parseValue(depth int) (any, error) {
	tok := p.current()
	switch tok.Type {
	case TokenLBrace:
		if depth >= MaxDepth {
			return nil, p.errorf(tok, "nesting deeper than %d", MaxDepth)
		}
		return p.parseObject(depth + 1)
	case TokenLBracket:
		if depth >= MaxDepth {
			return nil, p.errorf(tok, "nesting deeper than %d", MaxDepth)
		}
		return p.parseArray(depth + 1)
	case TokenString:
		p.advance()
		return tok.Value, nil
	case TokenNumber:
		p.advance()
		return tok.Num, nil
	case TokenIdentifier:
		switch tok.Value {
		case "true":
			p.advance()
			return true, nil
		case "false":
			p.advance()
			return false, nil
		case "null":
			p.advance()
			return nil, nil
		}
		return nil, p.errorf(tok, "identifier %q is not a literal", tok.Value)
	default:
		return nil, p.errorf(tok, "unexpected %v (%q)", tok.Type, tok.Value)
	}
}

// parseObject parses: '{' (Key ':' Value (',' Key ':' Value)* ','?)? '}'
// Duplicate keys keep the last value.
func (p *parser) parseObject(depth int) (map[string]any, error) {
	if _, err := p.expect(TokenLBrace); err != nil {
		return nil, err
	}

	obj := make(map[string]any)
	for {
		if p.current().Type == TokenRBrace {
			p.advance()
			return obj, nil
		}

		key, err := p.parseKey()
		if err != nil {
			return nil, err
		}

		if _, err := p.expect(TokenColon); err != nil {
			return nil, err
		}

		val, err := p.parseValue(depth)
		if err != nil {
			return nil, err
		}
		obj[key] = val

		switch tok := p.current(); tok.Type {
		case TokenComma:
			p.advance()
		case TokenRBrace:
			p.advance()
			return obj, nil
		default:
			return nil, p.errorf(tok, "expected ',' or '}' but got %v (%q)", tok.Type, tok.Value)
		}
	}
}

// parseKey parses an object key: a string, a bare identifier, or a number.
func (p *parser) parseKey() (string, error) {
	tok := p.current()
	switch tok.Type {
	case TokenString, TokenIdentifier:
		p.advance()
		return tok.Value, nil
	case TokenNumber:
		p.advance()
		return strconv.FormatFloat(tok.Num, 'f', -1, 64), nil
	default:
		return "", p.errorf(tok, "expected object key but got %v (%q)", tok.Type, tok.Value)
	}
}

// parseArray parses: '[' (Value (',' Value)* ','?)? ']'
// Elisions such as [1,,2] are rejected.
func (p *parser) parseArray(depth int) ([]any, error) {
	if _, err := p.expect(TokenLBracket); err != nil {
		return nil, err
	}

	arr := make([]any, 0)
	for {
		if p.current().Type == TokenRBracket {
			p.advance()
			return arr, nil
		}

		val, err := p.parseValue(depth)
		if err != nil {
			return nil, err
		}
		arr = append(arr, val)

		switch tok := p.current(); tok.Type {
		case TokenComma:
			p.advance()
		case TokenRBracket:
			p.advance()
			return arr, nil
		default:
			return nil, p.errorf(tok, "expected ',' or ']' but got %v (%q)", tok.Type, tok.Value)
		}
	}
}

// kindOf names the dynamic kind of a parsed value for error messages.
func kindOf(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case float64:
		return "number"
	case string:
		return "string"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}
