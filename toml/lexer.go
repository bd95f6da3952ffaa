package toml

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Lexer splits TOML input into tokens
type Lexer struct {
	input []byte
	pos   int
	line  int
	col   int

	// Start of the token being read
	startLine int
	startCol  int
}

func NewLexer(input []byte) *Lexer {
	return &Lexer{input: input, line: 1, col: 1}
}

// NextToken returns the next token in the stream
// After EOF or an error token every call returns EOF
func (l *Lexer) NextToken() Token {
	l.skipWhitespace()
	l.startLine, l.startCol = l.line, l.col

	if l.pos >= len(l.input) {
		return l.newToken(TokenEOF, "")
	}

	ch := l.peek()
	switch ch {
	case '\n':
		l.advance()
		return l.newToken(TokenNewline, "\n")
	case '#':
		return l.readComment()
	case '=':
		l.advance()
		return l.newToken(TokenEqual, "=")
	case '.':
		l.advance()
		return l.newToken(TokenDot, ".")
	case ',':
		l.advance()
		return l.newToken(TokenComma, ",")
	case '[':
		l.advance()
		return l.newToken(TokenLBracket, "[")
	case ']':
		l.advance()
		return l.newToken(TokenRBracket, "]")
	case '{':
		l.advance()
		return l.newToken(TokenLBrace, "{")
	case '}':
		l.advance()
		return l.newToken(TokenRBrace, "}")
	case '"':
		return l.readBasicString()
	case '\'':
		return l.readLiteralString()
	}

	if isBareChar(ch) || ch == '+' {
		return l.readBareOrNumber()
	}

	l.advance()
	return l.errorf("unexpected character %q", ch)
}

func (l *Lexer) newToken(typ TokenType, literal string) Token {
	return Token{Type: typ, Literal: literal, Line: l.startLine, Col: l.startCol}
}

func (l *Lexer) errorf(format string, args ...any) Token {
	tok := l.newToken(TokenError, fmt.Sprintf(format, args...))
	// Stop the stream; the parser reports the first error only
	l.pos = len(l.input)
	return tok
}

func (l *Lexer) advance() rune {
	if l.pos >= len(l.input) {
		return 0
	}
	r, w := utf8.DecodeRune(l.input[l.pos:])
	l.pos += w
	if r == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return r
}

func (l *Lexer) peek() rune {
	if l.pos >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRune(l.input[l.pos:])
	return r
}

func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.input) {
		switch l.peek() {
		case ' ', '\t', '\r':
			l.advance()
		default:
			return
		}
	}
}

func (l *Lexer) readComment() Token {
	l.advance() // '#'
	start := l.pos
	for l.pos < len(l.input) && l.peek() != '\n' {
		l.advance()
	}
	return l.newToken(TokenComment, string(l.input[start:l.pos]))
}

func (l *Lexer) readBasicString() Token {
	l.advance() // opening quote
	var sb strings.Builder
	for l.pos < len(l.input) {
		ch := l.advance()
		switch ch {
		case '"':
			return l.newToken(TokenString, sb.String())
		case '\n':
			return l.errorf("newline in basic string")
		case '\\':
			r, err := l.readEscape()
			if err != nil {
				return l.errorf("%v", err)
			}
			sb.WriteRune(r)
		default:
			if ch == utf8.RuneError {
				return l.errorf("invalid UTF-8 in string")
			}
			sb.WriteRune(ch)
		}
	}
	return l.errorf("unterminated string")
}

func (l *Lexer) readEscape() (rune, error) {
	ch := l.advance()
	switch ch {
	case 'b':
		return '\b', nil
	case 't':
		return '\t', nil
	case 'n':
		return '\n', nil
	case 'f':
		return '\f', nil
	case 'r':
		return '\r', nil
	case '"':
		return '"', nil
	case '\\':
		return '\\', nil
	case 'u', 'U':
		n := 4
		if ch == 'U' {
			n = 8
		}
		if l.pos+n > len(l.input) {
			return 0, fmt.Errorf("short \\%c escape", ch)
		}
		hex := string(l.input[l.pos : l.pos+n])
		v, err := strconv.ParseUint(hex, 16, 32)
		if err != nil || !utf8.ValidRune(rune(v)) {
			return 0, fmt.Errorf("invalid unicode escape \\%c%s", ch, hex)
		}
		for i := 0; i < n; i++ {
			l.advance()
		}
		return rune(v), nil
	}
	return 0, fmt.Errorf("invalid escape \\%c", ch)
}

func (l *Lexer) readLiteralString() Token {
	l.advance() // opening quote
	start := l.pos
	for l.pos < len(l.input) {
		switch l.peek() {
		case '\'':
			lit := string(l.input[start:l.pos])
			l.advance()
			return l.newToken(TokenString, lit)
		case '\n':
			return l.errorf("newline in literal string")
		}
		l.advance()
	}
	return l.errorf("unterminated literal string")
}

// readBareOrNumber reads a run of key/number characters and classifies it
func (l *Lexer) readBareOrNumber() Token {
	start := l.pos
	numeric := isDigit(l.peek()) || l.peek() == '+' || l.peek() == '-'
	for l.pos < len(l.input) {
		ch := l.peek()
		if isBareChar(ch) || (numeric && (ch == '.' || ch == '+')) {
			l.advance()
			continue
		}
		break
	}
	lit := string(l.input[start:l.pos])

	switch lit {
	case "true", "false":
		return l.newToken(TokenBool, lit)
	case "inf", "+inf", "-inf", "nan", "+nan", "-nan":
		return l.newToken(TokenFloat, lit)
	}

	if numeric {
		if _, err := ParseInteger(lit); err == nil {
			return l.newToken(TokenInteger, lit)
		}
		if _, err := ParseFloat(lit); err == nil {
			return l.newToken(TokenFloat, lit)
		}
		if strings.ContainsAny(lit, ".+") || lit == "-" {
			return l.errorf("invalid number %q", lit)
		}
	}
	return l.newToken(TokenIdent, lit)
}

// ParseInteger parses a TOML integer literal
func ParseInteger(lit string) (int64, error) {
	body := strings.TrimLeft(lit, "+-")
	if len(body) > 1 && body[0] == '0' && !strings.ContainsAny(body[1:2], "xob") {
		return 0, fmt.Errorf("leading zero in %q", lit)
	}
	if strings.HasPrefix(body, "0x") || strings.HasPrefix(body, "0o") || strings.HasPrefix(body, "0b") {
		if body != lit {
			return 0, fmt.Errorf("sign on prefixed integer %q", lit)
		}
	}
	return strconv.ParseInt(lit, 0, 64)
}

// ParseFloat parses a TOML float literal
func ParseFloat(lit string) (float64, error) {
	switch lit {
	case "inf", "+inf":
		return math.Inf(1), nil
	case "-inf":
		return math.Inf(-1), nil
	case "nan", "+nan", "-nan":
		return math.NaN(), nil
	}
	body := strings.TrimLeft(lit, "+-")
	if body == "" || !isDigit(rune(body[0])) || strings.HasSuffix(body, ".") || strings.Contains(body, "._") || strings.Contains(body, "_.") {
		return 0, fmt.Errorf("invalid float %q", lit)
	}
	intPart := body
	if i := strings.IndexAny(body, ".eE"); i >= 0 {
		intPart = body[:i]
	} else {
		return 0, fmt.Errorf("invalid float %q", lit)
	}
	if len(intPart) > 1 && intPart[0] == '0' {
		return 0, fmt.Errorf("leading zero in %q", lit)
	}
	if dot := strings.IndexByte(body, '.'); dot >= 0 && (dot+1 >= len(body) || !isDigit(rune(body[dot+1]))) {
		return 0, fmt.Errorf("invalid float %q", lit)
	}
	if strings.Contains(lit, "__") || strings.HasSuffix(lit, "_") {
		return 0, fmt.Errorf("invalid underscore in %q", lit)
	}
	return strconv.ParseFloat(strings.ReplaceAll(lit, "_", ""), 64)
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isAlpha(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

// isBareChar reports whether r may appear in a bare key: A-Za-z0-9_-
func isBareChar(r rune) bool {
	return isAlpha(r) || isDigit(r) || r == '_' || r == '-'
}
