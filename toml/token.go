// Package toml reads and writes the TOML subset used by preset files.
//
// Supported: bare and quoted keys, dotted keys, [tables], basic and literal
// strings, integers (decimal, 0x, 0o, 0b, underscores), floats (including
// inf and nan), booleans, inline arrays and inline tables. Dates, multi-line
// strings and arrays of tables are rejected.
package toml

import (
	"fmt"
)

// TokenType represents the type of a lexical token
type TokenType int

const (
	TokenError TokenType = iota
	TokenEOF
	TokenComment

	// Literals
	TokenIdent   // bare key
	TokenString  // "basic" or 'literal', already unescaped
	TokenInteger // 123, 0xff
	TokenFloat   // 1.5, 1e3, inf
	TokenBool    // true/false

	// Delimiters
	TokenEqual    // =
	TokenDot      // .
	TokenComma    // ,
	TokenLBracket // [
	TokenRBracket // ]
	TokenLBrace   // {
	TokenRBrace   // }
	TokenNewline  // \n
)

// Token represents a lexical token
type Token struct {
	Type    TokenType
	Literal string
	Line    int
	Col     int
}

func (t Token) String() string {
	switch t.Type {
	case TokenEOF:
		return "EOF"
	case TokenError:
		return fmt.Sprintf("Error(%s)", t.Literal)
	case TokenNewline:
		return "Newline"
	}
	if len(t.Literal) > 20 {
		return fmt.Sprintf("%q...", t.Literal[:20])
	}
	return fmt.Sprintf("%q", t.Literal)
}

// ParseError carries the position of a syntax error
type ParseError struct {
	Line int
	Col  int
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("toml: line %d col %d: %s", e.Line, e.Col, e.Msg)
}
