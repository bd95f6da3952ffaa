package toml

import (
	"fmt"
	"strings"
)

// maxDepth bounds nesting of inline arrays and tables
const maxDepth = 64

// Parser builds a map[string]any tree from tokens
// Values are string, int64, float64, bool, []any or map[string]any
type Parser struct {
	lexer     *Lexer
	curToken  Token
	peekToken Token
	root      map[string]any
	current   map[string]any // table receiving key/value pairs

	// Tables opened by a [header]; reopening one is an error
	headers map[string]bool
	depth   int
}

func NewParser(input []byte) *Parser {
	p := &Parser{
		lexer:   NewLexer(input),
		root:    make(map[string]any),
		headers: make(map[string]bool),
	}
	p.nextToken()
	p.nextToken()
	p.current = p.root
	return p
}

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.lexer.NextToken()
	for p.peekToken.Type == TokenComment {
		p.peekToken = p.lexer.NextToken()
	}
}

func (p *Parser) errorf(format string, args ...any) error {
	return &ParseError{Line: p.curToken.Line, Col: p.curToken.Col, Msg: fmt.Sprintf(format, args...)}
}

// Parse consumes the whole input
func (p *Parser) Parse() (map[string]any, error) {
	for p.curToken.Type != TokenEOF {
		if p.curToken.Type == TokenNewline {
			p.nextToken()
			continue
		}
		if err := p.parseStatement(); err != nil {
			return nil, err
		}
		// A statement must end the line
		switch p.curToken.Type {
		case TokenNewline, TokenEOF:
		default:
			return nil, p.errorf("expected end of line, got %s", p.curToken)
		}
	}
	return p.root, nil
}

func (p *Parser) parseStatement() error {
	switch p.curToken.Type {
	case TokenLBracket:
		return p.parseTableHeader()
	case TokenIdent, TokenString:
		return p.parseKeyValue(p.current)
	case TokenError:
		return p.errorf("%s", p.curToken.Literal)
	}
	return p.errorf("unexpected token %s", p.curToken)
}

// parseTableHeader handles [a.b]; [[a]] is rejected
func (p *Parser) parseTableHeader() error {
	if p.peekToken.Type == TokenLBracket {
		return p.errorf("arrays of tables are not supported")
	}
	p.nextToken() // [

	keys, err := p.parseKey()
	if err != nil {
		return err
	}
	if p.curToken.Type != TokenRBracket {
		return p.errorf("expected ] after table name, got %s", p.curToken)
	}
	p.nextToken() // ]

	path := joinKey(keys)
	if p.headers[path] {
		return p.errorf("table [%s] defined twice", path)
	}
	p.headers[path] = true

	table := p.root
	for _, k := range keys {
		next, err := descend(table, k)
		if err != nil {
			return p.errorf("table [%s]: %v", path, err)
		}
		table = next
	}
	p.current = table
	return nil
}

// descend returns the sub-table k of m, creating it if absent
func descend(m map[string]any, k string) (map[string]any, error) {
	v, ok := m[k]
	if !ok {
		sub := make(map[string]any)
		m[k] = sub
		return sub, nil
	}
	sub, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("key %q already holds a %T", k, v)
	}
	return sub, nil
}

func (p *Parser) parseKeyValue(scope map[string]any) error {
	keys, err := p.parseKey()
	if err != nil {
		return err
	}
	if p.curToken.Type != TokenEqual {
		return p.errorf("expected = after key, got %s", p.curToken)
	}
	p.nextToken() // =

	val, err := p.parseValue()
	if err != nil {
		return err
	}

	for _, k := range keys[:len(keys)-1] {
		if scope, err = descend(scope, k); err != nil {
			return p.errorf("%v", err)
		}
	}
	last := keys[len(keys)-1]
	if _, exists := scope[last]; exists {
		return p.errorf("duplicate key %q", joinKey(keys))
	}
	scope[last] = val
	return nil
}

// parseKey reads a possibly dotted key; numeric and boolean bare keys are rejected
func (p *Parser) parseKey() ([]string, error) {
	var keys []string
	for {
		if p.curToken.Type != TokenIdent && p.curToken.Type != TokenString {
			return nil, p.errorf("expected key, got %s", p.curToken)
		}
		keys = append(keys, p.curToken.Literal)
		p.nextToken()
		if p.curToken.Type != TokenDot {
			return keys, nil
		}
		p.nextToken()
	}
}

func (p *Parser) parseValue() (any, error) {
	tok := p.curToken
	switch tok.Type {
	case TokenString:
		p.nextToken()
		return tok.Literal, nil
	case TokenInteger:
		v, err := ParseInteger(tok.Literal)
		if err != nil {
			return nil, p.errorf("%v", err)
		}
		p.nextToken()
		return v, nil
	case TokenFloat:
		v, err := ParseFloat(tok.Literal)
		if err != nil {
			return nil, p.errorf("%v", err)
		}
		p.nextToken()
		return v, nil
	case TokenBool:
		p.nextToken()
		return tok.Literal == "true", nil
	case TokenLBracket:
		return p.nested(p.parseArray)
	case TokenLBrace:
		return p.nested(p.parseInlineTable)
	case TokenError:
		return nil, p.errorf("%s", tok.Literal)
	}
	return nil, p.errorf("unexpected value %s", tok)
}

func (p *Parser) nested(fn func() (any, error)) (any, error) {
	p.depth++
	defer func() { p.depth-- }()
	if p.depth > maxDepth {
		return nil, p.errorf("nesting deeper than %d", maxDepth)
	}
	return fn()
}

func (p *Parser) skipNewlines() {
	for p.curToken.Type == TokenNewline {
		p.nextToken()
	}
}

func (p *Parser) parseArray() (any, error) {
	p.nextToken() // [
	arr := make([]any, 0)
	for {
		p.skipNewlines()
		if p.curToken.Type == TokenRBracket {
			p.nextToken()
			return arr, nil
		}
		val, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		arr = append(arr, val)

		p.skipNewlines()
		switch p.curToken.Type {
		case TokenComma:
			p.nextToken()
		case TokenRBracket:
		default:
			return nil, p.errorf("expected , or ] in array, got %s", p.curToken)
		}
	}
}

func (p *Parser) parseInlineTable() (any, error) {
	p.nextToken() // {
	m := make(map[string]any)
	if p.curToken.Type == TokenRBrace {
		p.nextToken()
		return m, nil
	}
	for {
		if err := p.parseKeyValue(m); err != nil {
			return nil, err
		}
		switch p.curToken.Type {
		case TokenComma:
			p.nextToken()
		case TokenRBrace:
			p.nextToken()
			return m, nil
		default:
			return nil, p.errorf("expected , or } in inline table, got %s", p.curToken)
		}
	}
}

func joinKey(keys []string) string {
	return strings.Join(keys, ".")
}
