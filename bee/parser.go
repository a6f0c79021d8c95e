package bee

import (
	"errors"
	"fmt"
)

var ErrUnexpectedEnd = errors.New("unexpected end of input")

// ParseError carries the position of the offending token.
type ParseError struct {
	Line int
	Col  int
	Msg  string
	Err  error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("line %d col %d: %s: %v", e.Line, e.Col, e.Msg, e.Err)
	}
	return fmt.Sprintf("line %d col %d: %s", e.Line, e.Col, e.Msg)
}

func (e *ParseError) Unwrap() error { return e.Err }

// binary operator precedence, loosest first
var precedence = map[string]int{
	"||":  1,
	"or":  1,
	"&&":  2,
	"and": 2,
	"|":   3,
	"^":   4,
	"&":   5,
	"==":  6,
	"!=":  6,
	"<":   7,
	"<=":  7,
	">":   7,
	">=":  7,
	"+":   8,
	"-":   8,
	"*":   9,
	"/":   9,
	"%":   9,
}

// Parser is a recursive descent parser over the lexer's tokens.
type Parser struct {
	tokens []Token
	pos    int
}

func NewParser(src string) (*Parser, error) {
	tokens, err := NewLexer(src).Tokens()
	if err != nil {
		return nil, err
	}
	return &Parser{tokens: tokens}, nil
}

// ParseProgram parses a sequence of def forms.
func ParseProgram(src string) (*Program, error) {
	p, err := NewParser(src)
	if err != nil {
		return nil, err
	}
	return p.ParseProgram()
}

// ParseExpr parses exactly one expression.
func ParseExpr(src string) (Expr, error) {
	p, err := NewParser(src)
	if err != nil {
		return nil, err
	}
	x, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if !p.atEnd() {
		return nil, p.errorf(p.peek(), "unexpected '%s' after expression", p.peek())
	}
	return x, nil
}

// ParseLine parses one line of interactive input: either one or more
// definitions, or a single expression.
func ParseLine(src string) (*Program, Expr, error) {
	p, err := NewParser(src)
	if err != nil {
		return nil, nil, err
	}
	if p.isWord("def") {
		prog, err := p.ParseProgram()
		return prog, nil, err
	}
	x, err := ParseExpr(src)
	return nil, x, err
}

func (p *Parser) peek() Token {
	return p.tokens[p.pos]
}

func (p *Parser) next() Token {
	tok := p.tokens[p.pos]
	if tok.typ != TokenEnd {
		p.pos++
	}
	return tok
}

func (p *Parser) atEnd() bool {
	return p.peek().typ == TokenEnd
}

func (p *Parser) isWord(word string) bool {
	tok := p.peek()
	return tok.typ == TokenSymbol && tok.str == word
}

func (p *Parser) isOp(op string) bool {
	tok := p.peek()
	return tok.typ == TokenOperator && tok.str == op
}

func (p *Parser) errorf(tok Token, format string, a ...interface{}) error {
	e := &ParseError{Line: tok.line, Col: tok.col, Msg: fmt.Sprintf(format, a...)}
	if tok.typ == TokenEnd {
		e.Err = ErrUnexpectedEnd
	}
	return e
}

func (p *Parser) expect(typ TokenType, what string) (Token, error) {
	tok := p.next()
	if tok.typ != typ {
		return tok, p.errorf(tok, "expected %s, found '%s'", what, tok)
	}
	return tok, nil
}

func (p *Parser) expectWord(word string) error {
	tok := p.next()
	if tok.typ != TokenSymbol || tok.str != word {
		return p.errorf(tok, "expected '%s', found '%s'", word, tok)
	}
	return nil
}

func (p *Parser) expectOp(op string) error {
	tok := p.next()
	if tok.typ != TokenOperator || tok.str != op {
		return p.errorf(tok, "expected '%s', found '%s'", op, tok)
	}
	return nil
}

func (p *Parser) ident() (string, error) {
	tok := p.next()
	if tok.typ != TokenSymbol || isKeyword(tok.str) {
		return "", p.errorf(tok, "expected identifier, found '%s'", tok)
	}
	return tok.str, nil
}

func (p *Parser) ParseProgram() (*Program, error) {
	prog := &Program{}
	for !p.atEnd() {
		def, err := p.parseDef()
		if err != nil {
			return nil, err
		}
		prog.Defs = append(prog.Defs, def)
	}
	return prog, nil
}

func (p *Parser) parseDef() (*DefExpr, error) {
	if err := p.expectWord("def"); err != nil {
		return nil, err
	}
	name, err := p.ident()
	if err != nil {
		return nil, err
	}
	params, err := p.parseParams()
	if err != nil {
		return nil, err
	}
	if err := p.expectOp("="); err != nil {
		return nil, err
	}
	body, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return &DefExpr{Name: name, Params: params, Body: body}, nil
}

func (p *Parser) parseParams() ([]string, error) {
	if _, err := p.expect(TokenLParen, "'('"); err != nil {
		return nil, err
	}
	var params []string
	for p.peek().typ != TokenRParen {
		if len(params) > 0 {
			if _, err := p.expect(TokenComma, "','"); err != nil {
				return nil, err
			}
		}
		name, err := p.ident()
		if err != nil {
			return nil, err
		}
		params = append(params, name)
	}
	p.next()
	return params, nil
}

func (p *Parser) parseExpr() (Expr, error) {
	switch {
	case p.isWord("let"):
		return p.parseLet()
	case p.isWord("if"):
		return p.parseIf()
	case p.isWord("for"):
		p.next()
		return p.parseFor()
	case p.isWord("reduce"):
		return p.parseReduce()
	case p.isWord("fn"):
		return p.parseLambda()
	case p.isWord("def"):
		return p.parseDef()
	}
	return p.parseBinary(1)
}

func (p *Parser) parseLet() (Expr, error) {
	p.next()
	let := &LetExpr{}
	for {
		name, err := p.ident()
		if err != nil {
			return nil, err
		}
		if err := p.expectOp("="); err != nil {
			return nil, err
		}
		value, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		let.Assigns = append(let.Assigns, Assign{Name: name, Value: value})
		if p.peek().typ != TokenComma {
			break
		}
		p.next()
	}
	if err := p.expectWord("in"); err != nil {
		return nil, err
	}
	body, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	let.Body = body
	return let, nil
}

func (p *Parser) parseIf() (Expr, error) {
	p.next()
	x := &IfExpr{}
	for {
		cond, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expectWord("then"); err != nil {
			return nil, err
		}
		then, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		x.Conds = append(x.Conds, CondExpr{Cond: cond, Then: then})
		if !p.isWord("elif") {
			break
		}
		p.next()
	}
	if err := p.expectWord("else"); err != nil {
		return nil, err
	}
	els, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	x.Else = els
	return x, nil
}

// parseFor starts after the "for" keyword.
func (p *Parser) parseFor() (*ForExpr, error) {
	handle, err := p.ident()
	if err != nil {
		return nil, err
	}
	if err := p.expectWord("in"); err != nil {
		return nil, err
	}
	iter, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	loop := &ForExpr{Handle: handle, Iter: iter}
	if p.isWord("if") {
		p.next()
		if loop.Filter, err = p.parseExpr(); err != nil {
			return nil, err
		}
	}
	if err := p.expectWord("do"); err != nil {
		return nil, err
	}
	if loop.Body, err = p.parseExpr(); err != nil {
		return nil, err
	}
	return loop, nil
}

func (p *Parser) parseReduce() (Expr, error) {
	p.next()
	carry, err := p.ident()
	if err != nil {
		return nil, err
	}
	if err := p.expectOp("="); err != nil {
		return nil, err
	}
	init, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if err := p.expectWord("for"); err != nil {
		return nil, err
	}
	loop, err := p.parseFor()
	if err != nil {
		return nil, err
	}
	return &ReduceExpr{Carry: carry, Init: init, Loop: loop}, nil
}

func (p *Parser) parseLambda() (Expr, error) {
	p.next()
	params, err := p.parseParams()
	if err != nil {
		return nil, err
	}
	if err := p.expectOp("=>"); err != nil {
		return nil, err
	}
	body, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return &LambdaExpr{Params: params, Body: body}, nil
}

// binaryOp reports the operator at the cursor and its precedence.
func (p *Parser) binaryOp() (string, int) {
	tok := p.peek()
	if tok.typ != TokenOperator && tok.typ != TokenSymbol {
		return "", 0
	}
	prec, ok := precedence[tok.str]
	if !ok {
		return "", 0
	}
	return tok.str, prec
}

// parseBinary climbs precedence; every level is left associative.
func (p *Parser) parseBinary(minPrec int) (Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		text, prec := p.binaryOp()
		if prec < minPrec || prec == 0 {
			return left, nil
		}
		p.next()
		right, err := p.parseBinary(prec + 1)
		if err != nil {
			return nil, err
		}
		op, _ := ParseBinOp(text)
		left = &BinExpr{Op: op, Left: left, Right: right}
	}
}

func (p *Parser) parseUnary() (Expr, error) {
	if p.isOp("-") || p.isOp("!") {
		op, _ := ParseUnaryOp(p.next().str)
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &UnaryExpr{Op: op, Right: right}, nil
	}
	return p.parsePrimary()
}

func (p *Parser) parsePrimary() (Expr, error) {
	tok := p.next()
	switch tok.typ {
	case TokenDecimal, TokenFloat:
		return &LitExpr{Kind: LitNumber, Raw: tok.str}, nil
	case TokenString:
		return &LitExpr{Kind: LitString, Raw: tok.str}, nil
	case TokenLParen:
		if p.peek().typ == TokenRParen {
			p.next()
			return &LitExpr{Kind: LitUnit, Raw: "()"}, nil
		}
		x, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenRParen, "')'"); err != nil {
			return nil, err
		}
		return x, nil
	case TokenLSquare:
		items, err := p.parseExprList(TokenRSquare, "']'")
		if err != nil {
			return nil, err
		}
		return &ListExpr{Items: items}, nil
	case TokenLCurly:
		return p.parseDict()
	case TokenSymbol:
		switch tok.str {
		case "true", "false":
			return &LitExpr{Kind: LitBool, Raw: tok.str}, nil
		case "nil":
			return &LitExpr{Kind: LitNil, Raw: tok.str}, nil
		}
		if isKeyword(tok.str) {
			return nil, p.errorf(tok, "unexpected keyword '%s'", tok.str)
		}
		if p.peek().typ == TokenLParen {
			p.next()
			args, err := p.parseExprList(TokenRParen, "')'")
			if err != nil {
				return nil, err
			}
			return &CallExpr{Callee: tok.str, Args: args}, nil
		}
		return &LookupExpr{Name: tok.str}, nil
	}
	return nil, p.errorf(tok, "unexpected '%s'", tok)
}

// parseExprList reads comma separated expressions up to and
// including the closing token.
func (p *Parser) parseExprList(closing TokenType, what string) ([]Expr, error) {
	var xs []Expr
	for p.peek().typ != closing {
		if len(xs) > 0 {
			if _, err := p.expect(TokenComma, "',' or "+what); err != nil {
				return nil, err
			}
		}
		x, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		xs = append(xs, x)
	}
	p.next()
	return xs, nil
}

// parseDict reads {key: expr, ...}; a key is an identifier or a
// string literal and is never evaluated.
func (p *Parser) parseDict() (Expr, error) {
	d := &DictExpr{}
	for p.peek().typ != TokenRCurly {
		if len(d.Entries) > 0 {
			if _, err := p.expect(TokenComma, "',' or '}'"); err != nil {
				return nil, err
			}
		}
		tok := p.next()
		var key string
		switch tok.typ {
		case TokenSymbol:
			key = tok.str
		case TokenString:
			key = unquote(tok.str)
		default:
			return nil, p.errorf(tok, "expected dict key, found '%s'", tok)
		}
		if _, err := p.expect(TokenColon, "':'"); err != nil {
			return nil, err
		}
		value, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		d.Entries = append(d.Entries, DictEntry{Key: key, Value: value})
	}
	p.next()
	return d, nil
}
