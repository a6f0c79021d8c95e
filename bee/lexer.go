package bee

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

type TokenType int

const (
	TokenTypeEmpty TokenType = iota
	TokenLParen
	TokenRParen
	TokenLSquare
	TokenRSquare
	TokenLCurly
	TokenRCurly
	TokenComma
	TokenColon
	TokenSymbol
	TokenDecimal
	TokenFloat
	TokenString
	TokenOperator
	TokenEnd
)

type Token struct {
	typ  TokenType
	str  string
	line int
	col  int
}

func (t Token) String() string {
	switch t.typ {
	case TokenLParen:
		return "("
	case TokenRParen:
		return ")"
	case TokenLSquare:
		return "["
	case TokenRSquare:
		return "]"
	case TokenLCurly:
		return "{"
	case TokenRCurly:
		return "}"
	case TokenComma:
		return ","
	case TokenColon:
		return ":"
	case TokenEnd:
		return "end of input"
	}
	return t.str
}

var (
	DecimalRegex = regexp.MustCompile(`^-?[0-9]+u?$`)
	FloatRegex   = regexp.MustCompile(`^-?[0-9]+\.[0-9]*$`)
	SymbolRegex  = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
)

// operators, longest first so that a prefix never wins
var operators = []string{
	"&&", "||", "==", "!=", "<=", ">=", "=>",
	"+", "-", "*", "/", "%", "&", "|", "^", "<", ">", "!", "=",
}

// Lexer turns source text into tokens. A '#' runs to end of line.
type Lexer struct {
	src    []rune
	pos    int
	line   int
	col    int
	tokens []Token

	prevToken Token
}

func NewLexer(src string) *Lexer {
	return &Lexer{
		src:    []rune(src),
		line:   1,
		col:    1,
		tokens: make([]Token, 0, 10),
	}
}

func (lexer *Lexer) peek(ahead int) rune {
	if lexer.pos+ahead >= len(lexer.src) {
		return 0
	}
	return lexer.src[lexer.pos+ahead]
}

func (lexer *Lexer) advance() rune {
	r := lexer.src[lexer.pos]
	lexer.pos++
	if r == '\n' {
		lexer.line++
		lexer.col = 1
	} else {
		lexer.col++
	}
	return r
}

func (lexer *Lexer) AppendToken(tok Token) {
	lexer.tokens = append(lexer.tokens, tok)
	lexer.prevToken = tok
}

// endsValue reports whether the previous token can end an operand,
// in which case a following '-' is subtraction, not a sign.
func (lexer *Lexer) endsValue() bool {
	switch lexer.prevToken.typ {
	case TokenDecimal, TokenFloat, TokenString, TokenRParen, TokenRSquare, TokenRCurly:
		return true
	case TokenSymbol:
		switch lexer.prevToken.str {
		case "true", "false", "nil":
			return true
		}
		return !isKeyword(lexer.prevToken.str)
	}
	return false
}

func (lexer *Lexer) errorf(line, col int, format string, a ...interface{}) error {
	return &ParseError{Line: line, Col: col, Msg: fmt.Sprintf(format, a...)}
}

// Tokens lexes the whole input. The last token is always TokenEnd.
func (lexer *Lexer) Tokens() ([]Token, error) {
	for lexer.pos < len(lexer.src) {
		r := lexer.peek(0)
		line, col := lexer.line, lexer.col
		tok := Token{line: line, col: col}

		switch {
		case unicode.IsSpace(r):
			lexer.advance()
			continue
		case r == '#':
			for lexer.pos < len(lexer.src) && lexer.peek(0) != '\n' {
				lexer.advance()
			}
			continue
		case r == '"':
			s, err := lexer.lexString()
			if err != nil {
				return nil, err
			}
			tok.typ, tok.str = TokenString, s
		case unicode.IsDigit(r) || (r == '-' && unicode.IsDigit(lexer.peek(1)) && !lexer.endsValue()):
			typ, s, err := lexer.lexNumber()
			if err != nil {
				return nil, err
			}
			tok.typ, tok.str = typ, s
		case r == '_' || unicode.IsLetter(r):
			var sb strings.Builder
			for lexer.pos < len(lexer.src) && (lexer.peek(0) == '_' || unicode.IsLetter(lexer.peek(0)) || unicode.IsDigit(lexer.peek(0))) {
				sb.WriteRune(lexer.advance())
			}
			tok.typ, tok.str = TokenSymbol, sb.String()
		default:
			typ, ok := punctuation[r]
			if ok {
				lexer.advance()
				tok.typ, tok.str = typ, string(r)
				break
			}
			op := lexer.matchOperator()
			if op == "" {
				return nil, lexer.errorf(line, col, "unexpected character %q", r)
			}
			for range op {
				lexer.advance()
			}
			tok.typ, tok.str = TokenOperator, op
		}
		lexer.AppendToken(tok)
	}
	lexer.AppendToken(Token{typ: TokenEnd, line: lexer.line, col: lexer.col})
	return lexer.tokens, nil
}

var punctuation = map[rune]TokenType{
	'(': TokenLParen,
	')': TokenRParen,
	'[': TokenLSquare,
	']': TokenRSquare,
	'{': TokenLCurly,
	'}': TokenRCurly,
	',': TokenComma,
	':': TokenColon,
}

func (lexer *Lexer) matchOperator() string {
	rest := string(lexer.src[lexer.pos:min(lexer.pos+2, len(lexer.src))])
	for _, op := range operators {
		if strings.HasPrefix(rest, op) {
			return op
		}
	}
	return ""
}

// lexString returns the literal with its quotes; escapes are checked
// here and decoded at evaluation.
func (lexer *Lexer) lexString() (string, error) {
	line, col := lexer.line, lexer.col
	var sb strings.Builder
	sb.WriteRune(lexer.advance())
	for lexer.pos < len(lexer.src) {
		r := lexer.advance()
		sb.WriteRune(r)
		switch r {
		case '\\':
			if lexer.pos >= len(lexer.src) {
				return "", &ParseError{Line: line, Col: col, Msg: "unterminated string", Err: ErrUnexpectedEnd}
			}
			sb.WriteRune(lexer.advance())
		case '"':
			return sb.String(), nil
		}
	}
	return "", &ParseError{Line: line, Col: col, Msg: "unterminated string", Err: ErrUnexpectedEnd}
}

func (lexer *Lexer) lexNumber() (TokenType, string, error) {
	line, col := lexer.line, lexer.col
	var sb strings.Builder
	if lexer.peek(0) == '-' {
		sb.WriteRune(lexer.advance())
	}
	for lexer.pos < len(lexer.src) {
		r := lexer.peek(0)
		if unicode.IsDigit(r) || r == '.' || r == 'u' {
			sb.WriteRune(lexer.advance())
			if r == 'u' {
				break
			}
			continue
		}
		break
	}
	atom := sb.String()
	switch {
	case DecimalRegex.MatchString(atom):
		return TokenDecimal, atom, nil
	case FloatRegex.MatchString(atom):
		return TokenFloat, atom, nil
	}
	return TokenTypeEmpty, "", lexer.errorf(line, col, "malformed number '%s'", atom)
}

var keywords = map[string]bool{
	"def": true, "let": true, "in": true, "if": true, "then": true,
	"elif": true, "else": true, "for": true, "do": true, "reduce": true,
	"fn": true, "true": true, "false": true, "nil": true, "and": true, "or": true,
}

func isKeyword(s string) bool {
	return keywords[s]
}
