// Package expr implements the small expression language used by template
// directives: arithmetic, comparisons, boolean connectives, list literals and
// chained indexing, evaluated against a scope.
//
// # Grammar
//
//	expr     → or
//	or       → and ( ("||" | "or") and )*
//	and      → not ( ("&&" | "and") not )*
//	not      → ("!" | "~" | "not") not | cmp
//	cmp      → bitor ( ("=="|"!="|"<"|"<="|">"|">=") bitor )*
//	bitor    → bitxor ( "|" bitxor )*
//	bitxor   → bitand ( "^" bitand )*
//	bitand   → shift ( "&" shift )*
//	shift    → sum ( ("<<"|">>") sum )*
//	sum      → term ( ("+"|"-") term )*
//	term     → unary ( ("*"|"/"|"//"|"%") unary )*
//	unary    → ("-"|"+") unary | postfix
//	postfix  → primary ( "[" expr "]" )*
//	primary  → INT | FLOAT | STRING | true | false | NAME | "$" NAME
//	         | "${" NAME ( "[" expr "]" )* "}" | "(" expr ")" | "[" [expr ("," expr)* [","]] "]"
package expr

import (
	"strconv"
	"strings"

	"github.com/leapstack-labs/svpgen/internal/value"
)

// Precedence levels, lowest to highest.
const (
	precNone = iota
	precOr
	precAnd
	precNot
	precComparison
	precBitOr
	precBitXor
	precBitAnd
	precShift
	precAddition
	precMultiply
	precUnary
)

// Expr is a parsed expression together with its source text.
type Expr struct {
	Src  string
	Root Node
}

func (e *Expr) String() string { return e.Root.String() }

// Parser parses a token stream into an AST.
type Parser struct {
	src    string
	tokens []Token
	pos    int
}

// Parse parses src into an Expr.
func Parse(src string) (*Expr, error) {
	tokens, err := NewLexer(src).Tokenize()
	if err != nil {
		return nil, withSource(err, src)
	}
	p := &Parser{src: src, tokens: tokens}
	if p.peek().Type == TokenEOF {
		return nil, &SyntaxError{Src: src, Offset: 0, Msg: "empty expression"}
	}
	root, err := p.parseExpression(precOr)
	if err != nil {
		return nil, withSource(err, src)
	}
	if tok := p.peek(); tok.Type != TokenEOF {
		return nil, &SyntaxError{Src: src, Offset: tok.Offset, Msg: "unexpected " + describe(tok)}
	}
	return &Expr{Src: src, Root: root}, nil
}

// MustParse is like Parse but panics on error. Intended for constants and tests.
func MustParse(src string) *Expr {
	e, err := Parse(src)
	if err != nil {
		panic(err)
	}
	return e
}

func withSource(err error, src string) error {
	if se, ok := err.(*SyntaxError); ok && se.Src == "" {
		se.Src = src
	}
	return err
}

func (p *Parser) peek() Token { return p.tokens[p.pos] }

func (p *Parser) advance() Token {
	tok := p.tokens[p.pos]
	if tok.Type != TokenEOF {
		p.pos++
	}
	return tok
}

func (p *Parser) expect(t TokenType) (Token, error) {
	tok := p.peek()
	if tok.Type != t {
		return tok, &SyntaxError{Offset: tok.Offset, Msg: "expected " + t.String() + ", found " + describe(tok)}
	}
	return p.advance(), nil
}

func describe(tok Token) string {
	if tok.Type == TokenEOF {
		return tok.Type.String()
	}
	return strconv.Quote(tok.Value)
}

// parseExpression implements precedence climbing.
func (p *Parser) parseExpression(minPrec int) (Node, error) {
	left, err := p.parsePrefix()
	if err != nil {
		return nil, err
	}

	for {
		tok := p.peek()
		prec := infixPrecedence(tok.Type)
		if prec == precNone || prec < minPrec {
			return left, nil
		}
		p.advance()
		right, err := p.parseExpression(prec + 1)
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{nodeBase: nodeBase{offset: tok.Offset}, Op: tok.Type, Left: left, Right: right}
	}
}

func infixPrecedence(t TokenType) int {
	switch t {
	case TokenOr:
		return precOr
	case TokenAnd:
		return precAnd
	case TokenEq, TokenNe, TokenLt, TokenLe, TokenGt, TokenGe:
		return precComparison
	case TokenPipe:
		return precBitOr
	case TokenCaret:
		return precBitXor
	case TokenAmp:
		return precBitAnd
	case TokenShl, TokenShr:
		return precShift
	case TokenPlus, TokenMinus:
		return precAddition
	case TokenStar, TokenSlash, TokenDSlash, TokenPercent:
		return precMultiply
	default:
		return precNone
	}
}

func (p *Parser) parsePrefix() (Node, error) {
	tok := p.peek()
	switch tok.Type {
	case TokenNot:
		p.advance()
		x, err := p.parseExpression(precNot)
		if err != nil {
			return nil, err
		}
		return &UnaryExpr{nodeBase: nodeBase{offset: tok.Offset}, Op: TokenNot, X: x}, nil
	case TokenMinus, TokenPlus:
		p.advance()
		x, err := p.parseExpression(precUnary)
		if err != nil {
			return nil, err
		}
		return &UnaryExpr{nodeBase: nodeBase{offset: tok.Offset}, Op: tok.Type, X: x}, nil
	default:
		return p.parsePostfix()
	}
}

func (p *Parser) parsePostfix() (Node, error) {
	x, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	return p.parseIndexes(x)
}

func (p *Parser) parseIndexes(x Node) (Node, error) {
	for p.peek().Type == TokenLBracket {
		open := p.advance()
		idx, err := p.parseExpression(precOr)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenRBracket); err != nil {
			return nil, err
		}
		x = &IndexExpr{nodeBase: nodeBase{offset: open.Offset}, X: x, Index: idx}
	}
	return x, nil
}

func (p *Parser) parsePrimary() (Node, error) {
	tok := p.advance()
	base := nodeBase{offset: tok.Offset}

	switch tok.Type {
	case TokenInt:
		n, err := parseInt(tok.Value)
		if err != nil {
			return nil, &SyntaxError{Offset: tok.Offset, Msg: "invalid integer literal " + tok.Value}
		}
		return &Literal{nodeBase: base, Value: value.Int(n)}, nil

	case TokenFloat:
		f, err := strconv.ParseFloat(tok.Value, 64)
		if err != nil {
			return nil, &SyntaxError{Offset: tok.Offset, Msg: "invalid float literal " + tok.Value}
		}
		return &Literal{nodeBase: base, Value: value.Float(f)}, nil

	case TokenString:
		return &Literal{nodeBase: base, Value: value.String(tok.Value)}, nil

	case TokenTrue:
		return &Literal{nodeBase: base, Value: value.Bool(true)}, nil

	case TokenFalse:
		return &Literal{nodeBase: base, Value: value.Bool(false)}, nil

	case TokenIdent:
		return &Ident{nodeBase: base, Name: tok.Value, Sigil: p.src != "" && tok.Offset < len(p.src) && p.src[tok.Offset] == '$'}, nil

	case TokenVarOpen:
		name, err := p.expect(TokenIdent)
		if err != nil {
			return nil, err
		}
		var x Node = &Ident{nodeBase: nodeBase{offset: name.Offset}, Name: name.Value, Sigil: true}
		x, err = p.parseIndexes(x)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenRBrace); err != nil {
			return nil, err
		}
		return x, nil

	case TokenLParen:
		x, err := p.parseExpression(precOr)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenRParen); err != nil {
			return nil, err
		}
		return x, nil

	case TokenLBracket:
		list := &ListLit{nodeBase: base}
		for p.peek().Type != TokenRBracket {
			elem, err := p.parseExpression(precOr)
			if err != nil {
				return nil, err
			}
			list.Elems = append(list.Elems, elem)
			if p.peek().Type != TokenComma {
				break
			}
			p.advance()
		}
		if _, err := p.expect(TokenRBracket); err != nil {
			return nil, err
		}
		return list, nil

	default:
		return nil, &SyntaxError{Offset: tok.Offset, Msg: "unexpected " + describe(tok)}
	}
}

// parseInt accepts decimal literals (leading zeros allowed, not octal) and
// 0x/0b/0o prefixed literals, with optional underscores.
func parseInt(s string) (int64, error) {
	clean := strings.ReplaceAll(s, "_", "")
	if len(clean) > 1 && clean[0] == '0' {
		switch clean[1] {
		case 'x', 'X', 'b', 'B', 'o', 'O':
			return strconv.ParseInt(clean, 0, 64)
		}
	}
	return strconv.ParseInt(clean, 10, 64)
}
