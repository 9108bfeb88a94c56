package template

import (
	"regexp"
	"strings"

	"github.com/leapstack-labs/svpgen/internal/expr"
)

// IncludeTarget is the assignment name that imports a macro file instead of
// binding a variable.
const IncludeTarget = "include"

var (
	forHeaderRe   = regexp.MustCompile(`^for\s*\(\s*\$?([A-Za-z_]\w*)\s*=\s*([^;]+);([^;]+);(.+?)\)\s*\{$`)
	ifHeaderRe    = regexp.MustCompile(`^if\s*\((.+)\)\s*\{$`)
	elsifHeaderRe = regexp.MustCompile(`^elsif\s*\((.+)\)\s*\{$`)
)

// Parser builds a directive tree from classified lines.
type Parser struct {
	tokens []Token
	pos    int
	file   string
	stray  []Position
}

// NewParser creates a new parser for the given tokens.
func NewParser(tokens []Token, file string) *Parser {
	return &Parser{tokens: tokens, file: file}
}

// ParseString tokenizes and parses a template string.
func ParseString(input, file string) (*Template, error) {
	tokens, err := NewLexer(input, file).Tokenize()
	if err != nil {
		return nil, err
	}
	return NewParser(tokens, file).Parse()
}

// Parse parses the complete token stream.
func (p *Parser) Parse() (*Template, error) {
	nodes, _, err := p.parseNodes(false)
	if err != nil {
		return nil, err
	}
	return &Template{Nodes: nodes, File: p.file, StrayCloses: p.stray}, nil
}

func (p *Parser) next() Token {
	tok := p.tokens[p.pos]
	if tok.Type != TokenEOF {
		p.pos++
	}
	return tok
}

// parseNodes parses lines until EOF or, inside a block, until a close or
// branch directive, which is returned as the terminator.
func (p *Parser) parseNodes(inBlock bool) ([]Node, Token, error) {
	var nodes []Node

	for {
		tok := p.next()

		switch tok.Type {
		case TokenEOF:
			return nodes, tok, nil

		case TokenText:
			segs, err := splitSegments(tok.Value, tok.Pos)
			if err != nil {
				return nil, tok, err
			}
			nodes = append(nodes, &TextNode{nodeBase: nodeBase{pos: tok.Pos}, Text: tok.Value, Segments: segs})

		case TokenAssign:
			node, err := p.parseAssign(tok)
			if err != nil {
				return nil, tok, err
			}
			nodes = append(nodes, node)

		case TokenFor:
			node, err := p.parseFor(tok)
			if err != nil {
				return nil, tok, err
			}
			nodes = append(nodes, node)

		case TokenIf:
			node, err := p.parseIf(tok)
			if err != nil {
				return nil, tok, err
			}
			nodes = append(nodes, node)

		case TokenClose:
			if inBlock {
				return nodes, tok, nil
			}
			p.stray = append(p.stray, tok.Pos)

		case TokenElsif, TokenElse:
			if inBlock {
				return nodes, tok, nil
			}
			return nil, tok, NewUnmatchedBlockError(tok.Pos, DirectivePrefix+tok.Value, tok.Type)
		}
	}
}

// parseAssign handles //:$name = expr, its compound forms and the include
// target.
func (p *Parser) parseAssign(tok Token) (Node, error) {
	name, src := normalizeStep(tok.Value, "")
	if name == "" || src == "" {
		return nil, NewDirectiveSyntaxError(tok.Pos, DirectivePrefix+tok.Value, "malformed assignment")
	}

	e, err := parseExpr(tok.Pos, src)
	if err != nil {
		return nil, err
	}

	if name == IncludeTarget {
		return &IncludeNode{nodeBase: nodeBase{pos: tok.Pos}, Path: e, Source: tok.Value}, nil
	}
	return &AssignNode{nodeBase: nodeBase{pos: tok.Pos}, Name: name, Value: e, Source: tok.Value}, nil
}

// parseFor parses a for header and its body up to the matching close.
func (p *Parser) parseFor(tok Token) (*ForBlock, error) {
	m := forHeaderRe.FindStringSubmatch(tok.Value)
	if m == nil {
		return nil, NewDirectiveSyntaxError(tok.Pos, DirectivePrefix+tok.Value, "malformed for header, expected for($VAR = INIT; COND; STEP){")
	}

	block := &ForBlock{nodeBase: nodeBase{pos: tok.Pos}, VarName: m[1], Header: tok.Value}

	var err error
	if block.Init, err = parseExpr(tok.Pos, strings.TrimSpace(m[2])); err != nil {
		return nil, err
	}
	if block.Cond, err = parseExpr(tok.Pos, strings.TrimSpace(m[3])); err != nil {
		return nil, err
	}

	stepVar, stepSrc := normalizeStep(m[4], block.VarName)
	if stepSrc == "" {
		return nil, NewDirectiveSyntaxError(tok.Pos, DirectivePrefix+tok.Value, "malformed for header, empty step")
	}
	block.StepVar = stepVar
	if block.Step, err = parseExpr(tok.Pos, stepSrc); err != nil {
		return nil, err
	}

	body, term, err := p.parseNodes(true)
	if err != nil {
		return nil, err
	}
	switch term.Type {
	case TokenClose:
		block.Body = body
		return block, nil
	case TokenEOF:
		return nil, NewUnmatchedBlockError(tok.Pos, DirectivePrefix+tok.Value, TokenFor)
	default:
		return nil, NewUnmatchedBlockError(term.Pos, DirectivePrefix+term.Value, term.Type)
	}
}

// parseIf parses an if chain: the if branch, any elsif branches, an optional
// else, and the single close that ends the chain.
func (p *Parser) parseIf(tok Token) (*IfBlock, error) {
	block := &IfBlock{nodeBase: nodeBase{pos: tok.Pos}}

	header := tok
	for {
		branch := Branch{Header: header.Value, pos: header.Pos}

		switch header.Type {
		case TokenIf, TokenElsif:
			re := ifHeaderRe
			if header.Type == TokenElsif {
				re = elsifHeaderRe
			}
			m := re.FindStringSubmatch(header.Value)
			if m == nil {
				return nil, NewDirectiveSyntaxErrorf(header.Pos, DirectivePrefix+header.Value, "malformed %s header, expected %s(COND){", strings.ToLower(header.Type.String()), strings.ToLower(header.Type.String()))
			}
			cond, err := parseExpr(header.Pos, strings.TrimSpace(m[1]))
			if err != nil {
				return nil, err
			}
			branch.Cond = cond
		case TokenElse:
			if n := len(block.Branches); n > 0 && block.Branches[n-1].IsElse() {
				return nil, NewDirectiveSyntaxError(header.Pos, DirectivePrefix+header.Value, "duplicate 'else' in if chain")
			}
		}

		if header.Type == TokenElsif {
			if n := len(block.Branches); n > 0 && block.Branches[n-1].IsElse() {
				return nil, NewDirectiveSyntaxError(header.Pos, DirectivePrefix+header.Value, "'elsif' after 'else'")
			}
		}

		body, term, err := p.parseNodes(true)
		if err != nil {
			return nil, err
		}
		branch.Body = body
		block.Branches = append(block.Branches, branch)

		switch term.Type {
		case TokenClose:
			return block, nil
		case TokenEOF:
			return nil, NewUnmatchedBlockError(tok.Pos, DirectivePrefix+tok.Value, TokenIf)
		default:
			header = term
		}
	}
}

func parseExpr(pos Position, src string) (*expr.Expr, error) {
	e, err := expr.Parse(src)
	if err != nil {
		return nil, WrapExpressionError(pos, src, err)
	}
	return e, nil
}
