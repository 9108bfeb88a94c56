package template

import (
	"strings"
)

// DirectivePrefix marks a directive line once leading whitespace is removed.
const DirectivePrefix = "//:"

// TokenType identifies the type of token.
type TokenType int

// TokenType constants for template token types. Every physical line yields
// exactly one token.
const (
	TokenText   TokenType = iota // Literal line
	TokenAssign                  // //:$name = expr
	TokenFor                     // //:for($v = init; cond; step){
	TokenIf                      // //:if(cond){
	TokenElsif                   // //:elsif(cond){
	TokenElse                    // //:else{
	TokenClose                   // //:}
	TokenEOF                     // End of input
)

func (t TokenType) String() string {
	switch t {
	case TokenText:
		return "TEXT"
	case TokenAssign:
		return "ASSIGN"
	case TokenFor:
		return "FOR"
	case TokenIf:
		return "IF"
	case TokenElsif:
		return "ELSIF"
	case TokenElse:
		return "ELSE"
	case TokenClose:
		return "CLOSE"
	case TokenEOF:
		return "EOF"
	default:
		return "UNKNOWN"
	}
}

// Token represents one classified line.
type Token struct {
	Type  TokenType
	Value string // Directive body after the prefix, or the raw line for TokenText
	Pos   Position
}

// Lexer splits a template into lines and classifies each one.
type Lexer struct {
	input string
	file  string
}

// NewLexer creates a new lexer for the given input.
func NewLexer(input, file string) *Lexer {
	return &Lexer{input: input, file: file}
}

// Tokenize converts the input into a slice of tokens, one per line, followed
// by TokenEOF.
func (l *Lexer) Tokenize() ([]Token, error) {
	lines := strings.Split(l.input, "\n")
	tokens := make([]Token, 0, len(lines)+1)

	for i, line := range lines {
		tok, err := l.classify(line, i+1)
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
	}

	tokens = append(tokens, Token{Type: TokenEOF, Pos: Position{File: l.file, Line: len(lines) + 1, Column: 1}})
	return tokens, nil
}

// classify determines the token type of a single line.
func (l *Lexer) classify(line string, lineNo int) (Token, error) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, DirectivePrefix) {
		return Token{Type: TokenText, Value: line, Pos: Position{File: l.file, Line: lineNo, Column: 1}}, nil
	}

	pos := Position{File: l.file, Line: lineNo, Column: strings.Index(line, DirectivePrefix) + 1}
	body := strings.TrimSpace(trimmed[len(DirectivePrefix):])

	var typ TokenType
	switch {
	case body == "}":
		typ = TokenClose
	case strings.HasPrefix(body, "$"):
		typ = TokenAssign
	case hasHead(body, "for"):
		typ = TokenFor
	case hasHead(body, "if"):
		typ = TokenIf
	case hasHead(body, "elsif"):
		typ = TokenElsif
	case isElse(body):
		typ = TokenElse
	default:
		return Token{}, NewDirectiveSyntaxError(pos, trimmed, "unrecognized directive")
	}

	return Token{Type: typ, Value: body, Pos: pos}, nil
}

// hasHead reports whether body is keyword followed by optional blanks and "(".
func hasHead(body, keyword string) bool {
	if !strings.HasPrefix(body, keyword) {
		return false
	}
	rest := strings.TrimLeft(body[len(keyword):], " \t")
	return strings.HasPrefix(rest, "(")
}

func isElse(body string) bool {
	if !strings.HasPrefix(body, "else") {
		return false
	}
	rest := strings.TrimSpace(body[len("else"):])
	return rest == "" || rest == "{"
}
