package expr

import (
	"strings"
)

// Lexer tokenizes expression source.
type Lexer struct {
	src string
	pos int
}

// NewLexer creates a lexer over src.
func NewLexer(src string) *Lexer {
	return &Lexer{src: src}
}

// Tokenize returns every token in src, ending with TokenEOF.
func (l *Lexer) Tokenize() ([]Token, error) {
	var tokens []Token
	for {
		tok, err := l.next()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.Type == TokenEOF {
			return tokens, nil
		}
	}
}

func (l *Lexer) next() (Token, error) {
	l.skipSpace()
	start := l.pos
	if l.pos >= len(l.src) {
		return Token{Type: TokenEOF, Offset: start}, nil
	}

	ch := l.src[l.pos]
	switch {
	case isDigit(ch) || (ch == '.' && l.pos+1 < len(l.src) && isDigit(l.src[l.pos+1])):
		return l.scanNumber()
	case ch == '"' || ch == '\'':
		return l.scanString(ch)
	case ch == '$':
		if l.pos+1 < len(l.src) && l.src[l.pos+1] == '{' {
			l.pos += 2
			return Token{Type: TokenVarOpen, Value: "${", Offset: start}, nil
		}
		l.pos++
		if l.pos >= len(l.src) || !isIdentStart(l.src[l.pos]) {
			return Token{}, &SyntaxError{Offset: start, Msg: "expected name after '$'"}
		}
		name := l.scanWord()
		return Token{Type: TokenIdent, Value: name, Offset: start}, nil
	case isIdentStart(ch):
		word := l.scanWord()
		if kw, ok := keywords[word]; ok {
			return Token{Type: kw, Value: word, Offset: start}, nil
		}
		return Token{Type: TokenIdent, Value: word, Offset: start}, nil
	}

	// Operators, longest match first.
	for _, op := range operators {
		if strings.HasPrefix(l.src[l.pos:], op.text) {
			l.pos += len(op.text)
			return Token{Type: op.typ, Value: op.text, Offset: start}, nil
		}
	}
	return Token{}, &SyntaxError{Offset: start, Msg: "unexpected character " + quoteByte(ch)}
}

var operators = []struct {
	text string
	typ  TokenType
}{
	{"&&", TokenAnd},
	{"||", TokenOr},
	{"==", TokenEq},
	{"!=", TokenNe},
	{"<=", TokenLe},
	{">=", TokenGe},
	{"<<", TokenShl},
	{">>", TokenShr},
	{"//", TokenDSlash},
	{"!", TokenNot},
	{"~", TokenNot},
	{"<", TokenLt},
	{">", TokenGt},
	{"+", TokenPlus},
	{"-", TokenMinus},
	{"*", TokenStar},
	{"/", TokenSlash},
	{"%", TokenPercent},
	{"&", TokenAmp},
	{"|", TokenPipe},
	{"^", TokenCaret},
	{"(", TokenLParen},
	{")", TokenRParen},
	{"[", TokenLBracket},
	{"]", TokenRBracket},
	{"}", TokenRBrace},
	{",", TokenComma},
}

func (l *Lexer) skipSpace() {
	for l.pos < len(l.src) {
		switch l.src[l.pos] {
		case ' ', '\t', '\r', '\n':
			l.pos++
		default:
			return
		}
	}
}

func (l *Lexer) scanWord() string {
	start := l.pos
	for l.pos < len(l.src) && isIdentPart(l.src[l.pos]) {
		l.pos++
	}
	return l.src[start:l.pos]
}

func (l *Lexer) scanNumber() (Token, error) {
	start := l.pos
	if l.src[l.pos] == '0' && l.pos+1 < len(l.src) {
		switch l.src[l.pos+1] {
		case 'x', 'X', 'b', 'B', 'o', 'O':
			l.pos += 2
			for l.pos < len(l.src) && (isHexDigit(l.src[l.pos]) || l.src[l.pos] == '_') {
				l.pos++
			}
			return Token{Type: TokenInt, Value: l.src[start:l.pos], Offset: start}, nil
		}
	}

	isFloat := false
	for l.pos < len(l.src) && (isDigit(l.src[l.pos]) || l.src[l.pos] == '_') {
		l.pos++
	}
	if l.pos < len(l.src) && l.src[l.pos] == '.' {
		isFloat = true
		l.pos++
		for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
			l.pos++
		}
	}
	if l.pos < len(l.src) && (l.src[l.pos] == 'e' || l.src[l.pos] == 'E') {
		save := l.pos
		l.pos++
		if l.pos < len(l.src) && (l.src[l.pos] == '+' || l.src[l.pos] == '-') {
			l.pos++
		}
		if l.pos < len(l.src) && isDigit(l.src[l.pos]) {
			isFloat = true
			for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
				l.pos++
			}
		} else {
			l.pos = save
		}
	}
	if l.pos < len(l.src) && isIdentStart(l.src[l.pos]) {
		return Token{}, &SyntaxError{Offset: start, Msg: "malformed number " + l.src[start:l.pos+1]}
	}

	typ := TokenInt
	if isFloat {
		typ = TokenFloat
	}
	return Token{Type: typ, Value: l.src[start:l.pos], Offset: start}, nil
}

func (l *Lexer) scanString(quote byte) (Token, error) {
	start := l.pos
	l.pos++
	var b strings.Builder
	for l.pos < len(l.src) {
		ch := l.src[l.pos]
		l.pos++
		switch ch {
		case quote:
			return Token{Type: TokenString, Value: b.String(), Offset: start}, nil
		case '\\':
			if l.pos >= len(l.src) {
				return Token{}, &SyntaxError{Offset: start, Msg: "unterminated string literal"}
			}
			esc := l.src[l.pos]
			l.pos++
			switch esc {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			case '0':
				b.WriteByte(0)
			default:
				b.WriteByte(esc)
			}
		default:
			b.WriteByte(ch)
		}
	}
	return Token{}, &SyntaxError{Offset: start, Msg: "unterminated string literal"}
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func isHexDigit(b byte) bool {
	return isDigit(b) || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
}

func isIdentStart(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isIdentPart(b byte) bool { return isIdentStart(b) || isDigit(b) }

func quoteByte(b byte) string { return "'" + string(rune(b)) + "'" }
