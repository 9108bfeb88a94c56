package expr

// TokenType identifies the type of an expression token.
type TokenType int

// TokenType constants.
const (
	TokenEOF TokenType = iota
	TokenInt
	TokenFloat
	TokenString
	TokenIdent    // name, $name
	TokenVarOpen  // ${
	TokenTrue     // true, True
	TokenFalse    // false, False
	TokenLParen   // (
	TokenRParen   // )
	TokenLBracket // [
	TokenRBracket // ]
	TokenRBrace   // }
	TokenComma    // ,
	TokenPlus     // +
	TokenMinus    // -
	TokenStar     // *
	TokenSlash    // /
	TokenDSlash   // //
	TokenPercent  // %
	TokenShl      // <<
	TokenShr      // >>
	TokenAmp      // &
	TokenPipe     // |
	TokenCaret    // ^
	TokenEq       // ==
	TokenNe       // !=
	TokenLt       // <
	TokenLe       // <=
	TokenGt       // >
	TokenGe       // >=
	TokenAnd      // &&, and
	TokenOr       // ||, or
	TokenNot      // !, ~, not
)

var tokenNames = map[TokenType]string{
	TokenEOF:      "end of expression",
	TokenInt:      "integer",
	TokenFloat:    "float",
	TokenString:   "string",
	TokenIdent:    "name",
	TokenVarOpen:  "'${'",
	TokenTrue:     "true",
	TokenFalse:    "false",
	TokenLParen:   "'('",
	TokenRParen:   "')'",
	TokenLBracket: "'['",
	TokenRBracket: "']'",
	TokenRBrace:   "'}'",
	TokenComma:    "','",
	TokenPlus:     "'+'",
	TokenMinus:    "'-'",
	TokenStar:     "'*'",
	TokenSlash:    "'/'",
	TokenDSlash:   "'//'",
	TokenPercent:  "'%'",
	TokenShl:      "'<<'",
	TokenShr:      "'>>'",
	TokenAmp:      "'&'",
	TokenPipe:     "'|'",
	TokenCaret:    "'^'",
	TokenEq:       "'=='",
	TokenNe:       "'!='",
	TokenLt:       "'<'",
	TokenLe:       "'<='",
	TokenGt:       "'>'",
	TokenGe:       "'>='",
	TokenAnd:      "and",
	TokenOr:       "or",
	TokenNot:      "not",
}

func (t TokenType) String() string {
	if s, ok := tokenNames[t]; ok {
		return s
	}
	return "unknown"
}

// Token is a lexical token. Offset is the byte offset into the source.
type Token struct {
	Type   TokenType
	Value  string
	Offset int
}

// keywords are recognized only on bare words; $and is a variable.
var keywords = map[string]TokenType{
	"and":   TokenAnd,
	"or":    TokenOr,
	"not":   TokenNot,
	"true":  TokenTrue,
	"True":  TokenTrue,
	"false": TokenFalse,
	"False": TokenFalse,
}
