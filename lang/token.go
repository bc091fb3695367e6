package lang

// TokenType identifies the lexical class of a [Token].
type TokenType int

const (
	TokenEOF TokenType = iota
	TokenIdent
	TokenNumber
	TokenString

	// keywords
	TokenVar
	TokenFunction
	TokenIf
	TokenElse
	TokenFor
	TokenTrue
	TokenFalse
	TokenNull
	TokenUndefined
	TokenThis
	TokenNew
	TokenThrow
	TokenVoid
	TokenInstanceof

	// punctuation
	TokenLParen
	TokenRParen
	TokenLBrace
	TokenRBrace
	TokenLBracket
	TokenRBracket
	TokenComma
	TokenSemicolon
	TokenColon
	TokenDot
	TokenDotDot
	TokenQuestion

	// operators
	TokenAssign
	TokenAssignDefault
	TokenAssignNullish
	TokenPlus
	TokenMinus
	TokenStar
	TokenSlash
	TokenPercent
	TokenEq
	TokenNotEq
	TokenLt
	TokenLtEq
	TokenGt
	TokenGtEq
	TokenAndAnd
	TokenOrOr
	TokenNot
	TokenAmp
	TokenPipe
	TokenCaret
	TokenTilde
	TokenShl
	TokenShr
	TokenUshr
)

var tokenNames = [...]string{
	TokenEOF:           "end of input",
	TokenIdent:         "identifier",
	TokenNumber:        "number",
	TokenString:        "string",
	TokenVar:           "var",
	TokenFunction:      "function",
	TokenIf:            "if",
	TokenElse:          "else",
	TokenFor:           "for",
	TokenTrue:          "true",
	TokenFalse:         "false",
	TokenNull:          "null",
	TokenUndefined:     "undefined",
	TokenThis:          "this",
	TokenNew:           "new",
	TokenThrow:         "throw",
	TokenVoid:          "void",
	TokenInstanceof:    "instanceof",
	TokenLParen:        "(",
	TokenRParen:        ")",
	TokenLBrace:        "{",
	TokenRBrace:        "}",
	TokenLBracket:      "[",
	TokenRBracket:      "]",
	TokenComma:         ",",
	TokenSemicolon:     ";",
	TokenColon:         ":",
	TokenDot:           ".",
	TokenDotDot:        "..",
	TokenQuestion:      "?",
	TokenAssign:        "=",
	TokenAssignDefault: "?=",
	TokenAssignNullish: "??=",
	TokenPlus:          "+",
	TokenMinus:         "-",
	TokenStar:          "*",
	TokenSlash:         "/",
	TokenPercent:       "%",
	TokenEq:            "==",
	TokenNotEq:         "!=",
	TokenLt:            "<",
	TokenLtEq:          "<=",
	TokenGt:            ">",
	TokenGtEq:          ">=",
	TokenAndAnd:        "&&",
	TokenOrOr:          "||",
	TokenNot:           "!",
	TokenAmp:           "&",
	TokenPipe:          "|",
	TokenCaret:         "^",
	TokenTilde:         "~",
	TokenShl:           "<<",
	TokenShr:           ">>",
	TokenUshr:          ">>>",
}

// String returns the source spelling of fixed tokens, or a class name.
func (t TokenType) String() string {
	if t >= 0 && int(t) < len(tokenNames) {
		return tokenNames[t]
	}

	return "unknown"
}

// IsKeyword reports whether t is a reserved word.
func (t TokenType) IsKeyword() bool {
	return t >= TokenVar && t <= TokenInstanceof
}

var keywords = map[string]TokenType{
	"var":        TokenVar,
	"function":   TokenFunction,
	"if":         TokenIf,
	"else":       TokenElse,
	"for":        TokenFor,
	"true":       TokenTrue,
	"false":      TokenFalse,
	"null":       TokenNull,
	"undefined":  TokenUndefined,
	"this":       TokenThis,
	"new":        TokenNew,
	"throw":      TokenThrow,
	"void":       TokenVoid,
	"instanceof": TokenInstanceof,
}

// Token is a single lexeme. Text holds the identifier name, the decoded
// string contents, or the raw number spelling.
type Token struct {
	Text string
	Pos  Position
	Num  float64
	Type TokenType
	// Newline reports whether a line break separates this token from the
	// previous one.
	Newline bool
}

// String describes the token for error messages.
func (t Token) String() string {
	switch t.Type {
	case TokenIdent, TokenNumber:
		return t.Text
	case TokenString:
		return `"` + t.Text + `"`
	default:
		return t.Type.String()
	}
}
