package lang

import (
	"log/slog"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// lexer converts source text into a token slice in a single pass.
type lexer struct {
	src     string
	tokens  []Token
	off     int
	line    int
	col     int
	newline bool
}

// tokenize scans all of src. The returned slice always ends with TokenEOF.
func tokenize(src string) ([]Token, error) {
	lx := &lexer{src: src, line: 1, col: 1}

	for {
		err := lx.skipSpace()
		if err != nil {
			return nil, err
		}

		tok, err := lx.next()
		if err != nil {
			return nil, err
		}

		tok.Newline = lx.newline
		lx.newline = false
		lx.tokens = append(lx.tokens, tok)

		if tok.Type == TokenEOF {
			return lx.tokens, nil
		}
	}
}

func (lx *lexer) pos() Position {
	return Position{Offset: lx.off, Line: lx.line, Column: lx.col}
}

func (lx *lexer) peek(n int) byte {
	if lx.off+n < len(lx.src) {
		return lx.src[lx.off+n]
	}

	return 0
}

func (lx *lexer) advance() rune {
	r, size := utf8.DecodeRuneInString(lx.src[lx.off:])
	lx.off += size

	if r == '\n' {
		lx.line++
		lx.col = 1
		lx.newline = true
	} else {
		lx.col++
	}

	return r
}

func (lx *lexer) skipSpace() error {
	for lx.off < len(lx.src) {
		c := lx.src[lx.off]

		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n' || c == '\f':
			lx.advance()

		case c == '/' && lx.peek(1) == '/':
			for lx.off < len(lx.src) && lx.src[lx.off] != '\n' {
				lx.advance()
			}

		case c == '/' && lx.peek(1) == '*':
			start := lx.pos()

			lx.advance()
			lx.advance()

			for {
				if lx.off >= len(lx.src) {
					return ErrUnterminatedComment.At(start)
				}

				if lx.src[lx.off] == '*' && lx.peek(1) == '/' {
					lx.advance()
					lx.advance()

					break
				}

				lx.advance()
			}

		default:
			return nil
		}
	}

	return nil
}

// operators maps punctuation spellings to token types, longest first.
var operators = []struct {
	text string
	typ  TokenType
}{
	{">>>", TokenUshr},
	{"??=", TokenAssignNullish},
	{"?=", TokenAssignDefault},
	{"==", TokenEq},
	{"!=", TokenNotEq},
	{"<=", TokenLtEq},
	{">=", TokenGtEq},
	{"&&", TokenAndAnd},
	{"||", TokenOrOr},
	{"<<", TokenShl},
	{">>", TokenShr},
	{"..", TokenDotDot},
	{"(", TokenLParen},
	{")", TokenRParen},
	{"{", TokenLBrace},
	{"}", TokenRBrace},
	{"[", TokenLBracket},
	{"]", TokenRBracket},
	{",", TokenComma},
	{";", TokenSemicolon},
	{":", TokenColon},
	{".", TokenDot},
	{"?", TokenQuestion},
	{"=", TokenAssign},
	{"+", TokenPlus},
	{"-", TokenMinus},
	{"*", TokenStar},
	{"/", TokenSlash},
	{"%", TokenPercent},
	{"<", TokenLt},
	{">", TokenGt},
	{"!", TokenNot},
	{"&", TokenAmp},
	{"|", TokenPipe},
	{"^", TokenCaret},
	{"~", TokenTilde},
}

func (lx *lexer) next() (Token, error) {
	start := lx.pos()

	if lx.off >= len(lx.src) {
		return Token{Type: TokenEOF, Pos: start}, nil
	}

	c := lx.src[lx.off]

	switch {
	case isDigit(c) || (c == '.' && isDigit(lx.peek(1))):
		return lx.number(start)

	case c == '"' || c == '\'':
		return lx.string(start)
	}

	r, _ := utf8.DecodeRuneInString(lx.src[lx.off:])
	if isIdentStart(r) {
		return lx.ident(start), nil
	}

	for _, op := range operators {
		if strings.HasPrefix(lx.src[lx.off:], op.text) {
			for range len(op.text) {
				lx.advance()
			}

			return Token{Type: op.typ, Pos: start, Text: op.text}, nil
		}
	}

	return Token{}, ErrInvalidCharacter.At(start).
		With(slog.String("char", strconv.QuoteRune(r)))
}

func (lx *lexer) ident(start Position) Token {
	begin := lx.off

	for lx.off < len(lx.src) {
		r, _ := utf8.DecodeRuneInString(lx.src[lx.off:])
		if !isIdentPart(r) {
			break
		}

		lx.advance()
	}

	text := lx.src[begin:lx.off]

	if typ, ok := keywords[text]; ok {
		return Token{Type: typ, Pos: start, Text: text}
	}

	return Token{Type: TokenIdent, Pos: start, Text: text}
}

func (lx *lexer) number(start Position) (Token, error) {
	begin := lx.off

	if lx.src[lx.off] == '0' && (lx.peek(1) == 'x' || lx.peek(1) == 'X') {
		lx.advance()
		lx.advance()

		for isHexDigit(lx.peek(0)) {
			lx.advance()
		}

		text := lx.src[begin:lx.off]

		n, err := strconv.ParseUint(text[2:], 16, 64)
		if err != nil {
			return Token{}, ErrInvalidNumber.At(start).
				With(slog.String("literal", text))
		}

		return Token{Type: TokenNumber, Pos: start, Text: text, Num: float64(n)}, nil
	}

	for isDigit(lx.peek(0)) {
		lx.advance()
	}

	// A dot followed by another dot is a range operator, not a fraction.
	if lx.peek(0) == '.' && isDigit(lx.peek(1)) {
		lx.advance()

		for isDigit(lx.peek(0)) {
			lx.advance()
		}
	}

	if c := lx.peek(0); c == 'e' || c == 'E' {
		n := 1
		if s := lx.peek(1); s == '+' || s == '-' {
			n = 2
		}

		if isDigit(lx.peek(n)) {
			for range n {
				lx.advance()
			}

			for isDigit(lx.peek(0)) {
				lx.advance()
			}
		}
	}

	text := lx.src[begin:lx.off]

	if r, _ := utf8.DecodeRuneInString(lx.src[lx.off:]); isIdentStart(r) {
		return Token{}, ErrInvalidNumber.At(start).
			With(slog.String("literal", text+string(r)))
	}

	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return Token{}, ErrInvalidNumber.At(start).Wrap(err).
			With(slog.String("literal", text))
	}

	return Token{Type: TokenNumber, Pos: start, Text: text, Num: f}, nil
}

func (lx *lexer) string(start Position) (Token, error) {
	quote := lx.advance()

	var b strings.Builder

	for {
		if lx.off >= len(lx.src) || lx.src[lx.off] == '\n' {
			return Token{}, ErrUnterminatedString.At(start)
		}

		r := lx.advance()

		switch r {
		case quote:
			return Token{Type: TokenString, Pos: start, Text: b.String()}, nil

		case '\\':
			err := lx.escape(&b)
			if err != nil {
				return Token{}, err
			}

		default:
			b.WriteRune(r)
		}
	}
}

func (lx *lexer) escape(b *strings.Builder) error {
	pos := lx.pos()

	if lx.off >= len(lx.src) {
		return ErrUnterminatedString.At(pos)
	}

	r := lx.advance()

	switch r {
	case 'b':
		b.WriteByte('\b')
	case 'f':
		b.WriteByte('\f')
	case 'n':
		b.WriteByte('\n')
	case 'r':
		b.WriteByte('\r')
	case 't':
		b.WriteByte('\t')
	case 's':
		b.WriteByte(' ')
	case '\\', '"', '\'', '/':
		b.WriteRune(r)
	case 'u':
		if lx.off+4 > len(lx.src) {
			return ErrInvalidEscape.At(pos)
		}

		hex := lx.src[lx.off : lx.off+4]

		n, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return ErrInvalidEscape.At(pos).With(slog.String("escape", `\u`+hex))
		}

		for range 4 {
			lx.advance()
		}

		b.WriteRune(rune(n))
	default:
		return ErrInvalidEscape.At(pos).
			With(slog.String("escape", `\`+string(r)))
	}

	return nil
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isHexDigit(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func isIdentStart(r rune) bool {
	return r == '_' || r == '$' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return isIdentStart(r) || unicode.IsDigit(r)
}
