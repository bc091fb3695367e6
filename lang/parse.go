package lang

import (
	"errors"
	"log/slog"
)

// Binding powers, lowest to highest.
const (
	bpLowest = iota
	bpAssign
	bpTernary
	bpOr
	bpAnd
	bpBitOr
	bpBitXor
	bpBitAnd
	bpEquality
	bpRelational
	bpShift
	bpAdditive
	bpMultiplicative
	bpPrefix
	bpPostfix
)

func infixPower(t TokenType) int {
	switch t {
	case TokenAssign:
		return bpAssign
	case TokenQuestion:
		return bpTernary
	case TokenOrOr:
		return bpOr
	case TokenAndAnd:
		return bpAnd
	case TokenPipe:
		return bpBitOr
	case TokenCaret:
		return bpBitXor
	case TokenAmp:
		return bpBitAnd
	case TokenEq, TokenNotEq:
		return bpEquality
	case TokenLt, TokenLtEq, TokenGt, TokenGtEq, TokenInstanceof:
		return bpRelational
	case TokenShl, TokenShr, TokenUshr:
		return bpShift
	case TokenPlus, TokenMinus:
		return bpAdditive
	case TokenStar, TokenSlash, TokenPercent:
		return bpMultiplicative
	case TokenLParen, TokenLBracket, TokenDot:
		return bpPostfix
	default:
		return bpLowest
	}
}

// Compile parses src into a [Program] without evaluating it.
// Errors are syntax errors carrying the source position and text.
func Compile(src string) (*Program, error) {
	tokens, err := tokenize(src)
	if err != nil {
		return nil, WrapError(err).withSource(src)
	}

	p := &parser{tokens: tokens}

	body, err := p.statements(TokenEOF)
	if err != nil {
		return nil, WrapError(err).withSource(src)
	}

	return &Program{Source: src, Body: body}, nil
}

// maxNesting bounds how deeply expressions and blocks may nest in source.
const maxNesting = 10000

type parser struct {
	tokens []Token
	pos    int
	depth  int
}

// nest enters one level of syntactic nesting. Callers must call unnest when
// nest returns nil.
func (p *parser) nest() error {
	if p.depth >= maxNesting {
		return ErrMaxNesting.At(p.peek().Pos).With(slog.Int("max_nesting", maxNesting))
	}

	p.depth++

	return nil
}

func (p *parser) unnest() { p.depth-- }

func (p *parser) peek() Token { return p.peekAt(0) }

func (p *parser) peekAt(n int) Token {
	if i := p.pos + n; i < len(p.tokens) {
		return p.tokens[i]
	}

	return p.tokens[len(p.tokens)-1]
}

func (p *parser) prev() Token {
	if p.pos == 0 {
		return Token{}
	}

	return p.tokens[p.pos-1]
}

func (p *parser) next() Token {
	t := p.tokens[p.pos]
	if t.Type != TokenEOF {
		p.pos++
	}

	return t
}

func (p *parser) accept(t TokenType) bool {
	if p.peek().Type == t {
		p.next()

		return true
	}

	return false
}

func (p *parser) expect(t TokenType) (Token, error) {
	tok := p.peek()
	if tok.Type != t {
		return tok, unexpected(tok, t.String())
	}

	return p.next(), nil
}

func unexpected(tok Token, expected string) error {
	err := ErrUnexpectedToken.At(tok.Pos).With(slog.String("found", tok.String()))
	if expected != "" {
		err = err.With(slog.String("expected", expected))
	}

	return err
}

// name accepts an identifier or keyword used as a property name.
func (p *parser) name() (Token, error) {
	tok := p.peek()
	if tok.Type == TokenIdent || tok.Type.IsKeyword() {
		return p.next(), nil
	}

	return tok, unexpected(tok, "name")
}

// statements parses until end, enforcing that consecutive statements are
// separated by ';', a line break, or a closing brace.
func (p *parser) statements(end TokenType) ([]Stmt, error) {
	var body []Stmt

	for p.peek().Type != end {
		if p.accept(TokenSemicolon) {
			continue
		}

		if p.peek().Type == TokenEOF {
			return nil, unexpected(p.peek(), end.String())
		}

		stmt, err := p.statement()
		if err != nil {
			return nil, err
		}

		body = append(body, stmt)

		next := p.peek()

		switch {
		case next.Type == TokenSemicolon, next.Type == end, next.Newline:
		case p.prev().Type == TokenRBrace:
		case next.Type == TokenRParen, next.Type == TokenRBracket,
			next.Type == TokenRBrace, next.Type == TokenComma,
			next.Type == TokenColon, next.Type == TokenEOF:
			return nil, unexpected(next, "")
		default:
			return nil, ErrMissingSeparator.At(next.Pos).
				With(slog.String("found", next.String()))
		}
	}

	return body, nil
}

func (p *parser) statement() (Stmt, error) {
	tok := p.peek()

	switch tok.Type {
	case TokenVar:
		if p.peekAt(1).Type != TokenDot {
			return p.varStmt()
		}

	case TokenFunction:
		if p.peekAt(1).Type == TokenIdent {
			return p.funcDecl()
		}

	case TokenFor:
		return p.forStmt()

	case TokenIf:
		// A statement-level if ends at its closing brace.
		x, err := p.ifExpr()
		if err != nil {
			return nil, err
		}

		return &ExprStmt{X: x}, nil

	case TokenLBrace:
		if !p.objectAhead() {
			return p.block()
		}

	case TokenAssign:
		p.next()
	}

	x, err := p.expr(bpLowest)
	if err != nil {
		return nil, err
	}

	return &ExprStmt{X: x}, nil
}

// objectAhead reports whether the '{' at the cursor opens an object literal
// rather than a block.
func (p *parser) objectAhead() bool {
	key := p.peekAt(1)

	switch {
	case key.Type == TokenRBrace:
		return true
	case key.Type == TokenIdent || key.Type == TokenString ||
		key.Type == TokenNumber || key.Type.IsKeyword():
		if p.peekAt(2).Type == TokenColon {
			return true
		}
	}

	if key.Type != TokenIdent || p.peekAt(2).Type != TokenLParen {
		return false
	}

	// method shorthand: name(params) {
	for i := 3; ; i++ {
		switch p.peekAt(i).Type {
		case TokenIdent, TokenComma:
		case TokenRParen:
			return p.peekAt(i+1).Type == TokenLBrace
		default:
			return false
		}
	}
}

func (p *parser) varStmt() (*VarStmt, error) {
	at := p.next().Pos

	name, err := p.expect(TokenIdent)
	if err != nil {
		return nil, err
	}

	stmt := &VarStmt{At: at, Name: name.Text}

	switch p.peek().Type {
	case TokenAssign:
		stmt.Op = VarAssign
	case TokenAssignDefault:
		stmt.Op = VarDefault
	case TokenAssignNullish:
		stmt.Op = VarNullish
	default:
		return stmt, nil
	}

	p.next()

	stmt.Value, err = p.expr(bpLowest)
	if err != nil {
		return nil, err
	}

	return stmt, nil
}

func (p *parser) funcDecl() (*FuncDecl, error) {
	at := p.peek().Pos

	fn, err := p.funcLit()
	if err != nil {
		return nil, err
	}

	return &FuncDecl{At: at, Func: fn}, nil
}

func (p *parser) forStmt() (*ForStmt, error) {
	at := p.next().Pos

	if _, err := p.expect(TokenLParen); err != nil {
		return nil, err
	}

	name, err := p.expect(TokenIdent)
	if err != nil {
		return nil, err
	}

	if _, err = p.expect(TokenColon); err != nil {
		return nil, err
	}

	stmt := &ForStmt{At: at, Var: name.Text}

	if stmt.Lo, err = p.expr(bpLowest); err != nil {
		return nil, err
	}

	if _, err = p.expect(TokenDotDot); err != nil {
		return nil, err
	}

	if stmt.Hi, err = p.expr(bpLowest); err != nil {
		return nil, err
	}

	if _, err = p.expect(TokenRParen); err != nil {
		return nil, err
	}

	if stmt.Body, err = p.block(); err != nil {
		return nil, err
	}

	return stmt, nil
}

func (p *parser) block() (*Block, error) {
	if err := p.nest(); err != nil {
		return nil, err
	}
	defer p.unnest()

	open, err := p.expect(TokenLBrace)
	if err != nil {
		return nil, err
	}

	body, err := p.statements(TokenRBrace)
	if err != nil {
		return nil, err
	}

	p.next()

	return &Block{At: open.Pos, Body: body}, nil
}

// funcLit parses `function [name] (params) { body }`.
func (p *parser) funcLit() (*FuncLit, error) {
	at := p.next().Pos
	fn := &FuncLit{At: at}

	if p.peek().Type == TokenIdent {
		fn.Name = p.next().Text
	}

	return p.funcRest(fn)
}

// funcRest parses the parameter list and body of fn.
func (p *parser) funcRest(fn *FuncLit) (*FuncLit, error) {
	if _, err := p.expect(TokenLParen); err != nil {
		return nil, err
	}

	for p.peek().Type != TokenRParen {
		name, err := p.expect(TokenIdent)
		if err != nil {
			return nil, err
		}

		fn.Params = append(fn.Params, name.Text)

		if !p.accept(TokenComma) {
			break
		}
	}

	if _, err := p.expect(TokenRParen); err != nil {
		return nil, err
	}

	body, err := p.block()
	if err != nil {
		return nil, err
	}

	fn.Body = body

	return fn, nil
}

func (p *parser) ifExpr() (*IfExpr, error) {
	at := p.next().Pos

	if _, err := p.expect(TokenLParen); err != nil {
		return nil, err
	}

	cond, err := p.expr(bpLowest)
	if err != nil {
		return nil, err
	}

	if _, err = p.expect(TokenRParen); err != nil {
		return nil, err
	}

	x := &IfExpr{At: at, Cond: cond}

	if x.Then, err = p.block(); err != nil {
		return nil, err
	}

	if !p.accept(TokenElse) {
		return x, nil
	}

	if p.peek().Type == TokenIf {
		nested, err := p.ifExpr()
		if err != nil {
			return nil, err
		}

		x.Else = &Block{At: nested.At, Body: []Stmt{&ExprStmt{X: nested}}}

		return x, nil
	}

	if x.Else, err = p.block(); err != nil {
		return nil, err
	}

	return x, nil
}

// expr is the Pratt loop: it parses a prefix operand and then folds infix
// and postfix operators whose binding power exceeds minBP.
func (p *parser) expr(minBP int) (Expr, error) {
	if err := p.nest(); err != nil {
		return nil, err
	}
	defer p.unnest()

	left, err := p.prefix()
	if err != nil {
		return nil, err
	}

	for {
		tok := p.peek()

		bp := infixPower(tok.Type)
		if bp <= minBP {
			return left, nil
		}

		// Calls and indexing never continue across a line break.
		if tok.Newline && (tok.Type == TokenLParen || tok.Type == TokenLBracket) {
			return left, nil
		}

		left, err = p.infix(left, tok, bp)
		if err != nil {
			return nil, err
		}
	}
}

func (p *parser) infix(left Expr, tok Token, bp int) (Expr, error) {
	p.next()

	switch tok.Type {
	case TokenAssign:
		switch left.(type) {
		case *Ident, *MemberExpr, *IndexExpr:
		default:
			return nil, ErrInvalidAssignment.At(tok.Pos)
		}

		value, err := p.expr(bpAssign - 1)
		if err != nil {
			return nil, err
		}

		return &AssignExpr{At: tok.Pos, Target: left, Value: value}, nil

	case TokenQuestion:
		then, err := p.expr(bpLowest)
		if err != nil {
			return nil, err
		}

		if _, err = p.expect(TokenColon); err != nil {
			return nil, err
		}

		els, err := p.expr(bpTernary - 1)
		if err != nil {
			return nil, err
		}

		return &CondExpr{At: tok.Pos, Cond: left, Then: then, Else: els}, nil

	case TokenLParen:
		switch left.(type) {
		case *NumberLit, *StringLit, *BoolLit, *NullLit, *UndefinedLit,
			*ArrayLit, *ObjectLit:
			return nil, ErrNotCallableSyntax.At(tok.Pos)
		}

		args, err := p.exprList(TokenRParen)
		if err != nil {
			return nil, err
		}

		return &CallExpr{At: tok.Pos, Callee: left, Args: args}, nil

	case TokenLBracket:
		index, err := p.expr(bpLowest)
		if err != nil {
			return nil, err
		}

		if _, err = p.expect(TokenRBracket); err != nil {
			return nil, err
		}

		return &IndexExpr{At: tok.Pos, X: left, Index: index}, nil

	case TokenDot:
		name, err := p.name()
		if err != nil {
			return nil, err
		}

		return &MemberExpr{At: tok.Pos, X: left, Name: name.Text}, nil

	case TokenInstanceof:
		name, err := p.expect(TokenIdent)
		if err != nil {
			return nil, err
		}

		return &InstanceofExpr{At: tok.Pos, X: left, Type: name.Text}, nil
	}

	right, err := p.expr(bp)
	if err != nil {
		return nil, err
	}

	return &BinaryExpr{At: tok.Pos, Op: tok.Type, L: left, R: right}, nil
}

// exprList parses comma-separated expressions up to and including end.
// A trailing comma is permitted.
func (p *parser) exprList(end TokenType) ([]Expr, error) {
	var list []Expr

	for p.peek().Type != end {
		x, err := p.expr(bpLowest)
		if err != nil {
			return nil, err
		}

		list = append(list, x)

		if !p.accept(TokenComma) {
			break
		}
	}

	if _, err := p.expect(end); err != nil {
		return nil, err
	}

	return list, nil
}

func (p *parser) prefix() (Expr, error) {
	tok := p.peek()

	switch tok.Type {
	case TokenNumber:
		p.next()

		return &NumberLit{At: tok.Pos, Raw: tok.Text, Value: tok.Num}, nil

	case TokenString:
		p.next()

		return &StringLit{At: tok.Pos, Value: tok.Text}, nil

	case TokenTrue, TokenFalse:
		p.next()

		return &BoolLit{At: tok.Pos, Value: tok.Type == TokenTrue}, nil

	case TokenNull:
		p.next()

		return &NullLit{At: tok.Pos}, nil

	case TokenUndefined:
		p.next()

		return &UndefinedLit{At: tok.Pos}, nil

	case TokenIdent:
		p.next()

		return &Ident{At: tok.Pos, Name: tok.Text}, nil

	case TokenThis:
		p.next()

		return &ThisExpr{At: tok.Pos}, nil

	case TokenLParen:
		p.next()

		x, err := p.expr(bpLowest)
		if err != nil {
			return nil, err
		}

		if _, err = p.expect(TokenRParen); err != nil {
			return nil, err
		}

		return x, nil

	case TokenLBracket:
		p.next()

		elems, err := p.exprList(TokenRBracket)
		if err != nil {
			return nil, err
		}

		return &ArrayLit{At: tok.Pos, Elems: elems}, nil

	case TokenLBrace:
		return p.objectLit()

	case TokenFunction:
		return p.funcLit()

	case TokenIf:
		return p.ifExpr()

	case TokenVar:
		p.next()

		if _, err := p.expect(TokenDot); err != nil {
			return nil, err
		}

		name, err := p.expect(TokenIdent)
		if err != nil {
			return nil, err
		}

		return &DefinedExpr{At: tok.Pos, Name: name.Text}, nil

	case TokenVoid:
		p.next()

		if !startsOperand(p.peek()) {
			return &UndefinedLit{At: tok.Pos, Void: true}, nil
		}

		x, err := p.expr(bpPrefix)
		if err != nil {
			return nil, err
		}

		return &UnaryExpr{At: tok.Pos, Op: tok.Type, X: x}, nil

	case TokenMinus, TokenNot, TokenTilde:
		p.next()

		x, err := p.expr(bpPrefix)
		if err != nil {
			return nil, err
		}

		return &UnaryExpr{At: tok.Pos, Op: tok.Type, X: x}, nil

	case TokenThrow:
		p.next()

		x, err := p.expr(bpLowest)
		if err != nil {
			return nil, err
		}

		return &ThrowExpr{At: tok.Pos, X: x}, nil

	case TokenNew:
		p.next()

		x, err := p.expr(bpPrefix)
		if err != nil {
			return nil, err
		}

		switch x.(type) {
		case *ArrayLit, *ObjectLit, *CallExpr:
		default:
			return nil, unexpected(p.prev(), "array, object, or call after new")
		}

		return &NewExpr{At: tok.Pos, X: x}, nil
	}

	return nil, unexpected(tok, "expression")
}

// startsOperand reports whether tok can begin the operand of a prefix
// operator on the same line.
func startsOperand(tok Token) bool {
	if tok.Newline {
		return false
	}

	switch tok.Type {
	case TokenEOF, TokenSemicolon, TokenColon, TokenComma,
		TokenRParen, TokenRBracket, TokenRBrace:
		return false
	}

	return true
}

func (p *parser) objectLit() (*ObjectLit, error) {
	open := p.next()
	obj := &ObjectLit{At: open.Pos}

	for p.peek().Type != TokenRBrace {
		key := p.peek()

		switch {
		case key.Type == TokenIdent || key.Type == TokenString ||
			key.Type.IsKeyword():
			p.next()

		case key.Type == TokenNumber:
			p.next()

			key.Text = formatNumber(key.Num)

		default:
			return nil, unexpected(key, "property name")
		}

		var (
			value Expr
			err   error
		)

		if key.Type == TokenIdent && p.peek().Type == TokenLParen {
			value, err = p.funcRest(&FuncLit{At: key.Pos, Name: key.Text})
		} else {
			if _, err = p.expect(TokenColon); err != nil {
				return nil, err
			}

			value, err = p.expr(bpLowest)
		}

		if err != nil {
			return nil, err
		}

		obj.Props = append(obj.Props, Property{Key: key.Text, Value: value})

		if !p.accept(TokenComma) {
			break
		}
	}

	if _, err := p.expect(TokenRBrace); err != nil {
		return nil, err
	}

	return obj, nil
}

// IsIncomplete reports whether err was caused by input ending before a
// construct was closed. The REPL uses it to request continuation lines.
func IsIncomplete(err error) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}

	if errors.Is(e, ErrUnterminatedComment) {
		return true
	}

	if !errors.Is(e, ErrUnexpectedToken) {
		return false
	}

	for _, a := range e.attrs {
		if a.Key == "found" && a.Value.String() == TokenEOF.String() {
			return true
		}
	}

	return false
}
