package lang

// Node is implemented by every syntax tree element.
type Node interface {
	Pos() Position
}

// Stmt is a statement node.
type Stmt interface {
	Node
	stmtNode()
}

// Expr is an expression node.
type Expr interface {
	Node
	exprNode()
}

// Program is the parsed form of one source text: a sequence of statements
// evaluated in order. Programs are immutable once parsed and may be shared.
type Program struct {
	Source string
	Body   []Stmt
}

// Pos returns the position of the first statement.
func (p *Program) Pos() Position {
	if len(p.Body) == 0 {
		return Position{Line: 1, Column: 1}
	}

	return p.Body[0].Pos()
}

// VarOp selects how a var statement binds its name.
type VarOp int

const (
	VarAssign  VarOp = iota // =
	VarDefault              // ?=
	VarNullish              // ??=
)

// String returns the operator spelling.
func (op VarOp) String() string {
	switch op {
	case VarDefault:
		return "?="
	case VarNullish:
		return "??="
	default:
		return "="
	}
}

type (
	// VarStmt declares Name in the current function-local frame.
	VarStmt struct {
		Value Expr
		Name  string
		At    Position
		Op    VarOp
	}

	// FuncDecl binds a named function in the current function-local frame.
	FuncDecl struct {
		Func *FuncLit
		At   Position
	}

	// ForStmt iterates Var over the half-open range [Lo, Hi).
	ForStmt struct {
		Lo   Expr
		Hi   Expr
		Body *Block
		Var  string
		At   Position
	}

	// ExprStmt evaluates an expression. Its value becomes the result of the
	// enclosing block or program.
	ExprStmt struct {
		X Expr
	}

	// Block is a braced statement list. Its value is the value of the last
	// expression statement evaluated.
	Block struct {
		Body []Stmt
		At   Position
	}
)

func (s *VarStmt) Pos() Position  { return s.At }
func (s *FuncDecl) Pos() Position { return s.At }
func (s *ForStmt) Pos() Position  { return s.At }
func (s *ExprStmt) Pos() Position { return s.X.Pos() }
func (s *Block) Pos() Position    { return s.At }

func (*VarStmt) stmtNode()  {}
func (*FuncDecl) stmtNode() {}
func (*ForStmt) stmtNode()  {}
func (*ExprStmt) stmtNode() {}
func (*Block) stmtNode()    {}

type (
	NumberLit struct {
		Raw   string
		At    Position
		Value float64
	}

	StringLit struct {
		Value string
		At    Position
	}

	BoolLit struct {
		At    Position
		Value bool
	}

	NullLit struct {
		At Position
	}

	// UndefinedLit is `undefined`, or a bare `void` when Void is set.
	UndefinedLit struct {
		At   Position
		Void bool
	}

	Ident struct {
		Name string
		At   Position
	}

	ThisExpr struct {
		At Position
	}

	ArrayLit struct {
		Elems []Expr
		At    Position
	}

	// Property is a single key/value pair of an object literal.
	Property struct {
		Value Expr
		Key   string
	}

	ObjectLit struct {
		Props []Property
		At    Position
	}

	// FuncLit is a function literal, declaration body, or object method.
	FuncLit struct {
		Body   *Block
		Name   string
		Params []string
		At     Position
	}

	// IfExpr yields the value of the taken branch, or Undefined.
	IfExpr struct {
		Cond Expr
		Then *Block
		Else *Block
		At   Position
	}

	UnaryExpr struct {
		X  Expr
		At Position
		Op TokenType
	}

	BinaryExpr struct {
		L  Expr
		R  Expr
		At Position
		Op TokenType
	}

	CondExpr struct {
		Cond Expr
		Then Expr
		Else Expr
		At   Position
	}

	AssignExpr struct {
		Target Expr
		Value  Expr
		At     Position
	}

	CallExpr struct {
		Callee Expr
		Args   []Expr
		At     Position
	}

	MemberExpr struct {
		X    Expr
		Name string
		At   Position
	}

	IndexExpr struct {
		X     Expr
		Index Expr
		At    Position
	}

	// DefinedExpr is `var.name`: whether name is bound in any visible frame.
	DefinedExpr struct {
		Name string
		At   Position
	}

	// ThrowExpr raises its operand as a runtime error.
	ThrowExpr struct {
		X  Expr
		At Position
	}

	// NewExpr wraps an array literal, object literal, or call.
	NewExpr struct {
		X  Expr
		At Position
	}

	// InstanceofExpr tests the dynamic type of X against a type name.
	InstanceofExpr struct {
		X    Expr
		Type string
		At   Position
	}
)

func (e *NumberLit) Pos() Position      { return e.At }
func (e *StringLit) Pos() Position      { return e.At }
func (e *BoolLit) Pos() Position        { return e.At }
func (e *NullLit) Pos() Position        { return e.At }
func (e *UndefinedLit) Pos() Position   { return e.At }
func (e *Ident) Pos() Position          { return e.At }
func (e *ThisExpr) Pos() Position       { return e.At }
func (e *ArrayLit) Pos() Position       { return e.At }
func (e *ObjectLit) Pos() Position      { return e.At }
func (e *FuncLit) Pos() Position        { return e.At }
func (e *IfExpr) Pos() Position         { return e.At }
func (e *UnaryExpr) Pos() Position      { return e.At }
func (e *BinaryExpr) Pos() Position     { return e.At }
func (e *CondExpr) Pos() Position       { return e.At }
func (e *AssignExpr) Pos() Position     { return e.At }
func (e *CallExpr) Pos() Position       { return e.At }
func (e *MemberExpr) Pos() Position     { return e.At }
func (e *IndexExpr) Pos() Position      { return e.At }
func (e *DefinedExpr) Pos() Position    { return e.At }
func (e *ThrowExpr) Pos() Position      { return e.At }
func (e *NewExpr) Pos() Position        { return e.At }
func (e *InstanceofExpr) Pos() Position { return e.At }

func (*NumberLit) exprNode()      {}
func (*StringLit) exprNode()      {}
func (*BoolLit) exprNode()        {}
func (*NullLit) exprNode()        {}
func (*UndefinedLit) exprNode()   {}
func (*Ident) exprNode()          {}
func (*ThisExpr) exprNode()       {}
func (*ArrayLit) exprNode()       {}
func (*ObjectLit) exprNode()      {}
func (*FuncLit) exprNode()        {}
func (*IfExpr) exprNode()         {}
func (*UnaryExpr) exprNode()      {}
func (*BinaryExpr) exprNode()     {}
func (*CondExpr) exprNode()       {}
func (*AssignExpr) exprNode()     {}
func (*CallExpr) exprNode()       {}
func (*MemberExpr) exprNode()     {}
func (*IndexExpr) exprNode()      {}
func (*DefinedExpr) exprNode()    {}
func (*ThrowExpr) exprNode()      {}
func (*NewExpr) exprNode()        {}
func (*InstanceofExpr) exprNode() {}
