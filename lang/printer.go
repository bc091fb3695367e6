package lang

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Format writes p as canonical ESP source, one statement per line, with
// nested blocks indented by indent spaces (or a tab when indent is zero).
// The output parses back to an equivalent program.
func (p *Program) Format(w io.Writer, indent int) error {
	pr := &printer{unit: "\t"}
	if indent > 0 {
		pr.unit = strings.Repeat(" ", indent)
	}

	for _, s := range p.Body {
		pr.stmt(s)
		pr.b.WriteByte('\n')
	}

	_, err := io.WriteString(w, pr.b.String())

	return err
}

// FormatString returns the canonical source of p.
func (p *Program) FormatString() string {
	var b strings.Builder

	_ = p.Format(&b, 2)

	return b.String()
}

type printer struct {
	b     strings.Builder
	unit  string
	depth int
}

func (pr *printer) newline() {
	pr.b.WriteByte('\n')
	pr.b.WriteString(strings.Repeat(pr.unit, pr.depth))
}

func (pr *printer) stmt(s Stmt) {
	switch s := s.(type) {
	case *VarStmt:
		pr.b.WriteString("var ")
		pr.b.WriteString(s.Name)

		if s.Value != nil {
			pr.b.WriteString(" " + s.Op.String() + " ")
			pr.expr(s.Value, bpLowest)
		}

	case *FuncDecl:
		pr.function(s.Func, true)

	case *ForStmt:
		pr.b.WriteString("for (" + s.Var + ": ")
		pr.expr(s.Lo, bpLowest)
		pr.b.WriteString(" .. ")
		pr.expr(s.Hi, bpLowest)
		pr.b.WriteString(") ")
		pr.block(s.Body)

	case *Block:
		pr.block(s)

	case *ExprStmt:
		if ambiguousStart(s.X) {
			pr.b.WriteByte('(')
			pr.expr(s.X, bpLowest)
			pr.b.WriteByte(')')

			return
		}

		pr.expr(s.X, bpLowest)
	}
}

// ambiguousStart reports whether the statement x would reparse differently
// without enclosing parentheses: a leading named function is a declaration,
// a leading if ends at its brace, and a leading minus continues the
// previous line.
func ambiguousStart(x Expr) bool {
	first := x

	for {
		switch n := first.(type) {
		case *BinaryExpr:
			first = n.L
		case *CondExpr:
			first = n.Cond
		case *AssignExpr:
			first = n.Target
		case *CallExpr:
			first = n.Callee
		case *MemberExpr:
			first = n.X
		case *IndexExpr:
			first = n.X
		case *InstanceofExpr:
			first = n.X
		case *FuncLit:
			return n.Name != ""
		case *IfExpr:
			return n != x
		case *UnaryExpr:
			return n.Op == TokenMinus
		default:
			return false
		}
	}
}

func (pr *printer) block(b *Block) {
	if len(b.Body) == 0 {
		pr.b.WriteString("{}")

		return
	}

	pr.b.WriteByte('{')
	pr.depth++

	for _, s := range b.Body {
		pr.newline()
		pr.stmt(s)
	}

	pr.depth--
	pr.newline()
	pr.b.WriteByte('}')
}

func (pr *printer) function(fn *FuncLit, keyword bool) {
	if keyword {
		pr.b.WriteString("function")

		if fn.Name != "" {
			pr.b.WriteByte(' ')
		}
	}

	pr.b.WriteString(fn.Name)
	pr.b.WriteString("(" + strings.Join(fn.Params, ", ") + ") ")
	pr.block(fn.Body)
}

// precedence returns the binding power at which x must be parsed; operands
// binding more loosely than their context require parentheses.
func precedence(x Expr) int {
	switch x := x.(type) {
	case *AssignExpr, *ThrowExpr:
		return bpAssign
	case *CondExpr:
		return bpTernary
	case *BinaryExpr:
		return infixPower(x.Op)
	case *InstanceofExpr:
		return bpRelational
	case *UnaryExpr, *NewExpr:
		return bpPrefix
	case *IfExpr:
		return bpLowest
	case *UndefinedLit:
		// A bare void is only a primary before a closing token.
		if x.Void {
			return bpTernary
		}
	}

	return bpPostfix
}

//nolint:gocyclo,cyclop // one case per expression node
func (pr *printer) expr(x Expr, need int) {
	if precedence(x) < need {
		pr.b.WriteByte('(')
		defer pr.b.WriteByte(')')
	}

	switch x := x.(type) {
	case *NumberLit:
		if x.Raw != "" {
			pr.b.WriteString(x.Raw)
		} else {
			pr.b.WriteString(formatNumber(x.Value))
		}

	case *StringLit:
		pr.b.WriteString(quote(x.Value))

	case *BoolLit:
		pr.b.WriteString(strconv.FormatBool(x.Value))

	case *NullLit:
		pr.b.WriteString("null")

	case *UndefinedLit:
		if x.Void {
			pr.b.WriteString("void")
		} else {
			pr.b.WriteString("undefined")
		}

	case *Ident:
		pr.b.WriteString(x.Name)

	case *ThisExpr:
		pr.b.WriteString("this")

	case *ArrayLit:
		pr.b.WriteByte('[')

		for i, e := range x.Elems {
			if i > 0 {
				pr.b.WriteString(", ")
			}

			pr.expr(e, bpAssign)
		}

		pr.b.WriteByte(']')

	case *ObjectLit:
		pr.b.WriteByte('{')

		for i, p := range x.Props {
			if i > 0 {
				pr.b.WriteString(", ")
			}

			if fn, ok := p.Value.(*FuncLit); ok && fn.Name == p.Key && propertyName(p.Key) == p.Key {
				pr.function(fn, false)

				continue
			}

			pr.b.WriteString(propertyName(p.Key))
			pr.b.WriteString(": ")
			pr.expr(p.Value, bpAssign)
		}

		pr.b.WriteByte('}')

	case *FuncLit:
		pr.function(x, true)

	case *IfExpr:
		pr.b.WriteString("if (")
		pr.expr(x.Cond, bpLowest)
		pr.b.WriteString(") ")
		pr.block(x.Then)

		if x.Else != nil {
			pr.b.WriteString(" else ")
			pr.block(x.Else)
		}

	case *UnaryExpr:
		pr.b.WriteString(x.Op.String())

		if x.Op == TokenVoid {
			pr.b.WriteByte(' ')
		}

		// Keep "- -x" from lexing differently.
		if u, ok := x.X.(*UnaryExpr); ok && u.Op == TokenMinus && x.Op == TokenMinus {
			pr.b.WriteByte(' ')
		}

		pr.expr(x.X, bpPrefix)

	case *BinaryExpr:
		bp := infixPower(x.Op)
		pr.expr(x.L, bp)
		pr.b.WriteString(" " + x.Op.String() + " ")
		pr.expr(x.R, bp+1)

	case *InstanceofExpr:
		pr.expr(x.X, bpRelational)
		pr.b.WriteString(" instanceof " + x.Type)

	case *CondExpr:
		pr.expr(x.Cond, bpTernary+1)
		pr.b.WriteString(" ? ")
		pr.expr(x.Then, bpLowest)
		pr.b.WriteString(" : ")
		pr.expr(x.Else, bpTernary)

	case *AssignExpr:
		pr.expr(x.Target, bpPostfix)
		pr.b.WriteString(" = ")
		pr.expr(x.Value, bpAssign)

	case *CallExpr:
		pr.expr(x.Callee, bpPostfix)
		pr.b.WriteByte('(')

		for i, a := range x.Args {
			if i > 0 {
				pr.b.WriteString(", ")
			}

			pr.expr(a, bpAssign)
		}

		pr.b.WriteByte(')')

	case *MemberExpr:
		pr.expr(x.X, bpPostfix)
		pr.b.WriteString("." + x.Name)

	case *IndexExpr:
		pr.expr(x.X, bpPostfix)
		pr.b.WriteByte('[')
		pr.expr(x.Index, bpLowest)
		pr.b.WriteByte(']')

	case *DefinedExpr:
		pr.b.WriteString("var." + x.Name)

	case *ThrowExpr:
		pr.b.WriteString("throw ")
		pr.expr(x.X, bpAssign)

	case *NewExpr:
		pr.b.WriteString("new ")
		pr.expr(x.X, bpPostfix)
	}
}

// Print writes an indented tree of p's syntax nodes with their positions.
func (p *Program) Print(w io.Writer) error {
	var b strings.Builder

	b.WriteString("Program\n")

	for _, s := range p.Body {
		printNode(&b, s, 1)
	}

	_, err := io.WriteString(w, b.String())

	return err
}

//nolint:gocyclo,cyclop // one case per node
func printNode(b *strings.Builder, n Node, depth int) {
	line := func(format string, args ...any) {
		b.WriteString(strings.Repeat("  ", depth))
		fmt.Fprintf(b, format, args...)
		fmt.Fprintf(b, " @%s\n", n.Pos())
	}

	child := func(ns ...Node) {
		for _, c := range ns {
			if c != nil {
				printNode(b, c, depth+1)
			}
		}
	}

	switch n := n.(type) {
	case *VarStmt:
		line("Var %s %s", n.Name, n.Op)

		if n.Value != nil {
			child(n.Value)
		}

	case *FuncDecl:
		line("FuncDecl %s(%s)", n.Func.Name, strings.Join(n.Func.Params, ", "))
		child(n.Func.Body)

	case *ForStmt:
		line("For %s", n.Var)
		child(n.Lo, n.Hi, n.Body)

	case *ExprStmt:
		printNode(b, n.X, depth)

	case *Block:
		line("Block")

		for _, s := range n.Body {
			child(s)
		}

	case *NumberLit:
		line("Number %s", formatNumber(n.Value))

	case *StringLit:
		line("String %s", quote(n.Value))

	case *BoolLit:
		line("Boolean %t", n.Value)

	case *NullLit:
		line("Null")

	case *UndefinedLit:
		line("Undefined")

	case *Ident:
		line("Ident %s", n.Name)

	case *ThisExpr:
		line("This")

	case *ArrayLit:
		line("Array [%d]", len(n.Elems))

		for _, e := range n.Elems {
			child(e)
		}

	case *ObjectLit:
		line("Object {%d}", len(n.Props))

		for _, p := range n.Props {
			b.WriteString(strings.Repeat("  ", depth+1))
			b.WriteString("Key " + propertyName(p.Key) + "\n")
			printNode(b, p.Value, depth+2)
		}

	case *FuncLit:
		line("Function %s(%s)", n.Name, strings.Join(n.Params, ", "))
		child(n.Body)

	case *IfExpr:
		line("If")
		child(n.Cond, n.Then)

		if n.Else != nil {
			child(n.Else)
		}

	case *UnaryExpr:
		line("Unary %s", n.Op)
		child(n.X)

	case *BinaryExpr:
		line("Binary %s", n.Op)
		child(n.L, n.R)

	case *CondExpr:
		line("Conditional")
		child(n.Cond, n.Then, n.Else)

	case *AssignExpr:
		line("Assign")
		child(n.Target, n.Value)

	case *CallExpr:
		line("Call [%d]", len(n.Args))
		child(n.Callee)

		for _, a := range n.Args {
			child(a)
		}

	case *MemberExpr:
		line("Member .%s", n.Name)
		child(n.X)

	case *IndexExpr:
		line("Index")
		child(n.X, n.Index)

	case *DefinedExpr:
		line("Defined %s", n.Name)

	case *ThrowExpr:
		line("Throw")
		child(n.X)

	case *NewExpr:
		line("New")
		child(n.X)

	case *InstanceofExpr:
		line("Instanceof %s", n.Type)
		child(n.X)
	}
}
