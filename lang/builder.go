package lang

// Builder provides a programmatic API for constructing syntax trees without
// parsing source text. This is useful for generating formatted ESP files
// programmatically or for testing.
//
// Example:
//
//	b := lang.NewBuilder()
//	prog := b.Program(
//	    b.Var("config", b.Object(
//	        b.Prop("level", b.String("info")),
//	    )),
//	)
type Builder struct{}

// NewBuilder creates a new syntax tree builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Program creates a [Program] whose source is the canonical formatting of
// body.
func (b *Builder) Program(body ...Stmt) *Program {
	p := &Program{Body: body}
	p.Source = p.FormatString()

	return p
}

// Var creates a `var name = value` statement.
func (b *Builder) Var(name string, value Expr) *VarStmt {
	return &VarStmt{Name: name, Value: value, Op: VarAssign}
}

// VarDefault creates a `var name ?= value` statement.
func (b *Builder) VarDefault(name string, value Expr) *VarStmt {
	return &VarStmt{Name: name, Value: value, Op: VarDefault}
}

// Expr wraps x as a statement.
func (b *Builder) Expr(x Expr) *ExprStmt {
	return &ExprStmt{X: x}
}

// Function creates a named function declaration.
func (b *Builder) Function(name string, params []string, body ...Stmt) *FuncDecl {
	return &FuncDecl{Func: &FuncLit{
		Name:   name,
		Params: params,
		Body:   &Block{Body: body},
	}}
}

// Object creates an object literal.
func (b *Builder) Object(props ...Property) *ObjectLit {
	return &ObjectLit{Props: props}
}

// Prop creates an object literal property.
func (b *Builder) Prop(key string, value Expr) Property {
	return Property{Key: key, Value: value}
}

// Array creates an array literal.
func (b *Builder) Array(elems ...Expr) *ArrayLit {
	return &ArrayLit{Elems: elems}
}

// Ident creates an identifier reference.
func (b *Builder) Ident(name string) *Ident {
	return &Ident{Name: name}
}

// String creates a string literal.
func (b *Builder) String(s string) *StringLit {
	return &StringLit{Value: s}
}

// Number creates a number literal.
func (b *Builder) Number(n float64) *NumberLit {
	return &NumberLit{Value: n}
}

// Bool creates a boolean literal.
func (b *Builder) Bool(v bool) *BoolLit {
	return &BoolLit{Value: v}
}

// Call creates a call expression.
func (b *Builder) Call(callee Expr, args ...Expr) *CallExpr {
	return &CallExpr{Callee: callee, Args: args}
}

// Literal converts a Value into an equivalent literal expression. Functions
// and cyclic references are not representable and yield Undefined.
func (b *Builder) Literal(v Value) Expr {
	return b.literal(v, map[Value]struct{}{})
}

func (b *Builder) literal(v Value, seen map[Value]struct{}) Expr {
	switch v := v.(type) {
	case Number:
		if v < 0 {
			return &UnaryExpr{Op: TokenMinus, X: b.Number(float64(-v))}
		}

		return b.Number(float64(v))
	case String:
		return b.String(string(v))
	case Boolean:
		return b.Bool(bool(v))
	case nullValue:
		return &NullLit{}
	case *Array:
		if _, ok := seen[v]; ok {
			return &UndefinedLit{}
		}

		seen[v] = struct{}{}
		defer delete(seen, v)

		arr := b.Array()
		for _, e := range v.elems {
			arr.Elems = append(arr.Elems, b.literal(e, seen))
		}

		return arr
	case *Object:
		if _, ok := seen[v]; ok {
			return &UndefinedLit{}
		}

		seen[v] = struct{}{}
		defer delete(seen, v)

		obj := b.Object()
		for _, k := range v.keys {
			obj.Props = append(obj.Props, b.Prop(k, b.literal(v.props[k], seen)))
		}

		return obj
	}

	return &UndefinedLit{}
}
