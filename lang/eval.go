package lang

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"strconv"
)

// maxArrayIndex bounds implicit array growth on indexed assignment.
const maxArrayIndex = 1 << 24

// ErrArrayTooLarge reports an indexed assignment that would grow an array
// beyond maxArrayIndex elements.
var ErrArrayTooLarge = NewError(KindResource, "array index exceeds limit")

// thrown carries the operand of a throw expression.
type thrown struct{ value Value }

func (t thrown) Error() string { return t.value.String() }

// ThrownValue returns the value raised by a script's throw expression.
func ThrownValue(err error) (Value, bool) {
	var t thrown
	if errors.As(err, &t) {
		return t.value, true
	}

	return nil, false
}

// evaluator walks syntax trees on behalf of an [Interpreter].
type evaluator struct {
	ctx context.Context
	it  *Interpreter
}

// statements evaluates body in env and returns the value of the last
// expression statement (or block) evaluated.
func (ev *evaluator) statements(body []Stmt, env *Env) (Value, error) {
	result := Undefined

	for _, s := range body {
		switch s := s.(type) {
		case *ExprStmt:
			v, err := ev.eval(s.X, env)
			if err != nil {
				return nil, err
			}

			result = v

		case *Block:
			v, err := ev.statements(s.Body, env)
			if err != nil {
				return nil, err
			}

			result = v

		case *VarStmt:
			if err := ev.declare(s, env); err != nil {
				return nil, err
			}

		case *FuncDecl:
			env.scope().Define(s.Func.Name, ev.closure(s.Func, env))

		case *ForStmt:
			if err := ev.loop(s, env); err != nil {
				return nil, err
			}
		}
	}

	return result, nil
}

func (ev *evaluator) declare(s *VarStmt, env *Env) error {
	scope := env.scope()
	prev, exists := scope.Local(s.Name)

	switch {
	case s.Op == VarDefault && exists:
		return nil
	case s.Op == VarNullish && exists && !IsNullish(prev):
		return nil
	case s.Value == nil:
		if !exists {
			scope.Define(s.Name, Undefined)
		}

		return nil
	}

	v, err := ev.eval(s.Value, env)
	if err != nil {
		return err
	}

	if fn, ok := v.(*Function); ok && fn.name == "" && fn.native == nil {
		fn.name = s.Name
	}

	scope.Define(s.Name, v)

	return nil
}

func (ev *evaluator) loop(s *ForStmt, env *Env) error {
	lo, err := ev.number(s.Lo, env)
	if err != nil {
		return err
	}

	hi, err := ev.number(s.Hi, env)
	if err != nil {
		return err
	}

	for i := lo; i < hi; i++ {
		if err := ev.ctx.Err(); err != nil {
			return ErrInterrupted.At(s.At).Wrap(err)
		}

		// Each iteration gets its own frame so closures capture its index.
		frame := newEnv(env, false)
		frame.Define(s.Var, Number(i))

		if _, err := ev.statements(s.Body.Body, frame); err != nil {
			return err
		}
	}

	return nil
}

func (ev *evaluator) number(x Expr, env *Env) (float64, error) {
	v, err := ev.eval(x, env)
	if err != nil {
		return 0, err
	}

	n, ok := v.(Number)
	if !ok {
		return 0, ErrTypeMismatch.At(x.Pos()).
			With(slog.String("expected", TypeNumber.String()),
				slog.String("found", v.Type().String()))
	}

	return float64(n), nil
}

func (ev *evaluator) condition(x Expr, env *Env) (bool, error) {
	v, err := ev.eval(x, env)
	if err != nil {
		return false, err
	}

	b, ok := v.(Boolean)
	if !ok {
		return false, ErrNotBoolean.At(x.Pos()).
			With(slog.String("found", v.Type().String()))
	}

	return bool(b), nil
}

func (ev *evaluator) closure(fn *FuncLit, env *Env) *Function {
	return &Function{
		name:   fn.Name,
		params: fn.Params,
		body:   fn.Body,
		env:    env,
		owner:  ev.it,
	}
}

//nolint:gocyclo,cyclop // one case per expression node
func (ev *evaluator) eval(x Expr, env *Env) (Value, error) {
	switch x := x.(type) {
	case *NumberLit:
		return Number(x.Value), nil

	case *StringLit:
		return String(x.Value), nil

	case *BoolLit:
		return Boolean(x.Value), nil

	case *NullLit:
		return Null, nil

	case *UndefinedLit:
		return Undefined, nil

	case *Ident:
		v, ok := env.Lookup(x.Name)
		if !ok {
			return nil, ErrUndefinedVariable.At(x.At).With(slog.String("name", x.Name))
		}

		return v, nil

	case *ThisExpr:
		if v, ok := env.Lookup("this"); ok {
			return v, nil
		}

		return Undefined, nil

	case *ArrayLit:
		arr := NewArray()

		for _, e := range x.Elems {
			v, err := ev.eval(e, env)
			if err != nil {
				return nil, err
			}

			arr.Add(v)
		}

		return arr, nil

	case *ObjectLit:
		obj := NewObject()

		for _, p := range x.Props {
			v, err := ev.eval(p.Value, env)
			if err != nil {
				return nil, err
			}

			obj.Set(p.Key, v)
		}

		return obj, nil

	case *FuncLit:
		return ev.closure(x, env), nil

	case *IfExpr:
		ok, err := ev.condition(x.Cond, env)
		if err != nil {
			return nil, err
		}

		switch {
		case ok:
			return ev.statements(x.Then.Body, env)
		case x.Else != nil:
			return ev.statements(x.Else.Body, env)
		default:
			return Undefined, nil
		}

	case *UnaryExpr:
		return ev.unary(x, env)

	case *BinaryExpr:
		return ev.binary(x, env)

	case *CondExpr:
		ok, err := ev.condition(x.Cond, env)
		if err != nil {
			return nil, err
		}

		if ok {
			return ev.eval(x.Then, env)
		}

		return ev.eval(x.Else, env)

	case *AssignExpr:
		return ev.assign(x, env)

	case *CallExpr:
		return ev.call(x, env)

	case *MemberExpr:
		recv, err := ev.eval(x.X, env)
		if err != nil {
			return nil, err
		}

		v, err := member(recv, x.Name)
		if err != nil {
			return nil, errorAt(err, x.At)
		}

		return v, nil

	case *IndexExpr:
		recv, err := ev.eval(x.X, env)
		if err != nil {
			return nil, err
		}

		idx, err := ev.eval(x.Index, env)
		if err != nil {
			return nil, err
		}

		v, err := index(recv, idx)
		if err != nil {
			return nil, errorAt(err, x.At)
		}

		return v, nil

	case *DefinedExpr:
		_, ok := env.Lookup(x.Name)

		return Boolean(ok), nil

	case *ThrowExpr:
		v, err := ev.eval(x.X, env)
		if err != nil {
			return nil, err
		}

		return nil, ErrThrown.At(x.At).Wrap(thrown{value: v})

	case *NewExpr:
		return ev.eval(x.X, env)

	case *InstanceofExpr:
		v, err := ev.eval(x.X, env)
		if err != nil {
			return nil, err
		}

		t, ok := ParseType(x.Type)
		if !ok {
			return nil, ErrUnknownType.At(x.At).With(slog.String("name", x.Type))
		}

		return Boolean(v.Type() == t), nil
	}

	return nil, ErrUnexpectedToken.At(x.Pos())
}

func (ev *evaluator) unary(x *UnaryExpr, env *Env) (Value, error) {
	if x.Op == TokenNot {
		ok, err := ev.condition(x.X, env)
		if err != nil {
			return nil, err
		}

		return Boolean(!ok), nil
	}

	v, err := ev.eval(x.X, env)
	if err != nil {
		return nil, err
	}

	switch x.Op {
	case TokenVoid:
		return Undefined, nil

	case TokenMinus:
		if n, ok := v.(Number); ok {
			return -n, nil
		}

	case TokenTilde:
		if n, ok := v.(Number); ok {
			return Number(^toInt32(float64(n))), nil
		}
	}

	return nil, invalidOperand(x.Op, v).At(x.At)
}

func (ev *evaluator) binary(x *BinaryExpr, env *Env) (Value, error) {
	if x.Op == TokenAndAnd || x.Op == TokenOrOr {
		l, err := ev.condition(x.L, env)
		if err != nil {
			return nil, err
		}

		if (x.Op == TokenAndAnd) != l {
			return Boolean(l), nil
		}

		r, err := ev.condition(x.R, env)
		if err != nil {
			return nil, err
		}

		return Boolean(r), nil
	}

	l, err := ev.eval(x.L, env)
	if err != nil {
		return nil, err
	}

	r, err := ev.eval(x.R, env)
	if err != nil {
		return nil, err
	}

	v, err := binaryOp(x.Op, l, r)
	if err != nil {
		return nil, errorAt(err, x.At)
	}

	return v, nil
}

func (ev *evaluator) assign(x *AssignExpr, env *Env) (Value, error) {
	switch t := x.Target.(type) {
	case *Ident:
		v, err := ev.eval(x.Value, env)
		if err != nil {
			return nil, err
		}

		if !env.Assign(t.Name, v) {
			return nil, ErrUndeclaredAssignment.At(t.At).With(slog.String("name", t.Name))
		}

		return v, nil

	case *MemberExpr:
		recv, err := ev.eval(t.X, env)
		if err != nil {
			return nil, err
		}

		v, err := ev.eval(x.Value, env)
		if err != nil {
			return nil, err
		}

		obj, ok := recv.(*Object)
		if !ok {
			return nil, ErrInvalidOperand.At(t.At).
				With(slog.String("member", t.Name),
					slog.String("receiver", recv.Type().String()))
		}

		if fn, ok := v.(*Function); ok && fn.name == "" && fn.native == nil {
			fn.name = t.Name
		}

		obj.Set(t.Name, v)

		return v, nil

	case *IndexExpr:
		recv, err := ev.eval(t.X, env)
		if err != nil {
			return nil, err
		}

		idx, err := ev.eval(t.Index, env)
		if err != nil {
			return nil, err
		}

		v, err := ev.eval(x.Value, env)
		if err != nil {
			return nil, err
		}

		if err := setIndex(recv, idx, v); err != nil {
			return nil, errorAt(err, t.At)
		}

		return v, nil
	}

	return nil, ErrInvalidAssignment.At(x.At)
}

func (ev *evaluator) call(x *CallExpr, env *Env) (Value, error) {
	var (
		callee Value
		this   = Undefined
		err    error
	)

	switch c := x.Callee.(type) {
	case *MemberExpr:
		if this, err = ev.eval(c.X, env); err != nil {
			return nil, err
		}

		if callee, err = member(this, c.Name); err != nil {
			return nil, errorAt(err, c.At)
		}

	case *IndexExpr:
		if this, err = ev.eval(c.X, env); err != nil {
			return nil, err
		}

		idx, err := ev.eval(c.Index, env)
		if err != nil {
			return nil, err
		}

		if callee, err = index(this, idx); err != nil {
			return nil, errorAt(err, c.At)
		}

	default:
		if callee, err = ev.eval(c, env); err != nil {
			return nil, err
		}
	}

	fn, ok := callee.(*Function)
	if !ok {
		return nil, ErrNotCallable.At(x.At).
			With(slog.String("type", callee.Type().String()))
	}

	args := make([]Value, len(x.Args))
	for i, a := range x.Args {
		if args[i], err = ev.eval(a, env); err != nil {
			return nil, err
		}
	}

	var v Value
	if fn.native != nil {
		v, err = fn.callNative(ev.ctx, this, args)
	} else {
		v, err = ev.it.invoke(ev.ctx, fn, this, args)
	}

	if err != nil {
		return nil, errorAt(err, x.At)
	}

	return v, nil
}

// invoke runs closure fn in a fresh function frame parented at its defining
// environment. Missing arguments are Undefined; extras are ignored.
func (it *Interpreter) invoke(ctx context.Context, fn *Function, this Value, args []Value) (Value, error) {
	if err := ctx.Err(); err != nil {
		return nil, ErrInterrupted.Wrap(err)
	}

	if it.depth >= it.maxDepth {
		return nil, ErrMaxDepthExceeded.With(
			slog.Int("max_depth", it.maxDepth), slogFunc(fn))
	}

	it.depth++
	defer func() { it.depth-- }()

	frame := newEnv(fn.env, true)

	if fn.this != nil {
		this = fn.this
	}

	if this != nil && this != Undefined {
		frame.Define("this", this)
	}

	for i, name := range fn.params {
		if i < len(args) {
			frame.Define(name, args[i])
		} else {
			frame.Define(name, Undefined)
		}
	}

	ev := &evaluator{ctx: ctx, it: it}

	return ev.statements(fn.body.Body, frame)
}

func invalidOperand(op TokenType, vs ...Value) *Error {
	attrs := []slog.Attr{slog.String("operator", op.String())}
	for i, v := range vs {
		attrs = append(attrs, slog.String("operand"+strconv.Itoa(i+1), v.Type().String()))
	}

	return ErrInvalidOperand.With(attrs...)
}

//nolint:gocyclo,cyclop // one case per operator
func binaryOp(op TokenType, l, r Value) (Value, error) {
	switch op {
	case TokenEq, TokenNotEq:
		eq, err := equal(l, r)
		if err != nil {
			return nil, err
		}

		return Boolean(eq == (op == TokenEq)), nil

	case TokenLt, TokenLtEq, TokenGt, TokenGtEq:
		c, err := compare(l, r)
		if err != nil {
			return nil, err
		}

		if c == unordered {
			return Boolean(false), nil
		}

		switch op {
		case TokenLt:
			return Boolean(c < 0), nil
		case TokenLtEq:
			return Boolean(c <= 0), nil
		case TokenGt:
			return Boolean(c > 0), nil
		default:
			return Boolean(c >= 0), nil
		}

	case TokenPlus:
		if a, ok := l.(Number); ok {
			if b, ok := r.(Number); ok {
				return a + b, nil
			}
		}

		if l.Type() == TypeString || r.Type() == TypeString {
			return String(l.String() + r.String()), nil
		}

		return nil, invalidOperand(op, l, r)
	}

	a, aok := l.(Number)
	b, bok := r.(Number)

	if !aok || !bok {
		return nil, invalidOperand(op, l, r)
	}

	switch op {
	case TokenMinus:
		return a - b, nil
	case TokenStar:
		return a * b, nil
	case TokenSlash:
		return a / b, nil
	case TokenPercent:
		return Number(math.Mod(float64(a), float64(b))), nil
	case TokenAmp:
		return Number(toInt32(float64(a)) & toInt32(float64(b))), nil
	case TokenPipe:
		return Number(toInt32(float64(a)) | toInt32(float64(b))), nil
	case TokenCaret:
		return Number(toInt32(float64(a)) ^ toInt32(float64(b))), nil
	case TokenShl:
		return Number(toInt32(float64(a)) << shiftCount(b)), nil
	case TokenShr:
		return Number(toInt32(float64(a)) >> shiftCount(b)), nil
	case TokenUshr:
		return Number(uint32(toInt32(float64(a))) >> shiftCount(b)), nil
	}

	return nil, invalidOperand(op, l, r)
}

// equal compares same-typed values. Null and Undefined equal each other and
// differ from everything else; other mixed-type comparisons are errors.
func equal(l, r Value) (bool, error) {
	if IsNullish(l) || IsNullish(r) {
		return IsNullish(l) && IsNullish(r), nil
	}

	if l.Type() != r.Type() {
		return false, ErrTypeMismatch.With(
			slog.String("left", l.Type().String()),
			slog.String("right", r.Type().String()))
	}

	return l == r, nil
}

// unordered is the result of comparing NaN with any number.
const unordered = 2

func compare(l, r Value) (int, error) {
	switch a := l.(type) {
	case Number:
		if b, ok := r.(Number); ok {
			switch {
			case a < b:
				return -1, nil
			case a > b:
				return 1, nil
			case a == b:
				return 0, nil
			}

			return unordered, nil
		}

	case String:
		if b, ok := r.(String); ok {
			switch {
			case a < b:
				return -1, nil
			case a > b:
				return 1, nil
			default:
				return 0, nil
			}
		}
	}

	return 0, ErrTypeMismatch.With(
		slog.String("left", l.Type().String()),
		slog.String("right", r.Type().String()))
}

// toInt32 converts f to a 32-bit integer with wrap-around.
func toInt32(f float64) int32 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}

	return int32(uint32(int64(math.Mod(math.Trunc(f), 1<<32))))
}

func shiftCount(n Number) uint32 {
	return uint32(toInt32(float64(n))) & 31
}

// toIndex converts v to a non-negative integer array index.
func toIndex(v Value) (int, error) {
	n, ok := v.(Number)
	if !ok || float64(n) != math.Trunc(float64(n)) {
		return 0, ErrInvalidIndex.With(slog.String("index", v.String()))
	}

	if n < 0 || n >= maxArrayIndex {
		return -1, nil
	}

	return int(n), nil
}

// propertyKey converts an index value to an object key.
func propertyKey(v Value) (string, error) {
	switch v := v.(type) {
	case String:
		return string(v), nil
	case Number:
		return v.String(), nil
	}

	return "", ErrInvalidIndex.With(slog.String("key_type", v.Type().String()))
}

func index(recv, idx Value) (Value, error) {
	switch r := recv.(type) {
	case *Array:
		i, err := toIndex(idx)
		if err != nil {
			return nil, err
		}

		return r.Get(i), nil

	case *Object:
		key, err := propertyKey(idx)
		if err != nil {
			return nil, err
		}

		return r.Get(key), nil

	case String:
		i, err := toIndex(idx)
		if err != nil {
			return nil, err
		}

		runes := []rune(string(r))
		if i < 0 || i >= len(runes) {
			return Undefined, nil
		}

		return String(runes[i]), nil
	}

	return nil, ErrInvalidOperand.With(
		slog.String("operator", "[]"),
		slog.String("receiver", recv.Type().String()))
}

func setIndex(recv, idx, v Value) error {
	switch r := recv.(type) {
	case *Array:
		i, err := toIndex(idx)
		if err != nil {
			return err
		}

		if i < 0 {
			if n, _ := idx.(Number); n > 0 {
				return ErrArrayTooLarge.With(slog.String("index", idx.String()))
			}

			return ErrInvalidIndex.With(slog.String("index", idx.String()))
		}

		r.Set(i, v)

		return nil

	case *Object:
		key, err := propertyKey(idx)
		if err != nil {
			return err
		}

		r.Set(key, v)

		return nil
	}

	return ErrInvalidOperand.With(
		slog.String("operator", "[]="),
		slog.String("receiver", recv.Type().String()))
}
