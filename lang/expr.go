package lang

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/builtin"
)

// ErrExprEvaluate reports a failure compiling or running an expr-lang
// expression.
var ErrExprEvaluate = NewError(KindRuntime, "expression evaluation failed")

// ExprNamespace returns the "Expr" namespace, which exposes the expr-lang
// builtin library (len, upper, trim, ...) as native functions plus
// eval(src [, env]) for running an expr-lang expression against an object's
// properties. Predicate builtins (all, filter, map, ...) are omitted since
// they require expr-lang closures.
func ExprNamespace() *Namespace {
	ns := NewNamespace("Expr")

	for _, fn := range builtin.Builtins {
		if fn.Predicate || (fn.Func == nil && fn.Fast == nil) {
			continue
		}

		ns.Func(fn.Name, exprBuiltin(fn))
	}

	return ns.Func("eval", exprEval)
}

// ExprBuiltin reports whether name is an expr-lang builtin.
func ExprBuiltin(name string) bool {
	_, ok := builtin.Index[name]

	return ok
}

func exprBuiltin(fn *builtin.Function) NativeFunc {
	return func(_ context.Context, _ Value, args []Value) (result Value, err error) {
		in := make([]any, len(args))
		for i, a := range args {
			in[i] = exprArg(a)
		}

		// expr-lang builtins assume arguments already passed its type checker
		// and panic on anything else.
		defer func() {
			if r := recover(); r != nil {
				result = nil
				err = ErrExprEvaluate.
					Wrap(fmt.Errorf("%v", r)).
					With(slog.String("builtin", fn.Name))
			}
		}()

		var out any

		switch {
		case fn.Func != nil:
			out, err = fn.Func(in...)
		case len(in) == 1:
			out = fn.Fast(in[0])
		default:
			return nil, ErrArgumentCount.With(
				slog.String("builtin", fn.Name),
				slog.Int("expected", 1),
				slog.Int("found", len(in)))
		}

		if err != nil {
			return nil, ErrExprEvaluate.Wrap(err).With(slog.String("builtin", fn.Name))
		}

		return ValueOf(out)
	}
}

// exprArg converts v for expr-lang, passing integral numbers as int so
// builtins expecting counts or indexes accept them.
func exprArg(v Value) any {
	if n, ok := v.(Number); ok && float64(n) == float64(int(n)) {
		return int(n)
	}

	return ToNative(v)
}

func exprEval(_ context.Context, _ Value, args []Value) (Value, error) {
	src, err := stringArg(args, 0)
	if err != nil {
		return nil, err
	}

	env := map[string]any{}

	if len(args) > 1 {
		obj, ok := args[1].(*Object)
		if !ok {
			return nil, argError(1, TypeObject, args[1])
		}

		for _, k := range obj.Keys() {
			env[k] = exprArg(obj.Get(k))
		}
	}

	program, err := expr.Compile(src, expr.Env(env))
	if err != nil {
		return nil, ErrExprEvaluate.Wrap(err).With(slog.String("source", src))
	}

	out, err := expr.Run(program, env)
	if err != nil {
		return nil, ErrExprEvaluate.Wrap(err).With(slog.String("source", src))
	}

	return ValueOf(out)
}
