package lang

import (
	"context"
	"log/slog"
	"math"
	"math/rand/v2"
)

// Namespace is a named set of host members. Installed with
// [WithNamespace], each member is callable unqualified (cos(0)) and through
// the namespace object (Math.cos(0)).
type Namespace struct {
	Members *Object
	Name    string
}

// NewNamespace returns an empty namespace named name.
func NewNamespace(name string) *Namespace {
	return &Namespace{Name: name, Members: NewObject()}
}

// Func adds a native function member.
func (ns *Namespace) Func(name string, fn NativeFunc) *Namespace {
	ns.Members.Set(name, NewNative(name, fn))

	return ns
}

// Const adds a constant member.
func (ns *Namespace) Const(name string, v Value) *Namespace {
	ns.Members.Set(name, v)

	return ns
}

// ErrNoConvergence reports that an iterative numeric method gave up.
var ErrNoConvergence = NewError(KindRuntime, "numeric method did not converge")

func unary(fn func(float64) float64) NativeFunc {
	return func(_ context.Context, _ Value, args []Value) (Value, error) {
		x, err := numberArg(args, 0)
		if err != nil {
			return nil, err
		}

		return Number(fn(x)), nil
	}
}

func binaryFn(fn func(float64, float64) float64) NativeFunc {
	return func(_ context.Context, _ Value, args []Value) (Value, error) {
		x, err := numberArg(args, 0)
		if err != nil {
			return nil, err
		}

		y, err := numberArg(args, 1)
		if err != nil {
			return nil, err
		}

		return Number(fn(x, y)), nil
	}
}

// fold reduces one or more numeric arguments with fn.
func fold(fn func(float64, float64) float64) NativeFunc {
	return func(_ context.Context, _ Value, args []Value) (Value, error) {
		if len(args) == 0 {
			return nil, ErrArgumentCount.With(slog.Int("min", 1), slog.Int("found", 0))
		}

		acc, err := numberArg(args, 0)
		if err != nil {
			return nil, err
		}

		for i := 1; i < len(args); i++ {
			x, err := numberArg(args, i)
			if err != nil {
				return nil, err
			}

			acc = fn(acc, x)
		}

		return Number(acc), nil
	}
}

// MathNamespace returns the "Math" namespace of numeric functions.
func MathNamespace() *Namespace {
	return NewNamespace("Math").
		Const("PI", Number(math.Pi)).
		Const("E", Number(math.E)).
		Func("sin", unary(math.Sin)).
		Func("cos", unary(math.Cos)).
		Func("tan", unary(math.Tan)).
		Func("asin", unary(math.Asin)).
		Func("acos", unary(math.Acos)).
		Func("atan", unary(math.Atan)).
		Func("atan2", binaryFn(math.Atan2)).
		Func("sinh", unary(math.Sinh)).
		Func("cosh", unary(math.Cosh)).
		Func("tanh", unary(math.Tanh)).
		Func("sqrt", unary(math.Sqrt)).
		Func("cbrt", unary(math.Cbrt)).
		Func("hypot", binaryFn(math.Hypot)).
		Func("abs", unary(math.Abs)).
		Func("exp", unary(math.Exp)).
		Func("log", unary(math.Log)).
		Func("log10", unary(math.Log10)).
		Func("pow", binaryFn(math.Pow)).
		Func("floor", unary(math.Floor)).
		Func("ceil", unary(math.Ceil)).
		Func("round", unary(math.Round)).
		Func("sign", unary(sign)).
		Func("min", fold(math.Min)).
		Func("max", fold(math.Max)).
		Func("random", func(context.Context, Value, []Value) (Value, error) {
			return Number(rand.Float64()), nil
		}).
		Func("integrate", integrate).
		Func("root", root)
}

func sign(x float64) float64 {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	default:
		return x
	}
}

// integrate(f, a, b [, n]) applies Simpson's rule with n intervals
// (rounded up to even, default 100).
func integrate(ctx context.Context, _ Value, args []Value) (Value, error) {
	f, err := AsRealFunction(arg(args, 0))
	if err != nil {
		return nil, err
	}

	a, err := numberArg(args, 1)
	if err != nil {
		return nil, err
	}

	b, err := numberArg(args, 2)
	if err != nil {
		return nil, err
	}

	n, err := intArg(args, 3, 100)
	if err != nil {
		return nil, err
	}

	n = max(2, n+n%2)
	h := (b - a) / float64(n)

	sum := 0.0

	for i := 0; i <= n; i++ {
		y, err := f.ValueAt(ctx, a+float64(i)*h)
		if err != nil {
			return nil, err
		}

		switch {
		case i == 0 || i == n:
			sum += y
		case i%2 == 1:
			sum += 4 * y
		default:
			sum += 2 * y
		}
	}

	return Number(sum * h / 3), nil
}

const (
	rootTolerance = 1e-12
	rootMaxIter   = 100
)

// root(f, x0) finds a zero of f near x0, by Newton's method when f provides
// derivAt and by the secant method otherwise.
func root(ctx context.Context, _ Value, args []Value) (Value, error) {
	f, err := AsRealFunction(arg(args, 0))
	if err != nil {
		return nil, err
	}

	x, err := numberArg(args, 1)
	if err != nil {
		return nil, err
	}

	var step func(x, prev, fprev float64) (next, fx float64, err error)

	if df, ok := f.(DifferentiableFunction); ok {
		step = func(x, _, _ float64) (float64, float64, error) {
			fx, err := f.ValueAt(ctx, x)
			if err != nil {
				return 0, 0, err
			}

			d, err := df.DerivAt(ctx, x)
			if err != nil {
				return 0, 0, err
			}

			return x - fx/d, fx, nil
		}
	} else {
		step = func(x, prev, fprev float64) (float64, float64, error) {
			fx, err := f.ValueAt(ctx, x)
			if err != nil {
				return 0, 0, err
			}

			return x - fx*(x-prev)/(fx-fprev), fx, nil
		}
	}

	prev := x + 1e-4

	fprev, err := f.ValueAt(ctx, prev)
	if err != nil {
		return nil, err
	}

	for range rootMaxIter {
		next, fx, err := step(x, prev, fprev)
		if err != nil {
			return nil, err
		}

		if fx == 0 || math.Abs(next-x) < rootTolerance*max(1, math.Abs(x)) {
			return Number(next), nil
		}

		if math.IsNaN(next) || math.IsInf(next, 0) {
			break
		}

		prev, fprev, x = x, fx, next
	}

	return nil, ErrNoConvergence.With(slog.String("method", "root"), slog.Float64("last", x))
}
