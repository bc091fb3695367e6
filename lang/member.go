package lang

import (
	"context"
	"log/slog"
	"strings"
)

// method is a builtin member implementation; this is the receiver.
type method func(ctx context.Context, this Value, args []Value) (Value, error)

// Builtin member tables, filled by init because several members call back
// into the evaluator, which resolves members through these tables.
var (
	objectMethods   map[string]method
	arrayMethods    map[string]method
	stringMethods   map[string]method
	functionMethods map[string]method
	numberMethods   map[string]method
)

func init() {
	objectMethods = map[string]method{
		"get": func(_ context.Context, this Value, args []Value) (Value, error) {
			key, err := stringArg(args, 0)
			if err != nil {
				return nil, err
			}

			return this.(*Object).Get(key), nil
		},
		"set": func(_ context.Context, this Value, args []Value) (Value, error) {
			key, err := stringArg(args, 0)
			if err != nil {
				return nil, err
			}

			v := arg(args, 1)
			this.(*Object).Set(key, v)

			return v, nil
		},
		"has": func(_ context.Context, this Value, args []Value) (Value, error) {
			key, err := stringArg(args, 0)
			if err != nil {
				return nil, err
			}

			return Boolean(this.(*Object).Has(key)), nil
		},
		"size": func(_ context.Context, this Value, _ []Value) (Value, error) {
			return Number(this.(*Object).Size()), nil
		},
		"keys": func(_ context.Context, this Value, _ []Value) (Value, error) {
			arr := NewArray()
			for _, k := range this.(*Object).Keys() {
				arr.Add(String(k))
			}

			return arr, nil
		},
	}

	arrayMethods = map[string]method{
		"get": func(_ context.Context, this Value, args []Value) (Value, error) {
			return index(this, arg(args, 0))
		},
		"set": func(_ context.Context, this Value, args []Value) (Value, error) {
			v := arg(args, 1)

			return v, setIndex(this, arg(args, 0), v)
		},
		"add": func(_ context.Context, this Value, args []Value) (Value, error) {
			for _, v := range args {
				this.(*Array).Add(v)
			}

			return Boolean(true), nil
		},
		"size": func(_ context.Context, this Value, _ []Value) (Value, error) {
			return Number(this.(*Array).Size()), nil
		},
		"forEach": func(ctx context.Context, this Value, args []Value) (Value, error) {
			fn, err := funcArg(args, 0)
			if err != nil {
				return nil, err
			}

			for i, v := range this.(*Array).Values() {
				if _, err := fn.Call(ctx, v, Number(i)); err != nil {
					return nil, err
				}
			}

			return Undefined, nil
		},
		"map": func(ctx context.Context, this Value, args []Value) (Value, error) {
			fn, err := funcArg(args, 0)
			if err != nil {
				return nil, err
			}

			out := NewArray()

			for i, v := range this.(*Array).Values() {
				r, err := fn.Call(ctx, v, Number(i))
				if err != nil {
					return nil, err
				}

				out.Add(r)
			}

			return out, nil
		},
		"filter": func(ctx context.Context, this Value, args []Value) (Value, error) {
			fn, err := funcArg(args, 0)
			if err != nil {
				return nil, err
			}

			out := NewArray()

			for i, v := range this.(*Array).Values() {
				r, err := fn.Call(ctx, v, Number(i))
				if err != nil {
					return nil, err
				}

				keep, ok := r.(Boolean)
				if !ok {
					return nil, ErrNotBoolean.With(slog.String("found", r.Type().String()))
				}

				if keep {
					out.Add(v)
				}
			}

			return out, nil
		},
		"reduce": func(ctx context.Context, this Value, args []Value) (Value, error) {
			fn, err := funcArg(args, 1)
			if err != nil {
				return nil, err
			}

			acc := arg(args, 0)

			for i, v := range this.(*Array).Values() {
				if acc, err = fn.Call(ctx, acc, v, Number(i)); err != nil {
					return nil, err
				}
			}

			return acc, nil
		},
		"join": func(_ context.Context, this Value, args []Value) (Value, error) {
			sep := ","
			if len(args) > 0 {
				sep = args[0].String()
			}

			elems := this.(*Array).Values()
			parts := make([]string, len(elems))

			for i, v := range elems {
				parts[i] = v.String()
			}

			return String(strings.Join(parts, sep)), nil
		},
	}

	stringMethods = map[string]method{
		"length": func(_ context.Context, this Value, _ []Value) (Value, error) {
			return Number(len([]rune(string(this.(String))))), nil
		},
		"indexOf": func(_ context.Context, this Value, args []Value) (Value, error) {
			sub, err := stringArg(args, 0)
			if err != nil {
				return nil, err
			}

			s := string(this.(String))

			i := strings.Index(s, sub)
			if i < 0 {
				return Number(-1), nil
			}

			return Number(len([]rune(s[:i]))), nil
		},
		"substring": func(_ context.Context, this Value, args []Value) (Value, error) {
			runes := []rune(string(this.(String)))

			lo, err := intArg(args, 0, 0)
			if err != nil {
				return nil, err
			}

			hi, err := intArg(args, 1, len(runes))
			if err != nil {
				return nil, err
			}

			lo = max(0, min(lo, len(runes)))
			hi = max(lo, min(hi, len(runes)))

			return String(runes[lo:hi]), nil
		},
		"toUpperCase": func(_ context.Context, this Value, _ []Value) (Value, error) {
			return String(strings.ToUpper(string(this.(String)))), nil
		},
		"toLowerCase": func(_ context.Context, this Value, _ []Value) (Value, error) {
			return String(strings.ToLower(string(this.(String)))), nil
		},
	}

	functionMethods = map[string]method{
		"invoke": func(ctx context.Context, this Value, args []Value) (Value, error) {
			return this.(*Function).Call(ctx, args...)
		},
	}

	numberMethods = map[string]method{
		"intValue": func(_ context.Context, this Value, _ []Value) (Value, error) {
			return Number(this.(Number).Int()), nil
		},
		"doubleValue": func(_ context.Context, this Value, _ []Value) (Value, error) {
			return this, nil
		},
	}
}

// member resolves recv.name. Own object properties shadow builtin members;
// a missing object property is Undefined.
func member(recv Value, name string) (Value, error) {
	var methods map[string]method

	switch r := recv.(type) {
	case *Object:
		if v, ok := r.Lookup(name); ok {
			return v, nil
		}

		if m, ok := objectMethods[name]; ok {
			return bind(recv, name, m), nil
		}

		return Undefined, nil

	case *Array:
		methods = arrayMethods
	case String:
		methods = stringMethods
	case *Function:
		methods = functionMethods
	case Number:
		methods = numberMethods
	}

	if m, ok := methods[name]; ok {
		return bind(recv, name, m), nil
	}

	return nil, ErrNoSuchMember.With(
		slog.String("member", name),
		slog.String("receiver", recv.Type().String()))
}

// MemberNames returns the builtin member names available on values of type t.
func MemberNames(t Type) []string {
	var methods map[string]method

	switch t {
	case TypeObject:
		methods = objectMethods
	case TypeArray:
		methods = arrayMethods
	case TypeString:
		methods = stringMethods
	case TypeFunction:
		methods = functionMethods
	case TypeNumber:
		methods = numberMethods
	}

	return sortedKeys(methods)
}

func bind(recv Value, name string, m method) *Function {
	return &Function{name: name, native: NativeFunc(m), this: recv}
}

func arg(args []Value, i int) Value {
	if i < len(args) {
		return args[i]
	}

	return Undefined
}

func argError(i int, want Type, got Value) *Error {
	return ErrArgumentType.With(
		slog.Int("argument", i+1),
		slog.String("expected", want.String()),
		slog.String("found", got.Type().String()))
}

func stringArg(args []Value, i int) (string, error) {
	switch v := arg(args, i).(type) {
	case String:
		return string(v), nil
	case Number:
		return v.String(), nil
	default:
		return "", argError(i, TypeString, v)
	}
}

func numberArg(args []Value, i int) (float64, error) {
	v, ok := arg(args, i).(Number)
	if !ok {
		return 0, argError(i, TypeNumber, arg(args, i))
	}

	return float64(v), nil
}

func intArg(args []Value, i, def int) (int, error) {
	if i >= len(args) || args[i] == Undefined {
		return def, nil
	}

	f, err := numberArg(args, i)
	if err != nil {
		return 0, err
	}

	return int(f), nil
}

func funcArg(args []Value, i int) (*Function, error) {
	fn, ok := arg(args, i).(*Function)
	if !ok {
		return nil, argError(i, TypeFunction, arg(args, i))
	}

	return fn, nil
}
