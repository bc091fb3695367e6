package lang

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"slices"
)

// ValueOf converts a host value into a [Value].
//
// Supported inputs are nil, Value, bool, string, every integer and float
// kind, NativeFunc, func(float64) float64, and slices or string-keyed maps
// of supported values. Map keys become object properties in sorted order.
// A map, slice, or pointer that contains itself is rejected with
// [ErrInvalidHostValue].
func ValueOf(x any) (Value, error) {
	return valueOf(x, map[hostRef]struct{}{})
}

// hostRef identifies a host container for cycle detection. Slices sharing a
// backing array are distinguished by type and length.
type hostRef struct {
	typ reflect.Type
	ptr uintptr
	len int
}

func valueOf(x any, seen map[hostRef]struct{}) (Value, error) {
	switch x := x.(type) {
	case nil:
		return Null, nil
	case Value:
		return x, nil
	case bool:
		return Boolean(x), nil
	case string:
		return String(x), nil
	case float64:
		return Number(x), nil
	case float32:
		return Number(x), nil
	case int:
		return Number(x), nil
	case int64:
		return Number(x), nil
	case NativeFunc:
		return NewNative("", x), nil
	case func(context.Context, Value, []Value) (Value, error):
		return NewNative("", x), nil
	case func(float64) float64:
		return NewNative("", func(_ context.Context, _ Value, args []Value) (Value, error) {
			f, err := numberArg(args, 0)
			if err != nil {
				return nil, err
			}

			return Number(x(f)), nil
		}), nil
	}

	return valueOfReflect(reflect.ValueOf(x), seen)
}

func valueOfReflect(rv reflect.Value, seen map[hostRef]struct{}) (Value, error) {
	switch rv.Kind() {
	case reflect.Pointer, reflect.Slice, reflect.Map:
		if rv.IsNil() {
			break
		}

		ref := hostRef{typ: rv.Type(), ptr: rv.Pointer()}
		if rv.Kind() == reflect.Slice {
			ref.len = rv.Len()
		}

		if _, ok := seen[ref]; ok {
			return nil, ErrInvalidHostValue.With(
				slog.String("type", rv.Type().String()),
				slog.String("reason", "cyclic reference"))
		}

		seen[ref] = struct{}{}
		defer delete(seen, ref)
	}

	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Number(rv.Int()), nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32,
		reflect.Uint64, reflect.Uintptr:
		return Number(rv.Uint()), nil

	case reflect.Float32, reflect.Float64:
		return Number(rv.Float()), nil

	case reflect.Bool:
		return Boolean(rv.Bool()), nil

	case reflect.String:
		return String(rv.String()), nil

	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return Null, nil
		}

		return valueOf(rv.Elem().Interface(), seen)

	case reflect.Slice, reflect.Array:
		arr := NewArray()

		for i := range rv.Len() {
			v, err := valueOf(rv.Index(i).Interface(), seen)
			if err != nil {
				return nil, err
			}

			arr.Add(v)
		}

		return arr, nil

	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			break
		}

		keys := rv.MapKeys()
		slices.SortFunc(keys, func(a, b reflect.Value) int {
			switch {
			case a.String() < b.String():
				return -1
			case a.String() > b.String():
				return 1
			default:
				return 0
			}
		})

		obj := NewObject()

		for _, k := range keys {
			v, err := valueOf(rv.MapIndex(k).Interface(), seen)
			if err != nil {
				return nil, err
			}

			obj.Set(k.String(), v)
		}

		return obj, nil
	}

	return nil, ErrInvalidHostValue.With(slog.String("type", fmt.Sprintf("%T", rv.Interface())))
}

// ToNative converts v into plain Go values: float64, string, bool, nil,
// []any, and map[string]any. Functions become their string form. Cyclic
// references are rendered once and then replaced by nil.
func ToNative(v Value) any {
	return toNative(v, map[Value]struct{}{})
}

func toNative(v Value, seen map[Value]struct{}) any {
	switch v := v.(type) {
	case Number:
		return float64(v)
	case String:
		return string(v)
	case Boolean:
		return bool(v)
	case *Function:
		return v.String()
	case *Array:
		if _, ok := seen[v]; ok {
			return nil
		}

		seen[v] = struct{}{}
		defer delete(seen, v)

		out := make([]any, v.Size())
		for i, e := range v.elems {
			out[i] = toNative(e, seen)
		}

		return out
	case *Object:
		if _, ok := seen[v]; ok {
			return nil
		}

		seen[v] = struct{}{}
		defer delete(seen, v)

		out := make(map[string]any, v.Size())
		for _, k := range v.keys {
			out[k] = toNative(v.props[k], seen)
		}

		return out
	}

	return nil
}

// RealFunction is a real-valued function of one real variable.
type RealFunction interface {
	ValueAt(ctx context.Context, x float64) (float64, error)
}

// DifferentiableFunction is a RealFunction that also provides its first
// derivative.
type DifferentiableFunction interface {
	RealFunction
	DerivAt(ctx context.Context, x float64) (float64, error)
}

// realFunction adapts script functions to [RealFunction].
type realFunction struct {
	value *Function
	deriv *Function
}

func (f realFunction) ValueAt(ctx context.Context, x float64) (float64, error) {
	return callReal(ctx, f.value, x)
}

type differentiableFunction struct{ realFunction }

func (f differentiableFunction) DerivAt(ctx context.Context, x float64) (float64, error) {
	return callReal(ctx, f.deriv, x)
}

func callReal(ctx context.Context, fn *Function, x float64) (float64, error) {
	v, err := fn.Call(ctx, Number(x))
	if err != nil {
		return 0, err
	}

	n, ok := v.(Number)
	if !ok {
		return 0, ErrTypeMismatch.With(
			slog.String("function", fn.name),
			slog.String("expected", TypeNumber.String()),
			slog.String("found", v.Type().String()))
	}

	return float64(n), nil
}

// AsRealFunction adapts v to a [RealFunction]. v may be a function, or an
// object with a function-valued "valueAt" member. When the object also has a
// function-valued "derivAt" member the result implements
// [DifferentiableFunction].
func AsRealFunction(v Value) (RealFunction, error) {
	switch v := v.(type) {
	case *Function:
		return realFunction{value: v}, nil

	case *Object:
		value, ok := v.Get("valueAt").(*Function)
		if !ok {
			return nil, ErrMissingCapability.With(slog.String("member", "valueAt"))
		}

		f := realFunction{value: bindThis(value, v)}

		if deriv, ok := v.Get("derivAt").(*Function); ok {
			f.deriv = bindThis(deriv, v)

			return differentiableFunction{f}, nil
		}

		return f, nil
	}

	return nil, ErrMissingCapability.With(
		slog.String("member", "valueAt"),
		slog.String("type", typeOf(v)))
}

// bindThis returns a copy of fn whose receiver is fixed to this.
func bindThis(fn *Function, this Value) *Function {
	c := *fn
	c.this = this

	return &c
}

// AsPredicate adapts a script function to a Go string predicate. Errors and
// non-Boolean results count as false.
func AsPredicate(ctx context.Context, v Value) (func(string) bool, error) {
	fn, ok := v.(*Function)
	if !ok {
		return nil, ErrArgumentType.With(
			slog.String("expected", TypeFunction.String()),
			slog.String("found", typeOf(v)))
	}

	return func(s string) bool {
		r, err := fn.Call(ctx, String(s))
		if err != nil {
			return false
		}

		b, ok := r.(Boolean)

		return ok && bool(b)
	}, nil
}
