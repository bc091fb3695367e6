package lang

import (
	"context"
	"math"
	"slices"
	"strconv"
	"strings"
)

// Type identifies the dynamic type of a [Value].
type Type int

const (
	TypeUndefined Type = iota // Undefined
	TypeNull                  // Null
	TypeBoolean               // Boolean
	TypeNumber                // Number
	TypeString                // String
	TypeObject                // Object
	TypeArray                 // Array
	TypeFunction              // Function
)

var typeNames = [...]string{
	TypeUndefined: "Undefined",
	TypeNull:      "Null",
	TypeBoolean:   "Boolean",
	TypeNumber:    "Number",
	TypeString:    "String",
	TypeObject:    "Object",
	TypeArray:     "Array",
	TypeFunction:  "Function",
}

// String returns the type name as used by instanceof.
func (t Type) String() string {
	if t >= 0 && int(t) < len(typeNames) {
		return typeNames[t]
	}

	return "Unknown"
}

// ParseType returns the Type named s.
func ParseType(s string) (Type, bool) {
	i := slices.Index(typeNames[:], s)

	return Type(i), i >= 0
}

// Value is a runtime datum. The concrete types are [Number], [String],
// [Boolean], [*Object], [*Array], [*Function], and the Null and Undefined
// singletons. Objects, arrays, and functions have reference semantics.
type Value interface {
	Type() Type
	String() string
}

type (
	Number  float64
	String  string
	Boolean bool

	undefinedValue struct{}
	nullValue      struct{}
)

var (
	// Undefined is the value of missing bindings, members, and arguments.
	Undefined Value = undefinedValue{}
	// Null is the explicit absence of a value.
	Null Value = nullValue{}
)

func (Number) Type() Type         { return TypeNumber }
func (String) Type() Type         { return TypeString }
func (Boolean) Type() Type        { return TypeBoolean }
func (undefinedValue) Type() Type { return TypeUndefined }
func (nullValue) Type() Type      { return TypeNull }

func (n Number) String() string       { return formatNumber(float64(n)) }
func (s String) String() string       { return string(s) }
func (b Boolean) String() string      { return strconv.FormatBool(bool(b)) }
func (undefinedValue) String() string { return "undefined" }
func (nullValue) String() string      { return "null" }

// Float returns n as a float64.
func (n Number) Float() float64 { return float64(n) }

// Int returns n truncated toward zero.
func (n Number) Int() int { return int(n) }

// IsNullish reports whether v is Null or Undefined (or a nil interface).
func IsNullish(v Value) bool {
	if v == nil {
		return true
	}

	t := v.Type()

	return t == TypeNull || t == TypeUndefined
}

// formatNumber renders integral values without a fraction and everything
// else in the shortest round-trip form.
func formatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == math.Trunc(f) && math.Abs(f) < 1e21:
		return strconv.FormatFloat(f, 'f', -1, 64)
	default:
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
}

// Object is an insertion-ordered mapping from string keys to values.
type Object struct {
	props map[string]Value
	keys  []string
}

// NewObject returns an empty object.
func NewObject() *Object {
	return &Object{props: map[string]Value{}}
}

func (*Object) Type() Type { return TypeObject }

func (o *Object) String() string { return Inspect(o) }

// Get returns the property named key, or Undefined.
func (o *Object) Get(key string) Value {
	if v, ok := o.props[key]; ok {
		return v
	}

	return Undefined
}

// Lookup returns the property named key and whether it exists.
func (o *Object) Lookup(key string) (Value, bool) {
	v, ok := o.props[key]

	return v, ok
}

// Set creates or replaces the property named key. A nil v is stored as
// Undefined.
func (o *Object) Set(key string, v Value) {
	v = orUndefined(v)

	if _, ok := o.props[key]; !ok {
		o.keys = append(o.keys, key)
	}

	o.props[key] = v
}

// Has reports whether key is an own property.
func (o *Object) Has(key string) bool {
	_, ok := o.props[key]

	return ok
}

// Delete removes key, reporting whether it was present.
func (o *Object) Delete(key string) bool {
	if _, ok := o.props[key]; !ok {
		return false
	}

	delete(o.props, key)
	o.keys = slices.DeleteFunc(o.keys, func(k string) bool { return k == key })

	return true
}

// Size returns the number of properties.
func (o *Object) Size() int { return len(o.keys) }

// Keys returns the property names in insertion order.
func (o *Object) Keys() []string { return slices.Clone(o.keys) }

// Array is a growable sequence of values.
type Array struct {
	elems []Value
}

// NewArray returns an array holding elems. Nil elements become Undefined.
func NewArray(elems ...Value) *Array {
	for i, e := range elems {
		elems[i] = orUndefined(e)
	}

	return &Array{elems: elems}
}

func (*Array) Type() Type { return TypeArray }

func (a *Array) String() string { return Inspect(a) }

// Get returns the element at i, or Undefined when i is out of range.
func (a *Array) Get(i int) Value {
	if i < 0 || i >= len(a.elems) {
		return Undefined
	}

	return a.elems[i]
}

// Set stores v at i, growing the array with Undefined as needed.
// It panics if i is negative.
func (a *Array) Set(i int, v Value) {
	if i < 0 {
		panic("lang: negative array index")
	}

	for len(a.elems) <= i {
		a.elems = append(a.elems, Undefined)
	}

	a.elems[i] = orUndefined(v)
}

// Add appends v.
func (a *Array) Add(v Value) { a.elems = append(a.elems, orUndefined(v)) }

func orUndefined(v Value) Value {
	if v == nil {
		return Undefined
	}

	return v
}

// Size returns the number of elements.
func (a *Array) Size() int { return len(a.elems) }

// Values returns a copy of the elements.
func (a *Array) Values() []Value { return slices.Clone(a.elems) }

// NativeFunc is a host-provided function callable from scripts. this is the
// receiver for method calls and Undefined otherwise.
type NativeFunc func(ctx context.Context, this Value, args []Value) (Value, error)

// Function is a closure over its defining environment, or a native
// function supplied by the host.
type Function struct {
	body   *Block
	env    *Env
	owner  *Interpreter
	native NativeFunc
	this   Value // bound receiver for builtin members
	name   string
	params []string
}

// NewNative wraps fn as a Function named name.
func NewNative(name string, fn NativeFunc) *Function {
	return &Function{name: name, native: fn}
}

func (*Function) Type() Type { return TypeFunction }

func (f *Function) String() string {
	var b strings.Builder

	b.WriteString("function")

	if f.name != "" {
		b.WriteByte(' ')
		b.WriteString(f.name)
	}

	b.WriteByte('(')
	b.WriteString(strings.Join(f.params, ", "))
	b.WriteByte(')')

	if f.native != nil {
		b.WriteString(" { [native] }")
	} else {
		b.WriteString(" {...}")
	}

	return b.String()
}

// Name returns the declared name, or "" for anonymous functions.
func (f *Function) Name() string { return f.name }

// Params returns the declared parameter names. Natives have none.
func (f *Function) Params() []string { return slices.Clone(f.params) }

// IsNative reports whether f is implemented by the host.
func (f *Function) IsNative() bool { return f.native != nil }

// Call invokes f with args. Closures run on the interpreter that created
// them.
func (f *Function) Call(ctx context.Context, args ...Value) (Value, error) {
	if f.native != nil {
		return f.callNative(ctx, Undefined, args)
	}

	return f.owner.invoke(ctx, f, Undefined, args)
}

func (f *Function) callNative(ctx context.Context, this Value, args []Value) (Value, error) {
	if f.this != nil {
		this = f.this
	}

	v, err := f.native(ctx, this, args)
	if err != nil {
		return nil, WrapError(err).With(slogFunc(f))
	}

	if v == nil {
		return Undefined, nil
	}

	return v, nil
}
