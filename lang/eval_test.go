package lang

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
)

func mustParse(t *testing.T, it *Interpreter, src string) Value {
	t.Helper()

	v, err := it.Parse(t.Context(), src)
	if err != nil {
		t.Fatalf("Parse(%q): %v", src, err)
	}

	return v
}

func TestParse_Values(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  string
		want string
	}{
		{"addition", "10.0 + 20.0", "30"},
		{"precedence", "1 + 2 * 3", "7"},
		{"parens", "(1 + 2) * 3", "9"},
		{"modulo", "7 % 3", "1"},
		{"division", "1 / 4", "0.25"},
		{"negate", "-(3)", "-3"},
		{"concat", `"a" + 1`, `"a1"`},
		{"concat left", `1 + "a"`, `"1a"`},
		{"less", "1 < 2", "true"},
		{"string order", `"a" < "b"`, "true"},
		{"equal", "2 == 2", "true"},
		{"not equal", `"x" != "y"`, "true"},
		{"nullish equal", "null == undefined", "true"},
		{"nullish unequal", "null == 0", "false"},
		{"and", "true && false", "false"},
		{"or", "false || true", "true"},
		{"not", "!true", "false"},
		{"bit and", "5 & 3", "1"},
		{"bit or", "5 | 3", "7"},
		{"bit xor", "5 ^ 3", "6"},
		{"bit not", "~0", "-1"},
		{"shift left", "1 << 4", "16"},
		{"shift right", "-16 >> 2", "-4"},
		{"unsigned shift", "-1 >>> 28", "15"},
		{"ternary", "true ? 1 : 2", "1"},
		{"nested ternary", "false ? 1 : true ? 2 : 3", "2"},
		{"void", "void 1", "undefined"},
		{"bare void", "true ? void : 2", "undefined"},
		{"bare void else", "var h = (1 == 1) ? 2 : void; h", "2"},
		{"void ends body", "function g(x) {var y = x; void}\ng(1)", "undefined"},
		{"void ends literal", "function () {[1].map(function (n) {n}); void}()", "undefined"},
		{"array index", "var array = [10, 20, 30]; array[1]", "20"},
		{"array out of range", "[1, 2][5]", "undefined"},
		{"missing key", "var o = {x: 1}; o.y", "undefined"},
		{"string index", `"abc"[1]`, `"b"`},
		{"if value", `if (1 < 2) {"yes"} else {"no"}`, `"yes"`},
		{"if no branch", `var a = 1; if (a > 1) {"x"}`, "undefined"},
		{"else if", "if (false) {1} else if (true) {2} else {3}", "2"},
		{"declared", "var x; x", "undefined"},
		{"defined false", "var.nothing", "false"},
		{"defined true", "var d = 1; var.d", "true"},
		{"instanceof", "5 instanceof Number", "true"},
		{"instanceof array", "[] instanceof Array", "true"},
		{"instanceof object", "var o = {}; o instanceof Object", "true"},
		{"instanceof mismatch", `"s" instanceof Number`, "false"},
		{"new array", "new [1, 2]", "[1, 2]"},
		{"new object", "new {a: 1}", "{a: 1}"},
		{"block value", "{1; 2}", "2"},
		{"declarations only", "var a = 1", "undefined"},
		{"leading assign", "var a = 1\n= a + 1", "2"},
		{"nan ordering", "var n = 0 / 0; n >= n", "false"},
		{"nan equality", "var n = 0 / 0; n == n", "false"},
		{"infinity", "1 / 0", "Infinity"},
		{"object get", "var obj = {x: 10, y: 20}; obj.get(\"x\") + obj.get(\"y\")", "30"},
		{"object has", `var obj = {x: 10}; obj.has("x") && !obj.has("z")`, "true"},
		{"object keys", "var obj = {b: 1, a: 2}; obj.keys()", `["b", "a"]`},
		{"object size", "{a: 1, b: 2}.size()", "2"},
		{"own property shadows", "var o = {size: 7}; o.size", "7"},
		{"array size", "[1, 2, 3].size()", "3"},
		{"array map", "[1, 2, 3].map(function(x) {x * 2})", "[2, 4, 6]"},
		{"array filter", "[1, 2, 3, 4].filter(function(x) {x % 2 == 0})", "[2, 4]"},
		{"array reduce", "[1, 2, 3].reduce(0, function(acc, x) {acc + x})", "6"},
		{"array join", `[1, "a", true].join("-")`, `"1-a-true"`},
		{"array add", "var a = []; a.add(1, 2); a", "[1, 2]"},
		{"array set grows", "var a = []; a.set(2, 9); a", "[undefined, undefined, 9]"},
		{"string length", `"héllo".length()`, "5"},
		{"string indexOf", `"héllo".indexOf("l")`, "2"},
		{"string substring", `"hello".substring(1, 3)`, `"el"`},
		{"string upper", `"abc".toUpperCase()`, `"ABC"`},
		{"int value", "(3.7).intValue()", "3"},
		{"invoke", "var f = function(a) {a + 1}; f.invoke(1)", "2"},
		{"keyword member", "var o = {if: 1}; o.if", "1"},
		{"trailing comma", "[1, 2,]", "[1, 2]"},
		{"comments", "// line\n1 /* block */ + 2", "3"},
		{"hex", "0xff", "255"},
		{"exponent", "1e3", "1000"},
		{"escapes", `"a\tbA"`, `"a\tbA"`},
		{"single quotes", `'it\'s'`, `"it's"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := Inspect(mustParse(t, New(), tt.src))
			if got != tt.want {
				t.Errorf("Parse(%q) = %s, want %s", tt.src, got, tt.want)
			}
		})
	}
}

func TestParse_Idempotent(t *testing.T) {
	t.Parallel()

	it := New()

	for range 2 {
		if v := mustParse(t, it, "10.0 + 20.0"); v != Number(30) {
			t.Errorf("got %v, want 30", v)
		}
	}
}

func TestParse_GlobalPersistence(t *testing.T) {
	t.Parallel()

	it := New()

	if err := it.SetGlobalValue("x", 20.0); err != nil {
		t.Fatalf("SetGlobalValue: %v", err)
	}

	if v := mustParse(t, it, "x"); v != Number(20) {
		t.Errorf("x = %v, want 20", v)
	}

	mustParse(t, it, "var array1 = [1]")

	if v := mustParse(t, it, "array1[0] + x"); v != Number(21) {
		t.Errorf("array1[0] + x = %v, want 21", v)
	}
}

func TestParse_MethodProperty(t *testing.T) {
	t.Parallel()

	it := New()
	mustParse(t, it, "var obj = {}")
	mustParse(t, it, "obj.foo = function(x) {x*x};")

	if v := mustParse(t, it, "obj.foo(10.0)"); v != Number(100) {
		t.Errorf("obj.foo(10.0) = %v, want 100", v)
	}

	fn, ok := mustParse(t, it, "obj.foo").(*Function)
	if !ok || fn.Name() != "foo" {
		t.Errorf("obj.foo = %v, want function named foo", fn)
	}
}

func TestParse_Recursion(t *testing.T) {
	t.Parallel()

	it := New()
	mustParse(t, it, "function fl(n) {if (n<2){1} else {n*fl(n-1)}}")

	if v := mustParse(t, it, "fl(5)"); v != Number(120) {
		t.Errorf("fl(5) = %v, want 120", v)
	}
}

func TestParse_RangeGrowth(t *testing.T) {
	t.Parallel()

	v := mustParse(t, New(), "var array1 = new []; for (i: 0..10) {array1[i]=i*i}; array1")

	arr, ok := v.(*Array)
	if !ok {
		t.Fatalf("got %T, want *Array", v)
	}

	if arr.Size() != 10 {
		t.Fatalf("size = %d, want 10", arr.Size())
	}

	for i := range 10 {
		if got := arr.Get(i); got != Number(i*i) {
			t.Errorf("array1[%d] = %v, want %d", i, got, i*i)
		}
	}
}

func TestParse_ObjectLiteral(t *testing.T) {
	t.Parallel()

	it := New()
	mustParse(t, it, "var obj = {x: 10, y: 20}")

	obj, ok := mustParse(t, it, "obj").(*Object)
	if !ok {
		t.Fatal("obj is not an object")
	}

	if obj.Get("x") != Number(10) || obj.Get("y") != Number(20) {
		t.Errorf("obj = %s, want {x: 10, y: 20}", Inspect(obj))
	}
}

func TestParse_Aliasing(t *testing.T) {
	t.Parallel()

	v := mustParse(t, New(), "var a = {n: 1}; var b = a; b.n = 2; a.n")
	if v != Number(2) {
		t.Errorf("a.n = %v, want 2", v)
	}
}

func TestParse_Closures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  string
		want Value
	}{
		{
			name: "counter",
			src: `function counter() {
				var n = 0
				function() {n = n + 1}
			}
			var c = counter()
			c(); c(); c()`,
			want: Number(3),
		},
		{
			name: "lexical scope",
			src: `var x = "global"
			function show() {x}
			function shadow() {var x = "local"; show()}
			shadow()`,
			want: String("global"),
		},
		{
			name: "missing args",
			src:  "function f(a, b) {b}; f(1)",
			want: Undefined,
		},
		{
			name: "extra args",
			src:  "function f(a) {a}; f(1, 2, 3)",
			want: Number(1),
		},
		{
			name: "loop capture",
			src: `var fs = []
			for (i: 0..3) {fs[i] = function() {i}}
			fs[0]() + fs[2]()`,
			want: Number(2),
		},
		{
			name: "var hoists to function scope",
			src:  "function f() {if (true) {var y = 5}; y}; f()",
			want: Number(5),
		},
		{
			name: "this",
			src:  "var o = {n: 4, twice() {this.n * 2}}; o.twice()",
			want: Number(8),
		},
		{
			name: "this via index",
			src:  `var o = {n: 4, f: function() {this.n}}; o["f"]()`,
			want: Number(4),
		},
		{
			name: "default keeps",
			src:  "var a = 1; var a ?= 2; a",
			want: Number(1),
		},
		{
			name: "default sets",
			src:  "var a ?= 2; a",
			want: Number(2),
		},
		{
			name: "nullish replaces",
			src:  "var a = null; var a ??= 3; a",
			want: Number(3),
		},
		{
			name: "nullish keeps",
			src:  "var a = 0; var a ??= 3; a",
			want: Number(0),
		},
		{
			name: "redeclare without value",
			src:  "var a = 1; var a; a",
			want: Number(1),
		},
		{
			name: "assignment value",
			src:  "var a; var b = (a = 5); a + b",
			want: Number(10),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := mustParse(t, New(), tt.src); got != tt.want {
				t.Errorf("got %s, want %s", Inspect(got), Inspect(tt.want))
			}
		})
	}
}

func TestParse_RuntimeErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  string
		want error
	}{
		{"undefined variable", "nope", ErrUndefinedVariable},
		{"undeclared assignment", "y = 1", ErrUndeclaredAssignment},
		{"not callable", "var a = 1; a()", ErrNotCallable},
		{"cross-type equality", `1 == "1"`, ErrTypeMismatch},
		{"cross-type ordering", `1 < "2"`, ErrTypeMismatch},
		{"invalid operand", "true - 1", ErrInvalidOperand},
		{"negate string", `-"a"`, ErrInvalidOperand},
		{"non-boolean condition", "if (1) {2}", ErrNotBoolean},
		{"non-boolean and", "1 && true", ErrNotBoolean},
		{"no such member", "(1).foo", ErrNoSuchMember},
		{"fractional index", "[1][0.5]", ErrInvalidIndex},
		{"negative store", "var a = []; a[-1] = 1", ErrInvalidIndex},
		{"unknown type", "1 instanceof Banana", ErrUnknownType},
		{"throw", `throw "boom"`, ErrThrown},
		{"range bound", `for (i: 0.."x") {}`, ErrTypeMismatch},
		{"member store", "var n = 1; n.x = 2", ErrInvalidOperand},
		{"argument type", `[1].map(1)`, ErrArgumentType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := New().Parse(t.Context(), tt.src)
			if !errors.Is(err, tt.want) {
				t.Fatalf("Parse(%q) error = %v, want %v", tt.src, err, tt.want)
			}

			if !errors.Is(err, ErrRuntime) {
				t.Errorf("error %v is not a runtime error", err)
			}

			var e *Error
			if !errors.As(err, &e) {
				t.Fatalf("error %T is not *Error", err)
			}

			if _, ok := e.Position(); !ok {
				t.Errorf("error %v has no position", err)
			}
		})
	}
}

func TestParse_Thrown(t *testing.T) {
	t.Parallel()

	_, err := New().Parse(t.Context(), `throw {code: 7}`)

	v, ok := ThrownValue(err)
	if !ok {
		t.Fatalf("ThrownValue(%v) not found", err)
	}

	if obj, ok := v.(*Object); !ok || obj.Get("code") != Number(7) {
		t.Errorf("thrown = %s, want {code: 7}", Inspect(v))
	}
}

func TestParse_PersistsAfterFailure(t *testing.T) {
	t.Parallel()

	it := New()

	if _, err := it.Parse(t.Context(), "var a = 1; var b = nope; var c = 3"); err == nil {
		t.Fatal("expected runtime error")
	}

	if v := mustParse(t, it, "a"); v != Number(1) {
		t.Errorf("a = %v, want 1", v)
	}

	if v := mustParse(t, it, "var.c"); v != Boolean(false) {
		t.Errorf("var.c = %v, want false", v)
	}

	if _, err := it.Parse(t.Context(), "var d = 1 +"); !errors.Is(err, ErrSyntax) {
		t.Fatalf("error = %v, want syntax error", err)
	}

	if v := mustParse(t, it, "var.d"); v != Boolean(false) {
		t.Errorf("var.d = %v, want false", v)
	}
}

func TestParse_MaxDepth(t *testing.T) {
	t.Parallel()

	it := New(WithMaxDepth(50))
	mustParse(t, it, "function down(n) {down(n + 1)}")

	_, err := it.Parse(t.Context(), "down(0)")
	if !errors.Is(err, ErrMaxDepthExceeded) || !errors.Is(err, ErrResource) {
		t.Fatalf("error = %v, want resource error", err)
	}

	// The depth counter unwinds after failure.
	mustParse(t, it, "function fl(n) {if (n<2){1} else {n*fl(n-1)}}")

	if v := mustParse(t, it, "fl(10)"); v != Number(3628800) {
		t.Errorf("fl(10) = %v", v)
	}
}

func TestParse_Canceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	_, err := New().Parse(ctx, "for (i: 0..1000000) {i}")
	if !errors.Is(err, ErrInterrupted) || !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want interrupted", err)
	}
}

func TestParse_ArrayLimit(t *testing.T) {
	t.Parallel()

	for _, src := range []string{
		"var a = []; a[1e9] = 1",
		"var a = []; a[16777216] = 1",
	} {
		_, err := New().Parse(t.Context(), src)
		if !errors.Is(err, ErrArrayTooLarge) || !errors.Is(err, ErrResource) {
			t.Errorf("%s: error = %v, want array limit", src, err)
		}
	}

	// The last index below the limit is still readable.
	if v := mustParse(t, New(), "[1][16777215]"); v != Undefined {
		t.Errorf("read past end = %v, want undefined", v)
	}
}

func TestHostFunctions(t *testing.T) {
	t.Parallel()

	it := New()

	it.SetFunction("sum", func(_ context.Context, _ Value, args []Value) (Value, error) {
		total := 0.0

		for _, a := range args {
			n, ok := a.(Number)
			if !ok {
				return nil, ErrArgumentType
			}

			total += float64(n)
		}

		return Number(total), nil
	})

	it.SetFunction("nothing", func(context.Context, Value, []Value) (Value, error) {
		return nil, nil
	})

	if v := mustParse(t, it, "sum(1, 2, 3.5)"); v != Number(6.5) {
		t.Errorf("sum = %v, want 6.5", v)
	}

	if v := mustParse(t, it, "nothing()"); v != Undefined {
		t.Errorf("nothing() = %v, want undefined", v)
	}

	_, err := it.Parse(t.Context(), `sum("a")`)
	if !errors.Is(err, ErrArgumentType) {
		t.Errorf("error = %v, want argument type", err)
	}

	if fn, ok := it.GetFunction("sum"); !ok || !fn.IsNative() {
		t.Error("GetFunction(sum) not found")
	}

	mustParse(t, it, "function sq(x) {x * x}")

	fn, ok := it.GetFunction("sq")
	if !ok {
		t.Fatal("GetFunction(sq) not found")
	}

	v, err := it.Call(t.Context(), fn, 7)
	if err != nil || v != Number(49) {
		t.Errorf("Call(sq, 7) = %v, %v", v, err)
	}

	if _, err := it.Call(t.Context(), Number(1)); !errors.Is(err, ErrNotCallable) {
		t.Errorf("Call(1) error = %v", err)
	}
}

func TestHostFunction_ForeignError(t *testing.T) {
	t.Parallel()

	it := New()
	boom := errors.New("boom")

	it.SetFunction("fail", func(context.Context, Value, []Value) (Value, error) {
		return nil, boom
	})

	_, err := it.Parse(t.Context(), "fail()")
	if !errors.Is(err, boom) || !errors.Is(err, ErrHostFunction) {
		t.Fatalf("error = %v, want wrapped host error", err)
	}

	if !strings.Contains(err.Error(), "fail") {
		t.Errorf("error %q does not name the function", err)
	}
}

func TestBindings(t *testing.T) {
	t.Parallel()

	it := New(WithNamespace(MathNamespace()))
	mustParse(t, it, "var x = 1")

	scratch := it.NewBindings()
	scratch.Define("x", Number(10))

	v, err := it.ParseWith(t.Context(), "var y = sqrt(x * 10); function f() { y }", scratch)
	if err != nil {
		t.Fatal(err)
	}

	if v != Undefined {
		t.Errorf("ParseWith = %v, want undefined", v)
	}

	if y, ok := scratch.Lookup("y"); !ok || y != Number(10) {
		t.Errorf("scratch y = %v, %v", y, ok)
	}

	if _, ok := it.Get("y"); ok {
		t.Error("ParseWith leaked into the installed bindings")
	}

	if v := mustParse(t, it, "x"); v != Number(1) {
		t.Errorf("x = %v, want 1", v)
	}

	// Swapping installs scratch until the previous bindings are restored.
	prev := it.SetBindings(scratch)
	if it.Bindings() != scratch {
		t.Fatal("SetBindings did not install scratch")
	}

	if v := mustParse(t, it, "f() + x"); v != Number(20) {
		t.Errorf("f() + x = %v, want 20", v)
	}

	it.SetBindings(prev)

	if v := mustParse(t, it, "x"); v != Number(1) {
		t.Errorf("restored x = %v, want 1", v)
	}

	it.SetBindings(nil)

	if _, err := it.Parse(t.Context(), "x"); !errors.Is(err, ErrUndefinedVariable) {
		t.Errorf("fresh bindings error = %v, want %v", err, ErrUndefinedVariable)
	}

	if v := mustParse(t, it, "PI > 3"); v != Boolean(true) {
		t.Errorf("namespace lost after SetBindings(nil): %v", v)
	}
}

func TestGlobals(t *testing.T) {
	t.Parallel()

	it := New(WithNamespace(NewNamespace("Demo").Const("answer", Number(42))))
	mustParse(t, it, "var b = 1; var a = 2")

	got := strings.Join(it.Globals(), ",")
	if got != "Demo,a,answer,b" {
		t.Errorf("Globals() = %s", got)
	}

	mustParse(t, it, "var answer = 0")

	if v, _ := it.Get("answer"); v != Number(0) {
		t.Errorf("answer = %v, want shadowed 0", v)
	}

	if v := mustParse(t, it, "Demo.answer"); v != Number(42) {
		t.Errorf("Demo.answer = %v, want 42", v)
	}
}

func TestToInt32(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   float64
		want int32
	}{
		{0, 0},
		{1.9, 1},
		{-1.9, -1},
		{4294967296, 0},
		{2147483648, math.MinInt32},
		{math.NaN(), 0},
		{math.Inf(1), 0},
	}

	for _, tt := range tests {
		if got := toInt32(tt.in); got != tt.want {
			t.Errorf("toInt32(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func BenchmarkParse_Recursion(b *testing.B) {
	it := New()
	ctx := context.Background()

	if _, err := it.Parse(ctx, "function fl(n) {if (n<2){1} else {n*fl(n-1)}}"); err != nil {
		b.Fatal(err)
	}

	for b.Loop() {
		if _, err := it.Parse(ctx, "fl(20)"); err != nil {
			b.Fatal(err)
		}
	}
}
