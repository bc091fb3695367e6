package lang_test

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/ardnew/esp/lang"
)

func Example() {
	ctx := context.Background()
	it := lang.New()

	if _, err := it.Parse(ctx, "function fl(n) {if (n<2){1} else {n*fl(n-1)}}"); err != nil {
		fmt.Println(err)

		return
	}

	v, _ := it.Parse(ctx, "fl(5)")
	fmt.Println(v)
	// Output: 120
}

func Example_hostFunction() {
	ctx := context.Background()
	it := lang.New()

	it.SetFunction("greet", func(_ context.Context, _ lang.Value, args []lang.Value) (lang.Value, error) {
		return lang.String("hello, " + args[0].String()), nil
	})

	_ = it.SetGlobalValue("who", "world")

	v, _ := it.Parse(ctx, "greet(who)")
	fmt.Println(v)
	// Output: hello, world
}

func Example_objects() {
	ctx := context.Background()
	it := lang.New()

	_, _ = it.Parse(ctx, "var obj = {x: 10, y: 20}")
	v, _ := it.Parse(ctx, "obj")

	obj := v.(*lang.Object)
	fmt.Println(obj.Get("x"), obj.Get("y"), obj.Keys())
	// Output: 10 20 [x y]
}

func Example_errors() {
	ctx := context.Background()
	it := lang.New()

	_, err := it.Parse(ctx, "var a = 1\nvar b = a + nope")
	fmt.Println(errors.Is(err, lang.ErrRuntime), errors.Is(err, lang.ErrUndefinedVariable))

	var e *lang.Error
	if errors.As(err, &e) {
		fmt.Print(e.Snippet())
	}

	_, err = it.Parse(ctx, "This is prose, not code.")
	fmt.Println(errors.Is(err, lang.ErrSyntax))

	v, _ := it.Parse(ctx, "a")
	fmt.Println(v)
	// Output:
	// true true
	//   2 | var b = a + nope
	//                   ^
	// true
	// 1
}

func Example_capability() {
	ctx := context.Background()
	it := lang.New(lang.WithNamespace(lang.MathNamespace()))

	v, _ := it.Parse(ctx, "{valueAt(x) {x * x - 2}, derivAt(x) {2 * x}}")

	f, _ := lang.AsRealFunction(v)
	_, ok := f.(lang.DifferentiableFunction)
	fmt.Println(ok)

	r, _ := it.Parse(ctx, "Math.round(integrate(function(x) {x * x}, 0, 3))")
	fmt.Println(r)
	// Output:
	// true
	// 9
}

func ExampleProgram_Format() {
	prog, _ := lang.Compile("var o={a:1,b:[1,2]};for(i:0..2){o.a=o.a+i}")
	_ = prog.Format(os.Stdout, 2)
	// Output:
	// var o = {a: 1, b: [1, 2]}
	// for (i: 0 .. 2) {
	//   o.a = o.a + i
	// }
}
