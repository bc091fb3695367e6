package lang

import (
	"context"
	"errors"
	"testing"
	"time"
	"unicode/utf8"
)

// FuzzCompile checks that the parser never panics and that formatted
// output always parses again.
func FuzzCompile(f *testing.F) {
	f.Add("10.0 + 20.0")
	f.Add("var array = [10, 20, 30]; array[1]")
	f.Add("function fl(n) {if (n<2){1} else {n*fl(n-1)}}")
	f.Add("var array1 = new []; for (i: 0..10) {array1[i]=i*i}; array1")
	f.Add("var obj = {x: 10, y: 20, m(a) {this.x + a}}")
	f.Add("var.a ? -b : !c instanceof Boolean")
	f.Add("/* comment */ 'str\\u0041' // trailing")
	f.Add("This file contains text that is not valid code.")

	f.Fuzz(func(t *testing.T, input string) {
		if !utf8.ValidString(input) {
			t.Skip("invalid UTF-8")
		}

		prog, err := Compile(input)
		if err != nil {
			if !errors.Is(err, ErrSyntax) && !errors.Is(err, ErrResource) {
				t.Errorf("Compile(%q) returned unclassified error %v", input, err)
			}

			return
		}

		formatted := prog.FormatString()
		if _, err := Compile(formatted); err != nil {
			t.Errorf("formatted %q does not compile: %v\n%s", input, err, formatted)
		}
	})
}

// FuzzParse checks that evaluation of arbitrary programs terminates with a
// value or a classified error.
func FuzzParse(f *testing.F) {
	f.Add("1 + 2 * 3")
	f.Add("function f(n) {f(n)}; f(1)")
	f.Add(`var o = {}; o.o = o; o`)
	f.Add("[1, 2, 3].map(function(x) {x * x}).join()")
	f.Add(`throw "x"`)

	f.Fuzz(func(t *testing.T, input string) {
		if !utf8.ValidString(input) {
			t.Skip("invalid UTF-8")
		}

		ctx, cancel := context.WithTimeout(t.Context(), time.Second)
		defer cancel()

		v, err := New(WithMaxDepth(64)).Parse(ctx, input)
		if err != nil {
			if !errors.Is(err, ErrSyntax) && !errors.Is(err, ErrRuntime) && !errors.Is(err, ErrResource) {
				t.Errorf("Parse(%q) returned unclassified error %v", input, err)
			}

			return
		}

		_ = Inspect(v)
	})
}
