package cmd

import (
	"errors"
	"strings"
	"testing"

	"github.com/ardnew/esp/lang"
)

func TestEval(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	lib := writeFile(t, dir, "lib.esp", `
function fl(n) { if (n < 2) { 1 } else { n * fl(n - 1) } }
var shapes = { square(x) { x * x } }
`)

	tests := []struct {
		name    string
		sources []string
		stdin   string
		eval    Eval
		want    string
	}{
		{
			name: "expression",
			eval: Eval{Output: OutputNative, Expr: []string{"1 + 2 * 3"}},
			want: "7\n",
		},
		{
			name: "expressions share globals",
			eval: Eval{Output: OutputNative, Expr: []string{"var x = 4", "x * x"}},
			want: "16\n",
		},
		{
			name:    "sources then expression",
			sources: []string{lib},
			eval:    Eval{Output: OutputNative, Expr: []string{"fl(5) + shapes.square(2)"}},
			want:    "124\n",
		},
		{
			name:    "source result",
			sources: []string{lib},
			eval:    Eval{Output: OutputNative},
			want:    "undefined\n",
		},
		{
			name:  "stdin",
			stdin: "var a = [1, 2]; a.add(3); a",
			eval:  Eval{Output: OutputNative},
			want:  "[1, 2, 3]\n",
		},
		{
			name:  "stdin ignored with expressions",
			stdin: "this is not ESP",
			eval:  Eval{Output: OutputNative, Expr: []string{`"ok"`}},
			want:  "\"ok\"\n",
		},
		{
			name: "namespace",
			eval: Eval{Output: OutputNative, Expr: []string{"sqrt(16) + Math.abs(-1)"}},
			want: "5\n",
		},
		{
			name: "json",
			eval: Eval{Output: OutputJSON, Expr: []string{`{name: "esp", n: [1, 2]}`}},
			want: "{\"name\":\"esp\",\"n\":[1,2]}\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s, out := newTestSession(t, tt.stdin, tt.sources...)

			if err := tt.eval.Run(t.Context(), s); err != nil {
				t.Fatalf("Run: %v", err)
			}

			if got := out.String(); got != tt.want {
				t.Errorf("output = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEval_YAML(t *testing.T) {
	t.Parallel()

	s, out := newTestSession(t, "")

	e := Eval{Output: OutputYAML, Indent: 2, Expr: []string{`{name: "esp", tags: ["a", "b"]}`}}
	if err := e.Run(t.Context(), s); err != nil {
		t.Fatal(err)
	}

	for _, want := range []string{"name: esp", "tags:", "- a", "- b"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("missing %q in:\n%s", want, out.String())
		}
	}
}

func TestEval_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		expr  string
		stdin string
		cause error
	}{
		{"undefined", "nope + 1", "", lang.ErrUndefinedVariable},
		{"syntax", "1 +", "", lang.ErrSyntax},
		{"type", "1 && true", "", lang.ErrRuntime},
		{"stdin", "", "throw 'boom'", lang.ErrThrown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s, out := newTestSession(t, tt.stdin)

			var e Eval
			if tt.expr != "" {
				e.Expr = []string{tt.expr}
			}

			err := e.Run(t.Context(), s)
			if !errors.Is(err, ErrEvaluate) || !errors.Is(err, tt.cause) {
				t.Errorf("err = %v, want %v", err, tt.cause)
			}

			if out.Len() != 0 {
				t.Errorf("wrote output on error: %q", out.String())
			}
		})
	}
}
