package lang

import (
	"errors"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func TestExprNamespace(t *testing.T) {
	t.Parallel()

	it := New(WithNamespace(ExprNamespace()))

	tests := []struct {
		src  string
		want string
	}{
		{`Expr.upper("abc")`, `"ABC"`},
		{`Expr.len([1, 2, 3])`, "3"},
		{`Expr.trim("  x  ")`, `"x"`},
		{`Expr.eval("a + b * 2", {a: 1, b: 3})`, "7"},
		{`Expr.eval("name + '!'", {name: "esp"})`, `"esp!"`},
		{`Expr.eval("1 < 2")`, "true"},
	}

	for _, tt := range tests {
		if got := Inspect(mustParse(t, it, tt.src)); got != tt.want {
			t.Errorf("%s = %s, want %s", tt.src, got, tt.want)
		}
	}

	errs := []string{
		`Expr.eval("1 +")`,
		`Expr.eval("missing * 2", {})`,
		`Expr.upper(1)`,
	}

	for _, src := range errs {
		if _, err := it.Parse(t.Context(), src); !errors.Is(err, ErrExprEvaluate) {
			t.Errorf("%s error = %v, want %v", src, err, ErrExprEvaluate)
		}
	}

	if _, err := it.Parse(t.Context(), `Expr.eval("1", 2)`); !errors.Is(err, ErrArgumentType) {
		t.Errorf("non-object env error = %v", err)
	}

	if !ExprBuiltin("upper") || ExprBuiltin("nope") {
		t.Error("ExprBuiltin reported wrong membership")
	}
}

func TestSysNamespace(t *testing.T) {
	t.Parallel()

	it := New(WithNamespace(SysNamespace()))
	dir := t.TempDir()

	if err := it.SetGlobalValue("dir", dir); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		src  string
		want Value
	}{
		{"Sys.os", String(runtime.GOOS)},
		{`Sys.join("a", "b", "c")`, String(filepath.Join("a", "b", "c"))},
		{"Sys.exists(dir)", Boolean(true)},
		{"Sys.isDir(dir)", Boolean(true)},
		{"Sys.isFile(dir)", Boolean(false)},
		{`Sys.exists(Sys.join(dir, "missing"))`, Boolean(false)},
		{`Sys.rel(dir, Sys.join(dir, "x"))`, String("x")},
		{"Sys.args() instanceof Array", Boolean(true)},
		{"getenv instanceof Function", Boolean(true)},
	}

	for _, tt := range tests {
		if got := mustParse(t, it, tt.src); got != tt.want {
			t.Errorf("%s = %s, want %s", tt.src, Inspect(got), Inspect(tt.want))
		}
	}

	sep := string(filepath.ListSeparator)

	v := mustParse(t, it, `Sys.prefix("ESP_TEST_UNSET_PATH", "/opt/bin", "/usr/bin")`)
	if s := string(v.(String)); !strings.HasPrefix(s, "/opt/bin"+sep+"/usr/bin") {
		t.Errorf("prefix = %q", s)
	}

	v = mustParse(t, it,
		`Sys.prefixIf("ESP_TEST_UNSET_PATH", function(p) {p.length() > 0}, "/keep", "/also")`)
	if s := string(v.(String)); !strings.HasPrefix(s, "/keep"+sep+"/also") {
		t.Errorf("prefixIf = %q", s)
	}

	if _, err := it.Parse(t.Context(), `Sys.prefixIf("X", 1, "/a")`); !errors.Is(err, ErrArgumentType) {
		t.Errorf("prefixIf non-function error = %v", err)
	}
}

func TestNamespace_Shadowing(t *testing.T) {
	t.Parallel()

	it := New(WithNamespace(MathNamespace(), ExprNamespace()))

	// Later namespaces win unqualified names; qualified access is stable.
	if v := mustParse(t, it, "Math.abs(-1)"); v != Number(1) {
		t.Errorf("Math.abs(-1) = %v", v)
	}

	mustParse(t, it, "function abs(x) {0}")

	if v := mustParse(t, it, "abs(-1)"); v != Number(0) {
		t.Errorf("global abs should shadow namespace, got %v", v)
	}

	if got := len(it.Namespaces()); got != 2 {
		t.Errorf("Namespaces() = %d, want 2", got)
	}
}
