package repl

import (
	"slices"
	"testing"

	"github.com/ardnew/esp/lang"
	"github.com/ardnew/esp/log"
)

// newTestInterp returns an interpreter with Math and Sys installed and a few
// script bindings for completion and signature lookups.
func newTestInterp(t testing.TB) *lang.Interpreter {
	t.Helper()

	it := lang.New(lang.WithNamespace(lang.MathNamespace(), lang.SysNamespace()))

	_, err := it.Parse(t.Context(), `
var greeting = "hello"
function add(x, y) { x + y }
function now() { 1 }
var nested = {
	multiply(a, b) { a * b },
	inner: { depth: 2 }
}
`)
	if err != nil {
		t.Fatal(err)
	}

	return it
}

func TestWordBounds(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		cursor    int
		wantWord  string
		wantStart int
		wantEnd   int
	}{
		{"simple", "foo", 3, "foo", 0, 3},
		{"dot_separated", "bar.baz", 7, "baz", 4, 7},
		{"after_plus", "a + fo", 6, "fo", 4, 6},
		{"after_paren", "double(fo", 9, "fo", 7, 9},
		{"after_comma", "add(a, fo", 9, "fo", 7, 9},
		{"in_ternary", "x ? fo", 6, "fo", 4, 6},
		{"after_comparison", "a > fo", 6, "fo", 4, 6},
		{"empty_at_boundary", "a + ", 4, "", 4, 4},
		{"mid_word", "foobar", 3, "foobar", 0, 6},
		{"at_start", "foo", 0, "foo", 0, 3},
		{"between_operators", "a+b", 2, "b", 2, 3},
		{"past_end", "foo", 10, "foo", 0, 3},
		// Hyphens are the minus operator.
		{"minus", "total-co", 8, "co", 6, 8},
		{"dollar_and_underscore", "$tmp_va", 7, "$tmp_va", 0, 7},
		{"command", ":he", 3, "he", 1, 3},
		// After dot is an empty word (for triggering child completions).
		{"empty_after_dot", "config.", 7, "", 7, 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			word, start, end := wordBounds(tt.input, tt.cursor)
			if word != tt.wantWord || start != tt.wantStart || end != tt.wantEnd {
				t.Errorf("wordBounds(%q, %d) = (%q, %d, %d), want (%q, %d, %d)",
					tt.input, tt.cursor, word, start, end,
					tt.wantWord, tt.wantStart, tt.wantEnd)
			}
		})
	}
}

func TestParentPath(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wordStart int
		want      string
	}{
		{"top_level", "fo", 0, ""},
		{"simple_chain", "bar.baz.", 8, "bar.baz"},
		{"after_operator", "foo + bar.baz.", 14, "bar.baz"},
		{"after_paren", "(bar.baz.", 9, "bar.baz"},
		{"no_chain", "a + ", 4, ""},
		{"deep_chain", "a.b.c.", 6, "a.b.c"},
		{"after_assign", "x = a.b.", 8, "a.b"},
		{"partial_word", "Math.sq", 5, "Math"},
		{"minus_breaks_chain", "n-Math.", 7, "Math"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parentPath(tt.input, tt.wordStart)
			if got != tt.want {
				t.Errorf("parentPath(%q, %d) = %q, want %q",
					tt.input, tt.wordStart, got, tt.want)
			}
		})
	}
}

func TestChildCandidates(t *testing.T) {
	it := newTestInterp(t)

	top := childCandidates(it, "")
	for _, want := range []string{"add", "greeting", "nested", "Math", "sqrt", "Sys", "var", "function"} {
		if !slices.Contains(top, want) {
			t.Errorf("top-level candidates missing %q", want)
		}
	}

	tests := []struct {
		parent string
		want   []string
	}{
		{"nested", []string{"multiply", "inner"}},
		{"nested.inner", []string{"depth"}},
		{"Math", []string{"PI", "pow", "integrate"}},
		{"greeting", lang.MemberNames(lang.TypeString)},
		{"nested.multiply", lang.MemberNames(lang.TypeFunction)},
	}

	for _, tt := range tests {
		got := childCandidates(it, tt.parent)
		for _, want := range tt.want {
			if !slices.Contains(got, want) {
				t.Errorf("childCandidates(%q) = %q, missing %q", tt.parent, got, want)
			}
		}
	}

	for _, parent := range []string{"missing", "nested.missing", "greeting.length.x"} {
		if got := childCandidates(it, parent); got != nil {
			t.Errorf("childCandidates(%q) = %q, want nil", parent, got)
		}
	}
}

func TestComputeMatches(t *testing.T) {
	m := newModel(t.Context(), newTestInterp(t), NewHistory(""), log.Logger{})

	tests := []struct {
		input string
		want  string // best match, or "" for none
	}{
		{"nested.mu", "multiply"},
		{"1 + gree", "greeting"},
		{"Math.P", "PI"},
		{":he", "help"},
		{":load he", ""},
		{"", ""},
		{"zzzz", ""},
	}

	for _, tt := range tests {
		m.input.SetValue(tt.input)
		m.input.SetCursor(len(tt.input))

		matches, _, _, _ := m.computeMatches()

		var got string
		if len(matches) > 0 {
			got = matches[0].Str
		}

		if got != tt.want {
			t.Errorf("computeMatches(%q) best = %q, want %q", tt.input, got, tt.want)
		}
	}

	// After a dot every member is listed.
	m.input.SetValue("nested.")
	m.input.SetCursor(len("nested."))

	matches, _, start, end := m.computeMatches()
	if len(matches) < 2 || start != 7 || end != 7 {
		t.Errorf("member listing = %d matches at [%d, %d)", len(matches), start, end)
	}
}

func TestReplaceCurrentWord(t *testing.T) {
	m := newModel(t.Context(), newTestInterp(t), NewHistory(""), log.Logger{})

	m.input.SetValue("nested.mu + 1")
	m.input.SetCursor(9)
	refreshMatches(&m, false)

	replaceCurrentWord(&m, m.matches[0].Str)

	if got := m.input.Value(); got != "nested.multiply + 1" {
		t.Errorf("value = %q", got)
	}

	if got := m.input.Position(); got != len("nested.multiply") {
		t.Errorf("cursor = %d", got)
	}
}
