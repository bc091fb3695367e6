package cmd

import (
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/ardnew/esp/lang"
)

const messy = "var x=1;var y ?= 'a'\nfunction sq(n){n*n}\nsq(x+2)"

const canonical = "var x = 1\nvar y ?= \"a\"\nfunction sq(n) {\n  n * n\n}\nsq(x + 2)\n"

func TestFmt_ESP(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	file := writeFile(t, dir, "messy.esp", messy)

	tests := []struct {
		name  string
		files []string
		stdin string
		fmt   Fmt
		want  string
	}{
		{
			name:  "file",
			files: []string{file},
			fmt:   Fmt{Format: FormatESP, Indent: 2},
			want:  canonical,
		},
		{
			name:  "stdin by default",
			stdin: messy,
			fmt:   Fmt{Format: FormatESP, Indent: 2},
			want:  canonical,
		},
		{
			name:  "tabs",
			stdin: "function f() {1}",
			fmt:   Fmt{Format: FormatESP},
			want:  "function f() {\n\t1\n}\n",
		},
		{
			name:  "several files",
			stdin: "1+1",
			files: []string{file, "-"},
			fmt:   Fmt{Format: FormatESP, Indent: 2},
			want:  canonical + "1 + 1\n",
		},
		{
			name:  "write ignores stdin",
			stdin: "2*3",
			fmt:   Fmt{Format: FormatESP, Write: true},
			want:  "2 * 3\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s, out := newTestSession(t, tt.stdin)

			tt.fmt.Files = tt.files
			if err := tt.fmt.Run(t.Context(), s); err != nil {
				t.Fatalf("Run: %v", err)
			}

			if got := out.String(); got != tt.want {
				t.Errorf("output:\n%q\nwant:\n%q", got, tt.want)
			}
		})
	}

	// Formatting never changes the file unless asked to.
	if data, _ := os.ReadFile(file); string(data) != messy {
		t.Errorf("file modified: %q", data)
	}
}

func TestFmt_Write(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	file := writeFile(t, dir, "messy.esp", messy)

	s, out := newTestSession(t, "")

	f := Fmt{Format: FormatESP, Indent: 2, Write: true, Files: []string{file}}
	if err := f.Run(t.Context(), s); err != nil {
		t.Fatal(err)
	}

	if out.Len() != 0 {
		t.Errorf("wrote to stdout: %q", out.String())
	}

	data, err := os.ReadFile(file)
	if err != nil {
		t.Fatal(err)
	}

	if string(data) != canonical {
		t.Errorf("file = %q, want %q", data, canonical)
	}

	info, err := os.Stat(file)
	if err != nil {
		t.Fatal(err)
	}

	// Already canonical: no rewrite.
	if err := f.Run(t.Context(), s); err != nil {
		t.Fatal(err)
	}

	again, err := os.Stat(file)
	if err != nil {
		t.Fatal(err)
	}

	if !again.ModTime().Equal(info.ModTime()) {
		t.Error("canonical file was rewritten")
	}
}

func TestFmt_AST(t *testing.T) {
	t.Parallel()

	s, out := newTestSession(t, "var x = 1")

	if err := (&Fmt{Format: FormatAST}).Run(t.Context(), s); err != nil {
		t.Fatal(err)
	}

	got := out.String()
	if !strings.HasPrefix(got, "Program\n") || !strings.Contains(got, "Number 1 @1:9") {
		t.Errorf("AST output:\n%s", got)
	}
}

func TestFmt_Evaluated(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	lib := writeFile(t, dir, "lib.esp", "var greeting = 'hello'")
	doc := writeFile(t, dir, "doc.esp", "{message: greeting + ' world', sizes: [1, 2]}")

	s, out := newTestSession(t, "", lib)

	f := Fmt{Format: FormatJSON, Files: []string{doc}}
	if err := f.Run(t.Context(), s); err != nil {
		t.Fatal(err)
	}

	if got, want := out.String(), "{\"message\":\"hello world\",\"sizes\":[1,2]}\n"; got != want {
		t.Errorf("json = %q, want %q", got, want)
	}

	out.Reset()

	f.Format, f.Indent = FormatYAML, 2
	if err := f.Run(t.Context(), s); err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(out.String(), "message: hello world") {
		t.Errorf("yaml = %q", out.String())
	}
}

func TestFmt_Errors(t *testing.T) {
	t.Parallel()

	s, _ := newTestSession(t, "var = 1")

	err := (&Fmt{Format: FormatESP}).Run(t.Context(), s)
	if !errors.Is(err, ErrFormat) || !errors.Is(err, lang.ErrSyntax) {
		t.Errorf("syntax err = %v", err)
	}

	s, _ = newTestSession(t, "undefinedName")

	err = (&Fmt{Format: FormatJSON}).Run(t.Context(), s)
	if !errors.Is(err, ErrEvaluate) || !errors.Is(err, lang.ErrUndefinedVariable) {
		t.Errorf("runtime err = %v", err)
	}
}
