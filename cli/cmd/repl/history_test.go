package repl

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"testing"
)

func TestHistory(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "history")
	h := NewHistory(path)

	if err := h.Load(); err != nil {
		t.Fatalf("Load of missing file: %v", err)
	}

	for _, entry := range []string{"1 + 1", ":help", "  ", "var x = 2", "1 + 1", "1 + 1", "x\ny"} {
		if _, err := h.Write(entry); err != nil {
			t.Fatal(err)
		}
	}

	want := []string{":help", "var x = 2", "1 + 1", "x\ny"}
	if got := h.Entries(); !slices.Equal(got, want) {
		t.Errorf("entries = %q, want %q", got, want)
	}

	// A fresh history reads back the same entries.
	again := NewHistory(path)
	if err := again.Load(); err != nil {
		t.Fatal(err)
	}

	if got := again.Entries(); !slices.Equal(got, want) {
		t.Errorf("reloaded = %q, want %q", got, want)
	}

	if got, err := again.Get(3); err != nil || got != "x\ny" {
		t.Errorf("Get(3) = %q, %v", got, err)
	}

	for _, i := range []int{-1, again.Len()} {
		if _, err := again.Get(i); !errors.Is(err, ErrOutOfBounds) {
			t.Errorf("Get(%d) err = %v", i, err)
		}
	}
}

func TestHistory_Escaping(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "history")
	h := NewHistory(path)

	entries := []string{`"a\nb"`, "{\n  a: 1\n}", `\`}
	for _, e := range entries {
		if _, err := h.Write(e); err != nil {
			t.Fatal(err)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	if got, want := string(data), "\"a\\\\nb\"\n{\\n  a: 1\\n}\n\\\\\n"; got != want {
		t.Errorf("file = %q, want %q", got, want)
	}

	again := NewHistory(path)
	if err := again.Load(); err != nil {
		t.Fatal(err)
	}

	if got := again.Entries(); !slices.Equal(got, entries) {
		t.Errorf("reloaded = %q, want %q", got, entries)
	}
}

func TestHistory_Limit(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "history")
	h := NewHistory(path)

	for i := range maxHistory + 5 {
		if _, err := h.Write(strconv.Itoa(i)); err != nil {
			t.Fatal(err)
		}
	}

	if h.Len() != maxHistory {
		t.Fatalf("Len = %d, want %d", h.Len(), maxHistory)
	}

	if first, _ := h.Get(0); first != "5" {
		t.Errorf("oldest = %q, want 5", first)
	}

	again := NewHistory(path)
	if err := again.Load(); err != nil {
		t.Fatal(err)
	}

	if again.Len() != maxHistory {
		t.Errorf("reloaded Len = %d", again.Len())
	}
}

func TestHistory_InMemory(t *testing.T) {
	t.Parallel()

	h := NewHistory("")

	if err := h.Load(); err != nil {
		t.Fatal(err)
	}

	if _, err := h.Write("1"); err != nil {
		t.Fatal(err)
	}

	if h.Len() != 1 {
		t.Errorf("Len = %d", h.Len())
	}
}
