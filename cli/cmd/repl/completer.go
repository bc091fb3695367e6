package repl

import (
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	"github.com/ardnew/esp/lang"
)

// ctrlCommands are the available commands, entered with a leading ':'.
var ctrlCommands = []string{"help", "list", "load", "clear", "quit"}

// keywords are offered alongside global names at the top level.
var keywords = []string{
	"var", "function", "if", "else", "for", "true", "false", "null",
	"undefined", "this", "new", "throw", "void", "instanceof",
}

// wordBounds returns the identifier at the cursor position and its byte
// boundaries within input. Returns an empty word when the cursor sits on a
// boundary (after a space, after a dot, start of line, etc.).
func wordBounds(input string, cursor int) (word string, start, end int) {
	if cursor > len(input) {
		cursor = len(input)
	}

	start = cursor

	for start > 0 {
		r, size := utf8.DecodeLastRuneInString(input[:start])
		if !isIdentRune(r) {
			break
		}

		start -= size
	}

	end = cursor

	for end < len(input) {
		r, size := utf8.DecodeRuneInString(input[end:])
		if !isIdentRune(r) {
			break
		}

		end += size
	}

	return input[start:end], start, end
}

// parentPath returns the member-access chain leading up to the current word.
// For input "x + server.http.ho" with the word "ho", the parent path is
// "server.http". Returns "" for top-level words.
func parentPath(input string, wordStart int) string {
	prefix := input[:wordStart]
	if !strings.HasSuffix(prefix, ".") {
		return ""
	}

	prefix = strings.TrimRight(prefix, ".")
	pos := len(prefix)

	for pos > 0 {
		r, size := utf8.DecodeLastRuneInString(prefix[:pos])
		if r != '.' && !isIdentRune(r) {
			break
		}

		pos -= size
	}

	return prefix[pos:]
}

// resolvePath evaluates a dotted identifier chain against the interpreter's
// globals without running any code. It returns nil when a segment is missing
// or a non-object is traversed.
func resolvePath(it *lang.Interpreter, path string) lang.Value {
	segments := strings.Split(path, ".")

	v, ok := it.Get(segments[0])
	if !ok {
		return nil
	}

	for _, seg := range segments[1:] {
		obj, isObj := v.(*lang.Object)
		if !isObj {
			return nil
		}

		if v, ok = obj.Lookup(seg); !ok {
			return nil
		}
	}

	return v
}

// childCandidates returns the names that are valid completions for the given
// parent path. For an empty parent, returns all global names and keywords.
// Otherwise it returns the own properties and builtin members of the value
// the path resolves to.
func childCandidates(it *lang.Interpreter, parent string) []string {
	if parent == "" {
		return slices.Concat(it.Globals(), keywords)
	}

	v := resolvePath(it, parent)
	if v == nil {
		return nil
	}

	var names []string

	if obj, ok := v.(*lang.Object); ok {
		names = obj.Keys()
	}

	for _, name := range lang.MemberNames(v.Type()) {
		if !slices.Contains(names, name) {
			names = append(names, name)
		}
	}

	return names
}

// computeMatches calculates the fuzzy match results for the word at the cursor.
// It returns the matches (ranked best-first), the candidate list, and the word
// boundaries. When the current word is empty at the top level, it returns nil
// matches. When the word is empty after a dot (member access), it returns all
// children as matches.
func (m model) computeMatches() (
	matches fuzzy.Matches,
	candidates []string,
	wordStart, wordEnd int,
) {
	input := m.input.Value()
	cursor := m.input.Position()

	word, wordStart, wordEnd := wordBounds(input, cursor)

	if isCommand(input) && len(m.pending) == 0 {
		// Only the command name itself completes.
		if word == "" || wordStart != 1 {
			return nil, nil, wordStart, wordEnd
		}

		return fuzzy.Find(word, ctrlCommands), ctrlCommands, wordStart, wordEnd
	}

	parent := parentPath(input, wordStart)
	candidates = childCandidates(m.interp, parent)

	if len(candidates) == 0 {
		return nil, nil, wordStart, wordEnd
	}

	// An empty word at the top level shows the hint instead. After a dot,
	// list every member so the user can browse.
	if word == "" {
		if parent == "" {
			return nil, nil, wordStart, wordEnd
		}

		matches = make(fuzzy.Matches, len(candidates))
		for i, c := range candidates {
			matches[i] = fuzzy.Match{Str: c, Index: i}
		}

		return matches, candidates, wordStart, wordEnd
	}

	return fuzzy.Find(word, candidates), candidates, wordStart, wordEnd
}

// renderCandidateBar builds the single-line completion bar, ellipsized to fit
// within the given terminal width. Each candidate is rendered with its matched
// characters highlighted. The selected candidate (when tabbing) uses the
// selected style.
func (m model) renderCandidateBar() string {
	if len(m.matches) == 0 || m.width <= 0 {
		return ""
	}

	const sep = "  "

	sepWidth := lipgloss.Width(sep)
	ellipsis := hintStyle.Render("...")
	ellipsisWidth := lipgloss.Width(ellipsis)

	var b strings.Builder

	used := 0

	for i, match := range m.matches {
		selected := m.tabActive && i == m.suggIdx
		rendered := renderCandidate(match, selected, m.isFunction(match.Str))
		entryWidth := lipgloss.Width(rendered)

		if i > 0 {
			entryWidth += sepWidth
		}

		if used+entryWidth+ellipsisWidth > m.width && i > 0 {
			b.WriteString(sep)
			b.WriteString(ellipsis)

			break
		}

		if i > 0 {
			b.WriteString(sep)
		}

		b.WriteString(rendered)

		used += entryWidth
	}

	return b.String()
}

// renderCandidate renders a single candidate with matched characters
// highlighted. Functions are displayed with a "()" suffix.
func renderCandidate(match fuzzy.Match, selected, function bool) string {
	baseStyle := suggestionStyle
	highlightStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("4")).
		Bold(true)

	if selected {
		baseStyle = selectedStyle
		highlightStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("4")).
			Bold(true)
	}

	var b strings.Builder

	for i, r := range match.Str {
		if slices.Contains(match.MatchedIndexes, i) {
			b.WriteString(highlightStyle.Render(string(r)))
		} else {
			b.WriteString(baseStyle.Render(string(r)))
		}
	}

	if function {
		b.WriteString(baseStyle.Render("()"))
	}

	return b.String()
}

// isFunction reports whether the candidate name, qualified by the parent
// path of the word being completed, refers to a function.
func (m model) isFunction(name string) bool {
	parent := parentPath(m.input.Value(), m.wordStart)
	if parent != "" {
		name = parent + "." + name
	}

	_, ok := resolvePath(m.interp, name).(*lang.Function)

	return ok
}
