package repl

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"

	"github.com/ardnew/esp/lang"
)

// nativeParams names the parameters of the native namespace functions,
// keyed by qualified name. Script functions carry their own parameter names.
var nativeParams = map[string][]string{
	"Math.sin":       {"x"},
	"Math.cos":       {"x"},
	"Math.tan":       {"x"},
	"Math.asin":      {"x"},
	"Math.acos":      {"x"},
	"Math.atan":      {"x"},
	"Math.atan2":     {"y", "x"},
	"Math.sinh":      {"x"},
	"Math.cosh":      {"x"},
	"Math.tanh":      {"x"},
	"Math.sqrt":      {"x"},
	"Math.cbrt":      {"x"},
	"Math.hypot":     {"x", "y"},
	"Math.abs":       {"x"},
	"Math.exp":       {"x"},
	"Math.log":       {"x"},
	"Math.log10":     {"x"},
	"Math.pow":       {"x", "y"},
	"Math.floor":     {"x"},
	"Math.ceil":      {"x"},
	"Math.round":     {"x"},
	"Math.sign":      {"x"},
	"Math.min":       {"...n"},
	"Math.max":       {"...n"},
	"Math.random":    {},
	"Math.integrate": {"f", "a", "b", "n"},
	"Math.root":      {"f", "x0"},

	"Sys.getenv":   {"key"},
	"Sys.cwd":      {},
	"Sys.args":     {},
	"Sys.exists":   {"path"},
	"Sys.isDir":    {"path"},
	"Sys.isFile":   {"path"},
	"Sys.abs":      {"path"},
	"Sys.join":     {"...elem"},
	"Sys.rel":      {"base", "target"},
	"Sys.prefix":   {"key", "...items"},
	"Sys.prefixIf": {"key", "predicate", "...items"},

	"Expr.eval":        {"source", "env"},
	"Expr.len":         {"v"},
	"Expr.abs":         {"v"},
	"Expr.ceil":        {"n"},
	"Expr.floor":       {"n"},
	"Expr.round":       {"n"},
	"Expr.int":         {"v"},
	"Expr.float":       {"v"},
	"Expr.string":      {"v"},
	"Expr.type":        {"v"},
	"Expr.trim":        {"string", "chars"},
	"Expr.trimPrefix":  {"string", "prefix"},
	"Expr.trimSuffix":  {"string", "suffix"},
	"Expr.upper":       {"string"},
	"Expr.lower":       {"string"},
	"Expr.split":       {"string", "separator"},
	"Expr.splitAfter":  {"string", "separator"},
	"Expr.replace":     {"string", "old", "new"},
	"Expr.repeat":      {"string", "n"},
	"Expr.indexOf":     {"string", "substring"},
	"Expr.lastIndexOf": {"string", "substring"},
	"Expr.hasPrefix":   {"string", "prefix"},
	"Expr.hasSuffix":   {"string", "suffix"},
	"Expr.join":        {"array", "separator"},
	"Expr.sum":         {"array"},
	"Expr.mean":        {"array"},
	"Expr.median":      {"array"},
	"Expr.min":         {"...v"},
	"Expr.max":         {"...v"},
	"Expr.first":       {"array"},
	"Expr.last":        {"array"},
	"Expr.reverse":     {"array"},
	"Expr.uniq":        {"array"},
	"Expr.flatten":     {"array"},
	"Expr.concat":      {"...arrays"},
	"Expr.keys":        {"map"},
	"Expr.values":      {"map"},
	"Expr.toJSON":      {"v"},
	"Expr.fromJSON":    {"json"},
	"Expr.toBase64":    {"string"},
	"Expr.fromBase64":  {"string"},
	"Expr.toPairs":     {"map"},
	"Expr.fromPairs":   {"pairs"},
	"Expr.bitand":      {"a", "b"},
	"Expr.bitor":       {"a", "b"},
	"Expr.bitxor":      {"a", "b"},
	"Expr.bitnand":     {"a", "b"},
	"Expr.bitnot":      {"a"},
	"Expr.bitshl":      {"a", "n"},
	"Expr.bitshr":      {"a", "n"},
	"Expr.bitushr":     {"a", "n"},
}

// Signature hint styles.
var (
	signatureStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	signatureNameStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("6")).
				Bold(true)
	currentParamStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("11")).
				Bold(true)
	signatureSeparatorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// functionCall represents a detected function call in the input.
type functionCall struct {
	name     string // callee path as written (e.g., "Math.pow")
	argIndex int    // current argument index (0-based)
	inCall   bool   // true if cursor is inside parameter list
}

// isIdentRune reports whether r may appear in an ESP identifier.
func isIdentRune(r rune) bool {
	return r == '_' || r == '$' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// detectFunctionCall analyzes the input to determine if the cursor is inside
// a function call's parameter list. It returns the callee name, current
// argument index, and whether we're inside a call.
func detectFunctionCall(input string, cursor int) functionCall {
	if cursor > len(input) {
		cursor = len(input)
	}

	// Scan backward from cursor for the unmatched opening paren.
	depth := 0
	open := -1

	for i := cursor; i > 0; {
		r, size := utf8.DecodeLastRuneInString(input[:i])
		i -= size

		if r == ')' {
			depth++

			continue
		}

		if r == '(' {
			if depth == 0 {
				open = i

				break
			}

			depth--
		}
	}

	if open == -1 {
		return functionCall{}
	}

	// Callee: the identifier chain immediately before '('.
	start := open

	for start > 0 {
		r, size := utf8.DecodeLastRuneInString(input[:start])
		if r != '.' && !isIdentRune(r) {
			break
		}

		start -= size
	}

	name := strings.Trim(input[start:open], ".")
	if name == "" {
		return functionCall{}
	}

	// Count commas at depth 0 between the paren and the cursor, ignoring
	// brackets and braces of nested literals.
	argIndex := 0
	depth = 0

	for _, r := range input[open+1 : cursor] {
		switch r {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case ',':
			if depth == 0 {
				argIndex++
			}
		}
	}

	return functionCall{name: name, argIndex: argIndex, inCall: true}
}

// getSignature resolves the callee path against the interpreter and returns
// its signature and parameter names. It returns an empty signature when the
// path does not name a function.
func getSignature(
	it *lang.Interpreter,
	name string,
) (signature string, params []string) {
	fn, ok := resolvePath(it, name).(*lang.Function)
	if !ok {
		return "", nil
	}

	params = fn.Params()

	if fn.IsNative() {
		qualified, found := nativeName(it, fn)
		if !found {
			return name + "(...)", []string{"..."}
		}

		if params, found = nativeParams[qualified]; !found {
			return name + "(...)", []string{"..."}
		}
	}

	return formatSignature(name, params), params
}

// nativeName returns the qualified name of a namespace member.
func nativeName(it *lang.Interpreter, fn *lang.Function) (string, bool) {
	for _, ns := range it.Namespaces() {
		for _, key := range ns.Members.Keys() {
			if f, ok := ns.Members.Get(key).(*lang.Function); ok && f == fn {
				return ns.Name + "." + key, true
			}
		}
	}

	return "", false
}

// formatSignature formats a function signature with parameter names.
func formatSignature(name string, params []string) string {
	return name + "(" + strings.Join(params, ", ") + ")"
}

// renderSignatureHint renders the function signature with the current
// parameter highlighted.
func renderSignatureHint(
	signature string,
	params []string,
	currentArgIdx int,
) string {
	if signature == "" {
		return ""
	}

	openParen := strings.Index(signature, "(")
	if openParen == -1 {
		return signatureStyle.Render(signature)
	}

	funcName := signature[:openParen]

	if len(params) == 0 {
		return signatureNameStyle.Render(funcName) +
			signatureStyle.Render("()")
	}

	var b strings.Builder
	b.WriteString(signatureNameStyle.Render(funcName))
	b.WriteString(signatureStyle.Render("("))

	for i, param := range params {
		if i > 0 {
			b.WriteString(signatureSeparatorStyle.Render(", "))
		}

		// A variadic parameter stays highlighted for every later argument.
		variadic := strings.HasPrefix(param, "...")

		if (variadic && currentArgIdx >= i) || (!variadic && currentArgIdx == i) {
			b.WriteString(currentParamStyle.Render(param))
		} else {
			b.WriteString(signatureStyle.Render(param))
		}
	}

	b.WriteString(signatureStyle.Render(")"))

	return b.String()
}
