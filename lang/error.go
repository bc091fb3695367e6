package lang

import (
	"errors"
	"log/slog"
	"strconv"
	"strings"
)

// Kind classifies an [Error] as a syntax, runtime, or resource failure.
type Kind int

const (
	KindNone     Kind = iota // none
	KindSyntax               // syntax
	KindRuntime              // runtime
	KindResource             // resource
)

// String returns the lower-case name of the kind.
func (k Kind) String() string {
	switch k {
	case KindSyntax:
		return "syntax"
	case KindRuntime:
		return "runtime"
	case KindResource:
		return "resource"
	default:
		return "none"
	}
}

// Error kinds. Any error of the matching [Kind] satisfies errors.Is against
// one of these.
var (
	ErrSyntax   = newKindError(KindSyntax)
	ErrRuntime  = newKindError(KindRuntime)
	ErrResource = newKindError(KindResource)
)

// Predefined errors (sentinel values).
var (
	ErrInvalidCharacter    = NewError(KindSyntax, "invalid character")
	ErrInvalidNumber       = NewError(KindSyntax, "invalid number literal")
	ErrInvalidEscape       = NewError(KindSyntax, "invalid escape sequence")
	ErrUnterminatedString  = NewError(KindSyntax, "unterminated string literal")
	ErrUnterminatedComment = NewError(KindSyntax, "unterminated comment")
	ErrUnexpectedToken     = NewError(KindSyntax, "unexpected token")
	ErrMissingSeparator    = NewError(KindSyntax, "missing statement separator")
	ErrInvalidAssignment   = NewError(KindSyntax, "invalid assignment target")
	ErrNotCallableSyntax   = NewError(KindSyntax, "literal is not callable")
	ErrReadInput           = NewError(KindResource, "failed to read input")

	ErrUndefinedVariable    = NewError(KindRuntime, "undefined variable")
	ErrUndeclaredAssignment = NewError(KindRuntime, "assignment to undeclared variable")
	ErrNotCallable          = NewError(KindRuntime, "value is not callable")
	ErrTypeMismatch         = NewError(KindRuntime, "type mismatch")
	ErrInvalidOperand       = NewError(KindRuntime, "invalid operand")
	ErrNotBoolean           = NewError(KindRuntime, "condition is not a boolean")
	ErrNoSuchMember         = NewError(KindRuntime, "no such member")
	ErrInvalidIndex         = NewError(KindRuntime, "invalid index")
	ErrUnknownType          = NewError(KindRuntime, "unknown type name")
	ErrThrown               = NewError(KindRuntime, "uncaught exception")
	ErrArgumentCount        = NewError(KindRuntime, "wrong number of arguments")
	ErrArgumentType         = NewError(KindRuntime, "invalid argument type")
	ErrHostFunction         = NewError(KindRuntime, "native function failed")
	ErrInvalidHostValue     = NewError(KindRuntime, "unsupported host value")
	ErrMissingCapability    = NewError(KindRuntime, "value lacks required member")

	ErrMaxDepthExceeded = NewError(KindResource, "maximum call depth exceeded")
	ErrMaxNesting       = NewError(KindResource, "maximum nesting depth exceeded")
	ErrInterrupted      = NewError(KindResource, "evaluation interrupted")
)

// Position identifies a location in source text. Line and Column are 1-based;
// Offset is a 0-based byte offset.
type Position struct {
	Offset int
	Line   int
	Column int
}

// String returns "line:column".
func (p Position) String() string {
	return strconv.Itoa(p.Line) + ":" + strconv.Itoa(p.Column)
}

// IsValid reports whether the position refers to a source location.
func (p Position) IsValid() bool { return p.Line > 0 }

// Error represents an interpreter error with optional structured logging
// attributes and source position.
// It implements both error and slog.LogValuer interfaces.
type Error struct {
	root   *Error // sentinel this error derives from
	err    error  // Wrapped error (for errors.Unwrap)
	pos    *Position
	msg    string
	source string
	attrs  []slog.Attr
	kind   Kind
	isKind bool
}

// NewError creates a new sentinel Error of the given kind.
func NewError(kind Kind, msg string) *Error {
	e := &Error{kind: kind, msg: msg}
	e.root = e

	return e
}

func newKindError(kind Kind) *Error {
	e := NewError(kind, kind.String()+" error")
	e.isKind = true

	return e
}

// WrapError converts err into an [*Error], returning err itself if it already
// is one. Foreign errors become runtime errors.
func WrapError(err error) *Error {
	var ee *Error
	if errors.As(err, &ee) {
		return ee
	}

	return ErrHostFunction.Wrap(err)
}

// Kind returns the error's classification.
func (e *Error) Kind() Kind { return e.kind }

// Position returns the source position, if known.
func (e *Error) Position() (Position, bool) {
	if e.pos == nil {
		return Position{}, false
	}

	return *e.pos, true
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteString(e.kind.String())
	b.WriteString(" error")

	if e.pos != nil {
		b.WriteString(" at ")
		b.WriteString(e.pos.String())
	}

	if e.msg != "" && !e.isKind {
		b.WriteString(": ")
		b.WriteString(e.msg)
	}

	for i, a := range e.attrs {
		if i == 0 {
			b.WriteString(" (")
		} else {
			b.WriteString(", ")
		}

		b.WriteString(a.Key)
		b.WriteByte('=')
		b.WriteString(a.Value.String())

		if i == len(e.attrs)-1 {
			b.WriteByte(')')
		}
	}

	if e.err != nil {
		b.WriteString(": ")
		b.WriteString(e.err.Error())
	}

	return b.String()
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *Error) Unwrap() error { return e.err }

// Is reports whether target is the sentinel e was derived from, or the
// kind error (ErrSyntax, ErrRuntime, ErrResource) matching e's kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}

	if t.isKind {
		return t.kind == e.kind
	}

	return t.root == e.root
}

// LogValue implements slog.LogValuer for rich structured logging.
func (e *Error) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, len(e.attrs)+4)

	attrs = append(attrs, slog.String("kind", e.kind.String()))

	if e.msg != "" {
		attrs = append(attrs, slog.String("error", e.msg))
	}

	if e.pos != nil {
		attrs = append(attrs, slog.String("position", e.pos.String()))
	}

	if e.err != nil {
		attrs = append(attrs, slog.String("cause", e.err.Error()))
	}

	return slog.GroupValue(append(attrs, e.attrs...)...)
}

func (e *Error) clone() *Error {
	c := *e
	c.attrs = append([]slog.Attr(nil), e.attrs...)

	return &c
}

// Wrap creates a new Error wrapping another error.
func (e *Error) Wrap(err error) *Error {
	c := e.clone()
	c.err = err

	return c
}

// With adds attributes to the error for structured logging.
// This creates a new Error instance to maintain immutability.
func (e *Error) With(attrs ...slog.Attr) *Error {
	c := e.clone()
	c.attrs = append(c.attrs, attrs...)

	return c
}

// At returns a copy of e positioned at pos. An existing position is kept so
// the innermost location wins.
func (e *Error) At(pos Position) *Error {
	if e.pos != nil || !pos.IsValid() {
		return e
	}

	c := e.clone()
	c.pos = &pos

	return c
}

// withSource attaches the program text used to render [Error.Snippet].
func (e *Error) withSource(src string) *Error {
	c := e.clone()
	c.source = src

	return c
}

// Snippet renders the offending source line with a caret under the error
// column. It returns "" when either the position or source is unknown.
func (e *Error) Snippet() string {
	if e.pos == nil || e.source == "" {
		return ""
	}

	lines := strings.Split(e.source, "\n")
	if e.pos.Line < 1 || e.pos.Line > len(lines) {
		return ""
	}

	num := strconv.Itoa(e.pos.Line)

	var b strings.Builder

	b.WriteString("  ")
	b.WriteString(num)
	b.WriteString(" | ")
	b.WriteString(strings.TrimRight(lines[e.pos.Line-1], "\r"))
	b.WriteByte('\n')

	// 2 leading spaces + " | "
	b.WriteString(strings.Repeat(" ", len(num)+5))

	if e.pos.Column > 1 {
		b.WriteString(strings.Repeat(" ", e.pos.Column-1))
	}

	b.WriteString("^\n")

	return b.String()
}

// errorAt converts err to an [*Error] positioned at pos.
func errorAt(err error, pos Position) *Error {
	return WrapError(err).At(pos)
}
