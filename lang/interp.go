package lang

import (
	"context"
	"log/slog"
	"time"

	"github.com/ardnew/esp/log"
)

// DefaultMaxDepth is the default bound on nested function calls.
const DefaultMaxDepth = 1000

// Interpreter evaluates ESP programs against a persistent global
// environment. State declared by one [Interpreter.Parse] call is visible to
// later calls on the same instance.
//
// An Interpreter is not safe for concurrent use. Callers sharing one across
// goroutines must serialize access, or use one instance per goroutine.
type Interpreter struct {
	logger     log.Logger
	root       *Env // namespace members
	global     *Env
	namespaces []*Namespace
	maxDepth   int
	depth      int
}

// Option configures an [Interpreter].
type Option func(*Interpreter)

// WithNamespace installs the members of each namespace so they resolve by
// unqualified name, and binds the namespace object itself under its name.
// Globals shadow namespace members.
func WithNamespace(ns ...*Namespace) Option {
	return func(it *Interpreter) {
		it.namespaces = append(it.namespaces, ns...)
	}
}

// WithLogger sets the logger used to trace compilation and evaluation.
func WithLogger(logger log.Logger) Option {
	return func(it *Interpreter) {
		it.logger = logger
	}
}

// WithMaxDepth bounds the number of nested function calls. Exceeding it
// fails the evaluation with a resource error.
func WithMaxDepth(depth int) Option {
	return func(it *Interpreter) {
		if depth > 0 {
			it.maxDepth = depth
		}
	}
}

// New returns an interpreter with an empty global environment.
func New(opts ...Option) *Interpreter {
	it := &Interpreter{maxDepth: DefaultMaxDepth}

	for _, opt := range opts {
		opt(it)
	}

	it.root = newEnv(nil, true)
	it.global = newEnv(it.root, true)

	for _, ns := range it.namespaces {
		for _, key := range ns.Members.Keys() {
			it.root.Define(key, ns.Members.Get(key))
		}

		if ns.Name != "" {
			it.root.Define(ns.Name, ns.Members)
		}
	}

	return it
}

// Namespaces returns the namespaces installed at construction.
func (it *Interpreter) Namespaces() []*Namespace { return it.namespaces }

// Parse compiles src and evaluates it against the global environment,
// returning the value of the last expression statement.
//
// Syntax errors leave the environment untouched. A runtime error stops
// evaluation at the failing statement; bindings made before it remain.
func (it *Interpreter) Parse(ctx context.Context, src string) (Value, error) {
	prog, err := compileCached(ctx, it.logger, src)
	if err != nil {
		it.logger.DebugContext(ctx, "compile failed", slog.Any("error", err))

		return nil, err
	}

	return it.Run(ctx, prog)
}

// Run evaluates a compiled program against the global environment.
func (it *Interpreter) Run(ctx context.Context, prog *Program) (Value, error) {
	start := time.Now()
	ev := &evaluator{ctx: ctx, it: it}

	v, err := ev.statements(prog.Body, it.global)

	it.logger.TraceContext(ctx, "evaluate",
		slog.Int("statements", len(prog.Body)),
		slog.Duration("elapsed", time.Since(start)),
		slog.Bool("ok", err == nil),
	)

	if err != nil {
		e := WrapError(err).withSource(prog.Source)
		it.logger.DebugContext(ctx, "evaluation failed", slog.Any("error", e))

		return nil, e
	}

	return v, nil
}

// Bindings returns the global environment scripts currently evaluate in.
func (it *Interpreter) Bindings() *Env { return it.global }

// NewBindings returns an empty global environment over this interpreter's
// namespaces, for use with [Interpreter.SetBindings] or
// [Interpreter.ParseWith].
func (it *Interpreter) NewBindings() *Env { return newEnv(it.root, true) }

// SetBindings installs env as the global environment and returns the one it
// replaces. A nil env installs fresh bindings. Functions keep the bindings
// they were declared in.
func (it *Interpreter) SetBindings(env *Env) *Env {
	if env == nil {
		env = it.NewBindings()
	}

	prev := it.global
	it.global = env

	return prev
}

// ParseWith is [Interpreter.Parse] against env instead of the installed
// global environment, which is restored on return.
func (it *Interpreter) ParseWith(ctx context.Context, src string, env *Env) (Value, error) {
	prev := it.SetBindings(env)
	defer it.SetBindings(prev)

	return it.Parse(ctx, src)
}

// Define binds name to v in the global environment.
func (it *Interpreter) Define(name string, v Value) {
	it.global.Define(name, orUndefined(v))
}

// SetFunction registers fn as a global function named name, replacing any
// existing binding.
func (it *Interpreter) SetFunction(name string, fn NativeFunc) {
	it.global.Define(name, NewNative(name, fn))
}

// GetFunction returns the function bound to name, if any. Namespace
// members are included.
func (it *Interpreter) GetFunction(name string) (*Function, bool) {
	v, ok := it.global.Lookup(name)
	if !ok {
		return nil, false
	}

	fn, ok := v.(*Function)

	return fn, ok
}

// SetGlobalValue converts a host value with [ValueOf] and binds it as a
// global variable.
func (it *Interpreter) SetGlobalValue(name string, value any) error {
	v, err := ValueOf(value)
	if err != nil {
		return WrapError(err).With(slog.String("name", name))
	}

	it.global.Define(name, v)

	return nil
}

// Get returns the value bound to name in the global environment or an
// installed namespace.
func (it *Interpreter) Get(name string) (Value, bool) {
	return it.global.Lookup(name)
}

// Globals returns the sorted names visible at global scope.
func (it *Interpreter) Globals() []string {
	return it.global.Names()
}

// Call invokes fn with host arguments converted by [ValueOf].
func (it *Interpreter) Call(ctx context.Context, fn Value, args ...any) (Value, error) {
	f, ok := fn.(*Function)
	if !ok {
		return nil, ErrNotCallable.With(slog.String("type", typeOf(fn)))
	}

	vals := make([]Value, len(args))

	for i, a := range args {
		v, err := ValueOf(a)
		if err != nil {
			return nil, err
		}

		vals[i] = v
	}

	if f.native != nil {
		return f.callNative(ctx, Undefined, vals)
	}

	return it.invoke(ctx, f, Undefined, vals)
}

func typeOf(v Value) string {
	if v == nil {
		return "nil"
	}

	return v.Type().String()
}
