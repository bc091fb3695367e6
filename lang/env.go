package lang

import (
	"maps"
	"slices"
)

// Env is one frame of the lexical scope chain. Lookups walk outward through
// parent frames; var declarations land in the nearest function frame.
type Env struct {
	vars     map[string]Value
	parent   *Env
	function bool
}

// newEnv returns a frame nested in parent. Function frames (and the global
// frame) receive var declarations from the blocks nested inside them.
func newEnv(parent *Env, function bool) *Env {
	return &Env{vars: map[string]Value{}, parent: parent, function: function}
}

// Lookup returns the value bound to name in the nearest frame declaring it.
func (e *Env) Lookup(name string) (Value, bool) {
	for f := e; f != nil; f = f.parent {
		if v, ok := f.vars[name]; ok {
			return v, true
		}
	}

	return nil, false
}

// Define binds name in this frame, replacing any previous binding.
func (e *Env) Define(name string, v Value) { e.vars[name] = v }

// Local returns the value bound to name in this frame only.
func (e *Env) Local(name string) (Value, bool) {
	v, ok := e.vars[name]

	return v, ok
}

// Assign updates the nearest frame that declares name. It reports false,
// without creating a binding, when no frame does.
func (e *Env) Assign(name string, v Value) bool {
	for f := e; f != nil; f = f.parent {
		if _, ok := f.vars[name]; ok {
			f.vars[name] = v

			return true
		}
	}

	return false
}

// scope returns the nearest function frame, the target of var declarations.
func (e *Env) scope() *Env {
	f := e
	for !f.function && f.parent != nil {
		f = f.parent
	}

	return f
}

// Names returns the sorted names visible from e, including outer frames.
func (e *Env) Names() []string {
	seen := map[string]struct{}{}

	for f := e; f != nil; f = f.parent {
		for name := range f.vars {
			seen[name] = struct{}{}
		}
	}

	return slices.Sorted(maps.Keys(seen))
}
