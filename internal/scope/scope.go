// Package scope implements the hierarchical binding sets used during template
// expansion.
//
// A child scope starts as a full copy of its parent's bindings. Assignments
// only ever touch the scope they are made in; the sole way a block affects
// its enclosing scope is MergeUp, which overwrites the parent with every
// binding of the child when the block exits normally.
package scope

import (
	"maps"

	"github.com/leapstack-labs/svpgen/internal/value"
)

// Scope is a name to value mapping owned by exactly one block invocation.
type Scope struct {
	vars map[string]value.Value
}

// New builds a top-level scope. Globals are applied first and parent bindings
// overwrite them; later local assignments overwrite both.
func New(globals, parent map[string]value.Value) *Scope {
	s := &Scope{vars: make(map[string]value.Value, len(globals)+len(parent))}
	maps.Copy(s.vars, globals)
	maps.Copy(s.vars, parent)
	return s
}

// Child returns a new scope holding a copy of s's current bindings.
func (s *Scope) Child() *Scope {
	return &Scope{vars: maps.Clone(s.vars)}
}

// Assign binds name in s only.
func (s *Scope) Assign(name string, v value.Value) {
	s.vars[name] = v
}

// Lookup returns the binding for name. It satisfies expr.Env.
func (s *Scope) Lookup(name string) (value.Value, bool) {
	v, ok := s.vars[name]
	return v, ok
}

// MergeUp overwrites s with every binding present in child.
func (s *Scope) MergeUp(child *Scope) {
	maps.Copy(s.vars, child.vars)
}

// Snapshot returns a copy of the current bindings.
func (s *Scope) Snapshot() map[string]value.Value {
	return maps.Clone(s.vars)
}
