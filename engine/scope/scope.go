// Package scope implements the variable scope frame stack the engine
// threads through a workflow run: inputs, step outputs, loop/parallel
// locals and env overrides all live as named frames that resolve through a
// parent chain, the same shape engine/expr.Env expects for identifier
// lookup.
package scope

import (
	"fmt"
	"sync"

	"dario.cat/mergo"
)

// Scope is one frame in the lookup chain. A step's inputs are evaluated
// against the scope it inherits from its parent step/block; control-flow
// steps (for_each, parallel, try) push a Child() frame so iteration/branch
// locals never leak into sibling steps.
type Scope struct {
	mu     sync.RWMutex
	vars   map[string]any
	parent *Scope
}

// NewRoot creates a top-level scope seeded with vars (typically a
// workflow's resolved inputs). A nil map is treated as empty.
func NewRoot(vars map[string]any) *Scope {
	if vars == nil {
		vars = make(map[string]any)
	}
	return &Scope{vars: vars}
}

// Child creates a new frame whose lookups fall through to s on miss. Binds
// made in the child are invisible to s and to siblings.
func (s *Scope) Child() *Scope {
	return &Scope{vars: make(map[string]any), parent: s}
}

// Lookup resolves name by walking from s up through parents, satisfying
// engine/expr.Env.
func (s *Scope) Lookup(name string) (any, bool) {
	for frame := s; frame != nil; frame = frame.parent {
		frame.mu.RLock()
		v, ok := frame.vars[name]
		frame.mu.RUnlock()
		if ok {
			return v, true
		}
	}
	return nil, false
}

// Bind sets name in this frame, shadowing any parent binding of the same
// name for lookups that start here or below.
func (s *Scope) Bind(name string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vars[name] = value
}

// BindAtRoot walks to the outermost frame and binds name there, used by
// steps (like core.set at workflow scope) that must be visible to every
// sibling rather than only to descendants of the current frame.
func (s *Scope) BindAtRoot(name string, value any) {
	root := s
	for root.parent != nil {
		root = root.parent
	}
	root.Bind(name, value)
}

// Own returns a shallow copy of the variables bound directly in this frame,
// excluding parents.
func (s *Scope) Own() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]any, len(s.vars))
	for k, v := range s.vars {
		out[k] = v
	}
	return out
}

// Snapshot flattens the full parent chain into a single map, with nearer
// frames overriding farther ones. Useful for handing a step's effective
// scope to a tool adapter or for debugging.
func (s *Scope) Snapshot() map[string]any {
	var chain []*Scope
	for frame := s; frame != nil; frame = frame.parent {
		chain = append(chain, frame)
	}
	out := make(map[string]any)
	for i := len(chain) - 1; i >= 0; i-- {
		for k, v := range chain[i].Own() {
			out[k] = v
		}
	}
	return out
}

// Merge copies other's own bindings into s. When prefix is non-empty, keys
// are merged into a nested map at that key (e.g. merging a parallel
// branch's outputs under "branch_a") instead of the top level; a non-empty
// prefix never overwrites an existing non-map value at that key.
func (s *Scope) Merge(other *Scope, prefix string) error {
	if other == nil {
		return nil
	}
	incoming := other.Own()
	if prefix == "" {
		s.mu.Lock()
		defer s.mu.Unlock()
		return mergo.Merge(&s.vars, incoming, mergo.WithOverride)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	current, present := s.vars[prefix]
	existing, isMap := current.(map[string]any)
	if present && current != nil && !isMap {
		return fmt.Errorf("failed to merge scope under prefix %q: existing value is not a map", prefix)
	}
	if existing == nil {
		existing = make(map[string]any)
	}
	if err := mergo.Merge(&existing, incoming, mergo.WithOverride); err != nil {
		return fmt.Errorf("failed to merge scope under prefix %q: %w", prefix, err)
	}
	s.vars[prefix] = existing
	return nil
}
