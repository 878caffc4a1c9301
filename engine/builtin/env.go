// Package builtin implements the core.set/transform/extract/format
// operations: in-process primitives dispatched directly by the runner
// without crossing the executor contract.
package builtin

import "github.com/stepwise/stepwise/engine/expr"

// layeredEnv adds a small set of local bindings (item, index, accumulator,
// …) on top of a parent Env, without mutating the caller's scope — each
// transform iteration gets its own layer, discarded once the iteration
// ends.
type layeredEnv struct {
	parent expr.Env
	local  map[string]any
}

func withLocals(parent expr.Env, local map[string]any) expr.Env {
	return layeredEnv{parent: parent, local: local}
}

func (l layeredEnv) Lookup(name string) (any, bool) {
	if v, ok := l.local[name]; ok {
		return v, true
	}
	if l.parent == nil {
		return nil, false
	}
	return l.parent.Lookup(name)
}
