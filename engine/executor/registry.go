package executor

import (
	"fmt"
	"strings"
	"sync"

	"github.com/stepwise/stepwise/engine/core"
)

// Registry resolves an action name to the adapter registered for its tool
// prefix. Lookup splits on the first dot: "slack.post_message" resolves to
// the adapter registered under "slack".
type Registry struct {
	mu       sync.RWMutex
	adapters map[string]Executor
}

// NewRegistry creates an empty adapter registry.
func NewRegistry() *Registry {
	return &Registry{adapters: make(map[string]Executor)}
}

// Register binds toolName to an adapter. Registering the same tool name
// twice replaces the previous binding.
func (r *Registry) Register(toolName string, adapter Executor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters[toolName] = adapter
}

// Lookup resolves action ("<tool>.<op>") to its registered adapter.
func (r *Registry) Lookup(action string) (Executor, error) {
	toolName, _, ok := strings.Cut(action, ".")
	if !ok {
		return nil, core.NewError(
			fmt.Errorf("action %q is not in \"<tool>.<op>\" form", action),
			core.CodeExecutorError,
			map[string]any{"action": action},
		)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	adapter, ok := r.adapters[toolName]
	if !ok {
		return nil, core.NewError(
			fmt.Errorf("no adapter registered for tool %q", toolName),
			core.CodeExecutorError,
			map[string]any{"tool": toolName},
		)
	}
	return adapter, nil
}

// Describe lists every registered adapter's Descriptor.
func (r *Registry) Describe() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Descriptor, 0, len(r.adapters))
	for _, adapter := range r.adapters {
		out = append(out, adapter.Describe())
	}
	return out
}
