// Package executor defines the uniform call surface the engine uses to
// invoke external tool adapters, and a registry that resolves an action
// name ("<tool>.<op>") to the adapter registered for that tool.
package executor

import (
	"context"

	"github.com/stepwise/stepwise/engine/cost"
)

// Descriptor advertises an adapter's identity and the operations it
// implements, per describe().
type Descriptor struct {
	ToolName   string
	Operations []string
}

// Context is the read-only call context the engine hands to every
// executor invocation: identifiers for attribution, and a cost recorder
// handle for adapters that invoke a language model.
type Context struct {
	WorkflowID string
	RunID      string
	StepID     string
	Cost       cost.Recorder
}

// Executor is the contract every tool adapter implements. Implementations
// must be safe to call from multiple concurrent branches simultaneously —
// the engine may dispatch one action per parallel branch at once.
type Executor interface {
	Execute(ctx context.Context, action string, inputs map[string]any, ectx Context) (map[string]any, error)
	Describe() Descriptor
}

// HealthChecker is the optional health_check() surface from the executor
// contract; adapters that support it implement this alongside Executor.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}
