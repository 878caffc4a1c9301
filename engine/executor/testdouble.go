package executor

import (
	"context"
	"fmt"

	"github.com/stepwise/stepwise/engine/core"
)

// EchoExecutor is a test-oriented adapter that returns a copy of its
// inputs plus an "echoed": true key, grounded on the teacher's own minimal
// test adapter pattern (engine/llm/adapter's in-memory test double) for
// exercising the runner's action dispatch without a real integration.
type EchoExecutor struct {
	ToolName   string
	Operations []string
}

// NewEchoExecutor builds an EchoExecutor advertising the given operations
// under toolName.
func NewEchoExecutor(toolName string, operations ...string) *EchoExecutor {
	return &EchoExecutor{ToolName: toolName, Operations: operations}
}

func (e *EchoExecutor) Execute(_ context.Context, _ string, inputs map[string]any, _ Context) (map[string]any, error) {
	out := make(map[string]any, len(inputs)+1)
	for k, v := range inputs {
		out[k] = v
	}
	out["echoed"] = true
	return out, nil
}

func (e *EchoExecutor) Describe() Descriptor {
	return Descriptor{ToolName: e.ToolName, Operations: e.Operations}
}

func (e *EchoExecutor) HealthCheck(_ context.Context) error { return nil }

// NopExecutor always fails with ExecutorError, useful for exercising the
// engine's error-propagation and retry paths in tests.
type NopExecutor struct {
	ToolName string
}

func NewNopExecutor(toolName string) *NopExecutor {
	return &NopExecutor{ToolName: toolName}
}

func (n *NopExecutor) Execute(_ context.Context, action string, _ map[string]any, _ Context) (map[string]any, error) {
	return nil, core.NewError(fmt.Errorf("nop executor: %s is not implemented", action), core.CodeExecutorError, nil)
}

func (n *NopExecutor) Describe() Descriptor {
	return Descriptor{ToolName: n.ToolName}
}
