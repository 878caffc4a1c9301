// Package runner implements the engine (component F): the control-flow
// interpreter that walks a parsed workflow document's steps, dispatching
// each by kind, and enforcing concurrency/retry/timeout. Execution runs as
// a go.temporal.io/sdk workflow: control flow and core.* built-ins execute
// inline in the workflow goroutine (deterministic, pure functions of the
// current scope); action steps dispatch through a single generic activity
// to the executor registry.
package runner

import (
	"context"
	"fmt"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
	sdkworkflow "go.temporal.io/sdk/workflow"

	"github.com/stepwise/stepwise/engine/core"
	"github.com/stepwise/stepwise/engine/cost"
	"github.com/stepwise/stepwise/engine/executor"
	corework "github.com/stepwise/stepwise/engine/workflow"
)

// WorkflowName is the Temporal workflow type every document compiles to;
// the document itself travels as the workflow's input rather than being
// baked into a distinct registered type per workflow id.
const WorkflowName = "stepwise.Execute"

// InvokeActionName is the single generic activity every action step
// dispatches through.
const InvokeActionName = "stepwise.InvokeAction"

// DefaultTaskQueue is used when callers don't configure one explicitly.
const DefaultTaskQueue = "stepwise-default"

// MaxWorkflowDepth bounds `workflow` step recursion so a cyclic reference
// between documents fails loudly instead of exhausting the call stack; the
// registry-by-id indirection (no direct references) is what the design
// notes point to for cycle-breaking, this is the backstop.
const MaxWorkflowDepth = 50

// Resolver looks a sub-workflow document up by id, for `workflow` steps.
// Implementations must be effectively immutable for the lifetime of any
// in-flight run: Temporal replays the workflow function from history, and
// a resolver whose answers change between replays breaks determinism.
type Resolver func(id string) (*corework.Document, error)

// Engine binds the executor registry, cost tracker and sub-workflow
// resolver that both the workflow function and the generic activity need,
// and exposes the synchronous façade callers use instead of talking to
// Temporal directly — mirroring the teacher's own Worker struct wrapping a
// *Client.
type Engine struct {
	Client    client.Client
	TaskQueue string
	Registry  *executor.Registry
	Cost      cost.Recorder
	Resolver  Resolver
}

// NewEngine wires an Engine against an already-connected Temporal client.
func NewEngine(c client.Client, taskQueue string, registry *executor.Registry, costRecorder cost.Recorder, resolver Resolver) *Engine {
	if taskQueue == "" {
		taskQueue = DefaultTaskQueue
	}
	return &Engine{Client: c, TaskQueue: taskQueue, Registry: registry, Cost: costRecorder, Resolver: resolver}
}

// RegisterOn binds this Engine's workflow function and generic activity to
// w, so a worker process can execute any document handed to it.
func (e *Engine) RegisterOn(w worker.Worker) {
	w.RegisterWorkflowWithOptions(e.Execute, sdkworkflow.RegisterOptions{Name: WorkflowName})
	w.RegisterActivityWithOptions(e.InvokeAction, activity.RegisterOptions{Name: InvokeActionName})
}

// Run is the thin synchronous façade: start the workflow, wait for it, and
// return the aggregated WorkflowRun, so callers never have to think about
// Temporal directly. This mirrors the teacher's own Worker struct wrapping
// a *Client to expose a synchronous call surface.
func (e *Engine) Run(ctx context.Context, doc *corework.Document, runID string, inputs map[string]any) (*WorkflowRun, error) {
	if runID == "" {
		id, err := core.NewID()
		if err != nil {
			return nil, fmt.Errorf("failed to generate run id: %w", err)
		}
		runID = id.String()
	}
	opts := client.StartWorkflowOptions{
		ID:        fmt.Sprintf("%s-%s", doc.ID, runID),
		TaskQueue: e.TaskQueue,
	}
	run, err := e.Client.ExecuteWorkflow(ctx, opts, WorkflowName, RunRequest{
		Document: doc,
		RunID:    runID,
		Inputs:   inputs,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start workflow %s: %w", doc.ID, err)
	}
	var result WorkflowRun
	if err := run.Get(ctx, &result); err != nil {
		return nil, fmt.Errorf("workflow %s failed: %w", doc.ID, err)
	}
	return &result, nil
}
