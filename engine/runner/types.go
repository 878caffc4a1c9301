// Package runner implements the engine (component F): the control-flow
// interpreter that walks a parsed workflow document's steps, dispatching
// each by kind, and enforcing concurrency/retry/timeout. Execution runs as
// a go.temporal.io/sdk workflow: control flow and core.* built-ins execute
// inline in the workflow goroutine (deterministic, pure functions of the
// current scope); action steps dispatch through a single generic activity
// to the executor registry.
package runner

import (
	"time"

	"github.com/stepwise/stepwise/engine/core"
	corework "github.com/stepwise/stepwise/engine/workflow"
)

// StepStatus is the terminal disposition of one StepResult.
type StepStatus string

const (
	StepCompleted StepStatus = "completed"
	StepSkipped   StepStatus = "skipped"
	StepFailed    StepStatus = "failed"
	StepCancelled StepStatus = "cancelled"
)

// StepResult is one append-only entry of a WorkflowRun.
type StepResult struct {
	StepID     string         `json:"step_id"`
	Status     StepStatus     `json:"status"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	Output     map[string]any `json:"output,omitempty"`
	Error      *core.Error    `json:"error,omitempty"`
	Attempts   int            `json:"attempts"`
}

// RunStatus is the terminal disposition of a WorkflowRun.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
	RunCancelled RunStatus = "cancelled"
)

// WorkflowRun aggregates every StepResult produced by one execution of a
// workflow with concrete inputs.
type WorkflowRun struct {
	RunID      string         `json:"run_id"`
	WorkflowID string         `json:"workflow_id"`
	Status     RunStatus      `json:"status"`
	Steps      []StepResult   `json:"steps"`
	Output     map[string]any `json:"output,omitempty"`
	Error      *core.Error    `json:"error,omitempty"`
}

// RunRequest is the Temporal workflow's input: a document plus the raw,
// not-yet-validated inputs a caller supplied.
type RunRequest struct {
	Document *corework.Document
	RunID    string
	Inputs   map[string]any
}

// InvokeActionRequest is the generic activity's input: everything it needs
// to look an action up in the executor registry and call it.
type InvokeActionRequest struct {
	WorkflowID     string
	RunID          string
	StepID         string
	Action         string
	ResolvedInputs map[string]any
}

// InvokeActionResult is the generic activity's output: the adapter's
// output map plus the attempt number Temporal's own retry machinery had
// reached, so the workflow can record a faithful StepResult.Attempts
// without re-implementing retry bookkeeping that the activity already has
// via activity.GetInfo.
type InvokeActionResult struct {
	Output  map[string]any
	Attempt int
}
