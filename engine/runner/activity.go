package runner

import (
	"context"

	"go.temporal.io/sdk/activity"

	"github.com/stepwise/stepwise/engine/cost"
	"github.com/stepwise/stepwise/engine/executor"
)

// InvokeAction is the single generic Temporal activity every `action` step
// targeting a registered adapter dispatches through: it looks the action
// up in the executor registry and calls it, handing the adapter a cost
// recorder handle per the executor contract. core.* built-ins never reach
// this activity; they dispatch inline inside the workflow goroutine.
//
// Budget enforcement (spec's "action_on_limit = block") is checked here,
// not in the deterministic workflow goroutine: the Tracker's ledger is
// shared, mutable, real-time state, and reading it from workflow code
// would make a replay's outcome depend on records accumulated by other,
// unrelated runs since the original execution — an activity is exactly
// the non-deterministic-I/O boundary Temporal expects that kind of read
// to cross.
func (e *Engine) InvokeAction(ctx context.Context, req InvokeActionRequest) (*InvokeActionResult, error) {
	adapter, err := e.Registry.Lookup(req.Action)
	if err != nil {
		return nil, wrapActivityError(err)
	}
	if enforcer, ok := e.Cost.(cost.BudgetEnforcer); ok {
		if err := enforcer.EnforceFor(req.WorkflowID); err != nil {
			return nil, wrapActivityError(err)
		}
	}
	ectx := executor.Context{
		WorkflowID: req.WorkflowID,
		RunID:      req.RunID,
		StepID:     req.StepID,
		Cost:       e.Cost,
	}
	out, err := adapter.Execute(ctx, req.Action, req.ResolvedInputs, ectx)
	if err != nil {
		return nil, wrapActivityError(err)
	}
	info := activity.GetInfo(ctx)
	return &InvokeActionResult{Output: out, Attempt: int(info.Attempt)}, nil
}
