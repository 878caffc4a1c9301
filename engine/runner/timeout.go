package runner

import (
	"fmt"
	"time"

	"go.temporal.io/sdk/workflow"

	"github.com/stepwise/stepwise/engine/core"
)

type stepOutcome struct {
	out    map[string]any
	status StepStatus
	nested []StepResult
	err    error
}

// runWithTimeout races fn against a timer of the given duration, using a
// workflow.Selector the way Temporal's own samples race a future against
// workflow.NewTimer. fn runs in its own coroutine over a child context
// derived with workflow.WithCancel so it's torn down the moment the timer
// wins; a timeout converts to a Timeout error, per "Timeouts at the step
// level cancel only that step." A timed-out step reports no nested
// results, since its body's own child context never observed completion.
func runWithTimeout(ctx workflow.Context, timeout time.Duration, fn dispatchFn) (map[string]any, StepStatus, []StepResult, error) {
	if timeout <= 0 {
		return fn(ctx)
	}

	childCtx, cancel := workflow.WithCancel(ctx)
	defer cancel()

	done := workflow.NewChannel(ctx)
	workflow.Go(childCtx, func(gctx workflow.Context) {
		out, status, nested, err := fn(gctx)
		done.Send(gctx, stepOutcome{out: out, status: status, nested: nested, err: err})
	})

	timer := workflow.NewTimer(ctx, timeout)
	selector := workflow.NewSelector(ctx)
	var outcome stepOutcome
	timedOut := false
	selector.AddFuture(timer, func(workflow.Future) { timedOut = true })
	selector.AddReceive(done, func(c workflow.ReceiveChannel, more bool) {
		c.Receive(ctx, &outcome)
	})
	selector.Select(ctx)

	if timedOut {
		cancel()
		return nil, StepFailed, nil, core.NewError(
			fmt.Errorf("step exceeded its %s timeout", timeout),
			core.CodeTimeout,
			map[string]any{"timeout_ms": timeout.Milliseconds()},
		)
	}
	return outcome.out, outcome.status, outcome.nested, outcome.err
}
