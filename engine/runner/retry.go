package runner

import (
	"math"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/stepwise/stepwise/engine/builtin"
	corework "github.com/stepwise/stepwise/engine/workflow"
)

// dispatchFn executes one attempt of a step (or, with a timeout wrapper,
// one attempt bounded by a timer) and reports the status it reached, plus
// any StepResults its body produced (for_each/if/switch/parallel/try
// bodies; nil for leaf step kinds). Skipped never carries an error;
// Completed/Failed do not use Skipped.
type dispatchFn func(workflow.Context) (map[string]any, StepStatus, []StepResult, error)

// effectivePolicy returns p normalized per the documented defaults (1
// attempt, no backoff), treating a nil policy as "no retry configured".
func effectivePolicy(p *corework.RetryPolicy) corework.RetryPolicy {
	if p == nil {
		return corework.RetryPolicy{MaxAttempts: 1, BackoffMultiplier: 1}
	}
	return p.Normalized()
}

// backoffFor computes backoff_ms × multiplier^(attempt-1) for the attempt
// that just failed, per the spec's retry formula.
func backoffFor(policy corework.RetryPolicy, attempt int) time.Duration {
	if policy.BackoffMs <= 0 {
		return 0
	}
	ms := float64(policy.BackoffMs) * math.Pow(policy.BackoffMultiplier, float64(attempt-1))
	return time.Duration(ms) * time.Millisecond
}

// withRetry runs fn against ctx up to policy.MaxAttempts times, sleeping
// the computed backoff between attempts, and returns the last error when
// every attempt is exhausted. The nested StepResults returned are always
// those of the final attempt only — a retried attempt's body re-runs from
// scratch, so earlier attempts' StepResults describe work that was
// discarded, not work that happened. External (non-core.*) actions get a
// single attempt here: their retry instead rides Temporal's own
// workflow.ActivityOptions.RetryPolicy (see dispatchAction and
// temporalRetryPolicy) so a single generic activity call gets infra-level
// retry/backoff instead of a manual sleep loop wrapped around ExecuteActivity.
func (in *interpreter) withRetry(
	ctx workflow.Context,
	step corework.Step,
	fn dispatchFn,
) (map[string]any, StepStatus, []StepResult, int, error) {
	policy := effectivePolicy(step.Retry)
	if step.Kind == corework.KindAction && !builtin.IsBuiltin(step.Action) {
		policy.MaxAttempts = 1
	}
	var lastErr error
	var lastNested []StepResult
	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		out, status, nested, err := fn(ctx)
		if err == nil {
			return out, status, nested, attempt, nil
		}
		lastErr = err
		lastNested = nested
		if attempt == policy.MaxAttempts {
			break
		}
		if d := backoffFor(policy, attempt); d > 0 {
			if slept := workflow.Sleep(ctx, d); slept != nil {
				return nil, StepFailed, nil, attempt, slept
			}
		}
	}
	return nil, StepFailed, lastNested, policy.MaxAttempts, lastErr
}

// temporalRetryPolicy maps a step's retry policy onto Temporal's native
// ActivityOptions.RetryPolicy for external action dispatch: the spec's
// backoff_ms/backoff_multiplier/max_attempts triple is exactly Temporal's
// InitialInterval/BackoffCoefficient/MaximumAttempts.
func temporalRetryPolicy(step corework.Step) *temporal.RetryPolicy {
	policy := effectivePolicy(step.Retry)
	rp := &temporal.RetryPolicy{
		MaximumAttempts: int32(policy.MaxAttempts),
	}
	if policy.BackoffMs > 0 {
		rp.InitialInterval = time.Duration(policy.BackoffMs) * time.Millisecond
	} else {
		rp.InitialInterval = time.Second
	}
	if policy.BackoffMultiplier > 0 {
		rp.BackoffCoefficient = policy.BackoffMultiplier
	}
	return rp
}
