package runner

import (
	"fmt"
	"time"

	"go.temporal.io/sdk/workflow"

	"github.com/stepwise/stepwise/engine/builtin"
	"github.com/stepwise/stepwise/engine/core"
	"github.com/stepwise/stepwise/engine/expr"
	"github.com/stepwise/stepwise/engine/scope"
	corework "github.com/stepwise/stepwise/engine/workflow"
)

// interpreter walks one run's step list, dispatching each step by kind.
// It is created fresh per Execute call (and per nested `workflow` step, up
// to MaxWorkflowDepth) and carries only the read-only identifiers every
// dispatch needs plus the Engine's collaborators.
type interpreter struct {
	engine     *Engine
	workflowID string
	runID      string
	depth      int
}

// Execute is the Temporal workflow function every document compiles to.
// Domain-level failures (missing inputs, an uncaught step error) are
// reported inside the returned WorkflowRun rather than as the workflow
// function's error return, which is reserved for genuine infrastructure
// faults Temporal itself should treat as a failed execution.
func (e *Engine) Execute(ctx workflow.Context, req RunRequest) (*WorkflowRun, error) {
	run := &WorkflowRun{
		RunID:      req.RunID,
		WorkflowID: req.Document.ID,
		Status:     RunRunning,
	}

	resolved, err := req.Document.ResolveInputs(req.Inputs)
	if err != nil {
		run.Status = RunFailed
		run.Error = asCoreError(err)
		return run, nil
	}

	root := scope.NewRoot(map[string]any(resolved))
	in := &interpreter{engine: e, workflowID: req.Document.ID, runID: req.RunID}

	results, runErr := in.runSteps(ctx, req.Document.Steps, root)
	run.Steps = results
	run.Output = root.Snapshot()

	switch {
	case ctx.Err() != nil:
		run.Status = RunCancelled
		run.Error = asCoreError(ctx.Err())
	case runErr != nil:
		run.Status = RunFailed
		run.Error = asCoreError(runErr)
	default:
		run.Status = RunCompleted
	}
	return run, nil
}

// runSteps executes a sequential block: step n observes every write step
// n-1 made to sc. Each step's own StepResult is appended first, followed
// immediately by any StepResults its body produced (for_each iterations,
// if/switch branches, parallel branches, try/catch/finally blocks), so
// the returned slice is a flat, depth-first record of everything this
// block executed. The first step whose failure is not absorbed by
// on_error:continue stops the block and returns its error; steps after a
// cancellation are simply never reached (unstarted steps are omitted, per
// the spec's cancellation semantics).
func (in *interpreter) runSteps(ctx workflow.Context, steps []corework.Step, sc *scope.Scope) ([]StepResult, error) {
	results := make([]StepResult, 0, len(steps))
	for i := range steps {
		if ctx.Err() != nil {
			break
		}
		step := steps[i]
		result, nested, err := in.runStep(ctx, step, sc)
		results = append(results, result)
		results = append(results, nested...)
		if err != nil {
			if step.EffectiveOnError() == corework.OnErrorContinue {
				continue
			}
			return results, err
		}
	}
	return results, nil
}

// runStep resolves the step's condition, then dispatches by kind under
// the step's timeout and retry policy. A skipped step never reaches
// dispatch, so its children (then/else/steps/...) are never evaluated.
// The second return value is the StepResult set the step's own body
// produced, if any — the caller (runSteps) is responsible for splicing
// them into its flat results slice.
func (in *interpreter) runStep(ctx workflow.Context, step corework.Step, sc *scope.Scope) (StepResult, []StepResult, error) {
	started := workflow.Now(ctx)
	result := StepResult{StepID: step.ID, StartedAt: started}

	if step.Condition != "" {
		truth, err := evalCondition(step.Condition, sc)
		if err != nil {
			result.Status = StepFailed
			result.Error = asCoreError(err)
			result.FinishedAt = workflow.Now(ctx)
			result.Attempts = 1
			return result, nil, err
		}
		if !truth {
			result.Status = StepSkipped
			result.FinishedAt = workflow.Now(ctx)
			return result, nil, nil
		}
	}

	fn := in.dispatcher(step, sc)
	timeout := step.EffectiveTimeout()
	out, status, nested, attempts, err := in.withRetry(ctx, step, func(c workflow.Context) (map[string]any, StepStatus, []StepResult, error) {
		return runWithTimeout(c, timeout, fn)
	})

	result.Attempts = attempts
	result.FinishedAt = workflow.Now(ctx)
	if err != nil {
		result.Status = status
		result.Error = asCoreError(err)
		if step.EffectiveOnError() == corework.OnErrorContinue {
			return result, nested, nil
		}
		return result, nested, err
	}
	result.Status = status
	result.Output = out
	if status == StepCompleted && step.OutputVariable != "" {
		sc.BindAtRoot(step.OutputVariable, out)
	}
	return result, nested, nil
}

// dispatcher binds step's dispatch logic against sc, returning the
// dispatchFn withRetry/runWithTimeout drive. Every branch returns
// (output, StepCompleted, nested, nil) on success, except that a switch
// with no matching case and a for_each over an empty sequence return
// StepSkipped with a nil error; failures return a *core.Error as err. Built-ins and pure control flow execute inline;
// only `action` steps targeting a registered (non core.*) adapter cross
// into a Temporal activity.
func (in *interpreter) dispatcher(step corework.Step, sc *scope.Scope) dispatchFn {
	switch step.Kind {
	case corework.KindAction:
		return func(ctx workflow.Context) (map[string]any, StepStatus, []StepResult, error) {
			out, status, err := in.dispatchAction(ctx, step, sc)
			return out, status, nil, err
		}
	case corework.KindWorkflow:
		return func(ctx workflow.Context) (map[string]any, StepStatus, []StepResult, error) {
			out, status, err := in.dispatchWorkflow(ctx, step, sc)
			return out, status, nil, err
		}
	case corework.KindIf:
		return func(ctx workflow.Context) (map[string]any, StepStatus, []StepResult, error) {
			return in.dispatchIf(ctx, step, sc)
		}
	case corework.KindSwitch:
		return func(ctx workflow.Context) (map[string]any, StepStatus, []StepResult, error) {
			return in.dispatchSwitch(ctx, step, sc)
		}
	case corework.KindForEach:
		return func(ctx workflow.Context) (map[string]any, StepStatus, []StepResult, error) {
			return in.dispatchForEach(ctx, step, sc)
		}
	case corework.KindWhile:
		return func(ctx workflow.Context) (map[string]any, StepStatus, []StepResult, error) {
			return in.dispatchWhile(ctx, step, sc)
		}
	case corework.KindMap, corework.KindFilter, corework.KindReduce:
		return func(ctx workflow.Context) (map[string]any, StepStatus, []StepResult, error) {
			out, status, err := in.dispatchAggregate(ctx, step, sc)
			return out, status, nil, err
		}
	case corework.KindParallel:
		return func(ctx workflow.Context) (map[string]any, StepStatus, []StepResult, error) {
			return in.dispatchParallel(ctx, step, sc)
		}
	case corework.KindTry:
		return func(ctx workflow.Context) (map[string]any, StepStatus, []StepResult, error) {
			return in.dispatchTry(ctx, step, sc)
		}
	default:
		return func(workflow.Context) (map[string]any, StepStatus, []StepResult, error) {
			return nil, StepFailed, nil, core.NewError(
				fmt.Errorf("unknown step kind %q", step.Kind), core.CodeInvalidSchema,
				map[string]any{"step_id": step.ID},
			)
		}
	}
}

// evalCondition resolves src as a bare boolean expression against sc.
func evalCondition(src string, sc *scope.Scope) (bool, error) {
	v, err := expr.Eval(src, sc)
	if err != nil {
		return false, core.NewError(fmt.Errorf("condition %q: %w", src, err), core.CodeExpressionError, map[string]any{"expression": src})
	}
	return v.Truthy(), nil
}

// dispatchAction resolves the step's inputs and either dispatches a
// core.* built-in inline, or calls the generic InvokeAction activity for
// an external adapter. It has no step-list body, so it never produces
// nested StepResults.
func (in *interpreter) dispatchAction(ctx workflow.Context, step corework.Step, sc *scope.Scope) (map[string]any, StepStatus, error) {
	if builtin.IsBuiltin(step.Action) {
		out, err := builtin.Dispatch(step.Action, step.Inputs, sc)
		if err != nil {
			return nil, StepFailed, err
		}
		return out, StepCompleted, nil
	}

	resolved, err := expr.ResolveAny(map[string]any(step.Inputs), sc)
	if err != nil {
		return nil, StepFailed, core.NewError(fmt.Errorf("action %s: %w", step.Action, err), core.CodeExpressionError, nil)
	}
	resolvedMap, _ := resolved.(map[string]any)

	ao := workflow.ActivityOptions{
		StartToCloseTimeout: effectiveActivityTimeout(step),
		RetryPolicy:         temporalRetryPolicy(step),
	}
	actCtx := workflow.WithActivityOptions(ctx, ao)

	var actResult InvokeActionResult
	err = workflow.ExecuteActivity(actCtx, InvokeActionName, InvokeActionRequest{
		WorkflowID:     in.workflowID,
		RunID:          in.runID,
		StepID:         step.ID,
		Action:         step.Action,
		ResolvedInputs: resolvedMap,
	}).Get(actCtx, &actResult)
	if err != nil {
		return nil, StepFailed, asCoreError(err)
	}
	return actResult.Output, StepCompleted, nil
}

// effectiveActivityTimeout picks a bound for the generic activity's
// StartToCloseTimeout: the step's own timeout when set, else a generous
// implementation default so a misconfigured document doesn't hang
// Temporal's scheduler forever.
func effectiveActivityTimeout(step corework.Step) time.Duration {
	if t := step.EffectiveTimeout(); t > 0 {
		return t
	}
	return 5 * time.Minute
}

// dispatchWorkflow resolves the sub-workflow's inputs, resolves the
// sub-document through the Engine's Resolver, and recursively interprets
// it in a fresh root scope. The recursion depth guard is what actually
// breaks a cyclic reference; the registry-by-id indirection only removes
// the possibility of a *direct* cycle at parse time. The sub-workflow's
// own StepResults describe a distinct nested WorkflowRun, not this run's
// own step list, so unlike if/switch/for_each/parallel/try they are not
// spliced into the caller's results; only the sub-workflow's final
// output crosses back.
func (in *interpreter) dispatchWorkflow(ctx workflow.Context, step corework.Step, sc *scope.Scope) (map[string]any, StepStatus, error) {
	if in.depth+1 >= MaxWorkflowDepth {
		return nil, StepFailed, core.NewError(
			fmt.Errorf("workflow step %q exceeded max recursion depth %d", step.ID, MaxWorkflowDepth),
			core.CodeInvalidSchema, map[string]any{"step_id": step.ID},
		)
	}
	if in.engine.Resolver == nil {
		return nil, StepFailed, core.NewError(
			fmt.Errorf("workflow step %q: no sub-workflow resolver configured", step.ID),
			core.CodeExecutorError, nil,
		)
	}
	doc, err := in.engine.Resolver(step.WorkflowID)
	if err != nil {
		return nil, StepFailed, core.NewError(fmt.Errorf("resolving workflow %q: %w", step.WorkflowID, err), core.CodeInvalidDocument, nil)
	}

	resolvedInputs, err := expr.ResolveAny(map[string]any(step.Inputs), sc)
	if err != nil {
		return nil, StepFailed, core.NewError(fmt.Errorf("workflow step %q: %w", step.ID, err), core.CodeExpressionError, nil)
	}
	inputsMap, _ := resolvedInputs.(map[string]any)

	resolved, err := doc.ResolveInputs(inputsMap)
	if err != nil {
		return nil, StepFailed, err
	}

	childScope := scope.NewRoot(map[string]any(resolved))
	child := &interpreter{engine: in.engine, workflowID: doc.ID, runID: in.runID, depth: in.depth + 1}
	_, err = child.runSteps(ctx, doc.Steps, childScope)
	if err != nil {
		return nil, StepFailed, err
	}
	return childScope.Snapshot(), StepCompleted, nil
}

// dispatchIf evaluates condition and executes then/else in the current
// scope (no child frame: if/else locals are ordinary sequential writes).
// The chosen branch's StepResults are returned for the caller to splice
// into the enclosing block's results, so a document's executed-step count
// reflects every step the branch actually ran, not just the `if` itself.
func (in *interpreter) dispatchIf(ctx workflow.Context, step corework.Step, sc *scope.Scope) (map[string]any, StepStatus, []StepResult, error) {
	truth, err := evalCondition(step.Condition, sc)
	if err != nil {
		return nil, StepFailed, nil, err
	}
	branch := step.Else
	if truth {
		branch = step.Then
	}
	nested, err := in.runSteps(ctx, branch, sc)
	if err != nil {
		return nil, StepFailed, nested, err
	}
	return nil, StepCompleted, nested, nil
}

// dispatchSwitch evaluates expression, stringifies it, and matches
// against case keys; absence of a match with no default is a skip (here
// modeled as a successful no-op, since the step itself already passed its
// own condition gate in runStep). The matched case's StepResults are
// returned for splicing, same as dispatchIf.
func (in *interpreter) dispatchSwitch(ctx workflow.Context, step corework.Step, sc *scope.Scope) (map[string]any, StepStatus, []StepResult, error) {
	v, err := expr.Eval(step.Expression, sc)
	if err != nil {
		return nil, StepFailed, nil, core.NewError(fmt.Errorf("switch %q: %w", step.ID, err), core.CodeExpressionError, nil)
	}
	key := v.String()
	branch, ok := step.Cases[key]
	if !ok {
		if step.Default == nil {
			return nil, StepSkipped, nil, nil
		}
		branch = step.Default
	}
	nested, err := in.runSteps(ctx, branch, sc)
	if err != nil {
		return nil, StepFailed, nested, err
	}
	return nil, StepCompleted, nested, nil
}

// dispatchForEach evaluates items, then executes the body once per item
// in a fresh child frame so item/index/loop never leak between
// iterations. Sequential by default; concurrency bounds a pool of
// workflow.Go coroutines when greater than 1. Every iteration's
// StepResults are collected by runBounded in item order and returned so
// the number of entries attributable to the body equals |items| × |body|,
// satisfying the per-iteration StepResult accounting the spec requires.
func (in *interpreter) dispatchForEach(ctx workflow.Context, step corework.Step, sc *scope.Scope) (map[string]any, StepStatus, []StepResult, error) {
	seq, err := resolveSequence(step.Items, sc)
	if err != nil {
		return nil, StepFailed, nil, err
	}
	if len(seq) == 0 {
		return nil, StepSkipped, nil, nil
	}

	itemVar := step.ItemVariable
	if itemVar == "" {
		itemVar = "item"
	}
	indexVar := step.IndexVariable

	runIteration := func(ctx workflow.Context, idx int) ([]StepResult, error) {
		item := seq[idx]
		iter := sc.Child()
		iter.Bind(itemVar, item.ToGo())
		if indexVar != "" {
			iter.Bind(indexVar, float64(idx))
		}
		iter.Bind("loop", map[string]any{
			"first":  idx == 0,
			"last":   idx == len(seq)-1,
			"length": float64(len(seq)),
			"index":  float64(idx),
		})
		return in.runSteps(ctx, step.Steps, iter)
	}

	nested, err := runBounded(ctx, len(seq), step.EffectiveConcurrency(), runIteration)
	if err != nil {
		return nil, StepFailed, nested, err
	}
	return nil, StepCompleted, nested, nil
}

// dispatchWhile re-evaluates condition before each iteration, running the
// body in a fresh child frame per pass whose own bindings are merged into
// the enclosing scope after the pass succeeds, so the next condition check
// and the steps after the loop see them.
// Every pass's StepResults accumulate in loop order and are returned for
// splicing, same accounting as dispatchForEach.
func (in *interpreter) dispatchWhile(ctx workflow.Context, step corework.Step, sc *scope.Scope) (map[string]any, StepStatus, []StepResult, error) {
	maxIter := step.EffectiveMaxIterations()
	var all []StepResult
	for i := 0; i < maxIter; i++ {
		if ctx.Err() != nil {
			return nil, StepFailed, all, asCoreError(ctx.Err())
		}
		truth, err := evalCondition(step.Condition, sc)
		if err != nil {
			return nil, StepFailed, all, err
		}
		if !truth {
			return nil, StepCompleted, all, nil
		}
		iter := sc.Child()
		nested, err := in.runSteps(ctx, step.Steps, iter)
		all = append(all, nested...)
		if err != nil {
			return nil, StepFailed, all, err
		}
		if err := sc.Merge(iter, ""); err != nil {
			return nil, StepFailed, all, core.NewError(err, core.CodeExpressionError, nil)
		}
	}
	truth, err := evalCondition(step.Condition, sc)
	if err != nil {
		return nil, StepFailed, all, err
	}
	if truth {
		return nil, StepFailed, all, core.NewError(
			fmt.Errorf("while loop %q exceeded max_iterations=%d", step.ID, maxIter),
			core.CodeMaxIterationExceeded, map[string]any{"step_id": step.ID, "max_iterations": maxIter},
		)
	}
	return nil, StepCompleted, all, nil
}

// dispatchAggregate implements the step-level map/filter/reduce kinds,
// matching D's built-in transform operations exactly: map/reduce evaluate
// `expression` per item (reduce additionally threads `accumulator`),
// filter evaluates `condition` as a real boolean expression (the spec's
// resolution of the source's filter-is-always-truthy bug). Results bind
// to output_variable by the caller (runStep), via the returned map's
// "result" key. Each item is a bare expression evaluation, not a nested
// step, so this never produces StepResults of its own.
func (in *interpreter) dispatchAggregate(ctx workflow.Context, step corework.Step, sc *scope.Scope) (map[string]any, StepStatus, error) {
	seq, err := resolveSequence(step.Items, sc)
	if err != nil {
		return nil, StepFailed, err
	}

	switch step.Kind {
	case corework.KindMap:
		out := make([]expr.Value, len(seq))
		for i, item := range seq {
			v, err := evalItemExpr(step.Expression, item, i, sc)
			if err != nil {
				return nil, StepFailed, err
			}
			out[i] = v
		}
		return map[string]any{"result": expr.List(out).ToGo()}, StepCompleted, nil

	case corework.KindFilter:
		var out []expr.Value
		for i, item := range seq {
			iter := itemEnv(sc, item, i)
			truth, err := evalCondition(step.Condition, iter)
			if err != nil {
				return nil, StepFailed, err
			}
			if truth {
				out = append(out, item)
			}
		}
		return map[string]any{"result": expr.List(out).ToGo()}, StepCompleted, nil

	case corework.KindReduce:
		accVar := step.AccumulatorVariable
		if accVar == "" {
			accVar = "accumulator"
		}
		acc := expr.FromGo(step.InitialValue)
		for i, item := range seq {
			iter := sc.Child()
			iter.Bind("item", item.ToGo())
			iter.Bind("index", float64(i))
			iter.Bind(accVar, acc.ToGo())
			v, err := expr.Eval(step.Expression, iter)
			if err != nil {
				return nil, StepFailed, core.NewError(fmt.Errorf("reduce %q: %w", step.ID, err), core.CodeExpressionError, nil)
			}
			acc = v
		}
		return map[string]any{"result": acc.ToGo()}, StepCompleted, nil
	}
	return nil, StepFailed, core.NewError(fmt.Errorf("unreachable aggregate kind %q", step.Kind), core.CodeInvalidSchema, nil)
}

func resolveSequence(itemsExpr string, sc *scope.Scope) ([]expr.Value, error) {
	v, err := expr.Eval(itemsExpr, sc)
	if err != nil {
		return nil, core.NewError(fmt.Errorf("items %q: %w", itemsExpr, err), core.CodeExpressionError, nil)
	}
	if v.Kind() != expr.KindList {
		return nil, core.NewError(
			fmt.Errorf("items %q did not resolve to an ordered sequence", itemsExpr),
			core.CodeTypeError, nil,
		)
	}
	return v.AsList(), nil
}

func itemEnv(sc *scope.Scope, item expr.Value, index int) *scope.Scope {
	iter := sc.Child()
	iter.Bind("item", item.ToGo())
	iter.Bind("index", float64(index))
	return iter
}

func evalItemExpr(src string, item expr.Value, index int, sc *scope.Scope) (expr.Value, error) {
	iter := itemEnv(sc, item, index)
	v, err := expr.Eval(src, iter)
	if err != nil {
		return expr.Value{}, core.NewError(fmt.Errorf("expression %q: %w", src, err), core.CodeExpressionError, nil)
	}
	return v, nil
}

// dispatchParallel runs each branch concurrently in its own child scope
// via workflow.Go, then joins by receiving every branch's outcome from a
// shared workflow channel. Branch failures
// propagate unless the branch itself wraps the failing step in `try`;
// successful branches merge their bindings into sc under "<branch_id>."
// prefixing so siblings never race on the same root-scope key. Each
// branch's StepResults are collected indexed by branch position and
// flattened back in declaration order — not channel-receive order — so
// the result is identical across replays regardless of which coroutine
// happened to finish first.
func (in *interpreter) dispatchParallel(ctx workflow.Context, step corework.Step, sc *scope.Scope) (map[string]any, StepStatus, []StepResult, error) {
	type branchOutcome struct {
		idx     int
		id      string
		scope   *scope.Scope
		results []StepResult
		err     error
	}
	outcomes := workflow.NewChannel(ctx)
	for i, branch := range step.Branches {
		i, branch := i, branch
		branchScope := sc.Child()
		workflow.Go(ctx, func(gctx workflow.Context) {
			results, err := in.runSteps(gctx, branch.Steps, branchScope)
			outcomes.Send(gctx, branchOutcome{idx: i, id: branch.ID, scope: branchScope, results: results, err: err})
		})
	}

	ordered := make([][]StepResult, len(step.Branches))
	var firstErr error
	for range step.Branches {
		var o branchOutcome
		outcomes.Receive(ctx, &o)
		ordered[o.idx] = o.results
		if o.err != nil {
			if firstErr == nil {
				firstErr = o.err
			}
			continue
		}
		if err := sc.Merge(o.scope, o.id); err != nil {
			if firstErr == nil {
				firstErr = core.NewError(err, core.CodeExpressionError, nil)
			}
		}
	}
	var all []StepResult
	for _, r := range ordered {
		all = append(all, r...)
	}
	if firstErr != nil {
		return nil, StepFailed, all, firstErr
	}
	return nil, StepCompleted, all, nil
}

// dispatchTry executes try, always executes finally, and routes a failure
// from try into catch (binding `error`) when present. An error raised
// inside finally supersedes whatever try/catch produced; an absent or
// itself-failing catch re-surfaces the try error after finally runs. The
// StepResults of every block that actually ran (try, then catch and/or
// finally) are concatenated in execution order and returned for splicing.
func (in *interpreter) dispatchTry(ctx workflow.Context, step corework.Step, sc *scope.Scope) (map[string]any, StepStatus, []StepResult, error) {
	tryScope := sc.Child()
	tryResults, tryErr := in.runSteps(ctx, step.Try, tryScope)
	all := append([]StepResult{}, tryResults...)

	var resultErr error
	if tryErr != nil {
		resultErr = tryErr
		if step.Catch != nil {
			catchScope := sc.Child()
			ce := asCoreError(tryErr)
			catchScope.Bind("error", map[string]any{
				"message": ce.Message,
				"step_id": firstFailingStepID(step.Try, tryResults),
				"kind":    ce.Code,
			})
			catchResults, catchErr := in.runSteps(ctx, step.Catch, catchScope)
			all = append(all, catchResults...)
			if catchErr != nil {
				resultErr = catchErr
			} else {
				resultErr = nil
				if err := sc.Merge(catchScope, ""); err != nil {
					resultErr = core.NewError(err, core.CodeExpressionError, nil)
				}
			}
		}
	} else if err := sc.Merge(tryScope, ""); err != nil {
		resultErr = core.NewError(err, core.CodeExpressionError, nil)
	}

	if step.Finally != nil {
		finallyScope := sc.Child()
		finallyResults, finallyErr := in.runSteps(ctx, step.Finally, finallyScope)
		all = append(all, finallyResults...)
		if finallyErr != nil {
			return nil, StepFailed, all, finallyErr
		}
		if err := sc.Merge(finallyScope, ""); err != nil {
			return nil, StepFailed, all, core.NewError(err, core.CodeExpressionError, nil)
		}
	}

	if resultErr != nil {
		return nil, StepFailed, all, resultErr
	}
	return nil, StepCompleted, all, nil
}

// firstFailingStepID returns the step_id of the try block's first
// StepResult recorded as failed, falling back to the last declared try
// step when tryResults carries none (the failure happened before any
// result was appended, e.g. a condition error on the very first step).
func firstFailingStepID(steps []corework.Step, tryResults []StepResult) string {
	for _, r := range tryResults {
		if r.Status == StepFailed {
			return r.StepID
		}
	}
	if len(steps) == 0 {
		return ""
	}
	return steps[len(steps)-1].ID
}
