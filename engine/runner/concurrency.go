package runner

import "go.temporal.io/sdk/workflow"

// runBounded executes fn(ctx, i) for every i in [0, n) against ctx, bounding
// how many run concurrently to width workflow.Go coroutines draining a
// shared index channel — the same "pool of coroutines over a channel"
// shape Temporal's own samples use for bounded fan-out. width<=1 runs
// strictly sequentially on the calling coroutine (no Go/channel overhead),
// matching "for_each/map/filter/reduce execute sequentially by default."
// The first error observed is returned after every in-flight iteration
// settles; it does not stop iterations already dispatched. Every
// iteration's StepResults are collected and returned in index order (not
// completion order), so the flattened result is identical on every replay
// regardless of which coroutine happens to finish first.
func runBounded(ctx workflow.Context, n int, width int, fn func(workflow.Context, int) ([]StepResult, error)) ([]StepResult, error) {
	if n == 0 {
		return nil, nil
	}
	if width <= 1 {
		var all []StepResult
		for i := 0; i < n; i++ {
			res, err := fn(ctx, i)
			all = append(all, res...)
			if err != nil {
				return all, err
			}
		}
		return all, nil
	}
	if width > n {
		width = n
	}

	indices := workflow.NewChannel(ctx)
	workflow.Go(ctx, func(gctx workflow.Context) {
		for i := 0; i < n; i++ {
			indices.Send(gctx, i)
		}
		indices.Close()
	})

	type outcome struct {
		idx     int
		results []StepResult
		err     error
	}
	outcomes := workflow.NewChannel(ctx)
	for w := 0; w < width; w++ {
		workflow.Go(ctx, func(gctx workflow.Context) {
			var idx int
			for indices.Receive(gctx, &idx) {
				res, err := fn(gctx, idx)
				outcomes.Send(gctx, outcome{idx: idx, results: res, err: err})
			}
		})
	}

	ordered := make([][]StepResult, n)
	var firstErr error
	for i := 0; i < n; i++ {
		var o outcome
		outcomes.Receive(ctx, &o)
		ordered[o.idx] = o.results
		if o.err != nil && firstErr == nil {
			firstErr = o.err
		}
	}
	var all []StepResult
	for _, r := range ordered {
		all = append(all, r...)
	}
	return all, firstErr
}
