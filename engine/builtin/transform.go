package builtin

import (
	"fmt"
	"sort"

	"github.com/stepwise/stepwise/engine/core"
	"github.com/stepwise/stepwise/engine/expr"
)

// Transform implements core.transform: input must resolve to an ordered
// sequence; operation selects one of map/filter/reduce/find/group_by/
// unique/sort, each documented in the spec's built-in operations table.
func Transform(rawInputs map[string]any, env expr.Env) (map[string]any, error) {
	operation, _ := stringParam(rawInputs, "operation")
	if operation == "" {
		return nil, core.NewError(fmt.Errorf("core.transform: missing \"operation\""), core.CodeInvalidSchema, nil)
	}

	seq, err := resolveSequence(rawInputs["input"], env)
	if err != nil {
		return nil, err
	}

	var result expr.Value
	switch operation {
	case "map":
		result, err = transformMap(seq, rawInputs, env)
	case "filter":
		result, err = transformFilter(seq, rawInputs, env)
	case "reduce":
		result, err = transformReduce(seq, rawInputs, env)
	case "find":
		result, err = transformFind(seq, rawInputs, env)
	case "group_by":
		result, err = transformGroupBy(seq, rawInputs, env)
	case "unique":
		result, err = transformUnique(seq, rawInputs, env)
	case "sort":
		result, err = transformSort(seq, rawInputs, env)
	default:
		return nil, core.NewError(
			fmt.Errorf("core.transform: unknown operation %q", operation),
			core.CodeUnknownOperation,
			map[string]any{"operation": operation},
		)
	}
	if err != nil {
		return nil, err
	}
	return map[string]any{"result": result.ToGo()}, nil
}

func itemScope(env expr.Env, item expr.Value, index int) expr.Env {
	return withLocals(env, map[string]any{"item": item.ToGo(), "index": float64(index)})
}

func transformMap(seq []expr.Value, params map[string]any, env expr.Env) (expr.Value, error) {
	exprSrc, ok := stringParam(params, "expression")
	if !ok {
		return expr.Value{}, core.NewError(fmt.Errorf("core.transform map: missing \"expression\""), core.CodeInvalidSchema, nil)
	}
	out := make([]expr.Value, len(seq))
	for i, item := range seq {
		v, err := expr.Eval(exprSrc, itemScope(env, item, i))
		if err != nil {
			return expr.Value{}, core.NewError(fmt.Errorf("core.transform map: %w", err), core.CodeExpressionError, nil)
		}
		out[i] = v
	}
	return expr.List(out), nil
}

func transformFilter(seq []expr.Value, params map[string]any, env expr.Env) (expr.Value, error) {
	condSrc, ok := stringParam(params, "condition")
	if !ok {
		return expr.Value{}, core.NewError(fmt.Errorf("core.transform filter: missing \"condition\""), core.CodeInvalidSchema, nil)
	}
	var out []expr.Value
	for i, item := range seq {
		v, err := expr.Eval(condSrc, itemScope(env, item, i))
		if err != nil {
			return expr.Value{}, core.NewError(fmt.Errorf("core.transform filter: %w", err), core.CodeExpressionError, nil)
		}
		if v.Truthy() {
			out = append(out, item)
		}
	}
	return expr.List(out), nil
}

func transformReduce(seq []expr.Value, params map[string]any, env expr.Env) (expr.Value, error) {
	exprSrc, ok := stringParam(params, "expression")
	if !ok {
		return expr.Value{}, core.NewError(fmt.Errorf("core.transform reduce: missing \"expression\""), core.CodeInvalidSchema, nil)
	}
	acc := expr.FromGo(params["initialValue"])
	for i, item := range seq {
		scope := withLocals(env, map[string]any{
			"item":        item.ToGo(),
			"index":       float64(i),
			"accumulator": acc.ToGo(),
		})
		v, err := expr.Eval(exprSrc, scope)
		if err != nil {
			return expr.Value{}, core.NewError(fmt.Errorf("core.transform reduce: %w", err), core.CodeExpressionError, nil)
		}
		acc = v
	}
	return acc, nil
}

func transformFind(seq []expr.Value, params map[string]any, env expr.Env) (expr.Value, error) {
	condSrc, ok := stringParam(params, "condition")
	if !ok {
		return expr.Value{}, core.NewError(fmt.Errorf("core.transform find: missing \"condition\""), core.CodeInvalidSchema, nil)
	}
	for i, item := range seq {
		v, err := expr.Eval(condSrc, itemScope(env, item, i))
		if err != nil {
			return expr.Value{}, core.NewError(fmt.Errorf("core.transform find: %w", err), core.CodeExpressionError, nil)
		}
		if v.Truthy() {
			return item, nil
		}
	}
	return expr.Undefined(), nil
}

func transformGroupBy(seq []expr.Value, params map[string]any, env expr.Env) (expr.Value, error) {
	keySrc, ok := stringParam(params, "key")
	if !ok {
		return expr.Value{}, core.NewError(fmt.Errorf("core.transform group_by: missing \"key\""), core.CodeInvalidSchema, nil)
	}
	groups := make(map[string][]expr.Value)
	var order []string
	for i, item := range seq {
		kv, err := expr.Eval(keySrc, itemScope(env, item, i))
		if err != nil {
			return expr.Value{}, core.NewError(fmt.Errorf("core.transform group_by: %w", err), core.CodeExpressionError, nil)
		}
		k := kv.String()
		if _, seen := groups[k]; !seen {
			order = append(order, k)
		}
		groups[k] = append(groups[k], item)
	}
	m := make(map[string]expr.Value, len(order))
	for _, k := range order {
		m[k] = expr.List(groups[k])
	}
	return expr.MapV(order, m), nil
}

func transformUnique(seq []expr.Value, params map[string]any, env expr.Env) (expr.Value, error) {
	keySrc, hasKey := stringParam(params, "key")
	seenKeys := make(map[string]bool, len(seq))
	var out []expr.Value
	for i, item := range seq {
		var dedupeKey string
		if hasKey {
			kv, err := expr.Eval(keySrc, itemScope(env, item, i))
			if err != nil {
				return expr.Value{}, core.NewError(fmt.Errorf("core.transform unique: %w", err), core.CodeExpressionError, nil)
			}
			dedupeKey = kv.String()
		} else {
			dedupeKey = item.String()
		}
		if seenKeys[dedupeKey] {
			continue
		}
		seenKeys[dedupeKey] = true
		out = append(out, item)
	}
	return expr.List(out), nil
}

func transformSort(seq []expr.Value, params map[string]any, env expr.Env) (expr.Value, error) {
	keySrc, hasKey := stringParam(params, "key")
	reverse, _ := params["reverse"].(bool)

	out := append([]expr.Value(nil), seq...)
	keyOf := func(v expr.Value, idx int) (expr.Value, error) {
		if !hasKey {
			return v, nil
		}
		return expr.Eval(keySrc, itemScope(env, v, idx))
	}

	var sortErr error
	sort.SliceStable(out, func(i, j int) bool {
		if sortErr != nil {
			return false
		}
		ki, err := keyOf(out[i], i)
		if err != nil {
			sortErr = err
			return false
		}
		kj, err := keyOf(out[j], j)
		if err != nil {
			sortErr = err
			return false
		}
		less := lessValue(ki, kj)
		if reverse {
			return !less && !ki.Equal(kj)
		}
		return less
	})
	if sortErr != nil {
		return expr.Value{}, core.NewError(fmt.Errorf("core.transform sort: %w", sortErr), core.CodeExpressionError, nil)
	}
	return expr.List(out), nil
}

// lessValue orders two values numerically when both are numbers, and
// lexicographically (on their stringified form) otherwise.
func lessValue(a, b expr.Value) bool {
	if a.Kind() == expr.KindNumber && b.Kind() == expr.KindNumber {
		return a.AsNumber() < b.AsNumber()
	}
	return a.String() < b.String()
}
