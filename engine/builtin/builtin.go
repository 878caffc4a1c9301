package builtin

import (
	"fmt"
	"strings"

	"github.com/stepwise/stepwise/engine/core"
	"github.com/stepwise/stepwise/engine/expr"
)

// Prefix identifies an action name as a built-in rather than an executor
// adapter call.
const Prefix = "core."

// IsBuiltin reports whether action names a core.* operation.
func IsBuiltin(action string) bool {
	return strings.HasPrefix(action, Prefix)
}

// Dispatch runs the named core.* operation against rawInputs (unresolved
// template/expression strings as the document declared them) and env (the
// step's current scope). It returns the operation's output map, ready to
// bind at output_variable.
func Dispatch(action string, rawInputs map[string]any, env expr.Env) (map[string]any, error) {
	op := strings.TrimPrefix(action, Prefix)
	switch op {
	case "set":
		return Set(rawInputs, env)
	case "transform":
		return Transform(rawInputs, env)
	case "extract":
		return Extract(rawInputs, env)
	case "format":
		return Format(rawInputs, env)
	default:
		return nil, core.NewError(
			fmt.Errorf("unknown built-in operation %q", action),
			core.CodeUnknownOperation,
			map[string]any{"action": action},
		)
	}
}

// resolveSequence evaluates raw (a bare expression string, or an
// already-native list) and requires the result to be an ordered sequence,
// per the spec's invariant that transform/for_each never accept streams.
func resolveSequence(raw any, env expr.Env) ([]expr.Value, error) {
	v, err := resolveBareValue(raw, env)
	if err != nil {
		return nil, err
	}
	if v.Kind() != expr.KindList {
		return nil, core.NewError(
			fmt.Errorf("expected an ordered sequence, got %v", v.Kind()),
			core.CodeTypeError, nil,
		)
	}
	return v.AsList(), nil
}

// resolveBareValue evaluates raw as a bare expression when it is a string,
// or converts it directly otherwise (already-resolved literal value).
func resolveBareValue(raw any, env expr.Env) (expr.Value, error) {
	s, ok := raw.(string)
	if !ok {
		return expr.FromGo(raw), nil
	}
	return expr.Eval(s, env)
}

func stringParam(params map[string]any, key string) (string, bool) {
	v, ok := params[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}
