package builtin

import (
	"fmt"

	"github.com/stepwise/stepwise/engine/core"
	"github.com/stepwise/stepwise/engine/expr"
)

// Set implements core.set: template-resolve every value in rawInputs and
// return the resulting map as the step output.
func Set(rawInputs map[string]any, env expr.Env) (map[string]any, error) {
	resolved, err := expr.ResolveAny(rawInputs, env)
	if err != nil {
		return nil, core.NewError(fmt.Errorf("core.set: %w", err), core.CodeExpressionError, nil)
	}
	out, ok := resolved.(map[string]any)
	if !ok {
		return nil, core.NewError(fmt.Errorf("core.set: inputs did not resolve to a map"), core.CodeTypeError, nil)
	}
	return out, nil
}
