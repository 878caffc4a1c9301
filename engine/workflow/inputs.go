package workflow

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/stepwise/stepwise/engine/core"
)

// ResolveInputs validates raw against d's input schema: rejects missing
// required inputs, applies declared defaults, and trivially coerces
// string-typed values into numbers/booleans when the schema calls for one
// and the string parses cleanly. It never mutates raw.
func (d *Document) ResolveInputs(raw map[string]any) (core.Input, error) {
	resolved := make(core.Input, len(d.Inputs))
	for k, v := range raw {
		resolved[k] = v
	}

	var missing []string
	for name, spec := range d.Inputs {
		val, present := resolved[name]
		if !present {
			if spec.Default != nil {
				resolved[name] = spec.Default
				continue
			}
			if spec.Required {
				missing = append(missing, describeMissing(name, spec))
				continue
			}
			continue
		}
		coerced, err := coerce(val, spec.Type)
		if err != nil {
			return nil, core.NewError(
				fmt.Errorf("input %q: %w", name, err),
				core.CodeInvalidSchema,
				map[string]any{"input": name},
			)
		}
		resolved[name] = coerced
	}

	if len(missing) > 0 {
		return nil, core.NewError(
			fmt.Errorf("missing required inputs: %s", strings.Join(missing, "; ")),
			core.CodeMissingInputs,
			map[string]any{"missing": missing},
		)
	}
	return resolved, nil
}

func describeMissing(name string, spec InputSpec) string {
	if spec.Description != "" {
		return fmt.Sprintf("%s (%s)", name, spec.Description)
	}
	return name
}

func coerce(v any, want InputType) (any, error) {
	switch want {
	case InputNumber:
		switch t := v.(type) {
		case float64, int, int64:
			return v, nil
		case string:
			f, err := strconv.ParseFloat(t, 64)
			if err != nil {
				return nil, fmt.Errorf("expected a number, got %q", t)
			}
			return f, nil
		}
	case InputBoolean:
		switch t := v.(type) {
		case bool:
			return v, nil
		case string:
			b, err := strconv.ParseBool(t)
			if err != nil {
				return nil, fmt.Errorf("expected a boolean, got %q", t)
			}
			return b, nil
		}
	case InputString:
		if _, ok := v.(string); !ok {
			return fmt.Sprintf("%v", v), nil
		}
	}
	return v, nil
}
