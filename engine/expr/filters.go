package expr

import (
	"fmt"

	"github.com/Masterminds/sprig/v3"
)

// filterFunc receives the piped-in value as args[0] followed by any
// explicit call arguments, and returns the filtered Value.
type filterFunc func(args []Value) (Value, error)

// sprigFuncs gives us the real sprig.TxtFuncMap() implementations for the
// plain string-transform filters, so "upper"/"lower"/"title"/"trim" are
// byte-for-byte what a sprig-based template pipeline would produce.
var sprigFuncs = sprig.TxtFuncMap()

func sprigStringFilter(name string) filterFunc {
	fn, ok := sprigFuncs[name].(func(string) string)
	if !ok {
		panic(fmt.Sprintf("expr: sprig function %q has an unexpected signature", name))
	}
	return func(args []Value) (Value, error) {
		if len(args) == 0 {
			return Value{}, fmt.Errorf("filter %q: missing input value", name)
		}
		if args[0].IsUndefined() {
			return Undefined(), nil
		}
		return Str(fn(args[0].String())), nil
	}
}

var filters = map[string]filterFunc{
	"upper": sprigStringFilter("upper"),
	"lower": sprigStringFilter("lower"),
	"title": sprigStringFilter("title"),
	"trim":  sprigStringFilter("trim"),
	"merge": mergeFilter,
	"length": lengthFilter,
	"default": defaultFilter,
}

// mergeFilter merges map b into map a, with b's keys taking precedence —
// the same override direction engine/core.Input.Merge uses via mergo.
func mergeFilter(args []Value) (Value, error) {
	if len(args) != 2 {
		return Value{}, fmt.Errorf("filter %q: expected exactly one argument", "merge")
	}
	a, b := args[0], args[1]
	if a.Kind() != KindMap || b.Kind() != KindMap {
		return Value{}, fmt.Errorf("filter %q: both operands must be maps", "merge")
	}
	keys := append([]string{}, a.MapKeys()...)
	m := make(map[string]Value, len(keys))
	for _, k := range keys {
		v, _ := a.MapGet(k)
		m[k] = v
	}
	for _, k := range b.MapKeys() {
		if _, exists := m[k]; !exists {
			keys = append(keys, k)
		}
		v, _ := b.MapGet(k)
		m[k] = v
	}
	return MapV(keys, m), nil
}

// lengthFilter reports len() for strings, lists and maps; Undefined/Null
// report zero rather than erroring, matching the template surface's
// tolerance for missing values.
func lengthFilter(args []Value) (Value, error) {
	if len(args) != 1 {
		return Value{}, fmt.Errorf("filter %q: takes no arguments", "length")
	}
	v := args[0]
	switch v.Kind() {
	case KindString:
		return Num(float64(len([]rune(v.AsString())))), nil
	case KindList:
		return Num(float64(len(v.AsList()))), nil
	case KindMap:
		return Num(float64(len(v.MapKeys()))), nil
	default:
		return Num(0), nil
	}
}

// defaultFilter returns its argument when the piped-in value is Undefined
// or Null, otherwise passes the value through unchanged.
func defaultFilter(args []Value) (Value, error) {
	if len(args) != 2 {
		return Value{}, fmt.Errorf("filter %q: expected exactly one argument", "default")
	}
	v, fallback := args[0], args[1]
	if v.IsNullish() {
		return fallback, nil
	}
	return v, nil
}
