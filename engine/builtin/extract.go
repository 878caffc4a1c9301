package builtin

import (
	"strconv"
	"strings"

	"github.com/stepwise/stepwise/engine/expr"
)

// Extract implements core.extract: navigate input along a dot/[n] path,
// returning the value found or the configured default (or null) on any
// undefined segment. It never errors on a missing path.
func Extract(rawInputs map[string]any, env expr.Env) (map[string]any, error) {
	target, err := resolveBareValue(rawInputs["input"], env)
	if err != nil {
		return nil, err
	}
	path, _ := stringParam(rawInputs, "path")

	result := navigate(target, path)
	if result.IsUndefined() {
		if def, ok := rawInputs["default"]; ok {
			return map[string]any{"result": def}, nil
		}
		return map[string]any{"result": nil}, nil
	}
	return map[string]any{"result": result.ToGo()}, nil
}

// navigate walks v along path's dot segments and [n] indices, returning
// Undefined on the first segment that cannot be resolved.
func navigate(v expr.Value, path string) expr.Value {
	if path == "" {
		return v
	}
	for _, segment := range splitPath(path) {
		if v.IsUndefined() {
			return v
		}
		if segment.isIndex {
			if v.Kind() != expr.KindList || segment.index < 0 || segment.index >= len(v.AsList()) {
				return expr.Undefined()
			}
			v = v.AsList()[segment.index]
			continue
		}
		if v.Kind() != expr.KindMap {
			return expr.Undefined()
		}
		next, ok := v.MapGet(segment.field)
		if !ok {
			return expr.Undefined()
		}
		v = next
	}
	return v
}

type pathSegment struct {
	field   string
	index   int
	isIndex bool
}

// splitPath tokenizes "a.b[2].c" into [field:a, field:b, index:2, field:c].
func splitPath(path string) []pathSegment {
	var segments []pathSegment
	var field strings.Builder
	flushField := func() {
		if field.Len() > 0 {
			segments = append(segments, pathSegment{field: field.String()})
			field.Reset()
		}
	}
	i := 0
	for i < len(path) {
		ch := path[i]
		switch ch {
		case '.':
			flushField()
			i++
		case '[':
			flushField()
			end := strings.IndexByte(path[i:], ']')
			if end == -1 {
				return segments
			}
			end += i
			idx, err := strconv.Atoi(strings.TrimSpace(path[i+1 : end]))
			if err == nil {
				segments = append(segments, pathSegment{index: idx, isIndex: true})
			}
			i = end + 1
		default:
			field.WriteByte(ch)
			i++
		}
	}
	flushField()
	return segments
}
