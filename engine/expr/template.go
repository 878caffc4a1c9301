package expr

import "strings"

// IsTemplate reports whether s contains at least one {{ }} span and
// therefore needs resolution before use.
func IsTemplate(s string) bool {
	return strings.Contains(s, "{{")
}

type span struct {
	literal string // text before the expression, verbatim
	expr    string // expression source, empty for the trailing literal span
}

// splitSpans breaks tmpl into alternating literal/expression spans. The
// final span always carries literal with an empty expr.
func splitSpans(tmpl string) []span {
	var spans []span
	rest := tmpl
	for {
		start := strings.Index(rest, "{{")
		if start == -1 {
			spans = append(spans, span{literal: rest})
			return spans
		}
		end := strings.Index(rest[start:], "}}")
		if end == -1 {
			spans = append(spans, span{literal: rest})
			return spans
		}
		end += start
		literal := rest[:start]
		exprSrc := strings.TrimSpace(rest[start+2 : end])
		spans = append(spans, span{literal: literal, expr: exprSrc})
		rest = rest[end+2:]
	}
}

// Render resolves every {{ expr }} span in tmpl against env and returns the
// fully stringified result. Plain text with no spans is returned unchanged.
func Render(tmpl string, env Env) (string, error) {
	if !IsTemplate(tmpl) {
		return tmpl, nil
	}
	spans := splitSpans(tmpl)
	var sb strings.Builder
	for _, s := range spans {
		sb.WriteString(s.literal)
		if s.expr == "" {
			continue
		}
		v, err := Eval(s.expr, env)
		if err != nil {
			return "", err
		}
		sb.WriteString(v.String())
	}
	return sb.String(), nil
}

// ResolveAny walks v (as produced by YAML/JSON decoding: map[string]any,
// []any, string, or a scalar) and resolves every string's template spans
// against env, recursing into nested maps and lists. Non-string scalars
// pass through unchanged. This is how `action`/`core.*` step inputs are
// resolved against the current scope before dispatch.
func ResolveAny(v any, env Env) (any, error) {
	switch t := v.(type) {
	case string:
		val, err := ResolveValue(t, env)
		if err != nil {
			return nil, err
		}
		return val.ToGo(), nil
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, elem := range t {
			resolved, err := ResolveAny(elem, env)
			if err != nil {
				return nil, err
			}
			out[k] = resolved
		}
		return out, nil
	case []any:
		out := make([]any, len(t))
		for i, elem := range t {
			resolved, err := ResolveAny(elem, env)
			if err != nil {
				return nil, err
			}
			out[i] = resolved
		}
		return out, nil
	default:
		return v, nil
	}
}

// ResolveValue resolves tmpl against env, preserving the evaluated Value's
// native type when tmpl is a single bare `{{ expr }}` span with no
// surrounding literal text (so `items: "{{ some_list }}"` yields a List, not
// its stringified form). Mixed literal/expression content always resolves
// to a String, matching Render.
func ResolveValue(tmpl string, env Env) (Value, error) {
	if !IsTemplate(tmpl) {
		return Str(tmpl), nil
	}
	spans := splitSpans(tmpl)
	if len(spans) == 2 && spans[0].literal == "" && spans[1].literal == "" && spans[1].expr == "" {
		return Eval(spans[0].expr, env)
	}
	rendered, err := Render(tmpl, env)
	if err != nil {
		return Value{}, err
	}
	return Str(rendered), nil
}
