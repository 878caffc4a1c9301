// Package expr implements the engine's expression and template resolver: a
// single typed evaluator shared by bare expressions (conditions, items,
// switch expressions, extract paths) and the {{ ... }} segments of string
// templates.
package expr

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Kind tags the variant held by a Value.
type Kind int

const (
	KindNull Kind = iota
	KindUndefined
	KindString
	KindNumber
	KindBool
	KindList
	KindMap
)

// Value is the typed sum every expression evaluates to: String | Number |
// Bool | Null | List | Map | Undefined. Undefined is distinct from Null: it
// marks a failed lookup (missing key, out-of-range index) and propagates
// silently through further access instead of raising.
type Value struct {
	kind Kind
	str  string
	num  float64
	b    bool
	list []Value
	m    map[string]Value
	keys []string // preserves insertion order for Map values
}

func Null() Value      { return Value{kind: KindNull} }
func Undefined() Value { return Value{kind: KindUndefined} }
func Str(s string) Value {
	return Value{kind: KindString, str: s}
}
func Num(n float64) Value { return Value{kind: KindNumber, num: n} }
func Bool(b bool) Value   { return Value{kind: KindBool, b: b} }
func List(items []Value) Value {
	return Value{kind: KindList, list: items}
}

// MapV builds a Map value, preserving the given key order for stable
// iteration (group_by/sort rely on this).
func MapV(keys []string, m map[string]Value) Value {
	return Value{kind: KindMap, m: m, keys: keys}
}

func (v Value) Kind() Kind         { return v.kind }
func (v Value) IsUndefined() bool  { return v.kind == KindUndefined }
func (v Value) IsNull() bool       { return v.kind == KindNull }
func (v Value) IsNullish() bool    { return v.kind == KindNull || v.kind == KindUndefined }
func (v Value) AsString() string   { return v.str }
func (v Value) AsNumber() float64  { return v.num }
func (v Value) AsBool() bool       { return v.b }
func (v Value) AsList() []Value    { return v.list }
func (v Value) MapKeys() []string  { return v.keys }
func (v Value) MapGet(k string) (Value, bool) {
	if v.m == nil {
		return Undefined(), false
	}
	got, ok := v.m[k]
	return got, ok
}

// Truthy implements the spec's boolean-context rules: non-empty string,
// non-zero number, non-empty container, or boolean true. Undefined/null is
// always false.
func (v Value) Truthy() bool {
	switch v.kind {
	case KindBool:
		return v.b
	case KindString:
		return v.str != ""
	case KindNumber:
		return v.num != 0
	case KindList:
		return len(v.list) > 0
	case KindMap:
		return len(v.keys) > 0
	default:
		return false
	}
}

// Equal implements the spec's rule that Undefined compares equal to Null in
// boolean/comparison contexts, alongside ordinary structural equality.
func (v Value) Equal(other Value) bool {
	if v.IsNullish() && other.IsNullish() {
		return true
	}
	if v.kind != other.kind {
		// allow numeric/string cross comparison to fail cleanly, not panic
		return false
	}
	switch v.kind {
	case KindNull, KindUndefined:
		return true
	case KindString:
		return v.str == other.str
	case KindNumber:
		return v.num == other.num
	case KindBool:
		return v.b == other.b
	case KindList:
		if len(v.list) != len(other.list) {
			return false
		}
		for i := range v.list {
			if !v.list[i].Equal(other.list[i]) {
				return false
			}
		}
		return true
	case KindMap:
		if len(v.keys) != len(other.keys) {
			return false
		}
		for _, k := range v.keys {
			a, _ := v.MapGet(k)
			b, ok := other.MapGet(k)
			if !ok || !a.Equal(b) {
				return false
			}
		}
		return true
	}
	return false
}

// String renders the canonical template-stringification of v: booleans as
// true/false, null/undefined as empty string, lists/maps as canonical YAML.
func (v Value) String() string {
	switch v.kind {
	case KindNull, KindUndefined:
		return ""
	case KindString:
		return v.str
	case KindBool:
		if v.b {
			return "true"
		}
		return "false"
	case KindNumber:
		return formatNumber(v.num)
	case KindList, KindMap:
		var sb strings.Builder
		writeYAML(&sb, v, 0)
		return strings.TrimRight(sb.String(), "\n")
	}
	return ""
}

func formatNumber(n float64) string {
	if n == float64(int64(n)) {
		return strconv.FormatInt(int64(n), 10)
	}
	return strconv.FormatFloat(n, 'g', -1, 64)
}

func writeYAML(sb *strings.Builder, v Value, indent int) {
	pad := strings.Repeat("  ", indent)
	switch v.kind {
	case KindList:
		if len(v.list) == 0 {
			sb.WriteString(pad + "[]\n")
			return
		}
		for _, item := range v.list {
			if item.kind == KindList || item.kind == KindMap {
				sb.WriteString(pad + "-\n")
				writeYAML(sb, item, indent+1)
			} else {
				sb.WriteString(pad + "- " + scalarYAML(item) + "\n")
			}
		}
	case KindMap:
		if len(v.keys) == 0 {
			sb.WriteString(pad + "{}\n")
			return
		}
		for _, k := range v.keys {
			val := v.m[k]
			if val.kind == KindList || val.kind == KindMap {
				sb.WriteString(pad + k + ":\n")
				writeYAML(sb, val, indent+1)
			} else {
				sb.WriteString(pad + k + ": " + scalarYAML(val) + "\n")
			}
		}
	default:
		sb.WriteString(pad + scalarYAML(v) + "\n")
	}
}

func scalarYAML(v Value) string {
	switch v.kind {
	case KindNull, KindUndefined:
		return "null"
	case KindString:
		return v.str
	case KindBool:
		if v.b {
			return "true"
		}
		return "false"
	case KindNumber:
		return formatNumber(v.num)
	}
	return ""
}

// FromGo converts a Go native value (as produced by encoding/json or YAML
// decoding, or held in a core.Input/Output map) into a Value.
func FromGo(v any) Value {
	switch t := v.(type) {
	case nil:
		return Null()
	case Value:
		return t
	case string:
		return Str(t)
	case bool:
		return Bool(t)
	case int:
		return Num(float64(t))
	case int32:
		return Num(float64(t))
	case int64:
		return Num(float64(t))
	case float32:
		return Num(float64(t))
	case float64:
		return Num(t)
	case []any:
		items := make([]Value, len(t))
		for i, e := range t {
			items[i] = FromGo(e)
		}
		return List(items)
	case []Value:
		return List(t)
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		m := make(map[string]Value, len(t))
		for k, val := range t {
			m[k] = FromGo(val)
		}
		return MapV(keys, m)
	default:
		return Str(fmt.Sprintf("%v", t))
	}
}

// ToGo converts a Value back into a plain Go value (string/float64/bool/nil/
// []any/map[string]any) suitable for storage in a core.Input/Output map.
func (v Value) ToGo() any {
	switch v.kind {
	case KindNull, KindUndefined:
		return nil
	case KindString:
		return v.str
	case KindBool:
		return v.b
	case KindNumber:
		return v.num
	case KindList:
		out := make([]any, len(v.list))
		for i, e := range v.list {
			out[i] = e.ToGo()
		}
		return out
	case KindMap:
		out := make(map[string]any, len(v.keys))
		for _, k := range v.keys {
			out[k] = v.m[k].ToGo()
		}
		return out
	}
	return nil
}
