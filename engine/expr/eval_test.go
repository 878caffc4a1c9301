package expr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvalArithmeticAndComparison(t *testing.T) {
	env := MapEnv{"x": 10, "y": 3}

	cases := []struct {
		name string
		expr string
		want Value
	}{
		{"addition", "x + y", Num(13)},
		{"subtraction", "x - y", Num(7)},
		{"multiplication", "x * y", Num(30)},
		{"division", "x / y", Num(10.0 / 3.0)},
		{"modulo", "x % y", Num(1)},
		{"greater than", "x > y", Bool(true)},
		{"less than or equal", "x <= y", Bool(false)},
		{"equality", "x == 10", Bool(true)},
		{"inequality", "x != y", Bool(true)},
		{"string concatenation", `"a" + "b"`, Str("ab")},
		{"boolean and", "true && false", Bool(false)},
		{"boolean or", "false || true", Bool(true)},
		{"unary not", "!false", Bool(true)},
		{"unary minus", "-x", Num(-10)},
		{"parenthesized", "(x + y) * 2", Num(26)},
		{"keyword and", "true and false", Bool(false)},
		{"keyword or", "false or true", Bool(true)},
		{"keyword not", "not false", Bool(true)},
		{"keyword operators combine with symbolic ones", "x > y and not false", Bool(true)},
	}
	for _, tc := range cases {
		t.Run("Should evaluate "+tc.name, func(t *testing.T) {
			v, err := Eval(tc.expr, env)
			require.NoError(t, err)
			assert.True(t, tc.want.Equal(v), "expected %v got %v", tc.want, v)
		})
	}
}

func TestEvalUndefinedPropagation(t *testing.T) {
	env := MapEnv{"obj": map[string]any{"a": 1}}

	t.Run("Should return Undefined for a missing identifier", func(t *testing.T) {
		v, err := Eval("missing", env)
		require.NoError(t, err)
		assert.True(t, v.IsUndefined())
	})

	t.Run("Should return Undefined for a missing field without erroring", func(t *testing.T) {
		v, err := Eval("obj.b.c", env)
		require.NoError(t, err)
		assert.True(t, v.IsUndefined())
	})

	t.Run("Should return Undefined for an out-of-range index", func(t *testing.T) {
		env2 := MapEnv{"list": []any{1, 2}}
		v, err := Eval("list[5]", env2)
		require.NoError(t, err)
		assert.True(t, v.IsUndefined())
	})

	t.Run("Should propagate Undefined through arithmetic as Undefined, not error", func(t *testing.T) {
		v, err := Eval("missing + 1", env)
		require.NoError(t, err)
		assert.True(t, v.IsUndefined())
	})

	t.Run("Should compare Undefined equal to null", func(t *testing.T) {
		v, err := Eval("missing == null", env)
		require.NoError(t, err)
		assert.True(t, v.Truthy())
	})
}

func TestEvalFieldAndIndexAccess(t *testing.T) {
	env := MapEnv{
		"user": map[string]any{
			"name": "ada",
			"tags": []any{"admin", "ops"},
		},
	}

	t.Run("Should resolve dotted field access", func(t *testing.T) {
		v, err := Eval("user.name", env)
		require.NoError(t, err)
		assert.Equal(t, "ada", v.AsString())
	})

	t.Run("Should resolve bracket index access on a list field", func(t *testing.T) {
		v, err := Eval("user.tags[1]", env)
		require.NoError(t, err)
		assert.Equal(t, "ops", v.AsString())
	})

	t.Run("Should resolve bracket string access on a map", func(t *testing.T) {
		v, err := Eval(`user["name"]`, env)
		require.NoError(t, err)
		assert.Equal(t, "ada", v.AsString())
	})
}

func TestEvalErrors(t *testing.T) {
	env := MapEnv{}

	t.Run("Should error on division by zero", func(t *testing.T) {
		_, err := Eval("1 / 0", env)
		require.Error(t, err)
	})

	t.Run("Should error on a malformed expression", func(t *testing.T) {
		_, err := Eval("1 + + ", env)
		require.Error(t, err)
	})

	t.Run("Should error when comparing a number to a string", func(t *testing.T) {
		_, err := Eval(`1 < "a"`, env)
		require.Error(t, err)
	})
}

func TestEvalPipeFilters(t *testing.T) {
	env := MapEnv{"name": "Ada Lovelace", "missing": nil}

	t.Run("Should apply upper", func(t *testing.T) {
		v, err := Eval("name | upper", env)
		require.NoError(t, err)
		assert.Equal(t, "ADA LOVELACE", v.AsString())
	})

	t.Run("Should apply default when value is undefined", func(t *testing.T) {
		v, err := Eval(`absent | default("fallback")`, env)
		require.NoError(t, err)
		assert.Equal(t, "fallback", v.AsString())
	})

	t.Run("Should apply length to a list", func(t *testing.T) {
		env2 := MapEnv{"items": []any{1, 2, 3}}
		v, err := Eval("items | length", env2)
		require.NoError(t, err)
		assert.Equal(t, float64(3), v.AsNumber())
	})

	t.Run("Should chain multiple filters", func(t *testing.T) {
		v, err := Eval("name | lower | upper", env)
		require.NoError(t, err)
		assert.Equal(t, "ADA LOVELACE", v.AsString())
	})

	t.Run("Should merge two maps with the right operand winning", func(t *testing.T) {
		env2 := MapEnv{
			"base":    map[string]any{"a": 1, "b": 2},
			"overlay": map[string]any{"b": 20, "c": 3},
		}
		v, err := Eval("base | merge(overlay)", env2)
		require.NoError(t, err)
		got, _ := v.MapGet("b")
		assert.Equal(t, float64(20), got.AsNumber())
		got, _ = v.MapGet("c")
		assert.Equal(t, float64(3), got.AsNumber())
	})
}
