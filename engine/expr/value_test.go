package expr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValueTruthy(t *testing.T) {
	t.Run("Should treat empty containers and zero values as falsy", func(t *testing.T) {
		assert.False(t, Str("").Truthy())
		assert.False(t, Num(0).Truthy())
		assert.False(t, List(nil).Truthy())
		assert.False(t, Null().Truthy())
		assert.False(t, Undefined().Truthy())
	})

	t.Run("Should treat non-empty values as truthy", func(t *testing.T) {
		assert.True(t, Str("x").Truthy())
		assert.True(t, Num(1).Truthy())
		assert.True(t, Bool(true).Truthy())
		assert.True(t, List([]Value{Num(1)}).Truthy())
	})
}

func TestValueEqual(t *testing.T) {
	t.Run("Should treat Undefined as equal to Null", func(t *testing.T) {
		assert.True(t, Undefined().Equal(Null()))
		assert.True(t, Null().Equal(Undefined()))
	})

	t.Run("Should compare lists and maps structurally", func(t *testing.T) {
		a := List([]Value{Num(1), Str("x")})
		b := List([]Value{Num(1), Str("x")})
		assert.True(t, a.Equal(b))

		m1 := MapV([]string{"a"}, map[string]Value{"a": Num(1)})
		m2 := MapV([]string{"a"}, map[string]Value{"a": Num(1)})
		assert.True(t, m1.Equal(m2))
	})

	t.Run("Should not equate different kinds", func(t *testing.T) {
		assert.False(t, Str("1").Equal(Num(1)))
	})
}

func TestValueStringRendering(t *testing.T) {
	t.Run("Should render booleans as true/false", func(t *testing.T) {
		assert.Equal(t, "true", Bool(true).String())
		assert.Equal(t, "false", Bool(false).String())
	})

	t.Run("Should render null and undefined as empty string", func(t *testing.T) {
		assert.Equal(t, "", Null().String())
		assert.Equal(t, "", Undefined().String())
	})

	t.Run("Should render whole numbers without a decimal point", func(t *testing.T) {
		assert.Equal(t, "3", Num(3).String())
		assert.Equal(t, "3.5", Num(3.5).String())
	})
}

func TestFromGoToGoRoundTrip(t *testing.T) {
	t.Run("Should round-trip nested maps and lists", func(t *testing.T) {
		native := map[string]any{
			"name":  "demo",
			"count": 3,
			"tags":  []any{"a", "b"},
		}
		v := FromGo(native)
		back := v.ToGo().(map[string]any)
		assert.Equal(t, "demo", back["name"])
		assert.Equal(t, float64(3), back["count"])
		assert.Equal(t, []any{"a", "b"}, back["tags"])
	})
}
