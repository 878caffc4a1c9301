package builtin

import (
	"testing"

	"github.com/stepwise/stepwise/engine/expr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSet(t *testing.T) {
	env := expr.MapEnv{"name": "ada"}

	t.Run("Should template-resolve every input value", func(t *testing.T) {
		out, err := Set(map[string]any{"greeting": "hello {{ name }}", "literal": 5.0}, env)
		require.NoError(t, err)
		assert.Equal(t, "hello ada", out["greeting"])
		assert.Equal(t, 5.0, out["literal"])
	})
}

func TestDispatch(t *testing.T) {
	env := expr.MapEnv{}

	t.Run("Should route core.set by action name", func(t *testing.T) {
		out, err := Dispatch("core.set", map[string]any{"a": 1.0}, env)
		require.NoError(t, err)
		assert.Equal(t, 1.0, out["a"])
	})

	t.Run("Should fail on an unknown core operation", func(t *testing.T) {
		_, err := Dispatch("core.nonexistent", map[string]any{}, env)
		require.Error(t, err)
	})

	t.Run("Should recognise the core. prefix", func(t *testing.T) {
		assert.True(t, IsBuiltin("core.set"))
		assert.False(t, IsBuiltin("slack.post_message"))
	})
}
