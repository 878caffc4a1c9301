package builtin

import (
	"testing"

	"github.com/stepwise/stepwise/engine/expr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract(t *testing.T) {
	env := expr.MapEnv{"data": map[string]any{
		"users": []any{
			map[string]any{"name": "ada"},
			map[string]any{"name": "grace"},
		},
	}}

	t.Run("Should navigate dotted and indexed paths", func(t *testing.T) {
		out, err := Extract(map[string]any{"input": "data", "path": "users[1].name"}, env)
		require.NoError(t, err)
		assert.Equal(t, "grace", out["result"])
	})

	t.Run("Should return the configured default on a missing path", func(t *testing.T) {
		out, err := Extract(map[string]any{"input": "data", "path": "users[9].name", "default": "anon"}, env)
		require.NoError(t, err)
		assert.Equal(t, "anon", out["result"])
	})

	t.Run("Should return nil when no default is configured and the path is missing", func(t *testing.T) {
		out, err := Extract(map[string]any{"input": "data", "path": "missing.field"}, env)
		require.NoError(t, err)
		assert.Nil(t, out["result"])
	})

	t.Run("Should never error on a missing path", func(t *testing.T) {
		_, err := Extract(map[string]any{"input": "data", "path": "a.b.c.d.e"}, env)
		require.NoError(t, err)
	})
}
