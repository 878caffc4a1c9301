package expr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveAny(t *testing.T) {
	env := MapEnv{"name": "ada", "count": 2}

	t.Run("Should resolve templates nested inside maps and lists", func(t *testing.T) {
		input := map[string]any{
			"greeting": "hello {{ name }}",
			"tags":     []any{"{{ name }}", "static"},
			"nested":   map[string]any{"n": "{{ count }}"},
		}
		out, err := ResolveAny(input, env)
		require.NoError(t, err)
		m := out.(map[string]any)
		assert.Equal(t, "hello ada", m["greeting"])
		assert.Equal(t, []any{"ada", "static"}, m["tags"])
		assert.Equal(t, "2", m["nested"].(map[string]any)["n"])
	})

	t.Run("Should pass non-string scalars through unchanged", func(t *testing.T) {
		out, err := ResolveAny(42, env)
		require.NoError(t, err)
		assert.Equal(t, 42, out)
	})
}
