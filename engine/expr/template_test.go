package expr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	env := MapEnv{"name": "world", "count": 3}

	t.Run("Should return plain text unchanged", func(t *testing.T) {
		out, err := Render("hello", env)
		require.NoError(t, err)
		assert.Equal(t, "hello", out)
	})

	t.Run("Should interpolate a single expression span", func(t *testing.T) {
		out, err := Render("hello {{ name }}", env)
		require.NoError(t, err)
		assert.Equal(t, "hello world", out)
	})

	t.Run("Should interpolate multiple spans", func(t *testing.T) {
		out, err := Render("{{ name }} has {{ count }} items", env)
		require.NoError(t, err)
		assert.Equal(t, "world has 3 items", out)
	})

	t.Run("Should render undefined spans as empty string", func(t *testing.T) {
		out, err := Render("value: [{{ missing }}]", env)
		require.NoError(t, err)
		assert.Equal(t, "value: []", out)
	})

	t.Run("Should propagate evaluation errors", func(t *testing.T) {
		_, err := Render("{{ 1 / 0 }}", env)
		require.Error(t, err)
	})
}

func TestResolveValue(t *testing.T) {
	t.Run("Should preserve the native type for a bare single-expression template", func(t *testing.T) {
		env := MapEnv{"items": []any{1, 2, 3}}
		v, err := ResolveValue("{{ items }}", env)
		require.NoError(t, err)
		assert.Equal(t, KindList, v.Kind())
		assert.Len(t, v.AsList(), 3)
	})

	t.Run("Should stringify mixed literal and expression content", func(t *testing.T) {
		env := MapEnv{"name": "ada"}
		v, err := ResolveValue("hello {{ name }}", env)
		require.NoError(t, err)
		assert.Equal(t, KindString, v.Kind())
		assert.Equal(t, "hello ada", v.AsString())
	})

	t.Run("Should return a plain string as-is when it has no expression spans", func(t *testing.T) {
		v, err := ResolveValue("plain", MapEnv{})
		require.NoError(t, err)
		assert.Equal(t, "plain", v.AsString())
	})
}
