package scope

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScopeLookup(t *testing.T) {
	t.Run("Should resolve a binding made in the current frame", func(t *testing.T) {
		s := NewRoot(map[string]any{"a": 1})
		v, ok := s.Lookup("a")
		require.True(t, ok)
		assert.Equal(t, 1, v)
	})

	t.Run("Should fall through to the parent frame on miss", func(t *testing.T) {
		root := NewRoot(map[string]any{"a": 1})
		child := root.Child()
		child.Bind("b", 2)

		v, ok := child.Lookup("a")
		require.True(t, ok)
		assert.Equal(t, 1, v)
	})

	t.Run("Should shadow a parent binding with a child binding of the same name", func(t *testing.T) {
		root := NewRoot(map[string]any{"a": 1})
		child := root.Child()
		child.Bind("a", 99)

		v, _ := child.Lookup("a")
		assert.Equal(t, 99, v)
		rootV, _ := root.Lookup("a")
		assert.Equal(t, 1, rootV)
	})

	t.Run("Should report false for an unbound name", func(t *testing.T) {
		s := NewRoot(nil)
		_, ok := s.Lookup("missing")
		assert.False(t, ok)
	})
}

func TestScopeBindAtRoot(t *testing.T) {
	t.Run("Should bind visibly to the outermost frame from a deep child", func(t *testing.T) {
		root := NewRoot(nil)
		child := root.Child().Child().Child()
		child.BindAtRoot("shared", "visible")

		v, ok := root.Lookup("shared")
		require.True(t, ok)
		assert.Equal(t, "visible", v)
	})
}

func TestScopeSnapshot(t *testing.T) {
	t.Run("Should flatten the parent chain with nearer frames winning", func(t *testing.T) {
		root := NewRoot(map[string]any{"a": 1, "b": 1})
		child := root.Child()
		child.Bind("b", 2)
		child.Bind("c", 3)

		snap := child.Snapshot()
		assert.Equal(t, 1, snap["a"])
		assert.Equal(t, 2, snap["b"])
		assert.Equal(t, 3, snap["c"])
	})
}

func TestScopeMerge(t *testing.T) {
	t.Run("Should merge another scope's own bindings at the top level", func(t *testing.T) {
		dst := NewRoot(map[string]any{"a": 1})
		src := NewRoot(map[string]any{"a": 2, "b": 3})

		require.NoError(t, dst.Merge(src, ""))
		v, _ := dst.Lookup("a")
		assert.Equal(t, 2, v)
		v, _ = dst.Lookup("b")
		assert.Equal(t, 3, v)
	})

	t.Run("Should nest another scope's bindings under a prefix key", func(t *testing.T) {
		dst := NewRoot(nil)
		src := NewRoot(map[string]any{"result": "ok"})

		require.NoError(t, dst.Merge(src, "branch_a"))
		v, ok := dst.Lookup("branch_a")
		require.True(t, ok)
		nested, ok := v.(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "ok", nested["result"])
	})

	t.Run("Should be a no-op when other is nil", func(t *testing.T) {
		dst := NewRoot(map[string]any{"a": 1})
		require.NoError(t, dst.Merge(nil, ""))
		v, _ := dst.Lookup("a")
		assert.Equal(t, 1, v)
	})
}
