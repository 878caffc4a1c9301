package executor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryLookup(t *testing.T) {
	reg := NewRegistry()
	reg.Register("slack", NewEchoExecutor("slack", "post_message"))

	t.Run("Should resolve an adapter by the tool prefix of an action name", func(t *testing.T) {
		adapter, err := reg.Lookup("slack.post_message")
		require.NoError(t, err)
		assert.Equal(t, "slack", adapter.Describe().ToolName)
	})

	t.Run("Should fail when no adapter is registered for the tool", func(t *testing.T) {
		_, err := reg.Lookup("github.create_issue")
		require.Error(t, err)
	})

	t.Run("Should fail when the action name has no dot", func(t *testing.T) {
		_, err := reg.Lookup("malformed")
		require.Error(t, err)
	})
}

func TestEchoExecutor(t *testing.T) {
	t.Run("Should return its inputs unchanged plus an echoed marker", func(t *testing.T) {
		e := NewEchoExecutor("slack", "post_message")
		out, err := e.Execute(context.Background(), "slack.post_message", map[string]any{"text": "hi"}, Context{})
		require.NoError(t, err)
		assert.Equal(t, "hi", out["text"])
		assert.Equal(t, true, out["echoed"])
	})
}

func TestNopExecutor(t *testing.T) {
	t.Run("Should always fail with ExecutorError", func(t *testing.T) {
		n := NewNopExecutor("github")
		_, err := n.Execute(context.Background(), "github.create_issue", nil, Context{})
		require.Error(t, err)
	})
}
