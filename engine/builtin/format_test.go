package builtin

import (
	"testing"

	"github.com/stepwise/stepwise/engine/expr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatNumberAndCurrency(t *testing.T) {
	env := expr.MapEnv{"amount": 1234.5}

	t.Run("Should format a number with the requested precision", func(t *testing.T) {
		out, err := Format(map[string]any{"value": "amount", "type": "number", "precision": 1.0}, env)
		require.NoError(t, err)
		assert.Equal(t, "1234.5", out["result"])
	})

	t.Run("Should format a currency with the known symbol", func(t *testing.T) {
		out, err := Format(map[string]any{"value": "amount", "type": "currency", "currency": "USD"}, env)
		require.NoError(t, err)
		assert.Equal(t, "$1234.50", out["result"])
	})
}

func TestFormatDate(t *testing.T) {
	env := expr.MapEnv{"ts": "2024-03-05T13:04:05Z"}

	t.Run("Should translate YYYY-MM-DD tokens", func(t *testing.T) {
		out, err := Format(map[string]any{"value": "ts", "type": "date", "format": "YYYY-MM-DD"}, env)
		require.NoError(t, err)
		assert.Equal(t, "2024-03-05", out["result"])
	})

	t.Run("Should translate time tokens", func(t *testing.T) {
		out, err := Format(map[string]any{"value": "ts", "type": "date", "format": "HH:mm:ss"}, env)
		require.NoError(t, err)
		assert.Equal(t, "13:04:05", out["result"])
	})
}

func TestFormatStringAndJSON(t *testing.T) {
	env := expr.MapEnv{"s": "Hello World"}

	t.Run("Should upper-case a string", func(t *testing.T) {
		out, err := Format(map[string]any{"value": "s", "type": "string", "format": "upper"}, env)
		require.NoError(t, err)
		assert.Equal(t, "HELLO WORLD", out["result"])
	})

	t.Run("Should pretty-print JSON", func(t *testing.T) {
		env2 := expr.MapEnv{"v": map[string]any{"a": 1.0}}
		out, err := Format(map[string]any{"value": "v", "type": "json"}, env2)
		require.NoError(t, err)
		assert.Contains(t, out["result"], "\"a\": 1")
	})

	t.Run("Should fail on an unknown type", func(t *testing.T) {
		_, err := Format(map[string]any{"value": "s", "type": "bogus"}, env)
		require.Error(t, err)
	})
}
