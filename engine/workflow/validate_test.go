package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validDoc() *Document {
	return &Document{
		ID:   "wf-1",
		Name: "demo",
		Steps: []Step{
			{ID: "step-1", Kind: KindAction, Action: "core.set", Inputs: map[string]any{"x": 1}},
		},
	}
}

func TestDocumentValidate(t *testing.T) {
	t.Run("Should accept a minimal valid document", func(t *testing.T) {
		require.NoError(t, validDoc().Validate())
	})

	t.Run("Should reject a document missing an id", func(t *testing.T) {
		d := validDoc()
		d.ID = ""
		require.Error(t, d.Validate())
	})

	t.Run("Should reject duplicate sibling step ids", func(t *testing.T) {
		d := validDoc()
		d.Steps = append(d.Steps, Step{ID: "step-1", Kind: KindAction, Action: "core.set"})
		err := d.Validate()
		require.Error(t, err)
	})

	t.Run("Should reject an unknown step type", func(t *testing.T) {
		d := validDoc()
		d.Steps[0].Kind = "bogus"
		require.Error(t, d.Validate())
	})

	t.Run("Should reject an if step without then", func(t *testing.T) {
		d := validDoc()
		d.Steps = []Step{{ID: "s1", Kind: KindIf, Condition: "true"}}
		require.Error(t, d.Validate())
	})

	t.Run("Should reject a reduce step without accumulator_variable", func(t *testing.T) {
		d := validDoc()
		d.Steps = []Step{{ID: "s1", Kind: KindReduce, Items: "{{ nums }}"}}
		require.Error(t, d.Validate())
	})

	t.Run("Should reject duplicate branch ids in a parallel step", func(t *testing.T) {
		d := validDoc()
		d.Steps = []Step{{
			ID:   "s1",
			Kind: KindParallel,
			Branches: []Branch{
				{ID: "a", Steps: []Step{{ID: "a1", Kind: KindAction, Action: "core.set"}}},
				{ID: "a", Steps: []Step{{ID: "a2", Kind: KindAction, Action: "core.set"}}},
			},
		}}
		err := d.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "duplicate branch")
	})
}

func TestStepDefaults(t *testing.T) {
	t.Run("Should default on_error to stop", func(t *testing.T) {
		s := Step{}
		assert.Equal(t, OnErrorStop, s.EffectiveOnError())
	})

	t.Run("Should default max_iterations to the implementation cap", func(t *testing.T) {
		s := Step{}
		assert.Equal(t, DefaultMaxIterations, s.EffectiveMaxIterations())
	})

	t.Run("Should normalise an empty retry policy to one attempt", func(t *testing.T) {
		r := RetryPolicy{}.Normalized()
		assert.Equal(t, 1, r.MaxAttempts)
		assert.Equal(t, 1.0, r.BackoffMultiplier)
	})
}
