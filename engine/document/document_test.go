package document

import (
	"testing"

	"github.com/stepwise/stepwise/engine/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validDoc = `---
workflow:
  id: wf-1
  name: Demo workflow
  version: "1.0"
inputs:
  name:
    type: string
    required: true
steps:
  - id: step-1
    type: action
    action: core.set
    inputs:
      greeting: "hello {{ name }}"
---

# Demo workflow

Narrative body.
`

func TestParse(t *testing.T) {
	t.Run("Should parse a well-formed document", func(t *testing.T) {
		doc, warnings, err := Parse([]byte(validDoc))
		require.NoError(t, err)
		assert.Empty(t, warnings)
		assert.Equal(t, "wf-1", doc.ID)
		assert.Equal(t, "Demo workflow", doc.Name)
		require.Len(t, doc.Steps, 1)
		assert.Equal(t, "core.set", doc.Steps[0].Action)
		assert.Contains(t, doc.Markdown, "Narrative body.")
	})

	t.Run("Should fail with InvalidDocument when there is no frontmatter", func(t *testing.T) {
		_, _, err := Parse([]byte("just markdown, no fence"))
		require.Error(t, err)
		var e *core.Error
		require.ErrorAs(t, err, &e)
		assert.Equal(t, core.CodeInvalidDocument, e.Code)
	})

	t.Run("Should fail with InvalidDocument when the fence is never closed", func(t *testing.T) {
		_, _, err := Parse([]byte("---\nworkflow:\n  id: wf-1\n"))
		require.Error(t, err)
		var e *core.Error
		require.ErrorAs(t, err, &e)
		assert.Equal(t, core.CodeInvalidDocument, e.Code)
	})

	t.Run("Should fail with InvalidSchema when required fields are missing", func(t *testing.T) {
		_, _, err := Parse([]byte("---\nworkflow:\n  id: wf-1\n---\n"))
		require.Error(t, err)
		var e *core.Error
		require.ErrorAs(t, err, &e)
		assert.Equal(t, core.CodeInvalidSchema, e.Code)
	})

	t.Run("Should reject a deprecated $ref key", func(t *testing.T) {
		src := "---\nworkflow:\n  id: wf-1\n  name: demo\n$ref: other.md\nsteps: []\n---\n"
		_, _, err := Parse([]byte(src))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "$ref")
	})

	t.Run("Should warn on unknown top-level keys without failing", func(t *testing.T) {
		src := "---\nworkflow:\n  id: wf-1\n  name: demo\nsteps: []\nfancy_new_field: true\n---\n"
		doc, warnings, err := Parse([]byte(src))
		require.NoError(t, err)
		require.NotNil(t, doc)
		require.Len(t, warnings, 1)
		assert.Equal(t, "fancy_new_field", warnings[0].Path)
	})

	t.Run("Should reject an unknown step type at parse time", func(t *testing.T) {
		src := "---\nworkflow:\n  id: wf-1\n  name: demo\nsteps:\n  - id: s1\n    type: bogus\n---\n"
		_, _, err := Parse([]byte(src))
		require.Error(t, err)
	})

	t.Run("Should reject a document using the old flat identity-field shape", func(t *testing.T) {
		src := "---\nid: wf-1\nname: demo\nsteps: []\n---\n"
		_, _, err := Parse([]byte(src))
		require.Error(t, err)
		var e *core.Error
		require.ErrorAs(t, err, &e)
		assert.Equal(t, core.CodeInvalidSchema, e.Code)
	})
}
