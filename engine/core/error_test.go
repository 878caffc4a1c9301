package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewError(t *testing.T) {
	t.Run("Should capture the wrapped error's message", func(t *testing.T) {
		cause := errors.New("boom")
		err := NewError(cause, CodeExpressionError, map[string]any{"expr": "1/0"})
		assert.Equal(t, "boom", err.Error())
		assert.Equal(t, CodeExpressionError, err.Code)
		assert.Same(t, cause, errors.Unwrap(err))
	})

	t.Run("Should default the message when err is nil", func(t *testing.T) {
		err := NewError(nil, CodeTimeout, nil)
		assert.Equal(t, "unknown error", err.Error())
	})
}

func TestError_Is(t *testing.T) {
	t.Run("Should compare by code", func(t *testing.T) {
		a := NewError(errors.New("x"), CodeBudgetExceeded, nil)
		b := &Error{Code: CodeBudgetExceeded}
		assert.True(t, errors.Is(a, b))
	})

	t.Run("Should not match a different code", func(t *testing.T) {
		a := NewError(errors.New("x"), CodeBudgetExceeded, nil)
		b := &Error{Code: CodeTimeout}
		assert.False(t, errors.Is(a, b))
	})
}

func TestError_AsMap(t *testing.T) {
	t.Run("Should return nil for an empty error", func(t *testing.T) {
		var e *Error
		assert.Nil(t, e.AsMap())
	})

	t.Run("Should serialise message, code and details", func(t *testing.T) {
		e := NewError(errors.New("bad input"), CodeMissingInputs, map[string]any{"field": "name"})
		m := e.AsMap()
		assert.Equal(t, "bad input", m["message"])
		assert.Equal(t, CodeMissingInputs, m["code"])
	})
}
