package runner

import (
	"errors"

	"go.temporal.io/sdk/temporal"

	"github.com/stepwise/stepwise/engine/core"
)

// wrapActivityError converts err (typically a *core.Error surfaced by an
// executor adapter or the registry) into a temporal.ApplicationError
// carrying the taxonomy code as its error type, so the code survives the
// activity-to-workflow boundary instead of collapsing into Temporal's
// default activity-error wrapping.
func wrapActivityError(err error) error {
	if err == nil {
		return nil
	}
	var ce *core.Error
	if errors.As(err, &ce) {
		return temporal.NewApplicationErrorWithCause(ce.Message, ce.Code, ce, ce.Details)
	}
	return temporal.NewApplicationError(err.Error(), core.CodeExecutorError)
}

// asCoreError normalizes any error the interpreter observes — a plain
// *core.Error from inline built-in/control-flow dispatch, or a
// temporal.ApplicationError unwrapped from the generic activity call —
// into the uniform *core.Error envelope a StepResult carries.
func asCoreError(err error) *core.Error {
	if err == nil {
		return nil
	}
	var ce *core.Error
	if errors.As(err, &ce) {
		return ce
	}
	var appErr *temporal.ApplicationError
	if errors.As(err, &appErr) {
		code := appErr.Type()
		if code == "" {
			code = core.CodeExecutorError
		}
		return core.NewError(appErr, code, nil)
	}
	return core.NewError(err, core.CodeExecutorError, nil)
}
