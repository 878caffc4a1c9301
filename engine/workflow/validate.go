package workflow

import (
	"fmt"

	"github.com/stepwise/stepwise/engine/core"
)

var knownKinds = map[Kind]bool{
	KindAction: true, KindWorkflow: true, KindIf: true, KindSwitch: true,
	KindForEach: true, KindWhile: true, KindMap: true, KindFilter: true,
	KindReduce: true, KindParallel: true, KindTry: true,
}

// Validate checks the structural invariants the parser must enforce before
// a Document is handed to the runner: unique step IDs among siblings, a
// known Kind per step, and the fields each Kind requires.
func (d *Document) Validate() error {
	if d.ID == "" {
		return core.NewError(fmt.Errorf("workflow is missing an id"), core.CodeInvalidSchema, nil)
	}
	if d.Name == "" {
		return core.NewError(fmt.Errorf("workflow is missing a name"), core.CodeInvalidSchema, nil)
	}
	return validateSteps(d.Steps)
}

func validateSteps(steps []Step) error {
	seen := make(map[string]bool, len(steps))
	for _, s := range steps {
		if s.ID == "" {
			return core.NewError(fmt.Errorf("step is missing an id"), core.CodeInvalidSchema, nil)
		}
		if seen[s.ID] {
			return core.NewError(fmt.Errorf("duplicate step id %q among siblings", s.ID), core.CodeInvalidSchema,
				map[string]any{"step_id": s.ID})
		}
		seen[s.ID] = true
		if err := validateStep(s); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(s Step) error {
	if !knownKinds[s.Kind] {
		return core.NewError(fmt.Errorf("unknown step type %q", s.Kind), core.CodeInvalidSchema,
			map[string]any{"step_id": s.ID})
	}
	details := map[string]any{"step_id": s.ID}
	switch s.Kind {
	case KindAction:
		if s.Action == "" {
			return core.NewError(fmt.Errorf("action step requires \"action\""), core.CodeInvalidSchema, details)
		}
	case KindWorkflow:
		if s.WorkflowID == "" {
			return core.NewError(fmt.Errorf("workflow step requires \"workflow\""), core.CodeInvalidSchema, details)
		}
	case KindIf:
		if len(s.Then) == 0 {
			return core.NewError(fmt.Errorf("if step requires \"then\""), core.CodeInvalidSchema, details)
		}
		if err := validateSteps(s.Then); err != nil {
			return err
		}
		if err := validateSteps(s.Else); err != nil {
			return err
		}
	case KindSwitch:
		if s.Expression == "" {
			return core.NewError(fmt.Errorf("switch step requires \"expression\""), core.CodeInvalidSchema, details)
		}
		for _, branch := range s.Cases {
			if err := validateSteps(branch); err != nil {
				return err
			}
		}
		if err := validateSteps(s.Default); err != nil {
			return err
		}
	case KindForEach:
		if s.Items == "" {
			return core.NewError(fmt.Errorf("for_each step requires \"items\""), core.CodeInvalidSchema, details)
		}
		if s.ItemVariable == "" {
			return core.NewError(fmt.Errorf("for_each step requires \"item_variable\""), core.CodeInvalidSchema, details)
		}
		if err := validateSteps(s.Steps); err != nil {
			return err
		}
	case KindWhile:
		if s.Condition == "" {
			return core.NewError(fmt.Errorf("while step requires \"condition\""), core.CodeInvalidSchema, details)
		}
		if err := validateSteps(s.Steps); err != nil {
			return err
		}
	case KindMap, KindFilter:
		if s.Items == "" {
			return core.NewError(fmt.Errorf("%s step requires \"items\"", s.Kind), core.CodeInvalidSchema, details)
		}
	case KindReduce:
		if s.Items == "" {
			return core.NewError(fmt.Errorf("reduce step requires \"items\""), core.CodeInvalidSchema, details)
		}
		if s.AccumulatorVariable == "" {
			return core.NewError(fmt.Errorf("reduce step requires \"accumulator_variable\""), core.CodeInvalidSchema, details)
		}
	case KindParallel:
		if len(s.Branches) == 0 {
			return core.NewError(fmt.Errorf("parallel step requires at least one branch"), core.CodeInvalidSchema, details)
		}
		branchIDs := make(map[string]bool, len(s.Branches))
		for _, b := range s.Branches {
			if b.ID == "" {
				return core.NewError(fmt.Errorf("parallel branch is missing an id"), core.CodeInvalidSchema, details)
			}
			if branchIDs[b.ID] {
				return core.NewError(fmt.Errorf("duplicate branch id %q", b.ID), core.CodeInvalidSchema, details)
			}
			branchIDs[b.ID] = true
			if err := validateSteps(b.Steps); err != nil {
				return err
			}
		}
	case KindTry:
		if len(s.Try) == 0 {
			return core.NewError(fmt.Errorf("try step requires \"try\""), core.CodeInvalidSchema, details)
		}
		if err := validateSteps(s.Try); err != nil {
			return err
		}
		if err := validateSteps(s.Catch); err != nil {
			return err
		}
		if err := validateSteps(s.Finally); err != nil {
			return err
		}
	}
	return nil
}
