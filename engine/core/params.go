package core

import (
	"fmt"
	"maps"

	"dario.cat/mergo"
)

// Input and Output are the map shapes carried through the engine: step
// inputs, resolved scope frames, and workflow run outputs are all one of
// these two named types so call sites read as self-documenting.
type (
	Input  map[string]any
	Output map[string]any
)

func mergeMaps(dst, src map[string]any, kind string) (map[string]any, error) {
	result := make(map[string]any, len(dst))
	maps.Copy(result, dst)
	if err := mergo.Merge(&result, src, mergo.WithOverride, mergo.WithAppendSlice); err != nil {
		return nil, fmt.Errorf("failed to merge %s: %w", kind, err)
	}
	return result, nil
}

// Merge returns a new Input with other's keys overriding i's (nil-safe).
func (i Input) Merge(other Input) (Input, error) {
	if i == nil {
		return other, nil
	}
	merged, err := mergeMaps(i, other, "input")
	if err != nil {
		return nil, err
	}
	return Input(merged), nil
}

// Clone returns a shallow copy of i.
func (i Input) Clone() Input {
	out := make(Input, len(i))
	maps.Copy(out, i)
	return out
}

// Merge returns a new Output with other's keys overriding o's (nil-safe).
func (o Output) Merge(other Output) (Output, error) {
	if o == nil {
		return other, nil
	}
	merged, err := mergeMaps(o, other, "output")
	if err != nil {
		return nil, err
	}
	return Output(merged), nil
}

// Clone returns a shallow copy of o.
func (o Output) Clone() Output {
	out := make(Output, len(o))
	maps.Copy(out, o)
	return out
}
