// Package workflow defines the typed Workflow/Step data model the document
// parser produces and the runner walks: an immutable value built once at
// parse time and never mutated afterward.
package workflow

import (
	"time"

	"gopkg.in/yaml.v3"
)

// InputType enumerates the scalar/container kinds a workflow input may
// declare in its schema.
type InputType string

const (
	InputString  InputType = "string"
	InputNumber  InputType = "number"
	InputBoolean InputType = "boolean"
	InputArray   InputType = "array"
	InputObject  InputType = "object"
)

// InputSpec describes one entry of a workflow's inputs schema.
type InputSpec struct {
	Type        InputType `yaml:"type" json:"type"`
	Required    bool      `yaml:"required" json:"required"`
	Default     any       `yaml:"default,omitempty" json:"default,omitempty"`
	Description string    `yaml:"description,omitempty" json:"description,omitempty"`
	Pattern     string    `yaml:"pattern,omitempty" json:"pattern,omitempty"`
}

// Author carries optional workflow-authorship metadata, preserved
// round-trip but never interpreted by the engine.
type Author struct {
	Name  string `yaml:"name,omitempty" json:"name,omitempty"`
	Email string `yaml:"email,omitempty" json:"email,omitempty"`
}

// Document is the parsed, immutable representation of a workflow document:
// the typed frontmatter plus the narrative Markdown body it was split from.
// On disk, the identity fields (ID/Name/...) are nested under a `workflow:`
// envelope key per the spec's external-interface grammar; Document keeps
// them as flat fields for everything downstream (runner, validator,
// resolver) to read directly, and implements MarshalYAML/UnmarshalYAML
// below to translate across that boundary.
type Document struct {
	ID          string
	Name        string
	Version     string
	Description string
	Author      *Author
	Tags        []string
	Inputs      map[string]InputSpec
	Tools       map[string]any
	Triggers    []any
	Steps       []Step
	Metadata    map[string]any

	// Markdown is the narrative body following the frontmatter fence,
	// preserved for round-trip but never parsed by the engine.
	Markdown string `yaml:"-" json:"-"`
}

// workflowMeta is the spec's `workflow{id,name,version,description,
// author,tags}` envelope, decoded/encoded as its own nested mapping.
type workflowMeta struct {
	ID          string   `yaml:"id" json:"id"`
	Name        string   `yaml:"name" json:"name"`
	Version     string   `yaml:"version,omitempty" json:"version,omitempty"`
	Description string   `yaml:"description,omitempty" json:"description,omitempty"`
	Author      *Author  `yaml:"author,omitempty" json:"author,omitempty"`
	Tags        []string `yaml:"tags,omitempty" json:"tags,omitempty"`
}

// documentWire is the on-disk/on-wire shape of a Document's frontmatter:
// identity fields nested under "workflow", everything else top-level.
type documentWire struct {
	Workflow workflowMeta         `yaml:"workflow" json:"workflow"`
	Inputs   map[string]InputSpec `yaml:"inputs,omitempty" json:"inputs,omitempty"`
	Tools    map[string]any       `yaml:"tools,omitempty" json:"tools,omitempty"`
	Triggers []any                `yaml:"triggers,omitempty" json:"triggers,omitempty"`
	Steps    []Step               `yaml:"steps" json:"steps"`
	Metadata map[string]any       `yaml:"metadata,omitempty" json:"metadata,omitempty"`
}

// UnmarshalYAML decodes the spec's nested `workflow:` envelope into
// Document's flat identity fields.
func (d *Document) UnmarshalYAML(value *yaml.Node) error {
	var wire documentWire
	if err := value.Decode(&wire); err != nil {
		return err
	}
	d.fromWire(wire)
	return nil
}

// MarshalYAML re-nests Document's flat identity fields under "workflow"
// for round-trip serialization.
func (d Document) MarshalYAML() (any, error) {
	return d.toWire(), nil
}

func (d *Document) fromWire(wire documentWire) {
	d.ID = wire.Workflow.ID
	d.Name = wire.Workflow.Name
	d.Version = wire.Workflow.Version
	d.Description = wire.Workflow.Description
	d.Author = wire.Workflow.Author
	d.Tags = wire.Workflow.Tags
	d.Inputs = wire.Inputs
	d.Tools = wire.Tools
	d.Triggers = wire.Triggers
	d.Steps = wire.Steps
	d.Metadata = wire.Metadata
}

func (d Document) toWire() documentWire {
	return documentWire{
		Workflow: workflowMeta{
			ID: d.ID, Name: d.Name, Version: d.Version,
			Description: d.Description, Author: d.Author, Tags: d.Tags,
		},
		Inputs:   d.Inputs,
		Tools:    d.Tools,
		Triggers: d.Triggers,
		Steps:    d.Steps,
		Metadata: d.Metadata,
	}
}

// Kind tags which payload fields of a Step are meaningful.
type Kind string

const (
	KindAction   Kind = "action"
	KindWorkflow Kind = "workflow"
	KindIf       Kind = "if"
	KindSwitch   Kind = "switch"
	KindForEach  Kind = "for_each"
	KindWhile    Kind = "while"
	KindMap      Kind = "map"
	KindFilter   Kind = "filter"
	KindReduce   Kind = "reduce"
	KindParallel Kind = "parallel"
	KindTry      Kind = "try"
)

// OnError selects how a step's terminal failure is handled by its
// enclosing block.
type OnError string

const (
	OnErrorStop     OnError = "stop"
	OnErrorContinue OnError = "continue"
	OnErrorRetry    OnError = "retry"
)

// DefaultMaxIterations caps a `while` loop when max_iterations is omitted;
// the spec requires the cap be finite, never unbounded.
const DefaultMaxIterations = 1000

// RetryPolicy configures a step's retry behaviour on a retriable error.
type RetryPolicy struct {
	MaxAttempts       int      `yaml:"max_attempts,omitempty" json:"max_attempts,omitempty"`
	BackoffMs         int64    `yaml:"backoff_ms,omitempty" json:"backoff_ms,omitempty"`
	BackoffMultiplier float64  `yaml:"backoff_multiplier,omitempty" json:"backoff_multiplier,omitempty"`
	RetryOn           []string `yaml:"retry_on,omitempty" json:"retry_on,omitempty"`
}

// Normalized returns a copy with the documented defaults (1 attempt, no
// backoff, multiplier 1) applied wherever the document left a field zero.
func (r RetryPolicy) Normalized() RetryPolicy {
	if r.MaxAttempts <= 0 {
		r.MaxAttempts = 1
	}
	if r.BackoffMultiplier <= 0 {
		r.BackoffMultiplier = 1
	}
	return r
}

// Branch is one arm of a `parallel` step, executed in its own child scope
// and merged back under its ID as a namespace prefix.
type Branch struct {
	ID    string `yaml:"id" json:"id"`
	Steps []Step `yaml:"steps" json:"steps"`
}

// Step is a tagged-variant workflow instruction. Only the fields relevant
// to Kind are populated by the parser; the runner switches on Kind to pick
// which payload to read.
type Step struct {
	ID             string        `yaml:"id" json:"id"`
	Name           string        `yaml:"name,omitempty" json:"name,omitempty"`
	Kind           Kind          `yaml:"type" json:"type"`
	OutputVariable string        `yaml:"output_variable,omitempty" json:"output_variable,omitempty"`
	Condition      string        `yaml:"condition,omitempty" json:"condition,omitempty"`
	TimeoutMs      int64         `yaml:"timeout,omitempty" json:"timeout,omitempty"`
	Retry          *RetryPolicy  `yaml:"retry,omitempty" json:"retry,omitempty"`
	OnErrorPolicy  OnError       `yaml:"on_error,omitempty" json:"on_error,omitempty"`
	Labels         map[string]string `yaml:"labels,omitempty" json:"labels,omitempty"`
	Concurrency    int           `yaml:"concurrency,omitempty" json:"concurrency,omitempty"`

	// action / workflow
	Action     string         `yaml:"action,omitempty" json:"action,omitempty"`
	WorkflowID string         `yaml:"workflow,omitempty" json:"workflow,omitempty"`
	Inputs     map[string]any `yaml:"inputs,omitempty" json:"inputs,omitempty"`

	// if
	Then []Step `yaml:"then,omitempty" json:"then,omitempty"`
	Else []Step `yaml:"else,omitempty" json:"else,omitempty"`

	// switch
	Expression string            `yaml:"expression,omitempty" json:"expression,omitempty"`
	Cases      map[string][]Step `yaml:"cases,omitempty" json:"cases,omitempty"`
	Default    []Step            `yaml:"default,omitempty" json:"default,omitempty"`

	// for_each / while / map / filter / reduce
	Items               string `yaml:"items,omitempty" json:"items,omitempty"`
	ItemVariable        string `yaml:"item_variable,omitempty" json:"item_variable,omitempty"`
	IndexVariable       string `yaml:"index_variable,omitempty" json:"index_variable,omitempty"`
	Steps               []Step `yaml:"steps,omitempty" json:"steps,omitempty"`
	MaxIterations       int    `yaml:"max_iterations,omitempty" json:"max_iterations,omitempty"`
	InitialValue        any    `yaml:"initial_value,omitempty" json:"initial_value,omitempty"`
	AccumulatorVariable string `yaml:"accumulator_variable,omitempty" json:"accumulator_variable,omitempty"`

	// parallel
	Branches []Branch `yaml:"branches,omitempty" json:"branches,omitempty"`

	// try
	Try     []Step `yaml:"try,omitempty" json:"try,omitempty"`
	Catch   []Step `yaml:"catch,omitempty" json:"catch,omitempty"`
	Finally []Step `yaml:"finally,omitempty" json:"finally,omitempty"`
}

// EffectiveOnError returns the step's on_error policy, defaulting to stop.
func (s Step) EffectiveOnError() OnError {
	if s.OnErrorPolicy == "" {
		return OnErrorStop
	}
	return s.OnErrorPolicy
}

// EffectiveMaxIterations returns max_iterations with the implementation
// cap applied when the document omitted it.
func (s Step) EffectiveMaxIterations() int {
	if s.MaxIterations <= 0 {
		return DefaultMaxIterations
	}
	return s.MaxIterations
}

// EffectiveTimeout converts the document's millisecond timeout field into
// a time.Duration; zero means no timeout is enforced.
func (s Step) EffectiveTimeout() time.Duration {
	if s.TimeoutMs <= 0 {
		return 0
	}
	return time.Duration(s.TimeoutMs) * time.Millisecond
}

// EffectiveConcurrency returns the step's concurrency bound, defaulting to
// 1 (sequential) when unset. Only for_each reads it; step-level
// map/filter/reduce evaluate their items sequentially.
func (s Step) EffectiveConcurrency() int {
	if s.Concurrency <= 0 {
		return 1
	}
	return s.Concurrency
}
