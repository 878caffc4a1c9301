// Package cost implements the budget tracker: an append-only ledger of
// per-call token usage, a pricing table, and configurable budget limits
// that raise alerts as usage approaches or crosses their cap. Grounded on
// getaxonflow-axonflow's platform/orchestrator/cost package (Budget/
// UsageRecord/BudgetAlert shapes, scope/period/on-exceed enums), adapted to
// this engine's error/logging/ID idiom.
package cost

import (
	"context"
	"time"
)

// TokenUsage is the per-call token accounting an executor reports, either
// directly (pre-counted) or derived from raw prompt/completion text.
type TokenUsage struct {
	Input     int `json:"input"`
	Output    int `json:"output"`
	Cached    int `json:"cached,omitempty"`
	Reasoning int `json:"reasoning,omitempty"`
}

// CostRecord is one append-only ledger entry.
type CostRecord struct {
	ID            string         `json:"id"`
	Timestamp     time.Time      `json:"timestamp"`
	WorkflowID    string         `json:"workflow_id"`
	RunID         string         `json:"run_id"`
	StepName      string         `json:"step_name,omitempty"`
	AgentName     string         `json:"agent_name"`
	ModelName     string         `json:"model_name"`
	TokenUsage    TokenUsage     `json:"token_usage"`
	EstimatedCost float64        `json:"estimated_cost"`
	Currency      string         `json:"currency"`
	Metadata      map[string]any `json:"metadata,omitempty"`
}

// RecordParams describes one call to record. Either TokenUsage is already
// populated, or PromptText/CompletionText is supplied and the tracker
// counts tokens itself via tiktoken-go.
type RecordParams struct {
	WorkflowID      string
	RunID           string
	StepName        string
	AgentName       string
	ModelName       string
	TokenUsage      TokenUsage
	PromptText      string
	CompletionText  string
	Metadata        map[string]any
}

// Recorder is the narrow interface engine/executor depends on, so adapters
// can report usage without importing the full tracker.
type Recorder interface {
	Record(ctx context.Context, params RecordParams) (*CostRecord, error)
}

// BudgetEnforcer is an optional interface a Recorder may additionally
// implement, checked via a type assertion so Recorder itself stays the
// narrow Record-only surface adapters depend on. engine/runner asserts
// for it before dispatching an external action, refusing the call with a
// BudgetExceeded error when a block-mode limit is already over its cap.
type BudgetEnforcer interface {
	EnforceFor(workflowID string) error
}

// Summary aggregates recorded cost over a window.
type Summary struct {
	Totals      float64            `json:"totals"`
	PerWorkflow map[string]float64 `json:"per_workflow"`
	PerAgent    map[string]float64 `json:"per_agent"`
	PerModel    map[string]float64 `json:"per_model"`
}
