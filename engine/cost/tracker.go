package cost

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pkoukk/tiktoken-go"
	"github.com/shopspring/decimal"
	"github.com/stepwise/stepwise/engine/core"
	"github.com/stepwise/stepwise/pkg/logger"
)

// Tracker is the process-wide (or per-test, injected) cost ledger: an
// append-only list of CostRecords, a pricing table, and zero or more
// registered budget limits.
type Tracker struct {
	mu      sync.Mutex
	records []CostRecord
	pricing PricingTable
	limits  []*limitState
	handlers []AlertHandler
	clock   func() time.Time
}

// NewTracker creates a Tracker seeded with pricing. A nil table is
// replaced with an empty one (every model then costs 0).
func NewTracker(pricing PricingTable) *Tracker {
	if pricing == nil {
		pricing = make(PricingTable)
	}
	return &Tracker{pricing: pricing, clock: time.Now}
}

// RegisterPricing adds or overrides one model's rate card.
func (t *Tracker) RegisterPricing(model string, p ModelPricing) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pricing[model] = p
}

// RegisterLimit activates a budget limit. Limits are evaluated in
// registration order after every Record call.
func (t *Tracker) RegisterLimit(l BudgetLimit) {
	t.mu.Lock()
	defer t.mu.Unlock()
	lim := l
	t.limits = append(t.limits, newLimitState(&lim, t.clock()))
}

// OnAlert registers a handler invoked for every newly crossed threshold.
// Handler panics/errors never block recording.
func (t *Tracker) OnAlert(h AlertHandler) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.handlers = append(t.handlers, h)
}

// Record computes estimated_cost, appends the record, and evaluates every
// registered limit, emitting alerts for newly crossed thresholds.
func (t *Tracker) Record(ctx context.Context, params RecordParams) (*CostRecord, error) {
	usage := params.TokenUsage
	if usage.Input == 0 && usage.Output == 0 && (params.PromptText != "" || params.CompletionText != "") {
		counted, err := countTokens(params.ModelName, params.PromptText, params.CompletionText)
		if err != nil {
			return nil, core.NewError(err, core.CodeExecutorError, nil)
		}
		usage = counted
	}

	id, err := core.NewID()
	if err != nil {
		return nil, core.NewError(err, core.CodeExecutorError, nil)
	}

	t.mu.Lock()
	cost, currency := t.estimateCostLocked(params.ModelName, usage)
	record := CostRecord{
		ID:            id.String(),
		Timestamp:     t.clock(),
		WorkflowID:    params.WorkflowID,
		RunID:         params.RunID,
		StepName:      params.StepName,
		AgentName:     params.AgentName,
		ModelName:     params.ModelName,
		TokenUsage:    usage,
		EstimatedCost: cost,
		Currency:      currency,
		Metadata:      params.Metadata,
	}
	t.records = append(t.records, record)
	alerts := t.evaluateLimitsLocked()
	t.mu.Unlock()

	for _, a := range alerts {
		t.dispatchAlert(a)
	}
	return &record, nil
}

func (t *Tracker) dispatchAlert(a Alert) {
	defer func() {
		if r := recover(); r != nil {
			logger.FromContext(context.Background()).Warn("cost alert handler panicked", "limit", a.LimitName, "panic", r)
		}
	}()
	t.mu.Lock()
	handlers := append([]AlertHandler(nil), t.handlers...)
	t.mu.Unlock()
	for _, h := range handlers {
		h(a)
	}
}

// estimateCostLocked must be called with t.mu held.
func (t *Tracker) estimateCostLocked(model string, usage TokenUsage) (float64, string) {
	pricing, ok := t.pricing[model]
	if !ok {
		return 0, "USD"
	}
	input := decimal.NewFromInt(int64(usage.Input)).Div(decimal.NewFromInt(1_000_000)).Mul(decimal.NewFromFloat(pricing.InputPerMillion))
	output := decimal.NewFromInt(int64(usage.Output)).Div(decimal.NewFromInt(1_000_000)).Mul(decimal.NewFromFloat(pricing.OutputPerMillion))
	total, _ := input.Add(output).Float64()
	currency := pricing.Currency
	if currency == "" {
		currency = "USD"
	}
	return total, currency
}

// evaluateLimitsLocked must be called with t.mu held; it returns alerts to
// dispatch after the lock is released.
func (t *Tracker) evaluateLimitsLocked() []Alert {
	now := t.clock()
	var alerts []Alert
	for _, state := range t.limits {
		state.resetIfExpired(now)
		usage := t.usageForLimitLocked(state, now)
		if state.limit.MaxCost <= 0 {
			continue
		}
		fraction := usage / state.limit.MaxCost
		for _, threshold := range state.limit.AlertThresholds {
			if fraction < threshold || state.crossed[threshold] {
				continue
			}
			state.crossed[threshold] = true
			level := AlertWarning
			if threshold >= 1.0 {
				level = AlertCritical
			}
			alerts = append(alerts, Alert{
				LimitName: state.limit.Name,
				Level:     level,
				Threshold: threshold,
				Usage:     usage,
				MaxCost:   state.limit.MaxCost,
			})
		}
	}
	return alerts
}

func (t *Tracker) usageForLimitLocked(state *limitState, now time.Time) float64 {
	var total float64
	windowStart := state.periodStart
	for _, r := range t.records {
		if state.limit.Period > 0 && r.Timestamp.Before(windowStart) {
			continue
		}
		if !matchesScope(state.limit, &r) {
			continue
		}
		total += r.EstimatedCost
	}
	_ = now
	return total
}

// CanAfford reports whether recording an additional cost would keep every
// global-scope limit under its cap. Workflow/agent/model-scoped limits are
// evaluated implicitly on the next Record call instead, since affordability
// against a narrower scope requires the caller's workflow/agent/model
// context, which this single-argument contract does not carry.
func (t *Tracker) CanAfford(additionalCost float64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.clock()
	for _, state := range t.limits {
		if state.limit.Scope != ScopeGlobal || state.limit.MaxCost <= 0 {
			continue
		}
		state.resetIfExpired(now)
		usage := t.usageForLimitLocked(state, now)
		if usage+additionalCost > state.limit.MaxCost {
			return false
		}
	}
	return true
}

// EnforceFor reports a BudgetExceeded error when a global- or workflow-
// scoped limit configured with OnExceedBlock already has usage at or over
// its cap, per the spec's "budget alerts ... do not by themselves fail the
// run unless action_on_limit = block." Agent/model-scoped block limits
// aren't checked here: the agent/model attribution for an action isn't
// known until the adapter itself reports usage, by which point the call
// has already happened, so only the scopes knowable in advance of a call
// (global, and workflow via the caller's workflowID) can be pre-enforced.
func (t *Tracker) EnforceFor(workflowID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.clock()
	for _, state := range t.limits {
		if state.limit.OnExceed != OnExceedBlock || state.limit.MaxCost <= 0 {
			continue
		}
		inScope := state.limit.Scope == ScopeGlobal ||
			(state.limit.Scope == ScopeWorkflow && (state.limit.ScopeID == "" || state.limit.ScopeID == workflowID))
		if !inScope {
			continue
		}
		state.resetIfExpired(now)
		usage := t.usageForLimitLocked(state, now)
		if usage >= state.limit.MaxCost {
			return core.NewError(
				fmt.Errorf("budget limit %q exceeded (usage=%.4f max=%.4f)", state.limit.Name, usage, state.limit.MaxCost),
				core.CodeBudgetExceeded,
				map[string]any{"limit": state.limit.Name, "workflow_id": workflowID},
			)
		}
	}
	return nil
}

// WorkflowCost sums estimated_cost for workflowID, optionally narrowed to
// one runID.
func (t *Tracker) WorkflowCost(workflowID, runID string) float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	var total float64
	for _, r := range t.records {
		if r.WorkflowID != workflowID {
			continue
		}
		if runID != "" && r.RunID != runID {
			continue
		}
		total += r.EstimatedCost
	}
	return total
}

// Summary aggregates recorded cost in [start, end), iterating a snapshot
// of the append-only ledger so concurrent Record calls never block it.
func (t *Tracker) Summary(start, end *time.Time) Summary {
	t.mu.Lock()
	snapshot := append([]CostRecord(nil), t.records...)
	t.mu.Unlock()

	s := Summary{
		PerWorkflow: make(map[string]float64),
		PerAgent:    make(map[string]float64),
		PerModel:    make(map[string]float64),
	}
	for _, r := range snapshot {
		if start != nil && r.Timestamp.Before(*start) {
			continue
		}
		if end != nil && !r.Timestamp.Before(*end) {
			continue
		}
		s.Totals += r.EstimatedCost
		s.PerWorkflow[r.WorkflowID] += r.EstimatedCost
		s.PerAgent[r.AgentName] += r.EstimatedCost
		s.PerModel[r.ModelName] += r.EstimatedCost
	}
	return s
}

// DeleteBefore removes every record with Timestamp strictly before cutoff,
// the one mutation the append-only ledger permits (spec §3's "only an
// explicit retention call may delete by timestamp"). Returns the count
// removed.
func (t *Tracker) DeleteBefore(cutoff time.Time) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	kept := t.records[:0]
	removed := 0
	for _, r := range t.records {
		if r.Timestamp.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, r)
	}
	t.records = kept
	return removed
}

func countTokens(model, prompt, completion string) (TokenUsage, error) {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		enc, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return TokenUsage{}, err
		}
	}
	return TokenUsage{
		Input:  len(enc.Encode(prompt, nil, nil)),
		Output: len(enc.Encode(completion, nil, nil)),
	}, nil
}
