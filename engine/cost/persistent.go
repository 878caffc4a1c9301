package cost

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/stepwise/stepwise/engine/core"
)

// CostRecordsSchema is the cost_records table DDL a caller migrates before
// using PersistentTracker, matching the schema fixed in the data model.
const CostRecordsSchema = `
CREATE TABLE IF NOT EXISTS cost_records (
	id TEXT PRIMARY KEY,
	timestamp TEXT NOT NULL,
	workflow_id TEXT NOT NULL,
	run_id TEXT NOT NULL,
	step_name TEXT,
	agent_name TEXT NOT NULL,
	model_name TEXT NOT NULL,
	input_tokens INTEGER NOT NULL,
	output_tokens INTEGER NOT NULL,
	cached_tokens INTEGER DEFAULT 0,
	reasoning_tokens INTEGER DEFAULT 0,
	estimated_cost REAL NOT NULL,
	currency TEXT DEFAULT 'USD',
	metadata TEXT
)`

// dollarList builds a comma-separated $n placeholder list starting at
// start with n items, the same positional convention the teacher's now-
// dropped postgres.dollarList helper used; kept here as the one retained
// persistence path's placeholder style.
func dollarList(start, n int) string {
	parts := make([]string, n)
	for i := 0; i < n; i++ {
		parts[i] = fmt.Sprintf("$%d", start+i)
	}
	return strings.Join(parts, ",")
}

// PersistentTracker wraps a Tracker and additionally writes every recorded
// CostRecord through a single prepared-statement path against the
// cost_records schema, batch inserts aside (the spec's single-path
// constraint in §5).
type PersistentTracker struct {
	*Tracker
	db *sql.DB
}

// NewPersistentTracker wires db alongside an in-memory Tracker seeded with
// pricing; db must already have CostRecordsSchema applied.
func NewPersistentTracker(db *sql.DB, pricing PricingTable) *PersistentTracker {
	return &PersistentTracker{Tracker: NewTracker(pricing), db: db}
}

// Record delegates to the in-memory Tracker, then persists the resulting
// record through a single INSERT. A persistence failure is reported but
// never un-appends the in-memory record: the ledger already observed the
// call and budget limits already evaluated against it.
func (p *PersistentTracker) Record(ctx context.Context, params RecordParams) (*CostRecord, error) {
	record, err := p.Tracker.Record(ctx, params)
	if err != nil {
		return nil, err
	}
	if err := p.insert(ctx, record); err != nil {
		return record, core.NewError(fmt.Errorf("persisting cost record %s: %w", record.ID, err), core.CodeExecutorError, nil)
	}
	return record, nil
}

func (p *PersistentTracker) insert(ctx context.Context, r *CostRecord) error {
	var metadata []byte
	if len(r.Metadata) > 0 {
		var err error
		metadata, err = json.Marshal(r.Metadata)
		if err != nil {
			return fmt.Errorf("marshalling metadata: %w", err)
		}
	}
	query := fmt.Sprintf(
		`INSERT INTO cost_records (
			id, timestamp, workflow_id, run_id, step_name, agent_name, model_name,
			input_tokens, output_tokens, cached_tokens, reasoning_tokens,
			estimated_cost, currency, metadata
		) VALUES (%s)`,
		dollarList(1, 14),
	)
	_, err := p.db.ExecContext(ctx, query,
		r.ID, r.Timestamp.Format(time.RFC3339Nano), r.WorkflowID, r.RunID, nullIfEmpty(r.StepName),
		r.AgentName, r.ModelName, r.TokenUsage.Input, r.TokenUsage.Output,
		r.TokenUsage.Cached, r.TokenUsage.Reasoning, r.EstimatedCost, r.Currency, nullIfEmptyBytes(metadata),
	)
	return err
}

// DeleteBefore removes records strictly before cutoff from both the
// in-memory ledger and the durable table, keeping the two consistent.
func (p *PersistentTracker) DeleteBefore(ctx context.Context, cutoff time.Time) (int, error) {
	removed := p.Tracker.DeleteBefore(cutoff)
	query := fmt.Sprintf("DELETE FROM cost_records WHERE timestamp < %s", dollarList(1, 1))
	if _, err := p.db.ExecContext(ctx, query, cutoff.Format(time.RFC3339Nano)); err != nil {
		return removed, core.NewError(fmt.Errorf("deleting cost records before %s: %w", cutoff, err), core.CodeExecutorError, nil)
	}
	return removed, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullIfEmptyBytes(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}
