package queue

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/stepwise/stepwise/engine/core"
	corework "github.com/stepwise/stepwise/engine/workflow"
)

// DocumentResolver looks a workflow document up by id, the way
// engine/runner.Resolver does for `workflow` steps.
type DocumentResolver func(id string) (*corework.Document, error)

// WorkflowQueueManager binds a consume handler that interprets each
// delivered Message as a run request: it resolves message.WorkflowID to a
// Document and invokes the engine with message.Payload as inputs.
// Handler-thrown errors are the transport's nack trigger. This is the
// direct generalisation of the teacher's dispatcher (engine/worker:
// buildDispatcherWorkflowID, SignalWithStartWorkflow,
// DispatcherEventChannel) from "one hard-coded Temporal workflow" to "any
// queued run request, from any of four transports, to any registered
// workflow."
type WorkflowQueueManager struct {
	Queue     Queue
	Resolve   DocumentResolver
	Run       func(ctx context.Context, doc *corework.Document, runID string, inputs map[string]any) error
	QueueName string
	BatchSize int
	Workers   int
}

// NewWorkflowQueueManager wires a manager against q, using resolve to look
// workflow ids up and run to invoke the engine synchronously per message.
func NewWorkflowQueueManager(
	q Queue,
	resolve DocumentResolver,
	run func(ctx context.Context, doc *corework.Document, runID string, inputs map[string]any) error,
) *WorkflowQueueManager {
	return &WorkflowQueueManager{
		Queue:     q,
		Resolve:   resolve,
		Run:       run,
		QueueName: DefaultQueueName,
		BatchSize: 10,
		Workers:   1,
	}
}

// handle is the Handler bound to the underlying transport's Consume call.
func (m *WorkflowQueueManager) handle(ctx context.Context, msg *Message) error {
	doc, err := m.Resolve(msg.WorkflowID)
	if err != nil {
		return core.NewError(fmt.Errorf("resolving workflow %q for queued message %q: %w", msg.WorkflowID, msg.ID, err), core.CodeInvalidDocument, nil)
	}
	return m.Run(ctx, doc, msg.ID, msg.Payload)
}

// Start launches Workers concurrent consume loops (golang.org/x/sync/errgroup,
// matching the queue-worker concurrency model in the spec's resource
// section) against the bound transport, blocking until ctx is cancelled or
// any loop returns a non-context error.
func (m *WorkflowQueueManager) Start(ctx context.Context) error {
	workers := m.Workers
	if workers <= 0 {
		workers = 1
	}
	batchSize := m.BatchSize
	if batchSize <= 0 {
		batchSize = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			err := m.Queue.Consume(gctx, m.QueueName, batchSize, m.handle)
			if err == context.Canceled || err == context.DeadlineExceeded {
				return nil
			}
			return err
		})
	}
	return g.Wait()
}

// Stop releases the bound transport's resources.
func (m *WorkflowQueueManager) Stop(ctx context.Context) error {
	return m.Queue.Stop(ctx)
}
