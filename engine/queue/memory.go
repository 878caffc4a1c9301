package queue

import (
	"context"
	"sync"
	"time"

	"github.com/segmentio/ksuid"

	"github.com/stepwise/stepwise/pkg/logger"
)

// MemoryQueue is the in-memory transport: one mutex-guarded, priority
// ordered list per queue name. Publish inserts with a linear scan to keep
// the list sorted by (priority desc, created_at asc) — fine for the
// single-process workloads this transport targets; the external brokers
// use their native ordering primitives instead.
type MemoryQueue struct {
	mu             sync.Mutex
	queues         map[string][]*Message
	inFlight       map[string]inFlightEntry
	deadLetterName string
	retryDelay     time.Duration
}

type inFlightEntry struct {
	queueName string
	msg       *Message
}

// NewMemoryQueue creates an empty MemoryQueue. retryDelay bounds how long
// a nacked, retriable message waits before Consume can redeliver it;
// deadLetterQueue names the queue a message is moved to once its attempts
// are exhausted ("" disables dead-lettering — exhausted messages are
// marked failed and discarded instead).
func NewMemoryQueue(retryDelay time.Duration, deadLetterQueue string) *MemoryQueue {
	return &MemoryQueue{
		queues:         make(map[string][]*Message),
		inFlight:       make(map[string]inFlightEntry),
		deadLetterName: deadLetterQueue,
		retryDelay:     retryDelay,
	}
}

func (q *MemoryQueue) Publish(_ context.Context, msg *Message, queueName string) error {
	queueName = queueNameOrDefault(queueName)
	if msg.ID == "" {
		msg.ID = ksuid.New().String()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}
	if msg.Status == "" {
		msg.Status = StatusPending
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	list := q.queues[queueName]
	idx := len(list)
	for i, m := range list {
		if msg.Priority > m.Priority {
			idx = i
			break
		}
	}
	list = append(list, nil)
	copy(list[idx+1:], list[idx:])
	list[idx] = msg
	q.queues[queueName] = list
	return nil
}

// dequeue pops up to n leading pending messages off queueName, marking
// them processing and recording them as in-flight for later Ack/Nack.
func (q *MemoryQueue) dequeue(queueName string, n int) []*Message {
	q.mu.Lock()
	defer q.mu.Unlock()
	list := q.queues[queueName]
	if len(list) < n {
		n = len(list)
	}
	batch := list[:n]
	q.queues[queueName] = list[n:]
	for _, m := range batch {
		m.Status = StatusProcessing
		q.inFlight[m.ID] = inFlightEntry{queueName: queueName, msg: m}
	}
	return batch
}

func (q *MemoryQueue) Consume(ctx context.Context, queueName string, batchSize int, handler Handler) error {
	queueName = queueNameOrDefault(queueName)
	if batchSize <= 0 {
		batchSize = 1
	}
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			batch := q.dequeue(queueName, batchSize)
			for _, msg := range batch {
				if err := handler(ctx, msg); err != nil {
					logger.FromContext(ctx).Warn("queue handler failed, nacking", "queue", queueName, "message_id", msg.ID, "error", err)
					_ = q.Nack(ctx, queueName, msg.ID, true)
					continue
				}
				_ = q.Ack(ctx, queueName, msg.ID)
			}
		}
	}
}

func (q *MemoryQueue) Ack(_ context.Context, _, id string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	entry, ok := q.inFlight[id]
	if !ok {
		return nil
	}
	entry.msg.Status = StatusCompleted
	delete(q.inFlight, id)
	return nil
}

func (q *MemoryQueue) Nack(_ context.Context, _, id string, requeue bool) error {
	q.mu.Lock()
	entry, ok := q.inFlight[id]
	if !ok {
		q.mu.Unlock()
		return nil
	}
	delete(q.inFlight, id)
	entry.msg.Attempts++
	q.mu.Unlock()

	if requeue && entry.msg.Attempts < entry.msg.MaxAttempts {
		if q.retryDelay > 0 {
			time.Sleep(q.retryDelay)
		}
		entry.msg.Status = StatusPending
		return q.Publish(context.Background(), entry.msg, entry.queueName)
	}
	if q.deadLetterName != "" {
		entry.msg.Status = StatusDeadLetter
		return q.Publish(context.Background(), entry.msg, q.deadLetterName)
	}
	entry.msg.Status = StatusFailed
	return nil
}

func (q *MemoryQueue) Length(_ context.Context, queueName string) (int, error) {
	queueName = queueNameOrDefault(queueName)
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.queues[queueName]), nil
}

func (q *MemoryQueue) Purge(_ context.Context, queueName string) error {
	queueName = queueNameOrDefault(queueName)
	q.mu.Lock()
	defer q.mu.Unlock()
	q.queues[queueName] = nil
	return nil
}

func (q *MemoryQueue) Stop(context.Context) error {
	return nil
}
