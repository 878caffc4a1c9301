package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/segmentio/ksuid"

	"github.com/stepwise/stepwise/engine/core"
	"github.com/stepwise/stepwise/pkg/logger"
)

// AMQPQueue is the RabbitMQ transport: each queue name maps to a durable
// AMQP queue declared with x-max-priority, so priority ordering rides the
// broker's own native per-message `priority` property instead of the
// engine reimplementing it.
type AMQPQueue struct {
	conn           *amqp.Connection
	ch             *amqp.Channel
	deadLetterName string
	retryDelay     time.Duration
	maxPriority    uint8
}

// NewAMQPQueue declares (idempotently) the queues it's asked to use as it
// goes, against an already-dialled *amqp.Connection.
func NewAMQPQueue(conn *amqp.Connection, retryDelay time.Duration, deadLetterQueue string) (*AMQPQueue, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, core.NewError(fmt.Errorf("opening amqp channel: %w", err), core.CodeExecutorError, nil)
	}
	return &AMQPQueue{conn: conn, ch: ch, retryDelay: retryDelay, deadLetterName: deadLetterQueue, maxPriority: 10}, nil
}

func (q *AMQPQueue) declare(queueName string) error {
	_, err := q.ch.QueueDeclare(queueName, true, false, false, false, amqp.Table{
		"x-max-priority": int32(q.maxPriority),
	})
	return err
}

// amqpPriority maps the engine's four-level Priority onto AMQP's 0-9
// native scale so x-max-priority orders delivery without the engine
// tracking an ordering itself.
func amqpPriority(p Priority) uint8 {
	switch p {
	case PriorityCritical:
		return 9
	case PriorityHigh:
		return 6
	case PriorityLow:
		return 0
	default:
		return 3
	}
}

func (q *AMQPQueue) Publish(ctx context.Context, msg *Message, queueName string) error {
	queueName = queueNameOrDefault(queueName)
	if err := q.declare(queueName); err != nil {
		return core.NewError(fmt.Errorf("declaring amqp queue %q: %w", queueName, err), core.CodeExecutorError, nil)
	}
	if msg.ID == "" {
		msg.ID = ksuid.New().String()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}
	if msg.Status == "" {
		msg.Status = StatusPending
	}
	blob, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal queue message: %w", err)
	}
	return q.ch.PublishWithContext(ctx, "", queueName, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Priority:     amqpPriority(msg.Priority),
		MessageId:    msg.ID,
		Body:         blob,
	})
}

func (q *AMQPQueue) Consume(ctx context.Context, queueName string, batchSize int, handler Handler) error {
	queueName = queueNameOrDefault(queueName)
	if err := q.declare(queueName); err != nil {
		return core.NewError(fmt.Errorf("declaring amqp queue %q: %w", queueName, err), core.CodeExecutorError, nil)
	}
	if batchSize <= 0 {
		batchSize = 1
	}
	if err := q.ch.Qos(batchSize, 0, false); err != nil {
		return err
	}
	deliveries, err := q.ch.Consume(queueName, "", false, false, false, false, nil)
	if err != nil {
		return core.NewError(fmt.Errorf("consuming amqp queue %q: %w", queueName, err), core.CodeExecutorError, nil)
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return nil
			}
			var msg Message
			if err := json.Unmarshal(d.Body, &msg); err != nil {
				logger.FromContext(ctx).Warn("amqp message was not a valid envelope, discarding", "error", err)
				_ = d.Nack(false, false)
				continue
			}
			msg.Status = StatusProcessing
			if err := handler(ctx, &msg); err != nil {
				logger.FromContext(ctx).Warn("queue handler failed, nacking", "queue", queueName, "message_id", msg.ID, "error", err)
				msg.Attempts++
				if msg.Attempts < msg.MaxAttempts {
					if q.retryDelay > 0 {
						time.Sleep(q.retryDelay)
					}
					msg.Status = StatusPending
					if pubErr := q.Publish(ctx, &msg, queueName); pubErr == nil {
						_ = d.Ack(false)
						continue
					}
				} else if q.deadLetterName != "" {
					msg.Status = StatusDeadLetter
					if pubErr := q.Publish(ctx, &msg, q.deadLetterName); pubErr == nil {
						_ = d.Ack(false)
						continue
					}
				}
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

// Ack/Nack are no-ops for AMQPQueue: acknowledgement happens inline
// inside Consume against the delivery object itself, which this
// interface-level method has no handle to once Consume has returned it
// to the caller via Handler. Callers drive ack/nack implicitly by
// returning (or not) an error from their Handler.
func (q *AMQPQueue) Ack(context.Context, string, string) error { return nil }

func (q *AMQPQueue) Nack(context.Context, string, string, bool) error { return nil }

func (q *AMQPQueue) Length(_ context.Context, queueName string) (int, error) {
	queueName = queueNameOrDefault(queueName)
	qi, err := q.ch.QueueInspect(queueName)
	if err != nil {
		return 0, err
	}
	return qi.Messages, nil
}

func (q *AMQPQueue) Purge(_ context.Context, queueName string) error {
	queueName = queueNameOrDefault(queueName)
	_, err := q.ch.QueuePurge(queueName, false)
	return err
}

func (q *AMQPQueue) Stop(context.Context) error {
	if err := q.ch.Close(); err != nil {
		return err
	}
	return q.conn.Close()
}
