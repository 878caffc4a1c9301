package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/segmentio/ksuid"

	"github.com/stepwise/stepwise/pkg/logger"
)

// RedisQueue is the external key-value-broker transport: each queue is a
// Redis sorted set keyed by the message ID, scored by negated priority so
// ZPOPMIN/ZRANGE's natural ascending order delivers highest-priority-first
// while preserving FIFO within a priority via an increasing sequence
// added into the score's low six decimal digits.
type RedisQueue struct {
	client         redis.UniversalClient
	keyPrefix      string
	deadLetterName string
	retryDelay     time.Duration
	seq            int64
}

// NewRedisQueue wraps an already-connected redis client (real or, in
// tests, github.com/alicebob/miniredis/v2). keyPrefix namespaces this
// queue's keys so multiple RedisQueues can share one Redis instance.
func NewRedisQueue(client redis.UniversalClient, keyPrefix string, retryDelay time.Duration, deadLetterQueue string) *RedisQueue {
	if keyPrefix == "" {
		keyPrefix = "stepwise:queue"
	}
	return &RedisQueue{client: client, keyPrefix: keyPrefix, retryDelay: retryDelay, deadLetterName: deadLetterQueue}
}

func (q *RedisQueue) setKey(queueName string) string {
	return fmt.Sprintf("%s:%s", q.keyPrefix, queueNameOrDefault(queueName))
}

func (q *RedisQueue) payloadKey(queueName string) string {
	return fmt.Sprintf("%s:%s:payloads", q.keyPrefix, queueNameOrDefault(queueName))
}

func (q *RedisQueue) processingKey(queueName string) string {
	return fmt.Sprintf("%s:%s:processing", q.keyPrefix, queueNameOrDefault(queueName))
}

// score encodes (priority desc, insertion order asc) into a single float64:
// the negated priority is scaled by 1e6, and a sequence counter (reset per
// process, taken modulo 1e6) added below it breaks ties in arrival order.
func (q *RedisQueue) score(priority Priority) float64 {
	q.seq++
	return float64(-priority)*1e6 + float64(q.seq%1_000_000)
}

func (q *RedisQueue) Publish(ctx context.Context, msg *Message, queueName string) error {
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
	blob, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal queue message: %w", err)
	}

	pipe := q.client.TxPipeline()
	pipe.HSet(ctx, q.payloadKey(queueName), msg.ID, blob)
	pipe.ZAdd(ctx, q.setKey(queueName), redis.Z{Score: q.score(msg.Priority), Member: msg.ID})
	_, err = pipe.Exec(ctx)
	return err
}

func (q *RedisQueue) dequeue(ctx context.Context, queueName string, n int) ([]*Message, error) {
	ids, err := q.client.ZPopMin(ctx, q.setKey(queueName), int64(n)).Result()
	if err != nil {
		return nil, err
	}
	out := make([]*Message, 0, len(ids))
	for _, z := range ids {
		id, _ := z.Member.(string)
		blob, err := q.client.HGet(ctx, q.payloadKey(queueName), id).Bytes()
		if err != nil {
			continue
		}
		var msg Message
		if err := json.Unmarshal(blob, &msg); err != nil {
			continue
		}
		msg.Status = StatusProcessing
		out = append(out, &msg)
		q.client.HSet(ctx, q.processingKey(queueName), msg.ID, blob)
	}
	return out, nil
}

func (q *RedisQueue) Consume(ctx context.Context, queueName string, batchSize int, handler Handler) error {
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
			batch, err := q.dequeue(ctx, queueName, batchSize)
			if err != nil {
				logger.FromContext(ctx).Warn("redis queue dequeue failed", "queue", queueName, "error", err)
				continue
			}
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

func (q *RedisQueue) Ack(ctx context.Context, queueName, id string) error {
	queueName = queueNameOrDefault(queueName)
	pipe := q.client.TxPipeline()
	pipe.HDel(ctx, q.processingKey(queueName), id)
	pipe.HDel(ctx, q.payloadKey(queueName), id)
	_, err := pipe.Exec(ctx)
	return err
}

func (q *RedisQueue) Nack(ctx context.Context, queueName, id string, requeue bool) error {
	queueName = queueNameOrDefault(queueName)
	blob, err := q.client.HGet(ctx, q.processingKey(queueName), id).Bytes()
	if err != nil {
		return nil
	}
	q.client.HDel(ctx, q.processingKey(queueName), id)

	var msg Message
	if err := json.Unmarshal(blob, &msg); err != nil {
		return err
	}
	msg.Attempts++

	if requeue && msg.Attempts < msg.MaxAttempts {
		if q.retryDelay > 0 {
			time.Sleep(q.retryDelay)
		}
		msg.Status = StatusPending
		return q.Publish(ctx, &msg, queueName)
	}
	if q.deadLetterName != "" {
		msg.Status = StatusDeadLetter
		return q.Publish(ctx, &msg, q.deadLetterName)
	}
	return q.client.HDel(ctx, q.payloadKey(queueName), msg.ID).Err()
}

func (q *RedisQueue) Length(ctx context.Context, queueName string) (int, error) {
	n, err := q.client.ZCard(ctx, q.setKey(queueName)).Result()
	return int(n), err
}

func (q *RedisQueue) Purge(ctx context.Context, queueName string) error {
	queueName = queueNameOrDefault(queueName)
	pipe := q.client.TxPipeline()
	pipe.Del(ctx, q.setKey(queueName))
	pipe.Del(ctx, q.payloadKey(queueName))
	pipe.Del(ctx, q.processingKey(queueName))
	_, err := pipe.Exec(ctx)
	return err
}

func (q *RedisQueue) Stop(ctx context.Context) error {
	return q.client.Close()
}
