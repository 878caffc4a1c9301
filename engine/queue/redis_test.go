package queue

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisQueue(t *testing.T) *RedisQueue {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisQueue(client, "test", 0, "")
}

func TestRedisQueuePublishAndLength(t *testing.T) {
	t.Run("Should track pending count via the sorted set cardinality", func(t *testing.T) {
		q := newTestRedisQueue(t)
		ctx := context.Background()

		require.NoError(t, q.Publish(ctx, &Message{ID: "a"}, ""))
		require.NoError(t, q.Publish(ctx, &Message{ID: "b"}, ""))

		n, err := q.Length(ctx, "")
		require.NoError(t, err)
		assert.Equal(t, 2, n)
	})
}

func TestRedisQueueDequeueOrdering(t *testing.T) {
	t.Run("Should pop the highest priority message first", func(t *testing.T) {
		q := newTestRedisQueue(t)
		ctx := context.Background()

		require.NoError(t, q.Publish(ctx, &Message{ID: "low", Priority: PriorityLow}, ""))
		require.NoError(t, q.Publish(ctx, &Message{ID: "critical", Priority: PriorityCritical}, ""))

		batch, err := q.dequeue(ctx, DefaultQueueName, 10)
		require.NoError(t, err)
		require.Len(t, batch, 2)
		assert.Equal(t, "critical", batch[0].ID)
		assert.Equal(t, "low", batch[1].ID)
	})
}

func TestRedisQueueAckRemovesPayload(t *testing.T) {
	t.Run("Should drop the payload and processing record on ack", func(t *testing.T) {
		q := newTestRedisQueue(t)
		ctx := context.Background()

		require.NoError(t, q.Publish(ctx, &Message{ID: "a"}, ""))
		_, err := q.dequeue(ctx, DefaultQueueName, 1)
		require.NoError(t, err)

		require.NoError(t, q.Ack(ctx, DefaultQueueName, "a"))

		n, err := q.Length(ctx, "")
		require.NoError(t, err)
		assert.Equal(t, 0, n)
	})
}

func TestRedisQueueNackRequeues(t *testing.T) {
	t.Run("Should republish a nacked message while attempts remain", func(t *testing.T) {
		q := newTestRedisQueue(t)
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		require.NoError(t, q.Publish(ctx, &Message{ID: "a", MaxAttempts: 3}, ""))
		batch, err := q.dequeue(ctx, DefaultQueueName, 1)
		require.NoError(t, err)
		require.Len(t, batch, 1)

		require.NoError(t, q.Nack(ctx, DefaultQueueName, "a", true))

		n, err := q.Length(ctx, "")
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})
}
