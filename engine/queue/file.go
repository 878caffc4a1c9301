package queue

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/segmentio/ksuid"
	"github.com/spf13/afero"

	"github.com/stepwise/stepwise/engine/core"
	"github.com/stepwise/stepwise/pkg/logger"
)

// FileQueue is the file-backed transport: one JSON-lines file per queue
// under baseDir, writer-exclusive via github.com/gofrs/flock so a single
// node gets durability without running an external broker. Each line is
// one Message; dequeuing rewrites the file with the delivered lines
// marked processing, and Ack rewrites it with them removed, which is
// adequate for the single-node, modest-throughput case this transport
// targets (not a log-structured append-only design).
type FileQueue struct {
	mu             sync.Mutex
	fs             afero.Fs
	baseDir        string
	deadLetterName string
	retryDelay     time.Duration
}

// NewFileQueue creates a FileQueue rooted at baseDir using fs (pass
// afero.NewOsFs() in production, afero.NewMemMapFs() in tests).
func NewFileQueue(fs afero.Fs, baseDir string, retryDelay time.Duration, deadLetterQueue string) *FileQueue {
	return &FileQueue{
		fs:             fs,
		baseDir:        baseDir,
		retryDelay:     retryDelay,
		deadLetterName: deadLetterQueue,
	}
}

func (q *FileQueue) path(queueName string) string {
	return filepath.Join(q.baseDir, queueNameOrDefault(queueName)+".jsonl")
}

func (q *FileQueue) lockPath(queueName string) string {
	return filepath.Join(q.baseDir, queueNameOrDefault(queueName)+".lock")
}

// withLock serialises access to queueName's file across goroutines
// (sync.Mutex) and across processes (flock, real-disk only — flock on an
// in-memory afero.Fs is a local no-op lock since there's no shared file
// descriptor to contend over).
func (q *FileQueue) withLock(queueName string, fn func() error) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, ok := q.fs.(*afero.OsFs); ok {
		if err := q.fs.MkdirAll(q.baseDir, 0o755); err != nil {
			return err
		}
		fl := flock.New(q.lockPath(queueName))
		if err := fl.Lock(); err != nil {
			return core.NewError(fmt.Errorf("locking queue file %q: %w", queueName, err), core.CodeExecutorError, nil)
		}
		defer fl.Unlock()
	} else {
		_ = q.fs.MkdirAll(q.baseDir, 0o755)
	}
	return fn()
}

func (q *FileQueue) readAll(queueName string) ([]*Message, error) {
	f, err := q.fs.Open(q.path(queueName))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []*Message
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var msg Message
		if err := json.Unmarshal(line, &msg); err != nil {
			continue
		}
		out = append(out, &msg)
	}
	return out, scanner.Err()
}

func (q *FileQueue) writeAll(queueName string, msgs []*Message) error {
	f, err := q.fs.OpenFile(q.path(queueName), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	for _, msg := range msgs {
		blob, err := json.Marshal(msg)
		if err != nil {
			return err
		}
		if _, err := w.Write(append(blob, '\n')); err != nil {
			return err
		}
	}
	return w.Flush()
}

// sortPending orders msgs by (priority desc, created_at asc), the same
// FIFO-within-priority contract every transport honours.
func sortPending(msgs []*Message) {
	sort.SliceStable(msgs, func(i, j int) bool {
		if msgs[i].Priority != msgs[j].Priority {
			return msgs[i].Priority > msgs[j].Priority
		}
		return msgs[i].CreatedAt.Before(msgs[j].CreatedAt)
	})
}

func (q *FileQueue) Publish(_ context.Context, msg *Message, queueName string) error {
	if msg.ID == "" {
		msg.ID = ksuid.New().String()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}
	if msg.Status == "" {
		msg.Status = StatusPending
	}
	return q.withLock(queueName, func() error {
		msgs, err := q.readAll(queueName)
		if err != nil {
			return err
		}
		msgs = append(msgs, msg)
		sortPending(msgs)
		return q.writeAll(queueName, msgs)
	})
}

func (q *FileQueue) dequeue(queueName string, n int) ([]*Message, error) {
	var batch []*Message
	err := q.withLock(queueName, func() error {
		msgs, err := q.readAll(queueName)
		if err != nil {
			return err
		}
		sortPending(msgs)
		pending := make([]*Message, 0, len(msgs))
		for _, m := range msgs {
			if m.Status == StatusPending {
				pending = append(pending, m)
			}
		}
		if n > len(pending) {
			n = len(pending)
		}
		batch = pending[:n]
		for _, m := range batch {
			m.Status = StatusProcessing
		}
		return q.writeAll(queueName, msgs)
	})
	return batch, err
}

func (q *FileQueue) Consume(ctx context.Context, queueName string, batchSize int, handler Handler) error {
	queueName = queueNameOrDefault(queueName)
	if batchSize <= 0 {
		batchSize = 1
	}
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			batch, err := q.dequeue(queueName, batchSize)
			if err != nil {
				logger.FromContext(ctx).Warn("file queue dequeue failed", "queue", queueName, "error", err)
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

func (q *FileQueue) Ack(_ context.Context, queueName, id string) error {
	return q.withLock(queueName, func() error {
		msgs, err := q.readAll(queueName)
		if err != nil {
			return err
		}
		kept := msgs[:0]
		for _, m := range msgs {
			if m.ID == id {
				continue
			}
			kept = append(kept, m)
		}
		return q.writeAll(queueName, kept)
	})
}

func (q *FileQueue) Nack(_ context.Context, queueName, id string, requeue bool) error {
	var toRequeue *Message
	var toDeadLetter *Message
	err := q.withLock(queueName, func() error {
		msgs, err := q.readAll(queueName)
		if err != nil {
			return err
		}
		kept := msgs[:0]
		for _, m := range msgs {
			if m.ID != id {
				kept = append(kept, m)
				continue
			}
			m.Attempts++
			if requeue && m.Attempts < m.MaxAttempts {
				toRequeue = m
			} else if q.deadLetterName != "" {
				m.Status = StatusDeadLetter
				toDeadLetter = m
			} else {
				m.Status = StatusFailed
			}
		}
		return q.writeAll(queueName, kept)
	})
	if err != nil {
		return err
	}
	if toRequeue != nil {
		if q.retryDelay > 0 {
			time.Sleep(q.retryDelay)
		}
		toRequeue.Status = StatusPending
		return q.Publish(context.Background(), toRequeue, queueName)
	}
	if toDeadLetter != nil {
		return q.Publish(context.Background(), toDeadLetter, q.deadLetterName)
	}
	return nil
}

func (q *FileQueue) Length(_ context.Context, queueName string) (int, error) {
	var n int
	err := q.withLock(queueName, func() error {
		msgs, err := q.readAll(queueName)
		if err != nil {
			return err
		}
		for _, m := range msgs {
			if m.Status == StatusPending || m.Status == StatusDeadLetter {
				n++
			}
		}
		return nil
	})
	return n, err
}

func (q *FileQueue) Purge(_ context.Context, queueName string) error {
	return q.withLock(queueName, func() error {
		return q.writeAll(queueName, nil)
	})
}

func (q *FileQueue) Stop(context.Context) error {
	return nil
}
