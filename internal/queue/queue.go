// Package queue implements a small redis-backed task queue with delayed
// delivery. Ready tasks sit in a list consumed with BRPOP; delayed tasks sit
// in a sorted set scored by their ready time and are promoted onto the list
// once due.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// Task is one unit of work. Type selects the registered handler, JobID keys
// the deployment record the task belongs to, Attempt counts poll retries.
type Task struct {
	Type    string          `json:"type"`
	JobID   string          `json:"jobId"`
	Attempt int             `json:"attempt"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Queue is a named pair of redis keys: "<name>:ready" (list) and
// "<name>:delayed" (zset).
type Queue struct {
	client     *redis.Client
	readyKey   string
	delayedKey string
}

// New creates a queue on the given redis client.
func New(client *redis.Client, name string) *Queue {
	return &Queue{
		client:     client,
		readyKey:   name + ":ready",
		delayedKey: name + ":delayed",
	}
}

// Enqueue pushes a task for immediate delivery.
func (q *Queue) Enqueue(ctx context.Context, task *Task) error {
	data, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("marshal task: %w", err)
	}
	if err := q.client.LPush(ctx, q.readyKey, data).Err(); err != nil {
		return fmt.Errorf("enqueue task: %w", err)
	}
	return nil
}

// EnqueueAfter schedules a task for delivery once delay has elapsed.
func (q *Queue) EnqueueAfter(ctx context.Context, task *Task, delay time.Duration) error {
	data, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("marshal task: %w", err)
	}
	readyAt := float64(time.Now().Add(delay).UnixMilli())
	if err := q.client.ZAdd(ctx, q.delayedKey, &redis.Z{Score: readyAt, Member: data}).Err(); err != nil {
		return fmt.Errorf("enqueue delayed task: %w", err)
	}
	return nil
}

// Dequeue blocks up to timeout for the next ready task. Returns nil when the
// timeout elapses with nothing to do.
func (q *Queue) Dequeue(ctx context.Context, timeout time.Duration) (*Task, error) {
	result, err := q.client.BRPop(ctx, timeout, q.readyKey).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("dequeue task: %w", err)
	}
	// result is [key, value]
	var task Task
	if err := json.Unmarshal([]byte(result[1]), &task); err != nil {
		return nil, fmt.Errorf("unmarshal task: %w", err)
	}
	return &task, nil
}

// PromoteDue moves all delayed tasks whose ready time has passed onto the
// ready list. Returns the number of tasks promoted.
func (q *Queue) PromoteDue(ctx context.Context) (int, error) {
	now := fmt.Sprintf("%d", time.Now().UnixMilli())
	members, err := q.client.ZRangeByScore(ctx, q.delayedKey, &redis.ZRangeBy{
		Min: "-inf",
		Max: now,
	}).Result()
	if err != nil {
		return 0, fmt.Errorf("scan delayed tasks: %w", err)
	}

	promoted := 0
	for _, member := range members {
		// ZREM then LPUSH: a task removed by a competing promoter is simply
		// skipped here, so no task is delivered twice.
		removed, err := q.client.ZRem(ctx, q.delayedKey, member).Result()
		if err != nil {
			return promoted, fmt.Errorf("remove delayed task: %w", err)
		}
		if removed == 0 {
			continue
		}
		if err := q.client.LPush(ctx, q.readyKey, member).Err(); err != nil {
			return promoted, fmt.Errorf("promote delayed task: %w", err)
		}
		promoted++
	}
	return promoted, nil
}
