package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/hrbrlife/INSTAKYC-SCREENING/internal/metrics"
)

const (
	taskKeyPrefix = "task:"
	queueKey      = "task_queue"
)

// Queue is a Redis-backed task queue. Each task lives in a hash under
// task:{id} with the pending IDs in a list; both carry the result TTL so
// abandoned tasks clean themselves up.
type Queue struct {
	client *redis.Client
	ttl    time.Duration
}

// NewQueue creates a task queue. A zero ttl defaults to five minutes.
func NewQueue(client *redis.Client, ttl time.Duration) *Queue {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Queue{client: client, ttl: ttl}
}

// Connect opens a Redis client from a URL and verifies the connection.
// Returns nil if the URL is empty (async screening not configured).
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	if url == "" {
		return nil, nil
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

// Health checks the Redis connection.
func (q *Queue) Health(ctx context.Context) error {
	return q.client.Ping(ctx).Err()
}

// Enqueue accepts a task and pushes it onto the queue.
func (q *Queue) Enqueue(ctx context.Context, taskType string, payload any) (*Task, error) {
	if !ValidType(taskType) {
		return nil, ErrUnknownType
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	task := &Task{
		ID:        "task_" + uuid.NewString(),
		Type:      taskType,
		Payload:   body,
		Status:    StatusQueued,
		CreatedAt: time.Now().UTC(),
	}

	key := taskKeyPrefix + task.ID
	pipe := q.client.TxPipeline()
	pipe.HSet(ctx, key, map[string]any{
		"type":       task.Type,
		"payload":    string(task.Payload),
		"status":     task.Status,
		"created_at": task.CreatedAt.Format(time.RFC3339Nano),
	})
	pipe.Expire(ctx, key, q.ttl)
	pipe.RPush(ctx, queueKey, task.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("enqueue task: %w", err)
	}

	metrics.TasksEnqueuedTotal.Inc()
	q.observeDepth(ctx)
	return task, nil
}

// Get loads a task by ID.
func (q *Queue) Get(ctx context.Context, id string) (*Task, error) {
	fields, err := q.client.HGetAll(ctx, taskKeyPrefix+id).Result()
	if err != nil {
		return nil, fmt.Errorf("load task: %w", err)
	}
	if len(fields) == 0 {
		return nil, ErrTaskNotFound
	}

	task := &Task{
		ID:      id,
		Type:    fields["type"],
		Payload: json.RawMessage(fields["payload"]),
		Status:  fields["status"],
		Error:   fields["error"],
	}
	if raw := fields["result"]; raw != "" {
		task.Result = json.RawMessage(raw)
	}
	if ts := fields["created_at"]; ts != "" {
		if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			task.CreatedAt = t
		}
	}
	return task, nil
}

// Dequeue blocks up to timeout for the next pending task. Returns nil with
// no error when the timeout elapses, so workers can re-check their context.
func (q *Queue) Dequeue(ctx context.Context, timeout time.Duration) (*Task, error) {
	res, err := q.client.BLPop(ctx, timeout, queueKey).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("pop task: %w", err)
	}
	q.observeDepth(ctx)

	// res[0] is the list key, res[1] the task ID.
	task, err := q.Get(ctx, res[1])
	if errors.Is(err, ErrTaskNotFound) {
		// Record expired while queued; nothing to run.
		return nil, nil
	}
	return task, err
}

// MarkRunning transitions a task to the running state.
func (q *Queue) MarkRunning(ctx context.Context, id string) error {
	return q.setFields(ctx, id, map[string]any{"status": StatusRunning})
}

// Complete stores a successful result.
func (q *Queue) Complete(ctx context.Context, id string, result any) error {
	body, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	return q.setFields(ctx, id, map[string]any{
		"status": StatusCompleted,
		"result": string(body),
	})
}

// Fail stores a failure outcome.
func (q *Queue) Fail(ctx context.Context, id string, cause error) error {
	return q.setFields(ctx, id, map[string]any{
		"status": StatusFailed,
		"error":  cause.Error(),
	})
}

// setFields updates a task hash and refreshes its TTL so results stay
// readable for the full window after completion.
func (q *Queue) setFields(ctx context.Context, id string, fields map[string]any) error {
	key := taskKeyPrefix + id
	pipe := q.client.TxPipeline()
	pipe.HSet(ctx, key, fields)
	pipe.Expire(ctx, key, q.ttl)
	_, err := pipe.Exec(ctx)
	return err
}

func (q *Queue) observeDepth(ctx context.Context) {
	if depth, err := q.client.LLen(ctx, queueKey).Result(); err == nil {
		metrics.TaskQueueDepth.Set(float64(depth))
	}
}
