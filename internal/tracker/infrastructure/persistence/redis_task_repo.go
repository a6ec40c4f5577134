package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/felixgeelhaar/taskboard/internal/tracker/domain/task"
)

const (
	defaultRedisPrefix = "taskboard"
	maxWatchRetries    = 5
)

// RedisTaskRepository implements task.Repository on Redis.
// Tasks live as JSON in a hash keyed by id; a list keeps their insertion order.
// Writes run as WATCH/MULTI/EXEC transactions so each one is atomic.
type RedisTaskRepository struct {
	client   *redis.Client
	hashKey  string
	orderKey string
}

// NewRedisTaskRepository creates a repository using keys under prefix.
func NewRedisTaskRepository(client *redis.Client, prefix string) *RedisTaskRepository {
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	return &RedisTaskRepository{
		client:   client,
		hashKey:  prefix + ":tasks",
		orderKey: prefix + ":tasks:order",
	}
}

// List returns all tasks in insertion order.
func (r *RedisTaskRepository) List(ctx context.Context) ([]*task.Task, error) {
	ids, err := r.client.LRange(ctx, r.orderKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read task order: %w", err)
	}
	tasks := make([]*task.Task, 0, len(ids))
	if len(ids) == 0 {
		return tasks, nil
	}

	values, err := r.client.HMGet(ctx, r.hashKey, ids...).Result()
	if err != nil {
		return nil, fmt.Errorf("read tasks: %w", err)
	}
	for i, value := range values {
		raw, ok := value.(string)
		if !ok {
			// Order entry without a body; skip it rather than fail the whole listing.
			continue
		}
		rec, err := decodeRecord(raw)
		if err != nil {
			return nil, fmt.Errorf("decode task %s: %w", ids[i], err)
		}
		tasks = append(tasks, rec.toDomain())
	}
	return tasks, nil
}

// FindByID returns the task with the given id.
func (r *RedisTaskRepository) FindByID(ctx context.Context, id int64) (*task.Task, error) {
	raw, err := r.client.HGet(ctx, r.hashKey, formatID(id)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, task.ErrTaskNotFound
		}
		return nil, fmt.Errorf("read task %d: %w", id, err)
	}
	rec, err := decodeRecord(raw)
	if err != nil {
		return nil, fmt.Errorf("decode task %d: %w", id, err)
	}
	return rec.toDomain(), nil
}

// Insert stores a new task. An id already in the hash fails with task.ErrDuplicateID.
func (r *RedisTaskRepository) Insert(ctx context.Context, t *task.Task) error {
	rec := toRecord(t)
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode task %d: %w", rec.ID, err)
	}
	field := formatID(rec.ID)

	return r.watch(ctx, func(tx *redis.Tx) error {
		exists, err := tx.HExists(ctx, r.hashKey, field).Result()
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("insert task %d: %w", rec.ID, task.ErrDuplicateID)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, r.hashKey, field, raw)
			pipe.RPush(ctx, r.orderKey, field)
			return nil
		})
		return err
	})
}

// Save stores the task, appending its id to the order list when it is new.
func (r *RedisTaskRepository) Save(ctx context.Context, t *task.Task) error {
	rec := toRecord(t)
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode task %d: %w", rec.ID, err)
	}
	field := formatID(rec.ID)

	return r.watch(ctx, func(tx *redis.Tx) error {
		exists, err := tx.HExists(ctx, r.hashKey, field).Result()
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, r.hashKey, field, raw)
			if !exists {
				pipe.RPush(ctx, r.orderKey, field)
			}
			return nil
		})
		return err
	})
}

// Delete removes the task and its order entry.
func (r *RedisTaskRepository) Delete(ctx context.Context, id int64) error {
	field := formatID(id)

	return r.watch(ctx, func(tx *redis.Tx) error {
		exists, err := tx.HExists(ctx, r.hashKey, field).Result()
		if err != nil {
			return err
		}
		if !exists {
			return task.ErrTaskNotFound
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HDel(ctx, r.hashKey, field)
			pipe.LRem(ctx, r.orderKey, 0, field)
			return nil
		})
		return err
	})
}

// NextID returns a timestamp id not used by any stored task.
func (r *RedisTaskRepository) NextID(ctx context.Context, now time.Time) (int64, error) {
	ids, err := r.client.HKeys(ctx, r.hashKey).Result()
	if err != nil {
		return 0, fmt.Errorf("read task ids: %w", err)
	}
	var max int64
	for _, raw := range ids {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil && id > max {
			max = id
		}
	}
	return task.NextTimestampID(now, max), nil
}

// watch runs fn in an optimistic transaction on both keys, retrying on conflicts.
func (r *RedisTaskRepository) watch(ctx context.Context, fn func(tx *redis.Tx) error) error {
	var err error
	for attempt := 0; attempt < maxWatchRetries; attempt++ {
		err = r.client.Watch(ctx, fn, r.hashKey, r.orderKey)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
	}
	return fmt.Errorf("redis transaction kept conflicting: %w", err)
}

func decodeRecord(raw string) (taskRecord, error) {
	var rec taskRecord
	err := json.Unmarshal([]byte(raw), &rec)
	return rec, err
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
