package broker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jmehdipour/crmbeat/internal/config"
	"github.com/jmehdipour/crmbeat/internal/model"
)

// Queue is a redis-backed task queue: beat LPUSHes task envelopes, the
// report worker BRPOPs them. Retries park in a sorted set scored by their
// ETA until PromoteDue moves them back onto the list. Results live under
// the result prefix with a TTL.
type Queue struct {
	rdb          *redis.Client
	queueKey     string
	delayedKey   string
	resultPrefix string
	resultTTL    time.Duration
}

func New(rdb *redis.Client, cfg config.BrokerConfig) *Queue {
	queueKey := cfg.QueueKey
	if queueKey == "" {
		queueKey = "crm:tasks"
	}
	delayedKey := cfg.DelayedKey
	if delayedKey == "" {
		delayedKey = queueKey + ":delayed"
	}
	resultPrefix := cfg.ResultPrefix
	if resultPrefix == "" {
		resultPrefix = "crm:results:"
	}
	resultTTL := cfg.ResultTTL
	if resultTTL <= 0 {
		resultTTL = 24 * time.Hour
	}

	return &Queue{
		rdb:          rdb,
		queueKey:     queueKey,
		delayedKey:   delayedKey,
		resultPrefix: resultPrefix,
		resultTTL:    resultTTL,
	}
}

// Enqueue pushes a task for immediate delivery.
func (q *Queue) Enqueue(ctx context.Context, t model.Task) error {
	payload, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("marshal task: %w", err)
	}
	return q.rdb.LPush(ctx, q.queueKey, payload).Err()
}

// EnqueueAfter parks a task in the delayed set until eta.
func (q *Queue) EnqueueAfter(ctx context.Context, t model.Task, eta time.Time) error {
	payload, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("marshal task: %w", err)
	}
	return q.rdb.ZAdd(ctx, q.delayedKey, redis.Z{
		Score:  float64(eta.Unix()),
		Member: payload,
	}).Err()
}

// Dequeue blocks up to timeout for the next task. Returns (nil, nil) when
// the poll times out so callers can loop on ctx.
func (q *Queue) Dequeue(ctx context.Context, timeout time.Duration) (*model.Task, error) {
	res, err := q.rdb.BRPop(ctx, timeout, q.queueKey).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	// BRPOP returns [key, value]
	if len(res) != 2 {
		return nil, fmt.Errorf("brpop: unexpected reply length %d", len(res))
	}

	var t model.Task
	if err := json.Unmarshal([]byte(res[1]), &t); err != nil {
		return nil, fmt.Errorf("unmarshal task: %w", err)
	}
	return &t, nil
}

// PromoteDue moves tasks whose ETA has passed from the delayed set back to
// the queue. Returns how many were promoted.
func (q *Queue) PromoteDue(ctx context.Context, now time.Time) (int64, error) {
	members, err := q.rdb.ZRangeByScore(ctx, q.delayedKey, &redis.ZRangeBy{
		Min: "-inf",
		Max: strconv.FormatInt(now.Unix(), 10),
	}).Result()
	if err != nil {
		return 0, err
	}
	if len(members) == 0 {
		return 0, nil
	}

	pipe := q.rdb.TxPipeline()
	for _, m := range members {
		pipe.LPush(ctx, q.queueKey, m)
		pipe.ZRem(ctx, q.delayedKey, m)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return int64(len(members)), nil
}

// StoreResult records a task outcome under the result prefix.
func (q *Queue) StoreResult(ctx context.Context, res model.TaskResult) error {
	payload, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	return q.rdb.Set(ctx, q.resultPrefix+res.TaskID, payload, q.resultTTL).Err()
}

// Result fetches a stored task outcome; (nil, nil) when absent or expired.
func (q *Queue) Result(ctx context.Context, taskID string) (*model.TaskResult, error) {
	b, err := q.rdb.Get(ctx, q.resultPrefix+taskID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var res model.TaskResult
	if err := json.Unmarshal(b, &res); err != nil {
		return nil, fmt.Errorf("unmarshal result: %w", err)
	}
	return &res, nil
}
