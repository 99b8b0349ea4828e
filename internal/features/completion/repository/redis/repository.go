package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"onchain-leveling-backend/internal/features/completion/models"
	"onchain-leveling-backend/internal/features/completion/repository"
	"onchain-leveling-backend/internal/platform/redis"
)

// ProgressStream is the Redis stream confirmed completions are appended to.
const ProgressStream = "progress:events"

// releaseScript deletes the lock only when it still belongs to the caller.
const releaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`

// refreshScript extends the lock only when it still belongs to the caller.
const refreshScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0`

func inFlightKey(address string, taskID uint64) string {
	return fmt.Sprintf("completion:inflight:%s:%d", strings.ToLower(address), taskID)
}

func completedKey(address string) string {
	return "completion:last:" + strings.ToLower(address)
}

type Guard struct {
	client redis.RedisClient
}

func NewGuard(client redis.RedisClient) repository.InFlightGuard {
	return &Guard{client: client}
}

func (g *Guard) Acquire(ctx context.Context, address string, taskID uint64, attemptID string, ttl time.Duration) (bool, error) {
	return g.client.SetNX(ctx, inFlightKey(address, taskID), attemptID, ttl).Result()
}

func (g *Guard) Refresh(ctx context.Context, address string, taskID uint64, attemptID string, ttl time.Duration) (bool, error) {
	n, err := g.client.Eval(ctx, refreshScript, []string{inFlightKey(address, taskID)}, attemptID, ttl.Milliseconds()).Int()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (g *Guard) Release(ctx context.Context, address string, taskID uint64, attemptID string) error {
	return g.client.Eval(ctx, releaseScript, []string{inFlightKey(address, taskID)}, attemptID).Err()
}

// Records keeps one hash per address: task id -> unix seconds of the last confirmed completion.
type Records struct {
	client redis.RedisClient
	ttl    time.Duration
}

func NewRecords(client redis.RedisClient) repository.CompletionRecords {
	return &Records{client: client, ttl: 8 * 24 * time.Hour}
}

func (r *Records) LastCompleted(ctx context.Context, address string, taskID uint64) (time.Time, error) {
	raw, err := r.client.HGet(ctx, completedKey(address), strconv.FormatUint(taskID, 10)).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return time.Time{}, nil
		}
		return time.Time{}, err
	}
	sec, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("corrupt completion record %q: %w", raw, err)
	}
	return time.Unix(sec, 0).UTC(), nil
}

func (r *Records) MarkCompleted(ctx context.Context, address string, taskID uint64, at time.Time) error {
	key := completedKey(address)
	pipe := r.client.Pipeline()
	pipe.HSet(ctx, key, strconv.FormatUint(taskID, 10), at.Unix())
	pipe.Expire(ctx, key, r.ttl)
	_, err := pipe.Exec(ctx)
	return err
}

// Publisher appends progress events to the progression stream.
type Publisher struct {
	client redis.RedisClient
	maxLen int64
}

func NewPublisher(client redis.RedisClient) repository.EventPublisher {
	return &Publisher{client: client, maxLen: 10000}
}

func (p *Publisher) PublishProgress(ctx context.Context, event models.ProgressEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.client.XAdd(ctx, &goredis.XAddArgs{
		Stream: ProgressStream,
		MaxLen: p.maxLen,
		Values: map[string]interface{}{
			"type":    "completion_confirmed",
			"address": event.Address,
			"payload": string(payload),
		},
	}).Err()
}
