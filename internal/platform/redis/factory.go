package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"onchain-leveling-backend/internal/common/config"
	"onchain-leveling-backend/internal/common/logger"
)

// RedisClient is the subset of go-redis the features depend on.
type RedisClient interface {
	Ping(ctx context.Context) *redis.StatusCmd
	Set(ctx context.Context, key string, value interface{}, ttl ...time.Duration) *redis.StatusCmd
	SetNX(ctx context.Context, key string, value interface{}, ttl time.Duration) *redis.BoolCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	GetDel(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Exists(ctx context.Context, keys ...string) *redis.IntCmd
	Expire(ctx context.Context, key string, ttl time.Duration) *redis.BoolCmd
	HSet(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	HGet(ctx context.Context, key, field string) *redis.StringCmd
	HGetAll(ctx context.Context, key string) *redis.MapStringStringCmd
	HMGet(ctx context.Context, key string, fields ...string) *redis.SliceCmd
	ZAdd(ctx context.Context, key string, members ...redis.Z) *redis.IntCmd
	ZRevRangeWithScores(ctx context.Context, key string, start, stop int64) *redis.ZSliceCmd
	ZRevRank(ctx context.Context, key, member string) *redis.IntCmd
	ZCard(ctx context.Context, key string) *redis.IntCmd
	ZRemRangeByRank(ctx context.Context, key string, start, stop int64) *redis.IntCmd
	XAdd(ctx context.Context, args *redis.XAddArgs) *redis.StringCmd
	XGroupCreateMkStream(ctx context.Context, stream, group, start string) *redis.StatusCmd
	XReadGroup(ctx context.Context, args *redis.XReadGroupArgs) *redis.XStreamSliceCmd
	XAck(ctx context.Context, stream, group string, ids ...string) *redis.IntCmd
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
	Scan(ctx context.Context, cursor uint64, match string, count int64) *redis.ScanCmd
	Pipeline() redis.Pipeliner
	Close() error
}

// CreateRedisClient connects to the configured instance and verifies it with PING.
func CreateRedisClient(ctx context.Context, cfg *config.Config) (RedisClient, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis at %s: %w", cfg.RedisAddr(), err)
	}

	logger.Info().
		Str("addr", cfg.RedisAddr()).
		Int("db", cfg.Redis.DB).
		Msg("Redis client initialized")

	return &redisClientWrapper{client: client}, nil
}

// Wrap adapts an existing go-redis client, e.g. one pointed at miniredis in tests.
func Wrap(client *redis.Client) RedisClient {
	return &redisClientWrapper{client: client}
}

type redisClientWrapper struct {
	client *redis.Client
}

func (w *redisClientWrapper) Ping(ctx context.Context) *redis.StatusCmd {
	return w.client.Ping(ctx)
}

func (w *redisClientWrapper) Set(ctx context.Context, key string, value interface{}, ttl ...time.Duration) *redis.StatusCmd {
	if len(ttl) > 0 {
		return w.client.Set(ctx, key, value, ttl[0])
	}
	return w.client.Set(ctx, key, value, 0)
}

func (w *redisClientWrapper) SetNX(ctx context.Context, key string, value interface{}, ttl time.Duration) *redis.BoolCmd {
	return w.client.SetNX(ctx, key, value, ttl)
}

func (w *redisClientWrapper) Get(ctx context.Context, key string) *redis.StringCmd {
	return w.client.Get(ctx, key)
}

func (w *redisClientWrapper) GetDel(ctx context.Context, key string) *redis.StringCmd {
	return w.client.GetDel(ctx, key)
}

func (w *redisClientWrapper) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	return w.client.Del(ctx, keys...)
}

func (w *redisClientWrapper) Exists(ctx context.Context, keys ...string) *redis.IntCmd {
	return w.client.Exists(ctx, keys...)
}

func (w *redisClientWrapper) Expire(ctx context.Context, key string, ttl time.Duration) *redis.BoolCmd {
	return w.client.Expire(ctx, key, ttl)
}

func (w *redisClientWrapper) HSet(ctx context.Context, key string, values ...interface{}) *redis.IntCmd {
	return w.client.HSet(ctx, key, values...)
}

func (w *redisClientWrapper) HGet(ctx context.Context, key, field string) *redis.StringCmd {
	return w.client.HGet(ctx, key, field)
}

func (w *redisClientWrapper) HGetAll(ctx context.Context, key string) *redis.MapStringStringCmd {
	return w.client.HGetAll(ctx, key)
}

func (w *redisClientWrapper) HMGet(ctx context.Context, key string, fields ...string) *redis.SliceCmd {
	return w.client.HMGet(ctx, key, fields...)
}

func (w *redisClientWrapper) ZAdd(ctx context.Context, key string, members ...redis.Z) *redis.IntCmd {
	return w.client.ZAdd(ctx, key, members...)
}

func (w *redisClientWrapper) ZRevRangeWithScores(ctx context.Context, key string, start, stop int64) *redis.ZSliceCmd {
	return w.client.ZRevRangeWithScores(ctx, key, start, stop)
}

func (w *redisClientWrapper) ZRevRank(ctx context.Context, key, member string) *redis.IntCmd {
	return w.client.ZRevRank(ctx, key, member)
}

func (w *redisClientWrapper) ZCard(ctx context.Context, key string) *redis.IntCmd {
	return w.client.ZCard(ctx, key)
}

func (w *redisClientWrapper) ZRemRangeByRank(ctx context.Context, key string, start, stop int64) *redis.IntCmd {
	return w.client.ZRemRangeByRank(ctx, key, start, stop)
}

func (w *redisClientWrapper) XAdd(ctx context.Context, args *redis.XAddArgs) *redis.StringCmd {
	return w.client.XAdd(ctx, args)
}

func (w *redisClientWrapper) XGroupCreateMkStream(ctx context.Context, stream, group, start string) *redis.StatusCmd {
	return w.client.XGroupCreateMkStream(ctx, stream, group, start)
}

func (w *redisClientWrapper) XReadGroup(ctx context.Context, args *redis.XReadGroupArgs) *redis.XStreamSliceCmd {
	return w.client.XReadGroup(ctx, args)
}

func (w *redisClientWrapper) XAck(ctx context.Context, stream, group string, ids ...string) *redis.IntCmd {
	return w.client.XAck(ctx, stream, group, ids...)
}

func (w *redisClientWrapper) Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd {
	return w.client.Eval(ctx, script, keys, args...)
}

func (w *redisClientWrapper) Scan(ctx context.Context, cursor uint64, match string, count int64) *redis.ScanCmd {
	return w.client.Scan(ctx, cursor, match, count)
}

func (w *redisClientWrapper) Pipeline() redis.Pipeliner {
	return w.client.Pipeline()
}

func (w *redisClientWrapper) Close() error {
	return w.client.Close()
}
