// Package cache is a JSON read-through cache in front of ledger reads.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"onchain-leveling-backend/internal/common/logger"
	"onchain-leveling-backend/internal/platform/redis"
)

const (
	profilePrefix = "ledger:profile:"
	tasksPrefix   = "ledger:tasks:"

	scanBatch = 100
)

// ErrMiss is returned by Load when the key is absent.
var ErrMiss = errors.New("cache miss")

type Cache struct {
	rdb redis.RedisClient
}

func New(rdb redis.RedisClient) *Cache {
	return &Cache{rdb: rdb}
}

// ProfileKey is case-insensitive in the address.
func ProfileKey(address string) string {
	return profilePrefix + strings.ToLower(address)
}

func TasksPageKey(offset, limit uint64) string {
	return fmt.Sprintf("%s%d:%d", tasksPrefix, offset, limit)
}

// Load decodes the value at key into dest.
func (c *Cache) Load(ctx context.Context, key string, dest interface{}) error {
	data, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return ErrMiss
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dest)
}

func (c *Cache) Store(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	return c.rdb.Set(ctx, key, data, ttl).Err()
}

// Remember serves dest from the cache, or fills it and stores the result.
// Redis failures fall through to fill; only fill errors are returned.
func (c *Cache) Remember(ctx context.Context, key string, dest interface{}, ttl time.Duration, fill func() (interface{}, error)) error {
	err := c.Load(ctx, key, dest)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrMiss) {
		logger.Debug().Err(err).Str("key", key).Msg("Cache read failed, loading from ledger")
	}

	value, err := fill()
	if err != nil {
		return err
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if err := c.rdb.Set(ctx, key, data, ttl).Err(); err != nil {
		logger.Debug().Err(err).Str("key", key).Msg("Cache write failed")
	}
	return json.Unmarshal(data, dest)
}

func (c *Cache) Forget(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return c.rdb.Del(ctx, keys...).Err()
}

// ForgetPrefix walks the keyspace with SCAN and deletes every key under prefix.
func (c *Cache) ForgetPrefix(ctx context.Context, prefix string) error {
	var cursor uint64
	for {
		keys, next, err := c.rdb.Scan(ctx, cursor, prefix+"*", scanBatch).Result()
		if err != nil {
			return err
		}
		if err := c.Forget(ctx, keys...); err != nil {
			return err
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

func (c *Cache) InvalidateProfile(ctx context.Context, address string) error {
	return c.Forget(ctx, ProfileKey(address))
}

func (c *Cache) InvalidateTasks(ctx context.Context) error {
	return c.ForgetPrefix(ctx, tasksPrefix)
}
