// Package redistest provides miniredis-backed clients for tests.
package redistest

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	"onchain-leveling-backend/internal/platform/redis"
)

// NewClient starts a miniredis server for the duration of t.
func NewClient(t testing.TB) (redis.RedisClient, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return redis.Wrap(client), mr
}
