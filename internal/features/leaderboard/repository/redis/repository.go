package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"

	goredis "github.com/redis/go-redis/v9"

	"onchain-leveling-backend/internal/features/leaderboard/models"
	"onchain-leveling-backend/internal/features/leaderboard/repository"
	"onchain-leveling-backend/internal/platform/redis"
)

const (
	scoresKey = "leaderboard:xp"
	namesKey  = "leaderboard:names"
	// entries below this rank are dropped on write
	maxStored = 10000
)

type Repository struct {
	client redis.RedisClient
}

func NewRepository(client redis.RedisClient) repository.Repository {
	return &Repository{client: client}
}

// names are stored as "<checksummed address>|<display name>"
func encodeName(address, name string) string {
	return address + "|" + name
}

func decodeName(raw string) (string, string) {
	address, name, _ := strings.Cut(raw, "|")
	return address, name
}

func (r *Repository) Upsert(ctx context.Context, address, name string, xpTotal uint64) error {
	member := strings.ToLower(address)
	pipe := r.client.Pipeline()
	pipe.ZAdd(ctx, scoresKey, goredis.Z{Score: float64(xpTotal), Member: member})
	pipe.HSet(ctx, namesKey, member, encodeName(address, name))
	pipe.ZRemRangeByRank(ctx, scoresKey, 0, -maxStored-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to update leaderboard: %w", err)
	}
	return nil
}

func (r *Repository) Top(ctx context.Context, limit int64) ([]models.Entry, error) {
	if limit <= 0 {
		return []models.Entry{}, nil
	}
	scores, err := r.client.ZRevRangeWithScores(ctx, scoresKey, 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read leaderboard: %w", err)
	}
	if len(scores) == 0 {
		return []models.Entry{}, nil
	}

	members := make([]string, len(scores))
	for i, z := range scores {
		members[i] = z.Member.(string)
	}
	names, err := r.client.HMGet(ctx, namesKey, members...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read leaderboard names: %w", err)
	}

	entries := make([]models.Entry, len(scores))
	for i, z := range scores {
		entries[i] = models.Entry{Rank: int64(i) + 1, Address: members[i], XPTotal: uint64(z.Score)}
		if raw, ok := names[i].(string); ok {
			entries[i].Address, entries[i].Name = decodeName(raw)
		}
	}
	return entries, nil
}

func (r *Repository) Position(ctx context.Context, address string) (*models.Entry, error) {
	member := strings.ToLower(address)
	rank, err := r.client.ZRevRank(ctx, scoresKey, member).Result()
	if errors.Is(err, goredis.Nil) {
		return nil, repository.ErrNotRanked
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read rank: %w", err)
	}

	entries, err := r.client.ZRevRangeWithScores(ctx, scoresKey, rank, rank).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read score: %w", err)
	}
	if len(entries) == 0 {
		return nil, repository.ErrNotRanked
	}

	entry := &models.Entry{Rank: rank + 1, Address: member, XPTotal: uint64(entries[0].Score)}
	raw, err := r.client.HGet(ctx, namesKey, member).Result()
	if err == nil {
		entry.Address, entry.Name = decodeName(raw)
	}
	return entry, nil
}
