package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"onchain-leveling-backend/internal/features/session/models"
	"onchain-leveling-backend/internal/features/session/repository"
	"onchain-leveling-backend/internal/platform/redis"
)

const keyPrefixSession = "session_state:"

type Store struct {
	client redis.RedisClient
}

func NewStore(client redis.RedisClient) repository.Store {
	return &Store{client: client}
}

func (s *Store) Get(ctx context.Context, device string) (*models.Snapshot, error) {
	data, err := s.client.Get(ctx, keyPrefixSession+device).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, repository.ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session snapshot: %w", err)
	}

	var snapshot models.Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session snapshot: %w", err)
	}
	return &snapshot, nil
}

// Save refreshes the TTL on every write, so active clients never expire.
func (s *Store) Save(ctx context.Context, snapshot *models.Snapshot, ttl time.Duration) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal session snapshot: %w", err)
	}
	return s.client.Set(ctx, keyPrefixSession+snapshot.Device, data, ttl).Err()
}
