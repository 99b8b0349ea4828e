package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"onchain-leveling-backend/internal/features/profile/repository"
	progmodels "onchain-leveling-backend/internal/features/progression/models"
	"onchain-leveling-backend/internal/platform/redis"
)

const (
	keyPrefixCosmetic  = "cosmetic:"
	cosmeticExpiration = 180 * 24 * time.Hour
)

type CosmeticStore struct {
	client redis.RedisClient
}

func NewCosmeticStore(client redis.RedisClient) repository.CosmeticStore {
	return &CosmeticStore{client: client}
}

func (s *CosmeticStore) Get(ctx context.Context, deviceID string) (progmodels.Cosmetic, bool, error) {
	raw, err := s.client.Get(ctx, keyPrefixCosmetic+deviceID).Result()
	if errors.Is(err, goredis.Nil) {
		return progmodels.CosmeticUnknown, false, nil
	}
	if err != nil {
		return progmodels.CosmeticUnknown, false, fmt.Errorf("failed to get cosmetic: %w", err)
	}

	cosmetic, err := progmodels.ParseCosmetic(raw)
	if err != nil {
		return progmodels.CosmeticUnknown, false, fmt.Errorf("corrupt cosmetic for %s: %w", deviceID, err)
	}
	return cosmetic, true, nil
}

func (s *CosmeticStore) Set(ctx context.Context, deviceID string, cosmetic progmodels.Cosmetic) error {
	return s.client.Set(ctx, keyPrefixCosmetic+deviceID, cosmetic.String(), cosmeticExpiration).Err()
}
