package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"onchain-leveling-backend/internal/features/activity/models"
	"onchain-leveling-backend/internal/features/activity/repository"
	"onchain-leveling-backend/internal/platform/redis"
)

const keyPrefixQuest = "quest:"

type QuestStore struct {
	client redis.RedisClient
}

func NewQuestStore(client redis.RedisClient) repository.QuestStore {
	return &QuestStore{client: client}
}

func (s *QuestStore) Get(ctx context.Context, owner string) (*models.Quest, error) {
	data, err := s.client.Get(ctx, keyPrefixQuest+owner).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, repository.ErrQuestNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get quest: %w", err)
	}

	var quest models.Quest
	if err := json.Unmarshal(data, &quest); err != nil {
		return nil, fmt.Errorf("failed to unmarshal quest: %w", err)
	}
	return &quest, nil
}

func (s *QuestStore) Save(ctx context.Context, quest *models.Quest, ttl time.Duration) error {
	data, err := json.Marshal(quest)
	if err != nil {
		return fmt.Errorf("failed to marshal quest: %w", err)
	}
	return s.client.Set(ctx, keyPrefixQuest+quest.Owner, data, ttl).Err()
}
