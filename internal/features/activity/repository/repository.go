package repository

import (
	"context"
	"errors"
	"time"

	"onchain-leveling-backend/internal/features/activity/models"
)

var ErrQuestNotFound = errors.New("quest not found")

// QuestStore keeps at most one quest per owner.
type QuestStore interface {
	Get(ctx context.Context, owner string) (*models.Quest, error)
	Save(ctx context.Context, quest *models.Quest, ttl time.Duration) error
}
