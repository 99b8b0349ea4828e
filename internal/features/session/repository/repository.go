package repository

import (
	"context"
	"errors"
	"time"

	"onchain-leveling-backend/internal/features/session/models"
)

var ErrSnapshotNotFound = errors.New("session snapshot not found")

type Store interface {
	Get(ctx context.Context, device string) (*models.Snapshot, error)
	Save(ctx context.Context, snapshot *models.Snapshot, ttl time.Duration) error
}
