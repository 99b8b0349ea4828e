package repository

import (
	"context"
	"errors"

	"onchain-leveling-backend/internal/features/leaderboard/models"
)

var ErrNotRanked = errors.New("address is not on the leaderboard")

type Repository interface {
	// Upsert records the latest authoritative total for a player.
	Upsert(ctx context.Context, address, name string, xpTotal uint64) error
	// Top returns up to limit entries, best first. Level is left for the caller.
	Top(ctx context.Context, limit int64) ([]models.Entry, error)
	Position(ctx context.Context, address string) (*models.Entry, error)
}
