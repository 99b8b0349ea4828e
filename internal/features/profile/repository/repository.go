package repository

import (
	"context"

	progmodels "onchain-leveling-backend/internal/features/progression/models"
)

// CosmeticStore is the local fallback store. It holds the character choice
// per device and nothing else.
type CosmeticStore interface {
	// Get reports false when the device has no stored choice.
	Get(ctx context.Context, deviceID string) (progmodels.Cosmetic, bool, error)
	Set(ctx context.Context, deviceID string, cosmetic progmodels.Cosmetic) error
}
