package cached

import (
	"context"
	"time"

	"onchain-leveling-backend/internal/common/cache"
	"onchain-leveling-backend/internal/features/ledger/repository"
	"onchain-leveling-backend/internal/features/progression/models"
)

// Ledger caches profile and catalog reads in Redis. Transaction status and the
// next-level view always go to the underlying ledger.
type Ledger struct {
	next       repository.Ledger
	cache      *cache.Cache
	profileTTL time.Duration
	tasksTTL   time.Duration
}

func NewLedger(next repository.Ledger, c *cache.Cache, profileTTL, tasksTTL time.Duration) *Ledger {
	return &Ledger{
		next:       next,
		cache:      c,
		profileTTL: profileTTL,
		tasksTTL:   tasksTTL,
	}
}

func (l *Ledger) GetProfile(ctx context.Context, address string) (*models.Profile, error) {
	var profile models.Profile
	err := l.cache.Remember(ctx, cache.ProfileKey(address), &profile, l.profileTTL, func() (interface{}, error) {
		return l.next.GetProfile(ctx, address)
	})
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// GetFreshProfile bypasses the cache and refreshes it with the authoritative read.
func (l *Ledger) GetFreshProfile(ctx context.Context, address string) (*models.Profile, error) {
	profile, err := l.next.GetProfile(ctx, address)
	if err != nil {
		return nil, err
	}
	_ = l.cache.Store(ctx, cache.ProfileKey(address), profile, l.profileTTL)
	return profile, nil
}

func (l *Ledger) ListTasks(ctx context.Context, offset, limit uint64) ([]models.Task, error) {
	var tasks []models.Task
	err := l.cache.Remember(ctx, cache.TasksPageKey(offset, limit), &tasks, l.tasksTTL, func() (interface{}, error) {
		return l.next.ListTasks(ctx, offset, limit)
	})
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

func (l *Ledger) NextLevelXP(ctx context.Context, address string) (*repository.NextLevel, error) {
	return l.next.NextLevelXP(ctx, address)
}

func (l *Ledger) TxStatus(ctx context.Context, hash string) (*repository.TxStatus, error) {
	return l.next.TxStatus(ctx, hash)
}

func (l *Ledger) Invalidate(ctx context.Context, address string) error {
	return l.cache.InvalidateProfile(ctx, address)
}
