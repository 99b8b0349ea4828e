package service

import (
	"context"

	"onchain-leveling-backend/internal/features/leaderboard/models"
	"onchain-leveling-backend/internal/features/leaderboard/repository"
	progmodels "onchain-leveling-backend/internal/features/progression/models"
	progression "onchain-leveling-backend/internal/features/progression/service"
)

type Service struct {
	repo       repository.Repository
	schedule   *progression.Schedule
	maxEntries int64
}

func NewService(repo repository.Repository, schedule *progression.Schedule, maxEntries int) *Service {
	if maxEntries <= 0 {
		maxEntries = 100
	}
	return &Service{repo: repo, schedule: schedule, maxEntries: int64(maxEntries)}
}

// Observe records an authoritative profile read. Unregistered profiles are ignored.
func (s *Service) Observe(ctx context.Context, profile *progmodels.Profile) error {
	if !profile.Registered {
		return nil
	}
	return s.repo.Upsert(ctx, profile.Address, profile.Name, profile.XPTotal)
}

func (s *Service) Top(ctx context.Context, limit int) ([]models.Entry, error) {
	n := int64(limit)
	if n <= 0 || n > s.maxEntries {
		n = s.maxEntries
	}
	entries, err := s.repo.Top(ctx, n)
	if err != nil {
		return nil, err
	}
	for i := range entries {
		entries[i].Level = s.schedule.LevelFor(entries[i].XPTotal).Level
	}
	return entries, nil
}

func (s *Service) Position(ctx context.Context, address string) (*models.Entry, error) {
	entry, err := s.repo.Position(ctx, address)
	if err != nil {
		return nil, err
	}
	entry.Level = s.schedule.LevelFor(entry.XPTotal).Level
	return entry, nil
}
