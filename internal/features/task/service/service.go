package service

import (
	"context"

	completion "onchain-leveling-backend/internal/features/completion/models"
	ledger "onchain-leveling-backend/internal/features/ledger/repository"
	progmodels "onchain-leveling-backend/internal/features/progression/models"
	progression "onchain-leveling-backend/internal/features/progression/service"
	"onchain-leveling-backend/internal/features/task/models"
)

const catalogPage = 50

// StateReader reports per-task completion state for a player.
type StateReader interface {
	States(ctx context.Context, address string, taskIDs []uint64) (map[uint64]completion.State, error)
}

type Service struct {
	ledger ledger.Ledger
	states StateReader
	clock  *progression.ResetClock
}

func NewService(l ledger.Ledger, states StateReader, clock *progression.ResetClock) *Service {
	return &Service{ledger: l, states: states, clock: clock}
}

func (s *Service) Catalog(ctx context.Context, offset, limit uint64) (*models.Page, error) {
	tasks, err := s.ledger.ListTasks(ctx, offset, limit)
	if err != nil {
		return nil, err
	}
	return &models.Page{
		Tasks:   tasks,
		Offset:  offset,
		Limit:   limit,
		HasMore: uint64(len(tasks)) == limit,
	}, nil
}

// All pages through the whole catalog.
func (s *Service) All(ctx context.Context) ([]progmodels.Task, error) {
	var all []progmodels.Task
	for offset := uint64(0); ; offset += catalogPage {
		tasks, err := s.ledger.ListTasks(ctx, offset, catalogPage)
		if err != nil {
			return nil, err
		}
		all = append(all, tasks...)
		if len(tasks) < catalogPage {
			return all, nil
		}
	}
}

// Board lists enabled tasks with the caller's state. Disabled tasks are left out.
func (s *Service) Board(ctx context.Context, address string) (*models.Board, error) {
	tasks, err := s.All(ctx)
	if err != nil {
		return nil, err
	}

	var enabled []progmodels.Task
	ids := make([]uint64, 0, len(tasks))
	for _, t := range tasks {
		if t.Enabled {
			enabled = append(enabled, t)
			ids = append(ids, t.ID)
		}
	}

	states, err := s.states.States(ctx, address, ids)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	board := &models.Board{
		Items:       make([]models.BoardItem, 0, len(enabled)),
		PeriodStart: s.clock.PeriodStart(now),
		NextReset:   s.clock.NextReset(now),
	}
	for _, t := range enabled {
		state, ok := states[t.ID]
		if !ok {
			state = completion.StateAvailable
		}
		board.Items = append(board.Items, models.BoardItem{Task: t, State: state})
	}
	return board, nil
}
