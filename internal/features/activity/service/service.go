package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"onchain-leveling-backend/internal/common/logger"
	"onchain-leveling-backend/internal/features/activity/models"
	"onchain-leveling-backend/internal/features/activity/repository"
	progmodels "onchain-leveling-backend/internal/features/progression/models"
)

// questRetention is how long a quest stays readable after its countdown.
const questRetention = 24 * time.Hour

var (
	ErrQuestActive     = errors.New("a quest is already active")
	ErrQuestTransition = errors.New("quest cannot make this transition")
)

// TaskLister returns the whole task catalog.
type TaskLister interface {
	All(ctx context.Context) ([]progmodels.Task, error)
}

type Service struct {
	tasks  TaskLister
	quests repository.QuestStore
	now    func() time.Time
}

func NewService(tasks TaskLister, quests repository.QuestStore) *Service {
	return &Service{tasks: tasks, quests: quests, now: time.Now}
}

// WithClock replaces the wall clock; used by tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Summarize validates a and reports its estimates and goal progress.
func (s *Service) Summarize(ctx context.Context, a models.Activity) (*models.Summary, error) {
	kind, err := models.ParseKind(string(a.Kind))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidActivity, err)
	}
	a.Kind = kind
	if err := Validate(a); err != nil {
		return nil, err
	}

	tasks, err := s.tasks.All(ctx)
	if err != nil {
		return nil, err
	}

	return &models.Summary{
		Activity: a,
		Estimate: EstimateFor(a),
		Goals:    Progress(a, tasks),
	}, nil
}

// StartQuest begins a countdown for owner. An owner runs one quest at a time.
func (s *Service) StartQuest(ctx context.Context, owner string, a models.Activity) (*models.Quest, error) {
	kind, err := models.ParseKind(string(a.Kind))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidActivity, err)
	}
	a.Kind = kind
	if err := Validate(a); err != nil {
		return nil, err
	}

	now := s.now()
	current, err := s.load(ctx, owner, now)
	switch {
	case errors.Is(err, repository.ErrQuestNotFound):
	case err != nil:
		return nil, err
	case current.Active():
		return nil, ErrQuestActive
	}

	quest := &models.Quest{
		ID:        uuid.NewString(),
		Owner:     owner,
		Activity:  a,
		State:     models.QuestRunning,
		StartedAt: now,
	}
	quest.Settle(now)
	if err := s.save(ctx, quest); err != nil {
		return nil, err
	}

	logger.Info().
		Str("owner", owner).
		Str("quest_id", quest.ID).
		Str("kind", string(a.Kind)).
		Float64("minutes", a.Minutes).
		Msg("Quest started")
	return quest, nil
}

func (s *Service) Quest(ctx context.Context, owner string) (*models.Quest, error) {
	return s.load(ctx, owner, s.now())
}

func (s *Service) PauseQuest(ctx context.Context, owner string) (*models.Quest, error) {
	return s.update(ctx, owner, func(q *models.Quest, now time.Time) error {
		if q.State != models.QuestRunning {
			return fmt.Errorf("%w: %s to paused", ErrQuestTransition, q.State)
		}
		q.State = models.QuestPaused
		q.PausedAt = &now
		return nil
	})
}

func (s *Service) ResumeQuest(ctx context.Context, owner string) (*models.Quest, error) {
	return s.update(ctx, owner, func(q *models.Quest, now time.Time) error {
		if q.State != models.QuestPaused {
			return fmt.Errorf("%w: %s to running", ErrQuestTransition, q.State)
		}
		q.Paused += now.Sub(*q.PausedAt)
		q.PausedAt = nil
		q.State = models.QuestRunning
		return nil
	})
}

func (s *Service) StopQuest(ctx context.Context, owner string) (*models.Quest, error) {
	return s.update(ctx, owner, func(q *models.Quest, now time.Time) error {
		if !q.Active() {
			return fmt.Errorf("%w: %s to stopped", ErrQuestTransition, q.State)
		}
		if q.PausedAt != nil {
			q.Paused += now.Sub(*q.PausedAt)
			q.PausedAt = nil
		}
		q.State = models.QuestStopped
		q.EndedAt = &now
		return nil
	})
}

func (s *Service) update(ctx context.Context, owner string, apply func(*models.Quest, time.Time) error) (*models.Quest, error) {
	now := s.now()
	quest, err := s.load(ctx, owner, now)
	if err != nil {
		return nil, err
	}
	if err := apply(quest, now); err != nil {
		return nil, err
	}
	quest.Settle(now)
	if err := s.save(ctx, quest); err != nil {
		return nil, err
	}
	return quest, nil
}

// load reads the owner's quest and settles it at now.
func (s *Service) load(ctx context.Context, owner string, now time.Time) (*models.Quest, error) {
	quest, err := s.quests.Get(ctx, owner)
	if err != nil {
		return nil, err
	}
	quest.Settle(now)
	return quest, nil
}

func (s *Service) save(ctx context.Context, q *models.Quest) error {
	if err := s.quests.Save(ctx, q, q.Duration()+questRetention); err != nil {
		return fmt.Errorf("failed to save quest: %w", err)
	}
	return nil
}
