package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"onchain-leveling-backend/internal/features/activity/models"
	"onchain-leveling-backend/internal/features/activity/repository"
	questredis "onchain-leveling-backend/internal/features/activity/repository/redis"
	memledger "onchain-leveling-backend/internal/features/ledger/repository/memory"
	progmodels "onchain-leveling-backend/internal/features/progression/models"
	"onchain-leveling-backend/internal/platform/redis/redistest"
)

const device = "device-1"

type staticTasks []progmodels.Task

func (s staticTasks) All(ctx context.Context) ([]progmodels.Task, error) {
	return s, nil
}

type failingTasks struct{ err error }

func (f failingTasks) All(ctx context.Context) ([]progmodels.Task, error) {
	return nil, f.err
}

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

func (c *clock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newService(t *testing.T) (*Service, *clock) {
	t.Helper()
	client, _ := redistest.NewClient(t)
	c := &clock{now: time.Date(2026, 5, 2, 7, 0, 0, 0, time.UTC)}
	svc := NewService(staticTasks(memledger.DefaultTasks()), questredis.NewQuestStore(client)).WithClock(c.Now)
	return svc, c
}

func TestSummarize(t *testing.T) {
	svc, _ := newService(t)

	summary, err := svc.Summarize(context.Background(), models.Activity{Kind: " RUN ", Minutes: 30, DistanceKM: 5})
	require.NoError(t, err)
	assert.Equal(t, models.KindRun, summary.Activity.Kind)
	assert.Equal(t, 343, summary.Estimate.Calories)
	assert.Len(t, summary.Goals, 3)

	_, err = svc.Summarize(context.Background(), models.Activity{Kind: models.KindRun, Minutes: 500, DistanceKM: 5})
	assert.ErrorIs(t, err, ErrInvalidActivity)
}

func TestSummarizeTaskError(t *testing.T) {
	client, _ := redistest.NewClient(t)
	boom := errors.New("ledger down")
	svc := NewService(failingTasks{err: boom}, questredis.NewQuestStore(client))

	_, err := svc.Summarize(context.Background(), models.Activity{Kind: models.KindRun, Minutes: 30, DistanceKM: 5})
	assert.ErrorIs(t, err, boom)
}

func TestQuestCountdown(t *testing.T) {
	svc, c := newService(t)
	ctx := context.Background()

	_, err := svc.Quest(ctx, device)
	assert.ErrorIs(t, err, repository.ErrQuestNotFound)

	quest, err := svc.StartQuest(ctx, device, models.Activity{Kind: models.KindRun, Minutes: 10, DistanceKM: 2})
	require.NoError(t, err)
	assert.Equal(t, models.QuestRunning, quest.State)
	assert.Equal(t, int64(600), quest.Remaining)

	_, err = svc.StartQuest(ctx, device, models.Activity{Kind: models.KindWalk, Minutes: 10, DistanceKM: 1})
	assert.ErrorIs(t, err, ErrQuestActive)

	c.Advance(4 * time.Minute)
	quest, err = svc.PauseQuest(ctx, device)
	require.NoError(t, err)
	assert.Equal(t, models.QuestPaused, quest.State)
	assert.Equal(t, int64(360), quest.Remaining)

	_, err = svc.PauseQuest(ctx, device)
	assert.ErrorIs(t, err, ErrQuestTransition)

	// paused time does not count down
	c.Advance(time.Hour)
	quest, err = svc.Quest(ctx, device)
	require.NoError(t, err)
	assert.Equal(t, int64(360), quest.Remaining)

	quest, err = svc.ResumeQuest(ctx, device)
	require.NoError(t, err)
	assert.Equal(t, models.QuestRunning, quest.State)
	assert.Equal(t, time.Hour, quest.Paused)

	c.Advance(6 * time.Minute)
	quest, err = svc.Quest(ctx, device)
	require.NoError(t, err)
	assert.Equal(t, models.QuestCompleted, quest.State)
	assert.Zero(t, quest.Remaining)
	require.NotNil(t, quest.EndedAt)
	assert.Equal(t, c.now, *quest.EndedAt)

	_, err = svc.StopQuest(ctx, device)
	assert.ErrorIs(t, err, ErrQuestTransition)

	// a finished quest frees the slot
	_, err = svc.StartQuest(ctx, device, models.Activity{Kind: models.KindWalk, Minutes: 10, DistanceKM: 1})
	assert.NoError(t, err)
}

func TestStopPausedQuest(t *testing.T) {
	svc, c := newService(t)
	ctx := context.Background()

	_, err := svc.StartQuest(ctx, device, models.Activity{Kind: models.KindWalk, Minutes: 30, DistanceKM: 2})
	require.NoError(t, err)

	c.Advance(10 * time.Minute)
	_, err = svc.PauseQuest(ctx, device)
	require.NoError(t, err)

	c.Advance(5 * time.Minute)
	quest, err := svc.StopQuest(ctx, device)
	require.NoError(t, err)
	assert.Equal(t, models.QuestStopped, quest.State)
	assert.Nil(t, quest.PausedAt)
	assert.Equal(t, 10*time.Minute, quest.Elapsed(c.now))
	assert.Equal(t, int64(1200), quest.Remaining)

	_, err = svc.ResumeQuest(ctx, device)
	assert.ErrorIs(t, err, ErrQuestTransition)
}

func TestQuestsAreIndependentPerOwner(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.StartQuest(ctx, device, models.Activity{Kind: models.KindRun, Minutes: 10, DistanceKM: 2})
	require.NoError(t, err)
	_, err = svc.StartQuest(ctx, "device-2", models.Activity{Kind: models.KindRun, Minutes: 10, DistanceKM: 2})
	assert.NoError(t, err)
}
