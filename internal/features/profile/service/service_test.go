package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	memledger "onchain-leveling-backend/internal/features/ledger/repository/memory"
	profileredis "onchain-leveling-backend/internal/features/profile/repository/redis"
	progmodels "onchain-leveling-backend/internal/features/progression/models"
	progression "onchain-leveling-backend/internal/features/progression/service"
	"onchain-leveling-backend/internal/platform/redis/redistest"
)

const player = "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"

type recordingObserver struct {
	seen []progmodels.Profile
}

func (o *recordingObserver) Observe(ctx context.Context, p *progmodels.Profile) error {
	o.seen = append(o.seen, *p)
	return nil
}

func newService(t *testing.T) (*Service, *memledger.Ledger, *recordingObserver) {
	t.Helper()
	schedule, err := progression.NewSchedule([]uint64{100, 250, 450, 700})
	require.NoError(t, err)
	l := memledger.NewLedger(schedule, memledger.DefaultTasks())
	client, _ := redistest.NewClient(t)
	obs := &recordingObserver{}
	svc := NewService(l, schedule, profileredis.NewCosmeticStore(client), obs, Config{ConfirmTimeout: 200 * time.Millisecond, PollInterval: 2 * time.Millisecond})
	return svc, l, obs
}

func TestMe(t *testing.T) {
	svc, l, _ := newService(t)
	ctx := context.Background()

	view, err := svc.Me(ctx, player)
	require.NoError(t, err)
	assert.False(t, view.Profile.Registered)
	assert.Nil(t, view.NextLevel)

	l.Seed(progmodels.Profile{Address: player, Name: "satoshi", XPTotal: 260, Registered: true})
	view, err = svc.Me(ctx, player)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), view.Progress.Level)
	assert.Equal(t, uint64(10), view.Progress.XPIntoLevel)
	assert.Equal(t, uint64(190), view.Progress.XPToNextLevel)
	require.NotNil(t, view.NextLevel)
	assert.Equal(t, uint64(450), view.NextLevel.NextLevelCumulative)
	assert.Empty(t, view.Drift)
}

func TestRegister(t *testing.T) {
	svc, l, obs := newService(t)
	ctx := context.Background()
	l.AutoConfirm(1)
	sub := l.SubmitterFor(player)

	_, err := svc.Register(ctx, sub, "ab", progmodels.CosmeticDegen)
	assert.ErrorIs(t, err, ErrInvalidName)

	_, err = svc.Register(ctx, sub, "satoshi", progmodels.CosmeticUnknown)
	assert.ErrorIs(t, err, ErrInvalidCosmetic)

	view, err := svc.Register(ctx, sub, "  satoshi ", progmodels.CosmeticDegen)
	require.NoError(t, err)
	assert.True(t, view.Profile.Registered)
	assert.Equal(t, "satoshi", view.Profile.Name)
	assert.Equal(t, progmodels.CosmeticDegen, view.Profile.Cosmetic)
	require.Len(t, obs.seen, 1)

	err = svc.ValidateRegistration(ctx, player, "satoshi", progmodels.CosmeticRunner)
	assert.ErrorIs(t, err, ErrAlreadyRegistered)
}

func TestConfirmRegistrationTimeout(t *testing.T) {
	svc, l, _ := newService(t)
	tx, err := l.SubmitterFor(player).Register(context.Background(), "satoshi", progmodels.CosmeticRunner)
	require.NoError(t, err)

	_, err = svc.ConfirmRegistration(context.Background(), player, tx.Hash)
	assert.ErrorIs(t, err, progression.ErrTimeout)
}

func TestCosmeticFallback(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	resp, err := svc.Cosmetic(ctx, "device-1")
	require.NoError(t, err)
	assert.False(t, resp.Found)

	_, err = svc.SetCosmetic(ctx, "device-1", progmodels.CosmeticUnknown)
	assert.ErrorIs(t, err, ErrInvalidCosmetic)

	_, err = svc.SetCosmetic(ctx, "device-1", progmodels.CosmeticRunner)
	require.NoError(t, err)

	resp, err = svc.Cosmetic(ctx, "device-1")
	require.NoError(t, err)
	assert.True(t, resp.Found)
	assert.Equal(t, progmodels.CosmeticRunner, resp.Character)

	_, err = svc.Cosmetic(ctx, "bad device")
	assert.ErrorIs(t, err, ErrInvalidDevice)
}
