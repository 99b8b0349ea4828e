package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	lbredis "onchain-leveling-backend/internal/features/leaderboard/repository/redis"
	progmodels "onchain-leveling-backend/internal/features/progression/models"
	progression "onchain-leveling-backend/internal/features/progression/service"
	"onchain-leveling-backend/internal/platform/redis/redistest"
)

func TestObserveAndTop(t *testing.T) {
	client, _ := redistest.NewClient(t)
	schedule, err := progression.NewSchedule([]uint64{100, 250, 450})
	require.NoError(t, err)
	svc := NewService(lbredis.NewRepository(client), schedule, 2)
	ctx := context.Background()

	require.NoError(t, svc.Observe(ctx, &progmodels.Profile{Address: "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed", Name: "a", XPTotal: 260, Registered: true}))
	require.NoError(t, svc.Observe(ctx, &progmodels.Profile{Address: "0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359", Name: "b", XPTotal: 90, Registered: true}))
	require.NoError(t, svc.Observe(ctx, &progmodels.Profile{Address: "0xdbF03B407c01E7cD3CBea99509d93f8DDDC8C6FB", Name: "c", XPTotal: 1000, Registered: true}))
	require.NoError(t, svc.Observe(ctx, &progmodels.Profile{Address: "0xD1220A0cf47c7B9Be7A2E6BA89F429762e7b9aDb", XPTotal: 5000}))

	top, err := svc.Top(ctx, 50)
	require.NoError(t, err)
	require.Len(t, top, 2, "capped at max entries")
	assert.Equal(t, "c", top[0].Name)
	assert.Equal(t, uint64(6), top[0].Level)
	assert.Equal(t, "a", top[1].Name)
	assert.Equal(t, uint64(3), top[1].Level)

	pos, err := svc.Position(ctx, "0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359")
	require.NoError(t, err)
	assert.Equal(t, int64(3), pos.Rank)
	assert.Equal(t, uint64(1), pos.Level)
}
