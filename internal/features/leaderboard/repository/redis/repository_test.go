package redis

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"onchain-leveling-backend/internal/features/leaderboard/models"
	"onchain-leveling-backend/internal/features/leaderboard/repository"
	"onchain-leveling-backend/internal/platform/redis/redistest"
)

const (
	alice = "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"
	bob   = "0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359"
)

func TestUpsertAndTop(t *testing.T) {
	client, _ := redistest.NewClient(t)
	repo := NewRepository(client)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, alice, "alice", 300))
	require.NoError(t, repo.Upsert(ctx, bob, "bob", 520))
	require.NoError(t, repo.Upsert(ctx, alice, "alice", 600))

	top, err := repo.Top(ctx, 10)
	require.NoError(t, err)
	want := []models.Entry{
		{Rank: 1, Address: alice, Name: "alice", XPTotal: 600},
		{Rank: 2, Address: bob, Name: "bob", XPTotal: 520},
	}
	if diff := cmp.Diff(want, top); diff != "" {
		t.Errorf("Top() mismatch (-want +got):\n%s", diff)
	}

	top, err = repo.Top(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, top, 1)
}

func TestPosition(t *testing.T) {
	client, _ := redistest.NewClient(t)
	repo := NewRepository(client)
	ctx := context.Background()

	_, err := repo.Position(ctx, alice)
	assert.ErrorIs(t, err, repository.ErrNotRanked)

	require.NoError(t, repo.Upsert(ctx, alice, "alice", 300))
	require.NoError(t, repo.Upsert(ctx, bob, "bob|pipe", 520))

	pos, err := repo.Position(ctx, "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed")
	require.NoError(t, err)
	assert.Equal(t, int64(2), pos.Rank)
	assert.Equal(t, alice, pos.Address)

	pos, err = repo.Position(ctx, bob)
	require.NoError(t, err)
	assert.Equal(t, "bob|pipe", pos.Name)
}
