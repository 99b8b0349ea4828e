package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"onchain-leveling-backend/internal/platform/redis/redistest"
)

type entry struct {
	Name string `json:"name"`
	XP   uint64 `json:"xp"`
}

func TestRememberFillsOnce(t *testing.T) {
	client, mr := redistest.NewClient(t)
	c := New(client)
	ctx := context.Background()

	loads := 0
	loader := func() (interface{}, error) {
		loads++
		return entry{Name: "satoshi", XP: 420}, nil
	}

	var got entry
	require.NoError(t, c.Remember(ctx, ProfileKey("0xABC"), &got, time.Minute, loader))
	require.NoError(t, c.Remember(ctx, ProfileKey("0xabc"), &got, time.Minute, loader))

	assert.Equal(t, 1, loads)
	assert.Equal(t, entry{Name: "satoshi", XP: 420}, got)

	mr.FastForward(2 * time.Minute)
	require.NoError(t, c.Remember(ctx, ProfileKey("0xabc"), &got, time.Minute, loader))
	assert.Equal(t, 2, loads)
}

func TestRememberPropagatesFillError(t *testing.T) {
	client, _ := redistest.NewClient(t)
	c := New(client)

	boom := errors.New("ledger down")
	var got entry
	err := c.Remember(context.Background(), "k", &got, time.Minute, func() (interface{}, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)
}

func TestInvalidation(t *testing.T) {
	client, mr := redistest.NewClient(t)
	c := New(client)
	ctx := context.Background()

	require.NoError(t, c.Store(ctx, ProfileKey("0xabc"), entry{XP: 1}, time.Minute))
	require.NoError(t, c.Store(ctx, TasksPageKey(0, 10), []entry{{Name: "run"}}, time.Minute))
	require.NoError(t, c.Store(ctx, TasksPageKey(10, 10), []entry{{Name: "walk"}}, time.Minute))

	require.NoError(t, c.InvalidateProfile(ctx, "0xABC"))
	require.NoError(t, c.InvalidateTasks(ctx))

	assert.False(t, mr.Exists(ProfileKey("0xabc")))
	assert.False(t, mr.Exists(TasksPageKey(0, 10)))

	var got entry
	assert.ErrorIs(t, c.Load(ctx, ProfileKey("0xabc"), &got), ErrMiss)
}

func TestRememberSurvivesRedisOutage(t *testing.T) {
	client, mr := redistest.NewClient(t)
	c := New(client)
	mr.Close()

	var got entry
	err := c.Remember(context.Background(), ProfileKey("0xabc"), &got, time.Minute, func() (interface{}, error) {
		return entry{Name: "satoshi"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "satoshi", got.Name)
}

func TestForgetPrefixLeavesOtherKeys(t *testing.T) {
	client, mr := redistest.NewClient(t)
	c := New(client)
	ctx := context.Background()

	for i := uint64(0); i < 250; i += 10 {
		require.NoError(t, c.Store(ctx, TasksPageKey(i, 10), []entry{}, time.Minute))
	}
	require.NoError(t, c.Store(ctx, ProfileKey("0xabc"), entry{}, time.Minute))

	require.NoError(t, c.ForgetPrefix(ctx, "ledger:tasks:"))
	assert.Equal(t, []string{ProfileKey("0xabc")}, mr.Keys())
}
