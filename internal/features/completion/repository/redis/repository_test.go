package redis

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"onchain-leveling-backend/internal/features/completion/models"
	"onchain-leveling-backend/internal/platform/redis/redistest"
)

const player = "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"

func TestGuard(t *testing.T) {
	client, mr := redistest.NewClient(t)
	ctx := context.Background()
	g := NewGuard(client)

	ok, err := g.Acquire(ctx, player, 1, "a1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = g.Acquire(ctx, "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed", 1, "a2", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "slot is keyed case-insensitively")

	ok, err = g.Acquire(ctx, player, 2, "a3", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	// a stale holder cannot release someone else's slot
	require.NoError(t, g.Release(ctx, player, 1, "a2"))
	assert.True(t, mr.Exists(inFlightKey(player, 1)))

	require.NoError(t, g.Release(ctx, player, 1, "a1"))
	assert.False(t, mr.Exists(inFlightKey(player, 1)))

	mr.FastForward(2 * time.Minute)
	ok, err = g.Acquire(ctx, player, 2, "a4", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok, "expired slot is free again")
}

func TestGuardRefresh(t *testing.T) {
	client, mr := redistest.NewClient(t)
	ctx := context.Background()
	g := NewGuard(client)

	ok, err := g.Acquire(ctx, player, 1, "a1", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(50 * time.Second)
	held, err := g.Refresh(ctx, player, 1, "a1", time.Minute)
	require.NoError(t, err)
	assert.True(t, held)
	assert.Equal(t, time.Minute, mr.TTL(inFlightKey(player, 1)))

	held, err = g.Refresh(ctx, player, 1, "a2", time.Minute)
	require.NoError(t, err)
	assert.False(t, held, "only the holder can extend the slot")

	mr.FastForward(2 * time.Minute)
	ok, err = g.Acquire(ctx, player, 1, "a3", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	held, err = g.Refresh(ctx, player, 1, "a1", time.Minute)
	require.NoError(t, err)
	assert.False(t, held, "a lapsed holder has lost the slot")
	v, err := mr.Get(inFlightKey(player, 1))
	require.NoError(t, err)
	assert.Equal(t, "a3", v)
}

func TestRecords(t *testing.T) {
	client, mr := redistest.NewClient(t)
	ctx := context.Background()
	r := NewRecords(client)

	last, err := r.LastCompleted(ctx, player, 1)
	require.NoError(t, err)
	assert.True(t, last.IsZero())

	at := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	require.NoError(t, r.MarkCompleted(ctx, player, 1, at))

	last, err = r.LastCompleted(ctx, player, 1)
	require.NoError(t, err)
	assert.True(t, at.Equal(last))
	assert.Greater(t, mr.TTL(completedKey(player)), 7*24*time.Hour)

	mr.HSet(completedKey(player), "2", "garbage")
	_, err = r.LastCompleted(ctx, player, 2)
	assert.Error(t, err)
}

func TestPublisher(t *testing.T) {
	client, mr := redistest.NewClient(t)
	ctx := context.Background()

	event := models.ProgressEvent{Address: player, Name: "satoshi", TaskID: 1, XPTotal: 520, TxHash: "0xfeed", At: time.Unix(1700000000, 0).UTC()}
	require.NoError(t, NewPublisher(client).PublishProgress(ctx, event))

	entries, err := mr.Stream(ProgressStream)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	values := map[string]string{}
	for i := 0; i+1 < len(entries[0].Values); i += 2 {
		values[entries[0].Values[i]] = entries[0].Values[i+1]
	}
	assert.Equal(t, "completion_confirmed", values["type"])

	var got models.ProgressEvent
	require.NoError(t, json.Unmarshal([]byte(values["payload"]), &got))
	assert.Equal(t, event, got)
}
