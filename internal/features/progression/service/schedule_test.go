package service

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"onchain-leveling-backend/internal/features/progression/models"
)

func defaultSchedule(t *testing.T) *Schedule {
	t.Helper()
	s, err := NewSchedule([]uint64{100, 250, 450, 700, 1000})
	require.NoError(t, err)
	return s
}

func TestLevelForZero(t *testing.T) {
	s := defaultSchedule(t)
	assert.Equal(t, models.LevelProgress{Level: 1, XPIntoLevel: 0, XPToNextLevel: 100, LevelSpan: 100}, s.LevelFor(0))
}

func TestLevelForTable(t *testing.T) {
	s := defaultSchedule(t)

	tests := []struct {
		xp   uint64
		want models.LevelProgress
	}{
		{xp: 99, want: models.LevelProgress{Level: 1, XPIntoLevel: 99, XPToNextLevel: 1, LevelSpan: 100}},
		{xp: 100, want: models.LevelProgress{Level: 2, XPIntoLevel: 0, XPToNextLevel: 150, LevelSpan: 150}},
		{xp: 449, want: models.LevelProgress{Level: 3, XPIntoLevel: 199, XPToNextLevel: 1, LevelSpan: 200}},
		{xp: 999, want: models.LevelProgress{Level: 5, XPIntoLevel: 299, XPToNextLevel: 1, LevelSpan: 300}},
		// past the table each level spans the last configured span (300)
		{xp: 1000, want: models.LevelProgress{Level: 6, XPIntoLevel: 0, XPToNextLevel: 300, LevelSpan: 300}},
		{xp: 1650, want: models.LevelProgress{Level: 8, XPIntoLevel: 50, XPToNextLevel: 250, LevelSpan: 300}},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, s.LevelFor(tt.xp), "xp=%d", tt.xp)
	}
}

func TestLevelForIsTotalAndMonotonic(t *testing.T) {
	s := defaultSchedule(t)

	prev := s.LevelFor(0)
	for xp := uint64(0); xp <= 5000; xp++ {
		got := s.LevelFor(xp)
		require.GreaterOrEqual(t, got.Level, uint64(1))
		require.GreaterOrEqual(t, got.Level, prev.Level, "xp=%d", xp)
		require.Equal(t, got.LevelSpan, got.XPIntoLevel+got.XPToNextLevel, "xp=%d", xp)
		require.Equal(t, xp, s.CumulativeFor(got.Level)+got.XPIntoLevel, "xp=%d", xp)
		prev = got
	}

	top := s.LevelFor(math.MaxUint64)
	assert.Equal(t, top.LevelSpan, top.XPIntoLevel+top.XPToNextLevel)
	assert.Greater(t, top.Level, prev.Level)
}

func TestNewScheduleRejectsBadTables(t *testing.T) {
	for _, table := range [][]uint64{nil, {0, 10}, {100, 100}, {200, 100}} {
		_, err := NewSchedule(table)
		assert.Error(t, err, "%v", table)
	}
}

func TestSingleThresholdSchedule(t *testing.T) {
	s, err := NewSchedule([]uint64{300})
	require.NoError(t, err)

	assert.Equal(t, uint64(1), s.LevelFor(299).Level)
	assert.Equal(t, uint64(2), s.LevelFor(300).Level)
	assert.Equal(t, uint64(3), s.LevelFor(600).Level)
	assert.Equal(t, uint64(900), s.CumulativeFor(4))
}

func TestUnitTailSpanSaturatesAtTop(t *testing.T) {
	for _, table := range [][]uint64{{1}, {1, 2, 3}} {
		s, err := NewSchedule(table)
		require.NoError(t, err)

		top := s.LevelFor(math.MaxUint64)
		assert.Equal(t, uint64(math.MaxUint64), top.Level, "%v", table)
		assert.Equal(t, top.LevelSpan, top.XPIntoLevel+top.XPToNextLevel, "%v", table)

		below := s.LevelFor(math.MaxUint64 - 1)
		assert.GreaterOrEqual(t, top.Level, below.Level, "%v", table)
		assert.GreaterOrEqual(t, below.Level, uint64(1), "%v", table)
	}

	s, err := NewSchedule([]uint64{300})
	require.NoError(t, err)
	assert.Equal(t, uint64(math.MaxUint64), s.CumulativeFor(math.MaxUint64))
	assert.Equal(t, uint64(math.MaxUint64-1), mustSchedule(t, 1).CumulativeFor(math.MaxUint64))
}

func mustSchedule(t *testing.T, thresholds ...uint64) *Schedule {
	t.Helper()
	s, err := NewSchedule(thresholds)
	require.NoError(t, err)
	return s
}

func TestLoadSchedule(t *testing.T) {
	path := filepath.Join(t.TempDir(), "levels.yaml")
	require.NoError(t, os.WriteFile(path, []byte("thresholds: [50, 150, 300]\n"), 0o600))

	s, err := LoadSchedule(path)
	require.NoError(t, err)
	assert.Equal(t, []uint64{50, 150, 300}, s.Thresholds())

	_, err = LoadSchedule(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestCheckAgainstChain(t *testing.T) {
	s := defaultSchedule(t)

	assert.NoError(t, s.CheckAgainstChain(120, 2, 250))
	assert.NoError(t, s.CheckAgainstChain(120, 2, 0))
	assert.NoError(t, s.CheckAgainstChain(0, 0, 0), "unregistered profiles are skipped")

	err := s.CheckAgainstChain(120, 1, 300)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrScheduleDrift))

	var drift *ScheduleDriftError
	require.ErrorAs(t, err, &drift)
	assert.Equal(t, uint64(2), drift.LocalLevel)
	assert.Equal(t, uint64(250), drift.LocalNextCumulative)
}

func TestLegacyFixedStepLevel(t *testing.T) {
	assert.Equal(t, models.LevelProgress{Level: 1, XPIntoLevel: 0, XPToNextLevel: 300, LevelSpan: 300}, LegacyFixedStepLevel(0))
	assert.Equal(t, uint64(2), LegacyFixedStepLevel(300).Level)
	assert.Equal(t, uint64(4), LegacyFixedStepLevel(1000).Level)
}
