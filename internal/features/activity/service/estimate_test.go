package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"onchain-leveling-backend/internal/features/activity/models"
	memledger "onchain-leveling-backend/internal/features/ledger/repository/memory"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		a       models.Activity
		wantErr bool
	}{
		{"run", models.Activity{Kind: models.KindRun, Minutes: 30, DistanceKM: 5}, false},
		{"longest", models.Activity{Kind: models.KindWalk, Minutes: 120, DistanceKM: 50}, false},
		{"shortest distance", models.Activity{Kind: models.KindWalk, Minutes: 1, DistanceKM: 0.1}, false},
		{"zero minutes", models.Activity{Kind: models.KindRun, Minutes: 0, DistanceKM: 5}, true},
		{"too long", models.Activity{Kind: models.KindRun, Minutes: 121, DistanceKM: 5}, true},
		{"too short distance", models.Activity{Kind: models.KindRun, Minutes: 10, DistanceKM: 0.05}, true},
		{"too far", models.Activity{Kind: models.KindRun, Minutes: 10, DistanceKM: 51}, true},
		{"swim", models.Activity{Kind: "swim", Minutes: 10, DistanceKM: 1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.a)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidActivity)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestEstimateFor(t *testing.T) {
	tests := []struct {
		name string
		a    models.Activity
		want models.Estimate
	}{
		{
			"run",
			models.Activity{Kind: models.KindRun, Minutes: 30, DistanceKM: 5},
			models.Estimate{Calories: 343, Steps: 5000, PaceMinPerKM: 6, SpeedKMH: 10},
		},
		{
			"walk",
			models.Activity{Kind: models.KindWalk, Minutes: 60, DistanceKM: 4},
			models.Estimate{Calories: 245, Steps: 5333, PaceMinPerKM: 15, SpeedKMH: 4},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EstimateFor(tt.a))
		})
	}
}

func TestProgress(t *testing.T) {
	tasks := memledger.DefaultTasks()

	goals := Progress(models.Activity{Kind: models.KindWalk, Minutes: 20, DistanceKM: 1.5}, tasks)
	require.Len(t, goals, 3, "disabled tasks are skipped")

	assert.Equal(t, uint64(1), goals[0].TaskID)
	assert.Equal(t, "m", goals[0].Unit)
	assert.Equal(t, 1500.0, goals[0].Achieved)
	assert.Equal(t, 50.0, goals[0].Percent)
	assert.False(t, goals[0].Met)

	assert.Equal(t, 75.0, goals[1].Percent)

	assert.Equal(t, "min", goals[2].Unit)
	assert.Equal(t, 20.0, goals[2].Achieved)
	assert.Equal(t, 66.7, goals[2].Percent)

	goals = Progress(models.Activity{Kind: models.KindRun, Minutes: 30, DistanceKM: 5}, tasks)
	for _, g := range goals {
		assert.True(t, g.Met, g.TaskName)
		assert.Equal(t, 100.0, g.Percent, g.TaskName)
	}
}

func TestProgressCountGoal(t *testing.T) {
	tasks := memledger.DefaultTasks()
	tasks[3].Enabled = true

	goals := Progress(models.Activity{Kind: models.KindRun, Minutes: 30, DistanceKM: 5}, tasks)
	require.Len(t, goals, 4)
	assert.Equal(t, "reps", goals[3].Unit)
	assert.Zero(t, goals[3].Achieved)
	assert.False(t, goals[3].Met)
}
