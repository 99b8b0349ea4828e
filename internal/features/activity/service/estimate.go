package service

import (
	"errors"
	"fmt"
	"math"

	"onchain-leveling-backend/internal/features/activity/models"
	progmodels "onchain-leveling-backend/internal/features/progression/models"
)

const (
	MaxMinutes    = 120
	MinDistanceKM = 0.1
	MaxDistanceKM = 50

	referenceWeightKG = 70
)

var ErrInvalidActivity = errors.New("invalid activity")

// metabolic equivalents per activity
var met = map[models.Kind]float64{
	models.KindRun:  9.8,
	models.KindWalk: 3.5,
}

// stride length in meters
var stride = map[models.Kind]float64{
	models.KindRun:  1.0,
	models.KindWalk: 0.75,
}

func Validate(a models.Activity) error {
	if _, err := models.ParseKind(string(a.Kind)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidActivity, err)
	}
	if a.Minutes <= 0 || a.Minutes > MaxMinutes {
		return fmt.Errorf("%w: minutes must be in (0, %d]", ErrInvalidActivity, MaxMinutes)
	}
	if a.DistanceKM < MinDistanceKM || a.DistanceKM > MaxDistanceKM {
		return fmt.Errorf("%w: distance must be in [%.1f, %d] km", ErrInvalidActivity, MinDistanceKM, MaxDistanceKM)
	}
	return nil
}

// EstimateFor assumes a already passed Validate.
func EstimateFor(a models.Activity) models.Estimate {
	hours := a.Minutes / 60
	return models.Estimate{
		Calories:     int(math.Round(met[a.Kind] * referenceWeightKG * hours)),
		Steps:        uint64(math.Round(a.DistanceKM * 1000 / stride[a.Kind])),
		PaceMinPerKM: round1(a.Minutes / a.DistanceKM),
		SpeedKMH:     round1(a.DistanceKM / hours),
	}
}

// Progress measures a against every enabled task. Count goals cannot be
// measured from a run or walk and always report zero.
func Progress(a models.Activity, tasks []progmodels.Task) []models.GoalProgress {
	out := make([]models.GoalProgress, 0, len(tasks))
	for _, t := range tasks {
		if !t.Enabled || t.GoalValue == 0 {
			continue
		}

		var achieved float64
		switch t.GoalType {
		case progmodels.GoalDistance:
			achieved = math.Round(a.DistanceKM * 1000)
		case progmodels.GoalTime:
			achieved = a.Minutes
		}

		goal := float64(t.GoalValue)
		out = append(out, models.GoalProgress{
			TaskID:    t.ID,
			TaskName:  t.Name,
			GoalType:  t.GoalType,
			GoalValue: t.GoalValue,
			Unit:      t.GoalType.Unit(),
			Achieved:  achieved,
			Percent:   round1(math.Min(100, achieved/goal*100)),
			Met:       achieved >= goal,
		})
	}
	return out
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
