package models

import (
	"fmt"
	"strings"
	"time"

	progmodels "onchain-leveling-backend/internal/features/progression/models"
)

type Kind string

const (
	KindRun  Kind = "run"
	KindWalk Kind = "walk"
)

func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindRun, KindWalk:
		return k, nil
	default:
		return "", fmt.Errorf("unknown activity %q", s)
	}
}

// Activity is one logged or planned session.
// @Description Activity session
type Activity struct {
	Kind       Kind    `json:"kind" binding:"required" enums:"run,walk" example:"run"`
	Minutes    float64 `json:"minutes" binding:"required" example:"30"`
	DistanceKM float64 `json:"distance_km" binding:"required" example:"5"`
}

// Estimate is derived from an activity with a fixed 70 kg reference body.
// @Description Activity estimates
type Estimate struct {
	Calories     int     `json:"calories" example:"343"`
	Steps        uint64  `json:"steps" example:"5000"`
	PaceMinPerKM float64 `json:"pace_min_per_km" example:"6"`
	SpeedKMH     float64 `json:"speed_kmh" example:"10"`
}

// GoalProgress compares an activity with one catalog task's goal.
// @Description Progress toward a task goal
type GoalProgress struct {
	TaskID    uint64              `json:"task_id" example:"1"`
	TaskName  string              `json:"task_name" example:"Morning run"`
	GoalType  progmodels.GoalType `json:"goal_type" swaggertype:"string" enums:"distance,time,count"`
	GoalValue uint32              `json:"goal_value" example:"3000"`
	Unit      string              `json:"unit" example:"m"`
	Achieved  float64             `json:"achieved" example:"5000"`
	Percent   float64             `json:"percent" example:"100"`
	Met       bool                `json:"met"`
}

// Summary is the response to an activity log.
// @Description Activity summary
type Summary struct {
	Activity Activity       `json:"activity"`
	Estimate Estimate       `json:"estimate"`
	Goals    []GoalProgress `json:"goals"`
}

type QuestState string

const (
	QuestRunning   QuestState = "running"
	QuestPaused    QuestState = "paused"
	QuestStopped   QuestState = "stopped"
	QuestCompleted QuestState = "completed"
)

// Quest is a countdown session for a planned activity.
// @Description Quest countdown
type Quest struct {
	ID        string     `json:"id"`
	Owner     string     `json:"owner"`
	Activity  Activity   `json:"activity"`
	State     QuestState `json:"state" example:"running"`
	StartedAt time.Time  `json:"started_at"`
	// PausedAt is set while paused.
	PausedAt *time.Time `json:"paused_at,omitempty"`
	// Paused is the total time spent paused before PausedAt.
	Paused    time.Duration `json:"paused_ns" swaggertype:"integer"`
	EndedAt   *time.Time    `json:"ended_at,omitempty"`
	Remaining int64         `json:"remaining_seconds" example:"1799"`
}

// Duration is the full countdown length.
func (q *Quest) Duration() time.Duration {
	return time.Duration(q.Activity.Minutes * float64(time.Minute))
}

// Elapsed is active (unpaused) time at now.
func (q *Quest) Elapsed(now time.Time) time.Duration {
	end := now
	switch {
	case q.PausedAt != nil:
		end = *q.PausedAt
	case q.EndedAt != nil:
		end = *q.EndedAt
	}
	elapsed := end.Sub(q.StartedAt) - q.Paused
	if elapsed < 0 {
		return 0
	}
	return elapsed
}

// Settle moves a running quest to completed once its time is up and
// refreshes Remaining.
func (q *Quest) Settle(now time.Time) {
	if q.State == QuestRunning && q.Elapsed(now) >= q.Duration() {
		end := q.StartedAt.Add(q.Paused + q.Duration())
		q.State = QuestCompleted
		q.EndedAt = &end
	}
	remaining := q.Duration() - q.Elapsed(now)
	if remaining < 0 || q.State == QuestCompleted {
		remaining = 0
	}
	q.Remaining = int64(remaining.Round(time.Second) / time.Second)
}

// Active reports whether the quest still occupies its owner.
func (q *Quest) Active() bool {
	return q.State == QuestRunning || q.State == QuestPaused
}
