package models

import "time"

// GoalType tells how a task's GoalValue is measured.
type GoalType uint8

const (
	GoalDistance GoalType = 0 // meters
	GoalTime     GoalType = 1 // minutes
	GoalCount    GoalType = 2 // repetitions
)

func (g GoalType) String() string {
	switch g {
	case GoalDistance:
		return "distance"
	case GoalTime:
		return "time"
	case GoalCount:
		return "count"
	default:
		return "unknown"
	}
}

func (g GoalType) Unit() string {
	switch g {
	case GoalDistance:
		return "m"
	case GoalTime:
		return "min"
	default:
		return "reps"
	}
}

func (g GoalType) MarshalText() ([]byte, error) {
	return []byte(g.String()), nil
}

func (g *GoalType) UnmarshalText(text []byte) error {
	switch string(text) {
	case "distance":
		*g = GoalDistance
	case "time":
		*g = GoalTime
	default:
		*g = GoalCount
	}
	return nil
}

type Task struct {
	ID        uint64   `json:"id" example:"1"`
	Name      string   `json:"name" example:"Morning run"`
	GoalType  GoalType `json:"goal_type" swaggertype:"string" example:"distance"`
	GoalValue uint32   `json:"goal_value" example:"3000"`
	XPReward  uint32   `json:"xp_reward" example:"100"`
	Enabled   bool     `json:"enabled" example:"true"`
}

// LevelProgress is what a player sees next to their level badge.
type LevelProgress struct {
	Level         uint64 `json:"level" example:"3"`
	XPIntoLevel   uint64 `json:"xp_into_level" example:"170"`
	XPToNextLevel uint64 `json:"xp_to_next_level" example:"30"`
	LevelSpan     uint64 `json:"level_span" example:"200"`
}

// CompletionStatus is the per-period completion record for one task.
type CompletionStatus struct {
	LastCompletedAt time.Time `json:"last_completed_at,omitempty"`
	PeriodStart     time.Time `json:"period_start"`
}

// Satisfied reports whether the task was already completed in the current period.
func (s CompletionStatus) Satisfied() bool {
	return !s.LastCompletedAt.IsZero() && !s.LastCompletedAt.Before(s.PeriodStart)
}
