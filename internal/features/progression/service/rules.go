package service

import (
	"time"

	"onchain-leveling-backend/internal/features/progression/models"
)

// CanCompleteTask validates a completion request against the last authoritative
// profile read. It never mutates anything and is safe to call repeatedly.
func CanCompleteTask(task models.Task, profile models.Profile, status models.CompletionStatus) error {
	if !profile.Registered {
		return ErrNotRegistered
	}
	if !task.Enabled {
		return ErrTaskDisabled
	}
	if status.Satisfied() {
		return ErrAlreadyCompleted
	}
	return nil
}

// ApplyCompletion returns the optimistic preview of profile after task is credited.
// The result is display-only until the ledger confirms and is re-read.
func ApplyCompletion(profile models.Profile, task models.Task) models.Profile {
	profile.XPTotal += uint64(task.XPReward)
	return profile
}

// ResetClock decides where the daily task period starts.
type ResetClock struct {
	loc *time.Location
	now func() time.Time
}

func NewResetClock(loc *time.Location) *ResetClock {
	if loc == nil {
		loc = time.UTC
	}
	return &ResetClock{loc: loc, now: time.Now}
}

// WithNow replaces the clock source, for tests.
func (c *ResetClock) WithNow(now func() time.Time) *ResetClock {
	c.now = now
	return c
}

func (c *ResetClock) Now() time.Time {
	return c.now()
}

// PeriodStart is local midnight of the day containing t.
func (c *ResetClock) PeriodStart(t time.Time) time.Time {
	lt := t.In(c.loc)
	return time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, c.loc)
}

// NextReset is the start of the period after the one containing t.
func (c *ResetClock) NextReset(t time.Time) time.Time {
	return c.PeriodStart(t).AddDate(0, 0, 1)
}

// Status builds the completion record for a task last completed at last.
func (c *ResetClock) Status(last time.Time) models.CompletionStatus {
	return models.CompletionStatus{
		LastCompletedAt: last,
		PeriodStart:     c.PeriodStart(c.now()),
	}
}
