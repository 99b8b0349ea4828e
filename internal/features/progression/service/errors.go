package service

import (
	"errors"
	"fmt"
)

// Completion rejections. All of them are detected before the ledger is contacted.
var (
	ErrNotRegistered    = errors.New("profile is not registered")
	ErrTaskDisabled     = errors.New("task is disabled")
	ErrAlreadyCompleted = errors.New("task already completed in the current period")
	ErrAlreadyInFlight  = errors.New("a completion for this task is already in flight")
	ErrTimeout          = errors.New("ledger did not confirm in time")
	ErrScheduleDrift    = errors.New("level schedule differs from the ledger")
)

type ScheduleDriftError struct {
	XP                  uint64
	LocalLevel          uint64
	ChainLevel          uint64
	LocalNextCumulative uint64
	ChainNextCumulative uint64
}

func (e *ScheduleDriftError) Error() string {
	return fmt.Sprintf("level schedule drift at %d xp: local level %d (next at %d), chain level %d (next at %d)",
		e.XP, e.LocalLevel, e.LocalNextCumulative, e.ChainLevel, e.ChainNextCumulative)
}

func (e *ScheduleDriftError) Is(target error) bool {
	return target == ErrScheduleDrift
}
