package models

import (
	"errors"
	"fmt"
	"time"
)

// State is the position of a task in the completion flow for one player and period.
type State string

const (
	StateAvailable  State = "available"
	StateSubmitting State = "submitting"
	StateConfirming State = "confirming"
	StateCompleted  State = "completed"
	StateFailed     State = "failed"
)

var ErrIllegalTransition = errors.New("illegal completion state transition")

var transitions = map[State][]State{
	StateAvailable:  {StateSubmitting},
	StateSubmitting: {StateConfirming, StateFailed},
	StateConfirming: {StateCompleted, StateFailed},
	StateFailed:     {StateAvailable},
}

func CanTransition(from, to State) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Terminal reports whether no in-flight work remains for the attempt.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed || s == StateAvailable
}

// Attempt is one user-initiated completion of one task.
type Attempt struct {
	ID      string `json:"id" example:"6f1f5c1e-6f0a-4c55-9d9c-0e6e2f0c2a11"`
	Address string `json:"address" example:"0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"`
	TaskID  uint64 `json:"task_id" example:"1"`
	State   State  `json:"state" example:"confirming"`
	TxHash  string `json:"tx_hash,omitempty"`

	// BaselineXP is the last authoritative total; OptimisticXP adds the task reward.
	BaselineXP   uint64 `json:"baseline_xp" example:"420"`
	OptimisticXP uint64 `json:"optimistic_xp" example:"520"`
	// ConfirmedXP is set from the re-read after confirmation.
	ConfirmedXP uint64 `json:"confirmed_xp,omitempty"`

	FailureCode   string `json:"failure_code,omitempty" example:"TIMEOUT"`
	FailureReason string `json:"failure_reason,omitempty"`
	Retryable     bool   `json:"retryable,omitempty"`
	Abandoned     bool   `json:"abandoned,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Advance moves the attempt to the next state.
func (a *Attempt) Advance(to State, at time.Time) (Transition, error) {
	if !CanTransition(a.State, to) {
		return Transition{}, fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, a.State, to)
	}
	t := Transition{
		AttemptID: a.ID,
		Address:   a.Address,
		TaskID:    a.TaskID,
		From:      a.State,
		To:        to,
		TxHash:    a.TxHash,
		At:        at,
	}
	a.State = to
	a.UpdatedAt = at
	return t, nil
}

// Transition is one recorded state change, as journaled and streamed to clients.
type Transition struct {
	AttemptID string    `json:"attempt_id"`
	Address   string    `json:"address"`
	TaskID    uint64    `json:"task_id"`
	From      State     `json:"from"`
	To        State     `json:"to"`
	TxHash    string    `json:"tx_hash,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	At        time.Time `json:"at"`
}

// ProgressEvent is appended to the progression stream after a confirmed completion.
type ProgressEvent struct {
	Address string    `json:"address"`
	Name    string    `json:"name"`
	TaskID  uint64    `json:"task_id"`
	XPTotal uint64    `json:"xp_total"`
	TxHash  string    `json:"tx_hash"`
	At      time.Time `json:"at"`
}
