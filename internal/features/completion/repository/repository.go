package repository

import (
	"context"
	"time"

	"onchain-leveling-backend/internal/features/completion/models"
)

// InFlightGuard holds at most one in-flight attempt per (address, task).
type InFlightGuard interface {
	// Acquire returns false when another attempt already holds the slot.
	Acquire(ctx context.Context, address string, taskID uint64, attemptID string, ttl time.Duration) (bool, error)
	// Refresh extends the slot to ttl and reports whether attemptID still holds it.
	Refresh(ctx context.Context, address string, taskID uint64, attemptID string, ttl time.Duration) (bool, error)
	// Release frees the slot only if attemptID still holds it.
	Release(ctx context.Context, address string, taskID uint64, attemptID string) error
}

// CompletionRecords remembers the last confirmed completion per (address, task).
type CompletionRecords interface {
	LastCompleted(ctx context.Context, address string, taskID uint64) (time.Time, error)
	MarkCompleted(ctx context.Context, address string, taskID uint64, at time.Time) error
}

// Journal is the audit trail of attempt transitions.
type Journal interface {
	Append(ctx context.Context, t models.Transition) error
	History(ctx context.Context, address string, limit int) ([]models.Transition, error)
}

// EventPublisher fans confirmed completions out to other consumers.
type EventPublisher interface {
	PublishProgress(ctx context.Context, event models.ProgressEvent) error
}
