package repository

import (
	"context"
	"errors"
	"time"

	"onchain-leveling-backend/internal/features/walletproof/models"
)

var (
	ErrNonceNotFound   = errors.New("nonce not found or already used")
	ErrSessionNotFound = errors.New("session not found")
)

type Repository interface {
	// SaveNonce stores a challenge until ttl passes.
	SaveNonce(ctx context.Context, nonce string, record *models.NonceRecord, ttl time.Duration) error
	// TakeNonce returns the challenge and deletes it in one step.
	TakeNonce(ctx context.Context, nonce string) (*models.NonceRecord, error)

	SaveSession(ctx context.Context, session *models.Session, ttl time.Duration) error
	GetSession(ctx context.Context, token string) (*models.Session, error)
	DeleteSession(ctx context.Context, token string) error
}
