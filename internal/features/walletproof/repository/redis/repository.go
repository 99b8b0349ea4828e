package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"onchain-leveling-backend/internal/features/walletproof/models"
	"onchain-leveling-backend/internal/features/walletproof/repository"
	"onchain-leveling-backend/internal/platform/redis"
)

const (
	keyPrefixNonce   = "wallet_nonce:"
	keyPrefixSession = "wallet_session:"
)

type Repository struct {
	client redis.RedisClient
}

func NewRepository(client redis.RedisClient) repository.Repository {
	return &Repository{client: client}
}

func (r *Repository) SaveNonce(ctx context.Context, nonce string, record *models.NonceRecord, ttl time.Duration) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal nonce record: %w", err)
	}
	return r.client.Set(ctx, keyPrefixNonce+nonce, data, ttl).Err()
}

func (r *Repository) TakeNonce(ctx context.Context, nonce string) (*models.NonceRecord, error) {
	data, err := r.client.GetDel(ctx, keyPrefixNonce+nonce).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, repository.ErrNonceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to take nonce: %w", err)
	}

	var record models.NonceRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal nonce record: %w", err)
	}
	return &record, nil
}

func (r *Repository) SaveSession(ctx context.Context, session *models.Session, ttl time.Duration) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	return r.client.Set(ctx, keyPrefixSession+session.Token, data, ttl).Err()
}

func (r *Repository) GetSession(ctx context.Context, token string) (*models.Session, error) {
	data, err := r.client.Get(ctx, keyPrefixSession+token).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, repository.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var session models.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &session, nil
}

func (r *Repository) DeleteSession(ctx context.Context, token string) error {
	return r.client.Del(ctx, keyPrefixSession+token).Err()
}
