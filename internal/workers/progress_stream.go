package workers

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"onchain-leveling-backend/internal/common/logger"
	"onchain-leveling-backend/internal/features/completion/models"
	completionredis "onchain-leveling-backend/internal/features/completion/repository/redis"
	progmodels "onchain-leveling-backend/internal/features/progression/models"
	"onchain-leveling-backend/internal/platform/redis"
)

const (
	consumerGroup = "leveling_backend_consumers"
	eventType     = "completion_confirmed"
)

// ProfileRefresher re-reads a profile from the ledger and fans it out to
// observers such as the leaderboard.
type ProfileRefresher interface {
	Refresh(ctx context.Context, address string) (*progmodels.Profile, error)
}

// CacheInvalidator drops cached reads for an address.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, address string) error
}

type ProgressStreamWorker struct {
	rdb         redis.RedisClient
	profiles    ProfileRefresher
	invalidator CacheInvalidator
	consumer    string
	block       time.Duration
}

// NewProgressStreamWorker builds a consumer of the progression stream.
// invalidator may be nil when reads are not cached.
func NewProgressStreamWorker(rdb redis.RedisClient, profiles ProfileRefresher, invalidator CacheInvalidator, consumer string) *ProgressStreamWorker {
	return &ProgressStreamWorker{
		rdb:         rdb,
		profiles:    profiles,
		invalidator: invalidator,
		consumer:    consumer,
		block:       5 * time.Second,
	}
}

// Start consumes the stream until ctx is cancelled.
func (w *ProgressStreamWorker) Start(ctx context.Context) error {
	if err := w.ensureGroup(ctx); err != nil {
		return err
	}

	logger.Info().Str("stream", completionredis.ProgressStream).Str("consumer", w.consumer).Msg("Starting progress stream worker")

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("Stopping progress stream worker")
			return nil
		default:
		}

		if _, err := w.consume(ctx); err != nil {
			if ctx.Err() != nil {
				continue
			}
			logger.Error().Err(err).Msg("Error reading progress stream")
			select {
			case <-ctx.Done():
			case <-time.After(time.Second):
			}
		}
	}
}

// ensureGroup starts the group at the beginning of the stream so events
// written before the first deploy are not skipped.
func (w *ProgressStreamWorker) ensureGroup(ctx context.Context) error {
	err := w.rdb.XGroupCreateMkStream(ctx, completionredis.ProgressStream, consumerGroup, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return err
	}
	return nil
}

// consume redelivers this consumer's unacked events, then reads one batch of
// new ones. It returns how many messages were acked.
func (w *ProgressStreamWorker) consume(ctx context.Context) (int, error) {
	retried, err := w.read(ctx, "0", -1)
	if err != nil {
		return 0, err
	}
	fresh, err := w.read(ctx, ">", w.block)
	return retried + fresh, err
}

func (w *ProgressStreamWorker) read(ctx context.Context, id string, block time.Duration) (int, error) {
	streams, err := w.rdb.XReadGroup(ctx, &goredis.XReadGroupArgs{
		Group:    consumerGroup,
		Consumer: w.consumer,
		Streams:  []string{completionredis.ProgressStream, id},
		Count:    10,
		Block:    block,
	}).Result()
	if errors.Is(err, goredis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	acked := 0
	for _, stream := range streams {
		for _, msg := range stream.Messages {
			if err := w.processMessage(ctx, msg.Values); err != nil {
				logger.Warn().Err(err).Str("id", msg.ID).Msg("Progress event left pending for retry")
				continue
			}
			if err := w.rdb.XAck(ctx, completionredis.ProgressStream, consumerGroup, msg.ID).Err(); err != nil {
				logger.Warn().Err(err).Str("id", msg.ID).Msg("Failed to ack progress event")
				continue
			}
			acked++
		}
	}
	return acked, nil
}

// processMessage returns an error only when the event should be retried.
// Malformed and foreign entries are dropped.
func (w *ProgressStreamWorker) processMessage(ctx context.Context, values map[string]interface{}) error {
	if t, _ := values["type"].(string); t != eventType {
		return nil
	}

	raw, _ := values["payload"].(string)
	var event models.ProgressEvent
	if err := json.Unmarshal([]byte(raw), &event); err != nil || event.Address == "" {
		logger.Warn().Interface("values", values).Msg("Malformed progress event")
		return nil
	}

	if w.invalidator != nil {
		if err := w.invalidator.Invalidate(ctx, event.Address); err != nil {
			logger.Warn().Err(err).Str("address", event.Address).Msg("Failed to invalidate profile cache")
		}
	}

	profile, err := w.profiles.Refresh(ctx, event.Address)
	if err != nil {
		logger.Error().Err(err).Str("address", event.Address).Uint64("task_id", event.TaskID).Msg("Failed to refresh profile for progress event")
		return err
	}

	if profile.XPTotal < event.XPTotal {
		logger.Warn().
			Str("address", event.Address).
			Uint64("event_xp", event.XPTotal).
			Uint64("ledger_xp", profile.XPTotal).
			Msg("Ledger is behind the progress event")
	}

	logger.Debug().
		Str("address", event.Address).
		Uint64("task_id", event.TaskID).
		Uint64("xp_total", profile.XPTotal).
		Msg("Processed progress event")
	return nil
}
