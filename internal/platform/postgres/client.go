package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"onchain-leveling-backend/internal/common/config"
	"onchain-leveling-backend/internal/common/logger"
)

const (
	pingAttempts = 3
	pingTimeout  = 5 * time.Second
)

// Migration creates or upgrades the tables one feature owns.
type Migration func(ctx context.Context, db *sql.DB) error

type Client struct {
	db *sql.DB
}

// Open returns nil without error when Postgres is not configured. Migrations
// run in order once the connection answers.
func Open(ctx context.Context, cfg *config.Config, migrations ...Migration) (*Client, error) {
	dsn := cfg.PostgresDSN()
	if dsn == "" {
		logger.Info().Msg("Postgres not configured, completion journal disabled")
		return nil, nil
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(cfg.Postgres.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Postgres.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Postgres.ConnMaxLifetime)

	c := &Client{db: db}
	if err := c.start(ctx, time.Second, migrations); err != nil {
		_ = db.Close()
		return nil, err
	}

	logger.Info().
		Str("host", cfg.Postgres.Host).
		Int("port", cfg.Postgres.Port).
		Str("database", cfg.Postgres.Database).
		Int("migrations", len(migrations)).
		Msg("PostgreSQL client initialized")
	return c, nil
}

func (c *Client) start(ctx context.Context, backoff time.Duration, migrations []Migration) error {
	var err error
	for attempt := 1; attempt <= pingAttempts; attempt++ {
		if err = c.HealthCheck(ctx); err == nil {
			break
		}
		logger.Warn().Err(err).Int("attempt", attempt).Msg("Postgres ping failed")
		if attempt == pingAttempts {
			return fmt.Errorf("failed to ping database: %w", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff * time.Duration(attempt)):
		}
	}

	for i, migrate := range migrations {
		if err := migrate(ctx, c.db); err != nil {
			return fmt.Errorf("migration %d failed: %w", i, err)
		}
	}
	return nil
}

func (c *Client) DB() *sql.DB {
	return c.db
}

func (c *Client) Close() error {
	return c.db.Close()
}

func (c *Client) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return c.db.PingContext(ctx)
}
