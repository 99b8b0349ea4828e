package config

import (
	"fmt"
	"regexp"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

const (
	MinConfirmTimeout = 30 * time.Second
	MaxConfirmTimeout = 60 * time.Second
)

var addressPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

type Config struct {
	Debug bool `env:"DEBUG" envDefault:"false"`
	// LogFormat is "console" or "json".
	LogFormat string `env:"LOG_FORMAT" envDefault:"console"`

	Server struct {
		Port   int    `env:"PORT" envDefault:"8080"`
		Origin string `env:"ORIGIN" envDefault:"http://localhost:3000"`
		// Domain is embedded in wallet proof messages and must match the mini app host.
		Domain string `env:"APP_DOMAIN" envDefault:"localhost:3000"`
	}

	Redis struct {
		Host     string `env:"REDIS_HOST" envDefault:"localhost"`
		Port     int    `env:"REDIS_PORT" envDefault:"6379"`
		Password string `env:"REDIS_PASSWORD" envDefault:""`
		DB       int    `env:"REDIS_DB" envDefault:"0"`
	}

	Postgres struct {
		// Journal is disabled when the host is empty.
		Host            string        `env:"POSTGRES_HOST" envDefault:""`
		Port            int           `env:"POSTGRES_PORT" envDefault:"5432"`
		User            string        `env:"POSTGRES_USER" envDefault:"postgres"`
		Password        string        `env:"POSTGRES_PASSWORD" envDefault:""`
		Database        string        `env:"POSTGRES_DB" envDefault:"leveling"`
		SSLMode         string        `env:"POSTGRES_SSLMODE" envDefault:"disable"`
		MaxOpenConns    int           `env:"POSTGRES_MAX_OPEN_CONNS" envDefault:"10"`
		MaxIdleConns    int           `env:"POSTGRES_MAX_IDLE_CONNS" envDefault:"5"`
		ConnMaxLifetime time.Duration `env:"POSTGRES_CONN_MAX_LIFETIME" envDefault:"30m"`
	}

	Chain struct {
		RPCURL          string `env:"CHAIN_RPC_URL" envDefault:"https://sepolia.base.org"`
		ChainID         int64  `env:"CHAIN_ID" envDefault:"84532"`
		ContractAddress string `env:"CONTRACT_ADDRESS" envDefault:"0x90101bdcbAc8e0046Bc3b1b24A3286560B9C9D15"`
		// RelayerKey is a hex private key. Server-side submission is disabled without it.
		RelayerKey     string        `env:"RELAYER_PRIVATE_KEY" envDefault:""`
		Confirmations  uint64        `env:"CHAIN_CONFIRMATIONS" envDefault:"1"`
		PollInterval   time.Duration `env:"CHAIN_POLL_INTERVAL" envDefault:"2s"`
		ConfirmTimeout time.Duration `env:"CONFIRM_TIMEOUT" envDefault:"45s"`
		// SubmitTimeout bounds how long a begun completion waits for its transaction hash.
		SubmitTimeout  time.Duration `env:"SUBMIT_TIMEOUT" envDefault:"2m"`
		RequestTimeout time.Duration `env:"CHAIN_REQUEST_TIMEOUT" envDefault:"10s"`
	}

	Progression struct {
		// Cumulative XP required to reach level 2, 3, ...
		Thresholds    []uint64 `env:"LEVEL_THRESHOLDS" envSeparator:"," envDefault:"100,250,450,700,1000,1350,1750,2200,2700,3250"`
		ScheduleFile  string   `env:"LEVEL_SCHEDULE_FILE" envDefault:""`
		ResetLocation string   `env:"DAILY_RESET_LOCATION" envDefault:"UTC"`
	}

	Session struct {
		NonceTTL   time.Duration `env:"WALLET_NONCE_TTL" envDefault:"5m"`
		SessionTTL time.Duration `env:"SESSION_TTL" envDefault:"24h"`
	}

	Cache struct {
		ProfileTTL time.Duration `env:"PROFILE_CACHE_TTL" envDefault:"15s"`
		TasksTTL   time.Duration `env:"TASKS_CACHE_TTL" envDefault:"60s"`
	}

	Leaderboard struct {
		MaxEntries int `env:"LEADERBOARD_MAX_ENTRIES" envDefault:"100"`
	}
}

// RedisAddr returns host:port for the go-redis client.
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

// PostgresDSN returns an empty string when the journal is not configured.
func (c *Config) PostgresDSN() string {
	if c.Postgres.Host == "" {
		return ""
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Postgres.Host, c.Postgres.Port, c.Postgres.User, c.Postgres.Password, c.Postgres.Database, c.Postgres.SSLMode)
}

func (c *Config) Validate() error {
	if c.Chain.ConfirmTimeout < MinConfirmTimeout || c.Chain.ConfirmTimeout > MaxConfirmTimeout {
		return fmt.Errorf("CONFIRM_TIMEOUT must be between %s and %s, got %s", MinConfirmTimeout, MaxConfirmTimeout, c.Chain.ConfirmTimeout)
	}
	if !addressPattern.MatchString(c.Chain.ContractAddress) {
		return fmt.Errorf("CONTRACT_ADDRESS is not a valid address: %q", c.Chain.ContractAddress)
	}
	if c.Chain.PollInterval <= 0 {
		return fmt.Errorf("CHAIN_POLL_INTERVAL must be positive")
	}
	if c.Chain.SubmitTimeout <= 0 {
		return fmt.Errorf("SUBMIT_TIMEOUT must be positive")
	}
	if _, err := time.LoadLocation(c.Progression.ResetLocation); err != nil {
		return fmt.Errorf("DAILY_RESET_LOCATION: %w", err)
	}
	return nil
}

// Parse reads the environment without touching .env files.
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Load() *Config {
	// .env is optional, production sets the variables directly
	_ = godotenv.Load()

	cfg, err := Parse()
	if err != nil {
		panic(err)
	}

	return cfg
}
