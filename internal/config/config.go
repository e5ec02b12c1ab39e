// Package config loads the bot configuration from environment variables.
// A local .env file is read first (if present), envconfig maps variables
// onto the struct, validator checks the tags and Validate the cross-field rules.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	validator "github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Storage drivers.
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config holds ALL application settings.
type Config struct {
	// --- Telegram ---
	TelegramBotToken string `envconfig:"TELEGRAM_BOT_TOKEN" required:"true" validate:"required"`

	// --- Storage ---
	StorageDriver string `envconfig:"STORAGE_DRIVER" default:"postgres" validate:"oneof=postgres memory"`
	// DatabaseURL wins over the DB_* parts when set.
	DatabaseURL string `envconfig:"DATABASE_URL"`
	DBHost      string `envconfig:"DB_HOST" default:"postgres"`
	DBPort      int    `envconfig:"DB_PORT" default:"5432" validate:"min=1,max=65535"`
	DBUser      string `envconfig:"DB_USER" default:"botuser"`
	DBPassword  string `envconfig:"DB_PASSWORD"`
	DBName      string `envconfig:"DB_NAME" default:"ranking_bot"`
	DBSSLMode   string `envconfig:"DB_SSLMODE" default:"disable"`
	DBMaxConns  int32  `envconfig:"DB_MAX_CONNS" default:"10"`
	DBMinConns  int32  `envconfig:"DB_MIN_CONNS" default:"1"`

	// --- Application ---
	AppEnv      string `envconfig:"APP_ENV" default:"development"`
	AppLogLevel string `envconfig:"APP_LOG_LEVEL" default:"debug"`
	// Zone whose calendar date defines "today" for /jogar.
	AppTimezone string `envconfig:"APP_TIMEZONE" default:"America/Sao_Paulo"`

	// --- Bot runtime ---
	// Updates handled concurrently. 1 = strictly one message at a time.
	BotMaxInflight          int           `envconfig:"BOT_MAX_INFLIGHT" default:"1" validate:"min=1"`
	BotUpdateTimeoutSeconds int           `envconfig:"BOT_UPDATE_TIMEOUT_SECONDS" default:"60" validate:"min=1"`
	BotRequestTimeout       time.Duration `envconfig:"BOT_REQUEST_TIMEOUT" default:"10s" validate:"gt=0"`
	BotHandleTimeout        time.Duration `envconfig:"BOT_HANDLE_TIMEOUT" default:"10s" validate:"gt=0"`

	// --- Game ---
	GameWinMin         int64   `envconfig:"GAME_WIN_MIN" default:"1"`
	GameWinMax         int64   `envconfig:"GAME_WIN_MAX" default:"10"`
	GameLossMin        int64   `envconfig:"GAME_LOSS_MIN" default:"-5"`
	GameLossMax        int64   `envconfig:"GAME_LOSS_MAX" default:"-1"`
	GameWinProbability float64 `envconfig:"GAME_WIN_PROBABILITY" default:"0.7" validate:"gte=0,lte=1"`
	RankingLimit       int     `envconfig:"RANKING_LIMIT" default:"10" validate:"min=1"`

	// --- Duels ---
	DuelStake int64         `envconfig:"DUEL_STAKE" default:"5" validate:"min=1"`
	DuelTTL   time.Duration `envconfig:"DUEL_TTL" default:"24h" validate:"gt=0"`

	// --- Feature Flags ---
	FeatureDonationsEnabled bool `envconfig:"FEATURE_DONATIONS_ENABLED" default:"true"`
	FeatureDuelsEnabled     bool `envconfig:"FEATURE_DUELS_ENABLED" default:"true"`

	// --- Metrics ---
	// Empty disables the /metrics listener.
	MetricsAddr string `envconfig:"METRICS_ADDR"`
}

// DatabaseDSN returns the PostgreSQL connection string.
func (c *Config) DatabaseDSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode,
	)
}

// Validate checks the rules struct tags cannot express.
func (c *Config) Validate() error {
	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(c); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}
	if c.StorageDriver == DriverPostgres {
		if c.DatabaseURL == "" && c.DBPassword == "" {
			return fmt.Errorf("DB_PASSWORD or DATABASE_URL is required for the postgres driver")
		}
		if c.DBMaxConns <= 0 || c.DBMinConns < 0 || c.DBMinConns > c.DBMaxConns {
			return fmt.Errorf("invalid DB_MIN_CONNS/DB_MAX_CONNS")
		}
	}
	if c.GameWinMin > c.GameWinMax {
		return fmt.Errorf("GAME_WIN_MIN must be <= GAME_WIN_MAX")
	}
	if c.GameLossMin > c.GameLossMax {
		return fmt.Errorf("GAME_LOSS_MIN must be <= GAME_LOSS_MAX")
	}
	return nil
}

// Load reads the environment (after an optional .env) into Config.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("read .env: %w", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
