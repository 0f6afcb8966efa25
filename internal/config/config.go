package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/Nikiel54/nba-match-predictor/internal/repository"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Store backends
const (
	BackendFile     = "file"
	BackendPostgres = "postgres"
)

// Config holds all application configuration
type Config struct {
	// Application
	AppEnv   string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// Rating model
	KFactor       float64 `envconfig:"ELO_K_FACTOR" default:"20"`
	BaseRating    float64 `envconfig:"ELO_BASE_RATING" default:"1300"`
	HomeAdvantage float64 `envconfig:"ELO_HOME_ADVANTAGE" default:"100"`

	// Ratings document store
	StoreBackend     string `envconfig:"STORE_BACKEND" default:"file"`
	StorePath        string `envconfig:"STORE_PATH" default:"data/database.json"`
	StoreDocumentKey string `envconfig:"STORE_DOCUMENT_KEY" default:"default"`

	// Database, used when STORE_BACKEND=postgres
	DatabaseHost     string `envconfig:"DATABASE_HOST" default:"localhost"`
	DatabasePort     int    `envconfig:"DATABASE_PORT" default:"5432"`
	DatabaseName     string `envconfig:"DATABASE_NAME" default:"nba_elo"`
	DatabaseUser     string `envconfig:"DATABASE_USER" default:"nba_elo"`
	DatabasePassword string `envconfig:"DATABASE_PASSWORD" default:""`
	DatabaseSSLMode  string `envconfig:"DATABASE_SSL_MODE" default:"disable"`

	// Redis prediction cache
	RedisEnabled  bool   `envconfig:"REDIS_ENABLED" default:"false"`
	RedisHost     string `envconfig:"REDIS_HOST" default:"localhost"`
	RedisPort     int    `envconfig:"REDIS_PORT" default:"6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	CacheTTLPredictions time.Duration `envconfig:"CACHE_TTL_PREDICTIONS" default:"600s"`

	// NBA stats API
	StatsBaseURL    string        `envconfig:"STATS_BASE_URL" default:"https://stats.nba.com/stats"`
	StatsTimeout    time.Duration `envconfig:"STATS_TIMEOUT" default:"30s"`
	StatsSeasonType string        `envconfig:"STATS_SEASON_TYPE" default:"Regular Season"`

	// Scheduler
	EnableScheduler bool   `envconfig:"ENABLE_SCHEDULER" default:"true"`
	CatchupOnStart  bool   `envconfig:"CATCHUP_ON_START" default:"true"`
	DailyIngestCron string `envconfig:"DAILY_INGEST_CRON" default:"0 6 * * *"`

	// HTTP
	APIPort     int `envconfig:"API_PORT" default:"8000"`
	MetricsPort int `envconfig:"METRICS_PORT" default:"9090"`

	// Bootstrap from the historical archive
	InitCSVPath   string `envconfig:"INIT_CSV_PATH" default:"data/raw/game.csv"`
	InitStartYear int    `envconfig:"INIT_START_YEAR" default:"1978"`
}

// Load loads configuration from environment variables
// It first attempts to load from .env file if in development mode
func Load() (*Config, error) {
	// Try to load .env file (ignore error if doesn't exist)
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.KFactor <= 0 {
		return fmt.Errorf("ELO_K_FACTOR must be positive")
	}

	if c.BaseRating <= 0 {
		return fmt.Errorf("ELO_BASE_RATING must be positive")
	}

	if c.HomeAdvantage < 0 {
		return fmt.Errorf("ELO_HOME_ADVANTAGE cannot be negative")
	}

	switch c.StoreBackend {
	case BackendFile:
		if c.StorePath == "" {
			return fmt.Errorf("STORE_PATH is required for the file backend")
		}
	case BackendPostgres:
		if c.DatabasePassword == "" {
			return fmt.Errorf("DATABASE_PASSWORD is required for the postgres backend")
		}
	default:
		return fmt.Errorf("STORE_BACKEND must be %q or %q, got %q", BackendFile, BackendPostgres, c.StoreBackend)
	}

	if c.CacheTTLPredictions < 0 {
		return fmt.Errorf("CACHE_TTL_PREDICTIONS cannot be negative")
	}

	return nil
}

// StoreBackendConfig returns the ratings document backend settings
func (c *Config) StoreBackendConfig() repository.BackendConfig {
	return repository.BackendConfig{
		Kind:        c.StoreBackend,
		Path:        c.StorePath,
		DocumentKey: c.StoreDocumentKey,
		Database: repository.Config{
			Host:     c.DatabaseHost,
			Port:     strconv.Itoa(c.DatabasePort),
			User:     c.DatabaseUser,
			Password: c.DatabasePassword,
			Database: c.DatabaseName,
			SSLMode:  c.DatabaseSSLMode,
		},
	}
}

// RedisAddr returns the Redis address
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// MustLoad loads configuration or panics on error
// Use this in main() where we want to fail fast
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	return cfg
}
