package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 20.0, cfg.KFactor)
	assert.Equal(t, 1300.0, cfg.BaseRating)
	assert.Equal(t, 100.0, cfg.HomeAdvantage)
	assert.Equal(t, BackendFile, cfg.StoreBackend)
	assert.Equal(t, "data/database.json", cfg.StorePath)
	assert.Equal(t, 600*time.Second, cfg.CacheTTLPredictions)
	assert.Equal(t, "0 6 * * *", cfg.DailyIngestCron)
	assert.Equal(t, 8000, cfg.APIPort)
	assert.Equal(t, 1978, cfg.InitStartYear)
	assert.False(t, cfg.RedisEnabled)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ELO_K_FACTOR", "32")
	t.Setenv("ELO_HOME_ADVANTAGE", "0")
	t.Setenv("STORE_BACKEND", "postgres")
	t.Setenv("DATABASE_PASSWORD", "secret")
	t.Setenv("REDIS_PORT", "6380")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 32.0, cfg.KFactor)
	assert.Equal(t, 0.0, cfg.HomeAdvantage, "Zero home advantage is a neutral-site model")
	assert.Equal(t, BackendPostgres, cfg.StoreBackend)
	assert.Equal(t, "localhost:6380", cfg.RedisAddr())
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			KFactor:      20,
			BaseRating:   1300,
			StoreBackend: BackendFile,
			StorePath:    "data/database.json",
		}
	}

	cfg := valid()
	assert.NoError(t, cfg.Validate())

	cfg = valid()
	cfg.KFactor = 0
	assert.Error(t, cfg.Validate(), "Zero k-factor should be rejected")

	cfg = valid()
	cfg.HomeAdvantage = -5
	assert.Error(t, cfg.Validate(), "Negative home advantage should be rejected")

	cfg = valid()
	cfg.StoreBackend = "sqlite"
	assert.Error(t, cfg.Validate(), "Unknown backend should be rejected")

	cfg = valid()
	cfg.StoreBackend = BackendPostgres
	assert.Error(t, cfg.Validate(), "Postgres backend needs a password")
}

func TestStoreBackendConfig(t *testing.T) {
	cfg := Config{
		StoreBackend:     BackendPostgres,
		StoreDocumentKey: "prod",
		DatabaseHost:     "db",
		DatabasePort:     5433,
		DatabaseName:     "nba_elo",
	}

	bc := cfg.StoreBackendConfig()
	assert.Equal(t, "postgres", bc.Kind)
	assert.Equal(t, "prod", bc.DocumentKey)
	assert.Equal(t, "5433", bc.Database.Port)
	assert.Equal(t, "db", bc.Database.Host)
}
