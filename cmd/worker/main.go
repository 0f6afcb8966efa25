package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/Nikiel54/nba-match-predictor/internal/api"
	"github.com/Nikiel54/nba-match-predictor/internal/cache"
	"github.com/Nikiel54/nba-match-predictor/internal/client"
	"github.com/Nikiel54/nba-match-predictor/internal/config"
	"github.com/Nikiel54/nba-match-predictor/internal/elo"
	"github.com/Nikiel54/nba-match-predictor/internal/ingest"
	"github.com/Nikiel54/nba-match-predictor/internal/metrics"
	"github.com/Nikiel54/nba-match-predictor/internal/predict"
	"github.com/Nikiel54/nba-match-predictor/internal/repository"
	"github.com/Nikiel54/nba-match-predictor/internal/scheduler"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Setup logger
	setupLogger()

	log.Info().Msg("Starting NBA ELO prediction worker")

	// Load configuration
	cfg := config.MustLoad()
	log.Info().
		Str("env", cfg.AppEnv).
		Str("log_level", cfg.LogLevel).
		Str("store_backend", cfg.StoreBackend).
		Msg("Configuration loaded")

	// Create context that listens for cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Info().Msg("Received shutdown signal, gracefully shutting down...")
		cancel()
	}()

	// Open the ratings document store
	backend, db, err := repository.OpenBackend(ctx, cfg.StoreBackendConfig())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open ratings store")
	}
	if db != nil {
		defer db.Close()
	}

	store := repository.NewRatingStore(backend, cfg.KFactor, cfg.BaseRating)
	if err := store.Load(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to load ratings")
	}
	metrics.UpdateRatingStats(len(store.Ratings()), store.LastGameDate())

	engine := elo.NewEngine(cfg.HomeAdvantage)

	// Initialize NBA stats client
	statsClient := client.NewClient(cfg.StatsBaseURL, cfg.StatsSeasonType, cfg.StatsTimeout)
	log.Info().Str("base_url", cfg.StatsBaseURL).Msg("Stats client initialized")

	ingestor := ingest.NewIngestor(store, engine, statsClient)

	checks := make(map[string]api.HealthChecker)
	if db != nil {
		checks["database"] = db
	}

	// Initialize Redis prediction cache
	var predictOpts []predict.Option
	if cfg.RedisEnabled {
		redisCache, err := cache.NewRedisCache(cache.Config{
			Host:     cfg.RedisHost,
			Port:     strconv.Itoa(cfg.RedisPort),
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			log.Warn().Err(err).Msg("Failed to connect to Redis - continuing without cache")
		} else {
			defer redisCache.Close()
			predictOpts = append(predictOpts, predict.WithCache(redisCache, cfg.CacheTTLPredictions))
			checks["cache"] = redisCache
			log.Info().Msg("Redis cache connected")
		}
	}

	svc := predict.NewService(store, engine, predictOpts...)

	// Start metrics HTTP server
	go startMetricsServer(cfg.MetricsPort)

	// Start prediction API
	apiServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.APIPort),
		Handler:           api.NewServer(svc, checks).Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info().Int("port", cfg.APIPort).Msg("Starting prediction API")
		if err := apiServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("Prediction API failed")
			cancel()
		}
	}()

	// Update system uptime and pool metrics
	startTime := time.Now()
	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				metrics.SystemUptime.Set(time.Since(startTime).Seconds())
				if db != nil {
					metrics.UpdateDBConnectionStats(db.PoolStats())
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	// Create and start scheduler
	sched := scheduler.NewScheduler(cfg, ingestor)

	if cfg.EnableScheduler {
		log.Info().Msg("Starting scheduler...")
		if err := sched.Start(ctx); err != nil {
			log.Fatal().Err(err).Msg("Failed to start scheduler")
		}
	} else if cfg.CatchupOnStart {
		log.Info().Msg("Scheduler disabled, running one catchup...")
		if _, err := sched.RunNow(ctx, ingest.ModeCatchup); err != nil {
			log.Error().Err(err).Msg("Catchup failed, continuing anyway...")
		}
	}

	// Keep running until context is cancelled
	<-ctx.Done()

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Prediction API shutdown failed")
	}

	if cfg.EnableScheduler {
		log.Info().Msg("Shutting down scheduler...")
		sched.Stop()
	}

	log.Info().Msg("Worker shutdown complete")
}

// setupLogger configures the zerolog logger
func setupLogger() {
	// Pretty console logging in development
	if os.Getenv("APP_ENV") == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		})
	}

	// Set log level
	level := zerolog.InfoLevel
	if lvl := os.Getenv("LOG_LEVEL"); lvl != "" {
		parsedLevel, err := zerolog.ParseLevel(lvl)
		if err == nil {
			level = parsedLevel
		}
	}
	zerolog.SetGlobalLevel(level)

	log.Info().
		Str("level", level.String()).
		Msg("Logger initialized")
}

// startMetricsServer starts the Prometheus metrics HTTP server
func startMetricsServer(port int) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	addr := fmt.Sprintf(":%d", port)
	log.Info().Int("port", port).Msg("Starting metrics server")

	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Error().Err(err).Msg("Metrics server failed")
	}
}
