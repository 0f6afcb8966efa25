// Command initialize rebuilds ratings from scratch by replaying the historical
// game archive, then writes the ratings document.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Nikiel54/nba-match-predictor/internal/config"
	"github.com/Nikiel54/nba-match-predictor/internal/dataset"
	"github.com/Nikiel54/nba-match-predictor/internal/elo"
	"github.com/Nikiel54/nba-match-predictor/internal/ingest"
	"github.com/Nikiel54/nba-match-predictor/internal/repository"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	if os.Getenv("APP_ENV") == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	}

	cfg := config.MustLoad()
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	start := time.Now()

	// 1. Load and filter the archive
	log.Info().Str("path", cfg.InitCSVPath).Msg("Loading game archive")
	records, err := dataset.LoadFile(cfg.InitCSVPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load game archive")
	}

	matchups, skipped := dataset.ModernGames(records, cfg.InitStartYear)
	log.Info().
		Int("records", len(records)).
		Int("games", len(matchups)).
		Int("skipped", skipped).
		Int("start_year", cfg.InitStartYear).
		Msg("Archive filtered to modern regular-season games")

	if len(matchups) == 0 {
		log.Info().Msg("No games to process. Exiting.")
		return
	}

	// 2. Open the store without loading it, so the replay starts from base ratings
	backend, db, err := repository.OpenBackend(ctx, cfg.StoreBackendConfig())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open ratings store")
	}
	if db != nil {
		defer db.Close()
	}

	store := repository.NewRatingStore(backend, cfg.KFactor, cfg.BaseRating)
	ingestor := ingest.NewIngestor(store, elo.NewEngine(cfg.HomeAdvantage), nil)

	// 3. Replay every game and persist once at the end
	applied, err := ingestor.ApplyBatch(ctx, matchups)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize ratings, nothing was saved")
	}

	log.Info().
		Int("games", applied).
		Int("teams", len(store.Ratings())).
		Time("last_game_date", store.LastGameDate()).
		Dur("duration", time.Since(start)).
		Msg("Ratings initialized")
}
