// Package predict answers read-only rating and matchup queries against the
// live rating store.
package predict

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/Nikiel54/nba-match-predictor/internal/elo"
	"github.com/Nikiel54/nba-match-predictor/internal/metrics"
	"github.com/Nikiel54/nba-match-predictor/internal/models"
	"github.com/Nikiel54/nba-match-predictor/internal/repository"

	"github.com/rs/zerolog/log"
)

// Cache stores computed predictions
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// Service serves predictions and ratings
type Service struct {
	store  *repository.RatingStore
	engine *elo.Engine
	cache  Cache
	ttl    time.Duration
}

// Option configures a Service
type Option func(*Service)

// WithCache caches predictions for ttl. Keys include the store's last game
// date, so an ingestion run invalidates every cached prediction.
func WithCache(cache Cache, ttl time.Duration) Option {
	return func(s *Service) {
		s.cache = cache
		s.ttl = ttl
	}
}

// NewService creates a prediction service over store
func NewService(store *repository.RatingStore, engine *elo.Engine, opts ...Option) *Service {
	s := &Service{store: store, engine: engine}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Predict returns the win probabilities for homeTeamID hosting awayTeamID
// using the configured home advantage
func (s *Service) Predict(ctx context.Context, homeTeamID, awayTeamID int) (*models.Prediction, error) {
	return s.PredictWithHomeAdvantage(ctx, homeTeamID, awayTeamID, s.engine.HomeAdvantage())
}

// PredictWithHomeAdvantage is Predict with an explicit home rating bonus.
// Zero predicts a neutral-site game.
func (s *Service) PredictWithHomeAdvantage(ctx context.Context, homeTeamID, awayTeamID int, homeAdvantage float64) (*models.Prediction, error) {
	if homeTeamID <= 0 {
		return nil, models.NewValidationError("home_team_id", "must be a positive team id")
	}
	if awayTeamID <= 0 {
		return nil, models.NewValidationError("away_team_id", "must be a positive team id")
	}
	if homeTeamID == awayTeamID {
		return nil, models.NewValidationError("away_team_id", "home and away teams must differ")
	}
	if homeAdvantage < 0 || math.IsNaN(homeAdvantage) || math.IsInf(homeAdvantage, 0) {
		return nil, models.NewValidationError("home_advantage", "must be a finite non-negative number")
	}

	engine := s.engine
	if homeAdvantage != engine.HomeAdvantage() {
		engine = engine.WithHomeAdvantage(homeAdvantage)
	}

	key := s.cacheKey(homeTeamID, awayTeamID, homeAdvantage)
	if s.cache != nil {
		var cached models.Prediction
		hit, err := s.cache.Get(ctx, key, &cached)
		if err != nil {
			log.Warn().Err(err).Str("key", key).Msg("Prediction cache read failed")
			metrics.RecordError("predict", "cache_get")
		} else if hit {
			return &cached, nil
		}
	}

	var p *models.Prediction
	s.store.View(func(v *repository.View) {
		p = engine.Predict(v, homeTeamID, awayTeamID)
	})

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, p, s.ttl); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("Prediction cache write failed")
			metrics.RecordError("predict", "cache_set")
		}
	}

	return p, nil
}

// Rating returns a team's current rating
func (s *Service) Rating(teamID int) float64 {
	return s.store.Rating(teamID)
}

// Ratings returns every known team rating
func (s *Service) Ratings() map[int]float64 {
	return s.store.Ratings()
}

// TeamNames returns the team name directory
func (s *Service) TeamNames() []models.TeamName {
	return s.store.TeamNames()
}

// LastGameDate returns the date of the newest applied game
func (s *Service) LastGameDate() time.Time {
	return s.store.LastGameDate()
}

func (s *Service) cacheKey(homeTeamID, awayTeamID int, homeAdvantage float64) string {
	return fmt.Sprintf("predict:v2:%d:%d:%d:%g", s.store.LastGameDate().Unix(), homeTeamID, awayTeamID, homeAdvantage)
}
