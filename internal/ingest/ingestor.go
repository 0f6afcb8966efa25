package ingest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Nikiel54/nba-match-predictor/internal/elo"
	"github.com/Nikiel54/nba-match-predictor/internal/metrics"
	"github.com/Nikiel54/nba-match-predictor/internal/models"
	"github.com/Nikiel54/nba-match-predictor/internal/repository"

	"github.com/rs/zerolog/log"
)

// progressInterval is how often a long batch logs its progress
const progressInterval = 5000

// Source returns raw per-team game-log rows for a season and inclusive date range
type Source interface {
	FetchGameLog(ctx context.Context, season string, from, to time.Time) ([]models.GameLogRow, error)
}

// Report summarizes one ingestion run
type Report struct {
	Mode          Mode
	Window        Window
	RowsFetched   int
	RowsNew       int
	GamesApplied  int
	Rejected      int
	Deferred      int
	FailedSeasons []string
	LastGameDate  time.Time
	Duration      time.Duration
}

// Ingestor fetches completed games and applies them to the live store. It is
// the only writer of the store; runs are serialized.
type Ingestor struct {
	store  *repository.RatingStore
	engine *elo.Engine
	source Source
	now    func() time.Time

	mu sync.Mutex
}

// Option configures an Ingestor
type Option func(*Ingestor)

// WithClock overrides the clock used to plan fetch windows
func WithClock(now func() time.Time) Option {
	return func(i *Ingestor) {
		i.now = now
	}
}

// NewIngestor creates an ingestor writing to store. source may be nil when
// only ApplyBatch is used.
func NewIngestor(store *repository.RatingStore, engine *elo.Engine, source Source, opts ...Option) *Ingestor {
	i := &Ingestor{
		store:  store,
		engine: engine,
		source: source,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Run fetches, normalizes and applies every game in mode's window that is
// newer than the store's last processed date. A season that fails to fetch
// is logged and skipped; the run fails only if every season failed or the
// batch could not be applied.
func (i *Ingestor) Run(ctx context.Context, mode Mode) (report *Report, err error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	start := time.Now()
	report = &Report{Mode: mode}
	defer func() {
		report.Duration = time.Since(start)
		status := "success"
		if err != nil {
			status = "error"
		}
		metrics.RecordSync(string(mode), status, report.Duration.Seconds())
	}()

	if i.source == nil {
		return report, errors.New("ingestor has no game-log source")
	}

	last := i.store.LastGameDate()
	window, err := PlanWindow(mode, last, i.now())
	if err != nil {
		return report, err
	}
	report.Window = window
	report.LastGameDate = last

	if window.Empty() {
		log.Info().
			Str("mode", string(mode)).
			Time("last_game_date", last).
			Msg("Ratings are up to date, nothing to ingest")
		return report, nil
	}

	log.Info().
		Str("mode", string(mode)).
		Time("from", window.From).
		Time("to", window.To).
		Strs("seasons", window.Seasons).
		Msg("Starting ingestion")

	var rows []models.GameLogRow
	for _, season := range window.Seasons {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		seasonRows, err := i.source.FetchGameLog(ctx, season, window.From, window.To)
		if err != nil {
			log.Error().Err(err).Str("season", season).Msg("Failed to fetch game log")
			metrics.RecordError("ingest", "fetch")
			report.FailedSeasons = append(report.FailedSeasons, season)
			continue
		}

		log.Debug().Str("season", season).Int("rows", len(seasonRows)).Msg("Fetched game log")
		rows = append(rows, seasonRows...)
	}
	report.RowsFetched = len(rows)

	if len(report.FailedSeasons) == len(window.Seasons) {
		return report, fmt.Errorf("failed to fetch all %d seasons", len(window.Seasons))
	}

	fresh := FilterAfter(rows, last)
	report.RowsNew = len(fresh)

	matchups, rejected := Normalize(fresh)
	report.Rejected = len(rejected)
	logRejections(rejected)

	// Games after a failed season would move the high-water mark past it and
	// its games would be filtered out forever, so hold them for the next run.
	// Seasons are fetched in order, so the first failure is the earliest.
	if len(report.FailedSeasons) > 0 {
		cutoff, err := SeasonStart(report.FailedSeasons[0])
		if err != nil {
			return report, err
		}
		matchups, report.Deferred = splitBefore(matchups, cutoff)
		if report.Deferred > 0 {
			log.Warn().
				Str("failed_season", report.FailedSeasons[0]).
				Time("cutoff", cutoff).
				Int("deferred", report.Deferred).
				Msg("Deferring games after a failed season until it can be fetched")
		}
	}

	applied, err := i.apply(ctx, matchups)
	report.GamesApplied = applied
	report.LastGameDate = i.store.LastGameDate()
	if err != nil {
		return report, err
	}

	log.Info().
		Str("mode", string(mode)).
		Int("rows", report.RowsFetched).
		Int("games_applied", report.GamesApplied).
		Int("rejected", report.Rejected).
		Int("deferred", report.Deferred).
		Strs("failed_seasons", report.FailedSeasons).
		Time("last_game_date", report.LastGameDate).
		Dur("duration", time.Since(start)).
		Msg("Ingestion complete")

	return report, nil
}

// ApplyBatch applies matchups in the given order. Either every game is
// applied and persisted, or the live store is left untouched.
func (i *Ingestor) ApplyBatch(ctx context.Context, matchups []*models.Matchup) (int, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.apply(ctx, matchups)
}

func (i *Ingestor) apply(ctx context.Context, matchups []*models.Matchup) (int, error) {
	if len(matchups) == 0 {
		return 0, nil
	}

	work := i.store.Clone()

	for n, m := range matchups {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		if m.GameDate.IsZero() {
			return 0, fmt.Errorf("failed to apply game %s: %w", m.GameID,
				models.NewValidationError("game_date", "missing"))
		}

		work.RegisterTeam(m.Home.TeamID, m.Home.TeamName)
		work.RegisterTeam(m.Away.TeamID, m.Away.TeamName)

		_, _, err := i.engine.Update(work, elo.Game{
			HomeTeamID: m.Home.TeamID,
			AwayTeamID: m.Away.TeamID,
			HomeScore:  m.Home.Points,
			AwayScore:  m.Away.Points,
			Date:       m.GameDate,
		})
		if err != nil {
			metrics.RecordError("ingest", "apply")
			return 0, fmt.Errorf("failed to apply game %s: %w", m.GameID, err)
		}

		if (n+1)%progressInterval == 0 {
			log.Info().Int("processed", n+1).Int("total", len(matchups)).Msg("Applying games")
		}
	}

	if err := work.Save(ctx); err != nil {
		metrics.RecordError("ingest", "save")
		return 0, err
	}
	i.store.Replace(work)

	metrics.RecordGamesApplied(len(matchups))
	metrics.UpdateRatingStats(len(i.store.Ratings()), i.store.LastGameDate())

	return len(matchups), nil
}

// splitBefore keeps the matchups played before cutoff and counts the rest
func splitBefore(matchups []*models.Matchup, cutoff time.Time) ([]*models.Matchup, int) {
	kept := make([]*models.Matchup, 0, len(matchups))
	for _, m := range matchups {
		if m.GameDate.Before(cutoff) {
			kept = append(kept, m)
		}
	}
	return kept, len(matchups) - len(kept)
}

func logRejections(rejected []Rejection) {
	if len(rejected) == 0 {
		return
	}

	metrics.RecordMatchupsRejected(len(rejected))
	for _, r := range rejected {
		log.Warn().Str("game_id", r.GameID).Int("rows", r.Rows).Msg("Dropping game without exactly two rows")
	}
}
