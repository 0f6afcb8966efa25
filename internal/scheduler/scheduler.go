package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Nikiel54/nba-match-predictor/internal/config"
	"github.com/Nikiel54/nba-match-predictor/internal/ingest"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// Runner executes one ingestion run
type Runner interface {
	Run(ctx context.Context, mode ingest.Mode) (*ingest.Report, error)
}

// Scheduler manages background ingestion:
// - Catch up on missed days once at startup
// - Catch up again on a daily cron schedule, so a failed day is retried on
//   the next tick. A store with no processed games falls back to yesterday only.
type Scheduler struct {
	cfg      *config.Config
	runner   Runner
	cron     *cron.Cron
	stopChan chan struct{}
	wg       sync.WaitGroup
}

// NewScheduler creates a new scheduler instance
func NewScheduler(cfg *config.Config, runner Runner) *Scheduler {
	return &Scheduler{
		cfg:      cfg,
		runner:   runner,
		cron:     cron.New(),
		stopChan: make(chan struct{}),
	}
}

// Start registers the daily job and, if enabled, launches a catchup run
func (s *Scheduler) Start(ctx context.Context) error {
	log.Info().Msg("Scheduler starting...")

	if _, err := s.cron.AddFunc(s.cfg.DailyIngestCron, func() {
		log.Info().Msg("Running daily ingestion...")
		s.runScheduled(ctx)
	}); err != nil {
		return fmt.Errorf("failed to schedule daily ingestion: %w", err)
	}

	s.cron.Start()
	log.Info().
		Str("schedule", s.cfg.DailyIngestCron).
		Msg("Daily ingestion scheduled")

	if s.cfg.CatchupOnStart {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			default:
			}
			log.Info().Msg("Running startup catchup...")
			s.run(ctx, ingest.ModeCatchup)
		}()
	}

	return nil
}

// Stop stops the scheduler and waits for running jobs
func (s *Scheduler) Stop() {
	log.Info().Msg("Stopping scheduler...")

	close(s.stopChan)
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
	s.wg.Wait()

	log.Info().Msg("Scheduler stopped")
}

// RunNow executes a single ingestion run synchronously
func (s *Scheduler) RunNow(ctx context.Context, mode ingest.Mode) (*ingest.Report, error) {
	return s.runner.Run(ctx, mode)
}

// runScheduled catches up from the last processed game. Days missed by
// earlier failed runs are picked up here.
func (s *Scheduler) runScheduled(ctx context.Context) {
	mode := ingest.ModeCatchup
	report, err := s.runner.Run(ctx, mode)
	if errors.Is(err, ingest.ErrNoHighWaterMark) {
		log.Info().Msg("No processed games yet, ingesting yesterday only")
		mode = ingest.ModeDaily
		report, err = s.runner.Run(ctx, mode)
	}
	logResult(mode, report, err)
}

func (s *Scheduler) run(ctx context.Context, mode ingest.Mode) {
	report, err := s.runner.Run(ctx, mode)
	logResult(mode, report, err)
}

func logResult(mode ingest.Mode, report *ingest.Report, err error) {
	switch {
	case errors.Is(err, ingest.ErrNoHighWaterMark):
		log.Warn().Str("mode", string(mode)).Msg("Ratings store is empty, run the initializer before catching up")
	case err != nil:
		log.Error().Err(err).Str("mode", string(mode)).Msg("Ingestion failed")
	default:
		log.Info().
			Str("mode", string(mode)).
			Int("games_applied", report.GamesApplied).
			Dur("duration", report.Duration).
			Msg("Ingestion finished")
	}
}
