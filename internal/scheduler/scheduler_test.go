package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Nikiel54/nba-match-predictor/internal/config"
	"github.com/Nikiel54/nba-match-predictor/internal/ingest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	mu     sync.Mutex
	modes  []ingest.Mode
	err    error
	errFor map[ingest.Mode]error
}

func (f *fakeRunner) Run(ctx context.Context, mode ingest.Mode) (*ingest.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.modes = append(f.modes, mode)
	if err := f.errFor[mode]; err != nil {
		return nil, err
	}
	if f.err != nil {
		return nil, f.err
	}
	return &ingest.Report{Mode: mode}, nil
}

func (f *fakeRunner) calls() []ingest.Mode {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]ingest.Mode(nil), f.modes...)
}

func TestStartRunsCatchup(t *testing.T) {
	runner := &fakeRunner{}
	s := NewScheduler(&config.Config{DailyIngestCron: "0 6 * * *", CatchupOnStart: true}, runner)

	require.NoError(t, s.Start(context.Background()))
	assert.Eventually(t, func() bool {
		return len(runner.calls()) == 1
	}, time.Second, 10*time.Millisecond, "Catchup should run once at startup")
	s.Stop()

	assert.Equal(t, []ingest.Mode{ingest.ModeCatchup}, runner.calls())
}

func TestStartWithoutCatchup(t *testing.T) {
	runner := &fakeRunner{}
	s := NewScheduler(&config.Config{DailyIngestCron: "0 6 * * *"}, runner)

	require.NoError(t, s.Start(context.Background()))
	s.Stop()

	assert.Empty(t, runner.calls(), "Nothing should run before the first cron tick")
}

func TestStartRejectsBadCron(t *testing.T) {
	s := NewScheduler(&config.Config{DailyIngestCron: "every day"}, &fakeRunner{})
	assert.Error(t, s.Start(context.Background()))
}

func TestCatchupErrorsAreLogged(t *testing.T) {
	runner := &fakeRunner{err: ingest.ErrNoHighWaterMark}
	s := NewScheduler(&config.Config{DailyIngestCron: "0 6 * * *", CatchupOnStart: true}, runner)

	require.NoError(t, s.Start(context.Background()))
	assert.Eventually(t, func() bool {
		return len(runner.calls()) == 1
	}, time.Second, 10*time.Millisecond)
	s.Stop()
}

func TestScheduledRunCatchesUp(t *testing.T) {
	runner := &fakeRunner{}
	s := NewScheduler(&config.Config{DailyIngestCron: "0 6 * * *"}, runner)

	s.runScheduled(context.Background())
	assert.Equal(t, []ingest.Mode{ingest.ModeCatchup}, runner.calls(),
		"Scheduled runs should catch up so a failed day is retried")
}

func TestScheduledRunFallsBackToDaily(t *testing.T) {
	runner := &fakeRunner{errFor: map[ingest.Mode]error{ingest.ModeCatchup: ingest.ErrNoHighWaterMark}}
	s := NewScheduler(&config.Config{DailyIngestCron: "0 6 * * *"}, runner)

	s.runScheduled(context.Background())
	assert.Equal(t, []ingest.Mode{ingest.ModeCatchup, ingest.ModeDaily}, runner.calls(),
		"An empty store should still ingest yesterday")
}

func TestRunNow(t *testing.T) {
	runner := &fakeRunner{err: errors.New("boom")}
	s := NewScheduler(&config.Config{DailyIngestCron: "0 6 * * *"}, runner)

	_, err := s.RunNow(context.Background(), ingest.ModeDaily)
	assert.Error(t, err)
	assert.Equal(t, []ingest.Mode{ingest.ModeDaily}, runner.calls())
}
