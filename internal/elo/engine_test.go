package elo

import (
	"math"
	"testing"
	"time"

	"github.com/Nikiel54/nba-match-predictor/internal/models"
	"github.com/Nikiel54/nba-match-predictor/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	celtics = 1610612738
	lakers  = 1610612747
)

var gameDay = time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC)

func newStore() *repository.RatingStore {
	return repository.NewRatingStore(nil, 20, 1300)
}

func outcomes(pattern string) []models.GameOutcome {
	out := make([]models.GameOutcome, 0, len(pattern))
	for _, c := range pattern {
		out = append(out, models.GameOutcome{Won: c == 'W'})
	}
	return out
}

func TestExpectedScore(t *testing.T) {
	assert.Equal(t, 0.5, ExpectedScore(1300, 1300), "Equal ratings should be a coin flip")
	assert.InDelta(t, 0.6400650, ExpectedScore(1400, 1300), 1e-6)
	assert.InDelta(t, 1.0, ExpectedScore(1400, 1300)+ExpectedScore(1300, 1400), 1e-12, "Probabilities should be symmetric")
}

func TestStreakFrom(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		want    models.Streak
	}{
		{"empty", "", models.Streak{}},
		{"short run never hot", "WWW", models.Streak{Wins: 3}},
		{"hot", "WWWLL", models.Streak{Wins: 3, Losses: 2, IsHot: true}},
		{"cold", "LLLWW", models.Streak{Wins: 2, Losses: 3, IsCold: true}},
		{"only last five count", "LLLLLWWWWW", models.Streak{Wins: 5, IsHot: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StreakFrom(outcomes(tt.pattern)))
		})
	}
}

func TestMOVMultiplier(t *testing.T) {
	base := math.Log(11) * 1.5

	assert.InDelta(t, base, MOVMultiplier(10, 1300, 1300, models.Streak{}), 1e-12)
	assert.InDelta(t, base, MOVMultiplier(-10, 1300, 1300, models.Streak{}), 1e-12, "Margin sign should not matter")
	assert.InDelta(t, base*1.2, MOVMultiplier(10, 1250, 1300, models.Streak{}), 1e-12, "Upset should be rewarded")
	assert.InDelta(t, base*0.7, MOVMultiplier(10, 1300, 1300, models.Streak{IsHot: true}), 1e-12, "Hot winner should be dampened")
	assert.InDelta(t, base*1.3, MOVMultiplier(10, 1300, 1300, models.Streak{IsCold: true}), 1e-12, "Cold winner should be amplified")
	assert.Equal(t, 0.0, MOVMultiplier(0, 1300, 1300, models.Streak{}), "Zero margin should add nothing")

	assert.LessOrEqual(t, MOVMultiplier(100, 1200, 1300, models.Streak{IsCold: true}), 15.0)
	assert.Equal(t, 15.0, MOVMultiplier(1000, 1200, 1300, models.Streak{IsCold: true}), "Adjustment should be capped")
}

func TestUpdateHomeWin(t *testing.T) {
	store := newStore()
	engine := NewEngine(DefaultHomeAdvantage)

	newHome, newAway, err := engine.Update(store, Game{
		HomeTeamID: celtics,
		AwayTeamID: lakers,
		HomeScore:  110,
		AwayScore:  100,
		Date:       gameDay,
	})
	require.NoError(t, err)

	assert.InDelta(t, 1310.7955, newHome, 1e-3)
	assert.InDelta(t, 1289.2045, newAway, 1e-3)
	assert.Equal(t, newHome, store.Rating(celtics))
	assert.Equal(t, newAway, store.Rating(lakers))

	home := store.GameHistory(celtics)
	require.Len(t, home, 1)
	assert.True(t, home[0].Won)
	assert.Equal(t, 10, home[0].Margin)
	assert.True(t, home[0].Date.Equal(gameDay))

	away := store.GameHistory(lakers)
	require.Len(t, away, 1)
	assert.False(t, away[0].Won)
	assert.Equal(t, -10, away[0].Margin)

	require.Len(t, store.RatingHistory(celtics), 1)
	assert.Equal(t, newHome, store.RatingHistory(celtics)[0].Rating)
	assert.True(t, store.LastGameDate().Equal(gameDay))
}

func TestUpdateAwayWinCreditsWinner(t *testing.T) {
	store := newStore()
	engine := NewEngine(DefaultHomeAdvantage)

	newHome, newAway, err := engine.Update(store, Game{
		HomeTeamID: celtics,
		AwayTeamID: lakers,
		HomeScore:  100,
		AwayScore:  105,
		Date:       gameDay,
	})
	require.NoError(t, err)

	assert.InDelta(t, 1284.5111, newHome, 1e-3, "Losing home side should drop")
	assert.InDelta(t, 1315.4889, newAway, 1e-3, "Winning away side should gain the MOV bonus")
	assert.InDelta(t, 2600.0, newHome+newAway, 1e-9, "Update should be zero-sum")
}

func TestUpdateTieCountsAsHomeLoss(t *testing.T) {
	store := newStore()
	engine := NewEngine(DefaultHomeAdvantage)

	newHome, newAway, err := engine.Update(store, Game{
		HomeTeamID: celtics,
		AwayTeamID: lakers,
		HomeScore:  100,
		AwayScore:  100,
		Date:       gameDay,
	})
	require.NoError(t, err)

	assert.Less(t, newHome, 1300.0)
	assert.Greater(t, newAway, 1300.0)
	assert.False(t, store.GameHistory(celtics)[0].Won)
	assert.True(t, store.GameHistory(lakers)[0].Won)
}

func TestUpdateWithoutDateSkipsSnapshots(t *testing.T) {
	store := newStore()
	engine := NewEngine(DefaultHomeAdvantage)

	_, _, err := engine.Update(store, Game{HomeTeamID: celtics, AwayTeamID: lakers, HomeScore: 99, AwayScore: 90})
	require.NoError(t, err)

	assert.NotEqual(t, 1300.0, store.Rating(celtics), "Rating should still move")
	require.Len(t, store.GameHistory(celtics), 1)
	assert.True(t, store.GameHistory(celtics)[0].Date.IsZero())
	assert.Empty(t, store.RatingHistory(celtics), "No snapshot without a date")
	assert.True(t, store.LastGameDate().IsZero(), "High-water mark should not move without a date")
}

func TestUpdateRejectsInvalidGames(t *testing.T) {
	store := newStore()
	engine := NewEngine(DefaultHomeAdvantage)

	_, _, err := engine.Update(store, Game{HomeTeamID: celtics, AwayTeamID: celtics, HomeScore: 100, AwayScore: 90})
	assert.True(t, models.IsValidation(err), "Same team on both sides should be a validation error")

	_, _, err = engine.Update(store, Game{HomeTeamID: celtics, AwayTeamID: lakers, HomeScore: -1, AwayScore: 90})
	assert.True(t, models.IsValidation(err), "Negative score should be a validation error")

	assert.Empty(t, store.Ratings(), "Rejected games should not touch the store")
}

func TestUpdateBoundsHistories(t *testing.T) {
	store := newStore()
	engine := NewEngine(DefaultHomeAdvantage)

	for i := 0; i < 60; i++ {
		_, _, err := engine.Update(store, Game{
			HomeTeamID: celtics,
			AwayTeamID: lakers,
			HomeScore:  100 + i%7,
			AwayScore:  102,
			Date:       gameDay.AddDate(0, 0, i),
		})
		require.NoError(t, err)
	}

	assert.Len(t, store.GameHistory(celtics), repository.MaxGameHistory)
	assert.Len(t, store.RatingHistory(lakers), repository.MaxRatingHistory)
	assert.True(t, store.LastGameDate().Equal(gameDay.AddDate(0, 0, 59)))
}

func TestPredict(t *testing.T) {
	store := newStore()
	engine := NewEngine(DefaultHomeAdvantage)

	p := engine.Predict(store, celtics, lakers)
	assert.InDelta(t, 0.6400650, p.HomeWinProbability, 1e-6)
	assert.InDelta(t, 1.0, p.HomeWinProbability+p.AwayWinProbability, 1e-12)
	assert.Equal(t, p.HomeWinProbability, p.Confidence)
	assert.Equal(t, 1300.0, p.HomeRating)

	neutral := engine.WithHomeAdvantage(0).Predict(store, celtics, lakers)
	assert.Equal(t, 0.5, neutral.HomeWinProbability, "Neutral site at equal ratings should be even")
	assert.Equal(t, 0.5, neutral.Confidence)
}

func TestPredictReportsStreaks(t *testing.T) {
	store := newStore()
	for _, o := range outcomes("LLLWW") {
		store.AppendOutcome(lakers, o)
	}
	engine := NewEngine(DefaultHomeAdvantage)

	p := engine.Predict(store, celtics, lakers)
	assert.True(t, p.AwayStreak.IsCold)
	assert.Equal(t, 2, p.AwayStreak.Wins)
	assert.Equal(t, 3, p.AwayStreak.Losses)
	assert.Equal(t, models.Streak{}, p.HomeStreak)
}
