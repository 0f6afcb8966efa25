// Package elo implements the margin-of-victory adjusted ELO model used to
// rate NBA teams and predict matchups.
package elo

import (
	"math"
	"time"

	"github.com/Nikiel54/nba-match-predictor/internal/models"
)

const (
	// DefaultHomeAdvantage is the rating bonus granted to the home side
	DefaultHomeAdvantage = 100.0

	// StreakWindow is how many recent outcomes count toward a streak
	StreakWindow = 5

	streakThreshold  = 3
	movScale         = 1.5
	upsetBonus       = 1.2
	hotStreakFactor  = 0.7
	coldStreakFactor = 1.3
	maxMOVAdjustment = 15.0
)

// Reader is the rating state needed to predict a game
type Reader interface {
	Rating(teamID int) float64
	RecentOutcomes(teamID, n int) []models.GameOutcome
}

// Store is the rating state mutated by Update
type Store interface {
	Reader
	KFactor() float64
	SetRating(teamID int, rating float64)
	AppendOutcome(teamID int, outcome models.GameOutcome)
	AppendSnapshot(teamID int, snapshot models.RatingSnapshot)
	AdvanceLastGameDate(date time.Time) bool
}

// Game is a completed game to apply to ratings
type Game struct {
	HomeTeamID int
	AwayTeamID int
	HomeScore  int
	AwayScore  int
	// Date may be zero, in which case no snapshots are recorded
	Date time.Time
}

// Engine computes rating updates and predictions. It holds no rating state.
type Engine struct {
	homeAdvantage float64
}

// NewEngine creates an engine applying homeAdvantage to the home side
func NewEngine(homeAdvantage float64) *Engine {
	return &Engine{homeAdvantage: homeAdvantage}
}

// HomeAdvantage returns the home rating bonus
func (e *Engine) HomeAdvantage() float64 {
	return e.homeAdvantage
}

// WithHomeAdvantage returns a copy of the engine using a different home bonus
func (e *Engine) WithHomeAdvantage(homeAdvantage float64) *Engine {
	return &Engine{homeAdvantage: homeAdvantage}
}

// ExpectedScore is the logistic win probability of a side rated rating
// against one rated opponent.
func ExpectedScore(rating, opponent float64) float64 {
	return 1 / (1 + math.Pow(10, (opponent-rating)/400))
}

// StreakFrom summarizes outcomes, which must be the most recent results in
// chronological order. Only the last StreakWindow entries count.
func StreakFrom(outcomes []models.GameOutcome) models.Streak {
	if len(outcomes) > StreakWindow {
		outcomes = outcomes[len(outcomes)-StreakWindow:]
	}

	var s models.Streak
	for _, o := range outcomes {
		if o.Won {
			s.Wins++
		} else {
			s.Losses++
		}
	}

	full := len(outcomes) >= StreakWindow
	s.IsHot = full && s.Wins >= streakThreshold
	s.IsCold = full && s.Losses >= streakThreshold
	return s
}

// MOVMultiplier returns the margin-of-victory adjustment credited to the
// winner and debited from the loser. It grows with ln(margin+1), rewards
// upsets, dampens hot winners, amplifies cold winners and is capped.
func MOVMultiplier(margin int, winnerRating, loserRating float64, winnerStreak models.Streak) float64 {
	if margin < 0 {
		margin = -margin
	}

	mov := math.Log(float64(margin)+1) * movScale
	if winnerRating < loserRating {
		mov *= upsetBonus
	}

	switch {
	case winnerStreak.IsHot:
		mov *= hotStreakFactor
	case winnerStreak.IsCold:
		mov *= coldStreakFactor
	}

	return math.Min(mov, maxMOVAdjustment)
}

// Streak returns the team's recent form
func (e *Engine) Streak(r Reader, teamID int) models.Streak {
	return StreakFrom(r.RecentOutcomes(teamID, StreakWindow))
}

// Predict returns win probabilities for a game at the home team's venue
func (e *Engine) Predict(r Reader, homeTeamID, awayTeamID int) *models.Prediction {
	homeRating := r.Rating(homeTeamID)
	awayRating := r.Rating(awayTeamID)

	homeProb := ExpectedScore(homeRating+e.homeAdvantage, awayRating)
	awayProb := 1 - homeProb

	return &models.Prediction{
		HomeTeamID:         homeTeamID,
		AwayTeamID:         awayTeamID,
		HomeWinProbability: homeProb,
		AwayWinProbability: awayProb,
		HomeRating:         homeRating,
		AwayRating:         awayRating,
		HomeStreak:         e.Streak(r, homeTeamID),
		AwayStreak:         e.Streak(r, awayTeamID),
		Confidence:         math.Max(homeProb, awayProb),
	}
}

// Update applies a completed game and returns the new home and away ratings.
// A tie is scored as a home loss.
func (e *Engine) Update(s Store, g Game) (newHome, newAway float64, err error) {
	if err := validateGame(g); err != nil {
		return 0, 0, err
	}

	homeRating := s.Rating(g.HomeTeamID)
	awayRating := s.Rating(g.AwayTeamID)
	homeStreak := e.Streak(s, g.HomeTeamID)
	awayStreak := e.Streak(s, g.AwayTeamID)

	expectedHome := ExpectedScore(homeRating+e.homeAdvantage, awayRating)
	expectedAway := 1 - expectedHome

	homeWon := g.HomeScore > g.AwayScore
	actualHome := 0.0
	if homeWon {
		actualHome = 1
	}
	actualAway := 1 - actualHome

	margin := g.HomeScore - g.AwayScore
	k := s.KFactor()

	var movHome, movAway float64
	if homeWon {
		mov := MOVMultiplier(margin, homeRating, awayRating, homeStreak)
		movHome, movAway = mov, -mov
	} else {
		mov := MOVMultiplier(margin, awayRating, homeRating, awayStreak)
		movHome, movAway = -mov, mov
	}

	newHome = homeRating + k*(actualHome-expectedHome) + movHome
	newAway = awayRating + k*(actualAway-expectedAway) + movAway

	s.SetRating(g.HomeTeamID, newHome)
	s.SetRating(g.AwayTeamID, newAway)

	date := models.NewTimestamp(g.Date)
	s.AppendOutcome(g.HomeTeamID, models.GameOutcome{Date: date, Won: homeWon, Margin: margin})
	s.AppendOutcome(g.AwayTeamID, models.GameOutcome{Date: date, Won: !homeWon, Margin: -margin})

	if !g.Date.IsZero() {
		s.AdvanceLastGameDate(g.Date)
		s.AppendSnapshot(g.HomeTeamID, models.RatingSnapshot{Date: date, Rating: newHome})
		s.AppendSnapshot(g.AwayTeamID, models.RatingSnapshot{Date: date, Rating: newAway})
	}

	return newHome, newAway, nil
}

func validateGame(g Game) error {
	if g.HomeTeamID == g.AwayTeamID {
		return models.NewValidationError("away_team_id", "a team cannot play itself")
	}
	if g.HomeScore < 0 {
		return models.NewValidationError("home_score", "score cannot be negative")
	}
	if g.AwayScore < 0 {
		return models.NewValidationError("away_score", "score cannot be negative")
	}
	return nil
}
