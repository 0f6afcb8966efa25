package repository

import (
	"time"

	"github.com/Nikiel54/nba-match-predictor/internal/models"
)

// History bounds per team
const (
	MaxGameHistory   = 10
	MaxRatingHistory = 50
)

// state is the unsynchronized rating state guarded by RatingStore
type state struct {
	kFactor    float64
	baseRating float64

	ratings       map[int]float64
	teamNames     []models.TeamName
	namedTeams    map[int]struct{}
	gameHistory   map[int][]models.GameOutcome
	ratingHistory map[int][]models.RatingSnapshot
	lastGameDate  time.Time
}

func newState(kFactor, baseRating float64) *state {
	return &state{
		kFactor:       kFactor,
		baseRating:    baseRating,
		ratings:       make(map[int]float64),
		namedTeams:    make(map[int]struct{}),
		gameHistory:   make(map[int][]models.GameOutcome),
		ratingHistory: make(map[int][]models.RatingSnapshot),
	}
}

func (st *state) rating(teamID int) float64 {
	if r, ok := st.ratings[teamID]; ok {
		return r
	}
	return st.baseRating
}

func (st *state) recentOutcomes(teamID, n int) []models.GameOutcome {
	if n <= 0 {
		return nil
	}
	history := st.gameHistory[teamID]
	if n < len(history) {
		history = history[len(history)-n:]
	}
	return append([]models.GameOutcome(nil), history...)
}

func (st *state) appendOutcome(teamID int, outcome models.GameOutcome) {
	st.gameHistory[teamID] = appendBounded(st.gameHistory[teamID], outcome, MaxGameHistory)
}

func (st *state) appendSnapshot(teamID int, snapshot models.RatingSnapshot) {
	st.ratingHistory[teamID] = appendBounded(st.ratingHistory[teamID], snapshot, MaxRatingHistory)
}

func (st *state) advanceLastGameDate(date time.Time) bool {
	if date.IsZero() {
		return false
	}
	date = models.NewTimestamp(date).Time
	if st.lastGameDate.IsZero() || date.After(st.lastGameDate) {
		st.lastGameDate = date
		return true
	}
	return false
}

func (st *state) registerTeam(teamID int, name string) bool {
	if name == "" {
		return false
	}
	if _, ok := st.namedTeams[teamID]; ok {
		return false
	}
	st.namedTeams[teamID] = struct{}{}
	st.teamNames = append(st.teamNames, models.TeamName{Name: name, ID: teamID})
	return true
}

func (st *state) clone() *state {
	c := &state{
		kFactor:       st.kFactor,
		baseRating:    st.baseRating,
		ratings:       make(map[int]float64, len(st.ratings)),
		teamNames:     append([]models.TeamName(nil), st.teamNames...),
		namedTeams:    make(map[int]struct{}, len(st.namedTeams)),
		gameHistory:   make(map[int][]models.GameOutcome, len(st.gameHistory)),
		ratingHistory: make(map[int][]models.RatingSnapshot, len(st.ratingHistory)),
		lastGameDate:  st.lastGameDate,
	}
	for id, r := range st.ratings {
		c.ratings[id] = r
	}
	for id := range st.namedTeams {
		c.namedTeams[id] = struct{}{}
	}
	for id, h := range st.gameHistory {
		c.gameHistory[id] = append([]models.GameOutcome(nil), h...)
	}
	for id, h := range st.ratingHistory {
		c.ratingHistory[id] = append([]models.RatingSnapshot(nil), h...)
	}
	return c
}

// lastN copies the newest limit entries of history
func lastN[T any](history []T, limit int) []T {
	if len(history) > limit {
		history = history[len(history)-limit:]
	}
	return append([]T(nil), history...)
}

// appendBounded appends v and evicts the oldest entries beyond limit
func appendBounded[T any](history []T, v T, limit int) []T {
	history = append(history, v)
	if len(history) > limit {
		history = append([]T(nil), history[len(history)-limit:]...)
	}
	return history
}
