package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Nikiel54/nba-match-predictor/internal/models"

	"github.com/rs/zerolog/log"
)

var errNoBackend = errors.New("ratings store has no backend")

// RatingStore owns all team rating state: current ratings, bounded per-team
// histories, the team name directory and the last processed game date.
// It is safe for concurrent use; callers that need a consistent multi-value
// read use View.
type RatingStore struct {
	mu      sync.RWMutex
	st      *state
	backend Backend
}

// NewRatingStore creates an empty store persisted through backend
func NewRatingStore(backend Backend, kFactor, baseRating float64) *RatingStore {
	return &RatingStore{
		st:      newState(kFactor, baseRating),
		backend: backend,
	}
}

// View is a read-only handle on the store's state, valid only inside View's callback
type View struct {
	st *state
}

// Rating returns the team's rating, or the base rating for an unseen team
func (v *View) Rating(teamID int) float64 {
	return v.st.rating(teamID)
}

// RecentOutcomes returns up to n of the team's most recent outcomes, oldest first
func (v *View) RecentOutcomes(teamID, n int) []models.GameOutcome {
	return v.st.recentOutcomes(teamID, n)
}

// View runs fn with the read lock held
func (s *RatingStore) View(fn func(v *View)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(&View{st: s.st})
}

// KFactor returns the k-factor used for rating deltas
func (s *RatingStore) KFactor() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.kFactor
}

// BaseRating returns the rating assigned to unseen teams
func (s *RatingStore) BaseRating() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.baseRating
}

// Rating returns the team's current rating, falling back to the base rating
func (s *RatingStore) Rating(teamID int) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.rating(teamID)
}

// Ratings returns a copy of every known rating
func (s *RatingStore) Ratings() map[int]float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ratings := make(map[int]float64, len(s.st.ratings))
	for id, r := range s.st.ratings {
		ratings[id] = r
	}
	return ratings
}

// TeamNames returns the name directory in registration order
func (s *RatingStore) TeamNames() []models.TeamName {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.TeamName{}, s.st.teamNames...)
}

// RecentOutcomes returns up to n of the team's most recent outcomes, oldest first
func (s *RatingStore) RecentOutcomes(teamID, n int) []models.GameOutcome {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.recentOutcomes(teamID, n)
}

// GameHistory returns the team's full bounded outcome history
func (s *RatingStore) GameHistory(teamID int) []models.GameOutcome {
	return s.RecentOutcomes(teamID, MaxGameHistory)
}

// RatingHistory returns the team's bounded rating snapshots, oldest first
func (s *RatingStore) RatingHistory(teamID int) []models.RatingSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.RatingSnapshot(nil), s.st.ratingHistory[teamID]...)
}

// LastGameDate returns the newest applied game date, zero if none
func (s *RatingStore) LastGameDate() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.lastGameDate
}

// SetRating overwrites a team's rating
func (s *RatingStore) SetRating(teamID int, rating float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.ratings[teamID] = rating
}

// AppendOutcome records a game outcome, evicting the oldest beyond MaxGameHistory
func (s *RatingStore) AppendOutcome(teamID int, outcome models.GameOutcome) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.appendOutcome(teamID, outcome)
}

// AppendSnapshot records a rating snapshot, evicting the oldest beyond MaxRatingHistory
func (s *RatingStore) AppendSnapshot(teamID int, snapshot models.RatingSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.appendSnapshot(teamID, snapshot)
}

// AdvanceLastGameDate moves the high-water mark forward; older dates are ignored
func (s *RatingStore) AdvanceLastGameDate(date time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.advanceLastGameDate(date)
}

// RegisterTeam adds a name directory entry the first time a team id is seen
func (s *RatingStore) RegisterTeam(teamID int, name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.registerTeam(teamID, name)
}

// Clone returns an independent working copy sharing the same backend
func (s *RatingStore) Clone() *RatingStore {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return &RatingStore{st: s.st.clone(), backend: s.backend}
}

// Replace atomically swaps in the state of other. other must not be used afterwards.
func (s *RatingStore) Replace(other *RatingStore) {
	other.mu.Lock()
	st := other.st
	other.st = newState(st.kFactor, st.baseRating)
	other.mu.Unlock()

	s.mu.Lock()
	s.st = st
	s.mu.Unlock()
}

// Load replaces the in-memory state with the persisted document.
// A missing document leaves the store empty.
func (s *RatingStore) Load(ctx context.Context) error {
	if s.backend == nil {
		return errNoBackend
	}

	doc, err := s.backend.LoadDocument(ctx)
	if errors.Is(err, ErrDocumentNotFound) {
		log.Info().Msg("No ratings document found, starting with an empty store")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load ratings document: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := doc.toState(s.st.kFactor, s.st.baseRating)
	if err != nil {
		return fmt.Errorf("failed to decode ratings document: %w", err)
	}
	s.st = st

	log.Info().
		Int("teams", len(st.ratings)).
		Time("last_game_date", st.lastGameDate).
		Str("last_updated", doc.LastUpdated.String()).
		Msg("Ratings loaded")

	return nil
}

// Save writes the full state as a single document, overwriting any prior one
func (s *RatingStore) Save(ctx context.Context) error {
	if s.backend == nil {
		return errNoBackend
	}

	s.mu.RLock()
	doc := newDocument(s.st, time.Now())
	s.mu.RUnlock()

	if err := s.backend.SaveDocument(ctx, doc); err != nil {
		return fmt.Errorf("failed to save ratings document: %w", err)
	}

	log.Info().
		Int("teams", len(doc.Ratings)).
		Str("last_game_date", doc.LastGameDate.String()).
		Msg("Ratings saved")

	return nil
}
