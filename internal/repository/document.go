package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/Nikiel54/nba-match-predictor/internal/models"
)

// ErrDocumentNotFound is returned by a Backend when nothing has been saved yet
var ErrDocumentNotFound = errors.New("ratings document not found")

// Backend persists the ratings document
type Backend interface {
	LoadDocument(ctx context.Context) (*Document, error)
	SaveDocument(ctx context.Context, doc *Document) error
}

// Document is the persisted form of a RatingStore. Team ids are string keys.
type Document struct {
	Ratings       map[string]float64                 `json:"ratings"`
	TeamNames     []models.TeamName                  `json:"team_names"`
	LastGameDate  models.Timestamp                   `json:"last_game_date"`
	RatingHistory map[string][]models.RatingSnapshot `json:"rating_history"`
	GameHistory   map[string][]models.GameOutcome    `json:"game_history"`
	InitialRating float64                            `json:"initial_rating"`
	KFactor       float64                            `json:"k_factor,omitempty"`
	LastUpdated   models.Timestamp                   `json:"last_updated"`
}

func newDocument(st *state, savedAt time.Time) *Document {
	doc := &Document{
		Ratings:       make(map[string]float64, len(st.ratings)),
		TeamNames:     append([]models.TeamName{}, st.teamNames...),
		LastGameDate:  models.NewTimestamp(st.lastGameDate),
		RatingHistory: make(map[string][]models.RatingSnapshot, len(st.ratingHistory)),
		GameHistory:   make(map[string][]models.GameOutcome, len(st.gameHistory)),
		InitialRating: st.baseRating,
		KFactor:       st.kFactor,
		LastUpdated:   models.NewTimestamp(savedAt),
	}
	for id, r := range st.ratings {
		doc.Ratings[strconv.Itoa(id)] = r
	}
	for id, h := range st.ratingHistory {
		doc.RatingHistory[strconv.Itoa(id)] = append([]models.RatingSnapshot(nil), h...)
	}
	for id, h := range st.gameHistory {
		doc.GameHistory[strconv.Itoa(id)] = append([]models.GameOutcome(nil), h...)
	}
	return doc
}

// toState rebuilds in-memory state. Values absent from the document keep the
// configured defaults.
func (d *Document) toState(kFactor, baseRating float64) (*state, error) {
	if d.KFactor > 0 {
		kFactor = d.KFactor
	}
	if d.InitialRating > 0 {
		baseRating = d.InitialRating
	}
	st := newState(kFactor, baseRating)
	st.lastGameDate = d.LastGameDate.Time

	for key, r := range d.Ratings {
		id, err := parseTeamKey(key)
		if err != nil {
			return nil, err
		}
		st.ratings[id] = r
	}
	for key, h := range d.RatingHistory {
		id, err := parseTeamKey(key)
		if err != nil {
			return nil, err
		}
		st.ratingHistory[id] = lastN(h, MaxRatingHistory)
	}
	for key, h := range d.GameHistory {
		id, err := parseTeamKey(key)
		if err != nil {
			return nil, err
		}
		st.gameHistory[id] = lastN(h, MaxGameHistory)
	}
	for _, tn := range d.TeamNames {
		st.registerTeam(tn.ID, tn.Name)
	}

	return st, nil
}

func parseTeamKey(key string) (int, error) {
	id, err := strconv.Atoi(key)
	if err != nil {
		return 0, fmt.Errorf("invalid team id key %q: %w", key, err)
	}
	return id, nil
}
