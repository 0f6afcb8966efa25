package ingest

import (
	"time"

	"github.com/Nikiel54/nba-match-predictor/internal/models"
)

// Rejection is a game dropped during normalization
type Rejection struct {
	GameID string
	Rows   int
}

// Normalize pairs per-team rows into one matchup per game, in order of each
// game's first row. The row whose matchup contains "@" is the away side;
// when neither does, the first row is taken as home. Games without exactly
// two rows are returned as rejections.
func Normalize(rows []models.GameLogRow) ([]*models.Matchup, []Rejection) {
	var order []string
	byGame := make(map[string][]models.GameLogRow)

	for _, row := range rows {
		if _, ok := byGame[row.GameID]; !ok {
			order = append(order, row.GameID)
		}
		byGame[row.GameID] = append(byGame[row.GameID], row)
	}

	matchups := make([]*models.Matchup, 0, len(order))
	var rejected []Rejection

	for _, gameID := range order {
		pair := byGame[gameID]
		if len(pair) != 2 {
			rejected = append(rejected, Rejection{GameID: gameID, Rows: len(pair)})
			continue
		}

		home, away := pair[0], pair[1]
		if home.IsAway() {
			home, away = away, home
		}
		matchups = append(matchups, models.NewMatchup(home, away))
	}

	return matchups, rejected
}

// FilterAfter keeps rows dated strictly after last. A zero last keeps everything.
func FilterAfter(rows []models.GameLogRow, last time.Time) []models.GameLogRow {
	if last.IsZero() {
		return rows
	}

	kept := make([]models.GameLogRow, 0, len(rows))
	for _, row := range rows {
		if row.GameDate.After(last) {
			kept = append(kept, row)
		}
	}
	return kept
}
