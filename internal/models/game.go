package models

import (
	"strings"
	"time"
)

// TeamLine is one team's box-score line for a single game
type TeamLine struct {
	TeamID           int    `json:"team_id"`
	TeamName         string `json:"team_name"`
	TeamAbbreviation string `json:"team_abbreviation"`
	WL               string `json:"wl"`
	Points           int    `json:"pts"`

	// Shooting
	FGM    int     `json:"fgm"`
	FGA    int     `json:"fga"`
	FGPct  float64 `json:"fg_pct"`
	FG3M   int     `json:"fg3m"`
	FG3A   int     `json:"fg3a"`
	FG3Pct float64 `json:"fg3_pct"`
	FTM    int     `json:"ftm"`
	FTA    int     `json:"fta"`
	FTPct  float64 `json:"ft_pct"`

	// Rebounding, playmaking, turnovers
	OREB int `json:"oreb"`
	DREB int `json:"dreb"`
	REB  int `json:"reb"`
	AST  int `json:"ast"`
	STL  int `json:"stl"`
	BLK  int `json:"blk"`
	TOV  int `json:"tov"`
	PF   int `json:"pf"`
}

// Won returns true if the line is marked as a win
func (l TeamLine) Won() bool {
	return l.WL == "W"
}

// GameLogRow is a raw per-team-per-game record from the game-log provider.
// Every game appears twice, once per participant.
type GameLogRow struct {
	GameID   string    `json:"game_id"`
	GameDate time.Time `json:"game_date"`
	SeasonID string    `json:"season_id"`
	// Matchup reads "BOS vs. NYK" for the home side and "NYK @ BOS" for the away side
	Matchup string `json:"matchup"`

	TeamLine
}

// IsAway returns true if the row describes the visiting team
func (r GameLogRow) IsAway() bool {
	return strings.Contains(r.Matchup, "@")
}

// Matchup is one normalized record per game, with home and away resolved
type Matchup struct {
	GameID   string    `json:"game_id"`
	GameDate time.Time `json:"game_date"`
	SeasonID string    `json:"season_id"`

	Home TeamLine `json:"home"`
	Away TeamLine `json:"away"`

	// Derived fields
	HomeWin           bool `json:"home_win"`
	AwayWin           bool `json:"away_win"`
	PointDifferential int  `json:"point_differential"`
}

// NewMatchup pairs a home row with an away row for the same game
func NewMatchup(home, away GameLogRow) *Matchup {
	return &Matchup{
		GameID:            home.GameID,
		GameDate:          home.GameDate,
		SeasonID:          home.SeasonID,
		Home:              home.TeamLine,
		Away:              away.TeamLine,
		HomeWin:           home.Won(),
		AwayWin:           away.Won(),
		PointDifferential: home.Points - away.Points,
	}
}
