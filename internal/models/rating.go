package models

// GameOutcome is one entry of a team's recent results
type GameOutcome struct {
	Date   Timestamp `json:"date"`
	Won    bool      `json:"won"`
	Margin int       `json:"margin"`
}

// RatingSnapshot records a team's rating right after a dated game
type RatingSnapshot struct {
	Date   Timestamp `json:"date"`
	Rating float64   `json:"rating"`
}

// Streak summarizes a team's most recent results
type Streak struct {
	Wins   int  `json:"wins"`
	Losses int  `json:"losses"`
	IsHot  bool `json:"is_hot"`
	IsCold bool `json:"is_cold"`
}

// Prediction is the win-probability forecast for a matchup
type Prediction struct {
	HomeTeamID         int     `json:"home_team_id"`
	AwayTeamID         int     `json:"away_team_id"`
	HomeWinProbability float64 `json:"home_win_probability"`
	AwayWinProbability float64 `json:"away_win_probability"`
	HomeRating         float64 `json:"home_rating"`
	AwayRating         float64 `json:"away_rating"`
	HomeStreak         Streak  `json:"home_streak"`
	AwayStreak         Streak  `json:"away_streak"`
	Confidence         float64 `json:"confidence"`
}
