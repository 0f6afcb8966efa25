package dataset

import (
	"strings"
	"testing"
	"time"

	"github.com/Nikiel54/nba-match-predictor/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const archive = `season_id,team_id_home,team_abbreviation_home,team_name_home,game_id,game_date,matchup_home,wl_home,pts_home,team_id_away,team_name_away,wl_away,pts_away
21977,1610612738,BOS,Boston Celtics,0027700001,1977-10-18 00:00:00,BOS vs. NYK,W,105.0,1610612752,New York Knicks,L,100.0
21985,1610612747,LAL,Los Angeles Lakers,0028500002,1985-10-26 00:00:00,LAL vs. DEN,W,120.0,1610612743,Denver Nuggets,L,110.0
21985,1610612738,BOS,Boston Celtics,0028500001,1985-10-25 00:00:00,BOS vs. NJN,W,113.0,1610612751,New Jersey Nets,L,109.0
41985,1610612738,BOS,Boston Celtics,0048500401,1986-06-08 00:00:00,BOS vs. HOU,W,114.0,1610612745,Houston Rockets,L,97.0
22022,1610612744,GSW,Golden State Warriors,0022200001,2022-10-18 00:00:00,GSW vs. LAL,W,123.0,1610612747,Los Angeles Lakers,L,109.0
22022,1610612744,GSW,Golden State Warriors,0022200002,2022-10-19 00:00:00,GSW vs. SAC,,,1610612758,Sacramento Kings,,
`

func TestLoad(t *testing.T) {
	records, err := Load(strings.NewReader(archive))
	require.NoError(t, err)
	require.Len(t, records, 6)

	first := records[0]
	assert.Equal(t, 21977, first.SeasonID)
	assert.Equal(t, "0027700001", first.GameID)
	assert.Equal(t, 1610612738, first.TeamIDHome)
	assert.Equal(t, "Boston Celtics", first.TeamNameHome)
	assert.Equal(t, "105.0", first.PtsHome)
	assert.Equal(t, "New York Knicks", first.TeamNameAway)
}

func TestLoadMissingColumn(t *testing.T) {
	_, err := Load(strings.NewReader("season_id,game_id\n21985,1\n"))
	require.Error(t, err)
	assert.True(t, models.IsValidation(err), "Missing game_date should be a validation error")
	assert.Contains(t, err.Error(), "game_date")
}

func TestLoadEmpty(t *testing.T) {
	records, err := Load(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestIsModernRegularSeason(t *testing.T) {
	assert.False(t, GameRecord{SeasonID: 21977}.IsModernRegularSeason(1978), "Before the start year")
	assert.True(t, GameRecord{SeasonID: 21978}.IsModernRegularSeason(1978))
	assert.True(t, GameRecord{SeasonID: 22023}.IsModernRegularSeason(1978))
	assert.False(t, GameRecord{SeasonID: 41985}.IsModernRegularSeason(1978), "Playoffs are excluded")
	assert.False(t, GameRecord{SeasonID: 12023}.IsModernRegularSeason(1978), "Preseason is excluded")
}

func TestModernGames(t *testing.T) {
	records, err := Load(strings.NewReader(archive))
	require.NoError(t, err)

	matchups, skipped := ModernGames(records, DefaultStartYear)
	assert.Equal(t, 1, skipped, "Row without scores should be skipped")
	require.Len(t, matchups, 3)

	assert.Equal(t, "0028500001", matchups[0].GameID, "Games should be ordered by date")
	assert.Equal(t, "0028500002", matchups[1].GameID)
	assert.Equal(t, "0022200001", matchups[2].GameID)

	m := matchups[0]
	assert.Equal(t, time.Date(1985, time.October, 25, 0, 0, 0, 0, time.UTC), m.GameDate)
	assert.Equal(t, 1610612738, m.Home.TeamID)
	assert.Equal(t, 1610612751, m.Away.TeamID)
	assert.Equal(t, 113, m.Home.Points)
	assert.Equal(t, 109, m.Away.Points)
	assert.Equal(t, 4, m.PointDifferential)
	assert.True(t, m.HomeWin)
	assert.False(t, m.AwayWin)
	assert.Equal(t, "21985", m.SeasonID)
}
