package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Nikiel54/nba-match-predictor/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const gameLogBody = `{
  "resource": "leaguegamelog",
  "resultSets": [{
    "name": "LeagueGameLog",
    "headers": ["SEASON_ID","TEAM_ID","TEAM_ABBREVIATION","TEAM_NAME","GAME_ID","GAME_DATE","MATCHUP","WL","MIN","FGM","FGA","FG_PCT","FG3M","FG3A","FG3_PCT","FTM","FTA","FT_PCT","OREB","DREB","REB","AST","STL","BLK","TOV","PF","PTS","PLUS_MINUS","VIDEO_AVAILABLE"],
    "rowSet": [
      ["22024",1610612738,"BOS","Boston Celtics","0022400061","2024-10-22","BOS vs. NYK","W",240,48,95,0.505,29,61,0.475,7,8,0.875,10,36,46,33,4,3,9,13,132,23,1],
      ["22024",1610612752,"NYK","New York Knicks","0022400061","2024-10-22","NYK @ BOS","L",240,43,95,0.453,16,41,0.39,7,9,0.778,9,32,41,22,6,3,9,17,109,-23,1]
    ]
  }]
}`

func newTestClient(url string) *Client {
	c := NewClient(url, "Regular Season", 5*time.Second)
	c.retryDelay = time.Millisecond
	return c
}

func TestFetchGameLog(t *testing.T) {
	var query map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/leaguegamelog", r.URL.Path)
		assert.Equal(t, "stats", r.Header.Get("x-nba-stats-origin"))

		query = map[string]string{}
		for k := range r.URL.Query() {
			query[k] = r.URL.Query().Get(k)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(gameLogBody))
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	from := time.Date(2024, time.October, 22, 0, 0, 0, 0, time.UTC)

	rows, err := c.FetchGameLog(context.Background(), "2024-25", from, from)
	require.NoError(t, err)

	assert.Equal(t, "2024-25", query["Season"])
	assert.Equal(t, "Regular Season", query["SeasonType"])
	assert.Equal(t, "T", query["PlayerOrTeam"])
	assert.Equal(t, "10/22/2024", query["DateFrom"])
	assert.Equal(t, "10/22/2024", query["DateTo"])
	assert.Equal(t, "ASC", query["Direction"])

	require.Len(t, rows, 2)
	home := rows[0]
	assert.Equal(t, "0022400061", home.GameID)
	assert.Equal(t, from, home.GameDate)
	assert.Equal(t, "22024", home.SeasonID)
	assert.Equal(t, 1610612738, home.TeamID)
	assert.Equal(t, "Boston Celtics", home.TeamName)
	assert.Equal(t, "BOS", home.TeamAbbreviation)
	assert.Equal(t, 132, home.Points)
	assert.Equal(t, 46, home.REB)
	assert.InDelta(t, 0.505, home.FGPct, 1e-9)
	assert.True(t, home.Won())
	assert.False(t, home.IsAway())
	assert.True(t, rows[1].IsAway())
}

func TestFetchGameLogRetriesThrottling(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(gameLogBody))
	}))
	defer server.Close()

	rows, err := newTestClient(server.URL).FetchGameLog(context.Background(), "2024-25", time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Len(t, rows, 2)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls), "Should succeed on the third attempt")
}

func TestFetchGameLogGivesUpAfterRetries(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).FetchGameLog(context.Background(), "2024-25", time.Time{}, time.Time{})
	require.Error(t, err)
	assert.Equal(t, int32(4), atomic.LoadInt32(&calls), "Should make one attempt plus three retries")
}

func TestFetchGameLogDoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).FetchGameLog(context.Background(), "2024-25", time.Time{}, time.Time{})
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestDecodeGameLogMissingColumn(t *testing.T) {
	body := `{"resultSets":[{"name":"LeagueGameLog","headers":["TEAM_ID","GAME_ID"],"rowSet":[]}]}`

	_, err := decodeGameLog([]byte(body))
	require.Error(t, err)
	assert.True(t, models.IsValidation(err), "Missing column should be a validation error")
}

func TestDecodeGameLogNullCells(t *testing.T) {
	body := `{"resultSets":[{"headers":["SEASON_ID","TEAM_ID","TEAM_NAME","GAME_ID","GAME_DATE","MATCHUP","WL","PTS"],
		"rowSet":[["22024",1610612738,"Boston Celtics","0022400999","2024-11-01","BOS vs. MIA",null,null]]}]}`

	rows, err := decodeGameLog([]byte(body))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "", rows[0].WL)
	assert.Equal(t, 0, rows[0].Points)
}
