package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Nikiel54/nba-match-predictor/internal/metrics"
	"github.com/Nikiel54/nba-match-predictor/internal/models"

	"github.com/rs/zerolog/log"
)

const (
	gameLogEndpoint = "leaguegamelog"
	queryDateLayout = "01/02/2006"
)

// Client fetches team game logs from the NBA stats API
type Client struct {
	baseURL     string
	seasonType  string
	httpClient  *http.Client
	rateLimiter chan struct{} // Rate limiting semaphore
	maxRetries  int
	retryDelay  time.Duration
}

// NewClient creates a new stats API client
func NewClient(baseURL, seasonType string, timeout time.Duration) *Client {
	// The stats API throttles aggressively, keep concurrency low
	rateLimiter := make(chan struct{}, 2)
	for i := 0; i < cap(rateLimiter); i++ {
		rateLimiter <- struct{}{}
	}

	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		seasonType:  seasonType,
		rateLimiter: rateLimiter,
		maxRetries:  3,
		retryDelay:  1 * time.Second,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 2,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// get performs a GET request with retry logic and rate limiting
func (c *Client) get(ctx context.Context, path string, params map[string]string) ([]byte, error) {
	url := fmt.Sprintf("%s/%s", c.baseURL, path)

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			// Exponential backoff: 1s, 2s, 4s
			backoff := c.retryDelay * time.Duration(1<<uint(attempt-1))
			log.Info().
				Str("url", url).
				Int("attempt", attempt).
				Dur("backoff", backoff).
				Msg("Retrying API request after backoff")

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		body, status, err := c.do(ctx, url, params, attempt)
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			continue
		}

		switch {
		case status == http.StatusOK:
			log.Debug().
				Str("url", url).
				Int("status", status).
				Int("size", len(body)).
				Msg("API request successful")
			return body, nil

		case status == http.StatusTooManyRequests || status >= http.StatusInternalServerError:
			lastErr = fmt.Errorf("API returned retryable status %d: %s", status, truncate(body))
			log.Warn().
				Str("url", url).
				Int("status", status).
				Int("attempt", attempt+1).
				Msg("Received retryable error, will retry")

		default:
			// Other errors - don't retry
			return nil, fmt.Errorf("API returned status %d: %s", status, truncate(body))
		}
	}

	return nil, lastErr
}

// do performs a single attempt holding one rate limiter slot
func (c *Client) do(ctx context.Context, url string, params map[string]string, attempt int) ([]byte, int, error) {
	select {
	case <-ctx.Done():
		return nil, 0, ctx.Err()
	case <-c.rateLimiter:
	}
	defer func() { c.rateLimiter <- struct{}{} }()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}

	// The stats API rejects requests that don't look like they come from its site
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; nba-match-predictor/1.0)")
	req.Header.Set("Referer", "https://www.nba.com/")
	req.Header.Set("Origin", "https://www.nba.com")
	req.Header.Set("x-nba-stats-origin", "stats")
	req.Header.Set("x-nba-stats-token", "true")

	if len(params) > 0 {
		q := req.URL.Query()
		for key, value := range params {
			q.Add(key, value)
		}
		req.URL.RawQuery = q.Encode()
	}

	log.Debug().
		Str("url", url).
		Str("method", req.Method).
		Int("attempt", attempt+1).
		Msg("Making API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read response body: %w", err)
	}

	return body, resp.StatusCode, nil
}

// FetchGameLog fetches every team game row for season between from and to inclusive
func (c *Client) FetchGameLog(ctx context.Context, season string, from, to time.Time) ([]models.GameLogRow, error) {
	params := map[string]string{
		"Counter":      "0",
		"Direction":    "ASC",
		"LeagueID":     "00",
		"PlayerOrTeam": "T",
		"Season":       season,
		"SeasonType":   c.seasonType,
		"Sorter":       "DATE",
	}
	if !from.IsZero() {
		params["DateFrom"] = from.Format(queryDateLayout)
	}
	if !to.IsZero() {
		params["DateTo"] = to.Format(queryDateLayout)
	}

	start := time.Now()
	body, err := c.get(ctx, gameLogEndpoint, params)
	if err != nil {
		metrics.RecordAPICall(gameLogEndpoint, "error", time.Since(start).Seconds())
		return nil, fmt.Errorf("failed to fetch game log for %s: %w", season, err)
	}
	metrics.RecordAPICall(gameLogEndpoint, "success", time.Since(start).Seconds())

	rows, err := decodeGameLog(body)
	if err != nil {
		return nil, fmt.Errorf("failed to decode game log for %s: %w", season, err)
	}

	log.Debug().
		Str("season", season).
		Int("rows", len(rows)).
		Msg("Fetched game log")

	return rows, nil
}

func truncate(body []byte) string {
	const limit = 256
	if len(body) > limit {
		return string(body[:limit]) + "..."
	}
	return string(body)
}

// gameLogResponse is the tabular envelope returned by the stats API
type gameLogResponse struct {
	ResultSets []resultSet `json:"resultSets"`
}

type resultSet struct {
	Name    string          `json:"name"`
	Headers []string        `json:"headers"`
	RowSet  [][]interface{} `json:"rowSet"`
}

var requiredGameLogColumns = []string{
	"SEASON_ID", "TEAM_ID", "TEAM_NAME", "GAME_ID", "GAME_DATE", "MATCHUP", "WL", "PTS",
}

func decodeGameLog(body []byte) ([]models.GameLogRow, error) {
	var resp gameLogResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if len(resp.ResultSets) == 0 {
		return nil, models.NewValidationError("resultSets", "response has no result sets")
	}

	set := resp.ResultSets[0]
	index := make(map[string]int, len(set.Headers))
	for i, h := range set.Headers {
		index[strings.ToUpper(h)] = i
	}
	for _, col := range requiredGameLogColumns {
		if _, ok := index[col]; !ok {
			return nil, models.NewValidationError(col, "missing column")
		}
	}

	rows := make([]models.GameLogRow, 0, len(set.RowSet))
	for n, values := range set.RowSet {
		r := rowReader{index: index, values: values}

		gameDate, err := models.ParseDate(r.str("GAME_DATE"))
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", n, err)
		}

		rows = append(rows, models.GameLogRow{
			GameID:   r.str("GAME_ID"),
			GameDate: gameDate,
			SeasonID: r.str("SEASON_ID"),
			Matchup:  r.str("MATCHUP"),
			TeamLine: models.TeamLine{
				TeamID:           r.integer("TEAM_ID"),
				TeamName:         r.str("TEAM_NAME"),
				TeamAbbreviation: r.str("TEAM_ABBREVIATION"),
				WL:               r.str("WL"),
				Points:           r.integer("PTS"),
				FGM:              r.integer("FGM"),
				FGA:              r.integer("FGA"),
				FGPct:            r.number("FG_PCT"),
				FG3M:             r.integer("FG3M"),
				FG3A:             r.integer("FG3A"),
				FG3Pct:           r.number("FG3_PCT"),
				FTM:              r.integer("FTM"),
				FTA:              r.integer("FTA"),
				FTPct:            r.number("FT_PCT"),
				OREB:             r.integer("OREB"),
				DREB:             r.integer("DREB"),
				REB:              r.integer("REB"),
				AST:              r.integer("AST"),
				STL:              r.integer("STL"),
				BLK:              r.integer("BLK"),
				TOV:              r.integer("TOV"),
				PF:               r.integer("PF"),
			},
		})
	}

	return rows, nil
}

// rowReader reads loosely typed cells by column name. Absent or null cells read as zero.
type rowReader struct {
	index  map[string]int
	values []interface{}
}

func (r rowReader) cell(col string) interface{} {
	i, ok := r.index[col]
	if !ok || i >= len(r.values) {
		return nil
	}
	return r.values[i]
}

func (r rowReader) str(col string) string {
	switch v := r.cell(col).(type) {
	case string:
		return v
	case float64:
		return fmt.Sprintf("%.0f", v)
	default:
		return ""
	}
}

func (r rowReader) number(col string) float64 {
	switch v := r.cell(col).(type) {
	case float64:
		return v
	case string:
		var f float64
		fmt.Sscan(v, &f)
		return f
	default:
		return 0
	}
}

func (r rowReader) integer(col string) int {
	return int(r.number(col))
}
