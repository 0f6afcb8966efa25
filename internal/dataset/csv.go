// Package dataset loads the historical game archive used to bootstrap ratings.
package dataset

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/Nikiel54/nba-match-predictor/internal/models"

	"github.com/gocarina/gocsv"
	"github.com/rs/zerolog/log"
)

// Season ids carry a type prefix: 2xxxx is a regular season
const (
	seasonIDYearFactor    = 10000
	regularSeasonPrefix   = 2
	regularSeasonUpperIDs = 30000
)

// DefaultStartYear is the first season of the modern era
const DefaultStartYear = 1978

// GameRecord is one row of the historical game archive, one row per game
type GameRecord struct {
	SeasonID     int    `csv:"season_id"`
	GameID       string `csv:"game_id"`
	GameDate     string `csv:"game_date"`
	TeamIDHome   int    `csv:"team_id_home"`
	TeamNameHome string `csv:"team_name_home"`
	PtsHome      string `csv:"pts_home"`
	WLHome       string `csv:"wl_home"`
	TeamIDAway   int    `csv:"team_id_away"`
	TeamNameAway string `csv:"team_name_away"`
	PtsAway      string `csv:"pts_away"`
	WLAway       string `csv:"wl_away"`
}

var requiredColumns = []string{
	"game_date", "season_id", "game_id",
	"team_id_home", "team_name_home", "pts_home", "wl_home",
	"team_id_away", "team_name_away", "pts_away", "wl_away",
}

// LoadFile reads the archive at path
func LoadFile(path string) ([]GameRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	return Load(f)
}

// Load decodes the archive, failing with a ValidationError when a required
// column is absent.
func Load(r io.Reader) ([]GameRecord, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read archive: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	header, err := csv.NewReader(bytes.NewReader(data)).Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	present := make(map[string]struct{}, len(header))
	for _, col := range header {
		present[strings.TrimSpace(col)] = struct{}{}
	}
	for _, col := range requiredColumns {
		if _, ok := present[col]; !ok {
			return nil, models.NewValidationError(col, fmt.Sprintf("expected column, got %v", header))
		}
	}

	var records []GameRecord
	if err := gocsv.UnmarshalBytes(data, &records); err != nil {
		return nil, fmt.Errorf("failed to decode archive: %w", err)
	}
	return records, nil
}

// IsModernRegularSeason reports whether the record is a regular-season game
// from startYear onwards.
func (g GameRecord) IsModernRegularSeason(startYear int) bool {
	cutoff := regularSeasonPrefix*seasonIDYearFactor + startYear
	return g.SeasonID >= cutoff && g.SeasonID < regularSeasonUpperIDs
}

// ModernGames converts modern regular-season records into matchups ordered by
// date. Records with an unreadable date or score are skipped and counted.
func ModernGames(records []GameRecord, startYear int) ([]*models.Matchup, int) {
	matchups := make([]*models.Matchup, 0, len(records))
	skipped := 0

	for _, rec := range records {
		if !rec.IsModernRegularSeason(startYear) {
			continue
		}

		m, err := rec.toMatchup()
		if err != nil {
			skipped++
			log.Debug().Err(err).Str("game_id", rec.GameID).Msg("Skipping archive row")
			continue
		}
		matchups = append(matchups, m)
	}

	sort.SliceStable(matchups, func(i, j int) bool {
		return matchups[i].GameDate.Before(matchups[j].GameDate)
	})

	return matchups, skipped
}

func (g GameRecord) toMatchup() (*models.Matchup, error) {
	date, err := models.ParseDate(strings.TrimSpace(g.GameDate))
	if err != nil {
		return nil, models.NewValidationError("game_date", err.Error())
	}
	homePts, err := parsePoints(g.PtsHome)
	if err != nil {
		return nil, models.NewValidationError("pts_home", err.Error())
	}
	awayPts, err := parsePoints(g.PtsAway)
	if err != nil {
		return nil, models.NewValidationError("pts_away", err.Error())
	}

	home := models.TeamLine{TeamID: g.TeamIDHome, TeamName: g.TeamNameHome, WL: g.WLHome, Points: homePts}
	away := models.TeamLine{TeamID: g.TeamIDAway, TeamName: g.TeamNameAway, WL: g.WLAway, Points: awayPts}

	return &models.Matchup{
		GameID:            g.GameID,
		GameDate:          date,
		SeasonID:          strconv.Itoa(g.SeasonID),
		Home:              home,
		Away:              away,
		HomeWin:           home.Won(),
		AwayWin:           away.Won(),
		PointDifferential: homePts - awayPts,
	}, nil
}

// parsePoints accepts integer or float-formatted scores such as "112.0"
func parsePoints(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty score")
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	return int(f), nil
}
