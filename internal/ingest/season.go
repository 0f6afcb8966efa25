package ingest

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// Mode selects which date window an ingestion run covers
type Mode string

const (
	// ModeCatchup covers the day after the last processed game through today
	ModeCatchup Mode = "catchup"
	// ModeDaily covers yesterday only
	ModeDaily Mode = "daily"
)

// seasonWalkStep is the stride used to enumerate seasons across a catchup window
const seasonWalkStep = 30

// ErrNoHighWaterMark is returned when catchup runs against a store with no processed games
var ErrNoHighWaterMark = errors.New("no last processed game date; bootstrap the store first")

// ParseMode converts a string to a Mode
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeCatchup, ModeDaily:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("unknown ingest mode %q", s)
	}
}

// SeasonFor returns the NBA season label containing date, e.g. "2024-25".
// Seasons roll over on October 1st.
func SeasonFor(date time.Time) string {
	year := date.Year()
	if date.Month() >= time.October {
		return fmt.Sprintf("%d-%02d", year, (year+1)%100)
	}
	return fmt.Sprintf("%d-%02d", year-1, year%100)
}

// SeasonStart returns October 1st of the first year of a season label such
// as "2024-25"
func SeasonStart(season string) (time.Time, error) {
	var first, second int
	if _, err := fmt.Sscanf(season, "%d-%d", &first, &second); err != nil {
		return time.Time{}, fmt.Errorf("invalid season label %q: %w", season, err)
	}
	return time.Date(first, time.October, 1, 0, 0, 0, 0, time.UTC), nil
}

// Window is the inclusive date range and seasons an ingestion run fetches
type Window struct {
	From    time.Time
	To      time.Time
	Seasons []string
}

// Empty reports whether the window has nothing to fetch
func (w Window) Empty() bool {
	return len(w.Seasons) == 0
}

// PlanWindow computes the fetch window for mode. lastProcessed is the store's
// high-water mark and now the current time.
func PlanWindow(mode Mode, lastProcessed, now time.Time) (Window, error) {
	today := calendarDay(now)

	switch mode {
	case ModeDaily:
		yesterday := today.AddDate(0, 0, -1)
		return Window{
			From:    yesterday,
			To:      yesterday,
			Seasons: []string{SeasonFor(yesterday)},
		}, nil

	case ModeCatchup:
		if lastProcessed.IsZero() {
			return Window{}, ErrNoHighWaterMark
		}

		last := calendarDay(lastProcessed)
		w := Window{From: last.AddDate(0, 0, 1), To: today}
		if w.From.After(w.To) {
			return w, nil
		}

		seen := make(map[string]struct{})
		for d := last; !d.After(today); d = d.AddDate(0, 0, seasonWalkStep) {
			seen[SeasonFor(d)] = struct{}{}
		}
		// The walk can step past the start of the current season
		seen[SeasonFor(today)] = struct{}{}

		for season := range seen {
			w.Seasons = append(w.Seasons, season)
		}
		sort.Strings(w.Seasons)
		return w, nil

	default:
		return Window{}, fmt.Errorf("unknown ingest mode %q", mode)
	}
}

// calendarDay returns midnight UTC of t's calendar date in t's own location
func calendarDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
