package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// isoLayout matches the naive ISO-8601 date-time written to the ratings document
const isoLayout = "2006-01-02T15:04:05"

var dateLayouts = []string{
	isoLayout,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	time.RFC3339Nano,
	"2006-01-02",
	"01/02/2006",
}

// Timestamp is a UTC, second-precision instant that encodes as an ISO-8601
// string, or null when unset.
type Timestamp struct {
	time.Time
}

// NewTimestamp normalizes t to UTC with second precision
func NewTimestamp(t time.Time) Timestamp {
	if t.IsZero() {
		return Timestamp{}
	}
	return Timestamp{Time: t.UTC().Truncate(time.Second)}
}

// ParseDate parses the date formats produced by the game-log provider, the
// historical CSV and the ratings document. The result is always UTC.
func ParseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date format: %q", s)
}

// String returns the ISO-8601 form, or an empty string when unset
func (t Timestamp) String() string {
	if t.IsZero() {
		return ""
	}
	return t.Time.Format(isoLayout)
}

// MarshalJSON implements json.Marshaler
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.String())
}

// UnmarshalJSON implements json.Unmarshaler
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*t = Timestamp{}
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("failed to decode timestamp: %w", err)
	}
	if s == "" {
		*t = Timestamp{}
		return nil
	}

	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*t = NewTimestamp(parsed)
	return nil
}
