package models

import (
	"encoding/json"
	"fmt"
)

// TeamName is a directory entry mapping a display name to a team id.
// It encodes as a single-key object: {"Boston Celtics": 1610612738}.
type TeamName struct {
	Name string
	ID   int
}

// MarshalJSON implements json.Marshaler
func (t TeamName) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]int{t.Name: t.ID})
}

// UnmarshalJSON implements json.Unmarshaler
func (t *TeamName) UnmarshalJSON(data []byte) error {
	var entry map[string]int
	if err := json.Unmarshal(data, &entry); err != nil {
		return fmt.Errorf("failed to decode team name entry: %w", err)
	}
	if len(entry) != 1 {
		return fmt.Errorf("team name entry must have exactly one key, got %d", len(entry))
	}
	for name, id := range entry {
		t.Name = name
		t.ID = id
	}
	return nil
}
