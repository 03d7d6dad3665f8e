package models

import (
	"database/sql"
	"time"

	json "github.com/goccy/go-json"
)

// Analysis is the persisted result of one classification tick.
// The sequence of analyses for a session fully determines its intervals.
type Analysis struct {
	ID             int64          `db:"id" json:"id"`
	SessionID      string         `db:"session_id" json:"session_id"`
	Timestamp      string         `db:"timestamp" json:"timestamp"`
	TimestampEpoch int64          `db:"timestamp_epoch" json:"timestamp_epoch"`
	Focused        bool           `db:"focused" json:"focused"`
	Explanation    string         `db:"explanation" json:"explanation"`
	Description    sql.NullString `db:"description" json:"description,omitempty"`
}

// NewAnalysis creates an analysis for the given tick time.
func NewAnalysis(sessionID string, at time.Time, focused bool, explanation, description string) *Analysis {
	return &Analysis{
		SessionID:      sessionID,
		Timestamp:      at.Format(time.RFC3339),
		TimestampEpoch: at.UnixMilli(),
		Focused:        focused,
		Explanation:    explanation,
		Description:    sql.NullString{String: description, Valid: description != ""},
	}
}

// Time returns the tick time.
func (a *Analysis) Time() time.Time {
	return time.UnixMilli(a.TimestampEpoch)
}

type analysisJSON struct {
	ID             int64  `json:"id"`
	SessionID      string `json:"session_id"`
	Timestamp      string `json:"timestamp"`
	TimestampEpoch int64  `json:"timestamp_epoch"`
	Focused        bool   `json:"focused"`
	Explanation    string `json:"explanation"`
	Description    string `json:"description,omitempty"`
}

// MarshalJSON implements json.Marshaler for Analysis.
func (a *Analysis) MarshalJSON() ([]byte, error) {
	j := analysisJSON{
		ID:             a.ID,
		SessionID:      a.SessionID,
		Timestamp:      a.Timestamp,
		TimestampEpoch: a.TimestampEpoch,
		Focused:        a.Focused,
		Explanation:    a.Explanation,
	}
	if a.Description.Valid {
		j.Description = a.Description.String
	}
	return json.Marshal(j)
}
