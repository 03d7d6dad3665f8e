// Package models contains domain models for attune.
package models

import (
	"database/sql"
	"database/sql/driver"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
)

// SessionStatus represents the status of a focus session.
type SessionStatus string

const (
	SessionStatusActive    SessionStatus = "active"
	SessionStatusCompleted SessionStatus = "completed"
)

// Session represents one focus period.
type Session struct {
	ID                 string         `db:"id" json:"id"`
	Goal               string         `db:"goal" json:"goal"`
	Title              sql.NullString `db:"title" json:"title,omitempty"`
	Status             SessionStatus  `db:"status" json:"status"`
	TimeStarted        string         `db:"time_started" json:"time_started"`
	TimeStartedEpoch   int64          `db:"time_started_epoch" json:"time_started_epoch"`
	TimeEnded          sql.NullString `db:"time_ended" json:"time_ended,omitempty"`
	TimeEndedEpoch     sql.NullInt64  `db:"time_ended_epoch" json:"time_ended_epoch,omitempty"`
	ProductiveTime     int64          `db:"productive_time" json:"productive_time"`
	NotProductiveTime  int64          `db:"not_productive_time" json:"not_productive_time"`
	FocusPercentage    float64        `db:"focus_percentage" json:"focus_percentage"`
	NudgesReceived     int64          `db:"nudges_received" json:"nudges_received"`
	AIAnalysis         sql.NullString `db:"ai_analysis" json:"ai_analysis,omitempty"`
	AIStructuredOutput JSONSecondsMap `db:"ai_structured_output" json:"ai_structured_output,omitempty"`
}

// IsActive reports whether the session is still running.
func (s *Session) IsActive() bool {
	return s.Status == SessionStatusActive
}

// NewSession creates an active session starting now.
func NewSession(id, goal string) *Session {
	now := time.Now()
	return &Session{
		ID:               id,
		Goal:             goal,
		Status:           SessionStatusActive,
		TimeStarted:      now.Format(time.RFC3339),
		TimeStartedEpoch: now.UnixMilli(),
	}
}

// SessionAggregates holds the summary fields written at finalize time.
type SessionAggregates struct {
	Title              string
	ProductiveTime     int64
	NotProductiveTime  int64
	FocusPercentage    float64
	NudgesReceived     int64
	AIAnalysis         string
	AIStructuredOutput JSONSecondsMap
}

// LiveStats is the incrementally computed view of an in-progress session.
type LiveStats struct {
	ProductiveTime    int64   `json:"productive_time"`
	NotProductiveTime int64   `json:"not_productive_time"`
	FocusPercentage   float64 `json:"focus_percentage"`
	NudgesReceived    int64   `json:"nudges_received"`
	AnalysesCount     int64   `json:"analyses_count"`
}

// UserStats aggregates all completed sessions.
type UserStats struct {
	AverageFocusScore float64 `json:"average_focus_score"`
	TotalFocusTime    int64   `json:"total_focus_time"`
	SessionsCompleted int64   `json:"sessions_completed"`
}

// JSONSecondsMap maps a distraction category to total seconds spent in it.
// Stored as a JSON text column.
type JSONSecondsMap map[string]int64

// Value implements driver.Valuer.
func (m JSONSecondsMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

// Scan implements sql.Scanner.
func (m *JSONSecondsMap) Scan(src interface{}) error {
	if src == nil {
		*m = nil
		return nil
	}
	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type for JSONSecondsMap: %T", src)
	}
	if len(data) == 0 {
		*m = nil
		return nil
	}
	return json.Unmarshal(data, m)
}

// sessionJSON is a JSON-friendly representation of Session.
// It converts sql.Null* fields to plain values for clean API output.
type sessionJSON struct {
	ID                 string         `json:"id"`
	Goal               string         `json:"goal"`
	Title              string         `json:"title,omitempty"`
	Status             SessionStatus  `json:"status"`
	TimeStarted        string         `json:"time_started"`
	TimeStartedEpoch   int64          `json:"time_started_epoch"`
	TimeEnded          string         `json:"time_ended,omitempty"`
	TimeEndedEpoch     int64          `json:"time_ended_epoch,omitempty"`
	ProductiveTime     int64          `json:"productive_time"`
	NotProductiveTime  int64          `json:"not_productive_time"`
	FocusPercentage    float64        `json:"focus_percentage"`
	NudgesReceived     int64          `json:"nudges_received"`
	AIAnalysis         string         `json:"ai_analysis,omitempty"`
	AIStructuredOutput JSONSecondsMap `json:"ai_structured_output,omitempty"`
}

// MarshalJSON implements json.Marshaler for Session.
func (s *Session) MarshalJSON() ([]byte, error) {
	j := sessionJSON{
		ID:                 s.ID,
		Goal:               s.Goal,
		Status:             s.Status,
		TimeStarted:        s.TimeStarted,
		TimeStartedEpoch:   s.TimeStartedEpoch,
		ProductiveTime:     s.ProductiveTime,
		NotProductiveTime:  s.NotProductiveTime,
		FocusPercentage:    s.FocusPercentage,
		NudgesReceived:     s.NudgesReceived,
		AIStructuredOutput: s.AIStructuredOutput,
	}
	if s.Title.Valid {
		j.Title = s.Title.String
	}
	if s.TimeEnded.Valid {
		j.TimeEnded = s.TimeEnded.String
	}
	if s.TimeEndedEpoch.Valid {
		j.TimeEndedEpoch = s.TimeEndedEpoch.Int64
	}
	if s.AIAnalysis.Valid {
		j.AIAnalysis = s.AIAnalysis.String
	}
	return json.Marshal(j)
}
