package models

import (
	"database/sql"
	"time"

	json "github.com/goccy/go-json"
)

// Interval is a maximal contiguous run of analyses sharing the same focused
// value. The open interval of an active session has no end time.
type Interval struct {
	ID               int64          `db:"id" json:"id"`
	SessionID        string         `db:"session_id" json:"session_id"`
	TimeStarted      string         `db:"time_started" json:"time_started"`
	TimeStartedEpoch int64          `db:"time_started_epoch" json:"time_started_epoch"`
	TimeEnded        sql.NullString `db:"time_ended" json:"time_ended,omitempty"`
	TimeEndedEpoch   sql.NullInt64  `db:"time_ended_epoch" json:"time_ended_epoch,omitempty"`
	Focused          bool           `db:"focused" json:"focused"`
}

// Open reports whether the interval has not been closed yet.
func (i *Interval) Open() bool {
	return !i.TimeEndedEpoch.Valid
}

// Duration returns the closed interval's length. Open intervals report zero.
func (i *Interval) Duration() time.Duration {
	if !i.TimeEndedEpoch.Valid {
		return 0
	}
	return time.Duration(i.TimeEndedEpoch.Int64-i.TimeStartedEpoch) * time.Millisecond
}

type intervalJSON struct {
	ID               int64  `json:"id"`
	SessionID        string `json:"session_id"`
	TimeStarted      string `json:"time_started"`
	TimeStartedEpoch int64  `json:"time_started_epoch"`
	TimeEnded        string `json:"time_ended,omitempty"`
	TimeEndedEpoch   int64  `json:"time_ended_epoch,omitempty"`
	Focused          bool   `json:"focused"`
}

// MarshalJSON implements json.Marshaler for Interval.
func (i *Interval) MarshalJSON() ([]byte, error) {
	j := intervalJSON{
		ID:               i.ID,
		SessionID:        i.SessionID,
		TimeStarted:      i.TimeStarted,
		TimeStartedEpoch: i.TimeStartedEpoch,
		Focused:          i.Focused,
	}
	if i.TimeEnded.Valid {
		j.TimeEnded = i.TimeEnded.String
	}
	if i.TimeEndedEpoch.Valid {
		j.TimeEndedEpoch = i.TimeEndedEpoch.Int64
	}
	return json.Marshal(j)
}
