package models

import "time"

// Nudge is a single notification event sent to interrupt sustained distraction.
type Nudge struct {
	ID             int64  `db:"id" json:"id"`
	SessionID      string `db:"session_id" json:"session_id"`
	Timestamp      string `db:"timestamp" json:"timestamp"`
	TimestampEpoch int64  `db:"timestamp_epoch" json:"timestamp_epoch"`
	Reason         string `db:"reason" json:"reason"`
}

// NewNudge creates a nudge for the given time.
func NewNudge(sessionID string, at time.Time, reason string) *Nudge {
	return &Nudge{
		SessionID:      sessionID,
		Timestamp:      at.Format(time.RFC3339),
		TimestampEpoch: at.UnixMilli(),
		Reason:         reason,
	}
}
