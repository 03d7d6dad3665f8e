package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/dhruvjain2905/Attune/pkg/models"
)

// NudgeStore provides nudge-related database operations.
type NudgeStore struct {
	store *Store
}

// NewNudgeStore creates a new nudge store.
func NewNudgeStore(store *Store) *NudgeStore {
	return &NudgeStore{store: store}
}

// AppendNudge records a nudge event.
func (s *NudgeStore) AppendNudge(ctx context.Context, nudge *models.Nudge) (int64, error) {
	const query = `
		INSERT INTO nudges (session_id, timestamp, timestamp_epoch, reason)
		VALUES (?, ?, ?, ?)
	`
	result, err := s.store.ExecContext(ctx, query,
		nudge.SessionID, nudge.Timestamp, nudge.TimestampEpoch, nudge.Reason,
	)
	if err != nil {
		return 0, err
	}
	id, _ := result.LastInsertId()
	nudge.ID = id
	return id, nil
}

// GetNudges returns all nudges for a session in timestamp order.
func (s *NudgeStore) GetNudges(ctx context.Context, sessionID string) ([]*models.Nudge, error) {
	const query = `
		SELECT id, session_id, timestamp, timestamp_epoch, reason
		FROM nudges
		WHERE session_id = ?
		ORDER BY timestamp_epoch ASC
	`

	rows, err := s.store.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanNudgeRows(rows)
}

// CountNudges returns the number of nudges sent for a session.
func (s *NudgeStore) CountNudges(ctx context.Context, sessionID string) (int64, error) {
	const query = `SELECT COUNT(*) FROM nudges WHERE session_id = ?`

	var count int64
	err := s.store.QueryRowContext(ctx, query, sessionID).Scan(&count)
	return count, err
}

// LastNudgeAt returns the time of the most recent nudge for a session, or the
// zero time if none was sent. Used to rebuild cooldown state after a restart.
func (s *NudgeStore) LastNudgeAt(ctx context.Context, sessionID string) (time.Time, error) {
	const query = `
		SELECT timestamp_epoch FROM nudges
		WHERE session_id = ?
		ORDER BY timestamp_epoch DESC
		LIMIT 1
	`

	var epoch int64
	err := s.store.QueryRowContext(ctx, query, sessionID).Scan(&epoch)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	return time.UnixMilli(epoch), nil
}
