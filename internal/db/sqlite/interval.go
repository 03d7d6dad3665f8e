package sqlite

import (
	"context"
	"time"

	"github.com/dhruvjain2905/Attune/pkg/models"
)

// IntervalStore provides interval-related database operations.
type IntervalStore struct {
	store *Store
}

// NewIntervalStore creates a new interval store.
func NewIntervalStore(store *Store) *IntervalStore {
	return &IntervalStore{store: store}
}

// GetIntervals returns all intervals for a session in start order.
func (s *IntervalStore) GetIntervals(ctx context.Context, sessionID string) ([]*models.Interval, error) {
	const query = `
		SELECT id, session_id, time_started, time_started_epoch,
		       time_ended, time_ended_epoch, focused
		FROM intervals
		WHERE session_id = ?
		ORDER BY time_started_epoch ASC
	`

	rows, err := s.store.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanIntervalRows(rows)
}

// CloseOpenInterval closes the session's open interval at the given time.
// A session with no open interval is a no-op.
func (s *IntervalStore) CloseOpenInterval(ctx context.Context, sessionID string, end time.Time) error {
	const query = `
		UPDATE intervals
		SET time_ended = ?, time_ended_epoch = ?
		WHERE session_id = ? AND time_ended_epoch IS NULL
	`
	_, err := s.store.ExecContext(ctx, query,
		end.Format(time.RFC3339), end.UnixMilli(), sessionID,
	)
	return err
}
