package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dhruvjain2905/Attune/pkg/models"
)

// sessionColumns is the canonical column list for session scans.
const sessionColumns = `id, goal, title, status, time_started, time_started_epoch,
	time_ended, time_ended_epoch, productive_time, not_productive_time,
	focus_percentage, nudges_received, ai_analysis, ai_structured_output`

// SessionStore provides session-related database operations.
type SessionStore struct {
	store *Store
}

// NewSessionStore creates a new session store.
func NewSessionStore(store *Store) *SessionStore {
	return &SessionStore{store: store}
}

// CreateSession creates a new active session. The single-active invariant is
// checked inside the same transaction that inserts the row; the partial unique
// index on sessions(status) backs it at the schema level.
func (s *SessionStore) CreateSession(ctx context.Context, id, goal string) (*models.Session, error) {
	tx, err := s.store.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	var activeCount int
	const countQuery = `SELECT COUNT(*) FROM sessions WHERE status = 'active'`
	if err := tx.QueryRowContext(ctx, countQuery).Scan(&activeCount); err != nil {
		return nil, err
	}
	if activeCount > 0 {
		return nil, models.ErrSessionActive
	}

	sess := models.NewSession(id, goal)

	const insertQuery = `
		INSERT INTO sessions (id, goal, status, time_started, time_started_epoch)
		VALUES (?, ?, 'active', ?, ?)
	`
	if _, err := tx.ExecContext(ctx, insertQuery,
		sess.ID, sess.Goal, sess.TimeStarted, sess.TimeStartedEpoch,
	); err != nil {
		// A concurrent create can slip past the count check; the partial
		// unique index rejects the second active row.
		if isUniqueViolation(err) {
			return nil, models.ErrSessionActive
		}
		return nil, fmt.Errorf("insert session: %w", err)
	}

	if err := tx.Commit(); err != nil {
		if isUniqueViolation(err) {
			return nil, models.ErrSessionActive
		}
		return nil, err
	}
	return sess, nil
}

// GetSession retrieves a session by ID. Returns ErrSessionNotFound if missing.
func (s *SessionStore) GetSession(ctx context.Context, id string) (*models.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE id = ? LIMIT 1`

	sess, err := scanSession(s.store.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return sess, nil
}

// GetActiveSession returns the currently active session, or nil if none.
func (s *SessionStore) GetActiveSession(ctx context.Context) (*models.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE status = 'active' LIMIT 1`

	sess, err := scanSession(s.store.QueryRowContext(ctx, query))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return sess, nil
}

// ListSessions returns the most recent sessions, newest first.
func (s *SessionStore) ListSessions(ctx context.Context, limit int) ([]*models.Session, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT ` + sessionColumns + `
		FROM sessions
		ORDER BY time_started_epoch DESC
		LIMIT ?`

	rows, err := s.store.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanSessionRows(rows)
}

// FinalizeSession marks a session completed and writes its aggregates.
// Returns ErrSessionCompleted if the session was already finalized and
// ErrSessionNotFound if it does not exist. Aggregates from the first
// finalize are never overwritten.
func (s *SessionStore) FinalizeSession(ctx context.Context, id string, agg models.SessionAggregates) (*models.Session, error) {
	tx, err := s.store.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	var status string
	const statusQuery = `SELECT status FROM sessions WHERE id = ? LIMIT 1`
	err = tx.QueryRowContext(ctx, statusQuery, id).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	if status != string(models.SessionStatusActive) {
		return nil, models.ErrSessionCompleted
	}

	now := time.Now()
	var structured interface{}
	if agg.AIStructuredOutput != nil {
		structured, err = agg.AIStructuredOutput.Value()
		if err != nil {
			return nil, fmt.Errorf("encode structured output: %w", err)
		}
	}

	const updateQuery = `
		UPDATE sessions
		SET status = 'completed',
		    time_ended = ?,
		    time_ended_epoch = ?,
		    title = ?,
		    productive_time = ?,
		    not_productive_time = ?,
		    focus_percentage = ?,
		    nudges_received = ?,
		    ai_analysis = ?,
		    ai_structured_output = ?
		WHERE id = ?
	`
	if _, err := tx.ExecContext(ctx, updateQuery,
		now.Format(time.RFC3339), now.UnixMilli(),
		nullString(agg.Title),
		agg.ProductiveTime, agg.NotProductiveTime, agg.FocusPercentage,
		agg.NudgesReceived,
		nullString(agg.AIAnalysis), structured,
		id,
	); err != nil {
		return nil, fmt.Errorf("finalize session: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return s.GetSession(ctx, id)
}

// UserStats aggregates completed sessions into headline user statistics.
func (s *SessionStore) UserStats(ctx context.Context) (*models.UserStats, error) {
	const query = `
		SELECT COUNT(*),
		       COALESCE(AVG(focus_percentage), 0),
		       COALESCE(SUM(productive_time), 0)
		FROM sessions
		WHERE status = 'completed'
	`

	var stats models.UserStats
	err := s.store.QueryRowContext(ctx, query).Scan(
		&stats.SessionsCompleted, &stats.AverageFocusScore, &stats.TotalFocusTime,
	)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}
