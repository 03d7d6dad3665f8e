package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dhruvjain2905/Attune/pkg/models"
)

// AnalysisStore provides analysis-related database operations.
type AnalysisStore struct {
	store *Store
}

// NewAnalysisStore creates a new analysis store.
func NewAnalysisStore(store *Store) *AnalysisStore {
	return &AnalysisStore{store: store}
}

// AppendAnalysis inserts a tick result and folds it into the session's open
// interval in the same transaction. The open interval (time_ended IS NULL)
// extends implicitly while the focused value holds; when the value flips the
// open interval is closed at the new analysis timestamp and a fresh one opens.
func (s *AnalysisStore) AppendAnalysis(ctx context.Context, analysis *models.Analysis) (int64, error) {
	const insertQuery = `
		INSERT INTO analyses (session_id, timestamp, timestamp_epoch, focused, explanation, description)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	insertStmt, err := s.store.GetStmt(insertQuery)
	if err != nil {
		return 0, err
	}

	tx, err := s.store.BeginTx(ctx)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.StmtContext(ctx, insertStmt).ExecContext(ctx,
		analysis.SessionID, analysis.Timestamp, analysis.TimestampEpoch,
		analysis.Focused, analysis.Explanation, analysis.Description,
	)
	if err != nil {
		return 0, fmt.Errorf("insert analysis: %w", err)
	}
	id, _ := result.LastInsertId()

	if err := foldIntoInterval(ctx, tx, analysis); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}

	analysis.ID = id
	return id, nil
}

// foldIntoInterval maintains the open interval for the analysis's session.
func foldIntoInterval(ctx context.Context, tx *sql.Tx, analysis *models.Analysis) error {
	const openQuery = `
		SELECT id, focused FROM intervals
		WHERE session_id = ? AND time_ended_epoch IS NULL
		LIMIT 1
	`

	var openID int64
	var openFocused bool
	err := tx.QueryRowContext(ctx, openQuery, analysis.SessionID).Scan(&openID, &openFocused)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		// First analysis of the session (or first after a close): open a
		// fresh interval at the analysis timestamp.
		return insertOpenInterval(ctx, tx, analysis)

	case err != nil:
		return err

	case openFocused == analysis.Focused:
		// Same value - the open interval extends implicitly.
		return nil

	default:
		// Focus flipped: close the open interval at this tick and start a
		// new one.
		const closeQuery = `
			UPDATE intervals SET time_ended = ?, time_ended_epoch = ?
			WHERE id = ?
		`
		if _, err := tx.ExecContext(ctx, closeQuery,
			analysis.Timestamp, analysis.TimestampEpoch, openID,
		); err != nil {
			return fmt.Errorf("close interval: %w", err)
		}
		return insertOpenInterval(ctx, tx, analysis)
	}
}

func insertOpenInterval(ctx context.Context, tx *sql.Tx, analysis *models.Analysis) error {
	const query = `
		INSERT INTO intervals (session_id, time_started, time_started_epoch, focused)
		VALUES (?, ?, ?, ?)
	`
	if _, err := tx.ExecContext(ctx, query,
		analysis.SessionID, analysis.Timestamp, analysis.TimestampEpoch, analysis.Focused,
	); err != nil {
		return fmt.Errorf("open interval: %w", err)
	}
	return nil
}

// GetAnalyses returns all analyses for a session in timestamp order.
func (s *AnalysisStore) GetAnalyses(ctx context.Context, sessionID string) ([]*models.Analysis, error) {
	const query = `
		SELECT id, session_id, timestamp, timestamp_epoch, focused, explanation, description
		FROM analyses
		WHERE session_id = ?
		ORDER BY timestamp_epoch ASC
	`

	rows, err := s.store.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanAnalysisRows(rows)
}

// GetDistractedAnalyses returns the distracted analyses for a session in
// timestamp order. Used by the finalize pass to categorize distractions.
func (s *AnalysisStore) GetDistractedAnalyses(ctx context.Context, sessionID string) ([]*models.Analysis, error) {
	const query = `
		SELECT id, session_id, timestamp, timestamp_epoch, focused, explanation, description
		FROM analyses
		WHERE session_id = ? AND focused = 0
		ORDER BY timestamp_epoch ASC
	`

	rows, err := s.store.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanAnalysisRows(rows)
}

// CountAnalyses returns the number of analyses recorded for a session.
func (s *AnalysisStore) CountAnalyses(ctx context.Context, sessionID string) (int64, error) {
	const query = `SELECT COUNT(*) FROM analyses WHERE session_id = ?`

	var count int64
	err := s.store.QueryRowContext(ctx, query, sessionID).Scan(&count)
	return count, err
}
