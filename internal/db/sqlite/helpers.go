package sqlite

import (
	"database/sql"
	"net/http"
	"strconv"
	"strings"

	"github.com/dhruvjain2905/Attune/pkg/models"
)

// nullString converts a string to sql.NullString.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// isUniqueViolation reports whether err is a SQLite unique-constraint error.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// ParseLimitParam parses a limit query parameter with a default value.
func ParseLimitParam(r *http.Request, defaultLimit int) int {
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			return parsed
		}
	}
	return defaultLimit
}

// scanSession scans a single session from a row scanner.
func scanSession(scanner interface{ Scan(...interface{}) error }) (*models.Session, error) {
	var sess models.Session
	if err := scanner.Scan(
		&sess.ID, &sess.Goal, &sess.Title, &sess.Status,
		&sess.TimeStarted, &sess.TimeStartedEpoch,
		&sess.TimeEnded, &sess.TimeEndedEpoch,
		&sess.ProductiveTime, &sess.NotProductiveTime,
		&sess.FocusPercentage, &sess.NudgesReceived,
		&sess.AIAnalysis, &sess.AIStructuredOutput,
	); err != nil {
		return nil, err
	}
	return &sess, nil
}

// scanSessionRows scans multiple sessions from rows.
func scanSessionRows(rows *sql.Rows) ([]*models.Session, error) {
	var sessions []*models.Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

// scanAnalysisRows scans multiple analyses from rows.
func scanAnalysisRows(rows *sql.Rows) ([]*models.Analysis, error) {
	var analyses []*models.Analysis
	for rows.Next() {
		var a models.Analysis
		if err := rows.Scan(
			&a.ID, &a.SessionID, &a.Timestamp, &a.TimestampEpoch,
			&a.Focused, &a.Explanation, &a.Description,
		); err != nil {
			return nil, err
		}
		analyses = append(analyses, &a)
	}
	return analyses, rows.Err()
}

// scanIntervalRows scans multiple intervals from rows.
func scanIntervalRows(rows *sql.Rows) ([]*models.Interval, error) {
	var intervals []*models.Interval
	for rows.Next() {
		var iv models.Interval
		if err := rows.Scan(
			&iv.ID, &iv.SessionID, &iv.TimeStarted, &iv.TimeStartedEpoch,
			&iv.TimeEnded, &iv.TimeEndedEpoch, &iv.Focused,
		); err != nil {
			return nil, err
		}
		intervals = append(intervals, &iv)
	}
	return intervals, rows.Err()
}

// scanNudgeRows scans multiple nudges from rows.
func scanNudgeRows(rows *sql.Rows) ([]*models.Nudge, error) {
	var nudges []*models.Nudge
	for rows.Next() {
		var n models.Nudge
		if err := rows.Scan(
			&n.ID, &n.SessionID, &n.Timestamp, &n.TimestampEpoch, &n.Reason,
		); err != nil {
			return nil, err
		}
		nudges = append(nudges, &n)
	}
	return nudges, rows.Err()
}
