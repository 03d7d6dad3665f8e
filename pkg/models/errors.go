package models

import "errors"

var (
	// ErrSessionActive is returned when an operation requires that no session
	// is active but one already is.
	ErrSessionActive = errors.New("another session is already active")

	// ErrSessionNotFound is returned when the referenced session does not exist.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionCompleted is returned when finalizing a session that has
	// already been completed.
	ErrSessionCompleted = errors.New("session already completed")

	// ErrMonitorRunning is returned when monitoring is requested for a session
	// that is already being monitored.
	ErrMonitorRunning = errors.New("session is already being monitored")
)
