package worker

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/dhruvjain2905/Attune/internal/db/sqlite"
	"github.com/dhruvjain2905/Attune/internal/monitor"
	"github.com/dhruvjain2905/Attune/internal/worker/sse"
	"github.com/dhruvjain2905/Attune/pkg/models"
)

// respondJSON writes a JSON response.
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

// respondError writes a JSON error response.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondStoreError maps domain sentinel errors onto HTTP statuses.
func respondStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrSessionNotFound):
		respondError(w, http.StatusNotFound, "session not found")
	case errors.Is(err, models.ErrSessionActive):
		respondError(w, http.StatusConflict, "another session is already active")
	case errors.Is(err, models.ErrSessionCompleted):
		respondError(w, http.StatusConflict, "session is already completed")
	case errors.Is(err, models.ErrMonitorRunning):
		respondError(w, http.StatusConflict, "monitoring is already running")
	default:
		log.Error().Err(err).Msg("Request failed")
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}

type createSessionRequest struct {
	Goal string `json:"goal"`
}

// handleCreateSession creates a session and starts its monitoring loop.
func (s *Service) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Goal = strings.TrimSpace(req.Goal)
	if req.Goal == "" {
		respondError(w, http.StatusBadRequest, "goal is required")
		return
	}

	sess, err := s.sessionStore.CreateSession(r.Context(), uuid.New().String(), req.Goal)
	if err != nil {
		respondStoreError(w, err)
		return
	}

	if err := s.manager.StartMonitoring(r.Context(), sess.ID); err != nil {
		log.Error().Err(err).Str("sessionId", sess.ID).Msg("Session created but monitoring failed to start")
	}

	log.Info().Str("sessionId", sess.ID).Str("goal", sess.Goal).Msg("Session started")
	s.sseBroadcaster.Broadcast(sse.Event{
		Type:      sse.EventSessionStarted,
		SessionID: sess.ID,
		Payload:   sess,
	})

	respondJSON(w, http.StatusCreated, sess)
}

// handleListSessions returns recent sessions, newest first.
func (s *Service) handleListSessions(w http.ResponseWriter, r *http.Request) {
	limit := sqlite.ParseLimitParam(r, 50)

	sessions, err := s.sessionStore.ListSessions(r.Context(), limit)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	if sessions == nil {
		sessions = []*models.Session{}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"sessions": sessions})
}

// handleActiveSession returns the active session, or null when idle.
func (s *Service) handleActiveSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessionStore.GetActiveSession(r.Context())
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, sess)
}

// handleGetSession returns one session by ID.
func (s *Service) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessionStore.GetSession(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, sess)
}

// handleStartMonitoring starts the monitoring loop for an existing session.
// Used to resume a session that survived a daemon restart.
func (s *Service) handleStartMonitoring(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	if err := s.manager.StartMonitoring(r.Context(), sessionID); err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "monitoring"})
}

// handleStopMonitoring stops the loop, lets any in-flight tick finish, and
// finalizes the session with its aggregates. Stopping an already-completed
// session returns its current snapshot rather than an error.
func (s *Service) handleStopMonitoring(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	if err := s.manager.StopMonitoring(r.Context(), sessionID); err != nil {
		respondStoreError(w, err)
		return
	}

	final, err := s.aggregator.Finalize(r.Context(), sessionID)
	if errors.Is(err, models.ErrSessionCompleted) {
		sess, getErr := s.sessionStore.GetSession(r.Context(), sessionID)
		if getErr != nil {
			respondStoreError(w, getErr)
			return
		}
		respondJSON(w, http.StatusOK, sess)
		return
	}
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, final)
}

// handleGetAnalyses returns a session's analyses in tick order.
func (s *Service) handleGetAnalyses(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if _, err := s.sessionStore.GetSession(r.Context(), sessionID); err != nil {
		respondStoreError(w, err)
		return
	}

	analyses, err := s.analysisStore.GetAnalyses(r.Context(), sessionID)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	if analyses == nil {
		analyses = []*models.Analysis{}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"analyses": analyses})
}

// handleGetIntervals returns a session's focus intervals in start order.
func (s *Service) handleGetIntervals(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if _, err := s.sessionStore.GetSession(r.Context(), sessionID); err != nil {
		respondStoreError(w, err)
		return
	}

	intervals, err := s.intervalStore.GetIntervals(r.Context(), sessionID)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	if intervals == nil {
		intervals = []*models.Interval{}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"intervals": intervals})
}

// handleGetNudges returns a session's nudges in timestamp order.
func (s *Service) handleGetNudges(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if _, err := s.sessionStore.GetSession(r.Context(), sessionID); err != nil {
		respondStoreError(w, err)
		return
	}

	nudges, err := s.nudgeStore.GetNudges(r.Context(), sessionID)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	if nudges == nil {
		nudges = []*models.Nudge{}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"nudges": nudges})
}

// handleLiveStats returns the running totals for an in-progress session,
// recomputed from its analyses on every call.
func (s *Service) handleLiveStats(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if _, err := s.sessionStore.GetSession(r.Context(), sessionID); err != nil {
		respondStoreError(w, err)
		return
	}

	analyses, err := s.analysisStore.GetAnalyses(r.Context(), sessionID)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	nudgeCount, err := s.nudgeStore.CountNudges(r.Context(), sessionID)
	if err != nil {
		respondStoreError(w, err)
		return
	}

	stats := monitor.ComputeLiveStats(analyses, time.Now())
	respondJSON(w, http.StatusOK, models.LiveStats{
		ProductiveTime:    stats.ProductiveTime,
		NotProductiveTime: stats.NotProductiveTime,
		FocusPercentage:   stats.FocusPercentage,
		NudgesReceived:    nudgeCount,
		AnalysesCount:     int64(len(analyses)),
	})
}

// handleUserStats returns headline statistics across all completed sessions.
func (s *Service) handleUserStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.sessionStore.UserStats(r.Context())
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

// handleHealth reports daemon liveness and monitoring status.
func (s *Service) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	if err := s.store.Ping(); err != nil {
		status = "degraded"
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":         status,
		"version":        s.version,
		"ready":          s.ready.Load(),
		"uptime_seconds": int64(time.Since(s.startTime).Seconds()),
		"monitoring":     s.manager.RunningCount() > 0,
	})
}
