package monitor

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dhruvjain2905/Attune/internal/ai"
	"github.com/dhruvjain2905/Attune/internal/worker/sse"
	"github.com/dhruvjain2905/Attune/pkg/models"
)

// SessionFinalizer is the session persistence the aggregator needs.
type SessionFinalizer interface {
	GetSession(ctx context.Context, id string) (*models.Session, error)
	FinalizeSession(ctx context.Context, id string, agg models.SessionAggregates) (*models.Session, error)
}

// AnalysisReader loads a session's recorded verdicts.
type AnalysisReader interface {
	GetAnalyses(ctx context.Context, sessionID string) ([]*models.Analysis, error)
	GetDistractedAnalyses(ctx context.Context, sessionID string) ([]*models.Analysis, error)
}

// NudgeCounter counts a session's nudges.
type NudgeCounter interface {
	CountNudges(ctx context.Context, sessionID string) (int64, error)
}

// Enricher generates the AI session summary artifacts. All enrichment is best
// effort: a session finalizes with plain aggregates when the enricher fails.
type Enricher interface {
	Title(ctx context.Context, req ai.TitleRequest) (string, error)
	Narrative(ctx context.Context, req ai.NarrativeRequest) (string, error)
	Categorize(ctx context.Context, entries []ai.DistractionEntry, avgIntervalSeconds int) (models.JSONSecondsMap, error)
}

// Aggregator turns a session's raw analyses into final aggregates. Everything
// it writes is recomputed from the analyses, so a session interrupted by a
// crash finalizes just as well as one stopped cleanly.
type Aggregator struct {
	sessions  SessionFinalizer
	analyses  AnalysisReader
	intervals IntervalCloser
	nudges    NudgeCounter
	enricher  Enricher // nil disables AI enrichment
	events    EventSink

	tickInterval time.Duration
}

// NewAggregator creates an aggregator. Pass a nil enricher to finalize with
// plain aggregates only.
func NewAggregator(sessions SessionFinalizer, analyses AnalysisReader, intervals IntervalCloser, nudges NudgeCounter, enricher Enricher, events EventSink, tickInterval time.Duration) *Aggregator {
	return &Aggregator{
		sessions:     sessions,
		analyses:     analyses,
		intervals:    intervals,
		nudges:       nudges,
		enricher:     enricher,
		events:       events,
		tickInterval: tickInterval,
	}
}

// Finalize computes aggregates for the session, enriches them, and marks the
// session completed. A second finalize returns ErrSessionCompleted from the
// store; the first write is never overwritten.
func (a *Aggregator) Finalize(ctx context.Context, sessionID string) (*models.Session, error) {
	sess, err := a.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !sess.IsActive() {
		return nil, models.ErrSessionCompleted
	}

	// Covers the crash path where no clean stop closed it.
	if err := a.intervals.CloseOpenInterval(ctx, sessionID, time.Now()); err != nil {
		return nil, err
	}

	analyses, err := a.analyses.GetAnalyses(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	stats := ComputeStats(analyses, a.tickInterval)

	nudgeCount, err := a.nudges.CountNudges(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	agg := models.SessionAggregates{
		ProductiveTime:    stats.ProductiveTime,
		NotProductiveTime: stats.NotProductiveTime,
		FocusPercentage:   stats.FocusPercentage,
		NudgesReceived:    nudgeCount,
	}

	if a.enricher != nil {
		a.enrich(ctx, sess, analyses, stats, nudgeCount, &agg)
	}

	final, err := a.sessions.FinalizeSession(ctx, sessionID, agg)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("sessionId", sessionID).
		Float64("focusPercentage", final.FocusPercentage).
		Int64("nudges", nudgeCount).
		Msg("Session finalized")

	if a.events != nil {
		a.events.Broadcast(sse.Event{
			Type:      sse.EventSessionCompleted,
			SessionID: sessionID,
			Payload:   final,
		})
	}
	return final, nil
}

// enrich fills the AI summary fields. Each artifact fails independently; a
// missing title or narrative never blocks finalization.
func (a *Aggregator) enrich(ctx context.Context, sess *models.Session, analyses []*models.Analysis, stats Stats, nudgeCount int64, agg *models.SessionAggregates) {
	title, err := a.enricher.Title(ctx, ai.TitleRequest{
		Goal:            sess.Goal,
		FocusedCount:    stats.FocusedCount,
		DistractedCount: stats.DistractedCount,
		NudgeCount:      int(nudgeCount),
	})
	if err != nil {
		log.Warn().Err(err).Str("sessionId", sess.ID).Msg("Title generation failed, finalizing without title")
	} else {
		agg.Title = title
	}

	distracted, err := a.analyses.GetDistractedAnalyses(ctx, sess.ID)
	if err != nil {
		log.Warn().Err(err).Str("sessionId", sess.ID).Msg("Could not load distractions for enrichment")
		distracted = nil
	}

	entries := make([]ai.DistractionEntry, 0, len(distracted))
	for _, d := range distracted {
		entries = append(entries, ai.DistractionEntry{
			Time:        d.Time(),
			Explanation: d.Explanation,
		})
	}

	narrative, err := a.enricher.Narrative(ctx, ai.NarrativeRequest{
		Goal:              sess.Goal,
		FocusPercentage:   stats.FocusPercentage,
		ProductiveTime:    stats.ProductiveTime,
		NotProductiveTime: stats.NotProductiveTime,
		FocusedCount:      stats.FocusedCount,
		DistractedCount:   stats.DistractedCount,
		NudgeCount:        int(nudgeCount),
		Distractions:      entries,
	})
	if err != nil {
		log.Warn().Err(err).Str("sessionId", sess.ID).Msg("Narrative generation failed, finalizing without narrative")
	} else {
		agg.AIAnalysis = narrative
	}

	if len(entries) > 0 {
		categories, err := a.enricher.Categorize(ctx, entries, AverageGapSeconds(analyses, a.tickInterval))
		if err != nil {
			log.Warn().Err(err).Str("sessionId", sess.ID).Msg("Distraction categorization failed, finalizing without categories")
		} else {
			agg.AIStructuredOutput = categories
		}
	}
}
