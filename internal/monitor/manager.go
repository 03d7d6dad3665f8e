package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dhruvjain2905/Attune/pkg/models"
)

// SessionReader loads sessions for monitoring.
type SessionReader interface {
	GetSession(ctx context.Context, id string) (*models.Session, error)
}

// IntervalCloser closes a session's open interval when monitoring ends.
type IntervalCloser interface {
	CloseOpenInterval(ctx context.Context, sessionID string, end time.Time) error
}

// NudgeStore is the nudge persistence the manager and runners need.
type NudgeStore interface {
	NudgeWriter
	LastNudgeAt(ctx context.Context, sessionID string) (time.Time, error)
}

// Stores bundles the persistence the manager hands to runners.
type Stores struct {
	Sessions  SessionReader
	Analyses  AnalysisWriter
	Intervals IntervalCloser
	Nudges    NudgeStore
}

// ManagerConfig holds loop timing plus nudge policy settings.
type ManagerConfig struct {
	Runner         RunnerConfig
	NudgeThreshold int
	NudgeCooldown  time.Duration
}

// Manager owns the monitoring runners. At most one runner exists per session,
// and since at most one session is active, at most one runs at a time.
type Manager struct {
	cfg      ManagerConfig
	pipeline Pipeline
	stores   Stores
	events   EventSink

	mu      sync.Mutex
	runners map[string]*Runner

	ctx    context.Context
	cancel context.CancelFunc
}

// NewManager creates a monitoring manager.
func NewManager(cfg ManagerConfig, pipeline Pipeline, stores Stores, events EventSink) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		cfg:      cfg,
		pipeline: pipeline,
		stores:   stores,
		events:   events,
		runners:  make(map[string]*Runner),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// StartMonitoring launches the monitoring loop for an active session. Returns
// ErrMonitorRunning if a loop already runs for it, ErrSessionNotFound if the
// session does not exist, and ErrSessionCompleted if it was already finalized.
func (m *Manager) StartMonitoring(ctx context.Context, sessionID string) error {
	sess, err := m.stores.Sessions.GetSession(ctx, sessionID)
	if err != nil {
		return err
	}
	if !sess.IsActive() {
		return models.ErrSessionCompleted
	}

	policy := NewNudgePolicy(m.cfg.NudgeThreshold, m.cfg.NudgeCooldown)
	if last, err := m.stores.Nudges.LastNudgeAt(ctx, sessionID); err == nil && !last.IsZero() {
		// Resuming after a restart: the cooldown survives the process.
		policy.SeedLastNudge(last)
	}

	m.mu.Lock()
	if _, exists := m.runners[sessionID]; exists {
		m.mu.Unlock()
		return models.ErrMonitorRunning
	}

	runner := NewRunner(sess, m.cfg.Runner, m.pipeline, policy, m.stores.Analyses, m.stores.Nudges, m.events)
	m.runners[sessionID] = runner
	m.mu.Unlock()

	go func() {
		runner.Run(m.ctx)
		m.mu.Lock()
		// A stop/start pair may have registered a fresh runner for this
		// session before this cleanup ran; only evict our own entry.
		if m.runners[sessionID] == runner {
			delete(m.runners, sessionID)
		}
		m.mu.Unlock()
	}()

	return nil
}

// StopMonitoring stops the session's loop, waits for any in-flight tick, and
// closes the open interval at the stop time. Stopping a session that is not
// being monitored is a no-op.
func (m *Manager) StopMonitoring(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	runner, exists := m.runners[sessionID]
	delete(m.runners, sessionID)
	m.mu.Unlock()

	if exists {
		runner.Stop()
	}

	if err := m.stores.Intervals.CloseOpenInterval(ctx, sessionID, time.Now()); err != nil {
		return err
	}

	log.Info().Str("sessionId", sessionID).Bool("wasRunning", exists).Msg("Monitoring stopped")
	return nil
}

// IsRunning reports whether a monitoring loop exists for the session.
func (m *Manager) IsRunning(sessionID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, exists := m.runners[sessionID]
	return exists
}

// RunningCount returns the number of live monitoring loops.
func (m *Manager) RunningCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.runners)
}

// Shutdown stops all runners and waits for their in-flight ticks.
func (m *Manager) Shutdown() {
	m.cancel()

	m.mu.Lock()
	runners := make([]*Runner, 0, len(m.runners))
	for _, r := range m.runners {
		runners = append(runners, r)
	}
	m.runners = make(map[string]*Runner)
	m.mu.Unlock()

	for _, r := range runners {
		<-r.Done()
	}

	log.Info().Int("runners", len(runners)).Msg("Monitoring manager shut down")
}
