// Package worker provides the HTTP worker service for attune: the session
// API, the monitoring loops behind it, and the SSE event stream.
package worker

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/dhruvjain2905/Attune/internal/config"
	"github.com/dhruvjain2905/Attune/internal/db/sqlite"
	"github.com/dhruvjain2905/Attune/internal/monitor"
	"github.com/dhruvjain2905/Attune/internal/worker/sse"
)

// Service is the attune worker: it owns the stores, the monitoring manager,
// and the HTTP API the desktop frontend talks to.
type Service struct {
	version string
	config  *config.Config

	store         *sqlite.Store
	sessionStore  *sqlite.SessionStore
	analysisStore *sqlite.AnalysisStore
	intervalStore *sqlite.IntervalStore
	nudgeStore    *sqlite.NudgeStore

	manager        *monitor.Manager
	aggregator     *monitor.Aggregator
	sseBroadcaster *sse.Broadcaster

	router     *chi.Mux
	httpServer *http.Server

	ctx       context.Context
	cancel    context.CancelFunc
	startTime time.Time
	ready     atomic.Bool
}

// NewService wires the worker from its dependencies. The pipeline carries the
// capture/vision/judge/notify effects; enricher may be nil when no judge API
// key is configured.
func NewService(version string, cfg *config.Config, store *sqlite.Store, pipeline monitor.Pipeline, enricher monitor.Enricher) *Service {
	ctx, cancel := context.WithCancel(context.Background())

	sessionStore := sqlite.NewSessionStore(store)
	analysisStore := sqlite.NewAnalysisStore(store)
	intervalStore := sqlite.NewIntervalStore(store)
	nudgeStore := sqlite.NewNudgeStore(store)

	sseBroadcaster := sse.NewBroadcaster()

	manager := monitor.NewManager(
		monitor.ManagerConfig{
			Runner: monitor.RunnerConfig{
				TickInterval:   cfg.TickInterval(),
				InitialDelay:   cfg.InitialDelay(),
				CaptureTimeout: cfg.CaptureTimeout(),
				VisionTimeout:  cfg.VisionTimeout(),
				JudgeTimeout:   cfg.JudgeTimeout(),
			},
			NudgeThreshold: cfg.NudgeThreshold,
			NudgeCooldown:  cfg.NudgeCooldown(),
		},
		pipeline,
		monitor.Stores{
			Sessions:  sessionStore,
			Analyses:  analysisStore,
			Intervals: intervalStore,
			Nudges:    nudgeStore,
		},
		sseBroadcaster,
	)

	aggregator := monitor.NewAggregator(
		sessionStore, analysisStore, intervalStore, nudgeStore,
		enricher, sseBroadcaster, cfg.TickInterval(),
	)

	svc := &Service{
		version:        version,
		config:         cfg,
		store:          store,
		sessionStore:   sessionStore,
		analysisStore:  analysisStore,
		intervalStore:  intervalStore,
		nudgeStore:     nudgeStore,
		manager:        manager,
		aggregator:     aggregator,
		sseBroadcaster: sseBroadcaster,
		router:         chi.NewRouter(),
		ctx:            ctx,
		cancel:         cancel,
		startTime:      time.Now(),
	}

	svc.setupRoutes()
	return svc
}

// setupRoutes registers the HTTP API.
func (s *Service) setupRoutes() {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)

	s.router.Get("/", s.handleIndex)
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/events", s.sseBroadcaster.HandleSSE)
		r.Get("/user/stats", s.handleUserStats)

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", s.handleCreateSession)
			r.Get("/", s.handleListSessions)
			r.Get("/active", s.handleActiveSession)

			r.Route("/{sessionID}", func(r chi.Router) {
				r.Get("/", s.handleGetSession)
				r.Post("/start-monitoring", s.handleStartMonitoring)
				r.Post("/stop-monitoring", s.handleStopMonitoring)
				r.Get("/analyses", s.handleGetAnalyses)
				r.Get("/intervals", s.handleGetIntervals)
				r.Get("/nudges", s.handleGetNudges)
				r.Get("/live-stats", s.handleLiveStats)
			})
		})
	})
}

// Start begins serving HTTP on the configured port and blocks until the
// listener fails or Shutdown is called.
func (s *Service) Start() error {
	addr := fmt.Sprintf("127.0.0.1:%d", s.config.WorkerPort)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.ready.Store(true)
	log.Info().Str("addr", addr).Str("version", s.version).Msg("Worker service listening")

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops monitoring loops and the HTTP listener. In-flight ticks
// complete before this returns.
func (s *Service) Shutdown(ctx context.Context) error {
	s.ready.Store(false)
	s.manager.Shutdown()
	s.cancel()

	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

// Router exposes the HTTP handler, used by tests.
func (s *Service) Router() http.Handler {
	return s.router
}
