// Package main provides the attune daemon entry point.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/dhruvjain2905/Attune/internal/ai"
	"github.com/dhruvjain2905/Attune/internal/capture"
	"github.com/dhruvjain2905/Attune/internal/config"
	"github.com/dhruvjain2905/Attune/internal/db/sqlite"
	"github.com/dhruvjain2905/Attune/internal/monitor"
	"github.com/dhruvjain2905/Attune/internal/notify"
	"github.com/dhruvjain2905/Attune/internal/watcher"
	"github.com/dhruvjain2905/Attune/internal/worker"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	port := flag.Int("port", 0, "HTTP port (default: from settings)")
	dataDir := flag.String("data-dir", "", "Data directory (default: ~/.attune)")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, NoColor: true})

	if err := config.EnsureAll(); err != nil {
		log.Fatal().Err(err).Msg("Failed to ensure data directory")
	}

	cfg := config.Get()
	if *port > 0 {
		cfg.WorkerPort = *port
	}

	dbPath := config.DBPath()
	if *dataDir != "" {
		dbPath = *dataDir + "/attune.db"
	}

	store, err := sqlite.NewStore(sqlite.StoreConfig{
		Path:     dbPath,
		MaxConns: cfg.MaxConns,
		WALMode:  true,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize SQLite store")
	}
	defer store.Close()

	pipeline := monitor.Pipeline{
		Capturer: capture.NewScreenCapturer(cfg.CaptureCommand),
		Vision: ai.NewVisionClient(ai.VisionConfig{
			BaseURL: cfg.OllamaURL,
			Model:   cfg.VisionModel,
			Timeout: cfg.VisionTimeout(),
		}),
		Judge: ai.NewJudgeClient(ai.JudgeConfig{
			BaseURL: cfg.JudgeBaseURL,
			APIKey:  cfg.AnthropicAPIKey,
			Model:   cfg.JudgeModel,
			Timeout: cfg.JudgeTimeout(),
		}),
		Notifier: notify.NewDesktopNotifier(),
	}

	// Without an API key the judge cannot run; sessions still record and
	// finalize with plain aggregates.
	var enricher monitor.Enricher
	if cfg.AnthropicAPIKey != "" {
		enricher = ai.NewJudgeClient(ai.JudgeConfig{
			BaseURL: cfg.JudgeBaseURL,
			APIKey:  cfg.AnthropicAPIKey,
			Model:   cfg.JudgeModel,
			Timeout: 60 * time.Second,
		})
	} else {
		log.Warn().Msg("ANTHROPIC_API_KEY not set, focus judging and session summaries disabled")
	}

	svc := worker.NewService(Version, cfg, store, pipeline, enricher)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	settingsWatcher, err := watcher.New(config.SettingsPath(), func() {
		// Settings changes apply on the next daemon start; loops in
		// flight keep their timing.
		log.Info().Msg("Settings updated, restart attuned to apply")
	})
	if err != nil {
		log.Warn().Err(err).Msg("Settings watcher unavailable")
	} else {
		_ = settingsWatcher.Start()
		defer settingsWatcher.Stop()
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return svc.Start()
	})

	g.Go(func() error {
		select {
		case sig := <-sigCh:
			log.Info().Str("signal", sig.String()).Msg("Shutting down")
		case <-gctx.Done():
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		return svc.Shutdown(shutdownCtx)
	})

	log.Info().Str("version", Version).Int("port", cfg.WorkerPort).Msg("attuned starting")

	if err := g.Wait(); err != nil {
		log.Fatal().Err(err).Msg("Daemon exited with error")
	}
	log.Info().Msg("attuned stopped")
}
