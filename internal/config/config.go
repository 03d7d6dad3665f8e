// Package config provides configuration management for attune.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	json "github.com/goccy/go-json"
)

const (
	// DefaultWorkerPort is the default HTTP port for the attune daemon.
	DefaultWorkerPort = 8710

	// DefaultTickInterval is the default seconds between monitoring ticks.
	DefaultTickInterval = 30

	// DefaultInitialDelay is the default seconds before the first capture.
	DefaultInitialDelay = 10

	// DefaultNudgeThreshold is the number of consecutive distracted ticks
	// required before a nudge fires.
	DefaultNudgeThreshold = 3

	// DefaultNudgeCooldown is the default seconds between nudges.
	DefaultNudgeCooldown = 300

	// DefaultVisionModel is the local vision model used to describe screens.
	DefaultVisionModel = "qwen3-vl:2b"

	// DefaultJudgeModel is the reasoning model used for focus verdicts.
	DefaultJudgeModel = "claude-sonnet-4-20250514"
)

// Config holds all attune settings. Values are loaded from
// ~/.attune/settings.json and may be overridden per-key by environment
// variables of the same name.
type Config struct {
	WorkerPort           int    `json:"ATTUNE_WORKER_PORT"`
	MaxConns             int    `json:"ATTUNE_MAX_CONNS"`
	TickIntervalSeconds  int    `json:"ATTUNE_TICK_INTERVAL"`
	InitialDelaySeconds  int    `json:"ATTUNE_INITIAL_DELAY"`
	NudgeThreshold       int    `json:"ATTUNE_NUDGE_THRESHOLD"`
	NudgeCooldownSeconds int    `json:"ATTUNE_NUDGE_COOLDOWN_SECONDS"`
	CaptureTimeoutSecs   int    `json:"ATTUNE_CAPTURE_TIMEOUT_SECONDS"`
	VisionTimeoutSecs    int    `json:"ATTUNE_VISION_TIMEOUT_SECONDS"`
	JudgeTimeoutSecs     int    `json:"ATTUNE_JUDGE_TIMEOUT_SECONDS"`
	OllamaURL            string `json:"ATTUNE_OLLAMA_URL"`
	VisionModel          string `json:"ATTUNE_VISION_MODEL"`
	JudgeBaseURL         string `json:"ATTUNE_JUDGE_BASE_URL"`
	JudgeModel           string `json:"ATTUNE_JUDGE_MODEL"`
	AnthropicAPIKey      string `json:"ANTHROPIC_API_KEY"`
	CaptureCommand       string `json:"ATTUNE_CAPTURE_COMMAND"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		WorkerPort:           DefaultWorkerPort,
		MaxConns:             4,
		TickIntervalSeconds:  DefaultTickInterval,
		InitialDelaySeconds:  DefaultInitialDelay,
		NudgeThreshold:       DefaultNudgeThreshold,
		NudgeCooldownSeconds: DefaultNudgeCooldown,
		CaptureTimeoutSecs:   2,
		VisionTimeoutSecs:    20,
		JudgeTimeoutSecs:     20,
		OllamaURL:            "http://localhost:11434",
		VisionModel:          DefaultVisionModel,
		JudgeBaseURL:         "https://api.anthropic.com",
		JudgeModel:           DefaultJudgeModel,
	}
}

// TickInterval returns the tick period as a duration.
func (c *Config) TickInterval() time.Duration {
	return time.Duration(c.TickIntervalSeconds) * time.Second
}

// InitialDelay returns the delay before the first capture.
func (c *Config) InitialDelay() time.Duration {
	return time.Duration(c.InitialDelaySeconds) * time.Second
}

// NudgeCooldown returns the minimum spacing between nudges.
func (c *Config) NudgeCooldown() time.Duration {
	return time.Duration(c.NudgeCooldownSeconds) * time.Second
}

// CaptureTimeout returns the per-tick screenshot timeout.
func (c *Config) CaptureTimeout() time.Duration {
	return time.Duration(c.CaptureTimeoutSecs) * time.Second
}

// VisionTimeout returns the local vision classifier timeout.
func (c *Config) VisionTimeout() time.Duration {
	return time.Duration(c.VisionTimeoutSecs) * time.Second
}

// JudgeTimeout returns the contextual judge timeout.
func (c *Config) JudgeTimeout() time.Duration {
	return time.Duration(c.JudgeTimeoutSecs) * time.Second
}

// DataDir returns the attune data directory (~/.attune).
func DataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".attune")
}

// DBPath returns the path to the SQLite database.
func DBPath() string {
	return filepath.Join(DataDir(), "attune.db")
}

// SettingsPath returns the path to the settings file.
func SettingsPath() string {
	return filepath.Join(DataDir(), "settings.json")
}

// EnsureDataDir creates the data directory if missing.
func EnsureDataDir() error {
	return os.MkdirAll(DataDir(), 0750)
}

// EnsureSettings writes a default settings file if none exists.
func EnsureSettings() error {
	path := SettingsPath()
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	data, err := json.MarshalIndent(Default(), "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// EnsureAll creates the data directory and settings file.
func EnsureAll() error {
	if err := EnsureDataDir(); err != nil {
		return err
	}
	return EnsureSettings()
}

// Load reads settings.json, falling back to defaults for missing or invalid
// content, then applies environment overrides.
func Load() (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(SettingsPath())
	if err == nil {
		if jsonErr := json.Unmarshal(data, cfg); jsonErr != nil {
			// Invalid settings are not fatal - run on defaults.
			cfg = Default()
		}
	}

	applyEnvOverrides(cfg)
	normalize(cfg)
	return cfg, nil
}

// applyEnvOverrides lets environment variables win over settings.json.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("ATTUNE_WORKER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil && port > 0 {
			cfg.WorkerPort = port
		}
	}
	if v := os.Getenv("ATTUNE_TICK_INTERVAL"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			cfg.TickIntervalSeconds = secs
		}
	}
	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
		cfg.AnthropicAPIKey = v
	}
	if v := os.Getenv("ATTUNE_OLLAMA_URL"); v != "" {
		cfg.OllamaURL = v
	}
}

// normalize replaces zero or negative values with defaults.
func normalize(cfg *Config) {
	def := Default()
	if cfg.WorkerPort <= 0 {
		cfg.WorkerPort = def.WorkerPort
	}
	if cfg.MaxConns <= 0 {
		cfg.MaxConns = def.MaxConns
	}
	if cfg.TickIntervalSeconds <= 0 {
		cfg.TickIntervalSeconds = def.TickIntervalSeconds
	}
	if cfg.InitialDelaySeconds < 0 {
		cfg.InitialDelaySeconds = def.InitialDelaySeconds
	}
	if cfg.NudgeThreshold <= 0 {
		cfg.NudgeThreshold = def.NudgeThreshold
	}
	if cfg.NudgeCooldownSeconds < 0 {
		cfg.NudgeCooldownSeconds = def.NudgeCooldownSeconds
	}
	if cfg.CaptureTimeoutSecs <= 0 {
		cfg.CaptureTimeoutSecs = def.CaptureTimeoutSecs
	}
	if cfg.VisionTimeoutSecs <= 0 {
		cfg.VisionTimeoutSecs = def.VisionTimeoutSecs
	}
	if cfg.JudgeTimeoutSecs <= 0 {
		cfg.JudgeTimeoutSecs = def.JudgeTimeoutSecs
	}
	if cfg.OllamaURL == "" {
		cfg.OllamaURL = def.OllamaURL
	}
	if cfg.VisionModel == "" {
		cfg.VisionModel = def.VisionModel
	}
	if cfg.JudgeBaseURL == "" {
		cfg.JudgeBaseURL = def.JudgeBaseURL
	}
	if cfg.JudgeModel == "" {
		cfg.JudgeModel = def.JudgeModel
	}
}

var (
	globalConfig *Config
	configOnce   sync.Once
)

// Get returns the cached global configuration, loading it on first use.
func Get() *Config {
	configOnce.Do(func() {
		cfg, err := Load()
		if err != nil {
			cfg = Default()
		}
		globalConfig = cfg
	})
	return globalConfig
}
