// Package monitor runs the per-session monitoring loop: capture a screenshot
// on a fixed cadence, describe it locally, judge the description against the
// session goal, persist the verdict, and nudge on sustained distraction.
package monitor

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dhruvjain2905/Attune/internal/ai"
	"github.com/dhruvjain2905/Attune/internal/capture"
	"github.com/dhruvjain2905/Attune/internal/notify"
	"github.com/dhruvjain2905/Attune/internal/privacy"
	"github.com/dhruvjain2905/Attune/internal/worker/sse"
	"github.com/dhruvjain2905/Attune/pkg/models"
)

// historySize is how many recent descriptions travel with each judge call.
const historySize = 5

// Describer turns a screenshot into a short activity description.
type Describer interface {
	Describe(ctx context.Context, image []byte) (string, error)
}

// Judger classifies an activity description against the session goal.
type Judger interface {
	Judge(ctx context.Context, goal, description string, history []string) (*ai.Verdict, error)
}

// AnalysisWriter persists tick verdicts.
type AnalysisWriter interface {
	AppendAnalysis(ctx context.Context, analysis *models.Analysis) (int64, error)
}

// NudgeWriter persists nudge events.
type NudgeWriter interface {
	AppendNudge(ctx context.Context, nudge *models.Nudge) (int64, error)
}

// EventSink receives monitoring events for streaming to clients.
type EventSink interface {
	Broadcast(event sse.Event)
}

// Pipeline bundles the external effects one tick runs through.
type Pipeline struct {
	Capturer capture.Capturer
	Vision   Describer
	Judge    Judger
	Notifier notify.Notifier
}

// RunnerConfig holds the timing knobs for one monitoring loop.
type RunnerConfig struct {
	TickInterval   time.Duration
	InitialDelay   time.Duration
	CaptureTimeout time.Duration
	VisionTimeout  time.Duration
	JudgeTimeout   time.Duration
}

// Runner drives the monitoring loop for a single session. Ticks fire at fixed
// wall-clock offsets from the loop start; a tick that is still running when
// the next offset passes absorbs it, so ticks never queue up.
type Runner struct {
	session  *models.Session
	cfg      RunnerConfig
	pipeline Pipeline
	policy   *NudgePolicy

	analyses AnalysisWriter
	nudges   NudgeWriter
	events   EventSink

	history []string

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewRunner creates a runner for the session. The policy carries any
// pre-seeded cooldown state from a resumed session.
func NewRunner(session *models.Session, cfg RunnerConfig, pipeline Pipeline, policy *NudgePolicy, analyses AnalysisWriter, nudges NudgeWriter, events EventSink) *Runner {
	return &Runner{
		session:  session,
		cfg:      cfg,
		pipeline: pipeline,
		policy:   policy,
		analyses: analyses,
		nudges:   nudges,
		events:   events,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Run executes the monitoring loop until Stop is called or ctx is cancelled.
// An in-flight tick always completes; only the wait for the next tick is
// interruptible.
func (r *Runner) Run(ctx context.Context) {
	defer close(r.doneCh)

	start := time.Now()
	log.Info().
		Str("sessionId", r.session.ID).
		Dur("tickInterval", r.cfg.TickInterval).
		Dur("initialDelay", r.cfg.InitialDelay).
		Msg("Monitoring loop started")

	timer := time.NewTimer(r.cfg.InitialDelay)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("sessionId", r.session.ID).Msg("Monitoring loop cancelled")
			return
		case <-r.stopCh:
			log.Info().Str("sessionId", r.session.ID).Msg("Monitoring loop stopped")
			return
		case <-timer.C:
			r.tick(ctx, time.Now())
			timer.Reset(r.untilNextTick(start, time.Now()))
		}
	}
}

// untilNextTick returns the wait until the next fixed offset strictly after
// now. Offsets a slow tick ran past are skipped, not queued.
func (r *Runner) untilNextTick(start, now time.Time) time.Duration {
	elapsed := now.Sub(start) - r.cfg.InitialDelay
	if elapsed < 0 {
		elapsed = 0
	}
	ticks := int64(elapsed/r.cfg.TickInterval) + 1
	next := start.Add(r.cfg.InitialDelay + time.Duration(ticks)*r.cfg.TickInterval)
	return next.Sub(now)
}

// Stop signals the loop to exit and waits for any in-flight tick to finish.
func (r *Runner) Stop() {
	select {
	case <-r.stopCh:
	default:
		close(r.stopCh)
	}
	<-r.doneCh
}

// Done returns a channel closed when the loop has exited.
func (r *Runner) Done() <-chan struct{} {
	return r.doneCh
}

// tick runs one capture-describe-judge-persist pass.
func (r *Runner) tick(ctx context.Context, now time.Time) {
	captureCtx, cancel := context.WithTimeout(ctx, r.cfg.CaptureTimeout)
	image, err := r.pipeline.Capturer.Capture(captureCtx)
	cancel()
	if err != nil {
		log.Warn().Err(err).Str("sessionId", r.session.ID).Msg("Screenshot failed, skipping tick")
		return
	}

	visionCtx, cancel := context.WithTimeout(ctx, r.cfg.VisionTimeout)
	description, err := r.pipeline.Vision.Describe(visionCtx, image)
	cancel()
	if err != nil {
		log.Warn().Err(err).Str("sessionId", r.session.ID).Msg("Vision description failed, skipping tick")
		return
	}
	description = privacy.Clean(description)

	verdict := r.judge(ctx, description)

	analysis := models.NewAnalysis(r.session.ID, now, verdict.Focused, verdict.Explanation, description)
	if _, err := r.analyses.AppendAnalysis(ctx, analysis); err != nil {
		log.Error().Err(err).Str("sessionId", r.session.ID).Msg("Failed to persist analysis")
		return
	}

	log.Info().
		Str("sessionId", r.session.ID).
		Bool("focused", verdict.Focused).
		Int("streak", r.policy.Streak()).
		Msg("Tick recorded")

	r.events.Broadcast(sse.Event{
		Type:      sse.EventTick,
		SessionID: r.session.ID,
		Payload:   analysis,
	})

	if r.policy.Observe(verdict.Focused, now) {
		r.sendNudge(ctx, now, verdict.Explanation)
	}

	r.history = append(r.history, description)
	if len(r.history) > historySize {
		r.history = r.history[len(r.history)-historySize:]
	}
}

// judge classifies the description, falling back to a focused verdict when
// the judge is unreachable or its reply cannot be parsed.
func (r *Runner) judge(ctx context.Context, description string) ai.Verdict {
	judgeCtx, cancel := context.WithTimeout(ctx, r.cfg.JudgeTimeout)
	defer cancel()

	verdict, err := r.pipeline.Judge.Judge(judgeCtx, r.session.Goal, description, r.history)
	if err != nil {
		log.Warn().Err(err).Str("sessionId", r.session.ID).Msg("Judge unavailable, assuming focused")
		return ai.Verdict{Focused: true, Explanation: "Activity could not be evaluated, assuming on task"}
	}
	return *verdict
}

// sendNudge persists the nudge, shows the notification, and streams the
// event. Notification delivery is best effort.
func (r *Runner) sendNudge(ctx context.Context, now time.Time, reason string) {
	nudge := models.NewNudge(r.session.ID, now, reason)
	if _, err := r.nudges.AppendNudge(ctx, nudge); err != nil {
		log.Error().Err(err).Str("sessionId", r.session.ID).Msg("Failed to persist nudge")
		return
	}

	log.Info().Str("sessionId", r.session.ID).Str("reason", reason).Msg("Nudge sent")

	if err := r.pipeline.Notifier.Notify(ctx, "Time to refocus", nudgeMessage(r.session.Goal)); err != nil {
		log.Warn().Err(err).Msg("Desktop notification failed")
	}

	r.events.Broadcast(sse.Event{
		Type:      sse.EventNudge,
		SessionID: r.session.ID,
		Payload:   nudge,
	})
}

func nudgeMessage(goal string) string {
	if goal == "" {
		return "You seem off track. Ready to get back to it?"
	}
	return "You seem off track from: " + goal
}
