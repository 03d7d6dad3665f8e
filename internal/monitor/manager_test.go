package monitor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dhruvjain2905/Attune/internal/ai"
	"github.com/dhruvjain2905/Attune/internal/notify"
	"github.com/dhruvjain2905/Attune/pkg/models"
)

type fakeSessionReader struct {
	sessions map[string]*models.Session
}

func (f *fakeSessionReader) GetSession(ctx context.Context, id string) (*models.Session, error) {
	sess, ok := f.sessions[id]
	if !ok {
		return nil, models.ErrSessionNotFound
	}
	return sess, nil
}

func newTestManager(sessions ...*models.Session) (*Manager, *fakeIntervalCloser) {
	reader := &fakeSessionReader{sessions: make(map[string]*models.Session)}
	for _, s := range sessions {
		reader.sessions[s.ID] = s
	}
	intervals := &fakeIntervalCloser{}

	cfg := ManagerConfig{
		Runner: RunnerConfig{
			TickInterval:   time.Hour, // Ticks never fire during these tests
			InitialDelay:   time.Hour,
			CaptureTimeout: time.Second,
			VisionTimeout:  time.Second,
			JudgeTimeout:   time.Second,
		},
		NudgeThreshold: 3,
		NudgeCooldown:  5 * time.Minute,
	}
	pipeline := Pipeline{
		Capturer: &fakeCapturer{image: []byte("png")},
		Vision:   &fakeVision{description: "working"},
		Judge:    &fakeJudge{verdict: ai.Verdict{Focused: true}},
		Notifier: notify.NopNotifier{},
	}
	stores := Stores{
		Sessions:  reader,
		Analyses:  &recordingAnalysisStore{},
		Intervals: intervals,
		Nudges:    &recordingNudgeStore{},
	}

	return NewManager(cfg, pipeline, stores, &recordingEvents{}), intervals
}

func TestManagerStartStop(t *testing.T) {
	mgr, intervals := newTestManager(models.NewSession("sess-1", "write docs"))
	defer mgr.Shutdown()

	require.NoError(t, mgr.StartMonitoring(context.Background(), "sess-1"))
	assert.True(t, mgr.IsRunning("sess-1"))
	assert.Equal(t, 1, mgr.RunningCount())

	require.NoError(t, mgr.StopMonitoring(context.Background(), "sess-1"))
	assert.False(t, mgr.IsRunning("sess-1"))
	assert.Equal(t, 1, intervals.closed)
}

func TestManagerDoubleStart(t *testing.T) {
	mgr, _ := newTestManager(models.NewSession("sess-1", "write docs"))
	defer mgr.Shutdown()

	require.NoError(t, mgr.StartMonitoring(context.Background(), "sess-1"))
	assert.ErrorIs(t, mgr.StartMonitoring(context.Background(), "sess-1"), models.ErrMonitorRunning)
}

func TestManagerStartUnknownSession(t *testing.T) {
	mgr, _ := newTestManager()
	defer mgr.Shutdown()

	assert.ErrorIs(t, mgr.StartMonitoring(context.Background(), "missing"), models.ErrSessionNotFound)
}

func TestManagerStartCompletedSession(t *testing.T) {
	sess := models.NewSession("sess-1", "write docs")
	sess.Status = models.SessionStatusCompleted

	mgr, _ := newTestManager(sess)
	defer mgr.Shutdown()

	assert.ErrorIs(t, mgr.StartMonitoring(context.Background(), "sess-1"), models.ErrSessionCompleted)
}

func TestManagerRestartSurvivesStaleCleanup(t *testing.T) {
	mgr, _ := newTestManager(models.NewSession("sess-1", "write docs"))
	defer mgr.Shutdown()

	ctx := context.Background()
	for i := 0; i < 100; i++ {
		require.NoError(t, mgr.StartMonitoring(ctx, "sess-1"))
		require.NoError(t, mgr.StopMonitoring(ctx, "sess-1"))
		require.NoError(t, mgr.StartMonitoring(ctx, "sess-1"))

		// Let the stopped runner's cleanup goroutine run; it must not evict
		// the runner registered after it.
		time.Sleep(time.Millisecond)
		require.True(t, mgr.IsRunning("sess-1"), "iteration %d", i)
		require.ErrorIs(t, mgr.StartMonitoring(ctx, "sess-1"), models.ErrMonitorRunning)

		require.NoError(t, mgr.StopMonitoring(ctx, "sess-1"))
	}
}

func TestManagerStopWhenNotRunning(t *testing.T) {
	mgr, intervals := newTestManager(models.NewSession("sess-1", "write docs"))
	defer mgr.Shutdown()

	// Stopping an unmonitored session is a no-op beyond closing any open
	// interval left behind.
	require.NoError(t, mgr.StopMonitoring(context.Background(), "sess-1"))
	assert.Equal(t, 1, intervals.closed)
}

func TestManagerShutdownStopsRunners(t *testing.T) {
	mgr, _ := newTestManager(models.NewSession("sess-1", "write docs"))

	require.NoError(t, mgr.StartMonitoring(context.Background(), "sess-1"))
	mgr.Shutdown()

	// The runner goroutine removes itself once cancelled.
	assert.Eventually(t, func() bool {
		return mgr.RunningCount() == 0
	}, time.Second, 10*time.Millisecond)
}
