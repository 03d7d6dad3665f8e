package monitor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dhruvjain2905/Attune/pkg/models"
)

func makeAnalyses(base time.Time, ticks []struct {
	offset  time.Duration
	focused bool
}) []*models.Analysis {
	analyses := make([]*models.Analysis, 0, len(ticks))
	for _, tk := range ticks {
		analyses = append(analyses, models.NewAnalysis("sess-1", base.Add(tk.offset), tk.focused, "", ""))
	}
	return analyses
}

func TestComputeStats(t *testing.T) {
	base := time.Now().Truncate(time.Second)

	analyses := makeAnalyses(base, []struct {
		offset  time.Duration
		focused bool
	}{
		{0, true},
		{15 * time.Second, true},
		{30 * time.Second, false},
		{45 * time.Second, false},
		{60 * time.Second, true},
	})

	stats := ComputeStats(analyses, 15*time.Second)

	assert.Equal(t, int64(45), stats.ProductiveTime)
	assert.Equal(t, int64(30), stats.NotProductiveTime)
	assert.InDelta(t, 60.0, stats.FocusPercentage, 0.001)
	assert.Equal(t, 3, stats.FocusedCount)
	assert.Equal(t, 2, stats.DistractedCount)
}

func TestComputeStatsEmpty(t *testing.T) {
	stats := ComputeStats(nil, 30*time.Second)

	assert.Zero(t, stats.ProductiveTime)
	assert.Zero(t, stats.NotProductiveTime)
	assert.Zero(t, stats.FocusPercentage)
}

func TestComputeStatsSingleAnalysis(t *testing.T) {
	base := time.Now().Truncate(time.Second)
	analyses := []*models.Analysis{models.NewAnalysis("sess-1", base, true, "", "")}

	stats := ComputeStats(analyses, 30*time.Second)

	assert.Equal(t, int64(30), stats.ProductiveTime)
	assert.InDelta(t, 100.0, stats.FocusPercentage, 0.001)
}

func TestComputeStatsUnevenGaps(t *testing.T) {
	base := time.Now().Truncate(time.Second)

	// A slow tick stretched one gap to 50s; that time belongs to the verdict
	// that opened it.
	analyses := makeAnalyses(base, []struct {
		offset  time.Duration
		focused bool
	}{
		{0, false},
		{50 * time.Second, true},
	})

	stats := ComputeStats(analyses, 30*time.Second)

	assert.Equal(t, int64(30), stats.ProductiveTime)
	assert.Equal(t, int64(50), stats.NotProductiveTime)
}

func TestComputeLiveStats(t *testing.T) {
	base := time.Now().Truncate(time.Second)

	analyses := makeAnalyses(base, []struct {
		offset  time.Duration
		focused bool
	}{
		{0, true},
		{30 * time.Second, false},
	})

	stats := ComputeLiveStats(analyses, base.Add(40*time.Second))

	assert.Equal(t, int64(30), stats.ProductiveTime)
	assert.Equal(t, int64(10), stats.NotProductiveTime)
}

func TestComputeLiveStatsTailCapped(t *testing.T) {
	base := time.Now().Truncate(time.Second)
	analyses := []*models.Analysis{models.NewAnalysis("sess-1", base, true, "", "")}

	// Ten minutes of silence credits at most the cap.
	stats := ComputeLiveStats(analyses, base.Add(10*time.Minute))

	assert.Equal(t, int64(120), stats.ProductiveTime)
}

func TestAverageGapSeconds(t *testing.T) {
	base := time.Now().Truncate(time.Second)

	analyses := makeAnalyses(base, []struct {
		offset  time.Duration
		focused bool
	}{
		{0, true},
		{30 * time.Second, true},
		{90 * time.Second, true},
	})

	assert.Equal(t, 45, AverageGapSeconds(analyses, 30*time.Second))
	assert.Equal(t, 30, AverageGapSeconds(nil, 30*time.Second))
	assert.Equal(t, 30, AverageGapSeconds(analyses[:1], 30*time.Second))
}
