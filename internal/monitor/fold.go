package monitor

import (
	"time"

	"github.com/dhruvjain2905/Attune/pkg/models"
)

// liveTailCap bounds how much time the newest analysis can claim in live
// stats, so a stalled loop does not inflate the running totals.
const liveTailCap = 120 * time.Second

// Stats is the time attribution computed from a session's analyses. Analyses
// are the source of truth; stats are always recomputable from them, which is
// what makes sessions recoverable after a crash.
type Stats struct {
	ProductiveTime    int64   `json:"productive_time"`     // Seconds
	NotProductiveTime int64   `json:"not_productive_time"` // Seconds
	FocusPercentage   float64 `json:"focus_percentage"`
	FocusedCount      int     `json:"focused_count"`
	DistractedCount   int     `json:"distracted_count"`
}

// ComputeStats attributes time across a finished session's analyses. Each
// analysis covers the gap to the next one; the last covers one tick interval.
func ComputeStats(analyses []*models.Analysis, tickInterval time.Duration) Stats {
	return computeStats(analyses, func(last *models.Analysis) time.Duration {
		return tickInterval
	})
}

// ComputeLiveStats attributes time for a session still in progress. The last
// analysis covers the time elapsed since it, capped so a stalled loop cannot
// inflate the totals.
func ComputeLiveStats(analyses []*models.Analysis, now time.Time) Stats {
	return computeStats(analyses, func(last *models.Analysis) time.Duration {
		tail := now.Sub(last.Time())
		if tail < 0 {
			tail = 0
		}
		if tail > liveTailCap {
			tail = liveTailCap
		}
		return tail
	})
}

func computeStats(analyses []*models.Analysis, tailDuration func(*models.Analysis) time.Duration) Stats {
	var stats Stats

	for i, a := range analyses {
		if a.Focused {
			stats.FocusedCount++
		} else {
			stats.DistractedCount++
		}

		var covered time.Duration
		if i < len(analyses)-1 {
			covered = analyses[i+1].Time().Sub(a.Time())
			if covered < 0 {
				covered = 0
			}
		} else {
			covered = tailDuration(a)
		}

		seconds := int64(covered / time.Second)
		if a.Focused {
			stats.ProductiveTime += seconds
		} else {
			stats.NotProductiveTime += seconds
		}
	}

	total := stats.ProductiveTime + stats.NotProductiveTime
	if total > 0 {
		stats.FocusPercentage = float64(stats.ProductiveTime) / float64(total) * 100
	}
	return stats
}

// AverageGapSeconds returns the mean spacing between consecutive analyses,
// falling back to the given default when fewer than two exist. Used to weight
// distraction categorization.
func AverageGapSeconds(analyses []*models.Analysis, fallback time.Duration) int {
	if len(analyses) < 2 {
		return int(fallback / time.Second)
	}
	span := analyses[len(analyses)-1].Time().Sub(analyses[0].Time())
	avg := span / time.Duration(len(analyses)-1)
	if avg <= 0 {
		return int(fallback / time.Second)
	}
	return int(avg / time.Second)
}
