package monitor

import "time"

// NudgePolicy decides when a streak of distracted verdicts warrants a nudge.
// It is pure state machine logic: no clocks, no IO. Not safe for concurrent
// use; each session's runner owns one.
type NudgePolicy struct {
	threshold int
	cooldown  time.Duration
	streak    int
	lastNudge time.Time
}

// NewNudgePolicy creates a policy that nudges after threshold consecutive
// distracted verdicts, at most once per cooldown.
func NewNudgePolicy(threshold int, cooldown time.Duration) *NudgePolicy {
	return &NudgePolicy{threshold: threshold, cooldown: cooldown}
}

// Observe feeds one verdict into the policy and reports whether a nudge
// should fire now. A focused verdict resets the streak. A firing nudge also
// resets the streak, so sustained distraction re-earns the next nudge from
// zero.
func (p *NudgePolicy) Observe(focused bool, now time.Time) bool {
	if focused {
		p.streak = 0
		return false
	}

	p.streak++
	if p.streak < p.threshold {
		return false
	}
	if !p.lastNudge.IsZero() && now.Sub(p.lastNudge) < p.cooldown {
		return false
	}

	p.lastNudge = now
	p.streak = 0
	return true
}

// Streak returns the current consecutive-distraction count.
func (p *NudgePolicy) Streak() int {
	return p.streak
}

// SeedLastNudge primes the cooldown clock, used when resuming a session whose
// nudge history predates this process.
func (p *NudgePolicy) SeedLastNudge(t time.Time) {
	p.lastNudge = t
}
