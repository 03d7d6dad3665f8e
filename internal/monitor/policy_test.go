package monitor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNudgePolicyFiresAfterThreshold(t *testing.T) {
	policy := NewNudgePolicy(3, 5*time.Minute)
	now := time.Now()

	assert.False(t, policy.Observe(false, now))
	assert.False(t, policy.Observe(false, now.Add(30*time.Second)))
	assert.True(t, policy.Observe(false, now.Add(60*time.Second)))
}

func TestNudgePolicyFocusResetsStreak(t *testing.T) {
	policy := NewNudgePolicy(3, 5*time.Minute)
	now := time.Now()

	assert.False(t, policy.Observe(false, now))
	assert.False(t, policy.Observe(false, now.Add(30*time.Second)))
	assert.False(t, policy.Observe(true, now.Add(60*time.Second)))
	assert.Equal(t, 0, policy.Streak())

	// The streak starts over after the focused tick.
	assert.False(t, policy.Observe(false, now.Add(90*time.Second)))
	assert.False(t, policy.Observe(false, now.Add(120*time.Second)))
	assert.True(t, policy.Observe(false, now.Add(150*time.Second)))
}

func TestNudgePolicyCooldownLimitsToOneNudge(t *testing.T) {
	policy := NewNudgePolicy(3, 5*time.Minute)
	start := time.Now()

	// Ten consecutive distracted ticks at 30s spacing span exactly the
	// cooldown window, so only the first threshold crossing fires.
	nudges := 0
	for i := 0; i < 10; i++ {
		if policy.Observe(false, start.Add(time.Duration(i)*30*time.Second)) {
			nudges++
		}
	}
	assert.Equal(t, 1, nudges)
}

func TestNudgePolicyFiresAgainAfterCooldown(t *testing.T) {
	policy := NewNudgePolicy(3, 5*time.Minute)
	start := time.Now()

	assert.False(t, policy.Observe(false, start))
	assert.False(t, policy.Observe(false, start.Add(30*time.Second)))
	assert.True(t, policy.Observe(false, start.Add(60*time.Second)))

	// Streak rebuilds while the cooldown holds.
	assert.False(t, policy.Observe(false, start.Add(90*time.Second)))
	assert.False(t, policy.Observe(false, start.Add(120*time.Second)))
	assert.False(t, policy.Observe(false, start.Add(150*time.Second)))

	// Past the cooldown the standing streak fires again.
	assert.True(t, policy.Observe(false, start.Add(60*time.Second).Add(5*time.Minute)))
}

func TestNudgePolicySeedLastNudge(t *testing.T) {
	policy := NewNudgePolicy(3, 5*time.Minute)
	start := time.Now()
	policy.SeedLastNudge(start.Add(-time.Minute))

	// Threshold reached but the inherited cooldown still holds.
	assert.False(t, policy.Observe(false, start))
	assert.False(t, policy.Observe(false, start.Add(30*time.Second)))
	assert.False(t, policy.Observe(false, start.Add(60*time.Second)))

	// Cooldown expires four minutes after start.
	assert.True(t, policy.Observe(false, start.Add(4*time.Minute).Add(30*time.Second)))
}
