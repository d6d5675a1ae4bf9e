package task

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestRetryPolicyExhaustion mirrors spec.md §8 scenario S6: max_retries=2 allows
// exactly two attempts before the policy reports exhaustion, so a worker loop stops
// scheduling a third.
func TestRetryPolicyExhaustion(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 2, InitialBackoff: time.Second, MaxBackoff: time.Minute, BackoffFactor: 2}

	assert.False(t, p.Exhausted(1))
	assert.True(t, p.Exhausted(2))
	assert.True(t, p.Exhausted(3))
}

// TestRetryPolicyBackoffGrowsAndCaps checks exponential growth and the MaxBackoff cap.
func TestRetryPolicyBackoffGrowsAndCaps(t *testing.T) {
	p := RetryPolicy{InitialBackoff: time.Second, MaxBackoff: 5 * time.Second, BackoffFactor: 2}

	assert.Equal(t, time.Second, p.NextBackoff(1))
	assert.Equal(t, 2*time.Second, p.NextBackoff(2))
	assert.Equal(t, 4*time.Second, p.NextBackoff(3))
	assert.Equal(t, 5*time.Second, p.NextBackoff(4), "must cap at MaxBackoff")
}

// TestLeaseExpiredOnlyAppliesToRunningTasks checks that lease-expiry crash recovery is
// scoped to Running tasks, and falls back to PickedUpAt before any heartbeat lands.
func TestLeaseExpiredOnlyAppliesToRunningTasks(t *testing.T) {
	now := time.Now()
	pickedUp := now.Add(-10 * time.Minute)

	scheduled := Task{Status: StatusScheduled, PickedUpAt: &pickedUp}
	assert.False(t, scheduled.LeaseExpired(now, time.Minute))

	runningStale := Task{Status: StatusRunning, PickedUpAt: &pickedUp}
	assert.True(t, runningStale.LeaseExpired(now, time.Minute))

	recentHeartbeat := now.Add(-10 * time.Second)
	runningFresh := Task{Status: StatusRunning, PickedUpAt: &pickedUp, LastHeartbeatAt: &recentHeartbeat}
	assert.False(t, runningFresh.LeaseExpired(now, time.Minute))
}

// TestIsActiveCoversScheduledRunningShouldStop checks the one-active-row-per-entity
// invariant's definition of "active".
func TestIsActiveCoversScheduledRunningShouldStop(t *testing.T) {
	assert.True(t, Task{Status: StatusScheduled}.IsActive())
	assert.True(t, Task{Status: StatusRunning}.IsActive())
	assert.True(t, Task{Status: StatusShouldStop}.IsActive())
}
