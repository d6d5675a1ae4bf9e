// Package task holds the durable task-queue entity (spec.md §4.4): lease-based
// scheduling, cooperative cancellation, bounded retry, and attempt history.
package task

import (
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a queued task.
type Status string

const (
	StatusScheduled Status = "scheduled" // waiting for a worker to pick it up
	StatusRunning   Status = "running"   // a worker holds the lease and is heartbeating
	StatusShouldStop Status = "should-stop" // cancellation requested; the worker's next Heartbeat fails with ErrTaskNotRunning
)

// Outcome is set once a task leaves Running, nil while still in flight.
type Outcome string

const (
	OutcomeSuccess   Outcome = "success"
	OutcomeFailed    Outcome = "failed"
	OutcomeCancelled Outcome = "cancelled"
)

// Attempt records one finished pickup of a task. A row is written when the worker
// records success or failure; a pickup or cancellation on its own adds no row.
type Attempt struct {
	AttemptNumber    int
	PickedUpAt       time.Time
	FinishedAt       *time.Time
	Outcome          *Outcome
	Message          string
	ExecutionDetails []byte // opaque JSON blob set by the worker (lakekeeper tasks.rs supplement)
}

// Task is one row in the durable queue: at most one active (Scheduled|Running|
// ShouldStop) row may exist per (EntityID, QueueName) — spec.md §4.4 invariant.
type Task struct {
	TaskID           uuid.UUID
	ParentTaskID     *uuid.UUID
	WarehouseID      uuid.UUID
	QueueName        string
	EntityID         uuid.UUID
	TaskData         []byte // opaque JSON payload interpreted by the queue_name's worker
	Status           Status
	Outcome          *Outcome
	Attempt          int
	ScheduledFor     time.Time
	PickedUpAt       *time.Time
	LastHeartbeatAt  *time.Time
	Progress         float32 // 0.0..1.0, worker-reported
	History          []Attempt
	CreatedAt        time.Time
}

// IsActive reports whether this task still occupies the one-active-row-per-entity slot.
func (t Task) IsActive() bool {
	return t.Status == StatusScheduled || t.Status == StatusRunning || t.Status == StatusShouldStop
}

// LeaseExpired reports whether a Running task's heartbeat is older than leaseDuration,
// meaning a crashed worker's lease should be reclaimed (spec.md §4.4 crash recovery).
func (t Task) LeaseExpired(now time.Time, leaseDuration time.Duration) bool {
	if t.Status != StatusRunning {
		return false
	}

	last := t.LastHeartbeatAt
	if last == nil {
		last = t.PickedUpAt
	}

	if last == nil {
		return true
	}

	return now.Sub(*last) > leaseDuration
}

// RetryPolicy bounds attempts and backs off between them (spec.md §4.4).
type RetryPolicy struct {
	MaxAttempts     int
	InitialBackoff  time.Duration
	MaxBackoff      time.Duration
	BackoffFactor   float64
}

// NextBackoff returns the delay before the attempt-th retry (1-indexed), capped at
// MaxBackoff, following the same exponential-backoff shape as cenkalti/backoff/v4.
func (p RetryPolicy) NextBackoff(attempt int) time.Duration {
	d := p.InitialBackoff

	for i := 1; i < attempt; i++ {
		d = time.Duration(float64(d) * p.BackoffFactor)
		if d > p.MaxBackoff {
			return p.MaxBackoff
		}
	}

	return d
}

// Exhausted reports whether attempt has used up the policy's retry budget.
func (p RetryPolicy) Exhausted(attempt int) bool {
	return attempt >= p.MaxAttempts
}
