package task

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository provides an interface for operations on the durable task queue.
//
//go:generate mockgen --destination=../../../internal/gen/mock/task/task_mock.go --package=mock . Repository
type Repository interface {
	// Enqueue inserts a new Scheduled task, failing with ErrActiveTaskExists if an
	// active row already exists for (EntityID, QueueName) — spec.md §4.4 invariant.
	Enqueue(ctx context.Context, t *Task) (*Task, error)

	// PickNewTask atomically selects and leases the oldest due, Scheduled task in
	// queueName (or one whose Running lease expired), setting it Running and
	// recording PickedUpAt/Attempt. Returns ErrNoTaskAvailable when none is due.
	PickNewTask(ctx context.Context, queueName string, leaseDuration time.Duration, now time.Time) (*Task, error)

	Heartbeat(ctx context.Context, taskID uuid.UUID, progress float32, now time.Time) error
	RecordSuccess(ctx context.Context, taskID uuid.UUID, executionDetails []byte, now time.Time) error
	RecordFailure(ctx context.Context, taskID uuid.UUID, message string, now time.Time) error

	// RequestStop marks a Running task ShouldStop, for the worker's cooperative
	// cancellation check.
	RequestStop(ctx context.Context, taskID uuid.UUID) error
	CancelScheduled(ctx context.Context, taskID uuid.UUID) error

	Get(ctx context.Context, taskID uuid.UUID) (*Task, error)
	GetByEntity(ctx context.Context, entityID uuid.UUID, queueName string) (*Task, error)
	List(ctx context.Context, warehouseID uuid.UUID, queueName string, statuses []Status, afterID string, limit int) ([]*Task, error)
}

type ErrActiveTaskExists struct {
	EntityID  uuid.UUID
	QueueName string
}

func (e ErrActiveTaskExists) Error() string {
	return "task: an active task already exists for this entity/queue"
}
