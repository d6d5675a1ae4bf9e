// Package events defines the event envelope and Listener port dispatched on every
// catalog mutation (spec.md §4.7), enriched with the SequenceNumber/Actor context
// supplemented from lakekeeper's events/context.rs.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Type names the mutation this event reports.
type Type string

const (
	TypeWarehouseCreated  Type = "warehouse.created"
	TypeWarehouseDeleted  Type = "warehouse.deleted"
	TypeNamespaceCreated  Type = "namespace.created"
	TypeNamespaceDeleted  Type = "namespace.deleted"
	TypeTableCreated      Type = "table.created"
	TypeTableCommitted    Type = "table.committed"
	TypeTableDropped      Type = "table.dropped"
	TypeTableUndropped    Type = "table.undropped"
	TypeViewCreated       Type = "view.created"
	TypeViewCommitted     Type = "view.committed"
	TypeViewDropped       Type = "view.dropped"
	TypeTaskFailed        Type = "task.failed"
)

// Context carries attribution for an Event: the acting identity and a monotonic
// per-warehouse sequence number, so subscribers can detect gaps and order events
// without relying on wall-clock time (lakekeeper events/context.rs supplement).
type Context struct {
	ActorID        string
	SequenceNumber int64
	TraceID        string
}

// Event is the envelope dispatched to every registered Listener.
type Event struct {
	ID          uuid.UUID
	Type        Type
	WarehouseID uuid.UUID
	EntityID    uuid.UUID
	Payload     []byte // opaque JSON body specific to Type
	OccurredAt  time.Time
	Context     Context
}

// Listener receives dispatched events. Implementations must not block the caller
// indefinitely: the command layer calls Handle synchronously with the request
// context and applies no timeout of its own.
type Listener interface {
	Name() string
	Handle(ctx context.Context, event Event) error
}

// Sequencer advances a per-warehouse counter via Next; adapters persist the current
// value (e.g. in Postgres) so Sequencer survives restarts.
type Sequencer interface {
	Next(ctx context.Context, warehouseID uuid.UUID) (int64, error)
}
