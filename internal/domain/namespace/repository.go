package namespace

import (
	"context"

	"github.com/google/uuid"
)

// Repository provides an interface for operations related to namespace entities.
//
//go:generate mockgen --destination=../../../internal/gen/mock/namespace/namespace_mock.go --package=mock . Repository
type Repository interface {
	Create(ctx context.Context, n *Namespace) (*Namespace, error)
	Get(ctx context.Context, warehouseID, id uuid.UUID) (*Namespace, error)
	GetByIdent(ctx context.Context, warehouseID uuid.UUID, ident Ident) (*Namespace, error)

	// ListChildren returns the direct children of parent (nil for root-level namespaces)
	// after the given cursor row id, fetching limit+1 rows for look-ahead pagination.
	ListChildren(ctx context.Context, warehouseID uuid.UUID, parent *uuid.UUID, afterID string, limit int) ([]*Namespace, error)

	UpdateProperties(ctx context.Context, warehouseID, id uuid.UUID, properties map[string]string) (*Namespace, error)
	SetProtected(ctx context.Context, warehouseID, id uuid.UUID, protected bool) error
	IsEmpty(ctx context.Context, warehouseID, id uuid.UUID) (bool, error)
	Delete(ctx context.Context, warehouseID, id uuid.UUID) error
}
