package warehouse

import (
	"context"

	"github.com/google/uuid"
)

// Repository provides an interface for operations related to warehouse entities.
//
//go:generate mockgen --destination=../../../internal/gen/mock/warehouse/warehouse_mock.go --package=mock . Repository
type Repository interface {
	Create(ctx context.Context, w *Warehouse) (*Warehouse, error)
	Get(ctx context.Context, projectID, id uuid.UUID) (*Warehouse, error)
	GetByName(ctx context.Context, projectID uuid.UUID, name string) (*Warehouse, error)
	List(ctx context.Context, projectID uuid.UUID) ([]*Warehouse, error)
	Update(ctx context.Context, w *Warehouse) (*Warehouse, error)
	SetStatus(ctx context.Context, id uuid.UUID, status Status) error
	Delete(ctx context.Context, id uuid.UUID) error
}
