package tabular

import (
	"context"

	"github.com/google/uuid"
)

// Repository provides an interface for operations on the tabular catalog row — the
// lifecycle/pointer record, not the metadata JSON payload (see MetadataStore).
//
//go:generate mockgen --destination=../../../internal/gen/mock/tabular/tabular_mock.go --package=mock . Repository
type Repository interface {
	Create(ctx context.Context, t *Tabular) (*Tabular, error)
	Get(ctx context.Context, warehouseID uuid.UUID, id ID) (*Tabular, error)
	GetByIdent(ctx context.Context, warehouseID uuid.UUID, kind Kind, ident Ident, flags ListFlags) (*Tabular, error)
	ListByNamespace(ctx context.Context, warehouseID, namespaceID uuid.UUID, kind Kind, flags ListFlags, afterID string, limit int) ([]*Tabular, error)

	// CompareAndSwapMetadataLocation atomically advances CurrentMetadataLocation,
	// failing with ErrConcurrentCommit if the row's location no longer equals
	// expectedLocation — the database-row half of the optimistic-concurrency commit
	// protocol (spec.md §4.1); tabular.ApplyCommit covers the metadata-content half.
	CompareAndSwapMetadataLocation(ctx context.Context, warehouseID uuid.UUID, id ID, expectedLocation, newLocation string) error

	Rename(ctx context.Context, warehouseID uuid.UUID, id ID, newNamespaceID uuid.UUID, newName string) error
	SetProtected(ctx context.Context, warehouseID uuid.UUID, id ID, protected bool) error
	SoftDelete(ctx context.Context, warehouseID uuid.UUID, id ID) error
	Undrop(ctx context.Context, warehouseID uuid.UUID, id ID) error
	HardDelete(ctx context.Context, warehouseID uuid.UUID, id ID) error

	// ListExpiredSoftDeletes returns soft-deleted tabulars whose expiration delay has
	// elapsed, feeding the purge-expired-tabulars task (spec.md §4.4/§4.2).
	ListExpiredSoftDeletes(ctx context.Context, warehouseID uuid.UUID, limit int) ([]*Tabular, error)
}

var ErrConcurrentCommit = errConcurrentCommit{}

type errConcurrentCommit struct{}

func (errConcurrentCommit) Error() string {
	return "tabular: metadata location changed concurrently"
}
