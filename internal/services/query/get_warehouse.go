package query

import (
	"context"

	"github.com/google/uuid"

	"github.com/icewright/icewright/internal/domain/authz"
	"github.com/icewright/icewright/internal/domain/identity"
	"github.com/icewright/icewright/internal/domain/warehouse"
)

// GetWarehouse loads a warehouse by id, checking actor's permission to view it.
func (uc *UseCase) GetWarehouse(ctx context.Context, actor identity.Actor, projectID, id uuid.UUID) (*warehouse.Warehouse, error) {
	if err := uc.Authorizer.Check(ctx, actor, "warehouse:read", authz.Object{Kind: "warehouse", ID: id}); err != nil {
		return nil, err
	}

	return uc.WarehouseRepo.Get(ctx, projectID, id)
}

// ListWarehouses returns every warehouse in projectID that actor is authorized to see.
//
// Unlike ListNamespaces/ListTabulars, this does not use the cursor-based
// AuthFilteredList engine: warehouses are few enough per project that the repository
// returns them in one unpaginated call, so filtering is a plain slice walk.
func (uc *UseCase) ListWarehouses(ctx context.Context, actor identity.Actor, projectID uuid.UUID) ([]*warehouse.Warehouse, error) {
	all, err := uc.WarehouseRepo.List(ctx, projectID)
	if err != nil {
		return nil, err
	}

	visible := make([]*warehouse.Warehouse, 0, len(all))

	for _, w := range all {
		ok, err := uc.Authorizer.CanIncludeInList(ctx, actor, authz.Object{Kind: "warehouse", ID: w.ID})
		if err != nil {
			return nil, err
		}

		if ok {
			visible = append(visible, w)
		}
	}

	return visible, nil
}
