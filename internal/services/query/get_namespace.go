package query

import (
	"context"

	"github.com/google/uuid"

	"github.com/icewright/icewright/internal/domain/authz"
	"github.com/icewright/icewright/internal/domain/identity"
	"github.com/icewright/icewright/internal/domain/namespace"
)

// GetNamespace loads a namespace by id, checking actor's permission to view it.
func (uc *UseCase) GetNamespace(ctx context.Context, actor identity.Actor, warehouseID, id uuid.UUID) (*namespace.Namespace, error) {
	if err := uc.Authorizer.Check(ctx, actor, "namespace:read", authz.Object{Kind: "namespace", ID: id}); err != nil {
		return nil, err
	}

	return uc.NamespaceRepo.Get(ctx, warehouseID, id)
}

// GetNamespaceByIdent resolves a namespace by its dotted identifier (the Iceberg REST
// catalog addresses namespaces this way, not by row id).
func (uc *UseCase) GetNamespaceByIdent(ctx context.Context, actor identity.Actor, warehouseID uuid.UUID, ident namespace.Ident) (*namespace.Namespace, error) {
	n, err := uc.NamespaceRepo.GetByIdent(ctx, warehouseID, ident)
	if err != nil {
		return nil, err
	}

	if err := uc.Authorizer.Check(ctx, actor, "namespace:read", authz.Object{Kind: "namespace", ID: n.ID}); err != nil {
		return nil, err
	}

	return n, nil
}
