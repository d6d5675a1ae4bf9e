package query

import (
	"context"

	"github.com/google/uuid"

	"github.com/icewright/icewright/internal/domain/authz"
	"github.com/icewright/icewright/internal/domain/identity"
	"github.com/icewright/icewright/internal/domain/namespace"
	"github.com/icewright/icewright/pkg/pagination"
)

// ListNamespaces returns the direct children of parent, filtered by what actor is
// authorized to see (spec.md §4.2, §4.3).
func (uc *UseCase) ListNamespaces(ctx context.Context, actor identity.Actor, warehouseID uuid.UUID, parent *uuid.UUID, pageToken string, limit int) (Page[*namespace.Namespace], error) {
	cursor, err := pagination.DecodeCursor(pageToken)
	if err != nil {
		return Page[*namespace.Namespace]{}, err
	}

	return AuthFilteredList(
		ctx, actor, uc.Authorizer,
		func(ctx context.Context, afterID string, n int) ([]*namespace.Namespace, error) {
			return uc.NamespaceRepo.ListChildren(ctx, warehouseID, parent, afterID, n)
		},
		func(n *namespace.Namespace) authz.Object { return authz.Object{Kind: "namespace", ID: n.ID} },
		func(n *namespace.Namespace) string { return n.ID.String() },
		cursor, limit,
	)
}
