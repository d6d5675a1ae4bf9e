// Package authz defines the Authorizer port consulted by the auth-filtered pagination
// engine (spec.md §4.3) and by every command handler's permission check. It is a pure
// interface; this module contains no concrete authorizer implementation.
package authz

import (
	"context"

	"github.com/google/uuid"

	"github.com/icewright/icewright/internal/domain/identity"
)

// Action is a permission check subject, e.g. "warehouse:list_namespaces".
type Action string

// Object identifies the resource an Action is checked against.
type Object struct {
	Kind string // "warehouse" | "namespace" | "table" | "view" | "project"
	ID   uuid.UUID
}

// Authorizer decides whether an Actor may perform an Action against an Object, and
// which AssumableRoles an Actor may use — the two capabilities the catalog's pagination
// and command layers depend on.
type Authorizer interface {
	// CanIncludeInList reports whether obj should be visible to actor when listing
	// its kind — the per-row filter the fetch-filter-refill loop calls for every
	// candidate row (spec.md §4.3).
	CanIncludeInList(ctx context.Context, actor identity.Actor, obj Object) (bool, error)

	// Check reports whether actor may perform action against obj, returning a
	// catalogerrors.ForbiddenError-shaped error on denial.
	Check(ctx context.Context, actor identity.Actor, action Action, obj Object) error

	// AssumableRoles lists the roles actor is permitted to assume, supplementing the
	// distilled spec with lakekeeper's role.rs role-assumption flow.
	AssumableRoles(ctx context.Context, actor identity.Actor) ([]identity.AssumableRole, error)
}
