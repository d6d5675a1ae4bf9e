// Package identity holds the Actor/Role/AssumableRole entities supplemented from
// lakekeeper's role.rs (role assumption), absent from the distilled spec but named in
// SPEC_FULL.md's supplemented-features section.
package identity

import "github.com/google/uuid"

// ActorKind distinguishes a human/service principal from one acting under an assumed
// role, mirroring the Authorizer trait's Actor enum.
type ActorKind string

const (
	ActorPrincipal ActorKind = "principal"
	ActorAssumed   ActorKind = "assumed-role"
)

// Actor identifies who is performing an operation, for both authorization checks and
// event-context attribution (events.Context.ActorID).
type Actor struct {
	Kind     ActorKind
	SubjectID string // opaque external identity provider subject
	RoleID   *uuid.UUID // set when Kind == ActorAssumed
}

// Role is a named, project-scoped bundle of permissions a principal may assume.
type Role struct {
	ID          uuid.UUID
	ProjectID   uuid.UUID
	Name        string
	Description string
}

// User is a cached projection of an external identity-provider principal, keyed by
// the provider's opaque subject id.
type User struct {
	ID          uuid.UUID
	SubjectID   string
	Name        string
	Email       string
	LastSeenAt  *int64
}

// AssumableRole is one entry in the set of roles a given actor is permitted to assume.
type AssumableRole struct {
	RoleID  uuid.UUID
	Trusted bool // false: assumable but requires an explicit opt-in header
}
