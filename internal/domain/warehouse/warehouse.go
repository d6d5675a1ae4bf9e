// Package warehouse holds the Warehouse entity (spec.md §3) — a bound collection of
// namespaces sharing a storage profile and credentials. Struct shape grounded on
// midaz's common/mmodel/ledger.go (id/name/status/timestamps/metadata), since a
// Warehouse plays the same "top of the tenancy tree" role a Ledger does in midaz.
package warehouse

import (
	"time"

	"github.com/google/uuid"
)

// Status of a Warehouse.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// DeleteProfileKind selects how dropped tabulars in this warehouse behave.
type DeleteProfileKind string

const (
	DeleteProfileHard DeleteProfileKind = "hard"
	DeleteProfileSoft DeleteProfileKind = "soft"
)

// DeleteProfile is the warehouse-wide tabular delete policy (spec.md §3).
type DeleteProfile struct {
	Kind            DeleteProfileKind
	ExpirationDelay time.Duration // only meaningful when Kind == DeleteProfileSoft
}

// StorageProfile is an opaque-to-the-core blob describing bucket/prefix/region/flavor
// for the warehouse's object store; the optional credentials secret is referenced by
// Warehouse.StorageSecretID, not held here. The core never interprets the blob contents; only the storage
// adapter (internal/adapters/storage) does.
type StorageProfile struct {
	Flavor string // "s3" | "gcs" | "adls" | "hdfs" | "memory"
	Blob   map[string]any
}

// Warehouse is the top-level tenancy boundary: a name unique per project, a storage
// profile, a delete policy, and a protected flag guarding it from accidental removal.
type Warehouse struct {
	ID                   uuid.UUID
	ProjectID            uuid.UUID
	Name                 string
	Status               Status
	Storage              StorageProfile
	StorageSecretID      *uuid.UUID
	DeleteProfile        DeleteProfile
	Protected            bool
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// IsActive reports whether the warehouse accepts opens and lists non-empty results,
// per spec.md §3's "Inactive warehouses return empty lists and deny opens" invariant.
func (w Warehouse) IsActive() bool { return w.Status == StatusActive }
