// Package tabular holds the Tabular entity — the umbrella over Iceberg tables and
// views whose lifecycle (soft-delete, protection, rename) is unified (spec.md
// GLOSSARY, §3, §4.1, §4.2).
package tabular

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Kind discriminates a TabularID/Tabular as a table or a view.
type Kind string

const (
	KindTable Kind = "table"
	KindView  Kind = "view"
)

// ID is the tagged union {Table(uuid) | View(uuid)} of spec.md §3.
type ID struct {
	Kind Kind
	UUID uuid.UUID
}

func TableID(id uuid.UUID) ID { return ID{Kind: KindTable, UUID: id} }
func ViewID(id uuid.UUID) ID  { return ID{Kind: KindView, UUID: id} }

// Ident is the name-based, case-preserving / case-insensitively-unique public
// identifier for a tabular within a namespace.
type Ident struct {
	Namespace []string
	Name      string
}

func (i Ident) CaseFoldKey() string {
	return strings.ToLower(strings.Join(i.Namespace, "\x1f") + "\x1e" + i.Name)
}

func (i Ident) String() string {
	return strings.Join(append(append([]string{}, i.Namespace...), i.Name), ".")
}

// Tabular is a row shared by tables and views: ownership, lifecycle flags, and the
// pointer to the current metadata file. Schema/snapshot payload lives in
// TableMetadata/ViewMetadata, loaded separately by the commit engine.
type Tabular struct {
	ID                      ID
	WarehouseID             uuid.UUID
	NamespaceID             uuid.UUID
	Name                    string
	CurrentMetadataLocation string
	Protected               bool
	Staged                  bool // tables only; always false for views
	DeletedAt               *time.Time
	CreatedAt               time.Time
	UpdatedAt               time.Time
}

// IsSoftDeleted reports whether this tabular has been soft-deleted (spec.md §3:
// "deleted_at IS NOT NULL ⇔ tabular is soft-deleted").
func (t Tabular) IsSoftDeleted() bool { return t.DeletedAt != nil }

// IsVisible reports whether a standard (non-include_staged) list/load should surface
// this row: not staged, and not soft-deleted unless the caller asked for deleted rows.
func (t Tabular) IsVisible(includeStaged, includeDeleted bool) bool {
	if t.Staged && !includeStaged {
		return false
	}

	if t.IsSoftDeleted() && !includeDeleted {
		return false
	}

	return true
}

// ListFlags controls which tabular rows list-tabulars returns (spec.md §4.2).
type ListFlags struct {
	IncludeActive bool
	IncludeStaged bool
	IncludeDeleted bool
}
