package tabular

import "github.com/google/uuid"

// Schema is a named, versioned column set. Field payload is kept opaque (raw JSON)
// since the commit engine only needs to move schemas around and compare IDs, never
// interpret column types.
type Schema struct {
	SchemaID      int
	IdentifierIDs []int
	Fields        []byte // opaque Iceberg schema JSON
}

// PartitionSpec is a named, versioned partitioning scheme.
type PartitionSpec struct {
	SpecID int
	Fields []byte // opaque Iceberg partition-field JSON
}

// SortOrder is a named, versioned sort definition.
type SortOrder struct {
	OrderID int
	Fields  []byte // opaque Iceberg sort-field JSON
}

// Snapshot is one committed state of a table's data files.
type Snapshot struct {
	SnapshotID       int64
	ParentSnapshotID *int64
	SequenceNumber   int64
	TimestampMs      int64
	ManifestList     string
	Summary          map[string]string
	SchemaID         *int
}

// SnapshotRefType distinguishes a mutable branch from an immutable tag.
type SnapshotRefType string

const (
	RefBranch SnapshotRefType = "branch"
	RefTag    SnapshotRefType = "tag"
)

// SnapshotRef names a snapshot, with optional retention policy.
type SnapshotRef struct {
	SnapshotID         int64
	Type               SnapshotRefType
	MaxRefAgeMs        *int64
	MaxSnapshotAgeMs   *int64 // branch only
	MinSnapshotsToKeep *int   // branch only
}

// LogEntry is a single row in the metadata-log or snapshot-log history.
type LogEntry struct {
	TimestampMs int64
	Value       string // metadata file path, or string-encoded snapshot id
}

// TableMetadata is the full, versioned state of one table — the payload written to
// CurrentMetadataLocation on every successful commit (spec.md §4.1).
type TableMetadata struct {
	FormatVersion      int
	TableUUID          uuid.UUID
	Location           string
	LastUpdatedMs      int64
	LastColumnID       int
	LastPartitionID    int
	Schemas            []Schema
	CurrentSchemaID    int
	PartitionSpecs     []PartitionSpec
	DefaultSpecID      int
	SortOrders         []SortOrder
	DefaultSortOrderID int
	Snapshots          []Snapshot
	CurrentSnapshotID  *int64
	Refs               map[string]SnapshotRef
	SnapshotLog        []LogEntry
	MetadataLog        []LogEntry
	Properties         map[string]string
}

// Clone returns a deep-enough copy of m so that requirement/update application never
// mutates the metadata the caller loaded under an optimistic-concurrency read.
func (m TableMetadata) Clone() TableMetadata {
	out := m
	out.Schemas = append([]Schema(nil), m.Schemas...)
	out.PartitionSpecs = append([]PartitionSpec(nil), m.PartitionSpecs...)
	out.SortOrders = append([]SortOrder(nil), m.SortOrders...)
	out.Snapshots = append([]Snapshot(nil), m.Snapshots...)
	out.SnapshotLog = append([]LogEntry(nil), m.SnapshotLog...)
	out.MetadataLog = append([]LogEntry(nil), m.MetadataLog...)

	out.Refs = make(map[string]SnapshotRef, len(m.Refs))
	for k, v := range m.Refs {
		out.Refs[k] = v
	}

	out.Properties = make(map[string]string, len(m.Properties))
	for k, v := range m.Properties {
		out.Properties[k] = v
	}

	return out
}

func (m TableMetadata) SchemaByID(id int) (Schema, bool) {
	for _, s := range m.Schemas {
		if s.SchemaID == id {
			return s, true
		}
	}

	return Schema{}, false
}

func (m TableMetadata) SnapshotByID(id int64) (Snapshot, bool) {
	for _, s := range m.Snapshots {
		if s.SnapshotID == id {
			return s, true
		}
	}

	return Snapshot{}, false
}

// ViewVersion is one named, versioned query representation.
type ViewVersion struct {
	VersionID       int
	SchemaID        int
	TimestampMs     int64
	Representations []byte // opaque SQL-dialect representation JSON
	DefaultCatalog  string
	DefaultNamespace []string
}

// ViewMetadata is the full, versioned state of one view.
type ViewMetadata struct {
	FormatVersion    int
	ViewUUID         uuid.UUID
	Location         string
	CurrentVersionID int
	Versions         []ViewVersion
	VersionLog       []LogEntry
	Schemas          []Schema
	Properties       map[string]string
}

func (m ViewMetadata) Clone() ViewMetadata {
	out := m
	out.Versions = append([]ViewVersion(nil), m.Versions...)
	out.VersionLog = append([]LogEntry(nil), m.VersionLog...)
	out.Schemas = append([]Schema(nil), m.Schemas...)

	out.Properties = make(map[string]string, len(m.Properties))
	for k, v := range m.Properties {
		out.Properties[k] = v
	}

	return out
}
