package tabular

import (
	"fmt"

	"github.com/google/uuid"
)

// Requirement asserts a precondition about the metadata a commit is based on, rejecting
// the commit with a named, inspectable failure when the base has moved out from under
// the caller (spec.md §4.1: optimistic-concurrency commit protocol).
type Requirement interface {
	// Name identifies the requirement for CommitFailedError.Requirement.
	Name() string
	Check(meta TableMetadata) error
}

type reqErr string

func (e reqErr) Error() string { return string(e) }

type AssertCreate struct{}

func (AssertCreate) Name() string { return "assert-create" }
func (AssertCreate) Check(meta TableMetadata) error {
	if meta.TableUUID != uuid.Nil {
		return reqErr("table already exists")
	}

	return nil
}

type AssertTableUUID struct{ UUID uuid.UUID }

func (AssertTableUUID) Name() string { return "assert-table-uuid" }
func (r AssertTableUUID) Check(meta TableMetadata) error {
	if meta.TableUUID != r.UUID {
		return reqErr(fmt.Sprintf("table UUID %s does not match expected %s", meta.TableUUID, r.UUID))
	}

	return nil
}

type AssertCurrentSchemaID struct{ SchemaID int }

func (AssertCurrentSchemaID) Name() string { return "assert-current-schema-id" }
func (r AssertCurrentSchemaID) Check(meta TableMetadata) error {
	if meta.CurrentSchemaID != r.SchemaID {
		return reqErr(fmt.Sprintf("current schema id %d does not match expected %d", meta.CurrentSchemaID, r.SchemaID))
	}

	return nil
}

type AssertRefSnapshotID struct {
	Ref        string
	SnapshotID *int64 // nil means the ref must not exist
}

func (AssertRefSnapshotID) Name() string { return "assert-ref-snapshot-id" }
func (r AssertRefSnapshotID) Check(meta TableMetadata) error {
	ref, ok := meta.Refs[r.Ref]

	if r.SnapshotID == nil {
		if ok {
			return reqErr(fmt.Sprintf("ref %q was expected to be absent", r.Ref))
		}

		return nil
	}

	if !ok {
		return reqErr(fmt.Sprintf("ref %q does not exist", r.Ref))
	}

	if ref.SnapshotID != *r.SnapshotID {
		return reqErr(fmt.Sprintf("ref %q snapshot id %d does not match expected %d", r.Ref, ref.SnapshotID, *r.SnapshotID))
	}

	return nil
}

type AssertLastAssignedFieldID struct{ LastColumnID int }

func (AssertLastAssignedFieldID) Name() string { return "assert-last-assigned-field-id" }
func (r AssertLastAssignedFieldID) Check(meta TableMetadata) error {
	if meta.LastColumnID != r.LastColumnID {
		return reqErr(fmt.Sprintf("last assigned field id %d does not match expected %d", meta.LastColumnID, r.LastColumnID))
	}

	return nil
}

type AssertLastAssignedPartitionID struct{ LastPartitionID int }

func (AssertLastAssignedPartitionID) Name() string { return "assert-last-assigned-partition-id" }
func (r AssertLastAssignedPartitionID) Check(meta TableMetadata) error {
	if meta.LastPartitionID != r.LastPartitionID {
		return reqErr(fmt.Sprintf("last assigned partition id %d does not match expected %d", meta.LastPartitionID, r.LastPartitionID))
	}

	return nil
}

type AssertDefaultSpecID struct{ SpecID int }

func (AssertDefaultSpecID) Name() string { return "assert-default-spec-id" }
func (r AssertDefaultSpecID) Check(meta TableMetadata) error {
	if meta.DefaultSpecID != r.SpecID {
		return reqErr(fmt.Sprintf("default spec id %d does not match expected %d", meta.DefaultSpecID, r.SpecID))
	}

	return nil
}

type AssertDefaultSortOrderID struct{ OrderID int }

func (AssertDefaultSortOrderID) Name() string { return "assert-default-sort-order-id" }
func (r AssertDefaultSortOrderID) Check(meta TableMetadata) error {
	if meta.DefaultSortOrderID != r.OrderID {
		return reqErr(fmt.Sprintf("default sort order id %d does not match expected %d", meta.DefaultSortOrderID, r.OrderID))
	}

	return nil
}

// Update mutates TableMetadata in place, applied only after every Requirement for the
// same commit has passed (spec.md §4.1).
type Update interface {
	Name() string
	Apply(meta *TableMetadata) error
}

type AddSchema struct{ Schema Schema }

func (AddSchema) Name() string { return "add-schema" }
func (u AddSchema) Apply(meta *TableMetadata) error {
	meta.Schemas = append(meta.Schemas, u.Schema)
	return nil
}

type SetCurrentSchema struct{ SchemaID int }

func (SetCurrentSchema) Name() string { return "set-current-schema" }
func (u SetCurrentSchema) Apply(meta *TableMetadata) error {
	if _, ok := meta.SchemaByID(u.SchemaID); !ok {
		return reqErr(fmt.Sprintf("unknown schema id %d", u.SchemaID))
	}

	meta.CurrentSchemaID = u.SchemaID

	return nil
}

type AddPartitionSpec struct{ Spec PartitionSpec }

func (AddPartitionSpec) Name() string { return "add-spec" }
func (u AddPartitionSpec) Apply(meta *TableMetadata) error {
	meta.PartitionSpecs = append(meta.PartitionSpecs, u.Spec)
	return nil
}

type SetDefaultSpec struct{ SpecID int }

func (SetDefaultSpec) Name() string { return "set-default-spec" }
func (u SetDefaultSpec) Apply(meta *TableMetadata) error {
	meta.DefaultSpecID = u.SpecID
	return nil
}

type AddSortOrder struct{ Order SortOrder }

func (AddSortOrder) Name() string { return "add-sort-order" }
func (u AddSortOrder) Apply(meta *TableMetadata) error {
	meta.SortOrders = append(meta.SortOrders, u.Order)
	return nil
}

type SetDefaultSortOrder struct{ OrderID int }

func (SetDefaultSortOrder) Name() string { return "set-default-sort-order" }
func (u SetDefaultSortOrder) Apply(meta *TableMetadata) error {
	meta.DefaultSortOrderID = u.OrderID
	return nil
}

// AddSnapshot appends a snapshot and, unless SkipSetCurrent is set, fast-forwards
// CurrentSnapshotID and the "main" branch ref to it.
type AddSnapshot struct {
	Snapshot       Snapshot
	SkipSetCurrent bool
}

func (AddSnapshot) Name() string { return "add-snapshot" }
func (u AddSnapshot) Apply(meta *TableMetadata) error {
	if _, exists := meta.SnapshotByID(u.Snapshot.SnapshotID); exists {
		return reqErr(fmt.Sprintf("snapshot id %d already exists", u.Snapshot.SnapshotID))
	}

	meta.Snapshots = append(meta.Snapshots, u.Snapshot)

	if u.SkipSetCurrent {
		return nil
	}

	id := u.Snapshot.SnapshotID
	meta.CurrentSnapshotID = &id
	meta.SnapshotLog = append(meta.SnapshotLog, LogEntry{TimestampMs: u.Snapshot.TimestampMs, Value: fmt.Sprint(id)})

	if meta.Refs == nil {
		meta.Refs = map[string]SnapshotRef{}
	}

	meta.Refs["main"] = SnapshotRef{SnapshotID: id, Type: RefBranch}

	return nil
}

type SetSnapshotRef struct {
	Name string
	Ref  SnapshotRef
}

func (SetSnapshotRef) Name() string { return "set-snapshot-ref" }
func (u SetSnapshotRef) Apply(meta *TableMetadata) error {
	if _, ok := meta.SnapshotByID(u.Ref.SnapshotID); !ok {
		return reqErr(fmt.Sprintf("unknown snapshot id %d", u.Ref.SnapshotID))
	}

	if meta.Refs == nil {
		meta.Refs = map[string]SnapshotRef{}
	}

	meta.Refs[u.Name] = u.Ref

	if u.Name == "main" {
		id := u.Ref.SnapshotID
		meta.CurrentSnapshotID = &id
	}

	return nil
}

type RemoveSnapshotRef struct{ Name string }

func (RemoveSnapshotRef) Name() string { return "remove-snapshot-ref" }
func (u RemoveSnapshotRef) Apply(meta *TableMetadata) error {
	delete(meta.Refs, u.Name)
	return nil
}

// RemoveSnapshots deletes snapshots by id — the metadata side-effect of a table's
// expire-snapshots maintenance task ([T-EXPIRE] in the task queue).
type RemoveSnapshots struct{ SnapshotIDs []int64 }

func (RemoveSnapshots) Name() string { return "remove-snapshots" }
func (u RemoveSnapshots) Apply(meta *TableMetadata) error {
	remove := make(map[int64]struct{}, len(u.SnapshotIDs))
	for _, id := range u.SnapshotIDs {
		remove[id] = struct{}{}
	}

	kept := meta.Snapshots[:0]
	for _, s := range meta.Snapshots {
		if _, drop := remove[s.SnapshotID]; !drop {
			kept = append(kept, s)
		}
	}

	meta.Snapshots = kept

	return nil
}

type SetProperties struct{ Properties map[string]string }

func (SetProperties) Name() string { return "set-properties" }
func (u SetProperties) Apply(meta *TableMetadata) error {
	if meta.Properties == nil {
		meta.Properties = map[string]string{}
	}

	for k, v := range u.Properties {
		meta.Properties[k] = v
	}

	return nil
}

type RemoveProperties struct{ Keys []string }

func (RemoveProperties) Name() string { return "remove-properties" }
func (u RemoveProperties) Apply(meta *TableMetadata) error {
	for _, k := range u.Keys {
		delete(meta.Properties, k)
	}

	return nil
}

type SetLocation struct{ Location string }

func (SetLocation) Name() string { return "set-location" }
func (u SetLocation) Apply(meta *TableMetadata) error {
	meta.Location = u.Location
	return nil
}

type UpgradeFormatVersion struct{ FormatVersion int }

func (UpgradeFormatVersion) Name() string { return "upgrade-format-version" }
func (u UpgradeFormatVersion) Apply(meta *TableMetadata) error {
	if u.FormatVersion < meta.FormatVersion {
		return reqErr(fmt.Sprintf("cannot downgrade format version %d to %d", meta.FormatVersion, u.FormatVersion))
	}

	meta.FormatVersion = u.FormatVersion

	return nil
}

// ApplyCommit checks every requirement against base, and only if all pass, applies
// every update in order to a clone of base. The returned (meta, "", nil) on success;
// on a failed requirement, returns the zero metadata and the name of the requirement
// that failed, for translation into catalogerrors.CommitFailedError.
func ApplyCommit(base TableMetadata, requirements []Requirement, updates []Update) (TableMetadata, string, error) {
	for _, req := range requirements {
		if err := req.Check(base); err != nil {
			return TableMetadata{}, req.Name(), err
		}
	}

	next := base.Clone()

	for _, upd := range updates {
		if err := upd.Apply(&next); err != nil {
			return TableMetadata{}, upd.Name(), err
		}
	}

	return next, "", nil
}
