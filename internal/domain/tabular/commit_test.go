package tabular

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

// TestApplyCommitSucceeds verifies that a commit whose requirements hold applies every
// update and leaves the base metadata untouched.
func TestApplyCommitSucceeds(t *testing.T) {
	tableUUID := uuid.New()
	base := TableMetadata{
		TableUUID:       tableUUID,
		CurrentSchemaID: 0,
		Schemas:         []Schema{{SchemaID: 0}},
	}

	next, failedAt, err := ApplyCommit(base,
		[]Requirement{AssertTableUUID{UUID: tableUUID}},
		[]Update{AddSchema{Schema: Schema{SchemaID: 1}}, SetCurrentSchema{SchemaID: 1}},
	)

	assert.NoError(t, err)
	assert.Empty(t, failedAt)
	assert.Len(t, next.Schemas, 2)
	assert.Equal(t, 1, next.CurrentSchemaID)
	assert.Equal(t, 0, base.CurrentSchemaID, "base metadata must not be mutated")
}

// TestApplyCommitRejectsStaleTableUUID mirrors spec.md §8 scenario S1: two committers
// read the same base, the loser's assert-table-uuid requirement must fail by name and
// no update may be applied.
func TestApplyCommitRejectsStaleTableUUID(t *testing.T) {
	base := TableMetadata{TableUUID: uuid.New()}
	staleExpected := uuid.New()

	next, failedAt, err := ApplyCommit(base,
		[]Requirement{AssertTableUUID{UUID: staleExpected}},
		[]Update{SetDefaultSpec{SpecID: 1}},
	)

	assert.Error(t, err)
	assert.Equal(t, "assert-table-uuid", failedAt)
	assert.Equal(t, TableMetadata{}, next, "no update may be applied")
}

// TestApplyCommitRequirementsDoNotSeeUpdates ensures requirements are checked against
// the base metadata, never against a partially-applied next state.
func TestApplyCommitRequirementsDoNotSeeUpdates(t *testing.T) {
	base := TableMetadata{DefaultSpecID: 0}

	_, failedAt, err := ApplyCommit(base,
		[]Requirement{AssertDefaultSpecID{SpecID: 0}},
		[]Update{SetDefaultSpec{SpecID: 7}},
	)

	assert.NoError(t, err)
	assert.Empty(t, failedAt)
}

// TestApplyCommitStopsAtFirstFailingUpdate checks that an update referencing an
// unknown schema id fails by name without silently applying later updates.
func TestApplyCommitStopsAtFirstFailingUpdate(t *testing.T) {
	base := TableMetadata{Schemas: []Schema{{SchemaID: 0}}}

	_, failedAt, err := ApplyCommit(base, nil, []Update{
		SetCurrentSchema{SchemaID: 99},
		SetDefaultSpec{SpecID: 1},
	})

	assert.Error(t, err)
	assert.Equal(t, "set-current-schema", failedAt)
}

// TestAddSnapshotAdvancesMainRef checks AddSnapshot's default fast-forward behavior.
func TestAddSnapshotAdvancesMainRef(t *testing.T) {
	base := TableMetadata{}

	next, _, err := ApplyCommit(base, nil, []Update{
		AddSnapshot{Snapshot: Snapshot{SnapshotID: 1, TimestampMs: 100}},
	})

	assert.NoError(t, err)
	assert.Len(t, next.Snapshots, 1)
	assert.NotNil(t, next.CurrentSnapshotID)
	assert.Equal(t, int64(1), *next.CurrentSnapshotID)
	assert.Equal(t, int64(1), next.Refs["main"].SnapshotID)
}

// TestAddSnapshotSkipSetCurrentLeavesRefsAlone checks the staged-snapshot case used by
// multi-table transactions that don't want to fast-forward "main" yet.
func TestAddSnapshotSkipSetCurrentLeavesRefsAlone(t *testing.T) {
	base := TableMetadata{}

	next, _, err := ApplyCommit(base, nil, []Update{
		AddSnapshot{Snapshot: Snapshot{SnapshotID: 1}, SkipSetCurrent: true},
	})

	assert.NoError(t, err)
	assert.Nil(t, next.CurrentSnapshotID)
	assert.Empty(t, next.Refs)
}
