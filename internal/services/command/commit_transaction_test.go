package command

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	memstore "github.com/icewright/icewright/internal/adapters/storage/memory"
	"github.com/icewright/icewright/internal/domain/storage"
	"github.com/icewright/icewright/internal/domain/tabular"
	"github.com/icewright/icewright/internal/domain/warehouse"
)

// fakeTabularRepo is an in-memory tabular.Repository used to exercise command-layer
// handlers without a database.
type fakeTabularRepo struct {
	rows map[uuid.UUID]*tabular.Tabular
}

func newFakeTabularRepo() *fakeTabularRepo {
	return &fakeTabularRepo{rows: map[uuid.UUID]*tabular.Tabular{}}
}

func (r *fakeTabularRepo) Create(_ context.Context, t *tabular.Tabular) (*tabular.Tabular, error) {
	r.rows[t.ID.UUID] = t
	return t, nil
}

func (r *fakeTabularRepo) Get(_ context.Context, _ uuid.UUID, id tabular.ID) (*tabular.Tabular, error) {
	row, ok := r.rows[id.UUID]
	if !ok {
		return nil, errNotFound
	}

	cp := *row

	return &cp, nil
}

func (r *fakeTabularRepo) GetByIdent(context.Context, uuid.UUID, tabular.Kind, tabular.Ident, tabular.ListFlags) (*tabular.Tabular, error) {
	return nil, errNotFound
}

func (r *fakeTabularRepo) ListByNamespace(context.Context, uuid.UUID, uuid.UUID, tabular.Kind, tabular.ListFlags, string, int) ([]*tabular.Tabular, error) {
	return nil, nil
}

func (r *fakeTabularRepo) CompareAndSwapMetadataLocation(_ context.Context, _ uuid.UUID, id tabular.ID, expected, next string) error {
	row, ok := r.rows[id.UUID]
	if !ok {
		return errNotFound
	}

	if row.CurrentMetadataLocation != expected {
		return tabular.ErrConcurrentCommit
	}

	row.CurrentMetadataLocation = next

	return nil
}

func (r *fakeTabularRepo) Rename(context.Context, uuid.UUID, tabular.ID, uuid.UUID, string) error {
	return nil
}
func (r *fakeTabularRepo) SetProtected(context.Context, uuid.UUID, tabular.ID, bool) error { return nil }
func (r *fakeTabularRepo) SoftDelete(context.Context, uuid.UUID, tabular.ID) error          { return nil }
func (r *fakeTabularRepo) Undrop(context.Context, uuid.UUID, tabular.ID) error              { return nil }
func (r *fakeTabularRepo) HardDelete(context.Context, uuid.UUID, tabular.ID) error          { return nil }

func (r *fakeTabularRepo) ListExpiredSoftDeletes(context.Context, uuid.UUID, int) ([]*tabular.Tabular, error) {
	return nil, nil
}

var _ tabular.Repository = (*fakeTabularRepo)(nil)

type notFoundErr string

func (e notFoundErr) Error() string { return string(e) }

const errNotFound = notFoundErr("not found")

// memoryResolver always resolves to the same in-memory storage.Backend, regardless of
// StorageProfile — enough for tests that don't exercise multi-backend routing.
type memoryResolver struct{ backend storage.Backend }

func (r memoryResolver) Resolve(warehouse.StorageProfile) (storage.Backend, error) {
	return r.backend, nil
}

func newTestUseCase() (*UseCase, *fakeTabularRepo, storage.Backend) {
	backend := memstore.New()
	repo := newFakeTabularRepo()

	return &UseCase{
		TabularRepo: repo,
		Storage:     memoryResolver{backend: backend},
	}, repo, backend
}

func seedTable(t *testing.T, repo *fakeTabularRepo, backend storage.Backend, tableUUID uuid.UUID, location string) {
	t.Helper()

	store := tabular.MetadataStore{Backend: backend}
	require.NoError(t, store.WriteTable(context.Background(), location, tabular.TableMetadata{
		TableUUID: tableUUID,
		Location:  "mem://wh/t",
	}))

	_, err := repo.Create(context.Background(), &tabular.Tabular{
		ID:                      tabular.TableID(tableUUID),
		CurrentMetadataLocation: location,
	})
	require.NoError(t, err)
}

// TestCommitTransactionAtomicity mirrors spec.md §8 scenario S4: table A's updates
// satisfy its requirements, table B's do not. Neither row's CurrentMetadataLocation
// may move, regardless of how far A's half of the plan got.
func TestCommitTransactionAtomicity(t *testing.T) {
	uc, repo, backend := newTestUseCase()

	aUUID, bUUID := uuid.New(), uuid.New()
	seedTable(t, repo, backend, aUUID, "mem://wh/a/metadata/0.json")
	seedTable(t, repo, backend, bUUID, "mem://wh/b/metadata/0.json")

	wh := &warehouse.Warehouse{ID: uuid.New(), Status: warehouse.StatusActive}

	aLocBefore := repo.rows[aUUID].CurrentMetadataLocation
	bLocBefore := repo.rows[bUUID].CurrentMetadataLocation

	_, err := uc.CommitTransaction(context.Background(), wh, uuid.New(), []TableCommitInput{
		{
			TableUUID: aUUID,
			Input: CommitTableInput{
				Requirements: []tabular.Requirement{tabular.AssertTableUUID{UUID: aUUID}},
				Updates:      []tabular.Update{tabular.SetDefaultSpec{SpecID: 1}},
			},
		},
		{
			TableUUID: bUUID,
			Input: CommitTableInput{
				// Wrong UUID: this requirement must fail and abort the whole transaction.
				Requirements: []tabular.Requirement{tabular.AssertTableUUID{UUID: uuid.New()}},
				Updates:      []tabular.Update{tabular.SetDefaultSpec{SpecID: 1}},
			},
		},
	})

	require.Error(t, err)

	var txErr *tabular.CommitTransactionError
	require.ErrorAs(t, err, &txErr)
	assert.Equal(t, bUUID, txErr.TableUUID)
	assert.Equal(t, "assert-table-uuid", txErr.Requirement)

	assert.Equal(t, aLocBefore, repo.rows[aUUID].CurrentMetadataLocation, "table A must be untouched")
	assert.Equal(t, bLocBefore, repo.rows[bUUID].CurrentMetadataLocation, "table B must be untouched")
}

// TestCommitTransactionAllSucceed checks the happy path: both tables' rows advance to
// freshly-written metadata locations.
func TestCommitTransactionAllSucceed(t *testing.T) {
	uc, repo, backend := newTestUseCase()

	aUUID, bUUID := uuid.New(), uuid.New()
	seedTable(t, repo, backend, aUUID, "mem://wh/a/metadata/0.json")
	seedTable(t, repo, backend, bUUID, "mem://wh/b/metadata/0.json")

	wh := &warehouse.Warehouse{ID: uuid.New(), Status: warehouse.StatusActive}

	results, err := uc.CommitTransaction(context.Background(), wh, uuid.New(), []TableCommitInput{
		{TableUUID: aUUID, Input: CommitTableInput{Requirements: []tabular.Requirement{tabular.AssertTableUUID{UUID: aUUID}}}},
		{TableUUID: bUUID, Input: CommitTableInput{Requirements: []tabular.Requirement{tabular.AssertTableUUID{UUID: bUUID}}}},
	})

	require.NoError(t, err)
	assert.Len(t, results, 2)
	assert.NotEqual(t, "mem://wh/a/metadata/0.json", repo.rows[aUUID].CurrentMetadataLocation)
	assert.NotEqual(t, "mem://wh/b/metadata/0.json", repo.rows[bUUID].CurrentMetadataLocation)
}
