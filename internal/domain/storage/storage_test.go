package storage_test

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/icewright/icewright/internal/domain/storage"
)

// fakeBackend is a minimal Backend whose DeleteBatch always fails one path, used to
// pin down the BatchDeleteResult contract shape without depending on a real
// provider SDK.
type fakeBackend struct {
	failing storage.Location
	failErr error
}

func (f fakeBackend) Read(context.Context, storage.Location) (io.ReadCloser, error) { return nil, nil }
func (f fakeBackend) Write(context.Context, storage.Location, io.Reader, int64) error { return nil }
func (f fakeBackend) Delete(context.Context, storage.Location) error                  { return nil }
func (f fakeBackend) List(context.Context, storage.Location) ([]storage.Location, error) {
	return nil, nil
}
func (f fakeBackend) RemoveAll(context.Context, storage.Location) error         { return nil }
func (f fakeBackend) ValidateLocation(context.Context, storage.Location) error { return nil }

func (f fakeBackend) DeleteBatch(_ context.Context, locs []storage.Location) storage.BatchDeleteResult {
	res := storage.BatchDeleteResult{Failed: map[storage.Location]error{}}

	for _, loc := range locs {
		if loc == f.failing {
			res.Failed[loc] = f.failErr
			continue
		}

		res.Deleted = append(res.Deleted, loc)
	}

	return res
}

var _ storage.Backend = fakeBackend{}

// TestBatchDeletePartialFailure mirrors spec.md §8 scenario S5: deleting
// [p1, p2_missing_permissions, p3] must report p1 and p3 deleted and p2 as a
// per-path error, never collapse the whole batch to one error.
func TestBatchDeletePartialFailure(t *testing.T) {
	unauthorized := errors.New("unauthorized")
	backend := fakeBackend{failing: "p2", failErr: unauthorized}

	res := backend.DeleteBatch(context.Background(), []storage.Location{"p1", "p2", "p3"})

	assert.ElementsMatch(t, []storage.Location{"p1", "p3"}, res.Deleted)
	assert.Len(t, res.Failed, 1)
	assert.ErrorIs(t, res.Failed["p2"], unauthorized)
}

// TestDeleteBatchFatalErrorUnwraps checks the fatal (transport-level) error path
// unwraps to the underlying cause.
func TestDeleteBatchFatalErrorUnwraps(t *testing.T) {
	cause := errors.New("connection reset")
	err := &storage.DeleteBatchFatalError{Err: cause}

	assert.ErrorIs(t, err, cause)
}
