// Package memory is an in-process storage.Backend used by tests and the "memory"
// StorageProfile flavor, grounded on the storage.Backend contract itself since no pack
// repo ships an in-memory object store to imitate directly.
package memory

import (
	"bytes"
	"context"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/icewright/icewright/internal/domain/storage"
)

type Backend struct {
	mu      sync.RWMutex
	objects map[storage.Location][]byte
}

func New() *Backend {
	return &Backend{objects: map[storage.Location][]byte{}}
}

func (b *Backend) Read(ctx context.Context, loc storage.Location) (io.ReadCloser, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	data, ok := b.objects[loc]
	if !ok {
		return nil, &storage.IOError{Location: loc, Op: "read", Err: io.ErrUnexpectedEOF}
	}

	return io.NopCloser(bytes.NewReader(data)), nil
}

func (b *Backend) Write(ctx context.Context, loc storage.Location, r io.Reader, size int64) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return &storage.IOError{Location: loc, Op: "write", Err: err}
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.objects[loc] = data

	return nil
}

func (b *Backend) Delete(ctx context.Context, loc storage.Location) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.objects, loc)

	return nil
}

func (b *Backend) DeleteBatch(ctx context.Context, locs []storage.Location) storage.BatchDeleteResult {
	res := storage.BatchDeleteResult{Failed: map[storage.Location]error{}}

	b.mu.Lock()
	defer b.mu.Unlock()

	for _, loc := range locs {
		delete(b.objects, loc)
		res.Deleted = append(res.Deleted, loc)
	}

	return res
}

func (b *Backend) List(ctx context.Context, prefix storage.Location) ([]storage.Location, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var out []storage.Location

	for loc := range b.objects {
		if strings.HasPrefix(string(loc), string(prefix)) {
			out = append(out, loc)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })

	return out, nil
}

func (b *Backend) RemoveAll(ctx context.Context, prefix storage.Location) error {
	locs, err := b.List(ctx, prefix)
	if err != nil {
		return err
	}

	res := b.DeleteBatch(ctx, locs)
	if len(res.Failed) > 0 {
		return &storage.DeleteBatchFatalError{Err: io.ErrClosedPipe}
	}

	return nil
}

func (b *Backend) ValidateLocation(ctx context.Context, loc storage.Location) error {
	if loc == "" {
		return &storage.InvalidLocationError{Location: loc, Reason: "empty location"}
	}

	return nil
}

var _ storage.Backend = (*Backend)(nil)
