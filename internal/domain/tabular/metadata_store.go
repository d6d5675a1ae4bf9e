package tabular

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/icewright/icewright/internal/domain/storage"
)

// MetadataStore reads/writes the JSON metadata file a Tabular's CurrentMetadataLocation
// points at, via the storage.Backend abstraction (spec.md §4.5 is the transport; this
// is the codec sitting on top of it).
type MetadataStore struct {
	Backend storage.Backend
}

func (s MetadataStore) LoadTable(ctx context.Context, loc string) (TableMetadata, error) {
	r, err := s.Backend.Read(ctx, storage.Location(loc))
	if err != nil {
		return TableMetadata{}, fmt.Errorf("tabular: read table metadata %s: %w", loc, err)
	}
	defer r.Close()

	raw, err := io.ReadAll(r)
	if err != nil {
		return TableMetadata{}, fmt.Errorf("tabular: read table metadata body %s: %w", loc, err)
	}

	var meta TableMetadata
	if err := json.Unmarshal(raw, &meta); err != nil {
		return TableMetadata{}, fmt.Errorf("tabular: decode table metadata %s: %w", loc, err)
	}

	return meta, nil
}

func (s MetadataStore) WriteTable(ctx context.Context, loc string, meta TableMetadata) error {
	raw, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("tabular: encode table metadata: %w", err)
	}

	return s.Backend.Write(ctx, storage.Location(loc), bytes.NewReader(raw), int64(len(raw)))
}

func (s MetadataStore) LoadView(ctx context.Context, loc string) (ViewMetadata, error) {
	r, err := s.Backend.Read(ctx, storage.Location(loc))
	if err != nil {
		return ViewMetadata{}, fmt.Errorf("tabular: read view metadata %s: %w", loc, err)
	}
	defer r.Close()

	raw, err := io.ReadAll(r)
	if err != nil {
		return ViewMetadata{}, fmt.Errorf("tabular: read view metadata body %s: %w", loc, err)
	}

	var meta ViewMetadata
	if err := json.Unmarshal(raw, &meta); err != nil {
		return ViewMetadata{}, fmt.Errorf("tabular: decode view metadata %s: %w", loc, err)
	}

	return meta, nil
}

func (s MetadataStore) WriteView(ctx context.Context, loc string, meta ViewMetadata) error {
	raw, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("tabular: encode view metadata: %w", err)
	}

	return s.Backend.Write(ctx, storage.Location(loc), bytes.NewReader(raw), int64(len(raw)))
}
