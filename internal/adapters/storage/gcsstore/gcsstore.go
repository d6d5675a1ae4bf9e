// Package gcsstore is the Google Cloud Storage-backed storage.Backend (spec.md §4.5
// domain-stack wiring: GCS deletes are intentionally serialized — GCS's object API has
// no native batch-delete, so concurrency here is capped at 1, per the Open Question
// decision in DESIGN.md).
package gcsstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"

	domstorage "github.com/icewright/icewright/internal/domain/storage"
)

type Backend struct {
	Client *storage.Client
	Retry  domstorage.RetryConfig
}

func New(client *storage.Client, retry domstorage.RetryConfig) *Backend {
	return &Backend{Client: client, Retry: retry}
}

func parseLocation(loc domstorage.Location) (bucket, object string, err error) {
	s := strings.TrimPrefix(string(loc), "gs://")
	if s == string(loc) {
		return "", "", &domstorage.InvalidLocationError{Location: loc, Reason: "missing gs:// scheme"}
	}

	parts := strings.SplitN(s, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", &domstorage.InvalidLocationError{Location: loc, Reason: "expected gs://bucket/object"}
	}

	return parts[0], parts[1], nil
}

func (b *Backend) Read(ctx context.Context, loc domstorage.Location) (io.ReadCloser, error) {
	bucket, object, err := parseLocation(loc)
	if err != nil {
		return nil, err
	}

	r, err := b.Client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		return nil, &domstorage.IOError{Location: loc, Op: "read", Err: err}
	}

	return r, nil
}

func (b *Backend) Write(ctx context.Context, loc domstorage.Location, r io.Reader, size int64) error {
	bucket, object, err := parseLocation(loc)
	if err != nil {
		return err
	}

	w := b.Client.Bucket(bucket).Object(object).NewWriter(ctx)

	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return &domstorage.IOError{Location: loc, Op: "write", Err: err}
	}

	if err := w.Close(); err != nil {
		return &domstorage.IOError{Location: loc, Op: "write", Err: err}
	}

	return nil
}

func (b *Backend) Delete(ctx context.Context, loc domstorage.Location) error {
	bucket, object, err := parseLocation(loc)
	if err != nil {
		return err
	}

	if err := b.Client.Bucket(bucket).Object(object).Delete(ctx); err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil
		}

		return &domstorage.IOError{Location: loc, Op: "delete", Err: err}
	}

	return nil
}

// DeleteBatch issues deletes one at a time: GCS has no batch-delete RPC, so the
// "bounded concurrency" the other backends apply here is a bound of 1 by design.
func (b *Backend) DeleteBatch(ctx context.Context, locs []domstorage.Location) domstorage.BatchDeleteResult {
	res := domstorage.BatchDeleteResult{Failed: map[domstorage.Location]error{}}

	for _, loc := range locs {
		if err := b.Delete(ctx, loc); err != nil {
			res.Failed[loc] = err
			continue
		}

		res.Deleted = append(res.Deleted, loc)
	}

	return res
}

func (b *Backend) List(ctx context.Context, prefix domstorage.Location) ([]domstorage.Location, error) {
	bucket, object, err := parseLocation(prefix)
	if err != nil {
		return nil, err
	}

	var out []domstorage.Location

	it := b.Client.Bucket(bucket).Objects(ctx, &storage.Query{Prefix: object})

	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}

		if err != nil {
			return nil, &domstorage.IOError{Location: prefix, Op: "list", Err: err}
		}

		out = append(out, domstorage.Location(fmt.Sprintf("gs://%s/%s", bucket, attrs.Name)))
	}

	return out, nil
}

func (b *Backend) RemoveAll(ctx context.Context, prefix domstorage.Location) error {
	locs, err := b.List(ctx, prefix)
	if err != nil {
		return err
	}

	res := b.DeleteBatch(ctx, locs)
	if len(res.Failed) > 0 {
		return &domstorage.DeleteBatchFatalError{Err: fmt.Errorf("%d of %d deletes failed", len(res.Failed), len(locs))}
	}

	return nil
}

func (b *Backend) ValidateLocation(ctx context.Context, loc domstorage.Location) error {
	bucket, object, err := parseLocation(loc)
	if err != nil {
		return err
	}

	probe := object + "/.icewright-probe"

	w := b.Client.Bucket(bucket).Object(probe).NewWriter(ctx)
	if _, err := w.Write(nil); err != nil {
		return &domstorage.IOError{Location: loc, Op: "validate", Err: err}
	}

	if err := w.Close(); err != nil {
		return &domstorage.IOError{Location: loc, Op: "validate", Err: err}
	}

	_ = b.Client.Bucket(bucket).Object(probe).Delete(ctx)

	return nil
}

var _ domstorage.Backend = (*Backend)(nil)
