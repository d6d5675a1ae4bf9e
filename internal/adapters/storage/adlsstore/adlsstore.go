// Package adlsstore is the Azure Data Lake Storage Gen2-backed storage.Backend,
// wiring azure-sdk-for-go's azdatalake filesystem client (spec.md §4.5 domain-stack
// wiring). Writes and deletes each run as one request at a time; the Part config is
// stored on the Backend but not applied.
package adlsstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azdatalake/datalakeerror"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azdatalake/filesystem"

	domstorage "github.com/icewright/icewright/internal/domain/storage"
)

type Backend struct {
	Client *filesystem.Client
	Part   domstorage.PartConfig
}

func New(client *filesystem.Client, part domstorage.PartConfig) *Backend {
	return &Backend{Client: client, Part: part}
}

func parsePath(loc domstorage.Location) (string, error) {
	s := strings.TrimPrefix(string(loc), "abfss://")
	if s == string(loc) {
		return "", &domstorage.InvalidLocationError{Location: loc, Reason: "missing abfss:// scheme"}
	}

	idx := strings.Index(s, "/")
	if idx < 0 {
		return "", &domstorage.InvalidLocationError{Location: loc, Reason: "expected abfss://filesystem/path"}
	}

	return s[idx+1:], nil
}

func (b *Backend) Read(ctx context.Context, loc domstorage.Location) (io.ReadCloser, error) {
	path, err := parsePath(loc)
	if err != nil {
		return nil, err
	}

	fileClient := b.Client.NewFileClient(path)

	resp, err := fileClient.DownloadStream(ctx, nil)
	if err != nil {
		return nil, &domstorage.IOError{Location: loc, Op: "read", Err: err}
	}

	return resp.Body, nil
}

func (b *Backend) Write(ctx context.Context, loc domstorage.Location, r io.Reader, size int64) error {
	path, err := parsePath(loc)
	if err != nil {
		return err
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return &domstorage.IOError{Location: loc, Op: "write", Err: err}
	}

	fileClient := b.Client.NewFileClient(path)

	if _, err := fileClient.Create(ctx, nil); err != nil {
		return &domstorage.IOError{Location: loc, Op: "write", Err: err}
	}

	if _, err := fileClient.UploadStream(ctx, io.NopCloser(bytes.NewReader(data)), nil); err != nil {
		return &domstorage.IOError{Location: loc, Op: "write", Err: err}
	}

	return nil
}

func (b *Backend) Delete(ctx context.Context, loc domstorage.Location) error {
	path, err := parsePath(loc)
	if err != nil {
		return err
	}

	fileClient := b.Client.NewFileClient(path)

	if _, err := fileClient.Delete(ctx, nil); err != nil {
		if datalakeerror.HasCode(err, datalakeerror.PathNotFound) {
			return nil
		}

		return &domstorage.IOError{Location: loc, Op: "delete", Err: err}
	}

	return nil
}

// DeleteBatch has no native batch API in azdatalake; each delete runs sequentially.
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
	path, err := parsePath(prefix)
	if err != nil {
		return nil, err
	}

	var out []domstorage.Location

	fsPart := strings.SplitN(strings.TrimPrefix(string(prefix), "abfss://"), "/", 2)[0]

	pager := b.Client.NewListPathsPager(&filesystem.ListPathsOptions{Prefix: &path})

	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, &domstorage.IOError{Location: prefix, Op: "list", Err: err}
		}

		for _, p := range page.Paths {
			if p.Name != nil {
				out = append(out, domstorage.Location(fmt.Sprintf("abfss://%s/%s", fsPart, *p.Name)))
			}
		}
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
	path, err := parsePath(loc)
	if err != nil {
		return err
	}

	probe := path + "/.icewright-probe"
	fileClient := b.Client.NewFileClient(probe)

	if _, err := fileClient.Create(ctx, nil); err != nil {
		return &domstorage.IOError{Location: loc, Op: "validate", Err: err}
	}

	_, _ = fileClient.Delete(ctx, nil)

	return nil
}

var _ domstorage.Backend = (*Backend)(nil)
