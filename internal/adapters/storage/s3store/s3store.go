// Package s3store is the S3-backed storage.Backend, grounded on the AWS SDK's own
// manager.Uploader/Downloader bounded-concurrency multipart pattern (spec.md §4.5,
// §9's "S3 concurrency" Open Question decision). Batch delete uses S3's native
// DeleteObjects (up to 1000 keys per call) instead of one call per key.
package s3store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/cenkalti/backoff/v4"
	"golang.org/x/sync/errgroup"

	"github.com/icewright/icewright/internal/domain/storage"
)

const maxDeleteObjectsPerCall = 1000

type Backend struct {
	Client     *s3.Client
	Uploader   *manager.Uploader
	Downloader *manager.Downloader
	Part       storage.PartConfig
	Retry      storage.RetryConfig
}

func New(client *s3.Client, part storage.PartConfig, retry storage.RetryConfig) *Backend {
	return &Backend{
		Client: client,
		Uploader: manager.NewUploader(client, func(u *manager.Uploader) {
			u.PartSize = part.PartSize
			u.Concurrency = part.MaxConcurrency
		}),
		Downloader: manager.NewDownloader(client, func(d *manager.Downloader) {
			d.PartSize = part.PartSize
			d.Concurrency = part.MaxConcurrency
		}),
		Part:  part,
		Retry: retry,
	}
}

func parseLocation(loc storage.Location) (bucket, key string, err error) {
	s := strings.TrimPrefix(string(loc), "s3://")
	if s == string(loc) {
		return "", "", &storage.InvalidLocationError{Location: loc, Reason: "missing s3:// scheme"}
	}

	parts := strings.SplitN(s, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", &storage.InvalidLocationError{Location: loc, Reason: "expected s3://bucket/key"}
	}

	return parts[0], parts[1], nil
}

func (b *Backend) retryPolicy() backoff.BackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = b.Retry.InitialBackoff
	bo.MaxInterval = b.Retry.MaxBackoff

	return backoff.WithMaxRetries(bo, uint64(b.Retry.MaxAttempts))
}

func (b *Backend) Read(ctx context.Context, loc storage.Location) (io.ReadCloser, error) {
	bucket, key, err := parseLocation(loc)
	if err != nil {
		return nil, err
	}

	var out *s3.GetObjectOutput

	err = backoff.Retry(func() error {
		var opErr error
		out, opErr = b.Client.GetObject(ctx, &s3.GetObjectInput{Bucket: aws.String(bucket), Key: aws.String(key)})
		return opErr
	}, b.retryPolicy())
	if err != nil {
		return nil, &storage.IOError{Location: loc, Op: "read", Err: err}
	}

	return out.Body, nil
}

func (b *Backend) Write(ctx context.Context, loc storage.Location, r io.Reader, size int64) error {
	bucket, key, err := parseLocation(loc)
	if err != nil {
		return err
	}

	err = backoff.Retry(func() error {
		_, opErr := b.Uploader.Upload(ctx, &s3.PutObjectInput{Bucket: aws.String(bucket), Key: aws.String(key), Body: r})
		return opErr
	}, b.retryPolicy())
	if err != nil {
		return &storage.IOError{Location: loc, Op: "write", Err: err}
	}

	return nil
}

func (b *Backend) Delete(ctx context.Context, loc storage.Location) error {
	bucket, key, err := parseLocation(loc)
	if err != nil {
		return err
	}

	_, err = b.Client.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: aws.String(bucket), Key: aws.String(key)})
	if err != nil {
		return &storage.IOError{Location: loc, Op: "delete", Err: err}
	}

	return nil
}

// DeleteBatch groups locs by bucket and issues one DeleteObjects call per
// maxDeleteObjectsPerCall-sized chunk per bucket, run with bounded parallelism.
func (b *Backend) DeleteBatch(ctx context.Context, locs []storage.Location) storage.BatchDeleteResult {
	res := storage.BatchDeleteResult{Failed: map[storage.Location]error{}}

	byBucket := map[string][]storage.Location{}
	for _, loc := range locs {
		bucket, _, err := parseLocation(loc)
		if err != nil {
			res.Failed[loc] = err
			continue
		}

		byBucket[bucket] = append(byBucket[bucket], loc)
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.Part.MaxConcurrency)

	for bucket, bucketLocs := range byBucket {
		bucket, bucketLocs := bucket, bucketLocs

		for start := 0; start < len(bucketLocs); start += maxDeleteObjectsPerCall {
			end := start + maxDeleteObjectsPerCall
			if end > len(bucketLocs) {
				end = len(bucketLocs)
			}

			chunk := bucketLocs[start:end]

			g.Go(func() error {
				ids := make([]types.ObjectIdentifier, len(chunk))
				keyToLoc := make(map[string]storage.Location, len(chunk))

				for i, loc := range chunk {
					_, key, _ := parseLocation(loc)
					ids[i] = types.ObjectIdentifier{Key: aws.String(key)}
					keyToLoc[key] = loc
				}

				out, err := b.Client.DeleteObjects(gctx, &s3.DeleteObjectsInput{
					Bucket: aws.String(bucket),
					Delete: &types.Delete{Objects: ids},
				})

				mu.Lock()
				defer mu.Unlock()

				if err != nil {
					for _, loc := range chunk {
						res.Failed[loc] = err
					}

					return nil
				}

				for _, d := range out.Deleted {
					if loc, ok := keyToLoc[aws.ToString(d.Key)]; ok {
						res.Deleted = append(res.Deleted, loc)
					}
				}

				for _, e := range out.Errors {
					if loc, ok := keyToLoc[aws.ToString(e.Key)]; ok {
						res.Failed[loc] = errors.New(aws.ToString(e.Message))
					}
				}

				return nil
			})
		}
	}

	_ = g.Wait()

	return res
}

func (b *Backend) List(ctx context.Context, prefix storage.Location) ([]storage.Location, error) {
	bucket, key, err := parseLocation(prefix)
	if err != nil {
		return nil, err
	}

	var out []storage.Location

	paginator := s3.NewListObjectsV2Paginator(b.Client, &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
		Prefix: aws.String(key),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, &storage.IOError{Location: prefix, Op: "list", Err: err}
		}

		for _, obj := range page.Contents {
			out = append(out, storage.Location(fmt.Sprintf("s3://%s/%s", bucket, aws.ToString(obj.Key))))
		}
	}

	return out, nil
}

func (b *Backend) RemoveAll(ctx context.Context, prefix storage.Location) error {
	locs, err := b.List(ctx, prefix)
	if err != nil {
		return err
	}

	res := b.DeleteBatch(ctx, locs)
	if len(res.Failed) > 0 {
		first := ""
		for loc, ferr := range res.Failed {
			first = fmt.Sprintf("%s: %v", loc, ferr)
			break
		}

		return &storage.DeleteBatchFatalError{Err: fmt.Errorf("%d of %d deletes failed, e.g. %s", len(res.Failed), len(locs), first)}
	}

	return nil
}

func (b *Backend) ValidateLocation(ctx context.Context, loc storage.Location) error {
	bucket, key, err := parseLocation(loc)
	if err != nil {
		return err
	}

	probeKey := key + "/.icewright-probe"

	_, err = b.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(probeKey),
		Body:   strings.NewReader(""),
	})
	if err != nil {
		return &storage.IOError{Location: loc, Op: "validate", Err: err}
	}

	_, _ = b.Client.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: aws.String(bucket), Key: aws.String(probeKey)})

	return nil
}

var _ storage.Backend = (*Backend)(nil)
