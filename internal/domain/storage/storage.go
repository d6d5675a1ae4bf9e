// Package storage defines the Backend port and shared error taxonomy for the storage
// I/O abstraction (spec.md §4.5): S3/GCS/ADLS/HDFS/memory adapters all implement this
// interface under internal/adapters/storage.
package storage

import (
	"context"
	"io"
	"time"
)

// Location is a fully-qualified, backend-specific object path (e.g.
// "s3://bucket/prefix/key" or "gs://bucket/key"). The core never parses it beyond
// handing it to the owning Backend.
type Location string

// Backend is the storage I/O port: multi-part read/write, batch and recursive delete,
// and location validation, each under their own retry policy (spec.md §4.5).
type Backend interface {
	// Read streams the object at loc. Callers must Close the returned ReadCloser.
	Read(ctx context.Context, loc Location) (io.ReadCloser, error)

	// Write uploads r to loc, splitting into parts and uploading with bounded
	// concurrency when r is larger than the backend's part-size threshold.
	Write(ctx context.Context, loc Location, r io.Reader, size int64) error

	// Delete removes a single object. Deleting an absent object is not an error.
	Delete(ctx context.Context, loc Location) error

	// DeleteBatch removes multiple objects, tolerating partial failure: the returned
	// BatchDeleteResult separates succeeded locations from per-location errors.
	DeleteBatch(ctx context.Context, locs []Location) BatchDeleteResult

	// List enumerates objects with the given prefix.
	List(ctx context.Context, prefix Location) ([]Location, error)

	// RemoveAll recursively deletes every object under prefix via list + bounded
	// parallel batch-delete (spec.md §4.5).
	RemoveAll(ctx context.Context, prefix Location) error

	// ValidateLocation checks that loc is well-formed and, unless skipped by
	// configuration, round-trips a small probe write to confirm write access
	// (lakekeeper io/src/lib.rs skip_storage_validation supplement).
	ValidateLocation(ctx context.Context, loc Location) error
}

// BatchDeleteResult is the outcome of a DeleteBatch call.
type BatchDeleteResult struct {
	Deleted []Location
	Failed  map[Location]error
}

// DeleteBatchFatalError reports that the overall batch operation itself failed (as
// opposed to a subset of per-object failures reported in Failed).
type DeleteBatchFatalError struct {
	Err error
}

func (e *DeleteBatchFatalError) Error() string { return "storage: batch delete failed: " + e.Err.Error() }
func (e *DeleteBatchFatalError) Unwrap() error  { return e.Err }

// RetryConfig bounds retry attempts for one storage operation kind (read/write/delete),
// grounded on cenkalti/backoff/v4's exponential backoff shape.
type RetryConfig struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// PartConfig controls multi-part upload/download chunking and concurrency.
type PartConfig struct {
	PartSize       int64
	MaxConcurrency int
}

type InvalidLocationError struct {
	Location Location
	Reason   string
}

func (e *InvalidLocationError) Error() string {
	return "storage: invalid location " + string(e.Location) + ": " + e.Reason
}

type IOError struct {
	Location Location
	Op       string
	Err      error
}

func (e *IOError) Error() string { return "storage: " + e.Op + " " + string(e.Location) + ": " + e.Err.Error() }
func (e *IOError) Unwrap() error { return e.Err }
