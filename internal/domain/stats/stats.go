// Package stats holds the endpoint-statistics pipeline entities (spec.md §4.6) and the
// warehouse tabular-count snapshot supplemented from lakekeeper's stats_retention.rs.
package stats

import (
	"time"

	"github.com/google/uuid"
)

// EndpointCall is one raw observation emitted by the HTTP middleware before it is
// folded into a per-minute EndpointStatistic bucket.
type EndpointCall struct {
	WarehouseID uuid.UUID
	URIPattern  string // route template, e.g. "/v1/{prefix}/namespaces/{namespace}/tables"
	StatusCode  int
	ObservedAt  time.Time
}

// EndpointStatistic is a fixed-width time bucket of call counts for one
// (warehouse, uri_pattern, status_code) triple (spec.md §4.6).
type EndpointStatistic struct {
	WarehouseID uuid.UUID
	URIPattern  string
	StatusCode  int
	BucketStart time.Time
	Count       int64
}

// BucketStart truncates t to the statistics bucket width.
func BucketStart(t time.Time, width time.Duration) time.Time {
	return t.Truncate(width)
}

// WarehouseStatistic is a point-in-time snapshot of a warehouse's tabular counts,
// taken periodically by a background task (supplemented from lakekeeper's
// stats_retention.rs, absent from the distilled spec).
type WarehouseStatistic struct {
	WarehouseID     uuid.UUID
	Timestamp       time.Time
	NumberOfTables  int64
	NumberOfViews   int64
}
