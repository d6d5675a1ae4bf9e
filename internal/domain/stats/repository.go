package stats

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository provides an interface for recording and querying endpoint/warehouse
// statistics (spec.md §4.6, plus the warehouse-snapshot supplement).
//
//go:generate mockgen --destination=../../../internal/gen/mock/stats/stats_mock.go --package=mock . Repository
type Repository interface {
	// IncrementEndpointCounter upserts the per-bucket counter for one observed call.
	IncrementEndpointCounter(ctx context.Context, call EndpointCall, bucketWidth time.Duration) error

	ListEndpointStatistics(ctx context.Context, warehouseID uuid.UUID, since time.Time) ([]EndpointStatistic, error)

	RecordWarehouseStatistic(ctx context.Context, s WarehouseStatistic) error
	LatestWarehouseStatistic(ctx context.Context, warehouseID uuid.UUID) (*WarehouseStatistic, error)
}
