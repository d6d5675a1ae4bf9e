// Package stats is the Postgres adapter for the stats.Repository port (spec.md §4.6,
// plus the warehouse-statistics-snapshot supplement).
package stats

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/icewright/icewright/internal/domain/stats"
	"github.com/icewright/icewright/pkg/pgstore"
)

type PostgresRepository struct {
	conn *pgstore.Connection
}

func NewPostgresRepository(conn *pgstore.Connection) *PostgresRepository {
	return &PostgresRepository{conn: conn}
}

func (r *PostgresRepository) IncrementEndpointCounter(ctx context.Context, call stats.EndpointCall, bucketWidth time.Duration) error {
	db, err := r.conn.DB(ctx)
	if err != nil {
		return err
	}

	bucket := stats.BucketStart(call.ObservedAt, bucketWidth)

	_, err = db.ExecContext(ctx, `
		INSERT INTO endpoint_statistic (warehouse_id, uri_pattern, status_code, bucket_start, count)
		VALUES ($1, $2, $3, $4, 1)
		ON CONFLICT (warehouse_id, uri_pattern, status_code, bucket_start)
		DO UPDATE SET count = endpoint_statistic.count + 1`,
		call.WarehouseID, call.URIPattern, call.StatusCode, bucket)
	if err != nil {
		return fmt.Errorf("stats: increment endpoint counter: %w", err)
	}

	return nil
}

func (r *PostgresRepository) ListEndpointStatistics(ctx context.Context, warehouseID uuid.UUID, since time.Time) ([]stats.EndpointStatistic, error) {
	db, err := r.conn.DB(ctx)
	if err != nil {
		return nil, err
	}

	query, args, err := squirrel.Select("warehouse_id", "uri_pattern", "status_code", "bucket_start", "count").
		From("endpoint_statistic").
		Where(squirrel.Eq{"warehouse_id": warehouseID}).
		Where(squirrel.GtOrEq{"bucket_start": since}).
		OrderBy("bucket_start ASC").
		PlaceholderFormat(squirrel.Dollar).ToSql()
	if err != nil {
		return nil, fmt.Errorf("stats: build list endpoint stats: %w", err)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("stats: list endpoint stats query: %w", err)
	}
	defer rows.Close()

	var out []stats.EndpointStatistic

	for rows.Next() {
		var s stats.EndpointStatistic
		if err := rows.Scan(&s.WarehouseID, &s.URIPattern, &s.StatusCode, &s.BucketStart, &s.Count); err != nil {
			return nil, fmt.Errorf("stats: scan endpoint stat row: %w", err)
		}

		out = append(out, s)
	}

	return out, rows.Err()
}

func (r *PostgresRepository) RecordWarehouseStatistic(ctx context.Context, s stats.WarehouseStatistic) error {
	db, err := r.conn.DB(ctx)
	if err != nil {
		return err
	}

	query, args, err := squirrel.Insert("warehouse_statistic").
		Columns("warehouse_id", "timestamp", "number_of_tables", "number_of_views").
		Values(s.WarehouseID, s.Timestamp, s.NumberOfTables, s.NumberOfViews).
		PlaceholderFormat(squirrel.Dollar).ToSql()
	if err != nil {
		return fmt.Errorf("stats: build record snapshot: %w", err)
	}

	if _, err := db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("stats: record snapshot: %w", err)
	}

	return nil
}

func (r *PostgresRepository) LatestWarehouseStatistic(ctx context.Context, warehouseID uuid.UUID) (*stats.WarehouseStatistic, error) {
	db, err := r.conn.DB(ctx)
	if err != nil {
		return nil, err
	}

	query, args, err := squirrel.Select("warehouse_id", "timestamp", "number_of_tables", "number_of_views").
		From("warehouse_statistic").
		Where(squirrel.Eq{"warehouse_id": warehouseID}).
		OrderBy("timestamp DESC").Limit(1).
		PlaceholderFormat(squirrel.Dollar).ToSql()
	if err != nil {
		return nil, fmt.Errorf("stats: build latest snapshot: %w", err)
	}

	var s stats.WarehouseStatistic

	row := db.QueryRowContext(ctx, query, args...)
	if err := row.Scan(&s.WarehouseID, &s.Timestamp, &s.NumberOfTables, &s.NumberOfViews); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("stats: scan latest snapshot: %w", err)
	}

	return &s, nil
}

var _ stats.Repository = (*PostgresRepository)(nil)
