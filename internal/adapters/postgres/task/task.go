// Package task is the Postgres adapter for the task.Repository port: the durable
// queue's lease/heartbeat/crash-recovery logic lives in PickNewTask's row-locked
// UPDATE, grounded on midaz's pattern of doing state transitions inside a single
// `SELECT ... FOR UPDATE SKIP LOCKED`-guarded statement.
package task

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/icewright/icewright/internal/domain/task"
	"github.com/icewright/icewright/pkg/catalogerrors"
	"github.com/icewright/icewright/pkg/pgstore"
)

const tableName = "task"

type PostgresRepository struct {
	conn *pgstore.Connection
}

func NewPostgresRepository(conn *pgstore.Connection) *PostgresRepository {
	return &PostgresRepository{conn: conn}
}

var selectColumns = []string{
	"task_id", "parent_task_id", "warehouse_id", "queue_name", "entity_id", "task_data",
	"status", "outcome", "attempt", "scheduled_for", "picked_up_at", "last_heartbeat_at",
	"progress", "created_at",
}

func scanRow(row interface{ Scan(dest ...any) error }) (*task.Task, error) {
	t := &task.Task{}

	var (
		status  string
		outcome sql.NullString
	)

	if err := row.Scan(&t.TaskID, &t.ParentTaskID, &t.WarehouseID, &t.QueueName, &t.EntityID, &t.TaskData,
		&status, &outcome, &t.Attempt, &t.ScheduledFor, &t.PickedUpAt, &t.LastHeartbeatAt,
		&t.Progress, &t.CreatedAt); err != nil {
		return nil, err
	}

	t.Status = task.Status(status)

	if outcome.Valid {
		o := task.Outcome(outcome.String)
		t.Outcome = &o
	}

	return t, nil
}

func (r *PostgresRepository) Enqueue(ctx context.Context, t *task.Task) (*task.Task, error) {
	db, err := r.conn.DB(ctx)
	if err != nil {
		return nil, err
	}

	query, args, err := squirrel.Insert(tableName).
		Columns("task_id", "parent_task_id", "warehouse_id", "queue_name", "entity_id", "task_data",
			"status", "attempt", "scheduled_for", "progress", "created_at").
		Values(t.TaskID, t.ParentTaskID, t.WarehouseID, t.QueueName, t.EntityID, t.TaskData,
			string(task.StatusScheduled), 0, t.ScheduledFor, 0, t.CreatedAt).
		PlaceholderFormat(squirrel.Dollar).ToSql()
	if err != nil {
		return nil, fmt.Errorf("task: build enqueue: %w", err)
	}

	if _, err := db.ExecContext(ctx, query, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, task.ErrActiveTaskExists{EntityID: t.EntityID, QueueName: t.QueueName}
		}

		return nil, fmt.Errorf("task: enqueue: %w", err)
	}

	t.Status = task.StatusScheduled

	return t, nil
}

// PickNewTask leases the oldest due task in one round-trip: a row-locked UPDATE that
// selects the candidate (Scheduled-and-due, or Running-with-expired-lease) via a
// correlated subquery with FOR UPDATE SKIP LOCKED, then flips it to Running and bumps
// Attempt, returning the updated row.
func (r *PostgresRepository) PickNewTask(ctx context.Context, queueName string, leaseDuration time.Duration, now time.Time) (*task.Task, error) {
	db, err := r.conn.DB(ctx)
	if err != nil {
		return nil, err
	}

	leaseDeadline := now.Add(-leaseDuration)

	row := db.QueryRowContext(ctx, `
		UPDATE `+tableName+` SET
			status = '`+string(task.StatusRunning)+`',
			attempt = attempt + 1,
			picked_up_at = $1,
			last_heartbeat_at = $1
		WHERE task_id = (
			SELECT task_id FROM `+tableName+`
			WHERE queue_name = $2
			  AND (
			        (status = '`+string(task.StatusScheduled)+`' AND scheduled_for <= $1)
			     OR (status = '`+string(task.StatusRunning)+`' AND last_heartbeat_at < $3)
			  )
			ORDER BY scheduled_for ASC
			FOR UPDATE SKIP LOCKED
			LIMIT 1
		)
		RETURNING `+joinColumns(selectColumns), now, queueName, leaseDeadline)

	t, err := scanRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, task.ErrNoTaskAvailable
		}

		return nil, fmt.Errorf("task: pick new task: %w", err)
	}

	return t, nil
}

func (r *PostgresRepository) Heartbeat(ctx context.Context, taskID uuid.UUID, progress float32, now time.Time) error {
	db, err := r.conn.DB(ctx)
	if err != nil {
		return err
	}

	query, args, err := squirrel.Update(tableName).
		Set("last_heartbeat_at", now).
		Set("progress", progress).
		Where(squirrel.Eq{"task_id": taskID, "status": string(task.StatusRunning)}).
		PlaceholderFormat(squirrel.Dollar).ToSql()
	if err != nil {
		return fmt.Errorf("task: build heartbeat: %w", err)
	}

	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("task: heartbeat: %w", err)
	}

	if n, _ := res.RowsAffected(); n == 0 {
		return task.ErrTaskNotRunning
	}

	return nil
}

func (r *PostgresRepository) RecordSuccess(ctx context.Context, taskID uuid.UUID, executionDetails []byte, now time.Time) error {
	return r.finish(ctx, taskID, task.OutcomeSuccess, "", executionDetails, now)
}

func (r *PostgresRepository) RecordFailure(ctx context.Context, taskID uuid.UUID, message string, now time.Time) error {
	return r.finish(ctx, taskID, task.OutcomeFailed, message, nil, now)
}

func (r *PostgresRepository) finish(ctx context.Context, taskID uuid.UUID, outcome task.Outcome, message string, executionDetails []byte, now time.Time) error {
	db, err := r.conn.DB(ctx)
	if err != nil {
		return err
	}

	query, args, err := squirrel.Update(tableName).
		Set("status", string(outcome)).
		Set("outcome", string(outcome)).
		Set("progress", 1.0).
		PlaceholderFormat(squirrel.Dollar).
		Where(squirrel.Eq{"task_id": taskID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("task: build finish: %w", err)
	}

	if _, err := db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("task: finish: %w", err)
	}

	if _, err := db.ExecContext(ctx,
		`INSERT INTO task_attempt (task_id, attempt_number, picked_up_at, finished_at, outcome, message, execution_details)
		 SELECT task_id, attempt, picked_up_at, $2, $3, $4, $5 FROM `+tableName+` WHERE task_id = $1`,
		taskID, now, string(outcome), message, executionDetails); err != nil {
		return fmt.Errorf("task: record attempt history: %w", err)
	}

	return nil
}

func (r *PostgresRepository) RequestStop(ctx context.Context, taskID uuid.UUID) error {
	db, err := r.conn.DB(ctx)
	if err != nil {
		return err
	}

	query, args, err := squirrel.Update(tableName).
		Set("status", string(task.StatusShouldStop)).
		Where(squirrel.Eq{"task_id": taskID, "status": string(task.StatusRunning)}).
		PlaceholderFormat(squirrel.Dollar).ToSql()
	if err != nil {
		return fmt.Errorf("task: build request stop: %w", err)
	}

	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("task: request stop: %w", err)
	}

	if n, _ := res.RowsAffected(); n == 0 {
		return task.ErrTaskNotRunning
	}

	return nil
}

func (r *PostgresRepository) CancelScheduled(ctx context.Context, taskID uuid.UUID) error {
	db, err := r.conn.DB(ctx)
	if err != nil {
		return err
	}

	query, args, err := squirrel.Update(tableName).
		Set("status", string(task.OutcomeCancelled)).
		Set("outcome", string(task.OutcomeCancelled)).
		Where(squirrel.Eq{"task_id": taskID, "status": string(task.StatusScheduled)}).
		PlaceholderFormat(squirrel.Dollar).ToSql()
	if err != nil {
		return fmt.Errorf("task: build cancel: %w", err)
	}

	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("task: cancel: %w", err)
	}

	if n, _ := res.RowsAffected(); n == 0 {
		return catalogerrors.Translate(catalogerrors.ErrTaskNotFound, "Task", taskID)
	}

	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, taskID uuid.UUID) (*task.Task, error) {
	db, err := r.conn.DB(ctx)
	if err != nil {
		return nil, err
	}

	query, args, err := squirrel.Select(selectColumns...).From(tableName).
		Where(squirrel.Eq{"task_id": taskID}).PlaceholderFormat(squirrel.Dollar).ToSql()
	if err != nil {
		return nil, fmt.Errorf("task: build get: %w", err)
	}

	t, err := scanRow(db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, catalogerrors.Translate(catalogerrors.ErrTaskNotFound, "Task", taskID)
		}

		return nil, fmt.Errorf("task: get: %w", err)
	}

	return t, nil
}

func (r *PostgresRepository) GetByEntity(ctx context.Context, entityID uuid.UUID, queueName string) (*task.Task, error) {
	db, err := r.conn.DB(ctx)
	if err != nil {
		return nil, err
	}

	query, args, err := squirrel.Select(selectColumns...).From(tableName).
		Where(squirrel.Eq{"entity_id": entityID, "queue_name": queueName}).
		OrderBy("created_at DESC").Limit(1).
		PlaceholderFormat(squirrel.Dollar).ToSql()
	if err != nil {
		return nil, fmt.Errorf("task: build get by entity: %w", err)
	}

	t, err := scanRow(db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, catalogerrors.Translate(catalogerrors.ErrTaskNotFound, "Task", entityID)
		}

		return nil, fmt.Errorf("task: get by entity: %w", err)
	}

	return t, nil
}

func (r *PostgresRepository) List(ctx context.Context, warehouseID uuid.UUID, queueName string, statuses []task.Status, afterID string, limit int) ([]*task.Task, error) {
	db, err := r.conn.DB(ctx)
	if err != nil {
		return nil, err
	}

	q := squirrel.Select(selectColumns...).From(tableName).Where(squirrel.Eq{"warehouse_id": warehouseID})

	if queueName != "" {
		q = q.Where(squirrel.Eq{"queue_name": queueName})
	}

	if len(statuses) > 0 {
		strs := make([]string, len(statuses))
		for i, s := range statuses {
			strs[i] = string(s)
		}

		q = q.Where(squirrel.Eq{"status": strs})
	}

	if afterID != "" {
		q = q.Where(squirrel.Gt{"task_id": afterID})
	}

	query, args, err := q.OrderBy("task_id ASC").Limit(uint64(limit + 1)).PlaceholderFormat(squirrel.Dollar).ToSql()
	if err != nil {
		return nil, fmt.Errorf("task: build list: %w", err)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("task: list query: %w", err)
	}
	defer rows.Close()

	var out []*task.Task

	for rows.Next() {
		t, err := scanRow(rows)
		if err != nil {
			return nil, fmt.Errorf("task: scan list row: %w", err)
		}

		out = append(out, t)
	}

	return out, rows.Err()
}

func joinColumns(cols []string) string {
	out := ""
	for i, c := range cols {
		if i > 0 {
			out += ", "
		}

		out += c
	}

	return out
}

var _ task.Repository = (*PostgresRepository)(nil)
