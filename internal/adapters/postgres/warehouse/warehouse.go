// Package warehouse is the Postgres adapter for the warehouse.Repository port,
// grounded on midaz's internal/adapters/postgres/ledger/ledger.postgresql.go.
package warehouse

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/icewright/icewright/internal/domain/warehouse"
	"github.com/icewright/icewright/pkg/catalogerrors"
	"github.com/icewright/icewright/pkg/pgstore"
)

const tableName = "warehouse"

var constraintSentinels = map[string]error{
	"warehouse_project_id_name_key": catalogerrors.ErrDuplicateName,
}

// PostgresRepository is a Postgres-specific implementation of warehouse.Repository.
type PostgresRepository struct {
	conn *pgstore.Connection
}

func NewPostgresRepository(conn *pgstore.Connection) *PostgresRepository {
	return &PostgresRepository{conn: conn}
}

type model struct {
	ID               uuid.UUID
	ProjectID        uuid.UUID
	Name             string
	Status           string
	StorageFlavor    string
	StorageBlob      []byte
	StorageSecretID  *uuid.UUID
	DeleteProfileKind string
	DeleteExpirationDelaySeconds *int64
	Protected        bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func fromEntity(w *warehouse.Warehouse) (*model, error) {
	blob, err := json.Marshal(w.Storage.Blob)
	if err != nil {
		return nil, fmt.Errorf("warehouse: encode storage blob: %w", err)
	}

	m := &model{
		ID:                w.ID,
		ProjectID:         w.ProjectID,
		Name:              w.Name,
		Status:            string(w.Status),
		StorageFlavor:     w.Storage.Flavor,
		StorageBlob:       blob,
		StorageSecretID:   w.StorageSecretID,
		DeleteProfileKind: string(w.DeleteProfile.Kind),
		Protected:         w.Protected,
		CreatedAt:         w.CreatedAt,
		UpdatedAt:         w.UpdatedAt,
	}

	if w.DeleteProfile.Kind == warehouse.DeleteProfileSoft {
		secs := int64(w.DeleteProfile.ExpirationDelay.Seconds())
		m.DeleteExpirationDelaySeconds = &secs
	}

	return m, nil
}

func (m *model) toEntity() (*warehouse.Warehouse, error) {
	var blob map[string]any
	if len(m.StorageBlob) > 0 {
		if err := json.Unmarshal(m.StorageBlob, &blob); err != nil {
			return nil, fmt.Errorf("warehouse: decode storage blob: %w", err)
		}
	}

	dp := warehouse.DeleteProfile{Kind: warehouse.DeleteProfileKind(m.DeleteProfileKind)}
	if m.DeleteExpirationDelaySeconds != nil {
		dp.ExpirationDelay = time.Duration(*m.DeleteExpirationDelaySeconds) * time.Second
	}

	return &warehouse.Warehouse{
		ID:              m.ID,
		ProjectID:       m.ProjectID,
		Name:            m.Name,
		Status:          warehouse.Status(m.Status),
		Storage:         warehouse.StorageProfile{Flavor: m.StorageFlavor, Blob: blob},
		StorageSecretID: m.StorageSecretID,
		DeleteProfile:   dp,
		Protected:       m.Protected,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}, nil
}

func (r *PostgresRepository) Create(ctx context.Context, w *warehouse.Warehouse) (*warehouse.Warehouse, error) {
	db, err := r.conn.DB(ctx)
	if err != nil {
		return nil, err
	}

	m, err := fromEntity(w)
	if err != nil {
		return nil, err
	}

	query, args, err := squirrel.Insert(tableName).
		Columns("id", "project_id", "name", "status", "storage_flavor", "storage_blob",
			"storage_secret_id", "delete_profile_kind", "delete_expiration_delay_seconds",
			"protected", "created_at", "updated_at").
		Values(m.ID, m.ProjectID, m.Name, m.Status, m.StorageFlavor, m.StorageBlob,
			m.StorageSecretID, m.DeleteProfileKind, m.DeleteExpirationDelaySeconds,
			m.Protected, m.CreatedAt, m.UpdatedAt).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("warehouse: build insert: %w", err)
	}

	if _, err := db.ExecContext(ctx, query, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			return nil, catalogerrors.TranslatePGError(pgErr, "Warehouse", constraintSentinels)
		}

		return nil, fmt.Errorf("warehouse: insert: %w", err)
	}

	return w, nil
}

func (r *PostgresRepository) Get(ctx context.Context, projectID, id uuid.UUID) (*warehouse.Warehouse, error) {
	db, err := r.conn.DB(ctx)
	if err != nil {
		return nil, err
	}

	query, args, err := squirrel.Select("id", "project_id", "name", "status", "storage_flavor",
		"storage_blob", "storage_secret_id", "delete_profile_kind", "delete_expiration_delay_seconds",
		"protected", "created_at", "updated_at").
		From(tableName).
		Where(squirrel.Eq{"project_id": projectID, "id": id}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("warehouse: build select: %w", err)
	}

	var m model

	row := db.QueryRowContext(ctx, query, args...)
	if err := row.Scan(&m.ID, &m.ProjectID, &m.Name, &m.Status, &m.StorageFlavor, &m.StorageBlob,
		&m.StorageSecretID, &m.DeleteProfileKind, &m.DeleteExpirationDelaySeconds,
		&m.Protected, &m.CreatedAt, &m.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, catalogerrors.Translate(catalogerrors.ErrWarehouseNotFound, "Warehouse", id)
		}

		return nil, fmt.Errorf("warehouse: scan: %w", err)
	}

	return m.toEntity()
}

func (r *PostgresRepository) GetByName(ctx context.Context, projectID uuid.UUID, name string) (*warehouse.Warehouse, error) {
	db, err := r.conn.DB(ctx)
	if err != nil {
		return nil, err
	}

	query, args, err := squirrel.Select("id", "project_id", "name", "status", "storage_flavor",
		"storage_blob", "storage_secret_id", "delete_profile_kind", "delete_expiration_delay_seconds",
		"protected", "created_at", "updated_at").
		From(tableName).
		Where(squirrel.Eq{"project_id": projectID, "name": name}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("warehouse: build select by name: %w", err)
	}

	var m model

	row := db.QueryRowContext(ctx, query, args...)
	if err := row.Scan(&m.ID, &m.ProjectID, &m.Name, &m.Status, &m.StorageFlavor, &m.StorageBlob,
		&m.StorageSecretID, &m.DeleteProfileKind, &m.DeleteExpirationDelaySeconds,
		&m.Protected, &m.CreatedAt, &m.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, catalogerrors.Translate(catalogerrors.ErrWarehouseNotFound, "Warehouse", name)
		}

		return nil, fmt.Errorf("warehouse: scan by name: %w", err)
	}

	return m.toEntity()
}

func (r *PostgresRepository) List(ctx context.Context, projectID uuid.UUID) ([]*warehouse.Warehouse, error) {
	db, err := r.conn.DB(ctx)
	if err != nil {
		return nil, err
	}

	query, args, err := squirrel.Select("id", "project_id", "name", "status", "storage_flavor",
		"storage_blob", "storage_secret_id", "delete_profile_kind", "delete_expiration_delay_seconds",
		"protected", "created_at", "updated_at").
		From(tableName).
		Where(squirrel.Eq{"project_id": projectID}).
		OrderBy("name ASC").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("warehouse: build list: %w", err)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("warehouse: list query: %w", err)
	}
	defer rows.Close()

	var out []*warehouse.Warehouse

	for rows.Next() {
		var m model
		if err := rows.Scan(&m.ID, &m.ProjectID, &m.Name, &m.Status, &m.StorageFlavor, &m.StorageBlob,
			&m.StorageSecretID, &m.DeleteProfileKind, &m.DeleteExpirationDelaySeconds,
			&m.Protected, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("warehouse: scan list row: %w", err)
		}

		e, err := m.toEntity()
		if err != nil {
			return nil, err
		}

		out = append(out, e)
	}

	return out, rows.Err()
}

func (r *PostgresRepository) Update(ctx context.Context, w *warehouse.Warehouse) (*warehouse.Warehouse, error) {
	db, err := r.conn.DB(ctx)
	if err != nil {
		return nil, err
	}

	m, err := fromEntity(w)
	if err != nil {
		return nil, err
	}

	query, args, err := squirrel.Update(tableName).
		Set("name", m.Name).
		Set("storage_flavor", m.StorageFlavor).
		Set("storage_blob", m.StorageBlob).
		Set("storage_secret_id", m.StorageSecretID).
		Set("delete_profile_kind", m.DeleteProfileKind).
		Set("delete_expiration_delay_seconds", m.DeleteExpirationDelaySeconds).
		Set("protected", m.Protected).
		Set("updated_at", m.UpdatedAt).
		Where(squirrel.Eq{"id": m.ID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("warehouse: build update: %w", err)
	}

	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			return nil, catalogerrors.TranslatePGError(pgErr, "Warehouse", constraintSentinels)
		}

		return nil, fmt.Errorf("warehouse: update: %w", err)
	}

	if n, _ := res.RowsAffected(); n == 0 {
		return nil, catalogerrors.Translate(catalogerrors.ErrWarehouseNotFound, "Warehouse", w.ID)
	}

	return w, nil
}

func (r *PostgresRepository) SetStatus(ctx context.Context, id uuid.UUID, status warehouse.Status) error {
	db, err := r.conn.DB(ctx)
	if err != nil {
		return err
	}

	query, args, err := squirrel.Update(tableName).
		Set("status", string(status)).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("warehouse: build set status: %w", err)
	}

	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("warehouse: set status: %w", err)
	}

	if n, _ := res.RowsAffected(); n == 0 {
		return catalogerrors.Translate(catalogerrors.ErrWarehouseNotFound, "Warehouse", id)
	}

	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	db, err := r.conn.DB(ctx)
	if err != nil {
		return err
	}

	query, args, err := squirrel.Delete(tableName).
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("warehouse: build delete: %w", err)
	}

	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("warehouse: delete: %w", err)
	}

	if n, _ := res.RowsAffected(); n == 0 {
		return catalogerrors.Translate(catalogerrors.ErrWarehouseNotFound, "Warehouse", id)
	}

	return nil
}

var _ warehouse.Repository = (*PostgresRepository)(nil)
