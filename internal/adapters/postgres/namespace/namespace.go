// Package namespace is the Postgres adapter for the namespace.Repository port.
package namespace

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/icewright/icewright/internal/domain/namespace"
	"github.com/icewright/icewright/pkg/catalogerrors"
	"github.com/icewright/icewright/pkg/pgstore"
)

const tableName = "namespace"

var constraintSentinels = map[string]error{
	"namespace_warehouse_id_case_fold_key_key": catalogerrors.ErrDuplicateName,
}

type PostgresRepository struct {
	conn *pgstore.Connection
}

func NewPostgresRepository(conn *pgstore.Connection) *PostgresRepository {
	return &PostgresRepository{conn: conn}
}

type model struct {
	ID          uuid.UUID
	WarehouseID uuid.UUID
	ParentID    *uuid.UUID
	Segments    []byte
	CaseFoldKey string
	Properties  []byte
	Protected   bool
	CreatedAt   time.Time
}

func fromEntity(n *namespace.Namespace) (*model, error) {
	segs, err := json.Marshal(n.Ident.Segments)
	if err != nil {
		return nil, fmt.Errorf("namespace: encode segments: %w", err)
	}

	props, err := json.Marshal(n.Properties)
	if err != nil {
		return nil, fmt.Errorf("namespace: encode properties: %w", err)
	}

	return &model{
		ID:          n.ID,
		WarehouseID: n.WarehouseID,
		ParentID:    n.ParentID,
		Segments:    segs,
		CaseFoldKey: n.Ident.CaseFoldKey(),
		Properties:  props,
		Protected:   n.Protected,
		CreatedAt:   n.CreatedAt,
	}, nil
}

func (m *model) toEntity() (*namespace.Namespace, error) {
	var segs []string
	if err := json.Unmarshal(m.Segments, &segs); err != nil {
		return nil, fmt.Errorf("namespace: decode segments: %w", err)
	}

	var props map[string]string
	if len(m.Properties) > 0 {
		if err := json.Unmarshal(m.Properties, &props); err != nil {
			return nil, fmt.Errorf("namespace: decode properties: %w", err)
		}
	}

	return &namespace.Namespace{
		ID:          m.ID,
		WarehouseID: m.WarehouseID,
		ParentID:    m.ParentID,
		Ident:       namespace.Ident{Segments: segs},
		Properties:  props,
		Protected:   m.Protected,
		CreatedAt:   m.CreatedAt,
	}, nil
}

func scanRow(row interface{ Scan(dest ...any) error }) (*namespace.Namespace, error) {
	var m model

	if err := row.Scan(&m.ID, &m.WarehouseID, &m.ParentID, &m.Segments, &m.CaseFoldKey,
		&m.Properties, &m.Protected, &m.CreatedAt); err != nil {
		return nil, err
	}

	return m.toEntity()
}

var selectColumns = []string{"id", "warehouse_id", "parent_id", "segments", "case_fold_key", "properties", "protected", "created_at"}

func (r *PostgresRepository) Create(ctx context.Context, n *namespace.Namespace) (*namespace.Namespace, error) {
	db, err := r.conn.DB(ctx)
	if err != nil {
		return nil, err
	}

	m, err := fromEntity(n)
	if err != nil {
		return nil, err
	}

	query, args, err := squirrel.Insert(tableName).
		Columns(selectColumns...).
		Values(m.ID, m.WarehouseID, m.ParentID, m.Segments, m.CaseFoldKey, m.Properties, m.Protected, m.CreatedAt).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("namespace: build insert: %w", err)
	}

	if _, err := db.ExecContext(ctx, query, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			return nil, catalogerrors.TranslatePGError(pgErr, "Namespace", constraintSentinels)
		}

		return nil, fmt.Errorf("namespace: insert: %w", err)
	}

	return n, nil
}

func (r *PostgresRepository) Get(ctx context.Context, warehouseID, id uuid.UUID) (*namespace.Namespace, error) {
	db, err := r.conn.DB(ctx)
	if err != nil {
		return nil, err
	}

	query, args, err := squirrel.Select(selectColumns...).From(tableName).
		Where(squirrel.Eq{"warehouse_id": warehouseID, "id": id}).
		PlaceholderFormat(squirrel.Dollar).ToSql()
	if err != nil {
		return nil, fmt.Errorf("namespace: build select: %w", err)
	}

	n, err := scanRow(db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, catalogerrors.Translate(catalogerrors.ErrNamespaceNotFound, "Namespace", id)
		}

		return nil, fmt.Errorf("namespace: scan: %w", err)
	}

	return n, nil
}

func (r *PostgresRepository) GetByIdent(ctx context.Context, warehouseID uuid.UUID, ident namespace.Ident) (*namespace.Namespace, error) {
	db, err := r.conn.DB(ctx)
	if err != nil {
		return nil, err
	}

	query, args, err := squirrel.Select(selectColumns...).From(tableName).
		Where(squirrel.Eq{"warehouse_id": warehouseID, "case_fold_key": ident.CaseFoldKey()}).
		PlaceholderFormat(squirrel.Dollar).ToSql()
	if err != nil {
		return nil, fmt.Errorf("namespace: build select by ident: %w", err)
	}

	n, err := scanRow(db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, catalogerrors.Translate(catalogerrors.ErrNamespaceNotFound, "Namespace", ident.String())
		}

		return nil, fmt.Errorf("namespace: scan by ident: %w", err)
	}

	return n, nil
}

func (r *PostgresRepository) ListChildren(ctx context.Context, warehouseID uuid.UUID, parent *uuid.UUID, afterID string, limit int) ([]*namespace.Namespace, error) {
	db, err := r.conn.DB(ctx)
	if err != nil {
		return nil, err
	}

	q := squirrel.Select(selectColumns...).From(tableName).Where(squirrel.Eq{"warehouse_id": warehouseID})
	if parent == nil {
		q = q.Where("parent_id IS NULL")
	} else {
		q = q.Where(squirrel.Eq{"parent_id": *parent})
	}

	if afterID != "" {
		q = q.Where(squirrel.Gt{"id": afterID})
	}

	query, args, err := q.OrderBy("id ASC").Limit(uint64(limit + 1)).PlaceholderFormat(squirrel.Dollar).ToSql()
	if err != nil {
		return nil, fmt.Errorf("namespace: build list children: %w", err)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("namespace: list children query: %w", err)
	}
	defer rows.Close()

	var out []*namespace.Namespace

	for rows.Next() {
		n, err := scanRow(rows)
		if err != nil {
			return nil, fmt.Errorf("namespace: scan list children row: %w", err)
		}

		out = append(out, n)
	}

	return out, rows.Err()
}

func (r *PostgresRepository) UpdateProperties(ctx context.Context, warehouseID, id uuid.UUID, properties map[string]string) (*namespace.Namespace, error) {
	db, err := r.conn.DB(ctx)
	if err != nil {
		return nil, err
	}

	props, err := json.Marshal(properties)
	if err != nil {
		return nil, fmt.Errorf("namespace: encode properties: %w", err)
	}

	query, args, err := squirrel.Update(tableName).
		Set("properties", props).
		Where(squirrel.Eq{"warehouse_id": warehouseID, "id": id}).
		PlaceholderFormat(squirrel.Dollar).ToSql()
	if err != nil {
		return nil, fmt.Errorf("namespace: build update properties: %w", err)
	}

	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("namespace: update properties: %w", err)
	}

	if n, _ := res.RowsAffected(); n == 0 {
		return nil, catalogerrors.Translate(catalogerrors.ErrNamespaceNotFound, "Namespace", id)
	}

	return r.Get(ctx, warehouseID, id)
}

func (r *PostgresRepository) SetProtected(ctx context.Context, warehouseID, id uuid.UUID, protected bool) error {
	db, err := r.conn.DB(ctx)
	if err != nil {
		return err
	}

	query, args, err := squirrel.Update(tableName).
		Set("protected", protected).
		Where(squirrel.Eq{"warehouse_id": warehouseID, "id": id}).
		PlaceholderFormat(squirrel.Dollar).ToSql()
	if err != nil {
		return fmt.Errorf("namespace: build set protected: %w", err)
	}

	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("namespace: set protected: %w", err)
	}

	if n, _ := res.RowsAffected(); n == 0 {
		return catalogerrors.Translate(catalogerrors.ErrNamespaceNotFound, "Namespace", id)
	}

	return nil
}

func (r *PostgresRepository) IsEmpty(ctx context.Context, warehouseID, id uuid.UUID) (bool, error) {
	db, err := r.conn.DB(ctx)
	if err != nil {
		return false, err
	}

	var childNamespaces, childTabulars int

	row := db.QueryRowContext(ctx,
		`SELECT
			(SELECT count(*) FROM `+tableName+` WHERE parent_id = $1),
			(SELECT count(*) FROM tabular WHERE namespace_id = $1 AND deleted_at IS NULL)`,
		id)
	if err := row.Scan(&childNamespaces, &childTabulars); err != nil {
		return false, fmt.Errorf("namespace: is-empty check: %w", err)
	}

	return childNamespaces == 0 && childTabulars == 0, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, warehouseID, id uuid.UUID) error {
	db, err := r.conn.DB(ctx)
	if err != nil {
		return err
	}

	query, args, err := squirrel.Delete(tableName).
		Where(squirrel.Eq{"warehouse_id": warehouseID, "id": id}).
		PlaceholderFormat(squirrel.Dollar).ToSql()
	if err != nil {
		return fmt.Errorf("namespace: build delete: %w", err)
	}

	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && strings.Contains(pgErr.ConstraintName, "parent_id_fkey") {
			return catalogerrors.Translate(catalogerrors.ErrNamespaceNotEmpty, "Namespace", id)
		}

		return fmt.Errorf("namespace: delete: %w", err)
	}

	if n, _ := res.RowsAffected(); n == 0 {
		return catalogerrors.Translate(catalogerrors.ErrNamespaceNotFound, "Namespace", id)
	}

	return nil
}

var _ namespace.Repository = (*PostgresRepository)(nil)
