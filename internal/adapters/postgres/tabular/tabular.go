// Package tabular is the Postgres adapter for the tabular.Repository port.
package tabular

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/icewright/icewright/internal/domain/tabular"
	"github.com/icewright/icewright/pkg/catalogerrors"
	"github.com/icewright/icewright/pkg/pgstore"
)

const tableName = "tabular"

var constraintSentinels = map[string]error{
	"tabular_namespace_id_kind_case_fold_name_key": catalogerrors.ErrDuplicateName,
}

type PostgresRepository struct {
	conn *pgstore.Connection
}

func NewPostgresRepository(conn *pgstore.Connection) *PostgresRepository {
	return &PostgresRepository{conn: conn}
}

var selectColumns = []string{
	"id", "kind", "warehouse_id", "namespace_id", "name", "current_metadata_location",
	"protected", "staged", "deleted_at", "created_at", "updated_at",
}

func scanRow(row interface{ Scan(dest ...any) error }) (*tabular.Tabular, error) {
	var (
		id, warehouseID, namespaceID uuid.UUID
		kind                         string
	)

	t := &tabular.Tabular{}

	if err := row.Scan(&id, &kind, &warehouseID, &namespaceID, &t.Name, &t.CurrentMetadataLocation,
		&t.Protected, &t.Staged, &t.DeletedAt, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}

	t.ID = tabular.ID{Kind: tabular.Kind(kind), UUID: id}
	t.WarehouseID = warehouseID
	t.NamespaceID = namespaceID

	return t, nil
}

func applyListFlags(q squirrel.SelectBuilder, flags tabular.ListFlags) squirrel.SelectBuilder {
	var or squirrel.Or

	if flags.IncludeActive {
		or = append(or, squirrel.And{squirrel.Eq{"staged": false}, squirrel.Expr("deleted_at IS NULL")})
	}

	if flags.IncludeStaged {
		or = append(or, squirrel.Eq{"staged": true})
	}

	if flags.IncludeDeleted {
		or = append(or, squirrel.Expr("deleted_at IS NOT NULL"))
	}

	if len(or) == 0 {
		return q
	}

	return q.Where(or)
}

func (r *PostgresRepository) Create(ctx context.Context, t *tabular.Tabular) (*tabular.Tabular, error) {
	db, err := r.conn.DB(ctx)
	if err != nil {
		return nil, err
	}

	query, args, err := squirrel.Insert(tableName).
		Columns("id", "kind", "warehouse_id", "namespace_id", "name", "case_fold_name",
			"current_metadata_location", "protected", "staged", "deleted_at", "created_at", "updated_at").
		Values(t.ID.UUID, string(t.ID.Kind), t.WarehouseID, t.NamespaceID, t.Name, strings.ToLower(t.Name),
			t.CurrentMetadataLocation, t.Protected, t.Staged, t.DeletedAt, t.CreatedAt, t.UpdatedAt).
		PlaceholderFormat(squirrel.Dollar).ToSql()
	if err != nil {
		return nil, fmt.Errorf("tabular: build insert: %w", err)
	}

	if _, err := db.ExecContext(ctx, query, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			return nil, catalogerrors.TranslatePGError(pgErr, "Tabular", constraintSentinels)
		}

		return nil, fmt.Errorf("tabular: insert: %w", err)
	}

	return t, nil
}

func (r *PostgresRepository) Get(ctx context.Context, warehouseID uuid.UUID, id tabular.ID) (*tabular.Tabular, error) {
	db, err := r.conn.DB(ctx)
	if err != nil {
		return nil, err
	}

	query, args, err := squirrel.Select(selectColumns...).From(tableName).
		Where(squirrel.Eq{"warehouse_id": warehouseID, "id": id.UUID, "kind": string(id.Kind)}).
		PlaceholderFormat(squirrel.Dollar).ToSql()
	if err != nil {
		return nil, fmt.Errorf("tabular: build select: %w", err)
	}

	t, err := scanRow(db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, catalogerrors.Translate(catalogerrors.ErrEntityNotFound, "Tabular", id.UUID)
		}

		return nil, fmt.Errorf("tabular: scan: %w", err)
	}

	return t, nil
}

func (r *PostgresRepository) GetByIdent(ctx context.Context, warehouseID uuid.UUID, kind tabular.Kind, ident tabular.Ident, flags tabular.ListFlags) (*tabular.Tabular, error) {
	db, err := r.conn.DB(ctx)
	if err != nil {
		return nil, err
	}

	nsCaseFold := strings.ToLower(strings.Join(ident.Namespace, "\x1f"))

	q := squirrel.Select(append(append([]string{}, selectColumns...), "namespace.case_fold_key")...).
		From(tableName).
		Join("namespace ON namespace.id = tabular.namespace_id").
		Where(squirrel.Eq{"tabular.warehouse_id": warehouseID, "tabular.kind": string(kind), "namespace.case_fold_key": nsCaseFold, "tabular.case_fold_name": strings.ToLower(ident.Name)})

	q = applyListFlags(q, flags)

	query, args, err := q.PlaceholderFormat(squirrel.Dollar).ToSql()
	if err != nil {
		return nil, fmt.Errorf("tabular: build select by ident: %w", err)
	}

	row := db.QueryRowContext(ctx, query, args...)

	var (
		id, whID, nsID uuid.UUID
		k              string
		t              tabular.Tabular
		caseFoldKey    string
	)

	if err := row.Scan(&id, &k, &whID, &nsID, &t.Name, &t.CurrentMetadataLocation, &t.Protected,
		&t.Staged, &t.DeletedAt, &t.CreatedAt, &t.UpdatedAt, &caseFoldKey); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, catalogerrors.Translate(catalogerrors.ErrEntityNotFound, "Tabular", ident.String())
		}

		return nil, fmt.Errorf("tabular: scan by ident: %w", err)
	}

	t.ID = tabular.ID{Kind: tabular.Kind(k), UUID: id}
	t.WarehouseID = whID
	t.NamespaceID = nsID

	return &t, nil
}

func (r *PostgresRepository) ListByNamespace(ctx context.Context, warehouseID, namespaceID uuid.UUID, kind tabular.Kind, flags tabular.ListFlags, afterID string, limit int) ([]*tabular.Tabular, error) {
	db, err := r.conn.DB(ctx)
	if err != nil {
		return nil, err
	}

	q := squirrel.Select(selectColumns...).From(tableName).
		Where(squirrel.Eq{"warehouse_id": warehouseID, "namespace_id": namespaceID, "kind": string(kind)})

	q = applyListFlags(q, flags)

	if afterID != "" {
		q = q.Where(squirrel.Gt{"id": afterID})
	}

	query, args, err := q.OrderBy("id ASC").Limit(uint64(limit + 1)).PlaceholderFormat(squirrel.Dollar).ToSql()
	if err != nil {
		return nil, fmt.Errorf("tabular: build list: %w", err)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("tabular: list query: %w", err)
	}
	defer rows.Close()

	var out []*tabular.Tabular

	for rows.Next() {
		t, err := scanRow(rows)
		if err != nil {
			return nil, fmt.Errorf("tabular: scan list row: %w", err)
		}

		out = append(out, t)
	}

	return out, rows.Err()
}

func (r *PostgresRepository) CompareAndSwapMetadataLocation(ctx context.Context, warehouseID uuid.UUID, id tabular.ID, expectedLocation, newLocation string) error {
	db, err := r.conn.DB(ctx)
	if err != nil {
		return err
	}

	query, args, err := squirrel.Update(tableName).
		Set("current_metadata_location", newLocation).
		Set("staged", false).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"warehouse_id": warehouseID, "id": id.UUID, "kind": string(id.Kind), "current_metadata_location": expectedLocation}).
		PlaceholderFormat(squirrel.Dollar).ToSql()
	if err != nil {
		return fmt.Errorf("tabular: build cas: %w", err)
	}

	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("tabular: cas: %w", err)
	}

	if n, _ := res.RowsAffected(); n == 0 {
		return tabular.ErrConcurrentCommit
	}

	return nil
}

func (r *PostgresRepository) Rename(ctx context.Context, warehouseID uuid.UUID, id tabular.ID, newNamespaceID uuid.UUID, newName string) error {
	db, err := r.conn.DB(ctx)
	if err != nil {
		return err
	}

	query, args, err := squirrel.Update(tableName).
		Set("namespace_id", newNamespaceID).
		Set("name", newName).
		Set("case_fold_name", strings.ToLower(newName)).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"warehouse_id": warehouseID, "id": id.UUID, "kind": string(id.Kind)}).
		PlaceholderFormat(squirrel.Dollar).ToSql()
	if err != nil {
		return fmt.Errorf("tabular: build rename: %w", err)
	}

	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			return catalogerrors.TranslatePGError(pgErr, "Tabular", constraintSentinels)
		}

		return fmt.Errorf("tabular: rename: %w", err)
	}

	if n, _ := res.RowsAffected(); n == 0 {
		return catalogerrors.Translate(catalogerrors.ErrEntityNotFound, "Tabular", id.UUID)
	}

	return nil
}

func (r *PostgresRepository) SetProtected(ctx context.Context, warehouseID uuid.UUID, id tabular.ID, protected bool) error {
	return r.updateSingleColumn(ctx, warehouseID, id, "protected", protected)
}

func (r *PostgresRepository) SoftDelete(ctx context.Context, warehouseID uuid.UUID, id tabular.ID) error {
	return r.updateSingleColumn(ctx, warehouseID, id, "deleted_at", time.Now().UTC())
}

func (r *PostgresRepository) Undrop(ctx context.Context, warehouseID uuid.UUID, id tabular.ID) error {
	return r.updateSingleColumn(ctx, warehouseID, id, "deleted_at", nil)
}

func (r *PostgresRepository) updateSingleColumn(ctx context.Context, warehouseID uuid.UUID, id tabular.ID, column string, value any) error {
	db, err := r.conn.DB(ctx)
	if err != nil {
		return err
	}

	query, args, err := squirrel.Update(tableName).
		Set(column, value).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"warehouse_id": warehouseID, "id": id.UUID, "kind": string(id.Kind)}).
		PlaceholderFormat(squirrel.Dollar).ToSql()
	if err != nil {
		return fmt.Errorf("tabular: build update %s: %w", column, err)
	}

	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("tabular: update %s: %w", column, err)
	}

	if n, _ := res.RowsAffected(); n == 0 {
		return catalogerrors.Translate(catalogerrors.ErrEntityNotFound, "Tabular", id.UUID)
	}

	return nil
}

func (r *PostgresRepository) HardDelete(ctx context.Context, warehouseID uuid.UUID, id tabular.ID) error {
	db, err := r.conn.DB(ctx)
	if err != nil {
		return err
	}

	query, args, err := squirrel.Delete(tableName).
		Where(squirrel.Eq{"warehouse_id": warehouseID, "id": id.UUID, "kind": string(id.Kind)}).
		PlaceholderFormat(squirrel.Dollar).ToSql()
	if err != nil {
		return fmt.Errorf("tabular: build hard delete: %w", err)
	}

	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("tabular: hard delete: %w", err)
	}

	if n, _ := res.RowsAffected(); n == 0 {
		return catalogerrors.Translate(catalogerrors.ErrEntityNotFound, "Tabular", id.UUID)
	}

	return nil
}

func (r *PostgresRepository) ListExpiredSoftDeletes(ctx context.Context, warehouseID uuid.UUID, limit int) ([]*tabular.Tabular, error) {
	db, err := r.conn.DB(ctx)
	if err != nil {
		return nil, err
	}

	query, args, err := squirrel.Select(selectColumns...).From(tableName).
		Join("warehouse ON warehouse.id = tabular.warehouse_id").
		Where(squirrel.Eq{"tabular.warehouse_id": warehouseID}).
		Where("tabular.deleted_at IS NOT NULL").
		Where("tabular.deleted_at + (warehouse.delete_expiration_delay_seconds || ' seconds')::interval < now()").
		OrderBy("tabular.deleted_at ASC").
		Limit(uint64(limit)).
		PlaceholderFormat(squirrel.Dollar).ToSql()
	if err != nil {
		return nil, fmt.Errorf("tabular: build list expired: %w", err)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("tabular: list expired query: %w", err)
	}
	defer rows.Close()

	var out []*tabular.Tabular

	for rows.Next() {
		t, err := scanRow(rows)
		if err != nil {
			return nil, fmt.Errorf("tabular: scan expired row: %w", err)
		}

		out = append(out, t)
	}

	return out, rows.Err()
}

var _ tabular.Repository = (*PostgresRepository)(nil)
