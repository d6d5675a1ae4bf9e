package catalogerrors

import "github.com/jackc/pgx/v5/pgconn"

// TranslatePGError maps named Postgres constraint violations to the error taxonomy,
// mirroring midaz's services.ValidatePGError constraint-name switch.
func TranslatePGError(pgErr *pgconn.PgError, entityType string, constraintSentinels map[string]error) error {
	if err, ok := constraintSentinels[pgErr.ConstraintName]; ok {
		return Translate(err, entityType)
	}

	switch pgErr.Code {
	case "23505": // unique_violation
		return Translate(ErrDuplicateName, entityType)
	case "23503": // foreign_key_violation
		return Translate(ErrParentNamespaceMissing, entityType)
	default:
		return pgErr
	}
}
