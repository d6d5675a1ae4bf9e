package catalogerrors

import "errors"

// Sentinel business errors, matched with errors.Is against the sentinel, then
// translated to a typed error by Translate. Grounded on midaz's
// common/constant/errors.go (one sentinel per named business failure, numeric-style
// codes kept readable here as snake_case strings instead of midaz's opaque "0001").
var (
	ErrEntityNotFound            = errors.New("entity_not_found")
	ErrNamespaceNotFound         = errors.New("namespace_not_found")
	ErrWarehouseNotFound         = errors.New("warehouse_not_found")
	ErrTaskNotFound              = errors.New("task_not_found")
	ErrDuplicateName             = errors.New("duplicate_name")
	ErrNamespaceNotEmpty         = errors.New("namespace_not_empty")
	ErrWarehouseNotEmpty         = errors.New("warehouse_not_empty")
	ErrWarehouseHasOpenTasks     = errors.New("warehouse_has_open_tasks")
	ErrProtectedWithoutForce     = errors.New("protected_without_force")
	ErrNamespaceDepthExceeded    = errors.New("namespace_depth_exceeded")
	ErrReservedProperty          = errors.New("reserved_property")
	ErrParentNamespaceMissing    = errors.New("parent_namespace_missing")
	ErrTabularStaged             = errors.New("tabular_staged")
	ErrWarehouseInactive         = errors.New("warehouse_inactive")
	ErrLocationCollision         = errors.New("location_collision")
	ErrAlreadyExists             = errors.New("already_exists")
	ErrExpirationTaskCompleted   = errors.New("expiration_task_already_completed")
	ErrCrossWarehouseRename      = errors.New("cross_warehouse_rename")
	ErrMetadataUnreadable        = errors.New("metadata_unreadable")
)

// Translate maps a sentinel business error to a typed catalogerrors value, mirroring
// midaz's ValidateBusinessError(err, entityType, args...) switch. Unrecognized errors
// pass through unchanged so callers can still errors.As against stdlib/driver errors.
func Translate(err error, entityType string, args ...any) error {
	switch {
	case errors.Is(err, ErrEntityNotFound), errors.Is(err, ErrNamespaceNotFound),
		errors.Is(err, ErrWarehouseNotFound), errors.Is(err, ErrTaskNotFound):
		return EntityNotFoundError{
			EntityType: entityType,
			Code:       err.Error(),
			Title:      "Entity Not Found",
			Message:    "No entity was found for the given identifier.",
			Err:        err,
		}
	case errors.Is(err, ErrDuplicateName), errors.Is(err, ErrAlreadyExists),
		errors.Is(err, ErrLocationCollision):
		return ConflictError{
			EntityType: entityType,
			Code:       err.Error(),
			Title:      "Conflict",
			Message:    renderArgs("an entity with that name or location already exists", args),
			Err:        err,
		}
	case errors.Is(err, ErrNamespaceNotEmpty), errors.Is(err, ErrWarehouseNotEmpty),
		errors.Is(err, ErrWarehouseHasOpenTasks), errors.Is(err, ErrProtectedWithoutForce),
		errors.Is(err, ErrCrossWarehouseRename), errors.Is(err, ErrExpirationTaskCompleted):
		return ConflictError{
			EntityType: entityType,
			Code:       err.Error(),
			Title:      "Conflict",
			Message:    renderArgs(err.Error(), args),
			Err:        err,
		}
	case errors.Is(err, ErrNamespaceDepthExceeded), errors.Is(err, ErrReservedProperty),
		errors.Is(err, ErrParentNamespaceMissing), errors.Is(err, ErrTabularStaged),
		errors.Is(err, ErrWarehouseInactive):
		return ValidationError{
			EntityType: entityType,
			Code:       err.Error(),
			Title:      "Bad Request",
			Message:    renderArgs(err.Error(), args),
			Err:        err,
		}
	case errors.Is(err, ErrMetadataUnreadable):
		return FailedDependencyError{
			EntityType: entityType,
			Message:    "metadata file could not be read or parsed as Iceberg metadata",
			Err:        err,
		}
	default:
		return err
	}
}

func renderArgs(base string, args []any) string {
	if len(args) == 0 {
		return base
	}

	out := base + ":"
	for _, a := range args {
		out += " "
		if s, ok := a.(string); ok {
			out += s
		} else {
			out += toString(a)
		}
	}

	return out
}

func toString(a any) string {
	type stringer interface{ String() string }
	if s, ok := a.(stringer); ok {
		return s.String()
	}

	return "?"
}
