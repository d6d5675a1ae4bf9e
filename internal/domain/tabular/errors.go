package tabular

import "github.com/google/uuid"

// CommitTransactionError reports which table in a multi-table commit transaction
// failed its requirement check, aborting the whole transaction (spec.md §4.1).
type CommitTransactionError struct {
	TableUUID   uuid.UUID
	Requirement string
	Err         error
}

func (e *CommitTransactionError) Error() string {
	return "tabular: transaction aborted: table " + e.TableUUID.String() + " failed requirement " + e.Requirement + ": " + e.Err.Error()
}

func (e *CommitTransactionError) Unwrap() error { return e.Err }
