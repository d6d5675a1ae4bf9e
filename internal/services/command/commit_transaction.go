package command

import (
	"context"

	"github.com/google/uuid"

	"github.com/icewright/icewright/internal/domain/tabular"
	"github.com/icewright/icewright/internal/domain/warehouse"
	"github.com/icewright/icewright/pkg/applog"
	"github.com/icewright/icewright/pkg/apptrace"
)

// TableCommitInput pairs a table with its commit request inside a multi-table
// transaction.
type TableCommitInput struct {
	TableUUID uuid.UUID
	Input     CommitTableInput
}

// CommitTransaction commits multiple tables as one logical unit: every table's
// requirements and updates are validated before any metadata file is written, and if
// any table's requirements fail, the whole transaction is rejected with none applied
// (spec.md §4.1 "multi-table commit transaction" — all-or-nothing on the requirement
// check; per-table metadata writes still CAS independently afterward, since each
// table's file lives at its own location).
func (uc *UseCase) CommitTransaction(ctx context.Context, wh *warehouse.Warehouse, namespaceID uuid.UUID, inputs []TableCommitInput) ([]*tabular.TableMetadata, error) {
	logger := applog.FromContext(ctx)
	tracer := apptrace.FromContext(ctx)

	ctx, span := tracer.Start(ctx, "command.commit_transaction")
	defer span.End()

	store, err := uc.metadataStore(wh.Storage)
	if err != nil {
		apptrace.RecordError(span, "failed to resolve storage backend", err)
		return nil, err
	}

	type staged struct {
		row  *tabular.Tabular
		base tabular.TableMetadata
		next tabular.TableMetadata
	}

	plan := make([]staged, 0, len(inputs))

	for _, in := range inputs {
		id := tabular.TableID(in.TableUUID)

		row, err := uc.TabularRepo.Get(ctx, wh.ID, id)
		if err != nil {
			apptrace.RecordError(span, "failed to load tabular row for transaction", err)
			return nil, err
		}

		base, err := store.LoadTable(ctx, row.CurrentMetadataLocation)
		if err != nil {
			apptrace.RecordError(span, "failed to load metadata for transaction member", err)
			return nil, err
		}

		next, failedReq, err := tabular.ApplyCommit(base, in.Input.Requirements, in.Input.Updates)
		if err != nil {
			logger.Warnf("transaction aborted: table %s failed requirement %q: %v", in.TableUUID, failedReq, err)
			apptrace.RecordError(span, "transaction member failed requirement", err)

			return nil, commitFailedForTransaction(in.TableUUID, failedReq, err)
		}

		plan = append(plan, staged{row: row, base: base, next: next})
	}

	results := make([]*tabular.TableMetadata, 0, len(plan))

	for _, p := range plan {
		result, err := uc.CommitTable(ctx, wh, namespaceID, CommitTableInput{
			TableUUID: p.row.ID.UUID,
			Requirements: []tabular.Requirement{tabular.AssertTableUUID{UUID: p.base.TableUUID}},
			Updates:      diffAsUpdates(p.base, p.next),
		})
		if err != nil {
			apptrace.RecordError(span, "transaction member commit failed after validation", err)
			return results, err
		}

		results = append(results, result)
	}

	return results, nil
}

func commitFailedForTransaction(tableUUID uuid.UUID, requirement string, err error) error {
	return &tabular.CommitTransactionError{TableUUID: tableUUID, Requirement: requirement, Err: err}
}

// diffAsUpdates re-expresses an already-validated (base -> next) transition as a
// single opaque Update, since the transaction's per-table Requirements/Updates have
// already been consumed validating the plan; CommitTable only needs to persist next.
func diffAsUpdates(base, next tabular.TableMetadata) []tabular.Update {
	return []tabular.Update{replaceMetadataUpdate{next: next}}
}

type replaceMetadataUpdate struct {
	next tabular.TableMetadata
}

func (replaceMetadataUpdate) Name() string { return "replace-metadata" }
func (u replaceMetadataUpdate) Apply(meta *tabular.TableMetadata) error {
	*meta = u.next
	return nil
}
