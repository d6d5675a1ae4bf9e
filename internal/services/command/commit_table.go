package command

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/icewright/icewright/internal/domain/events"
	"github.com/icewright/icewright/internal/domain/tabular"
	"github.com/icewright/icewright/internal/domain/warehouse"
	"github.com/icewright/icewright/pkg/applog"
	"github.com/icewright/icewright/pkg/apptrace"
	"github.com/icewright/icewright/pkg/catalogerrors"
)

// CommitTableInput is one table's commit request: the requirements it was staged
// against and the updates to apply, per spec.md §4.1's commit-table/commit-transaction
// protocol. CommitTable chooses the new metadata file location itself.
type CommitTableInput struct {
	TableUUID    uuid.UUID
	Requirements []tabular.Requirement
	Updates      []tabular.Update
	Force        bool // bypasses the Protected check; decided once, here (see DESIGN.md)
}

// CommitTable applies one table's optimistic-concurrency commit: load current
// metadata, check requirements, apply updates, write the new metadata file, then
// CAS-advance the catalog row's pointer. A concurrent writer racing the CAS fails
// with tabular.ErrConcurrentCommit, which callers should retry from a fresh load.
func (uc *UseCase) CommitTable(ctx context.Context, wh *warehouse.Warehouse, namespaceID uuid.UUID, in CommitTableInput) (*tabular.TableMetadata, error) {
	logger := applog.FromContext(ctx)
	tracer := apptrace.FromContext(ctx)

	ctx, span := tracer.Start(ctx, "command.commit_table")
	defer span.End()

	if !wh.IsActive() {
		err := catalogerrors.ErrWarehouseInactive
		apptrace.RecordError(span, "warehouse inactive", err)

		return nil, catalogerrors.Translate(err, "Warehouse", wh.ID)
	}

	id := tabular.TableID(in.TableUUID)

	row, err := uc.TabularRepo.Get(ctx, wh.ID, id)
	if err != nil {
		apptrace.RecordError(span, "failed to load tabular row", err)
		return nil, err
	}

	if row.Protected && !in.Force {
		err := catalogerrors.ErrProtectedWithoutForce
		apptrace.RecordError(span, "table is protected", err)

		return nil, catalogerrors.Translate(err, "Table", row.ID.UUID)
	}

	store, err := uc.metadataStore(wh.Storage)
	if err != nil {
		apptrace.RecordError(span, "failed to resolve storage backend", err)
		return nil, err
	}

	base, err := store.LoadTable(ctx, row.CurrentMetadataLocation)
	if err != nil {
		apptrace.RecordError(span, "failed to load current metadata", err)
		return nil, catalogerrors.FailedDependencyError{EntityType: "Table", Location: row.CurrentMetadataLocation, Err: err}
	}

	next, failedReq, err := tabular.ApplyCommit(base, in.Requirements, in.Updates)
	if err != nil {
		logger.Warnf("commit failed requirement %q for table %s: %v", failedReq, row.ID.UUID, err)
		apptrace.RecordError(span, "commit requirement failed", err)

		return nil, catalogerrors.CommitFailedError{EntityType: "Table", Requirement: failedReq, Err: err}
	}

	next.LastUpdatedMs = time.Now().UnixMilli()

	newLocation := fmt.Sprintf("%s/metadata/%d-%s.metadata.json", next.Location, len(next.MetadataLog)+1, uuid.New())
	next.MetadataLog = append(next.MetadataLog, tabular.LogEntry{TimestampMs: next.LastUpdatedMs, Value: row.CurrentMetadataLocation})

	if err := store.WriteTable(ctx, newLocation, next); err != nil {
		apptrace.RecordError(span, "failed to write new metadata file", err)
		return nil, catalogerrors.FailedDependencyError{EntityType: "Table", Location: newLocation, Err: err}
	}

	if err := uc.TabularRepo.CompareAndSwapMetadataLocation(ctx, wh.ID, id, row.CurrentMetadataLocation, newLocation); err != nil {
		apptrace.RecordError(span, "concurrent commit detected", err)
		return nil, catalogerrors.CommitFailedError{EntityType: "Table", Requirement: "metadata-location-unchanged", Err: err}
	}

	logger.Infof("committed table %s: new metadata at %s", row.ID.UUID, newLocation)

	uc.dispatch(ctx, events.Event{
		ID:          uuid.New(),
		Type:        events.TypeTableCommitted,
		WarehouseID: wh.ID,
		EntityID:    row.ID.UUID,
		OccurredAt:  time.Now(),
	})

	return &next, nil
}

func (uc *UseCase) dispatch(ctx context.Context, event events.Event) {
	if uc.Dispatcher == nil {
		return
	}

	if uc.Sequencer != nil {
		if seq, err := uc.Sequencer.Next(ctx, event.WarehouseID); err == nil {
			event.Context.SequenceNumber = seq
		}
	}

	if err := uc.Dispatcher.Handle(ctx, event); err != nil {
		applog.FromContext(ctx).Warnf("event dispatch failed for %s: %v", event.Type, err)
	}
}
