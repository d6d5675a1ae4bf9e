package command

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/icewright/icewright/internal/domain/events"
	"github.com/icewright/icewright/internal/domain/tabular"
	"github.com/icewright/icewright/internal/domain/warehouse"
	"github.com/icewright/icewright/pkg/applog"
	"github.com/icewright/icewright/pkg/apptrace"
	"github.com/icewright/icewright/pkg/catalogerrors"
)

// DropTabular drops a table or view. Soft-delete warehouses mark it deleted_at and
// leave the row (and its files) in place; DropTabular enqueues no expiration task, so
// nothing here removes the row once DeleteProfile.ExpirationDelay has passed.
// Hard-delete warehouses remove the row and the storage objects in the same call
// (spec.md §3, §4.2).
func (uc *UseCase) DropTabular(ctx context.Context, wh *warehouse.Warehouse, id tabular.ID, force bool) error {
	logger := applog.FromContext(ctx)
	tracer := apptrace.FromContext(ctx)

	ctx, span := tracer.Start(ctx, "command.drop_tabular")
	defer span.End()

	row, err := uc.TabularRepo.Get(ctx, wh.ID, id)
	if err != nil {
		apptrace.RecordError(span, "failed to load tabular row", err)
		return err
	}

	if row.Protected && !force {
		return catalogerrors.Translate(catalogerrors.ErrProtectedWithoutForce, "Tabular", id.UUID)
	}

	switch wh.DeleteProfile.Kind {
	case warehouse.DeleteProfileHard:
		if err := uc.TabularRepo.HardDelete(ctx, wh.ID, id); err != nil {
			apptrace.RecordError(span, "failed to hard-delete tabular row", err)
			return err
		}

		store, err := uc.metadataStore(wh.Storage)
		if err != nil {
			return err
		}

		if err := store.Backend.RemoveAll(ctx, backendPrefix(row)); err != nil {
			logger.Warnf("hard delete left orphaned storage for %s: %v", id.UUID, err)
		}
	default:
		if err := uc.TabularRepo.SoftDelete(ctx, wh.ID, id); err != nil {
			apptrace.RecordError(span, "failed to soft-delete tabular row", err)
			return err
		}
	}

	logger.Infof("dropped tabular %s (%s), profile=%s", row.Name, id.UUID, wh.DeleteProfile.Kind)

	eventType := events.TypeTableDropped
	if id.Kind == tabular.KindView {
		eventType = events.TypeViewDropped
	}

	uc.dispatch(ctx, events.Event{ID: uuid.New(), Type: eventType, WarehouseID: wh.ID, EntityID: id.UUID, OccurredAt: time.Now()})

	return nil
}

// UndropTabular reverses a soft-delete (spec.md §4.2). It does not check how long
// ago the drop happened against DeleteProfile.ExpirationDelay.
func (uc *UseCase) UndropTabular(ctx context.Context, wh *warehouse.Warehouse, id tabular.ID) error {
	tracer := apptrace.FromContext(ctx)

	ctx, span := tracer.Start(ctx, "command.undrop_tabular")
	defer span.End()

	if err := uc.TabularRepo.Undrop(ctx, wh.ID, id); err != nil {
		apptrace.RecordError(span, "failed to undrop tabular row", err)
		return err
	}

	eventType := events.TypeTableUndropped

	uc.dispatch(ctx, events.Event{ID: uuid.New(), Type: eventType, WarehouseID: wh.ID, EntityID: id.UUID, OccurredAt: time.Now()})

	return nil
}

// RenameTabular moves a table/view to a new namespace/name, rejecting cross-warehouse
// moves per spec.md §4.1's "rename never crosses a warehouse boundary" invariant.
func (uc *UseCase) RenameTabular(ctx context.Context, wh *warehouse.Warehouse, id tabular.ID, newNamespaceID uuid.UUID, newName string) error {
	tracer := apptrace.FromContext(ctx)

	ctx, span := tracer.Start(ctx, "command.rename_tabular")
	defer span.End()

	if _, err := uc.NamespaceRepo.Get(ctx, wh.ID, newNamespaceID); err != nil {
		apptrace.RecordError(span, "destination namespace not in warehouse", err)

		if catalogerrors.IsNotFound(err) {
			return catalogerrors.Translate(catalogerrors.ErrCrossWarehouseRename, "Tabular", id.UUID)
		}

		return err
	}

	if err := uc.TabularRepo.Rename(ctx, wh.ID, id, newNamespaceID, newName); err != nil {
		apptrace.RecordError(span, "failed to rename tabular row", err)
		return err
	}

	return nil
}
