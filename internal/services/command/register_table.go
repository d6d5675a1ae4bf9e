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

// RegisterTable adopts an existing metadata file into the catalog without writing a
// new one — the REST catalog's "register-table" operation for importing tables
// written by an external engine (spec.md §4.1).
func (uc *UseCase) RegisterTable(ctx context.Context, wh *warehouse.Warehouse, namespaceID uuid.UUID, name, metadataLocation string) (*tabular.Tabular, *tabular.TableMetadata, error) {
	logger := applog.FromContext(ctx)
	tracer := apptrace.FromContext(ctx)

	ctx, span := tracer.Start(ctx, "command.register_table")
	defer span.End()

	if !wh.IsActive() {
		return nil, nil, catalogerrors.Translate(catalogerrors.ErrWarehouseInactive, "Warehouse", wh.ID)
	}

	store, err := uc.metadataStore(wh.Storage)
	if err != nil {
		apptrace.RecordError(span, "failed to resolve storage backend", err)
		return nil, nil, err
	}

	meta, err := store.LoadTable(ctx, metadataLocation)
	if err != nil {
		apptrace.RecordError(span, "failed to read metadata to register", err)
		return nil, nil, catalogerrors.FailedDependencyError{EntityType: "Table", Location: metadataLocation, Err: catalogerrors.ErrMetadataUnreadable}
	}

	now := time.Now()

	row := &tabular.Tabular{
		ID:                      tabular.TableID(meta.TableUUID),
		WarehouseID:             wh.ID,
		NamespaceID:             namespaceID,
		Name:                    name,
		CurrentMetadataLocation: metadataLocation,
		CreatedAt:               now,
		UpdatedAt:               now,
	}

	created, err := uc.TabularRepo.Create(ctx, row)
	if err != nil {
		apptrace.RecordError(span, "failed to create tabular row for registered table", err)
		return nil, nil, err
	}

	logger.Infof("registered table %s (%s) at %s", name, meta.TableUUID, metadataLocation)

	uc.dispatch(ctx, events.Event{ID: uuid.New(), Type: events.TypeTableCreated, WarehouseID: wh.ID, EntityID: meta.TableUUID, OccurredAt: now})

	return created, &meta, nil
}
