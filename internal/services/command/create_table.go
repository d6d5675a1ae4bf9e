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

// CreateTableInput is the initial schema/location for a new table. When Stage is
// true, the row is created with Staged = true and no commit is published, supporting
// the REST catalog's stage-create flow (spec.md §4.1).
type CreateTableInput struct {
	Name     string
	Location string
	Schema   tabular.Schema
	Stage    bool
}

func (uc *UseCase) CreateTable(ctx context.Context, wh *warehouse.Warehouse, namespaceID uuid.UUID, in CreateTableInput) (*tabular.Tabular, *tabular.TableMetadata, error) {
	logger := applog.FromContext(ctx)
	tracer := apptrace.FromContext(ctx)

	ctx, span := tracer.Start(ctx, "command.create_table")
	defer span.End()

	if !wh.IsActive() {
		return nil, nil, catalogerrors.Translate(catalogerrors.ErrWarehouseInactive, "Warehouse", wh.ID)
	}

	tableUUID := uuid.New()
	now := time.Now()

	meta := tabular.TableMetadata{
		FormatVersion:   2,
		TableUUID:       tableUUID,
		Location:        in.Location,
		LastUpdatedMs:   now.UnixMilli(),
		Schemas:         []tabular.Schema{in.Schema},
		CurrentSchemaID: in.Schema.SchemaID,
		PartitionSpecs:  []tabular.PartitionSpec{{SpecID: 0}},
		SortOrders:      []tabular.SortOrder{{OrderID: 0}},
		Properties:      map[string]string{},
		Refs:            map[string]tabular.SnapshotRef{},
	}

	location := fmt.Sprintf("%s/metadata/00000-%s.metadata.json", in.Location, uuid.New())

	store, err := uc.metadataStore(wh.Storage)
	if err != nil {
		apptrace.RecordError(span, "failed to resolve storage backend", err)
		return nil, nil, err
	}

	if err := store.WriteTable(ctx, location, meta); err != nil {
		apptrace.RecordError(span, "failed to write initial metadata", err)
		return nil, nil, catalogerrors.FailedDependencyError{EntityType: "Table", Location: location, Err: err}
	}

	row := &tabular.Tabular{
		ID:                      tabular.TableID(tableUUID),
		WarehouseID:             wh.ID,
		NamespaceID:             namespaceID,
		Name:                    in.Name,
		CurrentMetadataLocation: location,
		Staged:                  in.Stage,
		CreatedAt:               now,
		UpdatedAt:               now,
	}

	created, err := uc.TabularRepo.Create(ctx, row)
	if err != nil {
		apptrace.RecordError(span, "failed to create tabular row", err)
		return nil, nil, err
	}

	logger.Infof("created table %s (%s) in namespace %s", in.Name, tableUUID, namespaceID)

	if !in.Stage {
		uc.dispatch(ctx, events.Event{
			ID:          uuid.New(),
			Type:        events.TypeTableCreated,
			WarehouseID: wh.ID,
			EntityID:    tableUUID,
			OccurredAt:  now,
		})
	}

	return created, &meta, nil
}
