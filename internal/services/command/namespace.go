package command

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/icewright/icewright/internal/domain/events"
	"github.com/icewright/icewright/internal/domain/namespace"
	"github.com/icewright/icewright/internal/domain/warehouse"
	"github.com/icewright/icewright/pkg/applog"
	"github.com/icewright/icewright/pkg/apptrace"
	"github.com/icewright/icewright/pkg/catalogerrors"
)

// CreateNamespace creates a namespace, validating depth, reserved properties, and
// that its parent (if any) already exists (spec.md §3, §4.2).
func (uc *UseCase) CreateNamespace(ctx context.Context, wh *warehouse.Warehouse, ident namespace.Ident, properties map[string]string) (*namespace.Namespace, error) {
	logger := applog.FromContext(ctx)
	tracer := apptrace.FromContext(ctx)

	ctx, span := tracer.Start(ctx, "command.create_namespace")
	defer span.End()

	if !wh.IsActive() {
		return nil, catalogerrors.Translate(catalogerrors.ErrWarehouseInactive, "Warehouse", wh.ID)
	}

	if ident.Depth() > namespace.MaxDepth {
		apptrace.RecordError(span, "namespace too deep", namespace.ErrDepthExceeded)
		return nil, catalogerrors.Translate(catalogerrors.ErrNamespaceDepthExceeded, "Namespace", ident.String())
	}

	if err := namespace.ValidateProperties(properties); err != nil {
		apptrace.RecordError(span, "invalid namespace properties", err)
		return nil, catalogerrors.Translate(catalogerrors.ErrReservedProperty, "Namespace")
	}

	var parentID *uuid.UUID

	if parentIdent, ok := ident.ParentIdent(); ok {
		parent, err := uc.NamespaceRepo.GetByIdent(ctx, wh.ID, parentIdent)
		if err != nil {
			apptrace.RecordError(span, "parent namespace not found", err)
			return nil, catalogerrors.Translate(catalogerrors.ErrParentNamespaceMissing, "Namespace", parentIdent.String())
		}

		parentID = &parent.ID
	}

	n := &namespace.Namespace{
		ID:          uuid.New(),
		WarehouseID: wh.ID,
		ParentID:    parentID,
		Ident:       ident,
		Properties:  properties,
		CreatedAt:   time.Now(),
	}

	created, err := uc.NamespaceRepo.Create(ctx, n)
	if err != nil {
		apptrace.RecordError(span, "failed to create namespace", err)
		return nil, err
	}

	logger.Infof("created namespace %s in warehouse %s", ident.String(), wh.ID)

	uc.dispatch(ctx, events.Event{ID: uuid.New(), Type: events.TypeNamespaceCreated, WarehouseID: wh.ID, EntityID: created.ID, OccurredAt: created.CreatedAt})

	return created, nil
}

// DropNamespace removes an empty, unprotected namespace (spec.md §4.2: drop fails if
// the namespace has any child namespace or non-deleted tabular).
func (uc *UseCase) DropNamespace(ctx context.Context, wh *warehouse.Warehouse, id uuid.UUID, force bool) error {
	tracer := apptrace.FromContext(ctx)

	ctx, span := tracer.Start(ctx, "command.drop_namespace")
	defer span.End()

	n, err := uc.NamespaceRepo.Get(ctx, wh.ID, id)
	if err != nil {
		apptrace.RecordError(span, "failed to load namespace", err)
		return err
	}

	if n.Protected && !force {
		return catalogerrors.Translate(catalogerrors.ErrProtectedWithoutForce, "Namespace", id)
	}

	empty, err := uc.NamespaceRepo.IsEmpty(ctx, wh.ID, id)
	if err != nil {
		apptrace.RecordError(span, "failed to check namespace emptiness", err)
		return err
	}

	if !empty {
		return catalogerrors.Translate(catalogerrors.ErrNamespaceNotEmpty, "Namespace", id)
	}

	if err := uc.NamespaceRepo.Delete(ctx, wh.ID, id); err != nil {
		apptrace.RecordError(span, "failed to delete namespace", err)
		return err
	}

	uc.dispatch(ctx, events.Event{ID: uuid.New(), Type: events.TypeNamespaceDeleted, WarehouseID: wh.ID, EntityID: id, OccurredAt: time.Now()})

	return nil
}

// UpdateNamespaceProperties merges/removes namespace properties, rejecting reserved
// keys in the merged set (spec.md §3, §4.2).
func (uc *UseCase) UpdateNamespaceProperties(ctx context.Context, wh *warehouse.Warehouse, id uuid.UUID, updates map[string]string, removals []string) (*namespace.Namespace, error) {
	tracer := apptrace.FromContext(ctx)

	ctx, span := tracer.Start(ctx, "command.update_namespace_properties")
	defer span.End()

	n, err := uc.NamespaceRepo.Get(ctx, wh.ID, id)
	if err != nil {
		apptrace.RecordError(span, "failed to load namespace", err)
		return nil, err
	}

	merged := make(map[string]string, len(n.Properties)+len(updates))
	for k, v := range n.Properties {
		merged[k] = v
	}

	for _, k := range removals {
		delete(merged, k)
	}

	for k, v := range updates {
		merged[k] = v
	}

	if err := namespace.ValidateProperties(merged); err != nil {
		apptrace.RecordError(span, "invalid namespace properties", err)
		return nil, catalogerrors.Translate(catalogerrors.ErrReservedProperty, "Namespace")
	}

	return uc.NamespaceRepo.UpdateProperties(ctx, wh.ID, id, merged)
}
