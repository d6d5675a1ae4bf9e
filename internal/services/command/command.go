// Package command implements the catalog's write-side operations (spec.md §4.1,
// §4.2, §4.4): table commits, table creation/registration, and namespace/tabular
// lifecycle. No handler in this package enqueues or cancels queue tasks. Grounded on midaz's internal/services/command.UseCase aggregation
// pattern (components/ledger/internal/services/command/command.go).
package command

import (
	"github.com/icewright/icewright/internal/domain/authz"
	"github.com/icewright/icewright/internal/domain/events"
	"github.com/icewright/icewright/internal/domain/namespace"
	"github.com/icewright/icewright/internal/domain/stats"
	"github.com/icewright/icewright/internal/domain/storage"
	"github.com/icewright/icewright/internal/domain/tabular"
	"github.com/icewright/icewright/internal/domain/task"
	"github.com/icewright/icewright/internal/domain/warehouse"
)

// UseCase aggregates the repositories and ports command handlers need.
type UseCase struct {
	WarehouseRepo warehouse.Repository
	NamespaceRepo namespace.Repository
	TabularRepo   tabular.Repository
	TaskRepo      task.Repository
	StatsRepo     stats.Repository

	Authorizer authz.Authorizer
	Storage    StorageResolver
	Dispatcher events.Listener // receives every event; nil disables dispatch
	Sequencer  events.Sequencer
}

// StorageResolver resolves the storage.Backend bound to a warehouse's StorageProfile,
// since different warehouses may use different flavors/credentials (spec.md §3).
type StorageResolver interface {
	Resolve(profile warehouse.StorageProfile) (storage.Backend, error)
}

func (uc *UseCase) metadataStore(profile warehouse.StorageProfile) (tabular.MetadataStore, error) {
	backend, err := uc.Storage.Resolve(profile)
	if err != nil {
		return tabular.MetadataStore{}, err
	}

	return tabular.MetadataStore{Backend: backend}, nil
}
