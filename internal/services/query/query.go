package query

import (
	"github.com/icewright/icewright/internal/domain/authz"
	"github.com/icewright/icewright/internal/domain/namespace"
	"github.com/icewright/icewright/internal/domain/stats"
	"github.com/icewright/icewright/internal/domain/tabular"
	"github.com/icewright/icewright/internal/domain/task"
	"github.com/icewright/icewright/internal/domain/warehouse"
)

// UseCase aggregates the repositories query handlers read from, mirroring
// command.UseCase's shape on the read side (components/ledger's
// internal/services/query/query.go split).
type UseCase struct {
	WarehouseRepo warehouse.Repository
	NamespaceRepo namespace.Repository
	TabularRepo   tabular.Repository
	TaskRepo      task.Repository
	StatsRepo     stats.Repository
	Authorizer    authz.Authorizer
}
