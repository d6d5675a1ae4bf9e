// Package pgstore wraps a primary/replica Postgres pool and its schema migrations,
// adapted from midaz's common/mpostgres/postgres.go: same dbresolver+golang-migrate
// wiring, generalized to take a migrations path instead of hardcoding one component's.
package pgstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/bxcodec/dbresolver/v2"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/icewright/icewright/pkg/applog"
)

// Connection is a hub around a primary/replica Postgres pool.
type Connection struct {
	PrimaryDSN     string
	ReplicaDSN     string
	DatabaseName   string
	MigrationsPath string // e.g. "file://migrations"
	Logger         applog.Logger

	pool      *dbresolver.DB
	connected bool
}

// Connect opens both pools, runs pending migrations against the primary, and pings.
func (c *Connection) Connect() error {
	logger := c.logger()

	dbPrimary, err := sql.Open("pgx", c.PrimaryDSN)
	if err != nil {
		return fmt.Errorf("pgstore: open primary: %w", err)
	}

	dbReplica, err := sql.Open("pgx", c.ReplicaDSN)
	if err != nil {
		return fmt.Errorf("pgstore: open replica: %w", err)
	}

	pool := dbresolver.New(
		dbresolver.WithPrimaryDBs(dbPrimary),
		dbresolver.WithReplicaDBs(dbReplica),
		dbresolver.WithLoadBalancer(dbresolver.RoundRobinLB),
	)

	if c.MigrationsPath != "" {
		driver, err := postgres.WithInstance(dbPrimary, &postgres.Config{
			MultiStatementEnabled: true,
			DatabaseName:          c.DatabaseName,
			SchemaName:            "public",
		})
		if err != nil {
			return fmt.Errorf("pgstore: migration driver: %w", err)
		}

		m, err := migrate.NewWithDatabaseInstance(c.MigrationsPath, c.DatabaseName, driver)
		if err != nil {
			return fmt.Errorf("pgstore: load migrations: %w", err)
		}

		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("pgstore: apply migrations: %w", err)
		}
	}

	if err := pool.Ping(); err != nil {
		return fmt.Errorf("pgstore: ping: %w", err)
	}

	c.pool = &pool
	c.connected = true

	logger.Info("connected to postgres")

	return nil
}

// DB returns the pooled dbresolver handle, connecting lazily on first use.
func (c *Connection) DB(ctx context.Context) (dbresolver.DB, error) {
	if !c.connected {
		if err := c.Connect(); err != nil {
			return nil, err
		}
	}

	return *c.pool, nil
}

func (c *Connection) logger() applog.Logger {
	if c.Logger != nil {
		return c.Logger
	}

	return applog.FromContext(context.Background())
}
