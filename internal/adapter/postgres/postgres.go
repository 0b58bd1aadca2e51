// Package postgres provides the PostgreSQL connection pool, migration runner
// and the swarm history and audit stores.
package postgres

import (
	"context"
	"embed"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib" // database/sql driver "pgx" for goose
	"github.com/pressly/goose/v3"

	"github.com/Strob0t/ActionForge/internal/config"
)

//go:embed migrations/*.sql
var migrations embed.FS

// NewPool opens a pool sized by cfg and checks it with a ping.
func NewPool(ctx context.Context, cfg config.Postgres) (*pgxpool.Pool, error) {
	pc, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	pc.MaxConns, pc.MinConns = cfg.MaxConns, cfg.MinConns
	pc.MaxConnLifetime, pc.MaxConnIdleTime = cfg.MaxConnLifetime, cfg.MaxConnIdleTime
	pc.HealthCheckPeriod = cfg.HealthCheck

	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return pool, nil
}

// MigrationStatus reports what a migration run did.
type MigrationStatus struct {
	From int64 // schema version before the run
	To   int64 // schema version afterwards
}

// RunMigrations applies the pending embedded migrations for the swarm
// history and audit tables.
func RunMigrations(ctx context.Context, dsn string) (MigrationStatus, error) {
	var st MigrationStatus

	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return st, fmt.Errorf("set dialect: %w", err)
	}
	db, err := goose.OpenDBWithDriver("pgx", dsn)
	if err != nil {
		return st, fmt.Errorf("open db for migrations: %w", err)
	}
	defer func() { _ = db.Close() }()

	if st.From, err = goose.GetDBVersionContext(ctx, db); err != nil {
		return st, fmt.Errorf("schema version: %w", err)
	}
	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return st, fmt.Errorf("run migrations: %w", err)
	}
	if st.To, err = goose.GetDBVersionContext(ctx, db); err != nil {
		return st, fmt.Errorf("schema version: %w", err)
	}
	return st, nil
}
