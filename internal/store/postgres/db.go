package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DB wraps the connection pool
type DB struct {
	*pgxpool.Pool
}

// Connect opens a pool on dsn and verifies it with a ping
func Connect(ctx context.Context, dsn string) (*DB, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database url: %w", err)
	}

	// Connection pool settings
	config.MaxConns = 25
	config.MinConns = 5

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to reach database: %w", err)
	}

	return &DB{Pool: pool}, nil
}

// Querier is satisfied by both the pool and a transaction
type Querier interface {
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, arguments ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// EnsureSchema applies the initial migration directly. It is idempotent and
// suits test transactions; deployments use RunMigrations.
func EnsureSchema(ctx context.Context, q Querier) error {
	schema, err := migrationsFS.ReadFile(initialMigration)
	if err != nil {
		return fmt.Errorf("failed to read schema: %w", err)
	}
	if _, err := q.Exec(ctx, string(schema)); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}
