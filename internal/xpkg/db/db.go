package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mkdir-username/etlon-coffee/internal/xpkg/config"
)

type DB struct {
	Pool *pgxpool.Pool
}

// Start opens a pgx pool and verifies the connection.
func Start(ctx context.Context, dbCfg *config.Postgres) (*DB, error) {
	pool, err := pgxpool.New(ctx, dbCfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{Pool: pool}, nil
}

func (db *DB) IsAlive(ctx context.Context) error {
	if db.Pool == nil {
		return fmt.Errorf("DB is not initialized")
	}
	return db.Pool.Ping(ctx)
}

func (db *DB) Stop() {
	if db.Pool != nil {
		db.Pool.Close()
	}
}
