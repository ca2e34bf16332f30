package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/draftarena/draftarena/go/internal/dbconfig"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
)

// setupPool opens the pgx pool used by every domain repository.
func setupPool(ctx context.Context) (*pgxpool.Pool, error) {
	cfg := dbconfig.FromEnv()

	pool, err := pgxpool.New(ctx, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info().
		Str("host", cfg.Host).
		Int("port", cfg.Port).
		Str("database", cfg.Database).
		Msg("connected to database")
	return pool, nil
}

// setupRelayDB opens the database/sql handle the outbox relay worker uses
// for its row-locking poll loop.
func setupRelayDB() (*sql.DB, error) {
	cfg := dbconfig.FromEnv()

	database, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to create database connection: %w", err)
	}

	if err := database.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return database, nil
}
