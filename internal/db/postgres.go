package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// InitPostgres opens the PostgreSQL pool backing the profile table and makes
// sure the schema exists.
func InitPostgres(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	config.MaxConns = 25
	config.MinConns = 2
	config.MaxConnLifetime = time.Hour
	config.MaxConnIdleTime = time.Minute * 30
	config.HealthCheckPeriod = time.Minute * 5

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := createTables(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return pool, nil
}

func createTables(ctx context.Context, pool *pgxpool.Pool) error {
	// Mirrors the users/<uid> profile documents
	usersTable := `
		CREATE TABLE IF NOT EXISTS users (
			uid VARCHAR(255) PRIMARY KEY,
			email VARCHAR(255) UNIQUE NOT NULL,
			username VARCHAR(100),
			display_name VARCHAR(255),
			photo_url TEXT,
			created_at TIMESTAMP NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMP NOT NULL DEFAULT NOW()
		);
	`

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_users_username ON users(username);`,
	}

	if _, err := pool.Exec(ctx, usersTable); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}
	if _, err := pool.Exec(ctx, `ALTER TABLE users ADD COLUMN IF NOT EXISTS username VARCHAR(100);`); err != nil {
		return fmt.Errorf("failed to add username column: %w", err)
	}

	for _, index := range indexes {
		if _, err := pool.Exec(ctx, index); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	return nil
}
