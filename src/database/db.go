package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

// Database holds the PostgreSQL connection pool
type Database struct {
	pool *pgxpool.Pool
}

// New creates a new database connection
func New(ctx context.Context, databaseURL string) (*Database, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	// Configure connection pool
	config.MaxConns = 25
	config.MinConns = 5
	config.MaxConnLifetime = 5 * time.Minute
	config.MaxConnIdleTime = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	db := &Database{pool: pool}

	// Initialize schema
	if err := db.initializeSchema(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return db, nil
}

// Close closes the database connection pool
func (db *Database) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

// GetPool returns the connection pool
func (db *Database) GetPool() *pgxpool.Pool {
	return db.pool
}

// initializeSchema reads and executes schema.sql
func (db *Database) initializeSchema(ctx context.Context) error {
	schemaPath := "schema.sql"

	content, err := os.ReadFile(schemaPath)
	if err != nil {
		// Try from current working directory
		content, err = os.ReadFile(filepath.Join(".", schemaPath))
		if err != nil {
			// Try from root directory
			content, err = os.ReadFile(filepath.Join("/", schemaPath))
			if err != nil {
				return fmt.Errorf("failed to read schema.sql: %w", err)
			}
		}
	}

	_, err = db.pool.Exec(ctx, string(content))
	if err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	if err := db.runMigrations(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Info().Msg("database schema initialized")
	return nil
}

// runMigrations applies in-place column additions for deployments created
// before the column existed in schema.sql
func (db *Database) runMigrations(ctx context.Context) error {
	// Migration 1: track password changes so long-lived sessions can be audited
	_, err := db.pool.Exec(ctx, `
		ALTER TABLE users
		ADD COLUMN IF NOT EXISTS last_password_change TIMESTAMPTZ;
	`)
	if err != nil {
		return fmt.Errorf("failed to add last_password_change column: %w", err)
	}

	// Migration 2: backfill is_active for rows written before the flag existed
	result, err := db.pool.Exec(ctx, `
		UPDATE users
		SET is_active = COALESCE(is_active, true)
		WHERE is_active IS NULL
	`)
	if err != nil {
		log.Warn().Err(err).Msg("migration: failed to backfill is_active")
	} else if result.RowsAffected() > 0 {
		log.Info().Int64("rows", result.RowsAffected()).Msg("migration: backfilled is_active")
	}

	return nil
}

// Health checks if the database is healthy
func (db *Database) Health(ctx context.Context) error {
	if db == nil || db.pool == nil {
		return fmt.Errorf("database connection not initialized")
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return db.pool.Ping(ctx)
}
