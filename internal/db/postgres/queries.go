// Package postgres — queries.go applies the schema migrations.
// Migrations are embedded SQL strings applied in order; applied versions
// are tracked in schema_migrations so a restart is a no-op.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

// Migration is one versioned schema change.
type Migration struct {
	Version int
	SQL     string
}

// Migrations is the full schema history, oldest first.
var Migrations = []Migration{
	{1, migration001Players},
	{2, migration002Duels},
}

var migration001Players = `
CREATE TABLE IF NOT EXISTS players (
    id BIGSERIAL PRIMARY KEY,
    chat_id BIGINT NOT NULL,
    user_id BIGINT NOT NULL,
    username VARCHAR(255) NOT NULL DEFAULT '',
    display_name VARCHAR(255) NOT NULL,
    score BIGINT NOT NULL DEFAULT 0,
    last_play_at TIMESTAMPTZ,
    total_plays INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    UNIQUE (user_id, chat_id)
);
CREATE INDEX IF NOT EXISTS idx_players_chat_score ON players(chat_id, score DESC);
CREATE INDEX IF NOT EXISTS idx_players_chat_username ON players(chat_id, LOWER(username));
`

var migration002Duels = `
CREATE TABLE IF NOT EXISTS duelos (
    id UUID PRIMARY KEY,
    chat_id BIGINT NOT NULL,
    challenger_id BIGINT NOT NULL,
    defender_id BIGINT NOT NULL,
    stake BIGINT NOT NULL,
    status VARCHAR(16) NOT NULL DEFAULT 'pending',
    winner_id BIGINT,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    resolved_at TIMESTAMPTZ
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_duelos_one_pending
    ON duelos(chat_id, defender_id) WHERE status = 'pending';
CREATE INDEX IF NOT EXISTS idx_duelos_status_created ON duelos(status, created_at);
`

// Migrate creates schema_migrations and applies every pending migration.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at TIMESTAMPTZ DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	for _, m := range Migrations {
		applied, err := ExecMigrationSQL(ctx, pool, m.Version, m.SQL)
		if err != nil {
			return fmt.Errorf("migration %d: %w", m.Version, err)
		}
		if applied {
			log.Infof("Migration %d applied", m.Version)
		}
	}
	return nil
}

// ExecMigrationSQL applies one migration inside a transaction and records
// its version. Returns false when the version was already applied.
func ExecMigrationSQL(ctx context.Context, pool *pgxpool.Pool, version int, sql string) (bool, error) {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var exists bool
	err = tx.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)", version,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check migration: %w", err)
	}
	if exists {
		return false, nil
	}

	if _, err := tx.Exec(ctx, sql); err != nil {
		return false, fmt.Errorf("execute migration %d: %w", version, err)
	}

	if _, err := tx.Exec(ctx,
		"INSERT INTO schema_migrations (version) VALUES ($1)", version,
	); err != nil {
		return false, fmt.Errorf("record migration version: %w", err)
	}

	return true, tx.Commit(ctx)
}
