package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// EnsureSchema creates the translation tables for the configured prefix if
// they do not exist. The unique index on particles.document_id backs the
// one-particle-per-document rule at the storage level.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool, tables *TableNames) error {
	statements := []string{
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id           UUID PRIMARY KEY,
				owner_id     TEXT NOT NULL,
				task_id      TEXT NOT NULL,
				language_tag TEXT NOT NULL DEFAULT '',
				rtl          BOOLEAN NOT NULL DEFAULT FALSE,
				created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				UNIQUE (owner_id, task_id)
			)`, tables.Documents),
		fmt.Sprintf(`ALTER TABLE %s ADD COLUMN IF NOT EXISTS owner_name TEXT NOT NULL DEFAULT ''`, tables.Documents),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_owner_name_idx ON %s (owner_name, task_id)`,
			tables.Documents, tables.Documents),
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				seq         BIGSERIAL PRIMARY KEY,
				id          UUID NOT NULL UNIQUE,
				document_id UUID NOT NULL REFERENCES %s(id),
				text        TEXT NOT NULL,
				created_at  TIMESTAMPTZ NOT NULL
			)`, tables.Versions, tables.Documents),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_document_created_idx ON %s (document_id, created_at, seq)`,
			tables.Versions, tables.Versions),
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id          UUID PRIMARY KEY,
				document_id UUID NOT NULL UNIQUE REFERENCES %s(id),
				text        TEXT NOT NULL,
				updated_at  TIMESTAMPTZ NOT NULL
			)`, tables.Particles, tables.Documents),
	}

	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
