package database

import (
	"context"
	"fmt"
)

// migration defines a single idempotent schema migration.
type migration struct {
	name  string
	sql   string
	check string // query that returns true if the migration is already applied
}

// migrations is the ordered list of schema migrations to apply.
// Each must be idempotent (use IF NOT EXISTS, IF EXISTS, etc.).
var migrations = []migration{
	{
		name:  "add transcription_jobs.folder_id",
		sql:   `ALTER TABLE transcription_jobs ADD COLUMN IF NOT EXISTS folder_id uuid`,
		check: `SELECT EXISTS (SELECT 1 FROM information_schema.columns WHERE table_name = 'transcription_jobs' AND column_name = 'folder_id')`,
	},
	{
		name:  "add users.api_token",
		sql:   `ALTER TABLE users ADD COLUMN IF NOT EXISTS api_token text UNIQUE`,
		check: `SELECT EXISTS (SELECT 1 FROM information_schema.columns WHERE table_name = 'users' AND column_name = 'api_token')`,
	},
	{
		name:  "add jobs user/status index",
		sql:   `CREATE INDEX IF NOT EXISTS idx_jobs_user_status ON transcription_jobs (user_id, status)`,
		check: `SELECT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'idx_jobs_user_status')`,
	},
}

// Migrate applies pending migrations in order.
func (db *DB) Migrate(ctx context.Context) error {
	for _, m := range migrations {
		var applied bool
		if err := db.Pool.QueryRow(ctx, m.check).Scan(&applied); err != nil {
			return fmt.Errorf("migration check %q: %w", m.name, err)
		}
		if applied {
			continue
		}

		db.log.Info().Str("migration", m.name).Msg("applying migration")
		if _, err := db.Pool.Exec(ctx, m.sql); err != nil {
			return fmt.Errorf("migration %q: %w", m.name, err)
		}
	}
	return nil
}
