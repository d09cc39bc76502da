package database

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"github.com/HezziCode/hackathon-v-research-agent/internal/types"
)

// migration is a single versioned schema change.
type migration struct {
	version int
	name    string
	up      string
}

// Migrator applies pending schema migrations in version order.
type Migrator struct {
	db         *DB
	migrations []migration
}

// NewMigrator creates a migrator over the built-in migration set.
func NewMigrator(db *DB) *Migrator {
	return &Migrator{db: db, migrations: getMigrations()}
}

func getMigrations() []migration {
	migrations := []migration{
		{
			version: 1,
			name:    "tasks_table",
			up: `
				CREATE TABLE IF NOT EXISTS tasks (
					id TEXT PRIMARY KEY,
					query TEXT NOT NULL,
					status TEXT NOT NULL,
					require_approval INTEGER NOT NULL DEFAULT 0,
					budget_limit_usd REAL NOT NULL DEFAULT 0,
					priority TEXT NOT NULL DEFAULT 'P2',
					workflow_instance_id TEXT,
					current_stage TEXT,
					error_message TEXT,
					artifacts TEXT,
					metadata TEXT,
					created_at TIMESTAMP NOT NULL,
					updated_at TIMESTAMP NOT NULL,
					completed_at TIMESTAMP
				);
				CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status);
				CREATE INDEX IF NOT EXISTS idx_tasks_created_at ON tasks(created_at);
			`,
		},
		{
			version: 2,
			name:    "workflow_checkpoints_table",
			up: `
				CREATE TABLE IF NOT EXISTS workflow_checkpoints (
					instance_id TEXT NOT NULL,
					sequence INTEGER NOT NULL,
					name TEXT NOT NULL,
					state TEXT NOT NULL,
					checksum TEXT NOT NULL,
					created_at TIMESTAMP NOT NULL,
					PRIMARY KEY (instance_id, sequence)
				);
				CREATE INDEX IF NOT EXISTS idx_checkpoints_instance
					ON workflow_checkpoints(instance_id);
			`,
		},
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].version < migrations[j].version
	})
	return migrations
}

// Migrate applies all pending migrations.
func (m *Migrator) Migrate(ctx context.Context) error {
	if err := m.ensureMigrationsTable(ctx); err != nil {
		return err
	}

	current, err := m.CurrentVersion(ctx)
	if err != nil {
		return err
	}

	for _, mig := range m.migrations {
		if mig.version <= current {
			continue
		}
		if err := m.applyMigration(ctx, mig); err != nil {
			return types.WrapError(types.DB_MIGRATION_FAILED,
				fmt.Sprintf("failed to apply migration %d (%s)", mig.version, mig.name), err)
		}
	}
	return nil
}

// CurrentVersion returns the highest applied migration version.
func (m *Migrator) CurrentVersion(ctx context.Context) (int, error) {
	if err := m.ensureMigrationsTable(ctx); err != nil {
		return 0, err
	}

	var version int
	err := m.db.conn.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(version), 0) FROM migrations").Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("failed to query current version: %w", err)
	}
	return version, nil
}

func (m *Migrator) ensureMigrationsTable(ctx context.Context) error {
	_, err := m.db.conn.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}
	return nil
}

func (m *Migrator) applyMigration(ctx context.Context, mig migration) error {
	return m.db.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, mig.up); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx,
			"INSERT INTO migrations (version, name) VALUES (?, ?)",
			mig.version, mig.name)
		return err
	})
}
