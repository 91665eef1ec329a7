package migration

import (
	"context"

	"agencywheel/internal/errors"

	"github.com/jmoiron/sqlx"
)

// Migrator defines the interface for database migration operations
type Migrator interface {
	Run(ctx context.Context, db *sqlx.DB) error
	Version() string
}

// MigrationRunner handles database schema migrations
type MigrationRunner struct {
	version string
}

// NewRunner creates a new migration runner
func NewRunner() *MigrationRunner {
	return &MigrationRunner{
		version: "1.0.0",
	}
}

// Version returns the migration version
func (r *MigrationRunner) Version() string {
	return r.version
}

// Run executes all database migrations in the correct order
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	if err := r.createExperimentSessionsTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create experiment_sessions table")
	}
	if err := r.createTrialRecordsTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create trial_records table")
	}
	if err := r.createIndexes(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create indexes")
	}
	return nil
}

func (r *MigrationRunner) createExperimentSessionsTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS experiment_sessions (
			id UUID PRIMARY KEY,
			participant_id TEXT NOT NULL,
			state TEXT NOT NULL DEFAULT 'running',
			mini_blocks INTEGER NOT NULL,
			matrix JSONB NOT NULL,
			fallback_matrix BOOLEAN NOT NULL DEFAULT FALSE,
			seed BIGINT NOT NULL DEFAULT 0,
			started_at TIMESTAMPTZ NOT NULL,
			completed_at TIMESTAMPTZ,
			metadata JSONB NOT NULL DEFAULT '{}'::jsonb,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`)
	return err
}

func (r *MigrationRunner) createTrialRecordsTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS trial_records (
			id UUID PRIMARY KEY,
			session_id UUID NOT NULL REFERENCES experiment_sessions(id) ON DELETE CASCADE,
			ordinal INTEGER NOT NULL,
			mini_block INTEGER NOT NULL,
			sub_block TEXT NOT NULL,
			probability DOUBLE PRECISION NOT NULL,
			outcome_win BOOLEAN NOT NULL,
			agency BOOLEAN NOT NULL,
			selected_wheel INTEGER,
			is_approved BOOLEAN,
			confidence INTEGER,
			satisfaction INTEGER,
			responded_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (session_id, ordinal)
		)
	`)
	return err
}

func (r *MigrationRunner) createIndexes(ctx context.Context, db *sqlx.DB) error {
	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_sessions_state ON experiment_sessions(state)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_participant ON experiment_sessions(participant_id)`,
		`CREATE INDEX IF NOT EXISTS idx_trials_session ON trial_records(session_id)`,
		`CREATE INDEX IF NOT EXISTS idx_trials_pending ON trial_records(session_id, ordinal) WHERE responded_at IS NULL`,
	}
	for _, idx := range indexes {
		if _, err := db.ExecContext(ctx, idx); err != nil {
			return err
		}
	}
	return nil
}
