package migration

import (
	"context"

	"github.com/jmoiron/sqlx"

	"pipewiz/internal"
	"pipewiz/internal/errors"
)

// MigrationRunner handles database schema migrations
type MigrationRunner struct {
	log *internal.Logger
}

// NewRunner creates a new migration runner
func NewRunner(log *internal.Logger) *MigrationRunner {
	if log == nil {
		log = internal.NopLogger()
	}
	return &MigrationRunner{log: log.With("migration")}
}

// Run executes all database migrations in the correct order
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	if err := r.createTrainingRunsTable(ctx, db); err != nil {
		return errors.WithCode(errors.CodeDatabaseError, errors.Wrap(err, "failed to create training_runs table"))
	}

	r.createIndexes(ctx, db)
	return nil
}

func (r *MigrationRunner) createTrainingRunsTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS training_runs (
			id UUID PRIMARY KEY,
			session_id VARCHAR(64) NOT NULL,
			payload_fingerprint CHAR(64) NOT NULL,
			target TEXT NOT NULL,
			task_type VARCHAR(32) NOT NULL,
			auto_resolved BOOLEAN NOT NULL DEFAULT false,
			model_type VARCHAR(32) NOT NULL,
			headline TEXT NOT NULL DEFAULT '',
			primary_metric DOUBLE PRECISION NOT NULL DEFAULT 0,
			train_size INTEGER NOT NULL DEFAULT 0,
			test_size INTEGER NOT NULL DEFAULT 0,
			split_ratio DOUBLE PRECISION NOT NULL,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)
	`)
	return err
}

func (r *MigrationRunner) createIndexes(ctx context.Context, db *sqlx.DB) {
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_runs_session_id ON training_runs(session_id)",
		"CREATE INDEX IF NOT EXISTS idx_runs_created_at ON training_runs(created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_runs_fingerprint ON training_runs(payload_fingerprint)",
	}

	for _, idxSQL := range indexes {
		if _, err := db.ExecContext(ctx, idxSQL); err != nil {
			r.log.Warn("failed to create index: %v", err)
		}
	}
}
