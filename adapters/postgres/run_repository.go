package postgres

import (
	"context"
	"database/sql"
	stderrors "errors"

	"github.com/jmoiron/sqlx"

	"pipewiz/domain/core"
	"pipewiz/domain/run"
	"pipewiz/internal/errors"
	"pipewiz/ports"
)

const runColumns = `id, session_id, payload_fingerprint, target, task_type, auto_resolved,
	model_type, headline, primary_metric, train_size, test_size, split_ratio, created_at`

// RunRepositoryImpl implements RunRepository for PostgreSQL
type RunRepositoryImpl struct {
	db *sqlx.DB
}

// NewRunRepository creates a new PostgreSQL run repository
func NewRunRepository(db *sqlx.DB) ports.RunRepository {
	return &RunRepositoryImpl{db: db}
}

// SaveRun records a finished run
func (r *RunRepositoryImpl) SaveRun(ctx context.Context, rec run.Record) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO training_runs (`+runColumns+`)
		VALUES (:id, :session_id, :payload_fingerprint, :target, :task_type, :auto_resolved,
			:model_type, :headline, :primary_metric, :train_size, :test_size, :split_ratio, :created_at)
	`, rec)
	if err != nil {
		return errors.WithCode(errors.CodeDatabaseError, errors.Wrap(err, "failed to save run"))
	}
	return nil
}

// GetRun retrieves a run by ID
func (r *RunRepositoryImpl) GetRun(ctx context.Context, id core.RunID) (*run.Record, error) {
	var rec run.Record
	err := r.db.GetContext(ctx, &rec, `SELECT `+runColumns+` FROM training_runs WHERE id = $1`, id)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, core.NewNotFoundError("run", id.String())
	}
	if err != nil {
		return nil, errors.WithCode(errors.CodeDatabaseError, errors.Wrap(err, "failed to get run"))
	}
	return &rec, nil
}

// ListRuns returns runs newest first
func (r *RunRepositoryImpl) ListRuns(ctx context.Context, limit int) ([]run.Record, error) {
	query := `SELECT ` + runColumns + ` FROM training_runs ORDER BY created_at DESC`
	args := []interface{}{}
	if limit > 0 {
		query += " LIMIT $1"
		args = append(args, limit)
	}

	var recs []run.Record
	if err := r.db.SelectContext(ctx, &recs, query, args...); err != nil {
		return nil, errors.WithCode(errors.CodeDatabaseError, errors.Wrap(err, "failed to list runs"))
	}
	return recs, nil
}

// ListSessionRuns returns the runs of one wizard session
func (r *RunRepositoryImpl) ListSessionRuns(ctx context.Context, session core.SessionID) ([]run.Record, error) {
	var recs []run.Record
	err := r.db.SelectContext(ctx, &recs, `
		SELECT `+runColumns+`
		FROM training_runs
		WHERE session_id = $1
		ORDER BY created_at DESC
	`, session)
	if err != nil {
		return nil, errors.WithCode(errors.CodeDatabaseError, errors.Wrap(err, "failed to list session runs"))
	}
	return recs, nil
}
