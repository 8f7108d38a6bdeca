package ports

import (
	"context"

	"pipewiz/domain/core"
	"pipewiz/domain/run"
	"pipewiz/domain/training"
)

// RunRepository stores the history of successful training runs
type RunRepository interface {
	// SaveRun records a finished run
	SaveRun(ctx context.Context, rec run.Record) error

	// GetRun retrieves a run by ID
	GetRun(ctx context.Context, id core.RunID) (*run.Record, error)

	// ListRuns returns runs newest first; limit <= 0 means no limit
	ListRuns(ctx context.Context, limit int) ([]run.Record, error)

	// ListSessionRuns returns the runs of one wizard session, newest first
	ListSessionRuns(ctx context.Context, session core.SessionID) ([]run.Record, error)
}

// ReportWriter exports an interpreted training report to a file
type ReportWriter interface {
	WriteReport(path string, rec run.Record, rep *training.Report) error
}
