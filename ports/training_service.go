package ports

import (
	"context"
	"io"

	"pipewiz/domain/dataset"
	"pipewiz/domain/training"
	"pipewiz/domain/wizard"
)

// Upload is a dataset file handed to the training service.
type Upload struct {
	Filename string
	Size     int64
	Content  io.Reader
}

// TrainingService is the external collaborator that parses datasets, computes
// statistics and fits models.
type TrainingService interface {
	// Upload sends a dataset file and returns its column statistics.
	Upload(ctx context.Context, file Upload) (*dataset.ColumnStatistics, error)

	// TargetStats returns the value distribution of one column.
	TargetStats(ctx context.Context, column string) (*dataset.TargetColumnStats, error)

	// CheckURLs probes a batch of URLs for reachability.
	CheckURLs(ctx context.Context, urls []string) (*dataset.URLValidationReport, error)

	// Train submits a request and returns the classification or regression result.
	Train(ctx context.Context, req wizard.TrainingRequest) (training.Result, error)
}
