package run

import (
	"time"

	"pipewiz/domain/core"
	"pipewiz/domain/training"
)

// Record is one successful training run kept in history.
type Record struct {
	ID           core.RunID       `db:"id" json:"id"`
	SessionID    core.SessionID   `db:"session_id" json:"session_id"`
	Fingerprint  core.PayloadHash `db:"payload_fingerprint" json:"payload_fingerprint"`
	Target       string           `db:"target" json:"target"`
	TaskType     string           `db:"task_type" json:"task_type"`
	AutoResolved bool             `db:"auto_resolved" json:"auto_resolved"`
	ModelType    string           `db:"model_type" json:"model_type"`
	Headline     string           `db:"headline" json:"headline"`

	// PrimaryMetric is accuracy for classification and R² for regression.
	PrimaryMetric float64   `db:"primary_metric" json:"primary_metric"`
	TrainSize     int       `db:"train_size" json:"train_size"`
	TestSize      int       `db:"test_size" json:"test_size"`
	SplitRatio    float64   `db:"split_ratio" json:"split_ratio"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// NewRecord starts a record for a submitted request.
func NewRecord(session core.SessionID, fingerprint core.PayloadHash, target string, model training.ModelType, autoResolved bool) Record {
	return Record{
		ID:           core.NewRunID(),
		SessionID:    session,
		Fingerprint:  fingerprint,
		Target:       target,
		ModelType:    model.String(),
		AutoResolved: autoResolved,
		CreatedAt:    time.Now().UTC(),
	}
}

// ApplyReport copies the headline metrics of an interpreted result.
func (r *Record) ApplyReport(rep *training.Report) {
	if rep == nil {
		return
	}
	r.TaskType = rep.Kind.String()
	r.Headline = rep.Headline
	r.TrainSize = rep.Info.TrainSize
	r.TestSize = rep.Info.TestSize
	r.SplitRatio = rep.Info.SplitRatio
	switch {
	case rep.Classification != nil:
		r.PrimaryMetric = rep.Classification.Accuracy
	case rep.Regression != nil:
		r.PrimaryMetric = rep.Regression.R2
	}
}
