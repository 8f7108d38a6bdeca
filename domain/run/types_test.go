package run

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"pipewiz/domain/core"
	"pipewiz/domain/training"
)

func TestNewRecord_ApplyReport(t *testing.T) {
	rec := NewRecord(core.NewSessionID(), core.PayloadHash("abc"), "label", training.ModelDecisionTree, true)
	assert.False(t, rec.ID.String() == "")
	assert.Equal(t, "decision_tree", rec.ModelType)
	assert.True(t, rec.AutoResolved)
	assert.False(t, rec.CreatedAt.IsZero())

	rec.ApplyReport(&training.Report{
		Kind:           training.TaskClassification,
		Headline:       "85.0% Acc",
		Info:           training.RunInfo{TrainSize: 80, TestSize: 20, SplitRatio: 0.2},
		Classification: &training.ClassificationReport{Accuracy: 0.85},
	})
	assert.Equal(t, "classification", rec.TaskType)
	assert.Equal(t, 0.85, rec.PrimaryMetric)
	assert.Equal(t, 80, rec.TrainSize)

	rec.ApplyReport(&training.Report{
		Kind:       training.TaskRegression,
		Regression: &training.RegressionReport{R2: -0.3},
	})
	assert.Equal(t, -0.3, rec.PrimaryMetric)

	before := rec
	rec.ApplyReport(nil)
	assert.Equal(t, before, rec)
}
