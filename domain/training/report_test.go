package training

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInterpret_Classification(t *testing.T) {
	res := &ClassificationResult{
		RunInfo: RunInfo{
			ModelDescription: "Trained decision_tree",
			TrainSize:        80,
			TestSize:         20,
			SplitRatio:       0.2,
		},
		Accuracy:  0.85,
		Precision: 0.86,
		Recall:    0.85,
		F1:        0.85,
		Labels:    []string{"a", "b", "c"},
		ConfusionMatrix: [][]int{
			{5, 1, 0},
			{1, 6, 0},
			{0, 1, 6},
		},
	}

	report, err := Interpret(res, DefaultThresholds())
	require.NoError(t, err)

	assert.Equal(t, TaskClassification, report.Kind)
	assert.Equal(t, "85.0% Acc", report.Headline)
	assert.Nil(t, report.Regression)
	require.NotNil(t, report.Classification)

	cls := report.Classification
	assert.False(t, cls.Truncated)
	assert.Equal(t, res.Labels, cls.MatrixLabels)
	assert.Equal(t, res.ConfusionMatrix, cls.Matrix)
	assert.InDelta(t, 17.0/20.0, cls.MatrixAccuracy, 1e-9)

	require.Len(t, cls.PerClass, 3)
	b := cls.PerClass[1]
	assert.Equal(t, "b", b.Label)
	assert.Equal(t, 7, b.Support)
	assert.Equal(t, 8, b.Predicted)
	assert.Equal(t, 6, b.Correct)
	assert.InDelta(t, 6.0/8.0, b.Precision, 1e-9)
	assert.InDelta(t, 6.0/7.0, b.Recall, 1e-9)
}

func TestInterpret_ClassificationTruncatesManyLabels(t *testing.T) {
	n := 25
	res := &ClassificationResult{Accuracy: 0.5}
	for i := 0; i < n; i++ {
		res.Labels = append(res.Labels, fmt.Sprintf("L%d", i))
		row := make([]int, n)
		row[i] = 2
		res.ConfusionMatrix = append(res.ConfusionMatrix, row)
	}

	report, err := Interpret(res, DefaultThresholds())
	require.NoError(t, err)

	cls := report.Classification
	assert.True(t, cls.Truncated)
	assert.Equal(t, n, cls.LabelCount)
	assert.Len(t, cls.MatrixLabels, 10)
	require.Len(t, cls.Matrix, 10)
	for _, row := range cls.Matrix {
		assert.Len(t, row, 10)
	}
	assert.Len(t, cls.PerClass, n, "per-class stats cover every label")
}

func TestInterpret_ServiceFlagForcesTruncation(t *testing.T) {
	res := &ClassificationResult{
		Labels:          []string{"a", "b"},
		ConfusionMatrix: [][]int{{1, 0}, {0, 1}},
		TooManyClasses:  true,
	}
	report, err := Interpret(res, DefaultThresholds())
	require.NoError(t, err)
	assert.True(t, report.Classification.Truncated)
	assert.Len(t, report.Classification.Matrix, 2, "preview never exceeds the label count")
}

func TestInterpret_RejectsMalformedMatrix(t *testing.T) {
	th := DefaultThresholds()

	_, err := Interpret(&ClassificationResult{Labels: []string{"a", "b"}, ConfusionMatrix: [][]int{{1, 0}}}, th)
	assert.Error(t, err)

	_, err = Interpret(&ClassificationResult{Labels: []string{"a", "b"}, ConfusionMatrix: [][]int{{1, 0}, {1}}}, th)
	assert.Error(t, err)

	_, err = Interpret(&ClassificationResult{Labels: []string{"a"}, ConfusionMatrix: [][]int{{-1}}}, th)
	assert.Error(t, err)

	_, err = Interpret(nil, th)
	assert.Error(t, err)
}

func TestInterpret_Regression(t *testing.T) {
	res := &RegressionResult{
		RunInfo: RunInfo{
			ModelDescription: "Trained random_forest",
			Preprocessing:    Preprocessing{Standardize: []string{"age"}},
		},
		R2:   -0.125,
		MAE:  3.2,
		RMSE: 4.1,
		MSE:  16.81,
	}

	report, err := Interpret(res, DefaultThresholds())
	require.NoError(t, err)
	assert.Equal(t, TaskRegression, report.Kind)
	assert.Equal(t, "-12.5% R²", report.Headline)
	assert.Nil(t, report.Classification)
	assert.Equal(t, -0.125, report.Regression.R2)
	assert.Equal(t, []string{"age"}, report.Info.Preprocessing.Standardize)
}

func TestCatalog(t *testing.T) {
	cls := ModelsFor(TaskClassification)
	reg := ModelsFor(TaskRegression)
	require.Len(t, cls, 3)
	require.Len(t, reg, 3)
	for i := range cls {
		assert.Equal(t, cls[i].ID, reg[i].ID, "identifiers are shared across task types")
	}
	assert.Equal(t, "Logistic Regression", DisplayName(TaskClassification, ModelLinear))
	assert.Equal(t, "Linear Regression", DisplayName(TaskRegression, ModelLinear))
	assert.Equal(t, cls, ModelsFor(TaskAuto))

	assert.Equal(t, Capabilities{Preprocessing: true, Epochs: true}, CapabilitiesOf(ModelLinear))
	assert.Equal(t, Capabilities{MaxDepth: true}, CapabilitiesOf(ModelDecisionTree))
	assert.Equal(t, Capabilities{Epochs: true}, CapabilitiesOf(ModelRandomForest))
}

func TestParseSplit(t *testing.T) {
	tests := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{"80-20", 0.2, false},
		{"70-30", 0.3, false},
		{" 90-10 ", 0.1, false},
		{"0.25", 0.25, false},
		{"0.9", 0.9, false},
		{"60-40", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSplit(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}
