package wizard

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pipewiz/domain/core"
	"pipewiz/domain/dataset"
	"pipewiz/domain/training"
)

func scenarioStats() *dataset.ColumnStatistics {
	return &dataset.ColumnStatistics{
		Rows:         150,
		Columns:      []string{"age", "income", "label"},
		ColumnTypes:  map[string]string{"age": "int64", "income": "float64", "label": "object"},
		UniqueCounts: map[string]int{"label": 3},
	}
}

func TestNewState_Defaults(t *testing.T) {
	s := NewState(scenarioStats())

	assert.Equal(t, training.TaskAuto, s.TaskType())
	assert.Equal(t, training.ModelLinear, s.ModelType())
	assert.Equal(t, training.DefaultSplitRatio, s.SplitRatio())
	assert.Equal(t, training.DefaultEpochs, s.Epochs())
	depth, ok := s.MaxDepth()
	assert.True(t, ok)
	assert.Equal(t, training.DefaultMaxDepth, depth)
	assert.Empty(t, s.Target())
	assert.Empty(t, s.Features())
	assert.Nil(t, s.AllowedValues())
}

func TestSelectTarget_RemovesFromFeaturesAndPreprocessing(t *testing.T) {
	s := NewState(scenarioStats())
	require.NoError(t, s.ToggleFeature("age"))
	require.NoError(t, s.ToggleFeature("income"))
	require.True(t, s.ToggleStandardize("age"))

	require.NoError(t, s.SelectTarget("age"))

	assert.Equal(t, "age", s.Target())
	assert.Equal(t, []string{"income"}, s.Features())
	assert.Empty(t, s.Standardize())
}

func TestSelectTarget_ClearsTargetScopedData(t *testing.T) {
	s := NewState(scenarioStats())
	require.NoError(t, s.SelectTarget("label"))
	require.NoError(t, s.SetTargetStats(&dataset.TargetColumnStats{
		ColumnName: "label",
		TopValues:  []dataset.TopValue{{Value: "http://a", Count: 3}},
	}))
	s.SetURLReport(&dataset.URLValidationReport{
		CheckedCount: 1, ReachableCount: 1,
		Results: []dataset.URLCheck{{URL: "http://a", Reachable: true}},
	})
	s.SetReachableOnly(true)
	require.Equal(t, []string{"http://a"}, s.AllowedValues())

	require.NoError(t, s.SelectTarget("income"))

	assert.Nil(t, s.TargetStats())
	assert.Nil(t, s.URLReport())
	assert.False(t, s.ReachableOnly())
	assert.Nil(t, s.AllowedValues())
}

func TestSelectTarget_UnknownColumn(t *testing.T) {
	s := NewState(scenarioStats())
	err := s.SelectTarget("missing")
	assert.ErrorIs(t, err, core.ErrColumnNotFound)
	assert.Empty(t, s.Target())
}

func TestToggleFeature(t *testing.T) {
	s := NewState(scenarioStats())
	require.NoError(t, s.SelectTarget("label"))

	require.NoError(t, s.ToggleFeature("income"))
	require.NoError(t, s.ToggleFeature("age"))
	assert.Equal(t, []string{"income", "age"}, s.Features(), "insertion order is kept")

	require.NoError(t, s.ToggleFeature("label"))
	assert.NotContains(t, s.Features(), "label", "target is never a feature")

	require.True(t, s.ToggleNormalize("income"))
	require.NoError(t, s.ToggleFeature("income"))
	assert.Equal(t, []string{"age"}, s.Features())
	assert.Empty(t, s.Normalize(), "removed features leave the preprocessing sets")
}

func TestSetFeatures(t *testing.T) {
	s := NewState(scenarioStats())
	require.NoError(t, s.SelectTarget("label"))
	require.NoError(t, s.ToggleFeature("age"))
	require.True(t, s.ToggleStandardize("age"))

	s.SetFeatures([]string{"income", "label", "nope", "income"})
	assert.Equal(t, []string{"income"}, s.Features())
	assert.Empty(t, s.Standardize())
}

func TestPreprocessingToggles_Gating(t *testing.T) {
	stats := &dataset.ColumnStatistics{
		Columns:     []string{"a", "b", "city", "y"},
		ColumnTypes: map[string]string{"a": "int64", "b": "float64", "city": "object", "y": "object"},
	}
	s := NewState(stats)
	require.NoError(t, s.SelectTarget("y"))
	require.NoError(t, s.ToggleFeature("a"))
	require.NoError(t, s.ToggleFeature("city"))

	assert.False(t, s.ToggleStandardize("b"), "not a feature")
	assert.False(t, s.ToggleStandardize("city"), "not numeric")
	assert.Empty(t, s.Standardize())

	require.NoError(t, s.SetModelType(training.ModelDecisionTree))
	assert.False(t, s.ToggleNormalize("a"), "model has no preprocessing")
	assert.Empty(t, s.Normalize())

	require.NoError(t, s.SetModelType(training.ModelLinear))
	assert.True(t, s.ToggleNormalize("a"))
	assert.Equal(t, []string{"a"}, s.Normalize())
}

func TestPreprocessingToggles_MutuallyExclusive(t *testing.T) {
	stats := &dataset.ColumnStatistics{
		Columns:     []string{"a", "b", "y"},
		ColumnTypes: map[string]string{"a": "int64", "b": "float64", "y": "object"},
	}
	r := rand.New(rand.NewSource(11))

	for run := 0; run < 50; run++ {
		s := NewState(stats)
		require.NoError(t, s.SelectTarget("y"))
		require.NoError(t, s.ToggleFeature("a"))
		require.NoError(t, s.ToggleFeature("b"))

		for step := 0; step < 40; step++ {
			col := []string{"a", "b"}[r.Intn(2)]
			if r.Intn(2) == 0 {
				s.ToggleStandardize(col)
			} else {
				s.ToggleNormalize(col)
			}
			for _, c := range s.Standardize() {
				assert.NotContains(t, s.Normalize(), c)
			}
		}
	}
}

func TestPreprocessingToggles_MoveBetweenSets(t *testing.T) {
	s := NewState(scenarioStats())
	require.NoError(t, s.SelectTarget("label"))
	require.NoError(t, s.ToggleFeature("age"))

	require.True(t, s.ToggleStandardize("age"))
	require.True(t, s.ToggleNormalize("age"))
	assert.Empty(t, s.Standardize())
	assert.Equal(t, []string{"age"}, s.Normalize())

	require.True(t, s.ToggleNormalize("age"))
	assert.Empty(t, s.Normalize())
}

func TestSetModelType_RetainsHyperparameters(t *testing.T) {
	s := NewState(scenarioStats())
	require.NoError(t, s.SetEpochs(250))
	require.NoError(t, s.SetModelType(training.ModelDecisionTree))
	require.NoError(t, s.SetMaxDepth(9))
	require.NoError(t, s.SetModelType(training.ModelRandomForest))
	require.NoError(t, s.SetModelType(training.ModelDecisionTree))

	assert.Equal(t, 250, s.Epochs())
	depth, ok := s.MaxDepth()
	assert.True(t, ok)
	assert.Equal(t, 9, depth)

	assert.ErrorIs(t, s.SetModelType("svm"), core.ErrUnknownModelType)
	assert.Equal(t, training.ModelDecisionTree, s.ModelType())
}

func TestSetTaskType_RefiltersModelsAndTargets(t *testing.T) {
	s := NewState(scenarioStats())
	th := training.DefaultThresholds()

	require.NoError(t, s.SetTaskType(training.TaskRegression))
	assert.Equal(t, "Linear Regression", s.AvailableModels()[0].DisplayName)
	assert.Equal(t, []string{"age", "income"}, s.EligibleTargets(th))

	require.NoError(t, s.SetTaskType(training.TaskClassification))
	assert.Equal(t, "Logistic Regression", s.AvailableModels()[0].DisplayName)
	assert.Equal(t, []string{"label"}, s.EligibleTargets(th))

	assert.ErrorIs(t, s.SetTaskType("clustering"), core.ErrUnknownTaskType)
}

func TestHyperparameterSetters(t *testing.T) {
	s := NewState(scenarioStats())
	assert.Error(t, s.SetEpochs(0))
	assert.Error(t, s.SetMaxDepth(-1))

	require.NoError(t, s.SetMaxDepth(0))
	_, ok := s.MaxDepth()
	assert.False(t, ok)

	s.SetSplitRatio(0.3)
	assert.Equal(t, 0.3, s.SplitRatio())
}

func TestSetTargetStats_RejectsOtherColumn(t *testing.T) {
	s := NewState(scenarioStats())
	require.NoError(t, s.SelectTarget("label"))

	assert.Error(t, s.SetTargetStats(&dataset.TargetColumnStats{ColumnName: "age"}))
	assert.Error(t, s.SetTargetStats(nil))
	assert.Nil(t, s.TargetStats())

	require.NoError(t, s.SetTargetStats(&dataset.TargetColumnStats{ColumnName: "label", UniqueCount: 3}))
	assert.Equal(t, 3, s.TargetStats().UniqueCount)
}

func TestReachableOnly(t *testing.T) {
	s := NewState(scenarioStats())
	require.NoError(t, s.SelectTarget("label"))

	s.SetReachableOnly(true)
	assert.Nil(t, s.AllowedValues(), "no report, no filter")

	s.SetURLReport(&dataset.URLValidationReport{
		CheckedCount: 3, ReachableCount: 2,
		Results: []dataset.URLCheck{
			{URL: "http://b", Reachable: true},
			{URL: "http://x", Reachable: false},
			{URL: "http://a", Reachable: true},
		},
	})
	assert.Equal(t, []string{"http://b", "http://a"}, s.AllowedValues())

	s.SetReachableOnly(false)
	assert.Nil(t, s.AllowedValues())
}

func TestClone_IsIndependent(t *testing.T) {
	s := NewState(scenarioStats())
	require.NoError(t, s.SelectTarget("label"))
	require.NoError(t, s.ToggleFeature("age"))

	c := s.Clone()
	require.NoError(t, c.ToggleFeature("income"))
	require.True(t, c.ToggleStandardize("age"))

	assert.Equal(t, []string{"age"}, s.Features())
	assert.Empty(t, s.Standardize())
	assert.Equal(t, []string{"age", "income"}, c.Features())
}
