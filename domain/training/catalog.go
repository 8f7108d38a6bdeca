package training

import (
	"fmt"
	"strconv"
	"strings"
)

// ModelOption is one entry of the model picker.
type ModelOption struct {
	ID          ModelType `json:"id"`
	DisplayName string    `json:"display_name"`
	Description string    `json:"description"`
}

var classificationModels = []ModelOption{
	{ID: ModelLinear, DisplayName: "Logistic Regression", Description: "Fast & interpretable"},
	{ID: ModelDecisionTree, DisplayName: "Decision Tree", Description: "Tree-based splitting"},
	{ID: ModelRandomForest, DisplayName: "Random Forest", Description: "Ensemble trees"},
}

var regressionModels = []ModelOption{
	{ID: ModelLinear, DisplayName: "Linear Regression", Description: "Simple linear fit"},
	{ID: ModelDecisionTree, DisplayName: "Decision Tree", Description: "Tree-based prediction"},
	{ID: ModelRandomForest, DisplayName: "Random Forest", Description: "Ensemble trees"},
}

// ModelsFor returns the ordered model list offered for a task type. Auto
// shows the classification list until the task is resolved.
func ModelsFor(task TaskType) []ModelOption {
	src := classificationModels
	if task == TaskRegression {
		src = regressionModels
	}
	return append([]ModelOption(nil), src...)
}

// DisplayName returns the task-specific name of a model.
func DisplayName(task TaskType, model ModelType) string {
	for _, m := range ModelsFor(task) {
		if m.ID == model {
			return m.DisplayName
		}
	}
	return string(model)
}

// Capabilities lists which hyperparameter controls apply to a model.
type Capabilities struct {
	Preprocessing bool `json:"preprocessing"`
	Epochs        bool `json:"epochs"`
	MaxDepth      bool `json:"max_depth"`
}

// CapabilitiesOf returns the capability row of a model type.
func CapabilitiesOf(model ModelType) Capabilities {
	switch model {
	case ModelLinear:
		return Capabilities{Preprocessing: true, Epochs: true}
	case ModelDecisionTree:
		return Capabilities{MaxDepth: true}
	case ModelRandomForest:
		return Capabilities{Epochs: true}
	default:
		return Capabilities{}
	}
}

// SplitPreset is a named train/test split shortcut.
type SplitPreset struct {
	Label string  `json:"label"`
	Ratio float64 `json:"ratio"`
}

// SplitPresets are the quick-pick held-out fractions.
var SplitPresets = []SplitPreset{
	{Label: "70-30", Ratio: 0.3},
	{Label: "80-20", Ratio: 0.2},
	{Label: "90-10", Ratio: 0.1},
}

// ParseSplit accepts a preset label such as "80-20" or a plain held-out
// fraction. Range checking is left to validation.
func ParseSplit(s string) (float64, error) {
	s = strings.TrimSpace(s)
	for _, p := range SplitPresets {
		if p.Label == s {
			return p.Ratio, nil
		}
	}
	ratio, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("split %q is neither a preset (70-30, 80-20, 90-10) nor a number", s)
	}
	return ratio, nil
}

// Hyperparameter defaults and bounds of the configuration controls.
const (
	DefaultSplitRatio = 0.2
	DefaultEpochs     = 100
	DefaultMaxDepth   = 5
	MinEpochs         = 10
	MaxEpochs         = 500
	EpochsStep        = 10
	SplitRatioStep    = 0.05
)
