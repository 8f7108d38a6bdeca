package training

import (
	"fmt"
	"strings"

	"pipewiz/domain/core"
)

// TaskType is the kind of prediction problem.
type TaskType string

const (
	TaskAuto           TaskType = "auto"
	TaskClassification TaskType = "classification"
	TaskRegression     TaskType = "regression"
)

// ParseTaskType converts a wire or CLI value to a TaskType.
func ParseTaskType(s string) (TaskType, error) {
	switch TaskType(strings.ToLower(strings.TrimSpace(s))) {
	case TaskAuto:
		return TaskAuto, nil
	case TaskClassification:
		return TaskClassification, nil
	case TaskRegression:
		return TaskRegression, nil
	default:
		return "", fmt.Errorf("%w: %q", core.ErrUnknownTaskType, s)
	}
}

// IsResolved reports whether the task type is concrete (not Auto).
func (t TaskType) IsResolved() bool {
	return t == TaskClassification || t == TaskRegression
}

func (t TaskType) String() string { return string(t) }

// ModelType identifies a model family. Identifiers are shared across task
// types: ModelLinear is a linear fit under regression and a logistic fit
// under classification.
type ModelType string

const (
	ModelLinear       ModelType = "logistic"
	ModelDecisionTree ModelType = "decision_tree"
	ModelRandomForest ModelType = "random_forest"
)

// ParseModelType converts a wire or CLI value to a ModelType. The aliases
// accepted by the training service are accepted here too.
func ParseModelType(s string) (ModelType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "logistic", "linear":
		return ModelLinear, nil
	case "decision_tree", "tree":
		return ModelDecisionTree, nil
	case "random_forest", "randomforest", "forest":
		return ModelRandomForest, nil
	default:
		return "", fmt.Errorf("%w: %q", core.ErrUnknownModelType, s)
	}
}

func (m ModelType) String() string { return string(m) }
