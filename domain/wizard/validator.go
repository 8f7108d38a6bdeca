package wizard

import (
	"errors"
	"fmt"

	"pipewiz/domain/core"
	"pipewiz/domain/training"
)

// ValidationCode names the first configuration rule a state violates.
type ValidationCode string

const (
	CodeMissingTarget                 ValidationCode = "MissingTarget"
	CodeMissingFeatures               ValidationCode = "MissingFeatures"
	CodeTargetNotNumericForRegression ValidationCode = "TargetNotNumericForRegression"
	CodeInsufficientClasses           ValidationCode = "InsufficientClasses"
	CodeSplitRatioOutOfRange          ValidationCode = "SplitRatioOutOfRange"
)

// ValidationError is a local rejection of a configuration. It is never sent
// to the training service.
type ValidationError struct {
	Code    ValidationCode
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the matching domain error, if any.
func (e *ValidationError) Unwrap() error {
	switch e.Code {
	case CodeInsufficientClasses:
		return core.ErrInsufficientClasses
	case CodeTargetNotNumericForRegression:
		return core.ErrTargetNotNumeric
	default:
		return nil
	}
}

// ValidatedConfig is a checked projection of State ready for BuildRequest.
// TaskType is always resolved. Hyperparameters that do not apply to the
// model are zero: Epochs for trees, MaxDepth for everything else, and the
// preprocessing lists for models without preprocessing.
type ValidatedConfig struct {
	Target        string
	Features      []string
	RequestedTask training.TaskType
	TaskType      training.TaskType
	ModelType     training.ModelType
	Standardize   []string
	Normalize     []string
	SplitRatio    float64
	Epochs        int
	MaxDepth      int
	AllowedValues []string
}

// AutoResolved reports whether the task type was picked by the Auto heuristic.
func (c ValidatedConfig) AutoResolved() bool {
	return c.RequestedTask == training.TaskAuto
}

// splitEpsilon absorbs float drift from stepping the split slider.
const splitEpsilon = 1e-9

// Validate checks s in a fixed rule order and returns the first violation.
// It does not modify s.
func Validate(s *State, th training.Thresholds) (ValidatedConfig, error) {
	if s == nil || s.target == "" {
		return ValidatedConfig{}, &ValidationError{
			Code: CodeMissingTarget, Field: "target",
			Message: "select a target column",
		}
	}
	if s.features.Len() == 0 {
		return ValidatedConfig{}, &ValidationError{
			Code: CodeMissingFeatures, Field: "features",
			Message: "select at least one feature column",
		}
	}

	typeTag := s.stats.TypeOf(s.target)
	unique := s.stats.UniqueCount(s.target)

	resolved := s.taskType
	switch s.taskType {
	case training.TaskRegression:
		if !s.stats.IsNumeric(s.target) {
			return ValidatedConfig{}, &ValidationError{
				Code: CodeTargetNotNumericForRegression, Field: "target",
				Message: fmt.Sprintf("regression needs a numeric target; %q has type %q", s.target, typeTag),
			}
		}
	case training.TaskClassification:
		if unique < th.MinClasses {
			return ValidatedConfig{}, insufficientClasses(s.target, unique, th)
		}
	case training.TaskAuto:
		var err error
		resolved, err = training.ResolveTaskType(typeTag, unique, th)
		if errors.Is(err, core.ErrInsufficientClasses) {
			return ValidatedConfig{}, insufficientClasses(s.target, unique, th)
		}
		if err != nil {
			return ValidatedConfig{}, err
		}
	default:
		return ValidatedConfig{}, fmt.Errorf("%w: %q", core.ErrUnknownTaskType, s.taskType)
	}

	if s.splitRatio < th.SplitRatioMin-splitEpsilon || s.splitRatio > th.SplitRatioMax+splitEpsilon {
		return ValidatedConfig{}, &ValidationError{
			Code: CodeSplitRatioOutOfRange, Field: "split_ratio",
			Message: fmt.Sprintf("split ratio %.2f is outside [%.2f, %.2f]", s.splitRatio, th.SplitRatioMin, th.SplitRatioMax),
		}
	}

	caps := s.Capabilities()
	cfg := ValidatedConfig{
		Target:        s.target,
		Features:      s.features.Items(),
		RequestedTask: s.taskType,
		TaskType:      resolved,
		ModelType:     s.modelType,
		Standardize:   []string{},
		Normalize:     []string{},
		SplitRatio:    s.splitRatio,
		AllowedValues: s.AllowedValues(),
	}
	if caps.Preprocessing {
		cfg.Standardize = s.standardize.Items()
		cfg.Normalize = s.normalize.Items()
	}
	if caps.Epochs {
		cfg.Epochs = s.epochs
	}
	if caps.MaxDepth {
		cfg.MaxDepth = s.maxDepth
	}
	return cfg, nil
}

func insufficientClasses(target string, unique int, th training.Thresholds) *ValidationError {
	return &ValidationError{
		Code: CodeInsufficientClasses, Field: "target",
		Message: fmt.Sprintf("classification needs at least %d classes; %q has %d", th.MinClasses, target, unique),
	}
}
