package training

import (
	"fmt"

	"pipewiz/domain/core"
	"pipewiz/domain/dataset"
)

// ResolveTaskType applies the Auto heuristic to a target column. The training
// service runs the same rule; keep the two in lockstep.
//
// A numeric target whose type is floating-point, or which has more than
// AutoRegressionUniqueMin distinct values, is a regression target. Everything
// else is a classification target and needs at least MinClasses classes.
func ResolveTaskType(typeTag string, uniqueCount int, th Thresholds) (TaskType, error) {
	if dataset.IsNumericType(typeTag) &&
		(dataset.IsFloatType(typeTag) || uniqueCount > th.AutoRegressionUniqueMin) {
		return TaskRegression, nil
	}
	if uniqueCount < th.MinClasses {
		return TaskClassification, fmt.Errorf("%w: %d distinct value(s), need %d",
			core.ErrInsufficientClasses, uniqueCount, th.MinClasses)
	}
	return TaskClassification, nil
}

// Resolve turns a possibly-Auto task type into a concrete one for the given
// target. Explicit task types are returned unchanged and are not checked here.
func Resolve(task TaskType, stats *dataset.ColumnStatistics, target string, th Thresholds) (TaskType, error) {
	if task.IsResolved() {
		return task, nil
	}
	if task != TaskAuto {
		return "", fmt.Errorf("%w: %q", core.ErrUnknownTaskType, task)
	}
	return ResolveTaskType(stats.TypeOf(target), stats.UniqueCount(target), th)
}
