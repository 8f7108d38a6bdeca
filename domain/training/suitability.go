package training

import (
	"pipewiz/domain/dataset"
)

// EligibleTargets returns, in dataset column order, the columns that can be
// the target of the given task type. Auto is treated as classification,
// matching what the picker shows before a target is chosen.
//
//   - Regression: numeric columns only.
//   - Classification: non-numeric columns, plus numeric columns with at most
//     CategoricalUniqueMax distinct values.
func EligibleTargets(stats *dataset.ColumnStatistics, task TaskType, th Thresholds) []string {
	if stats == nil {
		return nil
	}
	out := make([]string, 0, len(stats.Columns))
	for _, col := range stats.Columns {
		if IsEligibleTarget(stats, col, task, th) {
			out = append(out, col)
		}
	}
	return out
}

// IsEligibleTarget reports whether one column is an eligible target.
func IsEligibleTarget(stats *dataset.ColumnStatistics, column string, task TaskType, th Thresholds) bool {
	numeric := stats.IsNumeric(column)
	if task == TaskRegression {
		return numeric
	}
	if !numeric {
		return true
	}
	unique := stats.UniqueCount(column)
	return unique > 0 && unique <= th.CategoricalUniqueMax
}
