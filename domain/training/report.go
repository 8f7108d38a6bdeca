package training

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Report is the display-ready form of a Result. Exactly one of
// Classification and Regression is set, matching Kind.
type Report struct {
	Kind           TaskType              `json:"task_type"`
	Headline       string                `json:"headline"`
	Info           RunInfo               `json:"info"`
	Classification *ClassificationReport `json:"classification,omitempty"`
	Regression     *RegressionReport     `json:"regression,omitempty"`
}

// ClassStat summarises one row/column of the confusion matrix.
type ClassStat struct {
	Label     string  `json:"label"`
	Support   int     `json:"support"`   // actual count (row sum)
	Predicted int     `json:"predicted"` // predicted count (column sum)
	Correct   int     `json:"correct"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
}

// ClassificationReport carries classification metrics and the renderable
// part of the confusion matrix.
type ClassificationReport struct {
	Accuracy   float64 `json:"accuracy"`
	Precision  float64 `json:"precision"`
	Recall     float64 `json:"recall"`
	F1         float64 `json:"f1"`
	LabelCount int     `json:"label_count"`

	// Truncated is set when there are too many classes to show the full
	// matrix; MatrixLabels/Matrix then hold only the leading preview block.
	Truncated    bool        `json:"truncated"`
	MatrixLabels []string    `json:"matrix_labels"`
	Matrix       [][]int     `json:"matrix"`
	PerClass     []ClassStat `json:"per_class"`

	// MatrixAccuracy is trace/total of the full matrix.
	MatrixAccuracy float64 `json:"matrix_accuracy"`
}

// RegressionReport carries regression metrics.
type RegressionReport struct {
	R2   float64 `json:"r2"`
	MAE  float64 `json:"mae"`
	RMSE float64 `json:"rmse"`
	MSE  float64 `json:"mse"`
}

// Interpret normalises a Result into a Report.
func Interpret(res Result, th Thresholds) (*Report, error) {
	switch r := res.(type) {
	case *ClassificationResult:
		cls, err := interpretClassification(r, th)
		if err != nil {
			return nil, err
		}
		return &Report{
			Kind:           TaskClassification,
			Headline:       fmt.Sprintf("%.1f%% Acc", r.Accuracy*100),
			Info:           r.RunInfo,
			Classification: cls,
		}, nil
	case *RegressionResult:
		return &Report{
			Kind:     TaskRegression,
			Headline: fmt.Sprintf("%.1f%% R²", r.R2*100),
			Info:     r.RunInfo,
			Regression: &RegressionReport{
				R2:   r.R2,
				MAE:  r.MAE,
				RMSE: r.RMSE,
				MSE:  r.MSE,
			},
		}, nil
	case nil:
		return nil, fmt.Errorf("no result to interpret")
	default:
		return nil, fmt.Errorf("unsupported result type %T", res)
	}
}

func interpretClassification(r *ClassificationResult, th Thresholds) (*ClassificationReport, error) {
	n := len(r.Labels)
	if len(r.ConfusionMatrix) != n {
		return nil, fmt.Errorf("confusion matrix has %d rows for %d labels", len(r.ConfusionMatrix), n)
	}

	report := &ClassificationReport{
		Accuracy:   r.Accuracy,
		Precision:  r.Precision,
		Recall:     r.Recall,
		F1:         r.F1,
		LabelCount: n,
		Truncated:  r.TooManyClasses || n > th.ConfusionMatrixMaxLabels,
	}
	if n == 0 {
		return report, nil
	}

	data := make([]float64, 0, n*n)
	for i, row := range r.ConfusionMatrix {
		if len(row) != n {
			return nil, fmt.Errorf("confusion matrix row %d has %d columns, want %d", i, len(row), n)
		}
		for j, v := range row {
			if v < 0 {
				return nil, fmt.Errorf("confusion matrix entry (%d,%d) is negative", i, j)
			}
			data = append(data, float64(v))
		}
	}
	cm := mat.NewDense(n, n, data)

	if total := mat.Sum(cm); total > 0 {
		report.MatrixAccuracy = mat.Trace(cm) / total
	}

	report.PerClass = make([]ClassStat, n)
	for i, label := range r.Labels {
		support := floats.Sum(cm.RawRowView(i))
		predicted := floats.Sum(mat.Col(nil, i, cm))
		correct := cm.At(i, i)

		stat := ClassStat{
			Label:     label,
			Support:   int(support),
			Predicted: int(predicted),
			Correct:   int(correct),
		}
		if predicted > 0 {
			stat.Precision = correct / predicted
		}
		if support > 0 {
			stat.Recall = correct / support
		}
		report.PerClass[i] = stat
	}

	size := n
	if report.Truncated && th.ConfusionMatrixPreview < n {
		size = th.ConfusionMatrixPreview
	}
	report.MatrixLabels = append([]string(nil), r.Labels[:size]...)
	report.Matrix = make([][]int, size)
	for i := 0; i < size; i++ {
		report.Matrix[i] = append([]int(nil), r.ConfusionMatrix[i][:size]...)
	}

	return report, nil
}
