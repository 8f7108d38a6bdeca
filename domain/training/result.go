package training

// Preprocessing echoes the scaling the service actually applied.
type Preprocessing struct {
	Standardize []string `json:"standardize"`
	Normalize   []string `json:"normalize"`
}

// RunInfo holds the fields shared by every result variant.
type RunInfo struct {
	ModelDescription string        `json:"details"`
	TrainSize        int           `json:"train_size"`
	TestSize         int           `json:"test_size"`
	SplitRatio       float64       `json:"split_ratio"`
	Preprocessing    Preprocessing `json:"preprocessing"`
}

// Result is the training outcome. It is either *ClassificationResult or
// *RegressionResult; switch on the concrete type or on Kind.
type Result interface {
	Kind() TaskType
	Info() RunInfo
}

// ClassificationResult is the classification variant of Result.
type ClassificationResult struct {
	RunInfo
	Accuracy        float64  `json:"accuracy"`
	Precision       float64  `json:"precision"`
	Recall          float64  `json:"recall"`
	F1              float64  `json:"f1"`
	Labels          []string `json:"labels"`
	ConfusionMatrix [][]int  `json:"confusion_matrix"`
	TooManyClasses  bool     `json:"too_many_classes"`
}

func (r *ClassificationResult) Kind() TaskType { return TaskClassification }
func (r *ClassificationResult) Info() RunInfo  { return r.RunInfo }

// RegressionResult is the regression variant of Result. R2 may be negative.
type RegressionResult struct {
	RunInfo
	R2   float64 `json:"r2"`
	MAE  float64 `json:"mae"`
	RMSE float64 `json:"rmse"`
	MSE  float64 `json:"mse"`
}

func (r *RegressionResult) Kind() TaskType { return TaskRegression }
func (r *RegressionResult) Info() RunInfo  { return r.RunInfo }
