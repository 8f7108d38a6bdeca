package training

// Thresholds holds the product constants that drive target eligibility, the
// Auto heuristic, and result rendering.
type Thresholds struct {
	// A numeric column with at most this many distinct values is treated as
	// an encoded category.
	CategoricalUniqueMax int `yaml:"categorical_unique_max" validate:"gte=1"`
	// Auto resolves a numeric target to regression when its distinct-value
	// count is strictly greater than this.
	AutoRegressionUniqueMin int `yaml:"auto_regression_unique_min" validate:"gte=1"`
	// Classification needs at least this many classes.
	MinClasses int `yaml:"min_classes" validate:"gte=2"`
	// Above this many distinct target values the top-value table is replaced
	// by a warning.
	ManyClassesWarning int `yaml:"many_classes_warning" validate:"gte=1"`
	// Above this many labels the confusion matrix is not rendered in full.
	ConfusionMatrixMaxLabels int `yaml:"confusion_matrix_max_labels" validate:"gte=1"`
	// Number of labels kept when the confusion matrix is truncated.
	ConfusionMatrixPreview int `yaml:"confusion_matrix_preview" validate:"gte=1"`
	TopValuesDisplayed     int `yaml:"top_values_displayed" validate:"gte=1"`
	URLCheckMax            int `yaml:"url_check_max" validate:"gte=1"`

	SplitRatioMin float64 `yaml:"split_ratio_min" validate:"gt=0,lt=1"`
	SplitRatioMax float64 `yaml:"split_ratio_max" validate:"gt=0,lt=1,gtefield=SplitRatioMin"`
}

// DefaultThresholds returns the stock product thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		CategoricalUniqueMax:     20,
		AutoRegressionUniqueMin:  20,
		MinClasses:               2,
		ManyClassesWarning:       40,
		ConfusionMatrixMaxLabels: 20,
		ConfusionMatrixPreview:   10,
		TopValuesDisplayed:       10,
		URLCheckMax:              50,
		SplitRatioMin:            0.1,
		SplitRatioMax:            0.5,
	}
}
