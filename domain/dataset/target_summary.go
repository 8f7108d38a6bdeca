package dataset

import (
	"github.com/montanaflynn/stats"
)

// TargetSummary condenses the frequency table of a target column for display.
type TargetSummary struct {
	Column         string     `json:"column"`
	UniqueCount    int        `json:"unique_count"`
	Displayed      []TopValue `json:"displayed"`
	ManyClasses    bool       `json:"many_classes"`
	MeanCount      float64    `json:"mean_count"`
	MedianCount    float64    `json:"median_count"`
	StdDevCount    float64    `json:"stddev_count"`
	ImbalanceRatio float64    `json:"imbalance_ratio"` // most / least frequent of the top values
	OfferURLCheck  bool       `json:"offer_url_check"`
}

// SummarizeTarget builds the display summary of a target column. When the
// column has more than manyClasses distinct values no rows are displayed and
// ManyClasses is set instead.
func SummarizeTarget(t *TargetColumnStats, displayed, manyClasses int) TargetSummary {
	if t == nil {
		return TargetSummary{}
	}

	summary := TargetSummary{
		Column:        t.ColumnName,
		UniqueCount:   t.UniqueCount,
		ManyClasses:   t.UniqueCount > manyClasses,
		OfferURLCheck: t.LooksLikeURLs(),
	}

	if !summary.ManyClasses {
		n := len(t.TopValues)
		if n > displayed {
			n = displayed
		}
		summary.Displayed = append([]TopValue(nil), t.TopValues[:n]...)
	}

	counts := make(stats.Float64Data, 0, len(t.TopValues))
	for _, tv := range t.TopValues {
		counts = append(counts, float64(tv.Count))
	}
	if len(counts) == 0 {
		return summary
	}

	summary.MeanCount, _ = counts.Mean()
	summary.MedianCount, _ = counts.Median()
	summary.StdDevCount, _ = counts.StandardDeviation()

	maxCount, _ := counts.Max()
	minCount, _ := counts.Min()
	if minCount > 0 {
		summary.ImbalanceRatio = maxCount / minCount
	}

	return summary
}
