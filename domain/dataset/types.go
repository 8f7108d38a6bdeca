package dataset

import (
	"regexp"
	"strings"
)

// numericType matches declared column types that are treated as numeric.
var numericType = regexp.MustCompile(`(?i)int|float|number`)

// IsNumericType reports whether a declared column type tag is numeric.
// Anything that does not match is categorical.
func IsNumericType(typeTag string) bool {
	return numericType.MatchString(typeTag)
}

// IsFloatType reports whether a declared type names a floating-point
// representation ("float64", "float32", ...).
func IsFloatType(typeTag string) bool {
	return strings.HasPrefix(typeTag, "float")
}

// ColumnStatistics is the snapshot of dataset shape returned by the training
// service after an upload. It is not modified after receipt.
type ColumnStatistics struct {
	Rows         int               `json:"rows"`
	Columns      []string          `json:"columns"`
	ColumnTypes  map[string]string `json:"column_types"`
	UniqueCounts map[string]int    `json:"columns_unique_counts,omitempty"`
}

// TypeOf returns the declared type of a column ("" when unknown).
func (s *ColumnStatistics) TypeOf(column string) string {
	if s == nil {
		return ""
	}
	return s.ColumnTypes[column]
}

// UniqueCount returns the distinct-value count of a column. Absent entries count as 0.
func (s *ColumnStatistics) UniqueCount(column string) int {
	if s == nil {
		return 0
	}
	return s.UniqueCounts[column]
}

// HasColumn reports whether column is part of the dataset.
func (s *ColumnStatistics) HasColumn(column string) bool {
	if s == nil {
		return false
	}
	for _, c := range s.Columns {
		if c == column {
			return true
		}
	}
	return false
}

// IsNumeric reports whether a column's declared type is numeric.
func (s *ColumnStatistics) IsNumeric(column string) bool {
	return IsNumericType(s.TypeOf(column))
}

// NumericColumns returns the numeric columns in dataset column order.
func (s *ColumnStatistics) NumericColumns() []string {
	if s == nil {
		return nil
	}
	out := make([]string, 0, len(s.Columns))
	for _, c := range s.Columns {
		if s.IsNumeric(c) {
			out = append(out, c)
		}
	}
	return out
}

// TopValue is one (value, frequency) pair of a target column.
type TopValue struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// TargetColumnStats describes the distribution of the selected target.
// TopValues are ordered by descending frequency, at most 50 entries.
type TargetColumnStats struct {
	ColumnName  string     `json:"column"`
	DType       string     `json:"dtype"`
	UniqueCount int        `json:"n_unique"`
	TopValues   []TopValue `json:"top"`
}

// LooksLikeURLs reports whether the most frequent target value looks like a URL,
// which is the condition for offering a reachability check.
func (t *TargetColumnStats) LooksLikeURLs() bool {
	if t == nil || len(t.TopValues) == 0 {
		return false
	}
	return strings.HasPrefix(t.TopValues[0].Value, "http")
}

// URLCandidates returns the first max top values for a reachability check.
func (t *TargetColumnStats) URLCandidates(max int) []string {
	if t == nil {
		return nil
	}
	n := len(t.TopValues)
	if max >= 0 && n > max {
		n = max
	}
	urls := make([]string, 0, n)
	for _, tv := range t.TopValues[:n] {
		urls = append(urls, tv.Value)
	}
	return urls
}

// URLCheck is the reachability result for one URL.
type URLCheck struct {
	URL       string `json:"url"`
	Reachable bool   `json:"ok"`
	Status    *int   `json:"status"`
}

// URLValidationReport is the outcome of a batch reachability probe.
type URLValidationReport struct {
	CheckedCount   int        `json:"checked"`
	ReachableCount int        `json:"reachable"`
	Results        []URLCheck `json:"results"`
}

// ReachableURLs returns the reachable URLs in result order.
func (r *URLValidationReport) ReachableURLs() []string {
	if r == nil {
		return nil
	}
	out := make([]string, 0, r.ReachableCount)
	for _, res := range r.Results {
		if res.Reachable {
			out = append(out, res.URL)
		}
	}
	return out
}
