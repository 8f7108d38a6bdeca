package wizard

import (
	"fmt"

	"pipewiz/domain/core"
	"pipewiz/domain/dataset"
	"pipewiz/domain/training"
)

// orderedSet is a string set that remembers insertion order.
type orderedSet struct {
	items []string
}

func (s *orderedSet) Has(v string) bool {
	for _, it := range s.items {
		if it == v {
			return true
		}
	}
	return false
}

func (s *orderedSet) Add(v string) {
	if !s.Has(v) {
		s.items = append(s.items, v)
	}
}

func (s *orderedSet) Remove(v string) {
	for i, it := range s.items {
		if it == v {
			s.items = append(s.items[:i:i], s.items[i+1:]...)
			return
		}
	}
}

func (s *orderedSet) Toggle(v string) {
	if s.Has(v) {
		s.Remove(v)
	} else {
		s.Add(v)
	}
}

func (s *orderedSet) Len() int { return len(s.items) }

// Items returns a copy of the members in insertion order. The result is
// never nil so it serialises as an empty list.
func (s *orderedSet) Items() []string {
	return append([]string{}, s.items...)
}

func (s *orderedSet) clone() orderedSet {
	return orderedSet{items: append([]string(nil), s.items...)}
}

// State is the configuration being edited in the wizard. Fields are only
// changed through its methods, each of which leaves the state consistent:
//
//   - the target is never a feature;
//   - standardize and normalize are disjoint subsets of the numeric features;
//   - target-scoped data (stats, URL report, allowed values) belongs to the
//     current target.
type State struct {
	stats *dataset.ColumnStatistics

	taskType  training.TaskType
	modelType training.ModelType
	target    string

	features    orderedSet
	standardize orderedSet
	normalize   orderedSet

	splitRatio float64
	epochs     int
	maxDepth   int // 0 = unset

	targetStats   *dataset.TargetColumnStats
	urlReport     *dataset.URLValidationReport
	reachableOnly bool
	allowed       *orderedSet
}

// NewState starts a configuration for an uploaded dataset with the default
// hyperparameters.
func NewState(stats *dataset.ColumnStatistics) *State {
	return &State{
		stats:      stats,
		taskType:   training.TaskAuto,
		modelType:  training.ModelLinear,
		splitRatio: training.DefaultSplitRatio,
		epochs:     training.DefaultEpochs,
		maxDepth:   training.DefaultMaxDepth,
	}
}

// Stats returns the dataset statistics the state was built for.
func (s *State) Stats() *dataset.ColumnStatistics { return s.stats }

func (s *State) TaskType() training.TaskType   { return s.taskType }
func (s *State) ModelType() training.ModelType { return s.modelType }
func (s *State) Target() string                { return s.target }
func (s *State) Features() []string            { return s.features.Items() }
func (s *State) Standardize() []string         { return s.standardize.Items() }
func (s *State) Normalize() []string           { return s.normalize.Items() }
func (s *State) SplitRatio() float64           { return s.splitRatio }
func (s *State) Epochs() int                   { return s.epochs }
func (s *State) ReachableOnly() bool           { return s.reachableOnly }

// MaxDepth returns the tree depth limit and whether one is set.
func (s *State) MaxDepth() (int, bool) { return s.maxDepth, s.maxDepth > 0 }

func (s *State) TargetStats() *dataset.TargetColumnStats { return s.targetStats }
func (s *State) URLReport() *dataset.URLValidationReport { return s.urlReport }

// AllowedValues returns the active allowed-target-value filter, or nil when
// no filter is active.
func (s *State) AllowedValues() []string {
	if s.allowed == nil {
		return nil
	}
	return s.allowed.Items()
}

// Capabilities returns the controls that apply to the selected model.
func (s *State) Capabilities() training.Capabilities {
	return training.CapabilitiesOf(s.modelType)
}

// AvailableModels returns the model list for the current task type.
func (s *State) AvailableModels() []training.ModelOption {
	return training.ModelsFor(s.taskType)
}

// EligibleTargets returns the target columns allowed by the current task type.
func (s *State) EligibleTargets(th training.Thresholds) []string {
	return training.EligibleTargets(s.stats, s.taskType, th)
}

// SelectTarget makes column the target. The column leaves the feature and
// preprocessing sets, and all target-scoped data is dropped. An empty column
// clears the target.
func (s *State) SelectTarget(column string) error {
	if column != "" && !s.stats.HasColumn(column) {
		return fmt.Errorf("%w: %q", core.ErrColumnNotFound, column)
	}
	if column == s.target {
		return nil
	}
	s.target = column
	s.features.Remove(column)
	s.standardize.Remove(column)
	s.normalize.Remove(column)
	s.clearTargetScoped()
	return nil
}

// ToggleFeature adds or removes column from the features. Removing a feature
// also removes it from the preprocessing sets. Toggling the target is a no-op.
func (s *State) ToggleFeature(column string) error {
	if !s.stats.HasColumn(column) {
		return fmt.Errorf("%w: %q", core.ErrColumnNotFound, column)
	}
	if column == s.target {
		return nil
	}
	if s.features.Has(column) {
		s.features.Remove(column)
		s.standardize.Remove(column)
		s.normalize.Remove(column)
		return nil
	}
	s.features.Add(column)
	return nil
}

// SetFeatures replaces the feature set, keeping the given order. The target
// and unknown columns are skipped.
func (s *State) SetFeatures(columns []string) {
	next := orderedSet{}
	for _, c := range columns {
		if c != s.target && s.stats.HasColumn(c) {
			next.Add(c)
		}
	}
	s.features = next
	for _, c := range s.standardize.Items() {
		if !next.Has(c) {
			s.standardize.Remove(c)
		}
	}
	for _, c := range s.normalize.Items() {
		if !next.Has(c) {
			s.normalize.Remove(c)
		}
	}
}

// ToggleStandardize flips column's membership in the standardize set and
// takes it out of the normalize set. It reports false and does nothing when
// the column is not a numeric feature or the model has no preprocessing.
func (s *State) ToggleStandardize(column string) bool {
	if !s.canPreprocess(column) {
		return false
	}
	s.normalize.Remove(column)
	s.standardize.Toggle(column)
	return true
}

// ToggleNormalize is the normalize counterpart of ToggleStandardize.
func (s *State) ToggleNormalize(column string) bool {
	if !s.canPreprocess(column) {
		return false
	}
	s.standardize.Remove(column)
	s.normalize.Toggle(column)
	return true
}

func (s *State) canPreprocess(column string) bool {
	return s.Capabilities().Preprocessing &&
		s.features.Has(column) &&
		s.stats.IsNumeric(column)
}

// SetModelType switches the model. Epochs and max depth are kept so switching
// back restores them.
func (s *State) SetModelType(model training.ModelType) error {
	if training.CapabilitiesOf(model) == (training.Capabilities{}) {
		return fmt.Errorf("%w: %q", core.ErrUnknownModelType, model)
	}
	s.modelType = model
	return nil
}

// SetTaskType switches the task type. The model identifier is kept; it is
// shared across the per-task model lists.
func (s *State) SetTaskType(task training.TaskType) error {
	if task != training.TaskAuto && !task.IsResolved() {
		return fmt.Errorf("%w: %q", core.ErrUnknownTaskType, task)
	}
	s.taskType = task
	return nil
}

// SetSplitRatio stores the held-out fraction. Range checking happens at
// validation time.
func (s *State) SetSplitRatio(ratio float64) {
	s.splitRatio = ratio
}

// SetEpochs stores the epoch count.
func (s *State) SetEpochs(epochs int) error {
	if epochs <= 0 {
		return fmt.Errorf("epochs must be positive, got %d", epochs)
	}
	s.epochs = epochs
	return nil
}

// SetMaxDepth stores the tree depth limit; 0 clears it.
func (s *State) SetMaxDepth(depth int) error {
	if depth < 0 {
		return fmt.Errorf("max depth must not be negative, got %d", depth)
	}
	s.maxDepth = depth
	return nil
}

// SetTargetStats attaches the distribution of the current target. Stats for
// any other column are rejected. New stats invalidate the URL report.
func (s *State) SetTargetStats(ts *dataset.TargetColumnStats) error {
	if ts == nil || ts.ColumnName != s.target {
		return fmt.Errorf("target stats are for %q, current target is %q", columnOf(ts), s.target)
	}
	s.targetStats = ts
	s.urlReport = nil
	s.reachableOnly = false
	s.allowed = nil
	return nil
}

// SetURLReport attaches a reachability report for the current target. An
// active include-only-reachable filter is re-derived from it.
func (s *State) SetURLReport(report *dataset.URLValidationReport) {
	s.urlReport = report
	s.allowed = nil
	if s.reachableOnly {
		s.deriveAllowed()
	}
}

// SetReachableOnly turns the include-only-reachable filter on or off. With no
// URL report the filter stays empty.
func (s *State) SetReachableOnly(on bool) {
	s.reachableOnly = on
	s.allowed = nil
	if on {
		s.deriveAllowed()
	}
}

func (s *State) deriveAllowed() {
	if s.urlReport == nil {
		return
	}
	set := &orderedSet{}
	for _, u := range s.urlReport.ReachableURLs() {
		set.Add(u)
	}
	s.allowed = set
}

func (s *State) clearTargetScoped() {
	s.targetStats = nil
	s.urlReport = nil
	s.reachableOnly = false
	s.allowed = nil
}

// Clone returns a deep copy of the state. Dataset statistics are shared;
// they are never modified.
func (s *State) Clone() *State {
	c := *s
	c.features = s.features.clone()
	c.standardize = s.standardize.clone()
	c.normalize = s.normalize.clone()
	if s.allowed != nil {
		a := s.allowed.clone()
		c.allowed = &a
	}
	return &c
}

func columnOf(ts *dataset.TargetColumnStats) string {
	if ts == nil {
		return ""
	}
	return ts.ColumnName
}
