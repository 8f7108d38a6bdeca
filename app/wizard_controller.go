package app

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"pipewiz/domain/core"
	"pipewiz/domain/dataset"
	"pipewiz/domain/run"
	"pipewiz/domain/training"
	"pipewiz/domain/wizard"
	"pipewiz/internal"
	inputs "pipewiz/internal/dataset"
	"pipewiz/internal/errors"
	"pipewiz/internal/metrics"
	"pipewiz/ports"
)

// WizardOptions tunes controller timing and input limits
type WizardOptions struct {
	// MinFeedbackDelay is the shortest time between submitting and showing
	// a result, however fast the service answers.
	MinFeedbackDelay time.Duration
	MaxUploadBytes   int64
}

// Export is a report file written after a successful run
type Export struct {
	Path   string
	Writer ports.ReportWriter
}

// WizardController drives one wizard instance through upload, configuration,
// submission and result display. It owns the configuration state; callers
// change it only through the controller's methods.
//
// Methods are safe for concurrent use. Network calls run without holding the
// state lock, so side fetches may overlap; their responses are applied only
// if they still match the current target.
type WizardController struct {
	svc     ports.TrainingService
	runs    ports.RunRepository
	th      training.Thresholds
	opts    WizardOptions
	log     *internal.Logger
	metrics *metrics.Metrics

	uploadSem *semaphore.Weighted
	trainSem  *semaphore.Weighted

	mu          sync.Mutex
	step        Step
	session     core.SessionID
	state       *wizard.State
	report      *training.Report
	lastRun     *run.Record
	lastErr     error
	sideWarning string
	statsTicket core.TicketID
	urlTicket   core.TicketID
}

// NewWizardController creates a controller in the AwaitingUpload step. runs
// may be nil, in which case results are not recorded.
func NewWizardController(
	svc ports.TrainingService,
	runs ports.RunRepository,
	th training.Thresholds,
	opts WizardOptions,
	log *internal.Logger,
	m *metrics.Metrics,
) *WizardController {
	if log == nil {
		log = internal.NopLogger()
	}
	return &WizardController{
		svc:       svc,
		runs:      runs,
		th:        th,
		opts:      opts,
		log:       log.With("wizard"),
		metrics:   m,
		uploadSem: semaphore.NewWeighted(1),
		trainSem:  semaphore.NewWeighted(1),
		step:      StepAwaitingUpload,
	}
}

// Step returns the current wizard step
func (c *WizardController) Step() Step {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.step
}

// UploadFile validates a dataset file on disk and uploads it.
func (c *WizardController) UploadFile(ctx context.Context, path string) error {
	if err := c.expect(StepAwaitingUpload, "upload"); err != nil {
		return err
	}
	file, err := inputs.OpenUpload(path, c.opts.MaxUploadBytes)
	if err != nil {
		c.setError(err)
		return err
	}
	return c.Upload(ctx, file)
}

// Upload checks the file locally, sends it to the training service and moves
// to ConfiguringModel with fresh configuration state. On failure the step is
// unchanged.
func (c *WizardController) Upload(ctx context.Context, file ports.Upload) error {
	if !c.uploadSem.TryAcquire(1) {
		c.metrics.RecordBusy("upload")
		return errors.Busy("upload")
	}
	defer c.uploadSem.Release(1)

	if err := c.expect(StepAwaitingUpload, "upload"); err != nil {
		return err
	}

	file, err := c.guardUpload(file)
	if err != nil {
		c.setError(err)
		return err
	}

	c.log.Debug("uploading %s (%d bytes)", file.Filename, file.Size)
	start := time.Now()
	stats, err := c.svc.Upload(ctx, file)
	c.observe("upload", start, err)
	if err != nil {
		c.setError(err)
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.moveTo(StepConfiguringModel, "upload"); err != nil {
		return err
	}
	c.session = core.NewSessionID()
	c.state = wizard.NewState(stats)
	c.lastErr = nil
	c.log.Info("session %s: %s uploaded, %d rows, %d columns", c.session, file.Filename, stats.Rows, len(stats.Columns))
	return nil
}

func (c *WizardController) guardUpload(file ports.Upload) (ports.Upload, error) {
	if file.Content == nil {
		return ports.Upload{}, errors.InvalidInput("no file content")
	}
	max := c.opts.MaxUploadBytes
	if max <= 0 {
		max = 10 << 20
	}
	if file.Size > max {
		return ports.Upload{}, inputs.ValidateUpload(file.Filename, file.Size, nil, max)
	}
	data, err := io.ReadAll(io.LimitReader(file.Content, max+1))
	if err != nil {
		return ports.Upload{}, errors.InvalidInput(fmt.Sprintf("cannot read %s: %v", file.Filename, err))
	}
	if err := inputs.ValidateUpload(file.Filename, int64(len(data)), data, max); err != nil {
		return ports.Upload{}, err
	}
	return ports.Upload{Filename: file.Filename, Size: int64(len(data)), Content: bytes.NewReader(data)}, nil
}

// SelectTarget makes column the target and fetches its value distribution.
// An empty column clears the target. A failed or outdated fetch leaves the
// selection in place; only the distribution is missing.
func (c *WizardController) SelectTarget(ctx context.Context, column string) error {
	c.mu.Lock()
	if c.step != StepConfiguringModel {
		defer c.mu.Unlock()
		return errors.InvalidTransition(c.step.String(), "select a target")
	}
	if err := c.state.SelectTarget(column); err != nil {
		c.mu.Unlock()
		return errors.WithCode(errors.CodeInvalidInput, err)
	}
	c.sideWarning = ""
	c.urlTicket = ""
	if column == "" {
		c.statsTicket = ""
		c.mu.Unlock()
		return nil
	}
	ticket := core.NewTicketID()
	c.statsTicket = ticket
	c.mu.Unlock()

	c.log.Debug("fetching target stats for %q", column)
	start := time.Now()
	ts, err := c.svc.TargetStats(ctx, column)
	c.observe("target_stats", start, err)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.step != StepConfiguringModel || c.statsTicket != ticket || c.state == nil || c.state.Target() != column {
		c.discardStale("target_stats", column)
		return nil
	}
	c.statsTicket = ""
	if err != nil {
		c.log.Warn("target stats for %q unavailable: %v", column, err)
		c.sideWarning = fmt.Sprintf("Target statistics unavailable: %s", messageOf(err))
		return nil
	}
	if err := c.state.SetTargetStats(ts); err != nil {
		c.log.Warn("ignoring target stats: %v", err)
		c.sideWarning = "Target statistics unavailable: the service described another column"
	}
	return nil
}

// CheckURLs probes the target's top values for reachability. It is only
// offered when the most frequent value looks like a URL.
func (c *WizardController) CheckURLs(ctx context.Context) error {
	c.mu.Lock()
	if c.step != StepConfiguringModel {
		defer c.mu.Unlock()
		return errors.InvalidTransition(c.step.String(), "check URLs")
	}
	ts := c.state.TargetStats()
	if !ts.LooksLikeURLs() {
		c.mu.Unlock()
		return errors.InvalidInput("the target's values do not look like URLs")
	}
	column := c.state.Target()
	urls := ts.URLCandidates(c.th.URLCheckMax)
	ticket := core.NewTicketID()
	c.urlTicket = ticket
	c.mu.Unlock()

	c.log.Debug("checking %d URLs of %q", len(urls), column)
	start := time.Now()
	report, err := c.svc.CheckURLs(ctx, urls)
	c.observe("check_urls", start, err)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.step != StepConfiguringModel || c.urlTicket != ticket || c.state == nil ||
		c.state.Target() != column || c.state.TargetStats() != ts {
		c.discardStale("check_urls", column)
		return nil
	}
	c.urlTicket = ""
	if err != nil {
		c.log.Warn("URL check for %q failed: %v", column, err)
		c.sideWarning = fmt.Sprintf("URL check failed: %s", messageOf(err))
		return err
	}
	c.state.SetURLReport(report)
	c.log.Info("%d of %d URLs reachable", report.ReachableCount, report.CheckedCount)
	return nil
}

// Configure applies edits to the configuration state. The edits run against
// a copy that replaces the state only if fn succeeds, so a failed edit
// leaves nothing half applied. Use SelectTarget to change the target so its
// statistics are fetched.
func (c *WizardController) Configure(fn func(s *wizard.State) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.step != StepConfiguringModel {
		return errors.InvalidTransition(c.step.String(), "configure")
	}
	draft := c.state.Clone()
	if err := fn(draft); err != nil {
		return errors.WithCode(errors.CodeInvalidInput, err)
	}
	if draft.Target() != c.state.Target() {
		c.statsTicket = ""
		c.urlTicket = ""
		c.sideWarning = ""
	}
	c.state = draft
	return nil
}

// Submit validates the configuration, trains, and moves to ShowingResult no
// sooner than MinFeedbackDelay after the request was sent. Validation
// failures never reach the network. Any training failure returns to
// ConfiguringModel with the configuration untouched.
//
// After a successful run the run is recorded and exports are written
// concurrently. Recording failures are only logged; an export failure is
// returned together with the report.
func (c *WizardController) Submit(ctx context.Context, exports ...Export) (*training.Report, error) {
	if !c.trainSem.TryAcquire(1) {
		c.metrics.RecordBusy("train")
		return nil, errors.Busy("train")
	}
	defer c.trainSem.Release(1)

	c.mu.Lock()
	if c.step != StepConfiguringModel {
		defer c.mu.Unlock()
		return nil, errors.InvalidTransition(c.step.String(), "submit")
	}
	cfg, err := wizard.Validate(c.state, c.th)
	if err != nil {
		var ve *wizard.ValidationError
		if stderrors.As(err, &ve) {
			c.metrics.RecordValidationRejection(string(ve.Code))
		}
		c.lastErr = errors.Validation(err)
		c.mu.Unlock()
		return nil, c.lastErr
	}
	req := wizard.BuildRequest(cfg)
	session := c.session
	c.lastErr = nil
	// The submitted configuration is frozen; side fetches still in flight
	// must not land on it.
	c.statsTicket = ""
	c.urlTicket = ""
	_ = c.moveTo(StepSubmitting, "submit")
	c.mu.Unlock()

	c.log.Info("training %s %s on %q with %d features", cfg.TaskType, cfg.ModelType, cfg.Target, len(cfg.Features))
	start := time.Now()
	res, err := c.svc.Train(ctx, req)
	c.observe("train", start, err)

	var rep *training.Report
	if err == nil {
		rep, err = training.Interpret(res, c.th)
		if err != nil {
			err = errors.Protocol("training result could not be interpreted", err)
		}
	}
	if err != nil {
		if cfg.AutoResolved() {
			err = errors.MarkHeuristicDivergence(err)
		}
		c.mu.Lock()
		c.lastErr = err
		_ = c.moveTo(StepConfiguringModel, "recover from a failed submit")
		c.mu.Unlock()
		return nil, err
	}
	if rep.Kind != cfg.TaskType {
		c.log.Warn("service trained %s, request was resolved to %s", rep.Kind, cfg.TaskType)
	}

	c.holdFeedback(ctx, start)

	rec := run.NewRecord(session, req.Fingerprint(), cfg.Target, cfg.ModelType, cfg.AutoResolved())
	rec.ApplyReport(rep)

	c.mu.Lock()
	c.report = rep
	c.lastRun = &rec
	_ = c.moveTo(StepShowingResult, "show the result")
	c.mu.Unlock()

	return rep, c.finish(ctx, rec, rep, exports)
}

func (c *WizardController) holdFeedback(ctx context.Context, start time.Time) {
	remaining := c.opts.MinFeedbackDelay - time.Since(start)
	if remaining <= 0 {
		return
	}
	t := time.NewTimer(remaining)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}

func (c *WizardController) finish(ctx context.Context, rec run.Record, rep *training.Report, exports []Export) error {
	var g errgroup.Group

	if c.runs != nil {
		g.Go(func() error {
			if err := c.runs.SaveRun(ctx, rec); err != nil {
				c.log.Warn("failed to record run %s: %v", rec.ID, err)
				c.metrics.RecordRun(rec.TaskType, "error")
				return nil
			}
			c.metrics.RecordRun(rec.TaskType, "recorded")
			return nil
		})
	}
	for _, exp := range exports {
		exp := exp
		g.Go(func() error {
			if err := exp.Writer.WriteReport(exp.Path, rec, rep); err != nil {
				return errors.Wrapf(err, "failed to export report to %s", exp.Path)
			}
			c.log.Info("report written to %s", exp.Path)
			return nil
		})
	}
	return g.Wait()
}

// Abort discards the dataset and configuration and returns to AwaitingUpload.
func (c *WizardController) Abort() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.step != StepConfiguringModel {
		return errors.InvalidTransition(c.step.String(), "abort")
	}
	c.discard()
	return nil
}

// Reset leaves the result view and starts over.
func (c *WizardController) Reset() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.step != StepShowingResult {
		return errors.InvalidTransition(c.step.String(), "reset")
	}
	c.discard()
	return nil
}

func (c *WizardController) discard() {
	c.log.Debug("discarding session %s", c.session)
	c.session = ""
	c.state = nil
	c.report = nil
	c.lastRun = nil
	c.lastErr = nil
	c.sideWarning = ""
	c.statsTicket = ""
	c.urlTicket = ""
	c.step = StepAwaitingUpload
}

// Snapshot is a read-only view of the wizard for a presentation layer.
type Snapshot struct {
	Step      Step
	SessionID core.SessionID
	Stats     *dataset.ColumnStatistics

	TaskType    training.TaskType
	ModelType   training.ModelType
	Target      string
	Features    []string
	Standardize []string
	Normalize   []string
	SplitRatio  float64
	Epochs      int
	MaxDepth    int

	EligibleTargets []string
	Models          []training.ModelOption
	Capabilities    training.Capabilities

	TargetSummary *dataset.TargetSummary
	URLReport     *dataset.URLValidationReport
	AllowedValues []string

	Warnings  []string
	Report    *training.Report
	Run       *run.Record
	LastError error
}

// Snapshot returns the current view. Slices are copies.
func (c *WizardController) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := Snapshot{
		Step:      c.step,
		SessionID: c.session,
		Report:    c.report,
		LastError: c.lastErr,
	}
	if c.lastRun != nil {
		rec := *c.lastRun
		snap.Run = &rec
	}
	if c.state == nil {
		return snap
	}

	s := c.state
	snap.Stats = s.Stats()
	snap.TaskType = s.TaskType()
	snap.ModelType = s.ModelType()
	snap.Target = s.Target()
	snap.Features = s.Features()
	snap.Standardize = s.Standardize()
	snap.Normalize = s.Normalize()
	snap.SplitRatio = s.SplitRatio()
	snap.Epochs = s.Epochs()
	snap.MaxDepth, _ = s.MaxDepth()
	snap.EligibleTargets = s.EligibleTargets(c.th)
	snap.Models = s.AvailableModels()
	snap.Capabilities = s.Capabilities()
	snap.URLReport = s.URLReport()
	snap.AllowedValues = s.AllowedValues()

	if snap.Target != "" && !training.IsEligibleTarget(snap.Stats, snap.Target, snap.TaskType, c.th) {
		snap.Warnings = append(snap.Warnings, fmt.Sprintf(
			"Selected target may not work for %s task. Switch task type or select a different target.", snap.TaskType))
	}
	if ts := s.TargetStats(); ts != nil {
		summary := dataset.SummarizeTarget(ts, c.th.TopValuesDisplayed, c.th.ManyClassesWarning)
		snap.TargetSummary = &summary
		if summary.ManyClasses {
			snap.Warnings = append(snap.Warnings,
				"This target has many classes. Consider grouping rare labels or switching task type.")
		}
	}
	if c.sideWarning != "" {
		snap.Warnings = append(snap.Warnings, c.sideWarning)
	}
	return snap
}

// DescribeError turns a wizard error into a message for the user.
func DescribeError(err error) string {
	if err == nil {
		return ""
	}
	switch errors.KindOf(err) {
	case errors.KindConnectivity:
		return "The training service is offline. Check that it is running and try again."
	case errors.KindService:
		msg := errors.ServiceMessage(err)
		if errors.IsHeuristicDivergence(err) {
			return "The training service disagreed with the auto-detected task type: " + msg
		}
		return msg
	case errors.KindValidation:
		var ve *wizard.ValidationError
		if stderrors.As(err, &ve) {
			return ve.Message
		}
	}
	return err.Error()
}

func messageOf(err error) string {
	if msg := errors.ServiceMessage(err); msg != "" {
		return msg
	}
	return err.Error()
}

func (c *WizardController) expect(step Step, action string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.step != step {
		return errors.InvalidTransition(c.step.String(), action)
	}
	return nil
}

// moveTo must be called with c.mu held.
func (c *WizardController) moveTo(next Step, action string) error {
	if !c.step.CanTransitionTo(next) {
		return errors.InvalidTransition(c.step.String(), action)
	}
	c.log.Debug("step %s -> %s", c.step, next)
	c.step = next
	return nil
}

func (c *WizardController) setError(err error) {
	c.mu.Lock()
	c.lastErr = err
	c.mu.Unlock()
}

// discardStale must be called with c.mu held.
func (c *WizardController) discardStale(operation, issuedFor string) {
	current := ""
	if c.state != nil {
		current = c.state.Target()
	}
	c.log.Debug("discarding stale %s response for %q (current target %q)", operation, issuedFor, current)
	c.metrics.RecordStaleDiscard(operation)
}

func (c *WizardController) observe(operation string, start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = string(errors.KindOf(err))
	}
	c.metrics.RecordServiceCall(operation, outcome, time.Since(start))
	if err != nil {
		c.log.Warn("%s failed after %s: %v", operation, time.Since(start).Round(time.Millisecond), err)
		return
	}
	c.log.Debug("%s completed in %s", operation, time.Since(start).Round(time.Millisecond))
}
