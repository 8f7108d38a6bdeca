package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"pipewiz/adapters/render"
	"pipewiz/app"
	"pipewiz/domain/core"
	"pipewiz/domain/run"
	"pipewiz/domain/training"
	"pipewiz/domain/wizard"
	"pipewiz/internal"
	"pipewiz/internal/config"
	"pipewiz/internal/container"
)

var (
	verbose     bool
	metricsAddr string
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := &cobra.Command{
		Use:   "pipewiz",
		Short: "Guided model training against a training service",
		Long: `pipewiz uploads a dataset to a training service, helps pick a target and
features, validates the configuration locally and trains a model.

The training service is located by TRAINING_SERVICE_URL (default http://localhost:8000).
Settings are read from the environment and from a .env file if present.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address while the command runs")

	rootCmd.AddCommand(
		newTargetsCmd(),
		newInspectCmd(),
		newTrainCmd(),
		newHistoryCmd(),
	)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", app.DescribeError(err))
		os.Exit(1)
	}
}

// setup loads configuration and builds the container for one command.
func setup(ctx context.Context) (*container.Container, func(), error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "warning: could not read .env: %v\n", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if verbose {
		cfg.Logging.Level = "DEBUG"
	}
	if metricsAddr != "" {
		cfg.Metrics.Enabled = true
	}

	log := internal.NewLogger(internal.ParseLogLevel(cfg.Logging.Level), cfg.Logging.Format, os.Stderr)
	internal.DefaultLogger = log

	c, err := container.New(cfg, log)
	if err != nil {
		return nil, nil, err
	}
	if err := c.Connect(ctx); err != nil {
		return nil, nil, err
	}

	stopMetrics := serveMetrics(c, log)
	cleanup := func() {
		stopMetrics()
		if err := c.Shutdown(context.Background()); err != nil {
			log.Warn("shutdown: %v", err)
		}
	}
	return c, cleanup, nil
}

func serveMetrics(c *container.Container, log *internal.Logger) func() {
	if metricsAddr == "" {
		return func() {}
	}
	srv := &http.Server{Addr: metricsAddr, Handler: c.Metrics.Router()}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("metrics server: %v", err)
		}
	}()
	log.Info("serving metrics on %s/metrics", metricsAddr)

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}

func newTargetsCmd() *cobra.Command {
	var task string

	cmd := &cobra.Command{
		Use:   "targets <file>",
		Short: "List the columns that can be predicted",
		Long: `Upload a dataset and list, for each task type, the columns that are
suitable prediction targets.

Example: pipewiz targets data.csv --task regression`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tasks := []training.TaskType{training.TaskClassification, training.TaskRegression}
			if task != "" {
				t, err := training.ParseTaskType(task)
				if err != nil {
					return err
				}
				tasks = []training.TaskType{t}
			}

			c, cleanup, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			wiz := c.NewWizard()
			if err := wiz.UploadFile(cmd.Context(), args[0]); err != nil {
				return err
			}
			defer wiz.Abort()

			snap := wiz.Snapshot()
			fmt.Printf("%d rows, %d columns\n\n", snap.Stats.Rows, len(snap.Stats.Columns))
			fmt.Printf("%-24s %-12s %s\n", "COLUMN", "TYPE", "UNIQUE")
			for _, col := range snap.Stats.Columns {
				unique := "-"
				if n := snap.Stats.UniqueCount(col); n > 0 {
					unique = fmt.Sprint(n)
				}
				fmt.Printf("%-24s %-12s %s\n", col, snap.Stats.TypeOf(col), unique)
			}

			for _, t := range tasks {
				if err := wiz.Configure(func(s *wizard.State) error { return s.SetTaskType(t) }); err != nil {
					return err
				}
				eligible := wiz.Snapshot().EligibleTargets
				fmt.Printf("\n%s targets: %s\n", t, joinOrNone(eligible))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&task, "task", "", "only list targets for auto, classification or regression")
	return cmd
}

func newInspectCmd() *cobra.Command {
	var (
		target    string
		checkURLs bool
	)

	cmd := &cobra.Command{
		Use:   "inspect <file>",
		Short: "Show the value distribution of a target column",
		Long: `Upload a dataset and show the most frequent values of a target column.
When the values look like URLs, --check-urls probes them for reachability.

Example: pipewiz inspect data.csv --target label`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, cleanup, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			wiz := c.NewWizard()
			if err := wiz.UploadFile(cmd.Context(), args[0]); err != nil {
				return err
			}
			defer wiz.Abort()

			if err := wiz.SelectTarget(cmd.Context(), target); err != nil {
				return err
			}
			snap := wiz.Snapshot()
			if summary := snap.TargetSummary; summary != nil {
				fmt.Printf("%s: %d distinct values\n", summary.Column, summary.UniqueCount)
				for _, tv := range summary.Displayed {
					fmt.Printf("  %-40s %d\n", tv.Value, tv.Count)
				}
				fmt.Printf("top-value counts: mean %.1f, median %.1f, stddev %.1f, imbalance %.1fx\n",
					summary.MeanCount, summary.MedianCount, summary.StdDevCount, summary.ImbalanceRatio)

				if summary.OfferURLCheck && checkURLs {
					if err := wiz.CheckURLs(cmd.Context()); err != nil {
						return err
					}
					snap = wiz.Snapshot()
					if rep := snap.URLReport; rep != nil {
						fmt.Printf("\n%d of %d URLs reachable\n", rep.ReachableCount, rep.CheckedCount)
						for _, r := range rep.Results {
							status := "no response"
							if r.Status != nil {
								status = fmt.Sprintf("HTTP %d", *r.Status)
							}
							fmt.Printf("  %-5v %-12s %s\n", r.Reachable, status, r.URL)
						}
					}
				} else if summary.OfferURLCheck {
					fmt.Println("\nvalues look like URLs; rerun with --check-urls to probe them")
				}
			}
			printWarnings(snap.Warnings)
			return nil
		},
	}

	cmd.Flags().StringVar(&target, "target", "", "column to inspect")
	cmd.Flags().BoolVar(&checkURLs, "check-urls", false, "probe URL values for reachability")
	_ = cmd.MarkFlagRequired("target")
	return cmd
}

type trainFlags struct {
	target        string
	features      []string
	model         string
	task          string
	split         string
	epochs        int
	maxDepth      int
	standardize   []string
	normalize     []string
	reachableOnly bool
	xlsx          string
	html          string
}

func newTrainCmd() *cobra.Command {
	var f trainFlags

	cmd := &cobra.Command{
		Use:   "train <file>",
		Short: "Configure and train a model",
		Long: `Upload a dataset, configure a model and train it. The configuration is
validated locally before anything is sent for training.

Features default to every column except the target. Epochs apply to the
linear and random forest models, --max-depth only to decision trees, and
preprocessing only to the linear model.

Example: pipewiz train data.csv --target label --model decision_tree --max-depth 4 --html report.html`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrain(cmd, args[0], f)
		},
	}

	cmd.Flags().StringVar(&f.target, "target", "", "column to predict")
	cmd.Flags().StringSliceVar(&f.features, "features", nil, "input columns (default: all but the target)")
	cmd.Flags().StringVar(&f.model, "model", "logistic", "logistic|linear, decision_tree or random_forest")
	cmd.Flags().StringVar(&f.task, "task", "auto", "auto, classification or regression")
	cmd.Flags().StringVar(&f.split, "split", "80-20", "train-test preset (70-30, 80-20, 90-10) or held-out fraction")
	cmd.Flags().IntVar(&f.epochs, "epochs", training.DefaultEpochs, "training epochs")
	cmd.Flags().IntVar(&f.maxDepth, "max-depth", training.DefaultMaxDepth, "decision tree depth limit (0 for none)")
	cmd.Flags().StringSliceVar(&f.standardize, "standardize", nil, "numeric features to standardize")
	cmd.Flags().StringSliceVar(&f.normalize, "normalize", nil, "numeric features to normalize")
	cmd.Flags().BoolVar(&f.reachableOnly, "reachable-only", false, "train only on rows whose URL target is reachable")
	cmd.Flags().StringVar(&f.xlsx, "xlsx", "", "write the report to this .xlsx file")
	cmd.Flags().StringVar(&f.html, "html", "", "write the report to this .html or .md file")
	_ = cmd.MarkFlagRequired("target")
	return cmd
}

func runTrain(cmd *cobra.Command, path string, f trainFlags) error {
	ctx := cmd.Context()

	task, err := training.ParseTaskType(f.task)
	if err != nil {
		return err
	}
	model, err := training.ParseModelType(f.model)
	if err != nil {
		return err
	}
	split, err := training.ParseSplit(f.split)
	if err != nil {
		return err
	}

	c, cleanup, err := setup(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	var exports []app.Export
	for _, out := range []string{f.xlsx, f.html} {
		if out == "" {
			continue
		}
		exp, err := c.ExportFor(out)
		if err != nil {
			return err
		}
		exports = append(exports, exp)
	}

	wiz := c.NewWizard()
	if err := wiz.UploadFile(ctx, path); err != nil {
		return err
	}
	if err := wiz.SelectTarget(ctx, f.target); err != nil {
		return err
	}
	if f.reachableOnly {
		if err := wiz.CheckURLs(ctx); err != nil {
			return err
		}
	}

	var skipped []string
	err = wiz.Configure(func(s *wizard.State) error {
		if err := s.SetTaskType(task); err != nil {
			return err
		}
		if err := s.SetModelType(model); err != nil {
			return err
		}
		features := f.features
		if len(features) == 0 {
			for _, col := range s.Stats().Columns {
				if col != s.Target() {
					features = append(features, col)
				}
			}
		}
		for _, col := range features {
			if !s.Stats().HasColumn(col) {
				return fmt.Errorf("unknown feature column %q", col)
			}
		}
		s.SetFeatures(features)
		for _, col := range f.standardize {
			if !s.ToggleStandardize(col) {
				skipped = append(skipped, "standardize "+col)
			}
		}
		for _, col := range f.normalize {
			if !s.ToggleNormalize(col) {
				skipped = append(skipped, "normalize "+col)
			}
		}
		s.SetSplitRatio(split)
		if err := s.SetEpochs(f.epochs); err != nil {
			return err
		}
		if err := s.SetMaxDepth(f.maxDepth); err != nil {
			return err
		}
		s.SetReachableOnly(f.reachableOnly)
		return nil
	})
	if err != nil {
		return err
	}
	for _, s := range skipped {
		fmt.Fprintf(os.Stderr, "ignored: %s (needs a numeric feature and a model with preprocessing)\n", s)
	}
	printWarnings(wiz.Snapshot().Warnings)

	fmt.Fprintln(os.Stderr, "Training...")
	rep, err := wiz.Submit(ctx, exports...)
	if rep != nil {
		snap := wiz.Snapshot()
		fmt.Println(render.Markdown(*snap.Run, rep))
	}
	return err
}

func newHistoryCmd() *cobra.Command {
	var (
		limit   int
		runID   string
		session string
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded training runs",
		Long: `List training runs recorded in run history, newest first. History persists
across invocations only when DATABASE_URL is set.

Use --run to show a single run or --session to list the runs of one wizard session.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, cleanup, err := setup(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			var runs []run.Record
			switch {
			case runID != "":
				id, err := core.ParseRunID(runID)
				if err != nil {
					return err
				}
				rec, err := c.RunRepo.GetRun(ctx, id)
				if err != nil {
					return err
				}
				runs = []run.Record{*rec}
			case session != "":
				sid, err := core.ParseSessionID(session)
				if err != nil {
					return err
				}
				if runs, err = c.RunRepo.ListSessionRuns(ctx, sid); err != nil {
					return err
				}
			default:
				if runs, err = c.RunRepo.ListRuns(ctx, limit); err != nil {
					return err
				}
			}
			printRuns(runs)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of runs to list (0 for all)")
	cmd.Flags().StringVar(&runID, "run", "", "show only the run with this id")
	cmd.Flags().StringVar(&session, "session", "", "list only the runs of this session")
	cmd.MarkFlagsMutuallyExclusive("run", "session")
	return cmd
}

func printRuns(runs []run.Record) {
	if len(runs) == 0 {
		fmt.Println("no runs recorded")
		return
	}
	fmt.Printf("%-20s %-16s %-15s %-14s %-12s %s\n", "WHEN", "TARGET", "TASK", "MODEL", "HEADLINE", "ID")
	for _, r := range runs {
		task := r.TaskType
		if r.AutoResolved {
			task += "*"
		}
		fmt.Printf("%-20s %-16s %-15s %-14s %-12s %s\n",
			r.CreatedAt.Local().Format("2006-01-02 15:04:05"), r.Target, task, r.ModelType, r.Headline, r.ID)
	}
	fmt.Println("\n* task type picked automatically")
}

func printWarnings(warnings []string) {
	for _, w := range warnings {
		fmt.Fprintln(os.Stderr, "warning:", w)
	}
}

func joinOrNone(xs []string) string {
	if len(xs) == 0 {
		return "none"
	}
	return strings.Join(xs, ", ")
}
