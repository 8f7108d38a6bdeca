package container

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"pipewiz/adapters/excel"
	"pipewiz/adapters/memory"
	"pipewiz/adapters/postgres"
	"pipewiz/adapters/render"
	"pipewiz/adapters/trainsvc"
	"pipewiz/app"
	"pipewiz/internal"
	"pipewiz/internal/config"
	"pipewiz/internal/errors"
	"pipewiz/internal/metrics"
	"pipewiz/internal/migration"
	"pipewiz/ports"
)

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config
	Log    *internal.Logger

	// Infrastructure
	DB      *sqlx.DB
	Metrics *metrics.Metrics

	// Collaborators
	TrainingService ports.TrainingService
	RunRepo         ports.RunRepository

	// Report exporters
	XLSXWriter ports.ReportWriter
	HTMLWriter ports.ReportWriter
}

// New creates a new dependency injection container. Run history starts in
// memory; call Connect to switch to PostgreSQL.
func New(cfg *config.Config, log *internal.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if log == nil {
		log = internal.NopLogger()
	}

	c := &Container{
		Config:  cfg,
		Log:     log,
		Metrics: metrics.New(metrics.Config{Enabled: cfg.Metrics.Enabled, Namespace: cfg.Metrics.Namespace}),
		TrainingService: trainsvc.NewClient(trainsvc.Config{
			BaseURL:         cfg.Service.URL,
			Timeout:         cfg.Service.Timeout,
			URLCheckTimeout: cfg.Service.URLCheckTimeout,
		}, log),
		RunRepo:    memory.NewRunRepository(),
		XLSXWriter: excel.NewReportWriter(),
		HTMLWriter: render.NewReportWriter(),
	}
	return c, nil
}

// Connect opens the configured database, if any, and moves run history onto it.
func (c *Container) Connect(ctx context.Context) error {
	if c.Config.Database.URL == "" {
		c.Log.Debug("no DATABASE_URL, keeping run history in memory")
		return nil
	}
	db, err := sqlx.ConnectContext(ctx, "postgres", c.Config.Database.URL)
	if err != nil {
		return errors.WithCode(errors.CodeDatabaseError, errors.Wrap(err, "failed to connect to database"))
	}
	if err := c.InitWithDatabase(ctx, db); err != nil {
		db.Close()
		return err
	}
	return nil
}

// InitWithDatabase migrates the schema and initializes database-backed repositories
func (c *Container) InitWithDatabase(ctx context.Context, db *sqlx.DB) error {
	if db == nil {
		return fmt.Errorf("database connection cannot be nil")
	}
	if err := db.PingContext(ctx); err != nil {
		return errors.WithCode(errors.CodeDatabaseError, errors.Wrap(err, "database connection test failed"))
	}
	if err := migration.NewRunner(c.Log).Run(ctx, db); err != nil {
		return err
	}

	c.DB = db
	c.RunRepo = postgres.NewRunRepository(db)
	c.Log.Info("run history stored in PostgreSQL")
	return nil
}

// NewWizard creates a wizard controller wired to the container's collaborators
func (c *Container) NewWizard() *app.WizardController {
	return app.NewWizardController(
		c.TrainingService,
		c.RunRepo,
		c.Config.Thresholds,
		app.WizardOptions{
			MinFeedbackDelay: c.Config.Wizard.MinFeedbackDelay,
			MaxUploadBytes:   c.Config.Wizard.MaxUploadBytes,
		},
		c.Log,
		c.Metrics,
	)
}

// ExportFor picks the report writer for a file name by its extension.
func (c *Container) ExportFor(path string) (app.Export, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return app.Export{Path: path, Writer: c.XLSXWriter}, nil
	case ".html", ".htm", ".md":
		return app.Export{Path: path, Writer: c.HTMLWriter}, nil
	default:
		return app.Export{}, errors.InvalidInput(fmt.Sprintf("no report format for %q: use .xlsx, .html or .md", path))
	}
}

// Shutdown gracefully shuts down all components
func (c *Container) Shutdown(ctx context.Context) error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}
