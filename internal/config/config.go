package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"pipewiz/domain/training"
	"pipewiz/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Service    ServiceConfig
	Wizard     WizardConfig
	Thresholds training.Thresholds
	Database   DatabaseConfig
	Logging    LoggingConfig
	Metrics    MetricsConfig
}

// ServiceConfig locates the training service
type ServiceConfig struct {
	URL             string        `validate:"required,url"`
	Timeout         time.Duration `validate:"gt=0"`
	URLCheckTimeout time.Duration `validate:"gt=0"`
}

// WizardConfig holds wizard behaviour settings
type WizardConfig struct {
	// MinFeedbackDelay is the shortest time a submission stays in Submitting.
	MinFeedbackDelay time.Duration `validate:"gte=0"`
	MaxUploadBytes   int64         `validate:"gt=0"`
}

// DatabaseConfig holds run-history storage settings. An empty URL selects
// in-memory history.
type DatabaseConfig struct {
	URL string
}

// LoggingConfig holds log output settings
type LoggingConfig struct {
	Level  string `validate:"oneof=ERROR WARN INFO DEBUG TRACE"`
	Format string `validate:"oneof=console json"`
}

// MetricsConfig holds Prometheus settings
type MetricsConfig struct {
	Enabled   bool
	Namespace string `validate:"required"`
}

// fileConfig is the shape of the optional WIZARD_CONFIG YAML file.
type fileConfig struct {
	Thresholds training.Thresholds `yaml:"thresholds"`
}

// Default returns a fully populated configuration with built-in defaults.
func Default() *Config {
	return &Config{
		Service: ServiceConfig{
			URL:             "http://localhost:8000",
			Timeout:         120 * time.Second,
			URLCheckTimeout: 30 * time.Second,
		},
		Wizard: WizardConfig{
			MinFeedbackDelay: time.Second,
			MaxUploadBytes:   10 << 20,
		},
		Thresholds: training.DefaultThresholds(),
		Logging: LoggingConfig{
			Level:  "INFO",
			Format: "console",
		},
		Metrics: MetricsConfig{
			Namespace: "pipewiz",
		},
	}
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := Default()

	config.Service = ServiceConfig{
		URL:             strings.TrimRight(getEnvOrDefault("TRAINING_SERVICE_URL", config.Service.URL), "/"),
		Timeout:         getEnvDurationOrDefault("TRAINING_SERVICE_TIMEOUT", config.Service.Timeout),
		URLCheckTimeout: getEnvDurationOrDefault("URL_CHECK_TIMEOUT", config.Service.URLCheckTimeout),
	}
	config.Wizard = WizardConfig{
		MinFeedbackDelay: getEnvDurationOrDefault("MIN_FEEDBACK_DELAY", config.Wizard.MinFeedbackDelay),
		MaxUploadBytes:   int64(getEnvIntOrDefault("MAX_UPLOAD_BYTES", int(config.Wizard.MaxUploadBytes))),
	}
	config.Database.URL = os.Getenv("DATABASE_URL")
	config.Logging = LoggingConfig{
		Level:  strings.ToUpper(getEnvOrDefault("LOG_LEVEL", config.Logging.Level)),
		Format: getEnvOrDefault("LOG_FORMAT", config.Logging.Format),
	}
	config.Metrics = MetricsConfig{
		Enabled:   getEnvBoolOrDefault("METRICS_ENABLED", false),
		Namespace: getEnvOrDefault("METRICS_NAMESPACE", config.Metrics.Namespace),
	}

	if path := os.Getenv("WIZARD_CONFIG"); path != "" {
		if err := config.ApplyFile(path); err != nil {
			return nil, err
		}
	}

	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

// ApplyFile overlays threshold overrides from a YAML file. Keys that are
// absent keep their current values.
func (c *Config) ApplyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.WithCode(errors.CodeConfigInvalid, errors.Wrapf(err, "failed to read %s", path))
	}
	fc := fileConfig{Thresholds: c.Thresholds}
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return errors.WithCode(errors.CodeConfigInvalid, errors.Wrapf(err, "failed to parse %s", path))
	}
	c.Thresholds = fc.Thresholds
	return nil
}

// Validate checks every section, thresholds included.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fe.Namespace()+" failed "+fe.Tag())
			}
			return errors.ConfigInvalid(strings.Join(msgs, "; "))
		}
		return errors.WithCode(errors.CodeConfigInvalid, err)
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
