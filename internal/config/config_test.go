package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pipewiz/internal/errors"
)

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, time.Second, cfg.Wizard.MinFeedbackDelay)
	assert.Equal(t, int64(10<<20), cfg.Wizard.MaxUploadBytes)
	assert.Equal(t, 20, cfg.Thresholds.CategoricalUniqueMax)
	assert.Equal(t, 0.5, cfg.Thresholds.SplitRatioMax)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("TRAINING_SERVICE_URL", "http://trainer:9000/")
	t.Setenv("TRAINING_SERVICE_TIMEOUT", "45s")
	t.Setenv("MIN_FEEDBACK_DELAY", "0s")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("METRICS_ENABLED", "true")
	t.Setenv("DATABASE_URL", "postgres://localhost/pipewiz")
	t.Setenv("WIZARD_CONFIG", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://trainer:9000", cfg.Service.URL)
	assert.Equal(t, 45*time.Second, cfg.Service.Timeout)
	assert.Equal(t, time.Duration(0), cfg.Wizard.MinFeedbackDelay)
	assert.Equal(t, "DEBUG", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, "postgres://localhost/pipewiz", cfg.Database.URL)
}

func TestLoad_RejectsBadLogFormat(t *testing.T) {
	t.Setenv("LOG_FORMAT", "xml")
	t.Setenv("WIZARD_CONFIG", "")

	_, err := Load()
	require.Error(t, err)
	assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
}

func TestApplyFile_PartialOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wizard.yaml")
	require.NoError(t, os.WriteFile(path, []byte("thresholds:\n  categorical_unique_max: 12\n  url_check_max: 25\n"), 0o600))

	cfg := Default()
	require.NoError(t, cfg.ApplyFile(path))

	assert.Equal(t, 12, cfg.Thresholds.CategoricalUniqueMax)
	assert.Equal(t, 25, cfg.Thresholds.URLCheckMax)
	assert.Equal(t, 20, cfg.Thresholds.AutoRegressionUniqueMin, "unset keys keep defaults")
	assert.NoError(t, cfg.Validate())
}

func TestValidate_ThresholdBounds(t *testing.T) {
	cfg := Default()
	cfg.Thresholds.SplitRatioMin = 0.6
	cfg.Thresholds.SplitRatioMax = 0.4
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SplitRatioMax")

	cfg = Default()
	cfg.Thresholds.MinClasses = 1
	assert.Error(t, cfg.Validate())
}

func TestApplyFile_Errors(t *testing.T) {
	cfg := Default()
	err := cfg.ApplyFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("thresholds: [1, 2"), 0o600))
	err = cfg.ApplyFile(path)
	assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
}
