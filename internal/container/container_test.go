package container

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pipewiz/adapters/excel"
	"pipewiz/adapters/memory"
	"pipewiz/adapters/render"
	"pipewiz/app"
	"pipewiz/internal/config"
	"pipewiz/internal/errors"
)

func TestNew(t *testing.T) {
	_, err := New(nil, nil)
	assert.Error(t, err)

	c, err := New(config.Default(), nil)
	require.NoError(t, err)
	assert.IsType(t, &memory.RunRepository{}, c.RunRepo)
	assert.NotNil(t, c.TrainingService)

	require.NoError(t, c.Connect(context.Background()), "no database configured")
	assert.Nil(t, c.DB)

	wiz := c.NewWizard()
	assert.Equal(t, app.StepAwaitingUpload, wiz.Step())
	assert.NoError(t, c.Shutdown(context.Background()))
}

func TestExportFor(t *testing.T) {
	c, err := New(config.Default(), nil)
	require.NoError(t, err)
	dir := t.TempDir()

	exp, err := c.ExportFor(filepath.Join(dir, "out.XLSX"))
	require.NoError(t, err)
	assert.IsType(t, &excel.ReportWriter{}, exp.Writer)

	exp, err = c.ExportFor(filepath.Join(dir, "out.html"))
	require.NoError(t, err)
	assert.IsType(t, &render.ReportWriter{}, exp.Writer)

	_, err = c.ExportFor("out.pdf")
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
}
