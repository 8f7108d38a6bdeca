package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Disabled(t *testing.T) {
	m := New(Config{Enabled: false})
	assert.NotPanics(t, func() {
		m.RecordServiceCall("train", "ok", time.Second)
		m.RecordValidationRejection("MissingTarget")
		m.RecordStaleDiscard("target_stats")
		m.RecordBusy("upload")
		m.RecordRun("classification", "ok")
	})
	assert.Nil(t, m.Registry())

	var nilMetrics *Metrics
	assert.NotPanics(t, func() { nilMetrics.RecordBusy("train") })

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMetrics_Counts(t *testing.T) {
	m := New(Config{Enabled: true, Namespace: "pipewiz"})

	m.RecordServiceCall("train", "ok", 20*time.Millisecond)
	m.RecordServiceCall("train", "ok", 30*time.Millisecond)
	m.RecordServiceCall("upload", "error", time.Millisecond)
	m.RecordStaleDiscard("target_stats")
	m.RecordValidationRejection("MissingTarget")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.serviceCalls.WithLabelValues("train", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.serviceCalls.WithLabelValues("upload", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.staleDiscarded.WithLabelValues("target_stats")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.validationErrors.WithLabelValues("MissingTarget")))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "pipewiz_service_calls_total")
}

func TestMetrics_Router(t *testing.T) {
	m := New(Config{Enabled: true, Namespace: "pipewiz"})
	m.RecordBusy("train")
	router := m.Router()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `pipewiz_busy_rejections_total{operation="train"} 1`)
}
