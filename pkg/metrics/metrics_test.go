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

func TestMetrics_RecordExecution(t *testing.T) {
	m := New(DefaultConfig("execution-service"))

	m.RecordStep("picking", "scan_location", "accepted")
	m.RecordStep("picking", "scan_location", "accepted")
	m.RecordRowCommitted("picking", true, 20*time.Millisecond)
	m.RecordListCompleted("inventory")
	m.RecordVoiceUtterance("")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.StepsTotal.WithLabelValues("execution-service", "picking", "scan_location", "accepted")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RowsCommitted.WithLabelValues("execution-service", "picking", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ListsCompleted.WithLabelValues("execution-service", "inventory")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.VoiceUtterances.WithLabelValues("execution-service", "unrecognized")))
}

func TestMetrics_Handler(t *testing.T) {
	m := New(DefaultConfig("execution-service"))
	m.SetExecutionsActive(3)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "wms_executions_active")
}
