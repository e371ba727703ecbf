package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder_Counts(t *testing.T) {
	r, err := NewRecorder(prometheus.NewRegistry())
	require.NoError(t, err)

	r.FactorResolved("co2", "exact")
	r.FactorResolved("co2", "exact")
	r.FactorResolved("water", "default")
	r.ScoreComputed("B")
	r.JobFinished("completed")
	r.Extracted("regex")
	r.ObserveStage("aggregate", time.Now())

	assert.Equal(t, 2.0, testutil.ToFloat64(r.factorLookups.WithLabelValues("co2", "exact")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.factorLookups.WithLabelValues("water", "default")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.scoresTotal.WithLabelValues("B")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.jobsTotal.WithLabelValues("completed")))
	assert.Equal(t, 1, testutil.CollectAndCount(r.stageDuration))
}

func TestRecorder_DoubleRegistrationFails(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewRecorder(reg)
	require.NoError(t, err)
	_, err = NewRecorder(reg)
	assert.Error(t, err)
}

func TestRecorder_NilIsNoop(t *testing.T) {
	var r *Recorder
	assert.NotPanics(t, func() {
		r.FactorResolved("co2", "fuzzy")
		r.ScoreComputed("A")
		r.ObserveStage("normalize", time.Now())
		r.JobFinished("failed")
		r.Extracted("remote")
		r.HTTPRequest("/healthz", http.MethodGet, 200)
	})
	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRecorder_Handler(t *testing.T) {
	r, err := NewDefault()
	require.NoError(t, err)
	r.ScoreComputed("C")

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `ecolabel_scores_total{grade="C"} 1`)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
