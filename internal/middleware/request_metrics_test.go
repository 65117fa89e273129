package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/2beens/liftlog/internal/telemetry/metrics"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRequestMetrics(t *testing.T) {
	metricsManager := metrics.NewTestManager()

	r := mux.NewRouter()
	r.HandleFunc("/workouts/{id}", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}).Name("get-workout")
	r.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {})
	r.Use(RequestMetrics(metricsManager))

	for _, path := range []string{"/workouts/1", "/workouts/2", "/status"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, float64(2), testutil.ToFloat64(metricsManager.CounterRequests.WithLabelValues("GET", "404")))
	assert.Equal(t, float64(1), testutil.ToFloat64(metricsManager.CounterRequests.WithLabelValues("GET", "200")))
	assert.Equal(t, 2, testutil.CollectAndCount(metricsManager.HistogramRequestDuration))
}
