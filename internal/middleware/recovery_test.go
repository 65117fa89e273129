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

func newPanicTestRouter(metricsManager *metrics.Manager, next *panicRecTestHandler) *mux.Router {
	r := mux.NewRouter()
	r.Handle("/workouts/save", next).Methods("POST").Name("save-workout")
	r.Use(PanicRecovery(metricsManager))
	return r
}

func Test_panicRecoveryMiddleware_nonPanic(t *testing.T) {
	metricsManager := metrics.NewTestManager()
	next := &panicRecTestHandler{}
	router := newPanicTestRouter(metricsManager, next)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/workouts/save", nil)
	router.ServeHTTP(rr, req)

	assert.True(t, next.called)
	assert.Equal(t, http.StatusOK, rr.Code)
	// panic did not happen
	assert.Equal(t, 0, testutil.CollectAndCount(metricsManager.CounterHandleRequestPanic))
}

func Test_panicRecoveryMiddleware_panic(t *testing.T) {
	metricsManager := metrics.NewTestManager()
	next := &panicRecTestHandler{panic: true}
	router := newPanicTestRouter(metricsManager, next)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/workouts/save", nil)
	router.ServeHTTP(rr, req)

	assert.True(t, next.called)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	// panic DID happen, counted under the route name
	assert.Equal(t, float64(1), testutil.ToFloat64(metricsManager.CounterHandleRequestPanic.WithLabelValues("save-workout")))
}

func Test_panicRecoveryMiddleware_noRoute(t *testing.T) {
	metricsManager := metrics.NewTestManager()
	handlerFunc := PanicRecovery(metricsManager)(&panicRecTestHandler{panic: true})

	rr := httptest.NewRecorder()
	handlerFunc.ServeHTTP(rr, httptest.NewRequest("GET", "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, float64(1), testutil.ToFloat64(metricsManager.CounterHandleRequestPanic.WithLabelValues("unknown")))
}

type panicRecTestHandler struct {
	panic  bool
	called bool
}

func (p *panicRecTestHandler) ServeHTTP(http.ResponseWriter, *http.Request) {
	p.called = true
	if p.panic {
		panic("YOLO")
	}
}
