package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/2beens/liftlog/internal/telemetry/metrics"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// PanicRecovery turns a handler panic into a 500. The panic is counted per
// route and recorded on the request span.
func PanicRecovery(metricsManager *metrics.Manager) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(respWriter http.ResponseWriter, req *http.Request) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}

				route := routeName(req)
				log.Errorf("http: panic serving %s [%s]: %v\n%s", req.URL.Path, route, r, debug.Stack())

				span := trace.SpanFromContext(req.Context())
				span.RecordError(fmt.Errorf("panic: %v", r))
				span.SetStatus(codes.Error, "panic")

				if metricsManager != nil {
					metricsManager.CounterHandleRequestPanic.WithLabelValues(route).Inc()
				}
				http.Error(respWriter, "internal error", http.StatusInternalServerError)
			}()

			next.ServeHTTP(respWriter, req)
		})
	}
}
