package progress

import (
	"net/http"
	"net/url"
	"time"

	"github.com/2beens/liftlog/internal/auth"
	"github.com/2beens/liftlog/internal/session"
	"github.com/2beens/liftlog/internal/telemetry/tracing"
	"github.com/2beens/liftlog/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type Handler struct {
	registry *session.Registry
	loc      *time.Location
}

func NewHandler(registry *session.Registry, loc *time.Location) *Handler {
	return &Handler{
		registry: registry,
		loc:      loc,
	}
}

// HandleExerciseProgress answers /exercises/progress/{exercise}?from=&to=.
func (handler *Handler) HandleExerciseProgress(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.progress.exercise")
	defer span.End()

	userSession, ok := auth.SessionFrom(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	exercise, err := url.PathUnescape(mux.Vars(r)["exercise"])
	if err != nil || exercise == "" {
		http.Error(w, "error, invalid exercise", http.StatusBadRequest)
		return
	}

	store := handler.registry.Get(ctx, userSession)
	analyzer := NewAnalyzer(store, handler.loc)
	query := r.URL.Query()
	result, err := analyzer.ExerciseProgress(ctx, exercise, query.Get("from"), query.Get("to"))
	if err != nil {
		log.Tracef("exercise progress: %s", err)
		http.Error(w, "error, invalid range", http.StatusBadRequest)
		return
	}
	pkg.WriteJSON(w, result, http.StatusOK)
}
