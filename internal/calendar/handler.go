package calendar

import (
	"net/http"
	"net/url"
	"time"

	"github.com/2beens/liftlog/internal/auth"
	"github.com/2beens/liftlog/internal/dates"
	"github.com/2beens/liftlog/internal/muscles"
	"github.com/2beens/liftlog/internal/session"
	"github.com/2beens/liftlog/internal/telemetry/tracing"
	"github.com/2beens/liftlog/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type MusclesResponse struct {
	Exercise string   `json:"exercise"`
	Muscles  []string `json:"muscles"`
}

type Handler struct {
	registry *session.Registry
	table    *muscles.Table
	loc      *time.Location
}

func NewHandler(registry *session.Registry, table *muscles.Table, loc *time.Location) *Handler {
	if table == nil {
		table = muscles.Default()
	}
	return &Handler{
		registry: registry,
		table:    table,
		loc:      loc,
	}
}

func (handler *Handler) calendar(w http.ResponseWriter, r *http.Request) (*Calendar, bool) {
	userSession, ok := auth.SessionFrom(r.Context())
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return nil, false
	}
	store := handler.registry.Get(r.Context(), userSession)
	return New(store, handler.table, handler.loc), true
}

// HandleView answers /calendar?view=year|month|week&date=YYYY-MM-DD. The
// view defaults to month and the date to today.
func (handler *Handler) HandleView(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.calendar.view")
	defer span.End()

	kind, err := ParseKind(r.URL.Query().Get("view"))
	if err != nil {
		http.Error(w, "error, invalid view", http.StatusBadRequest)
		return
	}
	date := r.URL.Query().Get("date")
	if date == "" {
		date = dates.Today()
	}

	cal, ok := handler.calendar(w, r)
	if !ok {
		return
	}
	view, err := cal.View(ctx, kind, date)
	if err != nil {
		log.Tracef("calendar view: %s", err)
		http.Error(w, "error, invalid date", http.StatusBadRequest)
		return
	}
	pkg.WriteJSON(w, view, http.StatusOK)
}

func (handler *Handler) HandleDay(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.calendar.day")
	defer span.End()

	cal, ok := handler.calendar(w, r)
	if !ok {
		return
	}
	summary, err := cal.DaySummary(ctx, mux.Vars(r)["date"])
	if err != nil {
		http.Error(w, "error, invalid date", http.StatusBadRequest)
		return
	}
	pkg.WriteJSON(w, summary, http.StatusOK)
}

func (handler *Handler) HandleMuscleFrequency(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.calendar.musclefrequency")
	defer span.End()

	cal, ok := handler.calendar(w, r)
	if !ok {
		return
	}
	query := r.URL.Query()
	frequency, err := cal.MuscleFrequency(ctx, query.Get("from"), query.Get("to"))
	if err != nil {
		log.Tracef("muscle frequency: %s", err)
		http.Error(w, "error, invalid range", http.StatusBadRequest)
		return
	}
	pkg.WriteJSON(w, frequency, http.StatusOK)
}

// HandleMuscles resolves the muscle groups of one exercise name.
func (handler *Handler) HandleMuscles(w http.ResponseWriter, r *http.Request) {
	exercise, err := url.PathUnescape(mux.Vars(r)["exercise"])
	if err != nil || exercise == "" {
		http.Error(w, "error, invalid exercise", http.StatusBadRequest)
		return
	}
	pkg.WriteJSON(w, MusclesResponse{
		Exercise: exercise,
		Muscles:  handler.table.For(exercise),
	}, http.StatusOK)
}
