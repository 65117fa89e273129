package plans

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/2beens/liftlog/internal/auth"
	"github.com/2beens/liftlog/internal/dates"
	"github.com/2beens/liftlog/internal/telemetry/metrics"
	"github.com/2beens/liftlog/internal/telemetry/tracing"
	"github.com/2beens/liftlog/internal/workouts"
	"github.com/2beens/liftlog/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

const maxPlanBytes = 1 << 20

// RepoFactory returns the plans repo of a signed in user, nil without a backend.
type RepoFactory func(session *auth.Session) Repo

type PlansResponse struct {
	Plans              []WorkoutPlan `json:"plans"`
	BackendUnavailable bool          `json:"backendUnavailable"`
}

type DayResponse struct {
	Day      string                  `json:"day"`
	Template *DayTemplate            `json:"template"`
	Prefill  []workouts.ExerciseData `json:"prefill"`
}

type ValidationResponse struct {
	Problems []string `json:"problems"`
}

type Handler struct {
	repoFactory    RepoFactory
	metricsManager *metrics.Manager
}

func NewHandler(repoFactory RepoFactory, metricsManager *metrics.Manager) *Handler {
	return &Handler{
		repoFactory:    repoFactory,
		metricsManager: metricsManager,
	}
}

func (handler *Handler) service(w http.ResponseWriter, r *http.Request) (*Service, bool) {
	session, ok := auth.SessionFrom(r.Context())
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return nil, false
	}
	return NewService(handler.repoFactory(session), handler.metricsManager), true
}

func (handler *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.plans.list")
	defer span.End()

	service, ok := handler.service(w, r)
	if !ok {
		return
	}
	pkg.WriteJSON(w, PlansResponse{
		Plans:              service.List(ctx),
		BackendUnavailable: !service.Available(),
	}, http.StatusOK)
}

func (handler *Handler) HandleDemo(w http.ResponseWriter, r *http.Request) {
	pkg.WriteJSON(w, DemoPlan(), http.StatusOK)
}

func (handler *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.plans.get")
	defer span.End()

	service, ok := handler.service(w, r)
	if !ok {
		return
	}
	plan := service.Get(ctx, mux.Vars(r)["id"])
	if plan == nil {
		http.Error(w, "error, plan not found", http.StatusNotFound)
		return
	}
	pkg.WriteJSON(w, plan, http.StatusOK)
}

// HandleDay answers the template scheduled for a week day. The day is a
// schedule key ("monday") or a YYYY-MM-DD date.
func (handler *Handler) HandleDay(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.plans.day")
	defer span.End()

	day := strings.ToLower(mux.Vars(r)["day"])
	if dates.IsValid(day) {
		t, err := dates.ParseLocalDate(day)
		if err != nil {
			http.Error(w, "error, invalid date", http.StatusBadRequest)
			return
		}
		day = DayKey(t)
	}

	service, ok := handler.service(w, r)
	if !ok {
		return
	}
	plan := service.Get(ctx, mux.Vars(r)["id"])
	if plan == nil {
		http.Error(w, "error, plan not found", http.StatusNotFound)
		return
	}

	resp := DayResponse{
		Day:      day,
		Template: DayTemplateFor(*plan, day),
		Prefill:  []workouts.ExerciseData{},
	}
	if resp.Template != nil {
		for _, e := range resp.Template.Exercises {
			resp.Prefill = append(resp.Prefill, e.ExerciseData())
		}
	}
	pkg.WriteJSON(w, resp, http.StatusOK)
}

func readPlan(r *http.Request) (*WorkoutPlan, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxPlanBytes))
	if err != nil {
		return nil, err
	}
	format := FormatJSON
	if strings.Contains(r.Header.Get("Content-Type"), "yaml") {
		format = FormatYAML
	}
	return Load(bytes.NewReader(body), format)
}

// HandleValidate checks a plan file without storing it.
func (handler *Handler) HandleValidate(w http.ResponseWriter, r *http.Request) {
	plan, err := readPlan(r)
	if err != nil {
		log.Tracef("validate plan: %s", err)
		http.Error(w, "error, invalid plan file", http.StatusBadRequest)
		return
	}
	problems := ValidateSchedule(*plan)
	if problems == nil {
		problems = []string{}
	}
	pkg.WriteJSON(w, ValidationResponse{Problems: problems}, http.StatusOK)
}

func (handler *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.plans.create")
	defer span.End()

	plan, err := readPlan(r)
	if err != nil {
		log.Tracef("create plan: %s", err)
		http.Error(w, "error, invalid plan file", http.StatusBadRequest)
		return
	}

	service, ok := handler.service(w, r)
	if !ok {
		return
	}
	created, err := service.Create(ctx, *plan)
	if err != nil {
		if errors.Is(err, ErrInvalidPlan) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, "error, something went wrong", http.StatusInternalServerError)
		return
	}
	if created == nil {
		http.Error(w, "error, failed to create plan, try again", http.StatusBadGateway)
		return
	}
	pkg.WriteJSON(w, created, http.StatusCreated)
}
