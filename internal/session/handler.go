package session

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/2beens/liftlog/internal/auth"
	"github.com/2beens/liftlog/internal/dates"
	"github.com/2beens/liftlog/internal/telemetry/tracing"
	"github.com/2beens/liftlog/internal/workouts"
	"github.com/2beens/liftlog/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

const maxBodyBytes = 64 << 10

type DraftResponse struct {
	Type               workouts.WorkoutType `json:"type"`
	Date               string               `json:"date"`
	Exercises          []workouts.Exercise  `json:"exercises"`
	EditingWorkoutID   string               `json:"editingWorkoutId,omitempty"`
	LastSavedWorkoutID string               `json:"lastSavedWorkoutId,omitempty"`
	Saving             bool                 `json:"saving"`
	BackendUnavailable bool                 `json:"backendUnavailable"`
}

type WorkoutsResponse struct {
	Workouts           []workouts.Workout `json:"workouts"`
	Loading            bool               `json:"loading"`
	BackendUnavailable bool               `json:"backendUnavailable"`
}

type SaveResponse struct {
	WorkoutID string `json:"workoutId"`
}

type UpdateDraftRequest struct {
	Date *string `json:"date"`
	Type *string `json:"type"`
}

type StartDraftRequest struct {
	Type string `json:"type"`
}

// ExerciseListener is told about every exercise name added to a draft.
type ExerciseListener func(ctx context.Context, session *auth.Session, name string)

type Handler struct {
	registry          *Registry
	exerciseListeners []ExerciseListener
}

func NewHandler(registry *Registry) *Handler {
	return &Handler{
		registry: registry,
	}
}

func (handler *Handler) OnExerciseAdded(listener ExerciseListener) {
	handler.exerciseListeners = append(handler.exerciseListeners, listener)
}

// store resolves the caller's store; false means a response was written.
func (handler *Handler) store(w http.ResponseWriter, r *http.Request) (*Store, bool) {
	session, ok := auth.SessionFrom(r.Context())
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return nil, false
	}
	return handler.registry.Get(r.Context(), session), true
}

func draftResponse(state State) DraftResponse {
	return DraftResponse{
		Type:               state.Type,
		Date:               state.Date,
		Exercises:          state.Exercises,
		EditingWorkoutID:   state.EditingWorkoutID,
		LastSavedWorkoutID: state.LastSavedWorkoutID,
		Saving:             state.Saving,
		BackendUnavailable: state.BackendUnavailable,
	}
}

func writeStoreError(w http.ResponseWriter, err error) {
	var validationErr *workouts.ValidationError
	switch {
	case errors.As(err, &validationErr):
		http.Error(w, validationErr.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrUnknownExercise):
		http.Error(w, "error, exercise not found in draft", http.StatusNotFound)
	default:
		log.Errorf("session handler: %s", err)
		http.Error(w, "error, something went wrong", http.StatusInternalServerError)
	}
}

func (handler *Handler) HandleRecent(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.recent")
	defer span.End()

	store, ok := handler.store(w, r)
	if !ok {
		return
	}
	state := store.Snapshot()
	pkg.WriteJSON(w, WorkoutsResponse{
		Workouts:           state.RecentWorkouts,
		Loading:            state.Loading,
		BackendUnavailable: state.BackendUnavailable,
	}, http.StatusOK)
}

func (handler *Handler) HandleAll(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.all")
	defer span.End()

	store, ok := handler.store(w, r)
	if !ok {
		return
	}
	state := store.Snapshot()
	pkg.WriteJSON(w, WorkoutsResponse{
		Workouts:           state.AllWorkouts,
		Loading:            state.Loading,
		BackendUnavailable: state.BackendUnavailable,
	}, http.StatusOK)
}

func (handler *Handler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.refresh")
	defer span.End()

	store, ok := handler.store(w, r)
	if !ok {
		return
	}
	store.Refresh(ctx)
	state := store.Snapshot()
	pkg.WriteJSON(w, WorkoutsResponse{
		Workouts:           state.AllWorkouts,
		BackendUnavailable: state.BackendUnavailable,
	}, http.StatusOK)
}

func (handler *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.get")
	defer span.End()

	id := mux.Vars(r)["id"]
	if id == "" {
		http.Error(w, "error, id empty", http.StatusBadRequest)
		return
	}

	store, ok := handler.store(w, r)
	if !ok {
		return
	}
	workout := store.Workout(ctx, id)
	if workout == nil {
		http.Error(w, "error, workout not found", http.StatusNotFound)
		return
	}
	pkg.WriteJSON(w, workout, http.StatusOK)
}

func (handler *Handler) HandleGetByDate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.getbydate")
	defer span.End()

	date := mux.Vars(r)["date"]
	if !dates.IsValid(date) {
		http.Error(w, "error, invalid date", http.StatusBadRequest)
		return
	}

	store, ok := handler.store(w, r)
	if !ok {
		return
	}
	workout := store.WorkoutByDate(ctx, date)
	if workout == nil {
		http.Error(w, "error, workout not found", http.StatusNotFound)
		return
	}
	pkg.WriteJSON(w, workout, http.StatusOK)
}

func (handler *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.delete")
	defer span.End()

	id := mux.Vars(r)["id"]
	if id == "" {
		http.Error(w, "error, id empty", http.StatusBadRequest)
		return
	}

	store, ok := handler.store(w, r)
	if !ok {
		return
	}
	if !store.RemoveWorkout(ctx, id) {
		http.Error(w, "error, failed to delete workout, try again", http.StatusBadGateway)
		return
	}
	pkg.WriteTextResponseOK(w, "deleted")
}

func (handler *Handler) HandleDraft(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.draft.get")
	defer span.End()

	store, ok := handler.store(w, r)
	if !ok {
		return
	}
	pkg.WriteJSON(w, draftResponse(store.Snapshot()), http.StatusOK)
}

func (handler *Handler) HandleStart(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.draft.start")
	defer span.End()

	var req StartDraftRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil {
		log.Tracef("start draft, unmarshal json params: %s", err)
		http.Error(w, "error, invalid request body", http.StatusBadRequest)
		return
	}
	workoutType, err := workouts.ParseWorkoutType(req.Type)
	if err != nil || workoutType.IsZero() {
		http.Error(w, "error, invalid workout type", http.StatusBadRequest)
		return
	}

	store, ok := handler.store(w, r)
	if !ok {
		return
	}
	store.Start(workoutType)
	pkg.WriteJSON(w, draftResponse(store.Snapshot()), http.StatusCreated)
}

func (handler *Handler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.draft.edit")
	defer span.End()

	id := mux.Vars(r)["id"]
	if id == "" {
		http.Error(w, "error, id empty", http.StatusBadRequest)
		return
	}

	store, ok := handler.store(w, r)
	if !ok {
		return
	}
	if !store.LoadForEdit(ctx, id) {
		http.Error(w, "error, failed to load workout", http.StatusNotFound)
		return
	}
	pkg.WriteJSON(w, draftResponse(store.Snapshot()), http.StatusOK)
}

func (handler *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.draft.update")
	defer span.End()

	var req UpdateDraftRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil {
		log.Tracef("update draft, unmarshal json params: %s", err)
		http.Error(w, "error, invalid request body", http.StatusBadRequest)
		return
	}

	var workoutType workouts.WorkoutType
	if req.Type != nil {
		var err error
		if workoutType, err = workouts.ParseWorkoutType(*req.Type); err != nil {
			http.Error(w, "error, invalid workout type", http.StatusBadRequest)
			return
		}
	}

	store, ok := handler.store(w, r)
	if !ok {
		return
	}
	if req.Date != nil {
		if err := store.SetDate(*req.Date); err != nil {
			writeStoreError(w, err)
			return
		}
	}
	if req.Type != nil {
		store.SetType(workoutType)
	}
	pkg.WriteJSON(w, draftResponse(store.Snapshot()), http.StatusOK)
}

func (handler *Handler) HandleAddExercise(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.draft.exercises.add")
	defer span.End()

	var data workouts.ExerciseData
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&data); err != nil {
		log.Tracef("add exercise, unmarshal json params: %s", err)
		http.Error(w, "error, invalid request body", http.StatusBadRequest)
		return
	}

	store, ok := handler.store(w, r)
	if !ok {
		return
	}
	exercise, err := store.AddExercise(ctx, data)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if exercise == nil {
		http.Error(w, "error, failed to add exercise, try again", http.StatusBadGateway)
		return
	}

	if session, ok := auth.SessionFrom(ctx); ok {
		for _, listener := range handler.exerciseListeners {
			listener(ctx, session, exercise.Name)
		}
	}
	pkg.WriteJSON(w, exercise, http.StatusCreated)
}

func (handler *Handler) HandleEditExercise(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.draft.exercises.edit")
	defer span.End()

	id := mux.Vars(r)["id"]
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		http.Error(w, "error, invalid request body", http.StatusBadRequest)
		return
	}
	patch, err := workouts.ParsePatch(body)
	if err != nil {
		log.Tracef("edit exercise, parse patch: %s", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	store, ok := handler.store(w, r)
	if !ok {
		return
	}
	exercise, err := store.EditExercise(ctx, id, patch)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if exercise == nil {
		http.Error(w, "error, failed to update exercise, try again", http.StatusBadGateway)
		return
	}
	pkg.WriteJSON(w, exercise, http.StatusOK)
}

func (handler *Handler) HandleRemoveExercise(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.draft.exercises.remove")
	defer span.End()

	id := mux.Vars(r)["id"]
	store, ok := handler.store(w, r)
	if !ok {
		return
	}
	removed, err := store.RemoveExercise(ctx, id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if !removed {
		http.Error(w, "error, failed to remove exercise, try again", http.StatusBadGateway)
		return
	}
	pkg.WriteTextResponseOK(w, "removed")
}

func (handler *Handler) HandleSave(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.draft.save")
	defer span.End()

	store, ok := handler.store(w, r)
	if !ok {
		return
	}

	state := store.Snapshot()
	if state.Type.IsZero() || len(state.Exercises) == 0 {
		http.Error(w, "error, a workout needs a type and at least one exercise", http.StatusBadRequest)
		return
	}

	if !store.Save(ctx) {
		http.Error(w, "error, failed to save workout, try again", http.StatusBadGateway)
		return
	}
	pkg.WriteJSON(w, SaveResponse{WorkoutID: store.Snapshot().LastSavedWorkoutID}, http.StatusOK)
}

func (handler *Handler) HandleClear(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.draft.clear")
	defer span.End()

	store, ok := handler.store(w, r)
	if !ok {
		return
	}
	store.Clear()
	pkg.WriteJSON(w, draftResponse(store.Snapshot()), http.StatusOK)
}
