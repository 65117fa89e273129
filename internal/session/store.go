// Package session holds the workout being authored or edited by a user,
// together with cached snapshots of their saved workouts.
package session

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/2beens/liftlog/internal/dates"
	"github.com/2beens/liftlog/internal/telemetry/metrics"
	"github.com/2beens/liftlog/internal/workouts"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"go.uber.org/multierr"
)

const (
	// RecentLimit is how many workouts the recent snapshot holds.
	RecentLimit  = 3
	tempIDPrefix = "temp-"
	// upper bound for undoing a failed save once the caller is gone
	rollbackTimeout = 15 * time.Second
)

var ErrUnknownExercise = errors.New("exercise is not part of the draft")

// State is a copy of the store state, safe to hand out.
type State struct {
	Type               workouts.WorkoutType `json:"type"`
	Date               string               `json:"date"`
	Exercises          []workouts.Exercise  `json:"exercises"`
	EditingWorkoutID   string               `json:"editingWorkoutId,omitempty"`
	LastSavedWorkoutID string               `json:"lastSavedWorkoutId,omitempty"`
	RecentWorkouts     []workouts.Workout   `json:"recentWorkouts"`
	AllWorkouts        []workouts.Workout   `json:"allWorkouts"`
	Loading            bool                 `json:"loading"`
	Saving             bool                 `json:"saving"`
	BackendUnavailable bool                 `json:"backendUnavailable"`
}

type Store struct {
	service        *workouts.Service
	metricsManager *metrics.Manager

	mutex sync.Mutex
	// generation changes whenever the draft is replaced, so late network
	// answers do not land on a different draft
	generation   uint64
	draftType    workouts.WorkoutType
	date         string
	exercises    []workouts.Exercise
	editingID    string
	originalDate string
	originalType workouts.WorkoutType
	// ids of exercises that only exist in the draft
	localIDs           map[string]struct{}
	lastSavedWorkoutID string

	recent  []workouts.Workout
	all     []workouts.Workout
	loading int
	saving  bool

	backendUnavailable bool
}

func NewStore(service *workouts.Service, metricsManager *metrics.Manager) *Store {
	return &Store{
		service:            service,
		metricsManager:     metricsManager,
		date:               dates.Today(),
		exercises:          []workouts.Exercise{},
		localIDs:           map[string]struct{}{},
		recent:             []workouts.Workout{},
		all:                []workouts.Workout{},
		backendUnavailable: !service.Available(),
	}
}

// svc returns the service bound to the user's current backend credentials.
func (s *Store) svc() *workouts.Service {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.service
}

func (s *Store) useService(service *workouts.Service) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.service = service
}

func (s *Store) BackendUnavailable() bool {
	return s.backendUnavailable
}

func newTempID(now time.Time) string {
	return fmt.Sprintf("%s%d-%s", tempIDPrefix, now.UnixMilli(), uuid.NewString()[:8])
}

// resetDraftLocked must be called with the mutex held.
func (s *Store) resetDraftLocked(workoutType workouts.WorkoutType) {
	s.generation++
	s.draftType = workoutType
	s.date = dates.Today()
	s.exercises = []workouts.Exercise{}
	s.editingID = ""
	s.originalDate = ""
	s.originalType = workouts.WorkoutType{}
	s.localIDs = map[string]struct{}{}
}

// Start begins a new draft with today's date, dropping any unsaved one.
func (s *Store) Start(workoutType workouts.WorkoutType) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.resetDraftLocked(workoutType)
}

// Clear discards the draft.
func (s *Store) Clear() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.resetDraftLocked(workouts.WorkoutType{})
}

// LoadForEdit replaces the draft with a saved workout and enters editing
// mode, where exercise changes are written through right away.
func (s *Store) LoadForEdit(ctx context.Context, workoutID string) bool {
	s.setLoading(true)
	defer s.setLoading(false)

	workout := s.svc().GetWorkout(ctx, workoutID)
	if workout == nil {
		return false
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.generation++
	s.draftType = workout.Type
	s.date = workout.Date
	s.exercises = workouts.CloneExercises(workout.Exercises)
	s.editingID = workout.ID
	s.originalDate = workout.Date
	s.originalType = workout.Type
	s.localIDs = map[string]struct{}{}
	return true
}

func (s *Store) SetDate(date string) error {
	if !dates.IsValid(date) {
		return &workouts.ValidationError{Field: "date", Reason: fmt.Sprintf("[%s] is not a YYYY-MM-DD date", date)}
	}
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.date = date
	return nil
}

func (s *Store) SetType(workoutType workouts.WorkoutType) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.draftType = workoutType
}

// AddExercise validates data and appends it to the draft. While editing a
// saved workout the exercise is persisted first; a failed write returns a
// nil exercise and leaves the draft unchanged.
func (s *Store) AddExercise(ctx context.Context, data workouts.ExerciseData) (*workouts.Exercise, error) {
	data = data.Normalize()
	if err := data.Validate(); err != nil {
		return nil, err
	}

	s.mutex.Lock()
	editingID := s.editingID
	generation := s.generation
	if editingID == "" {
		now := time.Now()
		exercise := workouts.Exercise{
			ID:           newTempID(now),
			WorkoutID:    workouts.TempWorkoutID,
			ExerciseData: data,
			CreatedAt:    now,
		}
		s.exercises = append(s.exercises, exercise)
		s.localIDs[exercise.ID] = struct{}{}
		s.mutex.Unlock()
		s.countExerciseLogged()
		added := exercise.Clone()
		return &added, nil
	}
	s.mutex.Unlock()

	saved := s.svc().AddExercise(ctx, editingID, data)
	if saved == nil {
		return nil, nil
	}

	s.mutex.Lock()
	if s.generation == generation {
		s.exercises = append(s.exercises, saved.Clone())
	}
	s.mutex.Unlock()
	s.countExerciseLogged()
	return saved, nil
}

// EditExercise applies patch to a draft exercise. Saved exercises of an
// edited workout are updated remotely and replaced with the stored record.
func (s *Store) EditExercise(ctx context.Context, id string, patch workouts.ExercisePatch) (*workouts.Exercise, error) {
	s.mutex.Lock()
	idx := s.indexOfLocked(id)
	if idx < 0 {
		s.mutex.Unlock()
		return nil, ErrUnknownExercise
	}
	current := s.exercises[idx].Clone()
	_, isLocal := s.localIDs[id]
	editingID := s.editingID
	generation := s.generation
	s.mutex.Unlock()

	patch = patch.Normalize()
	merged := patch.Apply(current.ExerciseData).Normalize()
	if err := merged.Validate(); err != nil {
		return nil, err
	}

	if editingID != "" && !isLocal {
		updated := s.svc().UpdateExercise(ctx, id, patch)
		if updated == nil {
			return nil, nil
		}
		s.mutex.Lock()
		if s.generation == generation {
			if i := s.indexOfLocked(id); i >= 0 {
				s.exercises[i] = updated.Clone()
			}
		}
		s.mutex.Unlock()
		return updated, nil
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()
	i := s.indexOfLocked(id)
	if i < 0 {
		return nil, ErrUnknownExercise
	}
	s.exercises[i].ExerciseData = patch.Apply(s.exercises[i].ExerciseData).Normalize()
	edited := s.exercises[i].Clone()
	return &edited, nil
}

// RemoveExercise drops an exercise from the draft. Saved exercises of an
// edited workout are only dropped once the remote delete succeeded.
func (s *Store) RemoveExercise(ctx context.Context, id string) (bool, error) {
	s.mutex.Lock()
	if s.indexOfLocked(id) < 0 {
		s.mutex.Unlock()
		return false, ErrUnknownExercise
	}
	_, isLocal := s.localIDs[id]
	editingID := s.editingID
	if editingID == "" || isLocal {
		s.removeLocked(id)
		s.mutex.Unlock()
		return true, nil
	}
	s.mutex.Unlock()

	if !s.svc().DeleteExercise(ctx, id) {
		return false, nil
	}

	s.mutex.Lock()
	s.removeLocked(id)
	s.mutex.Unlock()
	return true, nil
}

func (s *Store) indexOfLocked(id string) int {
	return slices.IndexFunc(s.exercises, func(e workouts.Exercise) bool {
		return e.ID == id
	})
}

func (s *Store) removeLocked(id string) {
	s.exercises = slices.DeleteFunc(s.exercises, func(e workouts.Exercise) bool {
		return e.ID == id
	})
	delete(s.localIDs, id)
}

type saveDraft struct {
	service      *workouts.Service
	generation   uint64
	workoutType  workouts.WorkoutType
	date         string
	exercises    []workouts.Exercise
	editingID    string
	originalDate string
	originalType workouts.WorkoutType
	localIDs     map[string]struct{}
}

// Save persists the draft. A draft without a type or without exercises is
// rejected. When a step fails, whatever this save already wrote is undone,
// the draft is kept and false is returned. On success the cached lists are
// refreshed and the draft is cleared.
func (s *Store) Save(ctx context.Context) bool {
	s.mutex.Lock()
	if s.saving || s.draftType.IsZero() || len(s.exercises) == 0 {
		s.mutex.Unlock()
		return false
	}
	draft := saveDraft{
		service:      s.service,
		generation:   s.generation,
		workoutType:  s.draftType,
		date:         s.date,
		exercises:    workouts.CloneExercises(s.exercises),
		editingID:    s.editingID,
		originalDate: s.originalDate,
		originalType: s.originalType,
		localIDs:     make(map[string]struct{}, len(s.localIDs)),
	}
	for id := range s.localIDs {
		draft.localIDs[id] = struct{}{}
	}
	s.saving = true
	s.mutex.Unlock()

	defer func() {
		s.mutex.Lock()
		s.saving = false
		s.mutex.Unlock()
	}()

	start := time.Now()
	mode := "new"
	if draft.editingID != "" {
		mode = "edit"
	}

	var (
		workoutID string
		ok        bool
	)
	if draft.editingID != "" {
		workoutID, ok = s.saveEdited(ctx, draft)
	} else {
		workoutID, ok = s.saveNew(ctx, draft)
	}

	if s.metricsManager != nil {
		result := "ok"
		if !ok {
			result = "failed"
		}
		s.metricsManager.CounterWorkoutsSaved.WithLabelValues(mode, result).Inc()
		s.metricsManager.HistogramSaveDuration.Observe(time.Since(start).Seconds())
	}
	if !ok {
		return false
	}

	s.Refresh(ctx)

	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.lastSavedWorkoutID = workoutID
	if s.generation == draft.generation {
		s.resetDraftLocked(workouts.WorkoutType{})
	}
	return true
}

func exerciseInput(e workouts.Exercise) workouts.ExerciseData {
	return e.ExerciseData.Normalize()
}

func (s *Store) saveNew(ctx context.Context, draft saveDraft) (string, bool) {
	workoutID := draft.service.CreateWorkout(ctx, draft.date, draft.workoutType)
	if workoutID == "" {
		return "", false
	}

	// local id -> remote id of every exercise written by this save
	saved := make(map[string]string, len(draft.exercises))
	for _, e := range draft.exercises {
		persisted := draft.service.AddExercise(ctx, workoutID, exerciseInput(e))
		if persisted == nil {
			log.Errorf("session store: save new workout: exercise [%s] failed after %d/%d, rolling back",
				e.Name, len(saved), len(draft.exercises))
			rollbackCtx, cancel := rollbackContext(ctx)
			defer cancel()
			if !draft.service.DeleteWorkout(rollbackCtx, workoutID) {
				log.Errorf("session store: rollback: workout [%s] could not be deleted", workoutID)
			}
			return "", false
		}
		saved[e.ID] = persisted.ID
	}

	log.Debugf("session store: saved workout [%s] with %d exercises", workoutID, len(saved))
	return workoutID, true
}

func (s *Store) saveEdited(ctx context.Context, draft saveDraft) (string, bool) {
	if !draft.service.UpdateWorkout(ctx, draft.editingID, draft.date, draft.workoutType) {
		return "", false
	}

	saved := make(map[string]string)
	for _, e := range draft.exercises {
		if _, isLocal := draft.localIDs[e.ID]; !isLocal {
			continue
		}
		persisted := draft.service.AddExercise(ctx, draft.editingID, exerciseInput(e))
		if persisted == nil {
			log.Errorf("session store: save edited workout [%s]: exercise [%s] failed, rolling back",
				draft.editingID, e.Name)
			rollbackCtx, cancel := rollbackContext(ctx)
			defer cancel()
			if err := s.rollbackEdit(rollbackCtx, draft, saved); err != nil {
				log.Errorf("session store: rollback: %s", err)
			}
			return "", false
		}
		saved[e.ID] = persisted.ID
	}

	return draft.editingID, true
}

// rollbackContext keeps the request's values but not its cancellation, a
// client that went away mid-save must not leave a partial workout behind.
func rollbackContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), rollbackTimeout)
}

func (s *Store) rollbackEdit(ctx context.Context, draft saveDraft, saved map[string]string) error {
	var errs error
	for localID, remoteID := range saved {
		if !draft.service.DeleteExercise(ctx, remoteID) {
			errs = multierr.Append(errs, fmt.Errorf("exercise [%s] (draft [%s]) not deleted", remoteID, localID))
		}
	}
	if draft.originalDate != draft.date || draft.originalType != draft.workoutType {
		if !draft.service.UpdateWorkout(ctx, draft.editingID, draft.originalDate, draft.originalType) {
			errs = multierr.Append(errs, fmt.Errorf("workout [%s] date and type not restored", draft.editingID))
		}
	}
	return errs
}

// Refresh replaces both workout snapshots, fetching them concurrently.
func (s *Store) Refresh(ctx context.Context) {
	s.setLoading(true)
	defer s.setLoading(false)

	// both calls are fail-soft, a failed fetch leaves the other one running
	service := s.svc()
	var (
		recent, all []workouts.Workout
		wg          sync.WaitGroup
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		recent = service.RecentWorkouts(ctx, RecentLimit)
	}()
	go func() {
		defer wg.Done()
		all = service.AllWorkouts(ctx)
	}()
	wg.Wait()

	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.recent = recent
	s.all = all
}

// RemoveWorkout deletes a saved workout and refreshes the snapshots. A draft
// editing that workout is discarded.
func (s *Store) RemoveWorkout(ctx context.Context, workoutID string) bool {
	if !s.svc().DeleteWorkout(ctx, workoutID) {
		return false
	}

	s.mutex.Lock()
	if s.editingID == workoutID {
		s.resetDraftLocked(workouts.WorkoutType{})
	}
	s.mutex.Unlock()

	s.Refresh(ctx)
	return true
}

func (s *Store) setLoading(loading bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if loading {
		s.loading++
	} else if s.loading > 0 {
		s.loading--
	}
}

func (s *Store) countExerciseLogged() {
	if s.metricsManager != nil {
		s.metricsManager.CounterExercisesLogged.Inc()
	}
}

func (s *Store) Snapshot() State {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	return State{
		Type:               s.draftType,
		Date:               s.date,
		Exercises:          workouts.CloneExercises(s.exercises),
		EditingWorkoutID:   s.editingID,
		LastSavedWorkoutID: s.lastSavedWorkoutID,
		RecentWorkouts:     workouts.CloneAll(s.recent),
		AllWorkouts:        workouts.CloneAll(s.all),
		Loading:            s.loading > 0,
		Saving:             s.saving,
		BackendUnavailable: s.backendUnavailable,
	}
}

// Workout reads a saved workout straight from the backend.
func (s *Store) Workout(ctx context.Context, workoutID string) *workouts.Workout {
	return s.svc().GetWorkout(ctx, workoutID)
}

func (s *Store) WorkoutByDate(ctx context.Context, date string) *workouts.Workout {
	return s.svc().GetWorkoutByDate(ctx, date)
}

// WorkoutsBetween lists saved workouts dated within [from, to].
func (s *Store) WorkoutsBetween(ctx context.Context, from, to string) []workouts.Workout {
	return s.svc().WorkoutsBetween(ctx, from, to)
}
