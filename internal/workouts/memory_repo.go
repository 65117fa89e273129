package workouts

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"sync"
	"time"
)

// MemoryRepo keeps workouts in process memory. Used for local development
// runs without a backend, and by tests.
type MemoryRepo struct {
	mutex     sync.Mutex
	nextID    int
	workouts  map[string]*Workout
	exercises map[string]*Exercise
	failures  map[string]error
	now       func() time.Time
}

var _ Repo = (*MemoryRepo)(nil)

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		workouts:  make(map[string]*Workout),
		exercises: make(map[string]*Exercise),
		failures:  make(map[string]error),
		now:       time.Now,
	}
}

// FailOn makes every later call of the named method (e.g. "AddExercise")
// return err. A nil err removes the failure.
func (r *MemoryRepo) FailOn(method string, err error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if err == nil {
		delete(r.failures, method)
		return
	}
	r.failures[method] = err
}

func (r *MemoryRepo) WorkoutsCount() int {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return len(r.workouts)
}

func (r *MemoryRepo) ExercisesCount() int {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return len(r.exercises)
}

func (r *MemoryRepo) newID(prefix string) string {
	r.nextID++
	return prefix + "-" + strconv.Itoa(r.nextID)
}

// stamp keeps creation times strictly increasing so ordering is stable.
func (r *MemoryRepo) stamp() time.Time {
	return r.now().Add(time.Duration(r.nextID) * time.Microsecond)
}

func (r *MemoryRepo) CreateWorkout(_ context.Context, date string, workoutType WorkoutType) (string, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if err := r.failures["CreateWorkout"]; err != nil {
		return "", err
	}

	id := r.newID("workout")
	now := r.stamp()
	r.workouts[id] = &Workout{
		ID:        id,
		Date:      date,
		Type:      workoutType,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return id, nil
}

func (r *MemoryRepo) UpdateWorkout(_ context.Context, id, date string, workoutType WorkoutType) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if err := r.failures["UpdateWorkout"]; err != nil {
		return err
	}

	w, ok := r.workouts[id]
	if !ok {
		return ErrNotFound
	}
	w.Date = date
	w.Type = workoutType
	w.UpdatedAt = r.stamp()
	return nil
}

func (r *MemoryRepo) DeleteWorkout(_ context.Context, id string) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if err := r.failures["DeleteWorkout"]; err != nil {
		return err
	}

	if _, ok := r.workouts[id]; !ok {
		return ErrNotFound
	}
	delete(r.workouts, id)
	for exID, e := range r.exercises {
		if e.WorkoutID == id {
			delete(r.exercises, exID)
		}
	}
	return nil
}

func (r *MemoryRepo) GetWorkout(_ context.Context, id string) (*Workout, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if err := r.failures["GetWorkout"]; err != nil {
		return nil, err
	}

	w, ok := r.workouts[id]
	if !ok {
		return nil, ErrNotFound
	}
	workout := r.withExercises(w)
	return &workout, nil
}

func (r *MemoryRepo) GetWorkoutByDate(_ context.Context, date string) (*Workout, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if err := r.failures["GetWorkoutByDate"]; err != nil {
		return nil, err
	}

	for _, w := range r.sorted() {
		if w.Date == date {
			workout := r.withExercises(w)
			return &workout, nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryRepo) ListWorkouts(_ context.Context, limit int) ([]Workout, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if err := r.failures["ListWorkouts"]; err != nil {
		return nil, err
	}

	sorted := r.sorted()
	if limit > 0 && len(sorted) > limit {
		sorted = sorted[:limit]
	}
	list := make([]Workout, 0, len(sorted))
	for _, w := range sorted {
		list = append(list, r.withExercises(w))
	}
	return list, nil
}

func (r *MemoryRepo) ListWorkoutsBetween(_ context.Context, from, to string) ([]Workout, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if err := r.failures["ListWorkoutsBetween"]; err != nil {
		return nil, err
	}

	list := []Workout{}
	for _, w := range r.sorted() {
		// canonical dates compare lexically
		if w.Date >= from && w.Date <= to {
			list = append(list, r.withExercises(w))
		}
	}
	return list, nil
}

func (r *MemoryRepo) AddExercise(_ context.Context, workoutID string, data ExerciseData) (*Exercise, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if err := r.failures["AddExercise"]; err != nil {
		return nil, err
	}

	if _, ok := r.workouts[workoutID]; !ok {
		return nil, fmt.Errorf("workout [%s]: %w", workoutID, ErrNotFound)
	}
	e := &Exercise{
		ID:           r.newID("exercise"),
		WorkoutID:    workoutID,
		ExerciseData: data.clone(),
		CreatedAt:    r.stamp(),
	}
	r.exercises[e.ID] = e
	created := e.Clone()
	return &created, nil
}

func (r *MemoryRepo) UpdateExercise(_ context.Context, id string, patch ExercisePatch) (*Exercise, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if err := r.failures["UpdateExercise"]; err != nil {
		return nil, err
	}

	e, ok := r.exercises[id]
	if !ok {
		return nil, ErrNotFound
	}
	e.ExerciseData = patch.Apply(e.ExerciseData)
	updated := e.Clone()
	return &updated, nil
}

func (r *MemoryRepo) DeleteExercise(_ context.Context, id string) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if err := r.failures["DeleteExercise"]; err != nil {
		return err
	}

	if _, ok := r.exercises[id]; !ok {
		return ErrNotFound
	}
	delete(r.exercises, id)
	return nil
}

func (r *MemoryRepo) sorted() []*Workout {
	list := make([]*Workout, 0, len(r.workouts))
	for _, w := range r.workouts {
		list = append(list, w)
	}
	slices.SortFunc(list, func(a, b *Workout) int {
		if a.Date != b.Date {
			if a.Date > b.Date {
				return -1
			}
			return 1
		}
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return list
}

func (r *MemoryRepo) withExercises(w *Workout) Workout {
	workout := *w
	workout.Exercises = []Exercise{}
	for _, e := range r.exercises {
		if e.WorkoutID == w.ID {
			workout.Exercises = append(workout.Exercises, e.Clone())
		}
	}
	slices.SortFunc(workout.Exercises, func(a, b Exercise) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return workout
}
