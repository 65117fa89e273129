package workouts

import (
	"context"
	"errors"
	"fmt"

	"github.com/2beens/liftlog/internal/backend"
	"github.com/2beens/liftlog/internal/telemetry/tracing"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

const (
	tableWorkouts  = "workouts"
	tableExercises = "exercises"
)

// RestRepo talks to the backend table API. The client should carry the
// user's access token, row level security scopes every query to that user.
type RestRepo struct {
	client *backend.Client
}

var _ Repo = (*RestRepo)(nil)

func NewRestRepo(client *backend.Client) *RestRepo {
	return &RestRepo{
		client: client,
	}
}

type workoutRow struct {
	Date string      `json:"date"`
	Type WorkoutType `json:"type"`
}

type exerciseRow struct {
	WorkoutID string `json:"workout_id"`
	ExerciseData
}

func (r *RestRepo) CreateWorkout(ctx context.Context, date string, workoutType WorkoutType) (_ string, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.rest.workouts.create")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	var created struct {
		ID string `json:"id"`
	}
	if err := r.client.From(tableWorkouts).
		Select("id").
		Single().
		Insert(ctx, workoutRow{Date: date, Type: workoutType}, &created); err != nil {
		return "", fmt.Errorf("insert workout: %w", err)
	}
	if created.ID == "" {
		return "", errors.New("insert workout: no id returned")
	}

	span.SetAttributes(attribute.String("workout.id", created.ID))
	return created.ID, nil
}

func (r *RestRepo) UpdateWorkout(ctx context.Context, id, date string, workoutType WorkoutType) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.rest.workouts.update")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("workout.id", id))

	var updated []Workout
	if err := r.client.From(tableWorkouts).
		Eq("id", id).
		Update(ctx, workoutRow{Date: date, Type: workoutType}, &updated); err != nil {
		return fmt.Errorf("update workout: %w", err)
	}
	if len(updated) == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *RestRepo) DeleteWorkout(ctx context.Context, id string) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.rest.workouts.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("workout.id", id))

	if err := r.client.From(tableWorkouts).Eq("id", id).Delete(ctx); err != nil {
		return fmt.Errorf("delete workout: %w", err)
	}
	return nil
}

func (r *RestRepo) GetWorkout(ctx context.Context, id string) (_ *Workout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.rest.workouts.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("workout.id", id))

	workout := &Workout{}
	if err := r.client.From(tableWorkouts).Eq("id", id).Single().Get(ctx, workout); err != nil {
		if backend.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get workout: %w", err)
	}

	exercises, err := r.exercisesOf(ctx, workout.ID)
	if err != nil {
		return nil, err
	}
	workout.Exercises = exercises
	return workout, nil
}

// GetWorkoutByDate returns the latest created workout of that day.
func (r *RestRepo) GetWorkoutByDate(ctx context.Context, date string) (_ *Workout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.rest.workouts.getbydate")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("workout.date", date))

	var workouts []Workout
	if err := r.client.From(tableWorkouts).
		Eq("date", date).
		Order("created_at", false).
		Limit(1).
		Get(ctx, &workouts); err != nil {
		return nil, fmt.Errorf("get workout by date: %w", err)
	}
	if len(workouts) == 0 {
		return nil, ErrNotFound
	}

	workout := &workouts[0]
	exercises, err := r.exercisesOf(ctx, workout.ID)
	if err != nil {
		return nil, err
	}
	workout.Exercises = exercises
	return workout, nil
}

func (r *RestRepo) ListWorkouts(ctx context.Context, limit int) (_ []Workout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.rest.workouts.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("limit", limit))

	var workouts []Workout
	if err := r.client.From(tableWorkouts).
		Order("date", false).
		Order("created_at", false).
		Limit(limit).
		Get(ctx, &workouts); err != nil {
		return nil, fmt.Errorf("list workouts: %w", err)
	}

	if err := r.attachExercises(ctx, workouts); err != nil {
		return nil, err
	}
	return workouts, nil
}

func (r *RestRepo) ListWorkoutsBetween(ctx context.Context, from, to string) (_ []Workout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.rest.workouts.listbetween")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("from", from), attribute.String("to", to))

	var workouts []Workout
	if err := r.client.From(tableWorkouts).
		Gte("date", from).
		Lte("date", to).
		Order("date", false).
		Order("created_at", false).
		Get(ctx, &workouts); err != nil {
		return nil, fmt.Errorf("list workouts between: %w", err)
	}

	if err := r.attachExercises(ctx, workouts); err != nil {
		return nil, err
	}
	return workouts, nil
}

func (r *RestRepo) AddExercise(ctx context.Context, workoutID string, data ExerciseData) (_ *Exercise, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.rest.exercises.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("workout.id", workoutID))

	exercise := &Exercise{}
	if err := r.client.From(tableExercises).
		Single().
		Insert(ctx, exerciseRow{WorkoutID: workoutID, ExerciseData: data}, exercise); err != nil {
		return nil, fmt.Errorf("insert exercise: %w", err)
	}

	span.SetAttributes(attribute.String("exercise.id", exercise.ID))
	return exercise, nil
}

func (r *RestRepo) UpdateExercise(ctx context.Context, id string, patch ExercisePatch) (_ *Exercise, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.rest.exercises.update")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("exercise.id", id))

	exercise := &Exercise{}
	if patch.IsEmpty() {
		err = r.client.From(tableExercises).Eq("id", id).Single().Get(ctx, exercise)
	} else {
		err = r.client.From(tableExercises).Eq("id", id).Single().Update(ctx, patch.Columns(), exercise)
	}
	if err != nil {
		if backend.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update exercise: %w", err)
	}
	return exercise, nil
}

func (r *RestRepo) DeleteExercise(ctx context.Context, id string) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.rest.exercises.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("exercise.id", id))

	if err := r.client.From(tableExercises).Eq("id", id).Delete(ctx); err != nil {
		return fmt.Errorf("delete exercise: %w", err)
	}
	return nil
}

func (r *RestRepo) exercisesOf(ctx context.Context, workoutID string) ([]Exercise, error) {
	exercises := []Exercise{}
	if err := r.client.From(tableExercises).
		Eq("workout_id", workoutID).
		Order("created_at", true).
		Get(ctx, &exercises); err != nil {
		return nil, fmt.Errorf("get exercises of workout [%s]: %w", workoutID, err)
	}
	return exercises, nil
}

func (r *RestRepo) attachExercises(ctx context.Context, workouts []Workout) error {
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentExerciseFetches)
	for i := range workouts {
		g.Go(func() error {
			exercises, err := r.exercisesOf(gCtx, workouts[i].ID)
			if err != nil {
				return err
			}
			workouts[i].Exercises = exercises
			return nil
		})
	}
	return g.Wait()
}
