package workouts

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("not found")

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=workouts_test

// Repo is the remote store of one user's workouts and exercises.
// Lists are ordered by date, most recent first; the exercises of a workout
// are ordered by creation time.
type Repo interface {
	CreateWorkout(ctx context.Context, date string, workoutType WorkoutType) (string, error)
	UpdateWorkout(ctx context.Context, id, date string, workoutType WorkoutType) error
	DeleteWorkout(ctx context.Context, id string) error
	GetWorkout(ctx context.Context, id string) (*Workout, error)
	GetWorkoutByDate(ctx context.Context, date string) (*Workout, error)
	// ListWorkouts returns at most limit workouts, all of them when limit <= 0.
	ListWorkouts(ctx context.Context, limit int) ([]Workout, error)
	// ListWorkoutsBetween returns workouts dated within [from, to], both inclusive.
	ListWorkoutsBetween(ctx context.Context, from, to string) ([]Workout, error)
	AddExercise(ctx context.Context, workoutID string, data ExerciseData) (*Exercise, error)
	UpdateExercise(ctx context.Context, id string, patch ExercisePatch) (*Exercise, error)
	DeleteExercise(ctx context.Context, id string) error
}

// maxConcurrentExerciseFetches bounds the exercise requests made while listing workouts.
const maxConcurrentExerciseFetches = 8
