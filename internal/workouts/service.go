package workouts

import (
	"context"
	"errors"

	"github.com/2beens/liftlog/internal/telemetry/metrics"

	log "github.com/sirupsen/logrus"
)

const DefaultRecentLimit = 7

// Service is the fail-soft face of a Repo: errors are logged and turned
// into empty results, and a nil repo (backend not configured) makes every
// call a no-op.
type Service struct {
	repo           Repo
	metricsManager *metrics.Manager
}

func NewService(repo Repo, metricsManager *metrics.Manager) *Service {
	return &Service{
		repo:           repo,
		metricsManager: metricsManager,
	}
}

// Available reports whether a backend is configured at all.
func (s *Service) Available() bool {
	return s.repo != nil
}

func (s *Service) failed(operation string, err error) {
	if errors.Is(err, context.Canceled) {
		log.Debugf("workouts service: %s: %s", operation, err)
		return
	}
	log.Errorf("workouts service: %s: %s", operation, err)
	if s.metricsManager != nil {
		s.metricsManager.CounterBackendFailures.WithLabelValues(operation).Inc()
	}
}

// CreateWorkout returns the new workout id, or "" on failure.
func (s *Service) CreateWorkout(ctx context.Context, date string, workoutType WorkoutType) string {
	if s.repo == nil {
		return ""
	}
	id, err := s.repo.CreateWorkout(ctx, date, workoutType)
	if err != nil {
		s.failed("create_workout", err)
		return ""
	}
	return id
}

func (s *Service) UpdateWorkout(ctx context.Context, id, date string, workoutType WorkoutType) bool {
	if s.repo == nil {
		return false
	}
	if err := s.repo.UpdateWorkout(ctx, id, date, workoutType); err != nil {
		s.failed("update_workout", err)
		return false
	}
	return true
}

func (s *Service) AddExercise(ctx context.Context, workoutID string, data ExerciseData) *Exercise {
	if s.repo == nil {
		return nil
	}
	exercise, err := s.repo.AddExercise(ctx, workoutID, data.Normalize())
	if err != nil {
		s.failed("add_exercise", err)
		return nil
	}
	return exercise
}

func (s *Service) GetWorkout(ctx context.Context, id string) *Workout {
	if s.repo == nil {
		return nil
	}
	workout, err := s.repo.GetWorkout(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			log.Debugf("workouts service: workout [%s] not found", id)
			return nil
		}
		s.failed("get_workout", err)
		return nil
	}
	return workout
}

func (s *Service) GetWorkoutByDate(ctx context.Context, date string) *Workout {
	if s.repo == nil {
		return nil
	}
	workout, err := s.repo.GetWorkoutByDate(ctx, date)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		s.failed("get_workout_by_date", err)
		return nil
	}
	return workout
}

// RecentWorkouts lists the latest limit workouts, DefaultRecentLimit when limit <= 0.
func (s *Service) RecentWorkouts(ctx context.Context, limit int) []Workout {
	if s.repo == nil {
		return []Workout{}
	}
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	list, err := s.repo.ListWorkouts(ctx, limit)
	if err != nil {
		s.failed("recent_workouts", err)
		return []Workout{}
	}
	return nonNil(list)
}

func (s *Service) AllWorkouts(ctx context.Context) []Workout {
	if s.repo == nil {
		return []Workout{}
	}
	list, err := s.repo.ListWorkouts(ctx, 0)
	if err != nil {
		s.failed("all_workouts", err)
		return []Workout{}
	}
	return nonNil(list)
}

func (s *Service) WorkoutsBetween(ctx context.Context, from, to string) []Workout {
	if s.repo == nil {
		return []Workout{}
	}
	list, err := s.repo.ListWorkoutsBetween(ctx, from, to)
	if err != nil {
		s.failed("workouts_between", err)
		return []Workout{}
	}
	return nonNil(list)
}

func (s *Service) UpdateExercise(ctx context.Context, id string, patch ExercisePatch) *Exercise {
	if s.repo == nil {
		return nil
	}
	exercise, err := s.repo.UpdateExercise(ctx, id, patch.Normalize())
	if err != nil {
		s.failed("update_exercise", err)
		return nil
	}
	return exercise
}

func (s *Service) DeleteExercise(ctx context.Context, id string) bool {
	if s.repo == nil {
		return false
	}
	if err := s.repo.DeleteExercise(ctx, id); err != nil {
		s.failed("delete_exercise", err)
		return false
	}
	return true
}

func (s *Service) DeleteWorkout(ctx context.Context, id string) bool {
	if s.repo == nil {
		return false
	}
	if err := s.repo.DeleteWorkout(ctx, id); err != nil {
		s.failed("delete_workout", err)
		return false
	}
	return true
}

func nonNil(list []Workout) []Workout {
	if list == nil {
		return []Workout{}
	}
	return list
}
