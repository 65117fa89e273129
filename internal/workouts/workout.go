package workouts

import (
	"time"
)

type Workout struct {
	ID        string      `json:"id"`
	Date      string      `json:"date"`
	Type      WorkoutType `json:"type"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
	Exercises []Exercise  `json:"exercises"`
}

// Clone returns a deep copy, exercises included.
func (w Workout) Clone() Workout {
	if w.Exercises != nil {
		exercises := make([]Exercise, len(w.Exercises))
		for i, e := range w.Exercises {
			exercises[i] = e.Clone()
		}
		w.Exercises = exercises
	}
	return w
}

func CloneAll(list []Workout) []Workout {
	if list == nil {
		return nil
	}
	cloned := make([]Workout, len(list))
	for i, w := range list {
		cloned[i] = w.Clone()
	}
	return cloned
}

// ExerciseNames lists the names of all exercises in the given workouts, in order.
func ExerciseNames(list []Workout) []string {
	var names []string
	for _, w := range list {
		for _, e := range w.Exercises {
			names = append(names, e.Name)
		}
	}
	return names
}

// CloneExercises deep copies list, never returning nil.
func CloneExercises(list []Exercise) []Exercise {
	cloned := make([]Exercise, len(list))
	for i, e := range list {
		cloned[i] = e.Clone()
	}
	return cloned
}
