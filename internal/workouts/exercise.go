package workouts

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// TempWorkoutID is the owner id of exercises on a workout not saved yet.
const TempWorkoutID = "temp"

type Equipment string

const (
	EquipmentMachine      Equipment = "machine"
	EquipmentDumbbell     Equipment = "dumbbell"
	EquipmentBar          Equipment = "bar"
	EquipmentCable        Equipment = "cable"
	EquipmentBodyweight   Equipment = "bodyweight"
	EquipmentSmithMachine Equipment = "smith_machine"
	EquipmentOther        Equipment = "other"
)

var EquipmentTypes = []Equipment{
	EquipmentMachine,
	EquipmentDumbbell,
	EquipmentBar,
	EquipmentCable,
	EquipmentBodyweight,
	EquipmentSmithMachine,
	EquipmentOther,
}

func (e Equipment) Valid() bool {
	for _, et := range EquipmentTypes {
		if e == et {
			return true
		}
	}
	return false
}

// ExerciseData holds the user supplied fields of an exercise.
type ExerciseData struct {
	Name      string     `json:"exercise_name"`
	Sets      *int       `json:"sets"`
	Reps      *int       `json:"reps"`
	Weight    *float64   `json:"weight"`
	Equipment *Equipment `json:"equipment"`
	Notes     *string    `json:"notes"`
}

func (d ExerciseData) ExerciseName() string {
	return d.Name
}

// Normalize trims the name and turns blank notes into no notes.
func (d ExerciseData) Normalize() ExerciseData {
	d.Name = strings.TrimSpace(d.Name)
	if d.Notes != nil && strings.TrimSpace(*d.Notes) == "" {
		d.Notes = nil
	}
	return d
}

type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (d ExerciseData) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return &ValidationError{Field: "exercise_name", Reason: "required"}
	}
	if d.Sets != nil && *d.Sets < 0 {
		return &ValidationError{Field: "sets", Reason: "must not be negative"}
	}
	if d.Reps != nil && *d.Reps < 0 {
		return &ValidationError{Field: "reps", Reason: "must not be negative"}
	}
	if d.Weight != nil {
		if math.IsNaN(*d.Weight) || math.IsInf(*d.Weight, 0) {
			return &ValidationError{Field: "weight", Reason: "must be a number"}
		}
		if *d.Weight < 0 {
			return &ValidationError{Field: "weight", Reason: "must not be negative"}
		}
	}
	if d.Equipment != nil && !d.Equipment.Valid() {
		return &ValidationError{Field: "equipment", Reason: fmt.Sprintf("unknown equipment [%s]", *d.Equipment)}
	}
	return nil
}

type Exercise struct {
	ID        string `json:"id"`
	WorkoutID string `json:"workout_id"`
	ExerciseData
	CreatedAt time.Time `json:"created_at"`
}

// Clone returns a copy not sharing any pointers with e.
func (e Exercise) Clone() Exercise {
	e.ExerciseData = e.ExerciseData.clone()
	return e
}

func (d ExerciseData) clone() ExerciseData {
	if d.Sets != nil {
		v := *d.Sets
		d.Sets = &v
	}
	if d.Reps != nil {
		v := *d.Reps
		d.Reps = &v
	}
	if d.Weight != nil {
		v := *d.Weight
		d.Weight = &v
	}
	if d.Equipment != nil {
		v := *d.Equipment
		d.Equipment = &v
	}
	if d.Notes != nil {
		v := *d.Notes
		d.Notes = &v
	}
	return d
}
