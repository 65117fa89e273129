package plans

import (
	"github.com/2beens/liftlog/internal/workouts"
)

func sets(count, reps, rir int) []ExerciseSetTemplate {
	list := make([]ExerciseSetTemplate, count)
	for i := range list {
		list[i] = ExerciseSetTemplate{TargetReps: clonePtr(&reps), RIR: clonePtr(&rir)}
	}
	return list
}

func equipment(e workouts.Equipment) *workouts.Equipment {
	return &e
}

func text(s string) *string {
	return &s
}

// DemoPlan is a push/pull/legs starter plan, scheduled monday, wednesday
// and friday.
func DemoPlan() WorkoutPlan {
	weeks := 4
	return WorkoutPlan{
		ID:            "push-pull-legs-v1",
		Name:          "Push/Pull/Legs Preview",
		Description:   text("Starter schedule to validate plan typing and template lookups."),
		DurationWeeks: &weeks,
		Metadata:      map[string]any{"source": "demo-plan"},
		Schedule: map[string]ScheduleEntry{
			"monday":    {DayTemplateID: "push"},
			"wednesday": {DayTemplateID: "pull"},
			"friday":    {DayTemplateID: "legs"},
		},
		DayTemplates: []DayTemplate{
			{
				ID:    "push",
				Key:   "push",
				Name:  "Push Day",
				Focus: string(workouts.Push),
				Notes: text("Chest, shoulders, and triceps focus."),
				Exercises: []ExerciseTemplate{
					{
						ID:               "bench-press",
						Name:             "Barbell Bench Press",
						Equipment:        equipment(workouts.EquipmentBar),
						PrimaryMuscles:   []string{"chest"},
						SecondaryMuscles: []string{"triceps", "shoulders"},
						Sets:             sets(3, 8, 2),
					},
					{
						ID:               "overhead-press",
						Name:             "Dumbbell Overhead Press",
						Equipment:        equipment(workouts.EquipmentDumbbell),
						PrimaryMuscles:   []string{"shoulders"},
						SecondaryMuscles: []string{"triceps"},
						Sets:             sets(2, 10, 2),
					},
				},
			},
			{
				ID:    "pull",
				Key:   "pull",
				Name:  "Pull Day",
				Focus: string(workouts.Pull),
				Notes: text("Back and biceps focus."),
				Exercises: []ExerciseTemplate{
					{
						ID:               "row",
						Name:             "Seated Cable Row",
						Equipment:        equipment(workouts.EquipmentCable),
						PrimaryMuscles:   []string{"back"},
						SecondaryMuscles: []string{"biceps"},
						Sets:             sets(2, 12, 2),
					},
					{
						ID:               "pulldown",
						Name:             "Lat Pulldown",
						Equipment:        equipment(workouts.EquipmentMachine),
						PrimaryMuscles:   []string{"back"},
						SecondaryMuscles: []string{"biceps"},
						Sets:             sets(2, 10, 2),
					},
				},
			},
			{
				ID:    "legs",
				Key:   "legs",
				Name:  "Leg Day",
				Focus: string(workouts.Legs),
				Notes: text("Lower body compound and accessory work."),
				Exercises: []ExerciseTemplate{
					{
						ID:               "squat",
						Name:             "Back Squat",
						Equipment:        equipment(workouts.EquipmentBar),
						PrimaryMuscles:   []string{"quads"},
						SecondaryMuscles: []string{"glutes", "core"},
						Sets:             sets(3, 6, 2),
					},
					{
						ID:               "rdl",
						Name:             "Romanian Deadlift",
						Equipment:        equipment(workouts.EquipmentBar),
						PrimaryMuscles:   []string{"hamstrings"},
						SecondaryMuscles: []string{"glutes"},
						Sets:             sets(2, 10, 2),
					},
				},
			},
		},
	}
}
