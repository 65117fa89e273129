// Package plans holds weekly training plans: day templates with prescribed
// exercises, and a schedule mapping week days to those templates.
package plans

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/2beens/liftlog/internal/workouts"
)

// Days are the accepted schedule keys, monday first.
var Days = []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

var ErrInvalidPlan = errors.New("invalid workout plan")

type ExerciseSetTemplate struct {
	TargetReps   *int     `json:"targetReps" yaml:"targetReps"`
	TargetWeight *float64 `json:"targetWeight,omitempty" yaml:"targetWeight,omitempty"`
	RIR          *int     `json:"rir,omitempty" yaml:"rir,omitempty"`
	Tempo        *string  `json:"tempo,omitempty" yaml:"tempo,omitempty"`
	Notes        *string  `json:"notes,omitempty" yaml:"notes,omitempty"`
}

type ExerciseTemplate struct {
	ID               string                `json:"id" yaml:"id"`
	Name             string                `json:"name" yaml:"name"`
	Equipment        *workouts.Equipment   `json:"equipment,omitempty" yaml:"equipment,omitempty"`
	PrimaryMuscles   []string              `json:"primaryMuscles,omitempty" yaml:"primaryMuscles,omitempty"`
	SecondaryMuscles []string              `json:"secondaryMuscles,omitempty" yaml:"secondaryMuscles,omitempty"`
	Notes            *string               `json:"notes,omitempty" yaml:"notes,omitempty"`
	Sets             []ExerciseSetTemplate `json:"sets" yaml:"sets"`
}

// ExerciseData turns the template into draft input: the set count, and the
// reps and weight targets of the first set.
func (t ExerciseTemplate) ExerciseData() workouts.ExerciseData {
	data := workouts.ExerciseData{
		Name:      t.Name,
		Equipment: clonePtr(t.Equipment),
		Notes:     clonePtr(t.Notes),
	}
	if len(t.Sets) > 0 {
		sets := len(t.Sets)
		data.Sets = &sets
		data.Reps = clonePtr(t.Sets[0].TargetReps)
		data.Weight = clonePtr(t.Sets[0].TargetWeight)
	}
	return data.Normalize()
}

func (t ExerciseTemplate) clone() ExerciseTemplate {
	c := t
	c.Equipment = clonePtr(t.Equipment)
	c.Notes = clonePtr(t.Notes)
	c.PrimaryMuscles = slices.Clone(t.PrimaryMuscles)
	c.SecondaryMuscles = slices.Clone(t.SecondaryMuscles)
	c.Sets = make([]ExerciseSetTemplate, len(t.Sets))
	for i, s := range t.Sets {
		c.Sets[i] = ExerciseSetTemplate{
			TargetReps:   clonePtr(s.TargetReps),
			TargetWeight: clonePtr(s.TargetWeight),
			RIR:          clonePtr(s.RIR),
			Tempo:        clonePtr(s.Tempo),
			Notes:        clonePtr(s.Notes),
		}
	}
	return c
}

type DayTemplate struct {
	ID   string `json:"id" yaml:"id"`
	Key  string `json:"key" yaml:"key"`
	Name string `json:"name" yaml:"name"`
	// Focus is a workout type, or "Rest".
	Focus     string             `json:"focus" yaml:"focus"`
	Notes     *string            `json:"notes,omitempty" yaml:"notes,omitempty"`
	Exercises []ExerciseTemplate `json:"exercises" yaml:"exercises"`
}

// WorkoutType maps the focus onto a workout type; rest days and unknown
// focuses give the zero type.
func (d DayTemplate) WorkoutType() workouts.WorkoutType {
	t, err := workouts.ParseWorkoutType(d.Focus)
	if err != nil {
		return workouts.WorkoutType{}
	}
	return t
}

type ScheduleEntry struct {
	DayTemplateID string `json:"dayTemplateId" yaml:"dayTemplateId"`
	IsRestDay     bool   `json:"isRestDay,omitempty" yaml:"isRestDay,omitempty"`
}

type WorkoutPlan struct {
	ID            string                   `json:"id" yaml:"id"`
	Name          string                   `json:"name" yaml:"name"`
	Description   *string                  `json:"description,omitempty" yaml:"description,omitempty"`
	DurationWeeks *int                     `json:"durationWeeks,omitempty" yaml:"durationWeeks,omitempty"`
	Schedule      map[string]ScheduleEntry `json:"schedule" yaml:"schedule"`
	DayTemplates  []DayTemplate            `json:"dayTemplates" yaml:"dayTemplates"`
	Metadata      map[string]any           `json:"metadata,omitempty" yaml:"metadata,omitempty"`
	CreatedAt     time.Time                `json:"created_at,omitempty" yaml:"-"`
}

// ScheduledDays returns the plan's schedule keys, week days first in week
// order, then any other keys sorted.
func (p WorkoutPlan) ScheduledDays() []string {
	keys := make([]string, 0, len(p.Schedule))
	for _, day := range Days {
		if _, ok := p.Schedule[day]; ok {
			keys = append(keys, day)
		}
	}
	var others []string
	for day := range p.Schedule {
		if !slices.Contains(Days, day) {
			others = append(others, day)
		}
	}
	slices.Sort(others)
	return append(keys, others...)
}

// ValidateSchedule reports every schedule entry whose template id does not
// resolve, in ScheduledDays order. Problems are not fatal.
func ValidateSchedule(plan WorkoutPlan) []string {
	var problems []string
	for _, day := range plan.ScheduledDays() {
		entry := plan.Schedule[day]
		if plan.template(entry.DayTemplateID) == nil {
			problems = append(problems,
				fmt.Sprintf("No template found for day %q (expected id: %s).", day, entry.DayTemplateID))
		}
	}
	return problems
}

// Validate is the check a plan must pass before it is stored.
func Validate(plan WorkoutPlan) error {
	if strings.TrimSpace(plan.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidPlan)
	}
	if problems := ValidateSchedule(plan); len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidPlan, strings.Join(problems, " "))
	}
	return nil
}

func (p WorkoutPlan) template(id string) *DayTemplate {
	for i := range p.DayTemplates {
		if p.DayTemplates[i].ID == id {
			return &p.DayTemplates[i]
		}
	}
	return nil
}

// DayTemplateFor returns the template scheduled for day, or nil when the day
// is not scheduled or its template is missing.
func DayTemplateFor(plan WorkoutPlan, day string) *DayTemplate {
	entry, ok := plan.Schedule[strings.ToLower(day)]
	if !ok {
		return nil
	}
	t := plan.template(entry.DayTemplateID)
	if t == nil {
		return nil
	}
	c := *t
	c.Exercises = BuildExercisePrefill(*t)
	return &c
}

// DayKey is the schedule key of the week day t falls on.
func DayKey(t time.Time) string {
	return strings.ToLower(t.Weekday().String())
}

// BuildExercisePrefill returns independent copies of the template exercises.
func BuildExercisePrefill(template DayTemplate) []ExerciseTemplate {
	prefill := make([]ExerciseTemplate, len(template.Exercises))
	for i, e := range template.Exercises {
		prefill[i] = e.clone()
	}
	return prefill
}

func clonePtr[T any](v *T) *T {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

// metadataJSON keeps the jsonb columns non-null.
func metadataJSON(m map[string]any) ([]byte, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}
