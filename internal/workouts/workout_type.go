package workouts

import (
	"fmt"
	"strings"
)

type Category string

const (
	Push      Category = "Push"
	Pull      Category = "Pull"
	Legs      Category = "Legs"
	UpperBody Category = "Upper body"
	Other     Category = "Other"
)

var Categories = []Category{Push, Pull, Legs, UpperBody, Other}

// customPrefix is how custom labels are stored in the single type column.
const customPrefix = string(Other) + ": "

// WorkoutType is either one of the fixed categories or a custom label.
// The zero value means "no type chosen yet".
type WorkoutType struct {
	category Category
	label    string
}

func Fixed(category Category) WorkoutType {
	return WorkoutType{category: category}
}

// Custom returns a free text type. A blank label is plain Other.
func Custom(label string) WorkoutType {
	label = strings.TrimSpace(label)
	if label == "" {
		return Fixed(Other)
	}
	return WorkoutType{category: Other, label: label}
}

func (t WorkoutType) IsZero() bool {
	return t.category == ""
}

func (t WorkoutType) IsCustom() bool {
	return t.label != ""
}

func (t WorkoutType) Category() Category {
	return t.category
}

func (t WorkoutType) Label() string {
	return t.label
}

func (t WorkoutType) String() string {
	if t.label != "" {
		return customPrefix + t.label
	}
	return string(t.category)
}

// ParseWorkoutType accepts a category (case insensitive) or "Other: <label>".
// An empty string is the zero type.
func ParseWorkoutType(s string) (WorkoutType, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return WorkoutType{}, nil
	}

	if len(s) > len(customPrefix) && strings.EqualFold(s[:len(customPrefix)], customPrefix) {
		return Custom(s[len(customPrefix):]), nil
	}

	for _, c := range Categories {
		if strings.EqualFold(s, string(c)) {
			return Fixed(c), nil
		}
	}

	return WorkoutType{}, fmt.Errorf("unknown workout type [%s]", s)
}

func (t WorkoutType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *WorkoutType) UnmarshalText(text []byte) error {
	parsed, err := ParseWorkoutType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
