package muscles

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFor_ExactAndCaseInsensitive(t *testing.T) {
	assert.Equal(t, []string{Chest, Triceps, FrontDeltoids}, For("Bench Press"))
	assert.Equal(t, []string{Chest, Triceps, FrontDeltoids}, For("bench press"))
	assert.Equal(t, []string{Chest, Triceps, FrontDeltoids}, For("  BENCH PRESS "))
}

func TestFor_CalfRaise(t *testing.T) {
	assert.Equal(t, []string{Calves}, For("Standing Calf Raise"))
	assert.Equal(t, []string{Calves}, For("Calf Raise"))
}

func TestFor_ExactBeatsSubstring(t *testing.T) {
	table := NewTable(map[string][]string{
		"Calf Raise":          {"generic-calves"},
		"Standing Calf Raise": {"standing-calves"},
	})

	// a generic query resolves to its own key, not to the more specific one containing it
	assert.Equal(t, []string{"generic-calves"}, table.For("Calf Raise"))
	assert.Equal(t, []string{"generic-calves"}, table.For("calf raise"))
	assert.Equal(t, []string{"standing-calves"}, table.For("Standing Calf Raise"))
	// the specific query never falls back to the generic key it contains
	assert.Equal(t, []string{"standing-calves"}, table.For("standing calf raise"))
	assert.Empty(t, NewTable(map[string][]string{"Calf Raise": {"c"}}).For("Standing Calf Raise"))
}

func TestFor_Plurals(t *testing.T) {
	// query + s is a key
	assert.Equal(t, []string{Trapezius}, For("Shrug"))
	assert.Equal(t, []string{Quadriceps, Gluteal, Hamstring}, For("Lunge"))
	// key + s is the query
	assert.Equal(t, []string{Hamstring, Gluteal, LowerBack, Trapezius}, For("Deadlifts"))
	assert.Equal(t, []string{Quadriceps, Gluteal, Hamstring}, For("squats"))

	table := NewTable(map[string][]string{"RDL": {Hamstring}})
	assert.Equal(t, []string{Hamstring}, table.For("RDLs"))
}

func TestFor_Substring(t *testing.T) {
	// "Curl" is contained in several keys; sorted key order makes the pick stable
	assert.Equal(t, []string{Biceps}, For("Curl"))
	assert.Equal(t, []string{Hamstring}, For("leg curl"))
	assert.Equal(t, []string{Abs}, For("Wheel"))

	// "Press" is ambiguous, resolves to the alphabetically first key containing it
	assert.Equal(t, []string{FrontDeltoids, Triceps}, For("Press"))

	// too short for substring matching
	assert.Empty(t, For("Ab"))
	assert.Empty(t, For("Ro"))
	assert.Empty(t, For(""))
	assert.Empty(t, For("Zercher Carry"))
}

func TestFor_ReturnsCopies(t *testing.T) {
	groups := For("Squat")
	require.NotEmpty(t, groups)
	groups[0] = "mutated"
	assert.Equal(t, Quadriceps, For("Squat")[0])
}

func TestExerciseNames(t *testing.T) {
	names := ExerciseNames()
	assert.Len(t, names, len(exerciseToMuscles))
	assert.IsNonDecreasing(t, names)
	assert.Equal(t, "Ab Wheel", names[0])
}
