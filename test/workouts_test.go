package test

import (
	"context"
	"net/http"

	"github.com/2beens/liftlog/internal/autofill"
	"github.com/2beens/liftlog/internal/calendar"
	"github.com/2beens/liftlog/internal/session"
	"github.com/2beens/liftlog/internal/workouts"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (s *IntegrationTestSuite) TestWorkoutDraftSaveAndDelete() {
	t := s.T()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	token := doLogin(ctx, t, s.httpClient).Token

	doJSON(t, s.httpClient, newRequest(ctx, t, "POST", "/draft/start", `{"type":"Push"}`, token), http.StatusCreated, nil)

	notes := gofakeit.Sentence(6)
	sets, reps := gofakeit.Number(1, 5), gofakeit.Number(5, 12)
	weight := float64(gofakeit.Number(20, 120))
	bench := workouts.ExerciseData{
		Name:   "Bench Press",
		Sets:   &sets,
		Reps:   &reps,
		Weight: &weight,
		Notes:  &notes,
	}
	var added workouts.Exercise
	doJSON(t, s.httpClient, newRequest(ctx, t, "POST", "/draft/exercises", bench, token), http.StatusCreated, &added)
	assert.Equal(t, "Bench Press", added.Name)

	doJSON(t, s.httpClient, newRequest(ctx, t, "POST", "/draft/exercises", `{"exercise_name":"Dips","sets":3,"reps":10}`, token), http.StatusCreated, nil)
	doJSON(t, s.httpClient, newRequest(ctx, t, "PUT", "/draft", `{"date":"2025-01-08"}`, token), http.StatusOK, nil)

	var saved session.SaveResponse
	doJSON(t, s.httpClient, newRequest(ctx, t, "POST", "/draft/save", nil, token), http.StatusOK, &saved)
	require.NotEmpty(t, saved.WorkoutID)

	var rowDate, rowType string
	require.NoError(t, s.DB.QueryRowContext(ctx,
		`SELECT to_char(date, 'YYYY-MM-DD'), type FROM workouts WHERE id = $1`, saved.WorkoutID,
	).Scan(&rowDate, &rowType))
	assert.Equal(t, "2025-01-08", rowDate)
	assert.Equal(t, "Push", rowType)

	var exercisesCount int
	require.NoError(t, s.DB.QueryRowContext(ctx,
		`SELECT count(*) FROM exercises WHERE workout_id = $1`, saved.WorkoutID,
	).Scan(&exercisesCount))
	assert.Equal(t, 2, exercisesCount)

	var workout workouts.Workout
	doJSON(t, s.httpClient, newRequest(ctx, t, "GET", "/workouts/"+saved.WorkoutID, nil, token), http.StatusOK, &workout)
	require.Len(t, workout.Exercises, 2)
	assert.Equal(t, "Bench Press", workout.Exercises[0].Name)
	require.NotNil(t, workout.Exercises[0].Notes)
	assert.Equal(t, notes, *workout.Exercises[0].Notes)

	doJSON(t, s.httpClient, newRequest(ctx, t, "GET", "/workouts/date/2025-01-08", nil, token), http.StatusOK, &workout)
	assert.Equal(t, saved.WorkoutID, workout.ID)

	var suggest autofill.SuggestResponse
	doJSON(t, s.httpClient, newRequest(ctx, t, "GET", "/exercises/suggest?q=di", nil, token), http.StatusOK, &suggest)
	assert.Contains(t, suggest.Suggestions, "Dips")

	var week calendar.View
	doJSON(t, s.httpClient, newRequest(ctx, t, "GET", "/calendar?view=week&date=2025-01-08", nil, token), http.StatusOK, &week)
	assert.Equal(t, 1, week.WorkoutDays)

	doJSON(t, s.httpClient, newRequest(ctx, t, "DELETE", "/workouts/"+saved.WorkoutID, nil, token), http.StatusOK, nil)
	doJSON(t, s.httpClient, newRequest(ctx, t, "GET", "/workouts/"+saved.WorkoutID, nil, token), http.StatusNotFound, nil)

	// exercises go with their workout
	require.NoError(t, s.DB.QueryRowContext(ctx,
		`SELECT count(*) FROM exercises WHERE workout_id = $1`, saved.WorkoutID,
	).Scan(&exercisesCount))
	assert.Equal(t, 0, exercisesCount)
}

func (s *IntegrationTestSuite) TestSaveRejectsEmptyDraft() {
	t := s.T()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	token := doLogin(ctx, t, s.httpClient).Token

	doJSON(t, s.httpClient, newRequest(ctx, t, "DELETE", "/draft", nil, token), http.StatusOK, nil)
	doJSON(t, s.httpClient, newRequest(ctx, t, "POST", "/draft/start", `{"type":"Legs"}`, token), http.StatusCreated, nil)
	doJSON(t, s.httpClient, newRequest(ctx, t, "POST", "/draft/save", nil, token), http.StatusBadRequest, nil)
}
