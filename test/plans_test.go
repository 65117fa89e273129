package test

import (
	"context"
	"net/http"

	"github.com/2beens/liftlog/internal/auth"
	"github.com/2beens/liftlog/internal/plans"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (s *IntegrationTestSuite) TestPlans() {
	t := s.T()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	token := doLogin(ctx, t, s.httpClient).Token

	demo := plans.DemoPlan()
	var created plans.WorkoutPlan
	doJSON(t, s.httpClient, newRequest(ctx, t, "POST", "/plans", demo, token), http.StatusCreated, &created)
	require.NotEmpty(t, created.ID)
	assert.Equal(t, demo.Name, created.Name)

	var owner string
	require.NoError(t, s.DB.QueryRowContext(ctx,
		`SELECT user_id FROM workout_plans WHERE id = $1`, created.ID,
	).Scan(&owner))
	assert.Equal(t, auth.LocalUserID(testUsername), owner)

	var list plans.PlansResponse
	doJSON(t, s.httpClient, newRequest(ctx, t, "GET", "/plans", nil, token), http.StatusOK, &list)
	require.NotEmpty(t, list.Plans)
	assert.Equal(t, created.ID, list.Plans[0].ID)

	var day plans.DayResponse
	// 2025-01-06 is a monday
	doJSON(t, s.httpClient, newRequest(ctx, t, "GET", "/plans/"+created.ID+"/day/2025-01-06", nil, token), http.StatusOK, &day)
	assert.Equal(t, "monday", day.Day)
	require.NotNil(t, day.Template)
	assert.Equal(t, "push", day.Template.ID)
	assert.Len(t, day.Prefill, len(day.Template.Exercises))

	doJSON(t, s.httpClient, newRequest(ctx, t, "GET", "/plans/"+created.ID+"/day/tuesday", nil, token), http.StatusOK, &day)
	assert.Nil(t, day.Template)

	broken := `{"name":"Broken","schedule":{"monday":{"dayTemplateId":"nope"}},"dayTemplates":[]}`
	doJSON(t, s.httpClient, newRequest(ctx, t, "POST", "/plans", broken, token), http.StatusBadRequest, nil)

	var validation plans.ValidationResponse
	doJSON(t, s.httpClient, newRequest(ctx, t, "POST", "/plans/validate", broken, ""), http.StatusOK, &validation)
	assert.Len(t, validation.Problems, 1)

	doJSON(t, s.httpClient, newRequest(ctx, t, "GET", "/plans/does-not-exist", nil, token), http.StatusNotFound, nil)
}
